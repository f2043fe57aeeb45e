package progress

import (
	"context"

	"tally/internal/api"
	"tally/internal/apiclient"
	"tally/internal/feature"
)

// Source provides the stats and passing set the Tracker diffs against its
// cache.
type Source interface {
	Stats(ctx context.Context) (api.Stats, error)
	PassingFeatures(ctx context.Context) ([]api.Feature, error)
}

// NewClientSource adapts an API client into a Source, for checks that run
// against a live daemon.
func NewClientSource(client *apiclient.Client) Source {
	return clientSource{client: client}
}

type clientSource struct {
	client *apiclient.Client
}

func (s clientSource) Stats(ctx context.Context) (api.Stats, error) {
	return s.client.Stats(ctx)
}

func (s clientSource) PassingFeatures(ctx context.Context) ([]api.Feature, error) {
	passes := true
	list, err := s.client.List(ctx, api.ListRequest{Passes: &passes, Limit: feature.MaxListLimit})
	if err != nil {
		return nil, err
	}
	return list.Features, nil
}

// NewServiceSource adapts the in-process feature service into a Source, for
// checks that run inside the daemon.
func NewServiceSource(svc *api.Service) Source {
	return serviceSource{svc: svc}
}

type serviceSource struct {
	svc *api.Service
}

func (s serviceSource) Stats(ctx context.Context) (api.Stats, error) {
	return s.svc.Stats(ctx)
}

func (s serviceSource) PassingFeatures(ctx context.Context) ([]api.Feature, error) {
	passes := true
	list, err := s.svc.List(ctx, api.ListRequest{Passes: &passes, Limit: feature.MaxListLimit})
	if err != nil {
		return nil, err
	}
	return list.Features, nil
}
