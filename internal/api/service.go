package api

import (
	"context"

	"tally/internal/feature"
)

// Messages returned with not-found failures.
const (
	msgFeatureNotFound = "Feature not found"
	msgAllPassing      = "All features are passing! No more work to do."
)

// FeatureStore abstracts the persistence operations the service needs.
type FeatureStore interface {
	Insert(ctx context.Context, draft feature.Draft) (*feature.Feature, error)
	InsertBatch(ctx context.Context, drafts []feature.Draft) ([]*feature.Feature, error)
	GetByID(ctx context.Context, id int64) (*feature.Feature, error)
	List(ctx context.Context, query feature.ListQuery) ([]*feature.Feature, int64, error)
	NextPending(ctx context.Context) (*feature.Feature, error)
	SetPasses(ctx context.Context, id int64, passes bool) (*feature.Feature, error)
	Remove(ctx context.Context, id int64) (bool, error)
	Stats(ctx context.Context) (feature.Stats, error)
	CheckHealth(ctx context.Context) (feature.DatabaseHealth, error)
}

// Service validates requests and executes them against the feature store.
type Service struct {
	store FeatureStore
}

// NewService constructs a Service around the provided store.
func NewService(store FeatureStore) *Service {
	if store == nil {
		return nil
	}
	return &Service{store: store}
}

// List returns one page of features plus the total matching the filters.
func (s *Service) List(ctx context.Context, req ListRequest) (FeatureList, error) {
	if err := validateListRequest(req); err != nil {
		return FeatureList{}, err
	}
	features, total, err := s.store.List(ctx, feature.ListQuery{
		Passes:   req.Passes,
		Category: req.Category,
		Limit:    req.Limit,
		Offset:   req.Offset,
	})
	if err != nil {
		return FeatureList{}, err
	}
	return FeatureList{
		Features: FromFeatures(features),
		Total:    total,
		Limit:    req.Limit,
		Offset:   req.Offset,
	}, nil
}

// NextPending returns the lowest-(priority, id) feature that is not passing.
func (s *Service) NextPending(ctx context.Context) (Feature, error) {
	f, err := s.store.NextPending(ctx)
	if err != nil {
		return Feature{}, err
	}
	if f == nil {
		return Feature{}, NewNotFoundError(msgAllPassing)
	}
	return FromFeature(f), nil
}

// Stats summarizes passing progress across the backlog.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return Stats{}, err
	}
	return FromStats(stats), nil
}

// Get fetches a single feature by id.
func (s *Service) Get(ctx context.Context, id int64) (Feature, error) {
	f, err := s.store.GetByID(ctx, id)
	if err != nil {
		return Feature{}, err
	}
	if f == nil {
		return Feature{}, NewNotFoundError(msgFeatureNotFound)
	}
	return FromFeature(f), nil
}

// Create validates the input and appends a new feature to the backlog.
func (s *Service) Create(ctx context.Context, input FeatureInput) (Feature, error) {
	if err := validateInput(input); err != nil {
		return Feature{}, err
	}
	f, err := s.store.Insert(ctx, input.draft())
	if err != nil {
		return Feature{}, err
	}
	return FromFeature(f), nil
}

// CreateBulk validates every input before inserting any of them, then commits
// the batch as one transaction. It returns the number of created features.
func (s *Service) CreateBulk(ctx context.Context, inputs []FeatureInput) (int64, error) {
	if err := validateInputs(inputs); err != nil {
		return 0, err
	}
	drafts := make([]feature.Draft, 0, len(inputs))
	for _, input := range inputs {
		drafts = append(drafts, input.draft())
	}
	created, err := s.store.InsertBatch(ctx, drafts)
	if err != nil {
		return 0, err
	}
	return int64(len(created)), nil
}

// SetPasses flips the passing state of a feature, the only mutation allowed
// on existing records.
func (s *Service) SetPasses(ctx context.Context, id int64, passes bool) (Feature, error) {
	f, err := s.store.SetPasses(ctx, id, passes)
	if err != nil {
		return Feature{}, err
	}
	if f == nil {
		return Feature{}, NewNotFoundError(msgFeatureNotFound)
	}
	return FromFeature(f), nil
}

// Delete removes a feature permanently. Its id is never reused.
func (s *Service) Delete(ctx context.Context, id int64) error {
	removed, err := s.store.Remove(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return NewNotFoundError(msgFeatureNotFound)
	}
	return nil
}

// Health reports whether the store is reachable. Failures surface as a
// degraded payload, never an error.
func (s *Service) Health(ctx context.Context) Health {
	health, err := s.store.CheckHealth(ctx)
	if err != nil {
		return Health{Status: HealthStatusUnhealthy, Database: err.Error()}
	}
	if !health.DatabaseExists || !health.DatabaseReadable || !health.TableExists {
		return Health{Status: HealthStatusUnhealthy, Database: "feature table unavailable"}
	}
	if !health.IntegrityCheck {
		return Health{Status: HealthStatusUnhealthy, Database: "integrity check failed"}
	}
	return Health{Status: HealthStatusHealthy, Database: "connected"}
}

// DatabaseHealth exposes the full store diagnostics for status reporting.
func (s *Service) DatabaseHealth(ctx context.Context) (feature.DatabaseHealth, error) {
	return s.store.CheckHealth(ctx)
}
