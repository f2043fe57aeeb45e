package api

import (
	"context"
	"errors"
	"strings"
	"testing"

	"tally/internal/feature"
)

type mockStore struct {
	insertResult *feature.Feature
	batchResult  []*feature.Feature
	getResult    *feature.Feature
	listResult   []*feature.Feature
	listTotal    int64
	nextResult   *feature.Feature
	setResult    *feature.Feature
	removed      bool
	stats        feature.Stats
	health       feature.DatabaseHealth
	healthErr    error
	err          error

	insertedDraft *feature.Draft
	batchDrafts   []feature.Draft
	lastListQuery feature.ListQuery
}

func (m *mockStore) Insert(_ context.Context, draft feature.Draft) (*feature.Feature, error) {
	m.insertedDraft = &draft
	return m.insertResult, m.err
}

func (m *mockStore) InsertBatch(_ context.Context, drafts []feature.Draft) ([]*feature.Feature, error) {
	m.batchDrafts = drafts
	return m.batchResult, m.err
}

func (m *mockStore) GetByID(context.Context, int64) (*feature.Feature, error) {
	return m.getResult, m.err
}

func (m *mockStore) List(_ context.Context, query feature.ListQuery) ([]*feature.Feature, int64, error) {
	m.lastListQuery = query
	return m.listResult, m.listTotal, m.err
}

func (m *mockStore) NextPending(context.Context) (*feature.Feature, error) {
	return m.nextResult, m.err
}

func (m *mockStore) SetPasses(context.Context, int64, bool) (*feature.Feature, error) {
	return m.setResult, m.err
}

func (m *mockStore) Remove(context.Context, int64) (bool, error) {
	return m.removed, m.err
}

func (m *mockStore) Stats(context.Context) (feature.Stats, error) {
	return m.stats, m.err
}

func (m *mockStore) CheckHealth(context.Context) (feature.DatabaseHealth, error) {
	return m.health, m.healthErr
}

func validInput() FeatureInput {
	return FeatureInput{
		Category:    "core",
		Name:        "sample",
		Description: "sample description",
		Steps:       []string{"run it"},
	}
}

func TestServiceList(t *testing.T) {
	store := &mockStore{
		listResult: []*feature.Feature{{ID: 3, Priority: 1, Category: "core", Name: "a"}},
		listTotal:  7,
	}
	svc := NewService(store)

	got, err := svc.List(context.Background(), ListRequest{Limit: 2, Offset: 4, Category: "core"})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if got.Total != 7 || got.Limit != 2 || got.Offset != 4 {
		t.Fatalf("unexpected page metadata: %+v", got)
	}
	if len(got.Features) != 1 || got.Features[0].ID != 3 {
		t.Fatalf("unexpected features: %+v", got.Features)
	}
	if got.Features[0].Steps == nil {
		t.Fatal("expected steps to serialize as an empty list, not null")
	}
	if store.lastListQuery.Category != "core" || store.lastListQuery.Limit != 2 || store.lastListQuery.Offset != 4 {
		t.Fatalf("unexpected store query: %+v", store.lastListQuery)
	}
}

func TestServiceListValidatesBounds(t *testing.T) {
	svc := NewService(&mockStore{})
	cases := []struct {
		name string
		req  ListRequest
	}{
		{"zero limit", ListRequest{Limit: 0}},
		{"limit too large", ListRequest{Limit: feature.MaxListLimit + 1}},
		{"negative offset", ListRequest{Limit: 10, Offset: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.List(context.Background(), tc.req)
			if !IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestServiceNextPending(t *testing.T) {
	store := &mockStore{nextResult: &feature.Feature{ID: 9, Name: "next"}}
	svc := NewService(store)

	got, err := svc.NextPending(context.Background())
	if err != nil {
		t.Fatalf("NextPending returned error: %v", err)
	}
	if got.ID != 9 {
		t.Fatalf("unexpected feature: %+v", got)
	}

	store.nextResult = nil
	_, err = svc.NextPending(context.Background())
	if !IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
	if err.Error() != msgAllPassing {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestServiceGetMissing(t *testing.T) {
	svc := NewService(&mockStore{})
	_, err := svc.Get(context.Background(), 42)
	if !IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestServiceCreateValidatesInput(t *testing.T) {
	long := strings.Repeat("x", 300)
	cases := []struct {
		name  string
		mutat func(*FeatureInput)
	}{
		{"missing category", func(in *FeatureInput) { in.Category = "" }},
		{"category too long", func(in *FeatureInput) { in.Category = long }},
		{"missing name", func(in *FeatureInput) { in.Name = "" }},
		{"name too long", func(in *FeatureInput) { in.Name = long }},
		{"missing description", func(in *FeatureInput) { in.Description = "" }},
		{"no steps", func(in *FeatureInput) { in.Steps = nil }},
		{"blank step", func(in *FeatureInput) { in.Steps = []string{"ok", ""} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &mockStore{}
			svc := NewService(store)
			input := validInput()
			tc.mutat(&input)
			_, err := svc.Create(context.Background(), input)
			if !IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if store.insertedDraft != nil {
				t.Fatal("store must not be touched on validation failure")
			}
		})
	}
}

func TestServiceCreate(t *testing.T) {
	store := &mockStore{insertResult: &feature.Feature{ID: 1, Priority: 1, Category: "core", Name: "sample"}}
	svc := NewService(store)

	got, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if got.ID != 1 || got.Passes {
		t.Fatalf("unexpected feature: %+v", got)
	}
	if store.insertedDraft == nil || store.insertedDraft.Name != "sample" {
		t.Fatalf("unexpected draft: %+v", store.insertedDraft)
	}
}

func TestServiceCreateBulkAllOrNothing(t *testing.T) {
	store := &mockStore{}
	svc := NewService(store)

	bad := validInput()
	bad.Name = ""
	_, err := svc.CreateBulk(context.Background(), []FeatureInput{validInput(), bad})
	if !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if store.batchDrafts != nil {
		t.Fatal("store must not be touched when any input is invalid")
	}

	_, err = svc.CreateBulk(context.Background(), nil)
	if !IsValidation(err) {
		t.Fatalf("expected validation error for empty batch, got %v", err)
	}

	store.batchResult = []*feature.Feature{{ID: 1}, {ID: 2}}
	created, err := svc.CreateBulk(context.Background(), []FeatureInput{validInput(), validInput()})
	if err != nil {
		t.Fatalf("CreateBulk returned error: %v", err)
	}
	if created != 2 {
		t.Fatalf("expected 2 created, got %d", created)
	}
	if len(store.batchDrafts) != 2 {
		t.Fatalf("expected 2 drafts, got %d", len(store.batchDrafts))
	}
}

func TestServiceSetPassesMissing(t *testing.T) {
	svc := NewService(&mockStore{})
	_, err := svc.SetPasses(context.Background(), 42, true)
	if !IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestServiceDelete(t *testing.T) {
	store := &mockStore{removed: true}
	svc := NewService(store)
	if err := svc.Delete(context.Background(), 1); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	store.removed = false
	err := svc.Delete(context.Background(), 1)
	if !IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestServiceHealth(t *testing.T) {
	healthy := feature.DatabaseHealth{
		DatabaseExists:   true,
		DatabaseReadable: true,
		TableExists:      true,
		IntegrityCheck:   true,
	}
	svc := NewService(&mockStore{health: healthy})
	got := svc.Health(context.Background())
	if got.Status != HealthStatusHealthy || got.Database != "connected" {
		t.Fatalf("unexpected health: %+v", got)
	}

	svc = NewService(&mockStore{healthErr: errors.New("disk gone")})
	got = svc.Health(context.Background())
	if got.Status != HealthStatusUnhealthy || got.Database != "disk gone" {
		t.Fatalf("unexpected degraded health: %+v", got)
	}

	broken := healthy
	broken.IntegrityCheck = false
	svc = NewService(&mockStore{health: broken})
	got = svc.Health(context.Background())
	if got.Status != HealthStatusUnhealthy {
		t.Fatalf("expected unhealthy status, got %+v", got)
	}
}

func TestServiceErrorsPassThrough(t *testing.T) {
	sentinel := errors.New("boom")
	svc := NewService(&mockStore{err: sentinel})

	if _, err := svc.Stats(context.Background()); !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}
	if _, err := svc.Get(context.Background(), 1); !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}
	if KindOf(sentinel) != "" {
		t.Fatalf("plain errors must not carry a kind")
	}
}
