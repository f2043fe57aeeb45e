package testsupport

import (
	"testing"

	"tally/internal/config"
	"tally/internal/feature"
)

// MustOpenStore opens a feature.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *feature.Store {
	t.Helper()

	store, err := feature.Open(cfg)
	if err != nil {
		t.Fatalf("open feature store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close feature store: %v", err)
		}
	})
	return store
}
