package progress

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// cacheState is the persisted bookkeeping for de-duplicating notifications.
type cacheState struct {
	Count      int64   `json:"count"`
	PassingIDs []int64 `json:"passing_ids"`
}

// readCache loads the cache file. A missing file yields (zero, false); an
// unreadable or corrupt file yields (zero, true) so first-run seeding is not
// retriggered.
func readCache(path string) (cacheState, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cacheState{}, !os.IsNotExist(err)
	}
	var state cacheState
	if err := json.Unmarshal(data, &state); err != nil {
		return cacheState{}, true
	}
	return state, true
}

func writeCache(path string, state cacheState) error {
	if state.PassingIDs == nil {
		state.PassingIDs = []int64{}
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode progress cache: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write progress cache: %w", err)
	}
	return nil
}
