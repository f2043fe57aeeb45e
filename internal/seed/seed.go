package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"tally/internal/config"
	"tally/internal/feature"
	"tally/internal/logging"
)

// Result describes what an import run did.
type Result struct {
	Source   string
	Imported int64
	Skipped  bool
}

// entry mirrors one record of the legacy JSON feature list.
type entry struct {
	Priority    int64    `json:"priority"`
	Category    string   `json:"category"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Steps       []string `json:"steps"`
	Passes      bool     `json:"passes"`
}

// Import loads the legacy feature list into an empty store and renames the
// consumed file to <name>.migrated. A missing source file or a store that
// already holds rows makes the call a no-op, which keeps repeated startups
// idempotent.
func Import(ctx context.Context, store *feature.Store, cfg *config.Config, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "seed")

	path := cfg.SeedPath()
	result := &Result{Source: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		result.Skipped = true
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	existing, err := store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("check store before import: %w", err)
	}
	if existing > 0 {
		logger.Info("seed import skipped, store already has features",
			logging.Int64("existing", existing))
		result.Skipped = true
		return result, nil
	}

	entries, err := parseEntries(data)
	if err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	records := make([]feature.Record, 0, len(entries))
	for _, e := range entries {
		records = append(records, feature.Record{
			Priority:    e.Priority,
			Category:    e.Category,
			Name:        e.Name,
			Description: e.Description,
			Steps:       e.Steps,
			Passes:      e.Passes,
		})
	}

	imported, err := store.ImportRecords(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("import seed records: %w", err)
	}
	result.Imported = imported

	// The rename is what keeps a later run from re-importing after every
	// row has been deleted. Failing to rename is not worth failing the
	// startup over; the empty-store guard still covers the common case.
	if err := os.Rename(path, path+".migrated"); err != nil {
		logger.Warn("failed to rename consumed seed file", logging.Error(err))
	}

	logger.Info("imported legacy feature list",
		logging.Int64("imported", imported),
		logging.String("source", path))
	return result, nil
}

// parseEntries accepts both layouts the legacy file appeared in: a bare JSON
// array and an object wrapping the array under "features".
func parseEntries(data []byte) ([]entry, error) {
	var entries []entry
	if err := json.Unmarshal(data, &entries); err == nil {
		return entries, nil
	}
	var wrapped struct {
		Features []entry `json:"features"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Features, nil
}
