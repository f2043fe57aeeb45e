package progress

import (
	"context"
	"fmt"
	"log/slog"

	"tally/internal/config"
	"tally/internal/logging"
	"tally/internal/notifications"
)

// Tracker compares the current passing set against the progress cache and
// publishes an event for features that pass for the first time.
type Tracker struct {
	source    Source
	sink      notifications.Service
	cachePath string
	project   string
	logger    *slog.Logger
}

// NewTracker builds a tracker rooted at the configured project directory.
func NewTracker(cfg *config.Config, source Source, sink notifications.Service, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Tracker{
		source:    source,
		sink:      sink,
		cachePath: cfg.ProgressCachePath(),
		project:   cfg.ProjectName(),
		logger:    logging.NewComponentLogger(logger, "progress"),
	}
}

// Report summarizes a single progress check.
type Report struct {
	Passing      int64    `json:"passing"`
	Total        int64    `json:"total"`
	Percentage   float64  `json:"percentage"`
	Notified     bool     `json:"notified"`
	Baselined    bool     `json:"baselined"`
	NewlyPassing []string `json:"newly_passing,omitempty"`
}

// Check reads current stats, diffs them against the cache, and publishes a
// progress event when the passing count grew. The cache is rewritten after
// every delivery attempt so a failing sink cannot cause duplicate
// notifications later. When no sink is configured the check reports stats
// without touching the cache.
func (t *Tracker) Check(ctx context.Context) (*Report, error) {
	stats, err := t.source.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("read feature stats: %w", err)
	}
	report := &Report{Passing: stats.Passing, Total: stats.Total, Percentage: stats.Percentage}

	if !t.sink.Enabled() {
		return report, nil
	}

	cache, exists := readCache(t.cachePath)
	switch {
	case stats.Passing > cache.Count:
		previous := make(map[int64]struct{}, len(cache.PassingIDs))
		for _, id := range cache.PassingIDs {
			previous[id] = struct{}{}
		}

		// A failed listing still produces a notification with aggregate
		// counts; the detail list is best-effort.
		features, err := t.source.PassingFeatures(ctx)
		if err != nil {
			t.logger.Warn("failed to list passing features", logging.Error(err))
			features = nil
		}

		var currentIDs []int64
		var completed []string
		for _, f := range features {
			currentIDs = append(currentIDs, f.ID)
			if _, seen := previous[f.ID]; seen {
				continue
			}
			completed = append(completed, completedLabel(f.Category, f.Description))
		}

		event := notifications.ProgressEvent{
			Passing:         stats.Passing,
			Total:           stats.Total,
			Percentage:      stats.Percentage,
			PreviousPassing: cache.Count,
			CompletedCount:  stats.Passing - cache.Count,
			CompletedTests:  completed,
			Project:         t.project,
		}
		if err := t.sink.Publish(ctx, event); err != nil {
			t.logger.Warn("progress notification failed", logging.Error(err))
		} else {
			report.Notified = true
		}
		report.NewlyPassing = completed

		if err := writeCache(t.cachePath, cacheState{Count: stats.Passing, PassingIDs: currentIDs}); err != nil {
			return report, err
		}
	case !exists:
		// First run: record the current state silently so only future
		// passes get announced.
		features, err := t.source.PassingFeatures(ctx)
		if err != nil {
			t.logger.Warn("failed to list passing features", logging.Error(err))
		}
		var ids []int64
		for _, f := range features {
			ids = append(ids, f.ID)
		}
		if err := writeCache(t.cachePath, cacheState{Count: stats.Passing, PassingIDs: ids}); err != nil {
			return report, err
		}
		report.Baselined = true
	}

	return report, nil
}

func completedLabel(category, description string) string {
	if category == "" {
		return description
	}
	return "[" + category + "] " + description
}
