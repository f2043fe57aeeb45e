package preflight

import (
	"context"

	"tally/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// The webhook check only runs when a webhook URL is configured.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// Project directory (always checked)
	results = append(results, CheckDirectoryAccess("Project directory", cfg.Paths.ProjectDir))

	// Listener bind address (always checked)
	results = append(results, CheckBind(cfg.Server.Bind))

	// Database file (always checked; a missing file passes because the
	// daemon creates it on first start)
	results = append(results, CheckDatabase(ctx, cfg))

	// Webhook (when configured)
	if cfg.Notifications.WebhookURL != "" {
		results = append(results, CheckWebhook(cfg.Notifications.WebhookURL))
	}

	return results
}
