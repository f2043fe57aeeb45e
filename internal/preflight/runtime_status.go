package preflight

import (
	"context"
	"fmt"
	"time"

	"tally/internal/api"
	"tally/internal/apiclient"
	"tally/internal/config"
)

const apiProbeTimeout = 2 * time.Second

// CheckAPIFromConfig probes the daemon health endpoint at the configured
// bind address. A daemon that is not running fails the check with a hint
// rather than a raw connection error.
func CheckAPIFromConfig(cfg *config.Config) Result {
	const name = "Daemon API"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}

	client, err := apiclient.New(cfg.Server.Bind, apiclient.WithTimeout(apiProbeTimeout))
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}

	ctx, cancel := context.WithTimeout(context.Background(), apiProbeTimeout)
	defer cancel()

	health, err := client.Health(ctx)
	if err != nil {
		if apiclient.IsUnavailable(err) {
			return Result{Name: name, Detail: fmt.Sprintf("not running on %s (start with 'tally start')", cfg.Server.Bind)}
		}
		return Result{Name: name, Detail: err.Error()}
	}
	if health.Status != api.HealthStatusHealthy {
		return Result{Name: name, Detail: fmt.Sprintf("responding but unhealthy (%s)", health.Database)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("healthy on %s", cfg.Server.Bind)}
}
