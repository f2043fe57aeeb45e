package testsupport

import (
	"path/filepath"
	"testing"

	"tally/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config rooted in a unique temp directory per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ProjectDir = filepath.Join(base, "project")
	cfg.Server.Bind = "127.0.0.1:0"

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithWebhookURL sets the notification webhook endpoint on the test config.
func WithWebhookURL(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Notifications.WebhookURL = url
	}
}

// WithBind overrides the API bind address on the test config.
func WithBind(bind string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Server.Bind = bind
	}
}
