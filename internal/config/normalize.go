package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeServer()
	c.normalizeNotifications()
	c.normalizeProgress()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	c.Paths.ProjectDir = strings.TrimSpace(c.Paths.ProjectDir)
	if c.Paths.ProjectDir == "" {
		c.Paths.ProjectDir = defaultProjectDir
	}
	if c.Paths.ProjectDir, err = expandPath(c.Paths.ProjectDir); err != nil {
		return fmt.Errorf("paths.project_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultBind
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.WebhookURL = strings.TrimSpace(c.Notifications.WebhookURL)
	if value, ok := os.LookupEnv(EnvWebhookURL); ok && strings.TrimSpace(value) != "" {
		c.Notifications.WebhookURL = strings.TrimSpace(value)
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultRequestTimeout
	}
}

func (c *Config) normalizeProgress() {
	c.Progress.CacheFile = strings.TrimSpace(c.Progress.CacheFile)
	if c.Progress.CacheFile == "" {
		c.Progress.CacheFile = defaultCacheFile
	}
	if c.Progress.PollInterval < 0 {
		c.Progress.PollInterval = 0
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
