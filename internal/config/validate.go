package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateProgress(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateServer() error {
	host, port, err := net.SplitHostPort(c.Server.Bind)
	if err != nil {
		return fmt.Errorf("server.bind %q is not a host:port address: %w", c.Server.Bind, err)
	}
	if host == "" {
		return errors.New("server.bind must include a host (use 127.0.0.1 for loopback)")
	}
	if port == "" {
		return errors.New("server.bind must include a port")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.WebhookURL != "" {
		parsed, err := url.Parse(c.Notifications.WebhookURL)
		if err != nil {
			return fmt.Errorf("notifications.webhook_url is not a valid URL: %w", err)
		}
		scheme := strings.ToLower(parsed.Scheme)
		if scheme != "http" && scheme != "https" {
			return fmt.Errorf("notifications.webhook_url must use http or https, got %q", c.Notifications.WebhookURL)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateProgress() error {
	if strings.TrimSpace(c.Progress.CacheFile) == "" {
		return errors.New("progress.cache_file must be set")
	}
	if c.Progress.PollInterval < 0 {
		return errors.New("progress.poll_interval must be >= 0 (seconds, 0 disables polling)")
	}
	return nil
}
