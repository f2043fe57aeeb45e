package preflight

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"tally/internal/config"
	"tally/internal/feature"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckBind verifies the listener address splits into a host and port, and
// notes whether the host is loopback. Non-loopback binds pass but carry a
// warning because the API has no authentication.
func CheckBind(bind string) Result {
	const name = "Bind address"

	host, port, err := net.SplitHostPort(bind)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", bind, err)}
	}
	if port == "" {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: missing port)", bind)}
	}
	if isLoopbackHost(host) {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (loopback)", bind)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (warning: not loopback, API is unauthenticated)", bind)}
}

func isLoopbackHost(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// CheckDatabase inspects the SQLite database when it exists. A missing file
// passes: the daemon creates and migrates it on first start.
func CheckDatabase(ctx context.Context, cfg *config.Config) Result {
	const name = "Database"

	path := cfg.DatabasePath()
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created on first start)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	store, err := feature.Open(cfg)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	defer store.Close()

	health, err := store.CheckHealth(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if health.Error != "" {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %s)", path, health.Error)}
	}
	if !health.TableExists {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: features table missing)", path)}
	}
	if len(health.MissingColumns) > 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: missing columns %v)", path, health.MissingColumns)}
	}
	if !health.IntegrityCheck {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: integrity check failed)", path)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d features, schema %s)", path, health.TotalFeatures, health.SchemaVersion)}
}

// CheckWebhook validates the webhook URL shape without sending a request.
// Progress notifications must never fire as a side effect of a health check.
func CheckWebhook(webhookURL string) Result {
	const name = "Webhook"

	parsed, err := url.Parse(webhookURL)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("invalid url (%v)", err)}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: scheme must be http or https)", webhookURL)}
	}
	if parsed.Host == "" {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: missing host)", webhookURL)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (url ok, delivery not tested)", webhookURL)}
}
