package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// EnvWebhookURL overrides the notifications webhook URL when set. An empty
// value (or unset variable) leaves the config file value in place; when
// neither is present the progress notifier is a no-op.
const EnvWebhookURL = "TALLY_WEBHOOK_URL"

// Paths contains the project directory configuration. The project directory
// is the unit of isolation: the database, the legacy seed file, the progress
// cache, and the daemon runtime files all live underneath it.
type Paths struct {
	ProjectDir string `toml:"project_dir"`
}

// Server contains the HTTP listener configuration.
type Server struct {
	Bind string `toml:"bind"`
}

// Notifications contains configuration for the progress webhook.
type Notifications struct {
	WebhookURL     string `toml:"webhook_url"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Progress contains configuration for progress tracking.
type Progress struct {
	CacheFile    string `toml:"cache_file"`
	PollInterval int    `toml:"poll_interval"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Tally.
//
// Configuration sections by subsystem:
//   - Paths: the project directory everything else hangs off
//   - Server: HTTP API bind address (loopback by default)
//   - Notifications: progress webhook URL and request timeout
//   - Progress: cache file name and optional daemon poll interval
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Server        Server        `toml:"server"`
	Notifications Notifications `toml:"notifications"`
	Progress      Progress      `toml:"progress"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/tally/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/tally/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("tally.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the project directory and the runtime directory
// the daemon writes its pid file, lock file, and log into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.ProjectDir, c.RuntimeDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite database location inside the project directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.ProjectDir, "features.db")
}

// SeedPath returns the legacy JSON feature list consumed by the one-time seed import.
func (c *Config) SeedPath() string {
	return filepath.Join(c.Paths.ProjectDir, "feature_list.json")
}

// ProgressCachePath returns the progress cache file location. Relative cache
// file names resolve against the project directory.
func (c *Config) ProgressCachePath() string {
	if filepath.IsAbs(c.Progress.CacheFile) {
		return c.Progress.CacheFile
	}
	return filepath.Join(c.Paths.ProjectDir, c.Progress.CacheFile)
}

// RuntimeDir returns the directory holding daemon runtime state.
func (c *Config) RuntimeDir() string {
	return filepath.Join(c.Paths.ProjectDir, ".tally")
}

// PIDFilePath returns the daemon pid file location.
func (c *Config) PIDFilePath() string {
	return filepath.Join(c.RuntimeDir(), "tallyd.pid")
}

// LockFilePath returns the single-instance lock file location.
func (c *Config) LockFilePath() string {
	return filepath.Join(c.RuntimeDir(), "tallyd.lock")
}

// DaemonLogPath returns the daemon log file location.
func (c *Config) DaemonLogPath() string {
	return filepath.Join(c.RuntimeDir(), "tallyd.log")
}

// ProjectName returns the project directory basename, used to label
// notifications and status output.
func (c *Config) ProjectName() string {
	return filepath.Base(c.Paths.ProjectDir)
}

// BaseURL returns the HTTP API root derived from the bind address.
func (c *Config) BaseURL() string {
	return "http://" + c.Server.Bind
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
