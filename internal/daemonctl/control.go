// Package daemonctl orchestrates the tallyd process from the CLI: launching
// a detached daemon, waiting for the API to come up, and stopping it with a
// pid-file fallback when the graceful path stalls.
package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"tally/internal/api"
	"tally/internal/apiclient"
	"tally/internal/config"
	"tally/internal/feature"
)

const pollInterval = 200 * time.Millisecond

// ErrDaemonNotRunning indicates the daemon API is unreachable.
var ErrDaemonNotRunning = errors.New("daemon not running")

// LaunchOptions controls daemon process launch behavior.
type LaunchOptions struct {
	ConfigPath string
	LogLevel   string
}

// StartState classifies the outcome of a start request.
type StartState string

// Start outcomes.
const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
)

// StartResult captures daemon start orchestration state.
type StartResult struct {
	State    StartState
	Launched bool
	PID      int
	Bind     string
}

// StopResult captures daemon stop/termination outcome.
type StopResult struct {
	StopAcknowledged bool
	ForcedKill       bool
	PID              int
}

// RestartResult captures stop/start outcomes for daemon restart.
type RestartResult struct {
	WasRunning bool
	Stop       StopResult
	Start      StartResult
}

// Launch starts a detached tallyd process. The child logs to the daemon log
// file under the project runtime directory, so its stdio is discarded here.
func Launch(executablePath string, opts LaunchOptions) error {
	if strings.TrimSpace(executablePath) == "" {
		return fmt.Errorf("resolve executable: executable path is empty")
	}

	args := []string{"daemon", "run"}
	if cfgPath := strings.TrimSpace(opts.ConfigPath); cfgPath != "" {
		args = append(args, "--config", cfgPath)
	}
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		args = append(args, "--log-level", level)
	}

	proc := exec.Command(executablePath, args...)
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return proc.Process.Release()
}

// WaitForAPI polls the health endpoint until the daemon answers, returning a
// connected client.
func WaitForAPI(ctx context.Context, bind string, timeout time.Duration) (*apiclient.Client, error) {
	client, err := apiclient.New(bind)
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		if _, healthErr := client.Health(ctx); healthErr == nil {
			return client, nil
		} else {
			lastErr = healthErr
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("timeout waiting for daemon")
	}
	return nil, fmt.Errorf("daemon failed to start: %w", lastErr)
}

// EnsureStarted launches the daemon if the API is unreachable and waits for
// it to come up. A reachable daemon is left alone.
func EnsureStarted(ctx context.Context, cfg *config.Config, executablePath string, opts LaunchOptions, waitTimeout time.Duration) (StartResult, error) {
	client, err := apiclient.New(cfg.Server.Bind)
	if err != nil {
		return StartResult{}, err
	}

	launched := false
	if _, healthErr := client.Health(ctx); healthErr != nil {
		if !apiclient.IsUnavailable(healthErr) {
			return StartResult{}, healthErr
		}
		if launchErr := Launch(executablePath, opts); launchErr != nil {
			return StartResult{}, launchErr
		}
		client, err = WaitForAPI(ctx, cfg.Server.Bind, waitTimeout)
		if err != nil {
			return StartResult{}, err
		}
		launched = true
	}

	result := StartResult{State: StartStateAlreadyRunning, Bind: cfg.Server.Bind}
	if launched {
		result.State = StartStateStarted
		result.Launched = true
	}
	if status, statusErr := client.Status(ctx); statusErr == nil {
		result.PID = status.PID
		if status.Bind != "" {
			result.Bind = status.Bind
		}
	}
	return result, nil
}

// WaitForShutdown polls until the daemon API stops answering.
func WaitForShutdown(ctx context.Context, bind string, timeout time.Duration) error {
	client, err := apiclient.New(bind)
	if err != nil {
		return err
	}

	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		_, healthErr := client.Health(ctx)
		if healthErr != nil && apiclient.IsUnavailable(healthErr) {
			return nil
		}
		if healthErr != nil {
			lastErr = healthErr
		} else {
			lastErr = fmt.Errorf("daemon still running")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("timeout waiting for shutdown")
	}
	return fmt.Errorf("daemon did not stop: %w", lastErr)
}

// StopAndWait requests a graceful shutdown over the API and force-kills the
// process if it is still answering after gracePeriod.
func StopAndWait(ctx context.Context, cfg *config.Config, gracePeriod time.Duration) (StopResult, error) {
	client, err := apiclient.New(cfg.Server.Bind)
	if err != nil {
		return StopResult{}, err
	}

	pid := 0
	if status, statusErr := client.Status(ctx); statusErr == nil {
		pid = status.PID
	} else if apiclient.IsUnavailable(statusErr) {
		return StopResult{}, ErrDaemonNotRunning
	}

	if err := client.Shutdown(ctx); err != nil {
		if apiclient.IsUnavailable(err) {
			return StopResult{}, ErrDaemonNotRunning
		}
		return StopResult{}, err
	}
	result := StopResult{StopAcknowledged: true, PID: pid}

	if err := WaitForShutdown(ctx, cfg.Server.Bind, gracePeriod); err == nil {
		return result, nil
	}

	killedPID, killErr := ForceKillProcess(cfg.PIDFilePath(), cfg.LockFilePath(), pid)
	if killErr != nil {
		return result, fmt.Errorf("failed to stop daemon process: %w", killErr)
	}
	result.ForcedKill = true
	result.PID = killedPID
	return result, nil
}

// Restart stops the daemon if running, then ensures it is started.
func Restart(ctx context.Context, cfg *config.Config, executablePath string, opts LaunchOptions, stopGracePeriod, startWaitTimeout time.Duration) (RestartResult, error) {
	stopResult, stopErr := StopAndWait(ctx, cfg, stopGracePeriod)
	if stopErr != nil && !errors.Is(stopErr, ErrDaemonNotRunning) {
		return RestartResult{}, stopErr
	}

	startResult, err := EnsureStarted(ctx, cfg, executablePath, opts, startWaitTimeout)
	if err != nil {
		return RestartResult{}, err
	}

	return RestartResult{
		WasRunning: stopErr == nil,
		Stop:       stopResult,
		Start:      startResult,
	}, nil
}

// ProcessInfo reports whether the daemon API is reachable and the daemon PID
// when available.
func ProcessInfo(ctx context.Context, cfg *config.Config) (bool, int, error) {
	client, err := apiclient.New(cfg.Server.Bind)
	if err != nil {
		return false, 0, err
	}
	status, statusErr := client.Status(ctx)
	if statusErr != nil {
		if apiclient.IsUnavailable(statusErr) {
			return false, 0, nil
		}
		return true, 0, statusErr
	}
	return status.Running, status.PID, nil
}

// ForceKillProcess sends a kill signal to the daemon process and cleans up
// its pid and lock files.
func ForceKillProcess(pidPath, lockPath string, fallbackPID int) (int, error) {
	pid := fallbackPID
	data, err := os.ReadFile(pidPath)
	if err == nil {
		pidStr := strings.TrimSpace(string(data))
		if pidStr != "" {
			if parsed, parseErr := strconv.Atoi(pidStr); parseErr == nil && parsed > 0 {
				pid = parsed
			}
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return 0, fmt.Errorf("read daemon pid file %q: %w", pidPath, err)
	}
	if pid <= 0 {
		return 0, fmt.Errorf("unable to determine daemon pid (pid file: %s)", pidPath)
	}
	if pid == os.Getpid() {
		return 0, fmt.Errorf("refusing to kill current process (pid %d)", pid)
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return 0, fmt.Errorf("locate daemon process %d: %w", pid, err)
	}
	if err := proc.Kill(); err != nil {
		return 0, fmt.Errorf("kill daemon process %d: %w", pid, err)
	}
	if err := os.Remove(pidPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return 0, fmt.Errorf("remove pid file %q: %w", pidPath, err)
	}
	if lockPath != "" {
		_ = os.Remove(lockPath)
	}
	return pid, nil
}

// BuildStatusSnapshot collects daemon status over the API, falling back to
// direct store reads when the daemon is not running so status output still
// shows backlog counts.
func BuildStatusSnapshot(ctx context.Context, cfg *config.Config) (api.StatusSnapshot, error) {
	if cfg == nil {
		return api.StatusSnapshot{}, errors.New("configuration not available")
	}

	client, err := apiclient.New(cfg.Server.Bind)
	if err != nil {
		return api.StatusSnapshot{}, err
	}
	if snapshot, statusErr := client.Status(ctx); statusErr == nil {
		return snapshot, nil
	} else if !apiclient.IsUnavailable(statusErr) {
		return api.StatusSnapshot{}, statusErr
	}

	snapshot := api.StatusSnapshot{
		Bind:         cfg.Server.Bind,
		ProjectDir:   cfg.Paths.ProjectDir,
		DatabasePath: cfg.DatabasePath(),
		LockPath:     cfg.LockFilePath(),
	}

	// Offline fallback reads the database directly, but never creates it as
	// a side effect of a status query.
	if _, statErr := os.Stat(cfg.DatabasePath()); statErr != nil {
		return snapshot, nil
	}
	store, openErr := feature.Open(cfg)
	if openErr != nil {
		return snapshot, nil
	}
	defer store.Close()

	queryCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if stats, statsErr := store.Stats(queryCtx); statsErr == nil {
		snapshot.Stats = api.FromStats(stats)
	}
	if health, healthErr := store.CheckHealth(queryCtx); healthErr == nil {
		snapshot.Database = api.FromDatabaseHealth(health)
	}
	return snapshot, nil
}
