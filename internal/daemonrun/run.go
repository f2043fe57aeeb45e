package daemonrun

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"tally/internal/config"
	"tally/internal/daemon"
	"tally/internal/logging"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
}

// Run starts the tallyd runtime loop. It blocks until a termination signal
// arrives or a client requests shutdown over the API, then stops the daemon
// gracefully.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	pidPath := cfg.PIDFilePath()
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	d, err := daemon.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logger.Error("daemon start failed", logging.Error(err))
		return err
	}

	select {
	case <-signalCtx.Done():
		logger.Info("termination signal received")
	case <-d.ShutdownRequested():
	}
	logger.Info("tallyd shutting down")
	// Stop gets a fresh context: signalCtx may already be canceled and the
	// drain window must still apply.
	return d.Stop(context.Background())
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
