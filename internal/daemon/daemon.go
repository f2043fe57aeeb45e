package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"tally/internal/api"
	"tally/internal/config"
	"tally/internal/feature"
	"tally/internal/logging"
	"tally/internal/notifications"
	"tally/internal/preflight"
	"tally/internal/progress"
	"tally/internal/seed"
)

// State names a phase of the daemon lifecycle.
type State string

// Lifecycle states, in transition order.
const (
	StateStopped  State = "stopped"
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateStopping State = "stopping"
)

const (
	readinessTimeout      = 10 * time.Second
	readinessPollInterval = 100 * time.Millisecond
	readinessDialTimeout  = 500 * time.Millisecond
	stopTimeout           = 5 * time.Second
)

// ErrStartupTimeout reports that the listener never accepted a connection
// within the readiness window. It is fatal: the daemon tears itself down
// before returning it.
var ErrStartupTimeout = errors.New("server failed to start")

// Daemon coordinates the feature store, the HTTP API, and the optional
// progress loop, and enforces single-instance execution per project.
type Daemon struct {
	cfg        *config.Config
	baseLogger *slog.Logger
	logger     *slog.Logger

	lock       *flock.Flock
	instanceID string

	shutdownOnce sync.Once
	shutdownCh   chan struct{}

	mu         sync.Mutex
	state      State
	store      *feature.Store
	service    *api.Service
	server     *http.Server
	addr       string
	startedAt  time.Time
	serveDone  chan struct{}
	tickerStop context.CancelFunc
	tickerDone chan struct{}
}

// New constructs a stopped daemon. Nothing is opened or locked until Start.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires a config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Daemon{
		cfg:        cfg,
		baseLogger: logger,
		logger:     logging.NewComponentLogger(logger, "daemon"),
		lock:       flock.New(cfg.LockFilePath()),
		instanceID: uuid.NewString(),
		state:      StateStopped,
		shutdownCh: make(chan struct{}),
	}, nil
}

// Start brings the daemon to Running: it prepares the project directory,
// acquires the instance lock, opens the store, runs the seed import, and
// serves the HTTP API, returning only once the listener demonstrably
// accepts connections.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.state != StateStopped {
		d.mu.Unlock()
		return fmt.Errorf("daemon is %s", d.state)
	}
	d.state = StateStarting
	d.mu.Unlock()

	if err := d.bringUp(ctx); err != nil {
		d.setState(StateStopped)
		return err
	}

	d.mu.Lock()
	d.state = StateRunning
	d.startedAt = time.Now().UTC()
	addr := d.addr
	d.mu.Unlock()

	d.logger.Info("daemon started",
		logging.String("address", addr),
		logging.String("instance_id", d.instanceID),
		logging.String("lock", d.cfg.LockFilePath()))
	return nil
}

func (d *Daemon) bringUp(ctx context.Context) error {
	if err := d.cfg.EnsureDirectories(); err != nil {
		return err
	}
	if check := preflight.CheckDirectoryAccess("Project directory", d.cfg.Paths.ProjectDir); !check.Passed {
		return fmt.Errorf("project directory not usable: %s", check.Detail)
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire daemon lock: %w", err)
	}
	if !ok {
		return errors.New("another tallyd instance is already running")
	}

	store, err := feature.Open(d.cfg)
	if err != nil {
		_ = d.lock.Unlock()
		return err
	}

	seeded, err := seed.Import(ctx, store, d.cfg, d.baseLogger)
	if err != nil {
		_ = store.Close()
		_ = d.lock.Unlock()
		return fmt.Errorf("seed import: %w", err)
	}
	if !seeded.Skipped {
		d.logger.Info("seed import complete", logging.Int64("imported", seeded.Imported))
	}

	service := api.NewService(store)
	srv := newAPIServer(service, d.baseLogger, d.Status, d.requestShutdown)
	httpServer := &http.Server{
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	listener, err := net.Listen("tcp", d.cfg.Server.Bind)
	if err != nil {
		_ = store.Close()
		_ = d.lock.Unlock()
		return fmt.Errorf("listen on %s: %w", d.cfg.Server.Bind, err)
	}
	addr := listener.Addr().String()

	serveDone := make(chan struct{})
	go func() {
		defer close(serveDone)
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.logger.Error("api server error", logging.Error(err))
		}
	}()

	if err := waitForListener(ctx, addr); err != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		_ = httpServer.Shutdown(shutdownCtx)
		cancel()
		<-serveDone
		_ = store.Close()
		_ = d.lock.Unlock()
		return err
	}

	d.mu.Lock()
	d.store = store
	d.service = service
	d.server = httpServer
	d.addr = addr
	d.serveDone = serveDone
	d.mu.Unlock()

	if interval := time.Duration(d.cfg.Progress.PollInterval) * time.Second; interval > 0 {
		d.startProgressLoop(interval, service)
	}
	return nil
}

// Stop drains the HTTP server within a bounded window, stops the progress
// loop, closes the store, and releases the instance lock. Calling it when
// the daemon is not running is a no-op.
func (d *Daemon) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.state != StateRunning {
		d.mu.Unlock()
		return nil
	}
	d.state = StateStopping
	server := d.server
	store := d.store
	serveDone := d.serveDone
	tickerStop := d.tickerStop
	tickerDone := d.tickerDone
	d.server = nil
	d.service = nil
	d.store = nil
	d.serveDone = nil
	d.tickerStop = nil
	d.tickerDone = nil
	d.mu.Unlock()

	if tickerStop != nil {
		tickerStop()
		<-tickerDone
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, stopTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		d.logger.Warn("api server shutdown incomplete, forcing close", logging.Error(err))
		_ = server.Close()
	}
	select {
	case <-serveDone:
	case <-time.After(stopTimeout):
		// In-flight requests past the drain window are abandoned.
		d.logger.Warn("serve goroutine still active after drain window")
	}

	if err := store.Close(); err != nil {
		d.logger.Warn("failed to close feature store", logging.Error(err))
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}

	d.setState(StateStopped)
	d.logger.Info("daemon stopped")
	return nil
}

// Close stops the daemon if it is running.
func (d *Daemon) Close() error {
	return d.Stop(context.Background())
}

// State returns the current lifecycle state.
func (d *Daemon) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// IsRunning reports whether the serve goroutine is currently alive. It
// observes the background execution context directly rather than the
// lifecycle state.
func (d *Daemon) IsRunning() bool {
	d.mu.Lock()
	done := d.serveDone
	d.mu.Unlock()
	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

// Addr returns the address the listener is bound to, falling back to the
// configured bind address before Start.
func (d *Daemon) Addr() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.addr != "" {
		return d.addr
	}
	return d.cfg.Server.Bind
}

// ShutdownRequested is closed when a client asks the daemon to stop via the
// control endpoint. The process run loop selects on it alongside signals.
func (d *Daemon) ShutdownRequested() <-chan struct{} {
	return d.shutdownCh
}

func (d *Daemon) requestShutdown() {
	d.shutdownOnce.Do(func() {
		d.logger.Info("shutdown requested over api")
		close(d.shutdownCh)
	})
}

// Status reports a snapshot of daemon runtime information, including store
// stats and database diagnostics when the service is up.
func (d *Daemon) Status(ctx context.Context) api.StatusSnapshot {
	d.mu.Lock()
	state := d.state
	addr := d.addr
	startedAt := d.startedAt
	service := d.service
	d.mu.Unlock()

	if addr == "" {
		addr = d.cfg.Server.Bind
	}
	snapshot := api.StatusSnapshot{
		Running:      state == StateRunning,
		PID:          os.Getpid(),
		InstanceID:   d.instanceID,
		Bind:         addr,
		ProjectDir:   d.cfg.Paths.ProjectDir,
		DatabasePath: d.cfg.DatabasePath(),
		LockPath:     d.cfg.LockFilePath(),
	}
	if !startedAt.IsZero() {
		snapshot.StartedAt = startedAt.Format(time.RFC3339)
	}
	if service != nil {
		if stats, err := service.Stats(ctx); err == nil {
			snapshot.Stats = stats
		}
		if health, err := service.DatabaseHealth(ctx); err == nil {
			snapshot.Database = api.FromDatabaseHealth(health)
		}
	}
	return snapshot
}

func (d *Daemon) setState(state State) {
	d.mu.Lock()
	d.state = state
	d.mu.Unlock()
}

func (d *Daemon) startProgressLoop(interval time.Duration, service *api.Service) {
	tracker := progress.NewTracker(d.cfg, progress.NewServiceSource(service), notifications.NewService(d.cfg), d.baseLogger)
	loopCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				report, err := tracker.Check(loopCtx)
				if err != nil {
					d.logger.Warn("progress check failed", logging.Error(err))
					continue
				}
				if report.Notified {
					d.logger.Info("progress notification sent",
						logging.Int64("passing", report.Passing),
						logging.Int64("total", report.Total),
						logging.Int("newly_passing", len(report.NewlyPassing)))
				}
			}
		}
	}()

	d.mu.Lock()
	d.tickerStop = cancel
	d.tickerDone = done
	d.mu.Unlock()
}

// waitForListener dials the bound address until it accepts a connection,
// polling every 100ms for up to 10 seconds.
func waitForListener(ctx context.Context, addr string) error {
	deadline := time.Now().Add(readinessTimeout)
	for {
		conn, err := net.DialTimeout("tcp", addr, readinessDialTimeout)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w on %s", ErrStartupTimeout, addr)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(readinessPollInterval):
		}
	}
}
