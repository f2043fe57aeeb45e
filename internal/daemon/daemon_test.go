package daemon_test

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"tally/internal/api"
	"tally/internal/apiclient"
	"tally/internal/config"
	"tally/internal/daemon"
	"tally/internal/testsupport"
)

func startDaemon(t *testing.T, cfg *config.Config) *daemon.Daemon {
	t.Helper()

	d, err := daemon.New(cfg, nil)
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("start daemon: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close daemon: %v", err)
		}
	})
	return d
}

func newClient(t *testing.T, d *daemon.Daemon) *apiclient.Client {
	t.Helper()

	client, err := apiclient.New(d.Addr())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d, err := daemon.New(cfg, nil)
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}

	if d.State() != daemon.StateStopped {
		t.Fatalf("initial state = %s", d.State())
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !d.IsRunning() {
		t.Fatal("expected running daemon")
	}
	if d.State() != daemon.StateRunning {
		t.Fatalf("state = %s, want running", d.State())
	}
	if err := d.Start(context.Background()); err == nil {
		t.Fatal("second start must fail while running")
	}

	client := newClient(t, d)
	health, err := client.Health(context.Background())
	if err != nil {
		t.Fatalf("health over http: %v", err)
	}
	if health.Status != api.HealthStatusHealthy {
		t.Errorf("health = %+v", health)
	}

	if err := d.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if d.IsRunning() {
		t.Fatal("expected stopped daemon")
	}
	if d.State() != daemon.StateStopped {
		t.Fatalf("state = %s, want stopped", d.State())
	}
	if err := d.Stop(context.Background()); err != nil {
		t.Fatalf("second stop must be a no-op, got: %v", err)
	}
}

func TestDaemonRestartsAfterStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d, err := daemon.New(cfg, nil)
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := d.Start(context.Background()); err != nil {
			t.Fatalf("start #%d: %v", i+1, err)
		}
		if err := d.Stop(context.Background()); err != nil {
			t.Fatalf("stop #%d: %v", i+1, err)
		}
	}
}

func TestDaemonSingleInstancePerProject(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	startDaemon(t, cfg)

	second, err := daemon.New(cfg, nil)
	if err != nil {
		t.Fatalf("new second daemon: %v", err)
	}
	err = second.Start(context.Background())
	if err == nil {
		second.Close()
		t.Fatal("second instance must not start")
	}
	if !strings.Contains(err.Error(), "already running") {
		t.Errorf("error = %v, want already-running", err)
	}
}

func TestDaemonShutdownEndpointSignalsRunLoop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := startDaemon(t, cfg)
	client := newClient(t, d)

	if err := client.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown request: %v", err)
	}
	select {
	case <-d.ShutdownRequested():
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown request was not signaled")
	}
	if err := d.Stop(context.Background()); err != nil {
		t.Fatalf("stop after shutdown request: %v", err)
	}
}

func TestDaemonServesFeatureWorkflow(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := startDaemon(t, cfg)
	client := newClient(t, d)
	ctx := context.Background()

	created, err := client.Create(ctx, api.FeatureInput{
		Category:    "auth",
		Name:        "supports login",
		Description: "users can sign in",
		Steps:       []string{"open login page", "submit credentials"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Passes {
		t.Fatal("new feature must start failing")
	}

	next, err := client.NextPending(ctx)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if next.ID != created.ID {
		t.Fatalf("next = %d, want %d", next.ID, created.ID)
	}

	updated, err := client.SetPasses(ctx, created.ID, true)
	if err != nil {
		t.Fatalf("set passes: %v", err)
	}
	if !updated.Passes {
		t.Fatal("expected passing feature")
	}

	stats, err := client.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Passing != 1 || stats.Total != 1 {
		t.Fatalf("stats = %+v", stats)
	}

	if err := client.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	list, err := client.List(ctx, api.DefaultListRequest())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list.Total != 0 {
		t.Fatalf("total after delete = %d", list.Total)
	}
}

func TestDaemonImportsSeedFileOnFirstStart(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := os.MkdirAll(cfg.Paths.ProjectDir, 0o755); err != nil {
		t.Fatal(err)
	}
	entries := []map[string]any{
		{"category": "legacy", "name": "carried over", "description": "imported from json", "steps": []string{"verify"}},
	}
	payload, err := json.Marshal(entries)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cfg.SeedPath(), payload, 0o644); err != nil {
		t.Fatal(err)
	}

	d := startDaemon(t, cfg)
	client := newClient(t, d)

	list, err := client.List(context.Background(), api.DefaultListRequest())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list.Total != 1 {
		t.Fatalf("total = %d, want 1 imported feature", list.Total)
	}
	if list.Features[0].Name != "carried over" {
		t.Errorf("name = %q", list.Features[0].Name)
	}
	if _, err := os.Stat(cfg.SeedPath()); !os.IsNotExist(err) {
		t.Error("seed file should be renamed away after import")
	}
}

func TestDaemonStatusSnapshot(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := startDaemon(t, cfg)
	client := newClient(t, d)

	snapshot, err := client.Status(context.Background())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !snapshot.Running {
		t.Error("expected running=true")
	}
	if snapshot.PID != os.Getpid() {
		t.Errorf("pid = %d, want %d", snapshot.PID, os.Getpid())
	}
	if snapshot.InstanceID == "" {
		t.Error("expected instance id")
	}
	if snapshot.Bind != d.Addr() {
		t.Errorf("bind = %q, want %q", snapshot.Bind, d.Addr())
	}
	if snapshot.StartedAt == "" {
		t.Error("expected started_at timestamp")
	}
	if !snapshot.Database.TableExists {
		t.Errorf("database = %+v", snapshot.Database)
	}
}

func TestDaemonStopsProgressLoop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Progress.PollInterval = 1

	d := startDaemon(t, cfg)
	done := make(chan error, 1)
	go func() { done <- d.Stop(context.Background()) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("stop: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("stop blocked on progress loop")
	}
}
