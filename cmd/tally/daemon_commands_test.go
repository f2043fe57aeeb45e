package main

import (
	"testing"
	"time"

	"tally/internal/daemon"
)

func TestDaemonStartStopStatus(t *testing.T) {
	env := setupCLITestEnv(t)

	// The test daemon is already up, so start must not launch a second one.
	out, _, err := runCLI(t, []string{"start"}, env.configPath)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	requireContains(t, out, "Daemon already running")

	out, _, err = runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "System Status")
	requireContains(t, out, "running on")
	requireContains(t, out, "Backlog is empty")

	_, _, err = runCLI(t, []string{
		"add",
		"--category", "core",
		"--name", "Status rows",
		"--description", "Shows up in the backlog table",
		"--step", "run tally status",
	}, env.configPath)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	out, _, err = runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status with backlog: %v", err)
	}
	requireContains(t, out, "Total")
	requireContains(t, out, "Pending")

	out, _, err = runCLI(t, []string{"stop"}, env.configPath)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	requireContains(t, out, "Daemon stopped")
	waitFor(t, 5*time.Second, func() bool { return env.daemon.State() == daemon.StateStopped })

	out, _, err = runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status offline: %v", err)
	}
	requireContains(t, out, "not running (start with 'tally start')")
	// Offline status still reads backlog counts from the database.
	requireContains(t, out, "Total")

	out, _, err = runCLI(t, []string{"stop"}, env.configPath)
	if err != nil {
		t.Fatalf("second stop: %v", err)
	}
	requireContains(t, out, "Daemon is not running")
}

func TestDoctorCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"doctor"}, env.configPath)
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	requireContains(t, out, "Environment")
	requireContains(t, out, "Daemon API")
	requireContains(t, out, "Environment looks good")

	// A stopped daemon is a warning, not a failed environment check.
	if _, _, err := runCLI(t, []string{"stop"}, env.configPath); err != nil {
		t.Fatalf("stop: %v", err)
	}
	waitFor(t, 5*time.Second, func() bool { return env.daemon.State() == daemon.StateStopped })

	out, _, err = runCLI(t, []string{"doctor"}, env.configPath)
	if err != nil {
		t.Fatalf("doctor offline: %v", err)
	}
	requireContains(t, out, "[WARN]")
	requireContains(t, out, "Environment looks good")
}
