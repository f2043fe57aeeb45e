package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer is a thread-safe wrapper around bytes.Buffer for use in tests.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Len()
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

var _ io.Writer = (*syncBuffer)(nil)

func TestLogsCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"logs"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "No log entries available")

	logPath := env.cfg.DaemonLogPath()
	for _, line := range []string{"first", "second", "third"} {
		if err := appendLine(logPath, line); err != nil {
			t.Fatalf("append %q: %v", line, err)
		}
	}

	out, _, err = runCLI(t, []string{"logs", "--lines", "2"}, env.configPath)
	if err != nil {
		t.Fatalf("logs --lines: %v", err)
	}
	requireContains(t, out, "second")
	requireContains(t, out, "third")
	if strings.Contains(out, "first") {
		t.Fatalf("expected only the last two lines, got %q", out)
	}

	out, _, err = runCLI(t, []string{"logs", "--lines", "0"}, env.configPath)
	if err != nil {
		t.Fatalf("logs --lines 0: %v", err)
	}
	requireContains(t, out, "first")
}

func TestLogsFollow(t *testing.T) {
	env := setupCLITestEnv(t)

	logPath := env.cfg.DaemonLogPath()
	if err := appendLine(logPath, "first"); err != nil {
		t.Fatalf("append first: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := newRootCommand()
	cmd.SetArgs([]string{"--config", env.configPath, "logs", "--follow"})
	cmd.SetContext(ctx)
	// Use syncBuffer to avoid a data race between the executing goroutine
	// and the test assertions.
	stdout := &syncBuffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(&bytes.Buffer{})

	done := make(chan error, 1)
	go func() {
		done <- cmd.Execute()
	}()

	waitFor(t, 2*time.Second, func() bool { return stdout.Len() > 0 })
	if err := appendLine(logPath, "second"); err != nil {
		t.Fatalf("append second: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool { return strings.Contains(stdout.String(), "second") })
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("execute: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("logs --follow did not exit")
	}
}
