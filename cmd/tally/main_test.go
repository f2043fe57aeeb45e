package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tally/internal/api"
	"tally/internal/daemon"
)

func TestCLIFeatureWorkflow(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{
		"add",
		"--category", "core",
		"--name", "Parse config",
		"--description", "Loads the TOML config file",
		"--step", "run tally config show",
		"--step", "inspect the output",
	}, env.configPath)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	requireContains(t, out, "Added feature 1 (priority 1): Parse config")

	out, _, err = runCLI(t, []string{
		"add",
		"--category", "api",
		"--name", "Serve health endpoint",
		"--description", "Answers health probes with database state",
		"--step", "curl /health",
	}, env.configPath)
	if err != nil {
		t.Fatalf("add second: %v", err)
	}
	requireContains(t, out, "Added feature 2 (priority 2): Serve health endpoint")

	out, _, err = runCLI(t, []string{"list"}, env.configPath)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	requireContains(t, out, "Parse config")
	requireContains(t, out, "Serve health endpoint")
	requireContains(t, out, "Showing 2 of 2 features")

	out, _, err = runCLI(t, []string{"show", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	requireContains(t, out, "Feature 1: Parse config")
	requireContains(t, out, "Description: Loads the TOML config file")
	requireContains(t, out, "1. run tally config show")
	requireContains(t, out, "2. inspect the output")

	out, _, err = runCLI(t, []string{"next"}, env.configPath)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	requireContains(t, out, "Feature 1: Parse config")

	out, _, err = runCLI(t, []string{"pass", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("pass: %v", err)
	}
	requireContains(t, out, "Feature 1 marked passing: Parse config")

	out, _, err = runCLI(t, []string{"next"}, env.configPath)
	if err != nil {
		t.Fatalf("next after pass: %v", err)
	}
	requireContains(t, out, "Feature 2: Serve health endpoint")

	out, _, err = runCLI(t, []string{"stats"}, env.configPath)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	requireContains(t, out, "Passing 1 of 2 features (50.0%)")

	out, _, err = runCLI(t, []string{"list", "--passes"}, env.configPath)
	if err != nil {
		t.Fatalf("list --passes: %v", err)
	}
	requireContains(t, out, "Parse config")
	if strings.Contains(out, "Serve health endpoint") {
		t.Fatalf("expected --passes to hide pending features, got %q", out)
	}

	out, _, err = runCLI(t, []string{"fail", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("fail: %v", err)
	}
	requireContains(t, out, "Feature 1 marked failing: Parse config")

	out, _, err = runCLI(t, []string{"remove", "2"}, env.configPath)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	requireContains(t, out, "Feature 2 removed")

	out, _, err = runCLI(t, []string{"stats"}, env.configPath)
	if err != nil {
		t.Fatalf("stats after remove: %v", err)
	}
	requireContains(t, out, "Passing 0 of 1 features (0.0%)")

	if _, _, err := runCLI(t, []string{"show", "2"}, env.configPath); err == nil {
		t.Fatal("expected show on a removed feature to fail")
	} else {
		requireContains(t, err.Error(), "Feature not found")
	}

	out, _, err = runCLI(t, []string{"pass", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("pass remaining: %v", err)
	}
	out, _, err = runCLI(t, []string{"next"}, env.configPath)
	if err != nil {
		t.Fatalf("next on exhausted backlog: %v", err)
	}
	requireContains(t, out, "All features are passing! No more work to do.")
}

func TestCLIJSONOutput(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{
		"add",
		"--category", "core",
		"--name", "Emit machine output",
		"--description", "Commands honor the json flag",
		"--step", "run with --json",
	}, env.configPath)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	out, _, err := runCLI(t, []string{"--json", "stats"}, env.configPath)
	if err != nil {
		t.Fatalf("stats --json: %v", err)
	}
	var stats api.Stats
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("decode stats json: %v\noutput: %s", err, out)
	}
	if stats.Total != 1 || stats.Passing != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	out, _, err = runCLI(t, []string{"--json", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("list --json: %v", err)
	}
	var list api.FeatureList
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("decode list json: %v\noutput: %s", err, out)
	}
	if list.Total != 1 || len(list.Features) != 1 {
		t.Fatalf("unexpected list: %+v", list)
	}
	if list.Features[0].Name != "Emit machine output" {
		t.Fatalf("unexpected feature name %q", list.Features[0].Name)
	}
}

func TestCLIValidationErrors(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"add", "--category", "core", "--description", "missing a name", "--step", "noop"}, env.configPath); err == nil {
		t.Fatal("expected add without a name to fail")
	} else {
		requireContains(t, err.Error(), "name is required")
	}

	if _, _, err := runCLI(t, []string{"list", "--passes", "--pending"}, env.configPath); err == nil {
		t.Fatal("expected conflicting filters to fail")
	} else {
		requireContains(t, err.Error(), "specify only one of --passes or --pending")
	}

	if _, _, err := runCLI(t, []string{"show", "zero"}, env.configPath); err == nil {
		t.Fatal("expected a non-numeric id to fail")
	} else {
		requireContains(t, err.Error(), `invalid feature id "zero"`)
	}
}

func TestCLIImportCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	wrapped := filepath.Join(env.baseDir, "features.json")
	payload := `{"features":[
		{"category":"core","name":"Alpha","description":"first","steps":["check"]},
		{"category":"core","name":"Beta","description":"second","steps":["check"]}
	]}`
	if err := os.WriteFile(wrapped, []byte(payload), 0o644); err != nil {
		t.Fatalf("write import file: %v", err)
	}

	out, _, err := runCLI(t, []string{"import", wrapped}, env.configPath)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	requireContains(t, out, "Imported 2 features")

	bare := filepath.Join(env.baseDir, "more.json")
	if err := os.WriteFile(bare, []byte(`[{"category":"api","name":"Gamma","description":"third","steps":["check"]}]`), 0o644); err != nil {
		t.Fatalf("write bare import file: %v", err)
	}

	out, _, err = runCLI(t, []string{"import", bare}, env.configPath)
	if err != nil {
		t.Fatalf("import bare array: %v", err)
	}
	requireContains(t, out, "Imported 1 features")

	out, _, err = runCLI(t, []string{"list"}, env.configPath)
	if err != nil {
		t.Fatalf("list after import: %v", err)
	}
	requireContains(t, out, "Showing 3 of 3 features")
}

func TestCLIReadFallbackWhenDaemonDown(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{
		"add",
		"--category", "core",
		"--name", "Offline reads",
		"--description", "Readable without the daemon",
		"--step", "stop the daemon first",
	}, env.configPath)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	out, _, err := runCLI(t, []string{"stop"}, env.configPath)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	requireContains(t, out, "Daemon stopped")
	waitFor(t, 5*time.Second, func() bool { return env.daemon.State() == daemon.StateStopped })

	out, _, err = runCLI(t, []string{"list"}, env.configPath)
	if err != nil {
		t.Fatalf("list offline: %v", err)
	}
	requireContains(t, out, "Offline reads")

	out, _, err = runCLI(t, []string{"stats"}, env.configPath)
	if err != nil {
		t.Fatalf("stats offline: %v", err)
	}
	requireContains(t, out, "Passing 0 of 1 features")

	out, _, err = runCLI(t, []string{"next"}, env.configPath)
	if err != nil {
		t.Fatalf("next offline: %v", err)
	}
	requireContains(t, out, "Feature 1: Offline reads")

	// Mutations still require the daemon.
	if _, _, err := runCLI(t, []string{"pass", "1"}, env.configPath); err == nil {
		t.Fatal("expected pass to fail with the daemon down")
	} else {
		requireContains(t, err.Error(), "daemon is not running")
	}
}
