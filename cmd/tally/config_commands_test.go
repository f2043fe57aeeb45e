package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	// validate resolves the config the same way the daemon does
	out, _, err := runCLI(t, []string{"config", "validate"}, "")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	// config init to temp location
	tmp := t.TempDir()
	target := filepath.Join(tmp, "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, env.configPath)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, env.configPath); err == nil {
		t.Fatal("expected init on an existing file to fail")
	} else {
		requireContains(t, err.Error(), "already exists")
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, env.configPath); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigShow(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "paths.project_dir")
	requireContains(t, out, env.cfg.Paths.ProjectDir)
	requireContains(t, out, "server.bind")
	requireContains(t, out, "(unset)")

	out, _, err = runCLI(t, []string{"--json", "config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show --json: %v", err)
	}
	var payload map[string]map[string]any
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode config json: %v\noutput: %s", err, out)
	}
	if payload["server"]["bind"] != env.cfg.Server.Bind {
		t.Fatalf("unexpected bind %v", payload["server"]["bind"])
	}
}
