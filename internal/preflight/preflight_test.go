package preflight

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"tally/internal/feature"
	"tally/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckBind_Loopback(t *testing.T) {
	for _, bind := range []string{"127.0.0.1:8765", "localhost:8765", "[::1]:8765"} {
		result := CheckBind(bind)
		if !result.Passed {
			t.Errorf("expected pass for %s, got: %s", bind, result.Detail)
		}
	}
}

func TestCheckBind_NonLoopbackWarns(t *testing.T) {
	result := CheckBind("0.0.0.0:8765")
	if !result.Passed {
		t.Fatalf("expected pass with warning, got: %s", result.Detail)
	}
	if result.Detail == "0.0.0.0:8765 (loopback)" {
		t.Fatal("expected non-loopback warning in detail")
	}
}

func TestCheckBind_MissingPort(t *testing.T) {
	result := CheckBind("127.0.0.1")
	if result.Passed {
		t.Fatal("expected failure for address without port")
	}
}

func TestCheckDatabase_MissingFilePasses(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	result := CheckDatabase(context.Background(), cfg)
	if !result.Passed {
		t.Fatalf("expected pass for missing database, got: %s", result.Detail)
	}
}

func TestCheckDatabase_HealthyStore(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := feature.Open(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	result := CheckDatabase(context.Background(), cfg)
	if !result.Passed {
		t.Fatalf("expected pass for migrated database, got: %s", result.Detail)
	}
}

func TestCheckWebhook_OK(t *testing.T) {
	result := CheckWebhook("https://hooks.example.com/progress")
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckWebhook_BadScheme(t *testing.T) {
	result := CheckWebhook("ftp://hooks.example.com/progress")
	if result.Passed {
		t.Fatal("expected failure for non-http scheme")
	}
}

func TestCheckWebhook_MissingHost(t *testing.T) {
	result := CheckWebhook("http://")
	if result.Passed {
		t.Fatal("expected failure for missing host")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}

	results := RunAll(context.Background(), cfg)
	// Directory + bind + database; no webhook configured.
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
}

func TestRunAll_IncludesWebhookWhenConfigured(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithWebhookURL("https://hooks.example.com/progress"))
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}

	results := RunAll(context.Background(), cfg)
	found := false
	for _, r := range results {
		if r.Name == "Webhook" {
			found = true
			if !r.Passed {
				t.Errorf("webhook check failed: %s", r.Detail)
			}
		}
	}
	if !found {
		t.Fatal("expected webhook check in results")
	}
}

func TestCheckAPIFromConfig_DaemonDown(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithBind("127.0.0.1:1"))
	result := CheckAPIFromConfig(cfg)
	if result.Passed {
		t.Fatal("expected failure when no daemon is listening")
	}
}
