package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseFeatureID(t *testing.T) {
	if _, err := parseFeatureID("12"); err != nil {
		t.Fatalf("parseFeatureID(12): %v", err)
	}
	for _, bad := range []string{"0", "-3", "abc", ""} {
		if _, err := parseFeatureID(bad); err == nil {
			t.Fatalf("parseFeatureID(%q) should fail", bad)
		}
	}
}

func TestTruncateCell(t *testing.T) {
	if got := truncateCell("short", 10); got != "short" {
		t.Fatalf("expected passthrough, got %q", got)
	}
	got := truncateCell(strings.Repeat("x", 80), 60)
	if len(got) != 60 || !strings.HasSuffix(got, "...") {
		t.Fatalf("expected 60-char truncation with ellipsis, got %q (len %d)", got, len(got))
	}
}

func TestReadFeatureInputs(t *testing.T) {
	dir := t.TempDir()

	wrapped := filepath.Join(dir, "wrapped.json")
	if err := os.WriteFile(wrapped, []byte(`{"features":[{"category":"a","name":"n","description":"d","steps":["s"]}]}`), 0o644); err != nil {
		t.Fatalf("write wrapped: %v", err)
	}
	inputs, err := readFeatureInputs(wrapped)
	if err != nil {
		t.Fatalf("readFeatureInputs wrapped: %v", err)
	}
	if len(inputs) != 1 || inputs[0].Name != "n" {
		t.Fatalf("unexpected inputs: %+v", inputs)
	}

	bare := filepath.Join(dir, "bare.json")
	if err := os.WriteFile(bare, []byte(`[{"category":"a","name":"m","description":"d","steps":["s"]}]`), 0o644); err != nil {
		t.Fatalf("write bare: %v", err)
	}
	inputs, err = readFeatureInputs(bare)
	if err != nil {
		t.Fatalf("readFeatureInputs bare: %v", err)
	}
	if len(inputs) != 1 || inputs[0].Name != "m" {
		t.Fatalf("unexpected inputs: %+v", inputs)
	}

	invalid := filepath.Join(dir, "invalid.json")
	if err := os.WriteFile(invalid, []byte(`{"features": 42}`), 0o644); err != nil {
		t.Fatalf("write invalid: %v", err)
	}
	if _, err := readFeatureInputs(invalid); err == nil {
		t.Fatal("expected malformed import file to fail")
	}
}
