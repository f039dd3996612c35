package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.MaxConcurrent != 25 {
		t.Errorf("expected MaxConcurrent=25, got %d", cfg.MaxConcurrent)
	}
	if cfg.InitialCapital != 10_000 {
		t.Errorf("expected InitialCapital=10000, got %v", cfg.InitialCapital)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"duckdbPath":"/tmp/x.duckdb","gridShards":4}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DuckDBPath != "/tmp/x.duckdb" || cfg.GridShards != 4 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.InitialCapital != 10_000 {
		t.Fatalf("expected unset fields to keep their default, got %v", cfg.InitialCapital)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"notARealField":true}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for unknown config field")
	}
}

func TestEnvOverridesFileValue(t *testing.T) {
	t.Setenv("DUCKDB_PATH", "/env/override.duckdb")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"duckdbPath":"/file/value.duckdb"}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DuckDBPath != "/env/override.duckdb" {
		t.Fatalf("expected env override to win, got %q", cfg.DuckDBPath)
	}
}
