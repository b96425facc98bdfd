package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "workers: 2\n")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Workers != 2 {
		t.Errorf("expected workers=2, got %d", cfg.Workers)
	}
	if cfg.PollInterval.D() != time.Second {
		t.Errorf("expected default poll interval 1s, got %v", cfg.PollInterval)
	}
	if cfg.CacheTTL.D() != 6*time.Hour {
		t.Errorf("expected default cache TTL 6h, got %v", cfg.CacheTTL)
	}
	if cfg.RetryWindow.D() != 7*24*time.Hour {
		t.Errorf("expected default retry window 168h, got %v", cfg.RetryWindow)
	}
}

func TestLoadRejectsWorkerCountOutOfRange(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "workers: 64\n")

	if _, err := Load(dir); err == nil {
		t.Fatal("expected error for workers=64")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Fatal("expected error for missing config")
	}
}

func TestEnvOverridesCredentials(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "supplier:\n  api_key: from-file\n")
	t.Setenv("SHOPSYNC_SUPPLIER_KEY", "from-env")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Supplier.APIKey != "from-env" {
		t.Errorf("expected env override, got %q", cfg.Supplier.APIKey)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := Default(dir)
	cfg.Workers = 8

	if err := Save(dir, cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Workers != 8 {
		t.Errorf("expected workers=8 after round trip, got %d", loaded.Workers)
	}
}

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
}
