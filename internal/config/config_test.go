package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.ResetHour != 4 {
		t.Errorf("resetHour = %d, want 4", cfg.ResetHour)
	}
	if cfg.SyncInterval != 60*time.Second {
		t.Errorf("syncInterval = %v, want 60s", cfg.SyncInterval)
	}
	if cfg.Debounce != 5*time.Second {
		t.Errorf("debounce = %v, want 5s", cfg.Debounce)
	}
	if cfg.AppVersion != "1.1.0" || cfg.RequiredBackendVersion != "1.1.0" {
		t.Errorf("versions = %q / %q", cfg.AppVersion, cfg.RequiredBackendVersion)
	}
	if cfg.Endpoint != "" {
		t.Error("default endpoint must be empty (offline mode)")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questsync.yaml")
	data := []byte("endpoint: https://example.com/sheet\nreset_hour: 6\nsync_interval: 30s\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Endpoint != "https://example.com/sheet" {
		t.Errorf("endpoint = %q", cfg.Endpoint)
	}
	if cfg.ResetHour != 6 {
		t.Errorf("resetHour = %d, want 6", cfg.ResetHour)
	}
	if cfg.SyncInterval != 30*time.Second {
		t.Errorf("syncInterval = %v, want 30s", cfg.SyncInterval)
	}
	// Unset keys keep their defaults.
	if cfg.Debounce != 5*time.Second {
		t.Errorf("debounce = %v, want default 5s", cfg.Debounce)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("QS_ENDPOINT", "https://env.example.com")
	t.Setenv("QS_RESET_HOUR", "5")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Endpoint != "https://env.example.com" {
		t.Errorf("endpoint = %q, want env override", cfg.Endpoint)
	}
	if cfg.ResetHour != 5 {
		t.Errorf("resetHour = %d, want 5", cfg.ResetHour)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("an explicitly named missing config file must be an error")
	}
}
