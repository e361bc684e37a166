package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Rest.Address != ":8080" {
		t.Fatalf("expected default address :8080, got %q", cfg.Rest.Address)
	}
	if cfg.Database.Path != "musictogether.db" {
		t.Fatalf("expected default database path, got %q", cfg.Database.Path)
	}
	if cfg.Log.Level != "info" {
		t.Fatalf("expected default log level info, got %q", cfg.Log.Level)
	}
	if cfg.Limits.ConnectLimit != 30 || cfg.Limits.ConnectWindowSeconds != 60 {
		t.Fatalf("unexpected default limits: %+v", cfg.Limits)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ADDRESS", ":9999")
	t.Setenv("DATABASE_PATH", "/tmp/test.db")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("WS_CONNECT_LIMIT", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Rest.Address != ":9999" {
		t.Fatalf("expected :9999, got %q", cfg.Rest.Address)
	}
	if cfg.Database.Path != "/tmp/test.db" {
		t.Fatalf("expected /tmp/test.db, got %q", cfg.Database.Path)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("expected debug, got %q", cfg.Log.Level)
	}
	if cfg.Limits.ConnectLimit != 5 {
		t.Fatalf("expected limit 5, got %d", cfg.Limits.ConnectLimit)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("WS_CONNECT_LIMIT", "not-a-number")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid WS_CONNECT_LIMIT")
	}
}
