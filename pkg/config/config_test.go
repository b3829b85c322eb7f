package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "production" {
		t.Fatalf("expected App.Env to be production, got %q", cfg.App.Env)
	}

	if cfg.Redis.URL != "redis://localhost:6379/0" {
		t.Fatalf("unexpected Redis URL: %q", cfg.Redis.URL)
	}

	if got := cfg.Sync.Timeout; got != 15*time.Second {
		t.Fatalf("expected sync timeout default 15s, got %v", got)
	}

	if cfg.Sync.ClearOnLogout {
		t.Fatalf("clear-on-logout should default to false")
	}

	if cfg.Remote.BaseURL != "https://cart.example.com" {
		t.Fatalf("unexpected remote base url %q", cfg.Remote.BaseURL)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAppEnv); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAppEnv, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_RedisRequiredUnlessMemoryStore(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvRedisURL); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvRedisURL, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing redis url to return an error")
	}

	t.Setenv("CARTSYNC_USE_MEMORY_STORE", "true")
	if _, err := Load(); err != nil {
		t.Fatalf("memory store flag should waive redis requirement: %v", err)
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "production")
	t.Setenv(EnvPort, "8085")
	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
	t.Setenv(EnvRemoteBaseURL, "https://cart.example.com")
	t.Setenv(EnvRemoteToken, "opaque-bearer")
	t.Setenv(EnvSyncScope, "device-1")
}
