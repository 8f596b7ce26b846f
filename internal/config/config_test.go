package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.API.BaseURL != "https://api.streamweave.dev" {
		t.Errorf("API.BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.Auth.TokenLifetime != 60*time.Minute {
		t.Errorf("Auth.TokenLifetime = %v, want 60m", cfg.Auth.TokenLifetime)
	}
	if cfg.Auth.RenewalBuffer != 5*time.Minute {
		t.Errorf("Auth.RenewalBuffer = %v, want 5m", cfg.Auth.RenewalBuffer)
	}
	if cfg.Realtime.MaxReconnects != 3 {
		t.Errorf("Realtime.MaxReconnects = %d, want 3", cfg.Realtime.MaxReconnects)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STREAMWEAVE_API_URL", "http://localhost:4000")
	t.Setenv("STREAMWEAVE_REALTIME_MAX_RECONNECTS", "5")
	t.Setenv("STREAMWEAVE_TOKEN_LIFETIME", "30m")
	t.Setenv("OTEL_ENABLED", "true")

	cfg := Load()

	if cfg.API.BaseURL != "http://localhost:4000" {
		t.Errorf("API.BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.Realtime.MaxReconnects != 5 {
		t.Errorf("Realtime.MaxReconnects = %d, want 5", cfg.Realtime.MaxReconnects)
	}
	if cfg.Auth.TokenLifetime != 30*time.Minute {
		t.Errorf("Auth.TokenLifetime = %v, want 30m", cfg.Auth.TokenLifetime)
	}
	if !cfg.Telemetry.Enabled {
		t.Error("Telemetry.Enabled = false, want true")
	}
}

func TestLoad_MalformedEnvFallsBack(t *testing.T) {
	t.Setenv("STREAMWEAVE_REALTIME_MAX_RECONNECTS", "many")
	t.Setenv("STREAMWEAVE_TOKEN_LIFETIME", "soon")

	cfg := Load()

	if cfg.Realtime.MaxReconnects != 3 {
		t.Errorf("Realtime.MaxReconnects = %d, want default 3", cfg.Realtime.MaxReconnects)
	}
	if cfg.Auth.TokenLifetime != 60*time.Minute {
		t.Errorf("Auth.TokenLifetime = %v, want default 60m", cfg.Auth.TokenLifetime)
	}
}
