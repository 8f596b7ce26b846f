package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the StreamWeave assistant client.
type Config struct {
	Version   string
	API       APIConfig
	Realtime  RealtimeConfig
	Auth      AuthConfig
	Telemetry TelemetryConfig

	// ThresholdsPath optionally points at a YAML file overriding the
	// default data-quality thresholds.
	ThresholdsPath string
}

type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

type RealtimeConfig struct {
	URL              string
	HandshakeTimeout time.Duration
	MaxReconnects    int
}

type AuthConfig struct {
	// TokenLifetime is how long a freshly minted access token is valid.
	TokenLifetime time.Duration
	// RenewalBuffer is how long before expiry the client renews
	// proactively. Must be well under TokenLifetime.
	RenewalBuffer time.Duration
}

type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
	ServiceName  string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Version: envStr("STREAMWEAVE_VERSION", "0.4.0"),
		API: APIConfig{
			BaseURL: envStr("STREAMWEAVE_API_URL", "https://api.streamweave.dev"),
			Timeout: envDur("STREAMWEAVE_API_TIMEOUT", 15*time.Second),
		},
		Realtime: RealtimeConfig{
			URL:              envStr("STREAMWEAVE_REALTIME_URL", "wss://api.streamweave.dev/realtime"),
			HandshakeTimeout: envDur("STREAMWEAVE_REALTIME_HANDSHAKE_TIMEOUT", 10*time.Second),
			MaxReconnects:    envInt("STREAMWEAVE_REALTIME_MAX_RECONNECTS", 3),
		},
		Auth: AuthConfig{
			TokenLifetime: envDur("STREAMWEAVE_TOKEN_LIFETIME", 60*time.Minute),
			RenewalBuffer: envDur("STREAMWEAVE_TOKEN_RENEWAL_BUFFER", 5*time.Minute),
		},
		Telemetry: TelemetryConfig{
			Enabled:      envBool("OTEL_ENABLED", false),
			OTLPEndpoint: envStr("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			ServiceName:  envStr("OTEL_SERVICE_NAME", "streamweave-assistant"),
		},
		ThresholdsPath: envStr("STREAMWEAVE_THRESHOLDS_PATH", ""),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDur(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
