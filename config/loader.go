package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Config file  (file.go)
//   4. Defaults   (defaults.go)

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the FSBROWSE_ prefix.  Boolean values
// accept "1", "true", "yes" (case-insensitive).

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty
// env vars override the existing value.  This should be called BEFORE
// CLI flags are applied so that flags take precedence.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("FSBROWSE_HOST"); v != "" {
		cfg.Host = v
	}
	if v, ok := envInt("FSBROWSE_PORT"); ok {
		cfg.Port = v
	}
	if v := os.Getenv("FSBROWSE_ROOT"); v != "" {
		cfg.Root = v
	}
	if v, ok := envInt("FSBROWSE_MAX_SESSIONS"); ok {
		cfg.MaxSessions = v
	}
	if v, ok := envInt("FSBROWSE_MAX_LINE"); ok {
		cfg.MaxLineBytes = v
	}
	if v := os.Getenv("FSBROWSE_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}

	// Client
	if v := os.Getenv("FSBROWSE_CONNECT"); v != "" {
		cfg.Connect = v
	}
	if v, ok := envDuration("FSBROWSE_TIMEOUT"); ok {
		cfg.Timeout = v
	}
	if v, ok := envInt("FSBROWSE_RETRIES"); ok {
		cfg.Retries = v
	}

	// Output
	if envBool("FSBROWSE_QUIET") {
		cfg.Verbose = 0
	}
	if v, ok := envInt("FSBROWSE_VERBOSE"); ok && v > 0 {
		cfg.Verbose = v
	}
}

// ── helpers ──────────────────────────────────────────────────────────

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes"
}

// envDuration accepts a Go duration ("1500ms") or whole seconds ("3").
func envDuration(key string) (time.Duration, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d, true
	}
	if n, err := strconv.Atoi(v); err == nil {
		return secondsDuration(n), true
	}
	return 0, false
}

func secondsDuration(sec int) time.Duration {
	return time.Duration(sec) * time.Second
}
