package config

import (
	"testing"
	"time"
)

func TestLoadServerConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"HOPMSG_SERVER_LISTEN", "HOPMSG_SERVER_ENGINE", "HOPMSG_SERVER_METRICS_PATH",
		"HOPMSG_SERVER_FORMAT", "HOPMSG_SERVER_RATE_LIMIT_RPS", "HOPMSG_SERVER_RATE_LIMIT_BURST",
		"HOPMSG_SERVER_MAX_HEADER_BYTES", "HOPMSG_SERVER_READ_TIMEOUT", "HOPMSG_SERVER_DEBUG",
		"HOPMSG_TRUST_FORWARDED_PROTO", "HOPMSG_TRUST_ORIGINAL_URL", "HOPMSG_LOG_LEVEL", "HOPMSG_ERROR_PAGES_DIR",
	} {
		t.Setenv(key, "")
	}

	cfg, err := LoadServerConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadServerConfigFromEnv failed: %v", err)
	}
	if cfg.Listen != ":8080" {
		t.Errorf("Listen mismatch: got %v, want %v", cfg.Listen, ":8080")
	}
	if cfg.Engine != "nethttp" {
		t.Errorf("Engine mismatch: got %v, want %v", cfg.Engine, "nethttp")
	}
	if cfg.ReadTimeout != 15*time.Second {
		t.Errorf("ReadTimeout mismatch: got %v, want %v", cfg.ReadTimeout, 15*time.Second)
	}
	if cfg.ErrorPagesDir != "./errors" {
		t.Errorf("ErrorPagesDir mismatch: got %v, want %v", cfg.ErrorPagesDir, "./errors")
	}
	if !cfg.Trust.ForwardedProto || cfg.Trust.OriginalURL {
		t.Errorf("Trust mismatch: got %+v", cfg.Trust)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level mismatch: got %v, want %v", cfg.Logging.Level, "info")
	}
}

func TestLoadServerConfigFromEnv(t *testing.T) {
	t.Setenv("HOPMSG_SERVER_LISTEN", "9090")
	t.Setenv("HOPMSG_SERVER_ENGINE", "FastHTTP")
	t.Setenv("HOPMSG_SERVER_RATE_LIMIT_RPS", "12.5")
	t.Setenv("HOPMSG_SERVER_RATE_LIMIT_BURST", "3")
	t.Setenv("HOPMSG_TRUST_ORIGINAL_URL", "yes")
	t.Setenv("HOPMSG_TRUST_FORWARDED_PROTO", "off")

	cfg, err := LoadServerConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadServerConfigFromEnv failed: %v", err)
	}
	if cfg.Listen != ":9090" {
		t.Errorf("Listen mismatch: got %v, want %v", cfg.Listen, ":9090")
	}
	if cfg.Engine != "fasthttp" {
		t.Errorf("Engine mismatch: got %v, want %v", cfg.Engine, "fasthttp")
	}
	if cfg.RateLimitRPS != 12.5 || cfg.RateLimitBurst != 3 {
		t.Errorf("rate limit mismatch: got %v/%v, want %v/%v", cfg.RateLimitRPS, cfg.RateLimitBurst, 12.5, 3)
	}
	if cfg.Trust.ForwardedProto || !cfg.Trust.OriginalURL {
		t.Errorf("Trust mismatch: got %+v", cfg.Trust)
	}
}

func TestLoadServerConfigRejectsInvalidValues(t *testing.T) {
	t.Setenv("HOPMSG_SERVER_ENGINE", "gopher")
	if _, err := LoadServerConfigFromEnv(); err == nil {
		t.Fatal("expected error for unknown engine")
	}

	t.Setenv("HOPMSG_SERVER_ENGINE", "")
	t.Setenv("HOPMSG_SERVER_RATE_LIMIT_BURST", "many")
	if _, err := LoadServerConfigFromEnv(); err == nil {
		t.Fatal("expected error for non-numeric burst")
	}
}

func TestLoadCLIConfig(t *testing.T) {
	t.Setenv("HOPMSG_FORMAT", "YAML")
	t.Setenv("HOPMSG_REPLAY_TIMEOUT", "2s")

	cfg, err := LoadCLIConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadCLIConfigFromEnv failed: %v", err)
	}
	if cfg.Format != "yaml" {
		t.Errorf("Format mismatch: got %v, want %v", cfg.Format, "yaml")
	}
	if cfg.ReplayTimeout != 2*time.Second {
		t.Errorf("ReplayTimeout mismatch: got %v, want %v", cfg.ReplayTimeout, 2*time.Second)
	}

	t.Setenv("HOPMSG_REPLAY_TIMEOUT", "soon")
	if _, err := LoadCLIConfigFromEnv(); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestNormalizePort(t *testing.T) {
	cases := map[string]string{
		"":               ":8080",
		"80":             ":80",
		":443":           ":443",
		"127.0.0.1:9000": "127.0.0.1:9000",
	}
	for in, want := range cases {
		if got := normalizePort(in, ":8080"); got != want {
			t.Errorf("normalizePort(%q) mismatch: got %v, want %v", in, got, want)
		}
	}
}
