package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("VIDTUBE_CONFIG_FILE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.AppPort != 8000 {
		t.Fatalf("expected default port 8000 got %d", cfg.AppPort)
	}
	if cfg.Auth.AccessTokenTTL != 15*time.Minute {
		t.Fatalf("unexpected access ttl %v", cfg.Auth.AccessTokenTTL)
	}
	if cfg.RateLimit.RedisPrefix == "" {
		t.Fatal("expected default redis prefix")
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("VIDTUBE_CONFIG_FILE", "")
	t.Setenv("VIDTUBE_PORT", "9090")
	t.Setenv("VIDTUBE_ACCESS_TOKEN_TTL", "5m")
	t.Setenv("VIDTUBE_COOKIE_SECURE", "false")
	t.Setenv("VIDTUBE_UPLOAD_MAX_BYTES", "1024")
	t.Setenv("VIDTUBE_RATE_LIMIT_REQUESTS", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.AppPort != 9090 {
		t.Fatalf("expected port override got %d", cfg.AppPort)
	}
	if cfg.Auth.AccessTokenTTL != 5*time.Minute {
		t.Fatalf("expected ttl override got %v", cfg.Auth.AccessTokenTTL)
	}
	if cfg.Auth.CookieSecure {
		t.Fatal("expected cookie secure override")
	}
	if cfg.Uploads.MaxBytes != 1024 {
		t.Fatalf("expected max bytes override got %d", cfg.Uploads.MaxBytes)
	}
	if cfg.RateLimit.Requests != 10 {
		t.Fatalf("invalid int should fall back to default, got %d", cfg.RateLimit.Requests)
	}
}

func TestLoadFileLayer(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vidtube.toml")
	contents := `
port = 7000
log_level = "debug"

[auth]
access_token_secret = "from-file"
refresh_token_ttl = "48h"

[object_store]
bucket = "media"

[rate_limit]
window = "30s"
`
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("VIDTUBE_CONFIG_FILE", path)
	t.Setenv("VIDTUBE_LOG_LEVEL", "warn")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.AppPort != 7000 {
		t.Fatalf("expected file port got %d", cfg.AppPort)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("environment should win over file, got %q", cfg.LogLevel)
	}
	if cfg.Auth.AccessTokenSecret != "from-file" {
		t.Fatalf("unexpected secret %q", cfg.Auth.AccessTokenSecret)
	}
	if cfg.Auth.RefreshTokenTTL != 48*time.Hour {
		t.Fatalf("unexpected refresh ttl %v", cfg.Auth.RefreshTokenTTL)
	}
	if cfg.RateLimit.Window != 30*time.Second {
		t.Fatalf("unexpected window %v", cfg.RateLimit.Window)
	}
	if cfg.ObjectStore.Bucket != "media" {
		t.Fatalf("unexpected bucket %q", cfg.ObjectStore.Bucket)
	}
}

func TestLoadFileErrors(t *testing.T) {
	t.Setenv("VIDTUBE_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("VIDTUBE_CONFIG_FILE", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected missing secret to fail validation")
	}

	cfg.Auth.AccessTokenSecret = "secret"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}

	cfg.LogLevel = "chatty"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected unknown log level to fail")
	}
	cfg.LogLevel = "debug"

	cfg.Auth.RefreshTokenTTL = time.Minute
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected refresh ttl shorter than access ttl to fail")
	}
}
