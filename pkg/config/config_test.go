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

	if cfg.App.Env != "prod" || !cfg.App.IsProd() {
		t.Fatalf("expected App.Env to be prod, got %q", cfg.App.Env)
	}
	if cfg.Upstream.BaseURL != "http://shop.local" {
		t.Fatalf("unexpected upstream url %q", cfg.Upstream.BaseURL)
	}
	if got := cfg.Storefront.FeedbackDelay; got != 2500*time.Millisecond {
		t.Fatalf("expected feedback delay 2.5s, got %v", got)
	}
	if got := cfg.Views.IdleTTL; got != 30*time.Minute {
		t.Fatalf("expected idle ttl 30m, got %v", got)
	}
	if cfg.Redis.Enabled() {
		t.Fatalf("redis should be disabled without url or address")
	}
	if cfg.PubSub.Enabled() {
		t.Fatalf("pubsub should be disabled without a topic")
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

func TestLoad_RejectsNonHTTPUpstream(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvUpstreamURL, "ftp://shop.local")

	if _, err := Load(); err == nil {
		t.Fatal("expected non-http upstream to be rejected")
	}
}

func TestLoad_OptionalIntegrations(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
	t.Setenv(EnvGCPProjectID, "project-123")
	t.Setenv(EnvPubSubCartTopic, "cart-events")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if !cfg.Redis.Enabled() || !cfg.PubSub.Enabled() {
		t.Fatalf("expected redis and pubsub to be enabled")
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "prod")
	t.Setenv(EnvUpstreamURL, "http://shop.local")
	t.Setenv(EnvRedisURL, "")
	t.Setenv(EnvPubSubCartTopic, "")
}
