package app

import (
	"testing"
	"time"

	_ "github.com/meridian-sis/meridian/internal/testing/guard"
)

func TestLoadConfigReadsEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("APP_ADDR", ":9000")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "60")
	t.Setenv("APP_REQUEST_TIMEOUT", "5s")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.IsProduction() {
		t.Fatal("APP_ENV=production must report production")
	}
	if cfg.AppAddr != ":9000" {
		t.Fatalf("addr = %q", cfg.AppAddr)
	}
	if cfg.RateLimitPerMinute != 60 {
		t.Fatalf("rate limit = %d", cfg.RateLimitPerMinute)
	}
	if cfg.AppRequestTimeout != 5*time.Second {
		t.Fatalf("request timeout = %v", cfg.AppRequestTimeout)
	}
	if cfg.PGDSN == "" || cfg.RedisAddr == "" {
		t.Fatal("storage defaults must be populated")
	}
}

func TestIsProductionNilSafe(t *testing.T) {
	var cfg *Config
	if cfg.IsProduction() {
		t.Fatal("nil config is not production")
	}
}

func TestGuardForcesTestMode(t *testing.T) {
	RefreshTestMode()
	if !InTestMode() {
		t.Fatal("guard import must put the process in test mode")
	}
}
