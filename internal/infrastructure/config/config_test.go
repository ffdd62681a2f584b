package config_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgerpost/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("VAT_RATE", "")
	t.Setenv("POSTING_MODE", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL == "" {
		t.Fatalf("expected default database URL to be set")
	}

	if !cfg.VATRate.Equal(decimal.RequireFromString("0.18")) {
		t.Fatalf("expected default VAT rate 0.18, got %s", cfg.VATRate)
	}

	if cfg.PostingMode != config.PostingModeSync {
		t.Fatalf("expected sync posting mode, got %s", cfg.PostingMode)
	}

	if cfg.OpsPort != "9090" {
		t.Fatalf("expected default ops port 9090, got %s", cfg.OpsPort)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("VAT_RATE", "0.05")
	t.Setenv("POSTING_MODE", "async")
	t.Setenv("RETRY_SWEEP_CRON", "@every 1m")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("expected custom database URL, got %s", cfg.DatabaseURL)
	}

	if cfg.RedisURL != "redis://example" {
		t.Fatalf("expected custom redis URL, got %s", cfg.RedisURL)
	}

	if cfg.DatabaseTimeout != 45*time.Second {
		t.Fatalf("expected database timeout override, got %s", cfg.DatabaseTimeout)
	}

	if !cfg.VATRate.Equal(decimal.RequireFromString("0.05")) {
		t.Fatalf("expected VAT override, got %s", cfg.VATRate)
	}

	if cfg.PostingMode != config.PostingModeAsync || cfg.RetrySweepCron != "@every 1m" {
		t.Fatalf("unexpected worker settings: %+v", cfg)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "vat rate not a number", key: "VAT_RATE", value: "abc"},
		{name: "vat rate of one", key: "VAT_RATE", value: "1"},
		{name: "negative vat rate", key: "VAT_RATE", value: "-0.1"},
		{name: "unknown posting mode", key: "POSTING_MODE", value: "eventually"},
		{name: "zero concurrency", key: "WORKER_CONCURRENCY", value: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			if _, err := config.Load(); err == nil {
				t.Fatalf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}
