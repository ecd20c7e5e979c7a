package test

import (
	"testing"
	"time"

	"github.com/passportr/passportr"
)

func TestDefaultConfigPresetNeedsOnlyKeys(t *testing.T) {
	cfg := passportr.DefaultConfig()

	if cfg.Provider.JWT.SigningMethod != "ed25519" {
		t.Fatalf("expected ed25519, got %q", cfg.Provider.JWT.SigningMethod)
	}
	if cfg.Provider.JWT.TTL != 24*time.Hour {
		t.Fatalf("expected 24h token ttl, got %v", cfg.Provider.JWT.TTL)
	}
	if cfg.Metrics.Enabled {
		t.Fatal("expected metrics disabled in preset baseline")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected preset to validate, got %v", err)
	}
}

func TestDefaultConfigPresetLintHasNoHighFindings(t *testing.T) {
	cfg := passportr.DefaultConfig()
	if high := cfg.Lint().BySeverity(passportr.LintHigh); len(high) != 0 {
		t.Fatalf("expected no high-severity lint findings, got %v", high)
	}
}
