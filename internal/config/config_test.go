package config

import (
	"testing"
	"time"
)

func TestLoadBillingDefaults(t *testing.T) {
	t.Setenv("BILLING_RESERVATION_TTL_MINUTES", "20")
	cfg := Load()

	if got := cfg.Billing.PackagePrices["small"]; got != "1000" {
		t.Fatalf("small price want 1000 got %q", got)
	}
	if got := cfg.Billing.ReservationTTL(); got != 20*time.Minute {
		t.Fatalf("reservation ttl want 20m got %v", got)
	}
	if got := cfg.PaymentGateway.Timeout(); got != 30*time.Second {
		t.Fatalf("gateway timeout want 30s got %v", got)
	}
}

func TestBillingDurationsFallback(t *testing.T) {
	var cfg BillingConfig
	if cfg.OrphanExpiry() != 15*time.Minute {
		t.Fatalf("orphan expiry fallback want 15m got %v", cfg.OrphanExpiry())
	}
	if cfg.ReconcileInterval() != time.Minute {
		t.Fatalf("reconcile fallback want 1m got %v", cfg.ReconcileInterval())
	}
	if cfg.PaymentLockTTL() != 30*time.Second {
		t.Fatalf("lock ttl fallback want 30s got %v", cfg.PaymentLockTTL())
	}
}
