package config

import (
	"strings"
	"testing"
	"time"
)

// setRequiredEnv provides the secrets without which Load fails closed.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("AUTH_JWT_SECRET", "test-jwt-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load with defaults: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.APIBasePath != "/api/v1" {
		t.Errorf("APIBasePath = %q, want /api/v1", cfg.APIBasePath)
	}
	if cfg.Report.Country != "UK" {
		t.Errorf("Country = %q, want UK", cfg.Report.Country)
	}
	if cfg.Report.TTL != 30*24*time.Hour {
		t.Errorf("TTL = %v, want 720h", cfg.Report.TTL)
	}
	if cfg.Report.PurgeAfter != 90*24*time.Hour {
		t.Errorf("PurgeAfter = %v, want 2160h", cfg.Report.PurgeAfter)
	}
	if cfg.Report.StaleAfter != 30*time.Minute {
		t.Errorf("StaleAfter = %v, want 30m", cfg.Report.StaleAfter)
	}
	if cfg.Report.PriceCents != 2999 || cfg.Report.PriceCurrency != "gbp" {
		t.Errorf("price = %d %s, want 2999 gbp", cfg.Report.PriceCents, cfg.Report.PriceCurrency)
	}
	if cfg.EnablePayments || cfg.EnableHostedDB || cfg.EnableRateLimiting || cfg.EnableObservability {
		t.Errorf("all feature flags should default off: %+v", cfg)
	}
}

func TestLoad_RequiresAuthSecret(t *testing.T) {
	// No AUTH_JWT_SECRET in the environment: an empty HMAC key would accept
	// any attacker-minted token, so Load must refuse to start.
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "AUTH_JWT_SECRET") {
		t.Fatalf("want AUTH_JWT_SECRET error, got %v", err)
	}

	setRequiredEnv(t)
	if _, err := Load(); err != nil {
		t.Fatalf("with secret set: %v", err)
	}
}

func TestLoad_HostedDBRequiresDSN(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ENABLE_HOSTED_DB", "true")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Fatalf("want DATABASE_URL error, got %v", err)
	}

	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/app")
	if _, err := Load(); err != nil {
		t.Fatalf("hosted DB with DSN should load: %v", err)
	}
}

func TestLoad_PaymentsRequireStripeKey(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ENABLE_PAYMENTS", "true")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "STRIPE_SECRET_KEY") {
		t.Fatalf("want STRIPE_SECRET_KEY error, got %v", err)
	}

	t.Setenv("STRIPE_SECRET_KEY", "sk_test_xxx")
	if _, err := Load(); err != nil {
		t.Fatalf("payments with key should load: %v", err)
	}
}

func TestLoad_ValidationRejectsBadValues(t *testing.T) {
	cases := []struct {
		key, val, wantErr string
	}{
		{"LOG_LEVEL", "loud", "LOG_LEVEL"},
		{"REPORT_PRICE_CURRENCY", "pounds", "REPORT_PRICE_CURRENCY"},
		{"REPORT_PRICE_CENTS", "-5", "REPORT_PRICE_CENTS"},
		{"RATE_BURST", "0", "RATE_BURST"},
		{"OTEL_TRACES_SAMPLER_ARG", "1.5", "OTEL_TRACES_SAMPLER_ARG"},
	}
	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tc.key, tc.val)
			if _, err := Load(); err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("%s=%s: want error mentioning %s, got %v", tc.key, tc.val, tc.wantErr, err)
			}
		})
	}
}

func TestLoad_NormalizesBasePathAndWarnLevel(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("API_BASE_PATH", "api/v2/")
	t.Setenv("LOG_LEVEL", "warning")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBasePath != "/api/v2" {
		t.Errorf("APIBasePath = %q, want /api/v2", cfg.APIBasePath)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}
}
