// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, database selection, payment and AI
// provider credentials, report retention windows, rate limiting, and
// observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-abroad-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// StripeConfig defines payment provider credentials.
type StripeConfig struct {
	SecretKey     string // STRIPE_SECRET_KEY
	WebhookSecret string // STRIPE_WEBHOOK_SECRET
}

// AIConfig defines the report generation provider settings.
type AIConfig struct {
	APIKey  string        // AI_API_KEY
	BaseURL string        // AI_BASE_URL
	Timeout time.Duration // AI_TIMEOUT, upper bound on a generation call
}

// ReportConfig defines report lifecycle and pricing settings.
type ReportConfig struct {
	Country       string        // REPORT_COUNTRY, the single supported country
	TTL           time.Duration // REPORT_TTL, created-to-expired window
	PurgeAfter    time.Duration // PURGE_AFTER, expired-to-hard-deleted window
	StaleAfter    time.Duration // STALE_GENERATING_AFTER, watchdog for stuck generating
	PriceCents    int64         // REPORT_PRICE_CENTS
	PriceCurrency string        // REPORT_PRICE_CURRENCY
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging
	LogLevel    string // debug|info|warn|error|fatal|panic
	LogPretty   bool   // pretty console logs in dev
	APIBasePath string // base path for API routes

	// Database
	SQLitePath  string // SQLITE_PATH, local adapter
	DatabaseURL string // DATABASE_URL, hosted adapter (postgres DSN)

	// Feature flags
	EnablePayments      bool // ENABLE_PAYMENTS
	EnableHostedDB      bool // ENABLE_HOSTED_DB
	EnableRateLimiting  bool // ENABLE_RATE_LIMITING
	EnableObservability bool // ENABLE_OBSERVABILITY

	// Auth
	AuthSecret string // AUTH_JWT_SECRET, HMAC key for bearer tokens

	// Maintenance (cron-invoked sweeps)
	MaintenanceSecret string // MAINTENANCE_SECRET, shared-secret header value

	// Providers
	Stripe StripeConfig
	AI     AIConfig

	// Report lifecycle
	Report ReportConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging
		LogLevel:    strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:   getbool("LOG_PRETTY", false),
		APIBasePath: normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// Database
		SQLitePath:  getenv("SQLITE_PATH", "app.db"),
		DatabaseURL: getenv("DATABASE_URL", ""),

		// Feature flags
		EnablePayments:      getbool("ENABLE_PAYMENTS", false),
		EnableHostedDB:      getbool("ENABLE_HOSTED_DB", false),
		EnableRateLimiting:  getbool("ENABLE_RATE_LIMITING", false),
		EnableObservability: getbool("ENABLE_OBSERVABILITY", false),

		// Auth / maintenance
		AuthSecret:        getenv("AUTH_JWT_SECRET", ""),
		MaintenanceSecret: getenv("MAINTENANCE_SECRET", ""),

		// Providers
		Stripe: StripeConfig{
			SecretKey:     getenv("STRIPE_SECRET_KEY", ""),
			WebhookSecret: getenv("STRIPE_WEBHOOK_SECRET", ""),
		},
		AI: AIConfig{
			APIKey:  getenv("AI_API_KEY", ""),
			BaseURL: getenv("AI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
			Timeout: getdur("AI_TIMEOUT", 90*time.Second),
		},

		// Report lifecycle
		Report: ReportConfig{
			Country:       getenv("REPORT_COUNTRY", "UK"),
			TTL:           getdur("REPORT_TTL", 30*24*time.Hour),
			PurgeAfter:    getdur("PURGE_AFTER", 90*24*time.Hour),
			StaleAfter:    getdur("STALE_GENERATING_AFTER", 30*time.Minute),
			PriceCents:    getint64("REPORT_PRICE_CENTS", 2999),
			PriceCurrency: strings.ToLower(getenv("REPORT_PRICE_CURRENCY", "gbp")),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-abroad-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if cfg.EnableHostedDB && strings.TrimSpace(cfg.DatabaseURL) == "" {
		return cfg, errors.New("DATABASE_URL is required when ENABLE_HOSTED_DB is set")
	}
	if !cfg.EnableHostedDB && strings.TrimSpace(cfg.SQLitePath) == "" {
		return cfg, errors.New("SQLITE_PATH must not be empty")
	}
	if cfg.EnablePayments && strings.TrimSpace(cfg.Stripe.SecretKey) == "" {
		return cfg, errors.New("STRIPE_SECRET_KEY is required when ENABLE_PAYMENTS is set")
	}
	// An empty HMAC key would verify attacker-minted tokens; auth fails
	// closed like the maintenance secret does.
	if strings.TrimSpace(cfg.AuthSecret) == "" {
		return cfg, errors.New("AUTH_JWT_SECRET must not be empty")
	}
	if strings.TrimSpace(cfg.Report.Country) == "" {
		return cfg, errors.New("REPORT_COUNTRY must not be empty")
	}
	if cfg.Report.TTL <= 0 || cfg.Report.PurgeAfter <= 0 || cfg.Report.StaleAfter <= 0 {
		return cfg, errors.New("REPORT_TTL, PURGE_AFTER and STALE_GENERATING_AFTER must be > 0")
	}
	if cfg.Report.PriceCents <= 0 {
		return cfg, errors.New("REPORT_PRICE_CENTS must be > 0")
	}
	if len(cfg.Report.PriceCurrency) != 3 {
		return cfg, errors.New("REPORT_PRICE_CURRENCY must be a 3-letter code")
	}
	if cfg.AI.Timeout <= 0 {
		return cfg, errors.New("AI_TIMEOUT must be > 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getint64(k string, def int64) int64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
