// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, metrics, CORS,
// security headers, authentication and rate limiting.
//
// Design goals:
//   - Observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Flag-gated subsystems fail loudly, not silently
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/unipath-labs/go-abroad-backend/internal/config"
	"github.com/unipath-labs/go-abroad-backend/internal/genai"
	"github.com/unipath-labs/go-abroad-backend/internal/http/handlers"
	"github.com/unipath-labs/go-abroad-backend/internal/http/middleware"
	"github.com/unipath-labs/go-abroad-backend/internal/payments"
	"github.com/unipath-labs/go-abroad-backend/internal/services"
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured access logs
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Gzip compression (report content is large JSON)
//  7. Metrics
//  8. Rate limiter (flag-gated, per user/IP)
//  9. CORS and security headers
//
// Route groups:
//   - /healthz, /metrics: unauthenticated operational endpoints
//   - /webhooks/payments: unauthenticated; webhook signature authenticates
//   - /internal/maintenance/*: shared-secret header authenticates
//   - <base>/reports, /payments, /users/me: bearer-token authenticated
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config, flags config.Flags) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	if flags.IsEnabled(config.FeatureObservability) {
		r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	}

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured access logging
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Compress large report payloads
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) Token-bucket rate limiter per user/IP (flag-gated)
	if flags.IsEnabled(config.FeatureRateLimiting) {
		rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
		r.Use(rl.Handler())
	}

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      true,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Dependency injection: providers ← config, services ← db/providers
	aiClient := genai.NewClient(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.Timeout)
	reportSvc := services.NewReportService(
		db, aiClient,
		cfg.Report.Country,
		cfg.Report.TTL, cfg.Report.PurgeAfter, cfg.Report.StaleAfter,
		cfg.AI.Timeout,
	)

	var provider services.PaymentProvider
	if flags.IsEnabled(config.FeaturePayments) {
		provider = payments.NewStripeProvider(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret)
	}
	paySvc := &services.PaymentService{
		DB:         db,
		Provider:   provider,
		Reports:    reportSvc,
		PriceCents: cfg.Report.PriceCents,
		Currency:   cfg.Report.PriceCurrency,
	}
	userSvc := &services.UserService{DB: db}
	healthSvc := &services.HealthService{
		DB:               db,
		AI:               aiClient,
		Flags:            flags,
		StripeKeyPresent: cfg.Stripe.SecretKey != "",
	}

	h := handlers.New(reportSvc, paySvc, userSvc, reportSvc, healthSvc, db)

	// Operational endpoints
	r.GET("/healthz", h.Health)

	// Provider webhooks: signature-authenticated, payments flag required
	r.POST("/webhooks/payments", requireFeature(flags, config.FeaturePayments), h.PaymentWebhook)

	// Cron-invoked maintenance sweeps behind the shared secret
	maint := r.Group("/internal/maintenance", middleware.MaintenanceSecret(cfg.MaintenanceSecret))
	{
		maint.POST("/expire", h.ExpireReports)
		maint.POST("/purge", h.PurgeReports)
		maint.POST("/reconcile", h.ReconcileReports)
	}

	// Public API behind bearer-token auth
	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(middleware.Auth(db, cfg.AuthSecret))
	{
		// Reports
		api.POST("/reports", h.CreateReport)
		api.GET("/reports", h.ListReports)
		api.GET("/reports/:id", h.GetReport)
		api.DELETE("/reports/:id", h.DeleteReport)
		api.POST("/reports/:id/retry", h.RetryReport)
		api.POST("/reports/:id/checkout", requireFeature(flags, config.FeaturePayments), h.CreateCheckout)

		// Payments (read-only audit trail)
		api.GET("/payments", h.ListPayments)

		// Account
		api.GET("/users/me", h.GetMe)
		api.DELETE("/users/me", h.DeleteMe)
	}
}

// requireFeature answers 503 with the controlling environment variable when a
// flag-gated route is called while the subsystem is off.
func requireFeature(flags config.Flags, feature config.Feature) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := flags.RequireEnabled(feature); err != nil {
			handlers.Fail(c, http.StatusServiceUnavailable, handlers.ErrCodeFeatureDisabled, err.Error())
			return
		}
		c.Next()
	}
}

// limitBody caps the request body size for all endpoints using
// http.MaxBytesReader; oversized bodies error on read downstream.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
