// Package services – ReportService
//
// This file implements ReportService, the application-level component that
// owns the report lifecycle state machine:
//
//	pending → generating → {completed | failed} → expired → (hard-deleted)
//
// It validates creation input (country guard before any external work),
// gates the generating transition on confirmed payment, runs the bounded AI
// generation call, enforces the mandatory content shape before anything is
// persisted, and drives the two retention sweeps plus the stale-generating
// watchdog. Reads are pure projections over persisted state: fetching a
// completed report never touches the generator, and an expired or
// foreign-owned report is indistinguishable from a nonexistent one.
//
// Observability: public methods are OpenTelemetry-instrumented; generation
// outcomes are counted in Prometheus.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/unipath-labs/go-abroad-backend/internal/domain"
	"github.com/unipath-labs/go-abroad-backend/internal/repo"
)

// reportGenerations counts generation attempts by outcome
// (completed, failed, timeout, invalid_content).
var reportGenerations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "report_generations_total",
		Help: "Total number of report generation attempts by outcome.",
	},
	[]string{"outcome"},
)

func init() {
	prometheus.MustRegister(reportGenerations)
}

// Generator produces structured report content for a subject/country pair.
// Implementations must honor the context deadline; the service never calls
// Generate without one.
type Generator interface {
	Generate(ctx context.Context, subject, country string) (*domain.ReportContent, error)
}

// ReportService coordinates report persistence and the lifecycle state
// machine. The connection pool behind DB is the only shared mutable resource;
// no report content is ever cached in process.
type ReportService struct {
	DB        *gorm.DB
	Generator Generator

	// Country is the single supported destination country.
	Country string
	// TTL is the created → expired window.
	TTL time.Duration
	// PurgeAfter is the expired → hard-deleted window.
	PurgeAfter time.Duration
	// StaleAfter bounds how long a report may sit in generating before the
	// reconciliation pass treats it as failed.
	StaleAfter time.Duration
	// GenerateTimeout bounds a single generation call.
	GenerateTimeout time.Duration

	// MaxSubjectRunes caps accepted subjects by rune length.
	MaxSubjectRunes int
}

// NewReportService constructs a ReportService with deployment defaults.
func NewReportService(db *gorm.DB, gen Generator, country string, ttl, purgeAfter, staleAfter, genTimeout time.Duration) *ReportService {
	return &ReportService{
		DB:              db,
		Generator:       gen,
		Country:         country,
		TTL:             ttl,
		PurgeAfter:      purgeAfter,
		StaleAfter:      staleAfter,
		GenerateTimeout: genTimeout,
		MaxSubjectRunes: 120,
	}
}

// Create validates the request and persists a pending report. The country
// guard runs before anything else so no payment or AI work is ever scheduled
// for an unsupported destination. An empty country defaults to the supported
// one.
func (s *ReportService) Create(ctx context.Context, userID, subject, country string) (*domain.Report, error) {
	tr := otel.Tracer("services/ReportService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	country = strings.TrimSpace(country)
	if country == "" {
		country = s.Country
	}
	if !strings.EqualFold(country, s.Country) {
		return nil, ErrUnsupportedCountry
	}

	subject = normalizeSubject(subject)
	if subject == "" {
		return nil, ErrEmptySubject
	}
	if s.MaxSubjectRunes > 0 && utf8.RuneCountInString(subject) > s.MaxSubjectRunes {
		return nil, ErrSubjectTooLong
	}

	return repo.CreateReport(ctx, s.DB, userID, subject, s.Country, s.TTL)
}

// Get returns a report by id scoped to the requesting user. It is a pure
// projection: repeated calls return byte-identical persisted content and the
// generator is never invoked. Expired, foreign-owned and nonexistent ids all
// yield ErrReportNotFound.
func (s *ReportService) Get(ctx context.Context, userID, id string) (*domain.Report, error) {
	tr := otel.Tracer("services/ReportService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(
			attribute.String("report.id", id),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	r, err := repo.GetReport(ctx, s.DB, id, userID, false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	return r, nil
}

// ListPage returns a page of the user's visible reports, newest first, with
// the total count. Page size defaults to 10.
func (s *ReportService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Report, int64, error) {
	tr := otel.Tracer("services/ReportService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountReports(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Report{}, 0, nil
	}

	items, err := repo.ListReportsPage(ctx, s.DB, userID, offset, pageSize)
	return items, total, err
}

// HandlePaymentSucceeded is the single entry point of the payment gate: it is
// invoked only for events whose payment status is confirmed paid, and flips
// the correlated report from pending to generating before running the
// bounded generation call.
//
// The transition is idempotent per (report id, target state): when the report
// is already generating, completed, failed or expired, or does not exist at
// all, the call is a safe no-op, so a duplicate webhook delivery can never
// cause a second AI call.
func (s *ReportService) HandlePaymentSucceeded(ctx context.Context, reportID string) error {
	tr := otel.Tracer("services/ReportService")
	ctx, span := tr.Start(ctx, "HandlePaymentSucceeded",
		trace.WithAttributes(attribute.String("report.id", reportID)),
	)
	defer span.End()

	if err := repo.MarkGenerating(ctx, s.DB, reportID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Already past pending, or the id correlates to nothing we own.
			log.Info().Str("report_id", reportID).Msg("payment event ignored: report not pending")
			return nil
		}
		return err
	}

	return s.generate(ctx, reportID)
}

// Retry re-runs generation for a failed report. Any other source status is a
// no-op returning ErrReportNotFound.
func (s *ReportService) Retry(ctx context.Context, reportID string) error {
	tr := otel.Tracer("services/ReportService")
	ctx, span := tr.Start(ctx, "Retry",
		trace.WithAttributes(attribute.String("report.id", reportID)),
	)
	defer span.End()

	if err := repo.RetryFailed(ctx, s.DB, reportID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReportNotFound
		}
		return err
	}
	return s.generate(ctx, reportID)
}

// generate runs the bounded generation call for a report already in the
// generating state and persists the terminal outcome. Content, citation
// count and the completed status land in one guarded statement; on any
// failure only the diagnostic reason is recorded.
func (s *ReportService) generate(ctx context.Context, reportID string) error {
	r, err := repo.GetReportByID(ctx, s.DB, reportID)
	if err != nil {
		return err
	}

	genCtx := ctx
	if s.GenerateTimeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, s.GenerateTimeout)
		defer cancel()
	}

	content, err := s.Generator.Generate(genCtx, r.Subject, r.Country)
	if err != nil {
		outcome := "failed"
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = "timeout"
		}
		reportGenerations.WithLabelValues(outcome).Inc()
		log.Error().Err(err).Str("report_id", reportID).Msg("report generation failed")
		return repo.FailReport(ctx, s.DB, reportID, err.Error())
	}

	if err := content.Validate(); err != nil {
		// RAG integrity: a report missing citations must fail, never complete.
		reportGenerations.WithLabelValues("invalid_content").Inc()
		log.Error().Err(err).Str("report_id", reportID).Msg("generated content rejected")
		return repo.FailReport(ctx, s.DB, reportID, ErrContentInvalid.Error()+": "+err.Error())
	}

	if err := repo.CompleteReport(ctx, s.DB, reportID, content); err != nil {
		return err
	}
	reportGenerations.WithLabelValues("completed").Inc()
	return nil
}

// Delete soft-deletes a report owned by the user by flipping it to expired;
// content is retained until the purge sweep removes the row. Deleting an
// already-expired, foreign-owned or nonexistent report yields
// ErrReportNotFound.
func (s *ReportService) Delete(ctx context.Context, userID, id string) error {
	tr := otel.Tracer("services/ReportService")
	ctx, span := tr.Start(ctx, "Delete",
		trace.WithAttributes(
			attribute.String("report.id", id),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	if _, err := repo.GetReport(ctx, s.DB, id, userID, false); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReportNotFound
		}
		return err
	}
	if err := repo.SoftDeleteReport(ctx, s.DB, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReportNotFound
		}
		return err
	}
	return nil
}

// ExpireDue runs the first retention sweep: every report past its expiry
// timestamp in a pre-expiry state flips to expired. Idempotent: a second
// consecutive run reports zero affected rows.
func (s *ReportService) ExpireDue(ctx context.Context) (int64, error) {
	tr := otel.Tracer("services/ReportService")
	ctx, span := tr.Start(ctx, "ExpireDue")
	defer span.End()

	n, err := repo.ExpireDueReports(ctx, s.DB, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Info().Int64("count", n).Msg("reports expired")
	}
	return n, nil
}

// PurgeExpired runs the second retention sweep: reports expired for at least
// PurgeAfter are permanently removed. It acts only on rows already expired,
// so it is correct regardless of ordering relative to ExpireDue.
func (s *ReportService) PurgeExpired(ctx context.Context) (int64, error) {
	tr := otel.Tracer("services/ReportService")
	ctx, span := tr.Start(ctx, "PurgeExpired")
	defer span.End()

	cutoff := time.Now().UTC().Add(-s.PurgeAfter)
	n, err := repo.PurgeExpiredReports(ctx, s.DB, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Info().Int64("count", n).Msg("expired reports hard-deleted")
	}
	return n, nil
}

// ReconcileStaleGenerating fails reports stuck in generating past the
// StaleAfter threshold so nothing stays in that state indefinitely after a
// crash or a lost provider response.
func (s *ReportService) ReconcileStaleGenerating(ctx context.Context) (int64, error) {
	tr := otel.Tracer("services/ReportService")
	ctx, span := tr.Start(ctx, "ReconcileStaleGenerating")
	defer span.End()

	threshold := time.Now().UTC().Add(-s.StaleAfter)
	n, err := repo.FailStaleGenerating(ctx, s.DB, threshold, "generation timed out: stale generating state reconciled")
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Warn().Int64("count", n).Msg("stale generating reports failed by reconciliation")
	}
	return n, nil
}

// normalizeSubject trims whitespace, collapses runs of spaces, and applies
// title casing so stored subjects render consistently.
func normalizeSubject(s string) string {
	s = whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
	if s == "" {
		return ""
	}
	// cases.Caser carries internal state, so build one per call.
	return cases.Title(language.English).String(s)
}

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)
