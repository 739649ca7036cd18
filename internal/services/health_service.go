// Package services – HealthService
//
// Multi-service health aggregation. Each dependency is probed
// independently: the database with a connectivity check, the AI provider by
// credential presence (never a live, billable call), and payments according
// to its feature flag (disabled, misconfigured, or configured). The overall
// status is healthy only if no required (non-disabled) service reports
// down.
package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/unipath-labs/go-abroad-backend/internal/config"
)

// Probe states reported per service.
const (
	ProbeUp            = "up"
	ProbeDown          = "down"
	ProbeDisabled      = "disabled"
	ProbeMisconfigured = "misconfigured"
)

// HealthReport is the aggregated outcome of all probes.
type HealthReport struct {
	Healthy  bool                    `json:"healthy"`
	Services map[string]string       `json:"services"`
	Flags    map[config.Feature]bool `json:"flags"`
}

// AIProbe reports whether the generation provider has a usable credential.
type AIProbe interface {
	Configured() bool
}

// HealthService aggregates dependency probes for the health endpoint.
type HealthService struct {
	DB    *gorm.DB
	AI    AIProbe
	Flags config.Flags

	// StripeKeyPresent mirrors whether a payment credential is configured;
	// only consulted when the payments flag is on.
	StripeKeyPresent bool
}

// Check probes every dependency and aggregates the result. A down database
// or AI service makes the whole system unhealthy; a down-but-disabled
// payments service does not.
func (s *HealthService) Check(ctx context.Context) HealthReport {
	services := map[string]string{
		"database": s.probeDatabase(ctx),
		"ai":       s.probeAI(),
		"payments": s.probePayments(),
	}

	healthy := true
	for _, state := range services {
		if state == ProbeDown || state == ProbeMisconfigured {
			healthy = false
		}
	}

	return HealthReport{
		Healthy:  healthy,
		Services: services,
		Flags:    s.Flags.All(),
	}
}

func (s *HealthService) probeDatabase(ctx context.Context) string {
	if s.DB == nil {
		return ProbeDown
	}
	sqlDB, err := s.DB.DB()
	if err != nil {
		return ProbeDown
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return ProbeDown
	}
	return ProbeUp
}

func (s *HealthService) probeAI() string {
	if s.AI == nil || !s.AI.Configured() {
		return ProbeDown
	}
	return ProbeUp
}

func (s *HealthService) probePayments() string {
	if !s.Flags.IsEnabled(config.FeaturePayments) {
		return ProbeDisabled
	}
	if !s.StripeKeyPresent {
		return ProbeMisconfigured
	}
	return ProbeUp
}
