// Feature flag evaluation.
//
// Flags gate optional subsystems (payments, hosted database, rate limiting,
// observability). The evaluator is a plain value built from Config and passed
// to the components that need it at construction time; there is no ambient
// global flag state. Evaluation is side-effect free apart from a best-effort
// debug log entry, which can never surface as an error to the caller.
package config

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// Feature identifies an optional subsystem gated by an environment flag.
type Feature string

// Known features.
const (
	FeaturePayments      Feature = "payments"
	FeatureHostedDB      Feature = "hosted_db"
	FeatureRateLimiting  Feature = "rate_limiting"
	FeatureObservability Feature = "observability"
)

// featureEnvVars maps each feature to the environment variable controlling it,
// used in RequireEnabled error messages.
var featureEnvVars = map[Feature]string{
	FeaturePayments:      "ENABLE_PAYMENTS",
	FeatureHostedDB:      "ENABLE_HOSTED_DB",
	FeatureRateLimiting:  "ENABLE_RATE_LIMITING",
	FeatureObservability: "ENABLE_OBSERVABILITY",
}

// Flags answers "is capability X enabled" from environment-sourced
// configuration. Unknown features evaluate to disabled.
type Flags struct {
	values map[Feature]bool
}

// NewFlags builds a flag evaluator snapshot from the loaded configuration.
func NewFlags(cfg Config) Flags {
	return Flags{values: map[Feature]bool{
		FeaturePayments:      cfg.EnablePayments,
		FeatureHostedDB:      cfg.EnableHostedDB,
		FeatureRateLimiting:  cfg.EnableRateLimiting,
		FeatureObservability: cfg.EnableObservability,
	}}
}

// IsEnabled reports whether the feature is enabled. A feature missing from
// configuration defaults to disabled. The diagnostic log entry is
// fire-and-forget.
func (f Flags) IsEnabled(feature Feature) bool {
	enabled := f.values[feature]
	log.Debug().Str("feature", string(feature)).Bool("enabled", enabled).Msg("feature flag evaluated")
	return enabled
}

// RequireEnabled returns a configuration error naming the controlling
// environment variable when the feature is off.
func (f Flags) RequireEnabled(feature Feature) error {
	if f.values[feature] {
		return nil
	}
	env, ok := featureEnvVars[feature]
	if !ok {
		return fmt.Errorf("unknown feature %q", feature)
	}
	return fmt.Errorf("feature %q is disabled: set %s=true to enable it", feature, env)
}

// All returns a snapshot map of every known flag to its current value,
// for diagnostics and health endpoints.
func (f Flags) All() map[Feature]bool {
	out := make(map[Feature]bool, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out
}
