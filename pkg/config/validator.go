package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
)

// Validator validates a loaded Config: struct-tag validation via
// go-playground/validator for field-level constraints, plus the
// cross-field/environment checks struct tags can't express — the same
// two-layer split the teacher's Validator uses (tag-like per-field checks in
// types.go, hand-written cross-reference checks in validateChains/
// validateAgents).
type Validator struct {
	cfg *Config
	v   *validator.Validate
}

// NewValidator creates a validator for the given configuration.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg, v: validator.New(validator.WithRequiredStructEnabled())}
}

// ValidateAll performs comprehensive validation, fail-fast on the first
// error encountered.
func (val *Validator) ValidateAll() error {
	if err := val.v.Struct(val.cfg.Queue); err != nil {
		return fmt.Errorf("queue validation failed: %w", err)
	}
	if err := val.crossCheckQueue(); err != nil {
		return fmt.Errorf("queue validation failed: %w", err)
	}

	if err := val.v.Struct(val.cfg.Retention); err != nil {
		return fmt.Errorf("retention validation failed: %w", err)
	}

	if err := val.v.Struct(&val.cfg.Providers.Perplexity); err != nil {
		return fmt.Errorf("providers.perplexity validation failed: %w", err)
	}
	if err := val.v.Struct(&val.cfg.Providers.Firecrawl); err != nil {
		return fmt.Errorf("providers.firecrawl validation failed: %w", err)
	}
	if err := val.v.Struct(&val.cfg.Providers.Google); err != nil {
		return fmt.Errorf("providers.google validation failed: %w", err)
	}

	if err := val.v.Struct(&val.cfg.Server); err != nil {
		return fmt.Errorf("server validation failed: %w", err)
	}

	if err := val.v.Struct(&val.cfg.Activity); err != nil {
		return fmt.Errorf("activity validation failed: %w", err)
	}
	if err := val.v.Struct(&val.cfg.Webhooks); err != nil {
		return fmt.Errorf("webhooks validation failed: %w", err)
	}
	if err := val.v.Struct(&val.cfg.Scheduler); err != nil {
		return fmt.Errorf("scheduler validation failed: %w", err)
	}

	val.warnMissingProviderCredentials()

	return nil
}

// crossCheckQueue validates invariants across two QueueConfig fields that a
// single struct tag can't express.
func (val *Validator) crossCheckQueue() error {
	q := val.cfg.Queue
	if q.PollIntervalJitter >= q.PollInterval {
		return NewValidationError("queue", "poll_interval_jitter",
			fmt.Errorf("must be less than poll_interval, got jitter=%v interval=%v", q.PollIntervalJitter, q.PollInterval))
	}
	if q.HeartbeatInterval >= q.OrphanThreshold {
		return NewValidationError("queue", "heartbeat_interval",
			fmt.Errorf("must be less than orphan_threshold to prevent false orphan detection, got heartbeat=%v threshold=%v", q.HeartbeatInterval, q.OrphanThreshold))
	}
	return nil
}

// warnMissingProviderCredentials logs (but does not fail validation on) any
// provider whose configured env var isn't set. Providers degrade
// gracefully — pkg/providers.Enabled() already reports false and callers
// route around a disabled provider — so an unset credential is an
// operational warning, not a config error, unlike the teacher's LLM
// providers where every referenced provider is load-bearing for its chain.
func (val *Validator) warnMissingProviderCredentials() {
	p := val.cfg.Providers
	check := func(component, field, envVar string) {
		if envVar != "" && os.Getenv(envVar) == "" {
			slog.Warn("provider credential not set, provider will be disabled", "provider", component, "env", envVar, "field", field)
		}
	}
	check("perplexity", "api_key_env", p.Perplexity.APIKeyEnv)
	check("firecrawl", "api_key_env", p.Firecrawl.APIKeyEnv)
	check("google", "api_key_env", p.Google.APIKeyEnv)
	check("google", "cx_env", p.Google.CXEnv)
}
