package config

import (
	"fmt"
	"strings"
)

// maxVerificationDelayMs keeps a misconfigured grace interval from hanging
// every start/stop for minutes.
const maxVerificationDelayMs = 60_000

// FieldError is one rejected setting in config.yaml.
type FieldError struct {
	Field string
	Value interface{}
	Issue string
}

func (fe FieldError) Error() string {
	if fe.Value == nil {
		return fmt.Sprintf("%s %s", fe.Field, fe.Issue)
	}
	return fmt.Sprintf("%s %s (got %v)", fe.Field, fe.Issue, fe.Value)
}

// FieldErrors collects every rejected setting so one run reports them all.
type FieldErrors []FieldError

func (fe FieldErrors) Error() string {
	msgs := make([]string, len(fe))
	for i, e := range fe {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// HasErrors reports whether any setting was rejected.
func (fe FieldErrors) HasErrors() bool {
	return len(fe) > 0
}

func (fe *FieldErrors) reject(field string, value interface{}, issue string) {
	*fe = append(*fe, FieldError{Field: field, Value: value, Issue: issue})
}

// Validate checks a fully defaulted configuration.
func Validate(cfg MCPDeckConfig) FieldErrors {
	var errs FieldErrors

	if strings.TrimSpace(cfg.HostConfigPath) == "" {
		errs.reject("hostConfigPath", nil, "is required")
	}
	lc := cfg.Lifecycle
	if lc.VerificationDelayMs <= 0 || lc.VerificationDelayMs > maxVerificationDelayMs {
		errs.reject("lifecycle.verificationDelayMs", lc.VerificationDelayMs, fmt.Sprintf("must be between 1 and %d", maxVerificationDelayMs))
	}
	if lc.RefreshConcurrency <= 0 {
		errs.reject("lifecycle.refreshConcurrency", lc.RefreshConcurrency, "must be positive")
	}
	if lc.StatusIntervalSeconds < 0 {
		errs.reject("lifecycle.statusIntervalSeconds", lc.StatusIntervalSeconds, "must not be negative")
	}
	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs.reject("logLevel", cfg.LogLevel, "must be one of debug, info, warn, error")
	}

	return errs
}
