// Package validation holds the verdict every guardrail checker produces.
package validation

import "github.com/kailas-cloud/raggate/internal/domain/threat"

// Reason codes reported by the built-in checkers.
const (
	ReasonEmpty            = "empty input"
	ReasonTooShort         = "too short"
	ReasonTooLong          = "too long"
	ReasonNullByte         = "null byte"
	ReasonControlChars     = "control characters"
	ReasonDeniedPattern    = "disallowed markup or script pattern"
	ReasonSpecialChars     = "excessive special characters"
	ReasonInjection        = "prompt injection attempt"
	ReasonExcessiveNewline = "excessive newlines"
	ReasonCodeBlock        = "embedded code block"
	ReasonPromptLeak       = "system prompt leak"
	ReasonHarmfulOutput    = "harmful markup in output"
)

// Result is an immutable checker verdict.
type Result struct {
	valid     bool
	reason    string
	threat    threat.Level
	sanitized string
}

// Pass creates a passing result carrying the sanitized payload.
func Pass(sanitized string) Result {
	return Result{valid: true, threat: threat.None, sanitized: sanitized}
}

// Fail creates a failing result. Failing results never carry a payload.
func Fail(reason string, level threat.Level) Result {
	return Result{reason: reason, threat: level}
}

// Valid reports whether the checker passed.
func (r Result) Valid() bool { return r.valid }

// Reason returns the failure reason code, empty on pass.
func (r Result) Reason() string { return r.reason }

// Threat returns the threat level, None on pass.
func (r Result) Threat() threat.Level { return r.threat }

// Sanitized returns the cleaned payload, empty on failure.
func (r Result) Sanitized() string { return r.sanitized }
