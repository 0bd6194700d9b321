package guardrail

import (
	"regexp"
	"strings"

	"github.com/kailas-cloud/raggate/internal/domain/threat"
	"github.com/kailas-cloud/raggate/internal/domain/validation"
)

// Phrases that show the model echoing its instructions.
var leakPatterns = []pattern{
	{regexp.MustCompile(`(?i)\bmy\s+system\s+prompt\s+(is|says|reads|was)\b`), "system prompt disclosure"},
	{regexp.MustCompile(`(?i)\bsystem\s+prompt\s*:`), "system prompt disclosure"},
	{regexp.MustCompile(`(?i)\bmy\s+(initial\s+|original\s+|hidden\s+)?instructions\s+(are|were|say|said|tell)\b`), "instruction disclosure"},
	{regexp.MustCompile(`(?i)\bi\s+(was|am|have\s+been)\s+(instructed|programmed|told)\s+(to|not\s+to)\b`), "instruction disclosure"},
	{regexp.MustCompile(`(?i)\bnever\s+reveal\s+these\s+instructions\b`), "instruction echo"},
	{regexp.MustCompile(`(?i)<\|?(im_start|im_end)\|?>|<<\s*/?SYS\s*>>`), "template delimiter"},
}

// OutputValidator checks generated answers before they reach the caller.
type OutputValidator struct {
	extra []string
}

// NewOutputValidator creates a validator. extraMarkers are literal,
// case-insensitive fragments that must never appear in an answer,
// typically distinctive lines of the system instruction.
func NewOutputValidator(extraMarkers ...string) *OutputValidator {
	extra := make([]string, 0, len(extraMarkers))
	for _, m := range extraMarkers {
		if m = strings.ToLower(strings.TrimSpace(m)); m != "" {
			extra = append(extra, m)
		}
	}
	return &OutputValidator{extra: extra}
}

// Validate checks text. Blank output is always safe.
func (v *OutputValidator) Validate(text string) validation.Result {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return validation.Pass("")
	}

	if p, ok := matchAny(leakPatterns, trimmed); ok {
		return validation.Fail(validation.ReasonPromptLeak+": "+p.detail, threat.Critical)
	}
	lower := strings.ToLower(trimmed)
	for _, m := range v.extra {
		if strings.Contains(lower, m) {
			return validation.Fail(validation.ReasonPromptLeak+": instruction echo", threat.Critical)
		}
	}

	if p, ok := matchAny(markupPatterns, trimmed); ok {
		return validation.Fail(validation.ReasonHarmfulOutput+": "+p.detail, threat.High)
	}

	return validation.Pass(trimmed)
}
