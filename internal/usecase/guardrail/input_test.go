package guardrail

import (
	"strings"
	"testing"

	"github.com/kailas-cloud/raggate/internal/domain/threat"
	"github.com/kailas-cloud/raggate/internal/domain/validation"
)

func TestInputValidator(t *testing.T) {
	v := NewInputValidator(3, 50)

	tests := []struct {
		name   string
		input  string
		valid  bool
		reason string
		level  threat.Level
	}{
		{"plain question", "What is RAG?", true, "", threat.None},
		{"trims whitespace", "  What is RAG?  ", true, "", threat.None},
		{"tabs and newlines allowed", "What is\tRAG?\nExplain.", true, "", threat.None},
		{"empty", "", false, validation.ReasonEmpty, threat.Low},
		{"blank", " \t\n ", false, validation.ReasonEmpty, threat.Low},
		{"too short", "ab", false, validation.ReasonTooShort, threat.Low},
		{"too long", strings.Repeat("a", 51), false, validation.ReasonTooLong, threat.Medium},
		{"null byte", "What\x00 is RAG?", false, validation.ReasonNullByte, threat.High},
		{"control char", "What\x07 is RAG?", false, validation.ReasonControlChars, threat.High},
		{"escape char", "What \x1b[31mis RAG?", false, validation.ReasonControlChars, threat.High},
		{"script tag", "hi <script>alert(1)</script>", false, validation.ReasonDeniedPattern, threat.High},
		{"javascript url", "open javascript:alert(1)", false, validation.ReasonDeniedPattern, threat.High},
		{"event handler", "<img onerror=alert(1)>", false, validation.ReasonDeniedPattern, threat.High},
		{"iframe", "<iframe src=x>", false, validation.ReasonDeniedPattern, threat.High},
		{"special chars", "!!@@##$$%%^^&&**", false, validation.ReasonSpecialChars, threat.Medium},
		{"short input skips ratio", "?!?!", true, "", threat.None},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := v.Validate(tc.input)
			if res.Valid() != tc.valid {
				t.Fatalf("Valid() = %v, want %v (reason %q)", res.Valid(), tc.valid, res.Reason())
			}
			if !strings.HasPrefix(res.Reason(), tc.reason) {
				t.Errorf("Reason() = %q, want prefix %q", res.Reason(), tc.reason)
			}
			if res.Threat() != tc.level {
				t.Errorf("Threat() = %q, want %q", res.Threat(), tc.level)
			}
			if tc.valid && res.Sanitized() != strings.TrimSpace(tc.input) {
				t.Errorf("Sanitized() = %q", res.Sanitized())
			}
			if !tc.valid && res.Sanitized() != "" {
				t.Errorf("failed result must not carry a payload, got %q", res.Sanitized())
			}
		})
	}
}

func TestInputValidator_CountsRunes(t *testing.T) {
	v := NewInputValidator(3, 5)
	if res := v.Validate("héllo"); !res.Valid() {
		t.Errorf("5 runes should fit max 5, got %q", res.Reason())
	}
	if res := v.Validate("日本"); res.Reason() != validation.ReasonTooShort {
		t.Errorf("2 runes should be too short, got %q", res.Reason())
	}
}

func TestInputValidator_Defaults(t *testing.T) {
	v := NewInputValidator(0, 0)
	if v.minLength != DefaultMinLength || v.maxLength != DefaultMaxLength {
		t.Errorf("defaults = %d/%d", v.minLength, v.maxLength)
	}
}

func TestCheckLength(t *testing.T) {
	v := NewInputValidator(3, 10)
	if r, ok := v.CheckLength("hi"); ok || r != validation.ReasonTooShort {
		t.Errorf("CheckLength(hi) = %q, %v", r, ok)
	}
	if r, ok := v.CheckLength(strings.Repeat("x", 11)); ok || r != validation.ReasonTooLong {
		t.Errorf("CheckLength(11) = %q, %v", r, ok)
	}
	if _, ok := v.CheckLength("fine"); !ok {
		t.Error("CheckLength(fine) should pass")
	}
}
