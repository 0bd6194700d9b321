// Package guardrail gates questions before retrieval and answers after generation.
package guardrail

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kailas-cloud/raggate/internal/domain/threat"
	"github.com/kailas-cloud/raggate/internal/domain/validation"
)

// Input bounds, in runes.
const (
	DefaultMinLength = 3
	DefaultMaxLength = 1000

	// Ratio of runes that are neither letters, digits nor whitespace.
	maxSpecialRatio = 0.3
	// Shorter inputs skip the ratio check.
	minRatioRunes = 10
)

type pattern struct {
	re     *regexp.Regexp
	detail string
}

// Markup and script fragments rejected in questions and answers alike.
var markupPatterns = []pattern{
	{regexp.MustCompile(`(?i)<\s*/?\s*script\b`), "script tag"},
	{regexp.MustCompile(`(?i)\b(javascript|vbscript)\s*:`), "script URL"},
	{regexp.MustCompile(`(?i)\bon(load|error|click|mouseover|focus|blur|submit|change|keydown|keyup)\s*=`), "inline event handler"},
	{regexp.MustCompile(`(?i)<\s*(iframe|object|embed|applet|meta|base)\b`), "embedded object tag"},
	{regexp.MustCompile(`(?i)data\s*:\s*text/html`), "data URL"},
}

// InputValidator rejects malformed questions.
type InputValidator struct {
	minLength int
	maxLength int
}

// NewInputValidator creates a validator. Non-positive bounds use the defaults.
func NewInputValidator(minLength, maxLength int) *InputValidator {
	if minLength <= 0 {
		minLength = DefaultMinLength
	}
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	return &InputValidator{minLength: minLength, maxLength: maxLength}
}

// Validate checks text and returns the trimmed question on success.
func (v *InputValidator) Validate(text string) validation.Result {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return validation.Fail(validation.ReasonEmpty, threat.Low)
	}

	n := utf8.RuneCountInString(trimmed)
	if n < v.minLength {
		return validation.Fail(validation.ReasonTooShort, threat.Low)
	}
	if n > v.maxLength {
		return validation.Fail(validation.ReasonTooLong, threat.Medium)
	}

	if strings.ContainsRune(trimmed, 0) {
		return validation.Fail(validation.ReasonNullByte, threat.High)
	}
	if hasControlChars(trimmed) {
		return validation.Fail(validation.ReasonControlChars, threat.High)
	}

	if p, ok := matchAny(markupPatterns, trimmed); ok {
		return validation.Fail(validation.ReasonDeniedPattern+": "+p.detail, threat.High)
	}

	if n >= minRatioRunes && specialRatio(trimmed, n) > maxSpecialRatio {
		return validation.Fail(validation.ReasonSpecialChars, threat.Medium)
	}

	return validation.Pass(trimmed)
}

// CheckLength reports the length violation of trimmed text, if any.
func (v *InputValidator) CheckLength(trimmed string) (string, bool) {
	n := utf8.RuneCountInString(trimmed)
	switch {
	case n < v.minLength:
		return validation.ReasonTooShort, false
	case n > v.maxLength:
		return validation.ReasonTooLong, false
	}
	return "", true
}

// hasControlChars ignores tab, newline and carriage return.
func hasControlChars(s string) bool {
	for _, r := range s {
		if r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		if unicode.IsControl(r) {
			return true
		}
	}
	return false
}

func specialRatio(s string, n int) float64 {
	special := 0
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r) {
			special++
		}
	}
	return float64(special) / float64(n)
}

func matchAny(patterns []pattern, s string) (pattern, bool) {
	for _, p := range patterns {
		if p.re.MatchString(s) {
			return p, true
		}
	}
	return pattern{}, false
}
