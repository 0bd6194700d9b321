// Package query holds the question value that flows from the input gate into retrieval.
package query

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/raggate/internal/domain/threat"
)

// Query pairs the raw question with its guardrail outcome.
type Query struct {
	raw       string
	sanitized string
	threat    threat.Level
}

// NewValid creates a query that passed the input gate. sanitized must not be blank.
func NewValid(raw, sanitized string, level threat.Level) (Query, error) {
	if strings.TrimSpace(sanitized) == "" {
		return Query{}, fmt.Errorf("valid query requires non-blank sanitized text")
	}
	return Query{raw: raw, sanitized: sanitized, threat: level}, nil
}

// Raw returns the question as the caller sent it.
func (q Query) Raw() string { return q.raw }

// Sanitized returns the cleaned question.
func (q Query) Sanitized() string { return q.sanitized }

// Threat returns the aggregate threat level of the input checks.
func (q Query) Threat() threat.Level { return q.threat }

// Valid reports whether the query may be retrieved against.
func (q Query) Valid() bool { return q.sanitized != "" }
