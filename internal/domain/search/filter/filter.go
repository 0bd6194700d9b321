// Package filter holds the metadata filter a retrieval call may narrow results with.
package filter

import (
	"fmt"
	"sort"
)

// MaxConditions bounds the number of clauses in one expression.
const MaxConditions = 16

// Expression is a conjunction of exact metadata matches plus exclusions.
// The zero value matches everything.
type Expression struct {
	must    []Condition
	mustNot []Condition
}

// NewExpression validates and creates a filter Expression.
func NewExpression(must, mustNot []Condition) (Expression, error) {
	if len(must)+len(mustNot) > MaxConditions {
		return Expression{}, fmt.Errorf("too many filter conditions (max %d)", MaxConditions)
	}
	return Expression{must: must, mustNot: mustNot}, nil
}

// FromMap builds a must-only expression from key/value pairs, ordered by key.
func FromMap(m map[string]string) (Expression, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	must := make([]Condition, 0, len(keys))
	for _, k := range keys {
		c, err := NewMatch(k, m[k])
		if err != nil {
			return Expression{}, err
		}
		must = append(must, c)
	}
	return NewExpression(must, nil)
}

// Must returns the conditions every hit has to satisfy.
func (e Expression) Must() []Condition { return e.must }

// MustNot returns the conditions no hit may satisfy.
func (e Expression) MustNot() []Condition { return e.mustNot }

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool {
	return len(e.must) == 0 && len(e.mustNot) == 0
}

// Matches evaluates the expression against a metadata map.
func (e Expression) Matches(metadata map[string]string) bool {
	for _, c := range e.must {
		if metadata[c.key] != c.match {
			return false
		}
	}
	for _, c := range e.mustNot {
		if metadata[c.key] == c.match {
			return false
		}
	}
	return true
}

// Condition is an exact match on one metadata key.
type Condition struct {
	key   string
	match string
}

// NewMatch creates an exact match condition.
func NewMatch(key, match string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if match == "" {
		return Condition{}, fmt.Errorf("match value is required for key %q", key)
	}
	return Condition{key: key, match: match}, nil
}

// Key returns the metadata field name.
func (c Condition) Key() string { return c.key }

// Match returns the exact match value.
func (c Condition) Match() string { return c.match }
