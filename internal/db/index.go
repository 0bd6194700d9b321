package db

import (
	"errors"
	"fmt"
	"strings"
)

// DistanceMetric used by FT.SEARCH vector similarity queries.
type DistanceMetric string

const (
	// DistanceCosine is cosine distance. Passage scores assume it.
	DistanceCosine DistanceMetric = "COSINE"
)

// HNSWParams tunes the HNSW graph. Zero values keep the server defaults.
type HNSWParams struct {
	M           int // max edges per node
	EFConstruct int // build-time candidate list size
}

// VectorSchema describes an FT index over hash keys: TAG fields for metadata
// filters plus one FLOAT32 HNSW vector field.
type VectorSchema struct {
	Name   string
	Prefix string
	// TagFields are indexed with '|' as separator, case-sensitive.
	TagFields []string
	// VectorField is the hash field holding the encoded vector; VectorAlias is
	// the name queries use in KNN clauses.
	VectorField string
	VectorAlias string
	Dimension   int
	Distance    DistanceMetric
	HNSW        HNSWParams
}

// Validate checks that the schema can be sent to FT.CREATE.
func (s *VectorSchema) Validate() error {
	if s.Name == "" {
		return errors.New("index name is required")
	}
	if !IsValidIdentifier(s.Name) {
		return fmt.Errorf("index name %q contains invalid characters", s.Name)
	}
	if s.VectorField == "" {
		return errors.New("vector field is required")
	}
	if s.Dimension <= 0 {
		return fmt.Errorf("vector dimension must be positive, got %d", s.Dimension)
	}

	seen := map[string]bool{s.VectorField: true}
	if s.VectorAlias != "" {
		seen[s.VectorAlias] = true
	}
	for _, f := range s.TagFields {
		if !IsValidIdentifier(f) {
			return fmt.Errorf("tag field %q contains invalid characters", f)
		}
		if seen[f] {
			return fmt.Errorf("duplicate field name: %s", f)
		}
		seen[f] = true
	}
	return nil
}

// String returns a debug representation resembling the FT.CREATE command.
func (s *VectorSchema) String() string {
	parts := []string{"FT.CREATE", s.Name, "ON", "HASH"}
	if s.Prefix != "" {
		parts = append(parts, "PREFIX", "1", s.Prefix)
	}
	parts = append(parts, "SCHEMA")
	for _, f := range s.TagFields {
		parts = append(parts, f, "TAG")
	}
	parts = append(parts, s.VectorField)
	if s.VectorAlias != "" {
		parts = append(parts, "AS", s.VectorAlias)
	}
	parts = append(parts, "VECTOR", "HNSW")
	return strings.Join(parts, " ")
}

// IsValidIdentifier returns true if s matches [a-zA-Z0-9_:-]+.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		if !isAlpha && !isDigit && r != '_' && r != ':' && r != '-' {
			return false
		}
	}
	return true
}
