package db

import (
	"strings"
	"testing"
)

func passageSchema() VectorSchema {
	return VectorSchema{
		Name:        "raggate:passages:idx",
		Prefix:      "raggate:passage:",
		TagFields:   []string{"source", "filename"},
		VectorField: "__vector",
		VectorAlias: "vector",
		Dimension:   1536,
		Distance:    DistanceCosine,
		HNSW:        HNSWParams{M: 16, EFConstruct: 200},
	}
}

func TestVectorSchema_Valid(t *testing.T) {
	s := passageSchema()
	if err := s.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "FT.CREATE raggate:passages:idx ON HASH PREFIX 1 raggate:passage: SCHEMA source TAG filename TAG __vector AS vector VECTOR HNSW"
	if got := s.String(); got != want {
		t.Errorf("String() =\n%s\nwant\n%s", got, want)
	}
}

func TestVectorSchema_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*VectorSchema)
		want   string
	}{
		{"no name", func(s *VectorSchema) { s.Name = "" }, "index name is required"},
		{"bad name", func(s *VectorSchema) { s.Name = "has space" }, "invalid characters"},
		{"no vector field", func(s *VectorSchema) { s.VectorField = "" }, "vector field is required"},
		{"zero dimension", func(s *VectorSchema) { s.Dimension = 0 }, "dimension must be positive"},
		{"bad tag", func(s *VectorSchema) { s.TagFields = []string{"a b"} }, "contains invalid characters"},
		{"duplicate tag", func(s *VectorSchema) { s.TagFields = []string{"source", "source"} }, "duplicate field"},
		{"tag shadows alias", func(s *VectorSchema) { s.TagFields = []string{"vector"} }, "duplicate field"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := passageSchema()
			tt.mutate(&s)
			err := s.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestIsValidIdentifier(t *testing.T) {
	for _, s := range []string{"a", "raggate:passage:1", "x_y-z"} {
		if !IsValidIdentifier(s) {
			t.Errorf("IsValidIdentifier(%q) = false", s)
		}
	}
	for _, s := range []string{"", "a b", "a/b", "ключ"} {
		if IsValidIdentifier(s) {
			t.Errorf("IsValidIdentifier(%q) = true", s)
		}
	}
}
