package redis

import (
	"context"
	"strconv"

	"github.com/kailas-cloud/raggate/internal/db"
)

// CreateIndex issues FT.CREATE for a passage vector schema.
// An index that already exists yields db.ErrIndexExists.
func (s *Store) CreateIndex(ctx context.Context, schema *db.VectorSchema) error {
	if err := schema.Validate(); err != nil {
		return err
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(createArgs(schema)...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "already exists") {
			return db.ErrIndexExists
		}
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	return nil
}

// IndexExists probes index existence via FT.INFO.
// Redis answers "Unknown index name", Valkey "Index ... not found"; both mean absent.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(name).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isIndexMissing(err) {
			return false, nil
		}
		return false, &db.Error{Op: db.OpIndexInfo, Err: err}
	}
	return true, nil
}

// createArgs renders a validated schema as FT.CREATE arguments.
func createArgs(schema *db.VectorSchema) []string {
	args := []string{schema.Name, "ON", "HASH"}
	if schema.Prefix != "" {
		args = append(args, "PREFIX", "1", schema.Prefix)
	}

	args = append(args, "SCHEMA")
	for _, f := range schema.TagFields {
		args = append(args, f, "TAG", "SEPARATOR", "|", "CASESENSITIVE")
	}

	args = append(args, schema.VectorField)
	if schema.VectorAlias != "" {
		args = append(args, "AS", schema.VectorAlias)
	}
	return append(args, vectorArgs(schema)...)
}

func vectorArgs(schema *db.VectorSchema) []string {
	distance := schema.Distance
	if distance == "" {
		distance = db.DistanceCosine
	}

	attrs := []string{
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(schema.Dimension),
		"DISTANCE_METRIC", string(distance),
	}
	if schema.HNSW.M > 0 {
		attrs = append(attrs, "M", strconv.Itoa(schema.HNSW.M))
	}
	if schema.HNSW.EFConstruct > 0 {
		attrs = append(attrs, "EF_CONSTRUCTION", strconv.Itoa(schema.HNSW.EFConstruct))
	}

	out := make([]string, 0, 3+len(attrs))
	out = append(out, "VECTOR", "HNSW", strconv.Itoa(len(attrs)))
	return append(out, attrs...)
}
