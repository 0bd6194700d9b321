// Package index adapts the FT-capable key-value store to the uniform vector-index contract.
package index

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/kailas-cloud/raggate/internal/db"
	"github.com/kailas-cloud/raggate/internal/domain"
	"github.com/kailas-cloud/raggate/internal/domain/search/filter"
)

// Compile-time check: Repo implements domain.VectorIndex.
var _ domain.VectorIndex = (*Repo)(nil)

// store is the consumer interface for the vector index (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	CreateIndex(ctx context.Context, s *db.VectorSchema) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	Ping(ctx context.Context) error
}

// Config describes the passage index layout.
type Config struct {
	// Name is the key namespace; keys are "<name>:passage:<id>".
	Name      string
	Dimension int
	// TagFields are metadata keys indexed as TAG for filtering.
	TagFields []string
	HNSW      db.HNSWParams
	// UpsertChunk bounds the HSETs sent in one pipeline.
	UpsertChunk int
}

// Repo implements domain.VectorIndex over a db.Store.
type Repo struct {
	store store
	cfg   Config
}

// New creates a vector index repository.
func New(s store, cfg Config) (*Repo, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("dimension must be positive")
	}
	if cfg.UpsertChunk <= 0 {
		cfg.UpsertChunk = 100
	}
	return &Repo{store: s, cfg: cfg}, nil
}

// Ping checks the backing store.
func (r *Repo) Ping(ctx context.Context) error { return r.store.Ping(ctx) }

func (r *Repo) indexName() string { return r.cfg.Name + ":passages:idx" }

func (r *Repo) keyPrefix() string { return r.cfg.Name + ":passage:" }

// Initialize creates the FT index when it does not exist yet.
func (r *Repo) Initialize(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.indexName())
	if err != nil {
		return fmt.Errorf("check index %s: %w", r.indexName(), err)
	}
	if exists {
		return nil
	}

	schema := &db.VectorSchema{
		Name:        r.indexName(),
		Prefix:      r.keyPrefix(),
		TagFields:   r.cfg.TagFields,
		VectorField: fieldVector,
		VectorAlias: "vector",
		Dimension:   r.cfg.Dimension,
		Distance:    db.DistanceCosine,
		HNSW:        r.cfg.HNSW,
	}

	// A concurrent creator may win the race; that is still success.
	if err := r.store.CreateIndex(ctx, schema); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", r.indexName(), err)
	}
	return nil
}

// Upsert writes passages as hashes, chunked into pipelines.
func (r *Repo) Upsert(
	ctx context.Context, ids []string, vectors [][]float32, texts []string, metadatas []map[string]string,
) error {
	if len(ids) != len(vectors) || len(ids) != len(texts) || len(ids) != len(metadatas) {
		return fmt.Errorf("upsert: mismatched lengths ids=%d vectors=%d texts=%d metadatas=%d",
			len(ids), len(vectors), len(texts), len(metadatas))
	}

	items := make([]db.HashSetItem, 0, len(ids))
	for i, id := range ids {
		if len(vectors[i]) != r.cfg.Dimension {
			return fmt.Errorf("upsert %s: got %d dimensions, want %d", id, len(vectors[i]), r.cfg.Dimension)
		}
		fields, err := buildHashFields(texts[i], vectors[i], metadatas[i], r.cfg.TagFields)
		if err != nil {
			return fmt.Errorf("encode %s: %w", id, err)
		}
		items = append(items, db.HashSetItem{Key: r.keyPrefix() + id, Fields: fields})
	}

	for chunk := range slices.Chunk(items, r.cfg.UpsertChunk) {
		if err := r.store.HSetMulti(ctx, chunk); err != nil {
			return fmt.Errorf("upsert passages: %w", err)
		}
	}
	return nil
}

// Query returns the k nearest passages, most similar first.
// Filter keys must be configured tag fields.
func (r *Repo) Query(ctx context.Context, vector []float32, k int, f filter.Expression) ([]domain.IndexHit, error) {
	if err := r.checkFilter(f); err != nil {
		return nil, err
	}

	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.indexName(),
		Filters:      f,
		Vector:       vector,
		K:            k,
		ReturnFields: r.returnFields(),
	})
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			// Nothing ingested yet.
			return nil, nil
		}
		return nil, fmt.Errorf("search knn %s: %w", r.indexName(), err)
	}
	if sr == nil {
		return nil, nil
	}

	hits := make([]domain.IndexHit, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		hits = append(hits, domain.IndexHit{
			Text:     e.Fields[fieldContent],
			Metadata: parseMetadata(e.Fields, r.cfg.TagFields),
			Score:    e.Score,
		})
	}
	return hits, nil
}

func (r *Repo) returnFields() []string {
	out := make([]string, 0, 3+len(r.cfg.TagFields))
	out = append(out, fieldContent, fieldMetadata, "__vector_score")
	return append(out, r.cfg.TagFields...)
}

func (r *Repo) checkFilter(f filter.Expression) error {
	for _, c := range slices.Concat(f.Must(), f.MustNot()) {
		if !slices.Contains(r.cfg.TagFields, c.Key()) {
			return fmt.Errorf("metadata key %q is not filterable (indexed: %v)", c.Key(), r.cfg.TagFields)
		}
	}
	return nil
}
