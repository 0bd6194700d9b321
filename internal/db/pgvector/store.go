// Package pgvector implements the vector index on PostgreSQL with the pgvector extension.
package pgvector

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/kailas-cloud/raggate/internal/db"
	"github.com/kailas-cloud/raggate/internal/domain"
	"github.com/kailas-cloud/raggate/internal/domain/search/filter"
)

// Compile-time check: Store implements domain.VectorIndex.
var _ domain.VectorIndex = (*Store)(nil)

var tableRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// Config holds connection and schema parameters.
type Config struct {
	DSN       string
	Table     string
	Dimension int
	MaxConns  int32
}

// pool is the consumer interface over pgxpool.Pool (ISP).
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Ping(ctx context.Context) error
	Close()
}

// Store is a pgvector-backed vector index.
type Store struct {
	pool      pool
	table     string
	dimension int
}

// New connects a pool. It does not touch the schema; call Initialize for that.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("dsn is required")
	}
	if !tableRegex.MatchString(cfg.Table) {
		return nil, fmt.Errorf("invalid table name %q", cfg.Table)
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("dimension must be positive")
	}

	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}

	p, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return &Store{pool: p, table: cfg.Table, dimension: cfg.Dimension}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() { s.pool.Close() }

// WaitForReady polls Ping until the database responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if err := s.Ping(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for postgres: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// Initialize creates the extension, the passage table and its HNSW index. Idempotent.
func (s *Store) Initialize(ctx context.Context) error {
	for _, stmt := range migrations(s.table, s.dimension) {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return &db.Error{Op: db.OpMigrate, Err: err}
		}
	}
	return nil
}

// Upsert writes passages in one batch, replacing rows with the same id.
func (s *Store) Upsert(
	ctx context.Context, ids []string, vectors [][]float32, texts []string, metadatas []map[string]string,
) error {
	if len(ids) != len(vectors) || len(ids) != len(texts) || len(ids) != len(metadatas) {
		return fmt.Errorf("upsert: mismatched lengths ids=%d vectors=%d texts=%d metadatas=%d",
			len(ids), len(vectors), len(texts), len(metadatas))
	}
	if len(ids) == 0 {
		return nil
	}

	stmt := upsertSQL(s.table)
	batch := &pgx.Batch{}
	for i := range ids {
		if len(vectors[i]) != s.dimension {
			return fmt.Errorf("upsert %s: got %d dimensions, want %d", ids[i], len(vectors[i]), s.dimension)
		}
		meta, err := json.Marshal(nonNil(metadatas[i]))
		if err != nil {
			return fmt.Errorf("marshal metadata %s: %w", ids[i], err)
		}
		batch.Queue(stmt, ids[i], texts[i], meta, pgvector.NewVector(vectors[i]))
	}

	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return &db.Error{Op: db.OpUpsert, Err: err}
	}
	return nil
}

// Query returns the k nearest passages by cosine distance, most similar first.
func (s *Store) Query(ctx context.Context, vector []float32, k int, f filter.Expression) ([]domain.IndexHit, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("vector is required")
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	sql, args := buildQuery(s.table, pgvector.NewVector(vector), k, f)
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	defer rows.Close()

	var hits []domain.IndexHit
	for rows.Next() {
		var (
			content  string
			rawMeta  []byte
			distance float64
		)
		if err := rows.Scan(&content, &rawMeta, &distance); err != nil {
			return nil, fmt.Errorf("scan passage: %w", err)
		}
		meta := map[string]string{}
		if len(rawMeta) > 0 {
			if err := json.Unmarshal(rawMeta, &meta); err != nil {
				return nil, fmt.Errorf("decode metadata: %w", err)
			}
		}
		hits = append(hits, domain.IndexHit{
			Text:     content,
			Metadata: meta,
			Score:    min(1, max(0, 1-distance)),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	return hits, nil
}

func nonNil(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
