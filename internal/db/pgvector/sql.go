package pgvector

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/kailas-cloud/raggate/internal/domain/search/filter"
)

func quote(table string) string { return pgx.Identifier{table}.Sanitize() }

func migrations(table string, dim int) []string {
	t := quote(table)
	idx := pgx.Identifier{table + "_embedding_idx"}.Sanitize()
	return []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id         TEXT PRIMARY KEY,
	content    TEXT NOT NULL,
	metadata   JSONB NOT NULL DEFAULT '{}'::jsonb,
	embedding  vector(%d) NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`, t, dim),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding vector_cosine_ops)`, idx, t),
	}
}

func upsertSQL(table string) string {
	return fmt.Sprintf(`INSERT INTO %s (id, content, metadata, embedding, updated_at)
VALUES ($1, $2, $3, $4, NOW())
ON CONFLICT (id) DO UPDATE SET
	content = EXCLUDED.content,
	metadata = EXCLUDED.metadata,
	embedding = EXCLUDED.embedding,
	updated_at = NOW()`, quote(table))
}

// buildQuery renders the KNN select. Filter keys and values are bound as parameters.
func buildQuery(table string, vec pgvector.Vector, k int, f filter.Expression) (string, []any) {
	args := []any{vec}
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	var where []string
	for _, c := range f.Must() {
		where = append(where, fmt.Sprintf("metadata->>%s = %s", next(c.Key()), next(c.Match())))
	}
	for _, c := range f.MustNot() {
		where = append(where, fmt.Sprintf("metadata->>%s IS DISTINCT FROM %s", next(c.Key()), next(c.Match())))
	}

	var b strings.Builder
	b.WriteString("SELECT content, metadata, embedding <=> $1 AS distance FROM ")
	b.WriteString(quote(table))
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY distance ASC LIMIT ")
	b.WriteString(next(k))
	return b.String(), args
}
