package ingest

import "context"

// Embedder vectorizes passages in one call.
type Embedder interface {
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)
}

// Upserter writes passages with their vectors.
type Upserter interface {
	Upsert(ctx context.Context, ids []string, vectors [][]float32, texts []string, metadatas []map[string]string) error
}
