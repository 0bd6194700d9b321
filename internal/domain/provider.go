package domain

import (
	"context"

	"github.com/kailas-cloud/raggate/internal/domain/search/filter"
)

// ProviderKind names a capability a provider implements.
type ProviderKind string

const (
	// KindEmbedding turns text into vectors.
	KindEmbedding ProviderKind = "embedding"
	// KindGeneration turns a prompt into an answer.
	KindGeneration ProviderKind = "generation"
	// KindVectorIndex stores and searches vectors.
	KindVectorIndex ProviderKind = "vector_index"
)

// EmbeddingClient is the uniform embedding capability.
type EmbeddingClient interface {
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)
	EmbedOne(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// VectorIndex is the uniform vector-index capability.
// Query returns hits ordered by descending score.
type VectorIndex interface {
	Initialize(ctx context.Context) error
	Upsert(ctx context.Context, ids []string, vectors [][]float32, texts []string, metadatas []map[string]string) error
	Query(ctx context.Context, vector []float32, k int, f filter.Expression) ([]IndexHit, error)
}

// Generator is the uniform generation capability.
type Generator interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

// Role of a chat message.
type Role string

// Chat roles understood by every generation backend.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a generation prompt.
type Message struct {
	Role    Role
	Content string
}

// IndexHit is one raw (text, metadata, score) tuple returned by a vector index.
type IndexHit struct {
	Text     string
	Metadata map[string]string
	Score    float64
}
