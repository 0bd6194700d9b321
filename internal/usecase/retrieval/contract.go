package retrieval

import (
	"context"

	"github.com/kailas-cloud/raggate/internal/domain"
	"github.com/kailas-cloud/raggate/internal/domain/search/filter"
)

// QueryEmbedder vectorizes the question.
type QueryEmbedder interface {
	EmbedOne(ctx context.Context, text string) ([]float32, error)
}

// Searcher returns nearest passages for a vector.
type Searcher interface {
	Query(ctx context.Context, vector []float32, k int, f filter.Expression) ([]domain.IndexHit, error)
}
