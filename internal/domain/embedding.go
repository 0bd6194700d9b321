package domain

import (
	"context"
	"fmt"
)

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// BatchEmbedder vectorizes multiple texts in a single API call.
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// BatchEmbeddingResult carries multiple embedding vectors and aggregate token usage.
type BatchEmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}

// BatchFallback calls Embed once per text, for providers without a native batch call.
func BatchFallback(ctx context.Context, e Embedder, texts []string) (BatchEmbeddingResult, error) {
	embeddings := make([][]float32, len(texts))
	var totalPrompt, totalTokens int

	for i, text := range texts {
		res, err := e.Embed(ctx, text)
		if err != nil {
			return BatchEmbeddingResult{}, fmt.Errorf("fallback embed [%d]: %w", i, err)
		}
		embeddings[i] = res.Embedding
		totalPrompt += res.PromptTokens
		totalTokens += res.TotalTokens
	}

	return BatchEmbeddingResult{
		Embeddings:   embeddings,
		PromptTokens: totalPrompt,
		TotalTokens:  totalTokens,
	}, nil
}

// EmbeddingAdapter exposes an Embedder decorator chain as an EmbeddingClient.
type EmbeddingAdapter struct {
	inner     Embedder
	dimension int
}

// NewEmbeddingAdapter wraps inner, reporting dimension as the vector size.
func NewEmbeddingAdapter(inner Embedder, dimension int) *EmbeddingAdapter {
	return &EmbeddingAdapter{inner: inner, dimension: dimension}
}

// EmbedOne vectorizes a single text.
func (a *EmbeddingAdapter) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	res, err := a.inner.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed one: %w", err)
	}
	if a.dimension > 0 && len(res.Embedding) != a.dimension {
		return nil, fmt.Errorf("embed one: got %d dimensions, want %d: %w",
			len(res.Embedding), a.dimension, ErrEmbeddingProviderError)
	}
	return res.Embedding, nil
}

// EmbedMany vectorizes texts in order. Uses the native batch call when inner has one.
func (a *EmbeddingAdapter) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var (
		res BatchEmbeddingResult
		err error
	)
	if be, ok := a.inner.(BatchEmbedder); ok {
		res, err = be.BatchEmbed(ctx, texts)
	} else {
		res, err = BatchFallback(ctx, a.inner, texts)
	}
	if err != nil {
		return nil, fmt.Errorf("embed many: %w", err)
	}
	if len(res.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embed many: got %d vectors for %d texts: %w",
			len(res.Embeddings), len(texts), ErrEmbeddingProviderError)
	}
	return res.Embeddings, nil
}

// Dimension returns the configured vector size.
func (a *EmbeddingAdapter) Dimension() int { return a.dimension }

// HealthCheck delegates to inner when it supports health checks.
func (a *EmbeddingAdapter) HealthCheck(ctx context.Context) error {
	if hc, ok := a.inner.(HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
