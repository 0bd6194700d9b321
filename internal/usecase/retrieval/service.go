// Package retrieval turns a question into ranked documents.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/raggate/internal/domain"
	"github.com/kailas-cloud/raggate/internal/domain/search/filter"
)

// k bounds.
const (
	MinK     = 1
	MaxK     = 20
	DefaultK = 4
)

// Service retrieves documents from the configured vector index.
type Service struct {
	embed    QueryEmbedder
	index    Searcher
	defaultK int
	logger   *zap.Logger
}

// New creates a retrieval service. defaultK outside [MinK, MaxK] uses DefaultK.
func New(embed QueryEmbedder, index Searcher, defaultK int, logger *zap.Logger) *Service {
	if defaultK < MinK || defaultK > MaxK {
		defaultK = DefaultK
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{embed: embed, index: index, defaultK: defaultK, logger: logger}
}

// DefaultK returns the k used when callers pass zero.
func (s *Service) DefaultK() int { return s.defaultK }

// Retrieve returns up to k documents for query, most similar first.
// k == 0 uses the default. Metadata is kept as stored. Nothing is retried.
func (s *Service) Retrieve(ctx context.Context, query string, k int, f filter.Expression) ([]domain.Document, error) {
	if strings.TrimSpace(query) == "" {
		return nil, &domain.InvalidQueryError{Reason: "query must not be blank"}
	}
	if k == 0 {
		k = s.defaultK
	}
	if k < MinK || k > MaxK {
		return nil, &domain.RetrievalError{
			Op:  "validate k",
			Err: fmt.Errorf("k must be between %d and %d, got %d", MinK, MaxK, k),
		}
	}

	vec, err := s.embed.EmbedOne(ctx, query)
	if err != nil {
		return nil, &domain.RetrievalError{Op: "embed query", Err: err}
	}

	hits, err := s.index.Query(ctx, vec, k, f)
	if err != nil {
		return nil, &domain.RetrievalError{Op: "query index", Err: err}
	}

	docs := make([]domain.Document, 0, len(hits))
	for _, h := range hits {
		docs = append(docs, domain.NewDocument(h.Text, h.Metadata, h.Score))
	}

	s.logger.Debug("Retrieved documents",
		zap.Int("k", k),
		zap.Int("hits", len(docs)),
		zap.Bool("filtered", !f.IsEmpty()),
	)
	return docs, nil
}
