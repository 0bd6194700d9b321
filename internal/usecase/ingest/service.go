// Package ingest embeds passages and writes them into the vector index.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/raggate/internal/domain"
	dombatch "github.com/kailas-cloud/raggate/internal/domain/batch"
	domdoc "github.com/kailas-cloud/raggate/internal/domain/document"
	"github.com/kailas-cloud/raggate/internal/metrics"
)

// Defaults for Options.
const (
	DefaultBatchSize = 32
	DefaultMaxItems  = 500
)

// Item is one passage as submitted by a caller. A blank ID gets a generated one.
type Item struct {
	ID       string
	Content  string
	Metadata map[string]string
}

// Options bound a single Ingest call.
type Options struct {
	// BatchSize is the number of passages embedded and upserted per round trip.
	BatchSize int
	// MaxItems rejects larger requests outright.
	MaxItems int
}

// Service ingests passages with per-item error reporting.
type Service struct {
	embed  Embedder
	index  Upserter
	opts   Options
	logger *zap.Logger
}

// New creates an ingestion service.
func New(embed Embedder, index Upserter, opts Options, logger *zap.Logger) *Service {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.MaxItems <= 0 {
		opts.MaxItems = DefaultMaxItems
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{embed: embed, index: index, opts: opts, logger: logger}
}

// Ingest validates, embeds and upserts items. Results are in input order.
func (s *Service) Ingest(ctx context.Context, items []Item) []dombatch.Result {
	results := make([]dombatch.Result, len(items))

	if len(items) > s.opts.MaxItems {
		err := fmt.Errorf("batch size exceeds %d: %w", s.opts.MaxItems, domain.ErrInvalidDocument)
		for i, item := range items {
			results[i] = dombatch.NewError(item.ID, err)
		}
		s.count(results)
		return results
	}

	ids := make([]string, len(items))
	docs := make([]domdoc.Document, 0, len(items))
	idx := make([]int, 0, len(items))
	for i, item := range items {
		ids[i] = strings.TrimSpace(item.ID)
		if ids[i] == "" {
			ids[i] = uuid.NewString()
		}
		doc, err := domdoc.New(ids[i], item.Content, item.Metadata)
		if err != nil {
			results[i] = dombatch.NewError(ids[i], fmt.Errorf("%w: %w", domain.ErrInvalidDocument, err))
			continue
		}
		docs = append(docs, doc)
		idx = append(idx, i)
	}

	pos := 0
	for chunk := range slices.Chunk(docs, s.opts.BatchSize) {
		at := idx[pos : pos+len(chunk)]
		pos += len(chunk)

		err := s.write(ctx, chunk)
		for j, d := range chunk {
			if err != nil {
				results[at[j]] = dombatch.NewError(d.ID(), err)
			} else {
				results[at[j]] = dombatch.NewOK(d.ID())
			}
		}
		// A cancelled caller fails the rest without further calls.
		if err != nil && isCancel(err) {
			for _, i := range idx[pos:] {
				results[i] = dombatch.NewError(ids[i], err)
			}
			break
		}
	}

	ok, failed := s.count(results)
	s.logger.Info("Ingested documents", zap.Int("ok", ok), zap.Int("failed", failed))
	return results
}

func (s *Service) write(ctx context.Context, chunk []domdoc.Document) error {
	ids := make([]string, len(chunk))
	texts := make([]string, len(chunk))
	metas := make([]map[string]string, len(chunk))
	for i, d := range chunk {
		ids[i] = d.ID()
		texts[i] = d.Content()
		metas[i] = d.Metadata()
	}

	vectors, err := s.embed.EmbedMany(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	if len(vectors) != len(chunk) {
		return fmt.Errorf("embed: got %d vectors for %d texts: %w", len(vectors), len(chunk), domain.ErrEmbeddingProviderError)
	}
	if err := s.index.Upsert(ctx, ids, vectors, texts, metas); err != nil {
		return fmt.Errorf("upsert: %w", err)
	}
	return nil
}

func (s *Service) count(results []dombatch.Result) (ok, failed int) {
	ok, failed = dombatch.Summary(results)
	metrics.IngestDocumentsTotal.WithLabelValues(string(dombatch.StatusOK)).Add(float64(ok))
	metrics.IngestDocumentsTotal.WithLabelValues(string(dombatch.StatusError)).Add(float64(failed))
	return ok, failed
}

func isCancel(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
