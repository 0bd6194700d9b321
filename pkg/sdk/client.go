package raggate

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/raggate/internal/config"
	"github.com/kailas-cloud/raggate/internal/domain"
	dombatch "github.com/kailas-cloud/raggate/internal/domain/batch"
	domresp "github.com/kailas-cloud/raggate/internal/domain/response"
	"github.com/kailas-cloud/raggate/internal/domain/search/filter"
	"github.com/kailas-cloud/raggate/internal/provider"
	"github.com/kailas-cloud/raggate/internal/usecase/generation"
	"github.com/kailas-cloud/raggate/internal/usecase/guardrail"
	healthuc "github.com/kailas-cloud/raggate/internal/usecase/health"
	"github.com/kailas-cloud/raggate/internal/usecase/ingest"
	"github.com/kailas-cloud/raggate/internal/usecase/pipeline"
	"github.com/kailas-cloud/raggate/internal/usecase/response"
	"github.com/kailas-cloud/raggate/internal/usecase/retrieval"
)

type queryService interface {
	Query(ctx context.Context, question string, opts ...pipeline.Option) (domresp.Response, error)
}

type ingestService interface {
	Ingest(ctx context.Context, items []ingest.Item) []dombatch.Result
}

type healthService interface {
	Check(ctx context.Context) healthuc.Report
}

// Client answers questions over an indexed corpus in-process.
type Client struct {
	queries queryService
	ingest  ingestService
	health  healthService

	obs     *observer
	closeFn func()
}

// New builds the providers named in the configuration and wires the pipeline.
// The generation backend is built on the first answered question.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cc := &clientConfig{}
	for _, o := range opts {
		o.apply(cc)
	}

	cfg, err := resolveConfig(cc)
	if err != nil {
		return nil, err
	}

	logger := cc.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	obs, err := newObserver(logger, cc.metricsReg)
	if err != nil {
		return nil, err
	}

	registry := provider.Builtin(cfg, logger)

	index, err := registry.VectorIndex(ctx, cfg.Providers.VectorIndex)
	if err != nil {
		registry.Close()
		return nil, fmt.Errorf("raggate: vector index: %w", err)
	}
	embedder, err := registry.Embedding(ctx, cfg.Providers.Embedding)
	if err != nil {
		registry.Close()
		return nil, fmt.Errorf("raggate: embedding: %w", err)
	}

	engine := guardrail.NewEngine(guardrail.Config{
		InputValidation:    config.On(cfg.Guardrails.InputValidation),
		InjectionDetection: config.On(cfg.Guardrails.InjectionDetection),
		OutputValidation:   config.On(cfg.Guardrails.OutputValidation),
		StrictMode:         config.On(cfg.Guardrails.StrictMode),
		Logging:            config.On(cfg.Guardrails.Logging),
		MinLength:          cfg.Query.MinLength,
		MaxLength:          cfg.Query.MaxLength,
		LeakMarkers:        generation.LeakMarkers,
	}, logger)

	generatorName := cfg.Providers.Generation
	answers := generation.New(func(ctx context.Context) (domain.Generator, error) {
		return registry.Generator(ctx, generatorName)
	}, logger)

	queries := pipeline.New(pipeline.Deps{
		Guard:              engine,
		Bounds:             engine.InputBounds(),
		Retriever:          retrieval.New(embedder, index, cfg.Retrieval.DefaultK, logger),
		Generator:          answers,
		Formatter:          response.Formatter{},
		InputValidation:    engine.Config().InputValidation,
		Generation:         registry,
		GenerationProvider: generatorName,
		GenerationModel:    provider.GenerationModel(cfg, generatorName),
		Logger:             logger,
	})

	var pinger healthuc.Pinger
	if p, ok := index.(healthuc.Pinger); ok {
		pinger = p
	}
	var embChecker healthuc.EmbeddingChecker
	if c, ok := embedder.(healthuc.EmbeddingChecker); ok {
		embChecker = c
	}

	return &Client{
		queries: queries,
		ingest: ingest.New(embedder, index, ingest.Options{
			BatchSize: cfg.Ingest.BatchSize,
			MaxItems:  cfg.Ingest.MaxItems,
		}, logger),
		health:  healthuc.New(pinger, embChecker, queries),
		obs:     obs,
		closeFn: registry.Close,
	}, nil
}

func resolveConfig(cc *clientConfig) (config.Config, error) {
	if cc.cfg != nil {
		cfg := *cc.cfg
		cfg.ApplyDefaults()
		if err := cfg.Validate(); err != nil {
			return config.Config{}, fmt.Errorf("raggate: invalid config: %w", err)
		}
		return cfg, nil
	}
	env := cc.env
	if env == "" {
		env = config.GetEnv()
	}
	cfg, err := config.Load(env)
	if err != nil {
		return config.Config{}, fmt.Errorf("raggate: %w", err)
	}
	return cfg, nil
}

// Close releases provider connections.
func (c *Client) Close() {
	if c.closeFn != nil {
		c.closeFn()
	}
}

// Query answers question from the indexed corpus.
func (c *Client) Query(ctx context.Context, question string, opts ...QueryOption) (Answer, error) {
	start := time.Now()

	qc := queryConfig{}
	for _, o := range opts {
		o(&qc)
	}
	if qc.k < 0 || qc.k > retrieval.MaxK {
		err := &domain.InvalidQueryError{Reason: fmt.Sprintf("k must be between %d and %d, got %d", retrieval.MinK, retrieval.MaxK, qc.k)}
		c.obs.observe("query", start, err)
		return Answer{}, err
	}

	popts := []pipeline.Option{pipeline.WithK(qc.k)}
	if len(qc.filter) > 0 {
		f, err := filter.FromMap(qc.filter)
		if err != nil {
			err = &domain.InvalidQueryError{Reason: err.Error()}
			c.obs.observe("query", start, err)
			return Answer{}, err
		}
		popts = append(popts, pipeline.WithFilter(f))
	}

	resp, err := c.queries.Query(ctx, question, popts...)
	c.obs.observe("query", start, err)
	if err != nil {
		return Answer{}, err
	}
	return answerFromDomain(resp), nil
}

// Ingest embeds and indexes docs. Results keep the input order.
func (c *Client) Ingest(ctx context.Context, docs []Document) []IngestResult {
	start := time.Now()

	items := make([]ingest.Item, len(docs))
	for i, d := range docs {
		items[i] = ingest.Item{ID: d.ID, Content: d.Content, Metadata: d.Metadata}
	}
	results := c.ingest.Ingest(ctx, items)

	out := make([]IngestResult, len(results))
	var firstErr error
	for i, r := range results {
		out[i] = IngestResult{ID: r.ID(), Err: r.Err()}
		if firstErr == nil && r.Err() != nil {
			firstErr = r.Err()
		}
	}
	c.obs.observe("ingest", start, firstErr)
	return out
}

// Health checks the vector store and the embedding provider.
func (c *Client) Health(ctx context.Context) HealthStatus {
	start := time.Now()
	report := c.health.Check(ctx)

	checks := make(map[string]string, len(report.Checks))
	for name, r := range report.Checks {
		checks[name] = string(r)
	}
	var err error
	if report.Status == healthuc.Unhealthy {
		err = errUnhealthy
	}
	c.obs.observe("health", start, err)

	return HealthStatus{
		Status:          string(report.Status),
		Checks:          checks,
		GenerationReady: report.Generation.Initialized,
		Provider:        report.Generation.Provider,
		Model:           report.Generation.Model,
	}
}

func answerFromDomain(r domresp.Response) Answer {
	sources := make([]Source, len(r.Sources()))
	for i, s := range r.Sources() {
		sources[i] = Source{Filename: s.Filename(), Excerpt: s.Excerpt(), Metadata: s.Metadata()}
	}
	return Answer{
		Text:           r.Answer().Text(),
		HasAnswer:      r.HasAnswer(),
		Query:          r.Query(),
		RetrievalCount: r.RetrievalCount(),
		Sources:        sources,
	}
}
