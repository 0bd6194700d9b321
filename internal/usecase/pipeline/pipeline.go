// Package pipeline runs one question through the input gate, retrieval,
// generation and the output gate.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/raggate/internal/domain"
	"github.com/kailas-cloud/raggate/internal/domain/query"
	domresp "github.com/kailas-cloud/raggate/internal/domain/response"
	"github.com/kailas-cloud/raggate/internal/domain/search/filter"
	"github.com/kailas-cloud/raggate/internal/logger"
	"github.com/kailas-cloud/raggate/internal/metrics"
	"github.com/kailas-cloud/raggate/internal/usecase/generation"
	"github.com/kailas-cloud/raggate/internal/usecase/response"
)

// Outcome labels for the queries counter.
const (
	OutcomeAnswered       = "answered"
	OutcomeNoAnswer       = "no_answer"
	OutcomeNoDocuments    = "no_documents"
	OutcomeInvalidQuery   = "invalid_query"
	OutcomeInputBlocked   = "input_blocked"
	OutcomeOutputBlocked  = "output_blocked"
	OutcomeRuntimeFailure = "runtime_failure"
)

// Stage names, used in RuntimeFailure and the stage histogram.
const (
	StageInputGuard  = "input_guard"
	StageRetrieve    = "retrieve"
	StageGenerate    = "generate"
	StageOutputGuard = "output_guard"
)

// Deps are the handles a pipeline is built from. They are not changed after New.
type Deps struct {
	Guard     Guard
	Bounds    LengthChecker
	Retriever Retriever
	Generator AnswerGenerator
	Formatter response.Formatter

	// InputValidation mirrors the guardrail toggle; when off, Bounds still applies.
	InputValidation bool

	// Generation reports lazy construction of the generation backend.
	Generation         ConstructionState
	GenerationProvider string
	GenerationModel    string

	Logger *zap.Logger
}

// Health is the generation-side readiness of the pipeline.
type Health struct {
	Initialized bool
	Provider    string
	Model       string
}

// Pipeline is safe for concurrent use. It holds no per-call state.
type Pipeline struct {
	deps Deps
}

// New creates a pipeline.
func New(deps Deps) *Pipeline {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Pipeline{deps: deps}
}

type options struct {
	k      int
	filter filter.Expression
}

// Option tunes a single Query call.
type Option func(*options)

// WithK sets the number of documents to retrieve. Zero keeps the default.
func WithK(k int) Option { return func(o *options) { o.k = k } }

// WithFilter narrows retrieval by metadata.
func WithFilter(f filter.Expression) Option { return func(o *options) { o.filter = f } }

// Query answers question. Errors are one of *domain.InvalidQueryError,
// *domain.GuardrailViolationError or *domain.RuntimeFailure.
func (p *Pipeline) Query(ctx context.Context, question string, opts ...Option) (domresp.Response, error) {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	log := p.deps.Logger

	q, err := p.admit(ctx, question)
	if err != nil {
		p.finish(outcomeOf(err))
		return domresp.Response{}, err
	}

	start := time.Now()
	docs, err := p.deps.Retriever.Retrieve(ctx, q.Sanitized(), o.k, o.filter)
	observe(StageRetrieve, start)
	if err != nil {
		p.finish(OutcomeRuntimeFailure)
		log.Error("Retrieval failed", zap.Error(err))
		return domresp.Response{}, &domain.RuntimeFailure{Stage: StageRetrieve, Err: err}
	}
	metrics.PipelineRetrievedDocuments.Observe(float64(len(docs)))

	if len(docs) == 0 {
		p.finish(OutcomeNoDocuments)
		log.Info("No documents retrieved", logger.Preview(q.Sanitized()))
		return p.deps.Formatter.NoDocuments(q.Sanitized()), nil
	}

	start = time.Now()
	answer, err := p.deps.Generator.Generate(ctx, q.Sanitized(), generation.FormatContext(docs))
	observe(StageGenerate, start)
	if err != nil {
		p.finish(OutcomeRuntimeFailure)
		log.Error("Generation failed", zap.Error(err))
		return domresp.Response{}, &domain.RuntimeFailure{Stage: StageGenerate, Err: err}
	}

	start = time.Now()
	verdict, err := p.deps.Guard.CheckOutput(ctx, answer)
	observe(StageOutputGuard, start)
	if err == nil && !verdict.Safe {
		err = &domain.GuardrailViolationError{
			Direction: domain.DirectionOutput,
			Reasons:   verdict.Reasons,
			Threat:    verdict.Threat,
		}
	}
	if err != nil {
		p.finish(OutcomeOutputBlocked)
		return domresp.Response{}, err
	}

	resp := p.deps.Formatter.Format(answer, docs, q.Sanitized())
	if resp.HasAnswer() {
		p.finish(OutcomeAnswered)
	} else {
		p.finish(OutcomeNoAnswer)
	}
	log.Debug("Query answered",
		zap.String("input_threat", q.Threat().String()),
		zap.Int("retrieved", resp.RetrievalCount()),
		zap.Bool("has_answer", resp.HasAnswer()),
	)
	return resp, nil
}

// admit runs the blank check, length bounds and the input gate.
func (p *Pipeline) admit(ctx context.Context, question string) (query.Query, error) {
	trimmed := strings.TrimSpace(question)
	if trimmed == "" {
		return query.Query{}, &domain.InvalidQueryError{Reason: "question must not be blank"}
	}
	if !p.deps.InputValidation && p.deps.Bounds != nil {
		if reason, ok := p.deps.Bounds.CheckLength(trimmed); !ok {
			return query.Query{}, &domain.InvalidQueryError{Reason: reason}
		}
	}

	start := time.Now()
	verdict, err := p.deps.Guard.CheckInput(ctx, trimmed)
	observe(StageInputGuard, start)
	if err != nil {
		return query.Query{}, err
	}
	if !verdict.Safe {
		return query.Query{}, &domain.GuardrailViolationError{
			Direction: domain.DirectionInput,
			Reasons:   verdict.Reasons,
			Threat:    verdict.Threat,
		}
	}

	q, err := query.NewValid(question, verdict.Sanitized, verdict.Threat)
	if err != nil {
		return query.Query{}, &domain.InvalidQueryError{Reason: err.Error()}
	}
	return q, nil
}

// Health reports whether the generation backend has been built yet. It never builds it.
func (p *Pipeline) Health() Health {
	h := Health{Provider: p.deps.GenerationProvider, Model: p.deps.GenerationModel}
	if p.deps.Generation != nil {
		h.Initialized = p.deps.Generation.Constructed(domain.KindGeneration, p.deps.GenerationProvider)
	}
	return h
}

func (p *Pipeline) finish(outcome string) {
	metrics.PipelineQueriesTotal.WithLabelValues(outcome).Inc()
}

func observe(stage string, start time.Time) {
	metrics.PipelineStageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidQuery):
		return OutcomeInvalidQuery
	case errors.Is(err, domain.ErrGuardrailViolation):
		return OutcomeInputBlocked
	}
	return OutcomeRuntimeFailure
}
