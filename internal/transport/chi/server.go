// Package chi is the HTTP boundary: JSON handlers, error mapping and middleware.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/raggate/internal/domain"
	dombatch "github.com/kailas-cloud/raggate/internal/domain/batch"
	domresp "github.com/kailas-cloud/raggate/internal/domain/response"
	"github.com/kailas-cloud/raggate/internal/domain/search/filter"
	"github.com/kailas-cloud/raggate/internal/logger"
	"github.com/kailas-cloud/raggate/internal/usecase/health"
	"github.com/kailas-cloud/raggate/internal/usecase/ingest"
	"github.com/kailas-cloud/raggate/internal/usecase/pipeline"
	"github.com/kailas-cloud/raggate/internal/usecase/retrieval"
	"github.com/kailas-cloud/raggate/internal/version"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 8 << 20

// QueryService answers questions.
type QueryService interface {
	Query(ctx context.Context, question string, opts ...pipeline.Option) (domresp.Response, error)
}

// Ingester writes passages into the index.
type Ingester interface {
	Ingest(ctx context.Context, items []ingest.Item) []dombatch.Result
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) health.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server holds the HTTP handlers.
type Server struct {
	queries       QueryService
	ingest        Ingester
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. ingest may be nil, which disables POST /v1/documents.
func NewServer(queries QueryService, ing Ingester, hc HealthChecker, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{queries: queries, ingest: ing, health: hc, logger: log}
	// Order matters: a RuntimeFailure also matches the kind it wraps.
	s.errorHandlers = []errorHandler{
		invalidQueryHandler,
		guardrailHandler,
		sentinelHandler(domain.ErrConfiguration, http.StatusInternalServerError, CodeConfigurationError),
		sentinelHandler(domain.ErrGeneration, http.StatusBadGateway, CodeGenerationFailed),
		sentinelHandler(domain.ErrRetrieval, http.StatusServiceUnavailable, CodeRetrievalFailed),
		sentinelHandler(domain.ErrRuntime, http.StatusServiceUnavailable, CodeServiceUnavailable),
	}
	return s
}

// Query handles POST /v1/query.
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	var opts []pipeline.Option
	if req.K != nil {
		if *req.K < retrieval.MinK || *req.K > retrieval.MaxK {
			writeError(w, http.StatusBadRequest, CodeInvalidQuery,
				fmt.Sprintf("k must be between %d and %d", retrieval.MinK, retrieval.MaxK))
			return
		}
		opts = append(opts, pipeline.WithK(*req.K))
	}
	if len(req.Filter) > 0 {
		f, err := filter.FromMap(req.Filter)
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
			return
		}
		opts = append(opts, pipeline.WithFilter(f))
	}

	ctx := logger.With(r.Context(), zap.Int("filters", len(req.Filter)), logger.Preview(req.Question))
	resp, err := s.queries.Query(ctx, req.Question, opts...)
	if err != nil {
		s.handleDomainError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, responseToAPI(resp))
}

// IngestDocuments handles POST /v1/documents.
func (s *Server) IngestDocuments(w http.ResponseWriter, r *http.Request) {
	if s.ingest == nil {
		writeError(w, http.StatusNotImplemented, CodeBadRequest, "ingestion is disabled")
		return
	}

	var req IngestRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Documents) == 0 {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "documents must not be empty")
		return
	}

	items := make([]ingest.Item, len(req.Documents))
	for i, d := range req.Documents {
		items[i] = ingest.Item{ID: d.ID, Content: d.Content, Metadata: d.Metadata}
	}

	results := s.ingest.Ingest(r.Context(), items)

	resp := IngestResponse{Items: make([]IngestResultItem, len(results))}
	for i, res := range results {
		resp.Items[i] = batchResultToAPI(res)
	}
	resp.Succeeded, resp.Failed = dombatch.Summary(results)

	status := http.StatusOK
	if resp.Failed > 0 {
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, resp)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())
	if report.Err != nil {
		logger.FromContext(r.Context()).Warn("Health check failed",
			zap.String("status", string(report.Status)),
			zap.Error(report.Err),
		)
	}

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != health.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
		Generation: GenerationHealth{
			Initialized: report.Generation.Initialized,
			Provider:    report.Generation.Provider,
			Model:       report.Generation.Model,
		},
		Version: version.String(),
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrConfiguration,
		domain.ErrGeneration,
		domain.ErrRetrieval,
		domain.ErrRuntime,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

// invalidQueryHandler echoes the rejection reason, which only describes caller input.
func invalidQueryHandler(w http.ResponseWriter, err error) bool {
	var iq *domain.InvalidQueryError
	if !errors.As(err, &iq) {
		return false
	}
	writeError(w, http.StatusBadRequest, CodeInvalidQuery, iq.Error())
	return true
}

// guardrailHandler returns 422 with the reasons and threat level.
func guardrailHandler(w http.ResponseWriter, err error) bool {
	var gv *domain.GuardrailViolationError
	if !errors.As(err, &gv) {
		return false
	}
	code := CodeInputBlocked
	if gv.Direction == domain.DirectionOutput {
		code = CodeOutputBlocked
	}
	msg := domain.ErrGuardrailViolation.Error()
	if gv.Direction == domain.DirectionOutput {
		msg = domain.ErrOutputBlocked.Error() + ": " + msg
	}
	writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
		Code:        code,
		Message:     msg,
		Reasons:     gv.Reasons,
		ThreatLevel: gv.Threat.String(),
	})
	return true
}

func (s *Server) handleDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	log := logger.FromContext(ctx)
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

func responseToAPI(r domresp.Response) QueryResponse {
	sources := make([]SourceItem, len(r.Sources()))
	for i, src := range r.Sources() {
		sources[i] = SourceItem{Filename: src.Filename(), Excerpt: src.Excerpt(), Metadata: src.Metadata()}
	}
	return QueryResponse{
		Answer:         r.Answer().Text(),
		HasAnswer:      r.HasAnswer(),
		Query:          r.Query(),
		RetrievalCount: r.RetrievalCount(),
		Sources:        sources,
	}
}

func batchResultToAPI(r dombatch.Result) IngestResultItem {
	item := IngestResultItem{ID: r.ID(), Status: string(r.Status())}
	if r.Err() != nil {
		item.Error = batchError(r.Err())
	}
	return item
}

func batchError(err error) *ErrorResponse {
	switch {
	case errors.Is(err, domain.ErrInvalidDocument):
		return &ErrorResponse{Code: CodeValidationFailed, Message: err.Error()}
	case errors.Is(err, domain.ErrEmbeddingProviderError):
		return &ErrorResponse{Code: CodeEmbeddingProvider, Message: domain.ErrEmbeddingProviderError.Error()}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &ErrorResponse{Code: CodeServiceUnavailable, Message: "request cancelled"}
	default:
		return &ErrorResponse{Code: CodeInternalError, Message: safeDomainMessage(err)}
	}
}
