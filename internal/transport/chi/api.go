package chi

// ErrorCode is the machine-readable error kind in error responses.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest         ErrorCode = "bad_request"
	CodeUnauthorized       ErrorCode = "unauthorized"
	CodeInvalidQuery       ErrorCode = "invalid_query"
	CodeInputBlocked       ErrorCode = "input_blocked"
	CodeOutputBlocked      ErrorCode = "output_blocked"
	CodeRetrievalFailed    ErrorCode = "retrieval_failed"
	CodeGenerationFailed   ErrorCode = "generation_failed"
	CodeServiceUnavailable ErrorCode = "service_unavailable"
	CodeConfigurationError ErrorCode = "configuration_error"
	CodeValidationFailed   ErrorCode = "validation_failed"
	CodeEmbeddingProvider  ErrorCode = "embedding_provider_error"
	CodeInternalError      ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	// Reasons and ThreatLevel are set for guardrail rejections.
	Reasons     []string `json:"reasons,omitempty"`
	ThreatLevel string   `json:"threat_level,omitempty"`
}

// QueryRequest is the body of POST /v1/query.
type QueryRequest struct {
	Question string            `json:"question"`
	K        *int              `json:"k,omitempty"`
	Filter   map[string]string `json:"filter,omitempty"`
}

// SourceItem is one source summary in a query response.
type SourceItem struct {
	Filename string            `json:"filename"`
	Excerpt  string            `json:"excerpt"`
	Metadata map[string]string `json:"metadata"`
}

// QueryResponse is the body of a successful POST /v1/query.
type QueryResponse struct {
	Answer         string       `json:"answer"`
	HasAnswer      bool         `json:"has_answer"`
	Query          string       `json:"query"`
	RetrievalCount int          `json:"retrieval_count"`
	Sources        []SourceItem `json:"sources"`
}

// DocumentItem is one passage in POST /v1/documents.
type DocumentItem struct {
	ID       string            `json:"id,omitempty"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// IngestRequest is the body of POST /v1/documents.
type IngestRequest struct {
	Documents []DocumentItem `json:"documents"`
}

// IngestResultItem is the per-item outcome of ingestion.
type IngestResultItem struct {
	ID     string         `json:"id"`
	Status string         `json:"status"`
	Error  *ErrorResponse `json:"error,omitempty"`
}

// IngestResponse is the body of POST /v1/documents.
type IngestResponse struct {
	Items     []IngestResultItem `json:"items"`
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
}

// GenerationHealth mirrors the pipeline's generation readiness.
type GenerationHealth struct {
	Initialized bool   `json:"initialized"`
	Provider    string `json:"provider"`
	Model       string `json:"model"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status     string            `json:"status"`
	Checks     map[string]string `json:"checks"`
	Generation GenerationHealth  `json:"generation"`
	Version    string            `json:"version"`
}
