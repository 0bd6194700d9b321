package pipeline

import (
	"context"

	"github.com/kailas-cloud/raggate/internal/domain"
	"github.com/kailas-cloud/raggate/internal/domain/search/filter"
	"github.com/kailas-cloud/raggate/internal/usecase/guardrail"
)

// Guard gates both directions of the exchange.
type Guard interface {
	CheckInput(ctx context.Context, text string) (guardrail.Verdict, error)
	CheckOutput(ctx context.Context, text string) (guardrail.Verdict, error)
}

// LengthChecker enforces question bounds when input validation is off.
type LengthChecker interface {
	CheckLength(trimmed string) (reason string, ok bool)
}

// Retriever returns documents for a sanitized question.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int, f filter.Expression) ([]domain.Document, error)
}

// AnswerGenerator answers a question from a context block.
type AnswerGenerator interface {
	Generate(ctx context.Context, question, contextBlock string) (string, error)
}

// ConstructionState reports whether a provider was built, without building it.
type ConstructionState interface {
	Constructed(kind domain.ProviderKind, name string) bool
}
