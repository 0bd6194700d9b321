package health

import (
	"context"

	"github.com/kailas-cloud/raggate/internal/usecase/pipeline"
)

// Pinger checks vector store availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// GenerationReporter reports generation readiness without constructing anything.
type GenerationReporter interface {
	Health() pipeline.Health
}
