// Package metrics declares the Prometheus collectors raggate exports on /metrics.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var registerOnce sync.Once

// Register adds every raggate collector to the default registry.
// Call it from main; later calls are no-ops.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			EmbeddingRequestsTotal,
			EmbeddingRequestDuration,
			EmbeddingTokensTotal,
			EmbeddingErrorsTotal,
			EmbeddingCacheTotal,

			GenerationRequestsTotal,
			GenerationRequestDuration,
			GenerationTokensTotal,

			PipelineQueriesTotal,
			PipelineStageDuration,
			PipelineRetrievedDocuments,
			GuardrailViolationsTotal,
			IngestDocumentsTotal,

			httpRequestDuration,
			httpRequestsTotal,
			httpInFlight,
		)
	})
}
