package metrics

import "github.com/prometheus/client_golang/prometheus"

// Query pipeline Prometheus metrics.
var (
	// PipelineQueriesTotal counts finished queries by outcome
	// ("answered", "no_answer", "no_documents", "invalid_query", "input_blocked",
	// "output_blocked", "runtime_failure").
	PipelineQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "raggate",
			Name:      "pipeline_queries_total",
			Help:      "Total number of pipeline queries by outcome",
		},
		[]string{"outcome"},
	)

	PipelineStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "raggate",
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
		[]string{"stage"},
	)

	PipelineRetrievedDocuments = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "raggate",
			Name:      "pipeline_retrieved_documents",
			Help:      "Documents retrieved per query",
			Buckets:   []float64{0, 1, 2, 4, 8, 12, 16, 20},
		},
	)

	GuardrailViolationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "raggate",
			Name:      "guardrail_violations_total",
			Help:      "Guardrail verdicts that were not safe",
		},
		[]string{"direction", "threat_level"},
	)

	IngestDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "raggate",
			Name:      "ingest_documents_total",
			Help:      "Documents handled by ingestion",
		},
		[]string{"status"},
	)
)
