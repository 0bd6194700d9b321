// Package health aggregates component checks for the /health endpoint.
package health

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/raggate/internal/usecase/pipeline"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates every check failed.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Check names.
const (
	CheckVectorStore = "vector_store"
	CheckEmbedding   = "embedding"
)

// Report aggregates health check results.
type Report struct {
	Status     Status
	Checks     map[string]CheckResult
	Generation pipeline.Health
	// Err is the first failing check, nil when all passed.
	Err error
}

// Service coordinates health checks.
type Service struct {
	store      Pinger
	embedding  EmbeddingChecker
	generation GenerationReporter
}

// New creates a Service. Any argument can be nil.
func New(store Pinger, embedding EmbeddingChecker, generation GenerationReporter) *Service {
	return &Service{store: store, embedding: embedding, generation: generation}
}

// Check runs the component checks concurrently.
// Generation readiness is reported but never forces construction.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	var mu sync.Mutex
	record := func(name string, err error) error {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			checks[name] = CheckError
			return fmt.Errorf("%s: %w", name, err)
		}
		checks[name] = CheckOK
		return nil
	}

	var g errgroup.Group
	if s.store != nil {
		g.Go(func() error {
			return record(CheckVectorStore, s.store.Ping(ctx))
		})
	}
	if s.embedding != nil {
		g.Go(func() error {
			return record(CheckEmbedding, s.embedding.HealthCheck(ctx))
		})
	}
	err := g.Wait()

	r := Report{Status: aggregate(checks), Checks: checks, Err: err}
	if s.generation != nil {
		r.Generation = s.generation.Health()
	}
	return r
}

func aggregate(checks map[string]CheckResult) Status {
	failed := 0
	for _, v := range checks {
		if v == CheckError {
			failed++
		}
	}
	switch {
	case failed == 0:
		return Healthy
	case failed == len(checks):
		return Unhealthy
	}
	return Degraded
}
