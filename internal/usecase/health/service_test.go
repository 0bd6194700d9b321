package health

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/raggate/internal/usecase/pipeline"
)

// --- Mocks ---

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

type mockEmbeddingChecker struct {
	err error
}

func (m *mockEmbeddingChecker) HealthCheck(_ context.Context) error { return m.err }

type mockGeneration struct {
	h pipeline.Health
}

func (m mockGeneration) Health() pipeline.Health { return m.h }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	gen := mockGeneration{h: pipeline.Health{Provider: "openai", Model: "gpt-4o-mini"}}
	r := New(&mockPinger{}, &mockEmbeddingChecker{}, gen).Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks[CheckVectorStore] != CheckOK || r.Checks[CheckEmbedding] != CheckOK {
		t.Errorf("checks = %v", r.Checks)
	}
	if r.Generation.Initialized || r.Generation.Provider != "openai" {
		t.Errorf("generation = %+v", r.Generation)
	}
	if r.Err != nil {
		t.Errorf("Err = %v, want nil", r.Err)
	}
}

func TestCheck_StoreError(t *testing.T) {
	r := New(&mockPinger{err: errors.New("conn refused")}, &mockEmbeddingChecker{}, nil).Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[CheckVectorStore] != CheckError {
		t.Errorf("expected vector_store %q, got %q", CheckError, r.Checks[CheckVectorStore])
	}
	if r.Checks[CheckEmbedding] != CheckOK {
		t.Errorf("expected embedding %q, got %q", CheckOK, r.Checks[CheckEmbedding])
	}
	if r.Err == nil || !strings.HasPrefix(r.Err.Error(), CheckVectorStore+": conn refused") {
		t.Errorf("Err = %v, want the failing check named", r.Err)
	}
}

func TestCheck_EmbeddingError(t *testing.T) {
	r := New(&mockPinger{}, &mockEmbeddingChecker{err: errors.New("timeout")}, nil).Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[CheckEmbedding] != CheckError {
		t.Errorf("expected embedding %q, got %q", CheckError, r.Checks[CheckEmbedding])
	}
}

func TestCheck_AllFailing(t *testing.T) {
	r := New(&mockPinger{err: errors.New("down")}, &mockEmbeddingChecker{err: errors.New("down")}, nil).Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
}

func TestCheck_NoComponents(t *testing.T) {
	r := New(nil, nil, nil).Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if len(r.Checks) != 0 {
		t.Errorf("expected no checks, got %v", r.Checks)
	}
}
