// Package provider resolves named backends to capability clients and memoizes them.
package provider

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/raggate/internal/domain"
)

// Factory builds one provider client. It is called at most once per successful
// (kind, name) pair; a failed call is retried by the next lookup.
type Factory func(ctx context.Context, r *Registry) (any, error)

// Registry maps (kind, name) to a Factory and caches the built clients.
// Register every factory before the first lookup.
type Registry struct {
	factories map[domain.ProviderKind]map[string]Factory
	built     sync.Map // key -> any
	group     singleflight.Group

	mu      sync.Mutex
	closers []func()

	logger *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		factories: make(map[domain.ProviderKind]map[string]Factory),
		logger:    logger,
	}
}

// Register binds a factory to (kind, name), replacing any previous binding.
func (r *Registry) Register(kind domain.ProviderKind, name string, f Factory) {
	if r.factories[kind] == nil {
		r.factories[kind] = make(map[string]Factory)
	}
	r.factories[kind][name] = f
}

// Names returns the registered names for kind.
func (r *Registry) Names(kind domain.ProviderKind) []string {
	out := make([]string, 0, len(r.factories[kind]))
	for name := range r.factories[kind] {
		out = append(out, name)
	}
	return out
}

// Constructed reports whether (kind, name) has been built, without building it.
func (r *Registry) Constructed(kind domain.ProviderKind, name string) bool {
	_, ok := r.built.Load(key(kind, name))
	return ok
}

// Resolve returns the client for (kind, name), building it on first use.
// Concurrent first callers share one construction. Construction ignores the
// caller's cancellation so one cancelled request cannot fail the other waiters.
func (r *Registry) Resolve(ctx context.Context, kind domain.ProviderKind, name string) (any, error) {
	k := key(kind, name)
	if v, ok := r.built.Load(k); ok {
		return v, nil
	}

	f, ok := r.factories[kind][name]
	if !ok {
		return nil, &domain.ConfigurationError{Kind: kind, Name: name}
	}

	v, err, _ := r.group.Do(k, func() (any, error) {
		if v, ok := r.built.Load(k); ok {
			return v, nil
		}
		r.logger.Info("Constructing provider", zap.String("kind", string(kind)), zap.String("name", name))
		v, err := f(context.WithoutCancel(ctx), r)
		if err != nil {
			return nil, err
		}
		r.built.Store(k, v)
		return v, nil
	})
	if err != nil {
		return nil, fmt.Errorf("construct %s provider %q: %w", kind, name, err)
	}
	return v, nil
}

// Embedding resolves an embedding client.
func (r *Registry) Embedding(ctx context.Context, name string) (domain.EmbeddingClient, error) {
	return resolveAs[domain.EmbeddingClient](ctx, r, domain.KindEmbedding, name)
}

// Generator resolves a generation client.
func (r *Registry) Generator(ctx context.Context, name string) (domain.Generator, error) {
	return resolveAs[domain.Generator](ctx, r, domain.KindGeneration, name)
}

// VectorIndex resolves a vector-index client.
func (r *Registry) VectorIndex(ctx context.Context, name string) (domain.VectorIndex, error) {
	return resolveAs[domain.VectorIndex](ctx, r, domain.KindVectorIndex, name)
}

// OnClose registers fn to run on Close, in reverse registration order.
func (r *Registry) OnClose(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closers = append(r.closers, fn)
}

// Close releases every resource registered through OnClose.
func (r *Registry) Close() {
	r.mu.Lock()
	closers := r.closers
	r.closers = nil
	r.mu.Unlock()

	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
}

func resolveAs[T any](ctx context.Context, r *Registry, kind domain.ProviderKind, name string) (T, error) {
	var zero T
	v, err := r.Resolve(ctx, kind, name)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%s provider %q built %T: %w", kind, name, v, domain.ErrConfiguration)
	}
	return t, nil
}

func key(kind domain.ProviderKind, name string) string {
	return string(kind) + "/" + name
}
