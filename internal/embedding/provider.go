package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrCapabilityUnavailable reports that the embedding backend cannot
// be reached. Raised at first use, not at Provider construction.
var ErrCapabilityUnavailable = errors.New("embedding capability unavailable")

// Provider hands out a lazily initialized, process-cached Embedder.
// The backend takes seconds to warm up, so initialization happens once
// on first use; concurrent first callers block on the same attempt and
// observe the same instance. Construct one Provider and pass it to
// consumers rather than sharing hidden globals.
type Provider struct {
	mu       sync.Mutex
	factory  func(ctx context.Context) (Embedder, error)
	embedder Embedder
}

// NewProvider creates a Provider around a backend factory. The factory
// runs at most once per successful initialization; it should verify
// backend reachability and return ErrCapabilityUnavailable (wrapped)
// when the backend is down.
func NewProvider(factory func(ctx context.Context) (Embedder, error)) *Provider {
	return &Provider{factory: factory}
}

// NewOllamaProvider creates a Provider backed by an Ollama embedder,
// verifying server and model availability on first use.
func NewOllamaProvider(opts ...OllamaOption) *Provider {
	return NewProvider(func(ctx context.Context) (Embedder, error) {
		e := NewOllamaEmbedder(opts...)
		if err := e.IsAvailable(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCapabilityUnavailable, err)
		}
		hasModel, err := e.HasModel(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCapabilityUnavailable, err)
		}
		if !hasModel {
			return nil, fmt.Errorf("%w: model %q not found", ErrCapabilityUnavailable, e.ModelName())
		}
		return e, nil
	})
}

// Get returns the cached Embedder, initializing it on first call.
// A failed initialization is not cached; the next call retries.
func (p *Provider) Get(ctx context.Context) (Embedder, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.embedder != nil {
		return p.embedder, nil
	}

	e, err := p.factory(ctx)
	if err != nil {
		return nil, err
	}
	p.embedder = e
	return e, nil
}

// Reset drops the cached instance so the next Get reinitializes.
// Intended for tests only.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.embedder = nil
}
