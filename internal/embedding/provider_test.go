package embedding

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

// stubEmbedder is a minimal Embedder for provider tests.
type stubEmbedder struct {
	name string
}

func (s *stubEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	return make([][]float32, len(texts)), nil
}

func (s *stubEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return []float32{1}, nil
}

func (s *stubEmbedder) ModelName() string { return s.name }
func (s *stubEmbedder) Dimensions() int   { return 1 }

func TestProvider_InitializesOnce(t *testing.T) {
	var calls atomic.Int32
	p := NewProvider(func(ctx context.Context) (Embedder, error) {
		calls.Add(1)
		return &stubEmbedder{name: "stub"}, nil
	})

	e1, err := p.Get(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	e2, err := p.Get(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if e1 != e2 {
		t.Error("Get returned different instances")
	}
	if calls.Load() != 1 {
		t.Errorf("factory called %d times, want 1", calls.Load())
	}
}

func TestProvider_ConcurrentFirstUse(t *testing.T) {
	var calls atomic.Int32
	p := NewProvider(func(ctx context.Context) (Embedder, error) {
		calls.Add(1)
		return &stubEmbedder{name: "stub"}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.Get(context.Background()); err != nil {
				t.Errorf("Get failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("factory called %d times under concurrent first use, want 1", calls.Load())
	}
}

func TestProvider_Reset(t *testing.T) {
	var calls atomic.Int32
	p := NewProvider(func(ctx context.Context) (Embedder, error) {
		calls.Add(1)
		return &stubEmbedder{name: "stub"}, nil
	})

	if _, err := p.Get(context.Background()); err != nil {
		t.Fatal(err)
	}
	p.Reset()
	if _, err := p.Get(context.Background()); err != nil {
		t.Fatal(err)
	}

	if calls.Load() != 2 {
		t.Errorf("factory called %d times after Reset, want 2", calls.Load())
	}
}

func TestProvider_FailureNotCached(t *testing.T) {
	var calls atomic.Int32
	p := NewProvider(func(ctx context.Context) (Embedder, error) {
		if calls.Add(1) == 1 {
			return nil, ErrCapabilityUnavailable
		}
		return &stubEmbedder{name: "stub"}, nil
	})

	_, err := p.Get(context.Background())
	if !errors.Is(err, ErrCapabilityUnavailable) {
		t.Fatalf("expected ErrCapabilityUnavailable, got %v", err)
	}

	e, err := p.Get(context.Background())
	if err != nil {
		t.Fatalf("retry after failure should succeed: %v", err)
	}
	if e == nil {
		t.Error("expected embedder after retry")
	}
}
