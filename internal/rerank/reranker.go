package rerank

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrCapabilityUnavailable reports that the scoring backend cannot be
// reached. Raised at first use, not at Reranker construction.
var ErrCapabilityUnavailable = errors.New("reranking capability unavailable")

// Reranker refines a candidate set with a cross-encoder scorer. The
// scorer is expensive to initialize, so it is created once on first
// real use; concurrent first callers block on the same attempt.
type Reranker struct {
	mu      sync.Mutex
	factory func(ctx context.Context) (Scorer, error)
	scorer  Scorer
}

// New creates a Reranker around a scorer factory. The factory runs at
// most once per successful initialization.
func New(factory func(ctx context.Context) (Scorer, error)) *Reranker {
	return &Reranker{factory: factory}
}

// NewHTTP creates a Reranker backed by an HTTP cross-encoder service,
// verifying reachability on first use.
func NewHTTP(opts ...ScorerOption) *Reranker {
	return New(func(ctx context.Context) (Scorer, error) {
		s := NewHTTPScorer(opts...)
		if err := s.IsAvailable(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCapabilityUnavailable, err)
		}
		return s, nil
	})
}

// Rerank scores one (query, text) pair per candidate, sorts the
// candidates by descending rerank score, and truncates to topK
// (topK <= 0 keeps everything). Ties keep input order. All other
// candidate fields pass through unmodified. An empty candidate list
// returns immediately without initializing the scorer.
func (r *Reranker) Rerank(ctx context.Context, query string, candidates []ScoredChunk, topK int) ([]ScoredChunk, error) {
	if len(candidates) == 0 {
		return []ScoredChunk{}, nil
	}

	scorer, err := r.get(ctx)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Text
	}

	scores, err := scorer.Score(ctx, query, texts)
	if err != nil {
		return nil, fmt.Errorf("scoring candidates: %w", err)
	}
	if len(scores) != len(candidates) {
		return nil, fmt.Errorf("expected %d scores, got %d", len(candidates), len(scores))
	}

	ranked := make([]ScoredChunk, len(candidates))
	copy(ranked, candidates)
	for i := range ranked {
		ranked[i].RerankScore = scores[i]
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RerankScore > ranked[j].RerankScore
	})

	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked, nil
}

// get returns the cached scorer, initializing it on first call.
// A failed initialization is not cached; the next call retries.
func (r *Reranker) get(ctx context.Context) (Scorer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.scorer != nil {
		return r.scorer, nil
	}

	s, err := r.factory(ctx)
	if err != nil {
		return nil, err
	}
	r.scorer = s
	return s, nil
}

// Reset drops the cached scorer so the next use reinitializes.
// Intended for tests only.
func (r *Reranker) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scorer = nil
}
