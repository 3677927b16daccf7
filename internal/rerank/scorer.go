package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultScorerURL is the default reranker service endpoint
	// (text-embeddings-inference compatible).
	DefaultScorerURL = "http://localhost:8787"

	// DefaultScorerModel is the default cross-encoder model.
	DefaultScorerModel = "BAAI/bge-reranker-base"

	// DefaultScorerTimeout is the timeout for scoring requests.
	DefaultScorerTimeout = 60 * time.Second

	// scorerRateLimit caps requests per second to the scoring service.
	scorerRateLimit = 10.0

	// apiPathRerank is the scoring endpoint.
	apiPathRerank = "/rerank"
)

// Scorer scores (query, text) relevance pairs. Scores are returned in
// input order, one per text.
type Scorer interface {
	Score(ctx context.Context, query string, texts []string) ([]float32, error)
}

// HTTPScorer scores pairs against a cross-encoder service.
type HTTPScorer struct {
	baseURL string
	model   string
	client  *http.Client
	limiter *rate.Limiter
}

// ScorerOption configures an HTTPScorer.
type ScorerOption func(*HTTPScorer)

// WithScorerURL sets the scoring service base URL.
func WithScorerURL(url string) ScorerOption {
	return func(s *HTTPScorer) {
		s.baseURL = url
	}
}

// WithScorerModel sets the cross-encoder model name.
func WithScorerModel(model string) ScorerOption {
	return func(s *HTTPScorer) {
		s.model = model
	}
}

// WithScorerTimeout sets the HTTP client timeout.
func WithScorerTimeout(timeout time.Duration) ScorerOption {
	return func(s *HTTPScorer) {
		s.client.Timeout = timeout
	}
}

// NewHTTPScorer creates a rate-limited cross-encoder scoring client.
func NewHTTPScorer(opts ...ScorerOption) *HTTPScorer {
	s := &HTTPScorer{
		baseURL: DefaultScorerURL,
		model:   DefaultScorerModel,
		client:  &http.Client{Timeout: DefaultScorerTimeout},
		limiter: rate.NewLimiter(rate.Limit(scorerRateLimit), 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ModelName returns the cross-encoder model name.
func (s *HTTPScorer) ModelName() string {
	return s.model
}

// Score sends all (query, text) pairs in one request and returns the
// relevance score per text, in input order.
func (s *HTTPScorer) Score(ctx context.Context, query string, texts []string) ([]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(rerankRequest{Query: query, Texts: texts})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+apiPathRerank, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("reranker returned status %d: %s", resp.StatusCode, respBody)
	}

	var ranked []rerankResult
	if err := json.NewDecoder(resp.Body).Decode(&ranked); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	scores := make([]float32, len(texts))
	for _, r := range ranked {
		if r.Index < 0 || r.Index >= len(texts) {
			return nil, fmt.Errorf("reranker returned out-of-range index %d", r.Index)
		}
		scores[r.Index] = r.Score
	}
	return scores, nil
}

// IsAvailable checks if the scoring service is reachable.
func (s *HTTPScorer) IsAvailable(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("reranker is not running: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("reranker returned status %d", resp.StatusCode)
	}
	return nil
}

// rerankRequest is the request body for the rerank API.
type rerankRequest struct {
	Query string   `json:"query"`
	Texts []string `json:"texts"`
}

// rerankResult is one scored pair in the rerank response.
type rerankResult struct {
	Index int     `json:"index"`
	Score float32 `json:"score"`
}
