package planlink

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

// Generator produces free-form text from a prompt. Used for
// model-assisted theme extraction.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Ollama generation defaults.
const (
	DefaultGenerateURL   = "http://localhost:11434"
	DefaultGenerateModel = "qwen2.5:7b"
	defaultTemperature   = 0.3
	defaultMaxTokens     = 500
)

// OllamaGenerator calls a local Ollama server's generate endpoint.
type OllamaGenerator struct {
	baseURL string
	model   string
	client  *http.Client
	limiter *rate.Limiter
}

// GeneratorOption configures an OllamaGenerator.
type GeneratorOption func(*OllamaGenerator)

// WithGenerateURL overrides the Ollama server URL.
func WithGenerateURL(url string) GeneratorOption {
	return func(g *OllamaGenerator) { g.baseURL = url }
}

// WithGenerateModel overrides the generation model.
func WithGenerateModel(model string) GeneratorOption {
	return func(g *OllamaGenerator) { g.model = model }
}

// WithGenerateTimeout overrides the per-request timeout.
func WithGenerateTimeout(d time.Duration) GeneratorOption {
	return func(g *OllamaGenerator) { g.client.Timeout = d }
}

// NewOllamaGenerator creates a generator with sensible defaults for a
// local Ollama install.
func NewOllamaGenerator(opts ...GeneratorOption) *OllamaGenerator {
	g := &OllamaGenerator{
		baseURL: DefaultGenerateURL,
		model:   DefaultGenerateModel,
		client:  &http.Client{Timeout: 120 * time.Second},
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	System  string          `json:"system,omitempty"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate runs a single non-streaming completion.
func (g *OllamaGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}

	body, err := json.Marshal(generateRequest{
		Model:  g.model,
		Prompt: prompt,
		System: system,
		Stream: false,
		Options: generateOptions{
			Temperature: defaultTemperature,
			NumPredict:  defaultMaxTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("encoding generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling generate endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("generate endpoint returned %d: %s", resp.StatusCode, data)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding generate response: %w", err)
	}
	return out.Response, nil
}
