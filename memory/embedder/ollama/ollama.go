// Package ollama implements the embedder against an Ollama-compatible
// embedding endpoint: POST {base}/api/embeddings with {model, prompt},
// answered by {embedding: [...]}.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Config configures the Ollama embedder.
type Config struct {
	BaseURL string
	Model   string

	// Dimensions is the vector size of the configured model. It determines
	// the length of the zero vector returned when the backend is down.
	Dimensions int

	Timeout time.Duration
}

// DefaultConfig returns the default local Ollama embedding configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:    "http://localhost:11434",
		Model:      "llama3",
		Dimensions: 4096,
		Timeout:    30 * time.Second,
	}
}

// Embedder calls the remote embedding backend. Failures do not propagate:
// the embedder logs and returns a zero vector of the configured
// dimensionality, which always sorts last in similarity search. It holds no
// mutable state, so concurrent calls are safe.
type Embedder struct {
	config Config
	client *http.Client
}

// New creates an Ollama embedder.
func New(cfg Config) *Embedder {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = def.Dimensions
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	return &Embedder{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type embeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed converts text to a vector. On any transport or backend failure it
// returns the zero vector, never an error.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.fetch(ctx, text)
	if err != nil {
		slog.Warn("ollama embedding failed, returning zero vector",
			"model", e.config.Model,
			"error", err)
		return make([]float32, e.config.Dimensions), nil
	}
	return vec, nil
}

func (e *Embedder) fetch(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embeddingRequest{Model: e.config.Model, Prompt: text})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.config.BaseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("embedding endpoint returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("malformed embedding response: %w", err)
	}
	if len(out.Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}
	return out.Embedding, nil
}

// Dimensions returns the configured vector size.
func (e *Embedder) Dimensions() int { return e.config.Dimensions }
