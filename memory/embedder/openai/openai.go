// Package openai implements the embedder against an OpenAI-compatible
// embeddings endpoint.
package openai

import (
	"context"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"
)

// Config configures the OpenAI embedder.
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	Dimensions int
}

// Embedder calls the embeddings endpoint through go-openai. Like the
// Ollama embedder it degrades to a zero vector on failure instead of
// propagating the error.
type Embedder struct {
	client *openai.Client
	config Config
}

// New creates an OpenAI-compatible embedder.
func New(cfg Config) *Embedder {
	if cfg.Model == "" {
		cfg.Model = string(openai.SmallEmbedding3)
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = 1536
	}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &Embedder{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
	}
}

// Embed converts text to a vector, returning the zero vector on failure.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(e.config.Model),
	})
	if err == nil && len(resp.Data) == 0 {
		err = fmt.Errorf("empty embedding response")
	}
	if err != nil {
		slog.Warn("openai embedding failed, returning zero vector",
			"model", e.config.Model,
			"error", err)
		return make([]float32, e.config.Dimensions), nil
	}
	return resp.Data[0].Embedding, nil
}

// Dimensions returns the configured vector size.
func (e *Embedder) Dimensions() int { return e.config.Dimensions }
