// Package provider abstracts the remote chat-completion backends the
// pipeline generates with. Three implementations are provided: Ollama
// (newline-delimited JSON frames), OpenAI-compatible endpoints, and the
// Anthropic Messages API.
package provider

import (
	"context"

	"github.com/burrowkit/burrow/core"
)

// Message is one turn of provider-facing chat history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options parameterize a single generation call.
type Options struct {
	// Model names the backend model. Empty falls back to the provider's
	// configured default.
	Model string

	// Temperature is the sampling temperature.
	Temperature float32

	// Tools are descriptors for the tools the caller has made available.
	// Providers that cannot express tools on the wire ignore them.
	Tools []core.ToolDefinition
}

// Provider is the generation backend abstraction.
type Provider interface {
	// Generate performs a single blocking completion and returns the full
	// assistant text. Transport or backend failures are reported as a
	// KindProvider error, never as sentinel answer text.
	Generate(ctx context.Context, messages []Message, opts Options) (string, error)

	// GenerateStream starts a streaming completion. The returned stream is
	// finite and not restartable; each fragment is a non-empty piece of
	// assistant text in generation order.
	GenerateStream(ctx context.Context, messages []Message, opts Options) (Stream, error)
}

// Stream is a lazy sequence of text fragments.
//
// Usage follows the scanner idiom:
//
//	for stream.Next() {
//	    emit(stream.Current())
//	}
//	if err := stream.Err(); err != nil { ... }
//
// If the underlying connection fails mid-stream, the stream yields a single
// diagnostic fragment, then ends with Err returning the failure.
type Stream interface {
	// Next advances to the next fragment. It returns false when the backend
	// signals completion or the stream has failed.
	Next() bool

	// Current returns the fragment produced by the last successful Next.
	Current() string

	// Err returns the terminal error, if any, once Next has returned false.
	Err() error

	// Close releases the underlying connection. Safe to call at any point;
	// callers that stop consuming early must call it.
	Close() error
}
