package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/burrowkit/burrow/core"
)

// OllamaConfig configures the Ollama provider.
type OllamaConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// DefaultOllamaConfig returns the default local Ollama configuration.
func DefaultOllamaConfig() OllamaConfig {
	return OllamaConfig{
		BaseURL: "http://localhost:11434",
		Model:   "llama3",
		Timeout: 60 * time.Second,
	}
}

// Ollama talks to an Ollama-compatible chat endpoint.
//
// Wire contract: POST {base}/api/chat with
// {model, messages, options:{temperature}, stream}. Batch responses are one
// JSON object {message:{content}}; streaming responses are newline-delimited
// frames {message:{content}, done} terminated by a frame with done=true.
type Ollama struct {
	config OllamaConfig
	client *http.Client
}

// NewOllama creates an Ollama provider.
func NewOllama(cfg OllamaConfig) *Ollama {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOllamaConfig().BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOllamaConfig().Model
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultOllamaConfig().Timeout
	}
	return &Ollama{
		config: cfg,
		// Batch calls get the configured timeout; streaming requests manage
		// their own lifetime through the context.
		client: &http.Client{},
	}
}

type ollamaChatRequest struct {
	Model    string            `json:"model"`
	Messages []Message         `json:"messages"`
	Options  ollamaChatOptions `json:"options"`
	Stream   bool              `json:"stream"`
}

type ollamaChatOptions struct {
	Temperature float32 `json:"temperature"`
}

type ollamaChatFrame struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

// Generate performs a blocking chat completion.
func (o *Ollama) Generate(ctx context.Context, messages []Message, opts Options) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.config.Timeout)
	defer cancel()

	resp, err := o.post(ctx, messages, opts, false)
	if err != nil {
		return "", core.WrapErr(core.KindProvider, err, "ollama chat request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", core.Errorf(core.KindProvider, "ollama chat returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var frame ollamaChatFrame
	if err := json.NewDecoder(resp.Body).Decode(&frame); err != nil {
		return "", core.WrapErr(core.KindProvider, err, "ollama chat returned malformed response")
	}
	return frame.Message.Content, nil
}

// GenerateStream starts a streaming chat completion. If the connection
// cannot be established the returned stream yields a single diagnostic
// fragment and then ends, with the failure available from Err.
func (o *Ollama) GenerateStream(ctx context.Context, messages []Message, opts Options) (Stream, error) {
	resp, err := o.post(ctx, messages, opts, true)
	if err != nil {
		werr := core.WrapErr(core.KindProvider, err, "ollama stream request failed")
		slog.Warn("ollama stream connection failed", "error", err)
		return newFailedStream(fmt.Sprintf("Error connecting to generation backend: %v", err), werr), nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		werr := core.Errorf(core.KindProvider, "ollama stream returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
		return newFailedStream(fmt.Sprintf("Error connecting to generation backend: status %d", resp.StatusCode), werr), nil
	}
	return &ollamaStream{body: resp.Body, scanner: bufio.NewScanner(resp.Body)}, nil
}

func (o *Ollama) post(ctx context.Context, messages []Message, opts Options, stream bool) (*http.Response, error) {
	model := opts.Model
	if model == "" {
		model = o.config.Model
	}
	// Tool descriptors are not part of the Ollama chat wire contract; the
	// orchestrator injects them as context messages instead.
	payload := ollamaChatRequest{
		Model:    model,
		Messages: messages,
		Options:  ollamaChatOptions{Temperature: opts.Temperature},
		Stream:   stream,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.config.BaseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return o.client.Do(req)
}

// ollamaStream reads newline-delimited chat frames. Malformed frames are
// skipped, never fatal; a mid-stream connection failure yields one
// diagnostic fragment before the stream ends.
type ollamaStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	current string
	err     error
	done    bool
	failed  bool
}

func (s *ollamaStream) Next() bool {
	if s.done {
		return false
	}
	for s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var frame ollamaChatFrame
		if err := json.Unmarshal(line, &frame); err != nil {
			slog.Debug("skipping malformed stream frame", "error", err)
			continue
		}
		if frame.Done {
			s.done = true
			if frame.Message.Content != "" {
				s.current = frame.Message.Content
				return true
			}
			return false
		}
		if frame.Message.Content == "" {
			continue
		}
		s.current = frame.Message.Content
		return true
	}

	s.done = true
	if err := s.scanner.Err(); err != nil && !s.failed {
		// One diagnostic fragment, then the sequence ends.
		s.failed = true
		s.err = core.WrapErr(core.KindProvider, err, "ollama stream interrupted")
		s.current = fmt.Sprintf("Error reading from generation backend: %v", err)
		slog.Warn("ollama stream interrupted", "error", err)
		return true
	}
	return false
}

func (s *ollamaStream) Current() string { return s.current }

func (s *ollamaStream) Err() error { return s.err }

func (s *ollamaStream) Close() error {
	s.done = true
	return s.body.Close()
}

// failedStream yields one diagnostic fragment and then ends.
type failedStream struct {
	fragment string
	err      error
	yielded  bool
}

func newFailedStream(fragment string, err error) *failedStream {
	return &failedStream{fragment: fragment, err: err}
}

func (s *failedStream) Next() bool {
	if s.yielded {
		return false
	}
	s.yielded = true
	return true
}

func (s *failedStream) Current() string { return s.fragment }
func (s *failedStream) Err() error      { return s.err }
func (s *failedStream) Close() error    { return nil }
