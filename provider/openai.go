package provider

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/burrowkit/burrow/core"
)

// OpenAIConfig configures the OpenAI-compatible provider.
type OpenAIConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// OpenAI talks to any OpenAI-compatible chat completion endpoint.
type OpenAI struct {
	client *openai.Client
	config OpenAIConfig
}

// NewOpenAI creates an OpenAI-compatible provider.
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &OpenAI{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
	}
}

// Generate performs a blocking chat completion.
func (p *OpenAI) Generate(ctx context.Context, messages []Message, opts Options) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctx, p.request(messages, opts, false))
	if err != nil {
		return "", core.WrapErr(core.KindProvider, err, "openai chat completion failed")
	}
	if len(resp.Choices) == 0 {
		return "", core.Errorf(core.KindProvider, "openai chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateStream starts a streaming chat completion.
func (p *OpenAI) GenerateStream(ctx context.Context, messages []Message, opts Options) (Stream, error) {
	stream, err := p.client.CreateChatCompletionStream(ctx, p.request(messages, opts, true))
	if err != nil {
		werr := core.WrapErr(core.KindProvider, err, "openai stream request failed")
		slog.Warn("openai stream connection failed", "error", err)
		return newFailedStream("Error connecting to generation backend: "+err.Error(), werr), nil
	}
	return &openaiStream{stream: stream}, nil
}

func (p *OpenAI) request(messages []Message, opts Options, stream bool) openai.ChatCompletionRequest {
	model := opts.Model
	if model == "" {
		model = p.config.Model
	}
	msgs := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		msgs[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	req := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: opts.Temperature,
		Stream:      stream,
	}
	for _, t := range opts.Tools {
		req.Tools = append(req.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.InputSchema,
			},
		})
	}
	return req
}

type openaiStream struct {
	stream  *openai.ChatCompletionStream
	current string
	err     error
	done    bool
	failed  bool
}

func (s *openaiStream) Next() bool {
	if s.done {
		return false
	}
	for {
		resp, err := s.stream.Recv()
		if errors.Is(err, io.EOF) {
			s.done = true
			return false
		}
		if err != nil {
			s.done = true
			if s.failed {
				return false
			}
			s.failed = true
			s.err = core.WrapErr(core.KindProvider, err, "openai stream interrupted")
			s.current = "Error reading from generation backend: " + err.Error()
			slog.Warn("openai stream interrupted", "error", err)
			return true
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Delta.Content == "" {
			continue
		}
		s.current = resp.Choices[0].Delta.Content
		return true
	}
}

func (s *openaiStream) Current() string { return s.current }
func (s *openaiStream) Err() error      { return s.err }
func (s *openaiStream) Close() error    { s.done = true; return s.stream.Close() }
