package provider

import (
	"context"
	"log/slog"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	"github.com/burrowkit/burrow/core"
)

// AnthropicConfig configures the Anthropic provider.
type AnthropicConfig struct {
	APIKey    string
	Model     string
	MaxTokens int64
}

// Anthropic talks to the Anthropic Messages API.
type Anthropic struct {
	client anthropic.Client
	config AnthropicConfig
}

// NewAnthropic creates an Anthropic provider.
func NewAnthropic(cfg AnthropicConfig) *Anthropic {
	if cfg.Model == "" {
		cfg.Model = "claude-sonnet-4-20250514"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 4096
	}
	return &Anthropic{
		client: anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		config: cfg,
	}
}

// Generate performs a blocking completion.
func (p *Anthropic) Generate(ctx context.Context, messages []Message, opts Options) (string, error) {
	resp, err := p.client.Messages.New(ctx, p.params(messages, opts))
	if err != nil {
		return "", core.WrapErr(core.KindProvider, err, "anthropic message failed")
	}
	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text, nil
}

// GenerateStream starts a streaming completion.
func (p *Anthropic) GenerateStream(ctx context.Context, messages []Message, opts Options) (Stream, error) {
	stream := p.client.Messages.NewStreaming(ctx, p.params(messages, opts))
	return &anthropicStream{stream: stream}, nil
}

// params maps provider-neutral messages onto the Messages API shape.
// System-role history goes into the request's System field.
func (p *Anthropic) params(messages []Message, opts Options) anthropic.MessageNewParams {
	model := opts.Model
	if model == "" {
		model = p.config.Model
	}

	var system []anthropic.TextBlockParam
	var turns []anthropic.MessageParam
	for _, m := range messages {
		switch core.Role(m.Role) {
		case core.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: m.Content})
		case core.RoleAssistant:
			turns = append(turns, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			turns = append(turns, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   p.config.MaxTokens,
		Messages:    turns,
		System:      system,
		Temperature: anthropic.Float(float64(opts.Temperature)),
	}

	for _, t := range opts.Tools {
		tool := anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.String(t.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: t.InputSchema["properties"],
			},
		}
		params.Tools = append(params.Tools, anthropic.ToolUnionParam{OfTool: &tool})
	}
	return params
}

type anthropicStream struct {
	stream  *ssestream.Stream[anthropic.MessageStreamEventUnion]
	current string
	err     error
	done    bool
	failed  bool
}

func (s *anthropicStream) Next() bool {
	if s.done {
		return false
	}
	for s.stream.Next() {
		event := s.stream.Current()
		switch evt := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			if delta, ok := evt.Delta.AsAny().(anthropic.TextDelta); ok && delta.Text != "" {
				s.current = delta.Text
				return true
			}
		}
	}

	s.done = true
	if err := s.stream.Err(); err != nil && !s.failed {
		s.failed = true
		s.err = core.WrapErr(core.KindProvider, err, "anthropic stream interrupted")
		s.current = "Error reading from generation backend: " + err.Error()
		slog.Warn("anthropic stream interrupted", "error", err)
		return true
	}
	return false
}

func (s *anthropicStream) Current() string { return s.current }
func (s *anthropicStream) Err() error      { return s.err }
func (s *anthropicStream) Close() error    { s.done = true; return s.stream.Close() }
