// Package engine drives one chat turn end to end: conversation
// resolution, the safety gate, optional memory recall and tool
// descriptor injection, provider generation (batch or streaming), and
// persistence of the resulting assistant message.
package engine

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/burrowkit/burrow/core"
	"github.com/burrowkit/burrow/memory"
	"github.com/burrowkit/burrow/provider"
	"github.com/burrowkit/burrow/safety"
	"github.com/burrowkit/burrow/storage"
	"github.com/burrowkit/burrow/tools"
)

// RefusalText is the fixed assistant reply for safety-denied input.
const RefusalText = "I cannot fulfill this request as it violates safety guidelines."

// titleLen bounds the conversation title derived from the first message.
const titleLen = 30

// excerptLen bounds the content excerpt written to the security log.
const excerptLen = 500

// Orchestrator runs chat turns. Each turn is independent; a single
// orchestrator serves concurrent turns, including turns on the same
// conversation.
type Orchestrator struct {
	provider      provider.Provider
	guardian      *safety.Guardian
	conversations storage.ConversationStore
	seclog        storage.SecurityLogStore
	memory        *memory.Manager
	registry      *tools.Registry
	logger        *slog.Logger
}

// Option configures the orchestrator.
type Option func(*Orchestrator)

// WithMemory enables memory recall as generation context.
func WithMemory(m *memory.Manager) Option {
	return func(o *Orchestrator) { o.memory = m }
}

// WithTools enables tool descriptor injection and tool execution.
func WithTools(r *tools.Registry) Option {
	return func(o *Orchestrator) { o.registry = r }
}

// WithLogger sets the structured logger. Defaults to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// New creates an orchestrator over the required collaborators.
func New(p provider.Provider, g *safety.Guardian, conversations storage.ConversationStore, seclog storage.SecurityLogStore, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		provider:      p,
		guardian:      g,
		conversations: conversations,
		seclog:        seclog,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ChatRequest is one inbound turn.
type ChatRequest struct {
	// OwnerID identifies the requesting account. Required.
	OwnerID string

	// ConversationID selects an existing conversation. Empty creates one.
	ConversationID string

	// Messages is the turn history, oldest first. The last user-authored
	// message is the one being answered.
	Messages []provider.Message

	// Model and Temperature are passed through to the provider.
	Model       string
	Temperature float32

	// WithMemory injects recalled memories as generation context.
	WithMemory bool

	// WithTools injects registered tool descriptors into the request.
	WithTools bool
}

// ChatResult is the outcome of a batch turn.
type ChatResult struct {
	ConversationID string
	Content        string

	// Denied reports that the safety gate refused the input and Content
	// is the fixed refusal.
	Denied bool
}

// Chat runs one turn in batch mode.
func (o *Orchestrator) Chat(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	conv, err := o.resolveConversation(ctx, req)
	if err != nil {
		return nil, err
	}

	userText, denied, err := o.recordAndCheck(ctx, conv, req)
	if err != nil {
		return nil, err
	}
	if denied {
		return &ChatResult{ConversationID: conv.ID, Content: RefusalText, Denied: true}, nil
	}

	messages := o.assembleContext(ctx, req, userText)
	content, err := o.provider.Generate(ctx, messages, o.options(req))
	if err != nil {
		return nil, err
	}

	if err := o.persistAssistant(ctx, conv.ID, content); err != nil {
		return nil, err
	}
	return &ChatResult{ConversationID: conv.ID, Content: content}, nil
}

// ChatStream runs one turn in streaming mode, calling emit for each
// fragment in generation order. The persisted assistant message is the
// exact concatenation of the emitted fragments.
//
// If emit returns an error (caller disconnected), consumption stops, the
// provider stream is closed, and the partial text is persisted so history
// matches what the caller partially saw. A persistence failure after a
// successful stream is logged and not returned; the delivered output
// already left the system.
func (o *Orchestrator) ChatStream(ctx context.Context, req ChatRequest, emit func(fragment string) error) (*ChatResult, error) {
	conv, err := o.resolveConversation(ctx, req)
	if err != nil {
		return nil, err
	}

	userText, denied, err := o.recordAndCheck(ctx, conv, req)
	if err != nil {
		return nil, err
	}
	if denied {
		if err := emit(RefusalText); err != nil {
			o.logger.Warn("caller gone before refusal delivered", "conversation_id", conv.ID, "error", err)
		}
		return &ChatResult{ConversationID: conv.ID, Content: RefusalText, Denied: true}, nil
	}

	messages := o.assembleContext(ctx, req, userText)
	stream, err := o.provider.GenerateStream(ctx, messages, o.options(req))
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	var full strings.Builder
	for stream.Next() {
		fragment := stream.Current()
		full.WriteString(fragment)
		if err := emit(fragment); err != nil {
			o.logger.Info("caller disconnected mid-stream, persisting partial text",
				"conversation_id", conv.ID, "error", err)
			break
		}
	}
	if err := stream.Err(); err != nil {
		o.logger.Warn("generation stream failed", "conversation_id", conv.ID, "error", err)
	}

	content := full.String()
	if err := o.persistAssistant(ctx, conv.ID, content); err != nil {
		o.logger.Error("persisting assistant message after stream failed",
			"conversation_id", conv.ID, "error", err)
	}
	return &ChatResult{ConversationID: conv.ID, Content: content}, nil
}

// resolveConversation creates or verifies the turn's conversation.
func (o *Orchestrator) resolveConversation(ctx context.Context, req ChatRequest) (*core.Conversation, error) {
	if req.OwnerID == "" {
		return nil, core.Errorf(core.KindValidation, "owner id is required")
	}
	if req.ConversationID != "" {
		return o.conversations.GetConversation(ctx, req.ConversationID, req.OwnerID)
	}
	return o.conversations.CreateConversation(ctx, req.OwnerID, deriveTitle(req.Messages))
}

// recordAndCheck persists the latest user message, then runs the safety
// gate. The message is recorded before the check so denied input still
// appears in history. On denial it writes the audit entry and persists
// the fixed refusal as the assistant reply.
func (o *Orchestrator) recordAndCheck(ctx context.Context, conv *core.Conversation, req ChatRequest) (userText string, denied bool, err error) {
	last := lastUserMessage(req.Messages)
	if last == nil {
		return "", false, core.Errorf(core.KindValidation, "no user message in request")
	}
	userText = last.Content

	if err := o.conversations.AppendMessage(ctx, &core.Message{
		ConversationID: conv.ID,
		Role:           core.RoleUser,
		Content:        userText,
	}); err != nil {
		return "", false, err
	}

	if allowed, reason := o.guardian.CheckInput(userText); !allowed {
		if err := o.seclog.AppendSecurityLog(ctx, &core.SecurityLogEntry{
			OwnerID: conv.OwnerID,
			Action:  core.ActionMessage,
			Content: excerpt(userText),
			Reason:  reason,
		}); err != nil {
			return "", false, err
		}
		if err := o.persistAssistant(ctx, conv.ID, RefusalText); err != nil {
			return "", false, err
		}
		return userText, true, nil
	}
	return userText, false, nil
}

// assembleContext builds the provider request: recalled memories first as
// a system message, then the caller's history.
func (o *Orchestrator) assembleContext(ctx context.Context, req ChatRequest, userText string) []provider.Message {
	var messages []provider.Message

	if req.WithMemory && o.memory != nil {
		results, err := o.memory.Recall(ctx, req.OwnerID, userText, memory.DefaultRecallLimit)
		if err != nil {
			o.logger.Warn("memory recall failed, continuing without context", "error", err)
		} else if block := memory.FormatResults(results); block != "" {
			messages = append(messages, provider.Message{Role: string(core.RoleSystem), Content: block})
		}
	}
	return append(messages, req.Messages...)
}

func (o *Orchestrator) options(req ChatRequest) provider.Options {
	opts := provider.Options{Model: req.Model, Temperature: req.Temperature}
	if req.WithTools && o.registry != nil {
		opts.Tools = o.registry.List()
	}
	return opts
}

func (o *Orchestrator) persistAssistant(ctx context.Context, conversationID, content string) error {
	return o.conversations.AppendMessage(ctx, &core.Message{
		ConversationID: conversationID,
		Role:           core.RoleAssistant,
		Content:        content,
	})
}

// Tools returns the definitions of the registered tools, or nil when no
// registry is configured.
func (o *Orchestrator) Tools() []core.ToolDefinition {
	if o.registry == nil {
		return nil
	}
	return o.registry.List()
}

// ExecuteTool resolves, validates, safety-checks, and runs a tool on
// behalf of ec's owner. Failures are structured errors: KindNotFound for
// an unknown tool, KindValidation for bad arguments, KindPermissionDenied
// (plus an audit entry) for a safety denial.
func (o *Orchestrator) ExecuteTool(ctx context.Context, ec core.ExecContext, name string, args json.RawMessage) (string, error) {
	if o.registry == nil {
		return "", core.Errorf(core.KindNotFound, "no tools registered")
	}
	tool, err := o.registry.Get(name)
	if err != nil {
		return "", err
	}
	if err := tool.Validate(args); err != nil {
		return "", err
	}

	var decoded map[string]any
	if len(args) > 0 {
		if err := json.Unmarshal(args, &decoded); err != nil {
			return "", core.Errorf(core.KindValidation, "arguments must be a JSON object: %v", err)
		}
	}
	if allowed, reason := o.guardian.CheckToolExecution(name, decoded); !allowed {
		if err := o.seclog.AppendSecurityLog(ctx, &core.SecurityLogEntry{
			OwnerID: ec.OwnerID,
			Action:  core.ActionToolExecution,
			Content: excerpt(string(args)),
			Reason:  reason,
		}); err != nil {
			return "", err
		}
		return "", core.Errorf(core.KindPermissionDenied, "tool %s denied: %s", name, reason)
	}

	return tool.Run(ctx, ec, args)
}

// deriveTitle takes the first message's leading characters as the title.
func deriveTitle(messages []provider.Message) string {
	if len(messages) == 0 {
		return "New Chat"
	}
	content := messages[0].Content
	runes := []rune(content)
	if len(runes) <= titleLen {
		return content
	}
	return string(runes[:titleLen]) + "..."
}

func lastUserMessage(messages []provider.Message) *provider.Message {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == string(core.RoleUser) {
			return &messages[i]
		}
	}
	return nil
}

func excerpt(s string) string {
	runes := []rune(s)
	if len(runes) <= excerptLen {
		return s
	}
	return string(runes[:excerptLen])
}
