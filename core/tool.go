package core

import (
	"context"
	"encoding/json"
)

// ToolDefinition describes a tool to generation providers and callers.
// InputSchema is a JSON Schema object built with the tools/schema helpers.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// Tool is the capability contract a tool must satisfy to be invoked from
// the pipeline. Implementations decode their arguments from the raw JSON
// payload; the orchestrator calls Validate before Run and never runs a
// tool the safety guardian has denied.
type Tool interface {
	// Definition returns the tool's name, description, and argument schema.
	Definition() ToolDefinition

	// Validate checks the raw argument payload against the declared schema.
	// A mismatch is reported as a KindValidation error.
	Validate(input json.RawMessage) error

	// Run executes the tool with validated arguments. ExecContext supplies
	// the owner and conversation identity; tools must scope all reads and
	// writes to it.
	Run(ctx context.Context, ec ExecContext, input json.RawMessage) (string, error)
}
