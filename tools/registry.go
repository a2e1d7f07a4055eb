// Package tools provides the tool contract implementations the pipeline
// can dispatch to, a registry to hold them, and JSON Schema helpers for
// describing their arguments.
package tools

import (
	"sort"
	"sync"

	"github.com/burrowkit/burrow/core"
)

// Registry holds the tools available to the pipeline, keyed by name.
// Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]core.Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]core.Tool)}
}

// Register adds t under its definition name, replacing any previous tool
// with the same name.
func (r *Registry) Register(t core.Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Definition().Name] = t
}

// Get returns the named tool, or a KindNotFound error.
func (r *Registry) Get(name string) (core.Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]
	if !ok {
		return nil, core.Errorf(core.KindNotFound, "tool %q not registered", name)
	}
	return t, nil
}

// List returns the definitions of all registered tools, sorted by name.
func (r *Registry) List() []core.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]core.ToolDefinition, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, t.Definition())
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}
