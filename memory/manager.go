package memory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/burrowkit/burrow/core"
)

// DefaultRecallLimit bounds Recall when the caller passes limit <= 0.
const DefaultRecallLimit = 5

// Manager composes a Store and an Embedder into the memory operations the
// orchestrator and tools call.
//
// Embedding failures never fail a memory operation: the manager degrades to
// a zero vector (similarity 0, sorts last) and logs the failure. Search
// quality drops; correctness does not.
type Manager struct {
	store    Store
	embedder Embedder
}

// NewManager creates a manager over the given store and embedder.
func NewManager(store Store, embedder Embedder) *Manager {
	return &Manager{store: store, embedder: embedder}
}

// Remember embeds text and stores it under (id, ownerID), replacing any
// prior record with the same key. An empty id gets a generated one; the
// effective id is returned.
func (m *Manager) Remember(ctx context.Context, ownerID, id, text string, metadata map[string]string) (string, error) {
	if ownerID == "" {
		return "", core.Errorf(core.KindValidation, "owner id is required")
	}
	if strings.TrimSpace(text) == "" {
		return "", core.Errorf(core.KindValidation, "memory text is empty")
	}
	if id == "" {
		id = uuid.New().String()
	}

	rec := Record{
		ID:        id,
		OwnerID:   ownerID,
		Text:      text,
		Vector:    m.embed(ctx, text),
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := m.store.Add(ctx, rec); err != nil {
		return "", fmt.Errorf("store memory %q: %w", id, err)
	}
	return id, nil
}

// Recall embeds the query and returns the owner's most similar records.
// A query that embeds to a zero vector returns an empty result.
func (m *Manager) Recall(ctx context.Context, ownerID, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = DefaultRecallLimit
	}
	vec := m.embed(ctx, query)
	if IsZeroVector(vec) {
		return nil, nil
	}
	results, err := m.store.Search(ctx, ownerID, vec, limit)
	if err != nil {
		return nil, fmt.Errorf("search memories: %w", err)
	}
	return results, nil
}

// Forget removes the record under (id, ownerID). A miss is not an error.
func (m *Manager) Forget(ctx context.Context, ownerID, id string) error {
	if _, err := m.store.Delete(ctx, id, ownerID); err != nil {
		return fmt.Errorf("delete memory %q: %w", id, err)
	}
	return nil
}

// Count returns the owner's live record count.
func (m *Manager) Count(ctx context.Context, ownerID string) (int, error) {
	return m.store.Count(ctx, ownerID)
}

// Close flushes the underlying store.
func (m *Manager) Close() error {
	return m.store.Close()
}

// embed runs the embedder with the degrade-to-zero-vector policy.
func (m *Manager) embed(ctx context.Context, text string) []float32 {
	vec, err := m.embedder.Embed(ctx, text)
	if err != nil {
		slog.Warn("embedding failed, degrading to zero vector",
			"error", err,
			"dimensions", m.embedder.Dimensions())
		return make([]float32, m.embedder.Dimensions())
	}
	return vec
}

// FormatResults renders recalled memories as a context block for prompt
// injection. Returns "" when there is nothing to inject.
func FormatResults(results []SearchResult) string {
	if len(results) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Relevant memories about the user:\n")
	for _, r := range results {
		b.WriteString("- ")
		b.WriteString(r.Text)
		b.WriteByte('\n')
	}
	return b.String()
}
