package memory_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burrowkit/burrow/core"
	"github.com/burrowkit/burrow/memory"
	"github.com/burrowkit/burrow/memory/embedder/mock"
	"github.com/burrowkit/burrow/memory/store/blob"
)

func newManager(t *testing.T) *memory.Manager {
	t.Helper()
	store, err := blob.Open(filepath.Join(t.TempDir(), "memories.json"))
	require.NoError(t, err)
	return memory.NewManager(store, mock.New())
}

func TestRememberAndRecall(t *testing.T) {
	m := newManager(t)
	ctx := context.Background()

	id, err := m.Remember(ctx, "u1", "m1", "favorite color is blue", nil)
	require.NoError(t, err)
	assert.Equal(t, "m1", id)

	results, err := m.Recall(ctx, "u1", "what color do I like", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	found := false
	for _, r := range results {
		if r.ID == "m1" {
			found = true
		}
	}
	assert.True(t, found, "owner's memory should be recallable")

	// Another owner sees nothing.
	other, err := m.Recall(ctx, "u2", "what color do I like", 5)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestRememberGeneratesID(t *testing.T) {
	m := newManager(t)

	id, err := m.Remember(context.Background(), "u1", "", "something worth keeping", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	n, err := m.Count(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRememberValidation(t *testing.T) {
	m := newManager(t)
	ctx := context.Background()

	_, err := m.Remember(ctx, "", "m1", "text", nil)
	assert.True(t, core.IsKind(err, core.KindValidation))

	_, err = m.Remember(ctx, "u1", "m1", "   ", nil)
	assert.True(t, core.IsKind(err, core.KindValidation))
}

func TestForgetMissIsNotError(t *testing.T) {
	m := newManager(t)
	assert.NoError(t, m.Forget(context.Background(), "u1", "never-existed"))
}

// failingEmbedder always errors, exercising the zero-vector degradation.
type failingEmbedder struct{ dims int }

func (f *failingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("backend unreachable")
}

func (f *failingEmbedder) Dimensions() int { return f.dims }

func TestEmbeddingFailureDegrades(t *testing.T) {
	store, err := blob.Open(filepath.Join(t.TempDir(), "memories.json"))
	require.NoError(t, err)
	m := memory.NewManager(store, &failingEmbedder{dims: 4})
	ctx := context.Background()

	// Remember still succeeds; the record carries a zero vector.
	id, err := m.Remember(ctx, "u1", "m1", "text the backend never saw", nil)
	require.NoError(t, err)
	assert.Equal(t, "m1", id)

	// Recall embeds the query to a zero vector and returns empty, not an error.
	results, err := m.Recall(ctx, "u1", "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFormatResults(t *testing.T) {
	assert.Empty(t, memory.FormatResults(nil))

	block := memory.FormatResults([]memory.SearchResult{
		{Text: "likes blue"},
		{Text: "allergic to peanuts"},
	})
	assert.Equal(t, "Relevant memories about the user:\n- likes blue\n- allergic to peanuts\n", block)
}

func TestIsZeroVector(t *testing.T) {
	assert.True(t, memory.IsZeroVector(nil))
	assert.True(t, memory.IsZeroVector([]float32{0, 0, 0}))
	assert.False(t, memory.IsZeroVector([]float32{0, 0.001, 0}))
}
