package chromem

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burrowkit/burrow/memory"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	return s
}

func rec(id, owner string, vector []float32, text string) memory.Record {
	return memory.Record{
		ID:        id,
		OwnerID:   owner,
		Text:      text,
		Vector:    vector,
		CreatedAt: time.Now().UTC(),
	}
}

func TestAddAndSearch(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, rec("m1", "u1", []float32{1, 0, 0}, "aligned")))
	require.NoError(t, s.Add(ctx, rec("m2", "u1", []float32{0, 1, 0}, "orthogonal")))

	results, err := s.Search(ctx, "u1", []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "m1", results[0].ID)
	assert.Greater(t, results[0].Similarity, results[1].Similarity)
}

func TestOwnerIsolation(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	v := []float32{1, 0}

	require.NoError(t, s.Add(ctx, rec("m1", "alice", v, "same text")))
	require.NoError(t, s.Add(ctx, rec("m2", "bob", v, "same text")))

	results, err := s.Search(ctx, "alice", v, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "m1", results[0].ID)
}

func TestReplaceSemantics(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, rec("m1", "u1", []float32{1, 0}, "first")))
	require.NoError(t, s.Add(ctx, rec("m1", "u1", []float32{0, 1}, "second")))

	n, err := s.Count(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	results, err := s.Search(ctx, "u1", []float32{0, 1}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "second", results[0].Text)
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, rec("m1", "u1", []float32{1, 0}, "text")))

	removed, err := s.Delete(ctx, "missing", "u1")
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = s.Delete(ctx, "m1", "u1")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.Delete(ctx, "m1", "u1")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestDimensionMismatchReturnsEmpty(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, rec("m1", "u1", []float32{1, 0, 0}, "three dims")))

	results, err := s.Search(ctx, "u1", []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestZeroVectorQueryReturnsEmpty(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, rec("m1", "u1", []float32{1, 0}, "text")))

	results, err := s.Search(ctx, "u1", []float32{0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}
