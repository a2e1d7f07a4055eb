package mock

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministic(t *testing.T) {
	e := New()
	ctx := context.Background()

	a, err := e.Embed(ctx, "the same text")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "the same text")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := e.Embed(ctx, "different text")
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestUnitNorm(t *testing.T) {
	e := NewWithDimensions(64)
	vec, err := e.Embed(context.Background(), "normalize me")
	require.NoError(t, err)
	require.Len(t, vec, 64)

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-4)
}

func TestDimensions(t *testing.T) {
	assert.Equal(t, DefaultDimensions, New().Dimensions())
	assert.Equal(t, 12, NewWithDimensions(12).Dimensions())
}
