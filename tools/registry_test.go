package tools

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burrowkit/burrow/core"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(NewCalculator())
	r.Register(NewWebsiteReader())

	tool, err := r.Get("calculator")
	require.NoError(t, err)
	assert.Equal(t, "calculator", tool.Definition().Name)

	_, err = r.Get("missing")
	assert.True(t, core.IsKind(err, core.KindNotFound))

	defs := r.List()
	require.Len(t, defs, 2)
	assert.Equal(t, "calculator", defs[0].Name)
	assert.Equal(t, "website_reader", defs[1].Name)
}

func TestValidateArgs(t *testing.T) {
	schema := ObjectSchema(map[string]any{
		"name":  StringProperty("a name"),
		"count": IntegerProperty("a count"),
		"ratio": NumberProperty("a ratio"),
		"flag":  BooleanProperty("a flag"),
	}, "name")

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, ValidateArgs(schema, json.RawMessage(`{"name": "x", "count": 3, "ratio": 0.5, "flag": true}`)))
	})

	t.Run("missing required", func(t *testing.T) {
		err := ValidateArgs(schema, json.RawMessage(`{"count": 3}`))
		assert.True(t, core.IsKind(err, core.KindValidation))
	})

	t.Run("wrong type", func(t *testing.T) {
		err := ValidateArgs(schema, json.RawMessage(`{"name": 42}`))
		assert.True(t, core.IsKind(err, core.KindValidation))
	})

	t.Run("non-integer number", func(t *testing.T) {
		err := ValidateArgs(schema, json.RawMessage(`{"name": "x", "count": 1.5}`))
		assert.True(t, core.IsKind(err, core.KindValidation))
	})

	t.Run("not an object", func(t *testing.T) {
		err := ValidateArgs(schema, json.RawMessage(`[1, 2]`))
		assert.True(t, core.IsKind(err, core.KindValidation))
	})

	t.Run("unknown fields pass", func(t *testing.T) {
		assert.NoError(t, ValidateArgs(schema, json.RawMessage(`{"name": "x", "extra": "ignored"}`)))
	})
}
