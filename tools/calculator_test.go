package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burrowkit/burrow/core"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		expr string
		want float64
	}{
		{"1 + 2", 3},
		{"2 - 5", -3},
		{"3 * 4", 12},
		{"10 / 4", 2.5},
		{"10 % 3", 1},
		{"2 ^ 10", 1024},
		{"(2 + 3) * 4", 20},
		{"2 + 3 * 4", 14},
		{"-5 + 3", -2},
		{"-(2 + 3)", -5},
		{"2 * -3", -6},
		{"2 ^ 3 ^ 2", 512}, // right associative
		{"1.5 * 2", 3},
		{"((1 + 2) * (3 + 4))", 21},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := Evaluate(tt.expr)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestEvaluateRejects(t *testing.T) {
	exprs := []string{
		"",
		"1 +",
		"(1 + 2",
		"1 + 2)",
		"1 / 0",
		"5 % 0",
		"os.system('ls')",
		"__import__",
		"1 & 2",
		"2 3",
	}
	for _, expr := range exprs {
		t.Run(expr, func(t *testing.T) {
			_, err := Evaluate(expr)
			require.Error(t, err)
			assert.True(t, core.IsKind(err, core.KindValidation))
		})
	}
}

func TestCalculatorRun(t *testing.T) {
	calc := NewCalculator()

	out, err := calc.Run(context.Background(), core.ExecContext{}, json.RawMessage(`{"expression": "6 * 7"}`))
	require.NoError(t, err)
	assert.Equal(t, "42", out)

	out, err = calc.Run(context.Background(), core.ExecContext{}, json.RawMessage(`{"expression": "10 / 4"}`))
	require.NoError(t, err)
	assert.Equal(t, "2.5", out)

	_, err = calc.Run(context.Background(), core.ExecContext{}, json.RawMessage(`{"expression": "1 / 0"}`))
	assert.True(t, core.IsKind(err, core.KindValidation))
}

func TestCalculatorValidate(t *testing.T) {
	calc := NewCalculator()

	assert.NoError(t, calc.Validate(json.RawMessage(`{"expression": "1 + 1"}`)))
	assert.Error(t, calc.Validate(json.RawMessage(`{}`)))
	assert.Error(t, calc.Validate(json.RawMessage(`{"expression": 42}`)))
}
