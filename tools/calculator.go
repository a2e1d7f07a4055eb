package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/burrowkit/burrow/core"
)

// Calculator evaluates arithmetic expressions with a small hand-rolled
// parser. Only numbers, parentheses, and the operators + - * / % ^ are
// accepted; anything else is a validation error, never executed.
type Calculator struct{}

// NewCalculator creates the calculator tool.
func NewCalculator() *Calculator { return &Calculator{} }

func (c *Calculator) Definition() core.ToolDefinition {
	return core.ToolDefinition{
		Name:        "calculator",
		Description: "Evaluate an arithmetic expression. Supports + - * / % ^ and parentheses.",
		InputSchema: ObjectSchema(map[string]any{
			"expression": StringProperty("The arithmetic expression to evaluate, e.g. (2 + 3) * 4"),
		}, "expression"),
	}
}

func (c *Calculator) Validate(raw json.RawMessage) error {
	return ValidateArgs(c.Definition().InputSchema, raw)
}

func (c *Calculator) Run(ctx context.Context, ec core.ExecContext, raw json.RawMessage) (string, error) {
	var args struct {
		Expression string `json:"expression"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return "", core.WrapErr(core.KindValidation, err, "decode calculator arguments")
	}

	result, err := Evaluate(args.Expression)
	if err != nil {
		return "", err
	}
	return formatNumber(result), nil
}

// Evaluate parses and evaluates expr. Errors are KindValidation.
func Evaluate(expr string) (float64, error) {
	tokens, err := tokenize(expr)
	if err != nil {
		return 0, err
	}
	if len(tokens) == 0 {
		return 0, core.Errorf(core.KindValidation, "empty expression")
	}
	rpn, err := toRPN(tokens)
	if err != nil {
		return 0, err
	}
	return evalRPN(rpn)
}

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokOperator
	tokLeftParen
	tokRightParen
)

type token struct {
	kind  tokenKind
	value float64
	op    byte
}

func tokenize(expr string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(expr) {
		ch := expr[i]
		switch {
		case ch == ' ' || ch == '\t':
			i++
		case ch >= '0' && ch <= '9' || ch == '.':
			j := i
			for j < len(expr) && (expr[j] >= '0' && expr[j] <= '9' || expr[j] == '.') {
				j++
			}
			n, err := strconv.ParseFloat(expr[i:j], 64)
			if err != nil {
				return nil, core.Errorf(core.KindValidation, "invalid number %q", expr[i:j])
			}
			tokens = append(tokens, token{kind: tokNumber, value: n})
			i = j
		case ch == '(':
			tokens = append(tokens, token{kind: tokLeftParen})
			i++
		case ch == ')':
			tokens = append(tokens, token{kind: tokRightParen})
			i++
		case strings.IndexByte("+-*/%^", ch) >= 0:
			op := ch
			// A minus at the start of an (sub)expression negates.
			if op == '-' && startsOperand(tokens) {
				op = 'n'
			}
			tokens = append(tokens, token{kind: tokOperator, op: op})
			i++
		default:
			r := rune(ch)
			if unicode.IsLetter(r) {
				return nil, core.Errorf(core.KindValidation, "identifiers are not allowed in expressions")
			}
			return nil, core.Errorf(core.KindValidation, "unexpected character %q", string(r))
		}
	}
	return tokens, nil
}

// startsOperand reports whether the next token begins an operand, which
// makes a following '-' unary.
func startsOperand(tokens []token) bool {
	if len(tokens) == 0 {
		return true
	}
	last := tokens[len(tokens)-1]
	return last.kind == tokOperator || last.kind == tokLeftParen
}

func precedence(op byte) int {
	switch op {
	case '+', '-':
		return 1
	case '*', '/', '%':
		return 2
	case 'n':
		return 3
	case '^':
		return 4
	}
	return 0
}

func rightAssociative(op byte) bool { return op == '^' || op == 'n' }

// toRPN converts infix tokens to reverse Polish notation, shunting-yard.
func toRPN(tokens []token) ([]token, error) {
	var output, stack []token
	for _, t := range tokens {
		switch t.kind {
		case tokNumber:
			output = append(output, t)
		case tokOperator:
			for len(stack) > 0 {
				top := stack[len(stack)-1]
				if top.kind != tokOperator {
					break
				}
				if precedence(top.op) > precedence(t.op) ||
					(precedence(top.op) == precedence(t.op) && !rightAssociative(t.op)) {
					output = append(output, top)
					stack = stack[:len(stack)-1]
					continue
				}
				break
			}
			stack = append(stack, t)
		case tokLeftParen:
			stack = append(stack, t)
		case tokRightParen:
			for {
				if len(stack) == 0 {
					return nil, core.Errorf(core.KindValidation, "unbalanced parentheses")
				}
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if top.kind == tokLeftParen {
					break
				}
				output = append(output, top)
			}
		}
	}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if top.kind == tokLeftParen {
			return nil, core.Errorf(core.KindValidation, "unbalanced parentheses")
		}
		output = append(output, top)
	}
	return output, nil
}

func evalRPN(rpn []token) (float64, error) {
	var stack []float64
	pop := func() (float64, bool) {
		if len(stack) == 0 {
			return 0, false
		}
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v, true
	}

	for _, t := range rpn {
		if t.kind == tokNumber {
			stack = append(stack, t.value)
			continue
		}
		if t.op == 'n' {
			v, ok := pop()
			if !ok {
				return 0, core.Errorf(core.KindValidation, "malformed expression")
			}
			stack = append(stack, -v)
			continue
		}
		b, okB := pop()
		a, okA := pop()
		if !okA || !okB {
			return 0, core.Errorf(core.KindValidation, "malformed expression")
		}
		switch t.op {
		case '+':
			stack = append(stack, a+b)
		case '-':
			stack = append(stack, a-b)
		case '*':
			stack = append(stack, a*b)
		case '/':
			if b == 0 {
				return 0, core.Errorf(core.KindValidation, "division by zero")
			}
			stack = append(stack, a/b)
		case '%':
			if b == 0 {
				return 0, core.Errorf(core.KindValidation, "division by zero")
			}
			stack = append(stack, math.Mod(a, b))
		case '^':
			stack = append(stack, math.Pow(a, b))
		}
	}
	if len(stack) != 1 {
		return 0, core.Errorf(core.KindValidation, "malformed expression")
	}
	return stack[0], nil
}

func formatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return fmt.Sprintf("%g", v)
}

var _ core.Tool = (*Calculator)(nil)
