package runtime

import (
	"fmt"

	"github.com/expr-lang/expr"
)

// Custom expression functions available to every gate
var exprFunctions = []expr.Option{
	expr.Function(
		"truthy",
		func(params ...any) (any, error) {
			return truthy(params[0]), nil
		},
		new(func(any) bool),
	),
}

// ExpressionEvaluator evaluates screen gate expressions using the expr-lang
// library. Submitted fields are exposed as top-level variables.
type ExpressionEvaluator struct{}

func NewExpressionEvaluator() *ExpressionEvaluator {
	return &ExpressionEvaluator{}
}

func (e *ExpressionEvaluator) options(env map[string]any) []expr.Option {
	// NOTE: expr.Env MUST come before AllowUndefinedVariables for it to work
	opts := []expr.Option{
		expr.Env(env),
		expr.AllowUndefinedVariables(), // Missing fields evaluate to nil
		expr.AsBool(),
	}
	return append(opts, exprFunctions...)
}

// Check compiles expression without running it.
func (e *ExpressionEvaluator) Check(expression string) error {
	_, err := expr.Compile(expression, e.options(map[string]any{})...)
	return err
}

// EvalBool runs expression against data and returns its boolean result.
func (e *ExpressionEvaluator) EvalBool(expression string, data map[string]any) (bool, error) {
	env := make(map[string]any, len(data)+1)
	for k, v := range data {
		env[k] = v
	}
	// null as alias for nil (JSON/YAML compatibility)
	env["null"] = nil

	program, err := expr.Compile(expression, e.options(env)...)
	if err != nil {
		return false, err
	}

	result, err := expr.Run(program, env)
	if err != nil {
		return false, err
	}

	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("expression %s evaluated to %T, expected boolean", expression, result)
	}
	return b, nil
}
