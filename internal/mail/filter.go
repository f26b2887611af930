package mail

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"
)

// Filter is an optional local predicate applied to fetched messages
// before pipeline execution, for controlled re-processing and testing.
// It narrows the batch only; the watermark still advances over filtered
// messages because they were fetched.
type Filter struct {
	program cel.Program
}

func NewFilter(expression string) (*Filter, error) {
	env, err := cel.NewEnv(
		cel.Variable("id", cel.StringType),
		cel.Variable("subject", cel.StringType),
		cel.Variable("sender", cel.StringType),
		cel.Variable("timestamp", cel.TimestampType),
		cel.Variable("body", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile filter expression: %w", issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("filter expression must return bool, got %v", ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program: %w", err)
	}

	return &Filter{program: program}, nil
}

func (f *Filter) Match(ctx context.Context, msg RawMessage) (bool, error) {
	vars := map[string]interface{}{
		"id":        msg.ID,
		"subject":   msg.Subject,
		"sender":    msg.Sender,
		"timestamp": msg.Timestamp,
		"body":      msg.Body,
	}

	result, _, err := f.program.ContextEval(ctx, vars)
	if err != nil {
		return false, fmt.Errorf("failed to evaluate filter expression: %w", err)
	}

	boolVal, ok := result.Value().(bool)
	if !ok {
		return false, fmt.Errorf("filter expression did not return bool, got %T", result.Value())
	}

	return boolVal, nil
}
