package guard

import (
	"context"
	"fmt"
)

// Evaluator judges a prompt/response exchange against safety policies.
// Evaluation is advisory: callers log failures and never let the outcome
// block or alter a reply.
type Evaluator interface {
	Evaluate(ctx context.Context, prompt, response string) error
}

// EvaluationError wraps a failed evaluation call, whether transport,
// authentication, or a non-2xx verdict endpoint response.
type EvaluationError struct {
	Err error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluation: %v", e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }
