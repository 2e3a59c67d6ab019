package testgen

import (
	"context"

	"judge_engine/problems"
)

// ValidationOutcome reports one validation only request.
type ValidationOutcome struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

// ValidateInput runs just the validation step of the generation pipeline
// against a caller supplied input. It follows the problem validation policy
// and has no side effects.
func (g *Generator) ValidateInput(
	ctx context.Context, problem *problems.Problem, input string,
) (*ValidationOutcome, error) {
	run, err := g.newProgramRun(ctx, problem, "validate_")
	if err != nil {
		return nil, err
	}
	defer run.close()

	err = run.checkInput(input)
	if err != nil {
		return &ValidationOutcome{Valid: false, Message: err.Error()}, nil
	}
	return &ValidationOutcome{Valid: true, Message: "input is valid"}, nil
}
