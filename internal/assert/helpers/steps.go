package helpers

import (
	"github.com/bwerff/ExcelAiRate-sub000/pkg/api"
)

// NewTestStep creates a minimal data-transform step
func NewTestStep(id, operation string) *api.Step {
	return &api.Step{
		ID:        api.ID(id),
		Name:      "Test Step",
		Type:      api.StepTypeDataTransform,
		Operation: operation,
	}
}

// NewRetryStep creates a step with the given retry policy
func NewRetryStep(
	id, operation string, maxAttempts int, delayMs int64, multiplier float64,
) *api.Step {
	step := NewTestStep(id, operation)
	step.Retry = &api.RetryPolicy{
		MaxAttempts:       maxAttempts,
		DelayMs:           delayMs,
		BackoffMultiplier: multiplier,
	}
	return step
}

// NewOutputStep creates a step declaring one value output bound to the
// given context target
func NewOutputStep(id, operation string, name api.Name, target string) *api.Step {
	step := NewTestStep(id, operation)
	step.Outputs = []*api.StepOutput{{
		Name:   name,
		Type:   api.OutputValue,
		Target: target,
	}}
	return step
}

// NewRefInputStep creates a step with one required input resolved from a
// previous step's output
func NewRefInputStep(
	id, operation string, name api.Name, ref api.OutputRef,
) *api.Step {
	step := NewTestStep(id, operation)
	step.Inputs = []*api.StepInput{{
		Name:     name,
		Type:     api.InputPreviousOutput,
		Source:   string(ref),
		Required: true,
	}}
	return step
}

// NewConditionStep creates a step gated by a single condition
func NewConditionStep(
	id, operation string, t api.ConditionType, expression string,
) *api.Step {
	step := NewTestStep(id, operation)
	step.Conditions = []*api.StepCondition{{
		Type:       t,
		Expression: expression,
	}}
	return step
}

// NewTestWorkflow assembles a workflow from the given steps
func NewTestWorkflow(
	id string, strategy api.ErrorStrategy, steps ...*api.Step,
) *api.Workflow {
	return &api.Workflow{
		ID:            api.ID(id),
		Name:          "Test Workflow",
		Steps:         steps,
		ErrorHandling: strategy,
	}
}
