package tests

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bwerff/ExcelAiRate-sub000/internal/assert/helpers"
	"github.com/bwerff/ExcelAiRate-sub000/pkg/api"
)

// TestIfConditionSkipsStep tests that an unsatisfied if condition skips
// the step without dispatching its operation
func TestIfConditionSkipsStep(t *testing.T) {
	env := helpers.NewTestEngine(t)
	defer env.Cleanup()

	step := helpers.NewConditionStep(
		"step-a", "op-a", api.ConditionIf, "$enabled == true",
	)
	wf := helpers.NewTestWorkflow("if-skip", api.StrategyStop, step)

	res, err := env.Engine.RunWorkflow(
		context.Background(), wf, api.Args{"enabled": false},
	)
	assert.NoError(t, err)
	assert.Equal(t, api.RunCompleted, res.Status)

	assert.Len(t, res.Steps, 1)
	assert.True(t, res.Steps[0].Skipped)
	assert.False(t, env.Dispatcher.WasInvoked("op-a"))
}

// TestIfConditionRunsWhenSatisfied tests the inverse of the skip case
func TestIfConditionRunsWhenSatisfied(t *testing.T) {
	env := helpers.NewTestEngine(t)
	defer env.Cleanup()

	step := helpers.NewConditionStep(
		"step-a", "op-a", api.ConditionIf, "$score >= 50",
	)
	wf := helpers.NewTestWorkflow("if-runs", api.StrategyStop, step)

	res, err := env.Engine.RunWorkflow(
		context.Background(), wf, api.Args{"score": 80},
	)
	assert.NoError(t, err)
	assert.False(t, res.Steps[0].Skipped)
	assert.True(t, env.Dispatcher.WasInvoked("op-a"))
}

// TestUnlessConditionInverts tests that unless skips when its expression
// holds and runs when it does not
func TestUnlessConditionInverts(t *testing.T) {
	env := helpers.NewTestEngine(t)
	defer env.Cleanup()

	step := helpers.NewConditionStep(
		"step-a", "op-a", api.ConditionUnless, "$dryRun == true",
	)
	wf := helpers.NewTestWorkflow("unless", api.StrategyStop, step)

	res, err := env.Engine.RunWorkflow(
		context.Background(), wf, api.Args{"dryRun": true},
	)
	assert.NoError(t, err)
	assert.True(t, res.Steps[0].Skipped)
	assert.False(t, env.Dispatcher.WasInvoked("op-a"))

	res, err = env.Engine.RunWorkflow(
		context.Background(), wf, api.Args{"dryRun": false},
	)
	assert.NoError(t, err)
	assert.False(t, res.Steps[0].Skipped)
	assert.True(t, env.Dispatcher.WasInvoked("op-a"))
}

// TestMalformedConditionCountsAsUnsatisfied tests that an expression the
// evaluator rejects gates the step the same way a false result would,
// rather than failing the run
func TestMalformedConditionCountsAsUnsatisfied(t *testing.T) {
	env := helpers.NewTestEngine(t)
	defer env.Cleanup()

	step := helpers.NewConditionStep(
		"step-a", "op-a", api.ConditionIf, "process.exit(1)",
	)
	wf := helpers.NewTestWorkflow("bad-expr", api.StrategyStop, step)

	res, err := env.Engine.RunWorkflow(context.Background(), wf, nil)
	assert.NoError(t, err)
	assert.Equal(t, api.RunCompleted, res.Status)
	assert.True(t, res.Success)
	assert.True(t, res.Steps[0].Skipped)
	assert.False(t, env.Dispatcher.WasInvoked("op-a"))

	// the rejected expression surfaces as a condition diagnostic without
	// failing the run
	first, ok := res.FirstError()
	assert.True(t, ok)
	assert.Equal(t, api.ErrorKindCondition, first.Kind)
	assert.Equal(t, api.ID("step-a"), first.StepID)
	assert.NotEmpty(t, res.Steps[0].Error)
}

// TestWhileConditionGatesSingleExecution tests that a while condition is
// evaluated once per call: false skips the step, true dispatches the
// operation exactly once with no internal looping
func TestWhileConditionGatesSingleExecution(t *testing.T) {
	env := helpers.NewTestEngine(t)
	defer env.Cleanup()

	step := helpers.NewConditionStep(
		"step-a", "op-a", api.ConditionWhile, "$remaining > 0",
	)
	wf := helpers.NewTestWorkflow("while-gate", api.StrategyStop, step)

	res, err := env.Engine.RunWorkflow(
		context.Background(), wf, api.Args{"remaining": 0},
	)
	assert.NoError(t, err)
	assert.Equal(t, api.RunCompleted, res.Status)
	assert.True(t, res.Steps[0].Skipped)
	assert.False(t, env.Dispatcher.WasInvoked("op-a"))

	res, err = env.Engine.RunWorkflow(
		context.Background(), wf, api.Args{"remaining": 3},
	)
	assert.NoError(t, err)
	assert.False(t, res.Steps[0].Skipped)
	assert.Equal(t, 1, env.Dispatcher.Invocations("op-a"))
}

// TestSkippedStepProducesNoOutputs tests that a skipped step leaves the
// execution context untouched
func TestSkippedStepProducesNoOutputs(t *testing.T) {
	env := helpers.NewTestEngine(t)
	defer env.Cleanup()

	env.Dispatcher.SetResponse("op-a", api.Args{"value": "ignored"})

	step := helpers.NewOutputStep("step-a", "op-a", "value", "result")
	step.Conditions = []*api.StepCondition{{
		Type:       api.ConditionIf,
		Expression: "$run == true",
	}}
	wf := helpers.NewTestWorkflow("skip-outputs", api.StrategyStop, step)

	res, err := env.Engine.RunWorkflow(
		context.Background(), wf, api.Args{"run": false},
	)
	assert.NoError(t, err)
	assert.True(t, res.Steps[0].Skipped)
	assert.Empty(t, res.Outputs)
}
