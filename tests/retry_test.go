package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bwerff/ExcelAiRate-sub000/internal/assert/helpers"
	"github.com/bwerff/ExcelAiRate-sub000/pkg/api"
)

// TestRetrySucceedsAfterTransientFailures tests that a step with a retry
// policy recovers from transient failures, and that the exponential
// backoff waits grow per attempt
func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	env := helpers.NewTestEngine(t)
	defer env.Cleanup()

	env.Dispatcher.FailTimes("op-a", 2, nil)

	step := helpers.NewRetryStep("step-a", "op-a", 3, 100, 2.0)
	wf := helpers.NewTestWorkflow("retry-recovers", api.StrategyStop, step)

	res, err := env.Engine.RunWorkflow(context.Background(), wf, nil)
	assert.NoError(t, err)
	assert.Equal(t, api.RunCompleted, res.Status)

	assert.Equal(t, 3, env.Dispatcher.Invocations("op-a"))
	assert.Equal(t, 2, res.Steps[0].Retries)

	// 100ms before attempt 2, 200ms before attempt 3
	waits := env.RecordedWaits()
	assert.Equal(t, []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
	}, waits)
}

// TestRetryExhaustion tests that a persistently failing step consumes its
// full attempt budget and then fails the run
func TestRetryExhaustion(t *testing.T) {
	env := helpers.NewTestEngine(t)
	defer env.Cleanup()

	env.Dispatcher.SetError("op-a", errors.New("always fails"))

	step := helpers.NewRetryStep("step-a", "op-a", 3, 10, 1.0)
	wf := helpers.NewTestWorkflow("retry-exhausts", api.StrategyStop, step)

	res, err := env.Engine.RunWorkflow(context.Background(), wf, nil)
	assert.NoError(t, err)
	assert.Equal(t, api.RunFailed, res.Status)

	assert.Equal(t, 3, env.Dispatcher.Invocations("op-a"))
	assert.Equal(t, 2, res.Steps[0].Retries)
	assert.False(t, res.Steps[0].Success)
}

// TestMissingRequiredInputNotRetried tests that an unresolvable required
// input fails immediately; retrying could never produce the value
func TestMissingRequiredInputNotRetried(t *testing.T) {
	env := helpers.NewTestEngine(t)
	defer env.Cleanup()

	step := helpers.NewRetryStep("step-a", "op-a", 5, 10, 1.0)
	step.Inputs = []*api.StepInput{{
		Name:     "amount",
		Type:     api.InputVariable,
		Source:   "never-set",
		Required: true,
	}}
	wf := helpers.NewTestWorkflow("input-missing", api.StrategyStop, step)

	res, err := env.Engine.RunWorkflow(context.Background(), wf, nil)
	assert.NoError(t, err)
	assert.Equal(t, api.RunFailed, res.Status)

	assert.Equal(t, 0, env.Dispatcher.Invocations("op-a"))
	assert.Empty(t, env.RecordedWaits())

	first, ok := res.FirstError()
	assert.True(t, ok)
	assert.Equal(t, api.ErrorKindInput, first.Kind)
}

// TestStepWithoutRetryPolicyRunsOnce tests the default attempt budget
func TestStepWithoutRetryPolicyRunsOnce(t *testing.T) {
	env := helpers.NewTestEngine(t)
	defer env.Cleanup()

	env.Dispatcher.SetError("op-a", errors.New("boom"))

	wf := helpers.NewTestWorkflow("no-retry", api.StrategyStop,
		helpers.NewTestStep("step-a", "op-a"),
	)

	res, err := env.Engine.RunWorkflow(context.Background(), wf, nil)
	assert.NoError(t, err)
	assert.Equal(t, 1, env.Dispatcher.Invocations("op-a"))
	assert.Equal(t, 0, res.Steps[0].Retries)
}

// TestDefaultedInputUsedWhenSourceMissing tests that an optional input
// falls back to its JSON default instead of failing the step
func TestDefaultedInputUsedWhenSourceMissing(t *testing.T) {
	env := helpers.NewTestEngine(t)
	defer env.Cleanup()

	step := helpers.NewTestStep("step-a", "op-a")
	step.Inputs = []*api.StepInput{{
		Name:    "limit",
		Type:    api.InputVariable,
		Source:  "never-set",
		Default: "25",
	}}
	wf := helpers.NewTestWorkflow("defaulted", api.StrategyStop, step)

	res, err := env.Engine.RunWorkflow(context.Background(), wf, nil)
	assert.NoError(t, err)
	assert.Equal(t, api.RunCompleted, res.Status)

	calls := env.Dispatcher.CallsFor("op-a")
	assert.Len(t, calls, 1)
	assert.Equal(t, float64(25), calls[0].Inputs["limit"])
}
