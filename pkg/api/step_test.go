package api_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bwerff/ExcelAiRate-sub000/pkg/api"
)

func TestBackoffGrowth(t *testing.T) {
	policy := &api.RetryPolicy{
		MaxAttempts:       4,
		DelayMs:           100,
		BackoffMultiplier: 2.0,
	}

	assert.Equal(t, int64(0), policy.Backoff(1))
	assert.Equal(t, int64(100), policy.Backoff(2))
	assert.Equal(t, int64(200), policy.Backoff(3))
	assert.Equal(t, int64(400), policy.Backoff(4))
}

func TestBackoffZeroMultiplierIsFixed(t *testing.T) {
	policy := &api.RetryPolicy{MaxAttempts: 3, DelayMs: 50}

	assert.Equal(t, int64(50), policy.Backoff(2))
	assert.Equal(t, int64(50), policy.Backoff(3))
}

func TestMaxAttemptsDefaultsToOne(t *testing.T) {
	step := &api.Step{ID: "s", Type: api.StepTypeValidation, Operation: "x"}
	assert.Equal(t, 1, step.MaxAttempts())

	step.Retry = &api.RetryPolicy{MaxAttempts: 3}
	assert.Equal(t, 3, step.MaxAttempts())
}

func TestStepValidation(t *testing.T) {
	step := &api.Step{
		ID:        "transform",
		Type:      api.StepTypeDataTransform,
		Operation: "identity",
	}
	assert.NoError(t, step.Validate())

	bad := *step
	bad.Type = "mystery"
	assert.ErrorIs(t, bad.Validate(), api.ErrInvalidStepType)

	bad = *step
	bad.Operation = ""
	assert.ErrorIs(t, bad.Validate(), api.ErrStepOperationEmpty)

	bad = *step
	bad.Retry = &api.RetryPolicy{MaxAttempts: 0}
	assert.ErrorIs(t, bad.Validate(), api.ErrInvalidMaxAttempts)

	bad = *step
	bad.Inputs = []*api.StepInput{{Name: "x", Type: "mystery", Source: "y"}}
	assert.ErrorIs(t, bad.Validate(), api.ErrInvalidInputKind)

	bad = *step
	bad.Conditions = []*api.StepCondition{{Type: api.ConditionIf}}
	assert.ErrorIs(t, bad.Validate(), api.ErrConditionExprEmpty)
}

func TestOutputRefSplit(t *testing.T) {
	stepID, output, ok := api.OutputRef("step-a.total").Split()
	assert.True(t, ok)
	assert.Equal(t, api.ID("step-a"), stepID)
	assert.Equal(t, api.Name("total"), output)

	_, _, ok = api.OutputRef("no-separator").Split()
	assert.False(t, ok)

	_, _, ok = api.OutputRef(".leading").Split()
	assert.False(t, ok)
}

func TestSanitizeID(t *testing.T) {
	assert.Equal(t, api.ID("my-step"), api.SanitizeID(api.ID("My Step")))
	assert.Equal(t, api.ID("ab"), api.SanitizeID(api.ID("-a$b-")))
}
