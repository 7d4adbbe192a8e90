package builder

import (
	"github.com/bwerff/ExcelAiRate-sub000/pkg/api"
)

// Step is a builder for creating and configuring workflow steps
type Step struct {
	id         api.ID
	name       string
	stepType   api.StepType
	operation  string
	inputs     []*api.StepInput
	outputs    []*api.StepOutput
	conditions []*api.StepCondition
	retry      *api.RetryPolicy
	timeout    int64
}

// NewStep creates a step builder for the given type and operation
func NewStep(stepType api.StepType, operation string) *Step {
	return &Step{
		stepType:  stepType,
		operation: operation,
	}
}

// WithID sets the step ID, overriding the ID derived from the step name
func (s *Step) WithID(id string) *Step {
	res := *s
	res.id = api.ID(id)
	return &res
}

// WithName sets the step name. If no ID is set, one is derived from it
func (s *Step) WithName(name string) *Step {
	res := *s
	res.name = name
	if res.id == "" && name != "" {
		res.id = api.SanitizeID(api.ID(name))
	}
	return &res
}

// Required declares a required input resolved from the given source
func (s *Step) Required(
	name api.Name, kind api.InputKind, source string,
) *Step {
	res := *s
	res.inputs = append(cloneSlice(s.inputs), &api.StepInput{
		Name:     name,
		Type:     kind,
		Source:   source,
		Required: true,
	})
	return &res
}

// Optional declares an optional input with a JSON-text default applied
// when the source yields nothing
func (s *Step) Optional(
	name api.Name, kind api.InputKind, source, defaultValue string,
) *Step {
	res := *s
	res.inputs = append(cloneSlice(s.inputs), &api.StepInput{
		Name:    name,
		Type:    kind,
		Source:  source,
		Default: defaultValue,
	})
	return &res
}

// Literal declares an input whose value is carried as JSON text
func (s *Step) Literal(name api.Name, value string) *Step {
	res := *s
	res.inputs = append(cloneSlice(s.inputs), &api.StepInput{
		Name:   name,
		Type:   api.InputLiteral,
		Source: value,
	})
	return &res
}

// Output declares a named output written to the given target
func (s *Step) Output(
	name api.Name, kind api.OutputKind, target string,
) *Step {
	res := *s
	res.outputs = append(cloneSlice(s.outputs), &api.StepOutput{
		Name:   name,
		Type:   kind,
		Target: target,
	})
	return &res
}

// If gates the step on the expression evaluating true
func (s *Step) If(expression string) *Step {
	return s.condition(api.ConditionIf, expression)
}

// Unless gates the step on the expression evaluating false
func (s *Step) Unless(expression string) *Step {
	return s.condition(api.ConditionUnless, expression)
}

// While gates the step on the expression evaluating true
func (s *Step) While(expression string) *Step {
	return s.condition(api.ConditionWhile, expression)
}

func (s *Step) condition(t api.ConditionType, expression string) *Step {
	res := *s
	res.conditions = append(cloneSlice(s.conditions), &api.StepCondition{
		Type:       t,
		Expression: expression,
	})
	return &res
}

// WithRetry sets the step's retry policy
func (s *Step) WithRetry(
	maxAttempts int, delayMs int64, multiplier float64,
) *Step {
	res := *s
	res.retry = &api.RetryPolicy{
		MaxAttempts:       maxAttempts,
		DelayMs:           delayMs,
		BackoffMultiplier: multiplier,
	}
	return &res
}

// WithTimeout bounds each dispatch attempt in milliseconds
func (s *Step) WithTimeout(ms int64) *Step {
	res := *s
	res.timeout = ms
	return &res
}

// Build assembles and validates the step definition
func (s *Step) Build() (*api.Step, error) {
	step := &api.Step{
		ID:         s.id,
		Name:       s.name,
		Type:       s.stepType,
		Operation:  s.operation,
		Inputs:     s.inputs,
		Outputs:    s.outputs,
		Conditions: s.conditions,
		Retry:      s.retry,
		TimeoutMs:  s.timeout,
	}
	if err := step.Validate(); err != nil {
		return nil, err
	}
	return step, nil
}

func cloneSlice[T any](in []T) []T {
	res := make([]T, len(in))
	copy(res, in)
	return res
}
