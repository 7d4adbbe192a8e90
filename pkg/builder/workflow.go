package builder

import (
	"github.com/bwerff/ExcelAiRate-sub000/pkg/api"
)

// Workflow is a builder for creating workflow definitions
type Workflow struct {
	id       api.ID
	name     string
	steps    []*api.Step
	vars     api.Args
	strategy api.ErrorStrategy
}

// NewWorkflow creates a workflow builder with the given ID
func NewWorkflow(id string) *Workflow {
	return &Workflow{
		id: api.SanitizeID(api.ID(id)),
	}
}

// WithName sets the workflow's display name
func (w *Workflow) WithName(name string) *Workflow {
	res := *w
	res.name = name
	return &res
}

// WithStrategy sets how the workflow responds to step failures
func (w *Workflow) WithStrategy(strategy api.ErrorStrategy) *Workflow {
	res := *w
	res.strategy = strategy
	return &res
}

// WithVariable seeds an initial variable binding
func (w *Workflow) WithVariable(name api.Name, value any) *Workflow {
	res := *w
	res.vars = w.vars.Set(name, value)
	return &res
}

// Step appends a built step definition
func (w *Workflow) Step(step *api.Step) *Workflow {
	res := *w
	res.steps = append(cloneSlice(w.steps), step)
	return &res
}

// StepFrom builds the given step builder and appends the result. The
// build error, if any, surfaces from Build
func (w *Workflow) StepFrom(s *Step) (*Workflow, error) {
	step, err := s.Build()
	if err != nil {
		return nil, err
	}
	return w.Step(step), nil
}

// Build assembles and validates the workflow definition
func (w *Workflow) Build() (*api.Workflow, error) {
	wf := &api.Workflow{
		ID:            w.id,
		Name:          w.name,
		Steps:         w.steps,
		Variables:     w.vars,
		ErrorHandling: w.strategy,
	}
	if err := wf.Validate(); err != nil {
		return nil, err
	}
	return wf, nil
}
