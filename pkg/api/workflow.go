package api

import (
	"errors"
	"fmt"

	"github.com/bwerff/ExcelAiRate-sub000/pkg/util"
)

type (
	// ErrorStrategy is the workflow-level policy governing how a step
	// failure affects the rest of the run
	ErrorStrategy string

	// Workflow is an ordered, named sequence of steps plus a run-level
	// error strategy and initial variable bindings. A workflow is never
	// mutated once an execution begins
	Workflow struct {
		ID            ID            `json:"id"`
		Name          string        `json:"name,omitempty"`
		Steps         []*Step       `json:"steps"`
		Variables     Args          `json:"variables,omitempty"`
		ErrorHandling ErrorStrategy `json:"error_handling,omitempty"`
	}
)

const (
	// StrategyStop aborts the run at the first step failure
	StrategyStop ErrorStrategy = "stop"

	// StrategyContinue records step failures and proceeds to the next step
	StrategyContinue ErrorStrategy = "continue"

	// StrategyRetry proceeds through failures; per-step retry policies
	// govern re-attempts
	StrategyRetry ErrorStrategy = "retry"

	// StrategyFallback is accepted as an alias of StrategyContinue; no
	// distinct fallback-target semantics are defined
	StrategyFallback ErrorStrategy = "fallback"
)

var (
	ErrWorkflowIDEmpty    = errors.New("workflow ID empty")
	ErrWorkflowNoSteps    = errors.New("workflow has no steps")
	ErrDuplicateStepID    = errors.New("duplicate step ID")
	ErrInvalidStrategy    = errors.New("invalid error strategy")
	ErrStepNil            = errors.New("workflow contains nil step")
	ErrUnknownOutputStep  = errors.New("input references unknown step output")
	ErrForwardOutputInput = errors.New("input references a later step's output")
)

var validStrategies = util.SetOf(
	StrategyStop,
	StrategyContinue,
	StrategyRetry,
	StrategyFallback,
)

// Validate checks workflow structure: identity, step uniqueness, error
// strategy, and that previous-output inputs only reference earlier steps
func (w *Workflow) Validate() error {
	if w.ID == "" {
		return ErrWorkflowIDEmpty
	}
	if len(w.Steps) == 0 {
		return ErrWorkflowNoSteps
	}
	if w.ErrorHandling != "" && !validStrategies.Contains(w.ErrorHandling) {
		return fmt.Errorf("%w: %s", ErrInvalidStrategy, w.ErrorHandling)
	}

	seen := util.Set[ID]{}
	for _, step := range w.Steps {
		if step == nil {
			return ErrStepNil
		}
		if err := step.Validate(); err != nil {
			return err
		}
		if seen.Contains(step.ID) {
			return fmt.Errorf("%w: %s", ErrDuplicateStepID, step.ID)
		}
		seen.Add(step.ID)
	}

	return w.validateOutputRefs()
}

// validateOutputRefs rejects previous-output inputs that name a step not
// declared earlier in the sequence. Steps execute strictly in order, so a
// forward reference could never resolve
func (w *Workflow) validateOutputRefs() error {
	completed := util.Set[ID]{}
	for _, step := range w.Steps {
		for _, in := range step.Inputs {
			if in.Type != InputPreviousOutput {
				continue
			}
			ref := OutputRef(in.Source)
			srcID, _, ok := ref.Split()
			if !ok {
				continue
			}
			if _, ok := w.StepByID(srcID); !ok {
				return fmt.Errorf("%w: %s", ErrUnknownOutputStep, ref)
			}
			if !completed.Contains(srcID) {
				return fmt.Errorf("%w: %s", ErrForwardOutputInput, ref)
			}
		}
		completed.Add(step.ID)
	}
	return nil
}

// Strategy returns the workflow's effective error strategy, defaulting to
// StrategyStop when none is declared
func (w *Workflow) Strategy() ErrorStrategy {
	if w.ErrorHandling == "" {
		return StrategyStop
	}
	return w.ErrorHandling
}

// HaltsOnFailure reports whether a step failure under this strategy aborts
// the remainder of the run
func (s ErrorStrategy) HaltsOnFailure() bool {
	return s == StrategyStop || s == ""
}

// HaltsOnFailure reports whether a step failure aborts the rest of the run
// under the workflow's effective strategy
func (w *Workflow) HaltsOnFailure() bool {
	return w.Strategy().HaltsOnFailure()
}

// StepByID returns the declared step with the given ID, if any
func (w *Workflow) StepByID(id ID) (*Step, bool) {
	for _, step := range w.Steps {
		if step.ID == id {
			return step, true
		}
	}
	return nil, false
}

// WrapStep builds a synthetic single-step workflow around a lone step, used
// by the batch runner. The wrapper always continues on error so one failed
// target cannot halt the batch by itself
func WrapStep(step *Step) *Workflow {
	return &Workflow{
		ID:            SanitizeID(ID("single-" + string(step.ID))),
		Name:          step.Name,
		Steps:         []*Step{step},
		ErrorHandling: StrategyContinue,
	}
}
