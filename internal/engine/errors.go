package engine

import (
	"errors"
	"fmt"

	"github.com/bwerff/ExcelAiRate-sub000/pkg/api"
)

type (
	// StepError wraps a step failure with its taxonomy kind so the
	// orchestrator and batch runner can classify it without string
	// matching
	StepError struct {
		Err    error
		StepID api.ID
		Kind   api.ErrorKind
	}

	// TargetError is returned when a batch halts, naming the target whose
	// failure stopped it. It unwraps to ErrBatchAborted so callers can
	// still match the sentinel
	TargetError struct {
		Err    error
		Target api.BatchTarget
	}
)

var (
	ErrInputMissing  = errors.New("required input unresolved")
	ErrRunCancelled  = errors.New("run cancelled")
	ErrRunNotFound   = errors.New("run not found")
	ErrNilWorkflow   = errors.New("workflow is nil")
	ErrNilStep       = errors.New("step is nil")
	ErrNoBatchTarget = errors.New("batch has no targets")
	ErrBatchAborted  = errors.New("batch aborted")
)

func newStepError(stepID api.ID, kind api.ErrorKind, err error) *StepError {
	return &StepError{StepID: stepID, Kind: kind, Err: err}
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s: %s error: %v", e.StepID, e.Kind, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func (e *TargetError) Error() string {
	return fmt.Sprintf("target %s: %v", e.Target, e.Err)
}

func (e *TargetError) Unwrap() error {
	return e.Err
}

// kindOf classifies an error for the run's error list
func kindOf(err error) api.ErrorKind {
	var se *StepError
	if errors.As(err, &se) {
		return se.Kind
	}
	if errors.Is(err, ErrRunCancelled) {
		return api.ErrorKindCancellation
	}
	return api.ErrorKindOperation
}
