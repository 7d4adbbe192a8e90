package api

type (
	// RunStatus represents the lifecycle state of a workflow run
	RunStatus string

	// ErrorKind classifies a run-time failure
	ErrorKind string

	// StepResult records the outcome of one attempted step, including the
	// retries actually consumed and the wall-clock duration in milliseconds
	StepResult struct {
		StepID   ID     `json:"step_id"`
		Success  bool   `json:"success"`
		Skipped  bool   `json:"skipped,omitempty"`
		Output   Args   `json:"output,omitempty"`
		Error    string `json:"error,omitempty"`
		Duration int64  `json:"duration"`
		Retries  int    `json:"retries"`
	}

	// WorkflowError describes one failure observed during a run
	WorkflowError struct {
		StepID  ID        `json:"step_id,omitempty"`
		Kind    ErrorKind `json:"kind"`
		Message string    `json:"message"`
	}

	// WorkflowResult aggregates one run: final status, the execution
	// context's output mapping at run end, all errors, and one StepResult
	// per attempted step in execution order. Every run produces a result,
	// even on failure; outputs accumulated before a fatal step remain
	// visible here
	WorkflowResult struct {
		RunID      RunID            `json:"run_id"`
		WorkflowID ID               `json:"workflow_id"`
		Status     RunStatus        `json:"status"`
		Success    bool             `json:"success"`
		Outputs    Args             `json:"outputs"`
		Errors     []*WorkflowError `json:"errors,omitempty"`
		Duration   int64            `json:"duration"`
		Steps      []*StepResult    `json:"steps"`
	}
)

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunAborted   RunStatus = "aborted"
)

const (
	// ErrorKindInput marks a required input left unresolved
	ErrorKindInput ErrorKind = "input"

	// ErrorKindOperation marks a failed operation dispatch
	ErrorKindOperation ErrorKind = "operation"

	// ErrorKindCondition marks a malformed condition expression. Recorded
	// as a diagnostic on the run; never fatal on its own
	ErrorKindCondition ErrorKind = "condition"

	// ErrorKindCancellation marks a run terminated by abort
	ErrorKindCancellation ErrorKind = "cancellation"

	// ErrorKindBatchTarget wraps any failure scoped to one batch target
	ErrorKindBatchTarget ErrorKind = "batch-target"

	// ErrorKindValidation marks a workflow rejected before execution
	ErrorKindValidation ErrorKind = "validation"
)

// NewStepResult creates a successful, empty result for the given step
func NewStepResult(stepID ID) *StepResult {
	return &StepResult{
		StepID:  stepID,
		Success: true,
	}
}

// WithError marks the result failed with the given error
func (sr *StepResult) WithError(err error) *StepResult {
	sr.Success = false
	sr.Error = err.Error()
	return sr
}

// Finished reports whether the run reached a terminal status
func (s RunStatus) Finished() bool {
	return s == RunCompleted || s == RunFailed || s == RunAborted
}

// AddError appends a WorkflowError for the given step and kind
func (wr *WorkflowResult) AddError(stepID ID, kind ErrorKind, msg string) {
	wr.Errors = append(wr.Errors, &WorkflowError{
		StepID:  stepID,
		Kind:    kind,
		Message: msg,
	})
}

// FirstError returns the first recorded error, if any
func (wr *WorkflowResult) FirstError() (*WorkflowError, bool) {
	if len(wr.Errors) == 0 {
		return nil, false
	}
	return wr.Errors[0], true
}

// HasFatalErrors reports whether any recorded error is more than a
// condition diagnostic
func (wr *WorkflowResult) HasFatalErrors() bool {
	for _, e := range wr.Errors {
		if e.Kind != ErrorKindCondition {
			return true
		}
	}
	return false
}
