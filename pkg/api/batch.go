package api

type (
	// BatchTarget is an opaque identifier for what one batch iteration runs
	// against: a range address or a named scope. The batch layer does not
	// interpret it; the engine injects it into the per-run context as the
	// currentItem and currentRange variables
	BatchTarget string

	// BatchProgress reports batch advancement to the caller's callback
	BatchProgress struct {
		Target    BatchTarget `json:"target,omitempty"`
		Completed int         `json:"completed"`
		Total     int         `json:"total"`
		Percent   float64     `json:"percent"`
	}

	// BatchError reports a per-target failure, always carrying the
	// batch-target error kind. CanContinue derives from the workflow's
	// error strategy and the underlying failure; when false, the batch
	// aborts without starting further targets
	BatchError struct {
		Target      BatchTarget `json:"target"`
		Err         string      `json:"error"`
		Kind        ErrorKind   `json:"kind"`
		CanContinue bool        `json:"can_continue"`
	}
)

// Variable names injected into each batch run's execution context
const (
	CurrentItemVar  Name = "currentItem"
	CurrentRangeVar Name = "currentRange"
)

// MaxBatchParallel bounds how many targets may be in flight at once when a
// batch runs in parallel mode
const MaxBatchParallel = 5

// NewBatchProgress builds a progress report with the percentage computed
// from completed and total
func NewBatchProgress(
	target BatchTarget, completed, total int,
) BatchProgress {
	percent := 100.0
	if total > 0 {
		percent = float64(completed) / float64(total) * 100
	}
	return BatchProgress{
		Target:    target,
		Completed: completed,
		Total:     total,
		Percent:   percent,
	}
}
