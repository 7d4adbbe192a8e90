package api

type (
	// RunWorkflowRequest starts a run of an inline workflow definition
	RunWorkflowRequest struct {
		Workflow  *Workflow `json:"workflow"`
		Variables Args      `json:"variables,omitempty"`
	}

	// RunStoredRequest starts a run of a stored workflow by ID
	RunStoredRequest struct {
		Variables Args `json:"variables,omitempty"`
	}

	// RunStepRequest runs a single step outside any workflow
	RunStepRequest struct {
		Step      *Step `json:"step"`
		Variables Args  `json:"variables,omitempty"`
	}

	// RunBatchRequest replays a workflow or a lone step over many targets.
	// Exactly one of Workflow and Step must be set
	RunBatchRequest struct {
		Targets  []BatchTarget `json:"targets"`
		Workflow *Workflow     `json:"workflow,omitempty"`
		Step     *Step         `json:"step,omitempty"`
		Parallel bool          `json:"parallel,omitempty"`
	}

	// BatchResponse carries one WorkflowResult per processed target
	BatchResponse struct {
		Results []*WorkflowResult `json:"results"`
		Errors  []*BatchError     `json:"errors,omitempty"`
		Count   int               `json:"count"`
	}

	// WorkflowSavedResponse is returned when a workflow save succeeds
	WorkflowSavedResponse struct {
		ID      ID     `json:"id"`
		Message string `json:"message"`
	}

	// WorkflowsListResponse contains stored workflow summaries
	WorkflowsListResponse struct {
		Workflows []*WorkflowDigest `json:"workflows"`
		Count     int               `json:"count"`
	}

	// WorkflowDigest provides summary information about a stored workflow
	WorkflowDigest struct {
		ID        ID            `json:"id"`
		Name      string        `json:"name,omitempty"`
		StepCount int           `json:"step_count"`
		Strategy  ErrorStrategy `json:"strategy"`
	}

	// AbortResponse reports whether an abort request found a live run
	AbortResponse struct {
		RunID   RunID `json:"run_id"`
		Aborted bool  `json:"aborted"`
	}

	// HealthResponse provides service health information
	HealthResponse struct {
		Service    string `json:"service"`
		Version    string `json:"version"`
		Status     string `json:"status"`
		ActiveRuns int    `json:"active_runs"`
	}

	// MessageResponse contains a simple message string
	MessageResponse struct {
		Message string `json:"message"`
	}

	// ErrorResponse contains error details for failed requests
	ErrorResponse struct {
		Error  string `json:"error"`
		Status int    `json:"status,omitempty"`
	}
)

// Digest summarizes a workflow for listing responses
func (w *Workflow) Digest() *WorkflowDigest {
	return &WorkflowDigest{
		ID:        w.ID,
		Name:      w.Name,
		StepCount: len(w.Steps),
		Strategy:  w.Strategy(),
	}
}
