package api

type (
	// EventType identifies a run lifecycle event
	EventType string

	// Event is one engine occurrence streamed to WebSocket clients and the
	// progress hub. Data holds the event-specific payload
	Event struct {
		Type      EventType `json:"type"`
		RunID     RunID     `json:"run_id,omitempty"`
		StepID    ID        `json:"step_id,omitempty"`
		Data      any       `json:"data,omitempty"`
		Timestamp int64     `json:"timestamp"`
	}

	// SubscribeRequest filters the events a WebSocket client receives
	SubscribeRequest struct {
		Type  string      `json:"type"`
		RunID RunID       `json:"run_id,omitempty"`
		Types []EventType `json:"event_types,omitempty"`
	}
)

const (
	EventRunStarted    EventType = "run-started"
	EventRunCompleted  EventType = "run-completed"
	EventRunFailed     EventType = "run-failed"
	EventRunAborted    EventType = "run-aborted"
	EventStepStarted   EventType = "step-started"
	EventStepCompleted EventType = "step-completed"
	EventStepFailed    EventType = "step-failed"
	EventStepSkipped   EventType = "step-skipped"
	EventBatchProgress EventType = "batch-progress"
	EventBatchError    EventType = "batch-error"
)
