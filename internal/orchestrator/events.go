package orchestrator

import (
	"time"
)

// EventType represents the type of orchestrator event.
type EventType string

const (
	// EventPhaseStarted indicates a pipeline phase has begun.
	EventPhaseStarted EventType = "phase_started"
	// EventPlanReady indicates planning produced a subtask list.
	EventPlanReady EventType = "plan_ready"
	// EventGateDeclined indicates a confirmation gate declined the plan.
	EventGateDeclined EventType = "gate_declined"
	// EventSubtaskStarted indicates a subtask began executing.
	EventSubtaskStarted EventType = "subtask_started"
	// EventSubtaskCompleted indicates a subtask finished successfully.
	EventSubtaskCompleted EventType = "subtask_completed"
	// EventSubtaskFailed indicates a subtask failed.
	EventSubtaskFailed EventType = "subtask_failed"
	// EventRunDone indicates the whole run reached a final status.
	EventRunDone EventType = "run_done"
)

// Event is emitted as the pipeline progresses. Consumers use it for
// progress display; dropping events never affects the run.
type Event struct {
	// Type is the kind of event.
	Type EventType
	// RunID identifies the run.
	RunID string
	// Phase is the pipeline phase, if applicable.
	Phase Phase
	// Subtask is the subtask name, if applicable.
	Subtask string
	// Model is the model actually used, for subtask events.
	Model string
	// Message provides additional context.
	Message string
	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// emit sends an event to the sink without ever blocking the pipeline.
func (o *Orchestrator) emit(event Event) {
	if o.events == nil {
		return
	}
	event.Timestamp = time.Now().UTC()
	select {
	case o.events <- event:
	default:
	}
}
