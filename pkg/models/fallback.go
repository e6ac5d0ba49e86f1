package models

import "time"

// SpawnErrorKind classifies a failed spawn attempt. The kind decides whether
// the engine retries the same model or advances down the fallback chain.
type SpawnErrorKind string

const (
	// ErrRateLimit means the backend reported throttling. Retry the same
	// model after a delay before advancing.
	ErrRateLimit SpawnErrorKind = "rate_limit"
	// ErrTimeout means the attempt hit its per-attempt deadline.
	ErrTimeout SpawnErrorKind = "timeout"
	// ErrModelUnavailable means the requested model does not exist or is
	// disabled. Advance immediately, a retry cannot help.
	ErrModelUnavailable SpawnErrorKind = "model_unavailable"
	// ErrUnknown covers everything else.
	ErrUnknown SpawnErrorKind = "unknown"
)

// Valid returns true if the kind is a known value.
func (k SpawnErrorKind) Valid() bool {
	switch k {
	case ErrRateLimit, ErrTimeout, ErrModelUnavailable, ErrUnknown:
		return true
	default:
		return false
	}
}

// FallbackDecision records one model-to-model advance in the fallback chain.
// Decisions are appended to an audit log before the next model is tried and
// are never mutated afterwards.
type FallbackDecision struct {
	// Timestamp is when the advance was decided.
	Timestamp time.Time `json:"timestamp"`
	// Label identifies the spawn (session label or subtask name).
	Label string `json:"label"`
	// OriginalModel is the model that was abandoned.
	OriginalModel string `json:"original_model"`
	// FallbackModel is the model tried next, empty when the chain ran out.
	FallbackModel string `json:"fallback_model,omitempty"`
	// ErrorType is the classified failure that forced the advance.
	ErrorType SpawnErrorKind `json:"error_type"`
	// Attempt is the overall attempt count at decision time.
	Attempt int `json:"attempt"`
	// Reason is a short human-readable explanation.
	Reason string `json:"reason"`
}
