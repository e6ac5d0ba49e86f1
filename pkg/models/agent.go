package models

// AgentStatus is the lifecycle state of a spawned agent's workspace.
type AgentStatus string

const (
	// AgentPending is the sole initial state after workspace creation.
	AgentPending AgentStatus = "pending"
	// AgentRunning means the spawn backend has been invoked.
	AgentRunning AgentStatus = "running"
	// AgentCompleted is terminal: the agent finished successfully.
	AgentCompleted AgentStatus = "completed"
	// AgentFailed is terminal: the agent failed or was skipped.
	AgentFailed AgentStatus = "failed"
	// AgentUnknown is returned when reading a workspace that was never
	// created. It is never written to disk.
	AgentUnknown AgentStatus = "unknown"
)

// Valid returns true if the status is a value that can be stored.
func (s AgentStatus) Valid() bool {
	switch s {
	case AgentPending, AgentRunning, AgentCompleted, AgentFailed:
		return true
	default:
		return false
	}
}

// Terminal returns true for states that permit no further transition.
func (s AgentStatus) Terminal() bool {
	return s == AgentCompleted || s == AgentFailed
}

// CanTransition reports whether moving from s to next is a legal step in
// the workspace state machine. The machine is monotonic: pending may start
// running or fail outright, running may finish either way, terminal states
// accept nothing.
func (s AgentStatus) CanTransition(next AgentStatus) bool {
	if !next.Valid() {
		return false
	}
	switch s {
	case AgentPending:
		return next == AgentRunning || next == AgentFailed
	case AgentRunning:
		return next == AgentCompleted || next == AgentFailed
	default:
		return false
	}
}
