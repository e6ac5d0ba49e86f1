package models

// Subtask is one unit of spawned work inside a run. It is built during the
// Plan phase and must not change once execution starts.
type Subtask struct {
	// Name is the short identifier, also used as the agent directory name.
	Name string `json:"name"`
	// Description is the full instruction text handed to the agent.
	Description string `json:"description"`
	// Complexity is the difficulty tier assigned at plan time.
	Complexity Complexity `json:"complexity"`
	// Model is the model identifier assigned by the selector.
	Model string `json:"model"`
	// Role is the agent role template for this subtask.
	Role Role `json:"role"`
	// Constraints are the negative constraints injected into the prompt.
	Constraints []string `json:"constraints,omitempty"`
}

// SubtaskStatus is the terminal outcome recorded for a subtask in the
// execution log.
type SubtaskStatus string

const (
	// SubtaskCompleted means the spawn succeeded.
	SubtaskCompleted SubtaskStatus = "completed"
	// SubtaskFailed means the spawn failed or raised before running.
	SubtaskFailed SubtaskStatus = "failed"
)

// ExecutionEntry is one line of the run's execution log, written after each
// subtask finishes. The Agent field holds the model actually used, which can
// differ from the subtask's assigned model after fallback.
type ExecutionEntry struct {
	Subtask string        `json:"subtask"`
	Agent   string        `json:"agent"`
	Status  SubtaskStatus `json:"status"`
	Output  string        `json:"output,omitempty"`
}
