// Package backend provides the spawn backend collaborators: the external
// processes or APIs that actually run a sub-agent and return its output.
package backend

import "context"

// Invocation is one spawn request handed to a backend.
type Invocation struct {
	// Task is the full prompt text for the agent.
	Task string
	// Label identifies the spawn in logs and session names.
	Label string
	// Model is the model identifier to run.
	Model string
	// WorkDir is the agent's scratch directory, if the backend supports
	// running inside one.
	WorkDir string
}

// Result is the raw outcome of an invocation. The spawn engine classifies
// failures from Output and ExitCode; backends do not interpret them.
type Result struct {
	// Output is the combined text the backend produced.
	Output string
	// ExitCode is the process exit code; 0 for API backends on success.
	ExitCode int
	// SessionID is set when the backend knows its own session identifier.
	// When empty the spawn engine parses one out of Output.
	SessionID string
}

// Backend invokes a sub-agent and blocks until it returns or ctx expires.
type Backend interface {
	Invoke(ctx context.Context, inv Invocation) (*Result, error)
}
