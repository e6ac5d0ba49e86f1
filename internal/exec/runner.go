// Package exec provides an interface for running external commands.
package exec

import (
	"context"
	"errors"
	"os/exec"
)

// Result is the outcome of a command invocation. Output is combined
// stdout/stderr; ExitCode is -1 when the process never ran or was killed.
type Result struct {
	Output   []byte
	ExitCode int
}

// CommandRunner defines the interface for running external commands.
// This abstraction allows mocking the spawn backend and the failure
// notifier in tests.
type CommandRunner interface {
	// Run executes a command and returns its combined output and exit
	// code. A non-zero exit code is not an error; err is reserved for
	// failures to run the command at all (not found, context cancelled).
	Run(ctx context.Context, workDir string, name string, args ...string) (Result, error)
}

// Runner implements CommandRunner using os/exec.
type Runner struct{}

// NewRunner creates a new Runner.
func NewRunner() *Runner {
	return &Runner{}
}

// Run executes a command and returns combined stdout/stderr plus exit code.
func (r *Runner) Run(ctx context.Context, workDir string, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if workDir != "" {
		cmd.Dir = workDir
	}

	output, err := cmd.CombinedOutput()
	res := Result{Output: output, ExitCode: 0}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// Process ran and exited non-zero. Report the code, keep
			// the output, and clear the error so callers classify the
			// failure from both.
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		res.ExitCode = -1
		return res, err
	}

	return res, nil
}

// Verify Runner implements CommandRunner at compile time.
var _ CommandRunner = (*Runner)(nil)
