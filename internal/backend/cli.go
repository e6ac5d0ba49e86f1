package backend

import (
	"context"
	"fmt"
	osexec "os/exec"

	"github.com/ShayCichocki/steward/internal/exec"
)

// CLIBackend spawns agents through the claude CLI in print mode. Each
// invocation is one blocking subprocess; cancellation of an in-flight
// attempt happens only through the context deadline.
type CLIBackend struct {
	runner exec.CommandRunner
	binary string
}

// NewCLIBackend creates a CLI backend using the given runner. A nil runner
// gets the real os/exec implementation.
func NewCLIBackend(runner exec.CommandRunner) *CLIBackend {
	if runner == nil {
		runner = exec.NewRunner()
	}
	return &CLIBackend{runner: runner, binary: "claude"}
}

// CheckCLI verifies the claude CLI is present in PATH. Returns an error
// with installation instructions when it is not.
func CheckCLI() error {
	_, err := osexec.LookPath("claude")
	if err != nil {
		return fmt.Errorf("claude CLI not found in PATH\n\n" +
			"Steward spawns sub-agents through the Claude Code CLI.\n\n" +
			"Install it with:\n" +
			"  npm install -g @anthropic-ai/claude-code")
	}
	return nil
}

// Invoke runs one agent subprocess and returns its combined output and exit
// code. The session id, when the CLI prints one, is left in Output for the
// spawn engine to parse.
func (b *CLIBackend) Invoke(ctx context.Context, inv Invocation) (*Result, error) {
	args := []string{
		"--print",
		"--model", inv.Model,
	}
	args = append(args, "-p", inv.Task)

	res, err := b.runner.Run(ctx, inv.WorkDir, b.binary, args...)
	if err != nil {
		if ctx.Err() != nil {
			// Deadline or cancellation. Surface it as a timed-out
			// invocation rather than a backend failure.
			return &Result{Output: string(res.Output), ExitCode: -1}, ctx.Err()
		}
		return nil, fmt.Errorf("invoke %s: %w", b.binary, err)
	}

	return &Result{Output: string(res.Output), ExitCode: res.ExitCode}, nil
}

// Verify CLIBackend implements Backend at compile time.
var _ Backend = (*CLIBackend)(nil)
