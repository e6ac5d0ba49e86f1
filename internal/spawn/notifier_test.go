package spawn

import (
	"context"
	"errors"
	"testing"

	"github.com/ShayCichocki/steward/internal/exec"
)

type fakeRunner struct {
	commands []string
	result   exec.Result
	err      error
}

func (r *fakeRunner) Run(_ context.Context, _ string, name string, _ ...string) (exec.Result, error) {
	r.commands = append(r.commands, name)
	return r.result, r.err
}

func TestCommandNotifier(t *testing.T) {
	t.Run("runs the configured command", func(t *testing.T) {
		runner := &fakeRunner{}
		n := NewCommandNotifier(runner, "notify-send")
		n.NotifyFailure()

		if len(runner.commands) != 1 || runner.commands[0] != "notify-send" {
			t.Errorf("commands = %v", runner.commands)
		}
	})

	t.Run("empty command is a no-op", func(t *testing.T) {
		runner := &fakeRunner{}
		NewCommandNotifier(runner, "").NotifyFailure()
		if len(runner.commands) != 0 {
			t.Errorf("commands = %v, want none", runner.commands)
		}
	})

	t.Run("runner errors are swallowed", func(t *testing.T) {
		runner := &fakeRunner{err: errors.New("not found")}
		NewCommandNotifier(runner, "missing-script").NotifyFailure()
	})

	t.Run("non-zero exit is swallowed", func(t *testing.T) {
		runner := &fakeRunner{result: exec.Result{ExitCode: 3}}
		NewCommandNotifier(runner, "flaky-script").NotifyFailure()
	})
}
