package spawn

import (
	"context"
	"log"
	"time"

	"github.com/ShayCichocki/steward/internal/exec"
)

// Notifier is told when an entire fallback chain has been exhausted. It is
// fire-and-forget: implementations must not block for long, and the engine
// swallows every error so a broken notifier can never change a spawn result.
type Notifier interface {
	NotifyFailure()
}

// NopNotifier discards notifications.
type NopNotifier struct{}

// NotifyFailure does nothing.
func (NopNotifier) NotifyFailure() {}

// CommandNotifier runs a configured external command (no arguments) when a
// chain is exhausted, e.g. a desktop notification script.
type CommandNotifier struct {
	runner  exec.CommandRunner
	command string
	timeout time.Duration
}

// NewCommandNotifier creates a notifier running command on failure. A nil
// runner gets the real os/exec implementation.
func NewCommandNotifier(runner exec.CommandRunner, command string) *CommandNotifier {
	if runner == nil {
		runner = exec.NewRunner()
	}
	return &CommandNotifier{
		runner:  runner,
		command: command,
		timeout: 10 * time.Second,
	}
}

// NotifyFailure invokes the command. Failures are logged and dropped.
func (n *CommandNotifier) NotifyFailure() {
	if n.command == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	res, err := n.runner.Run(ctx, "", n.command)
	if err != nil {
		log.Printf("[spawn] failure notifier error (ignored): %v", err)
		return
	}
	if res.ExitCode != 0 {
		log.Printf("[spawn] failure notifier exited %d (ignored)", res.ExitCode)
	}
}
