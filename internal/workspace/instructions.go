package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ShayCichocki/steward/pkg/models"
)

// Instructions is the content rendered into an agent's inbox before it runs.
type Instructions struct {
	// Task is the full prompt text for the agent.
	Task string
	// Context is optional background carried over from earlier subtasks.
	Context string
	// Model is the model assigned to the agent.
	Model string
	// Role is the agent's role template name.
	Role models.Role
	// Constraints are the negative constraints the agent works under.
	Constraints []string
}

// WriteInstructions renders the instructions document into the agent's
// inbox as markdown.
func (m *Manager) WriteInstructions(runID, agentName string, ins Instructions) error {
	dir := filepath.Join(m.AgentDir(runID, agentName), inboxDir)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("workspace %s/%s not created: %w", runID, agentName, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Instructions: %s\n\n", agentName)
	fmt.Fprintf(&b, "- Run: %s\n", runID)
	fmt.Fprintf(&b, "- Role: %s\n", ins.Role)
	fmt.Fprintf(&b, "- Model: %s\n\n", ins.Model)

	b.WriteString("## Task\n\n")
	b.WriteString(strings.TrimSpace(ins.Task))
	b.WriteString("\n")

	if ins.Context != "" {
		b.WriteString("\n## Context\n\n")
		b.WriteString(strings.TrimSpace(ins.Context))
		b.WriteString("\n")
	}

	if len(ins.Constraints) > 0 {
		b.WriteString("\n## Constraints\n\n")
		for _, c := range ins.Constraints {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}

	path := filepath.Join(dir, instructionsFile)
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write instructions: %w", err)
	}
	return nil
}

// InstructionsPath returns where the agent's instructions document lives.
func (m *Manager) InstructionsPath(runID, agentName string) string {
	return filepath.Join(m.AgentDir(runID, agentName), inboxDir, instructionsFile)
}
