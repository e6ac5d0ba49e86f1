package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// summaryFile is the run-level summary written during dissolution.
const summaryFile = "execution_summary.json"

// ExecutionSummary aggregates one run's outcomes for post-mortem reading.
type ExecutionSummary struct {
	RunID      string `json:"run_id"`
	Status     string `json:"status"`
	Total      int    `json:"total"`
	Successful int    `json:"successful"`
	Failed     int    `json:"failed"`
	// ModelsUsed maps each subtask to the model that actually ran it.
	ModelsUsed map[string]string `json:"models_used,omitempty"`
	// Flags lists agents that finished without an outbox deliverable or a
	// completed status. Informational, never fatal.
	Flags     []string  `json:"flags,omitempty"`
	WrittenAt time.Time `json:"written_at"`
}

// WriteExecutionSummary persists the run-level summary file.
func (m *Manager) WriteExecutionSummary(runID string, summary ExecutionSummary) error {
	summary.RunID = runID
	summary.WrittenAt = time.Now().UTC()

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal execution summary: %w", err)
	}

	dir := filepath.Join(m.root, runID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create run directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, summaryFile), data, 0644); err != nil {
		return fmt.Errorf("write execution summary: %w", err)
	}
	return nil
}

// ReadExecutionSummary loads the run-level summary, if present.
func (m *Manager) ReadExecutionSummary(runID string) (*ExecutionSummary, error) {
	data, err := os.ReadFile(filepath.Join(m.root, runID, summaryFile))
	if err != nil {
		return nil, err
	}
	var summary ExecutionSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("parse execution summary: %w", err)
	}
	return &summary, nil
}
