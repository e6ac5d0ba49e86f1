// Package workspace tracks per-agent run directories: instructions in,
// outputs out, and a status file that only ever moves forward.
package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/ShayCichocki/steward/pkg/models"
)

// Directory and file names inside an agent workspace.
const (
	inboxDir         = "inbox"
	outboxDir        = "outbox"
	scratchDir       = "workspace"
	statusFile       = "status.json"
	instructionsFile = "instructions.md"
)

// Record is the on-disk status of one agent in one run. Timestamps are
// append-only (one key per transition) and metadata merges, never dropping
// keys written by earlier transitions.
type Record struct {
	RunID      string               `json:"run_id"`
	AgentName  string               `json:"agent_name"`
	Status     models.AgentStatus   `json:"status"`
	Timestamps map[string]time.Time `json:"timestamps"`
	Metadata   map[string]string    `json:"metadata"`
}

// Manager provisions and tracks agent workspaces under a single root:
// {root}/{run_id}/{agent_name}/{inbox,outbox,workspace,status.json}.
type Manager struct {
	root string

	// mu serializes status read-modify-write cycles. Only one writer is
	// expected per workspace, but a lost update on status.json would be
	// silent, so writes are locked anyway.
	mu sync.Mutex
}

// NewManager creates a Manager rooted at root.
func NewManager(root string) *Manager {
	return &Manager{root: root}
}

// Root returns the workspace root directory.
func (m *Manager) Root() string {
	return m.root
}

// AgentDir returns the directory for one agent in one run.
func (m *Manager) AgentDir(runID, agentName string) string {
	return filepath.Join(m.root, runID, agentName)
}

// Create provisions the workspace directories for an agent and writes the
// initial pending status. Creating an existing workspace is an error: a
// workspace's history must not be silently restarted.
func (m *Manager) Create(runID, agentName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	dir := m.AgentDir(runID, agentName)
	if _, err := os.Stat(filepath.Join(dir, statusFile)); err == nil {
		return fmt.Errorf("workspace %s/%s already exists", runID, agentName)
	}

	for _, sub := range []string{inboxDir, outboxDir, scratchDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			return fmt.Errorf("create workspace directory: %w", err)
		}
	}

	rec := &Record{
		RunID:      runID,
		AgentName:  agentName,
		Status:     models.AgentPending,
		Timestamps: map[string]time.Time{transitionKey(models.AgentPending): time.Now().UTC()},
		Metadata:   map[string]string{},
	}
	return m.writeRecord(dir, rec)
}

// UpdateStatus transitions the agent to a new status, appending the
// transition timestamp and merging metadata. An invalid status or an
// illegal transition is rejected before anything touches disk.
func (m *Manager) UpdateStatus(runID, agentName string, status models.AgentStatus, metadata map[string]string) error {
	if !status.Valid() {
		return fmt.Errorf("invalid agent status %q", status)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	dir := m.AgentDir(runID, agentName)
	rec, err := m.readRecord(dir)
	if err != nil {
		return fmt.Errorf("read status for %s/%s: %w", runID, agentName, err)
	}

	if !rec.Status.CanTransition(status) {
		return fmt.Errorf("illegal transition %s -> %s for %s/%s", rec.Status, status, runID, agentName)
	}

	rec.Status = status
	rec.Timestamps[transitionKey(status)] = time.Now().UTC()
	for k, v := range metadata {
		rec.Metadata[k] = v
	}

	return m.writeRecord(dir, rec)
}

// ReadStatus returns the agent's record. A workspace that was never created
// yields a record with status unknown; this never returns an error for a
// missing workspace.
func (m *Manager) ReadStatus(runID, agentName string) *Record {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.readRecord(m.AgentDir(runID, agentName))
	if err != nil {
		return &Record{
			RunID:     runID,
			AgentName: agentName,
			Status:    models.AgentUnknown,
		}
	}
	return rec
}

// CollectOutbox lists the files the agent produced, sorted by name.
func (m *Manager) CollectOutbox(runID, agentName string) ([]string, error) {
	dir := filepath.Join(m.AgentDir(runID, agentName), outboxDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read outbox: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// OutboxPath returns the agent's outbox directory.
func (m *Manager) OutboxPath(runID, agentName string) string {
	return filepath.Join(m.AgentDir(runID, agentName), outboxDir)
}

// ScratchPath returns the agent's scratch directory.
func (m *Manager) ScratchPath(runID, agentName string) string {
	return filepath.Join(m.AgentDir(runID, agentName), scratchDir)
}

// Cleanup clears the agent's scratch directory. Inbox and outbox are kept
// for post-mortem unless keepArtifacts is false.
func (m *Manager) Cleanup(runID, agentName string, keepArtifacts bool) error {
	dir := m.AgentDir(runID, agentName)

	if err := clearDir(filepath.Join(dir, scratchDir)); err != nil {
		return err
	}
	if !keepArtifacts {
		if err := clearDir(filepath.Join(dir, inboxDir)); err != nil {
			return err
		}
		if err := clearDir(filepath.Join(dir, outboxDir)); err != nil {
			return err
		}
	}
	return nil
}

// Agents lists the agent names with a workspace in the given run.
func (m *Manager) Agents(runID string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(m.root, runID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read run directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// transitionKey names the timestamp entry for a status transition.
func transitionKey(status models.AgentStatus) string {
	return string(status) + "_at"
}

// readRecord loads status.json from an agent directory.
func (m *Manager) readRecord(dir string) (*Record, error) {
	data, err := os.ReadFile(filepath.Join(dir, statusFile))
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse status file: %w", err)
	}
	if rec.Timestamps == nil {
		rec.Timestamps = map[string]time.Time{}
	}
	if rec.Metadata == nil {
		rec.Metadata = map[string]string{}
	}
	return &rec, nil
}

// writeRecord persists status.json atomically via a temp file rename.
func (m *Manager) writeRecord(dir string, rec *Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}

	tmp := filepath.Join(dir, statusFile+".tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write status: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(dir, statusFile)); err != nil {
		return fmt.Errorf("replace status: %w", err)
	}
	return nil
}

// clearDir removes every entry inside dir, keeping dir itself.
func clearDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read directory: %w", err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("remove %s: %w", e.Name(), err)
		}
	}
	return nil
}
