// Package guardrails implements the pre- and post-work gates that keep
// deliverable work linked to a task and its outputs accessible, with a
// durable per-session state record backing every decision.
package guardrails

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ShayCichocki/steward/pkg/models"
)

// ErrStateNotFound is returned when a session has no guardrails state.
var ErrStateNotFound = errors.New("guardrails state not found")

// Checkpoint records one gate decision inside a session.
type Checkpoint struct {
	// Name identifies the gate, "pre_work" or "post_work".
	Name string `json:"name"`
	// Status is the gate's outcome at this checkpoint.
	Status string `json:"status"`
	// Detail is a short human-readable note.
	Detail string `json:"detail,omitempty"`
	// At is when the checkpoint was recorded.
	At time.Time `json:"at"`
}

// Bypass records a waived task-linkage requirement. A bypass always needs
// a human-supplied reason.
type Bypass struct {
	Used     bool   `json:"used"`
	Reason   string `json:"reason,omitempty"`
	Approver string `json:"approver,omitempty"`
}

// State is the per-session guardrails record. It is created at pre-work,
// appended to at post-work, then immutable except for archival relocation.
type State struct {
	SessionID    string               `json:"session_id"`
	TaskRef      string               `json:"task_ref,omitempty"`
	WorkType     models.WorkType      `json:"work_type"`
	GateStatus   models.GateStatus    `json:"gate_status"`
	Checkpoints  []Checkpoint         `json:"checkpoints"`
	Deliverables []models.Deliverable `json:"deliverables,omitempty"`
	Bypass       Bypass               `json:"bypass"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// StateStore persists one JSON file per session under a fixed directory.
// Every read-modify-write holds the store mutex so a second writer cannot
// lose an update.
type StateStore struct {
	dir string
	mu  sync.Mutex
}

// NewStateStore creates a store rooted at dir, creating it if needed.
func NewStateStore(dir string) (*StateStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create guardrails directory: %w", err)
	}
	return &StateStore{dir: dir}, nil
}

func (s *StateStore) path(sessionID string) string {
	return filepath.Join(s.dir, fmt.Sprintf("guardrails-%s.json", sessionID))
}

// Create writes a fresh pending state for a session. It fails if the
// session already has one.
func (s *StateStore) Create(state *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(state.SessionID)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("guardrails state already exists for session %s", state.SessionID)
	}

	now := time.Now().UTC()
	state.GateStatus = models.GatePending
	state.CreatedAt = now
	state.UpdatedAt = now
	return s.write(path, state)
}

// Load reads a session's state. Returns ErrStateNotFound when the session
// was never gated.
func (s *StateStore) Load(sessionID string) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(sessionID)
}

func (s *StateStore) load(sessionID string) (*State, error) {
	data, err := os.ReadFile(s.path(sessionID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read guardrails state: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse guardrails state: %w", err)
	}
	return &state, nil
}

// Finalize advances a session to a final gate status, applying mutate to
// the loaded state first. The transition is validated before anything
// touches disk; a session that is already final cannot move again.
func (s *StateStore) Finalize(sessionID string, status models.GateStatus, mutate func(*State)) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load(sessionID)
	if err != nil {
		return nil, err
	}
	if !state.GateStatus.CanTransition(status) {
		return nil, fmt.Errorf("guardrails session %s: cannot advance %s -> %s",
			sessionID, state.GateStatus, status)
	}

	if mutate != nil {
		mutate(state)
	}
	state.GateStatus = status
	state.UpdatedAt = time.Now().UTC()

	if err := s.write(s.path(sessionID), state); err != nil {
		return nil, err
	}
	return state, nil
}

// Archive relocates a finalized session file into the archive
// subdirectory. The record itself is never modified.
func (s *StateStore) Archive(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load(sessionID)
	if err != nil {
		return err
	}
	if !state.GateStatus.Final() {
		return fmt.Errorf("guardrails session %s is still %s, refusing to archive",
			sessionID, state.GateStatus)
	}

	archiveDir := filepath.Join(s.dir, "archive")
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return fmt.Errorf("create archive directory: %w", err)
	}
	src := s.path(sessionID)
	dst := filepath.Join(archiveDir, filepath.Base(src))
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("archive guardrails state: %w", err)
	}
	return nil
}

func (s *StateStore) write(path string, state *State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal guardrails state: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write guardrails state: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace guardrails state: %w", err)
	}
	return nil
}
