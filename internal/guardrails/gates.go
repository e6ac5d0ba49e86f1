package guardrails

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/ShayCichocki/steward/internal/audit"
	"github.com/ShayCichocki/steward/internal/classify"
	"github.com/ShayCichocki/steward/internal/taskstore"
	"github.com/ShayCichocki/steward/pkg/models"
)

// ViolationKind names a guardrails violation.
type ViolationKind string

const (
	// MissingTask means deliverable work carried no task reference.
	MissingTask ViolationKind = "missing_task"
	// TaskNotAccessible means the task reference did not resolve.
	TaskNotAccessible ViolationKind = "task_not_accessible"
	// MissingDeliverable means deliverable work produced no deliverable.
	MissingDeliverable ViolationKind = "missing_deliverable"
	// DeliverableNotAccessible means a deliverable is local-only.
	DeliverableNotAccessible ViolationKind = "deliverable_not_accessible"
)

// Violation is a guardrails gate failure. Pre-work violations block and
// are returned as errors; post-work violations are warnings carried on the
// gate result. Both are durably logged before control flow continues.
type Violation struct {
	Timestamp time.Time     `json:"timestamp"`
	SessionID string        `json:"session_id"`
	Kind      ViolationKind `json:"kind"`
	Detail    string        `json:"detail"`
	Remedy    string        `json:"remedy,omitempty"`
	Bypassed  bool          `json:"bypassed,omitempty"`
}

// Error implements error.
func (v *Violation) Error() string {
	if v.Remedy != "" {
		return fmt.Sprintf("%s: %s (%s)", v.Kind, v.Detail, v.Remedy)
	}
	return fmt.Sprintf("%s: %s", v.Kind, v.Detail)
}

// IsViolation reports whether err is a guardrails violation.
func IsViolation(err error) bool {
	var v *Violation
	return errors.As(err, &v)
}

// BypassRequest waives the task-linkage requirement for one session. The
// reason is mandatory; a bypass without one is rejected.
type BypassRequest struct {
	Reason   string
	Approver string
}

// GateResult is the outcome of one gate check.
type GateResult struct {
	SessionID      string
	Passed         bool
	WorkType       models.WorkType
	GateStatus     models.GateStatus
	TaskRef        string
	Deliverables   []models.Deliverable
	ActionRequired string
	Message        string
}

// ActionUploadRequired marks a warned post-work gate whose deliverables
// need manual upload before they are reachable.
const ActionUploadRequired = "upload_required"

// ActionDeliverableRequired marks a warned post-work gate where no
// deliverable was found at all.
const ActionDeliverableRequired = "deliverable_required"

// Engine runs the pre- and post-work gates for a session.
type Engine struct {
	states     *StateStore
	tasks      taskstore.Store
	violations *audit.Log
	classifier classify.Classifier
	vaultRoot  string
	logger     *log.Logger
}

// NewEngine wires a guardrails engine. vaultRoot is where auto-uploaded
// deliverables land; empty disables uploads.
func NewEngine(states *StateStore, tasks taskstore.Store, violations *audit.Log, classifier classify.Classifier, vaultRoot string) *Engine {
	if classifier == nil {
		classifier = classify.NewHeuristic()
	}
	return &Engine{
		states:     states,
		tasks:      tasks,
		violations: violations,
		classifier: classifier,
		vaultRoot:  vaultRoot,
		logger:     log.New(os.Stderr, "[guardrails] ", log.LstdFlags),
	}
}

// PreWorkGate classifies the work and enforces task linkage before any
// spawn. Trivial work passes immediately. Deliverable work must carry a
// reference that resolves in the task store; otherwise the gate blocks and
// the violation is logged before it is returned. A bypass waives linkage
// but still writes an auditable state record.
func (e *Engine) PreWorkGate(text, sessionID string, bypass *BypassRequest, ctx *classify.Context) (*GateResult, error) {
	if bypass != nil {
		if bypass.Reason == "" {
			return nil, fmt.Errorf("bypass for session %s requires a reason", sessionID)
		}
		state := &State{
			SessionID: sessionID,
			WorkType:  models.WorkBypassed,
			Bypass:    Bypass{Used: true, Reason: bypass.Reason, Approver: bypass.Approver},
			Checkpoints: []Checkpoint{{
				Name:   "pre_work",
				Status: "bypassed",
				Detail: bypass.Reason,
				At:     time.Now().UTC(),
			}},
		}
		if err := e.states.Create(state); err != nil {
			return nil, err
		}
		e.logViolation(&Violation{
			Timestamp: time.Now().UTC(),
			SessionID: sessionID,
			Kind:      MissingTask,
			Detail:    "task linkage bypassed: " + bypass.Reason,
			Bypassed:  true,
		})
		e.logger.Printf("session %s: pre-work gate bypassed (%s)", sessionID, bypass.Reason)
		return &GateResult{
			SessionID:  sessionID,
			Passed:     true,
			WorkType:   models.WorkBypassed,
			GateStatus: models.GatePending,
			Message:    "task linkage bypassed",
		}, nil
	}

	classification := e.classifier.Classify(text, ctx)
	if classification.Type == models.WorkTrivial {
		state := &State{
			SessionID: sessionID,
			WorkType:  models.WorkTrivial,
			Checkpoints: []Checkpoint{{
				Name:   "pre_work",
				Status: "passed",
				Detail: classification.Reasoning,
				At:     time.Now().UTC(),
			}},
		}
		if err := e.states.Create(state); err != nil {
			return nil, err
		}
		return &GateResult{
			SessionID:  sessionID,
			Passed:     true,
			WorkType:   models.WorkTrivial,
			GateStatus: models.GatePending,
			Message:    "trivial work, no task linkage required",
		}, nil
	}

	ref, found := ExtractTaskRef(text)
	if !found {
		return nil, e.block(sessionID, &Violation{
			Timestamp: time.Now().UTC(),
			SessionID: sessionID,
			Kind:      MissingTask,
			Detail:    "deliverable work has no task reference",
			Remedy:    "add a 'Task: <id or path>' line linking the work to a task",
		})
	}
	if _, err := e.tasks.Resolve(ref); err != nil {
		if !errors.Is(err, taskstore.ErrNotFound) {
			return nil, fmt.Errorf("resolve task %q: %w", ref, err)
		}
		return nil, e.block(sessionID, &Violation{
			Timestamp: time.Now().UTC(),
			SessionID: sessionID,
			Kind:      TaskNotAccessible,
			Detail:    fmt.Sprintf("task reference %q does not resolve", ref),
			Remedy:    "create the task first or correct the reference",
		})
	}

	state := &State{
		SessionID: sessionID,
		TaskRef:   ref,
		WorkType:  models.WorkDeliverable,
		Checkpoints: []Checkpoint{{
			Name:   "pre_work",
			Status: "passed",
			Detail: "task " + ref + " resolved",
			At:     time.Now().UTC(),
		}},
	}
	if err := e.states.Create(state); err != nil {
		return nil, err
	}
	return &GateResult{
		SessionID:  sessionID,
		Passed:     true,
		WorkType:   models.WorkDeliverable,
		GateStatus: models.GatePending,
		TaskRef:    ref,
		Message:    "task linkage verified",
	}, nil
}

// block durably logs a blocking violation, writes a blocked state record,
// and returns the violation as the gate error. Logging happens before the
// state transition so the audit trail survives a crash in between.
func (e *Engine) block(sessionID string, v *Violation) error {
	e.logViolation(v)

	state := &State{
		SessionID: sessionID,
		WorkType:  models.WorkDeliverable,
		Checkpoints: []Checkpoint{{
			Name:   "pre_work",
			Status: "blocked",
			Detail: v.Detail,
			At:     v.Timestamp,
		}},
	}
	if err := e.states.Create(state); err != nil {
		e.logger.Printf("session %s: record blocked state: %v", sessionID, err)
	} else if _, err := e.states.Finalize(sessionID, models.GateBlocked, nil); err != nil {
		e.logger.Printf("session %s: finalize blocked state: %v", sessionID, err)
	}
	return v
}

// PostWorkGate validates deliverables after work finishes. A session with
// no pre-work state is assumed trivial and passes. Inaccessible
// deliverables warn but never block; with autoUpload enabled, local files
// are copied into the task's vault location and re-validated first.
func (e *Engine) PostWorkGate(sessionID, finalOutput string, createdFiles []string, autoUpload bool) (*GateResult, error) {
	state, err := e.states.Load(sessionID)
	if errors.Is(err, ErrStateNotFound) {
		return &GateResult{
			SessionID:  sessionID,
			Passed:     true,
			WorkType:   models.WorkTrivial,
			GateStatus: models.GatePassed,
			Message:    "no pre-work state, assuming trivial work",
		}, nil
	}
	if err != nil {
		return nil, err
	}
	if state.GateStatus.Final() {
		return nil, fmt.Errorf("guardrails session %s already finalized as %s", sessionID, state.GateStatus)
	}

	checkpoint := func(status, detail string) Checkpoint {
		return Checkpoint{Name: "post_work", Status: status, Detail: detail, At: time.Now().UTC()}
	}

	switch state.WorkType {
	case models.WorkTrivial:
		final, err := e.states.Finalize(sessionID, models.GatePassed, func(s *State) {
			s.Checkpoints = append(s.Checkpoints, checkpoint("passed", "trivial work"))
		})
		if err != nil {
			return nil, err
		}
		return &GateResult{
			SessionID:  sessionID,
			Passed:     true,
			WorkType:   final.WorkType,
			GateStatus: final.GateStatus,
			Message:    "trivial work, no deliverable required",
		}, nil

	case models.WorkBypassed:
		final, err := e.states.Finalize(sessionID, models.GateBypassed, func(s *State) {
			s.Checkpoints = append(s.Checkpoints, checkpoint("bypassed", s.Bypass.Reason))
		})
		if err != nil {
			return nil, err
		}
		return &GateResult{
			SessionID:  sessionID,
			Passed:     true,
			WorkType:   final.WorkType,
			GateStatus: final.GateStatus,
			Message:    "deliverable validation bypassed",
		}, nil
	}

	deliverables := ExtractDeliverables(finalOutput, createdFiles)
	if len(deliverables) == 0 {
		e.logViolation(&Violation{
			Timestamp: time.Now().UTC(),
			SessionID: sessionID,
			Kind:      MissingDeliverable,
			Detail:    "deliverable work produced no deliverable reference",
			Remedy:    "add a link to the produced artifact",
		})
		final, err := e.states.Finalize(sessionID, models.GateWarned, func(s *State) {
			s.Checkpoints = append(s.Checkpoints, checkpoint("warned", "no deliverable found"))
		})
		if err != nil {
			return nil, err
		}
		return &GateResult{
			SessionID:      sessionID,
			Passed:         true,
			WorkType:       final.WorkType,
			GateStatus:     final.GateStatus,
			TaskRef:        final.TaskRef,
			ActionRequired: ActionDeliverableRequired,
			Message:        "no deliverable found in output",
		}, nil
	}

	var inaccessible int
	for i := range deliverables {
		d := &deliverables[i]
		if d.Type.Accessible() {
			d.Verified = true
			continue
		}
		if autoUpload && e.vaultRoot != "" && state.TaskRef != "" {
			if uploaded, err := e.upload(state.TaskRef, d.Ref); err != nil {
				e.logger.Printf("session %s: upload %s: %v", sessionID, d.Ref, err)
			} else {
				d.Type = models.DeliverableVaultPath
				d.Ref = uploaded
				d.Verified = true
				continue
			}
		}
		inaccessible++
		e.logViolation(&Violation{
			Timestamp: time.Now().UTC(),
			SessionID: sessionID,
			Kind:      DeliverableNotAccessible,
			Detail:    fmt.Sprintf("deliverable %q is local-only", d.Ref),
			Remedy:    "upload the file and link it from the task",
		})
	}

	status := models.GatePassed
	action := ""
	message := fmt.Sprintf("%d deliverable(s) verified", len(deliverables))
	if inaccessible > 0 {
		status = models.GateWarned
		action = ActionUploadRequired
		message = fmt.Sprintf("%d of %d deliverable(s) are local-only", inaccessible, len(deliverables))
	}

	final, err := e.states.Finalize(sessionID, status, func(s *State) {
		s.Deliverables = deliverables
		s.Checkpoints = append(s.Checkpoints, checkpoint(string(status), message))
	})
	if err != nil {
		return nil, err
	}

	// Verified deliverables get linked back into the owning task.
	for _, d := range deliverables {
		if d.Verified && final.TaskRef != "" {
			if err := e.tasks.AppendLink(final.TaskRef, d.Ref); err != nil {
				e.logger.Printf("session %s: link %s to task %s: %v", sessionID, d.Ref, final.TaskRef, err)
			}
		}
	}

	return &GateResult{
		SessionID:      sessionID,
		Passed:         true,
		WorkType:       final.WorkType,
		GateStatus:     final.GateStatus,
		TaskRef:        final.TaskRef,
		Deliverables:   deliverables,
		ActionRequired: action,
		Message:        message,
	}, nil
}

// upload copies a local file next to the owning task's note and returns
// the new vault-relative reference. A destination with identical content
// is left alone so re-running the gate stays idempotent; a same-named
// artifact with different content is overwritten.
func (e *Engine) upload(taskRef, localPath string) (string, error) {
	task, err := e.tasks.Resolve(taskRef)
	if err != nil {
		return "", fmt.Errorf("resolve task %q: %w", taskRef, err)
	}

	rel := filepath.Join(filepath.Dir(task.Path), "attachments", filepath.Base(localPath))
	dst := filepath.Join(e.vaultRoot, rel)

	if same, err := sameContent(localPath, dst); err != nil {
		return "", err
	} else if same {
		return rel, nil
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", fmt.Errorf("create attachment directory: %w", err)
	}

	src, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open deliverable: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create vault copy: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("copy deliverable: %w", err)
	}
	return rel, nil
}

// sameContent reports whether dst exists with the same sha256 as src. A
// missing dst is simply not the same; a missing src is an error because
// the caller is about to copy it.
func sameContent(src, dst string) (bool, error) {
	dstSum, err := fileSum(dst)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("hash vault copy: %w", err)
	}
	srcSum, err := fileSum(src)
	if err != nil {
		return false, fmt.Errorf("hash deliverable: %w", err)
	}
	return srcSum == dstSum, nil
}

func fileSum(path string) ([sha256.Size]byte, error) {
	var sum [sha256.Size]byte
	f, err := os.Open(path)
	if err != nil {
		return sum, err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return sum, err
	}
	copy(sum[:], h.Sum(nil))
	return sum, nil
}

func (e *Engine) logViolation(v *Violation) {
	if e.violations == nil {
		return
	}
	if err := e.violations.Append(v); err != nil {
		e.logger.Printf("append violation: %v", err)
	}
}
