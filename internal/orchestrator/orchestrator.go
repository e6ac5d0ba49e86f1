package orchestrator

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ShayCichocki/steward/internal/classify"
	"github.com/ShayCichocki/steward/internal/gates"
	"github.com/ShayCichocki/steward/internal/selector"
	"github.com/ShayCichocki/steward/internal/signal"
	"github.com/ShayCichocki/steward/internal/spawn"
	"github.com/ShayCichocki/steward/internal/workspace"
	"github.com/ShayCichocki/steward/pkg/models"
)

// Phase is one stage of the pipeline. Phases only ever move forward.
type Phase string

const (
	PhasePlan      Phase = "plan"
	PhaseGate      Phase = "gate"
	PhaseExecute   Phase = "execute"
	PhaseIntegrate Phase = "integrate"
	PhaseDissolve  Phase = "dissolve"
)

// RunStatus is the final status of a run. It is derived purely from the
// execution log, except cancelled, which a gate decline sets directly.
type RunStatus string

const (
	// RunCompleted means every subtask succeeded.
	RunCompleted RunStatus = "completed"
	// RunPartial means some but not all subtasks succeeded.
	RunPartial RunStatus = "partial"
	// RunFailed means no subtask succeeded.
	RunFailed RunStatus = "failed"
	// RunCancelled means a confirmation gate declined the plan.
	RunCancelled RunStatus = "cancelled"
)

// RunRequest describes one piece of delegated work.
type RunRequest struct {
	// Goal is the user's request text.
	Goal string
	// Subtasks, when non-empty, skips heuristic decomposition.
	Subtasks []SubtaskSpec
	// TaskRef links the run to a durable task record.
	TaskRef string
	// WorkType is the guardrails classification for the run.
	WorkType models.WorkType
	// DeliverableTarget names where the final artifact should land.
	DeliverableTarget string
	// Context is optional background included in agent instructions.
	Context string
	// Depth is the spawn nesting depth of this run's caller.
	Depth int
}

// RunResult is the outcome of one run. The pipeline never raises past
// Integrate; callers branch on Status.
type RunResult struct {
	RunID   string
	Status  RunStatus
	Reason  string
	Plan    *Plan
	Entries []models.ExecutionEntry
	Summary *workspace.ExecutionSummary
}

// Orchestrator drives runs through the five phases. One instance serves
// many runs; all per-run state lives in the RunResult.
type Orchestrator struct {
	classifier  classify.Classifier
	selector    *selector.Selector
	roles       *selector.RoleTemplates
	gates       *gates.Gates
	spawner     *spawn.Engine
	workspaces  *workspace.Manager
	signals     *signal.Watcher
	logger      *DebugLogger
	events      chan<- Event
	interactive bool
	keepArts    bool
}

// Options configures an Orchestrator. Spawner is the only required
// collaborator; every nil field gets a sensible default, and a nil
// Workspaces disables workspace provisioning together with Dissolve.
type Options struct {
	Classifier  classify.Classifier
	Selector    *selector.Selector
	Roles       *selector.RoleTemplates
	Gates       *gates.Gates
	Workspaces  *workspace.Manager
	Signals     *signal.Watcher
	Logger      *DebugLogger
	Events      chan<- Event
	Interactive bool
	// DiscardArtifacts clears inbox and outbox during dissolve. The zero
	// value retains them for post-mortem; only scratch is always cleared.
	DiscardArtifacts bool
}

// New creates an orchestrator around a spawn engine.
func New(spawner *spawn.Engine, opts Options) *Orchestrator {
	if opts.Classifier == nil {
		opts.Classifier = classify.NewHeuristic()
	}
	if opts.Selector == nil {
		opts.Selector = selector.New(opts.Classifier)
	}
	if opts.Roles == nil {
		opts.Roles = selector.DefaultRoleTemplates()
	}
	if opts.Gates == nil {
		opts.Gates = gates.New(nil)
	}
	if opts.Logger == nil {
		opts.Logger = NopLogger()
	}
	return &Orchestrator{
		classifier:  opts.Classifier,
		selector:    opts.Selector,
		roles:       opts.Roles,
		gates:       opts.Gates,
		spawner:     spawner,
		workspaces:  opts.Workspaces,
		signals:     opts.Signals,
		logger:      opts.Logger,
		events:      opts.Events,
		interactive: opts.Interactive,
		keepArts:    !opts.DiscardArtifacts,
	}
}

// Run executes the full pipeline for one request. A gate decline is a
// normal cancelled result, not an error; only planning failures return
// an error.
func (o *Orchestrator) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	runID := uuid.New().String()
	result := &RunResult{RunID: runID}

	// Plan
	o.emit(Event{Type: EventPhaseStarted, RunID: runID, Phase: PhasePlan})
	plan, err := o.buildPlan(req.Goal, req.Subtasks, req.DeliverableTarget)
	if err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}
	result.Plan = plan
	o.logger.Log("run %s: planned %d subtasks, size %s, ~%d min, ~%d tokens",
		runID, len(plan.Subtasks), plan.WorkSize, plan.EstimatedMinutes, plan.EstimatedTokens)
	o.emit(Event{Type: EventPlanReady, RunID: runID, Phase: PhasePlan,
		Message: fmt.Sprintf("%d subtasks, %s work", len(plan.Subtasks), plan.WorkSize)})

	// Gate
	o.emit(Event{Type: EventPhaseStarted, RunID: runID, Phase: PhaseGate})
	approved, gateMsg := o.gates.Run(plan.Summary(), plan.WorkSize, o.interactive)
	if !approved {
		result.Status = RunCancelled
		result.Reason = gateMsg
		o.logger.Log("run %s: cancelled at gate", runID)
		o.emit(Event{Type: EventGateDeclined, RunID: runID, Phase: PhaseGate, Message: gateMsg})
		o.emit(Event{Type: EventRunDone, RunID: runID, Message: string(RunCancelled)})
		return result, nil
	}

	// Execute
	o.emit(Event{Type: EventPhaseStarted, RunID: runID, Phase: PhaseExecute})
	modelsUsed := make(map[string]string)
	stopped := false
	for _, st := range plan.Subtasks {
		if stopped || o.shouldStop() {
			stopped = true
			result.Entries = append(result.Entries, models.ExecutionEntry{
				Subtask: st.Name,
				Status:  models.SubtaskFailed,
				Output:  "skipped: stop signal received",
			})
			continue
		}
		entry := o.executeSubtask(ctx, runID, req, st)
		result.Entries = append(result.Entries, entry)
		if entry.Agent != "" {
			modelsUsed[st.Name] = entry.Agent
		}
	}

	// Integrate
	o.emit(Event{Type: EventPhaseStarted, RunID: runID, Phase: PhaseIntegrate})
	succeeded := 0
	for _, e := range result.Entries {
		if e.Status == models.SubtaskCompleted {
			succeeded++
		}
	}
	switch {
	case succeeded == len(result.Entries):
		result.Status = RunCompleted
	case succeeded > 0:
		result.Status = RunPartial
	default:
		result.Status = RunFailed
	}
	o.logger.Log("run %s: %d/%d subtasks succeeded, status %s",
		runID, succeeded, len(result.Entries), result.Status)

	// Dissolve
	if o.workspaces != nil {
		o.emit(Event{Type: EventPhaseStarted, RunID: runID, Phase: PhaseDissolve})
		result.Summary = o.dissolve(runID, result, modelsUsed, succeeded)
	}

	o.emit(Event{Type: EventRunDone, RunID: runID, Message: string(result.Status)})
	return result, nil
}

// executeSubtask runs one subtask end to end. Every failure path is caught
// here and recorded as a failed entry so later subtasks still run.
func (o *Orchestrator) executeSubtask(ctx context.Context, runID string, req RunRequest, st models.Subtask) models.ExecutionEntry {
	o.emit(Event{Type: EventSubtaskStarted, RunID: runID, Subtask: st.Name})

	fail := func(detail string) models.ExecutionEntry {
		o.logger.Log("run %s: subtask %s failed: %s", runID, st.Name, detail)
		if o.workspaces != nil {
			o.markStatus(runID, st.Name, models.AgentFailed, map[string]string{"error": detail})
		}
		o.emit(Event{Type: EventSubtaskFailed, RunID: runID, Subtask: st.Name, Message: detail})
		return models.ExecutionEntry{Subtask: st.Name, Status: models.SubtaskFailed, Output: detail}
	}

	var workDir string
	if o.workspaces != nil {
		if err := o.workspaces.Create(runID, st.Name); err != nil {
			return fail(fmt.Sprintf("create workspace: %v", err))
		}
		ins := workspace.Instructions{
			Task:        st.Description,
			Context:     req.Context,
			Model:       st.Model,
			Role:        st.Role,
			Constraints: st.Constraints,
		}
		if err := o.workspaces.WriteInstructions(runID, st.Name, ins); err != nil {
			return fail(fmt.Sprintf("write instructions: %v", err))
		}
		if err := o.workspaces.UpdateStatus(runID, st.Name, models.AgentRunning, nil); err != nil {
			return fail(fmt.Sprintf("mark running: %v", err))
		}
		workDir = o.workspaces.ScratchPath(runID, st.Name)
	}

	tmpl, err := o.roles.Get(st.Role)
	if err != nil {
		return fail(err.Error())
	}

	res, err := o.spawner.SpawnWithRetry(ctx, spawn.Request{
		Task:         tmpl.BuildPrompt(st.Description),
		Label:        runID + "/" + st.Name,
		Model:        st.Model,
		WorkDir:      workDir,
		CurrentDepth: req.Depth,
		TaskRef:      req.TaskRef,
		WorkType:     req.WorkType,
	})
	if err != nil {
		return fail(err.Error())
	}
	if !res.Success {
		return fail(res.Error)
	}

	if o.workspaces != nil {
		o.markStatus(runID, st.Name, models.AgentCompleted, map[string]string{
			"model_used": res.ModelUsed,
			"session_id": res.SessionID,
		})
	}
	o.emit(Event{Type: EventSubtaskCompleted, RunID: runID, Subtask: st.Name, Model: res.ModelUsed})
	return models.ExecutionEntry{
		Subtask: st.Name,
		Agent:   res.ModelUsed,
		Status:  models.SubtaskCompleted,
		Output:  res.Output,
	}
}

// dissolve verifies each agent left either an outbox deliverable or a
// completed status, writes the run summary, and clears scratch space.
// Missing deliverables are flagged, never fatal.
func (o *Orchestrator) dissolve(runID string, result *RunResult, modelsUsed map[string]string, succeeded int) *workspace.ExecutionSummary {
	var flags []string
	for _, e := range result.Entries {
		rec := o.workspaces.ReadStatus(runID, e.Subtask)
		outbox, _ := o.workspaces.CollectOutbox(runID, e.Subtask)
		if len(outbox) == 0 && rec.Status != models.AgentCompleted {
			flags = append(flags, e.Subtask)
		}
	}

	summary := workspace.ExecutionSummary{
		RunID:      runID,
		Status:     string(result.Status),
		Total:      len(result.Entries),
		Successful: succeeded,
		Failed:     len(result.Entries) - succeeded,
		ModelsUsed: modelsUsed,
		Flags:      flags,
	}
	if err := o.workspaces.WriteExecutionSummary(runID, summary); err != nil {
		o.logger.Log("run %s: write summary: %v", runID, err)
	}

	for _, e := range result.Entries {
		if err := o.workspaces.Cleanup(runID, e.Subtask, o.keepArts); err != nil {
			o.logger.Log("run %s: cleanup %s: %v", runID, e.Subtask, err)
		}
	}
	return &summary
}

func (o *Orchestrator) markStatus(runID, name string, status models.AgentStatus, metadata map[string]string) {
	if err := o.workspaces.UpdateStatus(runID, name, status, metadata); err != nil {
		o.logger.Log("run %s: update %s to %s: %v", runID, name, status, err)
	}
}

func (o *Orchestrator) shouldStop() bool {
	return o.signals != nil && o.signals.ShouldStop()
}
