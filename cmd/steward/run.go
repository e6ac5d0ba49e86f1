package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/steward/internal/config"
	"github.com/ShayCichocki/steward/internal/guardrails"
	"github.com/ShayCichocki/steward/internal/orchestrator"
	"github.com/ShayCichocki/steward/pkg/models"
)

var (
	runModel        string
	runComplexity   string
	runTaskRef      string
	runDeliverable  string
	runContext      string
	runYes          bool
	runBypass       bool
	runBypassReason string
	runNoUpload     bool
)

var runCmd = &cobra.Command{
	Use:   "run <request>",
	Short: "Delegate a request to sub-agents",
	Long: `Run a request through the full delegation pipeline.

The request is classified as trivial or deliverable work. Deliverable work
must reference a task ("Task: <id or path>" in the request text) that
resolves in the task store; use 'steward task add' to create one first.

The plan is decomposed into ordered subtasks (numbered or bulleted lines
become one subtask each), sized, and confirmed:
  - trivial plans run without prompting
  - everything else renders a plan review gate
  - medium and larger plans additionally render a budget gate

Subtasks execute strictly in order, each in its own agent workspace, with
per-model retry and a model fallback chain. After execution a post-work
gate validates that deliverables are accessible.

Examples:
  steward run "quick question: what does errgroup do?"
  steward run "Task: TASK-17
  1. research current rate limiter
  2. implement token bucket replacement
  3. write up the migration notes"
  steward run --bypass --bypass-reason "exploratory spike" "prototype the parser"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelegation,
}

func init() {
	runCmd.Flags().StringVar(&runModel, "model", "", "Explicit model for every subtask (overrides selection)")
	runCmd.Flags().StringVar(&runComplexity, "complexity", "", "Complexity override: simple, moderate, or complex")
	runCmd.Flags().StringVar(&runTaskRef, "task", "", "Task reference (overrides extraction from the request text)")
	runCmd.Flags().StringVar(&runDeliverable, "deliverable", "", "Where the final artifact should land")
	runCmd.Flags().StringVar(&runContext, "context", "", "Background text included in agent instructions")
	runCmd.Flags().BoolVarP(&runYes, "yes", "y", false, "Approve all confirmation gates without prompting")
	runCmd.Flags().BoolVar(&runBypass, "bypass", false, "Bypass the task-linkage requirement")
	runCmd.Flags().StringVar(&runBypassReason, "bypass-reason", "", "Reason for the bypass (required with --bypass)")
	runCmd.Flags().BoolVar(&runNoUpload, "no-upload", false, "Skip auto-upload of local deliverables")
}

func runDelegation(cmd *cobra.Command, args []string) error {
	request := args[0]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	root, err := workingDir()
	if err != nil {
		return err
	}

	eng, err := buildEngine(cfg, root, cfg.Gates.Interactive, runYes)
	if err != nil {
		return err
	}
	defer eng.close()

	sessionID := uuid.New().String()

	// Pre-work gate
	var bypass *guardrails.BypassRequest
	if runBypass {
		bypass = &guardrails.BypassRequest{Reason: runBypassReason}
	}
	text := request
	if runTaskRef != "" {
		text = "Task: " + runTaskRef + "\n" + request
	}
	pre, err := eng.guardrails.PreWorkGate(text, sessionID, bypass, nil)
	if err != nil {
		if guardrails.IsViolation(err) {
			color.Red("✗ blocked: %v", err)
			return fmt.Errorf("pre-work gate blocked")
		}
		return err
	}
	color.Green("✓ pre-work gate: %s", pre.Message)

	// Delegate
	result, err := eng.orch.Run(context.Background(), orchestrator.RunRequest{
		Goal:              request,
		TaskRef:           pre.TaskRef,
		WorkType:          pre.WorkType,
		DeliverableTarget: runDeliverable,
		Context:           runContext,
		Subtasks:          explicitSubtasks(request),
	})
	if err != nil {
		return err
	}

	if result.Status == orchestrator.RunCancelled {
		color.Yellow("run %s cancelled:\n%s", result.RunID, result.Reason)
		return nil
	}
	printRunResult(result)

	// Post-work gate
	var outputs string
	for _, e := range result.Entries {
		outputs += e.Output + "\n"
	}
	post, err := eng.guardrails.PostWorkGate(sessionID, outputs, nil, cfg.Guardrails.AutoUpload && !runNoUpload)
	if err != nil {
		return err
	}
	switch post.GateStatus {
	case models.GateWarned:
		color.Yellow("⚠ post-work gate: %s (action required: %s)", post.Message, post.ActionRequired)
	default:
		color.Green("✓ post-work gate: %s", post.Message)
	}

	return nil
}

// explicitSubtasks turns the model/complexity flags into a single explicit
// subtask; with no flags the planner decomposes and resolves everything.
func explicitSubtasks(request string) []orchestrator.SubtaskSpec {
	if runModel == "" && runComplexity == "" {
		return nil
	}
	return []orchestrator.SubtaskSpec{{
		Description: request,
		Model:       runModel,
		Complexity:  models.Complexity(runComplexity),
	}}
}

func printRunResult(result *orchestrator.RunResult) {
	fmt.Printf("\nrun %s: %s\n", result.RunID, result.Status)
	for _, e := range result.Entries {
		switch e.Status {
		case models.SubtaskCompleted:
			color.Green("  ✓ %s (%s)", e.Subtask, e.Agent)
		default:
			color.Red("  ✗ %s: %s", e.Subtask, truncate(e.Output, 120))
		}
	}
	if result.Summary != nil && len(result.Summary.Flags) > 0 {
		color.Yellow("  flagged without deliverable: %v", result.Summary.Flags)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
