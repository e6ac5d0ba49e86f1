package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/steward/internal/config"
	"github.com/ShayCichocki/steward/internal/workspace"
	"github.com/ShayCichocki/steward/pkg/models"
)

var statusCmd = &cobra.Command{
	Use:   "status [run-id]",
	Short: "Show run status",
	Long: `Display the state of past runs.

Without arguments, lists every run under the workspace root with its
summary. With a run id, shows per-agent status, timestamps, and outbox
contents for that run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	root, err := workingDir()
	if err != nil {
		return err
	}
	wsRoot := cfg.Workspace.Root
	if !filepath.IsAbs(wsRoot) {
		wsRoot = filepath.Join(root, wsRoot)
	}
	mgr := workspace.NewManager(wsRoot)

	if len(args) == 1 {
		return showRun(mgr, args[0])
	}
	return listRuns(mgr, wsRoot)
}

func listRuns(mgr *workspace.Manager, wsRoot string) error {
	entries, err := os.ReadDir(wsRoot)
	if os.IsNotExist(err) || len(entries) == 0 {
		fmt.Println("No runs yet. Use 'steward run <request>' to start one.")
		return nil
	}
	if err != nil {
		return err
	}

	var runIDs []string
	for _, e := range entries {
		if e.IsDir() {
			runIDs = append(runIDs, e.Name())
		}
	}
	sort.Strings(runIDs)

	for _, runID := range runIDs {
		summary, err := mgr.ReadExecutionSummary(runID)
		if err != nil {
			fmt.Printf("%s  (no summary)\n", runID)
			continue
		}
		line := fmt.Sprintf("%s  %s  %d/%d succeeded", runID, summary.Status, summary.Successful, summary.Total)
		switch summary.Status {
		case "completed":
			color.Green(line)
		case "failed":
			color.Red(line)
		default:
			color.Yellow(line)
		}
	}
	return nil
}

func showRun(mgr *workspace.Manager, runID string) error {
	agents, err := mgr.Agents(runID)
	if err != nil {
		return fmt.Errorf("read run %s: %w", runID, err)
	}
	if len(agents) == 0 {
		fmt.Printf("run %s has no agents\n", runID)
		return nil
	}

	for _, agent := range agents {
		rec := mgr.ReadStatus(runID, agent)
		symbol, attr := statusDisplay(rec.Status)
		color.New(attr).Printf("%s %s: %s\n", symbol, agent, rec.Status)
		for name, ts := range rec.Timestamps {
			fmt.Printf("    %s at %s\n", name, ts.Format("15:04:05"))
		}
		outbox, _ := mgr.CollectOutbox(runID, agent)
		for _, f := range outbox {
			fmt.Printf("    outbox: %s\n", f)
		}
	}

	if summary, err := mgr.ReadExecutionSummary(runID); err == nil {
		fmt.Printf("\noverall: %s (%d/%d succeeded)\n", summary.Status, summary.Successful, summary.Total)
		for subtask, model := range summary.ModelsUsed {
			fmt.Printf("  %s ran on %s\n", subtask, model)
		}
	}
	return nil
}

func statusDisplay(status models.AgentStatus) (string, color.Attribute) {
	switch status {
	case models.AgentCompleted:
		return "✓", color.FgGreen
	case models.AgentFailed:
		return "✗", color.FgRed
	case models.AgentRunning:
		return "●", color.FgYellow
	case models.AgentPending:
		return "○", color.FgWhite
	default:
		return "?", color.FgWhite
	}
}
