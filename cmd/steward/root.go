package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "steward",
	Short: "Sub-agent work orchestration engine",
	Long: `Steward delegates work to sub-agents with guardrails.

It classifies a request as trivial or deliverable work, links deliverable
work to a durable task record, sizes the plan and asks for confirmation,
then executes subtasks through isolated agent workspaces with per-model
retry and a model fallback chain. Pre- and post-work gates keep every
deliverable linked to its task and accessible after the session ends.

Core capabilities:
- Heuristic work and complexity classification
- Complexity-driven model selection with role templates
- Spawn engine with rate-limit/timeout/unavailable fallback policy
- Two-stage human confirmation gates sized by the plan estimate
- Append-only audit logs for fallback decisions and violations`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
