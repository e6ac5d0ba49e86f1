package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/steward/internal/audit"
	"github.com/ShayCichocki/steward/internal/guardrails"
	"github.com/ShayCichocki/steward/pkg/models"
)

var (
	auditJSON bool
	auditTail int
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show the fallback and violation audit trail",
	Long: `Display the append-only audit logs.

Shows the model fallback decisions (which model was abandoned for which,
and why) and the guardrails violations recorded for this project.

Output formats:
  - Human-readable (default)
  - JSON (--json flag): one object per line, as stored

Examples:
  steward audit              # Recent decisions and violations
  steward audit --tail 50    # Last 50 of each
  steward audit --json | jq 'select(.error_type == "rate_limit")'`,
	RunE: runAuditCmd,
}

func init() {
	auditCmd.Flags().BoolVar(&auditJSON, "json", false, "Output in JSON format")
	auditCmd.Flags().IntVar(&auditTail, "tail", 20, "Number of records to show from each log")
}

func runAuditCmd(cmd *cobra.Command, args []string) error {
	root, err := workingDir()
	if err != nil {
		return err
	}
	dir := stewardDir(root)

	decisions, err := audit.ReadAll[models.FallbackDecision](filepath.Join(dir, "fallback_decisions.jsonl"))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read fallback decisions: %w", err)
	}
	violations, err := audit.ReadAll[guardrails.Violation](filepath.Join(dir, "violations.jsonl"))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read violations: %w", err)
	}

	decisions = tail(decisions, auditTail)
	violations = tail(violations, auditTail)

	if auditJSON {
		enc := json.NewEncoder(os.Stdout)
		for _, d := range decisions {
			enc.Encode(d)
		}
		for _, v := range violations {
			enc.Encode(v)
		}
		return nil
	}

	if len(decisions) == 0 && len(violations) == 0 {
		fmt.Println("No audit records.")
		return nil
	}

	if len(decisions) > 0 {
		color.New(color.Bold).Println("Fallback decisions")
		for _, d := range decisions {
			fmt.Printf("  %s  %s  %s -> %s  (%s, attempt %d)\n",
				d.Timestamp.Format("2006-01-02 15:04:05"), d.Label,
				d.OriginalModel, d.FallbackModel, d.ErrorType, d.Attempt)
		}
	}
	if len(violations) > 0 {
		color.New(color.Bold).Println("Violations")
		for _, v := range violations {
			line := fmt.Sprintf("  %s  %s  %s: %s",
				v.Timestamp.Format("2006-01-02 15:04:05"), v.SessionID, v.Kind, v.Detail)
			if v.Bypassed {
				color.Yellow(line)
			} else {
				color.Red(line)
			}
		}
	}
	return nil
}

func tail[T any](records []T, n int) []T {
	if n <= 0 || len(records) <= n {
		return records
	}
	return records[len(records)-n:]
}
