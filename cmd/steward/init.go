package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/steward/internal/backend"
)

var (
	initForce           bool
	initSkipClaudeCheck bool
)

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Initialize a Steward project",
	Long: `Initialize a directory for use with Steward.

This command sets up everything needed to delegate work:
  - Verifies prerequisites (claude CLI or API key)
  - Creates the .steward directory structure
  - Creates a .steward.yaml template

The directory argument is optional and defaults to the current directory.

Examples:
  steward init              # Initialize current directory
  steward init ./myproject  # Initialize specific directory
  steward init --force      # Reinitialize even if already set up`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Reinitialize even if already set up")
	initCmd.Flags().BoolVar(&initSkipClaudeCheck, "skip-claude-check", false, "Skip Claude CLI availability check")
}

func runInit(cmd *cobra.Command, args []string) error {
	targetDir := "."
	if len(args) > 0 {
		targetDir = args[0]
	}

	absPath, err := filepath.Abs(targetDir)
	if err != nil {
		return fmt.Errorf("resolving absolute path: %w", err)
	}
	if err := os.MkdirAll(absPath, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", absPath, err)
	}

	fmt.Printf("Initializing Steward in %s...\n\n", absPath)

	dir := stewardDir(absPath)
	if _, err := os.Stat(dir); err == nil && !initForce {
		fmt.Println("Directory already initialized. Use --force to reinitialize.")
		return nil
	}

	if !initSkipClaudeCheck {
		if err := backend.CheckCLI(); err != nil {
			printStatus("⚠", "Claude CLI not found (use backend.mode api or install it)", color.FgYellow)
		} else {
			printStatus("✓", "Claude CLI found", color.FgGreen)
		}
	}
	if os.Getenv("ANTHROPIC_API_KEY") != "" {
		printStatus("✓", "ANTHROPIC_API_KEY is set", color.FgGreen)
	} else {
		printStatus("⚠", "ANTHROPIC_API_KEY not set (only needed for the API backend)", color.FgYellow)
	}

	for _, sub := range []string{"signals", "guardrails", "workspaces", "logs"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			return fmt.Errorf("create %s: %w", sub, err)
		}
	}
	printStatus("✓", "Created .steward directory structure", color.FgGreen)

	store, err := openTaskStore(absPath)
	if err != nil {
		return err
	}
	store.Close()
	printStatus("✓", "Initialized task store", color.FgGreen)

	configPath := filepath.Join(absPath, ".steward.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) || initForce {
		if err := os.WriteFile(configPath, []byte(configTemplate), 0644); err != nil {
			return fmt.Errorf("write config template: %w", err)
		}
		printStatus("✓", "Created .steward.yaml template", color.FgGreen)
	}

	fmt.Println("\nDone. Create a task with 'steward task add', then 'steward run'.")
	return nil
}

const configTemplate = `# Steward project configuration. Every key is optional;
# values here override ~/.config/steward/config.yaml.

backend:
  mode: cli          # cli | api

workspace:
  root: .steward/workspaces
  enabled: true
  keep_artifacts: true

spawn:
  max_retries: 2
  retry_delay: 5s
  attempt_timeout: 10m
  # fallback_chain: [claude-sonnet-4-20250514, claude-3-5-haiku-20241022]
  # notify_command: notify-send "steward spawn failed"

gates:
  interactive: true

guardrails:
  # vault_root: ~/vault
  auto_upload: false
`

// printStatus prints a status line with color
func printStatus(symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Printf("%s %s\n", c.Sprint(symbol), message)
}
