package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/steward/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify Steward configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/steward/config.yaml
Project-specific overrides can be placed in .steward.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	fmt.Printf("anthropic.api_key: %s\n", config.MaskAPIKey(cfg.Anthropic.APIKey))
	fmt.Printf("anthropic.use_bedrock: %t\n", cfg.Anthropic.UseBedrock)
	fmt.Printf("anthropic.aws_region: %s\n", cfg.Anthropic.AWSRegion)
	fmt.Printf("anthropic.aws_profile: %s\n", cfg.Anthropic.AWSProfile)
	fmt.Printf("backend.mode: %s\n", cfg.Backend.Mode)
	fmt.Printf("backend.cli_path: %s\n", cfg.Backend.CLIPath)
	fmt.Printf("workspace.root: %s\n", cfg.Workspace.Root)
	fmt.Printf("workspace.enabled: %t\n", cfg.Workspace.Enabled)
	fmt.Printf("workspace.keep_artifacts: %t\n", cfg.Workspace.KeepArtifacts)
	fmt.Printf("spawn.max_retries: %d\n", cfg.Spawn.MaxRetries)
	fmt.Printf("spawn.retry_delay: %s\n", cfg.Spawn.RetryDelay)
	fmt.Printf("spawn.attempt_timeout: %s\n", cfg.Spawn.AttemptTimeout)
	fmt.Printf("spawn.fallback_chain: %v\n", cfg.Spawn.FallbackChain)
	fmt.Printf("spawn.notify_command: %s\n", cfg.Spawn.NotifyCommand)
	fmt.Printf("gates.interactive: %t\n", cfg.Gates.Interactive)
	fmt.Printf("guardrails.vault_root: %s\n", cfg.Guardrails.VaultRoot)
	fmt.Printf("guardrails.auto_upload: %t\n", cfg.Guardrails.AutoUpload)
	fmt.Printf("guardrails.state_dir: %s\n", cfg.Guardrails.StateDir)
	fmt.Printf("roles.templates_path: %s\n", cfg.Roles.TemplatesPath)
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Set %s = %s\n", key, value)
}

func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch key {
	case "anthropic.api_key":
		return config.MaskAPIKey(cfg.Anthropic.APIKey), nil
	case "anthropic.use_bedrock":
		return strconv.FormatBool(cfg.Anthropic.UseBedrock), nil
	case "anthropic.aws_region":
		return cfg.Anthropic.AWSRegion, nil
	case "anthropic.aws_profile":
		return cfg.Anthropic.AWSProfile, nil
	case "backend.mode":
		return cfg.Backend.Mode, nil
	case "backend.cli_path":
		return cfg.Backend.CLIPath, nil
	case "workspace.root":
		return cfg.Workspace.Root, nil
	case "workspace.enabled":
		return strconv.FormatBool(cfg.Workspace.Enabled), nil
	case "workspace.keep_artifacts":
		return strconv.FormatBool(cfg.Workspace.KeepArtifacts), nil
	case "spawn.max_retries":
		return strconv.Itoa(cfg.Spawn.MaxRetries), nil
	case "spawn.retry_delay":
		return cfg.Spawn.RetryDelay.String(), nil
	case "spawn.attempt_timeout":
		return cfg.Spawn.AttemptTimeout.String(), nil
	case "spawn.notify_command":
		return cfg.Spawn.NotifyCommand, nil
	case "gates.interactive":
		return strconv.FormatBool(cfg.Gates.Interactive), nil
	case "guardrails.vault_root":
		return cfg.Guardrails.VaultRoot, nil
	case "guardrails.auto_upload":
		return strconv.FormatBool(cfg.Guardrails.AutoUpload), nil
	case "guardrails.state_dir":
		return cfg.Guardrails.StateDir, nil
	case "roles.templates_path":
		return cfg.Roles.TemplatesPath, nil
	default:
		return "", fmt.Errorf("unknown config key: %s", key)
	}
}

func setConfigValue(cfg *config.Config, key, value string) error {
	switch key {
	case "anthropic.api_key":
		if err := config.ValidateAPIKey(value); err != nil {
			return err
		}
		cfg.Anthropic.APIKey = value
	case "anthropic.use_bedrock":
		return setBool(&cfg.Anthropic.UseBedrock, value)
	case "anthropic.aws_region":
		cfg.Anthropic.AWSRegion = value
	case "anthropic.aws_profile":
		cfg.Anthropic.AWSProfile = value
	case "backend.mode":
		if value != "cli" && value != "api" {
			return fmt.Errorf("backend.mode must be cli or api")
		}
		cfg.Backend.Mode = value
	case "backend.cli_path":
		cfg.Backend.CLIPath = value
	case "workspace.root":
		cfg.Workspace.Root = value
	case "workspace.enabled":
		return setBool(&cfg.Workspace.Enabled, value)
	case "workspace.keep_artifacts":
		return setBool(&cfg.Workspace.KeepArtifacts, value)
	case "spawn.max_retries":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("spawn.max_retries must be a positive integer")
		}
		cfg.Spawn.MaxRetries = n
	case "spawn.retry_delay":
		return setDuration(&cfg.Spawn.RetryDelay, value)
	case "spawn.attempt_timeout":
		return setDuration(&cfg.Spawn.AttemptTimeout, value)
	case "spawn.notify_command":
		cfg.Spawn.NotifyCommand = value
	case "gates.interactive":
		return setBool(&cfg.Gates.Interactive, value)
	case "guardrails.vault_root":
		cfg.Guardrails.VaultRoot = value
	case "guardrails.auto_upload":
		return setBool(&cfg.Guardrails.AutoUpload, value)
	case "guardrails.state_dir":
		cfg.Guardrails.StateDir = value
	case "roles.templates_path":
		cfg.Roles.TemplatesPath = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func setBool(target *bool, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("expected true or false, got %q", value)
	}
	*target = b
	return nil
}

func setDuration(target *time.Duration, value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("expected a duration like 5s or 10m, got %q", value)
	}
	*target = d
	return nil
}
