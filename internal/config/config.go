// Package config handles configuration loading and management for Steward.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for Steward.
type Config struct {
	Anthropic  AnthropicConfig  `mapstructure:"anthropic"`
	Backend    BackendConfig    `mapstructure:"backend"`
	Workspace  WorkspaceConfig  `mapstructure:"workspace"`
	Spawn      SpawnConfig      `mapstructure:"spawn"`
	Gates      GatesConfig      `mapstructure:"gates"`
	Guardrails GuardrailsConfig `mapstructure:"guardrails"`
	Roles      RolesConfig      `mapstructure:"roles"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey     string `mapstructure:"api_key"`
	UseBedrock bool   `mapstructure:"use_bedrock"`
	AWSRegion  string `mapstructure:"aws_region"`
	AWSProfile string `mapstructure:"aws_profile"`
}

// BackendConfig selects how sub-agents are invoked.
type BackendConfig struct {
	// Mode is "cli" (claude binary) or "api" (direct Anthropic API).
	Mode string `mapstructure:"mode"`
	// CLIPath overrides the claude binary location.
	CLIPath string `mapstructure:"cli_path"`
}

// WorkspaceConfig holds agent workspace settings.
type WorkspaceConfig struct {
	// Root is the directory agent workspaces are created under.
	Root string `mapstructure:"root"`
	// Enabled toggles workspace creation; without it Dissolve is skipped.
	Enabled bool `mapstructure:"enabled"`
	// KeepArtifacts retains inbox/outbox contents at cleanup.
	KeepArtifacts bool `mapstructure:"keep_artifacts"`
}

// SpawnConfig holds spawn retry and fallback settings.
type SpawnConfig struct {
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`
	AttemptTimeout time.Duration `mapstructure:"attempt_timeout"`
	// FallbackChain overrides the default model fallback order.
	FallbackChain []string `mapstructure:"fallback_chain"`
	// NotifyCommand, if set, runs when a spawn exhausts its chain.
	NotifyCommand string `mapstructure:"notify_command"`
}

// GatesConfig holds confirmation gate settings.
type GatesConfig struct {
	// Interactive enables terminal prompting; off means every
	// non-trivial plan is declined with the rendered message.
	Interactive bool `mapstructure:"interactive"`
}

// GuardrailsConfig holds pre/post-work gate settings.
type GuardrailsConfig struct {
	// VaultRoot is where auto-uploaded deliverables are copied.
	VaultRoot string `mapstructure:"vault_root"`
	// AutoUpload copies local-only deliverables into the vault.
	AutoUpload bool `mapstructure:"auto_upload"`
	// StateDir overrides where per-session state files live.
	StateDir string `mapstructure:"state_dir"`
}

// RolesConfig holds role template settings.
type RolesConfig struct {
	// TemplatesPath is an optional YAML file merged over the built-in
	// role templates.
	TemplatesPath string `mapstructure:"templates_path"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY)
// 2. Project config (.steward.yaml in current directory or parent)
// 3. User config (~/.config/steward/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("anthropic.use_bedrock", "CLAUDE_CODE_USE_BEDROCK")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)
	cfg.Guardrails.VaultRoot = os.ExpandEnv(cfg.Guardrails.VaultRoot)
	cfg.Workspace.Root = os.ExpandEnv(cfg.Workspace.Root)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(userConfigDir, "config.yaml"))

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.use_bedrock", cfg.Anthropic.UseBedrock)
	v.Set("anthropic.aws_region", cfg.Anthropic.AWSRegion)
	v.Set("anthropic.aws_profile", cfg.Anthropic.AWSProfile)
	v.Set("backend.mode", cfg.Backend.Mode)
	v.Set("backend.cli_path", cfg.Backend.CLIPath)
	v.Set("workspace.root", cfg.Workspace.Root)
	v.Set("workspace.enabled", cfg.Workspace.Enabled)
	v.Set("workspace.keep_artifacts", cfg.Workspace.KeepArtifacts)
	v.Set("spawn.max_retries", cfg.Spawn.MaxRetries)
	v.Set("spawn.retry_delay", cfg.Spawn.RetryDelay.String())
	v.Set("spawn.attempt_timeout", cfg.Spawn.AttemptTimeout.String())
	v.Set("spawn.fallback_chain", cfg.Spawn.FallbackChain)
	v.Set("spawn.notify_command", cfg.Spawn.NotifyCommand)
	v.Set("gates.interactive", cfg.Gates.Interactive)
	v.Set("guardrails.vault_root", cfg.Guardrails.VaultRoot)
	v.Set("guardrails.auto_upload", cfg.Guardrails.AutoUpload)
	v.Set("guardrails.state_dir", cfg.Guardrails.StateDir)
	v.Set("roles.templates_path", cfg.Roles.TemplatesPath)

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.use_bedrock", false)
	v.SetDefault("anthropic.aws_region", "")
	v.SetDefault("anthropic.aws_profile", "")

	v.SetDefault("backend.mode", "cli")
	v.SetDefault("backend.cli_path", "claude")

	v.SetDefault("workspace.root", ".steward/workspaces")
	v.SetDefault("workspace.enabled", true)
	v.SetDefault("workspace.keep_artifacts", true)

	v.SetDefault("spawn.max_retries", 2)
	v.SetDefault("spawn.retry_delay", "5s")
	v.SetDefault("spawn.attempt_timeout", "10m")
	v.SetDefault("spawn.fallback_chain", []string{})
	v.SetDefault("spawn.notify_command", "")

	v.SetDefault("gates.interactive", true)

	v.SetDefault("guardrails.vault_root", "")
	v.SetDefault("guardrails.auto_upload", false)
	v.SetDefault("guardrails.state_dir", ".steward/guardrails")

	v.SetDefault("roles.templates_path", "")
}

// getUserConfigDir returns the XDG config directory for Steward.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "steward")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "steward")
	}
	return filepath.Join(home, ".config", "steward")
}

// findProjectConfig searches for .steward.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".steward.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			Mode:    "cli",
			CLIPath: "claude",
		},
		Workspace: WorkspaceConfig{
			Root:          ".steward/workspaces",
			Enabled:       true,
			KeepArtifacts: true,
		},
		Spawn: SpawnConfig{
			MaxRetries:     2,
			RetryDelay:     5 * time.Second,
			AttemptTimeout: 10 * time.Minute,
		},
		Gates: GatesConfig{
			Interactive: true,
		},
		Guardrails: GuardrailsConfig{
			StateDir: ".steward/guardrails",
		},
	}
}
