package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Backend.Mode != "cli" {
		t.Errorf("expected default backend mode 'cli', got %q", cfg.Backend.Mode)
	}

	if cfg.Workspace.Root != ".steward/workspaces" {
		t.Errorf("expected default workspace root '.steward/workspaces', got %q", cfg.Workspace.Root)
	}

	if !cfg.Workspace.Enabled {
		t.Error("expected workspace.enabled to be true")
	}

	if !cfg.Workspace.KeepArtifacts {
		t.Error("expected workspace.keep_artifacts to be true")
	}

	if cfg.Spawn.MaxRetries != 2 {
		t.Errorf("expected default max_retries 2, got %d", cfg.Spawn.MaxRetries)
	}

	if cfg.Spawn.RetryDelay != 5*time.Second {
		t.Errorf("expected retry delay 5s, got %v", cfg.Spawn.RetryDelay)
	}

	if cfg.Spawn.AttemptTimeout != 10*time.Minute {
		t.Errorf("expected attempt timeout 10m, got %v", cfg.Spawn.AttemptTimeout)
	}

	if !cfg.Gates.Interactive {
		t.Error("expected gates.interactive to be true")
	}

	if cfg.Guardrails.AutoUpload {
		t.Error("expected guardrails.auto_upload to be false")
	}
}

func TestLoadFromPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
anthropic:
  api_key: test-key
backend:
  mode: api
workspace:
  root: /tmp/workspaces
  enabled: false
spawn:
  max_retries: 4
  retry_delay: 10s
  fallback_chain:
    - claude-sonnet-4-20250514
    - claude-3-5-haiku-20241022
gates:
  interactive: false
guardrails:
  vault_root: /tmp/vault
  auto_upload: true
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Anthropic.APIKey != "test-key" {
		t.Errorf("expected api_key 'test-key', got %q", cfg.Anthropic.APIKey)
	}

	if cfg.Backend.Mode != "api" {
		t.Errorf("expected backend mode 'api', got %q", cfg.Backend.Mode)
	}

	if cfg.Workspace.Root != "/tmp/workspaces" {
		t.Errorf("expected workspace root '/tmp/workspaces', got %q", cfg.Workspace.Root)
	}

	if cfg.Workspace.Enabled {
		t.Error("expected workspace.enabled to be false")
	}

	if cfg.Spawn.MaxRetries != 4 {
		t.Errorf("expected max_retries 4, got %d", cfg.Spawn.MaxRetries)
	}

	if cfg.Spawn.RetryDelay != 10*time.Second {
		t.Errorf("expected retry delay 10s, got %v", cfg.Spawn.RetryDelay)
	}

	if len(cfg.Spawn.FallbackChain) != 2 {
		t.Fatalf("expected 2 fallback models, got %d", len(cfg.Spawn.FallbackChain))
	}
	if cfg.Spawn.FallbackChain[0] != "claude-sonnet-4-20250514" {
		t.Errorf("unexpected first fallback model %q", cfg.Spawn.FallbackChain[0])
	}

	if cfg.Gates.Interactive {
		t.Error("expected gates.interactive to be false")
	}

	if cfg.Guardrails.VaultRoot != "/tmp/vault" {
		t.Errorf("expected vault_root '/tmp/vault', got %q", cfg.Guardrails.VaultRoot)
	}

	if !cfg.Guardrails.AutoUpload {
		t.Error("expected guardrails.auto_upload to be true")
	}
}

func TestLoadFromPathDefaultsSurvive(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	// A partial file must leave unmentioned keys at their defaults.
	if err := os.WriteFile(configPath, []byte("backend:\n  mode: api\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Backend.Mode != "api" {
		t.Errorf("expected backend mode 'api', got %q", cfg.Backend.Mode)
	}
	if cfg.Spawn.MaxRetries != 2 {
		t.Errorf("expected default max_retries 2, got %d", cfg.Spawn.MaxRetries)
	}
	if cfg.Workspace.Root != ".steward/workspaces" {
		t.Errorf("expected default workspace root, got %q", cfg.Workspace.Root)
	}
}

func TestGetUserConfigDir(t *testing.T) {
	os.Setenv("XDG_CONFIG_HOME", "/custom/config")
	defer os.Unsetenv("XDG_CONFIG_HOME")

	dir := getUserConfigDir()
	expected := "/custom/config/steward"
	if dir != expected {
		t.Errorf("expected %q, got %q", expected, dir)
	}
}
