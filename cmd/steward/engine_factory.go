package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ShayCichocki/steward/internal/audit"
	"github.com/ShayCichocki/steward/internal/backend"
	"github.com/ShayCichocki/steward/internal/classify"
	"github.com/ShayCichocki/steward/internal/config"
	"github.com/ShayCichocki/steward/internal/exec"
	"github.com/ShayCichocki/steward/internal/gates"
	"github.com/ShayCichocki/steward/internal/guardrails"
	"github.com/ShayCichocki/steward/internal/orchestrator"
	"github.com/ShayCichocki/steward/internal/selector"
	"github.com/ShayCichocki/steward/internal/signal"
	"github.com/ShayCichocki/steward/internal/spawn"
	"github.com/ShayCichocki/steward/internal/taskstore"
	"github.com/ShayCichocki/steward/internal/workspace"
)

// stewardDir returns the control directory under the given root.
func stewardDir(root string) string {
	return filepath.Join(root, ".steward")
}

// engine bundles everything a command needs to run delegated work.
type engine struct {
	cfg        *config.Config
	tasks      *taskstore.SQLiteStore
	decisions  *audit.Log
	violations *audit.Log
	guardrails *guardrails.Engine
	orch       *orchestrator.Orchestrator
	signals    *signal.Watcher
	logger     *orchestrator.DebugLogger
}

// close releases every resource the engine holds.
func (e *engine) close() {
	if e.signals != nil {
		e.signals.Close()
	}
	if e.decisions != nil {
		e.decisions.Close()
	}
	if e.violations != nil {
		e.violations.Close()
	}
	if e.tasks != nil {
		e.tasks.Close()
	}
	if e.logger != nil {
		e.logger.Close()
	}
}

// openTaskStore opens (and migrates) the task database under root.
func openTaskStore(root string) (*taskstore.SQLiteStore, error) {
	store, err := taskstore.Open(taskstore.DBPath(stewardDir(root)))
	if err != nil {
		return nil, fmt.Errorf("open task store: %w", err)
	}
	if err := store.Migrate(); err != nil {
		store.Close()
		return nil, fmt.Errorf("migrate task store: %w", err)
	}
	return store, nil
}

// buildEngine wires the full stack from configuration. interactive controls
// whether confirmation gates prompt on the terminal; autoApprove answers
// every gate affirmatively without prompting.
func buildEngine(cfg *config.Config, root string, interactive, autoApprove bool) (*engine, error) {
	dir := stewardDir(root)

	tasks, err := openTaskStore(root)
	if err != nil {
		return nil, err
	}

	decisions, err := audit.Open(filepath.Join(dir, "fallback_decisions.jsonl"))
	if err != nil {
		tasks.Close()
		return nil, err
	}
	violations, err := audit.Open(filepath.Join(dir, "violations.jsonl"))
	if err != nil {
		tasks.Close()
		decisions.Close()
		return nil, err
	}

	var be backend.Backend
	switch cfg.Backend.Mode {
	case "api":
		be, err = backend.NewAPIBackend(backend.APIConfig{
			APIKey:        cfg.Anthropic.APIKey,
			UseAWSBedrock: cfg.Anthropic.UseBedrock,
			AWSRegion:     cfg.Anthropic.AWSRegion,
			AWSProfile:    cfg.Anthropic.AWSProfile,
		})
		if err != nil {
			tasks.Close()
			decisions.Close()
			violations.Close()
			return nil, fmt.Errorf("create API backend: %w", err)
		}
	default:
		if err := backend.CheckCLI(); err != nil {
			tasks.Close()
			decisions.Close()
			violations.Close()
			return nil, err
		}
		be = backend.NewCLIBackend(nil)
	}

	var notifier spawn.Notifier
	if cfg.Spawn.NotifyCommand != "" {
		notifier = spawn.NewCommandNotifier(exec.NewRunner(), cfg.Spawn.NotifyCommand)
	}

	spawner := spawn.NewEngine(be, tasks, decisions, violations, notifier, spawn.Config{
		FallbackChain:  cfg.Spawn.FallbackChain,
		MaxRetries:     cfg.Spawn.MaxRetries,
		RetryDelay:     cfg.Spawn.RetryDelay,
		AttemptTimeout: cfg.Spawn.AttemptTimeout,
	})

	classifier := classify.NewHeuristic()

	roles := selector.DefaultRoleTemplates()
	if cfg.Roles.TemplatesPath != "" {
		roles, err = selector.LoadRoleTemplates(cfg.Roles.TemplatesPath)
		if err != nil {
			return nil, fmt.Errorf("load role templates: %w", err)
		}
	}

	var approver gates.Approver
	switch {
	case autoApprove:
		approver = gates.AutoApprover{}
		interactive = true
	case interactive:
		approver = gates.NewTUIApprover()
	}

	var workspaces *workspace.Manager
	if cfg.Workspace.Enabled {
		wsRoot := cfg.Workspace.Root
		if !filepath.IsAbs(wsRoot) {
			wsRoot = filepath.Join(root, wsRoot)
		}
		workspaces = workspace.NewManager(wsRoot)
	}

	signals, err := signal.New(root)
	if err != nil {
		return nil, fmt.Errorf("start signal watcher: %w", err)
	}

	logger := orchestrator.NewDebugLoggerForDir(root)

	orch := orchestrator.New(spawner, orchestrator.Options{
		Classifier:       classifier,
		Selector:         selector.New(classifier),
		Roles:            roles,
		Gates:            gates.New(approver),
		Workspaces:       workspaces,
		Signals:          signals,
		Logger:           logger,
		Interactive:      interactive,
		DiscardArtifacts: !cfg.Workspace.KeepArtifacts,
	})

	stateDir := cfg.Guardrails.StateDir
	if !filepath.IsAbs(stateDir) {
		stateDir = filepath.Join(root, stateDir)
	}
	states, err := guardrails.NewStateStore(stateDir)
	if err != nil {
		return nil, err
	}
	guards := guardrails.NewEngine(states, tasks, violations, classifier, cfg.Guardrails.VaultRoot)

	return &engine{
		cfg:        cfg,
		tasks:      tasks,
		decisions:  decisions,
		violations: violations,
		guardrails: guards,
		orch:       orch,
		signals:    signals,
		logger:     logger,
	}, nil
}

// workingDir returns the current directory or exits with an error.
func workingDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return cwd, nil
}
