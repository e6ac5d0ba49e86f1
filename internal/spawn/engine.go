package spawn

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ShayCichocki/steward/internal/audit"
	"github.com/ShayCichocki/steward/internal/backend"
	"github.com/ShayCichocki/steward/internal/taskstore"
	"github.com/ShayCichocki/steward/pkg/models"
)

// MaxDepth is the hard nesting limit: the main agent is depth 0, work it
// spawns is depth 1, and a depth-2 agent cannot spawn further.
const MaxDepth = 2

// Defaults for the retry policy.
const (
	DefaultMaxRetries     = 2
	DefaultRetryDelay     = 5 * time.Second
	DefaultAttemptTimeout = 10 * time.Minute
)

// Request describes one spawn: what to run, which model was requested, and
// the policy context the preconditions check against.
type Request struct {
	// Task is the full prompt text.
	Task string
	// Label identifies the spawn in logs and audit records.
	Label string
	// Model is the requested model; it is moved to the front of the chain.
	Model string
	// WorkDir is the agent's scratch directory.
	WorkDir string
	// FallbackChain overrides the engine's default chain when non-nil.
	FallbackChain []string
	// MaxRetries is per-model attempts. Zero means the engine default.
	MaxRetries int
	// RetryDelay is the fixed wait after a rate-limit failure. Zero means
	// the engine default.
	RetryDelay time.Duration
	// CurrentDepth is the nesting depth of the caller.
	CurrentDepth int
	// TaskRef links the work to a durable task record.
	TaskRef string
	// WorkType is the guardrails classification for this work. Deliverable
	// work must carry a resolvable TaskRef; bypassed work is exempt.
	WorkType models.WorkType
}

// Result is the outcome of a spawn, successful or not. ModelUsed may differ
// from the requested model; callers must attribute cost and identity to it,
// not to the request.
type Result struct {
	Success bool `json:"success"`
	// SessionID is parsed from backend output (or supplied by the backend).
	SessionID string `json:"session_id,omitempty"`
	// ModelUsed is the model that actually produced the output.
	ModelUsed string `json:"model_used,omitempty"`
	// Attempts counts every backend invocation across the whole chain.
	Attempts int `json:"attempts"`
	// FallbackChainTried is the ordered list of models attempted.
	FallbackChainTried []string `json:"fallback_chain_tried"`
	// Output is the successful attempt's output text.
	Output string `json:"output,omitempty"`
	// Error describes the final failure when Success is false.
	Error string `json:"error,omitempty"`
}

// Config is the engine's injected policy. Defaults are one immutable value;
// nothing reassigns them mid-run.
type Config struct {
	// FallbackChain is the default model order when a request has none.
	FallbackChain []string
	// MaxRetries is the default per-model attempt count.
	MaxRetries int
	// RetryDelay is the default wait after a rate-limit failure.
	RetryDelay time.Duration
	// AttemptTimeout bounds each backend invocation.
	AttemptTimeout time.Duration
}

// Engine runs spawns with precondition checks, per-model retry, and
// model-fallback. One Engine is shared by a whole run.
type Engine struct {
	backend    backend.Backend
	notifier   Notifier
	decisions  *audit.Log
	violations *audit.Log
	tasks      taskstore.Store
	cfg        Config

	// sleep is swappable in tests.
	sleep func(time.Duration)
}

// NewEngine creates a spawn engine. The decisions and violations logs are
// required; notifier may be nil (no notifications), tasks may be nil only
// if every request is trivial or bypassed.
func NewEngine(b backend.Backend, tasks taskstore.Store, decisions, violations *audit.Log, notifier Notifier, cfg Config) *Engine {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = DefaultAttemptTimeout
	}
	return &Engine{
		backend:    b,
		notifier:   notifier,
		decisions:  decisions,
		violations: violations,
		tasks:      tasks,
		cfg:        cfg,
		sleep:      time.Sleep,
	}
}

// violationRecord is the audit shape for policy violations raised here.
type violationRecord struct {
	Timestamp time.Time           `json:"timestamp"`
	Label     string              `json:"label"`
	Kind      PolicyViolationKind `json:"kind"`
	Detail    string              `json:"detail"`
}

// SpawnWithRetry runs one spawn through the full policy: preconditions,
// per-model retries, and the fallback chain. Precondition failures return a
// *PolicyViolation without any backend call. Once past the preconditions it
// never returns an error: an exhausted chain is a Result with Success=false.
func (e *Engine) SpawnWithRetry(ctx context.Context, req Request) (*Result, error) {
	if err := e.checkPreconditions(req); err != nil {
		return nil, err
	}

	chain := buildChain(req.Model, req.FallbackChain, e.cfg.FallbackChain)
	maxRetries := req.MaxRetries
	if maxRetries <= 0 {
		maxRetries = e.cfg.MaxRetries
	}
	retryDelay := req.RetryDelay
	if retryDelay <= 0 {
		retryDelay = e.cfg.RetryDelay
	}

	result := &Result{FallbackChainTried: chain}
	var lastKind models.SpawnErrorKind
	var lastErr string

	for i, model := range chain {
		kind, errText, res := e.tryModel(ctx, req, model, maxRetries, retryDelay, &result.Attempts)
		if res != nil {
			result.Success = true
			result.ModelUsed = model
			result.Output = res.Output
			result.SessionID = res.SessionID
			if result.SessionID == "" {
				result.SessionID = ParseSessionID(res.Output)
			}
			result.FallbackChainTried = chain[:i+1]
			return result, nil
		}

		lastKind, lastErr = kind, errText

		if i+1 < len(chain) {
			// The advance is durable before the next model runs, so the
			// audit trail survives a crash mid-chain.
			decision := models.FallbackDecision{
				Timestamp:     time.Now().UTC(),
				Label:         req.Label,
				OriginalModel: model,
				FallbackModel: chain[i+1],
				ErrorType:     kind,
				Attempt:       result.Attempts,
				Reason:        errText,
			}
			if err := e.decisions.Append(decision); err != nil {
				log.Printf("[spawn] append fallback decision: %v", err)
			}
			log.Printf("[spawn] %s: %s failed (%s), falling back to %s", req.Label, model, kind, chain[i+1])
		}
	}

	log.Printf("[spawn] %s: fallback chain exhausted after %d attempts", req.Label, result.Attempts)
	result.Error = fmt.Sprintf("all models exhausted: last failure %s: %s", lastKind, lastErr)
	// Best effort only. A broken notifier must never change the result.
	e.notifier.NotifyFailure()
	return result, nil
}

// checkPreconditions enforces the depth limit and task linkage. Violations
// are logged durably before the error is returned.
func (e *Engine) checkPreconditions(req Request) error {
	if req.CurrentDepth+1 > MaxDepth {
		return e.raise(&PolicyViolation{
			Kind:   DepthLimitExceeded,
			Label:  req.Label,
			Detail: fmt.Sprintf("depth %d cannot spawn: limit is %d", req.CurrentDepth, MaxDepth),
		})
	}

	if req.WorkType == models.WorkDeliverable {
		if req.TaskRef == "" {
			return e.raise(&PolicyViolation{
				Kind:   TaskLinkageMissing,
				Label:  req.Label,
				Detail: "deliverable work has no task reference; link a task or use an explicit bypass",
			})
		}
		if e.tasks == nil {
			return e.raise(&PolicyViolation{
				Kind:   TaskLinkageMissing,
				Label:  req.Label,
				Detail: "no task store configured to resolve " + req.TaskRef,
			})
		}
		if _, err := e.tasks.Resolve(req.TaskRef); err != nil {
			return e.raise(&PolicyViolation{
				Kind:   TaskLinkageMissing,
				Label:  req.Label,
				Detail: fmt.Sprintf("task reference %q does not resolve: %v", req.TaskRef, err),
			})
		}
	}

	return nil
}

// raise logs a policy violation and returns it.
func (e *Engine) raise(pv *PolicyViolation) error {
	if e.violations != nil {
		rec := violationRecord{
			Timestamp: time.Now().UTC(),
			Label:     pv.Label,
			Kind:      pv.Kind,
			Detail:    pv.Detail,
		}
		if err := e.violations.Append(rec); err != nil {
			log.Printf("[spawn] append violation: %v", err)
		}
	}
	return pv
}

// tryModel attempts one model up to maxRetries times. Returns the backend
// result on success; otherwise the last failure kind and message.
func (e *Engine) tryModel(ctx context.Context, req Request, model string, maxRetries int, retryDelay time.Duration, attempts *int) (models.SpawnErrorKind, string, *backend.Result) {
	var kind models.SpawnErrorKind
	var errText string

	for try := 0; try < maxRetries; try++ {
		*attempts++

		attemptCtx, cancel := context.WithTimeout(ctx, e.cfg.AttemptTimeout)
		res, err := e.backend.Invoke(attemptCtx, backend.Invocation{
			Task:    req.Task,
			Label:   req.Label,
			Model:   model,
			WorkDir: req.WorkDir,
		})
		cancel()

		if err == nil && res != nil && res.ExitCode == 0 {
			return "", "", res
		}

		output := ""
		exitCode := -1
		if res != nil {
			output = res.Output
			exitCode = res.ExitCode
		}
		kind = ClassifyFailure(output, exitCode, err)
		errText = failureText(output, err)
		log.Printf("[spawn] %s: attempt %d on %s failed: %s", req.Label, *attempts, model, kind)

		switch kind {
		case models.ErrModelUnavailable:
			// A retry cannot make the model exist. Advance now.
			return kind, errText, nil
		case models.ErrRateLimit:
			if try+1 < maxRetries {
				e.sleep(retryDelay)
			}
		default:
			// timeout / unknown: retry the same model without delay.
		}
	}

	return kind, errText, nil
}

// buildChain puts the requested model first, then the override or default
// chain with duplicates removed. Order is preserved.
func buildChain(requested string, override, fallback []string) []string {
	base := override
	if base == nil {
		base = fallback
	}

	chain := make([]string, 0, len(base)+1)
	seen := make(map[string]bool, len(base)+1)
	if requested != "" {
		chain = append(chain, requested)
		seen[requested] = true
	}
	for _, m := range base {
		if m == "" || seen[m] {
			continue
		}
		chain = append(chain, m)
		seen[m] = true
	}
	return chain
}

// failureText picks the most useful description of a failed attempt.
func failureText(output string, err error) string {
	if output != "" {
		const limit = 300
		if len(output) > limit {
			output = output[:limit]
		}
		return output
	}
	if err != nil {
		return err.Error()
	}
	return "no output"
}
