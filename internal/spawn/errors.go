// Package spawn implements the spawn engine: policy preconditions, retry
// with model fallback, and failure classification for sub-agent invocations.
package spawn

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ShayCichocki/steward/pkg/models"
)

// PolicyViolationKind names the precondition that failed.
type PolicyViolationKind string

const (
	// DepthLimitExceeded means the spawn would nest deeper than allowed.
	DepthLimitExceeded PolicyViolationKind = "depth_limit_exceeded"
	// TaskLinkageMissing means deliverable work has no resolvable task.
	TaskLinkageMissing PolicyViolationKind = "task_linkage_missing"
)

// PolicyViolation is raised synchronously before any backend call when a
// spawn precondition fails. It aborts only the current spawn.
type PolicyViolation struct {
	Kind   PolicyViolationKind
	Label  string
	Detail string
}

// Error implements the error interface.
func (e *PolicyViolation) Error() string {
	return fmt.Sprintf("policy violation (%s) for %q: %s", e.Kind, e.Label, e.Detail)
}

// IsPolicyViolation reports whether err is a PolicyViolation and returns it.
func IsPolicyViolation(err error) (*PolicyViolation, bool) {
	var pv *PolicyViolation
	if errors.As(err, &pv) {
		return pv, true
	}
	return nil, false
}

// Failure-classification signatures. Matched case-insensitively against
// backend output; order matters, the first hit wins.
var (
	rateLimitSignatures = []string{
		"rate limit",
		"rate_limit",
		"too many requests",
		"overloaded",
		"429",
	}
	modelUnavailableSignatures = []string{
		"model not found",
		"unknown model",
		"invalid model",
		"no such model",
		"not_found_error",
		"model_unavailable",
	}
	timeoutSignatures = []string{
		"timed out",
		"timeout",
		"deadline exceeded",
	}
)

// ClassifyFailure folds a failed attempt's output, exit code, and transport
// error into a SpawnErrorKind. Anything unrecognized is unknown, which the
// engine treats like a timeout: retry the same model, then advance.
func ClassifyFailure(output string, exitCode int, err error) models.SpawnErrorKind {
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		return models.ErrTimeout
	}

	lower := strings.ToLower(output)
	for _, sig := range rateLimitSignatures {
		if strings.Contains(lower, sig) {
			return models.ErrRateLimit
		}
	}
	for _, sig := range modelUnavailableSignatures {
		if strings.Contains(lower, sig) {
			return models.ErrModelUnavailable
		}
	}
	for _, sig := range timeoutSignatures {
		if strings.Contains(lower, sig) {
			return models.ErrTimeout
		}
	}
	return models.ErrUnknown
}

// sessionIDRe matches the session identifiers backends print: a UUID or a
// sess-prefixed token.
var sessionIDRe = regexp.MustCompile(`\b(?:[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}|sess[-_][A-Za-z0-9]+)\b`)

// ParseSessionID extracts the first session id token from backend output.
// Returns empty when none is present.
func ParseSessionID(output string) string {
	return sessionIDRe.FindString(output)
}
