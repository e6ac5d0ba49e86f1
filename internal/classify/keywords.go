// Package classify provides the heuristic work classifier: it decides whether
// a request is trivial or deliverable work and assigns a complexity tier.
package classify

import "regexp"

// WorkKeywords is the single source of truth for work-type classification.
// The same lists feed the guardrails pre-work gate and the orchestrator's
// planner so a request is never classified two different ways.
type WorkKeywords struct {
	// Trivial keywords indicate throwaway work: questions, lookups, and
	// small fixes that need no task record.
	Trivial map[string]int

	// Deliverable keywords indicate work expected to leave an artifact.
	Deliverable map[string]int
}

// DefaultWorkKeywords returns the authoritative keyword weights.
var DefaultWorkKeywords = WorkKeywords{
	Trivial: map[string]int{
		"quick":    2,
		"quickly":  1,
		"just":     1,
		"simply":   1,
		"check":    1,
		"look up":  2,
		"lookup":   2,
		"remind":   2,
		"tell me":  2,
		"show me":  2,
		"what is":  2,
		"where is": 2,
		"status":   1,
		"ping":     1,
		"typo":     2,
		"rename":   1,
	},
	Deliverable: map[string]int{
		"create":        2,
		"build":         2,
		"write":         2,
		"implement":     2,
		"draft":         2,
		"design":        1,
		"develop":       1,
		"generate":      1,
		"produce":       2,
		"prepare":       1,
		"publish":       2,
		"report":        2,
		"document":      2,
		"guide":         2,
		"plan":          1,
		"analyze":       1,
		"analysis":      1,
		"research":      1,
		"summarize":     1,
		"deliverable":   3,
		"comprehensive": 2,
	},
}

// deliverablePatterns match phrasing that signals deliverable work even when
// individual keywords are weak. Each match counts double.
var deliverablePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(create|write|draft|build|produce|prepare)\s+(a|an|the)\b`),
	regexp.MustCompile(`(?i)\bdeliverables?\b`),
	regexp.MustCompile(`(?i)\b(report|document|guide|spec|proposal|summary)\s+(on|for|about|of)\b`),
	regexp.MustCompile(`(?i)\bby\s+(eod|end of day|tomorrow|monday|tuesday|wednesday|thursday|friday)\b`),
}

// patternWeight is the score added per deliverable-pattern match.
const patternWeight = 2

// complexKeywords skew complexity toward complex.
var complexKeywords = []string{
	"architecture",
	"architect",
	"redesign",
	"refactor",
	"migration",
	"migrate",
	"comprehensive",
	"end-to-end",
	"multi",
	"pipeline",
	"integrate",
	"integration",
	"system",
	"overhaul",
}

// simpleKeywords skew complexity toward simple.
var simpleKeywords = []string{
	"typo",
	"rename",
	"formatting",
	"tweak",
	"small",
	"single",
	"quick",
	"trivial",
	"boilerplate",
}
