package classify

import (
	"fmt"
	"strings"

	"github.com/ShayCichocki/steward/pkg/models"
)

// Context carries extra signals the caller already knows about a request.
type Context struct {
	// EstimatedMinutes is an explicit caller-supplied duration estimate.
	// Zero means unknown; a text-extracted duration is used instead.
	EstimatedMinutes int
}

// Classification is the result of classifying a request.
type Classification struct {
	// Type is trivial or deliverable.
	Type models.WorkType
	// Confidence is how sure the classifier is (0.0-1.0).
	Confidence float64
	// Reasoning is a one-line explanation for logs and gate messages.
	Reasoning string
	// EstimatedMinutes is the explicit duration, 0 when none was found.
	EstimatedMinutes int
}

// Classifier decides whether a request is trivial or deliverable work.
// The heuristic implementation below is the default; a model-backed
// classifier can be substituted without touching any caller.
type Classifier interface {
	Classify(text string, ctx *Context) Classification
	ClassifyComplexity(text string) models.Complexity
}

// trivialCutoff and deliverableCutoff bound the explicit-duration rules:
// under trivialCutoff minutes forces trivial, at or over deliverableCutoff
// forces deliverable regardless of keyword score.
const (
	trivialCutoff     = 5
	deliverableCutoff = 30
)

// Heuristic is the keyword/regex work classifier. It is pure: no side
// effects, no errors; ambiguous input always resolves to the conservative
// branch (deliverable).
type Heuristic struct {
	keywords WorkKeywords
}

// NewHeuristic creates a classifier with the default keyword weights.
func NewHeuristic() *Heuristic {
	return &Heuristic{keywords: DefaultWorkKeywords}
}

// Classify applies the rule cascade:
//  1. An explicit duration under 5 minutes forces trivial at high confidence.
//  2. An explicit duration of 30 minutes or more forces deliverable
//     regardless of keyword score.
//  3. Otherwise weighted trivial vs deliverable keyword counts decide, with
//     deliverable phrasing patterns counting extra.
//  4. A genuine keyword tie is broken by text shape: short question-marked
//     text skews trivial, long or multi-line text skews deliverable.
//  5. Zero matches on both sides, or a still-unbroken tie, defaults to
//     deliverable. The failure mode is an unnecessary task record, never a
//     missing one.
func (h *Heuristic) Classify(text string, ctx *Context) Classification {
	minutes, hasDuration := 0, false
	if ctx != nil && ctx.EstimatedMinutes > 0 {
		minutes, hasDuration = ctx.EstimatedMinutes, true
	} else {
		minutes, hasDuration = ExtractMinutes(text)
	}

	if hasDuration && minutes < trivialCutoff {
		return Classification{
			Type:             models.WorkTrivial,
			Confidence:       0.95,
			Reasoning:        fmt.Sprintf("explicit duration of %d min is under the %d min cutoff", minutes, trivialCutoff),
			EstimatedMinutes: minutes,
		}
	}

	trivialScore, deliverableScore := h.score(text)

	if hasDuration && minutes >= deliverableCutoff {
		return Classification{
			Type:             models.WorkDeliverable,
			Confidence:       0.9,
			Reasoning:        fmt.Sprintf("explicit duration of %d min is at or over the %d min cutoff", minutes, deliverableCutoff),
			EstimatedMinutes: minutes,
		}
	}

	if trivialScore == 0 && deliverableScore == 0 {
		return Classification{
			Type:             models.WorkDeliverable,
			Confidence:       0.55,
			Reasoning:        "no keyword signal either way, defaulting to deliverable",
			EstimatedMinutes: minutes,
		}
	}

	if trivialScore == deliverableScore {
		if shortQuestion(text) {
			return Classification{
				Type:             models.WorkTrivial,
				Confidence:       0.6,
				Reasoning:        "keyword tie broken by short question-shaped text",
				EstimatedMinutes: minutes,
			}
		}
		return Classification{
			Type:             models.WorkDeliverable,
			Confidence:       0.6,
			Reasoning:        "keyword tie, defaulting to deliverable",
			EstimatedMinutes: minutes,
		}
	}

	if trivialScore > deliverableScore {
		return Classification{
			Type:             models.WorkTrivial,
			Confidence:       scoreConfidence(trivialScore - deliverableScore),
			Reasoning:        fmt.Sprintf("trivial keywords outweigh deliverable %d to %d", trivialScore, deliverableScore),
			EstimatedMinutes: minutes,
		}
	}
	return Classification{
		Type:             models.WorkDeliverable,
		Confidence:       scoreConfidence(deliverableScore - trivialScore),
		Reasoning:        fmt.Sprintf("deliverable keywords outweigh trivial %d to %d", deliverableScore, trivialScore),
		EstimatedMinutes: minutes,
	}
}

// score computes the weighted trivial and deliverable keyword scores.
func (h *Heuristic) score(text string) (trivial, deliverable int) {
	lower := strings.ToLower(text)
	for kw, weight := range h.keywords.Trivial {
		if strings.Contains(lower, kw) {
			trivial += weight
		}
	}
	for kw, weight := range h.keywords.Deliverable {
		if strings.Contains(lower, kw) {
			deliverable += weight
		}
	}
	for _, re := range deliverablePatterns {
		if re.MatchString(text) {
			deliverable += patternWeight
		}
	}
	return trivial, deliverable
}

// shortQuestion reports whether text looks like a one-line question.
const shortTextLimit = 80

func shortQuestion(text string) bool {
	trimmed := strings.TrimSpace(text)
	return len(trimmed) <= shortTextLimit &&
		strings.Contains(trimmed, "?") &&
		!strings.Contains(trimmed, "\n")
}

// scoreConfidence maps a keyword score margin to a confidence value.
func scoreConfidence(margin int) float64 {
	conf := 0.6 + 0.07*float64(margin)
	if conf > 0.9 {
		conf = 0.9
	}
	return conf
}

// ClassifyComplexity assigns a complexity tier with the same kind of keyword
// heuristic. Complex keywords win over simple ones; long multi-line text
// skews complex; everything else is moderate.
func (h *Heuristic) ClassifyComplexity(text string) models.Complexity {
	lower := strings.ToLower(text)

	for _, kw := range complexKeywords {
		if strings.Contains(lower, kw) {
			return models.ComplexityComplex
		}
	}
	for _, kw := range simpleKeywords {
		if strings.Contains(lower, kw) {
			return models.ComplexitySimple
		}
	}
	if len(text) > 400 && strings.Contains(text, "\n") {
		return models.ComplexityComplex
	}
	return models.ComplexityModerate
}

// Verify Heuristic implements Classifier at compile time.
var _ Classifier = (*Heuristic)(nil)

// Classify is a convenience wrapper using the default heuristic.
func Classify(text string, ctx *Context) Classification {
	return NewHeuristic().Classify(text, ctx)
}

// ClassifyComplexity is a convenience wrapper using the default heuristic.
func ClassifyComplexity(text string) models.Complexity {
	return NewHeuristic().ClassifyComplexity(text)
}
