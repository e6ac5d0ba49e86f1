// Package selector maps complexity and role to a concrete model assignment.
package selector

import (
	"fmt"

	"github.com/ShayCichocki/steward/internal/classify"
	"github.com/ShayCichocki/steward/pkg/models"
)

// Model identifiers for the three capability levels.
const (
	// ModelHaiku is the lightweight, fast model for simple work.
	ModelHaiku = "claude-3-5-haiku-20241022"
	// ModelSonnet is the balanced model for standard work.
	ModelSonnet = "claude-sonnet-4-20250514"
	// ModelOpus is the most capable model for complex work.
	ModelOpus = "claude-opus-4-5-20251101"
)

// complexityModels is the closed complexity-to-model table. Every valid
// complexity has an entry; an unknown complexity is a caller bug and is
// reported as an error, never silently defaulted.
var complexityModels = map[models.Complexity]string{
	models.ComplexitySimple:   ModelHaiku,
	models.ComplexityModerate: ModelSonnet,
	models.ComplexityComplex:  ModelOpus,
}

// DefaultFallbackChain is the order models are tried when a spawn fails.
// The requested model is always moved to the front of this chain.
var DefaultFallbackChain = []string{ModelSonnet, ModelHaiku, ModelOpus}

// ModelFor returns the model assigned to a complexity tier.
func ModelFor(complexity models.Complexity) (string, error) {
	model, ok := complexityModels[complexity]
	if !ok {
		return "", fmt.Errorf("no model mapping for complexity %q", complexity)
	}
	return model, nil
}

// Selector resolves the model for a piece of work. Priority order:
// an explicit model wins, then an explicit complexity override, then the
// complexity auto-classified from the text.
type Selector struct {
	classifier classify.Classifier
}

// New creates a Selector using the given classifier for auto-classification.
// A nil classifier gets the default heuristic.
func New(classifier classify.Classifier) *Selector {
	if classifier == nil {
		classifier = classify.NewHeuristic()
	}
	return &Selector{classifier: classifier}
}

// SelectModel picks the model for the given text. explicitModel and
// complexityOverride may be empty; an invalid complexity override is an
// error rather than a silent default.
func (s *Selector) SelectModel(text string, complexityOverride models.Complexity, explicitModel string) (string, error) {
	if explicitModel != "" {
		return explicitModel, nil
	}
	if complexityOverride != "" {
		if !complexityOverride.Valid() {
			return "", fmt.Errorf("invalid complexity override %q", complexityOverride)
		}
		return ModelFor(complexityOverride)
	}
	return ModelFor(s.classifier.ClassifyComplexity(text))
}
