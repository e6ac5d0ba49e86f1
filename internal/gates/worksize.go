// Package gates implements the two-stage human confirmation gates that run
// between planning and execution, sized by the plan's aggregate estimate.
package gates

import (
	"github.com/ShayCichocki/steward/pkg/models"
)

// Estimate is the fixed per-complexity cost assumption used for sizing and
// the Gate 2 dollar figure. These are planning constants, not telemetry;
// the rendered messages say "estimate" for that reason.
type Estimate struct {
	// Minutes is the assumed wall-clock time for one subtask.
	Minutes int
	// Tokens is the assumed token volume for one subtask.
	Tokens int64
}

// complexityEstimates is the closed per-complexity estimate table.
var complexityEstimates = map[models.Complexity]Estimate{
	models.ComplexitySimple:   {Minutes: 5, Tokens: 8_000},
	models.ComplexityModerate: {Minutes: 15, Tokens: 30_000},
	models.ComplexityComplex:  {Minutes: 45, Tokens: 90_000},
}

// EstimateFor returns the fixed estimate for a complexity tier. Unknown
// tiers get the moderate estimate; sizing must never fail a run.
func EstimateFor(c models.Complexity) Estimate {
	if est, ok := complexityEstimates[c]; ok {
		return est
	}
	return complexityEstimates[models.ComplexityModerate]
}

// Work-size thresholds. A plan is bucketed by both its ETA and its token
// volume and takes the larger bucket, so a short plan with a huge token
// estimate still gets the bigger gate.
const (
	trivialMaxMinutes = 2

	smallMaxMinutes  = 10
	mediumMaxMinutes = 45
	largeMaxMinutes  = 180

	smallMaxTokens  = 20_000
	mediumMaxTokens = 100_000
	largeMaxTokens  = 500_000
)

// ClassifyWorkSize buckets an aggregate estimate. Trivial requires under
// two minutes, no deliverable, and a token volume inside the small bucket.
func ClassifyWorkSize(etaMinutes int, tokens int64, hasDeliverable bool) models.WorkSize {
	if etaMinutes < trivialMaxMinutes && !hasDeliverable && tokens < smallMaxTokens {
		return models.SizeTrivial
	}

	bySize := sizeFromMinutes(etaMinutes)
	byTokens := sizeFromTokens(tokens)
	if byTokens.AtLeast(bySize) {
		return byTokens
	}
	return bySize
}

func sizeFromMinutes(minutes int) models.WorkSize {
	switch {
	case minutes <= smallMaxMinutes:
		return models.SizeSmall
	case minutes <= mediumMaxMinutes:
		return models.SizeMedium
	case minutes <= largeMaxMinutes:
		return models.SizeLarge
	default:
		return models.SizeEpic
	}
}

func sizeFromTokens(tokens int64) models.WorkSize {
	switch {
	case tokens < smallMaxTokens:
		return models.SizeSmall
	case tokens < mediumMaxTokens:
		return models.SizeMedium
	case tokens < largeMaxTokens:
		return models.SizeLarge
	default:
		return models.SizeEpic
	}
}

// Per-1K-token pricing used for the Gate 2 cost estimate, and the assumed
// input/output split of the token volume.
const (
	inputRatePer1K  = 0.003
	outputRatePer1K = 0.015

	inputShare = 0.6
)

// EstimateCost computes the linear dollar estimate for a token volume.
func EstimateCost(tokens int64) float64 {
	input := float64(tokens) * inputShare
	output := float64(tokens) * (1 - inputShare)
	return input/1000*inputRatePer1K + output/1000*outputRatePer1K
}
