// Package models defines the shared types used across the steward engine.
package models

// WorkType classifies a request by whether it must leave a durable artifact.
type WorkType string

const (
	// WorkTrivial is work that needs no task record and no deliverable.
	WorkTrivial WorkType = "trivial"
	// WorkDeliverable is work expected to produce an artifact that must
	// remain accessible after the session ends.
	WorkDeliverable WorkType = "deliverable"
	// WorkBypassed marks work that skipped the task-linkage requirement
	// with an explicit human-supplied reason.
	WorkBypassed WorkType = "bypassed"
)

// Valid returns true if the work type is a known value.
func (w WorkType) Valid() bool {
	switch w {
	case WorkTrivial, WorkDeliverable, WorkBypassed:
		return true
	default:
		return false
	}
}

// Complexity is the difficulty tier of a piece of work. It drives model
// selection and the fixed ETA/token estimates used for sizing.
type Complexity string

const (
	// ComplexitySimple is for small, mechanical work.
	ComplexitySimple Complexity = "simple"
	// ComplexityModerate is for standard implementation work.
	ComplexityModerate Complexity = "moderate"
	// ComplexityComplex is for design-heavy or multi-part work.
	ComplexityComplex Complexity = "complex"
)

// Valid returns true if the complexity is a known value.
func (c Complexity) Valid() bool {
	switch c {
	case ComplexitySimple, ComplexityModerate, ComplexityComplex:
		return true
	default:
		return false
	}
}

// WorkSize buckets a plan's aggregate estimate for confirmation gating.
type WorkSize string

const (
	// SizeTrivial is under two minutes with no deliverable. No gates fire.
	SizeTrivial WorkSize = "trivial"
	// SizeSmall is at most 10 minutes or under 20K tokens. Gate 1 only.
	SizeSmall WorkSize = "small"
	// SizeMedium is at most 45 minutes or under 100K tokens. Both gates.
	SizeMedium WorkSize = "medium"
	// SizeLarge is at most 180 minutes or under 500K tokens. Both gates.
	SizeLarge WorkSize = "large"
	// SizeEpic is anything beyond large. Both gates.
	SizeEpic WorkSize = "epic"
)

// Valid returns true if the work size is a known value.
func (s WorkSize) Valid() bool {
	switch s {
	case SizeTrivial, SizeSmall, SizeMedium, SizeLarge, SizeEpic:
		return true
	default:
		return false
	}
}

// ordinal gives the forward ordering of sizes, smallest first.
func (s WorkSize) ordinal() int {
	switch s {
	case SizeTrivial:
		return 0
	case SizeSmall:
		return 1
	case SizeMedium:
		return 2
	case SizeLarge:
		return 3
	case SizeEpic:
		return 4
	default:
		return -1
	}
}

// AtLeast returns true if s is the same size as other or bigger.
func (s WorkSize) AtLeast(other WorkSize) bool {
	return s.ordinal() >= other.ordinal()
}
