package models

// GateStatus is the state of a guardrails session. It only ever advances:
// pending is written by the pre-work gate and one of the terminal states is
// written by the post-work gate (or the bypass path).
type GateStatus string

const (
	// GatePending means the pre-work gate passed and work is underway.
	GatePending GateStatus = "pending"
	// GatePassed means every deliverable validated as accessible.
	GatePassed GateStatus = "passed"
	// GateWarned means at least one deliverable is local-only.
	GateWarned GateStatus = "warned"
	// GateBlocked means a pre-work precondition failed.
	GateBlocked GateStatus = "blocked"
	// GateBypassed means the task-linkage requirement was waived with a
	// recorded human reason.
	GateBypassed GateStatus = "bypassed"
)

// Valid returns true if the status is a known value.
func (s GateStatus) Valid() bool {
	switch s {
	case GatePending, GatePassed, GateWarned, GateBlocked, GateBypassed:
		return true
	default:
		return false
	}
}

// Final returns true for states that close the session.
func (s GateStatus) Final() bool {
	switch s {
	case GatePassed, GateWarned, GateBlocked, GateBypassed:
		return true
	default:
		return false
	}
}

// CanTransition reports whether moving from s to next is a legal advance.
// Pending may finalize any way; final states accept nothing.
func (s GateStatus) CanTransition(next GateStatus) bool {
	if !next.Valid() {
		return false
	}
	return s == GatePending && next.Final()
}
