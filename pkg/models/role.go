package models

// Role identifies the template a spawned agent works under.
type Role string

const (
	// RoleResearcher gathers information and summarizes findings.
	RoleResearcher Role = "researcher"
	// RoleCoder writes or modifies code.
	RoleCoder Role = "coder"
	// RoleAnalyst evaluates data or trade-offs.
	RoleAnalyst Role = "analyst"
	// RoleWriter produces prose documents.
	RoleWriter Role = "writer"
	// RoleReviewer critiques existing work.
	RoleReviewer Role = "reviewer"
	// RoleIntegrator combines outputs from earlier subtasks.
	RoleIntegrator Role = "integrator"
)

// Valid returns true if the role is a known value.
func (r Role) Valid() bool {
	switch r {
	case RoleResearcher, RoleCoder, RoleAnalyst, RoleWriter, RoleReviewer, RoleIntegrator:
		return true
	default:
		return false
	}
}
