package orchestrator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ShayCichocki/steward/internal/gates"
	"github.com/ShayCichocki/steward/pkg/models"
)

// SubtaskSpec is a caller-supplied subtask. Everything except Description
// is optional; missing fields are resolved during planning.
type SubtaskSpec struct {
	Name        string
	Description string
	Role        models.Role
	Complexity  models.Complexity
	Model       string
}

// Plan is the resolved output of the planning phase: ordered subtasks with
// models assigned plus the aggregate estimate that sizes the gates.
type Plan struct {
	Goal              string
	Subtasks          []models.Subtask
	DeliverableTarget string
	EstimatedMinutes  int
	EstimatedTokens   int64
	WorkSize          models.WorkSize
}

// Summary converts the plan into the shape the confirmation gates render.
func (p *Plan) Summary() gates.PlanSummary {
	steps := make([]string, len(p.Subtasks))
	for i, st := range p.Subtasks {
		steps[i] = st.Name
	}
	return gates.PlanSummary{
		Goal:              p.Goal,
		Steps:             steps,
		DeliverableTarget: p.DeliverableTarget,
		EstimatedMinutes:  p.EstimatedMinutes,
		EstimatedTokens:   p.EstimatedTokens,
	}
}

// stepLineRe matches numbered or bulleted lines used to split a free-text
// request into subtasks.
var stepLineRe = regexp.MustCompile(`^\s*(?:\d+[.)]|[-*])\s+(.+?)\s*$`)

// roleKeywords maps signal words in a subtask description to a role.
// First match wins; descriptions with no signal default to coder.
var roleKeywords = []struct {
	role  models.Role
	words []string
}{
	{models.RoleResearcher, []string{"research", "investigate", "find out", "survey", "explore"}},
	{models.RoleReviewer, []string{"review", "audit", "critique", "check over"}},
	{models.RoleAnalyst, []string{"analyze", "analyse", "compare", "evaluate", "measure"}},
	{models.RoleWriter, []string{"write up", "document", "summarize", "summarise", "draft"}},
	{models.RoleIntegrator, []string{"integrate", "merge", "combine", "assemble"}},
	{models.RoleCoder, []string{"implement", "build", "fix", "refactor", "code", "write"}},
}

// buildPlan resolves a request into an ordered, fully-assigned plan.
// Explicit specs are honored as given; with none, the request text is split
// into steps, or treated as a single subtask.
func (o *Orchestrator) buildPlan(goal string, specs []SubtaskSpec, deliverableTarget string) (*Plan, error) {
	if len(specs) == 0 {
		specs = decompose(goal)
	}

	plan := &Plan{
		Goal:              goal,
		DeliverableTarget: deliverableTarget,
	}

	for i, spec := range specs {
		if strings.TrimSpace(spec.Description) == "" {
			return nil, fmt.Errorf("subtask %d has no description", i+1)
		}

		role := spec.Role
		if role == "" {
			role = detectRole(spec.Description)
		}
		tmpl, err := o.roles.Get(role)
		if err != nil {
			return nil, fmt.Errorf("subtask %d: %w", i+1, err)
		}

		complexity := spec.Complexity
		if complexity == "" {
			complexity = tmpl.DefaultComplexity
		}

		model, err := o.selector.SelectModel(spec.Description, complexity, spec.Model)
		if err != nil {
			return nil, fmt.Errorf("subtask %d: %w", i+1, err)
		}
		if complexity == "" {
			complexity = o.classifier.ClassifyComplexity(spec.Description)
		}

		name := spec.Name
		if name == "" {
			name = fmt.Sprintf("subtask-%02d", i+1)
		}

		plan.Subtasks = append(plan.Subtasks, models.Subtask{
			Name:        name,
			Description: spec.Description,
			Complexity:  complexity,
			Model:       model,
			Role:        role,
			Constraints: tmpl.AllConstraints(),
		})

		est := gates.EstimateFor(complexity)
		plan.EstimatedMinutes += est.Minutes
		plan.EstimatedTokens += est.Tokens
	}

	plan.WorkSize = gates.ClassifyWorkSize(plan.EstimatedMinutes, plan.EstimatedTokens, deliverableTarget != "")
	return plan, nil
}

// decompose splits a free-text request into subtask specs. Numbered or
// bulleted lines become one subtask each; anything else is a single
// subtask covering the whole request.
func decompose(goal string) []SubtaskSpec {
	var specs []SubtaskSpec
	for _, line := range strings.Split(goal, "\n") {
		if m := stepLineRe.FindStringSubmatch(line); m != nil {
			specs = append(specs, SubtaskSpec{Description: m[1]})
		}
	}
	if len(specs) == 0 {
		specs = []SubtaskSpec{{Description: strings.TrimSpace(goal)}}
	}
	return specs
}

func detectRole(description string) models.Role {
	lower := strings.ToLower(description)
	for _, rk := range roleKeywords {
		for _, w := range rk.words {
			if strings.Contains(lower, w) {
				return rk.role
			}
		}
	}
	return models.RoleCoder
}
