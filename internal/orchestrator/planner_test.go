package orchestrator

import (
	"testing"

	"github.com/ShayCichocki/steward/internal/selector"
	"github.com/ShayCichocki/steward/pkg/models"
)

func newPlannerOrchestrator() *Orchestrator {
	return New(nil, Options{})
}

func TestBuildPlanDecomposesSteps(t *testing.T) {
	o := newPlannerOrchestrator()

	goal := `Ship the quarterly report:
1. research the Q3 numbers
2. draft the report
- review the final copy`

	plan, err := o.buildPlan(goal, nil, "")
	if err != nil {
		t.Fatalf("buildPlan: %v", err)
	}

	if len(plan.Subtasks) != 3 {
		t.Fatalf("got %d subtasks, want 3", len(plan.Subtasks))
	}
	wantRoles := []models.Role{models.RoleResearcher, models.RoleWriter, models.RoleReviewer}
	for i, want := range wantRoles {
		if plan.Subtasks[i].Role != want {
			t.Errorf("subtasks[%d].Role = %s, want %s", i, plan.Subtasks[i].Role, want)
		}
	}
	for i, st := range plan.Subtasks {
		if st.Name == "" {
			t.Errorf("subtasks[%d] has no generated name", i)
		}
		if st.Model == "" {
			t.Errorf("subtasks[%d] has no model assigned", i)
		}
		if len(st.Constraints) == 0 {
			t.Errorf("subtasks[%d] carries no constraints", i)
		}
	}
}

func TestBuildPlanSingleSubtaskFallback(t *testing.T) {
	o := newPlannerOrchestrator()

	plan, err := o.buildPlan("tidy the config loader", nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.Subtasks) != 1 {
		t.Fatalf("got %d subtasks, want 1", len(plan.Subtasks))
	}
	if plan.Subtasks[0].Description != "tidy the config loader" {
		t.Errorf("description = %q", plan.Subtasks[0].Description)
	}
	if plan.Subtasks[0].Role != models.RoleCoder {
		t.Errorf("role = %s, want the coder default", plan.Subtasks[0].Role)
	}
}

func TestBuildPlanHonorsExplicitSpecs(t *testing.T) {
	o := newPlannerOrchestrator()

	specs := []SubtaskSpec{{
		Name:        "custom",
		Description: "review the deployment scripts",
		Role:        models.RoleCoder,
		Complexity:  models.ComplexityComplex,
		Model:       "my-pinned-model",
	}}
	plan, err := o.buildPlan("goal", specs, "")
	if err != nil {
		t.Fatal(err)
	}

	st := plan.Subtasks[0]
	if st.Name != "custom" || st.Role != models.RoleCoder {
		t.Errorf("explicit name/role not honored: %+v", st)
	}
	if st.Complexity != models.ComplexityComplex {
		t.Errorf("complexity = %s, want the explicit override", st.Complexity)
	}
	if st.Model != "my-pinned-model" {
		t.Errorf("model = %q, want the pinned model", st.Model)
	}
}

func TestBuildPlanErrors(t *testing.T) {
	o := newPlannerOrchestrator()

	if _, err := o.buildPlan("goal", []SubtaskSpec{{Description: "   "}}, ""); err == nil {
		t.Error("blank description must fail planning")
	}
	if _, err := o.buildPlan("goal", []SubtaskSpec{{Description: "x", Role: "wizard"}}, ""); err == nil {
		t.Error("unknown role must fail planning")
	}
	if _, err := o.buildPlan("goal", []SubtaskSpec{{Description: "x", Complexity: "huge"}}, ""); err == nil {
		t.Error("invalid complexity must fail planning")
	}
}

func TestBuildPlanAggregatesEstimates(t *testing.T) {
	o := newPlannerOrchestrator()

	specs := []SubtaskSpec{
		{Description: "a", Complexity: models.ComplexitySimple},
		{Description: "b", Complexity: models.ComplexityComplex},
	}
	plan, err := o.buildPlan("goal", specs, "[[notes/Target]]")
	if err != nil {
		t.Fatal(err)
	}

	// simple 5 min / 8K plus complex 45 min / 90K.
	if plan.EstimatedMinutes != 50 {
		t.Errorf("EstimatedMinutes = %d, want 50", plan.EstimatedMinutes)
	}
	if plan.EstimatedTokens != 98_000 {
		t.Errorf("EstimatedTokens = %d, want 98000", plan.EstimatedTokens)
	}
	if plan.WorkSize != models.SizeLarge {
		t.Errorf("WorkSize = %s, want large for a 50 min plan", plan.WorkSize)
	}
	if plan.Subtasks[0].Model != selector.ModelHaiku || plan.Subtasks[1].Model != selector.ModelOpus {
		t.Errorf("models = %q, %q", plan.Subtasks[0].Model, plan.Subtasks[1].Model)
	}
}

func TestPlanSummary(t *testing.T) {
	plan := &Plan{
		Goal: "ship it",
		Subtasks: []models.Subtask{
			{Name: "one"}, {Name: "two"},
		},
		DeliverableTarget: "[[notes/Target]]",
		EstimatedMinutes:  20,
		EstimatedTokens:   38_000,
	}

	s := plan.Summary()
	if s.Goal != "ship it" || s.DeliverableTarget != "[[notes/Target]]" {
		t.Errorf("summary = %+v", s)
	}
	if len(s.Steps) != 2 || s.Steps[0] != "one" {
		t.Errorf("steps = %v", s.Steps)
	}
	if s.EstimatedMinutes != 20 || s.EstimatedTokens != 38_000 {
		t.Errorf("estimates = %d min, %d tokens", s.EstimatedMinutes, s.EstimatedTokens)
	}
}

func TestDetectRole(t *testing.T) {
	tests := []struct {
		description string
		want        models.Role
	}{
		{"research the market landscape", models.RoleResearcher},
		{"review the pull request", models.RoleReviewer},
		{"analyze the benchmark results", models.RoleAnalyst},
		{"document the API surface", models.RoleWriter},
		{"combine the sections into one report", models.RoleIntegrator},
		{"implement the parser", models.RoleCoder},
		{"no signal words here", models.RoleCoder},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			if got := detectRole(tt.description); got != tt.want {
				t.Errorf("detectRole(%q) = %s, want %s", tt.description, got, tt.want)
			}
		})
	}
}
