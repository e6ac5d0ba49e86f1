package gates

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/steward/pkg/models"
)

// PlanSummary is the slice of a plan the gates render. The orchestrator
// builds one from its full plan before asking for confirmation.
type PlanSummary struct {
	Goal              string
	Steps             []string
	DeliverableTarget string
	EstimatedMinutes  int
	EstimatedTokens   int64
}

// Approver answers a rendered gate message with the user's raw reply.
type Approver interface {
	Ask(message string) (string, error)
}

// AutoApprover approves every gate without prompting. It backs the
// --yes flag, where the user has pre-approved the whole sequence.
type AutoApprover struct{}

// Ask approves the gate unconditionally.
func (AutoApprover) Ask(string) (string, error) { return "yes", nil }

// Gates runs the confirmation sequence for a plan. With a nil approver
// every non-trivial plan is declined and the rendered message is returned
// so a non-interactive caller can route it elsewhere.
type Gates struct {
	approver Approver
}

// New returns gates backed by the given approver, which may be nil for
// non-interactive use.
func New(approver Approver) *Gates {
	return &Gates{approver: approver}
}

// Run evaluates the gates that apply to the plan's work size. Trivial work
// passes without prompting. Gate 1 (plan review) applies to everything
// else; Gate 2 (budget) additionally applies from medium up. A decline at
// any gate returns false together with the message that was declined.
func (g *Gates) Run(plan PlanSummary, size models.WorkSize, interactive bool) (bool, string) {
	if size == models.SizeTrivial {
		return true, "trivial work, no confirmation required"
	}

	planMsg := RenderPlanGate(plan, size)
	needsBudget := size.AtLeast(models.SizeMedium)

	if !interactive || g.approver == nil {
		msg := planMsg
		if needsBudget {
			msg += "\n\n" + RenderBudgetGate(plan, size)
		}
		return false, msg
	}

	reply, err := g.approver.Ask(planMsg)
	if err != nil || !IsAffirmative(reply) {
		return false, planMsg
	}

	if needsBudget {
		budgetMsg := RenderBudgetGate(plan, size)
		reply, err = g.approver.Ask(budgetMsg)
		if err != nil || !IsAffirmative(reply) {
			return false, budgetMsg
		}
	}

	return true, "approved"
}

// maxRenderedSteps caps how many plan steps Gate 1 lists before collapsing
// the remainder into a count.
const maxRenderedSteps = 3

var (
	gateTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	gateLabelStyle = lipgloss.NewStyle().Bold(true)
	gateStepStyle  = lipgloss.NewStyle().PaddingLeft(2)
	gateDimStyle   = lipgloss.NewStyle().Faint(true)
)

// RenderPlanGate renders the Gate 1 plan-review message.
func RenderPlanGate(plan PlanSummary, size models.WorkSize) string {
	var b strings.Builder
	b.WriteString(gateTitleStyle.Render(fmt.Sprintf("Gate 1: plan review (%s work)", size)))
	b.WriteString("\n")
	b.WriteString(gateLabelStyle.Render("Goal: "))
	b.WriteString(plan.Goal)
	b.WriteString("\n")

	shown := plan.Steps
	if len(shown) > maxRenderedSteps {
		shown = shown[:maxRenderedSteps]
	}
	for i, step := range shown {
		b.WriteString(gateStepStyle.Render(fmt.Sprintf("%d. %s", i+1, step)))
		b.WriteString("\n")
	}
	if rest := len(plan.Steps) - len(shown); rest > 0 {
		b.WriteString(gateDimStyle.Render(fmt.Sprintf("  ... and %d more steps", rest)))
		b.WriteString("\n")
	}

	if plan.DeliverableTarget != "" {
		b.WriteString(gateLabelStyle.Render("Deliverable: "))
		b.WriteString(plan.DeliverableTarget)
		b.WriteString("\n")
	}
	b.WriteString(gateLabelStyle.Render("Estimate: "))
	b.WriteString(fmt.Sprintf("~%d min, ~%s tokens", plan.EstimatedMinutes, formatTokens(plan.EstimatedTokens)))
	b.WriteString("\n")
	b.WriteString("Proceed? [y/N]")
	return b.String()
}

// RenderBudgetGate renders the Gate 2 budget message.
func RenderBudgetGate(plan PlanSummary, size models.WorkSize) string {
	var b strings.Builder
	b.WriteString(gateTitleStyle.Render(fmt.Sprintf("Gate 2: budget (%s work)", size)))
	b.WriteString("\n")
	b.WriteString(gateLabelStyle.Render("Token volume: "))
	b.WriteString(fmt.Sprintf("~%s", formatTokens(plan.EstimatedTokens)))
	b.WriteString("\n")
	b.WriteString(gateLabelStyle.Render("Estimated cost: "))
	b.WriteString(fmt.Sprintf("$%.2f", EstimateCost(plan.EstimatedTokens)))
	b.WriteString("\n")
	b.WriteString("Approve budget? [y/N]")
	return b.String()
}

func formatTokens(tokens int64) string {
	if tokens >= 1000 {
		return fmt.Sprintf("%dK", tokens/1000)
	}
	return fmt.Sprintf("%d", tokens)
}

// affirmatives is the closed whitelist of replies that count as approval.
// Matching is case-insensitive on the trimmed reply; anything else,
// including an empty reply, declines.
var affirmatives = map[string]struct{}{
	"y": {}, "yes": {}, "yeah": {}, "yep": {},
	"ok": {}, "okay": {}, "sure": {},
	"approve": {}, "approved": {}, "confirm": {}, "go": {},
	"да": {}, "sí": {}, "si": {}, "oui": {}, "ja": {},
	"sim": {}, "是": {}, "好": {}, "はい": {}, "d'accord": {},
}

// IsAffirmative reports whether a raw reply approves a gate.
func IsAffirmative(reply string) bool {
	_, ok := affirmatives[strings.ToLower(strings.TrimSpace(reply))]
	return ok
}
