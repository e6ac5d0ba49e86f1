package gates

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/ShayCichocki/steward/pkg/models"
)

// scriptedApprover answers each Ask call from a fixed list of replies and
// records every message it was shown.
type scriptedApprover struct {
	replies []string
	asked   []string
	err     error
}

func (s *scriptedApprover) Ask(message string) (string, error) {
	s.asked = append(s.asked, message)
	if s.err != nil {
		return "", s.err
	}
	if len(s.replies) == 0 {
		return "", nil
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

func TestClassifyWorkSize(t *testing.T) {
	tests := []struct {
		name           string
		minutes        int
		tokens         int64
		hasDeliverable bool
		want           models.WorkSize
	}{
		{"tiny no deliverable", 1, 5_000, false, models.SizeTrivial},
		{"tiny with deliverable", 1, 5_000, true, models.SizeSmall},
		{"tiny but heavy tokens", 1, 50_000, false, models.SizeMedium},
		{"small", 8, 10_000, false, models.SizeSmall},
		{"medium by minutes", 30, 10_000, false, models.SizeMedium},
		{"medium by tokens", 5, 60_000, false, models.SizeMedium},
		{"comprehensive guide hour", 60, 120_000, true, models.SizeLarge},
		{"large by tokens", 20, 200_000, false, models.SizeLarge},
		{"epic by minutes", 300, 50_000, false, models.SizeEpic},
		{"epic by tokens", 30, 900_000, false, models.SizeEpic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyWorkSize(tt.minutes, tt.tokens, tt.hasDeliverable)
			if got != tt.want {
				t.Errorf("ClassifyWorkSize(%d, %d, %t) = %s, want %s",
					tt.minutes, tt.tokens, tt.hasDeliverable, got, tt.want)
			}
		})
	}
}

func TestEstimateFor(t *testing.T) {
	if est := EstimateFor(models.ComplexitySimple); est.Minutes != 5 || est.Tokens != 8_000 {
		t.Errorf("simple estimate = %+v", est)
	}
	if est := EstimateFor(models.ComplexityComplex); est.Minutes != 45 || est.Tokens != 90_000 {
		t.Errorf("complex estimate = %+v", est)
	}
	// Unknown tiers fall back to moderate instead of failing sizing.
	if est := EstimateFor(models.Complexity("huge")); est != EstimateFor(models.ComplexityModerate) {
		t.Errorf("unknown tier estimate = %+v, want moderate fallback", est)
	}
}

func TestEstimateCost(t *testing.T) {
	// 100K tokens at a 60/40 input/output split:
	// 60K * $0.003/1K + 40K * $0.015/1K = $0.18 + $0.60 = $0.78.
	got := EstimateCost(100_000)
	if math.Abs(got-0.78) > 0.001 {
		t.Errorf("EstimateCost(100000) = %.4f, want 0.78", got)
	}
	if EstimateCost(0) != 0 {
		t.Errorf("EstimateCost(0) = %f, want 0", EstimateCost(0))
	}
}

func TestRunTrivialSkipsGates(t *testing.T) {
	approver := &scriptedApprover{}
	ok, msg := New(approver).Run(PlanSummary{Goal: "lookup"}, models.SizeTrivial, true)
	if !ok {
		t.Fatalf("trivial work must pass, got decline with %q", msg)
	}
	if len(approver.asked) != 0 {
		t.Errorf("trivial work must not prompt, asked %d times", len(approver.asked))
	}
}

func TestRunNonInteractiveDeclinesWithMessage(t *testing.T) {
	plan := PlanSummary{
		Goal:             "Create a comprehensive guide",
		Steps:            []string{"outline", "draft", "review"},
		EstimatedMinutes: 60,
		EstimatedTokens:  120_000,
	}

	t.Run("small renders only gate 1", func(t *testing.T) {
		ok, msg := New(nil).Run(plan, models.SizeSmall, false)
		if ok {
			t.Fatal("non-interactive non-trivial work must decline")
		}
		if !strings.Contains(msg, "Gate 1") || strings.Contains(msg, "Gate 2") {
			t.Errorf("small work message should carry only Gate 1:\n%s", msg)
		}
	})

	t.Run("large renders both gates", func(t *testing.T) {
		ok, msg := New(nil).Run(plan, models.SizeLarge, false)
		if ok {
			t.Fatal("non-interactive non-trivial work must decline")
		}
		if !strings.Contains(msg, "Gate 1") || !strings.Contains(msg, "Gate 2") {
			t.Errorf("large work message should carry both gates:\n%s", msg)
		}
	})
}

func TestRunGateSequence(t *testing.T) {
	plan := PlanSummary{Goal: "build the report", EstimatedMinutes: 60, EstimatedTokens: 120_000}

	t.Run("decline at gate 1 never reaches gate 2", func(t *testing.T) {
		approver := &scriptedApprover{replies: []string{"n"}}
		ok, msg := New(approver).Run(plan, models.SizeLarge, true)
		if ok {
			t.Fatal("declined gate must not pass")
		}
		if len(approver.asked) != 1 {
			t.Fatalf("asked %d times, want 1", len(approver.asked))
		}
		if !strings.Contains(msg, "Gate 1") {
			t.Errorf("decline message should be the gate 1 message:\n%s", msg)
		}
	})

	t.Run("decline at gate 2 returns budget message", func(t *testing.T) {
		approver := &scriptedApprover{replies: []string{"y", "no"}}
		ok, msg := New(approver).Run(plan, models.SizeLarge, true)
		if ok {
			t.Fatal("declined budget must not pass")
		}
		if len(approver.asked) != 2 {
			t.Fatalf("asked %d times, want 2", len(approver.asked))
		}
		if !strings.Contains(msg, "Gate 2") {
			t.Errorf("decline message should be the gate 2 message:\n%s", msg)
		}
	})

	t.Run("small work needs only gate 1", func(t *testing.T) {
		approver := &scriptedApprover{replies: []string{"y"}}
		ok, _ := New(approver).Run(plan, models.SizeSmall, true)
		if !ok {
			t.Fatal("approved gate 1 on small work must pass")
		}
		if len(approver.asked) != 1 {
			t.Errorf("asked %d times, want 1", len(approver.asked))
		}
	})

	t.Run("both gates approved", func(t *testing.T) {
		approver := &scriptedApprover{replies: []string{"yes", "approve"}}
		ok, msg := New(approver).Run(plan, models.SizeMedium, true)
		if !ok {
			t.Fatalf("both approvals must pass, got %q", msg)
		}
	})

	t.Run("read error declines", func(t *testing.T) {
		approver := &scriptedApprover{err: errors.New("stdin closed")}
		ok, _ := New(approver).Run(plan, models.SizeSmall, true)
		if ok {
			t.Fatal("an approver error must decline, not pass")
		}
	})
}

func TestRunAutoApproverPassesEveryGate(t *testing.T) {
	plan := PlanSummary{Goal: "build the report", EstimatedMinutes: 60, EstimatedTokens: 120_000}

	for _, size := range []models.WorkSize{models.SizeSmall, models.SizeMedium, models.SizeLarge, models.SizeEpic} {
		ok, msg := New(AutoApprover{}).Run(plan, size, true)
		if !ok {
			t.Fatalf("%s work must pass with auto approval, got %q", size, msg)
		}
	}
}

func TestRenderPlanGate(t *testing.T) {
	plan := PlanSummary{
		Goal:              "Write the onboarding guide",
		Steps:             []string{"a", "b", "c", "d", "e"},
		DeliverableTarget: "[[Onboarding Guide]]",
		EstimatedMinutes:  45,
		EstimatedTokens:   90_000,
	}
	msg := RenderPlanGate(plan, models.SizeLarge)

	for _, want := range []string{
		"Write the onboarding guide",
		"... and 2 more steps",
		"[[Onboarding Guide]]",
		"~45 min",
		"~90K tokens",
		"Proceed? [y/N]",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("gate 1 message missing %q:\n%s", want, msg)
		}
	}
	if strings.Contains(msg, "4. ") {
		t.Error("gate 1 should list at most three steps")
	}
}

func TestRenderBudgetGate(t *testing.T) {
	plan := PlanSummary{EstimatedTokens: 100_000}
	msg := RenderBudgetGate(plan, models.SizeMedium)
	for _, want := range []string{"~100K", "$0.78", "Approve budget? [y/N]"} {
		if !strings.Contains(msg, want) {
			t.Errorf("gate 2 message missing %q:\n%s", want, msg)
		}
	}
}

func TestIsAffirmative(t *testing.T) {
	yes := []string{"y", "Y", " yes ", "Yeah", "OK", "approve", "да", "sí", "oui", "はい", "是"}
	for _, s := range yes {
		if !IsAffirmative(s) {
			t.Errorf("IsAffirmative(%q) = false, want true", s)
		}
	}
	no := []string{"", "n", "no", "nope", "yess", "maybe", "approve it"}
	for _, s := range no {
		if IsAffirmative(s) {
			t.Errorf("IsAffirmative(%q) = true, want false", s)
		}
	}
}
