package gates

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestReaderApprover(t *testing.T) {
	t.Run("returns trimmed line and echoes message", func(t *testing.T) {
		var out strings.Builder
		a := NewReaderApprover(strings.NewReader("yes\r\n"), &out)

		reply, err := a.Ask("Proceed? [y/N]")
		if err != nil {
			t.Fatalf("Ask: %v", err)
		}
		if reply != "yes" {
			t.Errorf("reply = %q, want %q", reply, "yes")
		}
		if !strings.Contains(out.String(), "Proceed? [y/N]") {
			t.Errorf("message not written to output: %q", out.String())
		}
	})

	t.Run("closed input is an error", func(t *testing.T) {
		a := NewReaderApprover(strings.NewReader(""), &strings.Builder{})
		if _, err := a.Ask("Proceed?"); err == nil {
			t.Fatal("expected error on exhausted input")
		}
	})

	t.Run("final line without newline still read", func(t *testing.T) {
		a := NewReaderApprover(strings.NewReader("y"), &strings.Builder{})
		reply, err := a.Ask("Proceed?")
		if err != nil {
			t.Fatalf("Ask: %v", err)
		}
		if reply != "y" {
			t.Errorf("reply = %q, want %q", reply, "y")
		}
	})
}

func TestPromptModel(t *testing.T) {
	t.Run("enter captures the typed reply", func(t *testing.T) {
		m := newPromptModel("Proceed? [y/N]")
		var model tea.Model = m
		for _, r := range "yes" {
			model, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		}
		model, _ = model.Update(tea.KeyMsg{Type: tea.KeyEnter})

		done := model.(*promptModel)
		if done.reply != "yes" {
			t.Errorf("reply = %q, want %q", done.reply, "yes")
		}
	})

	t.Run("escape declines with empty reply", func(t *testing.T) {
		m := newPromptModel("Proceed? [y/N]")
		var model tea.Model = m
		model, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'y'}})
		model, _ = model.Update(tea.KeyMsg{Type: tea.KeyEsc})

		done := model.(*promptModel)
		if done.reply != "" {
			t.Errorf("reply = %q, want empty after escape", done.reply)
		}
	})

	t.Run("view shows message and placeholder", func(t *testing.T) {
		m := newPromptModel("Approve budget? [y/N]")
		view := m.View()
		if !strings.Contains(view, "Approve budget? [y/N]") {
			t.Errorf("view missing gate message:\n%s", view)
		}
	})
}
