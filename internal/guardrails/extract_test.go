package guardrails

import (
	"testing"

	"github.com/ShayCichocki/steward/pkg/models"
)

func TestExtractTaskRef(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  string
		found bool
	}{
		{"labeled id", "Do the thing.\nTask: TASK-42\n", "TASK-42", true},
		{"labeled path", "Task: tasks/TASK-42-guide.md", "tasks/TASK-42-guide.md", true},
		{"labeled wiki-link", "Task: [[tasks/TASK-42-guide.md]]", "tasks/TASK-42-guide.md", true},
		{"label case-insensitive", "task: TASK-9", "TASK-9", true},
		{"bare id in prose", "This continues task-7 from last week.", "task-7", true},
		{"bare vault path", "See tasks/quarterly-report.md for details.", "tasks/quarterly-report.md", true},
		{"label wins over bare id", "Task: TASK-1\nalso mentions TASK-2", "TASK-1", true},
		{"empty label falls through", "Task:\nTASK-3 is the one", "TASK-3", true},
		{"no reference", "write a comprehensive guide", "", false},
		{"empty text", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := ExtractTaskRef(tt.text)
			if found != tt.found || got != tt.want {
				t.Errorf("ExtractTaskRef(%q) = (%q, %t), want (%q, %t)", tt.text, got, found, tt.want, tt.found)
			}
		})
	}
}

func TestExtractDeliverables(t *testing.T) {
	t.Run("collects and classifies mixed references", func(t *testing.T) {
		output := `Finished the guide.

See [[notes/Guide]] and the published copy at https://docs.example.com/guide.
Raw data: [spreadsheet](tasks/data.csv) and [dump](/tmp/dump.csv).
`
		got := ExtractDeliverables(output, []string{"/home/me/draft.md"})

		want := []models.Deliverable{
			{Type: models.DeliverableWikiLink, Ref: "notes/Guide"},
			{Type: models.DeliverableURL, Ref: "https://docs.example.com/guide"},
			{Type: models.DeliverableVaultPath, Ref: "tasks/data.csv"},
			{Type: models.DeliverableLocalFile, Ref: "/tmp/dump.csv"},
			{Type: models.DeliverableLocalFile, Ref: "/home/me/draft.md"},
		}
		if len(got) != len(want) {
			t.Fatalf("got %d deliverables %v, want %d", len(got), got, len(want))
		}
		for i := range want {
			if got[i].Type != want[i].Type || got[i].Ref != want[i].Ref {
				t.Errorf("deliverables[%d] = %+v, want %+v", i, got[i], want[i])
			}
			if got[i].Verified {
				t.Errorf("deliverables[%d] pre-verified", i)
			}
		}
	})

	t.Run("trailing punctuation stripped from urls", func(t *testing.T) {
		got := ExtractDeliverables("published at https://example.com/doc.", nil)
		if len(got) != 1 || got[0].Ref != "https://example.com/doc" {
			t.Errorf("got %v", got)
		}
	})

	t.Run("wiki-link alias uses the target", func(t *testing.T) {
		got := ExtractDeliverables("see [[notes/Guide|the guide]]", nil)
		if len(got) != 1 || got[0].Ref != "notes/Guide" {
			t.Errorf("got %v", got)
		}
	})

	t.Run("deliverables section bare items", func(t *testing.T) {
		output := `## Deliverables

- tasks/report.md
- https://example.com/final

## Notes

- not a deliverable
`
		got := ExtractDeliverables(output, nil)
		// The URL line is captured by the URL pass; the bare vault path by
		// the section pass. The item under Notes must not appear.
		refs := map[string]bool{}
		for _, d := range got {
			refs[d.Ref] = true
		}
		if !refs["tasks/report.md"] || !refs["https://example.com/final"] {
			t.Errorf("section items missing: %v", got)
		}
		if refs["not a deliverable"] {
			t.Errorf("item outside the section captured: %v", got)
		}
	})

	t.Run("duplicates collapse to first seen", func(t *testing.T) {
		output := "see [[notes/Guide]] and again [[notes/Guide]]"
		if got := ExtractDeliverables(output, nil); len(got) != 1 {
			t.Errorf("got %v, want one entry", got)
		}
	})

	t.Run("no references", func(t *testing.T) {
		if got := ExtractDeliverables("all done, nothing to show", nil); len(got) != 0 {
			t.Errorf("got %v, want none", got)
		}
	})
}
