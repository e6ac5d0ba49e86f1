package taskstore

import (
	"errors"
	"testing"
	"time"

	"github.com/ShayCichocki/steward/pkg/models"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := Open(DBPath(t.TempDir()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.Migrate(); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return store
}

func TestCreateAndGet(t *testing.T) {
	store := openTestStore(t)

	task := &models.TaskRecord{
		ID:    "TASK-1",
		Title: "Write the onboarding guide",
		Path:  "tasks/TASK-1-onboarding-guide.md",
	}
	if err := store.Create(task); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if task.CreatedAt.IsZero() || task.UpdatedAt.IsZero() {
		t.Error("Create must stamp timestamps")
	}
	if task.Status != models.TaskOpen {
		t.Errorf("default status = %s, want open", task.Status)
	}

	got, err := store.Get("TASK-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != task.Title || got.Path != task.Path || got.Status != models.TaskOpen {
		t.Errorf("round-trip mangled record: %+v", got)
	}
	if got.CompletedAt != nil {
		t.Error("open task must have nil CompletedAt")
	}

	if _, err := store.Get("TASK-404"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get missing = %v, want ErrNotFound", err)
	}

	if err := store.Create(&models.TaskRecord{ID: "TASK-2", Title: "x", Path: "y", Status: "exploded"}); err == nil {
		t.Error("invalid status must be rejected at create")
	}
}

func TestUpdateStatusRoundTrip(t *testing.T) {
	store := openTestStore(t)

	task := &models.TaskRecord{ID: "TASK-1", Title: "guide", Path: "tasks/TASK-1.md"}
	if err := store.Create(task); err != nil {
		t.Fatal(err)
	}
	before, err := store.Get("TASK-1")
	if err != nil {
		t.Fatal(err)
	}

	if err := store.UpdateStatus("TASK-1", models.TaskDone); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	after, err := store.Get("TASK-1")
	if err != nil {
		t.Fatal(err)
	}
	if after.Status != models.TaskDone {
		t.Errorf("status = %s, want done", after.Status)
	}
	if after.CompletedAt == nil {
		t.Fatal("done must set CompletedAt")
	}

	// Only status, updated_at and completed_at may move.
	if after.ID != before.ID || after.Title != before.Title || after.Path != before.Path {
		t.Errorf("identity fields changed: %+v vs %+v", before, after)
	}
	if !after.CreatedAt.Equal(before.CreatedAt) {
		t.Error("created_at must never change")
	}
	if after.UpdatedAt.Before(before.UpdatedAt) {
		t.Error("updated_at went backwards")
	}

	// A second done keeps the original completion time.
	first := *after.CompletedAt
	time.Sleep(5 * time.Millisecond)
	if err := store.UpdateStatus("TASK-1", models.TaskDone); err != nil {
		t.Fatal(err)
	}
	again, err := store.Get("TASK-1")
	if err != nil {
		t.Fatal(err)
	}
	if !again.CompletedAt.Equal(first) {
		t.Errorf("completed_at moved on repeat done: %v -> %v", first, *again.CompletedAt)
	}

	if err := store.UpdateStatus("TASK-1", models.TaskStatus("exploded")); err == nil {
		t.Error("invalid status must be rejected")
	}
	if err := store.UpdateStatus("TASK-404", models.TaskDone); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing task = %v, want ErrNotFound", err)
	}
}

func TestResolve(t *testing.T) {
	store := openTestStore(t)

	task := &models.TaskRecord{ID: "TASK-7", Title: "report", Path: "tasks/TASK-7-report.md"}
	if err := store.Create(task); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		ref  string
		want bool
	}{
		{"by id", "TASK-7", true},
		{"by path", "tasks/TASK-7-report.md", true},
		{"wiki-link id", "[[TASK-7]]", true},
		{"wiki-link path", "[[tasks/TASK-7-report.md]]", true},
		{"whitespace", "  TASK-7  ", true},
		{"unknown", "TASK-404", false},
		{"empty", "", false},
		{"bare brackets", "[[]]", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Resolve(tt.ref)
			if tt.want {
				if err != nil {
					t.Fatalf("Resolve(%q): %v", tt.ref, err)
				}
				if got.ID != "TASK-7" {
					t.Errorf("Resolve(%q).ID = %q", tt.ref, got.ID)
				}
				return
			}
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("Resolve(%q) = %v, want ErrNotFound", tt.ref, err)
			}
		})
	}
}

func TestAppendLink(t *testing.T) {
	store := openTestStore(t)

	if err := store.Create(&models.TaskRecord{ID: "TASK-1", Title: "guide", Path: "tasks/TASK-1.md"}); err != nil {
		t.Fatal(err)
	}

	if err := store.AppendLink("TASK-1", "https://example.com/doc"); err != nil {
		t.Fatalf("AppendLink: %v", err)
	}
	if err := store.AppendLink("[[tasks/TASK-1.md]]", "attachments/report.pdf"); err != nil {
		t.Fatalf("AppendLink by wiki path: %v", err)
	}
	// Idempotent: the same URL again is a no-op.
	if err := store.AppendLink("TASK-1", "https://example.com/doc"); err != nil {
		t.Fatalf("duplicate AppendLink: %v", err)
	}

	got, err := store.Get("TASK-1")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"https://example.com/doc", "attachments/report.pdf"}
	if len(got.Links) != len(want) {
		t.Fatalf("links = %v, want %v", got.Links, want)
	}
	for i := range want {
		if got.Links[i] != want[i] {
			t.Errorf("links[%d] = %q, want %q", i, got.Links[i], want[i])
		}
	}

	if err := store.AppendLink("TASK-404", "https://example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing task = %v, want ErrNotFound", err)
	}
}

func TestMigrateIdempotent(t *testing.T) {
	store := openTestStore(t)
	if err := store.Migrate(); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	if err := store.Create(&models.TaskRecord{ID: "TASK-1", Title: "t", Path: "p"}); err != nil {
		t.Fatalf("Create after re-migrate: %v", err)
	}
}

func TestPathUniqueness(t *testing.T) {
	store := openTestStore(t)

	if err := store.Create(&models.TaskRecord{ID: "TASK-1", Title: "a", Path: "tasks/same.md"}); err != nil {
		t.Fatal(err)
	}
	if err := store.Create(&models.TaskRecord{ID: "TASK-2", Title: "b", Path: "tasks/same.md"}); err == nil {
		t.Error("duplicate path must be rejected by the unique index")
	}
}
