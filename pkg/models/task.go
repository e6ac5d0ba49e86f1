package models

import "time"

// TaskStatus is the lifecycle state of a durable task record.
type TaskStatus string

const (
	// TaskOpen means the task has not been finished.
	TaskOpen TaskStatus = "open"
	// TaskInProgress means work is underway.
	TaskInProgress TaskStatus = "in_progress"
	// TaskDone means the task completed.
	TaskDone TaskStatus = "done"
	// TaskCancelled means the task was abandoned.
	TaskCancelled TaskStatus = "cancelled"
)

// Valid returns true if the status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskOpen, TaskInProgress, TaskDone, TaskCancelled:
		return true
	default:
		return false
	}
}

// TaskRecord is a durable task in the task store. Deliverable work must be
// linked to one before any spawn is attempted.
type TaskRecord struct {
	// ID is the task identifier (e.g. "TASK-142").
	ID string `json:"id"`
	// Title is the short task title.
	Title string `json:"title"`
	// Path is the vault-relative note path for the task.
	Path string `json:"path"`
	// Status is the current lifecycle state.
	Status TaskStatus `json:"status"`
	// Links are deliverable URLs appended to the task body.
	Links []string `json:"links,omitempty"`
	// CreatedAt is when the record was created.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt moves on every write.
	UpdatedAt time.Time `json:"updated_at"`
	// CompletedAt is set exactly once, when the task reaches done.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
