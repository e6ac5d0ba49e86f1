// Package taskstore provides the durable task record store. Deliverable work
// must resolve a task reference here before any spawn is attempted, and
// finished deliverables are linked back into the owning task record.
package taskstore

import (
	"github.com/ShayCichocki/steward/pkg/models"
)

// Store is the task store contract the engine depends on. The engine only
// resolves references and appends links; it never owns a task's lifecycle.
type Store interface {
	// Resolve looks up a task by reference: a task id, a vault-relative
	// note path, or a [[wiki-link]] to the note. Returns ErrNotFound when
	// the reference does not resolve.
	Resolve(ref string) (*models.TaskRecord, error)

	// AppendLink durably attaches a deliverable URL to the task.
	AppendLink(ref, url string) error
}
