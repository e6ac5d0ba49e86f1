package taskstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ShayCichocki/steward/pkg/models"
)

// ErrNotFound is returned when a task reference does not resolve.
var ErrNotFound = errors.New("task not found")

// SQLiteStore is the default Store implementation, backed by a project-local
// SQLite database. WAL mode is enabled for concurrent reads.
type SQLiteStore struct {
	conn *sql.DB
	path string
	mu   sync.Mutex
}

// DBPath returns the task database path under the given state directory.
func DBPath(stateDir string) string {
	return filepath.Join(stateDir, "tasks.db")
}

// Open opens (creating if needed) the task database at path.
func Open(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	return &SQLiteStore{conn: conn, path: path}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}

// Path returns the path to the database file.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Migrate applies pending schema migrations.
func (s *SQLiteStore) Migrate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var currentVersion int
	row := s.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migrationV1Tasks},
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		tx, err := s.conn.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}

		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration v%d: %w", m.version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration v%d: %w", m.version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration v%d: %w", m.version, err)
		}
	}

	return nil
}

const migrationV1Tasks = `
CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	path TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'open',
	links TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	completed_at DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_tasks_path ON tasks(path);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
`

// Create inserts a new task record. CreatedAt and UpdatedAt are set here.
func (s *SQLiteStore) Create(t *models.TaskRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.Status == "" {
		t.Status = models.TaskOpen
	}
	if !t.Status.Valid() {
		return fmt.Errorf("invalid task status %q", t.Status)
	}

	links, err := json.Marshal(t.Links)
	if err != nil {
		return fmt.Errorf("marshal links: %w", err)
	}

	_, err = s.conn.Exec(`
		INSERT INTO tasks (id, title, path, status, links, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.Title, t.Path, string(t.Status), string(links), formatTime(t.CreatedAt), formatTime(t.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// Get returns the task with the given id, or ErrNotFound.
func (s *SQLiteStore) Get(id string) (*models.TaskRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(id)
}

func (s *SQLiteStore) getLocked(id string) (*models.TaskRecord, error) {
	row := s.conn.QueryRow(`
		SELECT id, title, path, status, links, created_at, updated_at, completed_at
		FROM tasks WHERE id = ?
	`, id)
	return scanTask(row)
}

// UpdateStatus advances a task's lifecycle state. Moving to done sets
// CompletedAt exactly once; every write moves UpdatedAt and nothing else.
func (s *SQLiteStore) UpdateStatus(id string, status models.TaskStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid task status %q", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := formatTime(time.Now().UTC())
	if status == models.TaskDone {
		res, err := s.conn.Exec(`
			UPDATE tasks
			SET status = ?, updated_at = ?, completed_at = COALESCE(completed_at, ?)
			WHERE id = ?
		`, string(status), now, now, id)
		return checkUpdated(res, err)
	}

	res, err := s.conn.Exec(`
		UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?
	`, string(status), now, id)
	return checkUpdated(res, err)
}

// Resolve looks up a task by id, vault path, or [[wiki-link]].
func (s *SQLiteStore) Resolve(ref string) (*models.TaskRecord, error) {
	ref = normalizeRef(ref)
	if ref == "" {
		return nil, ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.conn.QueryRow(`
		SELECT id, title, path, status, links, created_at, updated_at, completed_at
		FROM tasks WHERE id = ? OR path = ?
	`, ref, ref)
	return scanTask(row)
}

// AppendLink attaches a deliverable URL to the task's link list. Appending
// the same URL twice is a no-op, which keeps post-work auto-upload
// idempotent.
func (s *SQLiteStore) AppendLink(ref, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref = normalizeRef(ref)
	row := s.conn.QueryRow(`SELECT id, links FROM tasks WHERE id = ? OR path = ?`, ref, ref)

	var id string
	var rawLinks sql.NullString
	if err := row.Scan(&id, &rawLinks); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("lookup task: %w", err)
	}

	var links []string
	if rawLinks.Valid && rawLinks.String != "" {
		if err := json.Unmarshal([]byte(rawLinks.String), &links); err != nil {
			return fmt.Errorf("parse links: %w", err)
		}
	}
	for _, existing := range links {
		if existing == url {
			return nil
		}
	}
	links = append(links, url)

	data, err := json.Marshal(links)
	if err != nil {
		return fmt.Errorf("marshal links: %w", err)
	}

	res, err := s.conn.Exec(`
		UPDATE tasks SET links = ?, updated_at = ? WHERE id = ?
	`, string(data), formatTime(time.Now().UTC()), id)
	return checkUpdated(res, err)
}

// normalizeRef strips wiki-link brackets and surrounding whitespace.
func normalizeRef(ref string) string {
	ref = strings.TrimSpace(ref)
	ref = strings.TrimPrefix(ref, "[[")
	ref = strings.TrimSuffix(ref, "]]")
	return strings.TrimSpace(ref)
}

// scanTask reads one task row.
func scanTask(row *sql.Row) (*models.TaskRecord, error) {
	var t models.TaskRecord
	var status string
	var rawLinks, completedAt sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&t.ID, &t.Title, &t.Path, &status, &rawLinks, &createdAt, &updatedAt, &completedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}

	t.Status = models.TaskStatus(status)
	if rawLinks.Valid && rawLinks.String != "" {
		if err := json.Unmarshal([]byte(rawLinks.String), &t.Links); err != nil {
			return nil, fmt.Errorf("parse links: %w", err)
		}
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	if completedAt.Valid && completedAt.String != "" {
		done, err := parseTime(completedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse completed_at: %w", err)
		}
		t.CompletedAt = &done
	}
	return &t, nil
}

// checkUpdated folds an UPDATE result into ErrNotFound when no row matched.
func checkUpdated(res sql.Result, err error) error {
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// formatTime formats a time.Time for SQLite storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime parses a time string from SQLite.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// Verify SQLiteStore implements Store at compile time.
var _ Store = (*SQLiteStore)(nil)
