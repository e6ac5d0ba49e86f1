// Package audit provides append-only JSON-lines logs for durable records
// that must survive a crash: fallback decisions and guardrails violations.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Log is an append-only JSON-lines file. Each Append writes exactly one JSON
// object followed by a newline. The file is opened with O_APPEND and writes
// are additionally serialized with a mutex so concurrent appenders from the
// same process never interleave records.
type Log struct {
	path string

	mu   sync.Mutex
	file *os.File
}

// Open opens (creating if needed) an append-only log at path. Parent
// directories are created.
func Open(path string) (*Log, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create audit directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}

	return &Log{path: path, file: f}, nil
}

// Path returns the log's file path.
func (l *Log) Path() string {
	return l.path
}

// Append marshals record and appends it as one line. The write is synced to
// disk before returning so the record survives a crash immediately after.
func (l *Log) Append(record any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append audit record: %w", err)
	}
	return l.file.Sync()
}

// Close closes the underlying file. Safe to call on a nil log.
func (l *Log) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// ReadAll reads every record from the log at path. A missing file yields an
// empty slice. Used by the audit CLI command and tests; the engine itself
// never reads these logs back.
func ReadAll[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	var records []T
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec T
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("parse audit record: %w", err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan audit log: %w", err)
	}
	return records, nil
}
