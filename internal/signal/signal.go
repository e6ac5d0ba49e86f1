// Package signal watches the run's control directory for stop and pause
// files so a long run can be interrupted from outside the process.
package signal

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher tracks stop/pause signal files under the steward control
// directory. Signals arrive either through the filesystem watcher or, if
// the watcher could not start, through the direct stat fallback in
// ShouldStop/ShouldPause.
type Watcher struct {
	controlDir string

	mu    sync.RWMutex
	stop  bool
	pause bool

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// New creates a watcher over root/.steward/signals. The watcher is
// optional; if it cannot start, stat-based polling still works.
func New(root string) (*Watcher, error) {
	controlDir := filepath.Join(root, ".steward")
	signalsDir := filepath.Join(controlDir, "signals")
	if err := os.MkdirAll(signalsDir, 0755); err != nil {
		return nil, err
	}

	w := &Watcher{
		controlDir: controlDir,
		done:       make(chan struct{}),
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return w, nil
	}
	if err := fw.Add(signalsDir); err != nil {
		fw.Close()
		return w, nil
	}
	w.watcher = fw
	go w.watch()

	return w, nil
}

func (w *Watcher) watch() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			w.mu.Lock()
			switch filepath.Base(event.Name) {
			case "stop":
				w.stop = true
			case "pause":
				w.pause = true
			}
			w.mu.Unlock()
		case <-w.watcher.Errors:
			// Keep watching; polling covers missed events.
		}
	}
}

func (w *Watcher) signalPath(name string) string {
	return filepath.Join(w.controlDir, "signals", name)
}

// ShouldStop reports whether a stop signal was received. The signal file
// is also checked directly in case the watcher missed the event.
func (w *Watcher) ShouldStop() bool {
	if _, err := os.Stat(w.signalPath("stop")); err == nil {
		w.mu.Lock()
		w.stop = true
		w.mu.Unlock()
	}

	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stop
}

// ShouldPause reports whether a pause signal was received.
func (w *Watcher) ShouldPause() bool {
	if _, err := os.Stat(w.signalPath("pause")); err == nil {
		w.mu.Lock()
		w.pause = true
		w.mu.Unlock()
	}

	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.pause
}

// SendStop creates the stop signal file.
func (w *Watcher) SendStop() error {
	return os.WriteFile(w.signalPath("stop"), []byte(time.Now().Format(time.RFC3339)), 0644)
}

// SendPause creates the pause signal file.
func (w *Watcher) SendPause() error {
	return os.WriteFile(w.signalPath("pause"), []byte(time.Now().Format(time.RFC3339)), 0644)
}

// Clear removes signal files and resets in-memory state.
func (w *Watcher) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.stop = false
	w.pause = false
	os.Remove(w.signalPath("stop"))
	os.Remove(w.signalPath("pause"))
}

// Close shuts the watcher down.
func (w *Watcher) Close() {
	close(w.done)
	if w.watcher != nil {
		w.watcher.Close()
	}
}
