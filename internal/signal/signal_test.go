package signal

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWatcherStopSignal(t *testing.T) {
	root := t.TempDir()
	w, err := New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	if w.ShouldStop() {
		t.Fatal("stop reported before any signal")
	}

	if err := w.SendStop(); err != nil {
		t.Fatalf("SendStop: %v", err)
	}
	// The stat fallback catches the file even if the fsnotify event has not
	// landed yet.
	if !w.ShouldStop() {
		t.Error("stop signal not detected")
	}

	w.Clear()
	if w.ShouldStop() {
		t.Error("stop still reported after Clear")
	}
	if _, err := os.Stat(filepath.Join(root, ".steward", "signals", "stop")); !os.IsNotExist(err) {
		t.Error("Clear must remove the signal file")
	}
}

func TestWatcherPauseSignal(t *testing.T) {
	w, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if w.ShouldPause() {
		t.Fatal("pause reported before any signal")
	}
	if err := w.SendPause(); err != nil {
		t.Fatal(err)
	}
	if !w.ShouldPause() {
		t.Error("pause signal not detected")
	}
	// Pause and stop are independent.
	if w.ShouldStop() {
		t.Error("pause must not imply stop")
	}
}

func TestWatcherExternalFile(t *testing.T) {
	root := t.TempDir()
	w, err := New(root)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	// Another process writing the file directly is the normal case.
	path := filepath.Join(root, ".steward", "signals", "stop")
	if err := os.WriteFile(path, []byte("now"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !w.ShouldStop() {
		t.Error("externally written stop file not detected")
	}
}
