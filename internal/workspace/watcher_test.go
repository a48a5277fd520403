package workspace_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jordangarrison/grove/internal/workspace"
)

func TestWatcherDebouncesRapidDirChanges(t *testing.T) {
	dir := t.TempDir()

	w, err := workspace.NewWatcher(dir)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	for i := 0; i < 5; i++ {
		name := filepath.Join(dir, "worktree-"+string(rune('a'+i)))
		if err := os.Mkdir(name, 0o755); err != nil {
			t.Fatalf("Mkdir: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case _, ok := <-w.Events:
		if !ok {
			t.Fatalf("events channel closed unexpectedly")
		}
	case <-time.After(1 * time.Second):
		t.Fatalf("expected a debounced DirEvent but got none")
	}

	select {
	case <-w.Events:
		t.Fatalf("expected the burst of creates to coalesce into one event")
	case <-time.After(200 * time.Millisecond):
		// expected: no second event immediately after the first
	}
}

func TestWatcherCloseStopsDelivery(t *testing.T) {
	dir := t.TempDir()

	w, err := workspace.NewWatcher(dir)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	select {
	case _, ok := <-w.Events:
		if ok {
			t.Fatalf("expected channel to close after Close")
		}
	case <-time.After(1 * time.Second):
		t.Fatalf("events channel did not close after Close")
	}
}
