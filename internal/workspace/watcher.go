package workspace

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DirEvent reports that the project root's set of worktree directories may
// have changed out of band (created or removed) between poll cycles, per
// §4.I. It carries no path: the receiver reacts by re-running
// MissingWorkspacePaths / a full rescan rather than trying to interpret the
// raw fsnotify op.
type DirEvent struct{}

// Watcher watches a project root for worktree directory creation/removal
// and emits a debounced DirEvent on Events whenever something changes.
type Watcher struct {
	Events <-chan DirEvent

	watcher *fsnotify.Watcher
	events  chan DirEvent
}

// NewWatcher starts watching root. The caller must call Close when done.
func NewWatcher(root string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(root); err != nil {
		fsw.Close()
		return nil, err
	}

	events := make(chan DirEvent, 8)
	w := &Watcher{Events: events, watcher: fsw, events: events}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	defer close(w.events)

	const debounceDelay = 150 * time.Millisecond
	var debounceTimer *time.Timer

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !isDirStructuralOp(event.Op) {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceDelay, func() {
				select {
				case w.events <- DirEvent{}:
				default:
				}
			})
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func isDirStructuralOp(op fsnotify.Op) bool {
	return op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0
}

// Close stops the watcher and releases its underlying fsnotify handle.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Base is exposed for callers that want to log the watched root.
func (w *Watcher) Base(root string) string {
	return filepath.Clean(root)
}
