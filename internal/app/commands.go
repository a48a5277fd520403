package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jordangarrison/grove/internal/interactive"
	"github.com/jordangarrison/grove/internal/lifecycle"
	"github.com/jordangarrison/grove/internal/workspace"
)

const captureMaxLines = 2000

// keystrokeDebounce is the short latency §4.E schedules a prioritized poll
// after, so a forwarded keystroke's echo appears promptly without issuing
// one poll per keystroke.
const keystrokeDebounce = 20 * time.Millisecond

// keystrokeDebounceCmd arms a KeystrokeDebounceMsg, but only if one isn't
// already pending: a burst of keystrokes between now and the debounce
// firing should still produce a single prioritized poll, not one per key.
func (m *Model) keystrokeDebounceCmd() tea.Cmd {
	if m.keystrokeDebouncePending {
		return nil
	}
	m.keystrokeDebouncePending = true
	return tea.Tick(keystrokeDebounce, func(time.Time) tea.Msg { return KeystrokeDebounceMsg{} })
}

// pollTickCmd arms the next PollTickMsg after d, the cadence the poll
// scheduler decided on at the end of the previous cycle (§4.D step 4).
func (m *Model) pollTickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return PollTickMsg(t) })
}

// captureCmd dispatches an off-thread capture_output call for the live
// preview session, per §4.H, stamped with generation so a stale result can
// be dropped by the caller.
func (m *Model) captureCmd(path, session string, generation int64) tea.Cmd {
	exec := m.exec
	return func() tea.Msg {
		out, err := exec.CaptureOutput(context.Background(), session, captureMaxLines, true)
		return CaptureCompletionMsg{WorkspacePath: path, Generation: generation, Output: out, Err: err}
	}
}

// statusCmd dispatches a bounded status-only capture for a workspace not
// currently shown in the live preview, per §4.D's status-poll set.
func (m *Model) statusCmd(path, session string, generation int64) tea.Cmd {
	exec := m.exec
	return func() tea.Msg {
		out, err := exec.CaptureOutput(context.Background(), session, 64, false)
		return StatusCompletionMsg{WorkspacePath: path, Generation: generation, Output: out, Err: err}
	}
}

// cursorCmd dispatches an off-thread cursor-metadata capture for the
// session currently in interactive mode, per §4.E.
func (m *Model) cursorCmd(path, session string, generation int64) tea.Cmd {
	exec := m.exec
	return func() tea.Msg {
		meta, err := exec.CaptureCursorMetadata(context.Background(), session)
		return CursorCompletionMsg{WorkspacePath: path, Generation: generation, Cursor: meta, Err: err}
	}
}

// resizeCmd dispatches an off-thread resize_session call, then immediately
// re-queries cursor metadata so the verify step in §4.E has fresh
// dimensions to compare against.
func (m *Model) resizeCmd(path, session string, width, height int) tea.Cmd {
	exec := m.exec
	return func() tea.Msg {
		err := exec.ResizeSession(context.Background(), session, width, height)
		if err != nil {
			return ResizeCompletionMsg{WorkspacePath: path, Width: width, Height: height, Err: err}
		}
		meta, metaErr := exec.CaptureCursorMetadata(context.Background(), session)
		if metaErr != nil {
			return ResizeCompletionMsg{WorkspacePath: path, Width: width, Height: height, Err: metaErr}
		}
		return ResizeCompletionMsg{
			WorkspacePath: path,
			Width:         width,
			Height:        height,
			ActualWidth:   meta.PaneWidth,
			ActualHeight:  meta.PaneHeight,
		}
	}
}

// sendCmd dispatches one queued interactive send (§4.E step 5) through the
// executor, reporting completion so the send queue can release its
// per-session in-flight guard and advance to the next queued send.
func (m *Model) sendCmd(send interactive.QueuedSend) tea.Cmd {
	exec := m.exec
	return func() tea.Msg {
		err := exec.SendCommand(context.Background(), send.Command)
		return SendCompletionMsg{Session: send.Session, Seq: uint64(send.Seq), Err: err}
	}
}

// lifecycleCmd runs a dispatched lifecycle operation's side effects
// off-thread via run, producing the typed Completion §4.F calls for.
// correlationID comes from the Coordinator.Request that admitted this
// operation, so the completion can be joined back to its request in the
// event log.
func lifecycleCmd(kind lifecycle.OperationKind, path, correlationID string, run func() (warnings []string, err error)) tea.Cmd {
	return func() tea.Msg {
		warnings, err := run()
		return LifecycleCompletionMsg{Completion: lifecycle.Completion{
			Kind:          kind,
			Path:          path,
			Err:           err,
			Warnings:      warnings,
			CorrelationID: correlationID,
		}}
	}
}

// watchDirCmd blocks for the next out-of-band directory change reported by
// the workspace watcher, per §4.I, then re-arms itself is the caller's
// responsibility: each DirChangedMsg handling re-issues this command so the
// listen loop continues for the lifetime of the program.
func watchDirCmd(events <-chan workspace.DirEvent) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-events; !ok {
			return NoopMsg{}
		}
		return DirChangedMsg{}
	}
}

// flashExpiryCmd schedules a FlashExpiredMsg for path after d, used to
// prune an auto-expiring preview flash message.
func flashExpiryCmd(path string, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return FlashExpiredMsg{WorkspacePath: path} })
}
