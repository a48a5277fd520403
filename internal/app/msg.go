package app

import (
	"time"

	"github.com/jordangarrison/grove/internal/executor"
	"github.com/jordangarrison/grove/internal/lifecycle"
	"github.com/jordangarrison/grove/internal/workspace"
)

// PollTickMsg drives one dispatch of the poll scheduler, per §4.D. Its
// interval is re-derived after every tick from the scheduler's cadence
// decision, so the tea.Tick chain that produces it is re-armed each time
// rather than running on a fixed ticker.
type PollTickMsg time.Time

// CaptureCompletionMsg reports the result of an off-thread capture_output
// call for one workspace's live-preview session, per §4.H/§4.D. Generation
// lets the poll scheduler drop stale results (§5 Ordering guarantees).
type CaptureCompletionMsg struct {
	WorkspacePath string
	Generation    int64
	Output        string
	Err           error
}

// CursorCompletionMsg reports the result of an off-thread
// capture_cursor_metadata call for the session currently in interactive
// mode, per §4.E/§4.H.
type CursorCompletionMsg struct {
	WorkspacePath string
	Generation    int64
	Cursor        executor.CursorMetadata
	Err           error
}

// StatusCompletionMsg reports a background capture used only to classify
// status for a workspace not currently shown in the live preview, per
// §4.C/§4.D's bounded status-poll set.
type StatusCompletionMsg struct {
	WorkspacePath string
	Generation    int64
	Output        string
	Err           error
}

// ResizeCompletionMsg reports the result of an off-thread resize_session
// call, consumed by the one-shot resize-verify-retry state machine in
// §4.E.
type ResizeCompletionMsg struct {
	WorkspacePath string
	Width         int
	Height        int
	ActualWidth   int
	ActualHeight  int
	Err           error
}

// SendCompletionMsg reports the result of one queued interactive send,
// releasing the per-session in-flight guard in internal/interactive's
// SendQueue, per §4.E.
type SendCompletionMsg struct {
	Session string
	Seq     uint64
	Err     error
}

// LifecycleCompletionMsg carries the typed *Completion described in
// §4.F, reconciling workspace state, toasting the result, and clearing
// the reentrancy guard for (kind, path).
type LifecycleCompletionMsg struct {
	Completion lifecycle.Completion
}

// RefreshCompletionMsg reports the result of a refresh-workspaces pass
// (re-scan worktrees, reconcile against running sessions), per §4.I.
// Workspaces and RunningSessionNames are the rescanned inputs to
// workspace.ReconcileWithSessions; the caller applies the result.
type RefreshCompletionMsg struct {
	Workspaces          []workspace.Workspace
	RunningSessionNames []string
	Err                 error
	CorrelationID       string
}

// FlashExpiredMsg is sent on a timer to prune an expired preview flash
// message, per §3 PreviewState / internal/preview.FlashExpired.
type FlashExpiredMsg struct {
	WorkspacePath string
}

// NoopMsg is a message kind that causes no state change, used by
// commands that decide at execution time they have nothing to report.
type NoopMsg struct{}

// KeystrokeDebounceMsg fires a short time after a forwarded interactive
// keystroke or paste, prioritizing a poll so the remote echo appears
// promptly rather than waiting for the next scheduled tick, per §4.E.
type KeystrokeDebounceMsg struct{}

// DirChangedMsg reports that the project root's worktree directories may
// have changed out of band (created or removed outside Grove), per §4.I.
// It carries no path; the handler reacts by prioritizing the next
// refresh-workspaces poll rather than trying to interpret the raw event.
type DirChangedMsg struct{}
