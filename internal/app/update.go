package app

import (
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jordangarrison/grove/internal/capture"
	"github.com/jordangarrison/grove/internal/executor"
	"github.com/jordangarrison/grove/internal/interactive"
	"github.com/jordangarrison/grove/internal/lifecycle"
	"github.com/jordangarrison/grove/internal/poll"
	"github.com/jordangarrison/grove/internal/preview"
	"github.com/jordangarrison/grove/internal/status"
	"github.com/jordangarrison/grove/internal/workspace"
)

// msgKind returns the log tag for msg, per §4.G: "on dispatch, a per-message
// msg_kind tag and duration are logged."
func msgKind(msg tea.Msg) string {
	switch msg.(type) {
	case tea.KeyMsg:
		return "key"
	case tea.MouseMsg:
		return "mouse"
	case tea.WindowSizeMsg:
		return "resize"
	case PollTickMsg:
		return "tick"
	case CaptureCompletionMsg:
		return "capture_completion"
	case CursorCompletionMsg:
		return "cursor_completion"
	case StatusCompletionMsg:
		return "status_completion"
	case ResizeCompletionMsg:
		return "resize_completion"
	case SendCompletionMsg:
		return "send_completion"
	case LifecycleCompletionMsg:
		return "lifecycle_completion"
	case RefreshCompletionMsg:
		return "refresh_completion"
	case FlashExpiredMsg:
		return "flash_expired"
	case DirChangedMsg:
		return "dir_changed"
	case KeystrokeDebounceMsg:
		return "keystroke_debounce"
	default:
		return "noop"
	}
}

// Update is the single serial update function of §4.G. Every message is
// timed and tagged before being dispatched to its handler; commands
// accumulated by the handler are merged with whatever it returns directly.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	start := time.Now()
	kind := msgKind(msg)
	m.toasts.Prune(start)
	cmd := m.dispatch(msg)
	if m.logger != nil {
		m.logger.Debug("update", "msg_kind", kind, "duration", time.Since(start))
	}
	if m.quit {
		return m, tea.Quit
	}
	return m, cmd
}

func (m *Model) dispatch(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		return m.handleMouse(msg)
	case PollTickMsg:
		return m.handlePollTick()
	case CaptureCompletionMsg:
		return m.handleCaptureCompletion(msg)
	case CursorCompletionMsg:
		return m.handleCursorCompletion(msg)
	case StatusCompletionMsg:
		return m.handleStatusCompletion(msg)
	case ResizeCompletionMsg:
		return m.handleResizeCompletion(msg)
	case SendCompletionMsg:
		return m.handleSendCompletion(msg)
	case LifecycleCompletionMsg:
		return m.handleLifecycleCompletion(msg)
	case RefreshCompletionMsg:
		return m.handleRefreshCompletion(msg)
	case FlashExpiredMsg:
		return m.handleFlashExpired(msg)
	case DirChangedMsg:
		return m.handleDirChanged()
	case KeystrokeDebounceMsg:
		return m.handleKeystrokeDebounce()
	default:
		return nil
	}
}

// handleDirChanged reacts to an out-of-band worktree directory change
// (create/remove/rename outside Grove) by starting a silent workspace
// rescan and prioritizing the next poll cycle, per §4.I, then re-arms the
// watcher's listen command so subsequent changes keep being observed for
// the life of the program.
func (m *Model) handleDirChanged() tea.Cmd {
	if m.dirWatcher == nil {
		return nil
	}
	return tea.Batch(m.startRefreshWorkspaces(), m.prioritizePollCmd(), watchDirCmd(m.dirWatcher.Events))
}

func (m *Model) handleResize(msg tea.WindowSizeMsg) tea.Cmd {
	m.width, m.height = msg.Width, msg.Height
	m.ready = true
	return nil
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	ws := m.selectedWorkspace()
	if ws == nil {
		return nil
	}
	p := m.previewFor(ws.Path)
	now := time.Now()
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		p.Scroll(-1, now, m.previewViewportHeight())
	case tea.MouseButtonWheelDown:
		p.Scroll(1, now, m.previewViewportHeight())
	}
	return nil
}

func (m *Model) previewViewportHeight() int {
	h := m.height - 2
	if h < 0 {
		return 0
	}
	return h
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.interactiveSession != "" {
		return m.handleInteractiveKey(msg)
	}

	ws := m.selectedWorkspace()
	keyStr := msg.String()

	cmdName, ok := m.keymap.Lookup("global", keyStr)
	if !ok {
		cmdName, ok = m.keymap.Lookup("list", keyStr)
	}
	if !ok {
		cmdName, ok = m.keymap.Lookup("preview", keyStr)
	}
	if !ok {
		return nil
	}

	switch cmdName {
	case "quit":
		m.quit = true
	case "cursor-down":
		if m.selectedIndex < len(m.workspaces)-1 {
			m.selectedIndex++
			return m.prioritizePollCmd()
		}
	case "cursor-up":
		if m.selectedIndex > 0 {
			m.selectedIndex--
			return m.prioritizePollCmd()
		}
	case "enter-interactive":
		if ws != nil {
			m.interactiveSession = workspace.SessionName(sessionNamePrefix, ws.Name)
		}
	case "scroll-down":
		if ws != nil {
			m.previewFor(ws.Path).Scroll(1, time.Now(), m.previewViewportHeight())
		}
	case "scroll-up":
		if ws != nil {
			m.previewFor(ws.Path).Scroll(-1, time.Now(), m.previewViewportHeight())
		}
	case "jump-to-bottom":
		if ws != nil {
			m.previewFor(ws.Path).JumpToBottom()
		}
	case "create":
		return m.requestCreate(m.mainBranch())
	case "delete":
		if ws != nil {
			return m.requestDelete(*ws)
		}
	case "merge":
		if ws != nil {
			return m.requestMerge(*ws)
		}
	case "update-from-base":
		if ws != nil {
			return m.requestUpdateFromBase(*ws)
		}
	case "start-agent":
		if ws != nil {
			return m.requestStartAgent(*ws)
		}
	case "stop-agent":
		if ws != nil {
			return m.requestStopAgent(*ws)
		}
	case "restart-agent":
		if ws != nil {
			return m.requestRestartAgent(*ws)
		}
	case "refresh-workspaces":
		return m.requestRefreshWorkspaces()
	}
	return nil
}

// isPasteInput reports whether msg is a pasted block rather than a single
// typed keystroke: either the terminal tagged it Paste directly, or
// (lacking that) it arrived as the multi-rune run bubbletea coalesces a
// burst of input into.
func isPasteInput(msg tea.KeyMsg) bool {
	if msg.Type != tea.KeyRunes {
		return false
	}
	return msg.Paste || len(msg.Runes) > 1
}

// handleInteractiveKey implements §4.E steps 2-6 for a raw bubbletea key
// event while interactive mode targets m.interactiveSession: split mouse
// fragments are dropped, pasted blocks are framed and forwarded as one
// send, and everything else is translated and queued individually.
func (m *Model) handleInteractiveKey(msg tea.KeyMsg) tea.Cmd {
	if isPasteInput(msg) {
		text := string(msg.Runes)
		if interactive.LooksLikeMouseFragment(text) {
			return nil
		}
		return m.forwardInteractiveText(text)
	}

	key := translateKey(msg)
	action := interactive.DeriveAction(key)

	switch action.Kind {
	case interactive.ActionExitInteractive:
		m.interactiveSession = ""
		m.interactiveCursor = cursorState{}
		m.bracketedPasteEnabled = false
		return nil
	case interactive.ActionNoop:
		return nil
	}

	session := m.interactiveSession
	send := interactive.QueuedSend{
		Session:    session,
		ReceivedAt: time.Now(),
		ActionKind: action.Kind,
	}

	switch action.Kind {
	case interactive.ActionSendLiteral:
		send.Command = []string{"tmux", "send-keys", "-t", session, "-l", action.Literal}
		send.LiteralChars = action.Literal
	case interactive.ActionSendNamed:
		send.Command = []string{"tmux", "send-keys", "-t", session, action.Name}
	case interactive.ActionCopySelection, interactive.ActionPasteClipboard:
		// Clipboard actions bypass the send queue and are dropped here:
		// nothing is copied or pasted.
		return nil
	default:
		return nil
	}

	return m.enqueueInteractiveSend(send)
}

// forwardInteractiveText sends a pasted block as one atomic send framed
// with the session's bracketed-paste controls, so the remote program
// receives it as a paste instead of a run of individual keystrokes.
func (m *Model) forwardInteractiveText(text string) tea.Cmd {
	session := m.interactiveSession
	literal := text
	if m.bracketedPasteEnabled {
		literal = interactive.FrameBracketedPaste(text)
	}
	send := interactive.QueuedSend{
		Session:      session,
		ReceivedAt:   time.Now(),
		ActionKind:   interactive.ActionSendLiteral,
		Command:      []string{"tmux", "send-keys", "-t", session, "-l", literal},
		LiteralChars: text,
	}
	return m.enqueueInteractiveSend(send)
}

// enqueueInteractiveSend is the common tail of §4.E steps 5-6 for every
// forwarded keystroke or paste: queue the send, record it so a later
// capture echo can retire it, schedule the keystroke-debounce poll so that
// echo appears promptly, and dispatch immediately if the session was idle.
func (m *Model) enqueueInteractiveSend(send interactive.QueuedSend) tea.Cmd {
	m.sendQueue.Enqueue(send)
	m.pendingInput.Record(interactive.PendingInput{
		Session:      send.Session,
		ReceivedAt:   send.ReceivedAt,
		LiteralChars: send.LiteralChars,
	})

	cmds := []tea.Cmd{m.keystrokeDebounceCmd()}
	if next, ok := m.sendQueue.DispatchNext(send.Session); ok {
		cmds = append(cmds, m.sendCmd(next))
	}
	return tea.Batch(cmds...)
}

func (m *Model) handlePollTick() tea.Cmd {
	gen, ok := m.scheduler.Dispatch()
	if !ok {
		return m.pollTickCmd(poll.SlowCadence)
	}
	return tea.Batch(m.dispatchPollCmds(gen), m.pollTickCmd(poll.SlowCadence))
}

// dispatchPollCmds builds the capture/cursor/status commands for this
// cycle's selected targets, stamped with gen, per §4.D step 1.
func (m *Model) dispatchPollCmds(gen int64) tea.Cmd {
	ws := m.selectedWorkspace()
	livePreviewSession := ""
	if ws != nil {
		livePreviewSession = workspace.SessionName(sessionNamePrefix, ws.Name)
	}

	targets := poll.SelectTargets(livePreviewSession, m.interactiveSession != "", m.visibleSessionNames(), maxStatusPollsPerCycle)

	var cmds []tea.Cmd
	if targets.LivePreviewSession != "" {
		cmds = append(cmds, m.captureCmd(ws.Path, targets.LivePreviewSession, gen))
		if targets.NeedsCursorCapture {
			cmds = append(cmds, m.cursorCmd(ws.Path, targets.LivePreviewSession, gen))
		}
	}
	for _, session := range targets.StatusPollSessions {
		if path, ok := m.pathForSession(session); ok {
			cmds = append(cmds, m.statusCmd(path, session, gen))
		}
	}
	return tea.Batch(cmds...)
}

func (m *Model) pathForSession(session string) (string, bool) {
	for _, ws := range m.workspaces {
		if workspace.SessionName(sessionNamePrefix, ws.Name) == session {
			return ws.Path, true
		}
	}
	return "", false
}

// prioritizePollCmd kicks an immediate, prioritized poll (§4.D step 5),
// used when the selection changes so the newly-selected pane appears
// without waiting for the next scheduled tick. It supersedes any poll
// already in flight, so that poll's eventual completion will carry a
// stale generation and be dropped by Scheduler.Complete.
func (m *Model) prioritizePollCmd() tea.Cmd {
	gen := m.scheduler.Prioritize()
	return m.dispatchPollCmds(gen)
}

func (m *Model) handleCaptureCompletion(msg CaptureCompletionMsg) tea.Cmd {
	accept, followUp := m.scheduler.Complete(msg.Generation)
	if !accept {
		return nil
	}
	if msg.Err != nil {
		m.reportCaptureError(msg.WorkspacePath, msg.Err, "capture failed")
		if followUp {
			return m.handlePollTick()
		}
		return nil
	}

	p := m.previewFor(msg.WorkspacePath)
	update := p.ApplyCapture(msg.Output)
	if update.ChangedCleaned {
		m.logEvent(time.Now(), "capture", "preview", map[string]any{"path": msg.WorkspacePath})
	}
	if m.interactiveSession != "" {
		m.pendingInput.RetireEchoed(m.interactiveSession, msg.Output)
		m.bracketedPasteEnabled = interactive.DetectBracketedPasteMode(msg.Output)
	}

	if followUp {
		return m.handlePollTick()
	}
	if update.ChangedCleaned {
		return m.pollTickCmd(poll.FastCadence)
	}
	return nil
}

func (m *Model) handleCursorCompletion(msg CursorCompletionMsg) tea.Cmd {
	if msg.Err != nil {
		return nil
	}
	m.interactiveCursor = cursorState{
		Row:        msg.Cursor.CursorRow,
		Col:        msg.Cursor.CursorCol,
		Visible:    msg.Cursor.CursorVisible,
		PaneWidth:  msg.Cursor.PaneWidth,
		PaneHeight: msg.Cursor.PaneHeight,
	}
	if m.resizeVerify == nil {
		return nil
	}
	matched, shouldRetry, failed := m.resizeVerify.Observe(msg.Cursor.PaneWidth, msg.Cursor.PaneHeight)
	if matched {
		m.resizeVerify = nil
		return nil
	}
	if shouldRetry {
		w, h := m.resizeVerify.ExpectedWidth, m.resizeVerify.ExpectedHeight
		return m.resizeCmd(msg.WorkspacePath, m.interactiveSession, w, h)
	}
	if failed {
		m.toasts.Push("resize verification failed", true, time.Now())
		m.resizeVerify = nil
	}
	return nil
}

func (m *Model) handleStatusCompletion(msg StatusCompletionMsg) tea.Cmd {
	accept, followUp := m.scheduler.Complete(msg.Generation)
	if accept {
		if msg.Err != nil {
			m.reportCaptureError(msg.WorkspacePath, msg.Err, "status poll failed")
		} else {
			for i := range m.workspaces {
				ws := &m.workspaces[i]
				if ws.Path != msg.WorkspacePath {
					continue
				}
				cleaned := capture.CleanedOutput(msg.Output)
				ws.Status = status.Detect(cleaned, true, ws.IsMain, ws.SupportedAgent, ws.Agent)
			}
		}
	}
	if followUp {
		return m.handlePollTick()
	}
	return nil
}

// reportCaptureError handles a failed capture/status poll: a missing tmux
// session demotes the workspace to its no-session state and flags it
// orphaned, while any other failure is treated as transient and only
// surfaced as a toast, since the next poll cycle will retry on its own.
func (m *Model) reportCaptureError(path string, err error, label string) {
	var missing *executor.MissingSessionError
	if errors.As(err, &missing) {
		m.markMissingSession(path)
		return
	}
	m.toasts.Push(label+": "+err.Error(), true, time.Now())
}

// markMissingSession demotes the workspace at path to Idle (or leaves a
// main workspace at Main) and flags a non-main workspace orphaned.
func (m *Model) markMissingSession(path string) {
	for i := range m.workspaces {
		ws := &m.workspaces[i]
		if ws.Path != path {
			continue
		}
		if ws.IsMain {
			ws.Status = workspace.StatusMain
		} else {
			ws.Status = workspace.StatusIdle
			ws.IsOrphaned = true
		}
	}
}

func (m *Model) handleResizeCompletion(msg ResizeCompletionMsg) tea.Cmd {
	if msg.Err != nil {
		m.toasts.Push("resize failed: "+msg.Err.Error(), true, time.Now())
		m.resizeVerify = nil
		return nil
	}
	if m.resizeVerify == nil || m.resizeVerify.ExpectedWidth != msg.Width || m.resizeVerify.ExpectedHeight != msg.Height {
		m.resizeVerify = interactive.NewResizeVerification(msg.Width, msg.Height)
	}
	matched, shouldRetry, failed := m.resizeVerify.Observe(msg.ActualWidth, msg.ActualHeight)
	if matched {
		m.resizeVerify = nil
		return nil
	}
	if shouldRetry {
		return m.resizeCmd(msg.WorkspacePath, m.interactiveSession, msg.Width, msg.Height)
	}
	if failed {
		m.toasts.Push("resize verification failed", true, time.Now())
		m.resizeVerify = nil
	}
	return nil
}

func (m *Model) handleSendCompletion(msg SendCompletionMsg) tea.Cmd {
	if msg.Err != nil {
		m.toasts.Push("send failed: "+msg.Err.Error(), true, time.Now())
	}
	if next, ok := m.sendQueue.Complete(msg.Session); ok {
		return m.sendCmd(next)
	}
	return nil
}

func (m *Model) handleLifecycleCompletion(msg LifecycleCompletionMsg) tea.Cmd {
	completion := msg.Completion
	m.lifecycle.Release(completion)
	m.toasts.Push(lifecycle.ToastText(completion), !completion.Succeeded(), time.Now())

	var refreshCmd tea.Cmd
	if completion.Succeeded() {
		m.workspaces = lifecycle.Reconcile(m.workspaces, completion.Path, func(ws workspace.Workspace) workspace.Workspace {
			switch completion.Kind {
			case lifecycle.OpStartAgent, lifecycle.OpRestartAgent:
				ws.Status = workspace.StatusActive
				ws.IsOrphaned = false
			case lifecycle.OpStopAgent:
				ws.Status = workspace.StatusIdle
			}
			return ws
		})
		// The completion only reports this one workspace's outcome; a
		// create/delete/merge changes the worktree list itself, so a quiet
		// rescan picks up what the completion alone can't carry, per §4.I.
		refreshCmd = m.startRefreshWorkspaces()
	}

	m.logEvent(time.Now(), "lifecycle_completion", "lifecycle", map[string]any{
		"path":           completion.Path,
		"operation":      int(completion.Kind),
		"success":        completion.Succeeded(),
		"correlation_id": completion.CorrelationID,
	})

	return tea.Batch(m.prioritizePollCmd(), refreshCmd)
}

// handleRefreshCompletion applies a rescanned workspace list against the
// set of sessions actually running, per §4.I's reconcile_with_sessions,
// and remembers which sessions were running for the next refresh's
// newly-dead-session comparison.
func (m *Model) handleRefreshCompletion(msg RefreshCompletionMsg) tea.Cmd {
	// refresh-workspaces never flows through lifecycleCmd/LifecycleCompletionMsg
	// (it reports a full rescan, not one workspace's outcome), so its guard
	// is released here instead of in handleLifecycleCompletion.
	m.lifecycle.Release(lifecycle.Completion{Kind: lifecycle.OpRefreshWorkspaces, Path: ""})

	if msg.Err != nil {
		m.toasts.Push("refresh failed: "+msg.Err.Error(), true, time.Now())
		return nil
	}

	result := workspace.ReconcileWithSessions(msg.Workspaces, sessionNamePrefix, msg.RunningSessionNames, m.previously)
	m.workspaces = result.Workspaces
	m.previously = msg.RunningSessionNames

	for _, orphan := range result.OrphanedSessions {
		m.logEvent(time.Now(), "orphaned_session", "workspace", map[string]any{"session": orphan})
	}
	m.logEvent(time.Now(), "refresh_completion", "workspace", map[string]any{"correlation_id": msg.CorrelationID})
	if m.selectedIndex >= len(m.workspaces) {
		m.selectedIndex = maxInt0(len(m.workspaces) - 1)
	}
	return m.prioritizePollCmd()
}

func maxInt0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// handleKeystrokeDebounce clears the pending flag so the next forwarded
// keystroke can arm another debounce, then prioritizes a poll, per §4.E's
// "do not issue a poll per keystroke if one is already pending."
func (m *Model) handleKeystrokeDebounce() tea.Cmd {
	m.keystrokeDebouncePending = false
	return m.prioritizePollCmd()
}

func (m *Model) handleFlashExpired(msg FlashExpiredMsg) tea.Cmd {
	flash := m.flashes[msg.WorkspacePath]
	if preview.FlashExpired(flash, time.Now()) {
		delete(m.flashes, msg.WorkspacePath)
	}
	return nil
}
