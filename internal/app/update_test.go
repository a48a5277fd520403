package app

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jordangarrison/grove/internal/executor"
	"github.com/jordangarrison/grove/internal/workspace"
)

func TestMsgKindTagsEveryMessageType(t *testing.T) {
	cases := []struct {
		msg  tea.Msg
		want string
	}{
		{tea.KeyMsg{}, "key"},
		{tea.MouseMsg{}, "mouse"},
		{tea.WindowSizeMsg{}, "resize"},
		{PollTickMsg{}, "tick"},
		{CaptureCompletionMsg{}, "capture_completion"},
		{SendCompletionMsg{}, "send_completion"},
		{DirChangedMsg{}, "dir_changed"},
		{KeystrokeDebounceMsg{}, "keystroke_debounce"},
		{struct{}{}, "noop"},
	}
	for _, c := range cases {
		if got := msgKind(c.msg); got != c.want {
			t.Fatalf("msgKind(%T) = %q, want %q", c.msg, got, c.want)
		}
	}
}

func TestHandlePollTickDispatchesCaptureForSelectedWorkspace(t *testing.T) {
	exec := &fakeExecutor{captureOutput: "pane contents"}
	m := newTestModel(t, exec, []workspace.Workspace{mustWorkspace(t, "alpha", false)})

	cmd := m.handlePollTick()
	if cmd == nil {
		t.Fatalf("expected a batched poll command")
	}
}

func TestHandlePollTickSkipsWhenAlreadyInFlight(t *testing.T) {
	m := newTestModel(t, &fakeExecutor{}, []workspace.Workspace{mustWorkspace(t, "alpha", false)})
	if _, ok := m.scheduler.Dispatch(); !ok {
		t.Fatalf("expected the first dispatch to succeed")
	}
	cmd := m.handlePollTick()
	if cmd == nil {
		t.Fatalf("expected a re-armed tick command even when a poll is already in flight")
	}
}

func TestHandleMouseWheelScrollsPreview(t *testing.T) {
	m := newTestModel(t, &fakeExecutor{}, []workspace.Workspace{mustWorkspace(t, "alpha", false)})
	p := m.previewFor("/project/alpha")
	raw := ""
	for i := 0; i < 60; i++ {
		raw += string(rune('a'+i%26)) + "\n"
	}
	p.ApplyCapture(raw)

	m.handleMouse(tea.MouseMsg{Button: tea.MouseButtonWheelUp, Action: tea.MouseActionPress})
	if p.AutoScroll {
		t.Fatalf("expected scrolling up to disable auto-scroll")
	}
}

func TestHandleInteractiveKeyDropsMouseFragmentPaste(t *testing.T) {
	m := newTestModel(t, &fakeExecutor{}, []workspace.Workspace{mustWorkspace(t, "alpha", false)})
	m.interactiveSession = "grove-ws-alpha"

	cmd := m.handleInteractiveKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("[<35;192;47M"), Paste: true})
	if cmd != nil {
		t.Fatalf("expected a split mouse fragment to be dropped, got a command")
	}
	if m.sendQueue.Depth("grove-ws-alpha") != 0 {
		t.Fatalf("expected nothing enqueued for a dropped mouse fragment")
	}
}

func TestHandleInteractiveKeyForwardsPasteAndSchedulesDebounce(t *testing.T) {
	m := newTestModel(t, &fakeExecutor{}, []workspace.Workspace{mustWorkspace(t, "alpha", false)})
	m.interactiveSession = "grove-ws-alpha"

	cmd := m.handleInteractiveKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("pasted text"), Paste: true})
	if cmd == nil {
		t.Fatalf("expected a command batching the send and the keystroke debounce")
	}
	if !m.keystrokeDebouncePending {
		t.Fatalf("expected the keystroke debounce to be armed")
	}
	if m.pendingInput.Len() != 1 {
		t.Fatalf("pendingInput.Len() = %d, want 1", m.pendingInput.Len())
	}
}

func TestKeystrokeDebounceCmdDoesNotReArmWhilePending(t *testing.T) {
	m := newTestModel(t, &fakeExecutor{}, []workspace.Workspace{mustWorkspace(t, "alpha", false)})
	if cmd := m.keystrokeDebounceCmd(); cmd == nil {
		t.Fatalf("expected the first call to arm a debounce command")
	}
	if cmd := m.keystrokeDebounceCmd(); cmd != nil {
		t.Fatalf("expected a second call while pending to return nil")
	}
}

func TestHandleKeyCreateDispatchesLifecycleRequest(t *testing.T) {
	m := newTestModel(t, &fakeExecutor{}, []workspace.Workspace{mustWorkspace(t, "main", true)})
	cmd := m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	if cmd == nil {
		t.Fatalf("expected the create keybinding to dispatch a lifecycle command")
	}
}

func TestHandleKeyRefreshWorkspacesDispatchesLifecycleRequest(t *testing.T) {
	m := newTestModel(t, &fakeExecutor{}, []workspace.Workspace{mustWorkspace(t, "main", true)})
	cmd := m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'R'}})
	if cmd == nil {
		t.Fatalf("expected the refresh-workspaces keybinding to dispatch a command")
	}
}

func TestHandleCaptureCompletionMissingSessionDemotesStatus(t *testing.T) {
	m := newTestModel(t, &fakeExecutor{}, []workspace.Workspace{mustWorkspace(t, "alpha", false)})
	m.workspaces[0].Status = workspace.StatusActive
	gen, _ := m.scheduler.Dispatch()

	m.handleCaptureCompletion(CaptureCompletionMsg{
		WorkspacePath: "/project/alpha",
		Generation:    gen,
		Err:           &executor.MissingSessionError{Target: "grove-ws-alpha"},
	})

	if m.workspaces[0].Status != workspace.StatusIdle || !m.workspaces[0].IsOrphaned {
		t.Fatalf("workspace = %+v, want demoted to Idle and orphaned", m.workspaces[0])
	}
}

func TestPrioritizePollCmdSupersedesInFlightGeneration(t *testing.T) {
	m := newTestModel(t, &fakeExecutor{}, []workspace.Workspace{mustWorkspace(t, "alpha", false)})
	staleGen, _ := m.scheduler.Dispatch()
	m.prioritizePollCmd()

	accept, _ := m.scheduler.Complete(staleGen)
	if accept {
		t.Fatalf("expected the pre-prioritize generation to be rejected as stale")
	}
}
