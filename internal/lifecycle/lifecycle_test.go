package lifecycle

import (
	"errors"
	"testing"

	"github.com/jordangarrison/grove/internal/workspace"
)

func TestRequestRejectedByGate(t *testing.T) {
	c := NewCoordinator()
	accepted, reason, correlationID := c.Request(OpCreate, "/repos/x", func() (bool, string) {
		return false, "name already exists"
	})
	if accepted {
		t.Fatalf("expected gate rejection")
	}
	if reason != "name already exists" {
		t.Fatalf("reason = %q", reason)
	}
	if correlationID != "" {
		t.Fatalf("expected no correlation ID on a rejected request, got %q", correlationID)
	}
}

func TestRequestIsSerialWithItselfPerPath(t *testing.T) {
	c := NewCoordinator()
	alwaysOK := func() (bool, string) { return true, "" }

	accepted, _, correlationID := c.Request(OpStartAgent, "/repos/a", alwaysOK)
	if !accepted {
		t.Fatalf("first request should be accepted")
	}
	if correlationID == "" {
		t.Fatalf("expected a correlation ID on an accepted request")
	}

	accepted, reason, secondID := c.Request(OpStartAgent, "/repos/a", alwaysOK)
	if accepted {
		t.Fatalf("second concurrent request for the same path should be rejected")
	}
	if reason == "" {
		t.Fatalf("expected a reentrancy reason")
	}
	if secondID != "" {
		t.Fatalf("expected no correlation ID on a rejected request, got %q", secondID)
	}

	// A different path is independent.
	accepted, _, _ = c.Request(OpStartAgent, "/repos/b", alwaysOK)
	if !accepted {
		t.Fatalf("request for a different path should be accepted concurrently")
	}
}

func TestReleaseClearsGuardOnlyOnMatchingCompletion(t *testing.T) {
	c := NewCoordinator()
	alwaysOK := func() (bool, string) { return true, "" }
	c.Request(OpStopAgent, "/repos/a", alwaysOK)

	c.Release(Completion{Kind: OpStopAgent, Path: "/repos/a"})

	if c.InFlight(OpStopAgent, "/repos/a") {
		t.Fatalf("guard should be cleared after Release")
	}

	accepted, _, _ := c.Request(OpStopAgent, "/repos/a", alwaysOK)
	if !accepted {
		t.Fatalf("request should succeed again after the guard clears")
	}
}

func TestToastTextWarningsDoNotVoidSuccess(t *testing.T) {
	success := ToastText(Completion{Kind: OpCreate})
	if success != "created" {
		t.Fatalf("ToastText = %q, want %q", success, "created")
	}

	withWarning := ToastText(Completion{Kind: OpCreate, Warnings: []string{"setup script failed"}})
	want := "created, warning: setup script failed"
	if withWarning != want {
		t.Fatalf("ToastText = %q, want %q", withWarning, want)
	}
}

func TestToastTextReportsFailure(t *testing.T) {
	got := ToastText(Completion{Kind: OpMerge, Err: errors.New("conflict in file.go")})
	want := "merged failed: conflict in file.go"
	if got != want {
		t.Fatalf("ToastText = %q, want %q", got, want)
	}
}

func TestReconcileMatchesByPathNotIndex(t *testing.T) {
	a, _ := workspace.New("a", "/repos/a", "a", 0, workspace.AgentClaude, workspace.StatusIdle, false)
	b, _ := workspace.New("b", "/repos/b", "b", 0, workspace.AgentClaude, workspace.StatusIdle, false)

	// List reordered between dispatch and completion.
	workspaces := []workspace.Workspace{b, a}

	result := Reconcile(workspaces, "/repos/a", func(ws workspace.Workspace) workspace.Workspace {
		ws.Status = workspace.StatusActive
		return ws
	})

	for _, ws := range result {
		if ws.Path == "/repos/a" && ws.Status != workspace.StatusActive {
			t.Fatalf("workspace at /repos/a was not updated: %+v", ws)
		}
		if ws.Path == "/repos/b" && ws.Status != workspace.StatusIdle {
			t.Fatalf("workspace at /repos/b should be untouched: %+v", ws)
		}
	}
}
