package status

import (
	"testing"

	"github.com/jordangarrison/grove/internal/workspace"
)

func TestUnsupportedAgentOverridesEverything(t *testing.T) {
	got := Detect("task completed", true, false, false, workspace.AgentClaude)
	if got != workspace.StatusUnsupported {
		t.Fatalf("got %v, want Unsupported", got)
	}
}

func TestMainWorkspaceWithNoSessionIsMain(t *testing.T) {
	got := Detect("", false, true, true, workspace.AgentClaude)
	if got != workspace.StatusMain {
		t.Fatalf("got %v, want Main", got)
	}
}

func TestWaitingSignatureWins(t *testing.T) {
	got := Detect("Allow edit to file.go? [y/n]", true, false, true, workspace.AgentClaude)
	if got != workspace.StatusWaiting {
		t.Fatalf("got %v, want Waiting", got)
	}
}

func TestThinkingSignature(t *testing.T) {
	got := Detect("Thinking...\n", true, false, true, workspace.AgentClaude)
	if got != workspace.StatusThinking {
		t.Fatalf("got %v, want Thinking", got)
	}
}

func TestDoneSignature(t *testing.T) {
	got := Detect("All done, goodbye", true, false, true, workspace.AgentClaude)
	if got != workspace.StatusDone {
		t.Fatalf("got %v, want Done", got)
	}
}

func TestErrorSignature(t *testing.T) {
	got := Detect("panic: runtime error", true, false, true, workspace.AgentClaude)
	if got != workspace.StatusError {
		t.Fatalf("got %v, want Error", got)
	}
}

func TestDefaultsActiveWithSession(t *testing.T) {
	got := Detect("just regular output\n", true, false, true, workspace.AgentClaude)
	if got != workspace.StatusActive {
		t.Fatalf("got %v, want Active", got)
	}
}

func TestDefaultsIdleWithoutSession(t *testing.T) {
	got := Detect("just regular output\n", false, false, true, workspace.AgentClaude)
	if got != workspace.StatusIdle {
		t.Fatalf("got %v, want Idle", got)
	}
}

func TestWaitingOnlyMatchesTailLines(t *testing.T) {
	old := "approve\n" + stringsRepeat("line\n", 20)
	got := Detect(old, true, false, true, workspace.AgentClaude)
	if got == workspace.StatusWaiting {
		t.Fatalf("stale 'approve' far from the tail should not classify as Waiting")
	}
}

func stringsRepeat(s string, n int) string {
	out := make([]byte, 0, len(s)*n)
	for i := 0; i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}

func TestIsIdempotentAndPure(t *testing.T) {
	input := "Allow edit to file.go? [y/n]"
	first := Detect(input, true, false, true, workspace.AgentClaude)
	second := Detect(input, true, false, true, workspace.AgentClaude)
	if first != second {
		t.Fatalf("Detect is not idempotent: %v != %v", first, second)
	}
}
