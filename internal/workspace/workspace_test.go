package workspace

import "testing"

func TestMainWorkspaceRequiresMainStatus(t *testing.T) {
	_, err := New("grove", "/repos/grove", "main", 1_700_000_000, AgentClaude, StatusIdle, true)
	if err != ErrMainWorkspaceMustUseMainStatus {
		t.Fatalf("err = %v, want %v", err, ErrMainWorkspaceMustUseMainStatus)
	}
}

func TestWorkspaceRequiresNonEmptyNameAndBranch(t *testing.T) {
	if _, err := New("", "/repos/grove", "main", 0, AgentClaude, StatusIdle, false); err != ErrEmptyName {
		t.Fatalf("err = %v, want %v", err, ErrEmptyName)
	}
	if _, err := New("feature-x", "/repos/grove-feature-x", "", 0, AgentClaude, StatusIdle, false); err != ErrEmptyBranch {
		t.Fatalf("err = %v, want %v", err, ErrEmptyBranch)
	}
	if _, err := New("feature-x", "", "feature-x", 0, AgentClaude, StatusIdle, false); err != ErrEmptyPath {
		t.Fatalf("err = %v, want %v", err, ErrEmptyPath)
	}
}

func TestWorkspaceAcceptsValidValues(t *testing.T) {
	ws, err := New("feature-x", "/repos/grove-feature-x", "feature-x", 0, AgentCodex, StatusUnknown, false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ws = ws.WithBaseBranch("main").WithOrphaned(true).WithSupportedAgent(false)

	if ws.Agent.Label() != "Codex" {
		t.Fatalf("Agent.Label() = %q, want Codex", ws.Agent.Label())
	}
	if ws.Path != "/repos/grove-feature-x" {
		t.Fatalf("Path = %q", ws.Path)
	}
	if ws.BaseBranch != "main" {
		t.Fatalf("BaseBranch = %q, want main", ws.BaseBranch)
	}
	if !ws.IsOrphaned {
		t.Fatalf("expected IsOrphaned")
	}
	if ws.SupportedAgent {
		t.Fatalf("expected SupportedAgent=false")
	}
}

func TestReconciliation(t *testing.T) {
	main, _ := New("main", "/repos/grove", "main", 0, AgentClaude, StatusMain, true)
	featureA, _ := New("feature-a", "/repos/grove-feature-a", "feature-a", 0, AgentClaude, StatusIdle, false)
	featureB, _ := New("feature-b", "/repos/grove-feature-b", "feature-b", 0, AgentClaude, StatusIdle, false)

	result := ReconcileWithSessions(
		[]Workspace{main, featureA, featureB},
		"grove-ws-",
		[]string{"grove-ws-feature-a", "grove-ws-orphaned"},
		[]string{"grove-ws-feature-b"},
	)

	byName := map[string]Workspace{}
	for _, ws := range result.Workspaces {
		byName[ws.Name] = ws
	}

	if byName["feature-a"].Status != StatusActive {
		t.Fatalf("feature-a status = %v, want Active", byName["feature-a"].Status)
	}
	if !byName["feature-b"].IsOrphaned {
		t.Fatalf("feature-b should be orphaned")
	}
	if len(result.OrphanedSessions) != 1 || result.OrphanedSessions[0] != "grove-ws-orphaned" {
		t.Fatalf("OrphanedSessions = %v, want [grove-ws-orphaned]", result.OrphanedSessions)
	}
}

func TestSessionNameSanitization(t *testing.T) {
	cases := map[string]string{
		"feature-x":     "feature-x",
		"feature/x.y:z": "feature-x-y-z",
		"--leading":     "leading",
		"trailing--":    "trailing",
	}
	for in, want := range cases {
		if got := sanitize(in); got != want {
			t.Fatalf("sanitize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMissingWorkspacePaths(t *testing.T) {
	ws, _ := New("feature-x", "/does/not/exist", "feature-x", 0, AgentClaude, StatusIdle, false)
	missing := MissingWorkspacePaths([]Workspace{ws}, func(path string) bool { return false })
	if len(missing) != 1 || missing[0] != "/does/not/exist" {
		t.Fatalf("missing = %v", missing)
	}
	if !ShouldPruneWorktrees(missing) {
		t.Fatalf("expected ShouldPruneWorktrees=true")
	}
}
