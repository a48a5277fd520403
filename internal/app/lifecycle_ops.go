package app

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jordangarrison/grove/internal/executor"
	"github.com/jordangarrison/grove/internal/lifecycle"
	"github.com/jordangarrison/grove/internal/workspace"
)

// agentCommands maps an agent type to the shell command its tmux session
// runs. There is no config field for this yet (an open question left for a
// future settings surface), so the mapping is fixed here.
var agentCommands = map[workspace.AgentType]string{
	workspace.AgentClaude: "claude",
	workspace.AgentCodex:  "codex",
}

func agentCommandFor(agent workspace.AgentType) string {
	if cmd, ok := agentCommands[agent]; ok {
		return cmd
	}
	return "claude"
}

// runGit runs a git subcommand with dir as its working directory, returning
// combined stderr on failure.
func runGit(ctx context.Context, dir string, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	if dir != "" {
		cmd.Dir = dir
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return nil
}

// startAgentSession creates (or reconnects to) path's tmux session and
// starts agent inside it: has-session check, new-session if absent, then
// send-keys the agent's launch command.
func startAgentSession(ctx context.Context, session, path string, agent workspace.AgentType) error {
	has := exec.CommandContext(ctx, "tmux", "has-session", "-t", session).Run()
	if has != nil {
		if err := exec.CommandContext(ctx, "tmux", "new-session", "-d", "-s", session, "-c", path).Run(); err != nil {
			return fmt.Errorf("new-session: %w", err)
		}
	}
	cmd := agentCommandFor(agent)
	if err := exec.CommandContext(ctx, "tmux", "send-keys", "-t", session, cmd, "Enter").Run(); err != nil {
		_ = exec.CommandContext(ctx, "tmux", "kill-session", "-t", session).Run()
		return fmt.Errorf("send-keys %s: %w", cmd, err)
	}
	return nil
}

func stopAgentSession(ctx context.Context, session string) error {
	if err := exec.CommandContext(ctx, "tmux", "kill-session", "-t", session).Run(); err != nil {
		return fmt.Errorf("kill-session: %w", err)
	}
	return nil
}

// removeGitWorktree removes path's worktree, retrying with --force when the
// plain remove is rejected (dirty working tree, locked worktree).
func removeGitWorktree(ctx context.Context, projectPath, path string) error {
	if err := runGit(ctx, projectPath, "worktree", "remove", path); err != nil {
		if err := runGit(ctx, projectPath, "worktree", "remove", "--force", path); err != nil {
			return err
		}
	}
	return nil
}

// mergeWorktreeBranch fetches base, merges origin/base into the local base,
// merges branch into it with --no-ff, then pushes the result.
func mergeWorktreeBranch(ctx context.Context, projectPath, base, branch string) error {
	if err := runGit(ctx, projectPath, "fetch", "origin", base); err != nil {
		return err
	}
	if err := runGit(ctx, projectPath, "checkout", base); err != nil {
		return err
	}
	if err := runGit(ctx, projectPath, "merge", "origin/"+base, "--no-edit"); err != nil {
		return err
	}
	if err := runGit(ctx, projectPath, "merge", branch, "--no-ff", "-m", "merge "+branch+" into "+base); err != nil {
		return err
	}
	if err := runGit(ctx, projectPath, "push", "origin", base); err != nil {
		return err
	}
	return nil
}

// updateWorktreeFromBase pulls base's latest commits into a workspace's own
// branch, the counterpart of mergeWorktreeBranch run the other direction.
func updateWorktreeFromBase(ctx context.Context, path, base string) error {
	if err := runGit(ctx, path, "fetch", "origin", base); err != nil {
		return err
	}
	if err := runGit(ctx, path, "merge", "origin/"+base, "--no-edit"); err != nil {
		return err
	}
	return nil
}

// nextWorkspaceName picks the first "workspace-N" not already in use. Grove
// has no create-dialog surface yet (out of scope here), so new workspaces
// are named mechanically rather than prompted for.
func nextWorkspaceName(existing []workspace.Workspace) string {
	taken := make(map[string]bool, len(existing))
	for _, ws := range existing {
		taken[ws.Name] = true
	}
	for i := 1; ; i++ {
		name := fmt.Sprintf("workspace-%d", i)
		if !taken[name] {
			return name
		}
	}
}

// requestCreate dispatches the create operation: a new worktree branched
// off base at <project>/<name>, with its agent session started immediately.
// The new workspace has no path yet when the request is made, so the
// reentrancy guard (and the eventual Completion) is scoped to the empty
// path, per lifecycle.guardKey's convention for operations not scoped to an
// existing workspace.
func (m *Model) requestCreate(base string) tea.Cmd {
	accepted, reason, correlationID := m.lifecycle.Request(lifecycle.OpCreate, "", nil)
	if !accepted {
		m.toasts.Push("create: "+reason, true, time.Now())
		return nil
	}

	name := nextWorkspaceName(m.workspaces)
	path := m.projectPath + "/" + name
	projectPath := m.projectPath
	agent := workspace.AgentClaude
	session := workspace.SessionName(sessionNamePrefix, name)

	run := func() ([]string, error) {
		ctx := context.Background()
		if err := runGit(ctx, projectPath, "worktree", "add", "-b", name, path, base); err != nil {
			return nil, err
		}
		var warnings []string
		if err := startAgentSession(ctx, session, path, agent); err != nil {
			warnings = append(warnings, "agent did not start: "+err.Error())
		}
		return warnings, nil
	}
	return lifecycleCmd(lifecycle.OpCreate, "", correlationID, run)
}

// requestDelete dispatches the delete operation for ws: remove its worktree
// and kill its agent session if one is running.
func (m *Model) requestDelete(ws workspace.Workspace) tea.Cmd {
	if ws.IsMain {
		m.toasts.Push("delete: cannot delete the main workspace", true, time.Now())
		return nil
	}
	accepted, reason, correlationID := m.lifecycle.Request(lifecycle.OpDelete, ws.Path, nil)
	if !accepted {
		m.toasts.Push("delete: "+reason, true, time.Now())
		return nil
	}

	projectPath := m.projectPath
	path := ws.Path
	session := workspace.SessionName(sessionNamePrefix, ws.Name)

	run := func() ([]string, error) {
		ctx := context.Background()
		if ws.Status.HasSession() {
			_ = stopAgentSession(ctx, session)
		}
		if err := removeGitWorktree(ctx, projectPath, path); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return lifecycleCmd(lifecycle.OpDelete, path, correlationID, run)
}

// requestMerge dispatches the merge operation: ws's branch is merged into
// its base branch and pushed directly (a PR-based alternative would need
// dialog chrome outside this scope).
func (m *Model) requestMerge(ws workspace.Workspace) tea.Cmd {
	gate := func() (bool, string) {
		if ws.BaseBranch == "" {
			return false, "no base branch recorded"
		}
		return true, ""
	}
	accepted, reason, correlationID := m.lifecycle.Request(lifecycle.OpMerge, ws.Path, gate)
	if !accepted {
		m.toasts.Push("merge: "+reason, true, time.Now())
		return nil
	}

	projectPath := m.projectPath
	path := ws.Path
	branch, base := ws.Branch, ws.BaseBranch

	run := func() ([]string, error) {
		if err := mergeWorktreeBranch(context.Background(), projectPath, base, branch); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return lifecycleCmd(lifecycle.OpMerge, path, correlationID, run)
}

// requestUpdateFromBase dispatches pulling ws's base branch into its own
// branch, the inverse direction of merge.
func (m *Model) requestUpdateFromBase(ws workspace.Workspace) tea.Cmd {
	gate := func() (bool, string) {
		if ws.BaseBranch == "" {
			return false, "no base branch recorded"
		}
		return true, ""
	}
	accepted, reason, correlationID := m.lifecycle.Request(lifecycle.OpUpdateFromBase, ws.Path, gate)
	if !accepted {
		m.toasts.Push("update-from-base: "+reason, true, time.Now())
		return nil
	}

	path, base := ws.Path, ws.BaseBranch
	run := func() ([]string, error) {
		if err := updateWorktreeFromBase(context.Background(), path, base); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return lifecycleCmd(lifecycle.OpUpdateFromBase, path, correlationID, run)
}

// requestStartAgent dispatches starting (or reconnecting) ws's agent
// session.
func (m *Model) requestStartAgent(ws workspace.Workspace) tea.Cmd {
	gate := func() (bool, string) {
		if ws.Status.IsRunning() {
			return false, "agent already running"
		}
		return true, ""
	}
	accepted, reason, correlationID := m.lifecycle.Request(lifecycle.OpStartAgent, ws.Path, gate)
	if !accepted {
		m.toasts.Push("start-agent: "+reason, true, time.Now())
		return nil
	}

	path, session, agent := ws.Path, workspace.SessionName(sessionNamePrefix, ws.Name), ws.Agent
	run := func() ([]string, error) {
		if err := startAgentSession(context.Background(), session, path, agent); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return lifecycleCmd(lifecycle.OpStartAgent, path, correlationID, run)
}

// requestStopAgent dispatches killing ws's agent session.
func (m *Model) requestStopAgent(ws workspace.Workspace) tea.Cmd {
	gate := func() (bool, string) {
		if !ws.Status.HasSession() {
			return false, "no running session"
		}
		return true, ""
	}
	accepted, reason, correlationID := m.lifecycle.Request(lifecycle.OpStopAgent, ws.Path, gate)
	if !accepted {
		m.toasts.Push("stop-agent: "+reason, true, time.Now())
		return nil
	}

	path, session := ws.Path, workspace.SessionName(sessionNamePrefix, ws.Name)
	run := func() ([]string, error) {
		if err := stopAgentSession(context.Background(), session); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return lifecycleCmd(lifecycle.OpStopAgent, path, correlationID, run)
}

// requestRestartAgent dispatches stopping then starting ws's agent session
// in a single operation.
func (m *Model) requestRestartAgent(ws workspace.Workspace) tea.Cmd {
	accepted, reason, correlationID := m.lifecycle.Request(lifecycle.OpRestartAgent, ws.Path, nil)
	if !accepted {
		m.toasts.Push("restart-agent: "+reason, true, time.Now())
		return nil
	}

	path, session, agent := ws.Path, workspace.SessionName(sessionNamePrefix, ws.Name), ws.Agent
	run := func() ([]string, error) {
		ctx := context.Background()
		if ws.Status.HasSession() {
			_ = stopAgentSession(ctx, session)
		}
		if err := startAgentSession(ctx, session, path, agent); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return lifecycleCmd(lifecycle.OpRestartAgent, path, correlationID, run)
}

// requestRefreshWorkspaces dispatches a rescan of the project's worktrees
// and running sessions, producing a RefreshCompletionMsg instead of the
// generic LifecycleCompletionMsg so the result can carry a full workspace
// list rather than a single per-workspace update.
func (m *Model) requestRefreshWorkspaces() tea.Cmd {
	accepted, reason, correlationID := m.lifecycle.Request(lifecycle.OpRefreshWorkspaces, "", nil)
	if !accepted {
		m.toasts.Push("refresh: "+reason, true, time.Now())
		return nil
	}
	return refreshWorkspacesCmd(m.exec, m.projectPath, correlationID)
}

// startRefreshWorkspaces is requestRefreshWorkspaces without the user-facing
// toast on rejection, used for Init's silent startup scan and the
// dir-watcher's silent out-of-band rescan.
func (m *Model) startRefreshWorkspaces() tea.Cmd {
	accepted, _, correlationID := m.lifecycle.Request(lifecycle.OpRefreshWorkspaces, "", nil)
	if !accepted {
		return nil
	}
	return refreshWorkspacesCmd(m.exec, m.projectPath, correlationID)
}

// refreshWorkspacesCmd runs the git/tmux rescan off-thread and reports a
// RefreshCompletionMsg.
func refreshWorkspacesCmd(ex executor.Executor, projectPath, correlationID string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		worktrees, err := listGitWorktrees(ctx, projectPath)
		if err != nil {
			return RefreshCompletionMsg{Err: err, CorrelationID: correlationID}
		}
		sessions, err := ex.ListSessions(ctx)
		if err != nil {
			return RefreshCompletionMsg{Err: err, CorrelationID: correlationID}
		}
		return RefreshCompletionMsg{Workspaces: worktrees, RunningSessionNames: sessions, CorrelationID: correlationID}
	}
}

// gitWorktree is one porcelain-format entry from `git worktree list`.
type gitWorktree struct {
	Path   string
	Branch string
	Bare   bool
}

// listGitWorktrees runs and parses `git worktree list --porcelain`,
// converting each entry into a workspace.Workspace.
func listGitWorktrees(ctx context.Context, projectPath string) ([]workspace.Workspace, error) {
	cmd := exec.CommandContext(ctx, "git", "-C", projectPath, "worktree", "list", "--porcelain")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("worktree list: %w", err)
	}

	entries := parseGitWorktreeList(string(out))
	workspaces := make([]workspace.Workspace, 0, len(entries))
	for i, e := range entries {
		if e.Bare || e.Path == "" {
			continue
		}
		isMain := i == 0
		name := lastPathSegment(e.Path)
		status := workspace.StatusIdle
		if isMain {
			status = workspace.StatusMain
		}
		ws, err := workspace.New(name, e.Path, e.Branch, 0, workspace.AgentClaude, status, isMain)
		if err != nil {
			continue
		}
		ws = ws.WithProjectContext(lastPathSegment(projectPath), projectPath)
		workspaces = append(workspaces, ws)
	}
	return workspaces, nil
}

func parseGitWorktreeList(output string) []gitWorktree {
	var entries []gitWorktree
	var current gitWorktree
	flush := func() {
		if current.Path != "" {
			entries = append(entries, current)
		}
		current = gitWorktree{}
	}
	for _, line := range strings.Split(output, "\n") {
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, "worktree "):
			current.Path = strings.TrimPrefix(line, "worktree ")
		case strings.HasPrefix(line, "branch "):
			current.Branch = lastPathSegment(strings.TrimPrefix(line, "branch refs/heads/"))
		case line == "bare":
			current.Bare = true
		case strings.HasPrefix(line, "detached"):
			current.Branch = "HEAD"
		}
	}
	flush()
	return entries
}

func lastPathSegment(p string) string {
	p = strings.TrimRight(p, "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}
