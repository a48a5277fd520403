// Package workspace holds the shared in-memory truth of the system: the
// Workspace domain type and the reconciler that keeps it consistent with
// the set of multiplexer sessions actually running, per §3 Workspace and
// §4.I Workspace Model & Reconciler.
package workspace

import "fmt"

// AgentType is the kind of AI coding agent a workspace's session runs.
type AgentType string

const (
	AgentClaude AgentType = "claude"
	AgentCodex  AgentType = "codex"
)

// Label returns the agent's display name.
func (a AgentType) Label() string {
	switch a {
	case AgentClaude:
		return "Claude"
	case AgentCodex:
		return "Codex"
	default:
		return string(a)
	}
}

// Status is the per-workspace status state machine described in §3.
type Status string

const (
	StatusMain        Status = "main"
	StatusIdle        Status = "idle"
	StatusActive      Status = "active"
	StatusThinking    Status = "thinking"
	StatusWaiting     Status = "waiting"
	StatusDone        Status = "done"
	StatusError       Status = "error"
	StatusUnknown     Status = "unknown"
	StatusUnsupported Status = "unsupported"
)

// HasSession reports whether this status implies a live multiplexer
// session backs the workspace.
func (s Status) HasSession() bool {
	switch s {
	case StatusActive, StatusThinking, StatusWaiting, StatusDone, StatusError:
		return true
	default:
		return false
	}
}

// IsRunning reports whether the workspace's agent is actively running.
func (s Status) IsRunning() bool {
	switch s {
	case StatusActive, StatusThinking, StatusWaiting:
		return true
	default:
		return false
	}
}

// Workspace is a git worktree plus metadata and an associated multiplexer
// session, per §3.
type Workspace struct {
	Name                string
	Path                string
	ProjectName         string
	ProjectPath         string
	Branch              string
	BaseBranch          string
	LastActivityUnixSec int64
	Agent               AgentType
	Status              Status
	IsMain              bool
	IsOrphaned          bool
	SupportedAgent      bool
}

// ValidationError enumerates why New rejected a Workspace's fields.
type ValidationError string

const (
	ErrEmptyName                     ValidationError = "workspace name must not be empty"
	ErrEmptyPath                     ValidationError = "workspace path must not be empty"
	ErrEmptyBranch                   ValidationError = "workspace branch must not be empty"
	ErrMainWorkspaceMustUseMainStatus ValidationError = "a workspace flagged main must have status Main"
)

func (e ValidationError) Error() string { return string(e) }

// New validates and constructs a Workspace, enforcing the invariants named
// in §3: non-empty name/path/branch, and main-flag/Main-status agreement.
func New(name, path, branch string, lastActivityUnixSec int64, agent AgentType, status Status, isMain bool) (Workspace, error) {
	if isEmptyTrimmed(name) {
		return Workspace{}, ErrEmptyName
	}
	if path == "" {
		return Workspace{}, ErrEmptyPath
	}
	if isEmptyTrimmed(branch) {
		return Workspace{}, ErrEmptyBranch
	}
	if isMain && status != StatusMain {
		return Workspace{}, ErrMainWorkspaceMustUseMainStatus
	}

	return Workspace{
		Name:                name,
		Path:                path,
		Branch:              branch,
		LastActivityUnixSec: lastActivityUnixSec,
		Agent:               agent,
		Status:              status,
		IsMain:              isMain,
		SupportedAgent:      true,
	}, nil
}

func isEmptyTrimmed(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' {
			return false
		}
	}
	return true
}

// WithBaseBranch returns a copy of w with BaseBranch set.
func (w Workspace) WithBaseBranch(branch string) Workspace {
	w.BaseBranch = branch
	return w
}

// WithProjectContext returns a copy of w attributed to a project.
func (w Workspace) WithProjectContext(name, path string) Workspace {
	w.ProjectName = name
	w.ProjectPath = path
	return w
}

// WithSupportedAgent returns a copy of w with SupportedAgent set.
func (w Workspace) WithSupportedAgent(supported bool) Workspace {
	w.SupportedAgent = supported
	return w
}

// WithOrphaned returns a copy of w with IsOrphaned set.
func (w Workspace) WithOrphaned(orphaned bool) Workspace {
	w.IsOrphaned = orphaned
	return w
}

// SessionName returns the expected agent-session name for the workspace
// called name, per §6 session
// naming.
func SessionName(prefix, name string) string {
	return prefix + sanitize(name)
}

func sanitize(name string) string {
	out := make([]rune, 0, len(name))
	lastDash := false
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			out = append(out, r)
			lastDash = false
			continue
		}
		if !lastDash {
			out = append(out, '-')
			lastDash = true
		}
	}
	s := string(out)
	start, end := 0, len(s)
	for start < end && s[start] == '-' {
		start++
	}
	for end > start && s[end-1] == '-' {
		end--
	}
	return s[start:end]
}

// ReconcileResult is the outcome of reconcile_with_sessions, per §4.I.
type ReconcileResult struct {
	Workspaces       []Workspace
	OrphanedSessions []string
}

// ReconcileWithSessions marks workspaces Active when their expected session
// is running, flags newly-dead sessions as orphaned workspaces, and
// reports running sessions that map to no known workspace.
func ReconcileWithSessions(workspaces []Workspace, sessionPrefix string, runningSessionNames, previouslyRunningNames []string) ReconcileResult {
	running := toSet(runningSessionNames)
	previouslyRunning := toSet(previouslyRunningNames)

	expected := make(map[string]bool, len(workspaces))
	result := make([]Workspace, len(workspaces))
	for i, ws := range workspaces {
		name := SessionName(sessionPrefix, ws.Name)
		expected[name] = true

		if running[name] {
			ws.Status = StatusActive
		} else if previouslyRunning[name] && !ws.IsMain {
			ws.IsOrphaned = true
		}
		result[i] = ws
	}

	var orphanedSessions []string
	for _, session := range runningSessionNames {
		if !expected[session] {
			orphanedSessions = append(orphanedSessions, session)
		}
	}

	return ReconcileResult{Workspaces: result, OrphanedSessions: orphanedSessions}
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// MissingWorkspacePaths returns the paths, among workspaces, that do not
// exist on disk, per §4.I. exists is injected so callers (and tests) can
// avoid a real filesystem dependency.
func MissingWorkspacePaths(workspaces []Workspace, exists func(path string) bool) []string {
	var missing []string
	for _, ws := range workspaces {
		if !exists(ws.Path) {
			missing = append(missing, ws.Path)
		}
	}
	return missing
}

// ShouldPruneWorktrees reports whether a non-empty missing-paths result
// should trigger worktree pruning.
func ShouldPruneWorktrees(missingPaths []string) bool {
	return len(missingPaths) > 0
}

func (w Workspace) String() string {
	return fmt.Sprintf("Workspace{%s status=%s main=%v orphaned=%v}", w.Name, w.Status, w.IsMain, w.IsOrphaned)
}
