// Package lifecycle implements the lifecycle coordinator, §4.F: the shared
// gate/dispatch/reentrancy-guard/completion shape behind create, delete,
// merge, update-from-base, start/stop/restart-agent, delete-project and
// refresh-workspaces, generalized to a single in-flight guard keyed by
// (operation, workspace path) rather than one ad hoc flag per operation.
package lifecycle

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/jordangarrison/grove/internal/executor"
	"github.com/jordangarrison/grove/internal/workspace"
)

// OperationKind enumerates the nine operations §4.F gives the same shape.
type OperationKind int

const (
	OpCreate OperationKind = iota
	OpDelete
	OpMerge
	OpUpdateFromBase
	OpStartAgent
	OpStopAgent
	OpRestartAgent
	OpDeleteProject
	OpRefreshWorkspaces
)

var pastTense = map[OperationKind]string{
	OpCreate:            "created",
	OpDelete:            "deleted",
	OpMerge:             "merged",
	OpUpdateFromBase:    "updated from base",
	OpStartAgent:        "started",
	OpStopAgent:         "stopped",
	OpRestartAgent:      "restarted",
	OpDeleteProject:     "project deleted",
	OpRefreshWorkspaces: "refreshed",
}

// Gate is the per-operation predicate named in §4.F ("can_start_agent",
// "can_stop_agent", etc). ok=false rejects the request with reason shown as
// a toast.
type Gate func() (ok bool, reason string)

// guardKey identifies one in-flight reentrancy guard. Path is empty for
// operations that aren't scoped to a single workspace (delete-project,
// refresh-workspaces).
type guardKey struct {
	Kind OperationKind
	Path string
}

// Coordinator tracks the per-operation reentrancy guards and applies
// completions, per §4.F.
type Coordinator struct {
	mu       sync.Mutex
	inFlight map[guardKey]bool
}

// NewCoordinator returns a Coordinator with no operations in flight.
func NewCoordinator() *Coordinator {
	return &Coordinator{inFlight: make(map[guardKey]bool)}
}

// Request implements the Enter step of §4.F: the gate runs first; if it
// passes, the reentrancy guard for (kind, path) is checked and, if free,
// claimed. accepted=false means the caller should show a toast with reason
// and do nothing else. correlationID identifies this request in the event
// log so its eventual Completion can be joined back to it in the NDJSON
// stream.
func (c *Coordinator) Request(kind OperationKind, path string, gate Gate) (accepted bool, reason string, correlationID string) {
	if gate != nil {
		if ok, why := gate(); !ok {
			return false, why, ""
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	key := guardKey{Kind: kind, Path: path}
	if c.inFlight[key] {
		return false, "already in progress", ""
	}
	c.inFlight[key] = true
	return true, "", uuid.NewString()
}

// InFlight reports whether (kind, path) currently holds its guard.
func (c *Coordinator) InFlight(kind OperationKind, path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight[guardKey{Kind: kind, Path: path}]
}

// Completion is the typed message a dispatched operation resolves to, per
// §4.F's Completion step.
type Completion struct {
	Kind          OperationKind
	Path          string
	Err           error
	Warnings      []string
	CorrelationID string
}

// Succeeded reports whether completion represents success. Warnings never
// void the success path, per §4.F.
func (c Completion) Succeeded() bool {
	return c.Err == nil
}

// ToastText renders the user-visible toast for a completion: the bare past
// tense verb on clean success, the verb suffixed with its warnings when
// there were any (even though the operation still succeeded), or the error
// text on failure.
func ToastText(completion Completion) string {
	verb := pastTense[completion.Kind]
	if completion.Err != nil {
		return fmt.Sprintf("%s failed: %v", verb, completion.Err)
	}
	if len(completion.Warnings) == 0 {
		return verb
	}
	return fmt.Sprintf("%s, warning: %s", verb, strings.Join(completion.Warnings, "; "))
}

// Release clears the reentrancy guard for a completion, per §4.F: "only the
// matching completion clears it."
func (c *Coordinator) Release(completion Completion) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inFlight, guardKey{Kind: completion.Kind, Path: completion.Path})
}

// Reconcile implements the Completion step's workspace reconciliation:
// updates are matched to the current workspace list by path (so list
// reordering between dispatch and completion is safe) rather than index.
// update is applied to the one matching workspace; every other workspace
// passes through unchanged.
func Reconcile(workspaces []workspace.Workspace, path string, update func(workspace.Workspace) workspace.Workspace) []workspace.Workspace {
	result := make([]workspace.Workspace, len(workspaces))
	for i, ws := range workspaces {
		if ws.Path == path {
			result[i] = update(ws)
		} else {
			result[i] = ws
		}
	}
	return result
}

// RunsInline reports whether kind must run synchronously on the update
// thread, per §4.F's Dispatch step: true when the executor lacks
// background-launch support, in which case the caller routes each
// individual command through a Delegating executor instead of spawning an
// off-thread task.
func RunsInline(capabilities executor.Capabilities, kind OperationKind) bool {
	if kind == OpStartAgent || kind == OpStopAgent || kind == OpRestartAgent {
		return !capabilities.SupportsBackgroundLaunch
	}
	return !capabilities.SupportsBackgroundLaunch
}
