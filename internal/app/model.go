// Package app implements the message loop, §4.G: the single serial
// bubbletea Update function that receives typed messages and produces
// commands, wiring together the capture/preview/status/poll/interactive/
// lifecycle/executor/workspace components into one running program.
package app

import (
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jordangarrison/grove/internal/config"
	"github.com/jordangarrison/grove/internal/eventlog"
	"github.com/jordangarrison/grove/internal/executor"
	"github.com/jordangarrison/grove/internal/interactive"
	"github.com/jordangarrison/grove/internal/keymap"
	"github.com/jordangarrison/grove/internal/lifecycle"
	"github.com/jordangarrison/grove/internal/poll"
	"github.com/jordangarrison/grove/internal/preview"
	"github.com/jordangarrison/grove/internal/workspace"
)

// sessionNamePrefix is the agent-session naming prefix, per §6's session
// naming convention (grove-ws-<sanitized-name> for the agent session;
// grove-sh-/grove-git- cover the shell and git-helper sessions lifecycle
// operations spawn, outside the live-preview core's scope).
const sessionNamePrefix = "grove-ws-"

// maxStatusPollsPerCycle bounds how many non-preview sessions get a status
// refresh each poll cycle, per §4.D step 1.
const maxStatusPollsPerCycle = 8

// Model is the root bubbletea model. All mutable state lives here; the
// components it wires are pure or task-producing and never mutate shared
// state outside the single-threaded Update call, per §5.
type Model struct {
	cfg      config.Config
	logger   *slog.Logger
	exec     executor.Executor
	eventLog eventlog.Logger

	projectPath string

	workspaces    []workspace.Workspace
	selectedIndex int
	previously    []string // session names running as of the previous reconcile

	previews map[string]*preview.State // keyed by workspace path
	flashes  map[string]*preview.FlashMessage

	scheduler    *poll.Scheduler
	sendQueue    *interactive.SendQueue
	pendingInput *interactive.PendingInputTracker

	lifecycle *lifecycle.Coordinator
	keymap    *keymap.Registry

	toasts toastQueue

	width, height   int
	sidebarRatioPct int

	interactiveSession       string // "" when not in interactive mode
	interactiveCursor        cursorState
	bracketedPasteEnabled    bool
	resizeVerify             *interactive.ResizeVerification
	keystrokeDebouncePending bool

	dirWatcher *workspace.Watcher

	ready bool
	quit  bool
}

// New constructs a Model ready to run, given a validated Config and the
// dependency handles the ambient layer (cmd/grove) is responsible for
// constructing: a logger, a capture-task executor, an event logger and the
// absolute path to the project whose worktrees this instance manages.
func New(cfg config.Config, logger *slog.Logger, exec executor.Executor, eventLog eventlog.Logger, projectPath string, sidebarRatioPct int) *Model {
	registry := keymap.NewRegistry()
	keymap.RegisterDefaults(registry)

	return &Model{
		cfg:             cfg,
		logger:          logger,
		exec:            exec,
		eventLog:        eventLog,
		projectPath:     projectPath,
		previews:        make(map[string]*preview.State),
		flashes:         make(map[string]*preview.FlashMessage),
		scheduler:       poll.NewScheduler(),
		sendQueue:       interactive.NewSendQueue(),
		pendingInput:    interactive.NewPendingInputTracker(),
		lifecycle:       lifecycle.NewCoordinator(),
		keymap:          registry,
		sidebarRatioPct: sidebarRatioPct,
	}
}

// Init starts the poll loop, requests the initial terminal size, and, if
// the project root can be watched, starts listening for out-of-band
// worktree directory changes per §4.I. A watcher that fails to start
// (permissions, missing directory) is not fatal: the workspace list is then
// rescanned only at startup, after a lifecycle operation completes, and on
// an explicit refresh.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tea.WindowSize(), m.pollTickCmd(poll.FastCadence)}
	if cmd := m.startRefreshWorkspaces(); cmd != nil {
		cmds = append(cmds, cmd)
	}

	if w, err := workspace.NewWatcher(m.projectPath); err == nil {
		m.dirWatcher = w
		cmds = append(cmds, watchDirCmd(w.Events))
	} else if m.logger != nil {
		m.logger.Debug("workspace dir watcher unavailable", "path", m.projectPath, "err", err)
	}

	return tea.Batch(cmds...)
}

// cursorState is §3 InteractiveState's observed remote cursor row/col/
// visible and observed pane dimensions, populated from the cursor captures
// §4.E runs while interactiveSession is non-empty.
type cursorState struct {
	Row, Col   int
	Visible    bool
	PaneWidth  int
	PaneHeight int
}

// selectedWorkspace returns the workspace currently shown in the live
// preview pane, or nil if the workspace list is empty.
func (m *Model) selectedWorkspace() *workspace.Workspace {
	if m.selectedIndex < 0 || m.selectedIndex >= len(m.workspaces) {
		return nil
	}
	return &m.workspaces[m.selectedIndex]
}

// previewFor returns (creating if necessary) the preview buffer for path.
func (m *Model) previewFor(path string) *preview.State {
	p, ok := m.previews[path]
	if !ok {
		p = preview.New()
		m.previews[path] = p
	}
	return p
}

// visibleSessionNames returns the expected session name for every
// non-main workspace currently in the list, the input poll.SelectTargets
// needs to build the bounded status-poll set.
func (m *Model) visibleSessionNames() []string {
	names := make([]string, 0, len(m.workspaces))
	for _, ws := range m.workspaces {
		if ws.IsMain {
			continue
		}
		names = append(names, workspace.SessionName(sessionNamePrefix, ws.Name))
	}
	return names
}

// mainBranch returns the main workspace's branch, used as the default base
// for a newly created workspace.
func (m *Model) mainBranch() string {
	for _, ws := range m.workspaces {
		if ws.IsMain {
			return ws.Branch
		}
	}
	return "main"
}

func (m *Model) logEvent(now time.Time, event, kind string, data map[string]any) {
	if m.eventLog == nil {
		return
	}
	m.eventLog.Log(eventlog.NewEvent(now, event, kind, data))
}
