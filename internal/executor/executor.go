// Package executor implements the capture task executor, §4.H: the thin
// boundary between the poll scheduler / interactive pipeline and the
// actual multiplexer process.
package executor

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// MissingSessionError reports that the multiplexer has no session or pane
// matching the requested target, recognized by a substring match on the
// captured stderr text. Callers compare with errors.As.
type MissingSessionError struct {
	Target string
}

func (e *MissingSessionError) Error() string {
	return fmt.Sprintf("no such session or pane: %s", e.Target)
}

func asMissingSession(target string, err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		msg += " " + string(exitErr.Stderr)
	}
	if strings.Contains(msg, "can't find pane") ||
		strings.Contains(msg, "no such session") ||
		strings.Contains(msg, "session not found") ||
		strings.Contains(msg, "pane not found") {
		return &MissingSessionError{Target: target}
	}
	return err
}

// CursorMetadata is the compact cursor record captured atomically with a
// pane's output, per §4.H.
type CursorMetadata struct {
	CursorVisible bool
	CursorCol     int
	CursorRow     int
	PaneWidth     int
	PaneHeight    int
}

// Capabilities reports which operations the executor can run off the
// update thread. A false flag means the caller must run the operation
// synchronously, per §4.H.
type Capabilities struct {
	SupportsBackgroundLaunch bool
	SupportsBackgroundPoll   bool
	SupportsBackgroundSend   bool
}

// Executor is the interface (D) and (E) depend on. A tmux-backed
// implementation is provided by TmuxExecutor; tests substitute a fake.
type Executor interface {
	CaptureOutput(ctx context.Context, session string, maxLines int, includeEscapeSequences bool) (string, error)
	CaptureCursorMetadata(ctx context.Context, session string) (CursorMetadata, error)
	ResizeSession(ctx context.Context, session string, width, height int) error
	SendCommand(ctx context.Context, argv []string) error
	ListSessions(ctx context.Context) ([]string, error)
	Capabilities() Capabilities
}

// TmuxExecutor runs every operation by shelling out to the tmux client
// binary.
type TmuxExecutor struct {
	CaptureTimeout time.Duration
}

// NewTmuxExecutor returns a TmuxExecutor with a 2s capture timeout.
func NewTmuxExecutor() *TmuxExecutor {
	return &TmuxExecutor{CaptureTimeout: 2 * time.Second}
}

func (e *TmuxExecutor) Capabilities() Capabilities {
	return Capabilities{
		SupportsBackgroundLaunch: true,
		SupportsBackgroundPoll:   true,
		SupportsBackgroundSend:   true,
	}
}

// CaptureOutput runs tmux capture-pane bounded to maxLines of scrollback.
// includeEscapeSequences maps to tmux's -e flag; -J rewraps long lines so
// the capture reflects pane width rather than tmux's internal wrapping.
func (e *TmuxExecutor) CaptureOutput(ctx context.Context, session string, maxLines int, includeEscapeSequences bool) (string, error) {
	if session == "" {
		return "", errors.New("executor: empty session")
	}
	timeout := e.CaptureTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := []string{"capture-pane", "-p", "-J", "-S", fmt.Sprintf("-%d", maxLines), "-t", session}
	if includeEscapeSequences {
		args = append(args, "-e")
	}
	cmd := exec.CommandContext(ctx, "tmux", args...)
	output, err := cmd.Output()
	if ctx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("capture-pane: timeout after %s", timeout)
	}
	if err != nil {
		return "", asMissingSession(session, fmt.Errorf("capture-pane: %w", err))
	}
	return string(output), nil
}

// CaptureCursorMetadata queries tmux's display-message format string for
// cursor position, pane size and visibility in a single round trip.
func (e *TmuxExecutor) CaptureCursorMetadata(ctx context.Context, session string) (CursorMetadata, error) {
	if session == "" {
		return CursorMetadata{}, errors.New("executor: empty session")
	}
	cmd := exec.CommandContext(ctx, "tmux", "display-message", "-t", session,
		"-p", "#{cursor_flag} #{cursor_x} #{cursor_y} #{pane_width} #{pane_height}")
	output, err := cmd.Output()
	if err != nil {
		return CursorMetadata{}, asMissingSession(session, fmt.Errorf("display-message: %w", err))
	}
	meta, ok := ParseCursorMetadata(string(output))
	if !ok {
		return CursorMetadata{}, fmt.Errorf("display-message: unparseable cursor metadata %q", output)
	}
	return meta, nil
}

// ResizeSession resizes a tmux window to the given dimensions, falling back
// to resize-pane the way resizeTmuxPane does for attached clients that
// reject resize-window.
func (e *TmuxExecutor) ResizeSession(ctx context.Context, session string, width, height int) error {
	if session == "" {
		return errors.New("executor: empty session")
	}
	if width <= 0 && height <= 0 {
		return nil
	}

	args := resizeArgs("resize-window", session, width, height)
	if err := exec.CommandContext(ctx, "tmux", args...).Run(); err == nil {
		return nil
	}

	args = resizeArgs("resize-pane", session, width, height)
	if err := exec.CommandContext(ctx, "tmux", args...).Run(); err != nil {
		return asMissingSession(session, fmt.Errorf("resize: %w", err))
	}
	return nil
}

func resizeArgs(subcommand, target string, width, height int) []string {
	args := []string{subcommand, "-t", target}
	if width > 0 {
		args = append(args, "-x", strconv.Itoa(width))
	}
	if height > 0 {
		args = append(args, "-y", strconv.Itoa(height))
	}
	return args
}

// SendCommand runs an arbitrary tmux invocation, used for send-keys,
// load-buffer/paste-buffer and the other argv commands produced by (E).
func (e *TmuxExecutor) SendCommand(ctx context.Context, argv []string) error {
	if len(argv) == 0 {
		return errors.New("executor: empty argv")
	}
	if err := exec.CommandContext(ctx, argv[0], argv[1:]...).Run(); err != nil {
		target := targetFromArgv(argv)
		return asMissingSession(target, fmt.Errorf("%s: %w", argv[0], err))
	}
	return nil
}

// ListSessions returns every live tmux session name, used by the workspace
// reconciler's refresh pass (§4.I) to find orphaned and reconnectable
// sessions. A freshly booted tmux server that has never held a session
// reports "no server running" on stderr; that is not a real failure, so it
// is folded into an empty result rather than surfaced as an error.
func (e *TmuxExecutor) ListSessions(ctx context.Context) ([]string, error) {
	cmd := exec.CommandContext(ctx, "tmux", "list-sessions", "-F", "#{session_name}")
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && strings.Contains(string(exitErr.Stderr), "no server running") {
			return nil, nil
		}
		return nil, fmt.Errorf("list-sessions: %w", err)
	}
	return strings.Fields(string(output)), nil
}

func targetFromArgv(argv []string) string {
	for i, a := range argv {
		if a == "-t" && i+1 < len(argv) {
			return argv[i+1]
		}
	}
	return ""
}

// ParseCursorMetadata parses the whitespace-separated
// "visible col row width height" tuple, tolerating the several boolean
// spellings tmux/zellij adapters may emit.
func ParseCursorMetadata(raw string) (CursorMetadata, bool) {
	fields := strings.Fields(raw)
	if len(fields) != 5 {
		return CursorMetadata{}, false
	}

	visible, ok := parseCursorFlag(fields[0])
	if !ok {
		return CursorMetadata{}, false
	}
	col, err := strconv.Atoi(fields[1])
	if err != nil {
		return CursorMetadata{}, false
	}
	row, err := strconv.Atoi(fields[2])
	if err != nil {
		return CursorMetadata{}, false
	}
	width, err := strconv.Atoi(fields[3])
	if err != nil {
		return CursorMetadata{}, false
	}
	height, err := strconv.Atoi(fields[4])
	if err != nil {
		return CursorMetadata{}, false
	}

	return CursorMetadata{
		CursorVisible: visible,
		CursorCol:     col,
		CursorRow:     row,
		PaneWidth:     width,
		PaneHeight:    height,
	}, true
}

func parseCursorFlag(s string) (bool, bool) {
	switch strings.TrimSpace(s) {
	case "1", "on", "true":
		return true, true
	case "0", "off", "false":
		return false, true
	default:
		return false, false
	}
}
