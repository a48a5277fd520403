// Package preview implements the preview state: the scroll buffer, scroll
// debounce/burst logic, and cursor-overlay placement for the currently
// selected workspace's live pane, per §3 PreviewState and §4.B.
package preview

import (
	"time"

	"github.com/jordangarrison/grove/internal/capture"
)

const (
	scrollDebounce      = 40 * time.Millisecond
	scrollBurstDebounce = 120 * time.Millisecond
	scrollBurstLimit    = 4
	recentCaptureRing   = 10
	flashLifetime       = 3 * time.Second
)

// CaptureUpdate reports what apply_capture observed, per §4.B.
type CaptureUpdate struct {
	ChangedRaw     bool
	ChangedCleaned bool
}

// State is the live preview buffer for one workspace's selected pane.
type State struct {
	Lines       []string
	RenderLines []string
	Offset      int
	AutoScroll  bool

	burstCount    int
	lastScrollAt  time.Time
	haveLastScroll bool
	lastDigest    *capture.Digest
	recentRaw     []string
}

// New returns a PreviewState following the tail with no content.
func New() *State {
	return &State{AutoScroll: true}
}

// ApplyCapture normalizes raw, updates the digest, and replaces the line
// buffer if (and only if) the cleaned text changed. When auto-scroll is on
// the offset snaps to the tail; otherwise, if the new line count would
// leave offset pointing past the end, it is clamped, per §4.B.
func (s *State) ApplyCapture(raw string) CaptureUpdate {
	change := capture.Evaluate(s.lastDigest, raw)
	digest := change.Digest
	s.lastDigest = &digest

	s.recentRaw = append(s.recentRaw, raw)
	if len(s.recentRaw) > recentCaptureRing {
		s.recentRaw = s.recentRaw[len(s.recentRaw)-recentCaptureRing:]
	}

	if change.ChangedCleaned {
		s.Lines = SplitOutputLines(change.CleanedOutput)
		s.RenderLines = SplitOutputLines(change.RenderOutput)
		if s.AutoScroll {
			s.Offset = 0
		} else if max := lastIndex(len(s.Lines)); s.Offset > max {
			s.Offset = max
		}
	}

	return CaptureUpdate{
		ChangedRaw:     change.ChangedRaw,
		ChangedCleaned: change.ChangedCleaned,
	}
}

func lastIndex(n int) int {
	if n == 0 {
		return 0
	}
	return n - 1
}

// Scroll applies a burst-debounced scroll of delta lines (negative = up,
// positive = down) at time now, returning whether the scroll was accepted.
// It is a no-op if the buffer already fits the viewport.
func (s *State) Scroll(delta int, now time.Time, viewportHeight int) bool {
	if len(s.Lines) <= viewportHeight {
		return false
	}

	if s.haveLastScroll {
		sinceLast := now.Sub(s.lastScrollAt)
		if sinceLast < scrollDebounce {
			s.burstCount++
			burstDebounce := scrollDebounce
			if s.burstCount > scrollBurstLimit {
				burstDebounce = scrollBurstDebounce
			}
			if sinceLast < burstDebounce {
				return false
			}
		} else {
			s.burstCount = 1
		}
	} else {
		s.burstCount = 1
	}

	s.lastScrollAt = now
	s.haveLastScroll = true

	switch {
	case delta < 0:
		s.AutoScroll = false
		s.Offset += -delta
		if max := lastIndex(len(s.Lines)); s.Offset > max {
			s.Offset = max
		}
		return true
	case delta > 0:
		s.Offset -= delta
		if s.Offset < 0 {
			s.Offset = 0
		}
		if s.Offset == 0 {
			s.AutoScroll = true
		}
		return true
	default:
		return false
	}
}

// JumpToBottom resets the offset to the tail and re-enables auto-scroll.
func (s *State) JumpToBottom() {
	s.Offset = 0
	s.AutoScroll = true
}

// VisibleLines returns the window of size min(height, len(Lines)) ending
// at len(Lines)-Offset.
func (s *State) VisibleLines(height int) []string {
	if height == 0 || len(s.Lines) == 0 {
		return nil
	}
	end := len(s.Lines) - s.Offset
	if end < 0 {
		end = 0
	}
	start := end - height
	if start < 0 {
		start = 0
	}
	return s.Lines[start:end]
}

// SplitOutputLines trims a single trailing newline (the multiplexer always
// terminates a capture with one) before splitting, so the split never
// manufactures a spurious empty trailing line.
func SplitOutputLines(output string) []string {
	trimmed := trimTrailingNewline(output)
	if trimmed == "" {
		return nil
	}
	return splitLines(trimmed)
}

func trimTrailingNewline(s string) string {
	if len(s) > 0 && s[len(s)-1] == '\n' {
		return s[:len(s)-1]
	}
	return s
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	lines = append(lines, s[start:])
	return lines
}

// CursorOverlay reports where, within a visible window of pane_height
// lines, the remote cursor should be drawn. It assumes the last
// paneHeight lines of the preview correspond row-for-row to the remote
// pane, per §4.B.
type CursorOverlay struct {
	Visible bool
	Row     int
	Col     int
}

// ComputeCursorOverlay maps a remote cursor position (row within the
// remote pane, 0-indexed from the pane's top) onto the currently visible
// preview window.
func ComputeCursorOverlay(visibleLineCount, paneHeight, cursorRow, cursorCol int, cursorVisible bool) CursorOverlay {
	if !cursorVisible || paneHeight <= 0 || visibleLineCount <= 0 {
		return CursorOverlay{}
	}
	rowFromBottom := paneHeight - 1 - cursorRow
	visibleRow := visibleLineCount - 1 - rowFromBottom
	if visibleRow < 0 || visibleRow >= visibleLineCount {
		return CursorOverlay{}
	}
	return CursorOverlay{Visible: true, Row: visibleRow, Col: cursorCol}
}

// FlashMessage is a toast-adjacent, auto-expiring status line shown over
// the preview pane.
type FlashMessage struct {
	Text      string
	IsError   bool
	ExpiresAt time.Time
}

// NewFlashMessage builds a flash message that expires three seconds from
// now.
func NewFlashMessage(text string, isError bool, now time.Time) FlashMessage {
	return FlashMessage{Text: text, IsError: isError, ExpiresAt: now.Add(flashLifetime)}
}

// FlashExpired reports whether flash has expired by now. Callers hold the
// flash message as a nilable pointer and clear it themselves when this
// returns true, since Go has no Option<T> to clear in place.
func FlashExpired(flash *FlashMessage, now time.Time) bool {
	if flash == nil {
		return false
	}
	return !flash.ExpiresAt.After(now)
}
