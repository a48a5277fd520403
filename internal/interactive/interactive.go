// Package interactive implements the interactive input pipeline, §4.E: the
// key-to-send translation, the ordered at-most-one-in-flight send queue, and
// the pending-echo tracker. It is deliberately decoupled from any TUI
// framework's key type; callers translate their own key events (a
// bubbletea tea.KeyMsg, say) into a Key value, and this package's Key
// abstraction is itself multiplexer-agnostic so either a tmux or zellij
// adapter can consume it.
package interactive

import (
	"regexp"
	"strings"
	"sync"
	"time"
)

// Kind enumerates the InteractiveKey variants named in §4.E.
type Kind int

const (
	KeyUnmapped Kind = iota
	KeyEnter
	KeyModifiedEnter
	KeyTab
	KeyBackTab
	KeyBackspace
	KeyDelete
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyEscape
	KeyFunction
	KeyCtrl
	KeyAlt
	KeyChar
	KeyCtrlBackslash
	KeyAltC
	KeyAltV
)

// Key is the InteractiveKey abstraction step 3 of §4.E derives every
// keystroke into, before an Action is derived from it.
type Key struct {
	Kind Kind
	Rune rune // set for KeyCtrl, KeyAlt, KeyChar
	N    int  // function key number, set for KeyFunction
}

// ActionKind enumerates the InteractiveAction variants of §4.E step 4.
type ActionKind int

const (
	ActionNoop ActionKind = iota
	ActionExitInteractive
	ActionCopySelection
	ActionPasteClipboard
	ActionSendNamed
	ActionSendLiteral
)

// Action is what a Key is turned into before being queued as a send.
type Action struct {
	Kind    ActionKind
	Name    string // for ActionSendNamed: the multiplexer's key name, e.g. "Enter"
	Literal string // for ActionSendLiteral: the literal text to send
}

// DeriveAction implements §4.E step 4: mapping a Key to the action it
// produces. Ctrl-\ is the only exit; Escape is sent to the pane like any
// other named key, and everything else that isn't a printable key maps to
// a named send.
func DeriveAction(k Key) Action {
	switch k.Kind {
	case KeyCtrlBackslash:
		return Action{Kind: ActionExitInteractive}
	case KeyAltC:
		return Action{Kind: ActionCopySelection}
	case KeyAltV:
		return Action{Kind: ActionPasteClipboard}
	case KeyChar:
		return Action{Kind: ActionSendLiteral, Literal: string(k.Rune)}
	case KeyCtrl:
		return Action{Kind: ActionSendNamed, Name: "C-" + string(k.Rune)}
	case KeyAlt:
		return Action{Kind: ActionSendLiteral, Literal: "\x1b" + string(k.Rune)}
	case KeyFunction:
		return Action{Kind: ActionSendNamed, Name: functionKeyName(k.N)}
	case KeyUnmapped:
		return Action{Kind: ActionNoop}
	default:
		if name, ok := namedKeys[k.Kind]; ok {
			return Action{Kind: ActionSendNamed, Name: name}
		}
		return Action{Kind: ActionNoop}
	}
}

var namedKeys = map[Kind]string{
	KeyEnter:         "Enter",
	KeyModifiedEnter: "Enter",
	KeyTab:           "Tab",
	KeyBackTab:       "\x1b[Z",
	KeyBackspace:     "BSpace",
	KeyDelete:        "DC",
	KeyUp:            "Up",
	KeyDown:          "Down",
	KeyLeft:          "Left",
	KeyRight:         "Right",
	KeyHome:          "Home",
	KeyEnd:           "End",
	KeyPageUp:        "PPage",
	KeyPageDown:      "NPage",
	KeyEscape:        "Escape",
}

func functionKeyName(n int) string {
	switch n {
	case 1, 2, 3, 4, 5, 6, 7, 8, 9:
		return "F" + string(rune('0'+n))
	case 10, 11, 12:
		return "F1" + string(rune('0'+n-10))
	default:
		return ""
	}
}

// mouseFragmentPattern matches an SGR mouse report that lost its ESC prefix
// to split-read timing: the terminal delivered ESC as its own event and the
// rest of the sequence as a run of printable runes immediately after.
var mouseFragmentPattern = regexp.MustCompile(`^\[<\d+;\d+;\d+[Mm]$`)

// LooksLikeMouseFragment reports whether text is a bare (ESC-stripped) SGR
// mouse report, the case §4.E step 2 says to drop rather than forward.
func LooksLikeMouseFragment(text string) bool {
	return len(text) > 5 && mouseFragmentPattern.MatchString(text)
}

// QueuedSend is a send produced by step 5 of §4.E, carrying enough trace
// context to correlate it with the pending-echo tracker.
type QueuedSend struct {
	Seq          int64
	Session      string
	Command      []string
	ActionKind   ActionKind
	ReceivedAt   time.Time
	LiteralChars string
}

// SendQueue enforces §4.E's at-most-one-outstanding-send-per-session
// contract: sends for a session are delivered in FIFO order, one at a time.
type SendQueue struct {
	mu       sync.Mutex
	pending  map[string][]QueuedSend
	inFlight map[string]bool
}

// NewSendQueue returns an empty SendQueue.
func NewSendQueue() *SendQueue {
	return &SendQueue{
		pending:  make(map[string][]QueuedSend),
		inFlight: make(map[string]bool),
	}
}

// Enqueue appends send to its session's FIFO queue.
func (q *SendQueue) Enqueue(send QueuedSend) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending[send.Session] = append(q.pending[send.Session], send)
}

// DispatchNext returns the next send to issue for session, if none is
// currently outstanding. Returns ok=false when a send is already in flight
// or the queue for that session is empty.
func (q *SendQueue) DispatchNext(session string) (QueuedSend, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.inFlight[session] {
		return QueuedSend{}, false
	}
	queue := q.pending[session]
	if len(queue) == 0 {
		return QueuedSend{}, false
	}
	next := queue[0]
	q.pending[session] = queue[1:]
	q.inFlight[session] = true
	return next, true
}

// Complete marks session's outstanding send as finished and, if another
// send is queued, immediately dispatches it.
func (q *SendQueue) Complete(session string) (QueuedSend, bool) {
	q.mu.Lock()
	q.inFlight[session] = false
	queue := q.pending[session]
	if len(queue) == 0 {
		q.mu.Unlock()
		return QueuedSend{}, false
	}
	next := queue[0]
	q.pending[session] = queue[1:]
	q.inFlight[session] = true
	q.mu.Unlock()
	return next, true
}

// Depth reports how many sends are queued for session, not counting one in
// flight.
func (q *SendQueue) Depth(session string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending[session])
}

// PendingInput is a forwarded keystroke awaiting echo confirmation, per
// §4.E step 6.
type PendingInput struct {
	Seq          int64
	Session      string
	ReceivedAt   time.Time
	ForwardedAt  time.Time
	LiteralChars string
}

// pendingInputCapacity bounds the tracker per §4.E: "at most 256 entries".
const pendingInputCapacity = 256

// PendingInputTracker is the ring buffer of in-flight keystrokes described
// in §4.E step 6: entries retire when their characters are observed echoed
// in a later poll, and age (without being removed) otherwise.
type PendingInputTracker struct {
	mu      sync.Mutex
	entries []PendingInput
}

// NewPendingInputTracker returns an empty tracker.
func NewPendingInputTracker() *PendingInputTracker {
	return &PendingInputTracker{}
}

// Record appends p, evicting the oldest entry first if the tracker is at
// capacity.
func (t *PendingInputTracker) Record(p PendingInput) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.entries) >= pendingInputCapacity {
		t.entries = t.entries[1:]
	}
	t.entries = append(t.entries, p)
}

// RetireEchoed removes, oldest first, every pending entry for session whose
// literal characters appear in capturedText, and reports how many retired.
// Entries that don't match age in place rather than being dropped.
func (t *PendingInputTracker) RetireEchoed(session, capturedText string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	remaining := t.entries[:0]
	retired := 0
	for _, e := range t.entries {
		if e.Session == session && e.LiteralChars != "" && containsSubstring(capturedText, e.LiteralChars) {
			retired++
			continue
		}
		remaining = append(remaining, e)
	}
	t.entries = remaining
	return retired
}

func containsSubstring(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	return indexOf(haystack, needle) >= 0
}

func indexOf(haystack, needle string) int {
	n, m := len(haystack), len(needle)
	if m == 0 || m > n {
		return -1
	}
	for i := 0; i+m <= n; i++ {
		if haystack[i:i+m] == needle {
			return i
		}
	}
	return -1
}

// Len reports the number of tracked entries.
func (t *PendingInputTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Bracketed paste framing controls, per §4.E.
const (
	BracketedPasteStart = "\x1b[200~"
	BracketedPasteEnd   = "\x1b[201~"
)

// FrameBracketedPaste wraps text between the session's bracketed-paste
// start/end controls, so the remote side treats it as one atomic paste.
func FrameBracketedPaste(text string) string {
	return BracketedPasteStart + text + BracketedPasteEnd
}

// bracketedPasteEnable/Disable are the mode-toggle escape sequences a
// program sends to turn bracketed paste on or off, distinct from
// BracketedPasteStart/End which wrap the pasted payload itself.
const (
	bracketedPasteEnable  = "\x1b[?2004h"
	bracketedPasteDisable = "\x1b[?2004l"
)

// DetectBracketedPasteMode reports whether the most recent toggle found in
// capturedText enabled (rather than disabled) bracketed paste mode, the
// InteractiveState flag of §3 that decides whether a forwarded paste
// should be framed for the remote program.
func DetectBracketedPasteMode(capturedText string) bool {
	enableIdx := strings.LastIndex(capturedText, bracketedPasteEnable)
	disableIdx := strings.LastIndex(capturedText, bracketedPasteDisable)
	return enableIdx > disableIdx
}

// ResizeVerification tracks the one-retry resize-verify loop of §4.E: after
// requesting a resize, the next cursor capture's reported dimensions are
// compared against what was requested.
type ResizeVerification struct {
	ExpectedWidth  int
	ExpectedHeight int
	retriesLeft    int
}

// NewResizeVerification starts a verification for a resize request to
// width x height, allowing exactly one retry.
func NewResizeVerification(width, height int) *ResizeVerification {
	return &ResizeVerification{ExpectedWidth: width, ExpectedHeight: height, retriesLeft: 1}
}

// Observe reports the outcome of comparing a capture's actual dimensions
// against what was requested: matched, whether a retry should be issued,
// and whether verification has given up (logged as a failure by the
// caller).
func (r *ResizeVerification) Observe(actualWidth, actualHeight int) (matched, shouldRetry, failed bool) {
	if actualWidth == r.ExpectedWidth && actualHeight == r.ExpectedHeight {
		return true, false, false
	}
	if r.retriesLeft > 0 {
		r.retriesLeft--
		return false, true, false
	}
	return false, false, true
}
