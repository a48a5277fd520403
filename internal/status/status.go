// Package status implements the status classifier: mapping a workspace's
// cleaned capture to a WorkspaceStatus using agent-specific text
// signatures, per §4.C. It is pure and I/O-free, built as the
// signature-table shape §9's open question calls for ("audit the running
// agents' actual prompts").
package status

import (
	"strings"
	"unicode/utf8"

	"github.com/jordangarrison/grove/internal/workspace"
)

// checkTailBytes bounds how much of the capture's tail is scanned for
// signatures, avoiding a full-string scan on large scrollback captures.
const checkTailBytes = 4096

// Signatures is the set of text patterns, matched against the cleaned
// capture's lowercased tail, that drive classification for one agent
// kind. Matching is substring-based and case-insensitive.
type Signatures struct {
	Waiting []string
	Done    []string
	Error   []string
}

// ClaudeSignatures are the prompts and banners Claude Code emits.
var ClaudeSignatures = Signatures{
	Waiting: []string{
		"[y/n]", "(y/n)", "allow edit", "allow bash", "waiting for",
		"press enter", "continue?", "approve", "confirm", "do you want",
		"❯", "╰─❯",
	},
	Done: []string{
		"task completed", "all done", "finished", "exited with code 0", "goodbye",
	},
	Error: []string{
		"error:", "failed", "exited with code 1", "panic:", "exception:", "traceback",
	},
}

// CodexSignatures are Codex's equivalent prompts; Codex's CLI mirrors most
// of Claude Code's prompt language but never emits the "❯" continuation
// glyph, so that entry is dropped rather than guessed.
var CodexSignatures = Signatures{
	Waiting: []string{
		"[y/n]", "(y/n)", "allow edit", "allow command", "press enter",
		"continue?", "approve", "confirm", "do you want",
	},
	Done:  ClaudeSignatures.Done,
	Error: ClaudeSignatures.Error,
}

// SignaturesFor returns the signature table for agent, falling back to the
// Claude table for unrecognized kinds.
func SignaturesFor(agent workspace.AgentType) Signatures {
	switch agent {
	case workspace.AgentCodex:
		return CodexSignatures
	default:
		return ClaudeSignatures
	}
}

// Detect implements detect_status from §4.C: cleanedCapture is the
// workspace's latest cleaned capture text; sessionActive reports whether
// a live multiplexer session currently backs the workspace.
func Detect(cleanedCapture string, sessionActive, isMain, supportedAgent bool, agent workspace.AgentType) workspace.Status {
	if !supportedAgent {
		return workspace.StatusUnsupported
	}
	if isMain && !sessionActive {
		return workspace.StatusMain
	}

	sig := SignaturesFor(agent)
	tail := tailUTF8Safe(cleanedCapture, checkTailBytes)
	tailLower := strings.ToLower(tail)
	lastLinesLower := strings.ToLower(lastNLines(tail, 5))

	for _, pattern := range sig.Waiting {
		if strings.Contains(lastLinesLower, pattern) {
			return workspace.StatusWaiting
		}
	}
	if strings.Contains(tailLower, "thinking...") || strings.Contains(tailLower, "reasoning about") {
		return workspace.StatusThinking
	}
	for _, pattern := range sig.Done {
		if strings.Contains(tailLower, pattern) {
			return workspace.StatusDone
		}
	}
	for _, pattern := range sig.Error {
		if strings.Contains(tailLower, pattern) {
			return workspace.StatusError
		}
	}

	if sessionActive {
		return workspace.StatusActive
	}
	if isMain {
		return workspace.StatusMain
	}
	return workspace.StatusIdle
}

// tailUTF8Safe returns the last n bytes of s, advancing to the next valid
// UTF-8 rune boundary so multi-byte runes are never split.
func tailUTF8Safe(s string, n int) string {
	if len(s) <= n {
		return s
	}
	start := len(s) - n
	for i := 0; i < 3 && start < len(s); i++ {
		if utf8.RuneStart(s[start]) {
			break
		}
		start++
	}
	return s[start:]
}

// lastNLines returns the last n non-empty-terminated lines of text,
// restricting waiting-prompt matching to what is currently on screen
// rather than scrollback history.
func lastNLines(text string, n int) string {
	end := len(text)
	for end > 0 && (text[end-1] == '\n' || text[end-1] == '\r' || text[end-1] == ' ') {
		end--
	}
	if end == 0 {
		return ""
	}

	linesFound := 0
	pos := end
	for pos > 0 && linesFound < n {
		pos--
		if text[pos] == '\n' {
			linesFound++
		}
	}
	if pos > 0 || (pos == 0 && len(text) > 0 && text[0] == '\n') {
		pos++
	}
	return text[pos:end]
}
