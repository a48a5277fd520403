// Package capture implements the capture normalizer: it takes a raw
// multiplexer pane capture and produces cleaned and styled text plus a
// content-addressed digest cheap enough to compare on every poll tick.
//
// The stripping pipeline runs fast-path Contains guards before the
// mouse-escape and terminal-mode regexes, and also catches the
// boundary-truncated forms a pane capture can produce when a multiplexer
// read splits an escape sequence across two reads.
package capture

import (
	"regexp"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// mouseFragmentRegex matches SGR mouse reports and terminal mode toggles,
// in both their well-formed (ESC-prefixed) and boundary-truncated forms. A
// lone "M"/"m" immediately before a truncated "[<" fragment is the orphaned
// terminator byte of a sequence whose ESC was already consumed by a prior
// read; it is stripped along with the fragment it prefixes.
var mouseFragmentRegex = regexp.MustCompile(
	`(?:\x1b?\[\?(?:1000|1002|1003|1005|1006|1015|2004)[hl])` +
		`|(?:\x1b?[Mm]?\[<\d+;\d+;\d+[Mm]?)`,
)

// csiOrOSCRegex matches well-formed CSI and OSC escape sequences for the
// cleaned-output path, which discards all styling.
var csiOrOSCRegex = regexp.MustCompile(
	`\x1b\[[\x30-\x3f]*[\x20-\x2f]*[\x40-\x7e]` +
		`|\x1b\][^\x07\x1b]*(?:\x07|\x1b\\)`,
)

const controlBytes = "\x0e\x0f\r"

// StripMouseFragments removes mouse-report and terminal-mode-toggle noise,
// complete or boundary-truncated, while leaving ordinary bracketed text
// (e.g. "[test]") untouched.
func StripMouseFragments(s string) string {
	if !strings.Contains(s, "[<") && !strings.Contains(s, "[?") {
		return s
	}
	return mouseFragmentRegex.ReplaceAllString(s, "")
}

// stripControlBytes removes SO, SI and CR. Other C0 controls embedded in
// escape sequences are left for the escape-sequence strippers to consume.
func stripControlBytes(s string) string {
	if !strings.ContainsAny(s, controlBytes) {
		return s
	}
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(controlBytes, r) {
			return -1
		}
		return r
	}, s)
}

// CleanedOutput strips mouse fragments, all escape sequences, and control
// bytes, producing the plain text the scroll buffer stores.
func CleanedOutput(raw string) string {
	s := raw
	if strings.Contains(s, "\x1b") {
		s = csiOrOSCRegex.ReplaceAllString(s, "")
	}
	s = StripMouseFragments(s)
	s = stripControlBytes(s)
	return s
}

// RenderOutput strips mouse fragments and control bytes but preserves SGR
// and OSC escape sequences, producing the text a styled renderer consumes.
func RenderOutput(raw string) string {
	s := StripMouseFragments(raw)
	s = stripControlBytes(s)
	return s
}

// Digest is a content-addressed fingerprint of a capture, split into raw
// and cleaned components, per §3 OutputDigest.
type Digest struct {
	RawLen    int
	RawHash   uint64
	CleanHash uint64
}

func hashString(s string) uint64 {
	return xxhash.Sum64String(s)
}

// Change is the outcome of comparing a new raw capture against the
// previous digest for a (workspace, capture-kind) pair, per §3
// CaptureChange.
type Change struct {
	ChangedRaw     bool
	ChangedCleaned bool
	Digest         Digest
	CleanedOutput  string
	RenderOutput   string
}

// Evaluate computes the CaptureChange for raw against prev, the digest
// recorded from the previous capture of the same (workspace, capture-kind).
// A nil prev is always changed_raw and changed_cleaned, matching the first
// capture rule in §4.A.
func Evaluate(prev *Digest, raw string) Change {
	rawHash := hashString(raw)
	cleaned := CleanedOutput(raw)
	cleanHash := hashString(cleaned)

	changedRaw := prev == nil || prev.RawHash != rawHash || prev.RawLen != len(raw)
	changedCleaned := prev == nil || prev.CleanHash != cleanHash

	return Change{
		ChangedRaw:     changedRaw,
		ChangedCleaned: changedCleaned,
		Digest: Digest{
			RawLen:    len(raw),
			RawHash:   rawHash,
			CleanHash: cleanHash,
		},
		CleanedOutput: cleaned,
		RenderOutput:  RenderOutput(raw),
	}
}
