package executor

import (
	"errors"
	"testing"
)

func TestParseCursorMetadataAcceptsAllBooleanSpellings(t *testing.T) {
	cases := []string{
		"1 12 4 80 24",
		"on 12 4 80 24",
		"true 12 4 80 24",
	}
	for _, raw := range cases {
		meta, ok := ParseCursorMetadata(raw)
		if !ok {
			t.Fatalf("ParseCursorMetadata(%q) failed to parse", raw)
		}
		if !meta.CursorVisible || meta.CursorCol != 12 || meta.CursorRow != 4 || meta.PaneWidth != 80 || meta.PaneHeight != 24 {
			t.Fatalf("ParseCursorMetadata(%q) = %+v", raw, meta)
		}
	}
}

func TestParseCursorMetadataAcceptsHiddenSpellings(t *testing.T) {
	for _, raw := range []string{"0 0 0 80 24", "off 0 0 80 24", "false 0 0 80 24"} {
		meta, ok := ParseCursorMetadata(raw)
		if !ok || meta.CursorVisible {
			t.Fatalf("ParseCursorMetadata(%q) = %+v, ok=%v, want visible=false", raw, meta, ok)
		}
	}
}

func TestParseCursorMetadataRejectsWrongFieldCount(t *testing.T) {
	if _, ok := ParseCursorMetadata("1 12 4 80"); ok {
		t.Fatalf("expected failure on short tuple")
	}
	if _, ok := ParseCursorMetadata("1 12 4 80 24 99"); ok {
		t.Fatalf("expected failure on long tuple")
	}
}

func TestAsMissingSessionClassifiesKnownTmuxErrors(t *testing.T) {
	for _, msg := range []string{
		"can't find pane: %1",
		"no such session: grove-ws-feature-x",
		"session not found",
		"pane not found",
	} {
		err := asMissingSession("grove-ws-feature-x", errors.New(msg))
		var missing *MissingSessionError
		if !errors.As(err, &missing) {
			t.Fatalf("asMissingSession(%q) did not classify as MissingSessionError", msg)
		}
	}
}

func TestAsMissingSessionPassesThroughOtherErrors(t *testing.T) {
	err := asMissingSession("grove-ws-feature-x", errors.New("exit status 1"))
	var missing *MissingSessionError
	if errors.As(err, &missing) {
		t.Fatalf("unexpected classification as MissingSessionError")
	}
}

func TestTargetFromArgvFindsDashT(t *testing.T) {
	if got := targetFromArgv([]string{"tmux", "send-keys", "-t", "grove-ws-x", "Enter"}); got != "grove-ws-x" {
		t.Fatalf("targetFromArgv = %q", got)
	}
	if got := targetFromArgv([]string{"tmux", "list-sessions"}); got != "" {
		t.Fatalf("targetFromArgv = %q, want empty", got)
	}
}
