package interactive

import "testing"

func TestDeriveActionExitAndClipboard(t *testing.T) {
	if a := DeriveAction(Key{Kind: KeyCtrlBackslash}); a.Kind != ActionExitInteractive {
		t.Fatalf("Ctrl-\\ => %v, want ActionExitInteractive", a.Kind)
	}
	if a := DeriveAction(Key{Kind: KeyAltC}); a.Kind != ActionCopySelection {
		t.Fatalf("AltC => %v, want ActionCopySelection", a.Kind)
	}
	if a := DeriveAction(Key{Kind: KeyAltV}); a.Kind != ActionPasteClipboard {
		t.Fatalf("AltV => %v, want ActionPasteClipboard", a.Kind)
	}
}

func TestDeriveActionNamedAndLiteral(t *testing.T) {
	if a := DeriveAction(Key{Kind: KeyEnter}); a.Kind != ActionSendNamed || a.Name != "Enter" {
		t.Fatalf("Enter => %+v", a)
	}
	if a := DeriveAction(Key{Kind: KeyChar, Rune: 'x'}); a.Kind != ActionSendLiteral || a.Literal != "x" {
		t.Fatalf("Char(x) => %+v", a)
	}
	if a := DeriveAction(Key{Kind: KeyCtrl, Rune: 'a'}); a.Kind != ActionSendNamed || a.Name != "C-a" {
		t.Fatalf("Ctrl(a) => %+v", a)
	}
	if a := DeriveAction(Key{Kind: KeyUnmapped}); a.Kind != ActionNoop {
		t.Fatalf("Unmapped => %+v, want Noop", a)
	}
}

func TestLooksLikeMouseFragment(t *testing.T) {
	if !LooksLikeMouseFragment("[<35;192;47M") {
		t.Fatalf("expected fragment match")
	}
	if LooksLikeMouseFragment("[abc]") {
		t.Fatalf("unexpected fragment match on ordinary brackets")
	}
	if LooksLikeMouseFragment("ab") {
		t.Fatalf("short text should never match")
	}
}

func TestSendQueueFIFOAtMostOneInFlight(t *testing.T) {
	q := NewSendQueue()
	q.Enqueue(QueuedSend{Seq: 1, Session: "s", Command: []string{"a"}})
	q.Enqueue(QueuedSend{Seq: 2, Session: "s", Command: []string{"b"}})

	first, ok := q.DispatchNext("s")
	if !ok || first.Seq != 1 {
		t.Fatalf("DispatchNext #1 = %+v, ok=%v", first, ok)
	}

	if _, ok := q.DispatchNext("s"); ok {
		t.Fatalf("expected no dispatch while one is in flight")
	}

	second, ok := q.Complete("s")
	if !ok || second.Seq != 2 {
		t.Fatalf("Complete = %+v, ok=%v, want seq 2", second, ok)
	}

	if _, ok := q.Complete("s"); ok {
		t.Fatalf("expected no further sends once queue drains")
	}
}

func TestSendQueueSessionsAreIndependent(t *testing.T) {
	q := NewSendQueue()
	q.Enqueue(QueuedSend{Seq: 1, Session: "a"})
	q.Enqueue(QueuedSend{Seq: 2, Session: "b"})

	if _, ok := q.DispatchNext("a"); !ok {
		t.Fatalf("expected dispatch on session a")
	}
	if _, ok := q.DispatchNext("b"); !ok {
		t.Fatalf("session b should not be blocked by session a's in-flight send")
	}
}

func TestPendingInputTrackerRetiresOnEcho(t *testing.T) {
	tr := NewPendingInputTracker()
	tr.Record(PendingInput{Seq: 1, Session: "s", LiteralChars: "hello"})
	tr.Record(PendingInput{Seq: 2, Session: "s", LiteralChars: "world"})

	retired := tr.RetireEchoed("s", "prompt> hello")
	if retired != 1 {
		t.Fatalf("retired = %d, want 1", retired)
	}
	if tr.Len() != 1 {
		t.Fatalf("Len = %d, want 1 (world still pending)", tr.Len())
	}
}

func TestPendingInputTrackerEvictsOldestAtCapacity(t *testing.T) {
	tr := NewPendingInputTracker()
	for i := 0; i < pendingInputCapacity+10; i++ {
		tr.Record(PendingInput{Seq: int64(i), Session: "s", LiteralChars: "x"})
	}
	if tr.Len() != pendingInputCapacity {
		t.Fatalf("Len = %d, want %d", tr.Len(), pendingInputCapacity)
	}
}

func TestResizeVerificationRetriesOnceThenFails(t *testing.T) {
	r := NewResizeVerification(80, 24)

	matched, retry, failed := r.Observe(80, 24)
	if !matched || retry || failed {
		t.Fatalf("first observe at correct size: matched=%v retry=%v failed=%v", matched, retry, failed)
	}

	r = NewResizeVerification(80, 24)
	matched, retry, failed = r.Observe(79, 24)
	if matched || !retry || failed {
		t.Fatalf("first mismatch should retry: matched=%v retry=%v failed=%v", matched, retry, failed)
	}

	matched, retry, failed = r.Observe(79, 24)
	if matched || retry || !failed {
		t.Fatalf("second mismatch should fail: matched=%v retry=%v failed=%v", matched, retry, failed)
	}
}

func TestFrameBracketedPaste(t *testing.T) {
	got := FrameBracketedPaste("hello")
	want := BracketedPasteStart + "hello" + BracketedPasteEnd
	if got != want {
		t.Fatalf("FrameBracketedPaste = %q, want %q", got, want)
	}
}

func TestDetectBracketedPasteModeTracksMostRecentToggle(t *testing.T) {
	if DetectBracketedPasteMode("plain output") {
		t.Fatalf("expected false with no toggle present")
	}
	if !DetectBracketedPasteMode("before\x1b[?2004hafter") {
		t.Fatalf("expected true once enabled")
	}
	if DetectBracketedPasteMode("\x1b[?2004hon\x1b[?2004loff") {
		t.Fatalf("expected false once the most recent toggle disables it")
	}
}
