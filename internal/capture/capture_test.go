package capture

import "testing"

func TestMouseNoiseIgnored(t *testing.T) {
	first := Evaluate(nil, "hello\x1b[?1000h\x1b[<35;192;47M")
	if !first.ChangedRaw || !first.ChangedCleaned {
		t.Fatalf("first capture should report changed_raw and changed_cleaned")
	}
	if first.CleanedOutput != "hello" {
		t.Fatalf("CleanedOutput = %q, want %q", first.CleanedOutput, "hello")
	}

	second := Evaluate(&first.Digest, "hello\x1b[?1000l")
	if !second.ChangedRaw {
		t.Fatalf("second capture should report changed_raw")
	}
	if second.ChangedCleaned {
		t.Fatalf("second capture should report changed_cleaned=false")
	}
	if second.CleanedOutput != "hello" {
		t.Fatalf("CleanedOutput = %q, want %q", second.CleanedOutput, "hello")
	}
}

func TestPartialMouseFragmentTrimmed(t *testing.T) {
	c := Evaluate(nil, "prompt [<65;103;31")
	if c.CleanedOutput != "prompt " {
		t.Fatalf("CleanedOutput = %q, want %q", c.CleanedOutput, "prompt ")
	}
}

func TestTruncatedPartialMouseFragmentsDoNotReChange(t *testing.T) {
	first := Evaluate(nil, "prompt [<65;103;31")
	second := Evaluate(&first.Digest, "prompt [<65;103;32")
	if second.ChangedCleaned {
		t.Fatalf("second capture should not report changed_cleaned")
	}
	if second.CleanedOutput != "prompt " {
		t.Fatalf("CleanedOutput = %q, want %q", second.CleanedOutput, "prompt ")
	}
}

func TestBracketedContentPreserved(t *testing.T) {
	if got := StripMouseFragments("value[?1002h"); got != "value" {
		t.Fatalf("StripMouseFragments(value[?1002h) = %q, want %q", got, "value")
	}
	if got := StripMouseFragments("keep [test]"); got != "keep [test]" {
		t.Fatalf("StripMouseFragments(keep [test]) = %q, want %q", got, "keep [test]")
	}
}

func TestBoundaryPrefixedPartialSequencesStripped(t *testing.T) {
	if got := StripMouseFragments("prompt M[<64;107;16M"); got != "prompt " {
		t.Fatalf("got %q, want %q", got, "prompt ")
	}
	if got := StripMouseFragments("prompt m[<65;107;14"); got != "prompt " {
		t.Fatalf("got %q, want %q", got, "prompt ")
	}
}

func TestControlBytesScrubbed(t *testing.T) {
	c := Evaluate(nil, "A\x0eB\x0fC\r\n")
	if c.CleanedOutput != "ABC\n" {
		t.Fatalf("CleanedOutput = %q, want %q", c.CleanedOutput, "ABC\n")
	}
	if c.RenderOutput != "ABC\n" {
		t.Fatalf("RenderOutput = %q, want %q", c.RenderOutput, "ABC\n")
	}
}

func TestStripsANSIControlSequences(t *testing.T) {
	raw := "A\x1b[31mB\x1b[39m C\x1b]0;title\x07\n"
	c := Evaluate(nil, raw)
	if c.CleanedOutput != "AB C\n" {
		t.Fatalf("CleanedOutput = %q, want %q", c.CleanedOutput, "AB C\n")
	}
}

func TestFirstCaptureAlwaysChanged(t *testing.T) {
	c := Evaluate(nil, "one")
	if !c.ChangedRaw || !c.ChangedCleaned {
		t.Fatalf("first capture must report both changed flags true")
	}
}

func TestMouseFragmentStrippingIsAFixedPoint(t *testing.T) {
	inputs := []string{
		"hello\x1b[?1000h\x1b[<35;192;47M",
		"prompt M[<64;107;16M",
		"prompt m[<65;107;14",
		"keep [test]",
	}
	for _, in := range inputs {
		once := StripMouseFragments(in)
		twice := StripMouseFragments(once)
		if once != twice {
			t.Fatalf("StripMouseFragments not a fixed point for %q: %q != %q", in, once, twice)
		}
	}
}

func TestApplyCaptureIdempotentOnUnchangedCleaned(t *testing.T) {
	first := Evaluate(nil, "hello\x1b[?1000h\x1b[<35;192;47M")
	second := Evaluate(&first.Digest, "hello\x1b[?1000l")
	if second.ChangedCleaned {
		t.Fatalf("expected changed_cleaned=false")
	}
	if second.CleanedOutput != first.CleanedOutput {
		t.Fatalf("cleaned output should be bitwise equal when changed_cleaned=false")
	}
}
