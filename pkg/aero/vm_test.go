package aero

import (
	"testing"
	"unicode/utf16"
)

func mustCompile(t *testing.T, pattern string, flags Flags) *Regexp {
	t.Helper()
	re, err := Compile(pattern, flags)
	if err != nil {
		t.Fatalf("Compile(%q): unexpected error: %v", pattern, err)
	}
	return re
}

func units(s string) []uint16 { return utf16.Encode([]rune(s)) }

func TestMatchLiteral(t *testing.T) {
	re := mustCompile(t, "abc", 0)
	ok, groups := re.Match(units("xabcx"), 1)
	if !ok || groups[0] != [2]int{1, 4} {
		t.Fatalf("got ok=%v groups=%v, want match [1,4)", ok, groups)
	}
	if ok, _ := re.Match(units("xabcx"), 0); ok {
		t.Fatalf("matched at wrong position")
	}
}

func TestMatchAlternation(t *testing.T) {
	re := mustCompile(t, "cat|dog", 0)
	ok, _, next := re.Exec(units("a dog ran"), 0)
	if !ok {
		t.Fatalf("expected match")
	}
	if got := string(utf16.Decode(units("a dog ran")[next-3 : next])); got != "dog" {
		t.Fatalf("got %q, want dog", got)
	}
}

func TestMatchGreedyVsLazyStar(t *testing.T) {
	greedy := mustCompile(t, "a.*b", 0)
	ok, groups := greedy.Match(units("axxbxxb"), 0)
	if !ok || groups[0][1] != 7 {
		t.Fatalf("greedy: got %v, want end 7", groups)
	}
	lazy := mustCompile(t, "a.*?b", 0)
	ok, groups = lazy.Match(units("axxbxxb"), 0)
	if !ok || groups[0][1] != 4 {
		t.Fatalf("lazy: got %v, want end 4", groups)
	}
}

func TestMatchIgnoreCase(t *testing.T) {
	re := mustCompile(t, "ABC", IgnoreCase)
	if ok, _ := re.Match(units("abc"), 0); !ok {
		t.Fatalf("expected case-insensitive match")
	}
}

func TestMatchCharacterClassAndInvert(t *testing.T) {
	re := mustCompile(t, "[^0-9]+", 0)
	ok, groups := re.Match(units("abc123"), 0)
	if !ok || groups[0] != [2]int{0, 3} {
		t.Fatalf("got %v, want [0,3)", groups)
	}
}

func TestMatchBackReferenceUnparticipatingGroupIsEmpty(t *testing.T) {
	re := mustCompile(t, `(a)?\1b`, 0)
	ok, groups := re.Match(units("b"), 0)
	if !ok || groups[0] != [2]int{0, 1} {
		t.Fatalf("got ok=%v groups=%v, want match [0,1)", ok, groups)
	}
}

func TestMatchUnboundedLoopTerminatesOnEmptyBody(t *testing.T) {
	re := mustCompile(t, "(a?)*b", 0)
	ok, groups := re.Match(units("aaab"), 0)
	if !ok || groups[0] != [2]int{0, 4} {
		t.Fatalf("got ok=%v groups=%v, want match [0,4)", ok, groups)
	}
}

// S3 from SPEC_FULL.md §8: "Java123".replace(/(\w+?)(\d+)/, "$2-$1") ->
// "123-Java". Exercised here at the Exec/capture level; the actual
// $n-substitution lives in pkg/runtime's String.prototype.replace.
func TestScenarioS3CapturesForBackReferenceReplace(t *testing.T) {
	re := mustCompile(t, `(\w+?)(\d+)`, 0)
	ok, groups, _ := re.Exec(units("Java123"), 0)
	if !ok {
		t.Fatalf("expected match")
	}
	input := units("Java123")
	g1 := string(utf16.Decode(input[groups[1][0]:groups[1][1]]))
	g2 := string(utf16.Decode(input[groups[2][0]:groups[2][1]]))
	if g1 != "Java" || g2 != "123" {
		t.Fatalf("got g1=%q g2=%q, want g1=Java g2=123", g1, g2)
	}
}

// S4 from SPEC_FULL.md §8: non-capturing vs capturing group repetition.
func TestScenarioS4NonCapturingVsCapturingGroup(t *testing.T) {
	nonCapturing := mustCompile(t, "(?:ab)+", 0)
	ok, groups := nonCapturing.Match(units("ababab"), 0)
	if !ok || groups[0] != [2]int{0, 6} {
		t.Fatalf("(?:ab)+: got %v, want whole match [0,6)", groups)
	}
	if len(groups) != 1 {
		t.Fatalf("(?:ab)+: got %d groups, want 1 (no captures)", len(groups)-1)
	}

	capturing := mustCompile(t, "(ab)+", 0)
	ok, groups = capturing.Match(units("ababab"), 0)
	if !ok || groups[0] != [2]int{0, 6} {
		t.Fatalf("(ab)+: got %v, want whole match [0,6)", groups)
	}
	g1 := string(utf16.Decode(units("ababab")[groups[1][0]:groups[1][1]]))
	if g1 != "ab" {
		t.Fatalf("(ab)+: got capture 1 = %q, want \"ab\" (last iteration)", g1)
	}
}

func TestMatchWordBoundary(t *testing.T) {
	re := mustCompile(t, `\bcat\b`, 0)
	if ok, _ := re.Match(units("a cat sat"), 2); !ok {
		t.Fatalf("expected word-boundary match")
	}
	if ok, _ := re.Match(units("concatenate"), 3); ok {
		t.Fatalf("matched inside a word")
	}
}

func TestMatchPositiveAndNegativeLookahead(t *testing.T) {
	pos := mustCompile(t, "a(?=b)", 0)
	if ok, _ := pos.Match(units("ab"), 0); !ok {
		t.Fatalf("expected positive lookahead match")
	}
	if ok, _ := pos.Match(units("ac"), 0); ok {
		t.Fatalf("positive lookahead matched without b following")
	}
	neg := mustCompile(t, "a(?!b)", 0)
	if ok, _ := neg.Match(units("ac"), 0); !ok {
		t.Fatalf("expected negative lookahead match")
	}
	if ok, _ := neg.Match(units("ab"), 0); ok {
		t.Fatalf("negative lookahead matched with b following")
	}
}

func TestMatchAnchors(t *testing.T) {
	re := mustCompile(t, "^abc$", 0)
	if ok, _ := re.Match(units("abc"), 0); !ok {
		t.Fatalf("expected anchored match")
	}
	if ok, _ := re.Match(units("xabc"), 1); ok {
		t.Fatalf("matched despite ^ not at input start (no multiline)")
	}
}
