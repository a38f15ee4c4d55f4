package aero

import (
	"testing"
	"unicode/utf16"
)

func mustParse(t *testing.T, pattern string, flags Flags) (*Disjunction, *Parser) {
	t.Helper()
	p := NewParser(utf16.Encode([]rune(pattern)), flags)
	dis, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse(%q): unexpected error: %v", pattern, err)
	}
	return dis, p
}

func TestParseLiteralAlternative(t *testing.T) {
	dis, _ := mustParse(t, "abc", 0)
	if len(dis.Alternatives) != 1 {
		t.Fatalf("got %d alternatives, want 1", len(dis.Alternatives))
	}
	terms := dis.Alternatives[0].Terms
	if len(terms) != 3 {
		t.Fatalf("got %d terms, want 3", len(terms))
	}
	for i, want := range []uint16{'a', 'b', 'c'} {
		ca, ok := terms[i].(*CharacterAtom)
		if !ok || ca.Char != want {
			t.Fatalf("term %d = %#v, want CharacterAtom(%q)", i, terms[i], want)
		}
	}
}

func TestParseDisjunctionSplitsOnPipe(t *testing.T) {
	dis, _ := mustParse(t, "a|bc", 0)
	if len(dis.Alternatives) != 2 {
		t.Fatalf("got %d alternatives, want 2", len(dis.Alternatives))
	}
}

func TestParseCapturingGroupAssignsIndexLeftToRight(t *testing.T) {
	dis, p := mustParse(t, "(a)(b(c))", 0)
	if p.CaptureCount() != 3 {
		t.Fatalf("got %d captures, want 3", p.CaptureCount())
	}
	first := dis.Alternatives[0].Terms[0].(*DisjunctionAtom)
	if !first.Capturing || first.Index != 1 {
		t.Fatalf("first group = %#v, want capturing index 1", first)
	}
	second := dis.Alternatives[0].Terms[1].(*DisjunctionAtom)
	if !second.Capturing || second.Index != 2 {
		t.Fatalf("second group = %#v, want capturing index 2", second)
	}
	inner := second.Body.Alternatives[0].Terms[1].(*DisjunctionAtom)
	if !inner.Capturing || inner.Index != 3 {
		t.Fatalf("inner group = %#v, want capturing index 3", inner)
	}
}

func TestParseNonCapturingGroupHasNoIndex(t *testing.T) {
	dis, p := mustParse(t, "(?:ab)", 0)
	if p.CaptureCount() != 0 {
		t.Fatalf("got %d captures, want 0", p.CaptureCount())
	}
	g := dis.Alternatives[0].Terms[0].(*DisjunctionAtom)
	if g.Capturing {
		t.Fatalf("non-capturing group reported Capturing=true")
	}
}

func TestParseLookaheadAssertions(t *testing.T) {
	dis, _ := mustParse(t, "a(?=b)(?!c)", 0)
	terms := dis.Alternatives[0].Terms
	pos, ok := terms[1].(*DisjunctionAssertion)
	if !ok || pos.Not {
		t.Fatalf("term 1 = %#v, want positive lookahead", terms[1])
	}
	neg, ok := terms[2].(*DisjunctionAssertion)
	if !ok || !neg.Not {
		t.Fatalf("term 2 = %#v, want negative lookahead", terms[2])
	}
}

func TestParseQuantifiers(t *testing.T) {
	cases := []struct {
		pattern    string
		min, max   int
		greedy     bool
	}{
		{"a*", 0, Infinity, true},
		{"a+", 1, Infinity, true},
		{"a?", 0, 1, true},
		{"a*?", 0, Infinity, false},
		{"a{2,4}", 2, 4, true},
		{"a{2,}", 2, Infinity, true},
		{"a{2}", 2, 2, true},
	}
	for _, c := range cases {
		dis, _ := mustParse(t, c.pattern, 0)
		q, ok := dis.Alternatives[0].Terms[0].(*Quantifiered)
		if !ok {
			t.Fatalf("%q: term 0 = %#v, want *Quantifiered", c.pattern, dis.Alternatives[0].Terms[0])
		}
		if q.Min != c.min || q.Max != c.max || q.Greedy != c.greedy {
			t.Fatalf("%q: got {%d,%d,%v}, want {%d,%d,%v}", c.pattern, q.Min, q.Max, q.Greedy, c.min, c.max, c.greedy)
		}
	}
}

func TestParseExactQuantifierCollapsesToTarget(t *testing.T) {
	dis, _ := mustParse(t, "a{1}", 0)
	if _, ok := dis.Alternatives[0].Terms[0].(*CharacterAtom); !ok {
		t.Fatalf("a{1} term 0 = %#v, want *CharacterAtom (Quantifiered{1,1} collapses)", dis.Alternatives[0].Terms[0])
	}
}

func TestParseInvalidQuantifierRange(t *testing.T) {
	_, err := NewParser(utf16.Encode([]rune("a{4,2}")), 0).Parse()
	pe, ok := err.(*ParseError)
	if !ok || pe.Code != InvalidQuantifier {
		t.Fatalf("got %v, want InvalidQuantifier", err)
	}
}

func TestParseInvalidClassRange(t *testing.T) {
	_, err := NewParser(utf16.Encode([]rune("[z-a]")), 0).Parse()
	pe, ok := err.(*ParseError)
	if !ok || pe.Code != InvalidRange {
		t.Fatalf("got %v, want InvalidRange", err)
	}
}

func TestParseUnexpectedCharacter(t *testing.T) {
	_, err := NewParser(utf16.Encode([]rune("a)")), 0).Parse()
	pe, ok := err.(*ParseError)
	if !ok || pe.Code != UnexpectedCharacter {
		t.Fatalf("got %v, want UnexpectedCharacter", err)
	}
}

func TestParseCharacterClassEscapes(t *testing.T) {
	dis, _ := mustParse(t, `[\d\s-]`, 0)
	ra := dis.Alternatives[0].Terms[0].(*RangeAtom)
	if !ra.Ranges.Contains('5') {
		t.Fatalf("class missing \\d: %v", ra.Ranges)
	}
	if !ra.Ranges.Contains(' ') {
		t.Fatalf("class missing \\s: %v", ra.Ranges)
	}
	if !ra.Ranges.Contains('-') {
		t.Fatalf("class missing literal '-': %v", ra.Ranges)
	}
}

func TestParseBackReference(t *testing.T) {
	dis, _ := mustParse(t, `(a)\1`, 0)
	br := dis.Alternatives[0].Terms[1].(*BackReferenceAtom)
	if br.Index != 1 {
		t.Fatalf("got back-reference index %d, want 1", br.Index)
	}
}
