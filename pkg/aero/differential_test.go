package aero

import (
	"testing"
	"unicode/utf16"

	"github.com/dlclark/regexp2"
)

// TestDifferentialAgainstRegexp2 cross-checks aero's backtracking VM
// against github.com/dlclark/regexp2, a second independent backtracking
// implementation, per §4.6 Testable Property 4 and §10.2's differential
// test harness note. Patterns are restricted to the ECMAScript subset
// both engines agree on (no back-reference divergence cases, per the
// spec's own caveat on this cross-check).
func TestDifferentialAgainstRegexp2(t *testing.T) {
	cases := []struct {
		pattern string
		input   string
	}{
		{"abc", "xxabcxx"},
		{"a|bc", "xxbcxx"},
		{"a+b*c?", "xaaabbbxx"},
		{"[a-z]+", "ABCdefGHI"},
		{"(ab)+c", "ababababc"},
		{`\d{2,4}`, "x12345x"},
		{"a.*?b", "axxbxxb"},
		{"^abc$", "abc"},
	}
	for _, c := range cases {
		aero := mustCompile(t, c.pattern, 0)
		other := regexp2.MustCompile(c.pattern, regexp2.None)

		input := units(c.input)
		aeroOK, aeroGroups, _ := aero.Exec(input, 0)

		m, err := other.FindStringMatch(c.input)
		if err != nil {
			t.Fatalf("%q: regexp2 error: %v", c.pattern, err)
		}
		otherOK := m != nil

		if aeroOK != otherOK {
			t.Fatalf("%q on %q: aero ok=%v, regexp2 ok=%v", c.pattern, c.input, aeroOK, otherOK)
		}
		if !aeroOK {
			continue
		}
		if got := string(utf16.Decode(input[aeroGroups[0][0]:aeroGroups[0][1]])); got != m.String() {
			t.Fatalf("%q on %q: aero match %q, regexp2 match %q", c.pattern, c.input, got, m.String())
		}
	}
}
