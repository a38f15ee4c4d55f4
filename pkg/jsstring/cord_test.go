package jsstring

import "testing"

func TestFlattenIdempotent(t *testing.T) {
	s := Concat(NewFlat("hello "), Concat(NewFlat("cruel "), NewFlat("world")))
	if !s.IsCord() {
		t.Fatal("Concat of non-empty strings should build a cord")
	}
	f1 := Flatten(s)
	f2 := Flatten(s)
	if f1 != f2 {
		t.Fatal("Flatten must memoize and be idempotent")
	}
	if f1.String() != "hello cruel world" {
		t.Fatalf("got %q", f1.String())
	}
	if f1.Len() != s.Len() {
		t.Fatalf("len(flatten(s))=%d != len(s)=%d", f1.Len(), s.Len())
	}
}

func TestCordIs8BitPropagation(t *testing.T) {
	ascii := Concat(NewFlat("abc"), NewFlat("def"))
	if !ascii.Is8Bit() {
		t.Fatal("all-ASCII cord should be 8-bit")
	}
	wide := Concat(NewFlat("abc"), FromFiber(newFiber16([]uint16{0x4e2d})))
	if wide.Is8Bit() {
		t.Fatal("cord with a 16-bit leaf must not be 8-bit")
	}
}

func TestSplitEmptySeparator(t *testing.T) {
	out := Split(NewFlat("ab"), NewFlat(""))
	if len(out) != 2 || out[0].String() != "a" || out[1].String() != "b" {
		t.Fatalf("got %v", out)
	}
	empty := Split(NewFlat(""), NewFlat(""))
	if len(empty) != 0 {
		t.Fatalf("\"\".split(\"\") must be [], got %v", empty)
	}
}

func TestAtOnCordReadsThroughToLeaves(t *testing.T) {
	s := Concat(NewFlat("foo"), NewFlat("bar"))
	if s.At(0) != 'f' || s.At(3) != 'b' || s.At(5) != 'r' {
		t.Fatal("cord At must read through to the right leaf")
	}
}

func TestBuilderASCIIHint(t *testing.T) {
	b := NewBuilder(4)
	b.WriteASCII("hi")
	s := b.Build(false)
	if !Flatten(s).Is8Bit() {
		t.Fatal("builder should emit 8-bit storage for all-ASCII content even without the hint")
	}
}

func TestToUpperLower(t *testing.T) {
	up := ToUpper(NewFlat("abc"), "", nil)
	if up.String() != "ABC" {
		t.Fatalf("got %q", up.String())
	}
	low := ToLower(NewFlat("ABC"), "", nil)
	if low.String() != "abc" {
		t.Fatalf("got %q", low.String())
	}
}

func TestTrimAndRepeat(t *testing.T) {
	if Trim(NewFlat("  hi \n")).String() != "hi" {
		t.Fatal("trim failed")
	}
	if Repeat(NewFlat("ab"), 3).String() != "ababab" {
		t.Fatal("repeat failed")
	}
	if Repeat(NewFlat("ab"), -1).String() != "" {
		t.Fatal("negative repeat must yield empty string")
	}
}

func TestSubstrLegacy(t *testing.T) {
	if Substr(NewFlat("hello"), -3, -1).String() != "llo" {
		t.Fatalf("got %q", Substr(NewFlat("hello"), -3, -1).String())
	}
}
