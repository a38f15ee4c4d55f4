package jsstring

import "unicode"

// Find returns the index of the first occurrence of pattern in s at or
// after from, or -1.
func Find(s, pattern Str, from int) int {
	if pattern.Len() == 0 {
		if from > s.Len() {
			return -1
		}
		return from
	}
	su, pu := Flatten(s).Units(), Flatten(pattern).Units()
	for i := from; i+len(pu) <= len(su); i++ {
		if unitsEqual(su[i:i+len(pu)], pu) {
			return i
		}
	}
	return -1
}

// RFind returns the index of the last occurrence of pattern in s at or
// before upTo (inclusive of matches starting at upTo), or -1.
func RFind(s, pattern Str, upTo int) int {
	su, pu := Flatten(s).Units(), Flatten(pattern).Units()
	if len(pu) == 0 {
		if upTo > len(su) {
			return len(su)
		}
		return upTo
	}
	start := upTo
	if start+len(pu) > len(su) {
		start = len(su) - len(pu)
	}
	for i := start; i >= 0; i-- {
		if unitsEqual(su[i:i+len(pu)], pu) {
			return i
		}
	}
	return -1
}

func unitsEqual(a, b []uint16) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Split splits s on every occurrence of sep. An empty separator splits
// into individual UTF-16 code units (not code points): per §4.2,
// "".split("") is [] and splitting with an empty separator otherwise
// yields the input's code units.
func Split(s, sep Str) []Str {
	if s.Len() == 0 {
		return []Str{}
	}
	if sep.Len() == 0 {
		units := Flatten(s).Units()
		out := make([]Str, len(units))
		for i, u := range units {
			out[i] = FromFiber(newFiber16([]uint16{u}))
		}
		return out
	}
	var out []Str
	rest := s
	base := 0
	for {
		idx := Find(rest, sep, 0)
		if idx < 0 {
			out = append(out, Substring(s, base, s.Len()))
			return out
		}
		out = append(out, Substring(rest, 0, idx))
		consumed := idx + sep.Len()
		base += consumed
		rest = Substring(rest, consumed, rest.Len())
	}
}

// Substring returns s[start:end] in UTF-16 code-unit offsets, as a flat
// fiber view (never a cord: cords exist only from Concat).
func Substring(s Str, start, end int) Str {
	if start < 0 {
		start = 0
	}
	if end > s.Len() {
		end = s.Len()
	}
	if start >= end {
		return NewFlat("")
	}
	f := Flatten(s)
	if f.Is8Bit() {
		return FromFiber(newFiber8(append([]byte{}, f.b8[start:end]...)))
	}
	return FromFiber(newFiber16(append([]uint16{}, f.b16[start:end]...)))
}

// Matcher abstracts a compiled regular expression enough for
// SplitByRegex without jsstring depending on the aero package directly.
type Matcher interface {
	// Match attempts a match starting at exactly `at`. ok is false if no
	// match begins there. groups holds [start,end) pairs per capture
	// group, group 0 is the whole match; a non-participating group is
	// [-1,-1].
	Match(input []uint16, at int) (ok bool, groups [][2]int)
	GroupCount() int
}

// Piece is one element of a SplitByRegex result: either a substring or
// (for a capture group that did not participate) JavaScript's undefined.
type Piece struct {
	Str         Str
	IsUndefined bool
}

// SplitByRegex implements §4.2's split_by_regex: substrings delimited by
// matches, with every capture group's matched text (or undefined)
// spliced in between the delimited pieces, per ECMAScript semantics.
func SplitByRegex(s Str, re Matcher, limit int) []Piece {
	units := Flatten(s).Units()
	var out []Piece
	push := func(p Piece) bool {
		out = append(out, p)
		return limit < 0 || len(out) < limit
	}
	if len(units) == 0 {
		if !matchesAnywhere(re, units) {
			push(Piece{Str: s})
		}
		return out
	}
	last := 0
	for pos := 0; pos <= len(units); {
		ok, groups := re.Match(units, pos)
		if !ok {
			pos++
			continue
		}
		start, end := groups[0][0], groups[0][1]
		if end == last && end == start {
			pos++
			continue
		}
		if start >= len(units) {
			break
		}
		if !push(Piece{Str: Substring(s, last, start)}) {
			return out
		}
		for g := 1; g <= re.GroupCount(); g++ {
			gs, ge := groups[g][0], groups[g][1]
			if gs < 0 {
				if !push(Piece{IsUndefined: true}) {
					return out
				}
				continue
			}
			if !push(Piece{Str: Substring(s, gs, ge)}) {
				return out
			}
		}
		last = end
		if end == start {
			pos = end + 1
		} else {
			pos = end
		}
	}
	push(Piece{Str: Substring(s, last, len(units))})
	return out
}

func matchesAnywhere(re Matcher, units []uint16) bool {
	for i := 0; i <= len(units); i++ {
		if ok, _ := re.Match(units, i); ok {
			return true
		}
	}
	return false
}

// Trim removes leading and trailing whitespace and line terminators, per
// Unicode category (Zs, plus the ECMAScript line/white-space set).
func Trim(s Str) Str { return trimWith(s, true, true) }
func TrimStart(s Str) Str { return trimWith(s, true, false) }
func TrimEnd(s Str) Str   { return trimWith(s, false, true) }

func trimWith(s Str, start, end bool) Str {
	units := Flatten(s).Units()
	lo, hi := 0, len(units)
	if start {
		for lo < hi && isJSSpace(units[lo]) {
			lo++
		}
	}
	if end {
		for hi > lo && isJSSpace(units[hi-1]) {
			hi--
		}
	}
	return Substring(s, lo, hi)
}

func isJSSpace(u uint16) bool {
	switch u {
	case 0x0009, 0x000A, 0x000B, 0x000C, 0x000D, 0x0020, 0x00A0, 0xFEFF,
		0x2028, 0x2029:
		return true
	}
	return unicode.Is(unicode.Zs, rune(u))
}

// Repeat implements String.prototype.repeat; a negative count yields the
// empty string. No RangeError is raised here or by pkg/runtime's
// stringRepeat, which passes the count straight through.
func Repeat(s Str, count int) Str {
	if count <= 0 || s.Len() == 0 {
		return NewFlat("")
	}
	f := Flatten(s)
	b := NewBuilder(f.Len() * count)
	for i := 0; i < count; i++ {
		b.WriteStr(s)
	}
	return b.Build(f.Is8Bit())
}

// Substr implements the legacy String.prototype.substr: negative start
// is offset from the end; length defaults to "infinity" (pass -1).
func Substr(s Str, start, length int) Str {
	n := s.Len()
	if start < 0 {
		start = n + start
		if start < 0 {
			start = 0
		}
	} else if start >= n {
		return NewFlat("")
	}
	end := n
	if length >= 0 {
		end = start + length
		if end > n {
			end = n
		}
	}
	return Substring(s, start, end)
}
