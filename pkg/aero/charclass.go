package aero

import "sort"

// Range is an inclusive code-unit interval.
type Range struct {
	Lo, Hi uint16
}

// RangeSet is a finished character class: sorted, with no overlap and no
// adjacency between consecutive ranges (adjacent/overlapping ranges are
// merged by Finish).
type RangeSet []Range

// Contains reports whether ch falls in any range of the set.
func (rs RangeSet) Contains(ch uint16) bool {
	lo, hi := 0, len(rs)
	for lo < hi {
		mid := (lo + hi) / 2
		r := rs[mid]
		switch {
		case ch < r.Lo:
			hi = mid
		case ch > r.Hi:
			lo = mid + 1
		default:
			return true
		}
	}
	return false
}

// digitRange, spaceRanges, wordRanges are the fixed escape-class
// expansions \d, \s, \w resolve to; \D, \S, \W are their complements.
var digitRange = RangeSet{{'0', '9'}}

var spaceRanges = RangeSet{
	{0x0009, 0x000D}, // tab..CR
	{0x0020, 0x0020}, // space
	{0x00A0, 0x00A0}, // NBSP
	{0x1680, 0x1680},
	{0x2000, 0x200A},
	{0x2028, 0x2029}, // line/paragraph separator
	{0x202F, 0x202F},
	{0x205F, 0x205F},
	{0x3000, 0x3000},
	{0xFEFF, 0xFEFF}, // BOM
}

var wordRanges = RangeSet{
	{'0', '9'},
	{'A', 'Z'},
	{'_', '_'},
	{'a', 'z'},
}

var lineTerminatorRanges = RangeSet{
	{0x000A, 0x000A},
	{0x000D, 0x000D},
	{0x2028, 0x2029},
}

// RangeBuilder accumulates class atoms and class ranges while the parser
// walks a bracketed character class, then normalizes them into a
// RangeSet on Finish. Mirrors the original aero::RangeBuilder's
// accumulate-then-Finish shape.
type RangeBuilder struct {
	ignoreCase bool
	pending    RangeSet
}

// NewRangeBuilder returns a builder that case-folds every range it
// accumulates when ignoreCase is set, per the parser's "honour
// case-folding when the ignore-case flag is set" contract.
func NewRangeBuilder(ignoreCase bool) *RangeBuilder {
	return &RangeBuilder{ignoreCase: ignoreCase}
}

// Clear resets the builder for a new [...] class.
func (b *RangeBuilder) Clear() { b.pending = b.pending[:0] }

// Add adds a single code unit. escaped marks it as coming from an
// escape sequence (e.g. literal '-' inside a range context) rather than
// ClassAtom that might start a range.
func (b *RangeBuilder) Add(ch uint16, escaped bool) {
	b.AddRange(ch, ch, !escaped && b.ignoreCase)
}

// AddOrEscaped adds either the named escape class (when ranged names one
// of d/D/s/S/w/W) or the single code unit ch, matching ParseClassAtom's
// two return channels (a ranged-class letter, or a literal code unit).
func (b *RangeBuilder) AddOrEscaped(ranged uint16, ch uint16) {
	if ranged != 0 {
		b.addSet(EscapedClass(byte(ranged)))
		return
	}
	b.Add(ch, false)
}

// AddRange adds [lo, hi], case-folding it first when caseFold is set.
func (b *RangeBuilder) AddRange(lo, hi uint16, caseFold bool) {
	if caseFold {
		b.pending = append(b.pending, caseFoldRange(lo, hi)...)
		return
	}
	b.pending = append(b.pending, Range{lo, hi})
}

func (b *RangeBuilder) addSet(rs RangeSet) {
	b.pending = append(b.pending, rs...)
}

// Finish sorts, merges overlapping/adjacent ranges, and returns the
// normalized set, clearing the builder's pending state.
func (b *RangeBuilder) Finish() RangeSet {
	out := normalize(b.pending)
	b.pending = nil
	return out
}

// GetEscapedRange resolves one of '.', 'd', 'D', 's', 'S', 'w', 'W', 'n'
// to its range set, the same dispatch ParseAtomEscape and
// ParseCharacterClass use for the handful of escapes that denote a set
// of code units rather than one literal.
func GetEscapedRange(class byte) RangeSet {
	switch class {
	case '.':
		return invert(lineTerminatorRanges)
	case 'n':
		return RangeSet{{'\n', '\n'}}
	default:
		return EscapedClass(class)
	}
}

// EscapedClass resolves \d \D \s \S \w \W to their range sets.
func EscapedClass(class byte) RangeSet {
	switch class {
	case 'd':
		return digitRange
	case 'D':
		return invert(digitRange)
	case 's':
		return spaceRanges
	case 'S':
		return invert(spaceRanges)
	case 'w':
		return wordRanges
	case 'W':
		return invert(wordRanges)
	default:
		return nil
	}
}

// IsValidRange reports whether lo-hi is a well-formed ClassRange, per
// the parser's INVALID_RANGE check.
func IsValidRange(lo, hi uint16) bool { return lo <= hi }

func normalize(rs RangeSet) RangeSet {
	if len(rs) == 0 {
		return nil
	}
	sorted := append(RangeSet{}, rs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Lo < sorted[j].Lo })
	out := RangeSet{sorted[0]}
	for _, r := range sorted[1:] {
		last := &out[len(out)-1]
		if int(r.Lo) <= int(last.Hi)+1 {
			if r.Hi > last.Hi {
				last.Hi = r.Hi
			}
			continue
		}
		out = append(out, r)
	}
	return out
}

// invert returns the complement of rs over the full uint16 code-unit
// space, used for \D \S \W and for '.' (every code unit but a line
// terminator).
func invert(rs RangeSet) RangeSet {
	rs = normalize(rs)
	var out RangeSet
	lo := uint16(0)
	for _, r := range rs {
		if r.Lo > lo {
			out = append(out, Range{lo, r.Lo - 1})
		}
		if r.Hi == 0xFFFF {
			return out
		}
		lo = r.Hi + 1
	}
	out = append(out, Range{lo, 0xFFFF})
	return out
}

// caseFoldRange expands [lo, hi] to include the opposite-case code unit
// for every ASCII letter in range, the same simple ASCII case-fold the
// original engine applies (full Unicode case-folding is out of scope
// per spec.md's Non-goals on Unicode normalization beyond case mapping).
func caseFoldRange(lo, hi uint16) RangeSet {
	out := RangeSet{{lo, hi}}
	for ch := lo; ch <= hi; ch++ {
		if alt, ok := asciiCaseFold(ch); ok {
			out = append(out, Range{alt, alt})
		}
		if ch == hi {
			break
		}
	}
	return out
}

func asciiCaseFold(ch uint16) (uint16, bool) {
	switch {
	case ch >= 'a' && ch <= 'z':
		return ch - 'a' + 'A', true
	case ch >= 'A' && ch <= 'Z':
		return ch - 'A' + 'a', true
	default:
		return 0, false
	}
}
