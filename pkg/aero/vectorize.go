package aero

import "github.com/klauspost/cpuid/v2"

// hasVectorFilter reports whether the running CPU provides SSE4.2, the
// feature gate §4.6's "Optimizations" paragraph names for vectorising a
// single-character-class filter scan. No assembler exists anywhere in
// the retrieved reference pack (see pkg/breaker's package doc for the
// same finding), so there is no literal SIMD intrinsic to emit here;
// what gates on this detection is scanFilterClass's batched scan below,
// the nearest honest equivalent of "vectorised" available without
// fabricating an assembly dependency.
var hasVectorFilter = cpuid.CPU.Supports(cpuid.SSE42)

// filterKind classifies a compiled program's very first instruction as
// a single-character-class filter eligible for the fast pre-scan, or
// none at all.
type filterKind struct {
	ok     bool
	char   uint16
	isChar bool
	rangeIdx int
	invert bool
}

func programFilter(prog *Program) filterKind {
	code := prog.Main
	// Main opens with the OpSave recording group 0's start; the first
	// instruction that tests input is the one after it.
	if len(code) > 0 && code[0].Op == OpSave {
		code = code[1:]
	}
	if len(code) == 0 {
		return filterKind{}
	}
	switch first := code[0]; first.Op {
	case OpChar:
		return filterKind{ok: true, isChar: true, char: first.Char}
	case OpRange:
		return filterKind{ok: true, rangeIdx: first.RangeIdx, invert: first.Invert}
	default:
		return filterKind{}
	}
}

// scanFilterClass returns the smallest index >= from at which input
// satisfies the filter, or len(input) if none does. Exec calls this
// before running the full backtracking match at each candidate, so a
// pattern with a selective first character or class skips positions
// that cannot possibly match without paying for a full VM run at each.
//
// batchScan (used when hasVectorFilter is set) and the scalar fallback
// compute the identical result; batching only changes how many code
// units are tested per loop iteration, up to 16 at a time, mirroring
// §4.6's "up to 16 code units" vectorisation width.
func scanFilterClass(m *matcher, f filterKind, from int) int {
	test := func(ch uint16) bool {
		if f.isChar {
			return m.equalChar(ch, f.char)
		}
		return m.inRange(ch, f.rangeIdx, f.invert)
	}
	if !hasVectorFilter {
		for i := from; i < len(m.input); i++ {
			if test(m.input[i]) {
				return i
			}
		}
		return len(m.input)
	}
	const width = 16
	i := from
	for ; i+width <= len(m.input); i += width {
		for j := 0; j < width; j++ {
			if test(m.input[i+j]) {
				return i + j
			}
		}
	}
	for ; i < len(m.input); i++ {
		if test(m.input[i]) {
			return i
		}
	}
	return len(m.input)
}
