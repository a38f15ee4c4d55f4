package aero

// frame is one entry of the backtrack stack, per §4.6: "{pc, sp,
// capture_snapshot}". The snapshot also carries the program's
// loop-progress slots, since those need to unwind exactly like captures
// do when a repetition is abandoned.
type frame struct {
	pc   int
	sp   int
	regs []int
}

// matcher runs one Program against one input, sharing its range table
// and flags across however many nested lookahead sub-runs it performs.
type matcher struct {
	prog        *Program
	input       []uint16
	ignoreCase  bool
	multiline   bool
}

// runAt tries to match prog starting at exactly sp, the same contract
// jsstring.Matcher.Match promises its caller.
func (m *matcher) runAt(code []Instr, sp int, regs []int) (bool, int, []int) {
	stack := []frame{}
	pc := 0
	for {
		in := code[pc]
		switch in.Op {
		case OpChar:
			if sp < len(m.input) && m.equalChar(m.input[sp], in.Char) {
				sp++
				pc++
				continue
			}
		case OpRange:
			if sp < len(m.input) && m.inRange(m.input[sp], in.RangeIdx, in.Invert) {
				sp++
				pc++
				continue
			}
		case OpAssertStart:
			if sp == 0 || (m.multiline && isLineTerminator(m.input[sp-1])) {
				pc++
				continue
			}
		case OpAssertEnd:
			if sp == len(m.input) || (m.multiline && isLineTerminator(m.input[sp])) {
				pc++
				continue
			}
		case OpWordBoundary:
			before := sp > 0 && isWordChar(m.input[sp-1])
			after := sp < len(m.input) && isWordChar(m.input[sp])
			if (before != after) != in.Not {
				pc++
				continue
			}
		case OpBackReference:
			lo, hi := regs[2*in.CaptureIdx], regs[2*in.CaptureIdx+1]
			if lo < 0 {
				// Non-participating group: matches the empty string.
				pc++
				continue
			}
			n := hi - lo
			if sp+n <= len(m.input) && m.regionEqual(sp, lo, n) {
				sp += n
				pc++
				continue
			}
		case OpSave:
			regs[in.Slot] = sp
			pc++
			continue
		case OpEnterLoop:
			regs[in.Slot] = sp
			pc++
			continue
		case OpCheckProgress:
			if regs[in.Slot] != sp {
				pc++
				continue
			}
		case OpJump:
			pc = in.X
			continue
		case OpSplit:
			stack = append(stack, frame{pc: in.Y, sp: sp, regs: append([]int{}, regs...)})
			pc = in.X
			continue
		case OpLookahead:
			sub := append([]int{}, regs...)
			ok, _, sub2 := m.runAt(m.prog.Subs[in.SubIdx], sp, sub)
			if ok != in.Not {
				if ok {
					regs = sub2
				}
				pc++
				continue
			}
		case OpMatch:
			return true, sp, regs
		}
		// Fault: pop a backtrack frame, or fail entirely.
		if len(stack) == 0 {
			return false, 0, nil
		}
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		pc, sp, regs = top.pc, top.sp, top.regs
	}
}

func (m *matcher) equalChar(a, b uint16) bool {
	if a == b {
		return true
	}
	if !m.ignoreCase {
		return false
	}
	return foldASCII(a) == foldASCII(b)
}

func (m *matcher) inRange(ch uint16, idx int, invert bool) bool {
	rs := m.prog.Ranges[idx]
	in := rs.Contains(ch)
	if !in && m.ignoreCase {
		in = rs.Contains(foldASCII(ch)) || rs.ContainsFolded(ch)
	}
	if invert {
		return !in
	}
	return in
}

func (m *matcher) regionEqual(sp, lo, n int) bool {
	for i := 0; i < n; i++ {
		if !m.equalChar(m.input[sp+i], m.input[lo+i]) {
			return false
		}
	}
	return true
}

func foldASCII(ch uint16) uint16 {
	if alt, ok := asciiCaseFold(ch); ok {
		return alt
	}
	return ch
}

// ContainsFolded checks the other case of every letter-bearing range in
// rs against ch, covering the case where rs was built without
// case-folding (an escape class such as \w) but the matcher itself is
// running case-insensitively.
func (rs RangeSet) ContainsFolded(ch uint16) bool {
	alt, ok := asciiCaseFold(ch)
	if !ok {
		return false
	}
	return rs.Contains(alt)
}

func isLineTerminator(ch uint16) bool { return lineTerminatorRanges.Contains(ch) }
func isWordChar(ch uint16) bool       { return wordRanges.Contains(ch) }
