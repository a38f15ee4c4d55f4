package aero

import "unicode/utf16"

// Regexp is a compiled pattern: parse + compile results bundled with
// the flags they were compiled under. It implements
// jsstring.Matcher, so pkg/jsstring's split/replace helpers can drive
// it without importing pkg/aero.
type Regexp struct {
	source  []uint16
	flags   Flags
	program *Program
}

// ParseFlags turns the literal flag letters (i, m, g) from a regex
// literal's trailing `/flags` into Flags, per §6's "Flags: i, m, g".
func ParseFlags(s string) (Flags, error) {
	var f Flags
	for _, ch := range s {
		switch ch {
		case 'i':
			f |= IgnoreCase
		case 'm':
			f |= Multiline
		case 'g':
			f |= Global
		default:
			return 0, &ParseError{Code: UnexpectedCharacter}
		}
	}
	return f, nil
}

// Compile parses and compiles pattern (as UTF-16 code units) under
// flags into a runnable Regexp.
func Compile(pattern string, flags Flags) (*Regexp, error) {
	units := utf16.Encode([]rune(pattern))
	p := NewParser(units, flags)
	dis, err := p.Parse()
	if err != nil {
		return nil, err
	}
	prog, err := compileProgram(dis, p.CaptureCount(), flags)
	if err != nil {
		return nil, err
	}
	return &Regexp{source: units, flags: flags, program: prog}, nil
}

func (r *Regexp) Source() string  { return string(utf16.Decode(r.source)) }
func (r *Regexp) Flags() Flags    { return r.flags }
func (r *Regexp) Global() bool    { return r.flags&Global != 0 }
func (r *Regexp) IgnoreCase() bool { return r.flags&IgnoreCase != 0 }
func (r *Regexp) Multiline() bool { return r.flags&Multiline != 0 }

// GroupCount implements jsstring.Matcher.
func (r *Regexp) GroupCount() int { return r.program.NumCaptures }

// Match implements jsstring.Matcher: attempts a match starting at
// exactly `at`, returning per-group [start,end) pairs with [-1,-1] for
// a group that never participated.
func (r *Regexp) Match(input []uint16, at int) (bool, [][2]int) {
	m := &matcher{
		prog:       r.program,
		input:      input,
		ignoreCase: r.IgnoreCase(),
		multiline:  r.Multiline(),
	}
	regs := make([]int, r.program.numRegs())
	for i := range regs {
		regs[i] = -1
	}
	ok, _, finalRegs := m.runAt(r.program.Main, at, regs)
	if !ok {
		return false, nil
	}
	groups := make([][2]int, r.program.NumCaptures+1)
	for g := 0; g <= r.program.NumCaptures; g++ {
		groups[g] = [2]int{finalRegs[2*g], finalRegs[2*g+1]}
	}
	return true, groups
}

// Exec scans forward from `from`, trying every position in turn, per
// the usual ECMAScript RegExp.prototype.exec search loop (Match itself
// only tries one fixed position, the contract jsstring.Matcher needs
// for split; Exec is the convenience most callers actually want).
func (r *Regexp) Exec(input []uint16, from int) (ok bool, groups [][2]int, nextPos int) {
	filter := programFilter(r.program)
	m := &matcher{prog: r.program, input: input, ignoreCase: r.IgnoreCase(), multiline: r.Multiline()}
	pos := from
	for pos <= len(input) {
		candidate := pos
		if filter.ok && pos < len(input) {
			candidate = scanFilterClass(m, filter, pos)
		}
		if ok, groups := r.Match(input, candidate); ok {
			next := groups[0][1]
			if next == candidate {
				next++ // §4.6: advance past an empty match to terminate a global loop.
			}
			return true, groups, next
		}
		if candidate >= len(input) {
			break
		}
		pos = candidate + 1
	}
	return false, nil, len(input)
}
