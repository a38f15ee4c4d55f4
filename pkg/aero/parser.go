package aero

import "fortio.org/safecast"

// Flags are the regex literal's compile-time flags, per §6: i
// (ignore-case), m (multiline), g (global — a match-loop concern, not a
// parse-time one, but carried alongside so Compile can see it).
type Flags int

const (
	IgnoreCase Flags = 1 << iota
	Multiline
	Global
)

// maxPatternSize rejects a pattern source over 1 MB, per §4.6.
const maxPatternSize = 1 << 20

// Parser is a recursive-descent parser over a UTF-16 code-unit view,
// producing the AST compile walks. Grounded on aero::Parser's grammar
// and cursor discipline (lv5/aero/parser.h): disjunction ::= alternative
// ('|' alternative)*; alternative ::= term*; term ::= assertion | atom
// quantifier?.
type Parser struct {
	flags   Flags
	ranges  *RangeBuilder
	source  []uint16
	pos     int
	end     int
	c       int
	capture int
}

// NewParser returns a parser over source (already UTF-16 code units)
// with the given flags.
func NewParser(source []uint16, flags Flags) *Parser {
	p := &Parser{
		flags:  flags,
		ranges: NewRangeBuilder(flags&IgnoreCase != 0),
		source: source,
		pos:    0,
		end:    len(source),
		c:      EOS,
	}
	p.advance()
	return p
}

// CaptureCount returns how many capturing groups the most recent Parse
// call assigned, i.e. the highest capture index used.
func (p *Parser) CaptureCount() int { return p.capture }

// Parse parses the entire source as a single pattern, per
// Parser::ParsePattern.
func (p *Parser) Parse() (*Disjunction, error) {
	if len(p.source) > maxPatternSize {
		return nil, &ParseError{Code: PatternTooLarge, Pos: 0}
	}
	dis, err := p.parseDisjunction(EOS)
	if err != nil {
		return nil, err
	}
	if p.c != EOS {
		return nil, p.unexpected()
	}
	return dis, nil
}

func (p *Parser) unexpected() error { return &ParseError{Code: UnexpectedCharacter, Pos: p.pos} }
func (p *Parser) raise(code ErrorCode) error { return &ParseError{Code: code, Pos: p.pos} }

func (p *Parser) parseDisjunction(end int) (*Disjunction, error) {
	first, err := p.parseAlternative(end)
	if err != nil {
		return nil, err
	}
	alts := []*Alternative{first}
	for p.c == '|' {
		p.advance()
		alt, err := p.parseAlternative(end)
		if err != nil {
			return nil, err
		}
		alts = append(alts, alt)
	}
	return &Disjunction{Alternatives: alts}, nil
}

func (p *Parser) parseAlternative(end int) (*Alternative, error) {
	var terms []Expression
	for p.c >= 0 && p.c != '|' && p.c != end {
		var target Expression
		atom := false
		switch p.c {
		case '^':
			target = &HatAssertion{}
			p.advance()
		case '$':
			target = &DollarAssertion{}
			p.advance()
		case '(':
			var err error
			target, atom, err = p.parseGroup()
			if err != nil {
				return nil, err
			}
		case '.':
			p.advance()
			target = &RangeAtom{Ranges: GetEscapedRange('.')}
			atom = true
		case '\\':
			p.advance()
			switch p.c {
			case 'b':
				p.advance()
				target = &EscapedAssertion{Not: false}
			case 'B':
				p.advance()
				target = &EscapedAssertion{Not: true}
			default:
				var err error
				target, err = p.parseAtomEscape()
				if err != nil {
					return nil, err
				}
				atom = true
			}
		case '[':
			var err error
			target, err = p.parseCharacterClass()
			if err != nil {
				return nil, err
			}
			atom = true
		default:
			if !isPatternCharacter(p.c) {
				return nil, p.unexpected()
			}
			target = &CharacterAtom{Char: uint16(p.c)}
			p.advance()
			atom = true
		}
		if atom && isQuantifierPrefixStart(p.c) {
			var err error
			target, err = p.parseQuantifier(target)
			if err != nil {
				return nil, err
			}
		}
		terms = append(terms, target)
	}
	return &Alternative{Terms: terms}, nil
}

// parseGroup parses every '(' form: plain capturing, (?:, (?=, (?!.
func (p *Parser) parseGroup() (Expression, bool, error) {
	p.advance()
	if p.c == '?' {
		p.advance()
		switch p.c {
		case '=':
			p.advance()
			dis, err := p.parseDisjunction(')')
			if err != nil {
				return nil, false, err
			}
			if err := p.expect(')'); err != nil {
				return nil, false, err
			}
			return &DisjunctionAssertion{Body: dis, Not: false}, true, nil
		case '!':
			p.advance()
			dis, err := p.parseDisjunction(')')
			if err != nil {
				return nil, false, err
			}
			if err := p.expect(')'); err != nil {
				return nil, false, err
			}
			return &DisjunctionAssertion{Body: dis, Not: true}, true, nil
		case ':':
			p.advance()
			dis, err := p.parseDisjunction(')')
			if err != nil {
				return nil, false, err
			}
			if err := p.expect(')'); err != nil {
				return nil, false, err
			}
			return &DisjunctionAtom{Body: dis, Capturing: false}, true, nil
		default:
			return nil, false, p.unexpected()
		}
	}
	p.capture++
	index := p.capture
	dis, err := p.parseDisjunction(')')
	if err != nil {
		return nil, false, err
	}
	if err := p.expect(')'); err != nil {
		return nil, false, err
	}
	return &DisjunctionAtom{Body: dis, Capturing: true, Index: index}, true, nil
}

func (p *Parser) parseAtomEscape() (Expression, error) {
	switch p.c {
	case 'f':
		p.advance()
		return &CharacterAtom{Char: '\f'}, nil
	case 'n':
		p.advance()
		return &RangeAtom{Ranges: GetEscapedRange('n')}, nil
	case 'r':
		p.advance()
		return &CharacterAtom{Char: '\r'}, nil
	case 't':
		p.advance()
		return &CharacterAtom{Char: '\t'}, nil
	case 'v':
		p.advance()
		return &CharacterAtom{Char: '\v'}, nil
	case 'c':
		p.advance()
		if !isASCIIAlpha(p.c) {
			return nil, p.unexpected()
		}
		ch := p.c
		p.advance()
		return &CharacterAtom{Char: uint16(ch % 32)}, nil
	case 'x':
		p.advance()
		uc, err := p.parseHexEscape(2)
		if err != nil {
			return nil, err
		}
		return &CharacterAtom{Char: uc}, nil
	case 'u':
		p.advance()
		uc, err := p.parseHexEscape(4)
		if err != nil {
			return nil, err
		}
		return &CharacterAtom{Char: uc}, nil
	case 'd', 'D', 's', 'S', 'w', 'W':
		class := byte(p.c)
		p.advance()
		return &RangeAtom{Ranges: EscapedClass(class)}, nil
	case '0':
		p.advance()
		return &CharacterAtom{Char: 0}, nil
	default:
		if p.c >= '1' && p.c <= '9' {
			numeric, err := p.parseDecimalInteger()
			if err != nil {
				return nil, err
			}
			ref, err := safecast.Convert[uint16](numeric)
			if err != nil {
				return nil, p.raise(NumberTooBig)
			}
			return &BackReferenceAtom{Index: int(ref)}, nil
		}
		if isIdentifierPart(p.c) || p.c < 0 {
			return nil, p.unexpected()
		}
		uc := uint16(p.c)
		p.advance()
		return &CharacterAtom{Char: uc}, nil
	}
}

func (p *Parser) parseHexEscape(length int) (uint16, error) {
	var res uint16
	for i := 0; i < length; i++ {
		d := hexValue(p.c)
		if d < 0 {
			for j := i - 1; j >= 0; j-- {
				p.pushBack()
			}
			return 0, p.unexpected()
		}
		res = res*16 + uint16(d)
		p.advance()
	}
	return res, nil
}

func (p *Parser) parseDecimalInteger() (float64, error) {
	result := 0.0
	if p.c != '0' {
		for p.c >= 0 && isDecimalDigit(p.c) {
			result = result*10 + float64(p.c-'0')
			p.advance()
		}
	} else {
		p.advance()
	}
	if isDecimalDigit(p.c) {
		return 0, p.unexpected()
	}
	return result, nil
}

func (p *Parser) parseCharacterClass() (Expression, error) {
	p.advance() // consume '['
	p.ranges.Clear()
	invert := p.c == '^'
	if invert {
		p.advance()
	}
	for p.c >= 0 && p.c != ']' {
		ranged1, start, err := p.parseClassAtom()
		if err != nil {
			return nil, err
		}
		if p.c == '-' {
			p.advance()
			switch {
			case p.c < 0:
				return nil, p.unexpected()
			case p.c == ']':
				p.ranges.AddOrEscaped(ranged1, start)
				p.ranges.Add('-', false)
				goto closeClass
			default:
				ranged2, last, err := p.parseClassAtom()
				if err != nil {
					return nil, err
				}
				if ranged1 != 0 || ranged2 != 0 {
					p.ranges.AddOrEscaped(ranged1, start)
					p.ranges.Add('-', false)
					p.ranges.AddOrEscaped(ranged2, last)
				} else {
					if !IsValidRange(start, last) {
						return nil, p.raise(InvalidRange)
					}
					p.ranges.AddRange(start, last, p.flags&IgnoreCase != 0)
				}
			}
		} else {
			p.ranges.AddOrEscaped(ranged1, start)
		}
	}
closeClass:
	if err := p.expect(']'); err != nil {
		return nil, err
	}
	return &RangeAtom{Invert: invert, Ranges: p.ranges.Finish()}, nil
}

// parseClassAtom returns (rangedClass, literal): if the atom was one of
// \d \D \s \S \w \W, rangedClass is that letter and literal is 0;
// otherwise rangedClass is 0 and literal is the code unit, matching
// ParseClassAtom's two-channel return.
func (p *Parser) parseClassAtom() (uint16, uint16, error) {
	if p.c != '\\' {
		ch := uint16(p.c)
		p.advance()
		return 0, ch, nil
	}
	p.advance()
	switch p.c {
	case 'w', 'W', 'd', 'D', 's', 'S':
		ranged := uint16(p.c)
		p.advance()
		return ranged, 0, nil
	case 'f':
		p.advance()
		return 0, '\f', nil
	case 'n':
		p.advance()
		return 0, '\n', nil
	case 'r':
		p.advance()
		return 0, '\r', nil
	case 't':
		p.advance()
		return 0, '\t', nil
	case 'v':
		p.advance()
		return 0, '\v', nil
	case 'c':
		p.advance()
		if !isASCIIAlpha(p.c) {
			return 0, 0, p.unexpected()
		}
		p.advance()
		return 0, '\\', nil
	case 'x':
		p.advance()
		uc, err := p.parseHexEscape(2)
		return 0, uc, err
	case 'u':
		p.advance()
		uc, err := p.parseHexEscape(4)
		return 0, uc, err
	default:
		if isDecimalDigit(p.c) {
			numeric, err := p.parseDecimalInteger()
			if err != nil {
				return 0, 0, err
			}
			uc, err := safecast.Convert[uint16](numeric)
			if err != nil {
				return 0, 0, p.raise(NumberTooBig)
			}
			return 0, uc, nil
		}
		if isIdentifierPart(p.c) || p.c < 0 {
			return 0, 0, p.unexpected()
		}
		ch := uint16(p.c)
		p.advance()
		return 0, ch, nil
	}
}

func (p *Parser) parseQuantifier(target Expression) (Expression, error) {
	min, max := 0, 0
	switch p.c {
	case '*':
		p.advance()
		min, max = 0, Infinity
	case '+':
		p.advance()
		min, max = 1, Infinity
	case '?':
		p.advance()
		min, max = 0, 1
	case '{':
		p.advance()
		if !isDecimalDigit(p.c) {
			return nil, p.unexpected()
		}
		n1, err := p.parseDecimalInteger()
		if err != nil {
			return nil, err
		}
		min, err = clampQuantifierBound(n1)
		if err != nil {
			return nil, err
		}
		if p.c == ',' {
			p.advance()
			if p.c == '}' {
				max = Infinity
			} else {
				if !isDecimalDigit(p.c) {
					return nil, p.unexpected()
				}
				n2, err := p.parseDecimalInteger()
				if err != nil {
					return nil, err
				}
				max, err = clampQuantifierBound(n2)
				if err != nil {
					return nil, err
				}
			}
		} else if p.c == '}' {
			max = min
		}
		if err := p.expect('}'); err != nil {
			return nil, err
		}
	default:
		return nil, p.unexpected()
	}
	if max < min {
		return nil, p.raise(InvalidQuantifier)
	}
	greedy := true
	if p.c == '?' {
		p.advance()
		if max != min {
			greedy = false
		}
	}
	if min == max && min == 1 {
		return target, nil
	}
	return &Quantifiered{Target: target, Min: min, Max: max, Greedy: greedy}, nil
}

func clampQuantifierBound(n float64) (int, error) {
	if n > Infinity {
		return Infinity, nil
	}
	v, err := safecast.Convert[int](n)
	if err != nil {
		return 0, &ParseError{Code: NumberTooBig}
	}
	return v, nil
}

func (p *Parser) expect(ch int) error {
	if p.c != ch {
		return p.unexpected()
	}
	p.advance()
	return nil
}

func (p *Parser) advance() {
	if p.pos == p.end {
		p.c = EOS
		return
	}
	p.c = int(p.source[p.pos])
	p.pos++
}

func (p *Parser) pushBack() {
	if p.pos < 2 {
		p.c = EOS
		return
	}
	p.c = int(p.source[p.pos-2])
	p.pos--
}
