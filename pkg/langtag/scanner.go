package langtag

// cursor is a minimal backtracking scanner over an ASCII byte string, in
// the same "position/ch" style as the source lexer: a single current
// position with cheap save/restore instead of a token stream, since the
// RFC 5646 grammar needs unbounded lookahead across "-" separated subtags.
type cursor struct {
	s   string
	pos int
}

func newCursor(s string) cursor {
	return cursor{s: s}
}

func (c cursor) eos() bool {
	return c.pos >= len(c.s)
}

func (c cursor) ch() byte {
	if c.eos() {
		return 0
	}
	return c.s[c.pos]
}

func (c cursor) advance() cursor {
	if !c.eos() {
		c.pos++
	}
	return c
}

// mark returns a byte offset usable with s[a:b] to recover a scanned subtag.
func (c cursor) mark() int {
	return c.pos
}

func (c cursor) slice(from int) string {
	return c.s[from:c.pos]
}

// maybeValid holds wherever a subtag production is allowed to end: at the
// end of the tag, or right before the next "-" separated subtag.
func (c cursor) maybeValid() bool {
	return c.eos() || c.ch() == '-'
}

func isASCIIAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isASCIIDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isASCIIAlphanumeric(b byte) bool {
	return isASCIIAlpha(b) || isASCIIDigit(b)
}

func toLowerASCII(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b - 'A' + 'a'
	}
	return b
}

// expectAlpha consumes exactly n alphabetic characters, or fails leaving c
// unchanged.
func (c cursor) expectAlpha(n int) (cursor, bool) {
	cur := c
	for i := 0; i < n; i++ {
		if cur.eos() || !isASCIIAlpha(cur.ch()) {
			return c, false
		}
		cur = cur.advance()
	}
	return cur, true
}

// expectAlphanum consumes exactly n alphanumeric characters, or fails
// leaving c unchanged.
func (c cursor) expectAlphanum(n int) (cursor, bool) {
	cur := c
	for i := 0; i < n; i++ {
		if cur.eos() || !isASCIIAlphanumeric(cur.ch()) {
			return c, false
		}
		cur = cur.advance()
	}
	return cur, true
}

// takeAlphaUpTo greedily consumes up to n more alphabetic characters,
// never failing.
func (c cursor) takeAlphaUpTo(n int) cursor {
	cur := c
	for i := 0; i < n; i++ {
		if cur.eos() || !isASCIIAlpha(cur.ch()) {
			break
		}
		cur = cur.advance()
	}
	return cur
}

// takeAlphanumUpTo greedily consumes up to n more alphanumeric characters,
// never failing.
func (c cursor) takeAlphanumUpTo(n int) cursor {
	cur := c
	for i := 0; i < n; i++ {
		if cur.eos() || !isASCIIAlphanumeric(cur.ch()) {
			break
		}
		cur = cur.advance()
	}
	return cur
}
