// Package langtag scans RFC 5646 language tags. It has no dependency on
// the rest of the engine: nothing in the core calls it, but it is built
// and tested the same as every other package.
package langtag

// Tag holds the parsed components of a language tag, whether or not the
// tag turned out to be well-formed.
type Tag struct {
	WellFormed bool

	// Grandfathered is "irregular" or "regular" when the tag matched
	// RFC 5646 Appendix A by exact lookup instead of the langtag/privateuse
	// grammar; empty otherwise.
	Grandfathered string

	Language   string
	Extlang    []string
	Script     string
	Region     string
	Variants   []string
	Extensions map[byte][]string
	PrivateUse []string
}

// Parse scans s as a Language-Tag (langtag / privateuse / grandfathered)
// and reports its well-formedness and parsed components.
func Parse(s string) *Tag {
	// Grandfathered lookup comes first: every regular grandfathered tag
	// (e.g. "zh-min-nan") also matches the langtag grammar.
	if class, ok := classifyGrandfathered(s); ok {
		return &Tag{WellFormed: true, Grandfathered: class}
	}
	if t, ok := scanLangtag(s); ok {
		return t
	}
	if t, ok := scanStandalonePrivateUse(s); ok {
		return t
	}
	return &Tag{}
}

func scanLangtag(s string) (*Tag, bool) {
	t := &Tag{Extensions: map[byte][]string{}}
	p := &parser{tag: t}
	c := newCursor(s)

	c, ok := p.scanLanguage(c)
	if !ok {
		return nil, false
	}
	c = tryTag(c, p.scanScript)
	c = tryTag(c, p.scanRegion)
	for {
		next := tryTag(c, p.scanVariant)
		if next.pos == c.pos {
			break
		}
		c = next
	}
	for {
		next := tryTag(c, p.scanExtension)
		if next.pos == c.pos {
			break
		}
		c = next
	}
	c = tryTag(c, p.scanPrivateUse)

	if !c.eos() {
		return nil, false
	}
	t.WellFormed = true
	return t, true
}

func scanStandalonePrivateUse(s string) (*Tag, bool) {
	t := &Tag{}
	p := &parser{tag: t}
	c, ok := p.scanPrivateUse(newCursor(s))
	if !ok || !c.eos() {
		return nil, false
	}
	t.WellFormed = true
	return t, true
}

// tryTag attempts to scan a "-" prefixed optional subtag; on any failure
// (missing dash, or scan rejects what follows it) it returns c unchanged,
// letting the caller notice the lack of progress and move on.
func tryTag(c cursor, scan func(cursor) (cursor, bool)) cursor {
	if c.eos() || c.ch() != '-' {
		return c
	}
	after := c.advance()
	if next, ok := scan(after); ok {
		return next
	}
	return c
}

// parser accumulates a Tag's components across a single scan attempt and
// tracks which extension singletons have already been used, so that a
// fresh parser per attempt (langtag vs. privateuse vs. grandfathered)
// is all that is needed to discard a failed attempt's partial state.
type parser struct {
	tag           *Tag
	seenSingleton [36]bool
}

func between(start, end cursor) string {
	return start.s[start.pos:end.pos]
}

func (p *parser) scanLanguage(c cursor) (cursor, bool) {
	if c2, language, extlangs, ok := expectLanguageFirst(c); ok {
		p.tag.Language = language
		p.tag.Extlang = extlangs
		return c2, true
	}

	// 4ALPHA, reserved for future use.
	if c2, ok := c.expectAlpha(4); ok && c2.maybeValid() {
		p.tag.Language = between(c, c2)
		return c2, true
	}

	// 5*8ALPHA, a registered language subtag.
	c2, ok := c.expectAlpha(5)
	if !ok {
		return c, false
	}
	c2 = c2.takeAlphaUpTo(3)
	if !c2.maybeValid() {
		return c, false
	}
	p.tag.Language = between(c, c2)
	return c2, true
}

// expectLanguageFirst scans "2*3ALPHA" with an optional "-" extlang chain
// of up to three 3ALPHA subtags, per RFC 5646's extlang production.
func expectLanguageFirst(c cursor) (cursor, string, []string, bool) {
	start := c
	c2, ok := c.expectAlpha(2)
	if !ok {
		return c, "", nil, false
	}
	c2 = c2.takeAlphaUpTo(1)
	language := between(start, c2)
	restore := c2

	if restore.ch() != '-' {
		return restore, language, nil, restore.eos()
	}

	var extlangs []string
	for i := 0; i < 3; i++ {
		if restore.ch() != '-' {
			break
		}
		s := restore.advance()
		c3, ok := s.expectAlpha(3)
		if !ok || !c3.maybeValid() {
			break
		}
		extlangs = append(extlangs, between(s, c3))
		restore = c3
	}
	return restore, language, extlangs, true
}

func (p *parser) scanScript(c cursor) (cursor, bool) {
	c2, ok := c.expectAlpha(4)
	if !ok || !c2.maybeValid() {
		return c, false
	}
	p.tag.Script = between(c, c2)
	return c2, true
}

func (p *parser) scanRegion(c cursor) (cursor, bool) {
	if c2, ok := c.expectAlpha(2); ok && c2.maybeValid() {
		p.tag.Region = between(c, c2)
		return c2, true
	}
	c2 := c
	for i := 0; i < 3; i++ {
		if c2.eos() || !isASCIIDigit(c2.ch()) {
			return c, false
		}
		c2 = c2.advance()
	}
	if !c2.maybeValid() {
		return c, false
	}
	p.tag.Region = between(c, c2)
	return c2, true
}

func (p *parser) scanVariant(c cursor) (cursor, bool) {
	if c2, ok := c.expectAlphanum(5); ok {
		c3 := c2.takeAlphanumUpTo(3)
		if c3.maybeValid() {
			p.tag.Variants = append(p.tag.Variants, between(c, c3))
			return c3, true
		}
	}
	if c.eos() || !isASCIIDigit(c.ch()) {
		return c, false
	}
	c2 := c.advance()
	c3, ok := c2.expectAlphanum(3)
	if !ok || !c3.maybeValid() {
		return c, false
	}
	p.tag.Variants = append(p.tag.Variants, between(c, c3))
	return c3, true
}

// singletonID maps a lowercase alphanumeric to a dense 0..35 index. The
// scanner only calls this after excluding 'x'/'X', so the reserved
// private-use prefix never collides with a real singleton.
func singletonID(lower byte) int {
	if lower >= '0' && lower <= '9' {
		return int(lower - '0')
	}
	return int(lower-'a') + 10
}

func (p *parser) scanExtension(c cursor) (cursor, bool) {
	if c.eos() || !isASCIIAlphanumeric(c.ch()) {
		return c, false
	}
	ch := c.ch()
	if ch == 'x' || ch == 'X' {
		return c, false
	}
	singleton := toLowerASCII(ch)
	id := singletonID(singleton)
	if p.seenSingleton[id] {
		return c, false
	}

	cur, value, ok := scanExtensionOrPrivateGroup(c.advance(), 2)
	if !ok {
		return c, false
	}
	values := []string{value}
	for {
		next, v, ok := scanExtensionOrPrivateGroup(cur, 2)
		if !ok {
			break
		}
		values = append(values, v)
		cur = next
	}

	p.seenSingleton[id] = true
	p.tag.Extensions[singleton] = append(p.tag.Extensions[singleton], values...)
	return cur, true
}

func (p *parser) scanPrivateUse(c cursor) (cursor, bool) {
	if c.eos() || (c.ch() != 'x' && c.ch() != 'X') {
		return c, false
	}
	cur, value, ok := scanExtensionOrPrivateGroup(c.advance(), 1)
	if !ok {
		return c, false
	}
	values := []string{value}
	for {
		next, v, ok := scanExtensionOrPrivateGroup(cur, 1)
		if !ok {
			break
		}
		values = append(values, v)
		cur = next
	}
	p.tag.PrivateUse = append(p.tag.PrivateUse, values...)
	return cur, true
}

// scanExtensionOrPrivateGroup scans one "-" (n*8alphanum) group shared by
// the extension and privateuse productions, which differ only in the
// minimum subtag length n (2 for extension, 1 for privateuse).
func scanExtensionOrPrivateGroup(c cursor, n int) (cursor, string, bool) {
	if c.eos() || c.ch() != '-' {
		return c, "", false
	}
	s := c.advance()
	c2, ok := s.expectAlphanum(n)
	if !ok {
		return c, "", false
	}
	c2 = c2.takeAlphanumUpTo(8 - n)
	if !c2.maybeValid() {
		return c, "", false
	}
	return c2, between(s, c2), true
}

// irregularGrandfathered and regularGrandfathered are RFC 5646 Appendix
// A's closed lists of tags that predate the langtag grammar.
var irregularGrandfathered = []string{
	"en-GB-oed",
	"i-ami",
	"i-bnn",
	"i-default",
	"i-enochian",
	"i-hak",
	"i-klingon",
	"i-lux",
	"i-mingo",
	"i-navajo",
	"i-pwn",
	"i-tao",
	"i-tay",
	"i-tsu",
	"sgn-BE-FR",
	"sgn-BE-NL",
	"sgn-CH-DE",
}

var regularGrandfathered = []string{
	"art-lojban",
	"cel-gaulish",
	"no-bok",
	"no-nyn",
	"zh-guoyu",
	"zh-hakka",
	"zh-min",
	"zh-min-nan",
	"zh-xiang",
}

func classifyGrandfathered(s string) (string, bool) {
	if containsFold(irregularGrandfathered, s) {
		return "irregular", true
	}
	if containsFold(regularGrandfathered, s) {
		return "regular", true
	}
	return "", false
}

func containsFold(table []string, s string) bool {
	for _, candidate := range table {
		if equalFoldASCII(candidate, s) {
			return true
		}
	}
	return false
}

func equalFoldASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if toLowerASCII(a[i]) != toLowerASCII(b[i]) {
			return false
		}
	}
	return true
}
