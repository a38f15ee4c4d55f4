package jsstring

// Builder accumulates characters, ASCII runs, and other strings before
// producing a flat fiber. Unlike Concat, a Builder never allocates a
// cord -- every append is a copy into a growing 16-bit buffer -- so it's
// the right tool when the final string's pieces are small and numerous
// (template interpolation, String.prototype.repeat, JSON.stringify).
type Builder struct {
	units []uint16
}

// NewBuilder returns an empty builder, optionally pre-sized.
func NewBuilder(capacityHint int) *Builder {
	return &Builder{units: make([]uint16, 0, capacityHint)}
}

// WriteRune appends one code point, expanding it to a UTF-16 surrogate
// pair in place when it doesn't fit in one code unit.
func (b *Builder) WriteRune(r rune) {
	if r > 0xFFFF {
		hi, lo := utf16Encode(r)
		b.units = append(b.units, hi, lo)
		return
	}
	b.units = append(b.units, uint16(r))
}

// WriteASCII appends a run known to be pure ASCII; slightly cheaper than
// WriteString since no surrogate-pair check is needed.
func (b *Builder) WriteASCII(s string) {
	for i := 0; i < len(s); i++ {
		b.units = append(b.units, uint16(s[i]))
	}
}

// WriteString appends an arbitrary UTF-8 Go string.
func (b *Builder) WriteString(s string) {
	for _, r := range s {
		b.WriteRune(r)
	}
}

// WriteUnit appends one raw UTF-16 code unit verbatim (used when copying
// from an existing Str, to preserve unpaired surrogates exactly).
func (b *Builder) WriteUnit(u uint16) {
	b.units = append(b.units, u)
}

// WriteStr appends the code units of an existing string.
func (b *Builder) WriteStr(s Str) {
	f := Flatten(s)
	if f.is8Bit {
		for _, c := range f.b8 {
			b.units = append(b.units, uint16(c))
		}
		return
	}
	b.units = append(b.units, f.b16...)
}

// Len reports the number of UTF-16 units written so far.
func (b *Builder) Len() int { return len(b.units) }

// Build produces a flat fiber from everything appended so far. When
// is8BitHint is false but every appended unit happens to be <= 0x7F, the
// builder still emits 8-bit storage -- hint is advisory, not binding.
func (b *Builder) Build(is8BitHint bool) Str {
	if len(b.units) == 0 {
		return NewFlat("")
	}
	if is8BitHint || asciiOnly(b.units) {
		if allLE(b.units, 0xFF) {
			buf := make([]byte, len(b.units))
			for i, u := range b.units {
				buf[i] = byte(u)
			}
			return FromFiber(newFiber8(buf))
		}
	}
	buf := make([]uint16, len(b.units))
	copy(buf, b.units)
	return FromFiber(newFiber16(buf))
}

// Reset clears the builder for reuse.
func (b *Builder) Reset() { b.units = b.units[:0] }
