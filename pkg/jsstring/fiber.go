// Package jsstring implements the engine's string model: flat fibers and
// cords over them, a 16-bit builder, and the ECMAScript string
// algorithms (find/split/case conversion) built on top.
package jsstring

import (
	"suzaku/pkg/cell"
)

// Fiber is a flat, immutable run of character data: either 8-bit
// (Latin-1 superset of ASCII) or 16-bit (full UTF-16 code units).
type Fiber struct {
	cell.Header
	is8Bit bool
	b8     []byte
	b16    []uint16
}

func newFiber8(data []byte) *Fiber {
	f := &Fiber{is8Bit: true, b8: data}
	f.Kind = cell.KindFiber
	return f
}

func newFiber16(data []uint16) *Fiber {
	f := &Fiber{is8Bit: false, b16: data}
	f.Kind = cell.KindFiber
	return f
}

// Is8Bit reports whether every code unit fits in a byte.
func (f *Fiber) Is8Bit() bool { return f.is8Bit }

// Len returns the fiber's length in UTF-16 code units.
func (f *Fiber) Len() int {
	if f.is8Bit {
		return len(f.b8)
	}
	return len(f.b16)
}

// At returns the UTF-16 code unit at i.
func (f *Fiber) At(i int) uint16 {
	if f.is8Bit {
		return uint16(f.b8[i])
	}
	return f.b16[i]
}

// Units returns the fiber's contents as a []uint16 view, widening an
// 8-bit fiber on demand.
func (f *Fiber) Units() []uint16 {
	if !f.is8Bit {
		return f.b16
	}
	out := make([]uint16, len(f.b8))
	for i, b := range f.b8 {
		out[i] = uint16(b)
	}
	return out
}

// asciiOnly reports whether every code unit in units is <= 0x7F.
func asciiOnly(units []uint16) bool {
	for _, u := range units {
		if u > 0x7F {
			return false
		}
	}
	return true
}

// NewFiberFromRunes flattens a rune slice directly into the narrowest
// fiber representation that fits it losslessly.
func NewFiberFromRunes(rs []rune) *Fiber {
	units := make([]uint16, 0, len(rs))
	all8 := true
	for _, r := range rs {
		if r > 0xFFFF {
			hi, lo := utf16Encode(r)
			units = append(units, hi, lo)
			all8 = false
			continue
		}
		u := uint16(r)
		units = append(units, u)
		if u > 0xFF {
			all8 = false
		}
	}
	if all8 {
		b := make([]byte, len(units))
		for i, u := range units {
			b[i] = byte(u)
		}
		return newFiber8(b)
	}
	return newFiber16(units)
}

// NewFiberFromString flattens a Go (UTF-8) string into a fiber.
func NewFiberFromString(s string) *Fiber {
	return NewFiberFromRunes([]rune(s))
}

func utf16Encode(r rune) (hi, lo uint16) {
	r -= 0x10000
	return uint16(0xD800 + (r >> 10)), uint16(0xDC00 + (r & 0x3FF))
}

// String renders the fiber back to a Go string (decoding UTF-16 surrogate
// pairs where present).
func (f *Fiber) String() string {
	units := f.Units()
	runes := make([]rune, 0, len(units))
	for i := 0; i < len(units); i++ {
		u := units[i]
		if u >= 0xD800 && u <= 0xDBFF && i+1 < len(units) {
			lo := units[i+1]
			if lo >= 0xDC00 && lo <= 0xDFFF {
				r := (rune(u)-0xD800)<<10 + (rune(lo) - 0xDC00) + 0x10000
				runes = append(runes, r)
				i++
				continue
			}
		}
		runes = append(runes, rune(u))
	}
	return string(runes)
}

// ScanEdges implements cell.Scanner; a flat fiber owns no outgoing
// pointers into the managed heap.
func (f *Fiber) ScanEdges(visit func(*cell.Header)) {}
