package jsstring

import (
	"unsafe"

	"suzaku/pkg/cell"
)

// Cord is a concatenation of two strings, materialized lazily. is8Bit is
// true iff every leaf beneath it is 8-bit; size is the sum of leaf
// sizes. Both are cached at construction so At/Len never walk the tree.
type Cord struct {
	cell.Header
	left, right unsafe.Pointer // *Fiber or *Cord
	leftKind    cell.Kind
	rightKind   cell.Kind
	size        int
	is8Bit      bool
	flat        *Fiber // set once Flatten has run; memoized
}

func newCord(left, right Str) *Cord {
	c := &Cord{
		left: left.ptr, leftKind: left.kind,
		right: right.ptr, rightKind: right.kind,
		size:   left.Len() + right.Len(),
		is8Bit: left.Is8Bit() && right.Is8Bit(),
	}
	c.Kind = cell.KindCord
	return c
}

// ScanEdges implements cell.Scanner: a cord's two children are its only
// outgoing edges (the memoized flat fiber, once set, is a third).
func (c *Cord) ScanEdges(visit func(*cell.Header)) {
	visit((*cell.Header)(c.left))
	visit((*cell.Header)(c.right))
	if c.flat != nil {
		visit(&c.flat.Header)
	}
}

// Str is a lightweight handle to either a *Fiber or a *Cord, used
// everywhere the string algorithms need to treat both uniformly without
// forcing a flatten.
type Str struct {
	ptr  unsafe.Pointer
	kind cell.Kind
}

// FromFiber wraps a flat fiber as a Str.
func FromFiber(f *Fiber) Str { return Str{ptr: unsafe.Pointer(f), kind: cell.KindFiber} }

// FromCord wraps a cord as a Str.
func FromCord(c *Cord) Str { return Str{ptr: unsafe.Pointer(c), kind: cell.KindCord} }

// NewFlat builds a Str directly from a Go string; construction from a
// character range always produces a flat fiber, never a cord.
func NewFlat(s string) Str { return FromFiber(NewFiberFromString(s)) }

// FromHeader recovers a Str from a cell header already known to be a
// fiber or cord (the caller has checked this via value.Value.Kind()).
// Used at the vm/value boundary, where a register holds the header and
// not a typed handle.
func FromHeader(h *cell.Header) Str { return Str{ptr: unsafe.Pointer(h), kind: h.Kind} }

// Header returns the underlying cell header, for boxing back into a
// value.Value via value.FromHeapPointer.
func (s Str) Header() *cell.Header { return (*cell.Header)(s.ptr) }

func (s Str) fiber() *Fiber { return (*Fiber)(s.ptr) }
func (s Str) cord() *Cord   { return (*Cord)(s.ptr) }

// IsCord reports whether this handle currently points at an unflattened cord.
func (s Str) IsCord() bool { return s.kind == cell.KindCord }

// Len returns the string's length in UTF-16 code units. O(1): a cord
// caches it at construction.
func (s Str) Len() int {
	if s.IsCord() {
		return s.cord().size
	}
	return s.fiber().Len()
}

// Is8Bit reports whether every code unit is representable in a byte.
func (s Str) Is8Bit() bool {
	if s.IsCord() {
		return s.cord().is8Bit
	}
	return s.fiber().Is8Bit()
}

// At returns the code unit at index i. O(depth) for a cord.
func (s Str) At(i int) uint16 {
	if !s.IsCord() {
		return s.fiber().At(i)
	}
	c := s.cord()
	left := Str{ptr: c.left, kind: c.leftKind}
	if i < left.Len() {
		return left.At(i)
	}
	right := Str{ptr: c.right, kind: c.rightKind}
	return right.At(i - left.Len())
}

// Concat builds a cord over a and b without copying either side.
func Concat(a, b Str) Str {
	if a.Len() == 0 {
		return b
	}
	if b.Len() == 0 {
		return a
	}
	return FromCord(newCord(a, b))
}

// Flatten materializes a single fiber for s, memoizing the result on a
// cord (replacing its children with the one leaf reference) so repeated
// flattening is idempotent and cheap. Flattening a fiber is a no-op.
func Flatten(s Str) *Fiber {
	if !s.IsCord() {
		return s.fiber()
	}
	c := s.cord()
	if c.flat != nil {
		return c.flat
	}
	units := make([]uint16, 0, c.size)
	collectUnits(s, &units)
	var f *Fiber
	if asciiOnly(units) && allLE(units, 0xFF) {
		b := make([]byte, len(units))
		for i, u := range units {
			b[i] = byte(u)
		}
		f = newFiber8(b)
	} else {
		f = newFiber16(units)
	}
	c.flat = f
	c.left, c.leftKind = unsafe.Pointer(f), cell.KindFiber
	c.right, c.rightKind = nil, 0
	return f
}

func allLE(units []uint16, max uint16) bool {
	for _, u := range units {
		if u > max {
			return false
		}
	}
	return true
}

func collectUnits(s Str, out *[]uint16) {
	if !s.IsCord() {
		f := s.fiber()
		if f.is8Bit {
			for _, b := range f.b8 {
				*out = append(*out, uint16(b))
			}
		} else {
			*out = append(*out, f.b16...)
		}
		return
	}
	c := s.cord()
	collectUnits(Str{ptr: c.left, kind: c.leftKind}, out)
	collectUnits(Str{ptr: c.right, kind: c.rightKind}, out)
}

// String renders s to a Go string, flattening first if needed.
func (s Str) String() string { return Flatten(s).String() }

// Equal compares two strings by content over their flattened views.
func Equal(a, b Str) bool {
	if a.Len() != b.Len() {
		return false
	}
	return Flatten(a).String() == Flatten(b).String()
}

// Less orders two strings by UTF-16 code-unit sequence, per ECMAScript
// string comparison.
func Less(a, b Str) bool {
	fa, fb := Flatten(a), Flatten(b)
	n := fa.Len()
	if fb.Len() < n {
		n = fb.Len()
	}
	for i := 0; i < n; i++ {
		if fa.At(i) != fb.At(i) {
			return fa.At(i) < fb.At(i)
		}
	}
	return fa.Len() < fb.Len()
}
