// Package value implements the engine's tagged 64-bit word: the single
// representation that flows through every register, property slot, and
// constant pool entry in the rest of the engine.
package value

import (
	"math"
	"unsafe"

	"suzaku/pkg/cell"
)

// Value is a NaN-boxed 64-bit word. A Value is either a literal IEEE-754
// double bit pattern, or a tagged non-double variant packed into the
// payload space of the canonical quiet-NaN shape (sign=0, exponent=0x7FF,
// quiet bit set). Only that shape is reinterpreted; every other bit
// pattern -- every ordinary number and every NaN outside that shape --
// passes through encode/decode unchanged, and a NaN inside that shape is
// stored as the canonical NaN.
type Value uint64

// Tag occupies bits [50:48] of a canonicalNaN-shaped word; Payload is the
// low 48 bits, wide enough for an int32 or a masked heap pointer.
const (
	signBit     = uint64(1) << 63
	expMask     = uint64(0x7FF) << 52
	quietBit    = uint64(1) << 51
	nanShape    = expMask | quietBit // 0x7FF8000000000000
	tagShift    = 48
	tagMask3    = uint64(0x7) << tagShift
	payloadMask = (uint64(1) << tagShift) - 1
)

type tag uint64

const (
	tagNaN tag = iota // payload 0: the literal double NaN
	tagInt32
	tagBool
	tagNull
	tagUndefined
	tagEmpty     // engine-private: no value at all
	tagReference // engine-private: unresolved binding reference
	tagHeap      // string* or object* — pointer kind disambiguated by the cell header
)

func pack(t tag, payload uint64) Value {
	return Value(nanShape | (uint64(t) << tagShift) | (payload & payloadMask))
}

func (v Value) rawBits() uint64 { return uint64(v) }

func (v Value) isBoxed() bool {
	bits := v.rawBits()
	return bits&(signBit|expMask|quietBit) == (expMask | quietBit)
}

func (v Value) tag() tag {
	return tag((v.rawBits() & tagMask3) >> tagShift)
}

func (v Value) payload() uint64 {
	return v.rawBits() & payloadMask
}

// Kind enumerates the logical variants a script or the VM can observe.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindBool
	KindInt32
	KindDouble
	KindString
	KindObject
	KindEmpty
	KindReference
)

func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindInt32, KindDouble:
		return "number"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	case KindEmpty:
		return "empty"
	case KindReference:
		return "reference"
	default:
		return "unknown"
	}
}

var (
	Undefined = pack(tagUndefined, 0)
	Null      = pack(tagNull, 0)
	True      = pack(tagBool, 1)
	False     = pack(tagBool, 0)
	Empty     = pack(tagEmpty, 0)
	NaN       = pack(tagNaN, 0)
)

// Int32 boxes a 32-bit integer directly; no heap allocation.
func Int32(i int32) Value {
	return pack(tagInt32, uint64(uint32(i)))
}

// Double boxes a float64. Any bit pattern outside the canonical quiet-NaN
// shape passes through untouched; a NaN inside that shape (with or
// without payload bits) becomes the dedicated tagNaN value so it never
// collides with the tagged space.
func Double(d float64) Value {
	bits := math.Float64bits(d)
	if Value(bits).isBoxed() {
		return NaN
	}
	return Value(bits)
}

// Bool boxes a boolean.
func Bool(b bool) Value {
	if b {
		return True
	}
	return False
}

// FromHeapPointer boxes a pointer to a heap cell (string or object). The
// pointer's low 48 bits must be sufficient to reconstruct the address,
// true of every mainstream 64-bit platform's user address space.
func FromHeapPointer(p unsafe.Pointer) Value {
	return pack(tagHeap, uint64(uintptr(p)))
}

// Kind classifies the value for dispatch.
func (v Value) Kind() Kind {
	if !v.isBoxed() {
		return KindDouble
	}
	switch v.tag() {
	case tagNaN:
		return KindDouble
	case tagInt32:
		return KindInt32
	case tagBool:
		return KindBool
	case tagNull:
		return KindNull
	case tagUndefined:
		return KindUndefined
	case tagEmpty:
		return KindEmpty
	case tagReference:
		return KindReference
	case tagHeap:
		if isStringKind(v.heapHeader().Kind) {
			return KindString
		}
		return KindObject
	default:
		return KindUndefined
	}
}

func isStringKind(k cell.Kind) bool {
	return k == cell.KindFiber || k == cell.KindCord
}

func (v Value) heapPointer() unsafe.Pointer {
	return unsafe.Pointer(uintptr(v.payload()))
}

func (v Value) heapHeader() *cell.Header {
	return (*cell.Header)(v.heapPointer())
}

// IsInt32, IsDouble, ... are the narrow predicates the VM's fast paths
// guard on before trusting a register's tag.
func (v Value) IsInt32() bool     { return v.isBoxed() && v.tag() == tagInt32 }
func (v Value) IsNumber() bool    { return v.Kind() == KindInt32 || v.Kind() == KindDouble }
func (v Value) IsUndefined() bool { return v.isBoxed() && v.tag() == tagUndefined }
func (v Value) IsNull() bool      { return v.isBoxed() && v.tag() == tagNull }
func (v Value) IsNullish() bool   { return v.IsNull() || v.IsUndefined() }
func (v Value) IsBool() bool      { return v.isBoxed() && v.tag() == tagBool }
func (v Value) IsEmpty() bool     { return v.isBoxed() && v.tag() == tagEmpty }
func (v Value) IsReference() bool { return v.isBoxed() && v.tag() == tagReference }
func (v Value) IsHeap() bool      { return v.isBoxed() && v.tag() == tagHeap }
func (v Value) IsString() bool    { return v.IsHeap() && isStringKind(v.heapHeader().Kind) }
func (v Value) IsObjectRef() bool { return v.IsHeap() && !isStringKind(v.heapHeader().Kind) }

// AsInt32 extracts the boxed int32 payload; callers must have checked
// IsInt32 first (the VM's fast paths always do, via a tag guard).
func (v Value) AsInt32() int32 {
	return int32(uint32(v.payload()))
}

// AsDouble extracts the float64, boxing int32 up if needed.
func (v Value) AsDouble() float64 {
	if v.IsInt32() {
		return float64(v.AsInt32())
	}
	if v.isBoxed() && v.tag() == tagNaN {
		return math.NaN()
	}
	return math.Float64frombits(v.rawBits())
}

// AsBool extracts the boxed boolean.
func (v Value) AsBool() bool {
	return v.payload() != 0
}

// HeapPointer returns the raw pointer for string/object values.
func (v Value) HeapPointer() unsafe.Pointer {
	return v.heapPointer()
}

// HeapHeader returns the cell header for a heap-boxed value, or nil for
// any non-heap kind. Lets other packages (object, vm) walk cell edges
// and classify payloads without reaching into this package's tag bits.
func (v Value) HeapHeader() *cell.Header {
	if !v.IsHeap() {
		return nil
	}
	return v.heapHeader()
}

// ToBoolean implements ECMAScript ToBoolean for the kinds Value can hold
// directly; string/object emptiness is resolved by callers that have
// the jsstring/object package available (avoiding an import cycle here).
func (v Value) ToBoolean(stringIsEmpty, objectIsNil func(Value) bool) bool {
	switch v.Kind() {
	case KindUndefined, KindNull:
		return false
	case KindBool:
		return v.AsBool()
	case KindInt32:
		return v.AsInt32() != 0
	case KindDouble:
		d := v.AsDouble()
		return d != 0 && !math.IsNaN(d)
	case KindString:
		return stringIsEmpty == nil || !stringIsEmpty(v)
	case KindObject:
		return objectIsNil == nil || !objectIsNil(v)
	default:
		return false
	}
}

// SameValueZero is used for hashing and Map/Set identity: like strict
// equality except NaN equals NaN and +0 equals -0 remains true (both
// treated as 0 here since we don't distinguish signed zero payloads).
func SameValueZero(a, b Value) bool {
	if a.Kind() == KindDouble && b.Kind() == KindDouble {
		ad, bd := a.AsDouble(), b.AsDouble()
		if math.IsNaN(ad) && math.IsNaN(bd) {
			return true
		}
		return ad == bd
	}
	return StrictEquals(a, b, nil)
}

// StrictEquals implements ECMAScript ===. stringEquals compares string
// payloads by content; pass nil to fall back to pointer identity only
// (acceptable for non-string comparisons).
func StrictEquals(a, b Value, stringEquals func(Value, Value) bool) bool {
	ak, bk := a.Kind(), b.Kind()
	if ak != bk {
		// int32 vs double both present as "number" to scripts.
		if (ak == KindInt32 || ak == KindDouble) && (bk == KindInt32 || bk == KindDouble) {
			return numEquals(a, b)
		}
		return false
	}
	switch ak {
	case KindUndefined, KindNull, KindEmpty:
		return true
	case KindBool:
		return a.AsBool() == b.AsBool()
	case KindInt32, KindDouble:
		return numEquals(a, b)
	case KindString:
		if stringEquals != nil {
			return stringEquals(a, b)
		}
		return a.heapPointer() == b.heapPointer()
	case KindObject:
		return a.heapPointer() == b.heapPointer()
	default:
		return false
	}
}

func numEquals(a, b Value) bool {
	ad, bd := numAsDouble(a), numAsDouble(b)
	return ad == bd
}

func numAsDouble(v Value) float64 {
	if v.IsInt32() {
		return float64(v.AsInt32())
	}
	return v.AsDouble()
}

// HashBits returns a stable hash key for non-string values: the bit
// pattern for numbers/bools/singletons, the pointer for objects. String
// hashing is content-based and lives in jsstring, per spec §3.
func (v Value) HashBits() uint64 {
	switch v.Kind() {
	case KindObject:
		return uint64(uintptr(v.heapPointer()))
	default:
		return v.rawBits()
	}
}
