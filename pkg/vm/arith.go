package vm

import (
	"math"
	"strconv"
	"strings"
	"unsafe"

	"suzaku/pkg/jsstring"
	"suzaku/pkg/value"
)

// ToJSString is the coercion pkg/runtime's natives lean on for argument
// handling, the same way the teacher's builtins package calls back into
// vm for conversions rather than re-implementing them. ToNumber already
// has an exported re-export in jitsupport.go.
func (r *Realm) ToJSString(v value.Value) jsstring.Str { return r.toJSString(v) }

// NewStringValue boxes a jsstring.Str as a Value, the runtime-library
// counterpart to NewNativeValue for wiring a computed string back into
// script-visible form.
func NewStringValue(s jsstring.Str) value.Value {
	return value.FromHeapPointer(unsafe.Pointer(s.Header()))
}

// toNumber implements ECMAScript ToNumber for the kinds reachable
// without invoking user code (no valueOf/Symbol.toPrimitive dispatch --
// that needs the runtime library's object coercion protocol, out of
// scope for the core arithmetic path).
func (r *Realm) toNumber(v value.Value) float64 {
	switch v.Kind() {
	case value.KindInt32:
		return float64(v.AsInt32())
	case value.KindDouble:
		return v.AsDouble()
	case value.KindBool:
		if v.AsBool() {
			return 1
		}
		return 0
	case value.KindNull:
		return 0
	case value.KindString:
		s := strings.TrimSpace(jsstring.FromHeader(v.HeapHeader()).String())
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

// toJSString implements a practical subset of ECMAScript ToString:
// every primitive kind, plus a fixed "[object Object]" for objects
// (full Symbol.toPrimitive / toString method dispatch belongs to the
// runtime library's object protocol, not the VM's arithmetic fast path).
func (r *Realm) toJSString(v value.Value) jsstring.Str {
	switch v.Kind() {
	case value.KindString:
		return jsstring.FromHeader(v.HeapHeader())
	case value.KindUndefined:
		return jsstring.NewFlat("undefined")
	case value.KindNull:
		return jsstring.NewFlat("null")
	case value.KindBool:
		if v.AsBool() {
			return jsstring.NewFlat("true")
		}
		return jsstring.NewFlat("false")
	case value.KindInt32, value.KindDouble:
		return jsstring.NewFlat(formatNumber(r.toNumber(v)))
	case value.KindObject:
		return jsstring.NewFlat("[object Object]")
	default:
		return jsstring.NewFlat("")
	}
}

// formatNumber renders a float64 the way ECMAScript's Number::toString
// does for the finite, non-exponential common case: shortest round-trip
// decimal, grounded on original_source/'s Grisu-style dtoa usage (see
// DESIGN.md) but implemented via strconv's shortest-form encoder.
func formatNumber(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	if math.IsInf(f, 1) {
		return "Infinity"
	}
	if math.IsInf(f, -1) {
		return "-Infinity"
	}
	if f == 0 {
		return "0"
	}
	if a := math.Abs(f); a >= 1e-6 && a < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// binaryAdd implements `+`: numeric addition with int32 overflow
// widening to double when both operands are already int32, string
// concatenation when either operand is a string, numeric coercion
// otherwise -- per §4.4's "generic runtime stub ... string
// concatenation for +".
func (r *Realm) binaryAdd(lhs, rhs value.Value) value.Value {
	if lhs.IsInt32() && rhs.IsInt32() {
		sum := int64(lhs.AsInt32()) + int64(rhs.AsInt32())
		if sum == int64(int32(sum)) {
			return value.Int32(int32(sum))
		}
		return value.Double(float64(sum))
	}
	if lhs.IsString() || rhs.IsString() {
		return stringValue(jsstring.Concat(r.toJSString(lhs), r.toJSString(rhs)))
	}
	return value.Double(r.toNumber(lhs) + r.toNumber(rhs))
}

func (r *Realm) binarySub(lhs, rhs value.Value) value.Value {
	if lhs.IsInt32() && rhs.IsInt32() {
		diff := int64(lhs.AsInt32()) - int64(rhs.AsInt32())
		if diff == int64(int32(diff)) {
			return value.Int32(int32(diff))
		}
		return value.Double(float64(diff))
	}
	return value.Double(r.toNumber(lhs) - r.toNumber(rhs))
}

func (r *Realm) binaryMul(lhs, rhs value.Value) value.Value {
	if lhs.IsInt32() && rhs.IsInt32() {
		prod := int64(lhs.AsInt32()) * int64(rhs.AsInt32())
		if prod == int64(int32(prod)) {
			return value.Int32(int32(prod))
		}
		return value.Double(float64(prod))
	}
	return value.Double(r.toNumber(lhs) * r.toNumber(rhs))
}

func (r *Realm) binaryDiv(lhs, rhs value.Value) value.Value {
	a, b := r.toNumber(lhs), r.toNumber(rhs)
	q := a / b
	if lhs.IsInt32() && rhs.IsInt32() && q == math.Trunc(q) && q >= math.MinInt32 && q <= math.MaxInt32 {
		return value.Int32(int32(q))
	}
	return value.Double(q)
}

func (r *Realm) binaryMod(lhs, rhs value.Value) value.Value {
	if lhs.IsInt32() && rhs.IsInt32() && rhs.AsInt32() != 0 {
		return value.Int32(lhs.AsInt32() % rhs.AsInt32())
	}
	return value.Double(math.Mod(r.toNumber(lhs), r.toNumber(rhs)))
}

// toInt32 implements ToInt32 for the bitwise/shift operators: defined
// (0 for non-finite) over the full double range, not just the int32
// fast-path operands.
func (r *Realm) toInt32(v value.Value) int32 {
	if v.IsInt32() {
		return v.AsInt32()
	}
	f := r.toNumber(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	f = math.Mod(math.Trunc(f), 4294967296)
	return int32(uint32(int64(f)))
}

func (r *Realm) toUint32(v value.Value) uint32 {
	return uint32(r.toInt32(v))
}

// boxUint32 boxes the uint32 result of >>> per §4.5's "high bit set must
// be boxed as a double" rule: unlike the other bitwise ops, >>>'s result
// is never negative, so the int32 fast path only applies below 2^31.
func boxUint32(u uint32) value.Value {
	if u > math.MaxInt32 {
		return value.Double(float64(u))
	}
	return value.Int32(int32(u))
}

// lessThan implements the relational operators' common core: numeric
// comparison when both operands are numbers, lexicographic UTF-16
// comparison when both are strings, numeric coercion otherwise -- per
// ECMAScript's abstract relational comparison, minus BigInt.
func (r *Realm) lessThan(lhs, rhs value.Value) bool {
	if lhs.IsString() && rhs.IsString() {
		return jsstring.Less(jsstring.FromHeader(lhs.HeapHeader()), jsstring.FromHeader(rhs.HeapHeader()))
	}
	a, b := r.toNumber(lhs), r.toNumber(rhs)
	if math.IsNaN(a) || math.IsNaN(b) {
		return false
	}
	return a < b
}

// looseEquals implements ECMAScript's `==` for the kinds reachable
// without Symbol.toPrimitive dispatch (no object-to-primitive
// coercion rule here -- the runtime library's valueOf/toString
// protocol is out of scope for this core comparison path).
func (r *Realm) looseEquals(lhs, rhs value.Value) bool {
	lk, rk := lhs.Kind(), rhs.Kind()
	if lk == rk || (isNumeric(lk) && isNumeric(rk)) {
		return r.strictEquals(lhs, rhs)
	}
	if lhs.IsNullish() && rhs.IsNullish() {
		return true
	}
	if lhs.IsNullish() || rhs.IsNullish() {
		return false
	}
	if isNumeric(lk) && rk == value.KindString {
		return r.toNumber(lhs) == r.toNumber(rhs)
	}
	if lk == value.KindString && isNumeric(rk) {
		return r.toNumber(lhs) == r.toNumber(rhs)
	}
	if lk == value.KindBool {
		return r.looseEquals(value.Double(r.toNumber(lhs)), rhs)
	}
	if rk == value.KindBool {
		return r.looseEquals(lhs, value.Double(r.toNumber(rhs)))
	}
	return false
}

func isNumeric(k value.Kind) bool { return k == value.KindInt32 || k == value.KindDouble }

func (r *Realm) strictEquals(lhs, rhs value.Value) bool {
	return value.StrictEquals(lhs, rhs, func(a, b value.Value) bool {
		return jsstring.Equal(jsstring.FromHeader(a.HeapHeader()), jsstring.FromHeader(b.HeapHeader()))
	})
}

func stringValue(s jsstring.Str) value.Value {
	return value.FromHeapPointer(unsafe.Pointer(s.Header()))
}
