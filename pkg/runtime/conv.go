package runtime

import (
	"math"
	"unsafe"

	"suzaku/pkg/cell"
	"suzaku/pkg/object"
	"suzaku/pkg/value"
	"suzaku/pkg/vm"
)

// argAt returns args[i], or undefined past the end -- every native
// below is written against the "missing trailing arguments read as
// undefined" convention ECMAScript calls use throughout.
func argAt(args []value.Value, i int) value.Value {
	if i < len(args) {
		return args[i]
	}
	return value.Undefined
}

func asObject(v value.Value) *object.PlainObject {
	h := v.HeapHeader()
	if h == nil || h.Kind != cell.KindObject {
		return nil
	}
	return (*object.PlainObject)(unsafe.Pointer(h))
}

func boxObject(o *object.PlainObject) value.Value {
	return value.FromHeapPointer(unsafe.Pointer(o))
}

// isCallable reports whether v can sit on the callee side of Realm.Call
// -- a bytecode closure or a native function -- the check
// replace/split's function-replacement path needs before invoking its
// second argument instead of treating it as a literal.
func isCallable(v value.Value) bool {
	h := v.HeapHeader()
	return h != nil && (h.Kind == cell.KindFunction || h.Kind == cell.KindNativeFunction)
}

// toInteger implements ECMAScript's ToInteger: NaN becomes 0, infinities
// pass through unclamped (callers clamp against the specific bound they
// care about, e.g. a string's length).
func toInteger(d float64) float64 {
	if math.IsNaN(d) {
		return 0
	}
	if math.IsInf(d, 0) {
		return d
	}
	return math.Trunc(d)
}

// intArg reads args[i] as an integer via ToNumber+ToInteger, substituting
// def when the argument is missing or undefined -- the shape every
// optional (start, length, count) parameter below needs.
func intArg(r *vm.Realm, args []value.Value, i int, def float64) float64 {
	a := argAt(args, i)
	if a.IsUndefined() {
		return def
	}
	return toInteger(r.ToNumber(a))
}
