package vm

import (
	"suzaku/pkg/bytecode"
	"suzaku/pkg/value"
)

// The exported methods in this file are the "generic runtime stub" §4.5
// describes the breaker JIT falling back to whenever a fast path's
// guard fails or doesn't apply: plain re-exports of the interpreter's
// own coercion/arithmetic helpers, so a compiled function produces
// exactly the interpreter's result on the slow path (§8 Testable
// Property 5) instead of a second, divergent implementation.

func (r *Realm) Add(lhs, rhs value.Value) value.Value  { return r.binaryAdd(lhs, rhs) }
func (r *Realm) Sub(lhs, rhs value.Value) value.Value  { return r.binarySub(lhs, rhs) }
func (r *Realm) Mul(lhs, rhs value.Value) value.Value  { return r.binaryMul(lhs, rhs) }
func (r *Realm) Div(lhs, rhs value.Value) value.Value  { return r.binaryDiv(lhs, rhs) }
func (r *Realm) Mod(lhs, rhs value.Value) value.Value  { return r.binaryMod(lhs, rhs) }
func (r *Realm) Negate(v value.Value) value.Value      { return r.negate(v) }
func (r *Realm) Truthy(v value.Value) bool             { return r.truthy(v) }
func (r *Realm) ToNumber(v value.Value) float64        { return r.toNumber(v) }
func (r *Realm) ToInt32(v value.Value) int32           { return r.toInt32(v) }
func (r *Realm) ToUint32(v value.Value) uint32         { return r.toUint32(v) }

// BoxUint32 re-exports the >>> result-boxing rule (arith.go) so the
// breaker JIT's OpUShr fast path boxes identically to the interpreter's.
func BoxUint32(u uint32) value.Value { return boxUint32(u) }
func (r *Realm) LessThan(lhs, rhs value.Value) bool    { return r.lessThan(lhs, rhs) }
func (r *Realm) LooseEquals(lhs, rhs value.Value) bool { return r.looseEquals(lhs, rhs) }
func (r *Realm) StrictEquals(lhs, rhs value.Value) bool { return r.strictEquals(lhs, rhs) }
func (r *Realm) TypeOf(v value.Value) string            { return r.typeOf(v) }

// GetIndex, SetIndex, GetProp, SetProp, DeleteProp, HasProperty, and
// InstanceOf re-export the same object-model entry points OpGetIndex/
// OpSetIndex/OpGetProp/.../OpInstanceof use, so compiled code reaches
// the identical inline-cache sites as the interpreter rather than a
// parallel property-access path.
func (r *Realm) GetIndex(arr, idx value.Value) (value.Value, error) { return r.getIndexed(arr, idx) }
func (r *Realm) SetIndex(arr, idx, v value.Value) error             { return r.setIndexed(arr, idx, v) }

func (r *Realm) GetProp(c *Closure, obj, nameConst value.Value, cacheSite int) (value.Value, error) {
	return r.getProp(c, obj, nameConst, cacheSite)
}

func (r *Realm) SetProp(c *Closure, obj, v, nameConst value.Value, cacheSite int) error {
	return r.setProp(c, obj, v, nameConst, cacheSite)
}

func (r *Realm) DeleteProp(obj, nameConst value.Value) bool { return r.deleteProp(obj, nameConst) }

func (r *Realm) HasProperty(obj, key value.Value) (bool, error) { return r.hasProperty(obj, key) }

func (r *Realm) InstanceOf(obj, ctor value.Value) (bool, error) { return r.instanceOf(obj, ctor) }

// Invoke re-exports the same call path OpCall/OpCallThis use, so
// compiled code's own call instructions recurse through the identical
// invoke/pushFrame/runFrame-or-Compiled machinery as the interpreter.
func (r *Realm) Invoke(fn, this value.Value, args []value.Value) (value.Value, error) {
	return r.invoke(fn, this, args)
}

// GetGlobal, SetGlobal, and MakeClosure re-export the remaining
// frame-local operations OpGetGlobal/OpSetGlobal/OpClosure use.
func (r *Realm) GetGlobal(idx int) value.Value    { return r.getGlobal(idx) }
func (r *Realm) SetGlobal(idx int, v value.Value) { r.setGlobal(idx, v) }

func (r *Realm) MakeClosure(f *Frame, child *bytecode.FunctionProto) *Closure {
	return r.makeClosure(f, child)
}

// NewClosure constructs a top-level Closure for proto directly, for an
// embedder (or pkg/breaker's own tests) that holds a FunctionProto
// without having gone through OpClosure -- the same constructor
// Interpret uses for a chunk's entry function.
func NewClosure(proto *bytecode.FunctionProto, chunk *bytecode.Chunk, upvalues []*Upvalue) *Closure {
	return newClosure(proto, chunk, upvalues)
}

// IsEngineError and ErrorToValue re-export the two-layer error model
// (errors.go) so a compiled function's own exception-table handling
// matches runFrame's exactly: engine faults always bubble out
// uncaught, script throws hand their payload to the handler.
func IsEngineError(err error) bool       { return isEngineError(err) }
func ErrorToValue(err error) value.Value { return errorToValue(err) }

// ThrowScriptValue boxes v as a catchable script error, the same
// outcome a native function reaches by calling the unexported
// throwValue directly from inside pkg/vm.
func (r *Realm) ThrowScriptValue(v value.Value) error { return r.throwValue(v) }
