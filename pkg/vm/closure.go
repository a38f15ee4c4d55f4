package vm

import (
	"unsafe"

	"suzaku/pkg/bytecode"
	"suzaku/pkg/cell"
	"suzaku/pkg/value"
)

// isCallableKind reports whether a cell header's Kind denotes something
// that can sit on the callee side of OpCall: a Closure or a Native.
// Closures and natives get distinct cell.Kind values (rather than one
// KindFunction shared between two differently-shaped Go types) because
// the heap keeps exactly one size-class pool per Kind.
func isCallableKind(k cell.Kind) bool {
	return k == cell.KindFunction || k == cell.KindNativeFunction
}

// Upvalue is a captured free variable, open while the defining frame's
// register window is still live and closed once that frame returns.
type Upvalue struct {
	location *value.Value // points into some frame's register window while open
	closed   value.Value
}

func (u *Upvalue) get() value.Value {
	if u.location != nil {
		return *u.location
	}
	return u.closed
}

func (u *Upvalue) set(v value.Value) {
	if u.location != nil {
		*u.location = v
		return
	}
	u.closed = v
}

func (u *Upvalue) close() {
	if u.location != nil {
		u.closed = *u.location
		u.location = nil
	}
}

// Get and Set expose an Upvalue's current value to pkg/breaker, which
// cannot reach the unexported get/set the interpreter itself uses.
func (u *Upvalue) Get() value.Value    { return u.get() }
func (u *Upvalue) Set(v value.Value)   { u.set(v) }

// Closure is a heap cell pairing a compiled FunctionProto with the
// upvalues it captured at creation time, per §3's "cyclic ownership"
// design note: a closure can point into an environment a GC'd object
// also reaches, so it's a cell the collector traces like any other.
// CompiledFunc is a breaker-JIT-compiled function body: same observable
// behavior as running Proto's bytecode through the interpreter (§8
// Testable Property 5), installed on a Closure in place of a trip
// through runFrame. pkg/breaker produces these; pkg/vm only calls one
// when a Closure already carries it.
type CompiledFunc func(r *Realm, f *Frame) (value.Value, error)

type Closure struct {
	cell.Header
	Proto    *bytecode.FunctionProto
	Chunk    *bytecode.Chunk // owning chunk, for the shared inline-cache sites GetProp/SetProp index into
	Upvalues []*Upvalue
	Compiled CompiledFunc // nil until pkg/breaker installs a native entry point for Proto
}

func newClosure(proto *bytecode.FunctionProto, chunk *bytecode.Chunk, upvalues []*Upvalue) *Closure {
	return &Closure{
		Header:   cell.Header{Kind: cell.KindFunction},
		Proto:    proto,
		Chunk:    chunk,
		Upvalues: upvalues,
	}
}

// ScanEdges traces every upvalue's current value so closed-over heap
// objects stay reachable independent of their original frame.
func (c *Closure) ScanEdges(visit func(*cell.Header)) {
	for _, uv := range c.Upvalues {
		if h := uv.get().HeapHeader(); h != nil {
			visit(h)
		}
	}
}

// NativeFn is a host function wired into the VM via Realm.RegisterNative
// or NewNativeValue.
type NativeFn func(realm *Realm, this value.Value, args []value.Value) (value.Value, error)

// Native is a heap cell wrapping a Go function so it can be boxed into
// a Value and called the same way a bytecode closure is.
type Native struct {
	cell.Header
	Name string
	Fn   NativeFn
}

func newNative(name string, fn NativeFn) *Native {
	return &Native{
		Header: cell.Header{Kind: cell.KindNativeFunction},
		Name:   name,
		Fn:     fn,
	}
}

func (n *Native) ScanEdges(func(*cell.Header)) {}

// NewNativeValue boxes a Go function as a callable Value without also
// installing it as a global, the shape pkg/runtime needs to hang
// natives off a prototype object (String.prototype.replace and
// friends) rather than the global table RegisterNative writes into.
func NewNativeValue(name string, fn NativeFn) value.Value {
	return value.FromHeapPointer(unsafe.Pointer(newNative(name, fn)))
}

// NewClosureValue boxes a Closure as a callable Value, the counterpart
// to NewNativeValue for handing a freshly assembled closure -- e.g. one
// pkg/engine builds from a loaded bytecode.CacheFile -- back to a
// caller that only deals in value.Value, such as Realm.Call.
func NewClosureValue(c *Closure) value.Value {
	return value.FromHeapPointer(unsafe.Pointer(c))
}
