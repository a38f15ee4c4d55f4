// Package vm implements the register-based bytecode interpreter: the
// Realm (call stack, register file, globals, GC roots) and the
// dispatch loop that drives a Chunk to completion.
package vm

import (
	"log/slog"
	"unsafe"

	"github.com/google/uuid"

	"suzaku/pkg/cell"
	"suzaku/pkg/object"
	"suzaku/pkg/value"
)

// globalSlot is one entry in the flat global-variable table OpGetGlobal
// and OpSetGlobal index into directly by position, sidestepping the
// shape/inline-cache machinery §4.3 describes for ordinary objects:
// globals are a fixed table set up once at load time, not a growing
// property bag.
type globalSlot struct {
	name  string
	value value.Value
}

// Realm is one isolated execution context: its own register stack, call
// stack, global table, symbol table, and heap. Two Realms share no
// mutable state, per §5's "no two executions share mutable state".
type Realm struct {
	ID uuid.UUID

	frames     [MaxFrames]Frame
	frameCount int

	registerStack [RegFileSize * MaxFrames]value.Value
	nextRegSlot   int

	openUpvalues []*Upvalue

	globals     []globalSlot
	globalNames map[string]int

	symbols map[string]*object.Symbol

	heap *cell.Heap
	Log  *slog.Logger

	// StringProto backs property lookup on string primitives (obj.IsString()
	// in getProp): strings have no Shape of their own, so method dispatch
	// walks this one shared prototype instead of the usual shape chain.
	// Nil until pkg/runtime.Install wires it up; lookups against a nil
	// StringProto just report undefined, same as an empty prototype would.
	StringProto *object.PlainObject
}

// NewRealm creates an empty realm with its heap and root scanner wired
// up. Passing a nil logger falls back to slog.Default(), matching how
// the teacher's cmd/paserati wires an optional logger through to the
// interpreter.
func NewRealm(log *slog.Logger) *Realm {
	if log == nil {
		log = slog.Default()
	}
	r := &Realm{
		ID:          uuid.New(),
		globalNames: make(map[string]int),
		symbols:     make(map[string]*object.Symbol),
		Log:         log,
	}
	r.heap = cell.NewHeap(r.edgesOf)
	r.heap.AddRoot(r.collectRoots)
	return r
}

// edgesOf dispatches a cell header to its payload's ScanEdges, the
// generic tracer cell.Heap needs. Only objects and closures are traced;
// fibers and natives have no edges, and a cord's children are not
// traced here.
func (r *Realm) edgesOf(h *cell.Header) []*cell.Header {
	var out []*cell.Header
	visit := func(e *cell.Header) { out = append(out, e) }
	switch h.Kind {
	case cell.KindObject:
		(*object.PlainObject)(unsafe.Pointer(h)).ScanEdges(visit)
	case cell.KindFunction:
		(*Closure)(unsafe.Pointer(h)).ScanEdges(visit)
	}
	return out
}

// collectRoots is the Realm's cell.RootFunc: every live register across
// every active frame, every global, and every open upvalue's current
// location, per §4.1's "roots: VM stack, globals, intern tables".
// Interned symbols are plain Go structs (not cell-headed), so Go's own
// GC already keeps them alive via the symbols map; they need no entry
// here.
func (r *Realm) collectRoots(out []*cell.Header) []*cell.Header {
	for i := 0; i < r.nextRegSlot; i++ {
		if h := r.registerStack[i].HeapHeader(); h != nil {
			out = append(out, h)
		}
	}
	for _, g := range r.globals {
		if h := g.value.HeapHeader(); h != nil {
			out = append(out, h)
		}
	}
	for _, uv := range r.openUpvalues {
		if h := uv.get().HeapHeader(); h != nil {
			out = append(out, h)
		}
	}
	return out
}

// Collect runs one stop-the-world mark-sweep pass. Ordinary objects,
// closures, and strings ride on Go's own garbage collector -- cell.Heap
// exists so kinds that wrap a resource Go's collector doesn't know how
// to release (a breaker JIT code buffer's mmap'd pages, an aero
// compiled-regex native entry point) can register a destructor-bearing
// Pool here; nothing does yet, so today this call is cheap but not a
// no-op forever. The embedder calls this between top-level script
// calls, never mid-interpretation, per §5's handle-abstraction note.
func (r *Realm) Collect() { r.heap.Collect() }

// HeapStats reports per-kind live counts and the collection count, the
// census pkg/engine logs after a GC cycle and cmd/enginecli's stats
// subcommand prints.
func (r *Realm) HeapStats() cell.Stats { return r.heap.Stats() }

// DefineGlobal creates or overwrites a global by name, returning its
// stable index for OpGetGlobal/OpSetGlobal to address directly.
func (r *Realm) DefineGlobal(name string, v value.Value) int {
	if idx, ok := r.globalNames[name]; ok {
		r.globals[idx].value = v
		return idx
	}
	idx := len(r.globals)
	r.globals = append(r.globals, globalSlot{name: name, value: v})
	r.globalNames[name] = idx
	return idx
}

// GlobalIndex resolves a global's name to its table index.
func (r *Realm) GlobalIndex(name string) (int, bool) {
	idx, ok := r.globalNames[name]
	return idx, ok
}

func (r *Realm) getGlobal(idx int) value.Value    { return r.globals[idx].value }
func (r *Realm) setGlobal(idx int, v value.Value) { r.globals[idx].value = v }

// Intern returns this realm's Symbol for name, creating it on first
// use. Two calls with the same name always return the same *Symbol, the
// invariant PropertyKey.Equal relies on for symbol-keyed properties.
func (r *Realm) Intern(name string) *object.Symbol {
	if s, ok := r.symbols[name]; ok {
		return s
	}
	s := &object.Symbol{Name: name, Description: name}
	r.symbols[name] = s
	return s
}

// RegisterNative wires a Go function into the realm as a callable global,
// per §6's "register native function" embedding surface.
func (r *Realm) RegisterNative(name string, fn NativeFn) value.Value {
	n := newNative(name, fn)
	v := value.FromHeapPointer(unsafe.Pointer(n))
	r.DefineGlobal(name, v)
	return v
}

// Call implements object.Invoker: PlainObject.Get/Set dispatch accessor
// getters/setters through this, and it is also the entry point an
// embedder or a native function uses to invoke a script function value.
func (r *Realm) Call(fn, this value.Value, args []value.Value) (value.Value, error) {
	return r.invoke(fn, this, args)
}

var _ object.Invoker = (*Realm)(nil)

func (r *Realm) invoke(fn, this value.Value, args []value.Value) (value.Value, error) {
	h := fn.HeapHeader()
	if h == nil || !isCallableKind(h.Kind) {
		return value.Undefined, r.scriptErrorf("TypeError: value is not a function")
	}
	if h.Kind == cell.KindNativeFunction {
		n := (*Native)(unsafe.Pointer(h))
		return n.Fn(r, this, args)
	}
	c := (*Closure)(unsafe.Pointer(h))
	idx, err := r.pushFrame(c, this, args)
	if err != nil {
		return value.Undefined, err
	}
	var result value.Value
	if c.Compiled != nil {
		result, err = c.Compiled(r, &r.frames[idx])
	} else {
		result, err = r.runFrame(idx)
	}
	r.popFrame()
	return result, err
}
