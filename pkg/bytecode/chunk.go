package bytecode

import (
	"suzaku/pkg/object"
	"suzaku/pkg/value"
)

// FunctionProto describes one compiled function: its own code, constant
// pool slice range, and register-file size. The (out-of-scope) IR
// lowering pass is the producer; everything downstream (the
// interpreter, the breaker JIT) only reads this.
//
// ChildFuncs holds the nested function prototypes OpClosure can
// instantiate (indexed directly, rather than through Consts: a
// FunctionProto is not a cell.Header-based heap value, so it has no
// value.Value encoding of its own). Upvalues describes how to capture
// each of *this* function's own free variables when a parent frame
// executes OpClosure against it -- one entry per UpvalCount, recording
// whether it comes from the parent's local register file or from the
// parent closure's own Upvalues slice.
type FunctionProto struct {
	Name           string
	Code           []Word
	Consts         []value.Value
	ChildFuncs     []*FunctionProto
	Upvalues       []UpvalDesc
	RegCount       int
	ParamCount     int
	UpvalCount     int
	ExceptionTable []ExceptionEntry
}

// UpvalDesc is one capture recipe in a FunctionProto.Upvalues list.
type UpvalDesc struct {
	FromParentLocal bool
	Index           int
}

// ExceptionEntry maps a [StartPC, EndPC) range to a handler PC, per
// §7's exception-table unwinding contract.
type ExceptionEntry struct {
	StartPC, EndPC, HandlerPC int
}

// Chunk is a loaded program: an entry function plus every function it
// (transitively) references, and the property-access cache sites the
// interpreter and breaker share.
type Chunk struct {
	Functions []*FunctionProto
	EntryFunc int
	Caches    []object.InlineCache
}

// NewCacheSite allocates a fresh inline-cache slot and returns its id,
// used by an assembler emitting OpGetProp/OpSetProp.
func (c *Chunk) NewCacheSite() int {
	c.Caches = append(c.Caches, object.InlineCache{})
	return len(c.Caches) - 1
}

// Assembler is a minimal linear bytecode builder: not the (out-of-scope)
// IR-lowering compiler, but enough scaffolding for the runtime library
// and tests to hand-assemble small chunks the way the teacher's own
// disassembler-adjacent test helpers do.
type Assembler struct {
	proto *FunctionProto
	// No list of jump patch sites is kept: a forward jump's delta slot
	// is filled in place by PatchJumpDelta once the target is known.
}

// NewAssembler starts building a function's code into proto.
func NewAssembler(proto *FunctionProto) *Assembler {
	return &Assembler{proto: proto}
}

// Emit appends one instruction, returning the pc it was placed at.
func (a *Assembler) Emit(op OpCode, args ...Reg) int {
	pc := len(a.proto.Code)
	a.proto.Code = Encode(a.proto.Code, op, args...)
	return pc
}

// Label returns the current pc, for computing a jump delta later.
func (a *Assembler) Label() int { return len(a.proto.Code) }

// PatchJumpDelta overwrites the delta operand (the instruction's last
// operand slot) of the jump instruction at pc so it targets `target`.
func (a *Assembler) PatchJumpDelta(pc, target int) {
	instr, next := Decode(a.proto.Code, pc)
	n := operandSlots[instr.Op]
	delta := uint16(Reg(target - next))

	last := n - 1
	if last == 0 {
		w := a.proto.Code[pc]
		a.proto.Code[pc] = makeWord(w.hi(), delta)
		return
	}
	// Slot i>=1 lives in word pc+1+(i-1)/2, high half if (i-1) is even.
	wordIdx := pc + 1 + (last-1)/2
	w := a.proto.Code[wordIdx]
	if (last-1)%2 == 0 {
		a.proto.Code[wordIdx] = makeWord(delta, w.lo())
	} else {
		a.proto.Code[wordIdx] = makeWord(w.hi(), delta)
	}
}

// AddConst appends a value to the constant pool and returns its index.
func (a *Assembler) AddConst(v value.Value) Reg {
	a.proto.Consts = append(a.proto.Consts, v)
	return Reg(len(a.proto.Consts) - 1)
}
