// Package bytecode defines the register-VM instruction format: 32-bit
// words, an opcode table, and the chunk (code + constant pool) the
// interpreter and the breaker JIT both consume.
package bytecode

// OpCode identifies one VM instruction, per §4.4.
type OpCode uint16

const (
	OpLoadConst OpCode = iota // dst, constIdx
	OpLoadNull                // dst
	OpLoadUndefined           // dst
	OpLoadTrue                // dst
	OpLoadFalse               // dst
	OpMove                    // dst, src

	OpAdd // dst, lhs, rhs
	OpSub
	OpMul
	OpDiv
	OpMod
	OpNegate // dst, src
	OpNot    // dst, src

	OpBitAnd
	OpBitOr
	OpBitXor
	OpBitNot // dst, src
	OpShl
	OpShr    // arithmetic
	OpUShr   // logical

	OpEqual
	OpNotEqual
	OpStrictEqual
	OpStrictNotEqual
	OpLess
	OpLessEqual
	OpGreater
	OpGreaterEqual

	// Fused compare-and-branch, per §4.4: comparisons that immediately
	// feed a conditional branch are a single instruction whose operand
	// slots are (lhs, rhs, signed pc-delta).
	OpJumpIfLess
	OpJumpIfLessEqual
	OpJumpIfGreater
	OpJumpIfGreaterEqual
	OpJumpIfEqual
	OpJumpIfNotEqual

	OpJump        // signed pc-delta
	OpJumpIfTrue  // src, signed pc-delta
	OpJumpIfFalse // src, signed pc-delta

	OpMakeObject // dst
	OpMakeArray  // dst, startReg, count
	OpGetIndex   // dst, arr, idx
	OpSetIndex   // arr, idx, val

	// Property access carries a cache-site id (an index into the
	// chunk's Caches, §4.3) rather than baking the property name
	// into the instruction; the name lives in the constant pool.
	OpGetProp    // dst, obj, nameConstIdx, cacheSite
	OpSetProp    // obj, val, nameConstIdx, cacheSite
	OpDeleteProp // dst, obj, nameConstIdx

	OpGetGlobal // dst, globalIdx, cacheSite
	OpSetGlobal // globalIdx, val, cacheSite

	OpCall     // dst, funcReg, argStart, argCount
	OpCallThis // dst, funcReg, thisReg, argStart, argCount
	OpReturn   // src
	OpReturnUndefined

	OpClosure  // dst, childFuncIdx, upvalCount (upvalue recipes live on the child FunctionProto)
	OpLoadFree // dst, upvalIdx
	OpSetFree  // upvalIdx, src

	OpTypeof    // dst, src
	OpToNumber  // dst, src
	OpInstanceof
	OpIn

	opCodeCount
)

// operandSlots reports how many 16-bit operand slots (not words) each
// opcode consumes, so the assembler can compute word counts and the
// interpreter can decode without a second table lookup per operand.
var operandSlots = [opCodeCount]int{
	OpLoadConst: 2, OpLoadNull: 1, OpLoadUndefined: 1, OpLoadTrue: 1, OpLoadFalse: 1, OpMove: 2,
	OpAdd: 3, OpSub: 3, OpMul: 3, OpDiv: 3, OpMod: 3, OpNegate: 2, OpNot: 2,
	OpBitAnd: 3, OpBitOr: 3, OpBitXor: 3, OpBitNot: 2, OpShl: 3, OpShr: 3, OpUShr: 3,
	OpEqual: 3, OpNotEqual: 3, OpStrictEqual: 3, OpStrictNotEqual: 3,
	OpLess: 3, OpLessEqual: 3, OpGreater: 3, OpGreaterEqual: 3,
	OpJumpIfLess: 3, OpJumpIfLessEqual: 3, OpJumpIfGreater: 3, OpJumpIfGreaterEqual: 3,
	OpJumpIfEqual: 3, OpJumpIfNotEqual: 3,
	OpJump: 1, OpJumpIfTrue: 2, OpJumpIfFalse: 2,
	OpMakeObject: 1, OpMakeArray: 3, OpGetIndex: 3, OpSetIndex: 3,
	OpGetProp: 4, OpSetProp: 4, OpDeleteProp: 3,
	OpGetGlobal: 3, OpSetGlobal: 3,
	OpCall: 4, OpCallThis: 5, OpReturn: 1, OpReturnUndefined: 0,
	OpClosure: 3, OpLoadFree: 2, OpSetFree: 2,
	OpTypeof: 2, OpToNumber: 2, OpInstanceof: 3, OpIn: 3,
}

// WordCount returns how many Words an instruction with this opcode
// occupies: the opcode's own word holds one operand slot in its low
// halfword, each subsequent word holds two.
func (op OpCode) WordCount() int {
	n := operandSlots[op]
	if n == 0 {
		return 1
	}
	return 1 + n/2
}

func (op OpCode) String() string {
	if int(op) < len(opCodeNames) {
		return opCodeNames[op]
	}
	return "OpUnknown"
}

var opCodeNames = [...]string{
	"LoadConst", "LoadNull", "LoadUndefined", "LoadTrue", "LoadFalse", "Move",
	"Add", "Sub", "Mul", "Div", "Mod", "Negate", "Not",
	"BitAnd", "BitOr", "BitXor", "BitNot", "Shl", "Shr", "UShr",
	"Equal", "NotEqual", "StrictEqual", "StrictNotEqual",
	"Less", "LessEqual", "Greater", "GreaterEqual",
	"JumpIfLess", "JumpIfLessEqual", "JumpIfGreater", "JumpIfGreaterEqual",
	"JumpIfEqual", "JumpIfNotEqual",
	"Jump", "JumpIfTrue", "JumpIfFalse",
	"MakeObject", "MakeArray", "GetIndex", "SetIndex",
	"GetProp", "SetProp", "DeleteProp",
	"GetGlobal", "SetGlobal",
	"Call", "CallThis", "Return", "ReturnUndefined",
	"Closure", "LoadFree", "SetFree",
	"Typeof", "ToNumber", "Instanceof", "In",
}
