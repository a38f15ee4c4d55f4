// Package breaker is the single-tier template JIT: it compiles a
// bytecode.FunctionProto once, ahead of any call, into a vm.CompiledFunc
// a Closure can run in place of a trip through the interpreter's
// runFrame. No assembler or native-code-emission library exists
// anywhere in the retrieved reference pack, so "template" here means a
// Go closure standing in for what a real template JIT would emit as
// machine code: each compiled step pre-resolves the decisions (which
// fast path applies, where a jump or exception handler actually lands)
// that bytecode.Decode and typerecord would otherwise have to repeat on
// every interpreted execution.
package breaker

import (
	"strconv"
	"unsafe"

	"suzaku/pkg/bytecode"
	"suzaku/pkg/jsstring"
	"suzaku/pkg/object"
	"suzaku/pkg/typerecord"
	"suzaku/pkg/value"
	"suzaku/pkg/vm"
)

// outcome is what a compiled step hands back to the driver loop:
// either fall through (next == -1), take a resolved jump (next is a
// step index, not a word pc), return from the function, or propagate
// an error for the driver's own exception-table handling.
type outcome struct {
	next int
	done bool
	ret  value.Value
	err  error
}

func fallthroughTo() outcome             { return outcome{next: -1} }
func jumpTo(step int) outcome            { return outcome{next: step} }
func returnValue(v value.Value) outcome  { return outcome{next: -1, done: true, ret: v} }
func fail(err error) outcome             { return outcome{next: -1, err: err} }

type step func(r *vm.Realm, f *vm.Frame) outcome

// handlerEntry pairs a compiled step range with the step it resumes at,
// the step-indexed equivalent of bytecode.ExceptionEntry.
type handlerEntry struct {
	startStep, endStep, handlerStep int
}

// compiledUnit is the closure-threaded program Compile builds: one step
// per source instruction plus a resolved exception table, run by a
// small driver loop that takes the place of runFrame's decode-dispatch
// cycle.
type compiledUnit struct {
	steps    []step
	handlers []handlerEntry
}

// Compile builds a vm.CompiledFunc for proto. Installing the result on
// a Closure (Closure.Compiled) makes every future call to that closure
// run through this compiled plan instead of bytecode.Decode plus
// Realm's interpreter switch, per §1's single-tier JIT contract: one
// compilation per function, no deoptimization, no tiering up from here.
func Compile(proto *bytecode.FunctionProto) vm.CompiledFunc {
	u := compile(proto)
	return func(r *vm.Realm, f *vm.Frame) (value.Value, error) {
		idx := 0
		for {
			res := u.steps[idx](r, f)
			if res.err != nil {
				if vm.IsEngineError(res.err) {
					return value.Undefined, res.err
				}
				if h, ok := findCompiledHandler(u.handlers, idx); ok {
					f.Registers()[0] = vm.ErrorToValue(res.err)
					idx = h
					continue
				}
				return value.Undefined, res.err
			}
			if res.done {
				return res.ret, nil
			}
			if res.next >= 0 {
				idx = res.next
				continue
			}
			idx++
		}
	}
}

func findCompiledHandler(handlers []handlerEntry, stepIdx int) (int, bool) {
	for _, h := range handlers {
		if stepIdx >= h.startStep && stepIdx < h.endStep {
			return h.handlerStep, true
		}
	}
	return 0, false
}

// compile is the two-pass compiler proper. Pass one decodes every
// instruction once to learn each step's word pc and build the
// word-pc -> step-index table jumps and exception handlers resolve
// against; pass two walks the decoded instructions again, threading a
// typerecord.Record that is reset at every jump target (a basic-block
// boundary, per typerecord.Record's own contract) and emitting one
// closure per instruction.
func compile(proto *bytecode.FunctionProto) *compiledUnit {
	type decoded struct {
		instr bytecode.Instr
		pc    int // word pc this instruction starts at
		next  int // word pc of the following instruction
	}

	var decodedInstrs []decoded
	wordToStep := make(map[int]int)
	for pc := 0; pc < len(proto.Code); {
		in, next := bytecode.Decode(proto.Code, pc)
		wordToStep[pc] = len(decodedInstrs)
		decodedInstrs = append(decodedInstrs, decoded{instr: in, pc: pc, next: next})
		pc = next
	}

	jumpTargets := make(map[int]bool)
	for _, d := range decodedInstrs {
		if delta, ok := jumpDelta(d.instr); ok {
			jumpTargets[d.next+delta] = true
		}
	}
	for _, e := range proto.ExceptionTable {
		jumpTargets[e.HandlerPC] = true
	}

	record := typerecord.NewRecord(proto.RegCount)
	steps := make([]step, len(decodedInstrs))
	for i, d := range decodedInstrs {
		if jumpTargets[d.pc] {
			record.Reset()
		}
		steps[i] = compileInstr(proto, d.instr, d.next, wordToStep, record)
	}

	var handlers []handlerEntry
	for _, e := range proto.ExceptionTable {
		startStep, ok1 := wordToStep[e.StartPC]
		handlerStep, ok2 := wordToStep[e.HandlerPC]
		endStep := len(decodedInstrs)
		if s, ok := wordToStep[e.EndPC]; ok {
			endStep = s
		}
		if ok1 && ok2 {
			handlers = append(handlers, handlerEntry{startStep: startStep, endStep: endStep, handlerStep: handlerStep})
		}
	}

	return &compiledUnit{steps: steps, handlers: handlers}
}

// jumpDelta reports the signed pc-delta operand of an instruction that
// can transfer control, and whether it has one at all (a conditional
// branch's delta only applies once the target step is resolved; the
// untaken case always falls through to pc+1 in step order, which the
// driver loop already handles via next == -1).
func jumpDelta(in bytecode.Instr) (int, bool) {
	switch in.Op {
	case bytecode.OpJump:
		return int(in.Args[0]), true
	case bytecode.OpJumpIfTrue, bytecode.OpJumpIfFalse:
		return int(in.Args[1]), true
	case bytecode.OpJumpIfLess, bytecode.OpJumpIfLessEqual, bytecode.OpJumpIfGreater,
		bytecode.OpJumpIfGreaterEqual, bytecode.OpJumpIfEqual, bytecode.OpJumpIfNotEqual:
		return int(in.Args[2]), true
	default:
		return 0, false
	}
}

func stringValue(s jsstring.Str) value.Value { return value.FromHeapPointer(unsafe.Pointer(s.Header())) }

func indexKey(i int) object.PropertyKey { return object.StringKey(strconv.Itoa(i)) }
