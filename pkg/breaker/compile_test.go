package breaker

import (
	"testing"
	"unsafe"

	"suzaku/pkg/bytecode"
	"suzaku/pkg/jsstring"
	"suzaku/pkg/value"
	"suzaku/pkg/vm"
)

func oneFuncChunk(proto *bytecode.FunctionProto) *bytecode.Chunk {
	return &bytecode.Chunk{Functions: []*bytecode.FunctionProto{proto}, EntryFunc: 0}
}

// invokeCompiled installs Compile(proto)'s result on a fresh top-level
// closure and calls it through Realm.Invoke, the same call path an
// installed Closure.Compiled reaches in production.
func invokeCompiled(realm *vm.Realm, chunk *bytecode.Chunk, proto *bytecode.FunctionProto, args []value.Value) (value.Value, error) {
	c := vm.NewClosure(proto, chunk, nil)
	c.Compiled = Compile(proto)
	fn := value.FromHeapPointer(unsafe.Pointer(c))
	return realm.Invoke(fn, value.Undefined, args)
}

func TestCompiledArithmeticIntFastPathMatchesInterpreter(t *testing.T) {
	proto := &bytecode.FunctionProto{RegCount: 3}
	a := bytecode.NewAssembler(proto)
	c1 := a.AddConst(value.Int32(1))
	c2 := a.AddConst(value.Int32(2))
	a.Emit(bytecode.OpLoadConst, 0, c1)
	a.Emit(bytecode.OpLoadConst, 1, c2)
	a.Emit(bytecode.OpAdd, 2, 0, 1)
	a.Emit(bytecode.OpReturn, 2)
	chunk := oneFuncChunk(proto)

	interp, err := vm.NewRealm(nil).Interpret(chunk)
	if err != nil {
		t.Fatalf("interpreter: unexpected error: %v", err)
	}
	compiled, err := invokeCompiled(vm.NewRealm(nil), chunk, proto, nil)
	if err != nil {
		t.Fatalf("compiled: unexpected error: %v", err)
	}
	if !compiled.IsInt32() || compiled.AsInt32() != 3 {
		t.Fatalf("compiled got %v, want int32 3", compiled)
	}
	if interp.Kind() != compiled.Kind() || interp.AsInt32() != compiled.AsInt32() {
		t.Fatalf("compiled result %v diverged from interpreted result %v", compiled, interp)
	}
}

func TestCompiledAddOverflowWidensToDoubleAndReloadsOperands(t *testing.T) {
	proto := &bytecode.FunctionProto{RegCount: 3}
	a := bytecode.NewAssembler(proto)
	c1 := a.AddConst(value.Int32(2147483647))
	c2 := a.AddConst(value.Int32(1))
	a.Emit(bytecode.OpLoadConst, 0, c1)
	a.Emit(bytecode.OpLoadConst, 1, c2)
	a.Emit(bytecode.OpAdd, 2, 0, 1)
	a.Emit(bytecode.OpReturn, 2)
	chunk := oneFuncChunk(proto)

	result, err := invokeCompiled(vm.NewRealm(nil), chunk, proto, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Kind() != value.KindDouble || result.AsDouble() != 2147483648 {
		t.Fatalf("got %v, want double 2147483648", result)
	}
}

func TestCompiledStringConcatenationFallsBackToGenericStub(t *testing.T) {
	proto := &bytecode.FunctionProto{RegCount: 3}
	a := bytecode.NewAssembler(proto)
	c1 := a.AddConst(stringValue(jsstring.NewFlat("foo")))
	c2 := a.AddConst(stringValue(jsstring.NewFlat("bar")))
	a.Emit(bytecode.OpLoadConst, 0, c1)
	a.Emit(bytecode.OpLoadConst, 1, c2)
	a.Emit(bytecode.OpAdd, 2, 0, 1)
	a.Emit(bytecode.OpReturn, 2)
	chunk := oneFuncChunk(proto)

	result, err := invokeCompiled(vm.NewRealm(nil), chunk, proto, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := jsstring.FromHeader(result.HeapHeader()).String(); got != "foobar" {
		t.Fatalf("got %q, want %q", got, "foobar")
	}
}

func TestCompiledBranchOnFusedComparisonLoop(t *testing.T) {
	// for (i = 0; i < 5; i = i + 1) {} ; return i
	proto := &bytecode.FunctionProto{RegCount: 3}
	a := bytecode.NewAssembler(proto)
	zero := a.AddConst(value.Int32(0))
	five := a.AddConst(value.Int32(5))
	one := a.AddConst(value.Int32(1))

	a.Emit(bytecode.OpLoadConst, 0, zero) // r0 = i = 0
	loopStart := a.Label()
	a.Emit(bytecode.OpLoadConst, 1, five) // r1 = 5
	checkPC := a.Emit(bytecode.OpJumpIfGreaterEqual, 0, 1, 0)
	a.Emit(bytecode.OpLoadConst, 2, one)
	a.Emit(bytecode.OpAdd, 0, 0, 2) // i = i + 1
	backPC := a.Emit(bytecode.OpJump, 0)
	a.PatchJumpDelta(backPC, loopStart)
	exitLabel := a.Label()
	a.PatchJumpDelta(checkPC, exitLabel)
	a.Emit(bytecode.OpReturn, 0)
	chunk := oneFuncChunk(proto)

	result, err := invokeCompiled(vm.NewRealm(nil), chunk, proto, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsInt32() || result.AsInt32() != 5 {
		t.Fatalf("got %v, want int32 5", result)
	}
}

func TestCompiledExceptionTableCatchesThrow(t *testing.T) {
	realm := vm.NewRealm(nil)
	realm.RegisterNative("fail", func(r *vm.Realm, this value.Value, args []value.Value) (value.Value, error) {
		return value.Undefined, r.ThrowScriptValue(stringValue(jsstring.NewFlat("boom")))
	})
	idx, _ := realm.GlobalIndex("fail")

	proto := &bytecode.FunctionProto{RegCount: 2}
	a := bytecode.NewAssembler(proto)
	a.Emit(bytecode.OpGetGlobal, 1, bytecode.Reg(idx), 0)
	callPC := a.Emit(bytecode.OpCall, 0, 1, 0, 0)
	afterCall := a.Label()
	a.Emit(bytecode.OpReturn, 0)
	handlerPC := a.Label()
	a.Emit(bytecode.OpReturn, 0)
	proto.ExceptionTable = []bytecode.ExceptionEntry{{StartPC: callPC, EndPC: afterCall, HandlerPC: handlerPC}}
	chunk := oneFuncChunk(proto)

	result, err := invokeCompiled(realm, chunk, proto, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := jsstring.FromHeader(result.HeapHeader()).String(); got != "boom" {
		t.Fatalf("got %q, want %q", got, "boom")
	}
}

func TestCompiledClosureCapturesLocal(t *testing.T) {
	child := &bytecode.FunctionProto{
		RegCount:   1,
		UpvalCount: 1,
		Upvalues:   []bytecode.UpvalDesc{{FromParentLocal: true, Index: 0}},
	}
	ca := bytecode.NewAssembler(child)
	ca.Emit(bytecode.OpLoadFree, 0, 0)
	ca.Emit(bytecode.OpReturn, 0)

	outer := &bytecode.FunctionProto{RegCount: 3, ChildFuncs: []*bytecode.FunctionProto{child}}
	oa := bytecode.NewAssembler(outer)
	c10 := oa.AddConst(value.Int32(10))
	oa.Emit(bytecode.OpLoadConst, 0, c10)
	oa.Emit(bytecode.OpClosure, 1, 0, 1)
	oa.Emit(bytecode.OpCall, 2, 1, 2, 0)
	oa.Emit(bytecode.OpReturn, 2)
	chunk := oneFuncChunk(outer)

	result, err := invokeCompiled(vm.NewRealm(nil), chunk, outer, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsInt32() || result.AsInt32() != 10 {
		t.Fatalf("got %v, want int32 10", result)
	}
}
