package vm

import (
	"errors"
	"testing"

	"suzaku/pkg/bytecode"
	"suzaku/pkg/jsstring"
	"suzaku/pkg/value"
)

func oneFuncChunk(proto *bytecode.FunctionProto) *bytecode.Chunk {
	return &bytecode.Chunk{Functions: []*bytecode.FunctionProto{proto}, EntryFunc: 0}
}

func TestInterpretArithmeticIntFastPath(t *testing.T) {
	proto := &bytecode.FunctionProto{RegCount: 3}
	a := bytecode.NewAssembler(proto)
	c1 := a.AddConst(value.Int32(1))
	c2 := a.AddConst(value.Int32(2))
	a.Emit(bytecode.OpLoadConst, 0, c1)
	a.Emit(bytecode.OpLoadConst, 1, c2)
	a.Emit(bytecode.OpAdd, 2, 0, 1)
	a.Emit(bytecode.OpReturn, 2)

	realm := NewRealm(nil)
	result, err := realm.Interpret(oneFuncChunk(proto))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsInt32() || result.AsInt32() != 3 {
		t.Fatalf("got %v, want int32 3", result)
	}
}

func TestInterpretAddOverflowsToDouble(t *testing.T) {
	proto := &bytecode.FunctionProto{RegCount: 3}
	a := bytecode.NewAssembler(proto)
	c1 := a.AddConst(value.Int32(2147483647))
	c2 := a.AddConst(value.Int32(1))
	a.Emit(bytecode.OpLoadConst, 0, c1)
	a.Emit(bytecode.OpLoadConst, 1, c2)
	a.Emit(bytecode.OpAdd, 2, 0, 1)
	a.Emit(bytecode.OpReturn, 2)

	realm := NewRealm(nil)
	result, err := realm.Interpret(oneFuncChunk(proto))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Kind() != value.KindDouble || result.AsDouble() != 2147483648 {
		t.Fatalf("got %v, want double 2147483648", result)
	}
}

func TestInterpretStringConcatenation(t *testing.T) {
	proto := &bytecode.FunctionProto{RegCount: 3}
	a := bytecode.NewAssembler(proto)
	c1 := a.AddConst(stringValue(jsstring.NewFlat("foo")))
	c2 := a.AddConst(stringValue(jsstring.NewFlat("bar")))
	a.Emit(bytecode.OpLoadConst, 0, c1)
	a.Emit(bytecode.OpLoadConst, 1, c2)
	a.Emit(bytecode.OpAdd, 2, 0, 1)
	a.Emit(bytecode.OpReturn, 2)

	realm := NewRealm(nil)
	result, err := realm.Interpret(oneFuncChunk(proto))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := jsstring.FromHeader(result.HeapHeader()).String(); got != "foobar" {
		t.Fatalf("got %q, want %q", got, "foobar")
	}
}

func TestInterpretCallsNativeFunction(t *testing.T) {
	realm := NewRealm(nil)
	realm.RegisterNative("double", func(r *Realm, this value.Value, args []value.Value) (value.Value, error) {
		return value.Int32(args[0].AsInt32() * 2), nil
	})
	idx, ok := realm.GlobalIndex("double")
	if !ok {
		t.Fatal("global not registered")
	}

	proto := &bytecode.FunctionProto{RegCount: 3}
	a := bytecode.NewAssembler(proto)
	arg := a.AddConst(value.Int32(21))
	a.Emit(bytecode.OpGetGlobal, 0, bytecode.Reg(idx), 0)
	a.Emit(bytecode.OpLoadConst, 1, arg)
	a.Emit(bytecode.OpCall, 2, 0, 1, 1)
	a.Emit(bytecode.OpReturn, 2)

	result, err := realm.Interpret(oneFuncChunk(proto))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsInt32() || result.AsInt32() != 42 {
		t.Fatalf("got %v, want int32 42", result)
	}
}

func TestInterpretClosureCapturesLocal(t *testing.T) {
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

	realm := NewRealm(nil)
	result, err := realm.Interpret(oneFuncChunk(outer))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsInt32() || result.AsInt32() != 10 {
		t.Fatalf("got %v, want int32 10", result)
	}
}

func TestInterpretPropertyGetSetUsesInlineCache(t *testing.T) {
	proto := &bytecode.FunctionProto{RegCount: 3}
	a := bytecode.NewAssembler(proto)
	chunk := oneFuncChunk(proto)
	setSite := chunk.NewCacheSite()
	getSite := chunk.NewCacheSite()

	name := a.AddConst(stringValue(jsstring.NewFlat("x")))
	val := a.AddConst(value.Int32(7))
	a.Emit(bytecode.OpMakeObject, 0)
	a.Emit(bytecode.OpLoadConst, 1, val)
	a.Emit(bytecode.OpSetProp, 0, 1, name, bytecode.Reg(setSite))
	a.Emit(bytecode.OpGetProp, 2, 0, name, bytecode.Reg(getSite))
	a.Emit(bytecode.OpReturn, 2)

	realm := NewRealm(nil)
	result, err := realm.Interpret(chunk)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsInt32() || result.AsInt32() != 7 {
		t.Fatalf("got %v, want int32 7", result)
	}
	if chunk.Caches[getSite].Hits == 0 && chunk.Caches[getSite].Misses == 0 {
		t.Fatal("inline cache site was never consulted")
	}
}

func TestInterpretExceptionTableCatchesThrow(t *testing.T) {
	realm := NewRealm(nil)
	boom := errors.New("boom")
	realm.RegisterNative("fail", func(r *Realm, this value.Value, args []value.Value) (value.Value, error) {
		return value.Undefined, r.throwValue(stringValue(jsstring.NewFlat(boom.Error())))
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

	result, err := realm.Interpret(oneFuncChunk(proto))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := jsstring.FromHeader(result.HeapHeader()).String(); got != "boom" {
		t.Fatalf("got %q, want %q", got, "boom")
	}
}
