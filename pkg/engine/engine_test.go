package engine

import (
	"testing"

	"suzaku/pkg/bytecode"
	"suzaku/pkg/value"
)

// buildReturnConstCache assembles a one-instruction function that loads
// constant 0 into register 0 and returns it, then encodes it the way a
// real on-disk cache file would be produced.
func buildReturnConstCache(t *testing.T, src string, constVal value.Value) []byte {
	t.Helper()
	code := bytecode.Encode(nil, bytecode.OpLoadConst, 0, 0)
	code = bytecode.Encode(code, bytecode.OpReturn, 0)

	cf := &bytecode.CacheFile{
		SourceHash: bytecode.HashSource([]byte(src)),
		RegCount:   1,
		Code:       code,
	}
	if err := cf.SetConsts([]value.Value{constVal}); err != nil {
		t.Fatalf("SetConsts: %v", err)
	}
	data, err := cf.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return data
}

func TestEngineRunReturnsInt32Const(t *testing.T) {
	data := buildReturnConstCache(t, "42", value.Int32(42))

	e := New(nil)
	result, err := e.Run(data)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !result.IsInt32() || result.AsInt32() != 42 {
		t.Fatalf("result = %+v, want int32 42", result)
	}
}

func TestEngineLoadIsReusableAcrossCalls(t *testing.T) {
	data := buildReturnConstCache(t, "7", value.Int32(7))

	e := New(nil)
	entry, err := e.Load(data)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for i := 0; i < 3; i++ {
		v, err := e.Realm.Call(entry, entry, nil)
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if !v.IsInt32() || v.AsInt32() != 7 {
			t.Fatalf("call %d result = %+v", i, v)
		}
	}
}

func TestEngineRejectsBadMagic(t *testing.T) {
	e := New(nil)
	if _, err := e.Load([]byte("not a cache file")); err == nil {
		t.Fatal("expected an error decoding garbage input")
	}
}
