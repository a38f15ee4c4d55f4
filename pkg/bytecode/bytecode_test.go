package bytecode

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	var code []Word
	code = Encode(code, OpAdd, 1, 2, 3)
	code = Encode(code, OpReturn, 1)

	in, next := Decode(code, 0)
	if in.Op != OpAdd || in.Args[0] != 1 || in.Args[1] != 2 || in.Args[2] != 3 {
		t.Fatalf("got %+v", in)
	}
	if next != OpAdd.WordCount() {
		t.Fatalf("next pc = %d, want %d", next, OpAdd.WordCount())
	}
	in2, _ := Decode(code, next)
	if in2.Op != OpReturn || in2.Args[0] != 1 {
		t.Fatalf("got %+v", in2)
	}
}

func TestAssemblerPatchesForwardJump(t *testing.T) {
	proto := &FunctionProto{}
	a := NewAssembler(proto)
	jmp := a.Emit(OpJumpIfFalse, 0, 0)
	a.Emit(OpLoadTrue, 0)
	target := a.Label()
	a.PatchJumpDelta(jmp, target)

	in, next := Decode(proto.Code, jmp)
	if in.Op != OpJumpIfFalse {
		t.Fatal("wrong opcode")
	}
	wantDelta := Reg(target - next)
	if in.Args[1] != wantDelta {
		t.Fatalf("delta = %d, want %d", in.Args[1], wantDelta)
	}
}

func TestCacheFileRoundTrip(t *testing.T) {
	src := []byte("function f() { return 1 + 1 }")
	cf := &CacheFile{
		SourceHash: HashSource(src),
		EntryPC:    0,
		RegCount:   4,
		Code:       Encode(nil, OpAdd, 0, 1, 2),
		Consts:     []constEntry{{Kind: 3, Int32: 1}},
	}
	encoded, err := cf.Encode()
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := DecodeCacheFile(encoded)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.SourceHash != cf.SourceHash {
		t.Fatal("source hash mismatch after round trip")
	}
	if len(decoded.Code) != 1 || decoded.Code[0] != cf.Code[0] {
		t.Fatalf("code mismatch: %v", decoded.Code)
	}
	if len(decoded.Consts) != 1 || decoded.Consts[0].Int32 != 1 {
		t.Fatalf("consts mismatch: %v", decoded.Consts)
	}

	tampered := HashSource([]byte("function f() { return 2 }"))
	if tampered == cf.SourceHash {
		t.Fatal("different source must hash differently")
	}
}
