package typerecord

import "testing"

func TestAddConstantFoldsWithinInt32(t *testing.T) {
	e := Add(ConstInt32(1), ConstInt32(2))
	if !e.IsConstantInt32() || e.Constant.AsInt32() != 3 {
		t.Fatalf("got %+v, want constant int32 3", e)
	}
}

func TestAddConstantOverflowsToDouble(t *testing.T) {
	e := Add(ConstInt32(2147483647), ConstInt32(1))
	if e.Kind != Double || !e.HasConstant || e.Constant.AsDouble() != 2147483648 {
		t.Fatalf("got %+v, want constant double 2147483648", e)
	}
}

func TestAddNonConstantInt32IsNumberWithoutConstant(t *testing.T) {
	e := Add(Entry{Kind: Int32}, Entry{Kind: Int32})
	if e.Kind != Number || e.HasConstant {
		t.Fatalf("got %+v, want non-constant Number", e)
	}
}

func TestAddPropagatesNotInt32Taint(t *testing.T) {
	e := Add(Entry{Kind: NotInt32}, ConstInt32(1))
	if e.Kind != NotInt32 {
		t.Fatalf("got %+v, want NotInt32", e)
	}
}

func TestRshiftLogicalNeverFoldsToInt32Constant(t *testing.T) {
	e := RshiftLogical(ConstInt32(-1), ConstInt32(0))
	if e.Kind != Number {
		t.Fatalf("got %+v, want Number (never a folded int32 constant)", e)
	}
}

func TestMeetOfDisagreeingKindsIsUnknown(t *testing.T) {
	e := Meet(ConstInt32(1), Entry{Kind: String, HasConstant: true})
	if e.Kind != Unknown {
		t.Fatalf("got %+v, want Unknown", e)
	}
}

func TestMeetOfSameConstantKeepsConstant(t *testing.T) {
	e := Meet(ConstInt32(5), ConstInt32(5))
	if !e.IsConstantInt32() || e.Constant.AsInt32() != 5 {
		t.Fatalf("got %+v, want constant int32 5", e)
	}
}

func TestMeetOfSameKindDifferentConstantsDropsConstant(t *testing.T) {
	e := Meet(ConstInt32(5), ConstInt32(6))
	if e.Kind != Int32 || e.HasConstant {
		t.Fatalf("got %+v, want non-constant Int32", e)
	}
}

func TestRecordGetUnsetRegisterIsUnknown(t *testing.T) {
	r := NewRecord(4)
	if got := r.Get(1); got.Kind != Unknown {
		t.Fatalf("got %+v, want Unknown", got)
	}
}

func TestRecordPutThenGetRoundTrips(t *testing.T) {
	r := NewRecord(4)
	r.Put(2, ConstInt32(9))
	if got := r.Get(2); !got.IsConstantInt32() || got.Constant.AsInt32() != 9 {
		t.Fatalf("got %+v, want constant int32 9", got)
	}
}

func TestRecordResetClearsAllSlots(t *testing.T) {
	r := NewRecord(2)
	r.Put(0, ConstInt32(1))
	r.Put(1, ConstInt32(2))
	r.Reset()
	if r.Get(0).Kind != Unknown || r.Get(1).Kind != Unknown {
		t.Fatal("expected all slots Unknown after Reset")
	}
}
