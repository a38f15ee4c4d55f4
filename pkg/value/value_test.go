package value

import (
	"math"
	"testing"
)

func TestInt32RoundTrip(t *testing.T) {
	for _, i := range []int32{0, 1, -1, math.MaxInt32, math.MinInt32, 1234567} {
		v := Int32(i)
		if !v.IsInt32() {
			t.Fatalf("Int32(%d) not tagged as int32", i)
		}
		if got := v.AsInt32(); got != i {
			t.Fatalf("round trip %d got %d", i, got)
		}
	}
}

func TestDoubleRoundTrip(t *testing.T) {
	for _, d := range []float64{0, -0.0, 1.5, -1.5, math.Inf(1), math.Inf(-1), 3.1415926535} {
		v := Double(d)
		if v.Kind() != KindDouble {
			t.Fatalf("Double(%v) kind = %v", d, v.Kind())
		}
		if got := v.AsDouble(); got != d && !(math.IsNaN(got) && math.IsNaN(d)) {
			t.Fatalf("round trip %v got %v", d, got)
		}
	}
}

func TestCanonicalNaNIsDistinguishableFromEmpty(t *testing.T) {
	if NaN == Empty {
		t.Fatal("NaN and Empty must not collide")
	}
	if !math.IsNaN(NaN.AsDouble()) {
		t.Fatal("NaN value must decode to a NaN double")
	}
	if NaN.Kind() != KindDouble {
		t.Fatalf("NaN kind = %v, want double", NaN.Kind())
	}
}

func TestSingletonsDistinct(t *testing.T) {
	singles := []Value{Undefined, Null, True, False, Empty, NaN}
	for i := range singles {
		for j := range singles {
			if i == j {
				continue
			}
			if singles[i] == singles[j] {
				t.Fatalf("singleton %d and %d collide", i, j)
			}
		}
	}
}

func TestInt32OverflowBoxesAsDouble(t *testing.T) {
	a, b := int32(math.MaxInt32), int32(1)
	sum64 := int64(a) + int64(b)
	if sum64 >= math.MinInt32 && sum64 <= math.MaxInt32 {
		t.Fatal("test expects overflow")
	}
	result := Double(float64(sum64))
	if result.Kind() != KindDouble {
		t.Fatalf("overflowed add should box to double, got %v", result.Kind())
	}
	if result.AsDouble() != 2147483648 {
		t.Fatalf("got %v", result.AsDouble())
	}
}

func TestStrictEqualsNumberCrossRepresentation(t *testing.T) {
	if !StrictEquals(Int32(5), Double(5), nil) {
		t.Fatal("int32 5 should strict-equal double 5.0")
	}
	if StrictEquals(Int32(5), Double(5.5), nil) {
		t.Fatal("5 should not equal 5.5")
	}
}

func TestSameValueZeroNaN(t *testing.T) {
	if !SameValueZero(NaN, Double(math.NaN())) {
		t.Fatal("SameValueZero must treat all NaNs as equal")
	}
}
