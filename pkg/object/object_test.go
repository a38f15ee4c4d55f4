package object

import (
	"testing"
	"unsafe"

	"suzaku/pkg/value"
)

type noopInvoker struct{}

func (noopInvoker) Call(fn, this value.Value, args []value.Value) (value.Value, error) {
	return value.Undefined, nil
}

func TestSharedShapeForSameInsertionOrder(t *testing.T) {
	a := NewPlainObject(value.Null, "Object")
	b := NewPlainObject(value.Null, "Object")
	a.DefineData(StringKey("x"), value.Int32(1), DefaultDataAttrs)
	a.DefineData(StringKey("y"), value.Int32(2), DefaultDataAttrs)
	b.DefineData(StringKey("x"), value.Int32(10), DefaultDataAttrs)
	b.DefineData(StringKey("y"), value.Int32(20), DefaultDataAttrs)
	if a.Shape() != b.Shape() {
		t.Fatal("two objects built by the same property-addition sequence should converge on one shape")
	}
}

func TestDifferentOrderDiverges(t *testing.T) {
	a := NewPlainObject(value.Null, "Object")
	b := NewPlainObject(value.Null, "Object")
	a.DefineData(StringKey("x"), value.Int32(1), DefaultDataAttrs)
	a.DefineData(StringKey("y"), value.Int32(2), DefaultDataAttrs)
	b.DefineData(StringKey("y"), value.Int32(2), DefaultDataAttrs)
	b.DefineData(StringKey("x"), value.Int32(1), DefaultDataAttrs)
	if a.Shape() == b.Shape() {
		t.Fatal("different insertion order must produce different shapes")
	}
}

func TestGetWalksPrototypeChain(t *testing.T) {
	proto := NewPlainObject(value.Null, "Object")
	proto.DefineData(StringKey("greeting"), value.Int32(42), DefaultDataAttrs)
	child := NewPlainObject(value.FromHeapPointer(unsafe.Pointer(&proto.Header)), "Object")

	v, err := child.Get(StringKey("greeting"), value.FromHeapPointer(unsafe.Pointer(&child.Header)), noopInvoker{})
	if err != nil || v.AsInt32() != 42 {
		t.Fatalf("got %v, %v", v, err)
	}
}

func TestSetCreatesOwnPropertyWhenUnshadowed(t *testing.T) {
	proto := NewPlainObject(value.Null, "Object")
	proto.DefineData(StringKey("x"), value.Int32(1), DefaultDataAttrs)
	child := NewPlainObject(value.FromHeapPointer(unsafe.Pointer(&proto.Header)), "Object")

	if err := child.Set(StringKey("x"), value.Int32(99), child, noopInvoker{}); err != nil {
		t.Fatal(err)
	}
	v, ok := child.GetOwn(StringKey("x"))
	if !ok || v.AsInt32() != 99 {
		t.Fatal("assignment through an inherited data property must create an own property, not mutate the prototype")
	}
	protoVal, _ := proto.GetOwn(StringKey("x"))
	if protoVal.AsInt32() != 1 {
		t.Fatal("prototype's own value must be unaffected")
	}
}

func TestNonConfigurableRejectsRedefine(t *testing.T) {
	o := NewPlainObject(value.Null, "Object")
	o.DefineOwnProperty(StringKey("x"), Descriptor{
		Value: value.Int32(1), HasValue: true,
		Attrs: 0, HasWritable: true, HasEnumerable: true, HasConfigurable: true,
	})
	ok := o.DefineOwnProperty(StringKey("x"), Descriptor{
		Value: value.Int32(2), HasValue: true,
	})
	if ok {
		t.Fatal("redefining the value of a non-configurable, non-writable property must fail")
	}
}

func TestDeleteNonConfigurableFails(t *testing.T) {
	o := NewPlainObject(value.Null, "Object")
	o.DefineOwnProperty(StringKey("x"), Descriptor{
		Value: value.Int32(1), HasValue: true, HasConfigurable: true,
	})
	if o.DeleteOwn(StringKey("x")) {
		t.Fatal("deleting a non-configurable property must fail")
	}
}

func TestOffsetsShiftAfterDelete(t *testing.T) {
	o := NewPlainObject(value.Null, "Object")
	o.DefineData(StringKey("a"), value.Int32(1), DefaultDataAttrs)
	o.DefineData(StringKey("b"), value.Int32(2), DefaultDataAttrs)
	o.DefineData(StringKey("c"), value.Int32(3), DefaultDataAttrs)
	if !o.DeleteOwn(StringKey("a")) {
		t.Fatal("delete should succeed")
	}
	v, ok := o.GetOwn(StringKey("b"))
	if !ok || v.AsInt32() != 2 {
		t.Fatalf("got %v, %v", v, ok)
	}
	v, ok = o.GetOwn(StringKey("c"))
	if !ok || v.AsInt32() != 3 {
		t.Fatalf("got %v, %v", v, ok)
	}
}

func TestSetPrototypeCycleRejected(t *testing.T) {
	a := NewPlainObject(value.Null, "Object")
	b := NewPlainObject(value.FromHeapPointer(unsafe.Pointer(&a.Header)), "Object")
	if a.SetPrototype(value.FromHeapPointer(unsafe.Pointer(&b.Header))) {
		t.Fatal("setting a's prototype to b, where b's prototype is a, must fail (cycle)")
	}
}

func TestInlineCacheMonomorphicThenPolymorphic(t *testing.T) {
	ic := &InlineCache{}
	s1, s2 := RootShape.transitionAdd(StringKey("x"), DefaultDataAttrs), RootShape.transitionAdd(StringKey("y"), DefaultDataAttrs)
	if _, ok := ic.Lookup(s1); ok {
		t.Fatal("empty cache must miss")
	}
	ic.Record(s1, 0)
	if off, ok := ic.Lookup(s1); !ok || off != 0 {
		t.Fatal("monomorphic hit expected")
	}
	ic.Record(s2, 0)
	if ic.state != CachePolymorphic {
		t.Fatal("second distinct shape should widen to polymorphic")
	}
	if off, ok := ic.Lookup(s2); !ok || off != 0 {
		t.Fatal("polymorphic hit expected for second shape")
	}
}

func TestInlineCacheMegamorphic(t *testing.T) {
	ic := &InlineCache{}
	base := RootShape
	for i := 0; i < polymorphicWidth+1; i++ {
		s := base.transitionAdd(StringKey(string(rune('a'+i))), DefaultDataAttrs)
		ic.Record(s, i)
		base = s
	}
	if ic.state != CacheMegamorphic {
		t.Fatal("exceeding the polymorphic width must fall back to megamorphic")
	}
}
