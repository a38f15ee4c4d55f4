package cell

import "testing"

type fakeFiber struct {
	Header
	data []byte
}

func TestPoolAllocateIsZeroed(t *testing.T) {
	destroyed := 0
	p := NewPool[fakeFiber](KindFiber, 4, func(f *fakeFiber) { destroyed++ })
	a := p.Allocate()
	a.data = []byte("hi")
	if a.Kind != KindFiber {
		t.Fatalf("Kind = %v, want KindFiber", a.Kind)
	}
	b := p.Allocate()
	if b.data != nil {
		t.Fatal("Allocate must return a zeroed slot")
	}
	if destroyed != 0 {
		t.Fatal("destroy must not run before a collection")
	}
}

func TestHeapCollectSweepsUnreachable(t *testing.T) {
	h := NewHeap(nil)
	destroyed := 0
	p := NewPool[fakeFiber](KindFiber, 4, func(f *fakeFiber) { destroyed++ })
	Register(h, p)

	kept := p.Allocate()
	kept.data = []byte("root")
	discarded := p.Allocate()
	discarded.data = []byte("garbage")

	h.AddRoot(func(out []*Header) []*Header {
		return append(out, headerOf(kept))
	})

	h.Collect()

	if destroyed != 1 {
		t.Fatalf("expected exactly one destroyed cell, got %d", destroyed)
	}
	if kept.data == nil {
		t.Fatal("rooted cell must survive collection")
	}
}

func TestPoolGrowsOnlyWhenFull(t *testing.T) {
	p := NewPool[fakeFiber](KindFiber, 2, nil)
	p.Allocate()
	p.Allocate()
	if len(p.blocks) != 1 {
		t.Fatalf("expected 1 block after filling first block, got %d", len(p.blocks))
	}
	p.Allocate()
	if len(p.blocks) != 2 {
		t.Fatalf("expected a new block once the first was exhausted, got %d", len(p.blocks))
	}
}

func TestPinnedCellsSurviveWithoutRoots(t *testing.T) {
	h := NewHeap(nil)
	p := NewPool[fakeFiber](KindFiber, 4, nil)
	Register(h, p)

	singleton := p.Allocate()
	headerOf(singleton).Pin()

	h.Collect()
	h.Collect()

	if !headerOf(singleton).Pinned() {
		t.Fatal("pin flag must persist")
	}
}
