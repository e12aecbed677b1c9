package container

import (
	"testing"

	"github.com/i-e-b/mecs-go/arena"
	"github.com/i-e-b/mecs-go/tag"
)

func newTestArena(t *testing.T) *arena.Arena {
	t.Helper()
	a, err := arena.New(4*arena.DefaultZoneSize, arena.DefaultZoneSize)
	if err != nil {
		t.Fatalf("arena.New: %v", err)
	}
	return a
}

func TestVectorPushPop(t *testing.T) {
	v := NewVector(newTestArena(t))
	for i := int32(0); i < 200; i++ {
		v.Push(tag.NewInteger(i))
	}
	if v.Len() != 200 {
		t.Fatalf("Len() = %d, want 200", v.Len())
	}
	for i := int32(199); i >= 0; i-- {
		got, ok := v.Pop()
		if !ok {
			t.Fatalf("Pop() returned ok=false at i=%d", i)
		}
		if got.Int() != i {
			t.Fatalf("Pop() = %d, want %d", got.Int(), i)
		}
	}
	if _, ok := v.Pop(); ok {
		t.Fatalf("Pop() on empty vector should return ok=false")
	}
}

func TestVectorGetSetAcrossChunks(t *testing.T) {
	v := NewVector(newTestArena(t))
	for i := int32(0); i < 300; i++ {
		v.Push(tag.NewInteger(i))
	}
	for i := 0; i < 300; i++ {
		got, err := v.Get(i)
		if err != nil {
			t.Fatalf("Get(%d): %v", i, err)
		}
		if got.Int() != int32(i) {
			t.Fatalf("Get(%d) = %d, want %d", i, got.Int(), i)
		}
	}
	if err := v.Set(150, tag.NewInteger(-1)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, _ := v.Get(150)
	if got.Int() != -1 {
		t.Fatalf("Get(150) after Set = %d, want -1", got.Int())
	}
}

func TestVectorDequeueIsFIFO(t *testing.T) {
	v := NewVector(newTestArena(t))
	for i := int32(0); i < 150; i++ {
		v.Push(tag.NewInteger(i))
	}
	for i := int32(0); i < 150; i++ {
		got, ok := v.Dequeue()
		if !ok {
			t.Fatalf("Dequeue() returned ok=false at i=%d", i)
		}
		if got.Int() != i {
			t.Fatalf("Dequeue() = %d, want %d", got.Int(), i)
		}
	}
}

func TestVectorSwap(t *testing.T) {
	v := NewVector(newTestArena(t))
	v.Push(tag.NewInteger(1))
	v.Push(tag.NewInteger(2))
	if err := v.Swap(0, 1); err != nil {
		t.Fatalf("Swap: %v", err)
	}
	a, _ := v.Get(0)
	b, _ := v.Get(1)
	if a.Int() != 2 || b.Int() != 1 {
		t.Fatalf("after Swap: Get(0)=%d Get(1)=%d, want 2,1", a.Int(), b.Int())
	}
}

func TestVectorOutOfRange(t *testing.T) {
	v := NewVector(newTestArena(t))
	v.Push(tag.NewInteger(1))
	if _, err := v.Get(5); err != ErrIndexOutOfRange {
		t.Fatalf("Get(5): got %v, want ErrIndexOutOfRange", err)
	}
	if err := v.Set(5, tag.NewInteger(0)); err != ErrIndexOutOfRange {
		t.Fatalf("Set(5): got %v, want ErrIndexOutOfRange", err)
	}
}

func TestVectorRandomAccessTriggersSkipTableRebuild(t *testing.T) {
	v := NewVector(newTestArena(t))
	for i := int32(0); i < 500; i++ {
		v.Push(tag.NewInteger(i))
	}
	for i := 0; i < skipTableRebuildThreshold+1; i++ {
		if _, err := v.Get(i % 500); err != nil {
			t.Fatalf("Get: %v", err)
		}
	}
	if !v.skipOK {
		t.Fatalf("expected skip table to be built after enough random-access walks")
	}
}
