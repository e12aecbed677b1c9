package serialize

import (
	"testing"

	"github.com/i-e-b/mecs-go/arena"
	"github.com/i-e-b/mecs-go/container"
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

func TestScalarRoundTrip(t *testing.T) {
	a := newTestArena(t)
	e := NewArenaEncoder(a)
	in := tag.NewInteger(-42)
	wire, err := e.Encode(nil, in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, n, err := Decode(wire, a)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if n != len(wire) {
		t.Fatalf("consumed %d bytes, want %d", n, len(wire))
	}
	if !tag.Equal(in, out) {
		t.Fatalf("Decode() = %+v, want %+v", out, in)
	}
}

func TestSmallStringRoundTrip(t *testing.T) {
	a := newTestArena(t)
	e := NewArenaEncoder(a)
	in, _ := tag.NewSmallString("hi")
	wire, err := e.Encode(nil, in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, _, err := Decode(wire, a)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.Kind != tag.SmallString || out.SmallStringValue() != "hi" {
		t.Fatalf("Decode() = %+v, want small string %q", out, "hi")
	}
}

func TestDynStringRoundTrip(t *testing.T) {
	a := newTestArena(t)
	s := container.NewMutableString("a string long enough to not fit inline")
	root, err := s.NewHandle(a)
	if err != nil {
		t.Fatalf("NewHandle: %v", err)
	}
	e := NewArenaEncoder(a)
	wire, err := e.Encode(nil, root)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, _, err := Decode(wire, a)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got, ok := container.DynStringAt(a, out)
	if !ok {
		t.Fatalf("DynStringAt: not found")
	}
	if got.String() != s.String() {
		t.Fatalf("got %q, want %q", got.String(), s.String())
	}
}

func TestVectorRoundTrip(t *testing.T) {
	a := newTestArena(t)
	v := container.NewVector(a)
	v.Push(tag.NewInteger(1))
	v.Push(tag.NewInteger(2))
	v.Push(tag.NewInteger(3))
	root, err := v.NewHandle()
	if err != nil {
		t.Fatalf("NewHandle: %v", err)
	}
	e := NewArenaEncoder(a)
	wire, err := e.Encode(nil, root)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, _, err := Decode(wire, a)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got, ok := container.VectorAt(a, out)
	if !ok {
		t.Fatalf("VectorAt: not found")
	}
	if got.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", got.Len())
	}
	for i := 0; i < 3; i++ {
		elem, err := got.Get(i)
		if err != nil {
			t.Fatalf("Get(%d): %v", i, err)
		}
		if elem.Int() != int32(i+1) {
			t.Fatalf("Get(%d) = %d, want %d", i, elem.Int(), i+1)
		}
	}
}

func TestMapRoundTrip(t *testing.T) {
	a := newTestArena(t)
	m := container.NewHashMap()
	m.Set(1, tag.NewInteger(100))
	m.Set(2, tag.NewInteger(200))
	root, err := m.NewHandle(a)
	if err != nil {
		t.Fatalf("NewHandle: %v", err)
	}
	e := NewArenaEncoder(a)
	wire, err := e.Encode(nil, root)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, _, err := Decode(wire, a)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got, ok := container.HashMapAt(a, out)
	if !ok {
		t.Fatalf("HashMapAt: not found")
	}
	if got.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", got.Len())
	}
	v, ok := got.Get(1)
	if !ok || v.Int() != 100 {
		t.Fatalf("Get(1) = %v,%v want 100,true", v, ok)
	}
}

func TestStatelessRejectsContainers(t *testing.T) {
	a := newTestArena(t)
	v := container.NewVector(a)
	root, _ := v.NewHandle()
	if _, err := EncodeStateless(nil, root); err != ErrStatelessContainer {
		t.Fatalf("EncodeStateless: got %v, want ErrStatelessContainer", err)
	}
}

func TestStatelessAcceptsScalars(t *testing.T) {
	wire, err := EncodeStateless(nil, tag.NewInteger(7))
	if err != nil {
		t.Fatalf("EncodeStateless: %v", err)
	}
	if len(wire) == 0 {
		t.Fatalf("expected non-empty wire encoding")
	}
}

func TestDecodeTruncated(t *testing.T) {
	if _, _, err := Decode([]byte{}, newTestArena(t)); err != ErrTruncated {
		t.Fatalf("Decode: got %v, want ErrTruncated", err)
	}
}
