package container

import "testing"

func TestMutableStringAppendAndTruncate(t *testing.T) {
	s := NewMutableString("hello")
	s.Append(" world")
	if s.String() != "hello world" {
		t.Fatalf("String() = %q, want %q", s.String(), "hello world")
	}
	s.Truncate(5)
	if s.String() != "hello" {
		t.Fatalf("String() after Truncate = %q, want %q", s.String(), "hello")
	}
}

func TestMutableStringHashCaching(t *testing.T) {
	s := NewMutableString("abc")
	h1 := s.Hash()
	h2 := s.Hash()
	if h1 != h2 {
		t.Fatalf("Hash() not stable across calls: %d != %d", h1, h2)
	}
	s.Append("d")
	h3 := s.Hash()
	if h3 == h1 {
		t.Fatalf("Hash() should change after mutation")
	}
}

func TestMutableStringSetByte(t *testing.T) {
	s := NewMutableString("abc")
	if err := s.SetByte(1, 'X'); err != nil {
		t.Fatalf("SetByte: %v", err)
	}
	if s.String() != "aXc" {
		t.Fatalf("String() = %q, want %q", s.String(), "aXc")
	}
	if err := s.SetByte(10, 'Y'); err != ErrIndexOutOfRange {
		t.Fatalf("SetByte out of range: got %v, want ErrIndexOutOfRange", err)
	}
}
