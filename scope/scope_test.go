package scope

import (
	"testing"

	"github.com/i-e-b/mecs-go/tag"
)

func TestResolveUnboundReturnsNotAResult(t *testing.T) {
	s := New()
	got := s.Resolve(42)
	if got.Kind != tag.NotAResult {
		t.Fatalf("Resolve() kind = %v, want NotAResult", got.Kind)
	}
}

func TestSetDefinesInInnermostFrame(t *testing.T) {
	s := New()
	s.Push(nil)
	s.Set(7, tag.NewInteger(100))
	if !s.IsSet(7) {
		t.Fatalf("expected binding to be set")
	}
	if err := s.Drop(); err != nil {
		t.Fatalf("Drop: %v", err)
	}
	if s.IsSet(7) {
		t.Fatalf("binding from dropped frame should be gone")
	}
}

func TestSetUpdatesNearestEnclosingBinding(t *testing.T) {
	s := New()
	s.Set(1, tag.NewInteger(1))
	s.Push(nil)
	s.Set(1, tag.NewInteger(2))
	got := s.Resolve(1)
	if got.Int() != 2 {
		t.Fatalf("Resolve(1) = %d, want 2", got.Int())
	}
	s.Drop()
	got = s.Resolve(1)
	if got.Int() != 2 {
		t.Fatalf("global binding should have been updated through the inner frame, got %d", got.Int())
	}
}

func TestDropNeverRemovesGlobalFrame(t *testing.T) {
	s := New()
	if err := s.Drop(); err != ErrDropGlobalFrame {
		t.Fatalf("Drop() on global-only scope: got %v, want ErrDropGlobalFrame", err)
	}
}

func TestPositionalParameters(t *testing.T) {
	s := New()
	s.Push([]tag.Tag{tag.NewInteger(10), tag.NewInteger(20)})
	if got := s.Positional(0); got.Int() != 10 {
		t.Fatalf("Positional(0) = %d, want 10", got.Int())
	}
	if got := s.Positional(1); got.Int() != 20 {
		t.Fatalf("Positional(1) = %d, want 20", got.Int())
	}
}

func TestMutateNumber(t *testing.T) {
	s := New()
	s.Set(5, tag.NewInteger(10))
	if err := s.MutateNumber(5, 3); err != nil {
		t.Fatalf("MutateNumber: %v", err)
	}
	got := s.Resolve(5)
	if got.Int() != 13 {
		t.Fatalf("Resolve(5) = %d, want 13", got.Int())
	}
}

func TestMutateNumberRejectsNonInteger(t *testing.T) {
	s := New()
	s.Set(5, tag.VoidTag)
	if err := s.MutateNumber(5, 1); err == nil {
		t.Fatalf("MutateNumber on a non-Integer binding should error")
	}
}

func TestMutateNumberUnboundErrors(t *testing.T) {
	s := New()
	if err := s.MutateNumber(999, 1); err == nil {
		t.Fatalf("MutateNumber on an unbound name should error")
	}
}

func TestUnsetRestrictedToInnermostAndGlobal(t *testing.T) {
	s := New()
	s.Set(1, tag.NewInteger(1)) // global frame
	s.Push(nil)                 // middle frame
	s.Push(nil)                 // innermost frame
	s.Set(2, tag.NewInteger(2)) // defined in innermost

	if !s.Unset(2) {
		t.Fatalf("Unset should remove an innermost-frame binding")
	}
	if s.IsSet(2) {
		t.Fatalf("binding should be gone after Unset")
	}
	if !s.Unset(1) {
		t.Fatalf("Unset should reach the global frame when innermost misses")
	}
	if s.IsSet(1) {
		t.Fatalf("global binding should be gone after Unset")
	}
}
