package bytecode

import (
	"encoding/binary"
	"testing"

	"github.com/i-e-b/mecs-go/tag"
)

func sampleProgram() *Program {
	return &Program{
		Strings: []string{"main", "x"},
		Instructions: []tag.Tag{
			New(ClassMemory, ActionGet, 0, 1),
			tag.NewInteger(42),
			New(ClassControl, ActionReturn, 0, 0),
		},
	}
}

func TestEncodeLoadRoundTrip(t *testing.T) {
	p := sampleProgram()
	wire := Encode(p)
	got, err := Load(wire)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Strings) != len(p.Strings) {
		t.Fatalf("Strings = %v, want %v", got.Strings, p.Strings)
	}
	for i := range p.Strings {
		if got.Strings[i] != p.Strings[i] {
			t.Fatalf("Strings[%d] = %q, want %q", i, got.Strings[i], p.Strings[i])
		}
	}
	if len(got.Instructions) != len(p.Instructions) {
		t.Fatalf("Instructions len = %d, want %d", len(got.Instructions), len(p.Instructions))
	}
	for i := range p.Instructions {
		if !tag.Equal(got.Instructions[i], p.Instructions[i]) {
			t.Fatalf("Instructions[%d] = %+v, want %+v", i, got.Instructions[i], p.Instructions[i])
		}
	}
}

func TestLoadDetectsAlreadyNormalizedInput(t *testing.T) {
	p := sampleProgram()
	wire := Encode(p)

	// Re-encode the same tag stream directly in host order, simulating a
	// file that has already been through a prior Load/normalize pass.
	alreadyHost := make([]byte, len(wire))
	for i := 0; i+8 <= len(wire); i += 8 {
		v := wireOrder.Uint64(wire[i : i+8])
		hostOrder.PutUint64(alreadyHost[i:i+8], v)
	}

	got, err := Load(alreadyHost)
	if err != nil {
		t.Fatalf("Load of already-normalized input: %v", err)
	}
	if len(got.Instructions) != len(p.Instructions) {
		t.Fatalf("Instructions len = %d, want %d", len(got.Instructions), len(p.Instructions))
	}
}

func TestLoadRejectsTruncatedInput(t *testing.T) {
	if _, err := Load([]byte{1, 2, 3}); err != ErrTruncated {
		t.Fatalf("Load: got %v, want ErrTruncated", err)
	}
}

func TestLoadRejectsBadHeader(t *testing.T) {
	junk := make([]byte, 16)
	binary.BigEndian.PutUint64(junk[0:8], 0xFFFFFFFFFFFFFFFF)
	if _, err := Load(junk); err != ErrMalformedHeader {
		t.Fatalf("Load: got %v, want ErrMalformedHeader", err)
	}
}
