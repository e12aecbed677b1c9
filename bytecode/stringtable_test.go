package bytecode

import (
	"reflect"
	"testing"
)

func TestStringTableRoundTrip(t *testing.T) {
	in := []string{"", "a", "hello world", "exactly8", "nine char"}
	slots := EncodeStringTable(in)
	out, consumed, err := DecodeStringTable(slots)
	if err != nil {
		t.Fatalf("DecodeStringTable: %v", err)
	}
	if consumed != len(slots) {
		t.Fatalf("consumed = %d, want %d", consumed, len(slots))
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("DecodeStringTable() = %v, want %v", out, in)
	}
}

func TestStringTableMalformedLength(t *testing.T) {
	slots := EncodeStringTable([]string{"short"})
	truncated := slots[:len(slots)-1]
	if _, _, err := DecodeStringTable(truncated); err != errStringTableMalformed {
		t.Fatalf("DecodeStringTable: got %v, want errStringTableMalformed", err)
	}
}
