package bytecode

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// CrushName collapses an identifier into the 32-bit hash used as a variable
// or function-table key everywhere a Tag's Payload field carries a "crushed
// name" (opcodes, scope bindings, symbol tables). Truncating a BLAKE2b-256
// digest keeps collisions at the level spec.md treats as a compiler error,
// without pulling in a bespoke hash function.
func CrushName(name string) uint32 {
	sum := blake2b.Sum256([]byte(name))
	return binary.BigEndian.Uint32(sum[:4])
}
