package bytecode

import (
	"encoding/binary"
	"errors"

	"github.com/i-e-b/mecs-go/tag"
)

// ErrMalformedHeader is returned when neither a network-order nor an
// already-normalized interpretation of the first tag looks like a valid
// header.
var ErrMalformedHeader = errors.New("bytecode: malformed or unrecognized header tag")

// ErrTruncated is returned when the input's length isn't a whole number of
// 8-byte tag slots.
var ErrTruncated = errors.New("bytecode: length is not a multiple of 8 bytes")

var errStringTableMalformed = errors.New("bytecode: string table truncated or malformed")

// hostOrder is the byte order this build's loader treats as "already
// normalized" — little-endian, matching the desktop and bare-metal targets
// this runtime ships on.
var hostOrder = binary.LittleEndian

// wireOrder is the canonical on-disk byte order for a bytecode file.
var wireOrder = binary.BigEndian

// Program is a loaded, host-order bytecode unit: the decoded string table
// and the instruction stream, ready for the interpreter to execute.
type Program struct {
	Strings      []string
	Instructions []tag.Tag
}

// isHeaderTag reports whether t has the header shape: class='c', action='s'.
func isHeaderTag(t tag.Tag) bool {
	return t.Kind == tag.Opcode && GetClass(t) == ClassControl && GetAction(t) == ActionStringTableSkip
}

// Load parses a raw bytecode file, normalizing network-order input to host
// order in a single pass and detecting already-normalized input by
// inspecting the first tag before swizzling, per the wire format contract.
func Load(data []byte) (*Program, error) {
	if len(data) == 0 || len(data)%8 != 0 {
		return nil, ErrTruncated
	}

	netHeader := tag.Decode(wireOrder.Uint64(data[:8]))
	var hostData []byte
	if isHeaderTag(netHeader) {
		hostData = swizzle(data, wireOrder, hostOrder)
	} else {
		hostHeader := tag.Decode(hostOrder.Uint64(data[:8]))
		if !isHeaderTag(hostHeader) {
			return nil, ErrMalformedHeader
		}
		hostData = data
	}

	slots := make([]tag.Tag, len(hostData)/8)
	for i := range slots {
		slots[i] = tag.Decode(hostOrder.Uint64(hostData[i*8 : i*8+8]))
	}

	header := slots[0]
	skip := WideOperand(header)
	if skip == 0 || int(skip) > len(slots) {
		return nil, ErrMalformedHeader
	}

	strs, _, err := DecodeStringTable(slots[1:skip])
	if err != nil {
		return nil, err
	}

	return &Program{
		Strings:      strs,
		Instructions: slots[skip:],
	}, nil
}

// swizzle re-encodes every 8-byte tag slot in data from srcOrder to dstOrder.
func swizzle(data []byte, srcOrder, dstOrder binary.ByteOrder) []byte {
	out := make([]byte, len(data))
	for i := 0; i+8 <= len(data); i += 8 {
		v := srcOrder.Uint64(data[i : i+8])
		dstOrder.PutUint64(out[i:i+8], v)
	}
	return out
}

// Encode serializes a Program to the canonical network-order wire format.
func Encode(p *Program) []byte {
	stringSlots := EncodeStringTable(p.Strings)
	skip := uint32(1 + len(stringSlots))
	header := New(ClassControl, ActionStringTableSkip, 0, skip)

	total := int(skip) + len(p.Instructions)
	out := make([]byte, total*8)
	wireOrder.PutUint64(out[0:8], tag.Encode(header))
	for i, s := range stringSlots {
		wireOrder.PutUint64(out[(1+i)*8:(1+i)*8+8], tag.Encode(s))
	}
	base := int(skip)
	for i, instr := range p.Instructions {
		off := (base + i) * 8
		wireOrder.PutUint64(out[off:off+8], tag.Encode(instr))
	}
	return out
}
