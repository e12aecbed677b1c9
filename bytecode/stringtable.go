package bytecode

import (
	"github.com/i-e-b/mecs-go/tag"
)

// EncodeStringTable packs strs into the tag-slot layout used by the string
// table: each entry is an Integer tag carrying the byte length, followed by
// ceil(length/8) tag slots holding the UTF-8 bytes, zero-padded.
func EncodeStringTable(strs []string) []tag.Tag {
	var out []tag.Tag
	for _, s := range strs {
		b := []byte(s)
		out = append(out, tag.NewInteger(int32(len(b))))
		slots := (len(b) + 7) / 8
		for i := 0; i < slots; i++ {
			var word [8]byte
			copy(word[:], b[i*8:])
			out = append(out, tag.Decode(beUint64(word[:])))
		}
	}
	return out
}

// beUint64 reinterprets 8 bytes as a big-endian uint64, matching how a
// string's raw bytes are packed into a tag slot's payload bits.
func beUint64(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}

// uint64ToBytes is the inverse of beUint64.
func uint64ToBytes(v uint64) [8]byte {
	var b [8]byte
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}

// DecodeStringTable reads strings back out of a tag-slot sequence produced
// by EncodeStringTable, returning the decoded strings and the number of
// slots consumed.
func DecodeStringTable(slots []tag.Tag) ([]string, int, error) {
	var strs []string
	i := 0
	for i < len(slots) {
		if slots[i].Kind != tag.Integer {
			return nil, 0, errStringTableMalformed
		}
		length := int(slots[i].Int())
		i++
		need := (length + 7) / 8
		if i+need > len(slots) {
			return nil, 0, errStringTableMalformed
		}
		buf := make([]byte, 0, length)
		for j := 0; j < need; j++ {
			word := uint64ToBytes(tag.Encode(slots[i+j]))
			buf = append(buf, word[:]...)
		}
		strs = append(strs, string(buf[:length]))
		i += need
	}
	return strs, i, nil
}
