package tag

// MaxSmallStringBytes is the number of inline bytes a SmallString tag can
// hold, packed across the 24-bit Params field and the 32-bit Payload field
// (7 bytes = 56 bits, exactly the 24+32 bits available).
const MaxSmallStringBytes = 7

// NewSmallString packs up to MaxSmallStringBytes bytes of s inline into a
// SmallString tag. Longer strings must use a DynStringPtr/StaticStringPtr
// instead; the caller is responsible for choosing the right representation.
func NewSmallString(s string) (Tag, bool) {
	if len(s) > MaxSmallStringBytes {
		return Tag{}, false
	}
	var buf [8]byte // buf[0] unused, buf[1:8] holds up to 7 bytes
	copy(buf[1:], s)
	params := uint32(buf[1])<<16 | uint32(buf[2])<<8 | uint32(buf[3])
	payload := uint32(buf[4])<<24 | uint32(buf[5])<<16 | uint32(buf[6])<<8 | uint32(buf[7])
	return Tag{Kind: SmallString, Params: params, Payload: payload}, true
}

// SmallStringValue decodes a SmallString tag back to a Go string, stopping
// at the first null byte.
func (t Tag) SmallStringValue() string {
	buf := []byte{
		byte(t.Params >> 16),
		byte(t.Params >> 8),
		byte(t.Params),
		byte(t.Payload >> 24),
		byte(t.Payload >> 16),
		byte(t.Payload >> 8),
		byte(t.Payload),
	}
	for i, b := range buf {
		if b == 0 {
			return string(buf[:i])
		}
	}
	return string(buf)
}

// NewDebugStringPtr wraps an arena offset as a DebugStringPtr tag.
func NewDebugStringPtr(offset uint32) Tag {
	return Tag{Kind: DebugStringPtr, Payload: offset}
}

// NewStaticStringPtr wraps a bytecode-relative offset as a StaticStringPtr tag.
func NewStaticStringPtr(offset uint32) Tag {
	return Tag{Kind: StaticStringPtr, Payload: offset}
}

// NewDynStringPtr wraps an arena offset as a DynStringPtr tag.
func NewDynStringPtr(offset uint32) Tag {
	return Tag{Kind: DynStringPtr, Payload: offset}
}

// IsStringKind reports whether k denotes one of the string-bearing kinds.
func (k Kind) IsStringKind() bool {
	switch k {
	case SmallString, DynStringPtr, StaticStringPtr, DebugStringPtr:
		return true
	default:
		return false
	}
}

// IsPointerKind reports whether k is an arena-handle-bearing kind, restricted
// to the container/string pointer forms rather than every allocated kind.
func (k Kind) IsPointerKind() bool {
	switch k {
	case HashMapPtr, VectorPtr, DynStringPtr:
		return true
	default:
		return false
	}
}
