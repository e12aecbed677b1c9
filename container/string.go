package container

import (
	"hash/fnv"

	"github.com/i-e-b/mecs-go/arena"
	"github.com/i-e-b/mecs-go/tag"
)

// MutableString is a growable byte buffer with a hash that's computed once
// and cached until the next mutation invalidates it.
type MutableString struct {
	bytes  []byte
	hash   uint64
	hashOK bool
}

// NewMutableString returns a MutableString initialized from s.
func NewMutableString(s string) *MutableString {
	return &MutableString{bytes: []byte(s)}
}

// String returns the current contents.
func (m *MutableString) String() string { return string(m.bytes) }

// Len returns the current byte length.
func (m *MutableString) Len() int { return len(m.bytes) }

// Append adds s to the end of the buffer, invalidating the cached hash.
func (m *MutableString) Append(s string) {
	m.bytes = append(m.bytes, s...)
	m.hashOK = false
}

// Truncate shortens the buffer to n bytes, invalidating the cached hash. It
// is a no-op if n >= Len().
func (m *MutableString) Truncate(n int) {
	if n < len(m.bytes) {
		m.bytes = m.bytes[:n]
		m.hashOK = false
	}
}

// SetByte overwrites the byte at index i, invalidating the cached hash.
func (m *MutableString) SetByte(i int, b byte) error {
	if i < 0 || i >= len(m.bytes) {
		return ErrIndexOutOfRange
	}
	m.bytes[i] = b
	m.hashOK = false
	return nil
}

// Hash returns a 64-bit FNV-1a hash of the current contents, computing and
// caching it on first use after construction or the last mutation.
func (m *MutableString) Hash() uint64 {
	if !m.hashOK {
		h := fnv.New64a()
		h.Write(m.bytes)
		m.hash = h.Sum64()
		m.hashOK = true
	}
	return m.hash
}

// NewHandle registers m in a's object table and returns a DynStringPtr tag
// addressing it.
func (m *MutableString) NewHandle(a *arena.Arena) (tag.Tag, error) {
	h, err := a.AllocObject(m)
	if err != nil {
		return tag.Tag{}, err
	}
	return tag.NewDynStringPtr(uint32(h)), nil
}

// DynStringAt resolves a DynStringPtr tag back to the *MutableString it
// addresses.
func DynStringAt(a *arena.Arena, t tag.Tag) (*MutableString, bool) {
	obj, ok := a.Object(arena.Handle(t.Payload))
	if !ok {
		return nil, false
	}
	s, ok := obj.(*MutableString)
	return s, ok
}
