// Copyright 2024 The mecs-go Authors
// This file is part of mecs-go.
//
// mecs-go is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// mecs-go is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with mecs-go. If not, see <http://www.gnu.org/licenses/>.

// Package serialize encodes and decodes a Tag value graph for IPC messages
// and persistent storage. Scalars are written inline; dynamic strings,
// vectors, and maps are written with an explicit count so a reader can
// reconstruct the graph without a schema.
//
// Grounded on the teacher's integration/engine.go DecodePROBEContract /
// EncodePROBEContract pair (length-prefixed binary encode/decode of a
// constant pool plus bytecode blob) — the same magic/length-prefix/payload
// discipline, generalized here to a recursive Tag graph instead of a single
// flat contract blob.
package serialize

import (
	"encoding/binary"
	"errors"

	"github.com/i-e-b/mecs-go/arena"
	"github.com/i-e-b/mecs-go/container"
	"github.com/i-e-b/mecs-go/tag"
)

// ErrStatelessContainer is returned by EncodeStateless when asked to encode
// a container or dynamic string; stateless mode (used for event payloads)
// only carries scalars.
var ErrStatelessContainer = errors.New("serialize: stateless mode refuses containers and dynamic strings")

// ErrTruncated is returned by a decoder that runs out of bytes mid-value.
var ErrTruncated = errors.New("serialize: input truncated")

// ErrUnknownKind is returned when a decoder encounters a kind byte it does
// not know how to read back.
var ErrUnknownKind = errors.New("serialize: unrecognized kind byte in stream")

// VectorSource reads a Vector's elements for encoding. The interp/container
// packages' *container.Vector satisfies this directly.
type VectorSource interface {
	Len() int
	Get(i int) (tag.Tag, error)
}

// MapSource reads a HashMap's entries for encoding, in unspecified order.
type MapSource interface {
	Range(fn func(key uint32, value tag.Tag) bool)
}

// StringReader resolves a dyn-string pointer tag to its bytes, since the
// bytes live in an arena the serializer doesn't own directly.
type StringReader func(t tag.Tag) ([]byte, error)

// VectorReader resolves a vector-pointer tag to a VectorSource.
type VectorReader func(t tag.Tag) (VectorSource, error)

// MapReader resolves a hashmap-pointer tag to a MapSource.
type MapReader func(t tag.Tag) (MapSource, error)

// Encoder bundles the resolver callbacks Encode needs to read
// arena-resident structures referenced by pointer tags.
type Encoder struct {
	ReadString StringReader
	ReadVector VectorReader
	ReadMap    MapReader
}

// NewArenaEncoder returns an Encoder whose resolvers read container.Vector,
// container.HashMap, and container.MutableString values out of a's object
// table. The interpreter and scheduler do not use it: they encode IPC
// payloads with EncodeStateless.
func NewArenaEncoder(a *arena.Arena) *Encoder {
	return &Encoder{
		ReadString: func(t tag.Tag) ([]byte, error) {
			s, ok := container.DynStringAt(a, t)
			if !ok {
				return nil, ErrUnknownKind
			}
			return []byte(s.String()), nil
		},
		ReadVector: func(t tag.Tag) (VectorSource, error) {
			v, ok := container.VectorAt(a, t)
			if !ok {
				return nil, ErrUnknownKind
			}
			return v, nil
		},
		ReadMap: func(t tag.Tag) (MapSource, error) {
			m, ok := container.HashMapAt(a, t)
			if !ok {
				return nil, ErrUnknownKind
			}
			return m, nil
		},
	}
}

// Encode appends the wire encoding of root to dst and returns the result.
func (e *Encoder) Encode(dst []byte, root tag.Tag) ([]byte, error) {
	dst = append(dst, byte(root.Kind))
	switch {
	case root.Kind == tag.DynStringPtr:
		b, err := e.ReadString(root)
		if err != nil {
			return nil, err
		}
		dst = appendUint32(dst, uint32(len(b)))
		dst = append(dst, b...)
	case root.Kind == tag.SmallString:
		s := root.SmallStringValue()
		dst = appendUint32(dst, uint32(len(s)))
		dst = append(dst, s...)
	case root.Kind == tag.VectorPtr:
		v, err := e.ReadVector(root)
		if err != nil {
			return nil, err
		}
		dst = appendUint32(dst, uint32(v.Len()))
		for i := 0; i < v.Len(); i++ {
			elem, err := v.Get(i)
			if err != nil {
				return nil, err
			}
			dst, err = e.Encode(dst, elem)
			if err != nil {
				return nil, err
			}
		}
	case root.Kind == tag.HashMapPtr:
		m, err := e.ReadMap(root)
		if err != nil {
			return nil, err
		}
		var count uint32
		m.Range(func(uint32, tag.Tag) bool { count++; return true })
		dst = appendUint32(dst, count)
		var rangeErr error
		m.Range(func(key uint32, value tag.Tag) bool {
			keyBytes := []byte{byte(key >> 24), byte(key >> 16), byte(key >> 8), byte(key)}
			dst = appendUint32(dst, uint32(len(keyBytes)))
			dst = append(dst, keyBytes...)
			dst, rangeErr = e.Encode(dst, value)
			return rangeErr == nil
		})
		if rangeErr != nil {
			return nil, rangeErr
		}
	default:
		// Scalars: Params+Payload inline, 4+4 bytes.
		dst = appendUint32(dst, root.Params)
		dst = appendUint32(dst, root.Payload)
	}
	return dst, nil
}

func appendUint32(dst []byte, v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return append(dst, b[:]...)
}

// EncodeStateless encodes root for event payloads. It refuses any container
// or dynamic-string kind, accepting only inline scalars.
func EncodeStateless(dst []byte, root tag.Tag) ([]byte, error) {
	switch root.Kind {
	case tag.VectorPtr, tag.HashMapPtr, tag.DynStringPtr:
		return nil, ErrStatelessContainer
	}
	e := &Encoder{}
	return e.Encode(dst, root)
}

// decoder reads sequentially from a byte slice, tracking position.
type decoder struct {
	data []byte
	pos  int
}

func (d *decoder) readByte() (byte, error) {
	if d.pos >= len(d.data) {
		return 0, ErrTruncated
	}
	b := d.data[d.pos]
	d.pos++
	return b, nil
}

func (d *decoder) readUint32() (uint32, error) {
	if d.pos+4 > len(d.data) {
		return 0, ErrTruncated
	}
	v := binary.BigEndian.Uint32(d.data[d.pos : d.pos+4])
	d.pos += 4
	return v, nil
}

func (d *decoder) readBytes(n int) ([]byte, error) {
	if d.pos+n > len(d.data) {
		return nil, ErrTruncated
	}
	b := d.data[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

// Decode reads a value encoded by Encoder.Encode, allocating any dynamic
// strings, vectors, or maps inside a. It returns the root tag (whose pointer
// kinds, if any, are handles local to a) and the number of bytes consumed.
func Decode(data []byte, a *arena.Arena) (tag.Tag, int, error) {
	d := &decoder{data: data}
	t, err := decodeValue(d, a)
	return t, d.pos, err
}

func decodeValue(d *decoder, a *arena.Arena) (tag.Tag, error) {
	kindByte, err := d.readByte()
	if err != nil {
		return tag.Tag{}, err
	}
	kind := tag.Kind(kindByte)
	switch kind {
	case tag.DynStringPtr, tag.SmallString:
		length, err := d.readUint32()
		if err != nil {
			return tag.Tag{}, err
		}
		raw, err := d.readBytes(int(length))
		if err != nil {
			return tag.Tag{}, err
		}
		if small, ok := tag.NewSmallString(string(raw)); ok {
			return small, nil
		}
		s := container.NewMutableString(string(raw))
		return s.NewHandle(a)

	case tag.VectorPtr:
		count, err := d.readUint32()
		if err != nil {
			return tag.Tag{}, err
		}
		v := container.NewVector(a)
		for i := uint32(0); i < count; i++ {
			elem, err := decodeValue(d, a)
			if err != nil {
				return tag.Tag{}, err
			}
			v.Push(elem)
		}
		return v.NewHandle()

	case tag.HashMapPtr:
		count, err := d.readUint32()
		if err != nil {
			return tag.Tag{}, err
		}
		m := container.NewHashMap()
		for i := uint32(0); i < count; i++ {
			keyLen, err := d.readUint32()
			if err != nil {
				return tag.Tag{}, err
			}
			keyBytes, err := d.readBytes(int(keyLen))
			if err != nil {
				return tag.Tag{}, err
			}
			var key uint32
			for _, b := range keyBytes {
				key = key<<8 | uint32(b)
			}
			value, err := decodeValue(d, a)
			if err != nil {
				return tag.Tag{}, err
			}
			m.Set(key, value)
		}
		return m.NewHandle(a)

	default:
		params, err := d.readUint32()
		if err != nil {
			return tag.Tag{}, err
		}
		payload, err := d.readUint32()
		if err != nil {
			return tag.Tag{}, err
		}
		return tag.Tag{Kind: kind, Params: params, Payload: payload}, nil
	}
}
