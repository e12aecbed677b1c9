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

// Package tag implements the fixed-width tagged value ("Tag") that flows
// through every stack, scope, container, and wire format in mecs-go.
//
// A Tag is packed into 64 bits: an 8-bit Kind, a 24-bit Params field, and a
// 32-bit Payload. The split mirrors the instruction-word packing used by the
// interpreter's opcode stream (see package bytecode): both a value and an
// instruction are "kind + two operand fields", so the same struct layout and
// encode/decode discipline serves both.
package tag

import "fmt"

// Kind is the 8-bit discriminant of a Tag.
type Kind uint8

// Kinds with the high bit set (0x80) are "allocated": Payload is an
// arena-relative handle whose backing memory is refcounted by the owning
// arena. Kinds below 0x80 carry their data inline.
const (
	Invalid         Kind = 0
	VariableRef     Kind = 1
	Opcode          Kind = 2
	EndOfProgram    Kind = 3
	EndOfSubProgram Kind = 4
	NotAResult      Kind = 5
	Exception       Kind = 6
	Void            Kind = 7
	Unit            Kind = 8

	Integer  Kind = 65
	Fraction Kind = 66

	VectorIndex Kind = 12

	DebugStringPtr  Kind = 20
	SmallString     Kind = 21
	StaticStringPtr Kind = 22

	HashMapPtr   Kind = 129
	VectorPtr    Kind = 130
	DynStringPtr Kind = 150

	MustWait Kind = 250
)

// Allocated reports whether a Kind's Payload is an arena-relative handle
// subject to refcounted reclamation: the high bit of the kind byte marks
// allocated kinds.
func (k Kind) Allocated() bool { return k&0x80 != 0 }

// String returns a short human-readable kind name, used in diagnostics.
func (k Kind) String() string {
	switch k {
	case Invalid:
		return "Invalid"
	case VariableRef:
		return "VariableRef"
	case Opcode:
		return "Opcode"
	case EndOfProgram:
		return "EndOfProgram"
	case EndOfSubProgram:
		return "EndOfSubProgram"
	case NotAResult:
		return "NotAResult"
	case Exception:
		return "Exception"
	case Void:
		return "Void"
	case Unit:
		return "Unit"
	case Integer:
		return "Integer"
	case Fraction:
		return "Fraction"
	case VectorIndex:
		return "VectorIndex"
	case DebugStringPtr:
		return "DebugStringPtr"
	case SmallString:
		return "SmallString"
	case StaticStringPtr:
		return "StaticStringPtr"
	case HashMapPtr:
		return "HashMapPtr"
	case VectorPtr:
		return "VectorPtr"
	case DynStringPtr:
		return "DynStringPtr"
	case MustWait:
		return "MustWait"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Tag is the 64-bit packed value: Kind:8, Params:24, Payload:32.
type Tag struct {
	Kind    Kind
	Params  uint32 // only the low 24 bits are significant
	Payload uint32
}

// Encode packs t into a single uint64, Kind in the high byte, Params in the
// next 24 bits, Payload in the low 32 bits.
func Encode(t Tag) uint64 {
	return uint64(t.Kind)<<56 | uint64(t.Params&0xFFFFFF)<<32 | uint64(t.Payload)
}

// Decode unpacks a uint64 produced by Encode (or read from bytecode/wire
// form) back into a Tag.
func Decode(w uint64) Tag {
	return Tag{
		Kind:    Kind(w >> 56),
		Params:  uint32(w>>32) & 0xFFFFFF,
		Payload: uint32(w),
	}
}

// Equal reports bit-equality across all three fields.
func Equal(a, b Tag) bool {
	return a.Kind == b.Kind && (a.Params&0xFFFFFF) == (b.Params&0xFFFFFF) && a.Payload == b.Payload
}

// NewInteger returns a 32-bit signed Integer tag.
func NewInteger(v int32) Tag {
	return Tag{Kind: Integer, Payload: uint32(v)}
}

// Int returns the signed 32-bit value of an Integer tag. The caller must
// check Kind == Integer first; this is a total projection, not a coercion.
func (t Tag) Int() int32 { return int32(t.Payload) }

// fractionScale is the 16.16 fixed-point scale factor.
const fractionScale = 1 << 16

// NewFraction returns a Fraction tag (16.16 fixed point) for a float64 value.
// The 48-bit fixed-point word is split across Params (high 16 bits) and
// Payload (low 32 bits).
func NewFraction(v float64) Tag {
	raw := int64(v * fractionScale)
	return Tag{Kind: Fraction, Params: uint32(raw>>32) & 0xFFFFFF, Payload: uint32(raw)}
}

// Float returns the float64 value of a Fraction tag.
func (t Tag) Float() float64 {
	raw := int64(t.Params&0xFFFF)<<32 | int64(t.Payload)
	// Sign-extend from the 48-bit fixed-point word.
	if raw&(1<<47) != 0 {
		raw |= ^int64(0) << 48
	}
	return float64(raw) / fractionScale
}

// NewVariableRef wraps a 32-bit crushed-name hash as a VariableRef tag.
func NewVariableRef(crushedName uint32) Tag {
	return Tag{Kind: VariableRef, Payload: crushedName}
}

// CrushedName returns the crushed-name hash carried by a VariableRef tag.
func (t Tag) CrushedName() uint32 { return t.Payload }

// NewExceptionAt returns an Exception tag recording the faulting bytecode
// offset.
func NewExceptionAt(pc uint32) Tag {
	return Tag{Kind: Exception, Payload: pc}
}

// NewMustWait returns a MustWait tag telling the interpreter to resume at pc.
func NewMustWait(pc uint32) Tag {
	return Tag{Kind: MustWait, Payload: pc}
}

var (
	// NotAResultTag is the sentinel singleton; compare by Kind, not identity.
	NotAResultTag = Tag{Kind: NotAResult}
	// VoidTag is the canonical Void value.
	VoidTag = Tag{Kind: Void}
	// UnitTag is the canonical Unit value.
	UnitTag = Tag{Kind: Unit}
	// InvalidTag is the sentinel that must never appear on a valid stack.
	InvalidTag = Tag{Kind: Invalid}
)

// IsTruthyBearing reports whether a Kind can ever coerce to a meaningful
// boolean under package coerce's rules (used by a few fast paths in interp
// to skip a full coercion round-trip).
func (k Kind) IsTruthyBearing() bool {
	switch k {
	case Void, Unit, NotAResult, Invalid:
		return false
	default:
		return true
	}
}
