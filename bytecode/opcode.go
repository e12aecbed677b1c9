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

// Package bytecode implements the opcode encoding, string table layout, and
// wire-format loader for compiled programs. It is the boundary between the
// compiler (out of scope as a collaborator) and the interpreter: the
// compiler emits well-formed tag.Tag streams matching this package's layout,
// and the interpreter dispatches on the Class/Action this package decodes.
//
// Grounded on the teacher's probe-lang/lang/vm/opcodes.go (an Opcode byte
// enum plus an opcodeTable of names/operand counts) and codegen.go's raw
// opcode constants — the same "class table + emit helpers" shape, retargeted
// from 4-byte register-machine instruction words to 64-bit Tag words.
package bytecode

import "github.com/i-e-b/mecs-go/tag"

// Class is the opcode's class byte: which operation family an Opcode tag
// belongs to.
type Class byte

const (
	ClassFunction  Class = 'f'
	ClassControl   Class = 'c'
	ClassCompare   Class = 'C'
	ClassMemory    Class = 'm'
	ClassIncrement Class = 'i'
	ClassReserved  Class = 's'
)

// Action is the opcode's action byte: which operation within a Class.
type Action byte

const (
	// ClassFunction actions.
	ActionCall   Action = 'c' // fc: call
	ActionDefine Action = 'd' // fd: define

	// ClassControl actions.
	ActionStringTableSkip Action = 's' // cs: string-table skip (header)
	ActionCompareJump     Action = 'c' // cc: compare-jump
	ActionJump            Action = 'j' // cj: unconditional jump
	ActionReturn          Action = 'r' // cr: return
	ActionInvalidReturn   Action = 't' // ct: invalid-return sentinel

	// ClassMemory actions.
	ActionGet   Action = 'g' // mg: get
	ActionSet   Action = 's' // ms: set
	ActionIsSet Action = 'h' // mh: isset
	ActionUnset Action = 'u' // mu: unset
)

// CompareOp is the comparison character carried by a ClassCompare opcode's
// Action field: '=', '!', '<', or '>'.
type CompareOp byte

const (
	CompareEqual    CompareOp = '='
	CompareNotEqual CompareOp = '!'
	CompareLess     CompareOp = '<'
	CompareGreater  CompareOp = '>'
)

// New packs class, action, a one-byte short operand, and a 32-bit wide
// operand into an Opcode tag.
func New(class Class, action Action, shortOperand byte, wideOperand uint32) tag.Tag {
	params := uint32(class)<<16 | uint32(action)<<8 | uint32(shortOperand)
	return tag.Tag{Kind: tag.Opcode, Params: params, Payload: wideOperand}
}

// NewCompare packs a ClassCompare opcode: op is the CmpOp character, argCount
// is the number of stack values folded, distance is the jump-on-false
// distance.
func NewCompare(op CompareOp, argCount byte, distance uint32) tag.Tag {
	return New(ClassCompare, Action(op), argCount, distance)
}

// GetClass returns an Opcode tag's class byte.
func GetClass(t tag.Tag) Class { return Class(byte(t.Params >> 16)) }

// GetAction returns an Opcode tag's action byte.
func GetAction(t tag.Tag) Action { return Action(byte(t.Params >> 8)) }

// CompareOpOf returns a ClassCompare opcode's comparison character.
func CompareOpOf(t tag.Tag) CompareOp { return CompareOp(GetAction(t)) }

// ShortOperand returns an Opcode tag's one-byte operand.
func ShortOperand(t tag.Tag) byte { return byte(t.Params) }

// WideOperand returns an Opcode tag's 32-bit operand.
func WideOperand(t tag.Tag) uint32 { return t.Payload }

// Operands16 splits the 32-bit operand into two 16-bit halves, for opcodes
// using the "2x16-bit operand" shape instead of one wide 32-bit operand.
func Operands16(t tag.Tag) (hi, lo uint16) {
	return uint16(t.Payload >> 16), uint16(t.Payload)
}

// NewOperands16 packs two 16-bit operands into a single Opcode tag's Payload.
func NewOperands16(class Class, action Action, shortOperand byte, hi, lo uint16) tag.Tag {
	return New(class, action, shortOperand, uint32(hi)<<16|uint32(lo))
}

// IsOpcode reports whether t is an Opcode tag of the given class and action
// — the dispatch loop's typical test before decoding operands.
func IsOpcode(t tag.Tag, class Class, action Action) bool {
	return t.Kind == tag.Opcode && GetClass(t) == class && GetAction(t) == action
}
