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

// Package scope implements the interpreter's lexical scope: an ordered
// stack of crushed-name-to-Tag frames, innermost first. Lookup probes
// innermost to outermost; assignment updates the nearest enclosing binding
// or defines one in the innermost frame; removal is restricted to the
// innermost and global frames so scope walks stay unidirectional.
package scope

import (
	"errors"
	"fmt"

	"github.com/i-e-b/mecs-go/container"
	"github.com/i-e-b/mecs-go/tag"
)

// ErrDropGlobalFrame is returned by Drop when only the global frame remains.
var ErrDropGlobalFrame = errors.New("scope: cannot drop the global frame")

// positionalName returns the synthetic crushed-name used for the i'th
// positional parameter of a call frame: the index with the top bit set.
// bytecode.CrushName does not reserve the top bit, so a real identifier
// collides with a positional slot only if its 32-bit hash equals that value
// exactly, as with any other crushed-name collision.
func positionalName(i int) uint32 {
	return 0x80000000 | uint32(i)
}

// PositionalName exports the same formula for a compiler's function-call
// codegen: a prologue that binds positional argument i to a user-visible
// parameter name needs to emit the exact crushed name Push/Positional use.
func PositionalName(i int) uint32 { return positionalName(i) }

// Scope is a stack of binding frames. Frame 0 is the global frame and is
// created by New; it is never dropped.
type Scope struct {
	frames []*container.HashMap
}

// New returns a Scope containing only the global frame.
func New() *Scope {
	return &Scope{frames: []*container.HashMap{container.NewHashMap()}}
}

// Depth returns the number of frames, including the global frame.
func (s *Scope) Depth() int { return len(s.frames) }

// Push creates a new innermost frame, binding params[i] to its positional
// synthetic name.
func (s *Scope) Push(params []tag.Tag) {
	f := container.NewHashMap()
	for i, p := range params {
		f.Set(positionalName(i), p)
	}
	s.frames = append(s.frames, f)
}

// Drop removes the innermost frame. It refuses to drop the global frame.
func (s *Scope) Drop() error {
	if len(s.frames) <= 1 {
		return ErrDropGlobalFrame
	}
	s.frames = s.frames[:len(s.frames)-1]
	return nil
}

// Resolve returns the value bound to name in the nearest enclosing frame,
// searching innermost to outermost. If name is unbound anywhere, it returns
// tag.NotAResultTag.
func (s *Scope) Resolve(name uint32) tag.Tag {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if v, ok := s.frames[i].Get(name); ok {
			return v
		}
	}
	return tag.NotAResultTag
}

// Positional returns the value bound to the i'th positional parameter's
// synthetic name, resolved like any other name: innermost frame first, then
// enclosing frames.
func (s *Scope) Positional(i int) tag.Tag {
	return s.Resolve(positionalName(i))
}

// Set updates the nearest enclosing binding for name, or defines one in the
// innermost frame if name is unbound anywhere.
func (s *Scope) Set(name uint32, value tag.Tag) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if _, ok := s.frames[i].Get(name); ok {
			s.frames[i].Set(name, value)
			return
		}
	}
	s.frames[len(s.frames)-1].Set(name, value)
}

// Unset removes name's binding, restricted to the innermost and global
// frames: an unset that would otherwise have to walk and mutate an
// intermediate frame is refused.
func (s *Scope) Unset(name uint32) bool {
	if s.frames[len(s.frames)-1].Delete(name) {
		return true
	}
	if len(s.frames) > 1 {
		return s.frames[0].Delete(name)
	}
	return false
}

// IsSet reports whether name is bound in any frame.
func (s *Scope) IsSet(name uint32) bool {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if _, ok := s.frames[i].Get(name); ok {
			return true
		}
	}
	return false
}

// MutateNumber finds the nearest binding for name, asserts it is an Integer
// tag, and adds delta to it in place. It is used by the interpreter's
// increment opcode family.
func (s *Scope) MutateNumber(name uint32, delta int32) error {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if v, ok := s.frames[i].Get(name); ok {
			if v.Kind != tag.Integer {
				return fmt.Errorf("scope: binding is %s, not Integer", v.Kind)
			}
			s.frames[i].Set(name, tag.NewInteger(v.Int()+delta))
			return nil
		}
	}
	return fmt.Errorf("scope: no binding for crushed name %#x", name)
}
