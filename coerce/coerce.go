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

// Package coerce implements the runtime's total type-coercion functions:
// every conversion has a defined fallback and never errors or panics, so the
// interpreter's builtins can always produce a result.
//
// Casting never mutates the source tag; a coercion that must allocate a new
// string does so through a StringAllocator that writes into the caller's
// arena and returns a pointer tag.
package coerce

import (
	"strconv"
	"strings"

	"github.com/i-e-b/mecs-go/arena"
	"github.com/i-e-b/mecs-go/container"
	"github.com/i-e-b/mecs-go/tag"
)

// StringReader resolves a string-bearing or pointer tag to its text, used by
// ToDouble/ToInteger/ToString when the source is a container or dyn-string.
type StringReader func(t tag.Tag) (string, bool)

// ToBoolean converts t to a Go bool. Integer/Fraction are truthy unless
// zero; strings are truthy unless empty, "false", or "0"; Unit/Void/
// NotAResult/Invalid are always false; any allocated pointer kind is true.
func ToBoolean(t tag.Tag, sr StringReader) bool {
	switch t.Kind {
	case tag.Integer:
		return t.Int() != 0
	case tag.Fraction:
		return t.Float() != 0
	case tag.Unit, tag.Void, tag.NotAResult, tag.Invalid:
		return false
	case tag.SmallString:
		return isTruthyString(t.SmallStringValue())
	case tag.DynStringPtr:
		if sr != nil {
			if s, ok := sr(t); ok {
				return isTruthyString(s)
			}
		}
		return true
	default:
		if t.Kind.Allocated() {
			return true
		}
		return false
	}
}

func isTruthyString(s string) bool {
	return s != "" && s != "false" && s != "0"
}

// ToInteger converts t to an int32. Integer is identity; Fraction
// truncates; strings parse as decimal, falling back to 0 on failure;
// Boolean-shaped values (see ToBoolean) become 0/1; pointer kinds become 0.
func ToInteger(t tag.Tag, sr StringReader) int32 {
	switch t.Kind {
	case tag.Integer:
		return t.Int()
	case tag.Fraction:
		return int32(t.Float())
	case tag.SmallString:
		return parseDecimalOr0(t.SmallStringValue())
	case tag.DynStringPtr:
		if sr != nil {
			if s, ok := sr(t); ok {
				return parseDecimalOr0(s)
			}
		}
		return 0
	default:
		if t.Kind.Allocated() {
			return 0
		}
		if ToBoolean(t, sr) {
			return 1
		}
		return 0
	}
}

func parseDecimalOr0(s string) int32 {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0
	}
	return int32(v)
}

// ToDouble converts t to a float64. Integer widens; Fraction dequantizes;
// strings parse, falling back to 0 on failure; everything else routes
// through ToInteger.
func ToDouble(t tag.Tag, sr StringReader) float64 {
	switch t.Kind {
	case tag.Integer:
		return float64(t.Int())
	case tag.Fraction:
		return t.Float()
	case tag.SmallString:
		return parseFloatOr0(t.SmallStringValue())
	case tag.DynStringPtr:
		if sr != nil {
			if s, ok := sr(t); ok {
				return parseFloatOr0(s)
			}
		}
		return 0
	default:
		return float64(ToInteger(t, sr))
	}
}

func parseFloatOr0(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// humanMarker is the stable text ToString returns for kinds with no natural
// decimal or textual representation.
func humanMarker(k tag.Kind) string {
	switch k {
	case tag.NotAResult:
		return "<not-a-result>"
	case tag.Void:
		return "<void>"
	case tag.Unit:
		return "<unit>"
	case tag.Invalid:
		return "<invalid>"
	default:
		return "<" + k.String() + ">"
	}
}

// ContainerInspector stringifies a pointer-kind tag by inspecting the
// container it addresses (used for Vector/HashMap ToString).
type ContainerInspector func(t tag.Tag) (string, bool)

// StringAllocator writes s into an arena and returns a pointer tag
// addressing it, used when ToString must allocate rather than return an
// inline small string.
type StringAllocator func(s string) (tag.Tag, error)

// ToString converts t to a Go string for display or further processing.
// Integers/fractions format to decimal; small strings unpack directly;
// dyn-strings resolve through sr; pointer kinds stringify through
// inspect; everything else returns a stable human marker.
func ToString(t tag.Tag, sr StringReader, inspect ContainerInspector) string {
	switch t.Kind {
	case tag.Integer:
		return strconv.FormatInt(int64(t.Int()), 10)
	case tag.Fraction:
		return strconv.FormatFloat(t.Float(), 'f', -1, 64)
	case tag.SmallString:
		return t.SmallStringValue()
	case tag.DynStringPtr:
		if sr != nil {
			if s, ok := sr(t); ok {
				return s
			}
		}
		return humanMarker(t.Kind)
	case tag.VectorPtr, tag.HashMapPtr:
		if inspect != nil {
			if s, ok := inspect(t); ok {
				return s
			}
		}
		return humanMarker(t.Kind)
	case tag.NotAResult, tag.Void, tag.Unit, tag.Invalid:
		return humanMarker(t.Kind)
	default:
		return humanMarker(t.Kind)
	}
}

// NewArenaStringAllocator returns a StringAllocator that packs short strings
// inline as SmallString tags and longer strings into a's object table as a
// container.MutableString, addressed by a DynStringPtr tag.
func NewArenaStringAllocator(a *arena.Arena) StringAllocator {
	return func(s string) (tag.Tag, error) {
		if small, ok := tag.NewSmallString(s); ok {
			return small, nil
		}
		return container.NewMutableString(s).NewHandle(a)
	}
}

// NewArenaStringReader returns a StringReader that resolves DynStringPtr
// tags through a's object table.
func NewArenaStringReader(a *arena.Arena) StringReader {
	return func(t tag.Tag) (string, bool) {
		s, ok := container.DynStringAt(a, t)
		if !ok {
			return "", false
		}
		return s.String(), true
	}
}
