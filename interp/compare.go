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

package interp

import "github.com/i-e-b/mecs-go/tag"

// comparisonPrecision is the float tolerance for numeric equality, matching
// original_source/MecsNative/TagCodeInterpreter.cpp's ComparisonPrecision.
const comparisonPrecision = 1e-10

// neverEqualKind reports whether k always compares unequal, even to itself,
// per spec.md §4.8's Equal fold rules.
func neverEqualKind(k tag.Kind) bool {
	switch k {
	case tag.Invalid, tag.NotAResult, tag.Exception, tag.Void, tag.Unit, tag.Opcode:
		return true
	default:
		return false
	}
}

// tagsEqual compares two tags using the type-specific rules spec.md §4.8
// defines for the `=` fold: numeric compares within comparisonPrecision,
// strings compare byte-wise after coercion, reference kinds compare by
// (kind, payload), and a handful of sentinel kinds are always unequal.
func (i *Interpreter) tagsEqual(a, b tag.Tag) bool {
	if neverEqualKind(a.Kind) || neverEqualKind(b.Kind) {
		return false
	}
	if isNumericKind(a.Kind) && isNumericKind(b.Kind) {
		da, db := i.toFloat(a), i.toFloat(b)
		diff := da - db
		if diff < 0 {
			diff = -diff
		}
		return diff <= comparisonPrecision
	}
	if a.Kind.IsStringKind() && b.Kind.IsStringKind() {
		return i.toString(a) == i.toString(b)
	}
	if a.Kind.IsPointerKind() && b.Kind.IsPointerKind() {
		return a.Kind == b.Kind && a.Payload == b.Payload
	}
	return a.Kind == b.Kind && a.Payload == b.Payload && (a.Params&0xFFFFFF) == (b.Params&0xFFFFFF)
}

func isNumericKind(k tag.Kind) bool { return k == tag.Integer || k == tag.Fraction }

func (i *Interpreter) toFloat(t tag.Tag) float64 {
	switch t.Kind {
	case tag.Integer:
		return float64(t.Int())
	case tag.Fraction:
		return t.Float()
	default:
		return float64(i.toInt(t))
	}
}

// equalFold implements the `=`/`equals` builtin: true iff any of args[1:]
// compares equal to args[0].
func (i *Interpreter) equalFold(args []tag.Tag) bool {
	if len(args) < 2 {
		return false
	}
	for _, v := range args[1:] {
		if i.tagsEqual(args[0], v) {
			return true
		}
	}
	return false
}

// monotonic implements the `<`/`>` builtins: true iff the sequence is
// strictly monotonic under less/greater, short-circuiting on the first
// violation.
func (i *Interpreter) monotonic(args []tag.Tag, holds func(a, b float64) bool) bool {
	if len(args) < 2 {
		return false
	}
	for k := 1; k < len(args); k++ {
		if !holds(i.toFloat(args[k-1]), i.toFloat(args[k])) {
			return false
		}
	}
	return true
}
