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

// Package diag provides debug-dump helpers for interpreter and value-stack
// state, used by tests that want a readable failure dump and by the host
// CLI's `-debug` flag (cmd/mecs).
//
// Grounded on the teacher's broader go-probe-master test/debug surface,
// which carries github.com/davecgh/go-spew in its dependency graph for
// exactly this purpose: a deep, cycle-safe, field-by-field dump of a Go
// value, used where a plain %+v would elide unexported fields or produce
// an unreadable single line for a nested struct.
package diag

import (
	"github.com/davecgh/go-spew/spew"

	"github.com/i-e-b/mecs-go/interp"
	"github.com/i-e-b/mecs-go/tag"
)

// config mirrors the teacher's own spew.Config choices for test dumps:
// fixed field ordering, no pointer addresses (which would make dumps
// non-reproducible across runs), method calls disabled (dumps raw data,
// not String()-formatted summaries).
var config = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableMethods:          true,
	SortKeys:                true,
}

// Dump renders v (a tag.Tag, a []tag.Tag, or any other value) as a
// multi-line, human-readable string.
func Dump(v interface{}) string {
	return config.Sdump(v)
}

// stateSnapshot is the subset of Interpreter fields worth dumping: the full
// struct also carries the private arena and scope, which have their own
// Dump-worthy internals not meaningful outside their own package.
type stateSnapshot struct {
	ID          int
	PC          uint32
	Steps       uint64
	State       interp.State
	ValueStack  []tag.Tag
	ReturnStack []uint32
	Output      string
}

// DumpState renders an Interpreter's externally-visible execution state:
// PC, step count, both stacks, and accumulated output. Used by tests that
// want to see exactly what an interpreter was doing at the point of
// failure, and by cmd/mecs's `-debug` flag after a fault.
func DumpState(i *interp.Interpreter) string {
	snap := stateSnapshot{
		ID:          i.ID,
		PC:          i.PC,
		Steps:       i.Steps,
		State:       i.State(),
		ValueStack:  i.ValueStack,
		ReturnStack: i.ReturnStack,
		Output:      i.Output(),
	}
	return config.Sdump(snap)
}
