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

package scheduler

import (
	"fmt"
	"testing"

	"github.com/i-e-b/mecs-go/bytecode"
	"github.com/i-e-b/mecs-go/interp"
	"github.com/i-e-b/mecs-go/tag"
)

// memFiles is a trivial interp.FileLoader/scheduler Files backing an
// in-memory map, standing in for a host's jailed filesystem loader in
// these tests.
type memFiles map[string][]byte

func (m memFiles) Load(path string) ([]byte, error) {
	data, ok := m[path]
	if !ok {
		return nil, fmt.Errorf("memFiles: no such file %q", path)
	}
	return data, nil
}

func encodeProgram(t *testing.T, instrs []tag.Tag) []byte {
	t.Helper()
	return bytecode.Encode(&bytecode.Program{Instructions: instrs})
}

func TestSchedulerIPCBroadcast(t *testing.T) {
	// A: send "ch" 42
	progA := []tag.Tag{
		tag.NewInteger(99), // channel name "99", coerced from an Integer like the interp tests
		tag.NewInteger(42),
		bytecode.New(bytecode.ClassFunction, bytecode.ActionCall, 2, bytecode.CrushName("send")),
		{Kind: tag.EndOfProgram},
	}
	// B: print(wait "ch")
	progB := []tag.Tag{
		tag.NewInteger(99),
		bytecode.New(bytecode.ClassFunction, bytecode.ActionCall, 1, bytecode.CrushName("wait")),
		bytecode.New(bytecode.ClassFunction, bytecode.ActionCall, 1, bytecode.CrushName("print")),
		{Kind: tag.EndOfProgram},
	}

	files := memFiles{
		"a.mecsb": encodeProgram(t, progA),
		"b.mecsb": encodeProgram(t, progB),
	}

	s, err := New(4096)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.Files = files

	if _, err := s.AddProgramFile("a.mecsb", ""); err != nil {
		t.Fatalf("AddProgramFile a: %v", err)
	}
	if _, err := s.AddProgramFile("b.mecsb", ""); err != nil {
		t.Fatalf("AddProgramFile b: %v", err)
	}

	state, err := s.RunToCompletion(100, 100)
	if err != nil {
		t.Fatalf("RunToCompletion: %v", err)
	}
	if state != Complete {
		t.Fatalf("want Complete, got %s (faulted slot %d)", state, s.FaultedSlot())
	}

	gotA := s.Slot(0).Interpreter.Output()
	if gotA != "" {
		t.Fatalf("A should have no output, got %q", gotA)
	}
	gotB := s.Slot(1).Interpreter.Output()
	if gotB != "42\n" {
		t.Fatalf("B wanted output %q, got %q", "42\n", gotB)
	}
}

func TestSchedulerFaultStopsOnError(t *testing.T) {
	prog := []tag.Tag{
		bytecode.New(bytecode.ClassFunction, bytecode.ActionCall, 0, bytecode.CrushName("no-such-builtin")),
		{Kind: tag.EndOfProgram},
	}
	files := memFiles{"p.mecsb": encodeProgram(t, prog)}

	s, err := New(4096)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.Files = files
	if _, err := s.AddProgramFile("p.mecsb", ""); err != nil {
		t.Fatalf("AddProgramFile: %v", err)
	}

	state, err := s.RunToCompletion(10, 10)
	if err != nil {
		t.Fatalf("RunToCompletion: %v", err)
	}
	if state != Faulted {
		t.Fatalf("want Faulted, got %s", state)
	}
	if s.FaultedSlot() != 0 {
		t.Fatalf("want faulted slot 0, got %d", s.FaultedSlot())
	}
}

var _ interp.Console = (*captureConsole)(nil)

type captureConsole struct{ lines []string }

func (c *captureConsole) WriteOutput(s string) { c.lines = append(c.lines, s) }
