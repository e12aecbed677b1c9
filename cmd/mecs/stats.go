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

package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/urfave/cli.v1"

	"github.com/i-e-b/mecs-go/compiler"
	"github.com/i-e-b/mecs-go/scheduler"
)

// statsCommand runs a set of programs to completion, the same way `schedule`
// does, but renders per-interpreter arena zone occupancy and step counts as
// a table instead of interleaving program output, matching the teacher's
// own use of tablewriter for CLI diagnostics (see DESIGN.md).
var statsCommand = cli.Command{
	Name:      "stats",
	Usage:     "run programs to completion and report arena/scheduler diagnostics",
	ArgsUsage: "<program> [<program>...]",
	Flags: []cli.Flag{
		cli.IntFlag{Name: "rounds", Value: 64, Usage: "instructions executed per slice"},
		cli.IntFlag{Name: "slices", Value: 100_000, Usage: "max single-interpreter slices before giving up"},
		cli.IntFlag{Name: "mem", Value: 1 << 20, Usage: "per-interpreter arena size in bytes"},
	},
	Action: statsAction,
}

func statsAction(c *cli.Context) error {
	paths := []string(c.Args())
	if len(paths) == 0 {
		return cli.NewExitError("usage: mecs stats [flags] <program> [<program>...]", exitMalformed)
	}

	files, err := newJailedFiles(".")
	if err != nil {
		return cli.NewExitError(err.Error(), exitMalformed)
	}

	s, err := scheduler.New(c.Int("mem"))
	if err != nil {
		return cli.NewExitError(err.Error(), exitMalformed)
	}
	s.Files = files
	console := &captureConsole{}
	s.Console = console
	s.Compiler = compiler.New()

	if _, err := s.LoadProgramsConcurrently(paths, nil); err != nil {
		return cli.NewExitError(err.Error(), exitMalformed)
	}

	finalState, runErr := s.RunToCompletion(c.Int("rounds"), c.Int("slices"))

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Slot", "Path", "State", "Steps", "Occupied zones", "Empty zones", "Alloc bytes", "Free bytes"})
	for i := 0; i < s.Len(); i++ {
		slot := s.Slot(i)
		st := slot.Interpreter.Mem.Stats()
		table.Append([]string{
			fmt.Sprintf("%d", i),
			slot.Path,
			slot.Interpreter.State().String(),
			fmt.Sprintf("%d", slot.Interpreter.Steps),
			fmt.Sprintf("%d", st.OccupiedZones),
			fmt.Sprintf("%d", st.EmptyZones),
			fmt.Sprintf("%d", st.AllocatedBytes),
			fmt.Sprintf("%d", st.FreeBytes),
		})
	}
	table.Render()

	fmt.Printf("scheduler state: %s\n", finalState)
	if console.String() != "" {
		fmt.Println("--- program output ---")
		fmt.Print(console.String())
	}

	if runErr != nil {
		return cli.NewExitError(runErr.Error(), exitErrorState)
	}
	switch finalState {
	case scheduler.Complete:
		return nil
	case scheduler.Faulted:
		return cli.NewExitError(fmt.Sprintf("program %d faulted", s.FaultedSlot()), exitErrorState)
	default:
		return cli.NewExitError("did not terminate within slice budget", exitNonTerminating)
	}
}
