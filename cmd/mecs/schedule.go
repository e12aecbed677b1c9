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
	"strings"

	"gopkg.in/urfave/cli.v1"

	"github.com/i-e-b/mecs-go/compiler"
	"github.com/i-e-b/mecs-go/internal/diag"
	"github.com/i-e-b/mecs-go/scheduler"
)

var scheduleCommand = cli.Command{
	Name:      "schedule",
	Usage:     "run several bytecode programs cooperatively, round-robin, with broadcast IPC",
	ArgsUsage: "<program> [<program>...]",
	Flags: []cli.Flag{
		cli.StringFlag{Name: "config", Usage: "RunConfig JSON file overriding rounds/slices/memory defaults"},
		cli.IntFlag{Name: "rounds", Value: 64, Usage: "instructions executed per slice"},
		cli.IntFlag{Name: "slices", Value: 100_000, Usage: "max single-interpreter slices before giving up"},
		cli.IntFlag{Name: "mem", Value: 1 << 20, Usage: "per-interpreter arena size in bytes"},
		cli.BoolFlag{Name: "debug", Usage: "dump every interpreter's state on a non-success exit"},
	},
	Action: scheduleAction,
}

func scheduleAction(c *cli.Context) error {
	paths := []string(c.Args())
	if len(paths) == 0 {
		return cli.NewExitError("usage: mecs schedule [flags] <program> [<program>...]", exitMalformed)
	}

	cfg, err := loadRunConfig(c.String("config"))
	if err != nil {
		return cli.NewExitError(err.Error(), exitMalformed)
	}
	memSize := applyIfSet(c.IsSet("mem"), c.Int("mem"), cfg.MemSize)
	rounds := applyIfSet(c.IsSet("rounds"), c.Int("rounds"), cfg.RoundsPerSlice)
	slices := applyIfSet(c.IsSet("slices"), c.Int("slices"), cfg.MaxSlices)

	files, err := newJailedFiles(".")
	if err != nil {
		return cli.NewExitError(err.Error(), exitMalformed)
	}

	s, err := scheduler.New(memSize)
	if err != nil {
		return cli.NewExitError(err.Error(), exitMalformed)
	}
	s.Files = files
	s.Console = stdoutConsole{}
	s.Compiler = compiler.New()

	if _, err := s.LoadProgramsConcurrently(paths, nil); err != nil {
		return cli.NewExitError(err.Error(), exitMalformed)
	}

	state, err := s.RunToCompletion(rounds, slices)
	if err != nil {
		return cli.NewExitError(err.Error(), exitErrorState)
	}

	switch state {
	case scheduler.Complete:
		return nil
	case scheduler.Faulted:
		faulted := s.FaultedSlot()
		if c.Bool("debug") {
			dumpAllSlots(s)
		}
		msg := fmt.Sprintf("program %d (%s) faulted", faulted, s.Slot(faulted).Path)
		return cli.NewExitError(msg, exitErrorState)
	default:
		if c.Bool("debug") {
			dumpAllSlots(s)
		}
		return cli.NewExitError("did not terminate within slice budget", exitNonTerminating)
	}
}

func dumpAllSlots(s *scheduler.Scheduler) {
	var b strings.Builder
	for i := 0; i < s.Len(); i++ {
		slot := s.Slot(i)
		fmt.Fprintf(&b, "--- slot %d: %s ---\n", i, slot.Path)
		b.WriteString(diag.DumpState(slot.Interpreter))
	}
	fmt.Fprintln(os.Stderr, b.String())
}
