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
	"io"
	"os"

	"gopkg.in/urfave/cli.v1"

	"github.com/i-e-b/mecs-go/bytecode"
	"github.com/i-e-b/mecs-go/compiler"
	"github.com/i-e-b/mecs-go/internal/diag"
	"github.com/i-e-b/mecs-go/interp"
	"github.com/i-e-b/mecs-go/scheduler"
)

// Exit codes per spec.md §6.
const (
	exitOK             = 0
	exitErrorState     = 1
	exitNonTerminating = 2
	exitMalformed      = 3
)

var runCommand = cli.Command{
	Name:      "run",
	Usage:     "run a single bytecode (or source) program to completion or budget",
	ArgsUsage: "<program>",
	Flags: []cli.Flag{
		cli.StringFlag{Name: "symbols", Usage: "symbol file path"},
		cli.StringFlag{Name: "config", Usage: "RunConfig JSON file overriding step/memory defaults"},
		cli.IntFlag{Name: "steps", Value: 1_000_000, Usage: "step budget (0 = unbounded)"},
		cli.IntFlag{Name: "mem", Value: 1 << 20, Usage: "interpreter arena size in bytes"},
		cli.BoolFlag{Name: "debug", Usage: "dump interpreter state to stderr on a non-success exit"},
		cli.BoolFlag{Name: "source", Usage: "treat <program> as mecs source text, compiling it first"},
	},
	Action: runAction,
}

func runAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.NewExitError("usage: mecs run [flags] <program>", exitMalformed)
	}
	path := c.Args().Get(0)

	cfg, err := loadRunConfig(c.String("config"))
	if err != nil {
		return cli.NewExitError(err.Error(), exitMalformed)
	}
	memSize := applyIfSet(c.IsSet("mem"), c.Int("mem"), cfg.MemSize)
	steps := applyIfSet(c.IsSet("steps"), c.Int("steps"), cfg.Steps)

	files, err := newJailedFiles(".")
	if err != nil {
		return cli.NewExitError(err.Error(), exitMalformed)
	}

	prog, err := loadProgram(files, path, c.Bool("source"))
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("loading %s: %v", path, err), exitMalformed)
	}

	var symbols map[uint32]string
	if sp := c.String("symbols"); sp != "" {
		raw, err := files.Load(sp)
		if err != nil {
			return cli.NewExitError(err.Error(), exitMalformed)
		}
		symbols, err = scheduler.DecodeSymbolFile(raw)
		if err != nil {
			return cli.NewExitError(err.Error(), exitMalformed)
		}
	}

	it, err := interp.New(0, prog, memSize, symbols)
	if err != nil {
		return cli.NewExitError(err.Error(), exitMalformed)
	}
	it.Console = stdoutConsole{}
	it.Files = files
	it.Compiler = compiler.New()

	if stdin, err := io.ReadAll(os.Stdin); err == nil {
		it.Feed(string(stdin))
	}

	res := it.Run(steps)
	switch res.State {
	case interp.Complete:
		return nil
	case interp.ErrorState:
		if c.Bool("debug") {
			fmt.Fprintln(os.Stderr, diag.DumpState(it))
		}
		return cli.NewExitError(res.FaultMessage, exitErrorState)
	default:
		if c.Bool("debug") {
			fmt.Fprintln(os.Stderr, diag.DumpState(it))
		}
		return cli.NewExitError(fmt.Sprintf("did not terminate: exited in state %s", res.State), exitNonTerminating)
	}
}

// loadProgram reads path through files and either decodes it as bytecode or
// (when asSource is set) compiles it as mecs source text.
func loadProgram(files *jailedFiles, path string, asSource bool) (*bytecode.Program, error) {
	data, err := files.Load(path)
	if err != nil {
		return nil, err
	}
	if asSource {
		return compiler.New().Compile(string(data))
	}
	return bytecode.Load(data)
}
