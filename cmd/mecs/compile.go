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
	"os"

	"gopkg.in/urfave/cli.v1"

	"github.com/i-e-b/mecs-go/bytecode"
	"github.com/i-e-b/mecs-go/compiler"
)

var compileCommand = cli.Command{
	Name:      "compile",
	Usage:     "compile mecs source text to a bytecode file",
	ArgsUsage: "<source.mecs>",
	Flags: []cli.Flag{
		cli.StringFlag{Name: "o", Usage: "output path (default: <source> with .mecsb suffix)"},
	},
	Action: compileAction,
}

func compileAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.NewExitError("usage: mecs compile [-o out] <source.mecs>", exitMalformed)
	}
	path := c.Args().Get(0)

	src, err := os.ReadFile(path)
	if err != nil {
		return cli.NewExitError(err.Error(), exitMalformed)
	}

	prog, err := compiler.New().Compile(string(src))
	if err != nil {
		return cli.NewExitError(err.Error(), exitMalformed)
	}

	out := c.String("o")
	if out == "" {
		out = path + "b"
	}
	if err := os.WriteFile(out, bytecode.Encode(prog), 0o644); err != nil {
		return cli.NewExitError(err.Error(), exitMalformed)
	}
	return nil
}
