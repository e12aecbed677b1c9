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

// Command mecs is the host process spec.md §6 describes: it loads bytecode
// (and optionally a symbol file), runs either a single program or a
// scheduler over several, and offers compile/disasm/repl conveniences
// around the same pipeline.
//
// Grounded on the teacher's probe-lang/cmd/probec/main.go (a small
// flag-driven single-purpose front end for the same language's compiler)
// and the surrounding node's cmd/gprobe, which structures its much larger
// CLI surface as gopkg.in/urfave/cli.v1 subcommands instead of bare flags
// — mecs's subcommand surface follows that shape at a scale matching its
// own much smaller host responsibilities.
package main

import (
	"os"

	"gopkg.in/urfave/cli.v1"

	"github.com/i-e-b/mecs-go/internal/xlog"
)

var log = xlog.New("pkg", "cmd/mecs")

const version = "0.1.0"

func main() {
	app := cli.NewApp()
	app.Name = "mecs"
	app.Usage = "run, schedule, compile, and inspect mecs-go bytecode programs"
	app.Version = version
	app.Commands = []cli.Command{
		runCommand,
		scheduleCommand,
		compileCommand,
		disasmCommand,
		statsCommand,
		replCommand,
	}

	if err := app.Run(os.Args); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			log.Error(exitErr.Error())
			os.Exit(exitErr.ExitCode())
		}
		log.Crit(err.Error())
	}
}
