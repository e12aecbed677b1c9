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
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"
	"gopkg.in/urfave/cli.v1"

	"github.com/i-e-b/mecs-go/bytecode"
	"github.com/i-e-b/mecs-go/compiler"
	"github.com/i-e-b/mecs-go/internal/diag"
	"github.com/i-e-b/mecs-go/interp"
	"github.com/i-e-b/mecs-go/tag"
)

// replHistoryFile mirrors the teacher's own console history file convention
// (a dotfile in the user's home directory, loaded on entry and rewritten on
// exit), kept short here since mecs has no other dotfiles to colocate it
// with.
const replHistoryFile = ".mecs_history"

var replCommand = cli.Command{
	Name:  "repl",
	Usage: "interactively evaluate mecs source lines against one persistent interpreter",
	Flags: []cli.Flag{
		cli.IntFlag{Name: "mem", Value: 1 << 20, Usage: "interpreter arena size in bytes"},
	},
	Action: replAction,
}

func replAction(c *cli.Context) error {
	emptyProgram := &bytecode.Program{Instructions: []tag.Tag{{Kind: tag.EndOfProgram}}}
	it, err := interp.New(0, emptyProgram, c.Int("mem"), nil)
	if err != nil {
		return cli.NewExitError(err.Error(), exitMalformed)
	}
	console := &captureConsole{}
	it.Console = console
	files, err := newJailedFiles(".")
	if err != nil {
		return cli.NewExitError(err.Error(), exitMalformed)
	}
	it.Files = files
	it.Compiler = compiler.New()

	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return replBatch(it, console, os.Stdin)
	}
	return replInteractive(it, console)
}

// replBatch evaluates one source line per input line, for a non-terminal
// stdin (piped source), without involving liner's line editor at all.
func replBatch(it *interp.Interpreter, console *captureConsole, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return cli.NewExitError(err.Error(), exitMalformed)
	}
	line := make([]byte, 0, 256)
	for _, b := range data {
		if b == '\n' {
			evalLine(it, console, string(line))
			line = line[:0]
			continue
		}
		line = append(line, b)
	}
	if len(line) > 0 {
		evalLine(it, console, string(line))
	}
	return nil
}

// replInteractive drives a peterh/liner line editor, matching the teacher's
// own console mode (history file under the user's home directory, one line
// of mecs source evaluated per Enter).
func replInteractive(it *interp.Interpreter, console *captureConsole) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	histPath := historyPath()
	if f, err := os.Open(histPath); err == nil {
		line.ReadHistory(f)
		f.Close()
	}

	fmt.Println("mecs repl — Ctrl-D or Ctrl-C to exit")
	for {
		text, err := line.Prompt("mecs> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				break
			}
			return cli.NewExitError(err.Error(), exitMalformed)
		}
		if text == "" {
			continue
		}
		line.AppendHistory(text)
		evalLine(it, console, text)
	}

	if f, err := os.Create(histPath); err == nil {
		line.WriteHistory(f)
		f.Close()
	}
	return nil
}

func evalLine(it *interp.Interpreter, console *captureConsole, src string) {
	result, err := it.Eval(src)
	if out := console.String(); out != "" {
		fmt.Print(out)
		*console = captureConsole{}
	}
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	if result.Kind == tag.Void || result.Kind == tag.Invalid {
		return
	}
	fmt.Println(diag.Dump(result))
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return replHistoryFile
	}
	return filepath.Join(home, replHistoryFile)
}
