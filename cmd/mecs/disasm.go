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

	"github.com/i-e-b/mecs-go/bytecode"
	"github.com/i-e-b/mecs-go/tag"
)

var disasmCommand = cli.Command{
	Name:      "disasm",
	Usage:     "disassemble a bytecode file's instruction stream",
	ArgsUsage: "<program.mecsb>",
	Action:    disasmAction,
}

func disasmAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.NewExitError("usage: mecs disasm <program.mecsb>", exitMalformed)
	}

	data, err := os.ReadFile(c.Args().Get(0))
	if err != nil {
		return cli.NewExitError(err.Error(), exitMalformed)
	}
	prog, err := bytecode.Load(data)
	if err != nil {
		return cli.NewExitError(err.Error(), exitMalformed)
	}

	if len(prog.Strings) > 0 {
		fmt.Println("string table:")
		for i, s := range prog.Strings {
			fmt.Printf("  [%d] %q\n", i, s)
		}
		fmt.Println()
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"PC", "Kind", "Detail"})
	table.SetAutoWrapText(false)
	for pc, t := range prog.Instructions {
		table.Append([]string{fmt.Sprintf("%d", pc), t.Kind.String(), disasmDetail(t)})
	}
	table.Render()
	return nil
}

// disasmDetail renders an instruction or literal-operand tag's class/action
// and operands as a short human-readable string, mirroring the shape of the
// teacher's own opcodeTable-driven disassembly in probe-lang/lang/vm.
func disasmDetail(t tag.Tag) string {
	if t.Kind != tag.Opcode {
		return literalDetail(t)
	}
	class := bytecode.GetClass(t)
	action := bytecode.GetAction(t)
	switch class {
	case bytecode.ClassFunction:
		switch action {
		case bytecode.ActionCall:
			return fmt.Sprintf("fc argc=%d name=%#08x", bytecode.ShortOperand(t), bytecode.WideOperand(t))
		case bytecode.ActionDefine:
			return fmt.Sprintf("fd arity=%d bodySkip=%d", bytecode.ShortOperand(t), bytecode.WideOperand(t))
		}
	case bytecode.ClassControl:
		switch action {
		case bytecode.ActionStringTableSkip:
			return fmt.Sprintf("cs skip=%d", bytecode.WideOperand(t))
		case bytecode.ActionCompareJump:
			return fmt.Sprintf("cc dist=%d", int32(bytecode.WideOperand(t)))
		case bytecode.ActionJump:
			return fmt.Sprintf("cj dist=%d", int32(bytecode.WideOperand(t)))
		case bytecode.ActionReturn:
			return "cr"
		case bytecode.ActionInvalidReturn:
			return "ct (invalid)"
		}
	case bytecode.ClassCompare:
		return fmt.Sprintf("C%c argc=%d dist=%d", bytecode.CompareOpOf(t), bytecode.ShortOperand(t), int32(bytecode.WideOperand(t)))
	case bytecode.ClassMemory:
		return fmt.Sprintf("m%c name=%#08x idx=%d", action, bytecode.WideOperand(t), bytecode.ShortOperand(t))
	case bytecode.ClassIncrement:
		return fmt.Sprintf("i delta=%d name=%#08x", int8(action), bytecode.WideOperand(t))
	}
	return fmt.Sprintf("? class=%c action=%c", class, action)
}

func literalDetail(t tag.Tag) string {
	switch t.Kind {
	case tag.Integer:
		return fmt.Sprintf("%d", t.Int())
	case tag.Fraction:
		return fmt.Sprintf("%g", t.Float())
	case tag.SmallString:
		return fmt.Sprintf("%q", t.SmallStringValue())
	case tag.StaticStringPtr, tag.DynStringPtr, tag.DebugStringPtr:
		return fmt.Sprintf("offset=%d", t.Payload)
	case tag.VariableRef:
		return fmt.Sprintf("name=%#08x", t.CrushedName())
	case tag.EndOfProgram, tag.EndOfSubProgram, tag.Void, tag.Unit, tag.NotAResult, tag.Invalid:
		return ""
	default:
		return fmt.Sprintf("params=%#06x payload=%#08x", t.Params, t.Payload)
	}
}
