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

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/i-e-b/mecs-go/bytecode"
	"github.com/i-e-b/mecs-go/container"
	"github.com/i-e-b/mecs-go/serialize"
	"github.com/i-e-b/mecs-go/tag"
)

// FuncKind identifies a function-table entry: either a user-defined function
// (body lives in the program's bytecode) or one of the builtin catalog
// adopted from original_source/MecsNative/TagCodeInterpreter.cpp's
// AddBuiltInFunctionSymbols, supplemented with the IPC primitives spec.md
// §4.8/§8 scenario 5 names but the original catalog doesn't enumerate.
type FuncKind uint8

const (
	FuncUser FuncKind = iota
	FuncEqual
	FuncNotEqual
	FuncGreaterThan
	FuncLessThan
	FuncAssert
	FuncRandom
	FuncEval
	FuncCall
	FuncLogicNot
	FuncLogicOr
	FuncLogicAnd
	FuncReadKey
	FuncReadLine
	FuncPrint
	FuncSubstring
	FuncLength
	FuncReplace
	FuncConcat
	FuncMathAdd
	FuncMathSub
	FuncMathMul
	FuncMathDiv
	FuncMathMod
	FuncUnitEmpty
	FuncSend
	FuncWait
	FuncSpawn
)

// FunctionDef is a function-table entry: either a builtin (Kind != FuncUser)
// or a user-defined function with an Entry PC and Arity recorded by `fd`.
type FunctionDef struct {
	Kind  FuncKind
	Entry uint32
	Arity int
}

// SeedBuiltins populates fd with every builtin's crushed name, mirroring the
// teacher's AddBuiltInFunctionSymbols seeding pass. It fills the function
// table only: no code adds these names to an interpreter's DebugSymbols, so
// a builtin missing from the loaded symbol file renders as "<unknown> 0x…".
func SeedBuiltins(fd map[uint32]FunctionDef) {
	add := func(name string, kind FuncKind) {
		fd[bytecode.CrushName(name)] = FunctionDef{Kind: kind}
	}
	add("=", FuncEqual)
	add("equals", FuncEqual)
	add(">", FuncGreaterThan)
	add("<", FuncLessThan)
	add("<>", FuncNotEqual)
	add("not-equal", FuncNotEqual)
	add("assert", FuncAssert)
	add("random", FuncRandom)
	add("eval", FuncEval)
	add("call", FuncCall)
	add("not", FuncLogicNot)
	add("or", FuncLogicOr)
	add("and", FuncLogicAnd)
	add("readkey", FuncReadKey)
	add("readline", FuncReadLine)
	add("print", FuncPrint)
	add("substring", FuncSubstring)
	add("length", FuncLength)
	add("replace", FuncReplace)
	add("concat", FuncConcat)
	add("+", FuncMathAdd)
	add("-", FuncMathSub)
	add("*", FuncMathMul)
	add("/", FuncMathDiv)
	add("%", FuncMathMod)
	add("()", FuncUnitEmpty)
	add("send", FuncSend)
	add("wait", FuncWait)
	add("spawn", FuncSpawn)
}

// blockKind reports why a builtin call suspended execution instead of
// returning a value synchronously.
type blockKind uint8

const (
	blockNone blockKind = iota
	blockInput
	blockIpcWait
)

// outcome is a builtin's evaluation result: either a value to push, or a
// block reason (the caller rewinds PC and exits Run without popping args).
type outcome struct {
	value tag.Tag
	block blockKind

	// set when block == blockIpcWait
	waitTarget string

	// set for send/spawn, which complete synchronously but still need to
	// surface a scheduler-visible yield once the opcode dispatch returns.
	yield      State
	ipcTarget  string
	ipcPayload []byte
	spawnPath  string
}

// evalBuiltin evaluates kind against args (already peeked off the value
// stack, oldest first). It never mutates the value stack itself; the caller
// commits the pop (on success) or leaves the stack untouched (on block).
func (i *Interpreter) evalBuiltin(instrPC uint32, kind FuncKind, args []tag.Tag) (outcome, error) {
	switch kind {
	case FuncEqual:
		return outcome{value: boolTag(i.equalFold(args))}, nil
	case FuncNotEqual:
		return outcome{value: boolTag(!i.equalFold(args))}, nil
	case FuncGreaterThan:
		return outcome{value: boolTag(i.monotonic(args, func(a, b float64) bool { return a > b }))}, nil
	case FuncLessThan:
		return outcome{value: boolTag(i.monotonic(args, func(a, b float64) bool { return a < b }))}, nil

	case FuncAssert:
		if len(args) == 0 {
			return outcome{}, fmt.Errorf("%w: assert needs at least one argument", ErrArityMismatch)
		}
		if !i.toBool(args[0]) {
			msg := "assertion failed"
			if len(args) > 1 {
				msg = i.toString(args[1])
			}
			return outcome{}, fmt.Errorf("%w: %s", ErrAssertionFailed, msg)
		}
		return outcome{value: tag.UnitTag}, nil

	case FuncRandom:
		if len(args) != 1 {
			return outcome{}, fmt.Errorf("%w: random takes exactly one argument", ErrArityMismatch)
		}
		bound := i.toInt(args[0])
		if bound <= 0 {
			return outcome{value: tag.NewInteger(0)}, nil
		}
		// Seeded by the step counter and argument count, per spec.md §4.8 —
		// deterministic and reproducible for a given run, not cryptographic.
		src := rand.New(rand.NewSource(int64(i.Steps)*1000003 + int64(len(args))))
		return outcome{value: tag.NewInteger(src.Int31n(bound))}, nil

	case FuncEval:
		if len(args) != 1 {
			return outcome{}, fmt.Errorf("%w: eval takes exactly one argument", ErrArityMismatch)
		}
		v, err := i.evalSource(i.toString(args[0]))
		if err != nil {
			return outcome{}, err
		}
		return outcome{value: v}, nil

	case FuncCall:
		if len(args) == 0 {
			return outcome{}, fmt.Errorf("%w: call needs a function name", ErrArityMismatch)
		}
		return outcome{}, fmt.Errorf("interp: dynamic call must be dispatched before evalBuiltin")

	case FuncLogicNot:
		if len(args) != 1 {
			return outcome{}, fmt.Errorf("%w: not takes exactly one argument", ErrArityMismatch)
		}
		return outcome{value: boolTag(!i.toBool(args[0]))}, nil

	case FuncLogicOr:
		any := false
		for _, a := range args {
			if i.toBool(a) {
				any = true
				break
			}
		}
		return outcome{value: boolTag(any)}, nil

	case FuncLogicAnd:
		all := true
		for _, a := range args {
			if !i.toBool(a) {
				all = false
				break
			}
		}
		return outcome{value: boolTag(all)}, nil

	case FuncReadKey:
		if i.inCur >= len(i.input) {
			return outcome{block: blockInput}, nil
		}
		b := i.input[i.inCur]
		i.inCur++
		return outcome{value: i.allocString(string(b))}, nil

	case FuncReadLine:
		nl := strings.IndexByte(string(i.input[i.inCur:]), '\n')
		if nl < 0 {
			return outcome{block: blockInput}, nil
		}
		line := string(i.input[i.inCur : i.inCur+nl])
		i.inCur += nl + 1
		return outcome{value: i.allocString(line)}, nil

	case FuncPrint:
		var b strings.Builder
		lastNonEmpty := false
		for _, a := range args {
			s := i.toString(a)
			b.WriteString(s)
			lastNonEmpty = s != ""
		}
		i.output.WriteString(b.String())
		if lastNonEmpty {
			i.output.WriteByte('\n')
		}
		if i.Console != nil {
			i.Console.WriteOutput(b.String())
		}
		return outcome{value: tag.VoidTag}, nil

	case FuncSubstring:
		if len(args) < 2 || len(args) > 3 {
			return outcome{}, fmt.Errorf("%w: substring takes 2 or 3 arguments", ErrArityMismatch)
		}
		s := i.toString(args[0])
		start := int(i.toInt(args[1]))
		if start < 0 {
			start = 0
		}
		if start > len(s) {
			start = len(s)
		}
		end := len(s)
		if len(args) == 3 {
			n := int(i.toInt(args[2]))
			if start+n < end {
				end = start + n
			}
		}
		return outcome{value: i.allocString(s[start:end])}, nil

	case FuncLength:
		if len(args) != 1 {
			return outcome{}, fmt.Errorf("%w: length takes exactly one argument", ErrArityMismatch)
		}
		switch args[0].Kind {
		case tag.VectorPtr:
			v, ok := container.VectorAt(i.Mem, args[0])
			if !ok {
				return outcome{value: tag.NewInteger(0)}, nil
			}
			return outcome{value: tag.NewInteger(int32(v.Len()))}, nil
		default:
			return outcome{value: tag.NewInteger(int32(len(i.toString(args[0]))))}, nil
		}

	case FuncReplace:
		if len(args) != 3 {
			return outcome{}, fmt.Errorf("%w: replace takes exactly three arguments", ErrArityMismatch)
		}
		src, old, new := i.toString(args[0]), i.toString(args[1]), i.toString(args[2])
		return outcome{value: i.allocString(strings.ReplaceAll(src, old, new))}, nil

	case FuncConcat:
		var b strings.Builder
		for _, a := range args {
			b.WriteString(i.toString(a))
		}
		return outcome{value: i.allocString(b.String())}, nil

	case FuncUnitEmpty:
		return outcome{value: tag.UnitTag}, nil

	case FuncMathAdd:
		return outcome{value: i.foldArith(args, 0, func(acc, v int32) int32 { return acc + v })}, nil
	case FuncMathSub:
		if len(args) == 1 {
			return outcome{value: tag.NewInteger(-i.toInt(args[0]))}, nil
		}
		return outcome{value: i.foldArithFirst(args, func(acc, v int32) int32 { return acc - v })}, nil
	case FuncMathMul:
		if len(args) < 2 {
			return outcome{}, fmt.Errorf("%w: * needs at least two arguments", ErrArityMismatch)
		}
		return outcome{value: i.foldArith(args, 1, func(acc, v int32) int32 { return acc * v })}, nil
	case FuncMathDiv:
		if len(args) < 2 {
			return outcome{}, fmt.Errorf("%w: / needs at least two arguments", ErrArityMismatch)
		}
		result := i.toInt(args[0])
		for _, a := range args[1:] {
			d := i.toInt(a)
			if d == 0 {
				return outcome{value: tag.NotAResultTag}, nil
			}
			result /= d
		}
		return outcome{value: tag.NewInteger(result)}, nil
	case FuncMathMod:
		if len(args) != 2 {
			return outcome{}, fmt.Errorf("%w: %% takes exactly two arguments", ErrArityMismatch)
		}
		d := i.toInt(args[1])
		if d == 0 {
			return outcome{value: tag.NotAResultTag}, nil
		}
		return outcome{value: tag.NewInteger(i.toInt(args[0]) % d)}, nil

	case FuncSend:
		if len(args) != 2 {
			return outcome{}, fmt.Errorf("%w: send takes exactly two arguments", ErrArityMismatch)
		}
		target := i.toString(args[0])
		if target == "" {
			return outcome{}, ErrMalformedIPC
		}
		payload, err := serialize.EncodeStateless(nil, args[1])
		if err != nil {
			return outcome{}, fmt.Errorf("%w: %v", ErrMalformedIPC, err)
		}
		return outcome{value: tag.VoidTag, yield: IpcSend, ipcTarget: target, ipcPayload: payload}, nil

	case FuncWait:
		if len(args) != 1 {
			return outcome{}, fmt.Errorf("%w: wait takes exactly one argument", ErrArityMismatch)
		}
		target := i.toString(args[0])
		if msg, ok := i.takeMessage(target); ok {
			v, _, err := serialize.Decode(msg.Payload, i.Mem)
			if err != nil {
				return outcome{}, err
			}
			return outcome{value: v}, nil
		}
		return outcome{block: blockIpcWait, waitTarget: target}, nil

	case FuncSpawn:
		if len(args) != 1 {
			return outcome{}, fmt.Errorf("%w: spawn takes exactly one argument", ErrArityMismatch)
		}
		path := i.toString(args[0])
		if path == "" {
			return outcome{}, ErrMalformedIPC
		}
		return outcome{value: tag.VoidTag, yield: IpcSpawn, spawnPath: path}, nil

	default:
		return outcome{}, fmt.Errorf("interp: unhandled builtin kind %d", kind)
	}
}

func boolTag(b bool) tag.Tag {
	if b {
		return tag.NewInteger(1)
	}
	return tag.NewInteger(0)
}

// Eval compiles and runs src against this interpreter's scope and function
// table, exposing the same eval-semantics evalSource gives the `eval`
// builtin to a host embedder directly — e.g. cmd/mecs's REPL mode, which
// feeds one line at a time through this instead of assembling a throwaway
// single-use program per line.
func (i *Interpreter) Eval(src string) (tag.Tag, error) {
	return i.evalSource(src)
}

// evalSource compiles and runs src against this interpreter's own scope and
// shared function table, per the eval-semantics Open Question resolution in
// SPEC_FULL.md §4: any `fd` the evaluated source contains installs into
// i.Functions exactly as a top-level `fd` would, and remains live after
// evalSource returns.
func (i *Interpreter) evalSource(src string) (tag.Tag, error) {
	if i.Compiler == nil {
		return tag.NotAResultTag, nil
	}
	prog, err := i.Compiler.Compile(src)
	if err != nil {
		return tag.Tag{}, err
	}
	savedProgram, savedPC := i.Program, i.PC
	savedVS, savedRS := i.ValueStack, i.ReturnStack
	i.Program, i.PC = prog, 0
	i.ValueStack, i.ReturnStack = nil, nil

	const maxEvalSteps = 1_000_000
	res := i.runLoop(maxEvalSteps)

	i.Program, i.PC = savedProgram, savedPC
	i.ValueStack, i.ReturnStack = savedVS, savedRS

	if res.State == ErrorState {
		return tag.Tag{}, fmt.Errorf("interp: eval faulted: %s", res.FaultMessage)
	}
	return res.Value, nil
}

// foldArith folds args left over seed using op, for commutative operators
// where an empty argument list is meaningful (identity element as seed).
func (i *Interpreter) foldArith(args []tag.Tag, seed int32, op func(acc, v int32) int32) tag.Tag {
	acc := seed
	for _, a := range args {
		acc = op(acc, i.toInt(a))
	}
	return tag.NewInteger(acc)
}

// foldArithFirst folds args[1:] over args[0] using op (for non-commutative
// operators like `-`, where the first argument seeds the accumulator).
func (i *Interpreter) foldArithFirst(args []tag.Tag, op func(acc, v int32) int32) tag.Tag {
	if len(args) == 0 {
		return tag.NewInteger(0)
	}
	acc := i.toInt(args[0])
	for _, a := range args[1:] {
		acc = op(acc, i.toInt(a))
	}
	return tag.NewInteger(acc)
}
