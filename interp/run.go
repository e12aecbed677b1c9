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

	"github.com/i-e-b/mecs-go/bytecode"
	"github.com/i-e-b/mecs-go/container"
	"github.com/i-e-b/mecs-go/tag"
)

// Run executes up to maxSteps instructions (maxSteps <= 0 means unbounded)
// and returns the exit Result. It is the scheduler's (or a standalone
// host's) only entry point into the dispatch loop.
func (i *Interpreter) Run(maxSteps int) Result {
	return i.runLoop(maxSteps)
}

// runLoop is Run's body, factored out so evalSource can re-enter it against
// a swapped-in Program/PC/stacks while sharing Scope and Functions.
func (i *Interpreter) runLoop(maxSteps int) Result {
	i.state = Running
	for step := 0; maxSteps <= 0 || step < maxSteps; step++ {
		if int(i.PC) >= len(i.Program.Instructions) {
			return i.completeFromStack()
		}

		instrPC := i.PC
		t := i.Program.Instructions[i.PC]
		i.PC++

		if t.Kind == tag.EndOfProgram {
			return i.completeFromStack()
		}
		if t.Kind == tag.EndOfSubProgram {
			return i.newFault(instrPC, fmt.Errorf("%w: EndOfSubProgram reached by linear execution", ErrInvalidOpcode))
		}
		if t.Kind != tag.Opcode {
			i.push(t)
			i.Steps++
			i.trimIfDue()
			continue
		}

		stop, res, err := i.dispatchOpcode(instrPC, t)
		i.Steps++
		i.trimIfDue()
		if err != nil {
			return i.newFault(instrPC, err)
		}
		if stop {
			return res
		}
	}
	i.state = Paused
	return Result{State: Paused}
}

// trimIfDue enforces the periodic value-stack trim: every 128 steps, a
// stack longer than 100 entries is cut down to its newest 100, dropping the
// oldest entries. This is a pragmatic guard against a runaway recursive
// loop leaking stack space (see SPEC_FULL.md §4), not a language feature a
// program can rely on for anything but bounding memory.
func (i *Interpreter) trimIfDue() {
	if i.Steps%128 == 0 && len(i.ValueStack) > 100 {
		i.ValueStack = i.ValueStack[len(i.ValueStack)-100:]
	}
}

func (i *Interpreter) completeFromStack() Result {
	v := tag.VoidTag
	if len(i.ValueStack) > 0 {
		v, _ = i.pop()
	}
	i.state = Complete
	return Result{State: Complete, Value: v}
}

// dispatchOpcode decodes t's class/action and performs the corresponding
// effect. It returns stop=true when Run should return res immediately
// (completion is handled by the caller, not here); err is non-nil only for
// fatal faults the caller turns into an ErrorState Result.
func (i *Interpreter) dispatchOpcode(instrPC uint32, t tag.Tag) (stop bool, res Result, err error) {
	switch bytecode.GetClass(t) {
	case bytecode.ClassFunction:
		switch bytecode.GetAction(t) {
		case bytecode.ActionCall:
			argCount := int(bytecode.ShortOperand(t))
			name := bytecode.WideOperand(t)
			return i.dispatchCall(instrPC, name, argCount)
		case bytecode.ActionDefine:
			return i.dispatchDefine(instrPC, t)
		}
		return true, Result{}, ErrInvalidOpcode

	case bytecode.ClassControl:
		switch bytecode.GetAction(t) {
		case bytecode.ActionJump:
			i.PC = uint32(int32(i.PC) + int32(bytecode.WideOperand(t)))
			return false, Result{}, nil
		case bytecode.ActionCompareJump:
			v, err := i.pop()
			if err != nil {
				return true, Result{}, err
			}
			if !i.toBool(v) {
				i.PC = uint32(int32(i.PC) + int32(bytecode.WideOperand(t)))
			}
			return false, Result{}, nil
		case bytecode.ActionReturn:
			if len(i.ReturnStack) == 0 {
				return true, Result{}, ErrReturnStackUnderflow
			}
			n := len(i.ReturnStack) - 1
			i.PC = i.ReturnStack[n]
			i.ReturnStack = i.ReturnStack[:n]
			if err := i.Scope.Drop(); err != nil {
				return true, Result{}, err
			}
			return false, Result{}, nil
		default:
			// ActionStringTableSkip (the load-time header) and
			// ActionInvalidReturn never have a runtime meaning.
			return true, Result{}, ErrInvalidOpcode
		}

	case bytecode.ClassCompare:
		argCount := int(bytecode.ShortOperand(t))
		args, err := i.popN(argCount)
		if err != nil {
			return true, Result{}, err
		}
		if !i.foldCompare(bytecode.CompareOpOf(t), args) {
			i.PC = uint32(int32(i.PC) + int32(bytecode.WideOperand(t)))
		}
		return false, Result{}, nil

	case bytecode.ClassMemory:
		return i.dispatchMemory(t)

	case bytecode.ClassIncrement:
		delta := int32(int8(bytecode.GetAction(t)))
		name := bytecode.WideOperand(t)
		if err := i.Scope.MutateNumber(name, delta); err != nil {
			return true, Result{}, err
		}
		return false, Result{}, nil

	default:
		return true, Result{}, ErrInvalidOpcode
	}
}

func (i *Interpreter) foldCompare(op bytecode.CompareOp, args []tag.Tag) bool {
	switch op {
	case bytecode.CompareEqual:
		return i.equalFold(args)
	case bytecode.CompareNotEqual:
		return !i.equalFold(args)
	case bytecode.CompareLess:
		return i.monotonic(args, func(a, b float64) bool { return a < b })
	case bytecode.CompareGreater:
		return i.monotonic(args, func(a, b float64) bool { return a > b })
	default:
		return false
	}
}

// dispatchDefine implements `fd`: the crushed name lives in a literal
// VariableRef tag immediately following the opcode (rather than packed into
// the opcode itself, which has no room left for a 32-bit name alongside an
// 8-bit arity and a 32-bit skip distance); the opcode's own payload is the
// total tag-slot distance from the opcode to just past the function body, so
// linear (top-level) execution steps over the body instead of falling into
// it.
func (i *Interpreter) dispatchDefine(instrPC uint32, t tag.Tag) (bool, Result, error) {
	if int(i.PC) >= len(i.Program.Instructions) {
		return true, Result{}, fmt.Errorf("%w: fd missing name operand", ErrInvalidOpcode)
	}
	nameTag := i.Program.Instructions[i.PC]
	if nameTag.Kind != tag.VariableRef {
		return true, Result{}, fmt.Errorf("%w: fd name operand is %s, not VariableRef", ErrInvalidOpcode, nameTag.Kind)
	}
	i.PC++
	arity := int(bytecode.ShortOperand(t))
	entry := i.PC
	skip := bytecode.WideOperand(t)
	i.Functions[nameTag.CrushedName()] = FunctionDef{Kind: FuncUser, Entry: entry, Arity: arity}
	i.PC = instrPC + skip
	return false, Result{}, nil
}

// dispatchCall implements `fc`: resolving and invoking a builtin or a
// user-defined function, including the `call` builtin's one level (or
// chained, bounded) indirection through a string naming the real function.
func (i *Interpreter) dispatchCall(instrPC uint32, crushedName uint32, argCount int) (bool, Result, error) {
	def, ok := i.Functions[crushedName]
	if !ok {
		return true, Result{}, fmt.Errorf("%w: %s", ErrUndefinedFunction, i.symbolName(crushedName))
	}

	args, err := i.peekN(argCount)
	if err != nil {
		return true, Result{}, err
	}

	// `call`'s indirection is resolved purely against the peeked args, never
	// touching the real stack, so a blocking target further down the chain
	// still leaves the original operand window intact for re-execution.
	for hops := 0; def.Kind == FuncCall; hops++ {
		if hops > 8 {
			return true, Result{}, fmt.Errorf("interp: call indirection too deep")
		}
		if len(args) == 0 {
			return true, Result{}, fmt.Errorf("%w: call needs a function name", ErrArityMismatch)
		}
		name := i.toString(args[0])
		crushedName = bytecode.CrushName(name)
		args = args[1:]
		def, ok = i.Functions[crushedName]
		if !ok {
			return true, Result{}, fmt.Errorf("%w: %s", ErrUndefinedFunction, name)
		}
	}

	if def.Kind == FuncUser {
		if len(args) != def.Arity {
			return true, Result{}, fmt.Errorf("%w: %s wants %d args, got %d", ErrArityMismatch, i.symbolName(crushedName), def.Arity, len(args))
		}
		i.dropN(argCount)
		i.ReturnStack = append(i.ReturnStack, i.PC)
		i.Scope.Push(args)
		i.PC = def.Entry
		return false, Result{}, nil
	}

	out, err := i.evalBuiltin(instrPC, def.Kind, args)
	if err != nil {
		return true, Result{}, err
	}

	switch out.block {
	case blockInput:
		i.PC = instrPC
		i.state = Waiting
		return true, Result{State: Waiting}, nil
	case blockIpcWait:
		i.PC = instrPC
		i.waitSet.Add(out.waitTarget)
		i.state = IpcWait
		return true, Result{State: IpcWait}, nil
	}

	i.dropN(argCount)
	i.push(out.value)

	switch out.yield {
	case IpcSend:
		// Not a block: the instruction already committed above. The
		// interpreter itself goes back to Paused so the scheduler can
		// dispatch it again next round; IpcSend is only this slice's exit
		// reason, not a resting state.
		i.state = Paused
		return true, Result{State: IpcSend, IPCTarget: out.ipcTarget, IPCPayload: out.ipcPayload}, nil
	case IpcSpawn:
		i.state = Paused
		return true, Result{State: IpcSpawn, SpawnPath: out.spawnPath}, nil
	default:
		return false, Result{}, nil
	}
}

func (i *Interpreter) dispatchMemory(t tag.Tag) (bool, Result, error) {
	name := bytecode.WideOperand(t)
	switch bytecode.GetAction(t) {
	case bytecode.ActionGet:
		i.push(i.Scope.Resolve(name))
		return false, Result{}, nil

	case bytecode.ActionSet:
		indexCount := int(bytecode.ShortOperand(t))
		value, err := i.pop()
		if err != nil {
			return true, Result{}, err
		}
		if indexCount == 0 {
			i.Scope.Set(name, value)
			return false, Result{}, nil
		}
		indices, err := i.popN(indexCount)
		if err != nil {
			return true, Result{}, err
		}
		if err := i.indexedSet(i.Scope.Resolve(name), indices, value); err != nil {
			return true, Result{}, err
		}
		return false, Result{}, nil

	case bytecode.ActionIsSet:
		i.push(boolTag(i.Scope.IsSet(name)))
		return false, Result{}, nil

	case bytecode.ActionUnset:
		i.Scope.Unset(name)
		return false, Result{}, nil

	default:
		return true, Result{}, ErrInvalidOpcode
	}
}

// indexedSet peels indices (already popped in push order) off the stack
// convention `ms` uses for indexed assignment and writes into the container
// base addresses. Only single-level vector indexing is implemented; mecs-go
// has no multi-dimensional indexing builtin to exercise more than that.
func (i *Interpreter) indexedSet(base tag.Tag, indices []tag.Tag, value tag.Tag) error {
	if len(indices) != 1 {
		return fmt.Errorf("interp: only single-level indexed set is supported, got %d indices", len(indices))
	}
	idx := int(i.toInt(indices[0]))
	switch base.Kind {
	case tag.VectorPtr:
		v, ok := container.VectorAt(i.Mem, base)
		if !ok {
			return fmt.Errorf("interp: indexed set target is not a live vector")
		}
		return v.Set(idx, value)
	default:
		return fmt.Errorf("interp: indexed set needs a vector target, got %s", base.Kind)
	}
}

func (i *Interpreter) symbolName(crushed uint32) string {
	if s, ok := i.DebugSymbols[crushed]; ok {
		return s
	}
	return fmt.Sprintf("<unknown> %#x", crushed)
}
