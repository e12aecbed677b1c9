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

// Package interp implements the single-program stack machine: value and
// return stacks, program counter, lexical scope, function table, builtin
// catalog, console/IPC I/O, and the cooperative step-budgeted run loop.
//
// Grounded on the teacher's probe-lang/lang/vm/vm.go dispatch loop
// (Step/execute, frame/callStack, gasUsed/gasLimit), retargeted from a
// 256-register machine to the Tag value-stack model spec.md defines: gas
// becomes the step budget, the register file becomes the value stack plus
// scope, and OpSend/OpRecv/OpSpawn become the IPC mailbox/wait-set/IpcSpawn
// states.
package interp

import (
	"errors"
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set"
	"github.com/google/uuid"

	"github.com/i-e-b/mecs-go/arena"
	"github.com/i-e-b/mecs-go/bytecode"
	"github.com/i-e-b/mecs-go/coerce"
	"github.com/i-e-b/mecs-go/container"
	"github.com/i-e-b/mecs-go/internal/xlog"
	"github.com/i-e-b/mecs-go/scope"
	"github.com/i-e-b/mecs-go/tag"
)

// ---- Error sentinels -------------------------------------------------------

// ErrReturnStackUnderflow is a fatal fault: a `cr` with nothing to return to.
var ErrReturnStackUnderflow = errors.New("interp: return stack underflow")

// ErrValueStackUnderflow is a fatal fault: an opcode popped more values than
// were available.
var ErrValueStackUnderflow = errors.New("interp: value stack underflow")

// ErrUndefinedFunction is a fatal fault: `fc` named a function with no
// builtin or user-defined entry.
var ErrUndefinedFunction = errors.New("interp: undefined function")

// ErrArityMismatch is a fatal fault: a builtin received the wrong argument count.
var ErrArityMismatch = errors.New("interp: arity mismatch")

// ErrAssertionFailed is a fatal fault raised by the `assert` builtin.
var ErrAssertionFailed = errors.New("interp: assertion failed")

// ErrInvalidOpcode is a fatal fault: an opcode's class/action pair has no
// defined runtime meaning (e.g. the reserved `s` class, or the `cs`/`ct`
// control sentinels appearing outside the load-time header).
var ErrInvalidOpcode = errors.New("interp: invalid opcode at runtime")

// ErrMalformedIPC is a fatal fault: a `send`/`spawn` with a null target or payload.
var ErrMalformedIPC = errors.New("interp: malformed IPC send")

var log = xlog.New("pkg", "interp")

// State is the interpreter's execution state, per spec.md §3/§4.8.
type State uint8

const (
	Paused State = iota
	Waiting
	Complete
	Running
	ErrorState
	IpcSend
	IpcWait
	IpcReady
	IpcSpawn
)

func (s State) String() string {
	switch s {
	case Paused:
		return "Paused"
	case Waiting:
		return "Waiting"
	case Complete:
		return "Complete"
	case Running:
		return "Running"
	case ErrorState:
		return "ErrorState"
	case IpcSend:
		return "IpcSend"
	case IpcWait:
		return "IpcWait"
	case IpcReady:
		return "IpcReady"
	case IpcSpawn:
		return "IpcSpawn"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Runnable reports whether the scheduler may dispatch a slice to an
// interpreter in this state (spec.md §4.10).
func (s State) Runnable() bool {
	switch s {
	case Paused, Waiting, IpcReady:
		return true
	default:
		return false
	}
}

// Message is one entry in an interpreter's IPC mailbox.
type Message struct {
	Target  string
	Payload []byte
}

// Result is what Run returns: the exit state plus whatever payload that
// state carries.
type Result struct {
	State State

	// Complete
	Value tag.Tag

	// ErrorState
	Fault        tag.Tag
	FaultMessage string

	// IpcSend / IpcSpawn
	IPCTarget  string
	IPCPayload []byte

	// IpcSpawn
	SpawnPath string
}

// Console is the narrow interface `print`/`readkey`/`readline` need from a
// host terminal; spec.md §1 treats the display/console subsystem as an
// out-of-scope collaborator reached through exactly this kind of interface.
type Console interface {
	WriteOutput(s string)
}

// EventSource is the out-of-scope collaborator an interpreter could poll for
// external events; mecs-go defines the seam without specifying a protocol.
type EventSource interface {
	Poll() (tag.Tag, bool)
}

// FileLoader resolves program paths (including the `spawn` builtin's
// IpcSpawn path) to bytes, jailed to a host-supplied working directory
// (spec.md §6).
type FileLoader interface {
	Load(path string) ([]byte, error)
}

// Compiler is the narrow interface the `eval` builtin (and a host CLI) use
// to turn source text into bytecode; package compiler's Compiler type
// satisfies it. Kept as an interface, not a direct package import of a
// concrete type, because spec.md §1 treats the compiler purely as a
// collaborator reached through its output contract.
type Compiler interface {
	Compile(src string) (*bytecode.Program, error)
}

// Interpreter is one running program instance: its own arena, value/return
// stacks, scope, function table, I/O buffers, and IPC mailbox.
type Interpreter struct {
	ID   int
	UUID uuid.UUID

	Program *bytecode.Program
	Mem     *arena.Arena
	Scope   *scope.Scope

	Functions    map[uint32]FunctionDef
	DebugSymbols map[uint32]string

	Console  Console
	Events   EventSource
	Files    FileLoader
	Compiler Compiler

	ValueStack  []tag.Tag
	ReturnStack []uint32
	PC          uint32
	Steps       uint64

	input  []byte
	inCur  int
	output strings.Builder

	mailbox []Message
	waitSet mapset.Set

	state State
	fault tag.Tag
}

// New returns an Interpreter ready to execute prog, with its own arena of
// memSize bytes and the builtin function catalog seeded.
func New(id int, prog *bytecode.Program, memSize int, debugSymbols map[uint32]string) (*Interpreter, error) {
	mem, err := arena.New(memSize, 0)
	if err != nil {
		return nil, err
	}
	i := &Interpreter{
		ID:           id,
		UUID:         uuid.New(),
		Program:      prog,
		Mem:          mem,
		Scope:        scope.New(),
		Functions:    make(map[uint32]FunctionDef, 128),
		DebugSymbols: debugSymbols,
		waitSet:      mapset.NewSet(),
		state:        Paused,
	}
	SeedBuiltins(i.Functions)
	return i, nil
}

// State returns the interpreter's current execution state.
func (i *Interpreter) State() State { return i.state }

// Feed appends s to the input buffer consumed by `readkey`/`readline`.
func (i *Interpreter) Feed(s string) {
	i.input = append(i.input, s...)
}

// Output returns everything appended to the output buffer so far.
func (i *Interpreter) Output() string { return i.output.String() }

// WaitingTargets returns the IPC channel names this interpreter is blocked
// on, valid when State() == IpcWait.
func (i *Interpreter) WaitingTargets() []string {
	out := make([]string, 0, i.waitSet.Cardinality())
	for _, v := range i.waitSet.ToSlice() {
		out = append(out, v.(string))
	}
	return out
}

// DeliverIPC appends a message to the mailbox. If target is one this
// interpreter is currently IpcWait-blocked on, the state is promoted to
// IpcReady so the scheduler will dispatch it again.
func (i *Interpreter) DeliverIPC(target string, payload []byte) {
	i.mailbox = append(i.mailbox, Message{Target: target, Payload: payload})
	if i.state == IpcWait && i.waitSet.Contains(target) {
		i.state = IpcReady
	}
}

func (i *Interpreter) takeMessage(target string) (Message, bool) {
	for idx, m := range i.mailbox {
		if m.Target == target {
			i.mailbox = append(i.mailbox[:idx], i.mailbox[idx+1:]...)
			return m, true
		}
	}
	return Message{}, false
}

func (i *Interpreter) push(t tag.Tag) { i.ValueStack = append(i.ValueStack, t) }

func (i *Interpreter) pop() (tag.Tag, error) {
	n := len(i.ValueStack)
	if n == 0 {
		return tag.Tag{}, ErrValueStackUnderflow
	}
	t := i.ValueStack[n-1]
	i.ValueStack = i.ValueStack[:n-1]
	return t, nil
}

// popN pops n values and returns them in their original push order (oldest
// first), since a LIFO pop yields them newest-first.
func (i *Interpreter) popN(n int) ([]tag.Tag, error) {
	if len(i.ValueStack) < n {
		return nil, ErrValueStackUnderflow
	}
	start := len(i.ValueStack) - n
	out := make([]tag.Tag, n)
	copy(out, i.ValueStack[start:])
	i.ValueStack = i.ValueStack[:start]
	return out, nil
}

// peekN returns the top n values in push order without popping them.
func (i *Interpreter) peekN(n int) ([]tag.Tag, error) {
	if len(i.ValueStack) < n {
		return nil, ErrValueStackUnderflow
	}
	start := len(i.ValueStack) - n
	out := make([]tag.Tag, n)
	copy(out, i.ValueStack[start:])
	return out, nil
}

func (i *Interpreter) dropN(n int) { i.ValueStack = i.ValueStack[:len(i.ValueStack)-n] }

// stringReader/stringAllocator/containerInspector bind package coerce's
// total conversions to this interpreter's own arena.
func (i *Interpreter) stringReader() coerce.StringReader  { return coerce.NewArenaStringReader(i.Mem) }
func (i *Interpreter) stringAllocator() coerce.StringAllocator {
	return coerce.NewArenaStringAllocator(i.Mem)
}

func (i *Interpreter) toString(t tag.Tag) string {
	return coerce.ToString(t, i.stringReader(), i.inspectContainer)
}

func (i *Interpreter) toInt(t tag.Tag) int32 { return coerce.ToInteger(t, i.stringReader()) }
func (i *Interpreter) toBool(t tag.Tag) bool { return coerce.ToBoolean(t, i.stringReader()) }

func (i *Interpreter) inspectContainer(t tag.Tag) (string, bool) {
	switch t.Kind {
	case tag.VectorPtr:
		v, ok := container.VectorAt(i.Mem, t)
		if !ok {
			return "", false
		}
		var b strings.Builder
		b.WriteByte('[')
		for idx := 0; idx < v.Len(); idx++ {
			if idx > 0 {
				b.WriteByte(' ')
			}
			elem, _ := v.Get(idx)
			b.WriteString(i.toString(elem))
		}
		b.WriteByte(']')
		return b.String(), true
	case tag.HashMapPtr:
		m, ok := container.HashMapAt(i.Mem, t)
		if !ok {
			return "", false
		}
		var b strings.Builder
		b.WriteByte('{')
		first := true
		m.Range(func(key uint32, value tag.Tag) bool {
			if !first {
				b.WriteByte(' ')
			}
			first = false
			fmt.Fprintf(&b, "%#x=%s", key, i.toString(value))
			return true
		})
		b.WriteByte('}')
		return b.String(), true
	default:
		return "", false
	}
}

func (i *Interpreter) allocString(s string) tag.Tag {
	t, err := i.stringAllocator()(s)
	if err != nil {
		return tag.NotAResultTag
	}
	return t
}

// newFault builds the ErrorState Result for a fatal error at instrPC,
// appending a human-readable message (through the debug symbol table, if
// present) to the output buffer.
func (i *Interpreter) newFault(instrPC uint32, err error) Result {
	i.fault = tag.NewExceptionAt(instrPC)
	i.state = ErrorState
	msg := fmt.Sprintf("fault at pc=%d: %v", instrPC, err)
	i.output.WriteString(msg)
	i.output.WriteByte('\n')
	log.Error("interpreter fault", "id", i.ID, "uuid", i.UUID, "pc", instrPC, "err", err)
	return Result{State: ErrorState, Fault: i.fault, FaultMessage: msg}
}
