package interp

import (
	"testing"

	"github.com/i-e-b/mecs-go/bytecode"
	"github.com/i-e-b/mecs-go/coerce"
	"github.com/i-e-b/mecs-go/tag"
)

func mustNew(t *testing.T, prog *bytecode.Program) *Interpreter {
	t.Helper()
	i, err := New(1, prog, 64*1024, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return i
}

func TestArithmeticReturn(t *testing.T) {
	// return (+ 2 3 4) => 9
	prog := &bytecode.Program{Instructions: []tag.Tag{
		tag.NewInteger(2),
		tag.NewInteger(3),
		tag.NewInteger(4),
		bytecode.New(bytecode.ClassFunction, bytecode.ActionCall, 3, bytecode.CrushName("+")),
		{Kind: tag.EndOfProgram},
	}}
	i := mustNew(t, prog)
	res := i.Run(0)
	if res.State != Complete {
		t.Fatalf("want Complete, got %s (%s)", res.State, res.FaultMessage)
	}
	if res.Value.Kind != tag.Integer || res.Value.Int() != 9 {
		t.Fatalf("want Integer(9), got %#v", res.Value)
	}
}

func TestCompareJumpSkipsOnFalse(t *testing.T) {
	// if (< 2 1) then push 111 else push 222; return top of stack.
	prog := &bytecode.Program{Instructions: []tag.Tag{
		tag.NewInteger(2),
		tag.NewInteger(1),
		bytecode.NewCompare(bytecode.CompareLess, 2, 2), // false: jump 2 forward, over the "then" push
		tag.NewInteger(111),
		bytecode.New(bytecode.ClassControl, bytecode.ActionJump, 0, 1), // skip the "else" push
		tag.NewInteger(222),
		{Kind: tag.EndOfProgram},
	}}
	i := mustNew(t, prog)
	res := i.Run(0)
	if res.State != Complete {
		t.Fatalf("want Complete, got %s (%s)", res.State, res.FaultMessage)
	}
	if res.Value.Kind != tag.Integer || res.Value.Int() != 222 {
		t.Fatalf("want Integer(222), got %#v", res.Value)
	}
}

func TestReadLineBlocksThenResumes(t *testing.T) {
	prog := &bytecode.Program{Instructions: []tag.Tag{
		bytecode.New(bytecode.ClassFunction, bytecode.ActionCall, 0, bytecode.CrushName("readline")),
		{Kind: tag.EndOfProgram},
	}}
	i := mustNew(t, prog)

	res := i.Run(0)
	if res.State != Waiting {
		t.Fatalf("want Waiting before any input, got %s (%s)", res.State, res.FaultMessage)
	}

	i.Feed("hello\n")
	res = i.Run(0)
	if res.State != Complete {
		t.Fatalf("want Complete after feeding a line, got %s (%s)", res.State, res.FaultMessage)
	}
	got := coerce.ToString(res.Value, coerce.NewArenaStringReader(i.Mem), nil)
	if got != "hello" {
		t.Fatalf("want %q, got %q", "hello", got)
	}
}

func TestUserFunctionDefineAndCall(t *testing.T) {
	// fd "double" (x) { return (+ x x) }
	// double(21) => 42
	const arity = 1
	name := tag.NewVariableRef(bytecode.CrushName("double"))

	// Layout (indices):
	// 0: fd  (arity=1, skip=6)
	// 1: name literal
	// 2: mg positional(0)   -- push x
	// 3: mg positional(0)   -- push x
	// 4: fc + argcount=2
	// 5: cr
	// 6: int 21                 <- top level resumes here (instrPC+skip == 6)
	// 7: fc double argcount=1
	// 8: end of program
	positional0 := uint32(0x80000000)
	prog := &bytecode.Program{Instructions: []tag.Tag{
		bytecode.New(bytecode.ClassFunction, bytecode.ActionDefine, arity, 6),
		name,
		bytecode.New(bytecode.ClassMemory, bytecode.ActionGet, 0, positional0),
		bytecode.New(bytecode.ClassMemory, bytecode.ActionGet, 0, positional0),
		bytecode.New(bytecode.ClassFunction, bytecode.ActionCall, 2, bytecode.CrushName("+")),
		bytecode.New(bytecode.ClassControl, bytecode.ActionReturn, 0, 0),
		tag.NewInteger(21),
		bytecode.New(bytecode.ClassFunction, bytecode.ActionCall, 1, bytecode.CrushName("double")),
		{Kind: tag.EndOfProgram},
	}}
	i := mustNew(t, prog)
	res := i.Run(0)
	if res.State != Complete {
		t.Fatalf("want Complete, got %s (%s)", res.State, res.FaultMessage)
	}
	if res.Value.Kind != tag.Integer || res.Value.Int() != 42 {
		t.Fatalf("want Integer(42), got %#v", res.Value)
	}
}

func TestUndefinedFunctionFaults(t *testing.T) {
	prog := &bytecode.Program{Instructions: []tag.Tag{
		bytecode.New(bytecode.ClassFunction, bytecode.ActionCall, 0, bytecode.CrushName("no-such-function")),
		{Kind: tag.EndOfProgram},
	}}
	i := mustNew(t, prog)
	res := i.Run(0)
	if res.State != ErrorState {
		t.Fatalf("want ErrorState, got %s", res.State)
	}
}

func TestSendYieldsToScheduler(t *testing.T) {
	// send's (target, value) signature is exercised with an Integer target:
	// coerce.ToString renders it as its decimal form, a perfectly good
	// channel name without needing the arena string allocator here.
	prog := &bytecode.Program{Instructions: []tag.Tag{
		tag.NewInteger(7), // target "7"
		tag.NewInteger(42),
		bytecode.New(bytecode.ClassFunction, bytecode.ActionCall, 2, bytecode.CrushName("send")),
		{Kind: tag.EndOfProgram},
	}}
	i := mustNew(t, prog)
	res := i.Run(0)
	if res.State != IpcSend {
		t.Fatalf("want IpcSend, got %s (%s)", res.State, res.FaultMessage)
	}
	if res.IPCTarget != "7" {
		t.Fatalf("want target %q, got %q", "7", res.IPCTarget)
	}
}
