package bytecode

import "testing"

func TestNewAndAccessors(t *testing.T) {
	op := New(ClassFunction, ActionCall, 3, 0xDEADBEEF)
	if GetClass(op) != ClassFunction {
		t.Fatalf("GetClass() = %c, want f", GetClass(op))
	}
	if GetAction(op) != ActionCall {
		t.Fatalf("GetAction() = %c, want c", GetAction(op))
	}
	if ShortOperand(op) != 3 {
		t.Fatalf("ShortOperand() = %d, want 3", ShortOperand(op))
	}
	if WideOperand(op) != 0xDEADBEEF {
		t.Fatalf("WideOperand() = %#x, want 0xDEADBEEF", WideOperand(op))
	}
}

func TestOperands16RoundTrip(t *testing.T) {
	op := NewOperands16(ClassMemory, ActionSet, 1, 0x1234, 0x5678)
	hi, lo := Operands16(op)
	if hi != 0x1234 || lo != 0x5678 {
		t.Fatalf("Operands16() = %#x,%#x want 0x1234,0x5678", hi, lo)
	}
}

func TestNewCompare(t *testing.T) {
	op := NewCompare(CompareLess, 2, 40)
	if GetClass(op) != ClassCompare {
		t.Fatalf("GetClass() = %c, want C", GetClass(op))
	}
	if CompareOpOf(op) != CompareLess {
		t.Fatalf("CompareOpOf() = %c, want <", CompareOpOf(op))
	}
	if ShortOperand(op) != 2 {
		t.Fatalf("ShortOperand() = %d, want 2", ShortOperand(op))
	}
	if WideOperand(op) != 40 {
		t.Fatalf("WideOperand() = %d, want 40", WideOperand(op))
	}
}

func TestIsOpcode(t *testing.T) {
	header := New(ClassControl, ActionStringTableSkip, 0, 5)
	if !IsOpcode(header, ClassControl, ActionStringTableSkip) {
		t.Fatalf("IsOpcode() should match the header's own class/action")
	}
	if IsOpcode(header, ClassFunction, ActionCall) {
		t.Fatalf("IsOpcode() should not match a different class/action")
	}
}
