package bytecode

import "testing"

func TestOpCodeStringKnownAndUnknown(t *testing.T) {
	if got := OpPlus.String(); got != "Plus" {
		t.Fatalf("got %q, want %q", got, "Plus")
	}
	if got := OpCode(255).String(); got != "UNKNOWN" {
		t.Fatalf("expected an unregistered opcode value to render UNKNOWN, got %q", got)
	}
}

func TestOpCodeStringCoversEveryConstant(t *testing.T) {
	for op := OpLoadDirectInt32; op <= OpIterNext; op++ {
		if got := op.String(); got == "UNKNOWN" {
			t.Errorf("opcode %d has no entry in opNames", op)
		}
	}
}

func TestStackEffectLoadsPushOne(t *testing.T) {
	for _, op := range []OpCode{OpLoadDirectInt32, OpLoadConstString, OpReadLocal, OpLoadNil} {
		if got := op.StackEffect(); got != 1 {
			t.Errorf("%s: got %d, want 1", op, got)
		}
	}
}

func TestStackEffectBinaryOpsPopOne(t *testing.T) {
	for _, op := range []OpCode{OpPlus, OpSub, OpMul, OpDiv, OpEquals, OpLogicAnd} {
		if got := op.StackEffect(); got != -1 {
			t.Errorf("%s: got %d, want -1", op, got)
		}
	}
}

func TestStackEffectUnaryOpsAreNeutral(t *testing.T) {
	for _, op := range []OpCode{OpNotOp, OpNegOp} {
		if got := op.StackEffect(); got != 0 {
			t.Errorf("%s: got %d, want 0", op, got)
		}
	}
}

func TestStackEffectPopOpRemovesOne(t *testing.T) {
	if got := OpPop.StackEffect(); got != -1 {
		t.Fatalf("got %d, want -1", got)
	}
}

func TestStackEffectWritesPopOne(t *testing.T) {
	for _, op := range []OpCode{OpWriteLocalInt, OpWriteStaticRef, OpWriteFieldBool} {
		if got := op.StackEffect(); got != -1 {
			t.Errorf("%s: got %d, want -1", op, got)
		}
	}
}
