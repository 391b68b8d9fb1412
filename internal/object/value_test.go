package object

import "testing"

func TestAsNumberWidensIntAndNum(t *testing.T) {
	if VInt(5).AsNumber() != 5 {
		t.Fatalf("expected VInt(5).AsNumber() == 5")
	}
	if VNum(2.5).AsNumber() != 2.5 {
		t.Fatalf("expected VNum(2.5).AsNumber() == 2.5")
	}
}

func TestAsNumberPanicsOnNonNumeric(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected AsNumber to panic on a non-numeric value")
		}
	}()
	VBool(true).AsNumber()
}

func TestIsNil(t *testing.T) {
	if !VNil().IsNil() {
		t.Fatalf("expected VNil() to report IsNil")
	}
	if VRef(NewString("x")).IsNil() {
		t.Fatalf("did not expect a populated ref to report IsNil")
	}
	if VInt(0).IsNil() {
		t.Fatalf("did not expect a primitive Int to ever report IsNil")
	}
}

func TestAddrEqualPrimitives(t *testing.T) {
	if !AddrEqual(VInt(3), VInt(3)) {
		t.Fatalf("expected VInt(3) == VInt(3)")
	}
	if AddrEqual(VInt(3), VInt(4)) {
		t.Fatalf("did not expect VInt(3) == VInt(4)")
	}
	if AddrEqual(VInt(3), VNum(3)) {
		t.Fatalf("did not expect Int and Num of equal magnitude to compare equal")
	}
}

func TestAddrEqualReferencesArePointerIdentity(t *testing.T) {
	a := VRef(NewString("same text"))
	b := VRef(NewString("same text"))
	if AddrEqual(a, b) {
		t.Fatalf("expected two distinct StringObj allocations to compare unequal by address")
	}
	if !AddrEqual(a, a) {
		t.Fatalf("expected a value to compare equal to itself")
	}
}

func TestAddrEqualBoxedComparesByValue(t *testing.T) {
	a := VRef(NewBoxed(VInt(7)))
	b := VRef(NewBoxed(VInt(7)))
	if !AddrEqual(a, b) {
		t.Fatalf("expected two distinct Boxed(7) allocations to compare equal by value")
	}
	c := VRef(NewBoxed(VInt(8)))
	if AddrEqual(a, c) {
		t.Fatalf("did not expect Boxed(7) == Boxed(8)")
	}
}

func TestCellWriteRejectsKindMismatchAfterInit(t *testing.T) {
	var c Cell
	if err := c.Write(0, VInt(1)); err != nil {
		t.Fatalf("unexpected error on first write: %v", err)
	}
	if err := c.Write(0, VBool(true)); err == nil {
		t.Fatalf("expected a kind-mismatch error writing Bool into an Int cell")
	}
	if got := c.Read(0); got.Kind != VInt(1).Kind || got.I != 1 {
		t.Fatalf("expected the rejected write to leave the cell unchanged, got %#v", got)
	}
}

func TestCellReadWriteRoundTripsPerKind(t *testing.T) {
	var c Cell
	if err := c.Write(1, VNum(3.25)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c.Read(1); got.N != 3.25 {
		t.Fatalf("expected to read back 3.25, got %#v", got)
	}
}

func TestNewCellArraySize(t *testing.T) {
	arr := NewCellArray(4)
	if len(arr) != 4 {
		t.Fatalf("expected array of length 4, got %d", len(arr))
	}
}
