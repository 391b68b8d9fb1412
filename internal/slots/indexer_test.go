package slots

import (
	"testing"

	"gloom/internal/types"
)

func TestPutIntPacksTwoPerSlot(t *testing.T) {
	ix := New()
	a := ix.Put(types.Int)
	b := ix.Put(types.Int)
	c := ix.Put(types.Int)

	if a.Index != b.Index || a.Sub != 0 || b.Sub != 1 {
		t.Fatalf("expected first two ints to share slot 0 at sub 0/1, got %+v %+v", a, b)
	}
	if c.Index == a.Index {
		t.Fatalf("expected a third int to overflow into a new slot, got %+v", c)
	}
	if c.Sub != 0 {
		t.Fatalf("expected the new slot's first sub-index to be 0, got %d", c.Sub)
	}
}

func TestPutBoolPacksSixteenPerSlot(t *testing.T) {
	ix := New()
	var first Slot
	for i := 0; i < 16; i++ {
		s := ix.Put(types.Bool)
		if i == 0 {
			first = s
		}
		if s.Index != first.Index {
			t.Fatalf("expected all 16 bools to share one slot, bool %d landed in a new slot", i)
		}
	}
	overflow := ix.Put(types.Bool)
	if overflow.Index == first.Index {
		t.Fatalf("expected the 17th bool to overflow into a new slot")
	}
}

func TestPutDifferentPrimitiveKindsDoNotShareASlot(t *testing.T) {
	ix := New()
	i := ix.Put(types.Int)
	n := ix.Put(types.Num)
	if i.Index == n.Index {
		t.Fatalf("expected Int and Num to never share a slot, got both at %d", i.Index)
	}
}

func TestPutRefTypeAllocatesSingletonSlotAndTracksDrop(t *testing.T) {
	ix := New()
	s := ix.Put(types.Str)
	if s.Sub != 0 {
		t.Fatalf("expected a ref-typed slot's sub-index to always be 0, got %d", s.Sub)
	}
	vec := ix.FinalDropVec()
	if len(vec) != 1 || vec[0] != s.Index {
		t.Fatalf("expected the ref slot to be recorded in the drop vector, got %v", vec)
	}
}

func TestEnterLeaveScopeIsolatesDropVectors(t *testing.T) {
	ix := New()
	outer := ix.Put(types.Str)

	ix.EnterScope()
	inner := ix.Put(types.Str)
	innerVec := ix.LeaveScope()
	if len(innerVec) != 1 || innerVec[0] != inner.Index {
		t.Fatalf("expected the inner scope's drop vector to contain only the inner slot, got %v", innerVec)
	}

	outerVec := ix.FinalDropVec()
	if len(outerVec) != 1 || outerVec[0] != outer.Index {
		t.Fatalf("expected the outer scope's drop vector to contain only the outer slot, got %v", outerVec)
	}
}

func TestSizeReflectsHighWaterMark(t *testing.T) {
	ix := New()
	ix.Put(types.Int)
	ix.Put(types.Num)
	ix.Put(types.Str)
	if ix.Size() != 3 {
		t.Fatalf("expected Size() == 3 after 3 distinct-kind allocations, got %d", ix.Size())
	}
}

func TestTypeOfReturnsTheDeclaredType(t *testing.T) {
	ix := New()
	s := ix.Put(types.Char)
	if got := ix.TypeOf(s.Index); got.BasicKind() != types.KindChar {
		t.Fatalf("expected TypeOf to report KindChar, got %v", got.BasicKind())
	}
}

func TestFinalDropVecPanicsWithOpenSubScope(t *testing.T) {
	ix := New()
	ix.EnterScope()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected FinalDropVec to panic with a nested scope still open")
		}
	}()
	ix.FinalDropVec()
}
