package object

import (
	"testing"

	"gloom/internal/types"
)

func TestStringAppendProducesNewAllocation(t *testing.T) {
	a := NewString("foo")
	b := NewString("bar")
	c := a.Append(b)
	if c.Value != "foobar" {
		t.Fatalf("got %q, want %q", c.Value, "foobar")
	}
	if a.Value != "foo" {
		t.Fatalf("expected Append not to mutate its receiver, got %q", a.Value)
	}
}

func TestStringAtIndexesRunes(t *testing.T) {
	s := NewString("abc")
	v, ok := s.At(1)
	if !ok || v.C != 'b' {
		t.Fatalf("expected At(1) == 'b', got %#v ok=%v", v, ok)
	}
	if _, ok := s.At(3); ok {
		t.Fatalf("expected At(3) to be out of range for a 3-rune string")
	}
}

func TestArrayReleaseChildrenVisitsEveryItem(t *testing.T) {
	arr := NewArray(types.Int, []Value{VInt(1), VInt(2), VInt(3)})
	var seen []int64
	arr.ReleaseChildren(func(v Value) { seen = append(seen, v.I) })
	if len(seen) != 3 || seen[0] != 1 || seen[2] != 3 {
		t.Fatalf("expected to visit all 3 items in order, got %v", seen)
	}
}

func TestQueueFIFOOrder(t *testing.T) {
	q := NewQueue(types.Int)
	q.Push(VInt(1))
	q.Push(VInt(2))
	q.Push(VInt(3))
	if q.Len() != 3 {
		t.Fatalf("expected len 3, got %d", q.Len())
	}
	v, ok := q.Pop()
	if !ok || v.I != 1 {
		t.Fatalf("expected first pop to return 1, got %#v", v)
	}
	if q.Len() != 2 {
		t.Fatalf("expected len 2 after one pop, got %d", q.Len())
	}
}

func TestQueuePopEmptyReportsFalse(t *testing.T) {
	q := NewQueue(types.Int)
	if _, ok := q.Pop(); ok {
		t.Fatalf("expected Pop on an empty queue to report false")
	}
}

func TestWeakGetReflectsTargetRefcount(t *testing.T) {
	s := NewString("target")
	w := NewWeak(s)
	if _, ok := w.Get(); !ok {
		t.Fatalf("expected Get to succeed while the target is still alive")
	}
	s.Header().Count = 0
	if _, ok := w.Get(); ok {
		t.Fatalf("expected Get to fail once the target's refcount drops to zero")
	}
}

func TestBoxedRoundTripsEveryPrimitiveKind(t *testing.T) {
	cases := []Value{VInt(7), VNum(3.5), VChar('z'), VBool(true)}
	for _, v := range cases {
		got := NewBoxed(v).Unbox()
		if got.Kind != v.Kind {
			t.Fatalf("Unbox() kind mismatch: got %v, want %v", got.Kind, v.Kind)
		}
		if !AddrEqual(got, v) {
			t.Fatalf("Box/Unbox round trip changed the value: got %#v, want %#v", got, v)
		}
	}
}

func TestTupleAtIndexesItems(t *testing.T) {
	tup := NewTuple([]Value{VInt(1), VRef(NewString("x"))})
	v, ok := tup.At(1)
	if !ok || Display(v) != "x" {
		t.Fatalf("expected tuple[1] to be \"x\", got %#v ok=%v", v, ok)
	}
	if _, ok := tup.At(2); ok {
		t.Fatalf("expected tuple[2] to be out of range for a 2-item tuple")
	}
}
