package builtin

import (
	"strings"
	"testing"

	"gloom/internal/object"
	"gloom/internal/types"
)

func withCapturedStdout(t *testing.T, fn func()) string {
	t.Helper()
	var out strings.Builder
	prev := Stdout
	Stdout = &out
	defer func() { Stdout = prev }()
	fn()
	return out.String()
}

func TestBiPrintAndPrintln(t *testing.T) {
	got := withCapturedStdout(t, func() {
		biPrint([]object.Value{object.VInt(42)})
		biPrintln([]object.Value{object.VInt(43)})
	})
	if got != "4243\n" {
		t.Fatalf("got %q, want %q", got, "4243\n")
	}
}

func TestBiQueueStartsEmpty(t *testing.T) {
	v, err := biQueue(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	q, ok := v.Obj.(*object.QueueObj)
	if !ok {
		t.Fatalf("expected *object.QueueObj, got %T", v.Obj)
	}
	if q.Len() != 0 {
		t.Fatalf("expected empty queue, got len %d", q.Len())
	}
}

func TestStringAppendNative(t *testing.T) {
	self := object.VRef(object.NewString("foo"))
	other := object.VRef(object.NewString("bar"))
	v, err := StringAppend.Native([]object.Value{self, other})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s, ok := v.Obj.(*object.StringObj)
	if !ok || s.Value != "foobar" {
		t.Fatalf("expected \"foobar\", got %#v", v)
	}
}

func TestArrayAtSetPushLen(t *testing.T) {
	arr := object.NewArray(types.Int, nil)
	self := object.VRef(arr)

	if _, err := ArrayPush.Native([]object.Value{self, object.VInt(10)}); err != nil {
		t.Fatalf("push: %v", err)
	}
	if _, err := ArrayPush.Native([]object.Value{self, object.VInt(20)}); err != nil {
		t.Fatalf("push: %v", err)
	}

	lv, err := ArrayLen.Native([]object.Value{self})
	if err != nil || lv.I != 2 {
		t.Fatalf("expected len 2, got %v err %v", lv, err)
	}

	if _, err := ArraySet.Native([]object.Value{self, object.VInt(0), object.VInt(99)}); err != nil {
		t.Fatalf("set: %v", err)
	}
	av, err := ArrayAt.Native([]object.Value{self, object.VInt(0)})
	if err != nil || av.I != 99 {
		t.Fatalf("expected 99 at index 0, got %v err %v", av, err)
	}

	if _, err := ArrayAt.Native([]object.Value{self, object.VInt(5)}); err == nil {
		t.Fatalf("expected out-of-range error")
	}
}

func TestQueuePushPopLen(t *testing.T) {
	q := object.NewQueue(types.Int)
	self := object.VRef(q)

	if _, err := QueuePush.Native([]object.Value{self, object.VInt(1)}); err != nil {
		t.Fatalf("push: %v", err)
	}
	if _, err := QueuePush.Native([]object.Value{self, object.VInt(2)}); err != nil {
		t.Fatalf("push: %v", err)
	}

	lv, err := QueueLen.Native([]object.Value{self})
	if err != nil || lv.I != 2 {
		t.Fatalf("expected len 2, got %v err %v", lv, err)
	}

	pv, err := QueuePop.Native([]object.Value{self})
	if err != nil || pv.I != 1 {
		t.Fatalf("expected pop to return 1 (FIFO), got %v err %v", pv, err)
	}

	// Pop the remaining element, then expect an error on an empty queue.
	if _, err := QueuePop.Native([]object.Value{self}); err != nil {
		t.Fatalf("unexpected error popping last element: %v", err)
	}
	if _, err := QueuePop.Native([]object.Value{self}); err == nil {
		t.Fatalf("expected error popping from empty queue")
	}
}
