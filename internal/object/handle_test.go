package object

import "testing"

func TestHostHandleReleaseChildrenClosesOncePerCall(t *testing.T) {
	closes := 0
	h := NewHostHandle("db", 42, func() error {
		closes++
		return nil
	})
	h.ReleaseChildren(func(Value) {})
	h.ReleaseChildren(func(Value) {})
	if closes != 2 {
		t.Fatalf("expected Close to be called once per ReleaseChildren invocation, got %d", closes)
	}
}

func TestHostHandleDebugStringNamesItsKind(t *testing.T) {
	h := NewHostHandle("ws", nil, func() error { return nil })
	if got := h.DebugString(); got != "<ws handle>" {
		t.Fatalf("got %q, want %q", got, "<ws handle>")
	}
}

func TestHostHandleTypeIsObjHostHandle(t *testing.T) {
	h := NewHostHandle("db", nil, func() error { return nil })
	if h.Type() != ObjHostHandle {
		t.Fatalf("expected Type() == ObjHostHandle, got %v", h.Type())
	}
}
