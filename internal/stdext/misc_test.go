package stdext

import (
	"testing"

	"gloom/internal/object"
)

func TestBiUUIDProducesDistinctValues(t *testing.T) {
	a, err := biUUID(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := biUUID(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	as := a.Obj.(*object.StringObj).Value
	bs := b.Obj.(*object.StringObj).Value
	if as == "" || bs == "" {
		t.Fatalf("expected non-empty uuids, got %q and %q", as, bs)
	}
	if as == bs {
		t.Fatalf("expected two calls to uuid() to differ, both returned %q", as)
	}
	if len(as) != 36 {
		t.Fatalf("expected a 36-character v4 uuid, got %q (len %d)", as, len(as))
	}
}

func TestBiHumanizeBytes(t *testing.T) {
	v, err := biHumanizeBytes([]object.Value{object.VInt(1536)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := v.Obj.(*object.StringObj).Value
	if got != "1.5 kB" {
		t.Fatalf("got %q, want %q", got, "1.5 kB")
	}
}
