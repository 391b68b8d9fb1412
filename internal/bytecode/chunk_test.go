package bytecode

import "testing"

func TestConstantPoolAddIntAndNumAppendWithoutDedup(t *testing.T) {
	p := NewConstantPool()
	if i := p.AddInt(5); i != 0 {
		t.Fatalf("expected first AddInt to return index 0, got %d", i)
	}
	if i := p.AddInt(5); i != 1 {
		t.Fatalf("expected a second AddInt(5) to append rather than dedup, got %d", i)
	}
	if n := p.AddNum(1.5); n != 0 {
		t.Fatalf("expected first AddNum to return index 0, got %d", n)
	}
}

func TestConstantPoolAddStringDeduplicates(t *testing.T) {
	p := NewConstantPool()
	first := p.AddString("hello")
	second := p.AddString("hello")
	if first != second {
		t.Fatalf("expected repeated AddString to return the same index, got %d and %d", first, second)
	}
	if len(p.Strings) != 1 {
		t.Fatalf("expected the pool to hold exactly one string, got %d", len(p.Strings))
	}
	third := p.AddString("world")
	if third == first {
		t.Fatalf("expected a distinct string to get a distinct index")
	}
}

func TestWriteOpAppendsOneByteAndOneDebugEntry(t *testing.T) {
	c := NewChunk(NewConstantPool())
	c.WriteOp(OpPop, 7)
	if len(c.Code) != 1 || c.Code[0] != byte(OpPop) {
		t.Fatalf("expected a single OpPop byte, got %v", c.Code)
	}
	if len(c.Debug) != 1 || c.Debug[0].Line != 7 {
		t.Fatalf("expected one DebugInfo entry at line 7, got %+v", c.Debug)
	}
}

func TestWriteUint16RoundTrips(t *testing.T) {
	c := NewChunk(NewConstantPool())
	c.WriteUint16(0x1234)
	if got := c.ReadUint16(0); got != 0x1234 {
		t.Fatalf("got %#x, want %#x", got, 0x1234)
	}
	if len(c.Code) != 2 || len(c.Debug) != 2 {
		t.Fatalf("expected 2 code bytes and 2 debug entries, got %d/%d", len(c.Code), len(c.Debug))
	}
}

func TestWriteUint32RoundTrips(t *testing.T) {
	c := NewChunk(NewConstantPool())
	c.WriteUint32(0xDEADBEEF)
	if got := c.ReadUint32(0); got != 0xDEADBEEF {
		t.Fatalf("got %#x, want %#x", got, 0xDEADBEEF)
	}
	if len(c.Code) != 4 || len(c.Debug) != 4 {
		t.Fatalf("expected 4 code bytes and 4 debug entries, got %d/%d", len(c.Code), len(c.Debug))
	}
}

func TestEmitJumpAndPatchJump(t *testing.T) {
	c := NewChunk(NewConstantPool())
	pos := c.EmitJump(OpJump, 1)
	c.WriteOp(OpPop, 2)
	c.PatchJump(pos)
	target := c.ReadUint16(pos)
	if int(target) != len(c.Code) {
		t.Fatalf("expected the patched jump to target the current code end (%d), got %d", len(c.Code), target)
	}
}

func TestPatchJumpToUsesExplicitTarget(t *testing.T) {
	c := NewChunk(NewConstantPool())
	pos := c.EmitJump(OpJumpIfNot, 1)
	c.PatchJumpTo(pos, 42)
	if got := c.ReadUint16(pos); got != 42 {
		t.Fatalf("got %d, want 42", got)
	}
}

func TestEmitLoopWritesOpThenBackwardTarget(t *testing.T) {
	c := NewChunk(NewConstantPool())
	c.EmitLoop(OpJump, 3, 10)
	if c.Code[0] != byte(OpJump) {
		t.Fatalf("expected the first byte to be OpJump")
	}
	if got := c.ReadUint16(1); got != 3 {
		t.Fatalf("got %d, want 3", got)
	}
}

func TestDebugAtOutOfRangeReturnsZeroValue(t *testing.T) {
	c := NewChunk(NewConstantPool())
	if got := c.DebugAt(5); got != (DebugInfo{}) {
		t.Fatalf("expected a zero-value DebugInfo for an out-of-range index, got %+v", got)
	}
}
