package bytecode

import "encoding/binary"

// DebugInfo pins one instruction back to its source line, following the
// teacher's parallel debug-info table idiom (one DebugInfo entry per
// opcode byte, operand bytes left zero-valued).
type DebugInfo struct {
	Line int
	File string
}

// Chunk is one function's compiled instruction stream plus the
// program-wide shared constant pool reference: the pool is shared
// across the whole program.
type Chunk struct {
	Code      []byte
	Constants *ConstantPool
	Debug     []DebugInfo
	StackSize int // per-function high-water mark, filled in after generation
	LocalSize int
}

// ConstantPool holds the scalar/string constants of every function
// compiled in one program. Strings are deduplicated; AddInt and AddNum
// append a new entry on every call.
type ConstantPool struct {
	Ints    []int64
	Nums    []float64
	Strings []string
}

func NewConstantPool() *ConstantPool { return &ConstantPool{} }

func (p *ConstantPool) AddInt(v int64) int {
	p.Ints = append(p.Ints, v)
	return len(p.Ints) - 1
}

func (p *ConstantPool) AddNum(v float64) int {
	p.Nums = append(p.Nums, v)
	return len(p.Nums) - 1
}

func (p *ConstantPool) AddString(v string) int {
	for i, s := range p.Strings {
		if s == v {
			return i
		}
	}
	p.Strings = append(p.Strings, v)
	return len(p.Strings) - 1
}

func NewChunk(pool *ConstantPool) *Chunk {
	return &Chunk{Constants: pool}
}

func (c *Chunk) WriteOp(op OpCode, line int) {
	c.Code = append(c.Code, byte(op))
	c.Debug = append(c.Debug, DebugInfo{Line: line})
}

// WriteUint16 appends a two-byte big-endian operand (slot/pool index,
// argument count).
func (c *Chunk) WriteUint16(v uint16) {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	c.Code = append(c.Code, buf[:]...)
	c.Debug = append(c.Debug, DebugInfo{}, DebugInfo{})
}

func (c *Chunk) WriteByte(b byte) {
	c.Code = append(c.Code, b)
	c.Debug = append(c.Debug, DebugInfo{})
}

// WriteUint32 appends a four-byte big-endian operand, used by the
// LoadDirect* instructions that inline a 32-bit immediate rather than
// going through the constant pool.
func (c *Chunk) WriteUint32(v uint32) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	c.Code = append(c.Code, buf[:]...)
	c.Debug = append(c.Debug, DebugInfo{}, DebugInfo{}, DebugInfo{}, DebugInfo{})
}

// ReadUint32 decodes the four-byte operand starting at ip.
func (c *Chunk) ReadUint32(ip int) uint32 {
	return binary.BigEndian.Uint32(c.Code[ip : ip+4])
}

// ReadUint16 decodes the two-byte operand starting at ip.
func (c *Chunk) ReadUint16(ip int) uint16 {
	return binary.BigEndian.Uint16(c.Code[ip : ip+2])
}

// EmitJump writes a jump opcode with a placeholder 2-byte target and
// returns the code offset of that placeholder, to be fixed up later by
// PatchJump — the generator's sentinel-label back-patch pattern for
// forward branches.
func (c *Chunk) EmitJump(op OpCode, line int) int {
	c.WriteOp(op, line)
	pos := len(c.Code)
	c.WriteUint16(0xFFFF)
	return pos
}

// PatchJump fixes up a placeholder written by EmitJump to target the
// current end of the code stream.
func (c *Chunk) PatchJump(pos int) {
	target := len(c.Code)
	binary.BigEndian.PutUint16(c.Code[pos:pos+2], uint16(target))
}

// PatchJumpTo fixes up a placeholder written by EmitJump to target an
// already-known code offset, for forward jumps (e.g. continue) whose
// target isn't simply "wherever code generation has reached next".
func (c *Chunk) PatchJumpTo(pos int, target int) {
	binary.BigEndian.PutUint16(c.Code[pos:pos+2], uint16(target))
}

// EmitLoop writes an unconditional backward jump to target.
func (c *Chunk) EmitLoop(op OpCode, target int, line int) {
	c.WriteOp(op, line)
	c.WriteUint16(uint16(target))
}

func (c *Chunk) DebugAt(ip int) DebugInfo {
	if ip >= 0 && ip < len(c.Debug) {
		return c.Debug[ip]
	}
	return DebugInfo{}
}
