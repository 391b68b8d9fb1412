package compiler

import (
	"fmt"

	"gloom/internal/analysis"
	"gloom/internal/bytecode"
	"gloom/internal/object"
	"gloom/internal/parser"
	"gloom/internal/slots"
)

// fgen compiles one function's AST body into its Chunk. A fresh fgen is
// built per function by compileFunc; nested FuncLit bodies get their own
// fgen (Compile compiles every FuncLit up front, alongside the declared
// functions) rather than sharing their enclosing function's.
type fgen struct {
	prog  *Program
	info  *analysis.Info
	gf    *object.GloomFunc
	chunk *bytecode.Chunk

	depth    int
	maxDepth int

	// openBlocks mirrors the currently-nested compileBlockValue calls'
	// drop vectors, innermost last, so a return/break/continue that jumps
	// out of several blocks at once knows every local it must release on
	// the way out, per the refcounting discipline every release site follows.
	openBlocks [][]int
	loopMarks  []int // openBlocks length recorded at each enclosing loop's entry

	// breakJumps/continueJumps mirror loopMarks: one entry per currently
	// open loop, collecting placeholder jump positions written by break/
	// continue statements until the loop's end label is known.
	breakJumps    [][]int
	continueJumps [][]int

	scratchNext int // next fresh compiler-private local slot index
}

// allocScratch hands out a fresh whole local slot (sub 0 only — no
// packing) for compound assignment to a field or indexed element, which
// needs somewhere to stash a freshly computed value while the receiver
// expression is re-evaluated for the write-back half, since the ISA has
// no stack-reorder opcode.
func (g *fgen) allocScratch() slots.Slot {
	if g.scratchNext == 0 {
		g.scratchNext = g.gf.LocalSize
	}
	idx := g.scratchNext
	g.scratchNext++
	if g.scratchNext > g.gf.LocalSize {
		g.gf.LocalSize = g.scratchNext
		g.chunk.LocalSize = g.scratchNext
	}
	return slots.Slot{Index: idx, Sub: 0}
}

func (g *fgen) line(n parser.Stmt) int {
	if n == nil {
		return 0
	}
	return parser.StmtLine(n)
}

// adjust tracks the operand-stack high-water mark by hand,
// since bytecode.OpCode.StackEffect() can't see call/collect argument
// counts that only the generator knows at each call site.
func (g *fgen) adjust(delta int) {
	g.depth += delta
	if g.depth > g.maxDepth {
		g.maxDepth = g.depth
	}
	if g.depth < 0 {
		panic(fmt.Sprintf("compiler: operand stack underflow in %s", g.gf.Name))
	}
}

func (g *fgen) emit(op bytecode.OpCode, line int) {
	g.chunk.WriteOp(op, line)
}

func (g *fgen) u16(v int) { g.chunk.WriteUint16(uint16(v)) }
func (g *fgen) u8(v int)  { g.chunk.WriteByte(byte(v)) }

// emitDrops writes one OpDropLocal per ref-typed slot in the drop
// vector, releasing each on the way out of a block.
func (g *fgen) emitDrops(drops []int, line int) {
	for _, idx := range drops {
		g.emit(bytecode.OpDropLocal, line)
		g.u16(idx)
	}
}

// emitUnwind drops every block currently open down to (but not
// including) base — used by return (base 0, the whole function) and by
// break/continue (base == the loop's own entry mark).
func (g *fgen) emitUnwind(base int, line int) {
	for i := len(g.openBlocks) - 1; i >= base; i-- {
		g.emitDrops(g.openBlocks[i], line)
	}
}

func compileFuncBody(p *Program, gf *object.GloomFunc, block *parser.Block) error {
	chunk := bytecode.NewChunk(p.Pool)
	chunk.LocalSize = gf.LocalSize
	g := &fgen{prog: p, info: p.Analysis.Info, gf: gf, chunk: chunk}

	if err := g.compileBlockValue(block); err != nil {
		return err
	}
	g.emit(bytecode.OpReturn, lastLine(block))
	g.adjust(-1)

	chunk.StackSize = g.maxDepth
	gf.Chunk = chunk
	gf.BodyKind = object.BodyBytecode
	return nil
}

func lastLine(b *parser.Block) int {
	if b == nil || len(b.Stmts) == 0 {
		return b.Line
	}
	return parser.StmtLine(b.Stmts[len(b.Stmts)-1])
}
