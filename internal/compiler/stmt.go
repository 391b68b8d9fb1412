package compiler

import (
	"fmt"

	"gloom/internal/analysis"
	"gloom/internal/bytecode"
	"gloom/internal/parser"
	"gloom/internal/types"
)

// compileBlockValue compiles a brace-delimited block that may itself be
// the value of an if/match arm/function body: a trailing ExprStmt with
// Discard == false leaves its value on the stack instead of being
// popped. OpRetainTop guards that value across the block's own
// OpDropLocal sequence, since the trailing expression is very often
// just a bare local read.
func (g *fgen) compileBlockValue(blk *parser.Block) error {
	drops := g.info.BlockDrops[blk]
	g.openBlocks = append(g.openBlocks, drops)

	produced := false
	for i, s := range blk.Stmts {
		if es, ok := s.(*parser.ExprStmt); ok && i == len(blk.Stmts)-1 && !es.Discard {
			if err := g.compileExpr(es.Expr); err != nil {
				return err
			}
			produced = true
			continue
		}
		if err := g.compileStmt(s); err != nil {
			return err
		}
	}

	line := lastLine(blk)
	if produced {
		if len(drops) > 0 {
			g.emit(bytecode.OpRetainTop, line)
		}
		g.emitDrops(drops, line)
	} else {
		g.emitDrops(drops, line)
		g.emit(bytecode.OpLoadNil, line)
		g.adjust(1)
	}

	g.openBlocks = g.openBlocks[:len(g.openBlocks)-1]
	return nil
}

// compileLoopBody compiles a while/for-range/for-in body as a plain
// statement list: only analyzeBlock's own callers (if/match/function
// bodies) get the implicit-return carve-out; a loop body walked
// statement-by-statement always discards a trailing expression's value
// like any other statement.
func (g *fgen) compileLoopBody(blk *parser.Block) error {
	drops := g.info.BlockDrops[blk]
	g.openBlocks = append(g.openBlocks, drops)
	for _, s := range blk.Stmts {
		if err := g.compileStmt(s); err != nil {
			return err
		}
	}
	g.emitDrops(drops, lastLine(blk))
	g.openBlocks = g.openBlocks[:len(g.openBlocks)-1]
	return nil
}

func (g *fgen) compileStmt(s parser.Stmt) error {
	line := parser.StmtLine(s)
	switch st := s.(type) {
	case *parser.LetStmt:
		declType := g.info.LetTypes[st]
		if err := g.compileExpr(st.Value); err != nil {
			return err
		}
		g.widenIfNeeded(g.info.ExprTypes[st.Value], declType, line)
		slot := g.info.Lets[st]
		op := localWriteOp(declType.Kind)
		g.emit(op, line)
		g.writeSlotOperand(op, slot.Index, slot.Sub)
		g.adjust(-1)
		return nil

	case *parser.StaticStmt:
		sv := g.prog.Analysis.Statics[st.Name]
		if err := g.compileExpr(st.Value); err != nil {
			return err
		}
		g.widenIfNeeded(g.info.ExprTypes[st.Value], sv.Type, line)
		op := staticWriteOp(sv.Type.Kind)
		g.emit(op, line)
		g.writeSlotOperand(op, sv.Slot.Index, sv.Slot.Sub)
		g.adjust(-1)
		return nil

	case *parser.AssignStmt:
		return g.compileAssign(st)

	case *parser.ExprStmt:
		if err := g.compileExpr(st.Expr); err != nil {
			return err
		}
		g.emit(bytecode.OpPop, line)
		g.adjust(-1)
		return nil

	case *parser.ReturnStmt:
		if st.Value != nil {
			if err := g.compileExpr(st.Value); err != nil {
				return err
			}
		} else {
			g.emit(bytecode.OpLoadNil, line)
			g.adjust(1)
		}
		g.emitUnwind(0, line)
		g.emit(bytecode.OpReturn, line)
		g.adjust(-1)
		return nil

	case *parser.BreakStmt:
		if len(g.loopMarks) == 0 {
			return fmt.Errorf("compiler: break outside a loop")
		}
		if st.Value != nil {
			// Loops carry no value in this ISA; a break value is still
			// evaluated for its side effects, then discarded.
			if err := g.compileExpr(st.Value); err != nil {
				return err
			}
			g.emit(bytecode.OpPop, line)
			g.adjust(-1)
		}
		top := len(g.loopMarks) - 1
		g.emitUnwind(g.loopMarks[top], line)
		pos := g.chunk.EmitJump(bytecode.OpJump, line)
		g.breakJumps[top] = append(g.breakJumps[top], pos)
		return nil

	case *parser.ContinueStmt:
		if len(g.loopMarks) == 0 {
			return fmt.Errorf("compiler: continue outside a loop")
		}
		top := len(g.loopMarks) - 1
		g.emitUnwind(g.loopMarks[top], line)
		pos := g.chunk.EmitJump(bytecode.OpJump, line)
		g.continueJumps[top] = append(g.continueJumps[top], pos)
		return nil

	case *parser.WhileStmt:
		return g.compileWhile(st)

	case *parser.ForRangeStmt:
		return g.compileForRange(st)

	case *parser.ForInStmt:
		return g.compileForIn(st)
	}
	return fmt.Errorf("compiler: unhandled statement %T", s)
}

// writeSlotOperand writes the (slot[, sub]) operand pair for any Write*
// opcode: ref-typed variants only ever address sub 0, so they omit the
// sub byte entirely.
func (g *fgen) writeSlotOperand(op bytecode.OpCode, index, sub int) {
	g.u16(index)
	switch op {
	case bytecode.OpWriteLocalRef, bytecode.OpWriteStaticRef, bytecode.OpWriteFieldRef:
		return
	default:
		g.u8(sub)
	}
}

func (g *fgen) enterLoop() {
	g.loopMarks = append(g.loopMarks, len(g.openBlocks))
	g.breakJumps = append(g.breakJumps, nil)
	g.continueJumps = append(g.continueJumps, nil)
}

// leaveLoop patches every pending continue jump to contTarget, pops this
// loop's bookkeeping, and returns the collected break-jump positions for
// the caller to patch once it knows the loop's true exit point (which,
// for for-in, sits after the exhausted path's pop of OpIterNext's
// placeholder element, a pop the break jumps must skip, and before the
// trailing "pop the iterator" instruction).
func (g *fgen) leaveLoop(contTarget int) []int {
	top := len(g.loopMarks) - 1
	breaks := g.breakJumps[top]
	for _, pos := range g.continueJumps[top] {
		g.chunk.PatchJumpTo(pos, contTarget)
	}
	g.loopMarks = g.loopMarks[:top]
	g.breakJumps = g.breakJumps[:top]
	g.continueJumps = g.continueJumps[:top]
	return breaks
}

func (g *fgen) compileWhile(st *parser.WhileStmt) error {
	line := st.Line
	condLabel := len(g.chunk.Code)
	if err := g.compileExpr(st.Cond); err != nil {
		return err
	}
	jend := g.chunk.EmitJump(bytecode.OpJumpIfNot, line)
	g.adjust(-1)

	g.enterLoop()
	if err := g.compileLoopBody(st.Body); err != nil {
		return err
	}
	g.chunk.EmitLoop(bytecode.OpJump, condLabel, line)
	breaks := g.leaveLoop(condLabel)
	g.chunk.PatchJump(jend)
	for _, pos := range breaks {
		g.chunk.PatchJump(pos)
	}
	return nil
}

// compileForRange compiles `for x in start:end[:step]` into a counter
// held in x's own Int slot. The loop test is always `x < end`, whatever
// the step's sign, so a range with start >= end runs no iterations even
// when the step is negative.
func (g *fgen) compileForRange(st *parser.ForRangeStmt) error {
	line := st.Line
	slot := g.info.ForRange[st]

	if err := g.compileExpr(st.Start); err != nil {
		return err
	}
	g.emit(bytecode.OpWriteLocalInt, line)
	g.u16(slot.Index)
	g.u8(slot.Sub)
	g.adjust(-1)

	condLabel := len(g.chunk.Code)
	g.emit(bytecode.OpReadLocal, line)
	g.u16(slot.Index)
	g.u8(slot.Sub)
	g.adjust(1)
	if err := g.compileExpr(st.End); err != nil {
		return err
	}
	g.emit(bytecode.OpLessThan, line)
	g.adjust(-1)
	jend := g.chunk.EmitJump(bytecode.OpJumpIfNot, line)
	g.adjust(-1)

	g.enterLoop()
	if err := g.compileLoopBody(st.Body); err != nil {
		return err
	}

	incrLabel := len(g.chunk.Code)
	g.emit(bytecode.OpReadLocal, line)
	g.u16(slot.Index)
	g.u8(slot.Sub)
	g.adjust(1)
	if st.Step != nil {
		if err := g.compileExpr(st.Step); err != nil {
			return err
		}
	} else {
		g.emit(bytecode.OpLoadDirectInt32, line)
		g.chunk.WriteUint32(1)
		g.adjust(1)
	}
	g.emit(bytecode.OpPlus, line)
	g.adjust(-1)
	g.emit(bytecode.OpWriteLocalInt, line)
	g.u16(slot.Index)
	g.u8(slot.Sub)
	g.adjust(-1)

	g.chunk.EmitLoop(bytecode.OpJump, condLabel, line)
	breaks := g.leaveLoop(incrLabel)
	g.chunk.PatchJump(jend)
	for _, pos := range breaks {
		g.chunk.PatchJump(pos)
	}
	return nil
}

// compileForIn compiles `for x in iterExpr`, driving the container's
// Iter() object with OpIterNew/OpIterNext rather than indexing it
// directly, so the same loop works over Array, Queue and Weak alike.
func (g *fgen) compileForIn(st *parser.ForInStmt) error {
	line := st.Line
	slot := g.info.ForIn[st]

	if err := g.compileExpr(st.Iter); err != nil {
		return err
	}
	g.emit(bytecode.OpIterNew, line)

	topLabel := len(g.chunk.Code)
	g.emit(bytecode.OpIterNext, line)
	g.adjust(2)
	jend := g.chunk.EmitJump(bytecode.OpJumpIfNot, line)
	g.adjust(-1)

	elemKind := iterElemKind(g.info.ExprTypes[st.Iter])
	wop := localWriteOp(elemKind)
	g.emit(wop, line)
	g.writeSlotOperand(wop, slot.Index, slot.Sub)
	g.adjust(-1)

	g.enterLoop()
	if err := g.compileLoopBody(st.Body); err != nil {
		return err
	}
	g.chunk.EmitLoop(bytecode.OpJump, topLabel, line)

	breaks := g.leaveLoop(topLabel)
	g.chunk.PatchJump(jend)
	// Exhausted: OpIterNext's placeholder element sits above the iterator.
	// The tracked depth already treats it as written, so no adjust here.
	g.emit(bytecode.OpPop, line)
	for _, pos := range breaks {
		g.chunk.PatchJump(pos)
	}
	g.emit(bytecode.OpPop, line) // drop the iterator
	g.adjust(-1)
	return nil
}

// iterElemKind recovers a for-in binding's primitive kind from the
// iterated expression's static type, since Info.ForIn only carries the
// allocated slot, not the element type.
func iterElemKind(t types.DataType) types.BasicKind {
	if !t.IsRef() {
		return types.KindRef
	}
	switch t.Ref.Kind {
	case types.RefArray, types.RefQueue, types.RefWeak:
		return t.Ref.Elem.Kind
	}
	return types.KindRef
}

func (g *fgen) compileAssign(st *parser.AssignStmt) error {
	lv := st.Target
	switch {
	case lv.Index != nil:
		return g.compileIndexAssign(st)
	case lv.Object != nil:
		return g.compileFieldAssign(st)
	default:
		return g.compileNameAssign(st)
	}
}

func (g *fgen) compileNameAssign(st *parser.AssignStmt) error {
	line := st.Line
	b, ok := g.info.Assigns[st]
	if !ok {
		return fmt.Errorf("compiler: unresolved assignment target %q", st.Target.Name)
	}

	isStatic := b.Kind == analysis.BindStatic
	slotIdx, slotSub := b.Slot.Index, b.Slot.Sub
	if isStatic {
		slotIdx, slotSub = b.Static.Slot.Index, b.Static.Slot.Sub
	}
	readOp := bytecode.OpReadLocal
	if isStatic {
		readOp = bytecode.OpReadStatic
	}

	switch st.Op {
	case "=":
		if err := g.compileExpr(st.Value); err != nil {
			return err
		}
		g.widenIfNeeded(g.info.ExprTypes[st.Value], b.Type, line)
	default:
		g.emit(readOp, line)
		g.u16(slotIdx)
		g.u8(slotSub)
		g.adjust(1)
		if err := g.compileStep(st, b.Type, line); err != nil {
			return err
		}
	}

	var writeOp bytecode.OpCode
	if isStatic {
		writeOp = staticWriteOp(b.Type.Kind)
	} else {
		writeOp = localWriteOp(b.Type.Kind)
	}
	g.emit(writeOp, line)
	g.writeSlotOperand(writeOp, slotIdx, slotSub)
	g.adjust(-1)
	return nil
}

// compileStep emits the "combine top-of-stack with the ++/--/+=/-=
// operand" half of a compound assignment; the old value is assumed
// already pushed by the caller.
func (g *fgen) compileStep(st *parser.AssignStmt, targetType types.DataType, line int) error {
	switch st.Op {
	case "++", "--":
		if targetType.Kind == types.KindNum {
			g.emit(bytecode.OpLoadConstNum, line)
			g.u16(g.chunk.Constants.AddNum(1))
		} else {
			g.emit(bytecode.OpLoadDirectInt32, line)
			g.chunk.WriteUint32(1)
		}
		g.adjust(1)
		if st.Op == "++" {
			g.emit(bytecode.OpPlus, line)
		} else {
			g.emit(bytecode.OpSub, line)
		}
		g.adjust(-1)
		return nil
	case "+=", "-=":
		if err := g.compileExpr(st.Value); err != nil {
			return err
		}
		g.widenIfNeeded(g.info.ExprTypes[st.Value], targetType, line)
		if st.Op == "+=" {
			g.emit(bytecode.OpPlus, line)
		} else {
			g.emit(bytecode.OpSub, line)
		}
		g.adjust(-1)
		return nil
	}
	return fmt.Errorf("compiler: unknown assignment operator %q", st.Op)
}

// compileFieldAssign re-evaluates the receiver expression to read the
// field's current value (for ++/--/+=/-=), stashes the computed result
// in a compiler-private scratch slot, then re-evaluates the receiver a
// second time to perform the write — there is no Dup/Swap opcode to
// reorder an already-computed value under a freshly pushed receiver.
func (g *fgen) compileFieldAssign(st *parser.AssignStmt) error {
	line := st.Line
	lv := st.Target
	fb, ok := g.info.AssignFld[st]
	if !ok {
		return fmt.Errorf("compiler: unresolved field assignment %q", lv.Name)
	}

	if st.Op == "=" {
		if err := g.compileExpr(lv.Object); err != nil {
			return err
		}
		if err := g.compileExpr(st.Value); err != nil {
			return err
		}
		g.widenIfNeeded(g.info.ExprTypes[st.Value], fb.Type, line)
		op := fieldWriteOp(fb.Type.Kind)
		g.emit(op, line)
		g.writeSlotOperand(op, fb.Slot.Index, fb.Slot.Sub)
		g.adjust(-2)
		return nil
	}

	if err := g.compileExpr(lv.Object); err != nil {
		return err
	}
	g.emit(bytecode.OpReadField, line)
	g.u16(fb.Slot.Index)
	g.u8(fb.Slot.Sub)
	if err := g.compileStep(st, fb.Type, line); err != nil {
		return err
	}

	scratch := g.allocScratch()
	g.emit(bytecode.OpWriteLocalRef, line)
	g.u16(scratch.Index)
	g.adjust(-1)

	if err := g.compileExpr(lv.Object); err != nil {
		return err
	}
	g.emit(bytecode.OpReadLocal, line)
	g.u16(scratch.Index)
	g.u8(0)
	g.adjust(1)

	op := fieldWriteOp(fb.Type.Kind)
	g.emit(op, line)
	g.writeSlotOperand(op, fb.Slot.Index, fb.Slot.Sub)
	g.adjust(-2)
	return nil
}

// compileIndexAssign lowers `arr[i] = v` (and its compound forms) onto
// the Array.at/Array.set native methods: the ISA has no dedicated index
// opcode, so element access is just an ordinary OpCallMethod the same
// way a user-written `.at()`/`.set()` call would compile.
func (g *fgen) compileIndexAssign(st *parser.AssignStmt) error {
	line := st.Line
	lv := st.Target
	objType := g.info.ExprTypes[lv.Object]
	elem := types.Any
	if objType.IsRef() && objType.Ref.Kind == types.RefArray {
		elem = *objType.Ref.Elem
	}

	if st.Op == "=" {
		if err := g.compileExpr(lv.Object); err != nil {
			return err
		}
		if err := g.compileExpr(lv.Index); err != nil {
			return err
		}
		if err := g.compileExpr(st.Value); err != nil {
			return err
		}
		g.widenIfNeeded(g.info.ExprTypes[st.Value], elem, line)
		if err := g.emitArraySet(line); err != nil {
			return err
		}
		g.emit(bytecode.OpPop, line)
		g.adjust(-1)
		return nil
	}

	if err := g.compileExpr(lv.Object); err != nil {
		return err
	}
	if err := g.compileExpr(lv.Index); err != nil {
		return err
	}
	if err := g.emitArrayAt(line); err != nil {
		return err
	}
	if err := g.compileStep(st, elem, line); err != nil {
		return err
	}

	scratch := g.allocScratch()
	g.emit(bytecode.OpWriteLocalRef, line)
	g.u16(scratch.Index)
	g.adjust(-1)

	if err := g.compileExpr(lv.Object); err != nil {
		return err
	}
	if err := g.compileExpr(lv.Index); err != nil {
		return err
	}
	g.emit(bytecode.OpReadLocal, line)
	g.u16(scratch.Index)
	g.u8(0)
	g.adjust(1)
	if err := g.emitArraySet(line); err != nil {
		return err
	}
	g.emit(bytecode.OpPop, line)
	g.adjust(-1)
	return nil
}

// emitArrayAt calls Array.at(self, index): stack in is (receiver,
// index), stack out is (value).
func (g *fgen) emitArrayAt(line int) error {
	funcIdx, ok := g.prog.FuncIndex[arrayAtFunc]
	if !ok {
		return fmt.Errorf("compiler: Array.at not registered in program function table")
	}
	g.emit(bytecode.OpCallMethod, line)
	g.u8(0)
	g.u16(funcIdx)
	g.u8(2)
	g.adjust(-1) // 2 popped, 1 pushed
	return nil
}

// emitArraySet calls Array.set(self, index, value): stack in is
// (receiver, index, value), stack out is set's nil (Void) result, which
// callers pop.
func (g *fgen) emitArraySet(line int) error {
	funcIdx, ok := g.prog.FuncIndex[arraySetFunc]
	if !ok {
		return fmt.Errorf("compiler: Array.set not registered in program function table")
	}
	g.emit(bytecode.OpCallMethod, line)
	g.u8(0)
	g.u16(funcIdx)
	g.u8(3)
	g.adjust(-2) // 3 popped, 1 (nil) pushed
	return nil
}
