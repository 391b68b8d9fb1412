package compiler

import (
	"fmt"
	"math"

	"gloom/internal/analysis"
	"gloom/internal/bytecode"
	"gloom/internal/parser"
	"gloom/internal/types"
)

// castOperand maps a cast target's BasicKind onto OpCast's one-byte
// encoding (only the three numeric/char conversions are needed; casts
// to a ref type never reach the VM as a genuine conversion, they're
// checked statically and are no-ops at runtime).
func castOperand(to types.DataType) byte {
	switch to.Kind {
	case types.KindInt:
		return 0
	case types.KindNum:
		return 1
	case types.KindChar:
		return 2
	default:
		return 0
	}
}

// widenIfNeeded emits the implicit int->num conversion the slot/field
// layout requires whenever a narrower value flows into a num-typed
// target (numeric subtyping lets `let x: num = 1` through the type
// checker, but the Cell the value lands in is physically a num cell
// and needs an actual bit-pattern conversion).
func (g *fgen) widenIfNeeded(valType, targetType types.DataType, line int) {
	if targetType.Kind == types.KindNum && valType.Kind == types.KindInt {
		g.emit(bytecode.OpCast, line)
		g.u8(1)
	}
}

func localWriteOp(k types.BasicKind) bytecode.OpCode {
	switch k {
	case types.KindInt:
		return bytecode.OpWriteLocalInt
	case types.KindNum:
		return bytecode.OpWriteLocalNum
	case types.KindChar:
		return bytecode.OpWriteLocalChar
	case types.KindBool:
		return bytecode.OpWriteLocalBool
	default:
		return bytecode.OpWriteLocalRef
	}
}

func staticWriteOp(k types.BasicKind) bytecode.OpCode {
	switch k {
	case types.KindInt:
		return bytecode.OpWriteStaticInt
	case types.KindNum:
		return bytecode.OpWriteStaticNum
	case types.KindChar:
		return bytecode.OpWriteStaticChar
	case types.KindBool:
		return bytecode.OpWriteStaticBool
	default:
		return bytecode.OpWriteStaticRef
	}
}

func fieldWriteOp(k types.BasicKind) bytecode.OpCode {
	switch k {
	case types.KindInt:
		return bytecode.OpWriteFieldInt
	case types.KindNum:
		return bytecode.OpWriteFieldNum
	case types.KindChar:
		return bytecode.OpWriteFieldChar
	case types.KindBool:
		return bytecode.OpWriteFieldBool
	default:
		return bytecode.OpWriteFieldRef
	}
}

func binaryOp(op string) (bytecode.OpCode, bool) {
	switch op {
	case "+":
		return bytecode.OpPlus, true
	case "-":
		return bytecode.OpSub, true
	case "*":
		return bytecode.OpMul, true
	case "/":
		return bytecode.OpDiv, true
	case ">":
		return bytecode.OpGreaterThan, true
	case "<":
		return bytecode.OpLessThan, true
	case ">=":
		return bytecode.OpGreaterThanEquals, true
	case "<=":
		return bytecode.OpLessThanEquals, true
	case "==":
		return bytecode.OpEquals, true
	case "!=":
		return bytecode.OpNotEquals, true
	}
	return 0, false
}

func (g *fgen) compileExpr(e parser.Expr) error {
	line := parser.ExprLine(e)
	switch n := e.(type) {
	case *parser.IntLit:
		if int64(int32(n.Value)) == n.Value {
			g.emit(bytecode.OpLoadDirectInt32, line)
			g.chunk.WriteUint32(uint32(int32(n.Value)))
		} else {
			g.emit(bytecode.OpLoadConstInt, line)
			g.u16(g.chunk.Constants.AddInt(n.Value))
		}
		g.adjust(1)
		return nil

	case *parser.NumLit:
		// LoadDirectNum32 carries an int32 that the VM widens to float64.
		if float64(int32(n.Value)) == n.Value && !math.Signbit(n.Value) {
			g.emit(bytecode.OpLoadDirectNum32, line)
			g.chunk.WriteUint32(uint32(int32(n.Value)))
		} else {
			g.emit(bytecode.OpLoadConstNum, line)
			g.u16(g.chunk.Constants.AddNum(n.Value))
		}
		g.adjust(1)
		return nil

	case *parser.CharLit:
		g.emit(bytecode.OpLoadDirectChar, line)
		g.chunk.WriteUint32(uint32(n.Value))
		g.adjust(1)
		return nil

	case *parser.BoolLit:
		g.emit(bytecode.OpLoadDirectBool, line)
		if n.Value {
			g.u8(1)
		} else {
			g.u8(0)
		}
		g.adjust(1)
		return nil

	case *parser.StringLit:
		g.emit(bytecode.OpLoadConstString, line)
		g.u16(g.chunk.Constants.AddString(n.Value))
		g.adjust(1)
		return nil

	case *parser.ArrayLit:
		for _, el := range n.Elements {
			if err := g.compileExpr(el); err != nil {
				return err
			}
		}
		g.emit(bytecode.OpCollectArray, line)
		g.u16(len(n.Elements))
		g.adjust(1 - len(n.Elements))
		return nil

	case *parser.TupleLit:
		for _, el := range n.Elements {
			if err := g.compileExpr(el); err != nil {
				return err
			}
		}
		g.emit(bytecode.OpCollectTuple, line)
		g.u16(len(n.Elements))
		g.adjust(1 - len(n.Elements))
		return nil

	case *parser.Ident:
		return g.compileIdent(n)

	case *parser.Binary:
		if err := g.compileExpr(n.Left); err != nil {
			return err
		}
		if err := g.compileExpr(n.Right); err != nil {
			return err
		}
		op, ok := binaryOp(n.Op)
		if !ok {
			return fmt.Errorf("compiler: unknown binary operator %q", n.Op)
		}
		g.emit(op, line)
		g.adjust(-1)
		return nil

	case *parser.Logical:
		return g.compileLogical(n)

	case *parser.Unary:
		if err := g.compileExpr(n.Operand); err != nil {
			return err
		}
		if n.Op == "!" {
			g.emit(bytecode.OpNotOp, line)
		} else {
			g.emit(bytecode.OpNegOp, line)
		}
		return nil

	case *parser.CastExpr:
		if err := g.compileExpr(n.Operand); err != nil {
			return err
		}
		to := g.info.ExprTypes[n]
		g.emit(bytecode.OpCast, line)
		g.u8(int(castOperand(to)))
		return nil

	case *parser.CallExpr:
		return g.compileCall(n)

	case *parser.FieldAccess:
		return g.compileFieldAccess(n)

	case *parser.MethodCall:
		return g.compileMethodCall(n)

	case *parser.ConstructExpr:
		return g.compileConstruct(n)

	case *parser.IfExpr:
		return g.compileIfExpr(n)

	case *parser.MatchExpr:
		return g.compileMatchExpr(n)

	case *parser.FuncLit:
		gf := g.info.FuncLits[n]
		funcIdx := g.prog.FuncIndex[gf]
		g.emit(bytecode.OpLoadDirectDefFn, line)
		g.u16(funcIdx)
		g.u8(len(gf.Captures))
		g.adjust(1)
		return nil
	}
	return fmt.Errorf("compiler: unhandled expression %T", e)
}

func (g *fgen) compileIdent(n *parser.Ident) error {
	line := n.Line
	b, ok := g.info.Idents[n]
	if !ok {
		return fmt.Errorf("compiler: unresolved identifier %q", n.Name)
	}
	switch b.Kind {
	case analysis.BindLocal, analysis.BindSelf:
		g.emit(bytecode.OpReadLocal, line)
		g.u16(b.Slot.Index)
		g.u8(b.Slot.Sub)
		g.adjust(1)
	case analysis.BindStatic:
		g.emit(bytecode.OpReadStatic, line)
		g.u16(b.Static.Slot.Index)
		g.u8(b.Static.Slot.Sub)
		g.adjust(1)
	case analysis.BindClassType:
		g.emit(bytecode.OpLoadClass, line)
		g.u16(g.prog.ClassIndex[b.Class])
		g.adjust(1)
	case analysis.BindEnumType:
		g.emit(bytecode.OpLoadEnum, line)
		g.u16(g.prog.EnumIndex[b.Enum])
		g.adjust(1)
	case analysis.BindInterfaceType:
		g.emit(bytecode.OpLoadBuiltinType, line)
		g.u8(0)
		g.adjust(1)
	case analysis.BindTopFunc:
		funcIdx := g.prog.FuncIndex[b.Func]
		g.emit(bytecode.OpLoadDirectDefFn, line)
		g.u16(funcIdx)
		g.u8(len(b.Func.Captures))
		g.adjust(1)
	default:
		return fmt.Errorf("compiler: unhandled binding kind for %q", n.Name)
	}
	return nil
}

// compileLogical lowers short-circuit &&/|| into jumps, since there is
// no Dup opcode to duplicate the left operand for a conventional
// "test-and-keep" encoding.
func (g *fgen) compileLogical(n *parser.Logical) error {
	line := n.Line
	if err := g.compileExpr(n.Left); err != nil {
		return err
	}
	if n.Op == "&&" {
		shortCircuit := g.chunk.EmitJump(bytecode.OpJumpIfNot, line)
		g.adjust(-1)
		if err := g.compileExpr(n.Right); err != nil {
			return err
		}
		end := g.chunk.EmitJump(bytecode.OpJump, line)
		g.depth--
		g.chunk.PatchJump(shortCircuit)
		g.emit(bytecode.OpLoadDirectBool, line)
		g.u8(0)
		g.chunk.PatchJump(end)
		g.adjust(1)
		return nil
	}
	// ||
	shortCircuit := g.chunk.EmitJump(bytecode.OpJumpIf, line)
	g.adjust(-1)
	if err := g.compileExpr(n.Right); err != nil {
		return err
	}
	end := g.chunk.EmitJump(bytecode.OpJump, line)
	g.depth--
	g.chunk.PatchJump(shortCircuit)
	g.emit(bytecode.OpLoadDirectBool, line)
	g.u8(1)
	g.chunk.PatchJump(end)
	g.adjust(1)
	return nil
}

func (g *fgen) compileCall(n *parser.CallExpr) error {
	line := n.Line
	if ident, ok := n.Callee.(*parser.Ident); ok {
		if b, ok := g.info.Idents[ident]; ok && b.Kind == analysis.BindTopFunc {
			for _, arg := range n.Args {
				if err := g.compileExpr(arg); err != nil {
					return err
				}
			}
			g.emit(bytecode.OpCallTopFn, line)
			g.u16(g.prog.FuncIndex[b.Func])
			g.u8(len(n.Args))
			g.adjust(1 - len(n.Args))
			return nil
		}
	}
	if err := g.compileExpr(n.Callee); err != nil {
		return err
	}
	for _, arg := range n.Args {
		if err := g.compileExpr(arg); err != nil {
			return err
		}
	}
	g.emit(bytecode.OpCallStaticFn, line)
	g.u8(len(n.Args))
	g.adjust(-len(n.Args))
	return nil
}

func (g *fgen) compileFieldAccess(n *parser.FieldAccess) error {
	line := n.Line
	if el, ok := g.info.EnumLits[n]; ok {
		g.emit(bytecode.OpConstructEnum, line)
		g.u16(g.prog.EnumIndex[el.Enum])
		g.u8(el.VariantIdx)
		g.u8(0)
		g.adjust(1)
		return nil
	}
	fb, ok := g.info.Fields[n]
	if !ok {
		return fmt.Errorf("compiler: unresolved field access %q", n.Name)
	}
	if err := g.compileExpr(n.Object); err != nil {
		return err
	}
	g.emit(bytecode.OpReadField, line)
	g.u16(fb.Slot.Index)
	g.u8(fb.Slot.Sub)
	return nil
}

func (g *fgen) compileMethodCall(n *parser.MethodCall) error {
	line := n.Line
	if el, ok := g.info.EnumLits[n]; ok {
		hasPayload := 0
		if len(n.Args) == 1 {
			hasPayload = 1
			if err := g.compileExpr(n.Args[0]); err != nil {
				return err
			}
		}
		g.emit(bytecode.OpConstructEnum, line)
		g.u16(g.prog.EnumIndex[el.Enum])
		g.u8(el.VariantIdx)
		g.u8(hasPayload)
		if hasPayload == 0 {
			g.adjust(1)
		}
		return nil
	}

	cb, ok := g.info.Calls[n]
	if !ok {
		return fmt.Errorf("compiler: unresolved method call %q", n.Name)
	}
	if err := g.compileExpr(n.Object); err != nil {
		return err
	}
	for _, arg := range n.Args {
		if err := g.compileExpr(arg); err != nil {
			return err
		}
	}
	argc := 1 + len(n.Args)
	g.emit(bytecode.OpCallMethod, line)
	if cb.ViaInterface {
		g.u8(1)
		g.u16(g.prog.IfaceIndex[cb.Interface])
		g.u16(cb.InterfaceIdx)
	} else {
		g.u8(0)
		g.u16(g.prog.FuncIndex[cb.Func])
	}
	g.u8(argc)
	g.adjust(1 - argc)
	return nil
}

func (g *fgen) compileConstruct(n *parser.ConstructExpr) error {
	line := n.Line
	class, ok := g.info.Constructs[n]
	if !ok {
		return fmt.Errorf("compiler: unresolved construction of %q", n.Type)
	}
	values := map[string]parser.Expr{}
	for _, fi := range n.Fields {
		values[fi.Name] = fi.Value
	}
	for _, name := range class.FieldOrder {
		val := values[name]
		if err := g.compileExpr(val); err != nil {
			return err
		}
		entry := class.Fields[name]
		g.widenIfNeeded(g.info.ExprTypes[val], entry.Type, line)
	}
	g.emit(bytecode.OpConstruct, line)
	g.u16(g.prog.ClassIndex[class])
	g.u8(len(class.FieldOrder))
	g.adjust(1 - len(class.FieldOrder))
	return nil
}

func (g *fgen) compileIfExpr(n *parser.IfExpr) error {
	line := n.Line
	base := g.depth
	if err := g.compileExpr(n.Cond); err != nil {
		return err
	}
	jfalse := g.chunk.EmitJump(bytecode.OpJumpIfNot, line)
	g.adjust(-1)
	if err := g.compileBlockValue(n.Then); err != nil {
		return err
	}
	var endJumps []int
	endJumps = append(endJumps, g.chunk.EmitJump(bytecode.OpJump, line))
	g.depth = base
	g.chunk.PatchJump(jfalse)

	for i := range n.ElseIfs {
		ei := &n.ElseIfs[i]
		if err := g.compileExpr(ei.Cond); err != nil {
			return err
		}
		jf := g.chunk.EmitJump(bytecode.OpJumpIfNot, line)
		g.adjust(-1)
		if err := g.compileBlockValue(ei.Then); err != nil {
			return err
		}
		endJumps = append(endJumps, g.chunk.EmitJump(bytecode.OpJump, line))
		g.depth = base
		g.chunk.PatchJump(jf)
	}

	if n.Else != nil {
		if err := g.compileBlockValue(n.Else); err != nil {
			return err
		}
	} else {
		g.emit(bytecode.OpLoadNil, line)
		g.adjust(1)
	}
	for _, pos := range endJumps {
		g.chunk.PatchJump(pos)
	}
	g.depth = base + 1
	if g.depth > g.maxDepth {
		g.maxDepth = g.depth
	}
	return nil
}

// compileMatchExpr re-evaluates the subject once per arm rather than
// duplicating it, since there is no Dup opcode.
func (g *fgen) compileMatchExpr(n *parser.MatchExpr) error {
	line := n.Line
	enum, ok := g.info.MatchEnums[n]
	if !ok {
		return fmt.Errorf("compiler: unresolved match subject")
	}
	base := g.depth
	var endJumps []int
	for i := range n.Arms {
		arm := &n.Arms[i]
		idx, ok := enum.VariantIndex[arm.VariantName]
		if !ok {
			continue
		}
		if err := g.compileExpr(n.Subject); err != nil {
			return err
		}
		g.emit(bytecode.OpEnumTag, line)
		g.emit(bytecode.OpLoadConstInt, line)
		g.u16(g.chunk.Constants.AddInt(int64(idx)))
		g.adjust(1)
		g.emit(bytecode.OpEquals, line)
		g.adjust(-1)
		jskip := g.chunk.EmitJump(bytecode.OpJumpIfNot, line)
		g.adjust(-1)

		if slot, ok := g.info.MatchArmSlots[arm]; ok {
			if err := g.compileExpr(n.Subject); err != nil {
				return err
			}
			g.emit(bytecode.OpEnumPayload, line)
			g.emit(bytecode.OpWriteLocalRef, line)
			g.u16(slot.Index)
			g.adjust(-1)
		}

		if err := g.compileBlockValue(arm.Body); err != nil {
			return err
		}
		endJumps = append(endJumps, g.chunk.EmitJump(bytecode.OpJump, line))
		g.depth = base
		g.chunk.PatchJump(jskip)
	}
	g.emit(bytecode.OpLoadNil, line)
	for _, pos := range endJumps {
		g.chunk.PatchJump(pos)
	}
	g.depth = base + 1
	if g.depth > g.maxDepth {
		g.maxDepth = g.depth
	}
	return nil
}
