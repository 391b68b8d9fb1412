package analysis

import (
	"gloom/internal/builtin"
	"gloom/internal/object"
	"gloom/internal/parser"
	"gloom/internal/types"
)

// analyzeExpr type-checks e, resolves every name it contains, and
// records the result in a.prog.Info.ExprTypes (consulted later by the
// bytecode generator). fs is nil only when analyzing a top-level static
// initializer, which may not reference locals/self; statics, types and
// top-level functions still resolve.
func (a *Analyzer) analyzeExpr(fs *funcScope, e parser.Expr) types.DataType {
	t := a.analyzeExprKind(fs, e)
	a.prog.Info.ExprTypes[e] = t
	return t
}

func (a *Analyzer) analyzeExprKind(fs *funcScope, e parser.Expr) types.DataType {
	switch n := e.(type) {
	case *parser.IntLit:
		return types.Int
	case *parser.NumLit:
		return types.Num
	case *parser.CharLit:
		return types.Char
	case *parser.BoolLit:
		return types.Bool
	case *parser.StringLit:
		return types.Str

	case *parser.ArrayLit:
		if len(n.Elements) == 0 {
			return types.Array(types.Any)
		}
		elem := a.analyzeExpr(fs, n.Elements[0])
		for _, el := range n.Elements[1:] {
			t := a.analyzeExpr(fs, el)
			joined, err := types.Join(elem, t)
			if err != nil {
				a.errorf(n.Line, "array literal: %v", err)
				joined = types.Any
			}
			elem = joined
		}
		return types.Array(elem)

	case *parser.TupleLit:
		elems := make([]types.DataType, len(n.Elements))
		for i, el := range n.Elements {
			elems[i] = a.analyzeExpr(fs, el)
		}
		return types.Tuple(elems)

	case *parser.Ident:
		b, ok := a.resolveIdent(fs, n.Name)
		if !ok {
			a.errorf(n.Line, "undefined name %q", n.Name)
			return types.Any
		}
		a.prog.Info.Idents[n] = b
		return b.Type

	case *parser.Binary:
		return a.analyzeBinary(fs, n)

	case *parser.Logical:
		l := a.analyzeExpr(fs, n.Left)
		r := a.analyzeExpr(fs, n.Right)
		if !types.Subtype(l, types.Bool) || !types.Subtype(r, types.Bool) {
			a.errorf(n.Line, "%s requires bool operands", n.Op)
		}
		return types.Bool

	case *parser.Unary:
		operand := a.analyzeExpr(fs, n.Operand)
		if n.Op == "!" {
			if !types.Subtype(operand, types.Bool) {
				a.errorf(n.Line, "! requires a bool operand")
			}
			return types.Bool
		}
		if !operand.IsNumeric() {
			a.errorf(n.Line, "unary - requires a numeric operand")
		}
		return operand

	case *parser.CastExpr:
		from := a.analyzeExpr(fs, n.Operand)
		to := a.resolveTypeExpr(n.TypeExpr)
		if !types.Cast(from, to) {
			a.errorf(n.Line, "cannot cast %s as %s", from, to)
		}
		return to

	case *parser.CallExpr:
		return a.analyzeCall(fs, n)

	case *parser.FieldAccess:
		return a.analyzeFieldAccess(fs, n)

	case *parser.MethodCall:
		return a.analyzeMethodCall(fs, n)

	case *parser.ConstructExpr:
		return a.analyzeConstruct(fs, n)

	case *parser.IfExpr:
		return a.analyzeIfExpr(fs, n)

	case *parser.MatchExpr:
		return a.analyzeMatchExpr(fs, n)

	case *parser.FuncLit:
		return a.analyzeFuncLit(fs, n)
	}
	return types.Any
}

func (a *Analyzer) analyzeBinary(fs *funcScope, n *parser.Binary) types.DataType {
	l := a.analyzeExpr(fs, n.Left)
	r := a.analyzeExpr(fs, n.Right)
	switch n.Op {
	case "==", "!=":
		return types.Bool
	case "<", ">", "<=", ">=":
		if !l.IsNumeric() || !r.IsNumeric() {
			a.errorf(n.Line, "%s requires numeric operands", n.Op)
		}
		return types.Bool
	case "+":
		if types.Subtype(l, types.Str) || types.Subtype(r, types.Str) {
			return types.Str
		}
		fallthrough
	case "-", "*", "/":
		if !l.IsNumeric() || !r.IsNumeric() {
			a.errorf(n.Line, "%s requires numeric operands, got %s and %s", n.Op, l, r)
			return types.Any
		}
		if l.Kind == types.KindNum || r.Kind == types.KindNum {
			return types.Num
		}
		return types.Int
	}
	return types.Any
}

func (a *Analyzer) analyzeCall(fs *funcScope, n *parser.CallExpr) types.DataType {
	calleeType := a.analyzeExpr(fs, n.Callee)
	if !calleeType.IsRef() || calleeType.Ref.Kind != types.RefFunc {
		a.errorf(n.Line, "cannot call a value of type %s", calleeType)
		for _, arg := range n.Args {
			a.analyzeExpr(fs, arg)
		}
		return types.Any
	}
	sig := calleeType.Ref.Func
	a.checkArgs(n.Line, fs, sig.Params, sig.Wildcard, n.Args)
	return sig.Return
}

func (a *Analyzer) checkArgs(line int, fs *funcScope, params []types.DataType, wildcard bool, args []parser.Expr) {
	if wildcard {
		for _, arg := range args {
			a.analyzeExpr(fs, arg)
		}
		return
	}
	if len(args) != len(params) {
		a.errorf(line, "expected %d argument(s), got %d", len(params), len(args))
	}
	for i, arg := range args {
		t := a.analyzeExpr(fs, arg)
		if i < len(params) && !types.Subtype(t, params[i]) {
			a.errorf(line, "argument %d: %s is not assignable to %s", i+1, t, params[i])
		}
	}
}

// analyzeFieldAccess covers plain field reads and the no-payload enum
// variant literal `EnumName.Variant`.
func (a *Analyzer) analyzeFieldAccess(fs *funcScope, n *parser.FieldAccess) types.DataType {
	if ident, ok := n.Object.(*parser.Ident); ok {
		if enum, ok := a.prog.Enums[ident.Name]; ok {
			idx, ok := enum.VariantIndex[n.Name]
			if !ok {
				a.errorf(n.Line, "enum %q has no variant %q", enum.Name, n.Name)
				return types.Any
			}
			a.prog.Info.EnumLits[n] = &EnumLit{Enum: enum, VariantIdx: idx}
			return types.EnumT(enum)
		}
	}
	objType := a.analyzeExpr(fs, n.Object)
	fb := a.lookupField(objType, n.Name, n.Line)
	if fb == nil {
		return types.Any
	}
	a.prog.Info.Fields[n] = fb
	return fb.Type
}

// analyzeMethodCall covers instance method dispatch (direct or via an
// interface), and the payload enum-variant literal `EnumName.Variant(v)`.
func (a *Analyzer) analyzeMethodCall(fs *funcScope, n *parser.MethodCall) types.DataType {
	if ident, ok := n.Object.(*parser.Ident); ok {
		if enum, ok := a.prog.Enums[ident.Name]; ok {
			idx, ok := enum.VariantIndex[n.Name]
			if !ok {
				a.errorf(n.Line, "enum %q has no variant %q", enum.Name, n.Name)
				return types.Any
			}
			variant := enum.Variants[idx]
			if variant.Related == nil {
				a.errorf(n.Line, "enum variant %q carries no payload", n.Name)
			} else if len(n.Args) != 1 {
				a.errorf(n.Line, "enum variant %q takes exactly one payload value", n.Name)
			} else {
				v := a.analyzeExpr(fs, n.Args[0])
				if !types.Subtype(v, *variant.Related) {
					a.errorf(n.Line, "variant %q expects %s, got %s", n.Name, *variant.Related, v)
				}
			}
			a.prog.Info.EnumLits[n] = &EnumLit{Enum: enum, VariantIdx: idx}
			return types.EnumT(enum)
		}
	}

	objType := a.analyzeExpr(fs, n.Object)
	if !objType.IsRef() {
		a.errorf(n.Line, "%s has no method %q", objType, n.Name)
		return types.Any
	}

	switch objType.Ref.Kind {
	case types.RefClass:
		class, ok := objType.Ref.Class.(*object.Class)
		if !ok {
			return types.Any
		}
		entry, ok := class.Fields[n.Name]
		if !ok || !entry.IsMethod {
			a.errorf(n.Line, "%s has no method %q", objType, n.Name)
			return types.Any
		}
		gf := class.Funcs[entry.FuncIdx]
		a.prog.Info.Calls[n] = &CallBinding{ClassFuncIdx: entry.FuncIdx, Func: gf}
		a.checkArgs(n.Line, fs, paramTypes(gf), false, n.Args)
		return gf.ReturnType

	case types.RefInterface:
		iface, ok := objType.Ref.Interface.(*object.Interface)
		if !ok {
			return types.Any
		}
		idx, ok := iface.NameIndex[n.Name]
		if !ok {
			a.errorf(n.Line, "%s has no method %q", objType, n.Name)
			return types.Any
		}
		af := iface.Funcs[idx]
		a.prog.Info.Calls[n] = &CallBinding{ViaInterface: true, Interface: iface, InterfaceIdx: idx}
		a.checkArgs(n.Line, fs, af.Params, false, n.Args)
		return af.Return

	case types.RefEnum:
		enum, ok := objType.Ref.Enum.(*object.EnumClass)
		if !ok {
			return types.Any
		}
		idx, ok := enum.FuncIndex[n.Name]
		if !ok {
			a.errorf(n.Line, "%s has no method %q", objType, n.Name)
			return types.Any
		}
		gf := enum.Funcs[idx]
		a.prog.Info.Calls[n] = &CallBinding{ClassFuncIdx: idx, Func: gf}
		a.checkArgs(n.Line, fs, paramTypes(gf), false, n.Args)
		return gf.ReturnType

	case types.RefString:
		if n.Name == "append" {
			a.checkArgs(n.Line, fs, paramTypes(builtin.StringAppend), false, n.Args)
			a.prog.Info.Calls[n] = &CallBinding{Func: builtin.StringAppend}
			return types.Str
		}

	case types.RefFunc:
		if n.Name == "printBody" {
			a.checkArgs(n.Line, fs, nil, false, n.Args)
			a.prog.Info.Calls[n] = &CallBinding{Func: builtin.FuncPrintBody}
			return types.Void
		}

	case types.RefArray:
		elem := *objType.Ref.Elem
		switch n.Name {
		case "at":
			a.checkArgs(n.Line, fs, []types.DataType{types.Int}, false, n.Args)
			a.prog.Info.Calls[n] = &CallBinding{Func: builtin.ArrayAt}
			return elem
		case "set":
			a.checkArgs(n.Line, fs, []types.DataType{types.Int, elem}, false, n.Args)
			a.prog.Info.Calls[n] = &CallBinding{Func: builtin.ArraySet}
			return types.Void
		case "push":
			a.checkArgs(n.Line, fs, []types.DataType{elem}, false, n.Args)
			a.prog.Info.Calls[n] = &CallBinding{Func: builtin.ArrayPush}
			return types.Void
		case "len":
			a.checkArgs(n.Line, fs, nil, false, n.Args)
			a.prog.Info.Calls[n] = &CallBinding{Func: builtin.ArrayLen}
			return types.Int
		}

	case types.RefQueue:
		elem := *objType.Ref.Elem
		switch n.Name {
		case "push":
			a.checkArgs(n.Line, fs, []types.DataType{elem}, false, n.Args)
			a.prog.Info.Calls[n] = &CallBinding{Func: builtin.QueuePush}
			return types.Void
		case "pop":
			a.checkArgs(n.Line, fs, nil, false, n.Args)
			a.prog.Info.Calls[n] = &CallBinding{Func: builtin.QueuePop}
			return elem
		case "len":
			a.checkArgs(n.Line, fs, nil, false, n.Args)
			a.prog.Info.Calls[n] = &CallBinding{Func: builtin.QueueLen}
			return types.Int
		}
	}

	for _, arg := range n.Args {
		a.analyzeExpr(fs, arg)
	}
	return types.Any
}

func paramTypes(gf *object.GloomFunc) []types.DataType {
	out := make([]types.DataType, len(gf.Params))
	for i, p := range gf.Params {
		out[i] = p.Type
	}
	return out
}

func (a *Analyzer) analyzeConstruct(fs *funcScope, n *parser.ConstructExpr) types.DataType {
	class, ok := a.prog.Classes[n.Type]
	if !ok {
		a.errorf(n.Line, "unknown class %q", n.Type)
		for _, fi := range n.Fields {
			a.analyzeExpr(fs, fi.Value)
		}
		return types.Any
	}
	a.prog.Info.Constructs[n] = class
	seen := map[string]bool{}
	for _, fi := range n.Fields {
		t := a.analyzeExpr(fs, fi.Value)
		entry, ok := class.Fields[fi.Name]
		if !ok || entry.IsMethod {
			a.errorf(n.Line, "class %q has no field %q", n.Type, fi.Name)
			continue
		}
		if !types.Subtype(t, entry.Type) {
			a.errorf(n.Line, "field %q: %s is not assignable to %s", fi.Name, t, entry.Type)
		}
		seen[fi.Name] = true
	}
	for _, name := range class.FieldOrder {
		if !seen[name] {
			a.errorf(n.Line, "class %q: missing field %q in construction", n.Type, name)
		}
	}
	return types.Class(class)
}

func (a *Analyzer) analyzeIfExpr(fs *funcScope, n *parser.IfExpr) types.DataType {
	cond := a.analyzeExpr(fs, n.Cond)
	if !types.Subtype(cond, types.Bool) {
		a.errorf(n.Line, "if condition must be bool, got %s", cond)
	}
	result := a.analyzeBlock(fs, n.Then)
	for _, ei := range n.ElseIfs {
		c := a.analyzeExpr(fs, ei.Cond)
		if !types.Subtype(c, types.Bool) {
			a.errorf(n.Line, "else-if condition must be bool, got %s", c)
		}
		t := a.analyzeBlock(fs, ei.Then)
		if joined, err := types.Join(result, t); err == nil {
			result = joined
		}
	}
	if n.Else != nil {
		t := a.analyzeBlock(fs, n.Else)
		if joined, err := types.Join(result, t); err == nil {
			result = joined
		}
		return result
	}
	return types.Void
}

func (a *Analyzer) analyzeMatchExpr(fs *funcScope, n *parser.MatchExpr) types.DataType {
	subjType := a.analyzeExpr(fs, n.Subject)
	if !subjType.IsRef() || subjType.Ref.Kind != types.RefEnum {
		a.errorf(n.Line, "match subject must be an enum, got %s", subjType)
		for i := range n.Arms {
			a.analyzeBlock(fs, n.Arms[i].Body)
		}
		return types.Any
	}
	enum, ok := subjType.Ref.Enum.(*object.EnumClass)
	if !ok {
		return types.Any
	}
	a.prog.Info.MatchEnums[n] = enum

	var result types.DataType
	first := true
	for i := range n.Arms {
		arm := &n.Arms[i]
		idx, ok := enum.VariantIndex[arm.VariantName]
		if !ok {
			a.errorf(n.Line, "enum %q has no variant %q", enum.Name, arm.VariantName)
			a.analyzeBlock(fs, arm.Body)
			continue
		}
		variant := enum.Variants[idx]
		fs.enterBlock()
		if arm.Binding != "" && variant.Related != nil {
			slot := fs.ix.Put(*variant.Related)
			a.prog.Info.MatchArmSlots[arm] = slot
			fs.declare(arm.Binding, &Binding{Kind: BindLocal, Slot: slot, Type: *variant.Related})
		}
		armResult := types.Void
		for j, s := range arm.Body.Stmts {
			if es, ok := s.(*parser.ExprStmt); ok && j == len(arm.Body.Stmts)-1 && !es.Discard {
				armResult = a.analyzeExpr(fs, es.Expr)
				continue
			}
			a.analyzeStmt(fs, s)
		}
		fs.leaveBlock(a, arm.Body)
		if first {
			result = armResult
			first = false
		} else if joined, err := types.Join(result, armResult); err == nil {
			result = joined
		}
	}
	if first {
		return types.Void
	}
	return result
}

func (a *Analyzer) analyzeFuncLit(fs *funcScope, n *parser.FuncLit) types.DataType {
	gf := &object.GloomFunc{}
	for _, p := range n.Params {
		gf.Params = append(gf.Params, object.Param{Name: p.Name, Type: a.resolveTypeExpr(p.TypeExpr)})
	}
	if n.ReturnType != nil {
		gf.ReturnType = a.resolveTypeExpr(*n.ReturnType)
	} else {
		gf.ReturnType = types.Void
	}
	selfType := types.Void
	if fs != nil {
		selfType = fs.selfType
	}
	a.analyzeFunctionBody(gf, n.Params, false, selfType, n.Body, fs)
	a.prog.Info.FuncLits[n] = gf
	return types.Func(gf.Signature())
}
