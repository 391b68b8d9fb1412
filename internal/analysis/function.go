package analysis

import (
	"gloom/internal/object"
	"gloom/internal/parser"
	"gloom/internal/slots"
	"gloom/internal/types"
)

// funcScope is one active function's (or closure's) lexical environment
// during Phase E: a stack of block-level name tables backed by a single
// slots.Indexer, plus a link to the enclosing funcScope a FuncLit closes
// over. Name resolution walks this chain in order: current scope ->
// enclosing scopes (capture) -> static -> type table -> top-level
// function table.
type funcScope struct {
	parent   *funcScope
	gf       *object.GloomFunc
	ix       *slots.Indexer
	blocks   []map[string]*Binding
	selfType types.DataType
}

func (a *Analyzer) newFuncScope(gf *object.GloomFunc, selfType types.DataType, parent *funcScope) *funcScope {
	return &funcScope{gf: gf, ix: slots.New(), selfType: selfType, parent: parent, blocks: []map[string]*Binding{{}}}
}

func (fs *funcScope) enterBlock() {
	fs.ix.EnterScope()
	fs.blocks = append(fs.blocks, map[string]*Binding{})
}

func (fs *funcScope) leaveBlock(a *Analyzer, blk *parser.Block) {
	drops := fs.ix.LeaveScope()
	fs.blocks = fs.blocks[:len(fs.blocks)-1]
	if blk != nil {
		a.prog.Info.BlockDrops[blk] = drops
	}
}

func (fs *funcScope) declare(name string, b *Binding) {
	fs.blocks[len(fs.blocks)-1][name] = b
}

func (fs *funcScope) lookupLocal(name string) (*Binding, bool) {
	for i := len(fs.blocks) - 1; i >= 0; i-- {
		if b, ok := fs.blocks[i][name]; ok {
			return b, true
		}
	}
	return nil, false
}

// ---- Top-level func/static analysis ----

func (a *Analyzer) analyzeTopLevel(f *parser.File) {
	for _, d := range f.Decls {
		switch decl := d.(type) {
		case *parser.FuncDecl:
			gf := a.prog.Funcs[decl.Name]
			for _, p := range decl.Params {
				gf.Params = append(gf.Params, object.Param{Name: p.Name, Type: a.resolveTypeExpr(p.TypeExpr)})
			}
			if decl.ReturnType != nil {
				gf.ReturnType = a.resolveTypeExpr(*decl.ReturnType)
			} else {
				gf.ReturnType = types.Void
			}
			a.analyzeFunctionBody(gf, decl.Params, decl.HasSelf, types.Void, decl.Body, nil)
		case *parser.TopStatic:
			a.analyzeTopStatic(decl)
		}
	}
}

func (a *Analyzer) analyzeTopStatic(d *parser.TopStatic) {
	sv := a.prog.Statics[d.Stmt.Name]
	valType := a.analyzeExpr(nil, d.Stmt.Value)
	declType := valType
	if d.Stmt.TypeExpr != nil {
		declType = a.resolveTypeExpr(*d.Stmt.TypeExpr)
		if !types.Subtype(valType, declType) {
			a.errorf(d.Stmt.Line, "static %q: value of type %s is not assignable to %s", d.Stmt.Name, valType, declType)
		}
	}
	sv.Type = declType
	sv.Slot = a.staticIndexer.Put(declType)
	a.prog.StaticSize = a.staticIndexer.Size()
}

// analyzeMethodBodies consumes every class/enum method queued by Phase C
// and D, once, so a method can call a sibling class's method regardless
// of source order.
func (a *Analyzer) analyzeMethodBodies() {
	for _, pf := range a.pendingMethods {
		a.analyzeFunctionBody(pf.gf, pf.params, pf.hasSelf, pf.selfType, pf.body, nil)
	}
	a.pendingMethods = nil
}

// analyzeFunctionBody allocates parameter slots (self first, when
// hasSelf), walks the body, and fills in gf.LocalSize/Captures/AST.
func (a *Analyzer) analyzeFunctionBody(gf *object.GloomFunc, params []parser.ParamDecl, hasSelf bool, selfType types.DataType, body *parser.Block, parent *funcScope) {
	fs := a.newFuncScope(gf, selfType, parent)
	if hasSelf {
		slot := fs.ix.Put(selfType)
		gf.SelfSlot = slot.Index
		gf.SelfSub = slot.Sub
		fs.declare("self", &Binding{Kind: BindSelf, Slot: slot, Type: selfType})
	}
	for i, p := range params {
		slot := fs.ix.Put(gf.Params[i].Type)
		gf.Params[i].Slot = slot.Index
		gf.Params[i].Sub = slot.Sub
		fs.declare(p.Name, &Binding{Kind: BindLocal, Slot: slot, Type: gf.Params[i].Type})
	}
	if body != nil {
		a.analyzeBlock(fs, body)
	}
	gf.LocalSize = fs.ix.Size()
	gf.BodyKind = object.BodyAST
	gf.AST = body
}

// ---- Name resolution ----

func (a *Analyzer) resolveIdent(fs *funcScope, name string) (*Binding, bool) {
	if fs != nil {
		if b, ok := fs.lookupLocal(name); ok {
			return b, true
		}
	}
	if fs != nil && fs.parent != nil {
		pb, ok := a.resolveIdent(fs.parent, name)
		if ok && (pb.Kind == BindLocal || pb.Kind == BindSelf) {
			// Cascade the capture: this scope gets its own local slot fed
			// from the parent's, one capture per nesting level.
			newSlot := fs.ix.Put(pb.Type)
			kind := object.CaptureByValue
			if pb.Type.IsRef() {
				kind = object.CaptureByRef
			}
			fs.gf.Captures = append(fs.gf.Captures, object.Capture{
				FromSlot: pb.Slot.Index, FromSub: pb.Slot.Sub,
				ToSlot: newSlot.Index, ToSub: newSlot.Sub,
				Kind: kind, Type: pb.Type,
			})
			nb := &Binding{Kind: BindLocal, Slot: newSlot, Type: pb.Type}
			fs.declare(name, nb)
			return nb, true
		}
		if ok {
			return pb, true
		}
	}
	if sv, ok := a.prog.Statics[name]; ok {
		return &Binding{Kind: BindStatic, Static: sv, Type: sv.Type}, true
	}
	if c, ok := a.prog.Classes[name]; ok {
		return &Binding{Kind: BindClassType, Class: c, Type: types.MetaClass(c)}, true
	}
	if e, ok := a.prog.Enums[name]; ok {
		return &Binding{Kind: BindEnumType, Enum: e, Type: types.MetaEnum(e)}, true
	}
	if i, ok := a.prog.Interfaces[name]; ok {
		return &Binding{Kind: BindInterfaceType, Interface: i, Type: types.MetaInterface(i)}, true
	}
	if fn, ok := a.prog.Funcs[name]; ok {
		return &Binding{Kind: BindTopFunc, Func: fn, Type: types.Func(fn.Signature())}, true
	}
	return nil, false
}

// ---- Statements ----

func (a *Analyzer) analyzeBlock(fs *funcScope, blk *parser.Block) types.DataType {
	fs.enterBlock()
	result := types.Void
	for i, s := range blk.Stmts {
		if es, ok := s.(*parser.ExprStmt); ok && i == len(blk.Stmts)-1 && !es.Discard {
			result = a.analyzeExpr(fs, es.Expr)
			continue
		}
		a.analyzeStmt(fs, s)
	}
	fs.leaveBlock(a, blk)
	return result
}

func (a *Analyzer) analyzeStmt(fs *funcScope, s parser.Stmt) {
	switch st := s.(type) {
	case *parser.LetStmt:
		valType := a.analyzeExpr(fs, st.Value)
		declType := valType
		if st.TypeExpr != nil {
			declType = a.resolveTypeExpr(*st.TypeExpr)
			if !types.Subtype(valType, declType) {
				a.errorf(st.Line, "let %q: value of type %s is not assignable to %s", st.Name, valType, declType)
			}
		}
		slot := fs.ix.Put(declType)
		a.prog.Info.Lets[st] = slot
		a.prog.Info.LetTypes[st] = declType
		fs.declare(st.Name, &Binding{Kind: BindLocal, Slot: slot, Type: declType})

	case *parser.StaticStmt:
		if _, exists := a.prog.Statics[st.Name]; !exists {
			a.prog.Statics[st.Name] = &StaticVar{Name: st.Name, Pub: st.Pub}
		}
		a.analyzeTopStatic(&parser.TopStatic{Stmt: *st})

	case *parser.AssignStmt:
		a.analyzeAssign(fs, st)

	case *parser.ExprStmt:
		a.analyzeExpr(fs, st.Expr)

	case *parser.ReturnStmt:
		retType := types.Void
		if st.Value != nil {
			retType = a.analyzeExpr(fs, st.Value)
		}
		if !types.Subtype(retType, fs.gf.ReturnType) {
			a.errorf(st.Line, "return type %s is not assignable to %s", retType, fs.gf.ReturnType)
		}

	case *parser.BreakStmt:
		if st.Value != nil {
			a.analyzeExpr(fs, st.Value)
		}

	case *parser.ContinueStmt:
		// nothing to resolve

	case *parser.WhileStmt:
		cond := a.analyzeExpr(fs, st.Cond)
		if !types.Subtype(cond, types.Bool) {
			a.errorf(st.Line, "while condition must be bool, got %s", cond)
		}
		a.analyzeBlock(fs, st.Body)

	case *parser.ForRangeStmt:
		a.checkNumeric(fs, st.Start, st.Line)
		a.checkNumeric(fs, st.End, st.Line)
		if st.Step != nil {
			a.checkNumeric(fs, st.Step, st.Line)
		}
		fs.enterBlock()
		slot := fs.ix.Put(types.Int)
		a.prog.Info.ForRange[st] = slot
		fs.declare(st.Var, &Binding{Kind: BindLocal, Slot: slot, Type: types.Int})
		for _, bs := range st.Body.Stmts {
			a.analyzeStmt(fs, bs)
		}
		fs.leaveBlock(a, st.Body)

	case *parser.ForInStmt:
		iterType := a.analyzeExpr(fs, st.Iter)
		elem := types.Any
		if iterType.IsRef() {
			switch iterType.Ref.Kind {
			case types.RefArray, types.RefQueue, types.RefWeak:
				elem = *iterType.Ref.Elem
			}
		}
		fs.enterBlock()
		slot := fs.ix.Put(elem)
		a.prog.Info.ForIn[st] = slot
		fs.declare(st.Var, &Binding{Kind: BindLocal, Slot: slot, Type: elem})
		for _, bs := range st.Body.Stmts {
			a.analyzeStmt(fs, bs)
		}
		fs.leaveBlock(a, st.Body)
	}
}

func (a *Analyzer) checkNumeric(fs *funcScope, e parser.Expr, line int) {
	t := a.analyzeExpr(fs, e)
	if !t.IsNumeric() {
		a.errorf(line, "expected a numeric expression, got %s", t)
	}
}

func (a *Analyzer) analyzeAssign(fs *funcScope, st *parser.AssignStmt) {
	lv := st.Target
	var targetType types.DataType

	switch {
	case lv.Index != nil:
		// Index assignment is lowered by the compiler into a builtin
		// element-set call; the analyzer only needs the element's type to
		// check the assigned value.
		objType := a.analyzeExpr(fs, lv.Object)
		a.analyzeExpr(fs, lv.Index)
		if objType.IsRef() {
			switch objType.Ref.Kind {
			case types.RefArray, types.RefQueue:
				targetType = *objType.Ref.Elem
			default:
				targetType = types.Any
			}
		}
	case lv.Object != nil:
		objType := a.analyzeExpr(fs, lv.Object)
		fb := a.lookupField(objType, lv.Name, lv.Line)
		if fb != nil {
			a.prog.Info.AssignFld[st] = fb
			targetType = fb.Type
		}
	default:
		b, ok := a.resolveIdent(fs, lv.Name)
		if !ok {
			a.errorf(lv.Line, "undefined name %q", lv.Name)
			return
		}
		a.prog.Info.Assigns[st] = b
		targetType = b.Type
	}

	switch st.Op {
	case "++", "--":
		if !targetType.IsNumeric() {
			a.errorf(st.Line, "%s requires a numeric target", st.Op)
		}
		return
	}
	valType := a.analyzeExpr(fs, st.Value)
	switch st.Op {
	case "+=", "-=":
		if !valType.IsNumeric() || !targetType.IsNumeric() {
			if !(types.Subtype(targetType, types.Str) && st.Op == "+=") {
				a.errorf(st.Line, "%s requires numeric operands", st.Op)
			}
		}
	default:
		if !types.Subtype(valType, targetType) {
			a.errorf(st.Line, "cannot assign %s to %s", valType, targetType)
		}
	}
}

func (a *Analyzer) lookupField(objType types.DataType, name string, line int) *FieldBinding {
	if !objType.IsRef() || objType.Ref.Kind != types.RefClass {
		a.errorf(line, "%s has no field %q", objType, name)
		return nil
	}
	class, ok := objType.Ref.Class.(*object.Class)
	if !ok {
		return nil
	}
	entry, ok := class.Fields[name]
	if !ok {
		a.errorf(line, "%s has no field %q", objType, name)
		return nil
	}
	if entry.IsMethod {
		a.errorf(line, "%q is a method, not a field", name)
		return nil
	}
	return &FieldBinding{Slot: slots.Slot{Index: entry.Slot, Sub: entry.Sub}, Type: entry.Type}
}
