package parser

import (
	"testing"

	"gloom/internal/lexer"
)

func parse(t *testing.T, src string) *File {
	t.Helper()
	s := lexer.NewScanner(src)
	toks := s.ScanTokens()
	p := NewParser(toks, s.Lines(), "test.gl")
	f := p.ParseFile()
	if len(p.Errors) != 0 {
		t.Fatalf("unexpected parse errors: %v", p.Errors)
	}
	return f
}

func TestParseLetAndReturn(t *testing.T) {
	f := parse(t, `func main() int { let x = 1 + 2 return x }`)
	if len(f.Decls) != 1 {
		t.Fatalf("expected 1 decl, got %d", len(f.Decls))
	}
	fn, ok := f.Decls[0].(*FuncDecl)
	if !ok {
		t.Fatalf("expected *FuncDecl, got %T", f.Decls[0])
	}
	if fn.Name != "main" || fn.ReturnType == nil || fn.ReturnType.Name != "int" {
		t.Fatalf("unexpected func decl: %+v", fn)
	}
	if len(fn.Body.Stmts) != 2 {
		t.Fatalf("expected 2 body statements, got %d", len(fn.Body.Stmts))
	}
	let, ok := fn.Body.Stmts[0].(*LetStmt)
	if !ok {
		t.Fatalf("expected *LetStmt, got %T", fn.Body.Stmts[0])
	}
	bin, ok := let.Value.(*Binary)
	if !ok || bin.Op != "+" {
		t.Fatalf("expected binary '+' expr, got %#v", let.Value)
	}
}

func TestParseClassWithParentAndImpl(t *testing.T) {
	f := parse(t, `
class Animal {
	name: String
	func speak(self) String { return "..." }
}
class Dog: Animal impl Speaker {
	pub func speak(self) String { return "woof" }
}`)
	if len(f.Decls) != 2 {
		t.Fatalf("expected 2 decls, got %d", len(f.Decls))
	}
	dog, ok := f.Decls[1].(*ClassDecl)
	if !ok {
		t.Fatalf("expected *ClassDecl, got %T", f.Decls[1])
	}
	if dog.Parent != "Animal" {
		t.Fatalf("expected parent Animal, got %q", dog.Parent)
	}
	if len(dog.Impls) != 1 || dog.Impls[0] != "Speaker" {
		t.Fatalf("expected impl [Speaker], got %v", dog.Impls)
	}
	if len(dog.Methods) != 1 || !dog.Methods[0].Pub {
		t.Fatalf("expected one pub method, got %+v", dog.Methods)
	}
}

func TestParseInterfaceAndEnum(t *testing.T) {
	f := parse(t, `
interface Speaker {
	func speak(self) String
}
enum Shape {
	Circle(num)
	Square(num)
	Point
}`)
	iface, ok := f.Decls[0].(*InterfaceDecl)
	if !ok || len(iface.Funcs) != 1 {
		t.Fatalf("unexpected interface decl: %#v", f.Decls[0])
	}
	en, ok := f.Decls[1].(*EnumDecl)
	if !ok || len(en.Variants) != 3 {
		t.Fatalf("unexpected enum decl: %#v", f.Decls[1])
	}
	if en.Variants[2].TypeExpr != nil {
		t.Fatalf("expected Point variant to carry no payload")
	}
}

func TestParseMatchExpr(t *testing.T) {
	f := parse(t, `
func area(s: Shape) num {
	return match s {
		Shape.Circle(r) => r * r,
		Shape.Square(side) => side * side,
		Shape.Point => 0,
	}
}`)
	fn := f.Decls[0].(*FuncDecl)
	ret := fn.Body.Stmts[0].(*ReturnStmt)
	m, ok := ret.Value.(*MatchExpr)
	if !ok {
		t.Fatalf("expected *MatchExpr, got %T", ret.Value)
	}
	if len(m.Arms) != 3 {
		t.Fatalf("expected 3 match arms, got %d", len(m.Arms))
	}
	if m.Arms[0].Binding != "r" {
		t.Fatalf("expected binding 'r', got %q", m.Arms[0].Binding)
	}
}

func TestParseIfExprChain(t *testing.T) {
	f := parse(t, `
func classify(n: int) String {
	return if n < 0 { "neg" } else if n == 0 { "zero" } else { "pos" }
}`)
	fn := f.Decls[0].(*FuncDecl)
	ret := fn.Body.Stmts[0].(*ReturnStmt)
	ie, ok := ret.Value.(*IfExpr)
	if !ok {
		t.Fatalf("expected *IfExpr, got %T", ret.Value)
	}
	if len(ie.ElseIfs) != 1 || ie.Else == nil {
		t.Fatalf("expected one else-if and a final else, got %+v", ie)
	}
}

func TestParseConstructionExpr(t *testing.T) {
	f := parse(t, `func main() { let p = Point { x: 1, y: 2 } }`)
	fn := f.Decls[0].(*FuncDecl)
	let := fn.Body.Stmts[0].(*LetStmt)
	c, ok := let.Value.(*ConstructExpr)
	if !ok {
		t.Fatalf("expected *ConstructExpr, got %T", let.Value)
	}
	if c.Type != "Point" || len(c.Fields) != 2 {
		t.Fatalf("unexpected construct expr: %+v", c)
	}
}

func TestParseArrayAndTupleLiterals(t *testing.T) {
	f := parse(t, `func main() { let a = [1, 2, 3] let t = (1, "x") let u = (1) }`)
	fn := f.Decls[0].(*FuncDecl)
	arr := fn.Body.Stmts[0].(*LetStmt).Value.(*ArrayLit)
	if len(arr.Elements) != 3 {
		t.Fatalf("expected 3 array elements, got %d", len(arr.Elements))
	}
	tup := fn.Body.Stmts[1].(*LetStmt).Value.(*TupleLit)
	if len(tup.Elements) != 2 {
		t.Fatalf("expected 2 tuple elements, got %d", len(tup.Elements))
	}
	// (1) with no comma is a parenthesized int, not a one-tuple.
	if _, ok := fn.Body.Stmts[2].(*LetStmt).Value.(*IntLit); !ok {
		t.Fatalf("expected (1) to parse as a parenthesized int literal")
	}
}

func TestParseForLoops(t *testing.T) {
	f := parse(t, `
func main() {
	for i in 0:10 { }
	for i in 0:10:2 { }
	for x in items { }
}`)
	fn := f.Decls[0].(*FuncDecl)
	if _, ok := fn.Body.Stmts[0].(*ForRangeStmt); !ok {
		t.Fatalf("expected ForRangeStmt, got %T", fn.Body.Stmts[0])
	}
	fr := fn.Body.Stmts[1].(*ForRangeStmt)
	if fr.Step == nil {
		t.Fatalf("expected a step expression")
	}
	if _, ok := fn.Body.Stmts[2].(*ForInStmt); !ok {
		t.Fatalf("expected ForInStmt, got %T", fn.Body.Stmts[2])
	}
}

func TestParseAssignmentForms(t *testing.T) {
	f := parse(t, `
func main() {
	x = 1
	x += 1
	x -= 1
	x++
	x--
	self.count += 1
	arr[0] = 5
}`)
	fn := f.Decls[0].(*FuncDecl)
	wantOps := []string{"=", "+=", "-=", "++", "--", "+=", "="}
	if len(fn.Body.Stmts) != len(wantOps) {
		t.Fatalf("expected %d statements, got %d", len(wantOps), len(fn.Body.Stmts))
	}
	for i, op := range wantOps {
		as, ok := fn.Body.Stmts[i].(*AssignStmt)
		if !ok {
			t.Fatalf("stmt %d: expected *AssignStmt, got %T", i, fn.Body.Stmts[i])
		}
		if as.Op != op {
			t.Errorf("stmt %d: expected op %q, got %q", i, op, as.Op)
		}
	}
	last := fn.Body.Stmts[6].(*AssignStmt)
	if last.Target.Index == nil {
		t.Fatalf("expected indexed assignment target")
	}
}

func TestParseFuncTypeAnnotation(t *testing.T) {
	f := parse(t, `func apply(f: Func(int)->int, x: int) int { return f(x) }`)
	fn := f.Decls[0].(*FuncDecl)
	ft := fn.Params[0].TypeExpr
	if ft.Name != "Func" || len(ft.FuncParams) != 1 || ft.FuncReturn == nil {
		t.Fatalf("unexpected func type: %+v", ft)
	}
}

func TestParseGenericContainerTypes(t *testing.T) {
	f := parse(t, `func main(xs: Array<int>, q: Queue<String>) { }`)
	fn := f.Decls[0].(*FuncDecl)
	if fn.Params[0].TypeExpr.Name != "Array" || fn.Params[0].TypeExpr.Generic == nil {
		t.Fatalf("unexpected array param type: %+v", fn.Params[0].TypeExpr)
	}
	if fn.Params[1].TypeExpr.Name != "Queue" || fn.Params[1].TypeExpr.Generic.Name != "String" {
		t.Fatalf("unexpected queue param type: %+v", fn.Params[1].TypeExpr)
	}
}
