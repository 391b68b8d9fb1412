package analysis

import (
	"testing"

	"gloom/internal/lexer"
	"gloom/internal/parser"
	"gloom/internal/types"
)

func noImports(path string) (*parser.File, error) {
	return nil, errNoImports{path}
}

type errNoImports struct{ path string }

func (e errNoImports) Error() string { return "no importer configured for " + e.path }

func parseAndAnalyze(t *testing.T, src string) (*Program, []error) {
	t.Helper()
	s := lexer.NewScanner(src)
	toks := s.ScanTokens()
	p := parser.NewParser(toks, s.Lines(), "test.gl")
	f := p.ParseFile()
	if len(p.Errors) != 0 {
		t.Fatalf("parse errors: %v", p.Errors)
	}
	a := New("test.gl", noImports)
	return a.Analyze(f)
}

func analyzeOK(t *testing.T, src string) *Program {
	t.Helper()
	prog, errs := parseAndAnalyze(t, src)
	if len(errs) != 0 {
		t.Fatalf("unexpected analysis errors: %v", errs)
	}
	return prog
}

func TestAnalyzeRegistersBuiltinsBeforeUserFuncs(t *testing.T) {
	prog := analyzeOK(t, `func main() { println("hi") }`)
	if _, ok := prog.Funcs["println"]; !ok {
		t.Fatalf("expected println to be registered as a builtin")
	}
	if _, ok := prog.Funcs["main"]; !ok {
		t.Fatalf("expected main to be registered")
	}
}

func TestAnalyzeRedeclaredFunctionIsAnError(t *testing.T) {
	_, errs := parseAndAnalyze(t, `
func helper() { }
func helper() { }
func main() { }`)
	if len(errs) == 0 {
		t.Fatalf("expected a redeclaration error")
	}
}

func TestAnalyzeRedeclaringABuiltinIsAnError(t *testing.T) {
	_, errs := parseAndAnalyze(t, `
func println() { }
func main() { }`)
	if len(errs) == 0 {
		t.Fatalf("expected redeclaring a builtin to be an error")
	}
}

func TestClassFieldLayoutFollowsDeclarationOrder(t *testing.T) {
	prog := analyzeOK(t, `
class Point {
	x: int
	y: int
}
func main() { }`)
	class := prog.Classes["Point"]
	if class == nil {
		t.Fatalf("expected class Point to be registered")
	}
	if len(class.FieldOrder) != 2 || class.FieldOrder[0] != "x" || class.FieldOrder[1] != "y" {
		t.Fatalf("expected field order [x, y], got %v", class.FieldOrder)
	}
	if class.Fields["x"].Slot == class.Fields["y"].Slot && class.Fields["x"].Sub == class.Fields["y"].Sub {
		t.Fatalf("expected x and y to occupy distinct (slot, sub) pairs")
	}
}

func TestClassInheritanceContinuesFieldLayoutAfterParent(t *testing.T) {
	prog := analyzeOK(t, `
class Base {
	a: int
}
class Derived: Base {
	b: int
}
func main() { }`)
	derived := prog.Classes["Derived"]
	if derived.FieldCount <= prog.Classes["Base"].FieldCount {
		t.Fatalf("expected Derived's FieldCount to exceed Base's own, got %d vs %d",
			derived.FieldCount, prog.Classes["Base"].FieldCount)
	}
}

func TestClassExtendingUnknownParentIsAnError(t *testing.T) {
	_, errs := parseAndAnalyze(t, `
class Derived: Ghost {
	b: int
}
func main() { }`)
	if len(errs) == 0 {
		t.Fatalf("expected extending an unknown class to be an error")
	}
}

func TestClassMethodRegistersDropIndex(t *testing.T) {
	prog := analyzeOK(t, `
class Resource {
	func drop(self) { }
}
func main() { }`)
	class := prog.Classes["Resource"]
	if class.DropIndex < 0 {
		t.Fatalf("expected DropIndex to be set once a drop method is declared")
	}
}

func TestInterfaceExtendsFlattensTransitively(t *testing.T) {
	prog := analyzeOK(t, `
interface Named {
	func name(self) String
}
interface Described: Named {
	func describe(self) String
}
func main() { }`)
	iface := prog.Interfaces["Described"]
	if _, ok := iface.NameIndex["name"]; !ok {
		t.Fatalf("expected Described to inherit Named's name() into its own flattened Funcs list")
	}
	if _, ok := iface.NameIndex["describe"]; !ok {
		t.Fatalf("expected Described to carry its own describe()")
	}
}

func TestClassImplementingInterfaceWithoutAllMethodsIsAnError(t *testing.T) {
	_, errs := parseAndAnalyze(t, `
interface Named {
	func name(self) String
}
class Thing impl Named {
}
func main() { }`)
	if len(errs) == 0 {
		t.Fatalf("expected a missing-implementation error")
	}
}

func TestEnumVariantsRegisterWithIndexAndOptionalPayload(t *testing.T) {
	prog := analyzeOK(t, `
enum Shape {
	Circle(num),
	Point,
}
func main() { }`)
	enum := prog.Enums["Shape"]
	if enum == nil {
		t.Fatalf("expected enum Shape to be registered")
	}
	circleIdx, ok := enum.VariantIndex["Circle"]
	if !ok {
		t.Fatalf("expected Circle variant to be indexed")
	}
	if enum.Variants[circleIdx].Related == nil {
		t.Fatalf("expected Circle to carry a related payload type")
	}
	pointIdx := enum.VariantIndex["Point"]
	if enum.Variants[pointIdx].Related != nil {
		t.Fatalf("expected Point to carry no payload type")
	}
}

func TestEnumRedeclaredVariantIsAnError(t *testing.T) {
	_, errs := parseAndAnalyze(t, `
enum Shape {
	Circle,
	Circle,
}
func main() { }`)
	if len(errs) == 0 {
		t.Fatalf("expected a redeclared-variant error")
	}
}

func TestResolveTypeExprPrimitivesAndContainers(t *testing.T) {
	prog := analyzeOK(t, `
func id(x: int) int { return x }
func main() {
	let a = [1, 2, 3]
	let q = Queue()
}`)
	fn := prog.Funcs["id"]
	if fn.Params[0].Type.BasicKind() != types.KindInt {
		t.Fatalf("expected id's param to resolve to int")
	}
	if fn.ReturnType.BasicKind() != types.KindInt {
		t.Fatalf("expected id's return type to resolve to int")
	}
}

func TestLetTypeAnnotationMismatchIsAnError(t *testing.T) {
	_, errs := parseAndAnalyze(t, `
func main() {
	let a: Array<int> = []
}`)
	if len(errs) == 0 {
		t.Fatalf("expected Array<Any> ([]) to mismatch a declared Array<int>")
	}
}

func TestUnknownTypeNameIsAnError(t *testing.T) {
	_, errs := parseAndAnalyze(t, `
func broken(x: Ghost) { }
func main() { }`)
	if len(errs) == 0 {
		t.Fatalf("expected an unknown-type error")
	}
}

func TestImportWithNoResolverConfiguredIsAnError(t *testing.T) {
	s := lexer.NewScanner(`import "other"
func main() { }`)
	toks := s.ScanTokens()
	p := parser.NewParser(toks, s.Lines(), "test.gl")
	f := p.ParseFile()
	if len(p.Errors) != 0 {
		t.Fatalf("parse errors: %v", p.Errors)
	}
	a := New("test.gl", nil)
	_, errs := a.Analyze(f)
	if len(errs) == 0 {
		t.Fatalf("expected an error when no importer is configured but an import is present")
	}
}
