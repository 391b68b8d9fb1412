package compiler

import (
	"testing"

	"gloom/internal/analysis"
	"gloom/internal/bytecode"
	"gloom/internal/lexer"
	"gloom/internal/object"
	"gloom/internal/parser"
)

func noImports(path string) (*parser.File, error) {
	return nil, errNoImports{path}
}

type errNoImports struct{ path string }

func (e errNoImports) Error() string { return "no importer configured for " + e.path }

func analyze(t *testing.T, src string) *analysis.Program {
	t.Helper()
	s := lexer.NewScanner(src)
	toks := s.ScanTokens()
	p := parser.NewParser(toks, s.Lines(), "test.gl")
	f := p.ParseFile()
	if len(p.Errors) != 0 {
		t.Fatalf("parse errors: %v", p.Errors)
	}
	a := analysis.New("test.gl", noImports)
	prog, errs := a.Analyze(f)
	if len(errs) != 0 {
		t.Fatalf("analysis errors: %v", errs)
	}
	return prog
}

func TestCompileAssignsMainAndCompilesBody(t *testing.T) {
	prog := analyze(t, `func main() { println(1 + 2) }`)
	cprog, err := Compile(prog)
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}
	if cprog.Main == nil || cprog.Main.Name != "main" {
		t.Fatalf("expected Main to be the main func, got %v", cprog.Main)
	}
	chunk, ok := cprog.Main.Chunk.(*bytecode.Chunk)
	if !ok {
		t.Fatalf("expected main's Chunk to be a *bytecode.Chunk, got %T", cprog.Main.Chunk)
	}
	if len(chunk.Code) == 0 {
		t.Fatalf("expected a non-empty instruction stream")
	}
	if cprog.Main.MaxStack <= 0 {
		t.Fatalf("expected a positive MaxStack, got %d", cprog.Main.MaxStack)
	}
}

func TestCompileIndexesEveryFunctionExactlyOnce(t *testing.T) {
	prog := analyze(t, `
func helper(n: int) int { return n * 2 }
func main() { println(helper(21)) }`)
	cprog, err := Compile(prog)
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}
	seen := map[*object.GloomFunc]bool{}
	for _, gf := range cprog.Funcs {
		if seen[gf] {
			t.Fatalf("function %q appears twice in Funcs", gf.Name)
		}
		seen[gf] = true
		idx, ok := cprog.FuncIndex[gf]
		if !ok {
			t.Fatalf("function %q missing from FuncIndex", gf.Name)
		}
		if cprog.Funcs[idx] != gf {
			t.Fatalf("FuncIndex[%q] = %d does not round-trip through Funcs", gf.Name, idx)
		}
	}
}

func TestCompileIndexesClassesInDeclarationOrder(t *testing.T) {
	prog := analyze(t, `
class A { x: int }
class B { y: int }
func main() { }`)
	cprog, err := Compile(prog)
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}
	if len(cprog.Classes) != 2 {
		t.Fatalf("expected 2 classes, got %d", len(cprog.Classes))
	}
	if cprog.Classes[0].Name != "A" || cprog.Classes[1].Name != "B" {
		t.Fatalf("expected classes in declaration order [A, B], got [%s, %s]",
			cprog.Classes[0].Name, cprog.Classes[1].Name)
	}
	for i, c := range cprog.Classes {
		if cprog.ClassIndex[c] != i {
			t.Fatalf("ClassIndex[%s] = %d, want %d", c.Name, cprog.ClassIndex[c], i)
		}
	}
}

func TestCompileMethodBodiesCompileToChunks(t *testing.T) {
	prog := analyze(t, `
class Counter {
	n: int
	func inc(self) { self.n = self.n + 1 }
}
func main() { }`)
	cprog, err := Compile(prog)
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}
	class := cprog.Classes[0]
	idx, ok := class.FuncIndex["inc"]
	if !ok {
		t.Fatalf("expected class Counter to have an inc method")
	}
	incFn := class.Funcs[idx]
	if _, ok := incFn.Chunk.(*bytecode.Chunk); !ok {
		t.Fatalf("expected inc's Chunk to be compiled, got %T", incFn.Chunk)
	}
}
