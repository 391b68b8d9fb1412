package vm

import (
	"strings"
	"testing"

	"gloom/internal/analysis"
	"gloom/internal/builtin"
	"gloom/internal/compiler"
	"gloom/internal/lexer"
	"gloom/internal/parser"
)

// noImports fails any import statement; none of the programs below use one.
func noImports(path string) (*parser.File, error) {
	return nil, errNoImports{path}
}

type errNoImports struct{ path string }

func (e errNoImports) Error() string { return "no importer configured for " + e.path }

func run(t *testing.T, src string) string {
	t.Helper()

	var out strings.Builder
	prevStdout := builtin.Stdout
	builtin.Stdout = &out
	defer func() { builtin.Stdout = prevStdout }()

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

	cprog, err := compiler.Compile(prog)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	machine := New(cprog)
	if err := machine.Run(); err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	return out.String()
}

func TestArithmeticAndPrintln(t *testing.T) {
	got := run(t, `func main() { println(1 + 2 * 3) }`)
	if got != "7\n" {
		t.Fatalf("got %q, want %q", got, "7\n")
	}
}

func TestNumericWidening(t *testing.T) {
	got := run(t, `func main() { let x = 1 + 2.5 println(x) }`)
	if got != "3.5\n" {
		t.Fatalf("got %q, want %q", got, "3.5\n")
	}
}

func TestIntDivisionTruncates(t *testing.T) {
	got := run(t, `func main() { println(7 / 2) }`)
	if got != "3\n" {
		t.Fatalf("got %q, want %q", got, "3\n")
	}
}

func TestStringConcat(t *testing.T) {
	got := run(t, `func main() { println("foo" + "bar") }`)
	if got != "\"foobar\"\n" {
		t.Fatalf("got %q, want %q", got, "\"foobar\"\n")
	}
}

func TestIfExprBranches(t *testing.T) {
	got := run(t, `
func abs(n: int) int {
	return if n < 0 { -n } else { n }
}
func main() {
	println(abs(-5))
	println(abs(5))
}`)
	if got != "5\n5\n" {
		t.Fatalf("got %q, want %q", got, "5\n5\n")
	}
}

func TestWhileLoopAndMutation(t *testing.T) {
	got := run(t, `
func main() {
	let i = 0
	let sum = 0
	while i < 5 {
		sum = sum + i
		i = i + 1
	}
	println(sum)
}`)
	if got != "10\n" {
		t.Fatalf("got %q, want %q", got, "10\n")
	}
}

func TestClassFieldsAndMethods(t *testing.T) {
	got := run(t, `
class Counter {
	n: int
	func inc(self) {
		self.n = self.n + 1
	}
	func get(self) int {
		return self.n
	}
}
func main() {
	let c = Counter { n: 0 }
	c.inc()
	c.inc()
	c.inc()
	println(c.get())
}`)
	if got != "3\n" {
		t.Fatalf("got %q, want %q", got, "3\n")
	}
}

func TestClosureCapture(t *testing.T) {
	got := run(t, `
func makeAdder(n: int) Func(int)->int {
	return func(m: int) int {
		return m + n
	}
}
func main() {
	let add5 = makeAdder(5)
	println(add5(10))
}`)
	if got != "15\n" {
		t.Fatalf("got %q, want %q", got, "15\n")
	}
}

func TestArrayAtAndSet(t *testing.T) {
	got := run(t, `
func main() {
	let arr = [1, 2, 3]
	arr.set(1, 99)
	println(arr.at(1))
	println(arr.len())
}`)
	if got != "99\n3\n" {
		t.Fatalf("got %q, want %q", got, "99\n3\n")
	}
}
