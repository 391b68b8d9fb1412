// Command gloom is the CLI entry point: lexer -> parser -> analysis ->
// compiler -> vm, wired as a scan/parse/compile/run pipeline with
// panic/recover wrapping around the parse phase and a typed-error-aware
// exit path.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gloom/internal/analysis"
	"gloom/internal/builtin"
	"gloom/internal/compiler"
	gloomerrors "gloom/internal/errors"
	"gloom/internal/lexer"
	"gloom/internal/parser"
	"gloom/internal/vm"
)

const version = "0.1.0"

var commandAliases = map[string]string{
	"r": "run",
	"c": "check",
	"b": "build",
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		showUsage()
		os.Exit(1)
	}

	cmd := args[0]
	if alias, ok := commandAliases[cmd]; ok {
		cmd = alias
	}

	switch cmd {
	case "run":
		if len(args) < 2 {
			log.Fatal("gloom run: no filename provided")
		}
		runFile(args[1])
	case "check":
		if len(args) < 2 {
			log.Fatal("gloom check: no filename provided")
		}
		checkFile(args[1])
	case "build":
		if len(args) < 2 {
			log.Fatal("gloom build: no filename provided")
		}
		buildFile(args[1])
	case "--version", "-v", "version":
		fmt.Println("gloom", version)
	case "--help", "-h", "help":
		showUsage()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n", cmd)
		showUsage()
		os.Exit(1)
	}
}

func showUsage() {
	fmt.Println(`gloom - a statically-typed scripting language

USAGE:
  gloom run <file.gl>     compile and execute a script
  gloom check <file.gl>   parse and type-check without running
  gloom build <file.gl>   compile and print a one-line summary per function
  gloom version           print the version
  gloom help              print this message`)
}

// parseFile scans and parses one file, recovering from the parser's
// panic-based error path and turning it into a plain error so the
// importer above it can decide what to do.
func parseFile(path string) (*parser.File, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	scanner := lexer.NewScanner(string(source))
	tokens := scanner.ScanTokens()

	var file *parser.File
	var parseErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				parseErr = fmt.Errorf("%v", r)
			}
		}()
		p := parser.NewParser(tokens, scanner.Lines(), path)
		file = p.ParseFile()
		if len(p.Errors) > 0 {
			parseErr = p.Errors[0]
		}
	}()
	if parseErr != nil {
		return nil, parseErr
	}
	return file, nil
}

// newImporter resolves relative `import "path"` statements against
// baseDir, the entry file's directory, whichever file names them.
func newImporter(baseDir string) analysis.Importer {
	return func(path string) (*parser.File, error) {
		full := path
		if !filepath.IsAbs(full) {
			full = filepath.Join(baseDir, path)
		}
		return parseFile(full)
	}
}

// compileProgram runs the analysis and compiler phases and reports the
// first analysis error, if any, bailing out of compilation on the first
// *errors.GloomError it meets.
func compileProgram(path string) (*compiler.Program, error) {
	file, err := parseFile(path)
	if err != nil {
		return nil, err
	}

	a := analysis.New(path, newImporter(filepath.Dir(path)))
	prog, errs := a.Analyze(file)
	if len(errs) > 0 {
		return nil, errs[0]
	}

	return compiler.Compile(prog)
}

func runFile(path string) {
	prog, err := compileProgram(path)
	if err != nil {
		reportAndExit(err)
	}

	machine := vm.New(prog)
	if err := machine.Run(); err != nil {
		reportAndExit(err)
	}
}

func checkFile(path string) {
	if _, err := compileProgram(path); err != nil {
		reportAndExit(err)
	}
	fmt.Println("ok")
}

func buildFile(path string) {
	prog, err := compileProgram(path)
	if err != nil {
		reportAndExit(err)
	}
	for _, fn := range prog.Funcs {
		fmt.Printf("== %s ==\n", fn.Name)
		fmt.Println(builtin.Disassemble(fn))
	}
}

func reportAndExit(err error) {
	if ge, ok := err.(*gloomerrors.GloomError); ok {
		fmt.Fprintln(os.Stderr, ge.Error())
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(1)
}
