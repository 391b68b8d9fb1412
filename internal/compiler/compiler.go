// Package compiler implements the bytecode generator. It walks the AST
// the parser produced, guided by the analysis.Info side-table, and
// emits one bytecode.Chunk per function/method/closure
// body plus the program-wide function/class/enum index tables that the
// VM's call and construct instructions address by number.
//
// Targets a typed, slot-addressed local layout rather than a flat
// untyped local array, since every local's packed-slot placement is
// fixed by the analysis phase before generation begins.
package compiler

import (
	"fmt"

	"gloom/internal/analysis"
	"gloom/internal/builtin"
	"gloom/internal/bytecode"
	"gloom/internal/object"
	"gloom/internal/parser"
)

// Program is the compiled, runnable form of one analysis.Program.
type Program struct {
	Analysis *analysis.Program
	Pool     *bytecode.ConstantPool

	Funcs      []*object.GloomFunc
	FuncIndex  map[*object.GloomFunc]int
	Classes    []*object.Class
	ClassIndex map[*object.Class]int
	Enums      []*object.EnumClass
	EnumIndex  map[*object.EnumClass]int
	Interfaces []*object.Interface
	IfaceIndex map[*object.Interface]int

	Main *object.GloomFunc
}

// nativeMethods is the full set of not-otherwise-declared native method
// records (see internal/builtin) that a MethodCall can bind to directly.
// They need program-wide function indices exactly like any user function
// so OpCallMethod can address them, even though they never go through
// compileFunc.
var nativeMethods = []*object.GloomFunc{
	builtin.StringAppend,
	builtin.FuncPrintBody,
	builtin.ArrayAt,
	builtin.ArraySet,
	builtin.ArrayPush,
	builtin.ArrayLen,
	builtin.QueuePush,
	builtin.QueuePop,
	builtin.QueueLen,
}

// arrayAtFunc/arraySetFunc let stmt.go's index-assignment lowering
// address Array.at/Array.set without importing internal/builtin itself.
var (
	arrayAtFunc  = builtin.ArrayAt
	arraySetFunc = builtin.ArraySet
)

// Compile lowers every analyzed function body (top-level funcs, class
// and enum methods, and closures recorded in Info.FuncLits) to
// bytecode, and freezes the program's class/enum declaration order into
// index tables.
func Compile(prog *analysis.Program) (*Program, error) {
	p := &Program{
		Analysis:   prog,
		Pool:       bytecode.NewConstantPool(),
		FuncIndex:  map[*object.GloomFunc]int{},
		ClassIndex: map[*object.Class]int{},
		EnumIndex:  map[*object.EnumClass]int{},
		IfaceIndex: map[*object.Interface]int{},
	}

	for _, name := range prog.ClassOrder {
		c := prog.Classes[name]
		p.ClassIndex[c] = len(p.Classes)
		p.Classes = append(p.Classes, c)
	}
	for _, name := range prog.EnumOrder {
		e := prog.Enums[name]
		p.EnumIndex[e] = len(p.Enums)
		p.Enums = append(p.Enums, e)
	}
	for _, name := range prog.InterfaceOrder {
		i := prog.Interfaces[name]
		p.IfaceIndex[i] = len(p.Interfaces)
		p.Interfaces = append(p.Interfaces, i)
	}

	addFunc := func(gf *object.GloomFunc) {
		if gf == nil {
			return
		}
		if _, ok := p.FuncIndex[gf]; ok {
			return
		}
		p.FuncIndex[gf] = len(p.Funcs)
		p.Funcs = append(p.Funcs, gf)
	}

	for _, name := range prog.FuncOrder {
		addFunc(prog.Funcs[name])
	}
	for _, c := range p.Classes {
		for _, gf := range c.Funcs {
			addFunc(gf)
		}
	}
	for _, e := range p.Enums {
		for _, gf := range e.Funcs {
			addFunc(gf)
		}
	}
	for _, gf := range prog.Info.FuncLits {
		addFunc(gf)
	}
	for _, gf := range nativeMethods {
		addFunc(gf)
	}

	for _, gf := range p.Funcs {
		if gf.BodyKind != object.BodyAST {
			continue // native builtins already carry their Go implementation
		}
		if err := compileFunc(p, gf); err != nil {
			return nil, fmt.Errorf("compiler: %s: %w", gf.Name, err)
		}
	}

	if main, ok := prog.Funcs["main"]; ok {
		p.Main = main
	}
	return p, nil
}

// compileFunc lowers one GloomFunc's AST body into a fresh Chunk shared
// off the program-wide constant pool, and records the result onto the
// func record itself in place: GloomFunc.Chunk/BodyKind flip once
// generation succeeds.
func compileFunc(p *Program, gf *object.GloomFunc) error {
	block, ok := gf.AST.(*parser.Block)
	if !ok {
		return fmt.Errorf("function has no AST body to compile")
	}
	if err := compileFuncBody(p, gf, block); err != nil {
		return err
	}
	gf.MaxStack = gf.Chunk.(*bytecode.Chunk).StackSize
	return nil
}
