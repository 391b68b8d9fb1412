package analysis

import (
	"fmt"

	"gloom/internal/builtin"
	"gloom/internal/errors"
	"gloom/internal/object"
	"gloom/internal/parser"
	"gloom/internal/slots"
	"gloom/internal/stdext"
	"gloom/internal/types"
)

// Importer resolves an `import "path"` statement to another parsed
// file, treated as an external collaborator — the analyzer only calls
// it, never resolves paths itself.
type Importer func(path string) (*parser.File, error)

// Analyzer drives five phases across one or more parsed files (the
// entry file plus whatever its imports pull in).
type Analyzer struct {
	file     string
	prog     *Program
	errs     []error
	importer Importer
	imported map[string]bool

	classDecls     map[string]*parser.ClassDecl
	interfaceDecls map[string]*parser.InterfaceDecl
	enumDecls      map[string]*parser.EnumDecl

	pendingMethods []pendingFunc
	staticIndexer  *slots.Indexer
}

// pendingFunc is a class/enum method whose signature is known but whose
// body hasn't been walked yet; consumed in one final sweep so method
// bodies can reference sibling classes regardless of declaration order.
type pendingFunc struct {
	gf         *object.GloomFunc
	params     []parser.ParamDecl
	returnType *parser.TypeExpr
	hasSelf    bool
	body       *parser.Block
	selfType   types.DataType
}

func New(file string, importer Importer) *Analyzer {
	a := &Analyzer{
		file: file,
		prog: &Program{
			Classes:    map[string]*object.Class{},
			Interfaces: map[string]*object.Interface{},
			Enums:      map[string]*object.EnumClass{},
			Funcs:      map[string]*object.GloomFunc{},
			Statics:    map[string]*StaticVar{},
			Info:       newInfo(),
		},
		importer:       importer,
		imported:       map[string]bool{},
		classDecls:     map[string]*parser.ClassDecl{},
		interfaceDecls: map[string]*parser.InterfaceDecl{},
		enumDecls:      map[string]*parser.EnumDecl{},
		staticIndexer:  slots.New(),
	}
	// Builtins are registered before any user file's declarations are
	// seen, so a later top-level `func print(...)` collides with them
	// exactly like redeclaring any other function (see declIntake).
	builtin.Register(a.prog.Funcs, &a.prog.FuncOrder)
	stdext.Register(a.prog.Funcs, &a.prog.FuncOrder)
	return a
}

// Analyze runs all five phases over f (and transitively, any files it
// imports) and returns the filled Program plus any accumulated errors.
func (a *Analyzer) Analyze(f *parser.File) (*Program, []error) {
	files := []*parser.File{f}
	files = append(files, a.resolveImports(f)...)

	for _, file := range files {
		a.declIntake(file)
	}
	a.realizeInterfaces()
	for _, file := range files {
		a.fillClasses(file)
	}
	for _, file := range files {
		a.fillEnums(file)
	}
	for _, file := range files {
		a.analyzeTopLevel(file)
	}
	a.analyzeMethodBodies()
	return a.prog, a.errs
}

func (a *Analyzer) errorf(line int, format string, args ...interface{}) {
	a.errs = append(a.errs, errors.NewAnalysisError(a.file, line, fmt.Sprintf(format, args...)))
}

func (a *Analyzer) resolveImports(f *parser.File) []*parser.File {
	var out []*parser.File
	for _, d := range f.Decls {
		imp, ok := d.(*parser.ImportDecl)
		if !ok || a.imported[imp.Path] {
			continue
		}
		a.imported[imp.Path] = true
		if a.importer == nil {
			a.errorf(imp.Line, "no import resolver configured for %q", imp.Path)
			continue
		}
		imported, err := a.importer(imp.Path)
		if err != nil {
			a.errs = append(a.errs, errors.NewImportError(imp.Path, err))
			continue
		}
		out = append(out, imported)
		out = append(out, a.resolveImports(imported)...)
	}
	return out
}

// ---- Phase A: Declaration intake ----
//
// Registers an empty record for every class/interface/enum/top-level
// function/static so forward references (a class whose field refers to
// a class declared later in the file) resolve during later phases.

func (a *Analyzer) declIntake(f *parser.File) {
	for _, d := range f.Decls {
		switch decl := d.(type) {
		case *parser.ClassDecl:
			if _, exists := a.prog.Classes[decl.Name]; exists {
				a.errorf(decl.Line, "class %q redeclared", decl.Name)
				continue
			}
			a.prog.Classes[decl.Name] = object.NewClass(decl.Name, 0)
			a.prog.ClassOrder = append(a.prog.ClassOrder, decl.Name)
			a.classDecls[decl.Name] = decl
		case *parser.InterfaceDecl:
			if _, exists := a.prog.Interfaces[decl.Name]; exists {
				a.errorf(decl.Line, "interface %q redeclared", decl.Name)
				continue
			}
			a.prog.Interfaces[decl.Name] = object.NewInterface(decl.Name, 0)
			a.prog.InterfaceOrder = append(a.prog.InterfaceOrder, decl.Name)
			a.interfaceDecls[decl.Name] = decl
		case *parser.EnumDecl:
			if _, exists := a.prog.Enums[decl.Name]; exists {
				a.errorf(decl.Line, "enum %q redeclared", decl.Name)
				continue
			}
			a.prog.Enums[decl.Name] = object.NewEnumClass(decl.Name, 0)
			a.prog.EnumOrder = append(a.prog.EnumOrder, decl.Name)
			a.enumDecls[decl.Name] = decl
		case *parser.FuncDecl:
			if _, exists := a.prog.Funcs[decl.Name]; exists {
				a.errorf(decl.Line, "function %q redeclared", decl.Name)
				continue
			}
			a.prog.Funcs[decl.Name] = &object.GloomFunc{Name: decl.Name}
			a.prog.FuncOrder = append(a.prog.FuncOrder, decl.Name)
		case *parser.TopStatic:
			name := decl.Stmt.Name
			if _, exists := a.prog.Statics[name]; exists {
				a.errorf(decl.Stmt.Line, "static %q redeclared", name)
				continue
			}
			a.prog.Statics[name] = &StaticVar{Name: name, Pub: decl.Stmt.Pub}
		}
	}
}

// resolveTypeExpr turns a parser.TypeExpr into a types.DataType once
// every class/interface/enum name is known (phase A has already run).
func (a *Analyzer) resolveTypeExpr(te parser.TypeExpr) types.DataType {
	switch te.Name {
	case "int":
		return types.Int
	case "num":
		return types.Num
	case "char":
		return types.Char
	case "bool":
		return types.Bool
	case "String":
		return types.Str
	case "Any":
		return types.Any
	case "Void", "":
		return types.Void
	case "Tuple":
		elems := make([]types.DataType, len(te.Tuple))
		for i, t := range te.Tuple {
			elems[i] = a.resolveTypeExpr(t)
		}
		return types.Tuple(elems)
	case "Func":
		sig := types.FuncSignature{Wildcard: te.Wildcard}
		for _, p := range te.FuncParams {
			sig.Params = append(sig.Params, a.resolveTypeExpr(p))
		}
		if te.FuncReturn != nil {
			sig.Return = a.resolveTypeExpr(*te.FuncReturn)
		} else {
			sig.Return = types.Void
		}
		return types.Func(sig)
	case "Array":
		elem := types.Any
		if te.Generic != nil {
			elem = a.resolveTypeExpr(*te.Generic)
		}
		return types.Array(elem)
	case "Queue":
		elem := types.Any
		if te.Generic != nil {
			elem = a.resolveTypeExpr(*te.Generic)
		}
		return types.Queue(elem)
	case "Weak":
		elem := types.Any
		if te.Generic != nil {
			elem = a.resolveTypeExpr(*te.Generic)
		}
		return types.Weak(elem)
	}
	if c, ok := a.prog.Classes[te.Name]; ok {
		return types.Class(c)
	}
	if e, ok := a.prog.Enums[te.Name]; ok {
		return types.EnumT(e)
	}
	if i, ok := a.prog.Interfaces[te.Name]; ok {
		return types.Interface(i)
	}
	a.errorf(te.Line, "unknown type %q", te.Name)
	return types.Any
}

// ---- Phase B: Interface realization ----
//
// Flattens each interface's Extends list into its own transitive Funcs
// list: extended interfaces have their transitive closure flattened
// into the one function list.

func (a *Analyzer) realizeInterfaces() {
	visiting := map[string]bool{}
	for name := range a.interfaceDecls {
		a.fillInterfaceByName(name, visiting)
	}
}

// fillInterfaceByName flattens one interface's Extends chain into its
// own Funcs list, recursing into not-yet-filled dependencies first;
// Filled() makes repeat calls for the same interface free.
func (a *Analyzer) fillInterfaceByName(name string, visiting map[string]bool) *object.Interface {
	decls := a.interfaceDecls
	iface := a.prog.Interfaces[name]
	if iface == nil || iface.Filled() {
		return iface
	}
	if visiting[name] {
		a.errorf(0, "interface %q participates in an extension cycle", name)
		return iface
	}
	visiting[name] = true
	decl := decls[name]
	if decl == nil {
		iface.MarkFilled()
		return iface
	}
	for _, ext := range decl.Extends {
		parent := a.fillInterfaceByName(ext, visiting)
		if parent == nil {
			a.errorf(decl.Line, "interface %q extends unknown interface %q", name, ext)
			continue
		}
		iface.Extends = append(iface.Extends, parent)
		for _, fn := range parent.Funcs {
			if _, dup := iface.NameIndex[fn.Name]; dup {
				continue
			}
			iface.NameIndex[fn.Name] = len(iface.Funcs)
			iface.Funcs = append(iface.Funcs, fn)
		}
	}
	for _, fd := range decl.Funcs {
		params := make([]types.DataType, len(fd.Params))
		for i, p := range fd.Params {
			params[i] = a.resolveTypeExpr(p.TypeExpr)
		}
		ret := types.Void
		if fd.ReturnType != nil {
			ret = a.resolveTypeExpr(*fd.ReturnType)
		}
		af := object.AbstractFunc{Name: fd.Name, Params: params, Return: ret, HasSelf: fd.HasSelf}
		if idx, dup := iface.NameIndex[fd.Name]; dup {
			iface.Funcs[idx] = af
		} else {
			iface.NameIndex[fd.Name] = len(iface.Funcs)
			iface.Funcs = append(iface.Funcs, af)
		}
	}
	iface.MarkFilled()
	return iface
}

// ---- Phase C: Class fill ----
//
// Resolves each class's parent, lays out its own fields on top of
// whatever it inherited, validates its `impl` obligations against each
// interface's flattened function list, and records a method's signature
// (not yet its body — bodies are analyzed in one final sweep so method
// order and mutual references don't matter).

func (a *Analyzer) fillClasses(f *parser.File) {
	for _, d := range f.Decls {
		decl, ok := d.(*parser.ClassDecl)
		if !ok {
			continue
		}
		a.fillOneClass(decl)
	}
}

func (a *Analyzer) fillOneClass(d *parser.ClassDecl) *object.Class {
	class := a.prog.Classes[d.Name]
	if class == nil || class.Filled() {
		return class
	}
	class.MarkFilled()

	if d.Parent != "" {
		parentDecl := a.classDecls[d.Parent]
		parentClass := a.prog.Classes[d.Parent]
		if parentClass == nil {
			a.errorf(d.Line, "class %q extends unknown class %q", d.Name, d.Parent)
		} else {
			if parentDecl != nil && !parentClass.Filled() {
				a.fillOneClass(parentDecl)
			}
			class.SetParent(parentClass)
		}
	}

	// Field layout continues after whatever the parent already claimed;
	// sub-slot packing is only maximally tight within one class's own
	// fields, not across the inheritance seam (see DESIGN.md).
	offset := class.FieldCount
	ix := slots.New()
	for _, fd := range d.Fields {
		t := a.resolveTypeExpr(fd.TypeExpr)
		raw := ix.Put(t)
		if _, dup := class.Fields[fd.Name]; dup {
			a.errorf(d.Line, "class %q: field %q redeclared", d.Name, fd.Name)
			continue
		}
		class.Fields[fd.Name] = object.FieldEntry{Slot: raw.Index + offset, Sub: raw.Sub, Pub: fd.Pub, Type: t}
		class.FieldOrder = append(class.FieldOrder, fd.Name)
	}
	class.FieldCount = offset + ix.Size()

	for _, md := range d.Methods {
		gf := a.newMethodFunc(md, types.Class(class))
		idx := len(class.Funcs)
		class.Funcs = append(class.Funcs, gf)
		class.FuncIndex[md.Name] = idx
		class.Fields[md.Name] = object.FieldEntry{IsMethod: true, FuncIdx: idx, Pub: md.Pub, Type: types.Func(gf.Signature())}
		if md.Name == "drop" {
			class.DropIndex = idx
		}
	}

	for _, implName := range d.Impls {
		iface := a.prog.Interfaces[implName]
		if iface == nil {
			a.errorf(d.Line, "class %q implements unknown interface %q", d.Name, implName)
			continue
		}
		dispatch := make([]int, len(iface.Funcs))
		for i, af := range iface.Funcs {
			idx, ok := class.FuncIndex[af.Name]
			if !ok {
				a.errorf(d.Line, "class %q does not implement %q.%s", d.Name, implName, af.Name)
				continue
			}
			dispatch[i] = idx
		}
		class.Impls = append(class.Impls, object.ImplEntry{Interface: iface, Dispatch: dispatch})
	}

	return class
}

// newMethodFunc builds a GloomFunc's signature (params/return/HasSelf)
// and queues its body for Phase E, common to class and enum methods.
func (a *Analyzer) newMethodFunc(md parser.FuncDecl, selfType types.DataType) *object.GloomFunc {
	gf := &object.GloomFunc{Name: md.Name, HasSelf: md.HasSelf}
	for _, p := range md.Params {
		gf.Params = append(gf.Params, object.Param{Name: p.Name, Type: a.resolveTypeExpr(p.TypeExpr)})
	}
	if md.ReturnType != nil {
		gf.ReturnType = a.resolveTypeExpr(*md.ReturnType)
	} else {
		gf.ReturnType = types.Void
	}
	a.pendingMethods = append(a.pendingMethods, pendingFunc{
		gf: gf, params: md.Params, returnType: md.ReturnType, hasSelf: md.HasSelf, body: md.Body, selfType: selfType,
	})
	return gf
}

// ---- Phase D: Enum fill ----

func (a *Analyzer) fillEnums(f *parser.File) {
	for _, d := range f.Decls {
		decl, ok := d.(*parser.EnumDecl)
		if !ok {
			continue
		}
		a.fillOneEnum(decl)
	}
}

func (a *Analyzer) fillOneEnum(d *parser.EnumDecl) *object.EnumClass {
	enum := a.prog.Enums[d.Name]
	if enum == nil || enum.Filled() {
		return enum
	}
	enum.MarkFilled()

	for _, vd := range d.Variants {
		if _, dup := enum.VariantIndex[vd.Name]; dup {
			a.errorf(d.Line, "enum %q: variant %q redeclared", d.Name, vd.Name)
			continue
		}
		var related *types.DataType
		if vd.TypeExpr != nil {
			t := a.resolveTypeExpr(*vd.TypeExpr)
			related = &t
		}
		enum.VariantIndex[vd.Name] = len(enum.Variants)
		enum.Variants = append(enum.Variants, object.EnumVariant{Name: vd.Name, Related: related})
	}

	for _, md := range d.Methods {
		gf := a.newMethodFunc(md, types.EnumT(enum))
		idx := len(enum.Funcs)
		enum.Funcs = append(enum.Funcs, gf)
		enum.FuncIndex[md.Name] = idx
		enum.FuncIsPub = append(enum.FuncIsPub, md.Pub)
	}

	return enum
}
