package object

import "gloom/internal/types"

// IsPub flags whether a declared member is visible outside its owning
// file.
type IsPub bool

// FieldEntry is the Class record's name -> (slot, sub, is-pub, is-method)
// map entry.
type FieldEntry struct {
	Slot     int
	Sub      int
	Pub      bool
	IsMethod bool
	FuncIdx  int // valid when IsMethod
	Type     types.DataType
}

// ImplEntry records one `impl Interface` line: the interface satisfied,
// and the per-interface function-dispatch vector mapping the interface's
// flattened function index to this class's concrete function index.
type ImplEntry struct {
	Interface *Interface
	Dispatch  []int // len == len(Interface.Funcs)
}

// Class is the compile-time class record.
type Class struct {
	Name       string
	Parent     *Class
	Impls      []ImplEntry
	Fields     map[string]FieldEntry
	FieldOrder []string // declaration order, for construction expressions
	FieldCount int
	Funcs      []*GloomFunc
	FuncIndex  map[string]int
	DropIndex  int // -1 if the class has no drop(self) method
	FileIndex  int
	filled     bool
}

func NewClass(name string, fileIndex int) *Class {
	return &Class{
		Name:      name,
		Fields:    map[string]FieldEntry{},
		FuncIndex: map[string]int{},
		DropIndex: -1,
		FileIndex: fileIndex,
	}
}

func (c *Class) ClassName() string { return c.Name }
func (c *Class) Filled() bool      { return c.filled }
func (c *Class) MarkFilled()       { c.filled = true }

// IsDerivedFrom walks the parent chain looking for other, satisfying
// types.ClassRef.
func (c *Class) IsDerivedFrom(other types.ClassRef) bool {
	o, ok := other.(*Class)
	if !ok {
		return false
	}
	for p := c.Parent; p != nil; p = p.Parent {
		if p == o {
			return true
		}
	}
	return false
}

// ImplementsInterface checks this class's own impl list, and the
// parent's: a class implements an interface directly or via a parent
// class.
func (c *Class) ImplementsInterface(other types.InterfaceRef) bool {
	o, ok := other.(*Interface)
	if !ok {
		return false
	}
	for cl := c; cl != nil; cl = cl.Parent {
		for _, impl := range cl.Impls {
			if impl.Interface == o || impl.Interface.DerivedFrom(o) {
				return true
			}
		}
	}
	return false
}

// SetParent copies the parent's method table, impl table and field
// layout before the child adds its own.
func (c *Class) SetParent(parent *Class) {
	c.Parent = parent
	for name, entry := range parent.Fields {
		c.Fields[name] = entry
	}
	c.FieldOrder = append(c.FieldOrder, parent.FieldOrder...)
	c.FieldCount = parent.FieldCount
	c.Funcs = append(c.Funcs, parent.Funcs...)
	for name, idx := range parent.FuncIndex {
		c.FuncIndex[name] = idx
	}
	c.Impls = append(c.Impls, parent.Impls...)
	if parent.DropIndex >= 0 {
		c.DropIndex = parent.DropIndex
	}
}

// AbstractFunc is one entry of an interface's flattened function list.
type AbstractFunc struct {
	Name    string
	Params  []types.DataType
	Return  types.DataType
	HasSelf bool
}

// Interface is the compile-time interface record. Its Funcs list is
// already the flattened transitive closure of everything it extends.
type Interface struct {
	Name      string
	Extends   []*Interface
	Funcs     []AbstractFunc
	NameIndex map[string]int
	FileIndex int
	filled    bool
}

func NewInterface(name string, fileIndex int) *Interface {
	return &Interface{Name: name, NameIndex: map[string]int{}, FileIndex: fileIndex}
}

func (i *Interface) InterfaceName() string { return i.Name }
func (i *Interface) Filled() bool          { return i.filled }
func (i *Interface) MarkFilled()           { i.filled = true }

// DerivedFrom reports whether i transitively extends other.
func (i *Interface) DerivedFrom(other types.InterfaceRef) bool {
	o, ok := other.(*Interface)
	if !ok {
		return false
	}
	for _, ext := range i.Extends {
		if ext == o || ext.DerivedFrom(o) {
			return true
		}
	}
	return false
}

// EnumVariant is one tagged-union arm: a name and an optional related
// type.
type EnumVariant struct {
	Name    string
	Related *types.DataType // nil if the variant carries no value
}

// EnumClass is the compile-time enum record.
type EnumClass struct {
	Name         string
	Variants     []EnumVariant
	VariantIndex map[string]int
	Funcs        []*GloomFunc
	FuncIndex    map[string]int
	FuncIsPub    []bool
	FileIndex    int
	filled       bool
}

func NewEnumClass(name string, fileIndex int) *EnumClass {
	return &EnumClass{
		Name:         name,
		VariantIndex: map[string]int{},
		FuncIndex:    map[string]int{},
		FileIndex:    fileIndex,
	}
}

func (e *EnumClass) EnumName() string { return e.Name }
func (e *EnumClass) Filled() bool     { return e.filled }
func (e *EnumClass) MarkFilled()      { e.filled = true }

// CaptureKind distinguishes how a capture's value is realized at
// closure-creation time.
type CaptureKind int

const (
	CaptureByValue CaptureKind = iota // primitive: copy the scalar
	CaptureByRef                      // reference type: clone (retain)
)

// Capture maps an enclosing function's slot to this (inner) function's
// local slot.
type Capture struct {
	FromSlot int
	FromSub  int
	ToSlot   int
	ToSub    int
	Kind     CaptureKind
	Type     types.DataType
}

// Param is one function parameter.
type Param struct {
	Name string
	Type types.DataType
	Slot int
	Sub  int
}

// FuncBodyKind discriminates a GloomFunc's body representation:
// uncompiled statement list, compiled bytecode sequence, native
// closure, or none.
type FuncBodyKind int

const (
	BodyNone FuncBodyKind = iota
	BodyAST
	BodyBytecode
	BodyNative
)

// NativeFunc is a builtin implemented in Go, registered by internal/
// builtin and internal/stdext.
type NativeFunc func(args []Value) (Value, error)

// GloomFunc is the immutable function record. AST and
// Chunk are `interface{}` here to avoid an import cycle between object
// (which every other package depends on) and parser/bytecode; analysis
// and bytecode generation type-assert back to their own concrete types.
type GloomFunc struct {
	Name       string
	Params     []Param
	ReturnType types.DataType
	HasSelf    bool
	SelfSlot   int // valid when HasSelf; self's (slot, sub) among this func's locals
	SelfSub    int
	Captures   []Capture
	LocalSize  int
	FileIndex  int
	MaxStack   int

	BodyKind FuncBodyKind
	AST      interface{}
	Chunk    interface{}
	Native   NativeFunc
}

func (f *GloomFunc) Signature() types.FuncSignature {
	params := make([]types.DataType, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.Type
	}
	return types.FuncSignature{Params: params, Return: f.ReturnType}
}
