// Package analysis implements the semantic analyzer: a multi-phase
// pass (declaration intake, interface realization, class fill, enum
// fill, function analysis) that resolves names, infers and
// checks types, allocates slots, records closure captures, and
// validates class/interface obligations. It produces a Program
// (the compile-time class/interface/enum/function/static tables) plus
// an Info side-table the bytecode generator consults to turn each AST
// node into instructions.
package analysis

import (
	"gloom/internal/object"
	"gloom/internal/parser"
	"gloom/internal/slots"
	"gloom/internal/types"
)

// BindingKind classifies how a bare identifier resolved.
type BindingKind int

const (
	BindLocal BindingKind = iota
	BindStatic
	BindSelf
	BindClassType
	BindEnumType
	BindInterfaceType
	BindTopFunc
)

// Binding is what resolveIdent produces for one Ident occurrence.
type Binding struct {
	Kind      BindingKind
	Slot      slots.Slot
	Type      types.DataType
	Static    *StaticVar
	Func      *object.GloomFunc
	Class     *object.Class
	Enum      *object.EnumClass
	Interface *object.Interface
}

// FieldBinding is the resolution of a FieldAccess/assignment target onto
// a concrete class field.
type FieldBinding struct {
	Slot slots.Slot
	Type types.DataType
}

// CallBinding is the resolution of a MethodCall: whether dispatch goes
// through a concrete class function index or through an interface's
// flattened dispatch vector.
type CallBinding struct {
	ViaInterface bool
	Interface    *object.Interface
	InterfaceIdx int
	ClassFuncIdx int
	Func         *object.GloomFunc
}

// EnumLit is the resolution of a bare `EnumName.Variant` or
// `EnumName.Variant(payload)` expression onto a concrete variant index.
type EnumLit struct {
	Enum        *object.EnumClass
	VariantIdx  int
}

// Info is the analyzer's output side-table: per-AST-node annotations
// keyed by node identity, consulted by internal/compiler instead of
// mutating the parser's AST types directly.
type Info struct {
	ExprTypes  map[parser.Expr]types.DataType
	Idents     map[*parser.Ident]*Binding
	Lets       map[*parser.LetStmt]slots.Slot
	LetTypes   map[*parser.LetStmt]types.DataType
	Fields     map[*parser.FieldAccess]*FieldBinding
	Assigns    map[*parser.AssignStmt]*Binding
	AssignFld  map[*parser.AssignStmt]*FieldBinding
	Calls      map[*parser.MethodCall]*CallBinding
	Constructs map[*parser.ConstructExpr]*object.Class
	MatchEnums map[*parser.MatchExpr]*object.EnumClass
	MatchArmSlots map[*parser.MatchArm]slots.Slot
	ForRange   map[*parser.ForRangeStmt]slots.Slot
	ForIn      map[*parser.ForInStmt]slots.Slot
	FuncLits   map[*parser.FuncLit]*object.GloomFunc
	BlockDrops map[*parser.Block][]int
	EnumLits   map[parser.Expr]*EnumLit
}

func newInfo() *Info {
	return &Info{
		ExprTypes:     map[parser.Expr]types.DataType{},
		Idents:        map[*parser.Ident]*Binding{},
		Lets:          map[*parser.LetStmt]slots.Slot{},
		LetTypes:      map[*parser.LetStmt]types.DataType{},
		Fields:        map[*parser.FieldAccess]*FieldBinding{},
		Assigns:       map[*parser.AssignStmt]*Binding{},
		AssignFld:     map[*parser.AssignStmt]*FieldBinding{},
		Calls:         map[*parser.MethodCall]*CallBinding{},
		Constructs:    map[*parser.ConstructExpr]*object.Class{},
		MatchEnums:    map[*parser.MatchExpr]*object.EnumClass{},
		MatchArmSlots: map[*parser.MatchArm]slots.Slot{},
		ForRange:      map[*parser.ForRangeStmt]slots.Slot{},
		ForIn:         map[*parser.ForInStmt]slots.Slot{},
		FuncLits:      map[*parser.FuncLit]*object.GloomFunc{},
		BlockDrops:    map[*parser.Block][]int{},
		EnumLits:      map[parser.Expr]*EnumLit{},
	}
}

// StaticVar is one `static` declaration's compile-time record.
type StaticVar struct {
	Name string
	Pub  bool
	Type types.DataType
	Slot slots.Slot
}

// Program is the analyzer's compile-time universe: every declared
// class/interface/enum/top-level-function/static, surviving into
// bytecode generation and the VM.
type Program struct {
	Classes    map[string]*object.Class
	Interfaces map[string]*object.Interface
	Enums      map[string]*object.EnumClass
	Funcs      map[string]*object.GloomFunc
	Statics    map[string]*StaticVar
	StaticSize int

	ClassOrder     []string
	InterfaceOrder []string
	EnumOrder      []string
	FuncOrder      []string

	Info *Info
}
