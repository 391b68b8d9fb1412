// Package parser implements a recursive-descent parser producing an
// AST of declarations, statements and expressions.
// Node kinds are plain structs dispatched by type switch in the analyzer
// and bytecode generator, rather than a visitor interface: with
// classes/interfaces/enums/match added to the grammar a single
// giant ExprVisitor/StmtVisitor would need a method per kind on every
// pass anyway, so a type switch carries the same information with less
// boilerplate (see DESIGN.md).
package parser

// Expr is any expression node.
type Expr interface{ exprLine() int }

// Stmt is any statement node.
type Stmt interface{ stmtLine() int }

// Decl is any top-level declaration.
type Decl interface{ declLine() int }

// TypeExpr is the parser's unresolved reference to a type; the analyzer
// turns this into a types.DataType once every declared name is known.
type TypeExpr struct {
	Line       int
	Name       string // primitive name, or class/interface/enum/builtin name
	Generic    *TypeExpr
	Tuple      []TypeExpr
	FuncParams []TypeExpr
	FuncReturn *TypeExpr
	Wildcard   bool // Func(...) with no fixed signature
}

// ---- Expressions ----

type IntLit struct {
	Line  int
	Value int64
}

type NumLit struct {
	Line  int
	Value float64
}

type CharLit struct {
	Line  int
	Value rune
}

type BoolLit struct {
	Line  int
	Value bool
}

type StringLit struct {
	Line  int
	Value string
}

type ArrayLit struct {
	Line     int
	Elements []Expr
}

type TupleLit struct {
	Line     int
	Elements []Expr
}

// Ident is a bare name reference: local, capture, static, type, or
// top-level function, disambiguated by the analyzer's name-resolution
// order.
type Ident struct {
	Line int
	Name string
}

type Binary struct {
	Line  int
	Op    string
	Left  Expr
	Right Expr
}

type Logical struct {
	Line  int
	Op    string // && or ||
	Left  Expr
	Right Expr
}

type Unary struct {
	Line    int
	Op      string // ! or -
	Operand Expr
}

type CastExpr struct {
	Line     int
	Operand  Expr
	TypeExpr TypeExpr
}

type CallExpr struct {
	Line   int
	Callee Expr
	Args   []Expr
}

type FieldAccess struct {
	Line   int
	Object Expr
	Name   string
}

type MethodCall struct {
	Line   int
	Object Expr
	Name   string
	Args   []Expr
}

type FieldInit struct {
	Name  string
	Value Expr
}

type ConstructExpr struct {
	Line   int
	Type   string
	Fields []FieldInit
}

type ElseIf struct {
	Cond Expr
	Then *Block
}

// IfExpr is an expression: if/else-if/else all produce a value.
type IfExpr struct {
	Line    int
	Cond    Expr
	Then    *Block
	ElseIfs []ElseIf
	Else    *Block // nil if no else branch
}

type MatchArm struct {
	// Enum pattern: EnumName.VariantName(binding), binding == "" if the
	// variant carries no value or the binding is discarded.
	EnumName    string
	VariantName string
	Binding     string
	Body        *Block
}

type MatchExpr struct {
	Line    int
	Subject Expr
	Arms    []MatchArm
}

type FuncLit struct {
	Line       int
	Params     []ParamDecl
	ReturnType *TypeExpr
	Body       *Block
}

func (n *IntLit) exprLine() int      { return n.Line }
func (n *NumLit) exprLine() int      { return n.Line }
func (n *CharLit) exprLine() int     { return n.Line }
func (n *BoolLit) exprLine() int     { return n.Line }
func (n *StringLit) exprLine() int   { return n.Line }
func (n *ArrayLit) exprLine() int    { return n.Line }
func (n *TupleLit) exprLine() int    { return n.Line }
func (n *Ident) exprLine() int       { return n.Line }
func (n *Binary) exprLine() int      { return n.Line }
func (n *Logical) exprLine() int     { return n.Line }
func (n *Unary) exprLine() int       { return n.Line }
func (n *CastExpr) exprLine() int    { return n.Line }
func (n *CallExpr) exprLine() int    { return n.Line }
func (n *FieldAccess) exprLine() int { return n.Line }
func (n *MethodCall) exprLine() int  { return n.Line }
func (n *ConstructExpr) exprLine() int { return n.Line }
func (n *IfExpr) exprLine() int      { return n.Line }
func (n *MatchExpr) exprLine() int   { return n.Line }
func (n *FuncLit) exprLine() int     { return n.Line }

// ExprLine exposes the line of any expression node (exported helper,
// since the marker method above is unexported to keep Expr closed to
// this package).
func ExprLine(e Expr) int { return e.exprLine() }
