// internal/parser/parser.go implements the recursive-descent parser of
// a precedence-climbing expression parser plus statement
// and declaration parsers, built in the same hand-rolled shape as the
// teacher's parser but generalized for the richer grammar (classes,
// interfaces, enums, match, typed params, closures).
package parser

import (
	"fmt"

	"gloom/internal/errors"
	"gloom/internal/lexer"
)

var precedence = map[lexer.TokenType]int{
	lexer.TokenOrOr:   1,
	lexer.TokenAndAnd: 2,
	lexer.TokenEqEq:   3,
	lexer.TokenNotEq:  3,
	lexer.TokenLt:     3,
	lexer.TokenGt:     3,
	lexer.TokenLe:     3,
	lexer.TokenGe:     3,
	lexer.TokenPlus:   4,
	lexer.TokenMinus:  4,
	lexer.TokenStar:   5,
	lexer.TokenSlash:  5,
}

// Parser consumes a flat token stream and produces a File. Errors are
// collected rather than panicked through, matching a (line, reason)
// parse-error model; the first error still halts
// descent into the surrounding declaration so Errors doesn't explode
// with cascading noise.
type Parser struct {
	tokens  []lexer.Token
	lines   []int
	current int
	file    string
	Errors  []error
	// noConstruct suppresses "Name { field: expr }" construction parsing
	// while true, so the brace that opens an if/while/for/match body
	// isn't mistaken for a construction literal's brace (the classic
	// struct-literal-in-condition ambiguity).
	noConstruct bool
}

func NewParser(tokens []lexer.Token, lines []int, file string) *Parser {
	return &Parser{tokens: tokens, lines: lines, file: file}
}

func (p *Parser) ParseFile() *File {
	f := &File{}
	for !p.isAtEnd() {
		d := p.declaration()
		if d != nil {
			f.Decls = append(f.Decls, d)
		}
	}
	return f
}

func (p *Parser) declaration() Decl {
	defer p.recoverDecl()
	switch {
	case p.match(lexer.TokenImport):
		return p.importDecl()
	case p.checkPubThen(lexer.TokenClass):
		return p.classDecl()
	case p.checkPubThen(lexer.TokenInterface):
		return p.interfaceDecl()
	case p.checkPubThen(lexer.TokenEnum):
		return p.enumDecl()
	case p.checkPubThen(lexer.TokenFunc):
		return p.funcDecl()
	case p.checkPubThen(lexer.TokenStatic):
		s := p.staticStmt()
		return &TopStatic{Stmt: *s}
	default:
		tok := p.peek()
		p.errorf(tok.Line, "unexpected token %q at top level", tok.Lexeme)
		p.advance()
		return nil
	}
}

// recoverDecl swallows a panic from consume/fail inside one declaration
// so a single malformed top-level form doesn't abort the whole parse.
func (p *Parser) recoverDecl() {
	if r := recover(); r != nil {
		if err, ok := r.(*errors.GloomError); ok {
			p.Errors = append(p.Errors, err)
			p.syncToNextDecl()
			return
		}
		panic(r)
	}
}

func (p *Parser) syncToNextDecl() {
	for !p.isAtEnd() {
		switch p.peek().Type {
		case lexer.TokenClass, lexer.TokenInterface, lexer.TokenEnum,
			lexer.TokenFunc, lexer.TokenStatic, lexer.TokenImport, lexer.TokenPub:
			return
		}
		p.advance()
	}
}

// checkPubThen reports whether, after an optional leading `pub`, the
// next keyword is tt; it does not consume anything.
func (p *Parser) checkPubThen(tt lexer.TokenType) bool {
	if p.check(tt) {
		return true
	}
	if p.check(lexer.TokenPub) {
		return p.checkAt(1, tt)
	}
	return false
}

func (p *Parser) consumePub() bool {
	return p.match(lexer.TokenPub)
}

func (p *Parser) importDecl() Decl {
	line := p.previous().Line
	tok := p.consume(lexer.TokenString, "expected module path string after import")
	return &ImportDecl{Line: line, Path: tok.Lexeme}
}

func (p *Parser) classDecl() Decl {
	pub := p.consumePub()
	line := p.consume(lexer.TokenClass, "expected 'class'").Line
	name := p.consume(lexer.TokenIdent, "expected class name").Lexeme
	decl := &ClassDecl{Line: line, Name: name, Pub: pub}
	if p.match(lexer.TokenColon) {
		decl.Parent = p.consume(lexer.TokenIdent, "expected parent class name").Lexeme
	}
	if p.match(lexer.TokenImpl) {
		decl.Impls = append(decl.Impls, p.consume(lexer.TokenIdent, "expected interface name").Lexeme)
		for p.match(lexer.TokenComma) {
			decl.Impls = append(decl.Impls, p.consume(lexer.TokenIdent, "expected interface name").Lexeme)
		}
	}
	p.consume(lexer.TokenLBrace, "expected '{' to begin class body")
	for !p.check(lexer.TokenRBrace) && !p.isAtEnd() {
		if p.checkPubThen(lexer.TokenFunc) {
			decl.Methods = append(decl.Methods, *p.funcDeclInline())
			continue
		}
		fieldPub := p.consumePub()
		fname := p.consume(lexer.TokenIdent, "expected field name").Lexeme
		p.consume(lexer.TokenColon, "expected ':' after field name")
		ft := p.typeExpr()
		decl.Fields = append(decl.Fields, FieldDecl{Name: fname, Pub: fieldPub, TypeExpr: ft})
		p.match(lexer.TokenSemi)
	}
	p.consume(lexer.TokenRBrace, "expected '}' to close class body")
	return decl
}

func (p *Parser) interfaceDecl() Decl {
	pub := p.consumePub()
	line := p.consume(lexer.TokenInterface, "expected 'interface'").Line
	name := p.consume(lexer.TokenIdent, "expected interface name").Lexeme
	decl := &InterfaceDecl{Line: line, Name: name, Pub: pub}
	if p.match(lexer.TokenColon) {
		decl.Extends = append(decl.Extends, p.consume(lexer.TokenIdent, "expected interface name").Lexeme)
		for p.match(lexer.TokenComma) {
			decl.Extends = append(decl.Extends, p.consume(lexer.TokenIdent, "expected interface name").Lexeme)
		}
	}
	p.consume(lexer.TokenLBrace, "expected '{' to begin interface body")
	for !p.check(lexer.TokenRBrace) && !p.isAtEnd() {
		fline := p.consume(lexer.TokenFunc, "expected 'func' in interface body").Line
		fname := p.consume(lexer.TokenIdent, "expected function name").Lexeme
		hasSelf, params := p.paramList()
		var ret *TypeExpr
		if !p.check(lexer.TokenLBrace) && !p.check(lexer.TokenSemi) {
			t := p.typeExpr()
			ret = &t
		}
		p.match(lexer.TokenSemi)
		decl.Funcs = append(decl.Funcs, AbstractFuncDecl{Line: fline, Name: fname, HasSelf: hasSelf, Params: params, ReturnType: ret})
	}
	p.consume(lexer.TokenRBrace, "expected '}' to close interface body")
	return decl
}

func (p *Parser) enumDecl() Decl {
	pub := p.consumePub()
	line := p.consume(lexer.TokenEnum, "expected 'enum'").Line
	name := p.consume(lexer.TokenIdent, "expected enum name").Lexeme
	decl := &EnumDecl{Line: line, Name: name, Pub: pub}
	p.consume(lexer.TokenLBrace, "expected '{' to begin enum body")
	for !p.check(lexer.TokenRBrace) && !p.isAtEnd() {
		if p.checkPubThen(lexer.TokenFunc) {
			decl.Methods = append(decl.Methods, *p.funcDeclInline())
			continue
		}
		vname := p.consume(lexer.TokenIdent, "expected variant name").Lexeme
		v := VariantDecl{Name: vname}
		if p.match(lexer.TokenLParen) {
			t := p.typeExpr()
			v.TypeExpr = &t
			p.consume(lexer.TokenRParen, "expected ')' after variant payload type")
		}
		decl.Variants = append(decl.Variants, v)
		if !p.match(lexer.TokenComma) {
			p.match(lexer.TokenSemi)
		}
	}
	p.consume(lexer.TokenRBrace, "expected '}' to close enum body")
	return decl
}

func (p *Parser) funcDecl() Decl {
	return p.funcDeclInline()
}

func (p *Parser) funcDeclInline() *FuncDecl {
	pub := p.consumePub()
	line := p.consume(lexer.TokenFunc, "expected 'func'").Line
	name := p.consume(lexer.TokenIdent, "expected function name").Lexeme
	hasSelf, params := p.paramList()
	var ret *TypeExpr
	if !p.check(lexer.TokenLBrace) {
		t := p.typeExpr()
		ret = &t
	}
	body := p.block()
	return &FuncDecl{Line: line, Name: name, Pub: pub, HasSelf: hasSelf, Params: params, ReturnType: ret, Body: body}
}

// paramList parses "(self, name: T, ...)" returning whether self was
// present and the typed parameter list.
func (p *Parser) paramList() (bool, []ParamDecl) {
	p.consume(lexer.TokenLParen, "expected '(' to begin parameter list")
	hasSelf := false
	var params []ParamDecl
	if !p.check(lexer.TokenRParen) {
		if p.match(lexer.TokenSelf) {
			hasSelf = true
			if p.match(lexer.TokenComma) {
				params = p.paramRest()
			}
		} else {
			params = p.paramRest()
		}
	}
	p.consume(lexer.TokenRParen, "expected ')' to close parameter list")
	return hasSelf, params
}

func (p *Parser) paramRest() []ParamDecl {
	var params []ParamDecl
	params = append(params, p.oneParam())
	for p.match(lexer.TokenComma) {
		params = append(params, p.oneParam())
	}
	return params
}

func (p *Parser) oneParam() ParamDecl {
	name := p.consume(lexer.TokenIdent, "expected parameter name").Lexeme
	p.consume(lexer.TokenColon, "expected ':' after parameter name")
	t := p.typeExpr()
	return ParamDecl{Name: name, TypeExpr: t}
}

// typeExpr parses a type annotation: primitive/class/interface/enum
// name, Array<T>/Queue<T>/Weak<T>, tuple types (T,U), or Func(T,U)->R.
func (p *Parser) typeExpr() TypeExpr {
	line := p.peek().Line
	if p.match(lexer.TokenLParen) {
		te := TypeExpr{Line: line, Name: "Tuple"}
		if !p.check(lexer.TokenRParen) {
			te.Tuple = append(te.Tuple, p.typeExpr())
			for p.match(lexer.TokenComma) {
				te.Tuple = append(te.Tuple, p.typeExpr())
			}
		}
		p.consume(lexer.TokenRParen, "expected ')' to close tuple type")
		return te
	}
	name := p.consume(lexer.TokenIdent, "expected type name").Lexeme
	te := TypeExpr{Line: line, Name: name}
	if name == "Func" {
		p.consume(lexer.TokenLParen, "expected '(' after Func")
		if p.match(lexer.TokenDot) {
			p.consume(lexer.TokenDot, "expected '..' wildcard in Func(..)")
			te.Wildcard = true
		} else if !p.check(lexer.TokenRParen) {
			pt := p.typeExpr()
			te.FuncParams = append(te.FuncParams, pt)
			for p.match(lexer.TokenComma) {
				te.FuncParams = append(te.FuncParams, p.typeExpr())
			}
		}
		p.consume(lexer.TokenRParen, "expected ')' to close Func parameter types")
		if p.match(lexer.TokenArrow) {
			rt := p.typeExpr()
			te.FuncReturn = &rt
		}
		return te
	}
	if p.match(lexer.TokenLt) {
		inner := p.typeExpr()
		te.Generic = &inner
		p.consume(lexer.TokenGt, "expected '>' to close generic type")
	}
	return te
}

// ---- Statements ----

func (p *Parser) block() *Block {
	line := p.consume(lexer.TokenLBrace, "expected '{' to begin block").Line
	b := &Block{Line: line}
	for !p.check(lexer.TokenRBrace) && !p.isAtEnd() {
		b.Stmts = append(b.Stmts, p.statement())
	}
	p.consume(lexer.TokenRBrace, "expected '}' to close block")
	return b
}

func (p *Parser) statement() Stmt {
	switch {
	case p.check(lexer.TokenLet):
		return p.letStmt()
	case p.checkPubThen(lexer.TokenStatic):
		return p.staticStmt()
	case p.check(lexer.TokenReturn):
		return p.returnStmt()
	case p.check(lexer.TokenBreak):
		return p.breakStmt()
	case p.check(lexer.TokenContinue):
		line := p.advance().Line
		p.match(lexer.TokenSemi)
		return &ContinueStmt{Line: line}
	case p.check(lexer.TokenWhile):
		return p.whileStmt()
	case p.check(lexer.TokenFor):
		return p.forStmt()
	default:
		return p.assignOrExprStmt()
	}
}

func (p *Parser) letStmt() Stmt {
	line := p.consume(lexer.TokenLet, "expected 'let'").Line
	name := p.consume(lexer.TokenIdent, "expected variable name").Lexeme
	var te *TypeExpr
	if p.match(lexer.TokenColon) {
		t := p.typeExpr()
		te = &t
	}
	p.consume(lexer.TokenEq, "expected '=' after let binding")
	value := p.expression()
	p.match(lexer.TokenSemi)
	return &LetStmt{Line: line, Name: name, TypeExpr: te, Value: value}
}

func (p *Parser) staticStmt() *StaticStmt {
	pub := p.consumePub()
	line := p.consume(lexer.TokenStatic, "expected 'static'").Line
	name := p.consume(lexer.TokenIdent, "expected static name").Lexeme
	var te *TypeExpr
	if p.match(lexer.TokenColon) {
		t := p.typeExpr()
		te = &t
	}
	p.consume(lexer.TokenEq, "expected '=' after static binding")
	value := p.expression()
	p.match(lexer.TokenSemi)
	return &StaticStmt{Line: line, Name: name, Pub: pub, TypeExpr: te, Value: value}
}

func (p *Parser) returnStmt() Stmt {
	line := p.consume(lexer.TokenReturn, "expected 'return'").Line
	var v Expr
	if !p.check(lexer.TokenRBrace) && !p.check(lexer.TokenSemi) && !p.isAtEnd() {
		v = p.expression()
	}
	p.match(lexer.TokenSemi)
	return &ReturnStmt{Line: line, Value: v}
}

func (p *Parser) breakStmt() Stmt {
	line := p.consume(lexer.TokenBreak, "expected 'break'").Line
	var v Expr
	if !p.check(lexer.TokenRBrace) && !p.check(lexer.TokenSemi) && !p.isAtEnd() {
		v = p.expression()
	}
	p.match(lexer.TokenSemi)
	return &BreakStmt{Line: line, Value: v}
}

func (p *Parser) withNoConstruct(fn func() Expr) Expr {
	saved := p.noConstruct
	p.noConstruct = true
	e := fn()
	p.noConstruct = saved
	return e
}

func (p *Parser) whileStmt() Stmt {
	line := p.consume(lexer.TokenWhile, "expected 'while'").Line
	cond := p.withNoConstruct(p.expression)
	body := p.block()
	return &WhileStmt{Line: line, Cond: cond, Body: body}
}

func (p *Parser) forStmt() Stmt {
	line := p.consume(lexer.TokenFor, "expected 'for'").Line
	name := p.consume(lexer.TokenIdent, "expected loop variable name").Lexeme
	p.consume(lexer.TokenIn, "expected 'in'")
	start := p.withNoConstruct(p.expression)
	if p.match(lexer.TokenColon) {
		end := p.withNoConstruct(p.expression)
		var step Expr
		if p.match(lexer.TokenColon) {
			step = p.withNoConstruct(p.expression)
		}
		body := p.block()
		return &ForRangeStmt{Line: line, Var: name, Start: start, End: end, Step: step, Body: body}
	}
	body := p.block()
	return &ForInStmt{Line: line, Var: name, Iter: start, Body: body}
}

// assignOrExprStmt disambiguates "target = / += / -= / ++ / --" from a
// plain expression statement by speculative lookahead, matching the
// teacher's save/restore backtracking idiom.
func (p *Parser) assignOrExprStmt() Stmt {
	line := p.peek().Line
	saved := p.current
	if lv, ok := p.tryLValue(); ok {
		switch {
		case p.match(lexer.TokenEq):
			v := p.expression()
			p.match(lexer.TokenSemi)
			return &AssignStmt{Line: line, Target: lv, Op: "=", Value: v}
		case p.match(lexer.TokenPlusEq):
			v := p.expression()
			p.match(lexer.TokenSemi)
			return &AssignStmt{Line: line, Target: lv, Op: "+=", Value: v}
		case p.match(lexer.TokenMinusEq):
			v := p.expression()
			p.match(lexer.TokenSemi)
			return &AssignStmt{Line: line, Target: lv, Op: "-=", Value: v}
		case p.match(lexer.TokenPlusPlus):
			p.match(lexer.TokenSemi)
			return &AssignStmt{Line: line, Target: lv, Op: "++"}
		case p.match(lexer.TokenMinusMinus):
			p.match(lexer.TokenSemi)
			return &AssignStmt{Line: line, Target: lv, Op: "--"}
		}
	}
	p.current = saved
	expr := p.expression()
	discard := p.match(lexer.TokenSemi)
	return &ExprStmt{Line: line, Expr: expr, Discard: discard}
}

// tryLValue speculatively parses "ident(.ident)*([expr])?" as an
// lvalue; it does not restore p.current on success, so callers must
// restore on failure themselves.
func (p *Parser) tryLValue() (LValue, bool) {
	if !p.check(lexer.TokenIdent) && !p.check(lexer.TokenSelf) {
		return LValue{}, false
	}
	line := p.peek().Line
	tok := p.advance()
	var object Expr = &Ident{Line: tok.Line, Name: tok.Lexeme}
	name := tok.Lexeme
	for {
		if p.match(lexer.TokenDot) {
			fname := p.consume(lexer.TokenIdent, "expected field name after '.'").Lexeme
			object = &FieldAccess{Line: line, Object: object, Name: fname}
			name = fname
			continue
		}
		if p.match(lexer.TokenLBracket) {
			idx := p.expression()
			p.consume(lexer.TokenRBracket, "expected ']' after index")
			return LValue{Line: line, Object: object, Index: idx}, true
		}
		break
	}
	if fa, ok := object.(*FieldAccess); ok {
		return LValue{Line: line, Name: name, Object: fa.Object}, true
	}
	return LValue{Line: line, Name: name}, true
}

// ---- Expressions ----

func (p *Parser) expression() Expr {
	return p.binary(0)
}

func (p *Parser) binary(minPrec int) Expr {
	left := p.unary()
	for {
		tok := p.peek()
		prec, ok := precedence[tok.Type]
		if !ok || prec < minPrec {
			break
		}
		p.advance()
		right := p.binary(prec + 1)
		if tok.Type == lexer.TokenAndAnd || tok.Type == lexer.TokenOrOr {
			left = &Logical{Line: tok.Line, Op: tok.Lexeme, Left: left, Right: right}
		} else {
			left = &Binary{Line: tok.Line, Op: tok.Lexeme, Left: left, Right: right}
		}
	}
	return left
}

func (p *Parser) unary() Expr {
	if p.check(lexer.TokenNot) || p.check(lexer.TokenMinus) {
		tok := p.advance()
		operand := p.unary()
		return &Unary{Line: tok.Line, Op: tok.Lexeme, Operand: operand}
	}
	return p.castExpr()
}

func (p *Parser) castExpr() Expr {
	e := p.callOrAccess()
	for p.match(lexer.TokenAs) {
		line := p.previous().Line
		t := p.typeExpr()
		e = &CastExpr{Line: line, Operand: e, TypeExpr: t}
	}
	return e
}

func (p *Parser) callOrAccess() Expr {
	expr := p.primary()
	for {
		switch {
		case p.match(lexer.TokenLParen):
			expr = p.finishCall(expr)
		case p.match(lexer.TokenDot):
			name := p.consume(lexer.TokenIdent, "expected name after '.'").Lexeme
			if p.check(lexer.TokenLParen) {
				p.advance()
				args := p.argList()
				expr = &MethodCall{Line: name_line(p), Object: expr, Name: name, Args: args}
			} else {
				expr = &FieldAccess{Line: name_line(p), Object: expr, Name: name}
			}
		default:
			return expr
		}
	}
}

func name_line(p *Parser) int { return p.previous().Line }

func (p *Parser) finishCall(callee Expr) Expr {
	line := p.previous().Line
	args := p.argList()
	return &CallExpr{Line: line, Callee: callee, Args: args}
}

func (p *Parser) argList() []Expr {
	var args []Expr
	if !p.check(lexer.TokenRParen) {
		args = append(args, p.expression())
		for p.match(lexer.TokenComma) {
			args = append(args, p.expression())
		}
	}
	p.consume(lexer.TokenRParen, "expected ')' after arguments")
	return args
}

func (p *Parser) primary() Expr {
	tok := p.advance()
	switch tok.Type {
	case lexer.TokenInt:
		var v int64
		fmt.Sscanf(tok.Lexeme, "%d", &v)
		return &IntLit{Line: tok.Line, Value: v}
	case lexer.TokenNum:
		var v float64
		fmt.Sscanf(tok.Lexeme, "%g", &v)
		return &NumLit{Line: tok.Line, Value: v}
	case lexer.TokenChar:
		r := []rune(tok.Lexeme)
		var c rune
		if len(r) > 0 {
			c = r[0]
		}
		return &CharLit{Line: tok.Line, Value: c}
	case lexer.TokenString:
		return &StringLit{Line: tok.Line, Value: tok.Lexeme}
	case lexer.TokenTrue:
		return &BoolLit{Line: tok.Line, Value: true}
	case lexer.TokenFalse:
		return &BoolLit{Line: tok.Line, Value: false}
	case lexer.TokenSelf:
		return &Ident{Line: tok.Line, Name: "self"}
	case lexer.TokenIdent:
		return p.identOrConstruct(tok)
	case lexer.TokenLParen:
		return p.parenOrTuple(tok.Line)
	case lexer.TokenLBracket:
		return p.arrayLit(tok.Line)
	case lexer.TokenIf:
		return p.ifExpr(tok.Line)
	case lexer.TokenMatch:
		return p.matchExpr(tok.Line)
	case lexer.TokenFunc:
		return p.funcLit(tok.Line)
	default:
		p.errorf(tok.Line, "unexpected token %q in expression", tok.Lexeme)
		return &IntLit{Line: tok.Line, Value: 0}
	}
}

// identOrConstruct disambiguates "Name { field: expr, ... }" (a
// construction expression) from a bare identifier, by speculatively
// checking for the "{ ident :" shape immediately after the name.
func (p *Parser) identOrConstruct(tok lexer.Token) Expr {
	if !p.noConstruct && p.check(lexer.TokenLBrace) && p.looksLikeConstruct() {
		p.advance()
		c := &ConstructExpr{Line: tok.Line, Type: tok.Lexeme}
		for !p.check(lexer.TokenRBrace) && !p.isAtEnd() {
			fname := p.consume(lexer.TokenIdent, "expected field name").Lexeme
			p.consume(lexer.TokenColon, "expected ':' after field name")
			fv := p.expression()
			c.Fields = append(c.Fields, FieldInit{Name: fname, Value: fv})
			if !p.match(lexer.TokenComma) {
				break
			}
		}
		p.consume(lexer.TokenRBrace, "expected '}' to close construction")
		return c
	}
	return &Ident{Line: tok.Line, Name: tok.Lexeme}
}

func (p *Parser) looksLikeConstruct() bool {
	saved := p.current
	defer func() { p.current = saved }()
	if !p.match(lexer.TokenLBrace) {
		return false
	}
	if p.check(lexer.TokenRBrace) {
		return true
	}
	if !p.match(lexer.TokenIdent) {
		return false
	}
	return p.check(lexer.TokenColon)
}

// parenOrTuple disambiguates "(expr)" from a tuple literal "(a, b, ...)"
// by the presence of a top-level comma.
func (p *Parser) parenOrTuple(line int) Expr {
	if p.match(lexer.TokenRParen) {
		return &TupleLit{Line: line}
	}
	first := p.expression()
	if p.check(lexer.TokenComma) {
		elems := []Expr{first}
		for p.match(lexer.TokenComma) {
			if p.check(lexer.TokenRParen) {
				break
			}
			elems = append(elems, p.expression())
		}
		p.consume(lexer.TokenRParen, "expected ')' to close tuple literal")
		return &TupleLit{Line: line, Elements: elems}
	}
	p.consume(lexer.TokenRParen, "expected ')' after parenthesized expression")
	return first
}

func (p *Parser) arrayLit(line int) Expr {
	a := &ArrayLit{Line: line}
	if !p.check(lexer.TokenRBracket) {
		a.Elements = append(a.Elements, p.expression())
		for p.match(lexer.TokenComma) {
			if p.check(lexer.TokenRBracket) {
				break
			}
			a.Elements = append(a.Elements, p.expression())
		}
	}
	p.consume(lexer.TokenRBracket, "expected ']' to close array literal")
	return a
}

func (p *Parser) ifExpr(line int) Expr {
	cond := p.withNoConstruct(p.expression)
	then := p.block()
	ie := &IfExpr{Line: line, Cond: cond, Then: then}
	for p.check(lexer.TokenElse) && p.checkAt(1, lexer.TokenIf) {
		p.advance()
		p.advance()
		eline := p.previous().Line
		_ = eline
		econd := p.withNoConstruct(p.expression)
		ethen := p.block()
		ie.ElseIfs = append(ie.ElseIfs, ElseIf{Cond: econd, Then: ethen})
	}
	if p.match(lexer.TokenElse) {
		ie.Else = p.block()
	}
	return ie
}

func (p *Parser) matchExpr(line int) Expr {
	subject := p.withNoConstruct(p.expression)
	p.consume(lexer.TokenLBrace, "expected '{' to begin match body")
	m := &MatchExpr{Line: line, Subject: subject}
	for !p.check(lexer.TokenRBrace) && !p.isAtEnd() {
		enumName := p.consume(lexer.TokenIdent, "expected enum name in match arm").Lexeme
		p.consume(lexer.TokenDot, "expected '.' between enum and variant name")
		variantName := p.consume(lexer.TokenIdent, "expected variant name in match arm").Lexeme
		binding := ""
		if p.match(lexer.TokenLParen) {
			binding = p.consume(lexer.TokenIdent, "expected binding name").Lexeme
			p.consume(lexer.TokenRParen, "expected ')' after match binding")
		}
		p.consume(lexer.TokenArrow, "expected '=>' after match pattern")
		body := p.matchArmBody()
		m.Arms = append(m.Arms, MatchArm{EnumName: enumName, VariantName: variantName, Binding: binding, Body: body})
		if !p.match(lexer.TokenComma) {
			p.match(lexer.TokenSemi)
		}
	}
	p.consume(lexer.TokenRBrace, "expected '}' to close match body")
	return m
}

// matchArmBody accepts either a brace block or a single expression arm
// (desugared into a one-statement block whose tail is that expression).
func (p *Parser) matchArmBody() *Block {
	if p.check(lexer.TokenLBrace) {
		return p.block()
	}
	line := p.peek().Line
	e := p.expression()
	return &Block{Line: line, Stmts: []Stmt{&ExprStmt{Line: line, Expr: e, Discard: false}}}
}

func (p *Parser) funcLit(line int) Expr {
	_, params := p.paramList()
	var ret *TypeExpr
	if !p.check(lexer.TokenLBrace) {
		t := p.typeExpr()
		ret = &t
	}
	body := p.block()
	return &FuncLit{Line: line, Params: params, ReturnType: ret, Body: body}
}

// ---- Token-stream utilities ----

func (p *Parser) match(t lexer.TokenType) bool {
	if p.check(t) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) consume(t lexer.TokenType, msg string) lexer.Token {
	if p.check(t) {
		return p.advance()
	}
	tok := p.peek()
	p.errorf(tok.Line, "%s (got %q)", msg, tok.Lexeme)
	return tok
}

func (p *Parser) errorf(line int, format string, args ...interface{}) {
	panic(errors.NewSyntaxError(p.file, line, fmt.Sprintf(format, args...)))
}

func (p *Parser) check(t lexer.TokenType) bool {
	return !p.isAtEnd() && p.peek().Type == t
}

func (p *Parser) checkAt(offset int, t lexer.TokenType) bool {
	idx := p.current + offset
	if idx >= len(p.tokens) {
		return false
	}
	return p.tokens[idx].Type == t
}

func (p *Parser) advance() lexer.Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.tokens[p.current-1]
}

func (p *Parser) previous() lexer.Token {
	return p.tokens[p.current-1]
}

func (p *Parser) peek() lexer.Token {
	return p.tokens[p.current]
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Type == lexer.TokenEOF
}
