package lexer

import "testing"

func scan(input string) ([]Token, []int) {
	s := NewScanner(input)
	toks := s.ScanTokens()
	return toks, s.Lines()
}

func TestLineTableMatchesTokenCount(t *testing.T) {
	toks, lines := scan("let x = 1 + 2\nprintln(x)")
	if len(lines) != len(toks)+1 {
		t.Fatalf("expected %d lines (tokens+1 sentinel), got %d", len(toks)+1, len(lines))
	}
}

func TestKeywordsAndOperators(t *testing.T) {
	toks, _ := scan(`class C { pub func f(self) int { return 1 } }`)
	want := []TokenType{
		TokenClass, TokenIdent, TokenLBrace,
		TokenPub, TokenFunc, TokenIdent, TokenLParen, TokenSelf, TokenRParen, TokenIdent, TokenLBrace,
		TokenReturn, TokenInt, TokenRBrace, TokenRBrace, TokenEOF,
	}
	if len(toks) != len(want) {
		t.Fatalf("token count mismatch: got %d want %d (%v)", len(toks), len(want), toks)
	}
	for i, tt := range want {
		if toks[i].Type != tt {
			t.Errorf("token %d: got %s want %s", i, toks[i].Type, tt)
		}
	}
}

func TestTwoCharOperators(t *testing.T) {
	toks, _ := scan("a += 1; b -= 1; c++; d--; e == f; g != h; i <= j; k >= l; m && n; o || p; q => r")
	types := []TokenType{}
	for _, tok := range toks {
		types = append(types, tok.Type)
	}
	mustContain := []TokenType{TokenPlusEq, TokenMinusEq, TokenPlusPlus, TokenMinusMinus,
		TokenEqEq, TokenNotEq, TokenLe, TokenGe, TokenAndAnd, TokenOrOr, TokenArrow}
	for _, want := range mustContain {
		found := false
		for _, got := range types {
			if got == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing operator token %s in %v", want, types)
		}
	}
}

func TestSignedNumberLiteral(t *testing.T) {
	toks, _ := scan("let x = -5")
	found := false
	for _, tok := range toks {
		if tok.Type == TokenInt && tok.Lexeme == "-5" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a signed int literal '-5', got %v", toks)
	}
}

func TestCharAndStringLiterals(t *testing.T) {
	toks, _ := scan(`'a' "hello"`)
	if toks[0].Type != TokenChar || toks[0].Lexeme != "a" {
		t.Errorf("char literal: got %v", toks[0])
	}
	if toks[1].Type != TokenString || toks[1].Lexeme != "hello" {
		t.Errorf("string literal: got %v", toks[1])
	}
}

func TestComments(t *testing.T) {
	toks, _ := scan("let x = 1 // trailing\n/* block\ncomment */ let y = 2")
	count := 0
	for _, tok := range toks {
		if tok.Type == TokenLet {
			count++
		}
	}
	if count != 2 {
		t.Fatalf("expected 2 let tokens around comments, got %d", count)
	}
}
