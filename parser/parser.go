// Package parser implements a recursive-descent, precedence-climbing parser
// producing an *ast.Program from a token stream.
package parser

import (
	"strconv"

	"github.com/Flesymeb/rustlikec/ast"
	"github.com/Flesymeb/rustlikec/lexer"
)

// Parser holds one token of lookahead over a pre-tokenized stream.
type Parser struct {
	toks []lexer.Token
	pos  int
}

// New creates a Parser over an already-tokenized source.
func New(toks []lexer.Token) *Parser {
	return &Parser{toks: toks}
}

// Parse tokenizes src and parses it into a *ast.Program.
func Parse(src string) (*ast.Program, error) {
	toks, err := lexer.Tokenize(src)
	if err != nil {
		return nil, err
	}
	return New(toks).ParseProgram()
}

func (p *Parser) cur() lexer.Token  { return p.toks[p.pos] }
func (p *Parser) at(n int) lexer.Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) isKeyword(kw string) bool {
	t := p.cur()
	return t.Type == lexer.TokenKeyword && t.Lexeme == kw
}

func (p *Parser) expectKeyword(kw string) (lexer.Token, error) {
	if !p.isKeyword(kw) {
		return lexer.Token{}, &Error{Pos: p.cur().Pos, Expected: "keyword '" + kw + "'", Found: p.cur()}
	}
	return p.advance(), nil
}

func (p *Parser) expect(tt lexer.TokenType) (lexer.Token, error) {
	if p.cur().Type != tt {
		return lexer.Token{}, &Error{Pos: p.cur().Pos, Expected: tt.String(), Found: p.cur()}
	}
	return p.advance(), nil
}

// ParseProgram parses program := fn_decl*.
func (p *Parser) ParseProgram() (*ast.Program, error) {
	prog := &ast.Program{}
	for p.cur().Type != lexer.TokenEOF {
		fn, err := p.parseFnDecl()
		if err != nil {
			return nil, err
		}
		prog.Functions = append(prog.Functions, fn)
	}
	return prog, nil
}

// fn_decl := 'fn' IDENT '(' params? ')' ('->' type)? block
func (p *Parser) parseFnDecl() (*ast.FnDecl, error) {
	kw, err := p.expectKeyword("fn")
	if err != nil {
		return nil, err
	}
	name, err := p.expect(lexer.TokenIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenLParen); err != nil {
		return nil, err
	}
	var params []*ast.Param
	if p.cur().Type != lexer.TokenRParen {
		for {
			param, err := p.parseParam()
			if err != nil {
				return nil, err
			}
			params = append(params, param)
			if p.cur().Type != lexer.TokenComma {
				break
			}
			p.advance()
		}
	}
	if _, err := p.expect(lexer.TokenRParen); err != nil {
		return nil, err
	}
	var retTy ast.Ty
	if p.cur().Type == lexer.TokenArrow {
		p.advance()
		retTy, err = p.parseType()
		if err != nil {
			return nil, err
		}
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.FnDecl{Name: name.Lexeme, Params: params, RetTy: retTy, Body: body, Pos: kw.Pos}, nil
}

// param := 'mut'? IDENT (':' type)?
func (p *Parser) parseParam() (*ast.Param, error) {
	mutable := false
	if p.isKeyword("mut") {
		p.advance()
		mutable = true
	}
	name, err := p.expect(lexer.TokenIdent)
	if err != nil {
		return nil, err
	}
	var ty ast.Ty
	if p.cur().Type == lexer.TokenColon {
		p.advance()
		ty, err = p.parseType()
		if err != nil {
			return nil, err
		}
	}
	return &ast.Param{Name: name.Lexeme, Mutable: mutable, Ty: ty, Pos: name.Pos}, nil
}

// type := 'i32' | 'bool' | '[' type ';' INT ']' | '(' type (',' type)* ')' | '&' 'mut'? type
func (p *Parser) parseType() (ast.Ty, error) {
	switch {
	case p.isKeyword("i32"):
		p.advance()
		return ast.TyI32{}, nil
	case p.isKeyword("bool"):
		p.advance()
		return ast.TyBool{}, nil
	case p.cur().Type == lexer.TokenAmp:
		p.advance()
		mutable := false
		if p.isKeyword("mut") {
			p.advance()
			mutable = true
		}
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return &ast.TyRef{Mutable: mutable, Elem: elem}, nil
	case p.cur().Type == lexer.TokenLBracket:
		p.advance()
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenSemi); err != nil {
			return nil, err
		}
		sizeTok, err := p.expect(lexer.TokenInt)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenRBracket); err != nil {
			return nil, err
		}
		return &ast.TyArray{Elem: elem, Size: sizeTok.IntVal}, nil
	case p.cur().Type == lexer.TokenLParen:
		p.advance()
		var elems []ast.Ty
		if p.cur().Type != lexer.TokenRParen {
			for {
				t, err := p.parseType()
				if err != nil {
					return nil, err
				}
				elems = append(elems, t)
				if p.cur().Type != lexer.TokenComma {
					break
				}
				p.advance()
			}
		}
		if _, err := p.expect(lexer.TokenRParen); err != nil {
			return nil, err
		}
		return &ast.TyTuple{Elems: elems}, nil
	}
	return nil, &Error{Pos: p.cur().Pos, Expected: "type", Found: p.cur()}
}

// block := '{' stmt* '}'
func (p *Parser) parseBlock() (*ast.Block, error) {
	if _, err := p.expect(lexer.TokenLBrace); err != nil {
		return nil, err
	}
	b := &ast.Block{}
	for p.cur().Type != lexer.TokenRBrace {
		if p.cur().Type == lexer.TokenEOF {
			return nil, &Error{Pos: p.cur().Pos, Expected: "'}'", Found: p.cur()}
		}
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		b.Stmts = append(b.Stmts, s)
	}
	p.advance()
	return b, nil
}

func (p *Parser) parseStmt() (ast.Stmt, error) {
	switch {
	case p.cur().Type == lexer.TokenSemi:
		p.advance()
		return ast.Empty{}, nil
	case p.isKeyword("let"):
		return p.parseLet()
	case p.isKeyword("if"):
		return p.parseIf()
	case p.isKeyword("while"):
		return p.parseWhile()
	case p.isKeyword("for"):
		return p.parseFor()
	case p.isKeyword("loop"):
		return p.parseLoop()
	case p.isKeyword("return"):
		return p.parseReturn()
	case p.isKeyword("break"):
		return p.parseBreak()
	case p.isKeyword("continue"):
		return p.parseContinue()
	default:
		return p.parseAssignOrExprStmt()
	}
}

// let_stmt := 'let' 'mut'? IDENT (':' type)? ('=' expr)? ';'
func (p *Parser) parseLet() (ast.Stmt, error) {
	kw, _ := p.expectKeyword("let")
	mutable := false
	if p.isKeyword("mut") {
		p.advance()
		mutable = true
	}
	name, err := p.expect(lexer.TokenIdent)
	if err != nil {
		return nil, err
	}
	var ty ast.Ty
	if p.cur().Type == lexer.TokenColon {
		p.advance()
		ty, err = p.parseType()
		if err != nil {
			return nil, err
		}
	}
	var init ast.Expr
	if p.cur().Type == lexer.TokenAssign {
		p.advance()
		init, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.TokenSemi); err != nil {
		return nil, err
	}
	return &ast.Let{Name: name.Lexeme, Mutable: mutable, Ty: ty, Init: init, Pos: kw.Pos}, nil
}

// if_stmt := 'if' expr block ('else' 'if' expr block)* ('else' block)?
func (p *Parser) parseIf() (ast.Stmt, error) {
	kw, _ := p.expectKeyword("if")
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	node := &ast.If{Cond: cond, Then: then, Pos: kw.Pos}
	for p.isKeyword("else") && p.at(1).Type == lexer.TokenKeyword && p.at(1).Lexeme == "if" {
		p.advance() // else
		p.advance() // if
		c, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		b, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		node.Elifs = append(node.Elifs, ast.ElseIf{Cond: c, Then: b})
	}
	if p.isKeyword("else") {
		p.advance()
		b, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		node.Else = b
	}
	return node, nil
}

func (p *Parser) parseWhile() (ast.Stmt, error) {
	kw, _ := p.expectKeyword("while")
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.While{Cond: cond, Body: body, Pos: kw.Pos}, nil
}

// for_stmt := 'for' IDENT 'in' additive '..' additive block
func (p *Parser) parseFor() (ast.Stmt, error) {
	kw, _ := p.expectKeyword("for")
	name, err := p.expect(lexer.TokenIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("in"); err != nil {
		return nil, err
	}
	start, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenDotDot); err != nil {
		return nil, err
	}
	end, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.For{Var: name.Lexeme, Range: &ast.Range{Start: start, End: end}, Body: body, Pos: kw.Pos}, nil
}

func (p *Parser) parseLoop() (ast.Stmt, error) {
	kw, _ := p.expectKeyword("loop")
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.Loop{Body: body, Pos: kw.Pos}, nil
}

func (p *Parser) parseReturn() (ast.Stmt, error) {
	kw, _ := p.expectKeyword("return")
	var v ast.Expr
	if p.cur().Type != lexer.TokenSemi {
		var err error
		v, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.TokenSemi); err != nil {
		return nil, err
	}
	return &ast.Return{Value: v, Pos: kw.Pos}, nil
}

func (p *Parser) parseBreak() (ast.Stmt, error) {
	kw, _ := p.expectKeyword("break")
	var v ast.Expr
	if p.cur().Type != lexer.TokenSemi {
		var err error
		v, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.TokenSemi); err != nil {
		return nil, err
	}
	return &ast.Break{Value: v, Pos: kw.Pos}, nil
}

func (p *Parser) parseContinue() (ast.Stmt, error) {
	kw, _ := p.expectKeyword("continue")
	if _, err := p.expect(lexer.TokenSemi); err != nil {
		return nil, err
	}
	return &ast.Continue{Pos: kw.Pos}, nil
}

// assign_or_expr_stmt resolves the IDENT '=' / IDENT '(' / expr ambiguity by
// peeking one token past a leading identifier-like lvalue expression: only
// commit to assignment once '=' is actually seen.
func (p *Parser) parseAssignOrExprStmt() (ast.Stmt, error) {
	start := p.pos
	lhs, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.cur().Type == lexer.TokenAssign {
		if !isLvalue(lhs) {
			return nil, &Error{Pos: p.cur().Pos, Expected: "lvalue before '='", Found: p.toks[start]}
		}
		pos := p.cur().Pos
		p.advance()
		rhs, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenSemi); err != nil {
			return nil, err
		}
		return &ast.Assign{Place: lhs, Value: rhs, Pos: pos}, nil
	}
	if _, err := p.expect(lexer.TokenSemi); err != nil {
		return nil, err
	}
	return &ast.ExprStmt{X: lhs}, nil
}

func isLvalue(e ast.Expr) bool {
	switch e.(type) {
	case *ast.Ident, *ast.Index, *ast.TupleField:
		return true
	}
	return false
}

// ---- expressions: precedence climbing ----
//
// expr       := logical_or
// logical_or := logical_and ('||' logical_and)*
// logical_and:= comparison ('&&' comparison)*
// comparison := additive (('==' | '!=' | '<' | '<=' | '>' | '>=') additive)*
// additive   := term (('+' | '-') term)*
// term       := unary (('*' | '/' | '%') unary)*
// unary      := ('-' | '!' | '&' ['mut'])* postfix
// postfix    := primary ('[' expr ']' | '.' INT)*
// primary    := INT | STRING | BOOL | IDENT [call_tail] | '(' expr (',' expr)* ')' | '[' (expr (',' expr)*)? ']'

func (p *Parser) parseExpr() (ast.Expr, error) { return p.parseLogicalOr() }

func (p *Parser) parseLogicalOr() (ast.Expr, error) {
	lhs, err := p.parseLogicalAnd()
	if err != nil {
		return nil, err
	}
	for p.cur().Type == lexer.TokenOrOr {
		pos := p.cur().Pos
		p.advance()
		rhs, err := p.parseLogicalAnd()
		if err != nil {
			return nil, err
		}
		lhs = &ast.BinOp{Op: ast.OpOr, Lhs: lhs, Rhs: rhs, Pos: pos}
	}
	return lhs, nil
}

func (p *Parser) parseLogicalAnd() (ast.Expr, error) {
	lhs, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.cur().Type == lexer.TokenAndAnd {
		pos := p.cur().Pos
		p.advance()
		rhs, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		lhs = &ast.BinOp{Op: ast.OpAnd, Lhs: lhs, Rhs: rhs, Pos: pos}
	}
	return lhs, nil
}

var cmpOps = map[lexer.TokenType]ast.BinOpKind{
	lexer.TokenEq: ast.OpEq, lexer.TokenNe: ast.OpNe,
	lexer.TokenLt: ast.OpLt, lexer.TokenLe: ast.OpLe,
	lexer.TokenGt: ast.OpGt, lexer.TokenGe: ast.OpGe,
}

func (p *Parser) parseComparison() (ast.Expr, error) {
	lhs, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := cmpOps[p.cur().Type]
		if !ok {
			return lhs, nil
		}
		pos := p.cur().Pos
		p.advance()
		rhs, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		lhs = &ast.BinOp{Op: op, Lhs: lhs, Rhs: rhs, Pos: pos}
	}
}

func (p *Parser) parseAdditive() (ast.Expr, error) {
	lhs, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.cur().Type == lexer.TokenPlus || p.cur().Type == lexer.TokenMinus {
		op := ast.OpAdd
		if p.cur().Type == lexer.TokenMinus {
			op = ast.OpSub
		}
		pos := p.cur().Pos
		p.advance()
		rhs, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		lhs = &ast.BinOp{Op: op, Lhs: lhs, Rhs: rhs, Pos: pos}
	}
	return lhs, nil
}

func (p *Parser) parseTerm() (ast.Expr, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.BinOpKind
		switch p.cur().Type {
		case lexer.TokenStar:
			op = ast.OpMul
		case lexer.TokenSlash:
			op = ast.OpDiv
		case lexer.TokenPercent:
			op = ast.OpMod
		default:
			return lhs, nil
		}
		pos := p.cur().Pos
		p.advance()
		rhs, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		lhs = &ast.BinOp{Op: op, Lhs: lhs, Rhs: rhs, Pos: pos}
	}
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	switch p.cur().Type {
	case lexer.TokenMinus:
		pos := p.cur().Pos
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Op: ast.UnaryNeg, Operand: operand, Pos: pos}, nil
	case lexer.TokenNot:
		pos := p.cur().Pos
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Op: ast.UnaryNot, Operand: operand, Pos: pos}, nil
	case lexer.TokenAmp:
		pos := p.cur().Pos
		p.advance()
		mutable := false
		if p.isKeyword("mut") {
			p.advance()
			mutable = true
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Borrow{Mutable: mutable, Operand: operand, Pos: pos}, nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (ast.Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur().Type {
		case lexer.TokenLBracket:
			pos := p.cur().Pos
			p.advance()
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.TokenRBracket); err != nil {
				return nil, err
			}
			e = &ast.Index{Arr: e, Idx: idx, Pos: pos}
		case lexer.TokenDot:
			pos := p.cur().Pos
			p.advance()
			numTok, err := p.expect(lexer.TokenInt)
			if err != nil {
				return nil, err
			}
			idx, convErr := strconv.Atoi(numTok.Lexeme)
			if convErr != nil {
				return nil, &Error{Pos: numTok.Pos, Expected: "tuple index", Found: numTok}
			}
			e = &ast.TupleField{Tup: e, Index: idx, Pos: pos}
		default:
			return e, nil
		}
	}
}

// primary := INT | STRING | BOOL | IDENT [call_tail] | '(' expr [',' expr]* ')' | '[' (expr (',' expr)*)? ']'
func (p *Parser) parsePrimary() (ast.Expr, error) {
	t := p.cur()
	switch {
	case t.Type == lexer.TokenInt:
		p.advance()
		return &ast.IntLit{Value: t.IntVal, Pos: t.Pos}, nil
	case t.Type == lexer.TokenString:
		p.advance()
		return &ast.StringLit{Value: t.Lexeme, Pos: t.Pos}, nil
	case t.Type == lexer.TokenKeyword && t.Lexeme == "true":
		p.advance()
		return &ast.BoolLit{Value: true, Pos: t.Pos}, nil
	case t.Type == lexer.TokenKeyword && t.Lexeme == "false":
		p.advance()
		return &ast.BoolLit{Value: false, Pos: t.Pos}, nil
	case t.Type == lexer.TokenIdent:
		p.advance()
		// call_tail := '(' (expr (',' expr)*)? ')'
		if p.cur().Type == lexer.TokenLParen {
			p.advance()
			var args []ast.Expr
			if p.cur().Type != lexer.TokenRParen {
				for {
					a, err := p.parseExpr()
					if err != nil {
						return nil, err
					}
					args = append(args, a)
					if p.cur().Type != lexer.TokenComma {
						break
					}
					p.advance()
				}
			}
			if _, err := p.expect(lexer.TokenRParen); err != nil {
				return nil, err
			}
			return &ast.Call{Callee: t.Lexeme, Args: args, Pos: t.Pos}, nil
		}
		return &ast.Ident{Name: t.Lexeme, Pos: t.Pos}, nil
	case t.Type == lexer.TokenLParen:
		p.advance()
		if p.cur().Type == lexer.TokenRParen {
			p.advance()
			return &ast.TupleLit{Pos: t.Pos}, nil
		}
		first, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.cur().Type == lexer.TokenComma {
			elts := []ast.Expr{first}
			for p.cur().Type == lexer.TokenComma {
				p.advance()
				if p.cur().Type == lexer.TokenRParen {
					break
				}
				e, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				elts = append(elts, e)
			}
			if _, err := p.expect(lexer.TokenRParen); err != nil {
				return nil, err
			}
			return &ast.TupleLit{Elts: elts, Pos: t.Pos}, nil
		}
		if _, err := p.expect(lexer.TokenRParen); err != nil {
			return nil, err
		}
		return first, nil
	case t.Type == lexer.TokenLBracket:
		p.advance()
		var elts []ast.Expr
		if p.cur().Type != lexer.TokenRBracket {
			for {
				e, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				elts = append(elts, e)
				if p.cur().Type != lexer.TokenComma {
					break
				}
				p.advance()
			}
		}
		if _, err := p.expect(lexer.TokenRBracket); err != nil {
			return nil, err
		}
		return &ast.ArrayLit{Elts: elts, Pos: t.Pos}, nil
	}
	return nil, &Error{Pos: t.Pos, Expected: "expression", Found: t}
}
