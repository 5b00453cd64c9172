package tools

import (
	"github.com/Flesymeb/rustlikec/ast"
	"github.com/Flesymeb/rustlikec/lexer"
)

// Xref collects every position at which each name is declared or referenced:
// function declarations, parameters, let bindings, and every identifier
// read thereafter. It walks the raw AST, not the symbol table, so it works
// even on a program with unresolved names.
func Xref(prog *ast.Program) map[string][]lexer.Position {
	x := make(map[string][]lexer.Position)
	add := func(name string, pos lexer.Position) {
		x[name] = append(x[name], pos)
	}
	for _, fn := range prog.Functions {
		add(fn.Name, fn.Pos)
		for _, p := range fn.Params {
			add(p.Name, p.Pos)
		}
		xrefBlock(fn.Body, add)
	}
	return x
}

func xrefBlock(b *ast.Block, add func(string, lexer.Position)) {
	for _, s := range b.Stmts {
		xrefStmt(s, add)
	}
}

func xrefStmt(s ast.Stmt, add func(string, lexer.Position)) {
	switch n := s.(type) {
	case *ast.Let:
		add(n.Name, n.Pos)
		if n.Init != nil {
			xrefExpr(n.Init, add)
		}
	case *ast.Assign:
		xrefExpr(n.Place, add)
		xrefExpr(n.Value, add)
	case *ast.Return:
		if n.Value != nil {
			xrefExpr(n.Value, add)
		}
	case *ast.If:
		xrefExpr(n.Cond, add)
		xrefBlock(n.Then, add)
		for _, ei := range n.Elifs {
			xrefExpr(ei.Cond, add)
			xrefBlock(ei.Then, add)
		}
		if n.Else != nil {
			xrefBlock(n.Else, add)
		}
	case *ast.While:
		xrefExpr(n.Cond, add)
		xrefBlock(n.Body, add)
	case *ast.For:
		add(n.Var, n.Pos)
		if n.Range.Start != nil {
			xrefExpr(n.Range.Start, add)
		}
		if n.Range.End != nil {
			xrefExpr(n.Range.End, add)
		}
		xrefBlock(n.Body, add)
	case *ast.Loop:
		xrefBlock(n.Body, add)
	case *ast.Break:
		if n.Value != nil {
			xrefExpr(n.Value, add)
		}
	case *ast.ExprStmt:
		xrefExpr(n.X, add)
	case *ast.Block:
		xrefBlock(n, add)
	}
}

func xrefExpr(e ast.Expr, add func(string, lexer.Position)) {
	switch n := e.(type) {
	case *ast.Ident:
		add(n.Name, n.Pos)
	case *ast.BinOp:
		xrefExpr(n.Lhs, add)
		xrefExpr(n.Rhs, add)
	case *ast.UnaryOp:
		xrefExpr(n.Operand, add)
	case *ast.Borrow:
		xrefExpr(n.Operand, add)
	case *ast.Call:
		add(n.Callee, n.Pos)
		for _, arg := range n.Args {
			xrefExpr(arg, add)
		}
	case *ast.ArrayLit:
		for _, el := range n.Elts {
			xrefExpr(el, add)
		}
	case *ast.Index:
		xrefExpr(n.Arr, add)
		xrefExpr(n.Idx, add)
	case *ast.TupleLit:
		for _, el := range n.Elts {
			xrefExpr(el, add)
		}
	case *ast.TupleField:
		xrefExpr(n.Tup, add)
	case *ast.Range:
		if n.Start != nil {
			xrefExpr(n.Start, add)
		}
		if n.End != nil {
			xrefExpr(n.End, add)
		}
	}
}
