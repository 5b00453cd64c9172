package parser_test

import (
	"testing"

	"github.com/Flesymeb/rustlikec/ast"
	"github.com/Flesymeb/rustlikec/parser"
)

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	return prog
}

func TestParse_SimpleFunction(t *testing.T) {
	prog := mustParse(t, `
		fn add(a: i32, b: i32) -> i32 {
			return a + b;
		}
	`)
	if len(prog.Functions) != 1 {
		t.Fatalf("expected 1 function, got %d", len(prog.Functions))
	}
	fn := prog.Functions[0]
	if fn.Name != "add" {
		t.Errorf("name = %q", fn.Name)
	}
	if len(fn.Params) != 2 {
		t.Fatalf("expected 2 params, got %d", len(fn.Params))
	}
	if _, ok := fn.RetTy.(ast.TyI32); !ok {
		t.Errorf("expected TyI32 return type, got %T", fn.RetTy)
	}
	if len(fn.Body.Stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(fn.Body.Stmts))
	}
	ret, ok := fn.Body.Stmts[0].(*ast.Return)
	if !ok {
		t.Fatalf("expected *ast.Return, got %T", fn.Body.Stmts[0])
	}
	bin, ok := ret.Value.(*ast.BinOp)
	if !ok || bin.Op != ast.OpAdd {
		t.Fatalf("expected a + b, got %#v", ret.Value)
	}
}

func TestParse_AssignVsCallVsExprStmtAmbiguity(t *testing.T) {
	prog := mustParse(t, `
		fn f() {
			x = 1;
			g();
			x;
		}
	`)
	stmts := prog.Functions[0].Body.Stmts
	if len(stmts) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(stmts))
	}
	if _, ok := stmts[0].(*ast.Assign); !ok {
		t.Errorf("stmt 0: expected *ast.Assign, got %T", stmts[0])
	}
	es, ok := stmts[1].(*ast.ExprStmt)
	if !ok {
		t.Fatalf("stmt 1: expected *ast.ExprStmt, got %T", stmts[1])
	}
	if _, ok := es.X.(*ast.Call); !ok {
		t.Errorf("stmt 1: expected call expression, got %T", es.X)
	}
	es2, ok := stmts[2].(*ast.ExprStmt)
	if !ok {
		t.Fatalf("stmt 2: expected *ast.ExprStmt, got %T", stmts[2])
	}
	if _, ok := es2.X.(*ast.Ident); !ok {
		t.Errorf("stmt 2: expected identifier expression, got %T", es2.X)
	}
}

func TestParse_IfElseIfElse(t *testing.T) {
	prog := mustParse(t, `
		fn f() {
			if a {
			} else if b {
			} else {
			}
		}
	`)
	ifst, ok := prog.Functions[0].Body.Stmts[0].(*ast.If)
	if !ok {
		t.Fatalf("expected *ast.If, got %T", prog.Functions[0].Body.Stmts[0])
	}
	if len(ifst.Elifs) != 1 {
		t.Fatalf("expected 1 else-if, got %d", len(ifst.Elifs))
	}
	if ifst.Else == nil {
		t.Fatal("expected else block")
	}
}

func TestParse_WhileForLoopBreakContinue(t *testing.T) {
	prog := mustParse(t, `
		fn f() {
			while x {
				break;
			}
			for i in 0..10 {
				continue;
			}
			loop {
				break 1;
			}
		}
	`)
	stmts := prog.Functions[0].Body.Stmts
	if _, ok := stmts[0].(*ast.While); !ok {
		t.Errorf("stmt 0: expected *ast.While, got %T", stmts[0])
	}
	forst, ok := stmts[1].(*ast.For)
	if !ok {
		t.Fatalf("stmt 1: expected *ast.For, got %T", stmts[1])
	}
	if forst.Var != "i" {
		t.Errorf("for var = %q", forst.Var)
	}
	loopst, ok := stmts[2].(*ast.Loop)
	if !ok {
		t.Fatalf("stmt 2: expected *ast.Loop, got %T", stmts[2])
	}
	brk, ok := loopst.Body.Stmts[0].(*ast.Break)
	if !ok || brk.Value == nil {
		t.Fatalf("expected break with value, got %#v", loopst.Body.Stmts[0])
	}
}

func TestParse_PrecedenceAndLogicalOps(t *testing.T) {
	prog := mustParse(t, `
		fn f() {
			let x = 1 + 2 * 3 == 7 && true || false;
		}
	`)
	let := prog.Functions[0].Body.Stmts[0].(*ast.Let)
	top, ok := let.Init.(*ast.BinOp)
	if !ok || top.Op != ast.OpOr {
		t.Fatalf("expected top-level ||, got %#v", let.Init)
	}
	and, ok := top.Lhs.(*ast.BinOp)
	if !ok || and.Op != ast.OpAnd {
		t.Fatalf("expected && under ||, got %#v", top.Lhs)
	}
	eq, ok := and.Lhs.(*ast.BinOp)
	if !ok || eq.Op != ast.OpEq {
		t.Fatalf("expected == under &&, got %#v", and.Lhs)
	}
	add, ok := eq.Lhs.(*ast.BinOp)
	if !ok || add.Op != ast.OpAdd {
		t.Fatalf("expected + under ==, got %#v", eq.Lhs)
	}
	mul, ok := add.Rhs.(*ast.BinOp)
	if !ok || mul.Op != ast.OpMul {
		t.Fatalf("expected * nested under +, got %#v", add.Rhs)
	}
}

func TestParse_ArraysTuplesIndexAndFields(t *testing.T) {
	prog := mustParse(t, `
		fn f() {
			let a = [1, 2, 3];
			let t = (1, true);
			let x = a[0];
			let y = t.1;
		}
	`)
	stmts := prog.Functions[0].Body.Stmts
	arrLet := stmts[0].(*ast.Let)
	arr, ok := arrLet.Init.(*ast.ArrayLit)
	if !ok || len(arr.Elts) != 3 {
		t.Fatalf("expected array literal with 3 elements, got %#v", arrLet.Init)
	}
	tupLet := stmts[1].(*ast.Let)
	tup, ok := tupLet.Init.(*ast.TupleLit)
	if !ok || len(tup.Elts) != 2 {
		t.Fatalf("expected tuple literal with 2 elements, got %#v", tupLet.Init)
	}
	idxLet := stmts[2].(*ast.Let)
	if _, ok := idxLet.Init.(*ast.Index); !ok {
		t.Fatalf("expected index expression, got %#v", idxLet.Init)
	}
	fieldLet := stmts[3].(*ast.Let)
	fld, ok := fieldLet.Init.(*ast.TupleField)
	if !ok || fld.Index != 1 {
		t.Fatalf("expected tuple field access .1, got %#v", fieldLet.Init)
	}
}

func TestParse_BorrowAndRefTypes(t *testing.T) {
	prog := mustParse(t, `
		fn f(p: &mut i32) -> &i32 {
			let r = &p;
		}
	`)
	fn := prog.Functions[0]
	refParam, ok := fn.Params[0].Ty.(*ast.TyRef)
	if !ok || !refParam.Mutable {
		t.Fatalf("expected &mut i32 param type, got %#v", fn.Params[0].Ty)
	}
	refRet, ok := fn.RetTy.(*ast.TyRef)
	if !ok || refRet.Mutable {
		t.Fatalf("expected &i32 return type, got %#v", fn.RetTy)
	}
	let := fn.Body.Stmts[0].(*ast.Let)
	if _, ok := let.Init.(*ast.Borrow); !ok {
		t.Fatalf("expected borrow expression, got %#v", let.Init)
	}
}

func TestParse_SyntaxErrorReportsPosition(t *testing.T) {
	_, err := parser.Parse("fn f( {}")
	if err == nil {
		t.Fatal("expected syntax error")
	}
	if _, ok := err.(*parser.Error); !ok {
		t.Fatalf("expected *parser.Error, got %T", err)
	}
}
