package sema

import (
	"fmt"

	"github.com/Flesymeb/rustlikec/ast"
	"github.com/Flesymeb/rustlikec/lexer"
)

// Analyzer performs a single pre-order walk over a program, resolving names
// against a Table and checking every expression's static type.
type Analyzer struct {
	table     *Table
	funcs     map[string]*Symbol
	retTy     ast.Ty
	loopDepth int
}

// NewAnalyzer creates an Analyzer with a fresh global scope.
func NewAnalyzer() *Analyzer {
	return &Analyzer{table: NewTable(), funcs: make(map[string]*Symbol)}
}

// Analyze walks prog, returning the accumulated diagnostics. Callers must
// check the returned diagnostics for any non-warning code before handing the
// program to the IR generator.
func Analyze(prog *ast.Program) []Diagnostic {
	a := NewAnalyzer()
	a.registerFunctions(prog)
	for _, fn := range prog.Functions {
		a.visitFnDecl(fn)
	}
	return a.table.Diagnostics()
}

func (a *Analyzer) registerFunctions(prog *ast.Program) {
	for _, fn := range prog.Functions {
		paramTys := make([]ast.Ty, len(fn.Params))
		for i, p := range fn.Params {
			paramTys[i] = p.Ty
		}
		retTy := fn.RetTy
		if retTy == nil {
			retTy = ast.TyUnit{}
		}
		sym := &Symbol{Name: fn.Name, Kind: SymFunc, Ty: retTy, ParamTys: paramTys, Pos: fn.Pos, Used: true}
		a.funcs[fn.Name] = sym
		a.table.Define(sym)
	}
}

func (a *Analyzer) visitFnDecl(fn *ast.FnDecl) {
	prevRet := a.retTy
	a.retTy = fn.RetTy
	if a.retTy == nil {
		a.retTy = ast.TyUnit{}
	}
	a.table.EnterScope()
	for _, p := range fn.Params {
		a.table.Define(&Symbol{Name: p.Name, Kind: SymVar, Ty: p.Ty, Mutable: p.Mutable, Pos: p.Pos, Used: true})
	}
	a.visitBlock(fn.Body)
	a.table.ExitScope()
	a.retTy = prevRet
}

func (a *Analyzer) visitBlock(b *ast.Block) {
	a.table.EnterScope()
	for _, s := range b.Stmts {
		a.visitStmt(s)
	}
	a.table.ExitScope()
}

func (a *Analyzer) visitStmt(s ast.Stmt) {
	switch n := s.(type) {
	case ast.Empty:
	case *ast.Let:
		a.visitLet(n)
	case *ast.Assign:
		a.visitAssign(n)
	case *ast.Return:
		a.visitReturn(n)
	case *ast.If:
		a.visitIf(n)
	case *ast.While:
		a.visitWhile(n)
	case *ast.For:
		a.visitFor(n)
	case *ast.Loop:
		a.loopDepth++
		a.visitBlock(n.Body)
		a.loopDepth--
	case *ast.Break:
		if a.loopDepth == 0 {
			a.table.addError(ErrBreakOutsideLoop, n.Pos, "'break' outside a loop", "")
		}
		if n.Value != nil {
			a.exprType(n.Value)
			a.table.addWarning(WarnBreakValueDiscarded, n.Pos,
				"break value is discarded; loops are not expressions", "")
		}
	case *ast.Continue:
		if a.loopDepth == 0 {
			a.table.addError(ErrContinueOutsideLoop, n.Pos, "'continue' outside a loop", "")
		}
	case *ast.ExprStmt:
		a.exprType(n.X)
	case *ast.Block:
		a.visitBlock(n)
	default:
		panic(fmt.Sprintf("internal error: unhandled statement type %T", s))
	}
}

func (a *Analyzer) visitLet(n *ast.Let) {
	var initTy ast.Ty
	if n.Init != nil {
		initTy = a.exprType(n.Init)
	}
	ty := n.Ty
	if ty == nil {
		ty = initTy
	} else if n.Init != nil && initTy != nil && !ast.TyEqual(ty, initTy) {
		a.table.addError(ErrTypeMismatch, n.Pos,
			fmt.Sprintf("cannot initialize '%s' of type %s with value of type %s", n.Name, ast.TyName(ty), ast.TyName(initTy)), "")
	}
	a.table.Define(&Symbol{Name: n.Name, Kind: SymVar, Ty: ty, Mutable: n.Mutable, Pos: n.Pos})
}

func (a *Analyzer) visitAssign(n *ast.Assign) {
	valTy := a.exprType(n.Value)
	var placeTy ast.Ty
	if id, ok := n.Place.(*ast.Ident); ok {
		sym, found := a.table.Lookup(id.Name)
		if !found {
			a.table.addError(ErrUndefinedVariable, n.Pos, "undefined variable '"+id.Name+"'", "")
			return
		}
		if !sym.Mutable {
			a.table.addError(ErrImmutableAssignment, n.Pos,
				"cannot assign to immutable variable '"+id.Name+"'", "declare it with 'let mut' to allow assignment")
			return
		}
		placeTy = sym.Ty
	} else {
		placeTy = a.exprType(n.Place)
		if id := placeBase(n.Place); id != nil {
			if sym, found := a.table.Lookup(id.Name); found && !sym.Mutable {
				a.table.addError(ErrImmutableAssignment, n.Pos,
					"cannot assign through immutable variable '"+id.Name+"'", "declare it with 'let mut' to allow assignment")
				return
			}
		}
	}
	if placeTy != nil && valTy != nil && !ast.TyEqual(placeTy, valTy) {
		a.table.addError(ErrTypeMismatch, n.Pos,
			fmt.Sprintf("cannot assign value of type %s to place of type %s", ast.TyName(valTy), ast.TyName(placeTy)), "")
	}
}

// placeBase resolves an lvalue to the identifier it stores through, if any.
func placeBase(e ast.Expr) *ast.Ident {
	switch p := e.(type) {
	case *ast.Ident:
		return p
	case *ast.Index:
		return placeBase(p.Arr)
	case *ast.TupleField:
		return placeBase(p.Tup)
	}
	return nil
}

func (a *Analyzer) visitReturn(n *ast.Return) {
	if n.Value == nil {
		if _, isUnit := a.retTy.(ast.TyUnit); !isUnit {
			a.table.addError(ErrReturnTypeMismatch, n.Pos,
				"bare return requires function return type of '()', found "+ast.TyName(a.retTy), "")
		}
		return
	}
	valTy := a.exprType(n.Value)
	if valTy != nil && !ast.TyEqual(valTy, a.retTy) {
		a.table.addError(ErrReturnTypeMismatch, n.Pos,
			fmt.Sprintf("returned type %s does not match function return type %s", ast.TyName(valTy), ast.TyName(a.retTy)), "")
	}
}

func (a *Analyzer) checkCondition(cond ast.Expr, pos lexer.Position) {
	ty := a.exprType(cond)
	if ty != nil {
		if _, ok := ty.(ast.TyBool); !ok {
			a.table.addError(ErrTypeMismatch, pos, "condition must have type bool, found "+ast.TyName(ty), "")
		}
	}
}

func (a *Analyzer) visitIf(n *ast.If) {
	a.checkCondition(n.Cond, n.Pos)
	a.visitBlock(n.Then)
	for _, ei := range n.Elifs {
		a.checkCondition(ei.Cond, n.Pos)
		a.visitBlock(ei.Then)
	}
	if n.Else != nil {
		a.visitBlock(n.Else)
	}
}

func (a *Analyzer) visitWhile(n *ast.While) {
	a.checkCondition(n.Cond, n.Pos)
	a.loopDepth++
	a.visitBlock(n.Body)
	a.loopDepth--
}

func (a *Analyzer) visitFor(n *ast.For) {
	if n.Range.Start != nil {
		a.exprType(n.Range.Start)
	}
	if n.Range.End != nil {
		a.exprType(n.Range.End)
	}
	a.table.EnterScope()
	a.table.Define(&Symbol{Name: n.Var, Kind: SymVar, Ty: ast.TyI32{}, Mutable: false, Pos: n.Pos, Used: true})
	a.loopDepth++
	for _, s := range n.Body.Stmts {
		a.visitStmt(s)
	}
	a.loopDepth--
	a.table.ExitScope()
}

// exprType computes an expression's static type, emitting diagnostics for
// any mismatch along the way. It returns nil once an operand's type could
// not be determined, so callers must nil-check before comparing further.
func (a *Analyzer) exprType(e ast.Expr) ast.Ty {
	switch n := e.(type) {
	case *ast.IntLit:
		return ast.TyI32{}
	case *ast.BoolLit:
		return ast.TyBool{}
	case *ast.StringLit:
		return nil // strings are data-section literals, not a checked value type
	case *ast.Ident:
		sym, ok := a.table.Lookup(n.Name)
		if !ok {
			a.table.addError(ErrUndefinedVariable, n.Pos, "undefined variable '"+n.Name+"'", "")
			return nil
		}
		return sym.Ty
	case *ast.BinOp:
		return a.binOpType(n)
	case *ast.UnaryOp:
		return a.unaryOpType(n)
	case *ast.Borrow:
		elem := a.exprType(n.Operand)
		return &ast.TyRef{Mutable: n.Mutable, Elem: elem}
	case *ast.Call:
		return a.callType(n)
	case *ast.ArrayLit:
		return a.arrayLitType(n)
	case *ast.Index:
		return a.indexType(n)
	case *ast.TupleLit:
		elems := make([]ast.Ty, len(n.Elts))
		for i, el := range n.Elts {
			elems[i] = a.exprType(el)
		}
		return &ast.TyTuple{Elems: elems}
	case *ast.TupleField:
		return a.tupleFieldType(n)
	case *ast.Range:
		if n.Start != nil {
			a.exprType(n.Start)
		}
		if n.End != nil {
			a.exprType(n.End)
		}
		return nil
	}
	panic(fmt.Sprintf("internal error: unhandled expression type %T", e))
}

func (a *Analyzer) binOpType(n *ast.BinOp) ast.Ty {
	lhs := a.exprType(n.Lhs)
	rhs := a.exprType(n.Rhs)
	switch n.Op {
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod:
		a.requireType(lhs, ast.TyI32{}, n.Pos)
		a.requireType(rhs, ast.TyI32{}, n.Pos)
		return ast.TyI32{}
	case ast.OpEq, ast.OpNe, ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		if lhs != nil && rhs != nil && !ast.TyEqual(lhs, rhs) {
			a.table.addError(ErrTypeMismatch, n.Pos,
				fmt.Sprintf("cannot compare %s with %s", ast.TyName(lhs), ast.TyName(rhs)), "")
		}
		return ast.TyBool{}
	case ast.OpAnd, ast.OpOr:
		a.requireType(lhs, ast.TyBool{}, n.Pos)
		a.requireType(rhs, ast.TyBool{}, n.Pos)
		return ast.TyBool{}
	}
	panic("internal error: unhandled binary operator")
}

func (a *Analyzer) requireType(got, want ast.Ty, pos lexer.Position) {
	if got != nil && !ast.TyEqual(got, want) {
		a.table.addError(ErrTypeMismatch, pos,
			fmt.Sprintf("expected %s, found %s", ast.TyName(want), ast.TyName(got)), "")
	}
}

func (a *Analyzer) unaryOpType(n *ast.UnaryOp) ast.Ty {
	operand := a.exprType(n.Operand)
	switch n.Op {
	case ast.UnaryNeg:
		a.requireType(operand, ast.TyI32{}, n.Pos)
		return ast.TyI32{}
	case ast.UnaryNot:
		a.requireType(operand, ast.TyBool{}, n.Pos)
		return ast.TyBool{}
	}
	panic("internal error: unhandled unary operator")
}

func (a *Analyzer) callType(n *ast.Call) ast.Ty {
	fn, ok := a.funcs[n.Callee]
	if !ok {
		a.table.addError(ErrUndefinedFunction, n.Pos, "undefined function '"+n.Callee+"'", "")
		for _, arg := range n.Args {
			a.exprType(arg)
		}
		return nil
	}
	if len(n.Args) != len(fn.ParamTys) {
		a.table.addError(ErrFunctionArgs, n.Pos,
			fmt.Sprintf("function '%s' expects %d argument(s), found %d", n.Callee, len(fn.ParamTys), len(n.Args)), "")
	}
	for i, arg := range n.Args {
		argTy := a.exprType(arg)
		if i < len(fn.ParamTys) && argTy != nil && fn.ParamTys[i] != nil && !ast.TyEqual(argTy, fn.ParamTys[i]) {
			a.table.addError(ErrTypeMismatch, n.Pos,
				fmt.Sprintf("argument %d to '%s' has type %s, expected %s", i+1, n.Callee, ast.TyName(argTy), ast.TyName(fn.ParamTys[i])), "")
		}
	}
	return fn.Ty
}

func (a *Analyzer) arrayLitType(n *ast.ArrayLit) ast.Ty {
	var elemTy ast.Ty
	for i, el := range n.Elts {
		ty := a.exprType(el)
		if i == 0 {
			elemTy = ty
		} else if ty != nil && elemTy != nil && !ast.TyEqual(ty, elemTy) {
			a.table.addError(ErrTypeMismatch, n.Pos, "array elements must share one type", "")
		}
	}
	return &ast.TyArray{Elem: elemTy, Size: int32(len(n.Elts))}
}

func (a *Analyzer) indexType(n *ast.Index) ast.Ty {
	arrTy := a.exprType(n.Arr)
	idxTy := a.exprType(n.Idx)
	a.requireType(idxTy, ast.TyI32{}, n.Pos)
	arr, ok := arrTy.(*ast.TyArray)
	if !ok {
		if arrTy != nil {
			a.table.addError(ErrTypeMismatch, n.Pos, "cannot index non-array type "+ast.TyName(arrTy), "")
		}
		return nil
	}
	return arr.Elem
}

func (a *Analyzer) tupleFieldType(n *ast.TupleField) ast.Ty {
	tupTy := a.exprType(n.Tup)
	tup, ok := tupTy.(*ast.TyTuple)
	if !ok {
		if tupTy != nil {
			a.table.addError(ErrTypeMismatch, n.Pos, "cannot field-access non-tuple type "+ast.TyName(tupTy), "")
		}
		return nil
	}
	if n.Index < 0 || n.Index >= len(tup.Elems) {
		a.table.addError(ErrTypeMismatch, n.Pos, fmt.Sprintf("tuple has no field .%d", n.Index), "")
		return nil
	}
	return tup.Elems[n.Index]
}
