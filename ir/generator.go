package ir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Flesymeb/rustlikec/ast"
)

type loopCtx struct {
	continueLabel string
	breakLabel    string
}

// Generator lowers one analyzed program into quadruples.
type Generator struct {
	prog      *Program
	tempN     int
	labelN    int
	loopStack []loopCtx
}

// NewGenerator creates an empty Generator.
func NewGenerator() *Generator {
	return &Generator{prog: &Program{}}
}

// Generate lowers prog. The caller must have already run sema.Analyze and
// confirmed there were no errors; Generate does not re-check types.
func Generate(prog *ast.Program) (*Program, error) {
	g := NewGenerator()
	for _, fn := range prog.Functions {
		if err := g.genFn(fn); err != nil {
			return nil, err
		}
	}
	return g.prog, nil
}

func (g *Generator) newTemp() string {
	t := fmt.Sprintf("t%d", g.tempN)
	g.tempN++
	return t
}

func (g *Generator) newLabel() string {
	l := fmt.Sprintf("L%d", g.labelN)
	g.labelN++
	return l
}

func (g *Generator) emit(op Op, a1, a2, dst string) {
	g.prog.Quads = append(g.prog.Quads, Quad{Op: op, A1: a1, A2: a2, Dst: dst})
}

func (g *Generator) genFn(fn *ast.FnDecl) error {
	names := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		names[i] = p.Name
	}
	g.emit(OpFuncBegin, fn.Name, strings.Join(names, ","), "")
	if err := g.genBlock(fn.Body); err != nil {
		return err
	}
	g.emit(OpFuncEnd, "", "", fn.Name)
	return nil
}

func (g *Generator) genBlock(b *ast.Block) error {
	for _, s := range b.Stmts {
		if err := g.genStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) genStmt(s ast.Stmt) error {
	switch n := s.(type) {
	case ast.Empty:
		return nil
	case *ast.Let:
		return g.genLet(n)
	case *ast.Assign:
		return g.genAssign(n)
	case *ast.Return:
		return g.genReturn(n)
	case *ast.If:
		return g.genIf(n)
	case *ast.While:
		return g.genWhile(n)
	case *ast.For:
		return g.genFor(n)
	case *ast.Loop:
		return g.genLoop(n)
	case *ast.Break:
		return g.genBreak(n)
	case *ast.Continue:
		return g.genContinue(n)
	case *ast.ExprStmt:
		_, err := g.genExpr(n.X)
		return err
	case *ast.Block:
		return g.genBlock(n)
	}
	panic(fmt.Sprintf("internal error: unhandled statement type %T", s))
}

func (g *Generator) genLet(n *ast.Let) error {
	if n.Init == nil {
		return nil
	}
	switch init := n.Init.(type) {
	case *ast.ArrayLit:
		return g.genArrayLitInto(n.Name, init)
	case *ast.TupleLit:
		return g.genTupleLitInto(n.Name, init)
	default:
		val, err := g.genExpr(n.Init)
		if err != nil {
			return err
		}
		g.emit(OpAssign, val, "", n.Name)
		return nil
	}
}

func (g *Generator) genArrayLitInto(name string, lit *ast.ArrayLit) error {
	g.emit(OpArrInit, strconv.Itoa(len(lit.Elts)), "", name)
	for i, el := range lit.Elts {
		val, err := g.genExpr(el)
		if err != nil {
			return err
		}
		g.emit(OpArrStore, val, strconv.Itoa(i), name)
	}
	return nil
}

func (g *Generator) genTupleLitInto(name string, lit *ast.TupleLit) error {
	g.emit(OpTupInit, strconv.Itoa(len(lit.Elts)), "", name)
	for i, el := range lit.Elts {
		val, err := g.genExpr(el)
		if err != nil {
			return err
		}
		g.emit(OpTupStore, val, strconv.Itoa(i), name)
	}
	return nil
}

func (g *Generator) genAssign(n *ast.Assign) error {
	switch place := n.Place.(type) {
	case *ast.Ident:
		val, err := g.genExpr(n.Value)
		if err != nil {
			return err
		}
		g.emit(OpAssign, val, "", place.Name)
		return nil
	case *ast.Index:
		arr, err := g.genExpr(place.Arr)
		if err != nil {
			return err
		}
		idx, err := g.genExpr(place.Idx)
		if err != nil {
			return err
		}
		val, err := g.genExpr(n.Value)
		if err != nil {
			return err
		}
		g.emit(OpArrStore, val, idx, arr)
		return nil
	case *ast.TupleField:
		tup, err := g.genExpr(place.Tup)
		if err != nil {
			return err
		}
		val, err := g.genExpr(n.Value)
		if err != nil {
			return err
		}
		g.emit(OpTupStore, val, strconv.Itoa(place.Index), tup)
		return nil
	}
	panic(fmt.Sprintf("internal error: unsupported assignment target %T", n.Place))
}

func (g *Generator) genReturn(n *ast.Return) error {
	if n.Value == nil {
		g.emit(OpReturn, "", "", "")
		return nil
	}
	val, err := g.genExpr(n.Value)
	if err != nil {
		return err
	}
	g.emit(OpReturn, val, "", "")
	return nil
}

// genIf lowers the if/else-if/else chain: each condition false-branches to
// the next candidate (or the else block, or the end), and every taken
// branch jumps to the shared end label.
func (g *Generator) genIf(n *ast.If) error {
	type branch struct {
		cond ast.Expr
		then *ast.Block
	}
	branches := []branch{{n.Cond, n.Then}}
	for _, ei := range n.Elifs {
		branches = append(branches, branch{ei.Cond, ei.Then})
	}
	lend := g.newLabel()
	for i, b := range branches {
		condVal, err := g.genExpr(b.cond)
		if err != nil {
			return err
		}
		isLast := i == len(branches)-1
		var lnext string
		if isLast {
			if n.Else != nil {
				lnext = g.newLabel()
			} else {
				lnext = lend
			}
		} else {
			lnext = g.newLabel()
		}
		g.emit(OpIfFalseGoto, condVal, "", lnext)
		if err := g.genBlock(b.then); err != nil {
			return err
		}
		g.emit(OpGoto, "", "", lend)
		if lnext != lend {
			g.emit(OpLabel, "", "", lnext)
		}
	}
	if n.Else != nil {
		if err := g.genBlock(n.Else); err != nil {
			return err
		}
	}
	g.emit(OpLabel, "", "", lend)
	return nil
}

func (g *Generator) genWhile(n *ast.While) error {
	lcond := g.newLabel()
	lend := g.newLabel()
	g.emit(OpLabel, "", "", lcond)
	condVal, err := g.genExpr(n.Cond)
	if err != nil {
		return err
	}
	g.emit(OpIfFalseGoto, condVal, "", lend)
	g.loopStack = append(g.loopStack, loopCtx{continueLabel: lcond, breakLabel: lend})
	err = g.genBlock(n.Body)
	g.loopStack = g.loopStack[:len(g.loopStack)-1]
	if err != nil {
		return err
	}
	g.emit(OpGoto, "", "", lcond)
	g.emit(OpLabel, "", "", lend)
	return nil
}

// genFor desugars a range-based for loop into a counter-based while using
// the loop variable itself as the counter.
func (g *Generator) genFor(n *ast.For) error {
	startVal, err := g.genExpr(n.Range.Start)
	if err != nil {
		return err
	}
	g.emit(OpAssign, startVal, "", n.Var)
	endVal, err := g.genExpr(n.Range.End)
	if err != nil {
		return err
	}
	endTemp := g.newTemp()
	g.emit(OpAssign, endVal, "", endTemp)

	ltop := g.newLabel()
	linc := g.newLabel()
	lend := g.newLabel()
	g.emit(OpLabel, "", "", ltop)
	condTemp := g.newTemp()
	g.emit(OpLt, n.Var, endTemp, condTemp)
	g.emit(OpIfFalseGoto, condTemp, "", lend)

	g.loopStack = append(g.loopStack, loopCtx{continueLabel: linc, breakLabel: lend})
	err = g.genBlock(n.Body)
	g.loopStack = g.loopStack[:len(g.loopStack)-1]
	if err != nil {
		return err
	}
	g.emit(OpLabel, "", "", linc)
	g.emit(OpAdd, n.Var, "1", n.Var)
	g.emit(OpGoto, "", "", ltop)
	g.emit(OpLabel, "", "", lend)
	return nil
}

func (g *Generator) genLoop(n *ast.Loop) error {
	ltop := g.newLabel()
	lend := g.newLabel()
	g.emit(OpLabel, "", "", ltop)
	g.loopStack = append(g.loopStack, loopCtx{continueLabel: ltop, breakLabel: lend})
	err := g.genBlock(n.Body)
	g.loopStack = g.loopStack[:len(g.loopStack)-1]
	if err != nil {
		return err
	}
	g.emit(OpGoto, "", "", ltop)
	g.emit(OpLabel, "", "", lend)
	return nil
}

func (g *Generator) genBreak(n *ast.Break) error {
	if len(g.loopStack) == 0 {
		panic("internal error: break outside loop reached the IR generator")
	}
	if n.Value != nil {
		if _, err := g.genExpr(n.Value); err != nil {
			return err
		}
	}
	top := g.loopStack[len(g.loopStack)-1]
	g.emit(OpGoto, "", "", top.breakLabel)
	return nil
}

func (g *Generator) genContinue(n *ast.Continue) error {
	if len(g.loopStack) == 0 {
		panic("internal error: continue outside loop reached the IR generator")
	}
	top := g.loopStack[len(g.loopStack)-1]
	g.emit(OpGoto, "", "", top.continueLabel)
	return nil
}

// genExpr lowers an expression to the quad operand (a variable name, temp
// name, or immediate) holding its value.
func (g *Generator) genExpr(e ast.Expr) (string, error) {
	switch n := e.(type) {
	case *ast.IntLit:
		return strconv.Itoa(int(n.Value)), nil
	case *ast.BoolLit:
		if n.Value {
			return "1", nil
		}
		return "0", nil
	case *ast.StringLit:
		return strconv.Quote(n.Value), nil
	case *ast.Ident:
		return n.Name, nil
	case *ast.BinOp:
		return g.genBinOp(n)
	case *ast.UnaryOp:
		return g.genUnaryOp(n)
	case *ast.Borrow:
		return "", &Error{Pos: n.Pos, Message: "unsupported_borrow_codegen: borrow expressions have no quadruple lowering"}
	case *ast.Call:
		return g.genCall(n)
	case *ast.ArrayLit:
		t := g.newTemp()
		if err := g.genArrayLitInto(t, n); err != nil {
			return "", err
		}
		return t, nil
	case *ast.TupleLit:
		t := g.newTemp()
		if err := g.genTupleLitInto(t, n); err != nil {
			return "", err
		}
		return t, nil
	case *ast.Index:
		arr, err := g.genExpr(n.Arr)
		if err != nil {
			return "", err
		}
		idx, err := g.genExpr(n.Idx)
		if err != nil {
			return "", err
		}
		t := g.newTemp()
		g.emit(OpArrLoad, arr, idx, t)
		return t, nil
	case *ast.TupleField:
		tup, err := g.genExpr(n.Tup)
		if err != nil {
			return "", err
		}
		t := g.newTemp()
		g.emit(OpTupLoad, tup, strconv.Itoa(n.Index), t)
		return t, nil
	case *ast.Range:
		panic("internal error: range expression used outside a for loop")
	}
	panic(fmt.Sprintf("internal error: unhandled expression type %T", e))
}

var binOps = map[ast.BinOpKind]Op{
	ast.OpAdd: OpAdd, ast.OpSub: OpSub, ast.OpMul: OpMul, ast.OpDiv: OpDiv, ast.OpMod: OpMod,
	ast.OpEq: OpEq, ast.OpNe: OpNe, ast.OpLt: OpLt, ast.OpLe: OpLe, ast.OpGt: OpGt, ast.OpGe: OpGe,
}

func (g *Generator) genBinOp(n *ast.BinOp) (string, error) {
	switch n.Op {
	case ast.OpAnd:
		return g.genLogicalAnd(n.Lhs, n.Rhs)
	case ast.OpOr:
		return g.genLogicalOr(n.Lhs, n.Rhs)
	}
	op, ok := binOps[n.Op]
	if !ok {
		panic("internal error: unhandled binary operator")
	}
	lhs, err := g.genExpr(n.Lhs)
	if err != nil {
		return "", err
	}
	rhs, err := g.genExpr(n.Rhs)
	if err != nil {
		return "", err
	}
	t := g.newTemp()
	g.emit(op, lhs, rhs, t)
	return t, nil
}

// genLogicalAnd short-circuits: if the left operand is false, the right
// operand is never evaluated and the result is false.
func (g *Generator) genLogicalAnd(lhsExpr, rhsExpr ast.Expr) (string, error) {
	t := g.newTemp()
	lfalse := g.newLabel()
	lend := g.newLabel()
	lhs, err := g.genExpr(lhsExpr)
	if err != nil {
		return "", err
	}
	g.emit(OpIfFalseGoto, lhs, "", lfalse)
	rhs, err := g.genExpr(rhsExpr)
	if err != nil {
		return "", err
	}
	g.emit(OpAssign, rhs, "", t)
	g.emit(OpGoto, "", "", lend)
	g.emit(OpLabel, "", "", lfalse)
	g.emit(OpAssign, "0", "", t)
	g.emit(OpLabel, "", "", lend)
	return t, nil
}

// genLogicalOr short-circuits: if the left operand is true, the right
// operand is never evaluated and the result is true.
func (g *Generator) genLogicalOr(lhsExpr, rhsExpr ast.Expr) (string, error) {
	t := g.newTemp()
	lrhs := g.newLabel()
	lend := g.newLabel()
	lhs, err := g.genExpr(lhsExpr)
	if err != nil {
		return "", err
	}
	g.emit(OpIfFalseGoto, lhs, "", lrhs)
	g.emit(OpAssign, "1", "", t)
	g.emit(OpGoto, "", "", lend)
	g.emit(OpLabel, "", "", lrhs)
	rhs, err := g.genExpr(rhsExpr)
	if err != nil {
		return "", err
	}
	g.emit(OpAssign, rhs, "", t)
	g.emit(OpLabel, "", "", lend)
	return t, nil
}

func (g *Generator) genUnaryOp(n *ast.UnaryOp) (string, error) {
	operand, err := g.genExpr(n.Operand)
	if err != nil {
		return "", err
	}
	t := g.newTemp()
	switch n.Op {
	case ast.UnaryNeg:
		g.emit(OpNeg, operand, "", t)
	case ast.UnaryNot:
		g.emit(OpNot, operand, "", t)
	default:
		panic("internal error: unhandled unary operator")
	}
	return t, nil
}

// genCall evaluates arguments left to right, then emits PARAM in reverse
// order before CALL, matching the calling convention's argument layout.
func (g *Generator) genCall(n *ast.Call) (string, error) {
	vals := make([]string, len(n.Args))
	for i, arg := range n.Args {
		v, err := g.genExpr(arg)
		if err != nil {
			return "", err
		}
		vals[i] = v
	}
	for i := len(vals) - 1; i >= 0; i-- {
		g.emit(OpParam, vals[i], "", "")
	}
	t := g.newTemp()
	g.emit(OpCall, n.Callee, strconv.Itoa(len(vals)), t)
	return t, nil
}
