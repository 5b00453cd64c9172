package ir_test

import (
	"strings"
	"testing"

	"github.com/Flesymeb/rustlikec/ir"
	"github.com/Flesymeb/rustlikec/parser"
)

func generate(t *testing.T, src string) *ir.Program {
	t.Helper()
	prog, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	p, err := ir.Generate(prog)
	if err != nil {
		t.Fatalf("unexpected ir error: %v", err)
	}
	return p
}

func countOp(p *ir.Program, op ir.Op) int {
	n := 0
	for _, q := range p.Quads {
		if q.Op == op {
			n++
		}
	}
	return n
}

func TestGenerate_HelloArithmetic(t *testing.T) {
	p := generate(t, `
		fn add(a: i32, b: i32) -> i32 {
			return a + b;
		}
	`)
	if countOp(p, ir.OpFuncBegin) != 1 || countOp(p, ir.OpFuncEnd) != 1 {
		t.Fatalf("expected one function frame, got %s", p.Dump())
	}
	if countOp(p, ir.OpAdd) != 1 {
		t.Fatalf("expected one ADD quad, got %s", p.Dump())
	}
	if countOp(p, ir.OpReturn) != 1 {
		t.Fatalf("expected one RETURN quad, got %s", p.Dump())
	}
}

func TestGenerate_WhileLoop(t *testing.T) {
	p := generate(t, `
		fn count() -> i32 {
			let mut x = 0;
			while x < 10 {
				x = x + 1;
			}
			return x;
		}
	`)
	if countOp(p, ir.OpLt) != 1 {
		t.Fatalf("expected one LT quad, got %s", p.Dump())
	}
	if countOp(p, ir.OpIfFalseGoto) != 1 {
		t.Fatalf("expected one IF_FALSE_GOTO quad, got %s", p.Dump())
	}
	if countOp(p, ir.OpGoto) != 1 {
		t.Fatalf("expected one GOTO quad (loop back-edge), got %s", p.Dump())
	}
}

func TestGenerate_ForRangeWithContinue(t *testing.T) {
	p := generate(t, `
		fn sum() -> i32 {
			let mut total = 0;
			for i in 0..5 {
				if i == 2 {
					continue;
				}
				total = total + i;
			}
			return total;
		}
	`)
	// for-range desugars to a counter-based while: one LT comparison against
	// the cached end bound, plus one back-edge GOTO to the top label and one
	// GOTO from continue.
	if countOp(p, ir.OpLt) != 1 {
		t.Fatalf("expected one LT quad for the range test, got %s", p.Dump())
	}
	if countOp(p, ir.OpGoto) < 2 {
		t.Fatalf("expected at least 2 GOTO quads (continue + back-edge), got %s", p.Dump())
	}
}

func TestGenerate_FunctionCallParamOrderIsReversed(t *testing.T) {
	p := generate(t, `
		fn add(a: i32, b: i32) -> i32 {
			return a + b;
		}
		fn f() -> i32 {
			return add(1, 2);
		}
	`)
	var params []string
	for _, q := range p.Quads {
		if q.Op == ir.OpParam {
			params = append(params, q.A1)
		}
	}
	if len(params) != 2 || params[0] != "2" || params[1] != "1" {
		t.Fatalf("expected PARAM order [2, 1] (reversed), got %v\n%s", params, p.Dump())
	}
}

func TestGenerate_ArrayAndTupleLowering(t *testing.T) {
	p := generate(t, `
		fn f() -> i32 {
			let a = [1, 2, 3];
			let t = (1, 2);
			let x = a[0];
			let y = t.1;
			return x + y;
		}
	`)
	if countOp(p, ir.OpArrInit) != 1 || countOp(p, ir.OpArrStore) != 3 || countOp(p, ir.OpArrLoad) != 1 {
		t.Fatalf("unexpected array quads:\n%s", p.Dump())
	}
	if countOp(p, ir.OpTupInit) != 1 || countOp(p, ir.OpTupStore) != 2 || countOp(p, ir.OpTupLoad) != 1 {
		t.Fatalf("unexpected tuple quads:\n%s", p.Dump())
	}
}

func TestGenerate_StoreOperandOrderIsValueIndexContainer(t *testing.T) {
	p := generate(t, `
		fn f() {
			let mut a = [0, 0];
			a[1] = 7;
		}
	`)
	var stores []ir.Quad
	for _, q := range p.Quads {
		if q.Op == ir.OpArrStore {
			stores = append(stores, q)
		}
	}
	if len(stores) != 3 {
		t.Fatalf("expected 3 ARR_STORE quads, got %s", p.Dump())
	}
	// a[1] = 7 lowers to (ARR_STORE, 7, 1, a): value, index, container.
	last := stores[2]
	if last.A1 != "7" || last.A2 != "1" || last.Dst != "a" {
		t.Fatalf("ARR_STORE operands = (%s, %s, %s), want (7, 1, a)", last.A1, last.A2, last.Dst)
	}
}

func TestGenerate_BorrowIsRejectedAtCodegen(t *testing.T) {
	prog, err := parser.Parse(`
		fn f() {
			let x = 1;
			let r = &x;
			let y = r;
		}
	`)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	_, err = ir.Generate(prog)
	if err == nil {
		t.Fatal("expected an IR generation error for the borrow expression")
	}
	if !strings.Contains(err.Error(), "unsupported_borrow_codegen") {
		t.Fatalf("expected unsupported_borrow_codegen in error, got %v", err)
	}
}

func TestGenerate_LogicalOperatorsShortCircuit(t *testing.T) {
	p := generate(t, `
		fn f() -> bool {
			return true || false;
		}
	`)
	if countOp(p, ir.OpIfFalseGoto) == 0 {
		t.Fatalf("expected short-circuit branching for ||, got %s", p.Dump())
	}
}

func TestDump_FormatsIndexPrefixedQuads(t *testing.T) {
	p := generate(t, `
		fn f() -> i32 {
			return 1;
		}
	`)
	out := p.Dump()
	if !strings.HasPrefix(out, "0: (FUNC_BEGIN") {
		t.Fatalf("expected dump to start with indexed FUNC_BEGIN, got %q", out)
	}
}
