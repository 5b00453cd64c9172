// Package integration exercises the full lexer -> parser -> sema -> ir ->
// codegen pipeline end to end, one scenario per test.
package integration_test

import (
	"strings"
	"testing"

	"github.com/Flesymeb/rustlikec/codegen"
	"github.com/Flesymeb/rustlikec/ir"
	"github.com/Flesymeb/rustlikec/parser"
	"github.com/Flesymeb/rustlikec/sema"
)

func quadStrings(t *testing.T, prog *ir.Program) []string {
	t.Helper()
	out := make([]string, len(prog.Quads))
	for i, q := range prog.Quads {
		out[i] = string(q.Op)
	}
	return out
}

func containsSubsequence(haystack, needle []string) bool {
	j := 0
	for _, h := range haystack {
		if j < len(needle) && h == needle[j] {
			j++
		}
	}
	return j == len(needle)
}

func TestScenario_HelloArithmetic(t *testing.T) {
	prog, err := parser.Parse(`fn main() { let mut x: i32 = 1; x = x + 2; return; }`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	diags := sema.Analyze(prog)
	for _, d := range diags {
		if !d.Code.IsWarning() {
			t.Fatalf("unexpected semantic error: %v", d)
		}
	}
	irProg, err := ir.Generate(prog)
	if err != nil {
		t.Fatalf("ir error: %v", err)
	}

	ops := quadStrings(t, irProg)
	if !containsSubsequence(ops, []string{"ASSIGN", "ADD", "ASSIGN", "RETURN"}) {
		t.Fatalf("expected ASSIGN, ADD, ASSIGN, RETURN subsequence, got %v", ops)
	}

	asm, err := codegen.Emit(irProg)
	if err != nil {
		t.Fatalf("codegen error: %v", err)
	}
	if !strings.Contains(asm, "add") || !strings.Contains(asm, "sw") {
		t.Errorf("expected add/sw in assembly, got %s", asm)
	}
}

func TestScenario_WhileLoop(t *testing.T) {
	prog, err := parser.Parse(`fn main() { let mut i:i32 = 0; while i < 10 { i = i + 1; } }`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	irProg, err := ir.Generate(prog)
	if err != nil {
		t.Fatalf("ir error: %v", err)
	}

	ops := quadStrings(t, irProg)
	want := []string{"LABEL", "LT", "IF_FALSE_GOTO", "ADD", "ASSIGN", "GOTO", "LABEL"}
	if !containsSubsequence(ops, want) {
		t.Fatalf("expected %v subsequence, got %v", want, ops)
	}
}

func TestScenario_ForRangeWithContinue(t *testing.T) {
	prog, err := parser.Parse(`fn main(){ let mut s:i32=0; for i in 0..5 { s = s + i; continue; } }`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	irProg, err := ir.Generate(prog)
	if err != nil {
		t.Fatalf("ir error: %v", err)
	}

	ops := quadStrings(t, irProg)
	want := []string{"ASSIGN", "LABEL", "LT", "IF_FALSE_GOTO", "ADD", "GOTO", "LABEL", "ADD", "GOTO", "LABEL"}
	if !containsSubsequence(ops, want) {
		t.Fatalf("expected %v subsequence, got %v", want, ops)
	}
}

func TestScenario_ImmutableAssignmentIsFatalAndBlocksCodegen(t *testing.T) {
	prog, err := parser.Parse(`fn main(){ let x:i32 = 1; x = 2; }`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	diags := sema.Analyze(prog)

	fatal := 0
	for _, d := range diags {
		if d.Code == sema.ErrImmutableAssignment {
			fatal++
		}
	}
	if fatal != 1 {
		t.Fatalf("expected exactly one immutable_assignment diagnostic, got %d (%v)", fatal, diags)
	}

	blocked := false
	for _, d := range diags {
		if !d.Code.IsWarning() {
			blocked = true
		}
	}
	if !blocked {
		t.Error("expected the fatal diagnostic to block codegen")
	}
}

func TestScenario_UnusedVariableWarningOnlyStillProducesOutput(t *testing.T) {
	prog, err := parser.Parse(`fn main(){ let y:i32 = 3; }`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	diags := sema.Analyze(prog)

	foundWarning := false
	for _, d := range diags {
		if !d.Code.IsWarning() {
			t.Fatalf("expected no fatal diagnostics, got %v", d)
		}
		if d.Code == sema.WarnUnusedVariable {
			foundWarning = true
		}
	}
	if !foundWarning {
		t.Fatalf("expected a warning_unused_variable diagnostic, got %v", diags)
	}

	irProg, err := ir.Generate(prog)
	if err != nil {
		t.Fatalf("ir error: %v", err)
	}
	if _, err := codegen.Emit(irProg); err != nil {
		t.Fatalf("codegen error: %v", err)
	}
}

func TestScenario_FunctionCallArityMismatchBlocksCodegen(t *testing.T) {
	prog, err := parser.Parse(`
		fn add(a:i32,b:i32)->i32{ return a+b; }
		fn main(){ let z:i32 = add(1); }
	`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	diags := sema.Analyze(prog)

	found := false
	for _, d := range diags {
		if d.Code == sema.ErrFunctionArgs {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a function_args diagnostic, got %v", diags)
	}
}
