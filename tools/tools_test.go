package tools_test

import (
	"strings"
	"testing"

	"github.com/Flesymeb/rustlikec/ir"
	"github.com/Flesymeb/rustlikec/parser"
	"github.com/Flesymeb/rustlikec/sema"
	"github.com/Flesymeb/rustlikec/tools"
)

func TestFormatIR_DefaultMatchesDump(t *testing.T) {
	prog, err := parser.Parse(`fn f() -> i32 { return 1; }`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	irProg, err := ir.Generate(prog)
	if err != nil {
		t.Fatalf("ir error: %v", err)
	}
	if got, want := tools.FormatIR(irProg, nil), irProg.Dump(); got != want {
		t.Errorf("FormatIR(default) = %q, want %q", got, want)
	}
}

func TestFormatIR_CompactHasNoIndex(t *testing.T) {
	prog, _ := parser.Parse(`fn f() -> i32 { return 1; }`)
	irProg, _ := ir.Generate(prog)
	out := tools.FormatIR(irProg, &tools.FormatOptions{Style: tools.FormatCompact})
	if strings.Contains(out, "0:") {
		t.Errorf("compact format should omit the index prefix, got %q", out)
	}
}

func TestFromDiagnostics_MapsCodesToSeverity(t *testing.T) {
	prog, _ := parser.Parse(`
		fn f() {
			let x = 1;
			x = 2;
		}
	`)
	diags := sema.Analyze(prog)
	findings := tools.FromDiagnostics(diags)
	if len(findings) != len(diags) {
		t.Fatalf("expected %d findings, got %d", len(diags), len(findings))
	}
	foundError := false
	for _, f := range findings {
		if f.Severity == tools.SeverityError {
			foundError = true
		}
	}
	if !foundError {
		t.Error("expected at least one error-severity finding for the immutable assignment")
	}
}

func TestLint_MutNeverReassigned(t *testing.T) {
	prog, err := parser.Parse(`
		fn f() {
			let mut x = 1;
			let mut y = 2;
			y = x;
		}
	`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	findings := tools.Lint(prog)
	if len(findings) != 1 {
		t.Fatalf("expected exactly one finding, got %v", findings)
	}
	if !strings.Contains(findings[0].Message, "'x'") {
		t.Errorf("expected the finding to name x, got %q", findings[0].Message)
	}
}

func TestLint_LoopWithoutBreak(t *testing.T) {
	prog, err := parser.Parse(`
		fn f() {
			loop {
				let x = 1;
			}
		}
	`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	findings := tools.Lint(prog)
	if len(findings) != 1 || !strings.Contains(findings[0].Message, "break") {
		t.Fatalf("expected a loop-without-break finding, got %v", findings)
	}
}

func TestLint_LoopWithConditionalBreakIsClean(t *testing.T) {
	prog, err := parser.Parse(`
		fn f() {
			let mut i = 0;
			loop {
				i = i + 1;
				if i > 3 {
					break;
				}
			}
		}
	`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if findings := tools.Lint(prog); len(findings) != 0 {
		t.Fatalf("expected no findings, got %v", findings)
	}
}

func TestXref_CollectsDeclarationsAndUses(t *testing.T) {
	prog, err := parser.Parse(`
		fn add(a: i32, b: i32) -> i32 {
			return a + b;
		}
		fn f() {
			let x = add(1, 2);
		}
	`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	x := tools.Xref(prog)
	if len(x["add"]) < 2 {
		t.Errorf("expected 'add' to be cross-referenced at its declaration and call site, got %v", x["add"])
	}
	if len(x["a"]) < 2 {
		t.Errorf("expected 'a' to be cross-referenced at its param and its use, got %v", x["a"])
	}
	if len(x["x"]) != 1 {
		t.Errorf("expected 'x' to be cross-referenced once (its declaration), got %v", x["x"])
	}
}
