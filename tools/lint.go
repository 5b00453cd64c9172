package tools

import (
	"github.com/Flesymeb/rustlikec/ast"
	"github.com/Flesymeb/rustlikec/lexer"
	"github.com/Flesymeb/rustlikec/sema"
)

// Severity distinguishes a blocking finding from an advisory one.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Finding is one lint result: severity and position without the toolchain's
// printed-message formatting, a shape meant for editor/CI integration.
type Finding struct {
	Severity Severity
	Message  string
	Pos      lexer.Position
}

// Lint reports style findings the semantic analyzer does not: a `mut`
// binding that is never reassigned, and a `loop` with no reachable `break`.
// Both are advisory; neither affects compilation.
func Lint(prog *ast.Program) []Finding {
	var findings []Finding
	for _, fn := range prog.Functions {
		assigned := make(map[string]bool)
		walkStmts(fn.Body, func(s ast.Stmt) {
			if a, ok := s.(*ast.Assign); ok {
				if name, ok := assignBase(a.Place); ok {
					assigned[name] = true
				}
			}
		})
		walkStmts(fn.Body, func(s ast.Stmt) {
			switch n := s.(type) {
			case *ast.Let:
				if n.Mutable && !assigned[n.Name] {
					findings = append(findings, Finding{
						Severity: SeverityWarning,
						Message:  "variable '" + n.Name + "' is declared mut but never reassigned",
						Pos:      n.Pos,
					})
				}
			case *ast.Loop:
				if !hasBreak(n.Body) {
					findings = append(findings, Finding{
						Severity: SeverityWarning,
						Message:  "loop has no break and never terminates",
						Pos:      n.Pos,
					})
				}
			}
		})
	}
	return findings
}

// FromDiagnostics converts accumulated semantic diagnostics into Findings.
// It performs no analysis of its own; sema.Analyze has already done that.
// This is the boundary between the compiler's internal Diagnostic type and
// a shape meant for editor/CI integration.
func FromDiagnostics(diags []sema.Diagnostic) []Finding {
	findings := make([]Finding, len(diags))
	for i, d := range diags {
		sev := SeverityError
		if d.Code.IsWarning() {
			sev = SeverityWarning
		}
		findings[i] = Finding{Severity: sev, Message: d.Message, Pos: d.Pos}
	}
	return findings
}

// assignBase resolves an lvalue to the name it ultimately stores through.
func assignBase(e ast.Expr) (string, bool) {
	switch p := e.(type) {
	case *ast.Ident:
		return p.Name, true
	case *ast.Index:
		return assignBase(p.Arr)
	case *ast.TupleField:
		return assignBase(p.Tup)
	}
	return "", false
}

// hasBreak reports whether a block contains a break bound to the loop that
// directly encloses it. Nested while/for/loop bodies are not entered: a
// break there targets the inner loop instead.
func hasBreak(b *ast.Block) bool {
	for _, s := range b.Stmts {
		switch n := s.(type) {
		case *ast.Break:
			return true
		case *ast.If:
			if hasBreak(n.Then) {
				return true
			}
			for _, ei := range n.Elifs {
				if hasBreak(ei.Then) {
					return true
				}
			}
			if n.Else != nil && hasBreak(n.Else) {
				return true
			}
		case *ast.Block:
			if hasBreak(n) {
				return true
			}
		}
	}
	return false
}

// walkStmts visits every statement in a block, recursing into nested
// control-flow bodies.
func walkStmts(b *ast.Block, visit func(ast.Stmt)) {
	for _, s := range b.Stmts {
		visit(s)
		switch n := s.(type) {
		case *ast.If:
			walkStmts(n.Then, visit)
			for _, ei := range n.Elifs {
				walkStmts(ei.Then, visit)
			}
			if n.Else != nil {
				walkStmts(n.Else, visit)
			}
		case *ast.While:
			walkStmts(n.Body, visit)
		case *ast.For:
			walkStmts(n.Body, visit)
		case *ast.Loop:
			walkStmts(n.Body, visit)
		case *ast.Block:
			walkStmts(n, visit)
		}
	}
}
