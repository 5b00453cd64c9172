package sema

import (
	"fmt"
	"strings"

	"github.com/Flesymeb/rustlikec/lexer"
)

// Code identifies a diagnostic's kind. Names prefixed warning_ are
// non-blocking; all others are fatal errors that block code generation.
type Code string

const (
	ErrUndefinedVariable        Code = "undefined_variable"
	ErrUndefinedFunction        Code = "undefined_function"
	ErrImmutableAssignment      Code = "immutable_assignment"
	ErrTypeMismatch             Code = "type_mismatch"
	ErrFunctionArgs             Code = "function_args"
	ErrReturnTypeMismatch       Code = "return_type_mismatch"
	ErrUnsupportedBorrowCodegen Code = "unsupported_borrow_codegen"
	ErrBreakOutsideLoop         Code = "break_outside_loop"
	ErrContinueOutsideLoop      Code = "continue_outside_loop"

	WarnUnusedVariable      Code = "warning_unused_variable"
	WarnVariableShadowing   Code = "warning_variable_shadowing"
	WarnBreakValueDiscarded Code = "warning_break_value_discarded"
)

// IsWarning reports whether a code names a non-blocking diagnostic.
func (c Code) IsWarning() bool {
	return strings.HasPrefix(string(c), "warning_")
}

// Diagnostic is one error or warning produced during analysis.
type Diagnostic struct {
	Code       Code
	Pos        lexer.Position
	Message    string
	Suggestion string
}

func (d Diagnostic) String() string {
	kind := "Error"
	if d.Code.IsWarning() {
		kind = "Warning"
	}
	s := fmt.Sprintf("%s at %s: %s", kind, d.Pos, d.Message)
	if d.Suggestion != "" {
		s += "\n  Suggestion: " + d.Suggestion
	}
	return s
}

func (t *Table) addError(code Code, pos lexer.Position, msg, suggestion string) {
	t.diags = append(t.diags, Diagnostic{Code: code, Pos: pos, Message: msg, Suggestion: suggestion})
}

func (t *Table) addWarning(code Code, pos lexer.Position, msg, suggestion string) {
	t.diags = append(t.diags, Diagnostic{Code: code, Pos: pos, Message: msg, Suggestion: suggestion})
}

// Diagnostics returns every diagnostic accumulated so far, in emission order.
func (t *Table) Diagnostics() []Diagnostic { return t.diags }

// HasErrors reports whether any non-warning diagnostic was recorded.
func (t *Table) HasErrors() bool {
	for _, d := range t.diags {
		if !d.Code.IsWarning() {
			return true
		}
	}
	return false
}

// FormatDiagnostics renders every diagnostic, one per line (plus an optional
// Suggestion line), in the format used throughout the toolchain's diagnostic
// output.
func FormatDiagnostics(diags []Diagnostic) string {
	var b strings.Builder
	for _, d := range diags {
		b.WriteString(d.String())
		b.WriteByte('\n')
	}
	return b.String()
}
