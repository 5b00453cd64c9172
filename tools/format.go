package tools

import (
	"fmt"
	"strings"

	"github.com/Flesymeb/rustlikec/ir"
)

// FormatStyle selects how FormatIR lays out quadruples.
type FormatStyle int

const (
	FormatDefault  FormatStyle = iota // one "i: (op, a1, a2, dst)" line per quad
	FormatCompact                     // no index prefix, comma-joined operands
	FormatExpanded                    // column-aligned operands for side-by-side diffing
)

// FormatOptions controls FormatIR's output.
type FormatOptions struct {
	Style        FormatStyle
	IndexColumn  int // column width reserved for the instruction index
	OpColumn     int // column width reserved for the operation name
	OperandWidth int // column width reserved per operand, used only by FormatExpanded
}

// DefaultFormatOptions returns the options used by the -ir output file.
func DefaultFormatOptions() *FormatOptions {
	return &FormatOptions{Style: FormatDefault, IndexColumn: 4, OpColumn: 14, OperandWidth: 8}
}

// FormatIR renders a quadruple program as text, honoring opts.Style.
func FormatIR(prog *ir.Program, opts *FormatOptions) string {
	if opts == nil {
		opts = DefaultFormatOptions()
	}
	var b strings.Builder
	for i, q := range prog.Quads {
		switch opts.Style {
		case FormatCompact:
			fmt.Fprintf(&b, "%s(%s,%s,%s)\n", q.Op, operandOrDash(q.A1), operandOrDash(q.A2), operandOrDash(q.Dst))
		case FormatExpanded:
			idx := fmt.Sprintf("%d:", i)
			fmt.Fprintf(&b, "%-*s%-*s%-*s%-*s%-*s\n",
				opts.IndexColumn, idx,
				opts.OpColumn, string(q.Op),
				opts.OperandWidth, operandOrNone(q.A1),
				opts.OperandWidth, operandOrNone(q.A2),
				opts.OperandWidth, operandOrNone(q.Dst))
		default:
			fmt.Fprintf(&b, "%d: %s\n", i, q)
		}
	}
	return b.String()
}

func operandOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func operandOrNone(s string) string {
	if s == "" {
		return "None"
	}
	return s
}
