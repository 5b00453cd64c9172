package api

import (
	"github.com/Flesymeb/rustlikec/codegen"
	"github.com/Flesymeb/rustlikec/ir"
	"github.com/Flesymeb/rustlikec/parser"
	"github.com/Flesymeb/rustlikec/sema"
)

const (
	exitOK       = 0
	exitSyntax   = 1
	exitSemantic = 2
)

func toPayloads(diags []sema.Diagnostic) []DiagnosticPayload {
	out := make([]DiagnosticPayload, len(diags))
	for i, d := range diags {
		out[i] = DiagnosticPayload{
			Code:       string(d.Code),
			Message:    d.Message,
			Line:       d.Pos.Line,
			Column:     d.Pos.Column,
			Warning:    d.Code.IsWarning(),
			Suggestion: d.Suggestion,
		}
	}
	return out
}

// runCompile executes the full pipeline synchronously for the request handler.
func runCompile(source string) CompileResponse {
	prog, err := parser.Parse(source)
	if err != nil {
		return CompileResponse{
			Diagnostics: []DiagnosticPayload{{Code: "syntax_error", Message: err.Error(), Warning: false}},
			ExitCode:    exitSyntax,
		}
	}

	diags := sema.Analyze(prog)
	payloads := toPayloads(diags)
	for _, d := range diags {
		if !d.Code.IsWarning() {
			return CompileResponse{Diagnostics: payloads, ExitCode: exitSemantic}
		}
	}

	irProg, err := ir.Generate(prog)
	if err != nil {
		return CompileResponse{
			Diagnostics: append(payloads, DiagnosticPayload{Code: "internal_error", Message: err.Error()}),
			ExitCode:    exitSemantic,
		}
	}

	asm, err := codegen.Emit(irProg)
	if err != nil {
		return CompileResponse{
			Diagnostics: append(payloads, DiagnosticPayload{Code: "internal_error", Message: err.Error()}),
			IR:          irProg.Dump(),
			ExitCode:    exitSemantic,
		}
	}

	return CompileResponse{Diagnostics: payloads, IR: irProg.Dump(), Asm: asm, ExitCode: exitOK}
}

// runCompileStaged runs the same pipeline but emits one event per stage,
// stopping as soon as a stage reports a fatal outcome.
func runCompileStaged(source string, emit func(StageEvent)) {
	emit(StageEvent{Stage: "lex"})

	prog, err := parser.Parse(source)
	if err != nil {
		emit(StageEvent{Stage: "parse", Error: err.Error()})
		code := exitSyntax
		emit(StageEvent{Stage: "done", ExitCode: &code})
		return
	}
	emit(StageEvent{Stage: "parse"})

	diags := sema.Analyze(prog)
	payloads := toPayloads(diags)
	emit(StageEvent{Stage: "sema", Diagnostics: payloads})
	for _, d := range diags {
		if !d.Code.IsWarning() {
			code := exitSemantic
			emit(StageEvent{Stage: "done", ExitCode: &code})
			return
		}
	}

	irProg, err := ir.Generate(prog)
	if err != nil {
		emit(StageEvent{Stage: "ir", Error: err.Error()})
		code := exitSemantic
		emit(StageEvent{Stage: "done", ExitCode: &code})
		return
	}
	quads := make([]string, len(irProg.Quads))
	for i, q := range irProg.Quads {
		quads[i] = q.String()
	}
	emit(StageEvent{Stage: "ir", Quads: quads})

	asm, err := codegen.Emit(irProg)
	if err != nil {
		emit(StageEvent{Stage: "asm", Error: err.Error()})
		code := exitSemantic
		emit(StageEvent{Stage: "done", ExitCode: &code})
		return
	}
	emit(StageEvent{Stage: "asm", Text: asm})

	code := exitOK
	emit(StageEvent{Stage: "done", ExitCode: &code})
}
