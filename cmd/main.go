// Command rustlikec compiles a small Rust-flavored language to MIPS32
// assembly, following the lexer -> parser -> sema -> ir -> codegen pipeline.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/Flesymeb/rustlikec/api"
	"github.com/Flesymeb/rustlikec/codegen"
	"github.com/Flesymeb/rustlikec/config"
	"github.com/Flesymeb/rustlikec/ir"
	"github.com/Flesymeb/rustlikec/parser"
	"github.com/Flesymeb/rustlikec/sema"
	"github.com/Flesymeb/rustlikec/tools"
)

// Version is overridden at build time with -ldflags "-X main.Version=v1.2.3".
var Version = "dev"

// compileLog traces pipeline progress; it stays discarded unless -verbose.
var compileLog = log.New(io.Discard, "COMPILE: ", log.LstdFlags)

const (
	exitOK = iota
	exitSyntax
	exitSemantic
	exitIO
)

func main() {
	var (
		irOnly      = flag.Bool("ir", false, "stop after IR emission")
		emitAsm     = flag.Bool("asm", true, "emit assembly")
		outDir      = flag.String("out", "", "output directory (default: alongside source)")
		configPath  = flag.String("config", "", "path to a TOML config file (default: search ./rustlikec.toml)")
		apiServer   = flag.Bool("api-server", false, "start the HTTP compile-as-a-service API")
		apiPort     = flag.Int("port", 8080, "API server port (used with -api-server)")
		verbose     = flag.Bool("verbose", false, "verbose diagnostics to stderr")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *verbose {
		compileLog.SetOutput(os.Stderr)
	}

	if *showVersion {
		fmt.Printf("rustlikec %s\n", Version)
		os.Exit(exitOK)
	}

	cfg := loadConfig(*configPath)

	if *apiServer {
		port := *apiPort
		if !flagPassed("port") {
			port = cfg.API.Port
		}
		server := api.NewServer(port)
		if err := server.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "API server error: %v\n", err)
			os.Exit(exitIO)
		}
		return
	}

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: rustlikec [flags] <source.rs>")
		os.Exit(exitIO)
	}

	srcPath := flag.Arg(0)
	src, err := os.ReadFile(srcPath) // #nosec G304 -- user-specified source path
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot read %s: %v\n", srcPath, err)
		os.Exit(exitIO)
	}

	compileLog.Printf("parsing %s", srcPath)

	os.Exit(compile(string(src), srcPath, cfg, *irOnly, *emitAsm, *outDir))
}

func compile(src, srcPath string, cfg *config.Config, irOnly, emitAsm bool, outDir string) int {
	prog, err := parser.Parse(src)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return exitSyntax
	}

	diags := sema.Analyze(prog)
	hasFatal := false
	for _, d := range diags {
		fmt.Fprintln(os.Stderr, renderDiagnostic(d, cfg.Diagnostics))
		if !d.Code.IsWarning() {
			hasFatal = true
		}
	}
	if hasFatal {
		return exitSemantic
	}

	for _, f := range tools.Lint(prog) {
		compileLog.Printf("lint %s at %s: %s", f.Severity, f.Pos, f.Message)
	}

	irProg, err := ir.Generate(prog)
	if err != nil {
		fmt.Fprintf(os.Stderr, "internal error: %v\n", err)
		return exitSemantic
	}

	stem := strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))
	dir := outDir
	if dir == "" {
		dir = filepath.Dir(srcPath)
		if cfg.Emit.OutDir != "." && cfg.Emit.OutDir != "" {
			dir = cfg.Emit.OutDir
		}
	}

	irPath := filepath.Join(dir, stem+".ir")
	if err := os.WriteFile(irPath, []byte(tools.FormatIR(irProg, nil)), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot write %s: %v\n", irPath, err)
		return exitIO
	}
	compileLog.Printf("wrote %s", irPath)

	if irOnly || !emitAsm {
		return exitOK
	}

	asm, err := codegen.EmitWithOptions(irProg, cfg.Emit.StackBaseValue(), cfg.Emit.RegisterCount)
	if err != nil {
		fmt.Fprintf(os.Stderr, "internal error: %v\n", err)
		return exitSemantic
	}

	asmPath := filepath.Join(dir, stem+".asm")
	if err := os.WriteFile(asmPath, []byte(asm), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot write %s: %v\n", asmPath, err)
		return exitIO
	}
	compileLog.Printf("wrote %s", asmPath)

	return exitOK
}

const (
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiReset  = "\x1b[0m"
)

// renderDiagnostic applies the [diagnostics] config section to one
// diagnostic: suggestions are dropped when show_suggestions is off, and
// color_output wraps the text in red (errors) or yellow (warnings).
func renderDiagnostic(d sema.Diagnostic, opts config.DiagnosticsConfig) string {
	if !opts.ShowSuggestions {
		d.Suggestion = ""
	}
	s := d.String()
	if !opts.ColorOutput {
		return s
	}
	if d.Code.IsWarning() {
		return ansiYellow + s + ansiReset
	}
	return ansiRed + s + ansiReset
}

func loadConfig(path string) *config.Config {
	if path == "" {
		if _, err := os.Stat("rustlikec.toml"); err == nil {
			path = "rustlikec.toml"
		}
	}
	if path == "" {
		return config.DefaultConfig()
	}
	cfg, err := config.Load(path)
	if err != nil {
		compileLog.Printf("failed to load config %s: %v", path, err)
		return config.DefaultConfig()
	}
	return cfg
}

func flagPassed(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}
