package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/mgdickerson/cRust-sub000/internal/ast"
	"github.com/mgdickerson/cRust-sub000/internal/compiler"
	"github.com/mgdickerson/cRust-sub000/internal/errors"
	"github.com/mgdickerson/cRust-sub000/internal/parser"
)

// dlxc is the command-line driver over internal/compiler's three host
// operations. Grounded on the teacher's cmd/kanso-cli/main.go (a single
// main() reading a file, parsing it, and reporting errors with
// color-coded output), generalized from kanso's one-shot "parse and
// print the AST" driver into two subcommands spanning the full
// build-to-DLX pipeline.
func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		os.Exit(runCmd(os.Args[2:]))
	case "check":
		os.Exit(checkCmd(os.Args[2:]))
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Usage: dlxc <run|check> [flags] file.pl0")
}

func runCmd(args []string) int {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	emit := fs.String("emit", "asm", "output format: asm or words")
	dumpIR := fs.Bool("dump-ir", false, "print the built SSA program before optimization")
	fs.Parse(args)

	if fs.NArg() != 1 {
		usage()
		return 1
	}
	path := fs.Arg(0)

	comp, reporter, ok := parseFile(path)
	if !ok {
		return 1
	}

	c := compiler.New()
	ctx, err := c.BuildSSA(comp)
	if err != nil {
		printDiagnostics(reporter, ctx.Diagnostics)
		color.Red("%s", err)
		return 1
	}

	if *dumpIR {
		fmt.Println(ctx.Program.String())
	}

	if err := c.Optimize(ctx); err != nil {
		printDiagnostics(reporter, ctx.Diagnostics)
		color.Red("%s", err)
		return 1
	}

	lp, err := c.AllocateAndLower(ctx)
	printDiagnostics(reporter, ctx.Diagnostics)
	if err != nil {
		color.Red("%s", err)
		return 1
	}

	switch *emit {
	case "words":
		for _, w := range lp.Words() {
			fmt.Printf("%08x\n", w)
		}
	case "asm":
		fmt.Print(lp.String())
	default:
		color.Red("unknown -emit value %q (want asm or words)", *emit)
		return 1
	}
	return 0
}

func checkCmd(args []string) int {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() != 1 {
		usage()
		return 1
	}
	path := fs.Arg(0)

	comp, reporter, ok := parseFile(path)
	if !ok {
		return 1
	}

	c := compiler.New()
	ctx, err := c.BuildSSA(comp)
	if err == nil {
		err = c.Optimize(ctx)
	}
	printDiagnostics(reporter, ctx.Diagnostics)
	if err != nil || ctx.Fatal {
		if err != nil {
			color.Red("%s", err)
		}
		return 1
	}

	color.Green("%s: no errors", path)
	return 0
}

// parseFile reads and parses path, reporting any syntax errors with a
// reporter the caller reuses for every later semantic/capacity
// diagnostic, so every message in one run is positioned against the
// same source text.
func parseFile(path string) (*ast.Computation, *errors.ErrorReporter, bool) {
	data, readErr := os.ReadFile(path)
	if readErr != nil {
		color.Red("cannot read %s: %s", path, readErr)
		return nil, nil, false
	}
	source := string(data)
	reporter := errors.NewErrorReporter(path, source)

	comp, syntaxErrs := parser.Parse(path, source)
	if len(syntaxErrs) > 0 {
		for _, se := range syntaxErrs {
			fmt.Println(reporter.FormatError(errors.CompilerError{
				Level:    errors.Error,
				Code:     "E0100",
				Message:  se.Message,
				Position: se.Pos,
				Length:   1,
			}))
		}
		return nil, reporter, false
	}
	return comp, reporter, true
}

func printDiagnostics(reporter *errors.ErrorReporter, diags []errors.CompilerError) {
	for _, d := range diags {
		fmt.Println(reporter.FormatError(d))
	}
}
