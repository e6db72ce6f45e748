// Package cli implements the command-line entrypoint: read one Brainfuck
// source file, parse it, lower it to a Cfg, run the optimization
// pipeline, and print the result. Thin dispatch with fmt/log diagnostics,
// built on a testable Run(stdin, stdout, stderr, args) int entrypoint
// backed by flag.NewFlagSet(..., flag.ContinueOnError).
package cli

import (
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"

	"bfc/internal/ast"
	"bfc/internal/bferrors"
	"bfc/internal/config"
	"bfc/internal/graph"
	"bfc/internal/lowering"
	"bfc/internal/optimize"
	"bfc/internal/printer"
)

// Exit codes: 0 on success, 1 when the source fails to parse, 2 for a
// usage or filesystem error.
const (
	ExitOK       = 0
	ExitParseErr = 1
	ExitUsageErr = 2
)

// isTerminal reports whether a file descriptor is a terminal. It is a
// package variable so the check can be replaced; a writer without an Fd
// method (such as a bytes.Buffer) never reaches it.
var isTerminal = func(f uintptr) bool { return isatty.IsTerminal(f) }

// Run is the CLI entrypoint. It parses args, reads the named source file
// from the filesystem (this tool always takes a file path argument, not
// piped stdin), compiles it, and writes the pretty-printed result to
// stdout. Typical usage:
//
//	os.Exit(cli.Run(os.Stdin, os.Stdout, os.Stderr, os.Args[1:]))
func Run(stdin io.Reader, stdout, stderr io.Writer, args []string) int {
	flags := flag.NewFlagSet("bfc", flag.ContinueOnError)
	flags.SetOutput(stderr)

	statsFlag := flags.Bool("stats", false, "print source size and compile duration to stderr")
	colorFlag := flags.String("color", "auto", "colorize output: auto, always, never")
	unsoundFlag := flags.Bool("unsound-hoist-guards", false,
		"hoist guard effects out of closed-form loops unconditionally, instead of wrapping in a zero-check")

	flags.Usage = func() {
		fmt.Fprintln(stderr, "Usage: bfc [flags] <source-file>")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return ExitUsageErr
		}
		return ExitUsageErr
	}

	rest := flags.Args()
	if len(rest) != 1 {
		fmt.Fprintln(stderr, "Error: expected exactly one source file argument")
		flags.Usage()
		return ExitUsageErr
	}
	path := rest[0]

	start := time.Now()
	src, err := ioutil.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitUsageErr
	}

	a := graph.NewArena()
	instrs, err := parse(src)
	if err != nil {
		var pe *bferrors.ParseError
		if errors.As(err, &pe) {
			fmt.Fprintf(stderr, "%s: %s\n", path, pe.Error())
			return ExitParseErr
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitUsageErr
	}

	root := lowering.Lower(a, instrs)
	conf := config.Default()
	conf.UnsoundHoistGuards = *unsoundFlag
	root = optimize.NewPipeline().Run(a, root, conf)

	out := printer.Print(a, root)
	if wantColor(*colorFlag, stdout) {
		out = colorize(out)
	}
	fmt.Fprint(stdout, out)

	if *statsFlag {
		fmt.Fprintf(stderr, "session %s: %s in, %d nodes, compiled in %s\n",
			a.SessionID, humanize.Bytes(uint64(len(src))), a.Len(), time.Since(start))
	}

	return ExitOK
}

// parse wraps ast.Parse so a failure is reported with bferrors.ParseError's
// concrete type available to errors.As, letting Run distinguish a parse
// error from a usage/I-O error for its exit code.
func parse(src []byte) ([]ast.Instr, error) {
	instrs, err := ast.Parse(src)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return instrs, nil
}

// wantColor decides whether to colorize stdout: "always"/"never" are
// explicit overrides, "auto" (the default) colorizes only when stdout is a
// terminal.
func wantColor(mode string, stdout io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	default:
		if f, ok := stdout.(interface{ Fd() uintptr }); ok {
			return isTerminal(f.Fd())
		}
		return false
	}
}
