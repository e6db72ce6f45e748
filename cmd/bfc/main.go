// Command bfc compiles and pretty-prints an optimized Brainfuck program.
package main

import (
	"os"

	"bfc/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Stdin, os.Stdout, os.Stderr, os.Args[1:]))
}
