// cat32 - assign text to one of 32 buckets
//
// Usage:
//
//	cat32 [flags] [input...]
//
// Positional arguments are joined with spaces. With no arguments the input
// is read from stdin: a pipe is read whole (one trailing newline dropped),
// a terminal is read line by line.
//
// Exit status is 0 on success, 2 for invalid input or configuration, and
// 1 for anything else.
package main

import (
	"os"

	"github.com/mattn/go-isatty"
)

func main() {
	interactive := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr, interactive))
}
