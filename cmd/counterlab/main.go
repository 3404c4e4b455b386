// Package main implements the counterlab CLI tool.
//
// counterlab runs experiments against the shared counter program and checks
// that each one behaves as expected:
//
//	counterlab run                 # one guarded run, must end at 0
//	counterlab repeat              # many guarded runs, all must end at 0
//	counterlab drift               # runs without the lock until an update is lost
//	counterlab peek                # reads before the join, then after
//	counterlab audit [--unguarded] [--peek]
//	                               # happens-before race audit
//	counterlab version             # show version information
//
// Experiments are configured by a YAML plan given with --plan; see lab.Plan
// for the fields. Results are printed to stdout, logs to stderr. The exit
// status is 1 when an experiment's expectation fails.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jessevdk/go-flags"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, ferr.Message)
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run parses args, executes the selected command and writes its output to out.
func run(args []string, out io.Writer) error {
	parser := newParser(out)
	_, err := parser.ParseArgs(args)
	return err
}
