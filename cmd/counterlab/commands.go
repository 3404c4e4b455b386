package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/kr/pretty"

	"github.com/kolkov/sharedcounter/counter"
	"github.com/kolkov/sharedcounter/internal/lab"
	"github.com/kolkov/sharedcounter/internal/logger"
)

// globalOptions are accepted before or after any command.
type globalOptions struct {
	Verbose bool           `short:"v" long:"verbose" description:"show debug logs and full results"`
	Plan    flags.Filename `long:"plan" value-name:"FILE" description:"YAML experiment plan (default: built-in plan)"`
}

// app is the state shared by all commands of one invocation.
type app struct {
	out  io.Writer
	opts globalOptions
}

func newParser(out io.Writer) *flags.Parser {
	a := &app{out: out}

	p := flags.NewNamedParser("counterlab", flags.HelpFlag|flags.PassDoubleDash)
	p.LongDescription = "counterlab runs experiments against the shared counter program."
	must(p.AddGroup("Global options", "", &a.opts))

	must(p.AddCommand("run",
		"one guarded run",
		"Run the program once with the lock. Fails unless the final value is 0.",
		&runCmd{app: a}))
	must(p.AddCommand("repeat",
		"many guarded runs",
		"Run the program `runs` times, `parallel` at a time. Fails unless every run ends at 0.",
		&repeatCmd{app: a}))
	must(p.AddCommand("drift",
		"runs without the lock",
		"Run the program without the lock until an update is lost, at most `drift_attempts` times.\nFails if every run ends at 0.",
		&driftCmd{app: a}))
	must(p.AddCommand("peek",
		"read before join",
		"Read the counter while the workers are running, then again after joining them.",
		&peekCmd{app: a}))
	must(p.AddCommand("audit",
		"happens-before race audit",
		`Run the program under a FastTrack happens-before detector.

A guarded run must report no race and no invariant violation. With --unguarded
or --peek at least one race must be reported.`,
		&auditCmd{app: a}))
	must(p.AddCommand("version",
		"show version information",
		"Show version information.",
		&versionCmd{app: a}))
	return p
}

func must(_ interface{}, err error) {
	if err != nil {
		panic(err)
	}
}

// context returns a context carrying the logger selected by --verbose.
func (a *app) context() context.Context {
	l := logger.New(os.Stderr, logger.ParseLevel(a.opts.Verbose))
	return l.WithContext(context.Background())
}

func (a *app) plan() (lab.Plan, error) {
	if a.opts.Plan == "" {
		return lab.DefaultPlan(), nil
	}
	return lab.LoadPlan(string(a.opts.Plan))
}

// dump prints v in full when --verbose is set.
func (a *app) dump(v interface{}) {
	if a.opts.Verbose {
		pretty.Fprintf(a.out, "%# v\n", v)
	}
}

type runCmd struct {
	app *app
}

func (c *runCmd) Execute(_ []string) error {
	plan, err := c.app.plan()
	if err != nil {
		return err
	}
	res, err := lab.Once(c.app.context(), plan)
	c.app.dump(res)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.app.out, "run: value=%d iterations=%d elapsed=%s\n", res.Value, res.Iterations, res.Elapsed)
	return nil
}

type repeatCmd struct {
	app *app
}

func (c *repeatCmd) Execute(_ []string) error {
	plan, err := c.app.plan()
	if err != nil {
		return err
	}
	res, err := lab.Repeat(c.app.context(), plan)
	c.app.dump(res)
	fmt.Fprintf(c.app.out, "repeat: %d/%d runs ended at 0\n", res.Zeros, plan.Runs)
	return err
}

type driftCmd struct {
	app *app
}

func (c *driftCmd) Execute(_ []string) error {
	plan, err := c.app.plan()
	if err != nil {
		return err
	}
	res, err := lab.Drift(c.app.context(), plan)
	c.app.dump(res)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.app.out, "drift: value=%d after %d attempt(s)\n", res.Value, res.Attempts)
	return nil
}

type peekCmd struct {
	app *app
}

func (c *peekCmd) Execute(_ []string) error {
	plan, err := c.app.plan()
	if err != nil {
		return err
	}
	res, err := lab.Peek(c.app.context(), plan)
	c.app.dump(res)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.app.out, "peek: snapshot=%d final=%d\n", res.Snapshot, res.Final)
	return nil
}

type auditCmd struct {
	app *app

	Unguarded bool `long:"unguarded" description:"remove the lock from the counter"`
	Peek      bool `long:"peek" description:"read the counter before joining the workers"`
	History   bool `long:"history" description:"show the stack of the previous access in race reports"`
}

func (c *auditCmd) Execute(_ []string) error {
	plan, err := c.app.plan()
	if err != nil {
		return err
	}
	if c.History {
		plan.History = true
	}
	report, err := lab.Audit(c.app.context(), plan, c.Unguarded, c.Peek)
	if report == nil {
		return err
	}

	for i := range report.Races {
		report.Races[i].Format(c.app.out)
	}
	c.app.dump(report.Stats)
	fmt.Fprintf(c.app.out, "audit: final=%d races=%d samples=%d violations=%d\n",
		report.Final, len(report.Races), report.Sampler.Samples, report.Sampler.Violations)
	return err
}

type versionCmd struct {
	app *app
}

func (c *versionCmd) Execute(_ []string) error {
	info := counter.GetInfo()
	fmt.Fprintf(c.app.out, "counterlab version %s\n", info.Version)
	c.app.dump(info)
	return nil
}
