package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"portfolioBench/internal/client"
	"portfolioBench/internal/portfolio"
	"portfolioBench/internal/store"
)

// defaultCmd is the top-level command for the saved default portfolio.
type defaultCmd struct{}

func (*defaultCmd) Name() string     { return "default" }
func (*defaultCmd) Synopsis() string { return "show, save or reset the default portfolio" }
func (*defaultCmd) Usage() string {
	return `default <get|set|reset> <options>

Manages the default portfolio stored by the backend.
`
}
func (c *defaultCmd) SetFlags(f *flag.FlagSet) {}

func (c *defaultCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	commander := subcommands.NewCommander(f, "default")
	commander.Register(&defaultGetCmd{}, "")
	commander.Register(&defaultSetCmd{}, "")
	commander.Register(&defaultResetCmd{}, "")
	return commander.Execute(ctx, args...)
}

type defaultGetCmd struct{}

func (*defaultGetCmd) Name() string           { return "get" }
func (*defaultGetCmd) Synopsis() string       { return "print the saved default portfolio" }
func (*defaultGetCmd) Usage() string          { return "default get\n" }
func (*defaultGetCmd) SetFlags(*flag.FlagSet) {}

func (*defaultGetCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	backend, _ := newClient()
	p, err := backend.LoadDefault(ctx)
	switch {
	case errors.Is(err, client.ErrNoDefault):
		fmt.Printf("%s (built-in, nothing saved)\n", portfolio.DefaultPortfolio())
		return subcommands.ExitSuccess
	case err != nil:
		fmt.Fprintf(os.Stderr, "Error loading default portfolio: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Println(p.String())
	return subcommands.ExitSuccess
}

type defaultSetCmd struct{}

func (*defaultSetCmd) Name() string     { return "set" }
func (*defaultSetCmd) Synopsis() string { return "save a portfolio as the default" }
func (*defaultSetCmd) Usage() string {
	return `default set SYMBOL:WEIGHT ...

  Validates and saves the portfolio, e.g. default set VNM:30 VIC:30 HPG:40
`
}
func (*defaultSetCmd) SetFlags(*flag.FlagSet) {}

func (*defaultSetCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	draft, err := portfolio.ParseHoldings(f.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	backend, log := newClient()
	p, err := store.New(backend, nil, log).SaveDefault(ctx, draft)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Saved: %s\n", p)
	return subcommands.ExitSuccess
}

type defaultResetCmd struct{}

func (*defaultResetCmd) Name() string           { return "reset" }
func (*defaultResetCmd) Synopsis() string       { return "save the built-in portfolio as the default" }
func (*defaultResetCmd) Usage() string          { return "default reset\n" }
func (*defaultResetCmd) SetFlags(*flag.FlagSet) {}

func (*defaultResetCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	backend, log := newClient()
	p, err := store.New(backend, nil, log).ResetDefault(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Reset to: %s\n", p)
	return subcommands.ExitSuccess
}
