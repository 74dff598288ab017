package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path"

	"github.com/google/subcommands"
	"github.com/rs/zerolog"

	"portfolioBench/internal/client"
	"portfolioBench/internal/config"
	"portfolioBench/internal/logger"
)

var (
	apiURL  = flag.String("api", "", "performance backend root (default $PORTFOLIO_API_URL)")
	verbose = flag.Bool("v", false, "log requests to stderr")
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(&perfCmd{}, "")
	commander.Register(&defaultCmd{}, "")
	commander.Register(&windowsCmd{}, "")

	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(int(commander.Execute(ctx)))
}

// newLogger logs to stderr only with -v.
func newLogger(cfg config.Config) zerolog.Logger {
	if !*verbose {
		return zerolog.Nop()
	}
	return logger.New(logger.Config{Level: cfg.LogLevel, Pretty: true, Out: os.Stderr})
}

// newClient builds the backend client from -api or the environment.
func newClient() (*client.Client, zerolog.Logger) {
	cfg := config.Load()
	if *apiURL != "" {
		cfg.APIURL = *apiURL
	}
	log := newLogger(cfg)
	return client.New(cfg.APIURL, log), log
}
