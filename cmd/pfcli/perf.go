package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/google/subcommands"

	"portfolioBench/internal/analytics"
	"portfolioBench/internal/coordinator"
	"portfolioBench/internal/finance"
	"portfolioBench/internal/portfolio"
	"portfolioBench/internal/store"
)

// perfCmd holds the flags for the 'perf' subcommand.
type perfCmd struct {
	window string
	recent int
	png    string
}

func (*perfCmd) Name() string     { return "perf" }
func (*perfCmd) Synopsis() string { return "compare a portfolio against VNIndex" }
func (*perfCmd) Usage() string {
	return `pfcli perf [-w <window>] [-n <rows>] [-png <file>] [SYMBOL:WEIGHT ...]

  Compares the given portfolio, or the saved default when none is given,
  with VNIndex over the window and prints the summary and latest rows.
`
}

func (c *perfCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.window, "w", portfolio.DefaultWindow.String(), "lookback window: 7d, 1m, 3m, 6m, 1y ... 10y or a day count")
	f.IntVar(&c.recent, "n", analytics.DefaultRecent, "number of recent rows to print")
	f.StringVar(&c.png, "png", "", "also write the comparison chart to this PNG file")
}

func (c *perfCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	w, err := portfolio.ParseWindow(c.window)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	backend, log := newClient()
	coord := coordinator.New(backend, log)
	defer coord.Dispose()
	// The key is submitted once, after both edits.
	st := store.New(backend, nil, log)

	if f.NArg() == 0 {
		st.Init(ctx)
	} else {
		draft, err := portfolio.ParseHoldings(f.Args())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
		if _, err := st.SetPortfolio(draft); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
	}
	if err := st.SetWindow(w); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	res := await(ctx, coord, st.Key())
	switch res.Status {
	case coordinator.Succeeded:
	case coordinator.Failed:
		fmt.Fprintf(os.Stderr, "Error: %v\n", res.Err)
		return subcommands.ExitFailure
	default:
		fmt.Fprintln(os.Stderr, "cancelled")
		return subcommands.ExitFailure
	}

	printResult(os.Stdout, res, c.recent)

	if c.png != "" {
		img, err := finance.RenderComparison(res.Rows(), "Portfolio vs "+analytics.BenchmarkName+" • "+w.Label(), analytics.Verdict(res.Summary))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error rendering chart: %v\n", err)
			return subcommands.ExitFailure
		}
		if err := os.WriteFile(c.png, img, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing chart: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Printf("\nChart written to %s\n", c.png)
	}
	return subcommands.ExitSuccess
}

// await submits key and blocks until it settles. Interrupting ctx cancels
// the query.
func await(ctx context.Context, coord *coordinator.Coordinator, key portfolio.QueryKey) coordinator.State {
	updates := coord.Subscribe()
	coord.Submit(key)
	for {
		select {
		case <-ctx.Done():
			coord.Cancel()
			return coord.State()
		case s := <-updates:
			if s.Key.Equal(key) && s.Status != coordinator.Pending && s.Status != coordinator.Idle {
				return s
			}
		}
	}
}

func printResult(out io.Writer, res coordinator.State, recent int) {
	s := res.Summary
	fmt.Fprintf(out, "%s • %s\n\n", res.Key.Portfolio.String(), res.Key.Window.Label())

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Portfolio return\t%s\n", analytics.FormatPercent(s.PortfolioReturn))
	fmt.Fprintf(tw, "%s return\t%s\n", analytics.BenchmarkName, analytics.FormatPercent(s.BenchmarkReturn))
	fmt.Fprintf(tw, "Outperformance\t%s\n", analytics.FormatPercent(s.Outperformance))
	fmt.Fprintf(tw, "Initial value\t%s\n", analytics.FormatVND(s.InitialValue))
	fmt.Fprintf(tw, "Final value\t%s\n", analytics.FormatVND(s.FinalValue))
	risk := analytics.Risk(res.Series)
	fmt.Fprintf(tw, "Volatility\t%.2f%% vs %.2f%%\n", risk.PortfolioVolatility, risk.BenchmarkVolatility)
	fmt.Fprintf(tw, "Max drawdown\t%.2f%% vs %.2f%%\n", risk.PortfolioMaxDrawdown, risk.BenchmarkMaxDrawdown)
	tw.Flush()
	fmt.Fprintf(out, "\n%s\n", analytics.Verdict(s))

	rows := res.Recent(recent)
	if len(rows) == 0 {
		return
	}
	fmt.Fprintln(out)
	tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Date\tPortfolio\t%s\tDifference\t\n", analytics.BenchmarkName)
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", r.Label,
			analytics.FormatPercent(r.Portfolio), analytics.FormatPercent(r.Benchmark), analytics.FormatPercent(r.Difference))
	}
	tw.Flush()
}

// windowsCmd lists the selectable windows.
type windowsCmd struct{}

func (*windowsCmd) Name() string     { return "windows" }
func (*windowsCmd) Synopsis() string { return "list the selectable lookback windows" }
func (*windowsCmd) Usage() string {
	return `pfcli windows

  Lists the lookback windows accepted by perf -w.
`
}
func (*windowsCmd) SetFlags(*flag.FlagSet) {}

func (*windowsCmd) Execute(context.Context, *flag.FlagSet, ...interface{}) subcommands.ExitStatus {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, w := range portfolio.Windows {
		fmt.Fprintf(tw, "%s\t%s\n", strconv.Itoa(w.Days()), w.Label())
	}
	tw.Flush()
	return subcommands.ExitSuccess
}
