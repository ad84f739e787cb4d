package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/etnz/marketgate"
	"github.com/etnz/marketgate/renderer"
	"github.com/google/subcommands"
)

type barsCmd struct {
	days int
	json bool
}

func (*barsCmd) Name() string     { return "bars" }
func (*barsCmd) Synopsis() string { return "show the daily bars of stocks" }
func (*barsCmd) Usage() string {
	return `mgate bars [-d <days>] [-json] <symbol>...

  Fetches the daily open, high, low, close and volume of each stock over the
  last days.
`
}

func (c *barsCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.days, "d", 7, "Number of days of history.")
	f.BoolVar(&c.json, "json", false, "Print the raw JSON answer.")
}

func (c *barsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	symbols := symbolArgs(f.Args())
	if len(symbols) == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one symbol is required")
		return subcommands.ExitUsageError
	}
	if c.days <= 0 {
		fmt.Fprintf(os.Stderr, "Error: -d must be positive, got %d\n", c.days)
		return subcommands.ExitUsageError
	}

	a, status := openApp(ctx)
	if a == nil {
		return status
	}
	defer a.Close()

	bars, err := a.markets.Bars(ctx, symbols, marketgate.LastDays(c.days, time.Now()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching bars: %v\n", err)
		return subcommands.ExitFailure
	}
	if c.json {
		return printJSON(bars)
	}
	printMarkdown(renderer.RenderBars(bars))
	return subcommands.ExitSuccess
}
