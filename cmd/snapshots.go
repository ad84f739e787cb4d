package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/marketgate/renderer"
	"github.com/google/subcommands"
)

type snapshotsCmd struct {
	extended bool
	json     bool
}

func (*snapshotsCmd) Name() string { return "snapshots" }
func (*snapshotsCmd) Synopsis() string {
	return "show the latest price and daily change of stocks, currencies and coins"
}
func (*snapshotsCmd) Usage() string {
	return `mgate snapshots [-premarket] [-json] <symbol>...

  Fetches the latest snapshot of every symbol, in batches, under the
  providers rate limits. Symbols can be given as separate arguments or as
  comma separated lists. Symbols that could not be fetched are listed after
  the prices.
`
}

func (c *snapshotsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.extended, "premarket", false, "Add the overnight gap, the intraday move and the market session.")
	f.BoolVar(&c.json, "json", false, "Print the raw JSON answer.")
}

func (c *snapshotsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	symbols := symbolArgs(f.Args())
	if len(symbols) == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one symbol is required")
		return subcommands.ExitUsageError
	}

	a, status := openApp(ctx)
	if a == nil {
		return status
	}
	defer a.Close()

	res, err := a.markets.Snapshots(ctx, symbols, c.extended)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching snapshots: %v\n", err)
		return subcommands.ExitFailure
	}
	if c.json {
		return printJSON(res)
	}
	printMarkdown(renderer.RenderSnapshots(res))
	return subcommands.ExitSuccess
}
