package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/marketgate/renderer"
	"github.com/google/subcommands"
)

type fxCmd struct {
	json bool
}

func (*fxCmd) Name() string     { return "fx" }
func (*fxCmd) Synopsis() string { return "show a currency pair rate, or the US dollar index" }
func (*fxCmd) Usage() string {
	return `mgate fx [-json] <pair>

  Shows the rate of a pair like EURUSD (or EURUSD=X) and its change since the
  previous business day. USD alone is the US dollar index.
`
}

func (c *fxCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.json, "json", false, "Print the raw JSON answer.")
}

func (c *fxCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one currency pair is required")
		return subcommands.ExitUsageError
	}

	a, status := openApp(ctx)
	if a == nil {
		return status
	}
	defer a.Close()

	rate, err := a.markets.Forex(ctx, f.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching rate: %v\n", err)
		return subcommands.ExitFailure
	}
	if c.json {
		return printJSON(rate)
	}
	printMarkdown(renderer.RenderForex(rate))
	return subcommands.ExitSuccess
}
