package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/marketgate/renderer"
	"github.com/google/subcommands"
)

type quotesCmd struct {
	json bool
}

func (*quotesCmd) Name() string     { return "quotes" }
func (*quotesCmd) Synopsis() string { return "show the latest bid and ask of stocks" }
func (*quotesCmd) Usage() string {
	return `mgate quotes [-json] <symbol>...

  Fetches the latest quote of each stock. Quotes are never cached.
`
}

func (c *quotesCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.json, "json", false, "Print the raw JSON answer.")
}

func (c *quotesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	quotes, err := a.markets.Quotes(ctx, symbols)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching quotes: %v\n", err)
		return subcommands.ExitFailure
	}
	if c.json {
		return printJSON(quotes)
	}
	printMarkdown(renderer.RenderQuotes(quotes))
	return subcommands.ExitSuccess
}
