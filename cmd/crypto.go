package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/marketgate/renderer"
	"github.com/google/subcommands"
)

type cryptoCmd struct {
	json bool
}

func (*cryptoCmd) Name() string     { return "crypto" }
func (*cryptoCmd) Synopsis() string { return "show the price of a coin" }
func (*cryptoCmd) Usage() string {
	return `mgate crypto [-json] <coin>

  Shows the USD price of BTC or ETH and its 24h change.
`
}

func (c *cryptoCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.json, "json", false, "Print the raw JSON answer.")
}

func (c *cryptoCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one coin is required")
		return subcommands.ExitUsageError
	}

	a, status := openApp(ctx)
	if a == nil {
		return status
	}
	defer a.Close()

	price, err := a.markets.Crypto(ctx, f.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching price: %v\n", err)
		return subcommands.ExitFailure
	}
	if c.json {
		return printJSON(price)
	}
	printMarkdown(renderer.RenderCrypto(price))
	return subcommands.ExitSuccess
}
