package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/marketgate/renderer"
	"github.com/google/subcommands"
)

type fearGreedCmd struct {
	json bool
}

func (*fearGreedCmd) Name() string     { return "feargreed" }
func (*fearGreedCmd) Synopsis() string { return "show the Fear & Greed index" }
func (*fearGreedCmd) Usage() string {
	return `mgate feargreed [-json]

  Shows the current Fear & Greed score and rating, with the readings of the
  previous day, a week ago and a month ago.
`
}

func (c *fearGreedCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.json, "json", false, "Print the raw JSON answer.")
}

func (c *fearGreedCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, status := openApp(ctx)
	if a == nil {
		return status
	}
	defer a.Close()

	fg, err := a.markets.FearGreed(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching the index: %v\n", err)
		return subcommands.ExitFailure
	}
	if c.json {
		return printJSON(fg)
	}
	printMarkdown(renderer.RenderFearGreed(fg))
	return subcommands.ExitSuccess
}
