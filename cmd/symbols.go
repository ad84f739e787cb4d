package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/marketgate"
	"github.com/google/subcommands"
)

type symbolsCmd struct{}

func (*symbolsCmd) Name() string     { return "symbols" }
func (*symbolsCmd) Synopsis() string { return "show how symbols are normalized and routed" }
func (*symbolsCmd) Usage() string {
	return `mgate symbols <symbol>...

  Prints each normalized symbol with its asset class, without calling any
  provider.
`
}

func (*symbolsCmd) SetFlags(f *flag.FlagSet) {}

func (*symbolsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	symbols := symbolArgs(f.Args())
	if len(symbols) == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one symbol is required")
		return subcommands.ExitUsageError
	}
	for _, s := range symbols {
		fmt.Printf("%s %v\n", s, marketgate.Classify(s))
	}
	return subcommands.ExitSuccess
}
