package cmd

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/etnz/marketgate"
	"github.com/etnz/marketgate/gateway"
	"github.com/etnz/marketgate/renderer"
	"github.com/google/subcommands"
)

type statsCmd struct {
	addr string
	json bool
}

func (*statsCmd) Name() string     { return "stats" }
func (*statsCmd) Synopsis() string { return "show the rate limiters and cache of a running server" }
func (*statsCmd) Usage() string {
	return `mgate stats [-addr <url>] [-json]

  Asks a running 'mgate serve' for its queue lengths, the requests made in
  the current window and the cache occupancy.
`
}

func (c *statsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "http://localhost:3001", "Base URL of the server.")
	f.BoolVar(&c.json, "json", false, "Print the raw JSON answer.")
}

func (c *statsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	client := &http.Client{Timeout: 10 * time.Second}
	var st gateway.MarketsStats
	if err := marketgate.GetJSON(ctx, client, strings.TrimRight(c.addr, "/")+"/api/stats", nil, &st); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading stats: %v\n", err)
		return subcommands.ExitFailure
	}
	if c.json {
		return printJSON(st)
	}
	printMarkdown(renderer.RenderStats(st))
	return subcommands.ExitSuccess
}
