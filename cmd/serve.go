package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/marketgate/server"
	"github.com/google/subcommands"
)

type serveCmd struct {
	listen string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve market data over HTTP" }
func (*serveCmd) Usage() string {
	return `mgate serve [-listen <addr>]

  Serves the REST endpoints, Prometheus metrics included, until interrupted.
  See 'mgate topic server' for the endpoints.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.listen, "listen", "", "Address to listen on, overrides server.listen.")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, status := openApp(ctx)
	if a == nil {
		return status
	}
	defer a.Close()

	addr := a.cfg.Server.Listen
	if c.listen != "" {
		addr = c.listen
	}

	srv := server.New(a.markets, server.WithMetrics(a.metrics.Handler()))
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		fmt.Fprintf(os.Stderr, "Error serving: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
