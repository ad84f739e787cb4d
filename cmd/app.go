// Package cmd implements the mgate CLI application.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/marketgate/alpaca"
	"github.com/etnz/marketgate/cache"
	"github.com/etnz/marketgate/coingecko"
	"github.com/etnz/marketgate/config"
	"github.com/etnz/marketgate/feargreed"
	"github.com/etnz/marketgate/frankfurter"
	"github.com/etnz/marketgate/gateway"
	"github.com/etnz/marketgate/metrics"
	"github.com/etnz/marketgate/scheduler"
	"github.com/google/subcommands"
	log "github.com/sirupsen/logrus"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&snapshotsCmd{}, "market data")
	c.Register(&quotesCmd{}, "market data")
	c.Register(&barsCmd{}, "market data")
	c.Register(&fxCmd{}, "market data")
	c.Register(&cryptoCmd{}, "market data")
	c.Register(&fearGreedCmd{}, "market data")

	c.Register(&serveCmd{}, "server")
	c.Register(&statsCmd{}, "server")

	c.Register(&symbolsCmd{}, "help")
	c.Register(&topicCmd{}, "help")
	c.Register(&AssistCmd{}, "help")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configFile = flag.String("config", "", "Path to the configuration file (default mgate.yaml when present)")
var Verbose = flag.Bool("v", false, "Enable debug logging")

// app is the set of services built from the configuration.
type app struct {
	cfg     config.Config
	markets *gateway.Markets
	metrics *metrics.Collector
	closers []func() error
}

// newApp loads the configuration and wires the gateway behind its
// schedulers and caches. Close releases everything.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(*configFile)
	if err != nil {
		return nil, err
	}
	setupLogging(cfg)

	a := &app{cfg: cfg, metrics: metrics.NewCollector("")}

	c := cache.New(cfg.Cache.DefaultTTL, cache.WithObserver(a.metrics))
	a.closers = append(a.closers, c.Close)
	if cfg.Cache.JanitorInterval > 0 {
		c.StartJanitor(cfg.Cache.JanitorInterval)
	}

	sched, err := scheduler.New(cfg.Scheduler, scheduler.WithObserver(a.metrics))
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, sched.Close)

	aux, err := scheduler.New(cfg.Aux, scheduler.WithObserver(a.metrics))
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, aux.Close)

	opts := []gateway.Option{gateway.WithObserver(a.metrics)}
	if cfg.Redis.Addr != "" {
		shared, err := cache.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix)
		if err != nil {
			// the shared cache is an optimization, run without it.
			log.Warnf("redis disabled: %v", err)
		} else {
			opts = append(opts, gateway.WithShared(shared))
			a.closers = append(a.closers, shared.Close)
		}
	}

	if !cfg.Alpaca.Configured() {
		log.Debug("alpaca credentials are not set, stock requests will fail")
	}
	gw, err := gateway.New(alpaca.New(cfg.Alpaca), sched, c, cfg.Gateway, opts...)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.markets = gateway.NewMarkets(gw, aux, cfg.Markets,
		gateway.WithForex(frankfurter.New(cfg.Frankfurter)),
		gateway.WithCrypto(coingecko.New(cfg.CoinGecko)),
		gateway.WithSentiment(feargreed.New(cfg.FearGreed)),
	)
	return a, nil
}

// Close stops the services in the reverse order of their creation.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warnf("close: %v", err)
		}
	}
	a.closers = nil
}

func setupLogging(cfg config.Config) {
	log.SetLevel(cfg.Level())
	if *Verbose {
		log.SetLevel(log.DebugLevel)
	}
}

// openApp is newApp reporting its error the way commands do.
func openApp(ctx context.Context) (*app, subcommands.ExitStatus) {
	a, err := newApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return nil, subcommands.ExitFailure
	}
	return a, subcommands.ExitSuccess
}
