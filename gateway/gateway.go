// Package gateway turns symbol lists of any size into best effort market data
// answers.
//
// A Gateway splits requests into upstream sized batches and drives them
// through a scheduler.Scheduler. A failed batch is retried symbol by symbol at
// a lower priority, so that one bad symbol does not cost the rest of its
// batch. Results are memoized in a cache.Cache and optionally mirrored in a
// Shared store.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/etnz/marketgate"
	"github.com/etnz/marketgate/cache"
	"github.com/etnz/marketgate/scheduler"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Upstream is the market data provider behind the gateway.
//
// Implementations return marketgate.ErrNotConfigured when they cannot build a
// request at all, and a *marketgate.RateLimitError when throttled.
type Upstream interface {
	Snapshots(ctx context.Context, symbols []string) (map[string]marketgate.Snapshot, error)
	Bars(ctx context.Context, symbols []string, q marketgate.BarsQuery) (map[string][]marketgate.Bar, error)
	LatestQuotes(ctx context.Context, symbols []string) (map[string]marketgate.Quote, error)
}

// Shared is a second level cache shared between processes.
type Shared interface {
	Load(ctx context.Context, key string, v any) (bool, error)
	Store(ctx context.Context, key string, v any, ttl time.Duration) error
}

// Observer receives gateway events, typically to export metrics.
type Observer interface {
	// Fallback is called when a batch failed and its symbols are retried one
	// by one.
	Fallback(symbols int)
	// Served is called for each snapshot request, cached or not.
	Served(cached bool, errors, warnings int)
}

type noopObserver struct{}

func (noopObserver) Fallback(int)          {}
func (noopObserver) Served(bool, int, int) {}

// Option customizes a Gateway.
type Option func(*Gateway)

// WithShared mirrors results in s.
func WithShared(s Shared) Option {
	return func(g *Gateway) { g.shared = s }
}

// WithObserver registers o to receive gateway events.
func WithObserver(o Observer) Option {
	return func(g *Gateway) {
		if o != nil {
			g.obs = o
		}
	}
}

// WithLogger sets the logger, defaults to the logrus standard logger.
func WithLogger(l log.FieldLogger) Option {
	return func(g *Gateway) { g.log = l }
}

// Stats is the diagnostic view of a Gateway.
type Stats struct {
	RateLimiter scheduler.Stats `json:"rateLimiter"`
	Cache       cache.Stats     `json:"cache"`
}

// Gateway fetches stock market data through a scheduler and a cache.
type Gateway struct {
	up     Upstream
	sched  *scheduler.Scheduler
	cache  *cache.Cache
	shared Shared
	cfg    Config
	obs    Observer
	log    log.FieldLogger
	now    func() time.Time
}

// New returns a Gateway over up. The scheduler and the cache are not owned by
// the gateway: closing them is up to the caller.
func New(up Upstream, sched *scheduler.Scheduler, c *cache.Cache, cfg Config, opts ...Option) (*Gateway, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g := &Gateway{
		up:    up,
		sched: sched,
		cache: c,
		cfg:   cfg,
		obs:   noopObserver{},
		log:   log.StandardLogger(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.log = g.log.WithField("component", "gateway")
	return g, nil
}

// Batches splits symbols in consecutive chunks of at most size symbols.
func Batches(symbols []string, size int) [][]string {
	if size <= 0 {
		size = len(symbols)
	}
	var batches [][]string
	for len(symbols) > 0 {
		n := min(size, len(symbols))
		batches = append(batches, symbols[:n:n])
		symbols = symbols[n:]
	}
	return batches
}

// GetSnapshots returns the latest snapshot of every symbol it could fetch.
//
// Every requested symbol ends up either in Snapshots, or in exactly one entry
// of Errors or Warnings. The only error returned is a setup failure, like
// marketgate.ErrNotConfigured.
func (g *Gateway) GetSnapshots(ctx context.Context, symbols []string, extended bool) (*marketgate.SnapshotResult, error) {
	syms := marketgate.NormalizeSymbols(symbols)
	key := marketgate.SnapshotsKey(syms, extended)

	if res, ok := g.lookup(ctx, key); ok {
		res.Cached = true
		g.obs.Served(true, len(res.Errors), len(res.Warnings))
		return res, nil
	}

	res := marketgate.NewSnapshotResult()
	res.RequestedSymbols = len(syms)
	if len(syms) == 0 {
		return res, nil
	}

	accounted := make(map[string]bool, len(syms))
	batches := Batches(syms, g.cfg.BatchSize)
	answers := make([]map[string]marketgate.Snapshot, len(batches))
	failures := make([]error, len(batches))

	// batches are queued in order, then awaited.
	reqs := make([]*scheduler.Request, len(batches))
	for i, batch := range batches {
		reqs[i], failures[i] = g.sched.Enqueue(func(ctx context.Context) (any, error) {
			return g.up.Snapshots(ctx, batch)
		}, scheduler.PriorityHigh)
	}
	for i, r := range reqs {
		if failures[i] != nil {
			continue
		}
		v, err := r.Wait(ctx)
		if err != nil {
			failures[i] = err
			continue
		}
		answers[i], _ = v.(map[string]marketgate.Snapshot)
	}

	var failed []string
	for i, batch := range batches {
		if err := failures[i]; err != nil {
			if errors.Is(err, marketgate.ErrNotConfigured) {
				return nil, err
			}
			g.log.Warnf("batch of %d symbols failed, falling back to individual requests: %v", len(batch), err)
			g.obs.Fallback(len(batch))
			failed = append(failed, batch...)
			continue
		}
		for _, sym := range batch {
			if snap, ok := answers[i][sym]; ok {
				res.Snapshots[sym] = snap
				accounted[sym] = true
			}
		}
	}

	if len(failed) > 0 {
		if err := g.fetchEach(ctx, failed, res, accounted); err != nil {
			return nil, err
		}
	}

	for _, sym := range syms {
		if !accounted[sym] {
			res.Warnings = append(res.Warnings, "no data available for symbol: "+sym)
		}
	}

	if extended {
		now := g.now()
		for sym, snap := range res.Snapshots {
			res.Snapshots[sym] = marketgate.Annotate(snap, g.cfg.Calendar, now)
		}
	}
	res.ReturnedSymbols = len(res.Snapshots)

	// a canceled caller got a truncated answer, not worth sharing.
	if ctx.Err() == nil {
		g.store(ctx, key, res.Clone(), g.cfg.SnapshotTTL)
	}
	g.obs.Served(false, len(res.Errors), len(res.Warnings))
	return res, nil
}

// fetchEach requests symbols one at a time with a low priority, spacing the
// submissions by the fallback delay.
func (g *Gateway) fetchEach(ctx context.Context, symbols []string, res *marketgate.SnapshotResult, accounted map[string]bool) error {
	limit := rate.Inf
	if g.cfg.FallbackDelay > 0 {
		limit = rate.Every(g.cfg.FallbackDelay)
	}
	smoother := rate.NewLimiter(limit, 1)

	reqs := make([]*scheduler.Request, len(symbols))
	submitErrs := make([]error, len(symbols))
	for i, sym := range symbols {
		if err := smoother.Wait(ctx); err != nil {
			submitErrs[i] = err
			continue
		}
		reqs[i], submitErrs[i] = g.sched.Enqueue(func(ctx context.Context) (any, error) {
			return g.up.Snapshots(ctx, []string{sym})
		}, scheduler.PriorityLow)
	}

	for i, sym := range symbols {
		err := submitErrs[i]
		var v any
		if err == nil {
			v, err = reqs[i].Wait(ctx)
		}
		if errors.Is(err, marketgate.ErrNotConfigured) {
			return err
		}
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("Failed to fetch data for %s: %v", sym, err))
			accounted[sym] = true
			continue
		}
		if snap, ok := v.(map[string]marketgate.Snapshot)[sym]; ok {
			res.Snapshots[sym] = snap
			accounted[sym] = true
		}
	}
	return nil
}

// GetBars returns historical bars per symbol. Failures are returned as is.
func (g *Gateway) GetBars(ctx context.Context, symbols []string, q marketgate.BarsQuery) (map[string][]marketgate.Bar, error) {
	syms := marketgate.NormalizeSymbols(symbols)
	if len(syms) == 0 {
		return map[string][]marketgate.Bar{}, nil
	}
	key := q.Key(syms)
	if bars, ok := cache.GetAs[map[string][]marketgate.Bar](g.cache, key); ok {
		return bars, nil
	}
	if g.shared != nil {
		var bars map[string][]marketgate.Bar
		if found, err := g.shared.Load(ctx, key, &bars); err != nil {
			g.log.Warnf("cannot read shared cache: %v", err)
		} else if found {
			return bars, nil
		}
	}

	bars, err := scheduler.Do(ctx, g.sched, scheduler.PriorityHigh,
		func(ctx context.Context) (map[string][]marketgate.Bar, error) {
			return g.up.Bars(ctx, syms, q)
		})
	if err != nil {
		return nil, fmt.Errorf("cannot fetch bars: %w", err)
	}
	g.store(ctx, key, bars, g.cfg.BarsTTL)
	return bars, nil
}

// GetQuotes returns the latest quote per symbol. Quotes are never cached.
func (g *Gateway) GetQuotes(ctx context.Context, symbols []string) (map[string]marketgate.Quote, error) {
	syms := marketgate.NormalizeSymbols(symbols)
	if len(syms) == 0 {
		return map[string]marketgate.Quote{}, nil
	}
	quotes, err := scheduler.Do(ctx, g.sched, scheduler.PriorityHigh,
		func(ctx context.Context) (map[string]marketgate.Quote, error) {
			return g.up.LatestQuotes(ctx, syms)
		})
	if err != nil {
		return nil, fmt.Errorf("cannot fetch quotes: %w", err)
	}
	return quotes, nil
}

// Stats returns the scheduler and cache diagnostics.
func (g *Gateway) Stats() Stats {
	return Stats{
		RateLimiter: g.sched.Stats(),
		Cache:       g.cache.Stats(),
	}
}

// lookup returns a private copy of the cached result under key.
func (g *Gateway) lookup(ctx context.Context, key string) (*marketgate.SnapshotResult, bool) {
	if res, ok := cache.GetAs[*marketgate.SnapshotResult](g.cache, key); ok {
		return res.Clone(), true
	}
	if g.shared == nil {
		return nil, false
	}
	res := marketgate.NewSnapshotResult()
	found, err := g.shared.Load(ctx, key, res)
	if err != nil {
		g.log.Warnf("cannot read shared cache: %v", err)
		return nil, false
	}
	return res, found
}

// store saves v in the cache and in the shared store. A zero ttl disables
// caching.
func (g *Gateway) store(ctx context.Context, key string, v any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	g.cache.Set(key, v, ttl)
	if g.shared != nil {
		if err := g.shared.Store(ctx, key, v, ttl); err != nil {
			g.log.Warnf("cannot write shared cache: %v", err)
		}
	}
}
