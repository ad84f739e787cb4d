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
)

// ForexSource quotes currency pairs.
type ForexSource interface {
	Rate(ctx context.Context, base, quote string) (marketgate.ForexRate, error)
	DollarIndex(ctx context.Context) (marketgate.ForexRate, error)
}

// CryptoSource quotes coins, by aggregator id.
type CryptoSource interface {
	Prices(ctx context.Context, ids []string, currency string) (map[string]marketgate.CryptoPrice, error)
}

// SentimentSource reads the Fear & Greed index.
type SentimentSource interface {
	FearGreed(ctx context.Context) (marketgate.FearGreed, error)
}

// AuxConfig tunes the non stock sources.
type AuxConfig struct {
	ForexTTL     time.Duration `yaml:"forex_ttl"`
	CryptoTTL    time.Duration `yaml:"crypto_ttl"`
	SentimentTTL time.Duration `yaml:"sentiment_ttl"`
}

// DefaultAuxConfig returns the cache lifetimes of the auxiliary sources.
func DefaultAuxConfig() AuxConfig {
	return AuxConfig{
		ForexTTL:     15 * time.Minute,
		CryptoTTL:    60 * time.Second,
		SentimentTTL: 5 * time.Minute,
	}
}

// MarketsStats adds the auxiliary scheduler to the gateway diagnostics.
type MarketsStats struct {
	Stats
	Aux *scheduler.Stats `json:"auxRateLimiter,omitempty"`
}

// Markets routes symbols to the source of their asset class: stocks to the
// Gateway, forex pairs and the dollar index to a ForexSource, coins to a
// CryptoSource.
//
// Auxiliary sources share one scheduler and the gateway's cache.
type Markets struct {
	stocks    *Gateway
	forex     ForexSource
	crypto    CryptoSource
	sentiment SentimentSource
	aux       *scheduler.Scheduler
	cache     *cache.Cache
	cfg       AuxConfig
	log       log.FieldLogger
}

// MarketsOption customizes Markets.
type MarketsOption func(*Markets)

// WithForex enables forex pairs and the dollar index.
func WithForex(s ForexSource) MarketsOption { return func(m *Markets) { m.forex = s } }

// WithCrypto enables coins.
func WithCrypto(s CryptoSource) MarketsOption { return func(m *Markets) { m.crypto = s } }

// WithSentiment enables the Fear & Greed index.
func WithSentiment(s SentimentSource) MarketsOption { return func(m *Markets) { m.sentiment = s } }

// NewMarkets returns a router in front of stocks. aux schedules the calls to
// the auxiliary sources; it may be nil when none is configured.
func NewMarkets(stocks *Gateway, aux *scheduler.Scheduler, cfg AuxConfig, opts ...MarketsOption) *Markets {
	m := &Markets{
		stocks: stocks,
		aux:    aux,
		cache:  stocks.cache,
		cfg:    cfg,
		log:    stocks.log.WithField("component", "markets"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Snapshots answers a mixed list of symbols.
//
// Stocks go through the Gateway, other symbols are converted to the snapshot
// shape. Failures are reported per symbol, the only error returned is a setup
// failure of the stock gateway.
func (m *Markets) Snapshots(ctx context.Context, symbols []string, extended bool) (*marketgate.SnapshotResult, error) {
	syms := marketgate.NormalizeSymbols(symbols)
	var stocks, coins []string
	res := marketgate.NewSnapshotResult()
	cached := true

	for _, sym := range syms {
		switch marketgate.Classify(sym) {
		case marketgate.Stock:
			stocks = append(stocks, sym)
		case marketgate.Crypto:
			coins = append(coins, sym)
		case marketgate.Forex, marketgate.DollarIndex:
			rate, hit, err := m.forexRate(ctx, sym)
			cached = cached && hit
			if err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("Failed to fetch data for %s: %v", sym, err))
				continue
			}
			res.Snapshots[sym] = rate.Snapshot()
		}
	}

	if len(coins) > 0 {
		prices, hit, err := m.cryptoPrices(ctx, coins)
		cached = cached && hit
		for _, sym := range coins {
			switch p, ok := prices[sym]; {
			case err != nil:
				res.Errors = append(res.Errors, fmt.Sprintf("Failed to fetch data for %s: %v", sym, err))
			case !ok:
				res.Warnings = append(res.Warnings, "no data available for symbol: "+sym)
			default:
				res.Snapshots[sym] = p.Snapshot()
			}
		}
	}

	if extended {
		now := m.stocks.now()
		for sym, snap := range res.Snapshots {
			res.Snapshots[sym] = marketgate.Annotate(snap, m.stocks.cfg.Calendar, now)
		}
	}
	res.RequestedSymbols = len(syms) - len(stocks)

	if len(stocks) > 0 {
		sr, err := m.stocks.GetSnapshots(ctx, stocks, extended)
		if err != nil {
			return nil, err
		}
		cached = cached && sr.Cached
		res.Merge(sr)
	}
	res.ReturnedSymbols = len(res.Snapshots)
	res.Cached = cached && len(syms) > 0
	return res, nil
}

// Quotes returns the latest stock quotes.
func (m *Markets) Quotes(ctx context.Context, symbols []string) (map[string]marketgate.Quote, error) {
	return m.stocks.GetQuotes(ctx, symbols)
}

// Bars returns historical stock bars.
func (m *Markets) Bars(ctx context.Context, symbols []string, q marketgate.BarsQuery) (map[string][]marketgate.Bar, error) {
	return m.stocks.GetBars(ctx, symbols, q)
}

// Stats returns the gateway and auxiliary scheduler diagnostics.
func (m *Markets) Stats() MarketsStats {
	st := MarketsStats{Stats: m.stocks.Stats()}
	if m.aux != nil {
		aux := m.aux.Stats()
		st.Aux = &aux
	}
	return st
}

// Forex quotes a pair like "EURUSD", "EURUSD=X", or "USD" for the dollar
// index.
func (m *Markets) Forex(ctx context.Context, pair string) (marketgate.ForexRate, error) {
	syms := marketgate.NormalizeSymbols([]string{pair})
	if len(syms) == 0 {
		return marketgate.ForexRate{}, errors.New("empty currency pair")
	}
	switch c := marketgate.Classify(syms[0]); c {
	case marketgate.Forex, marketgate.DollarIndex:
	default:
		return marketgate.ForexRate{}, fmt.Errorf("%s is not a currency pair but a %v symbol", syms[0], c)
	}
	rate, _, err := m.forexRate(ctx, syms[0])
	return rate, err
}

// Crypto quotes a coin symbol like "BTCUSD" or "ETH".
func (m *Markets) Crypto(ctx context.Context, symbol string) (marketgate.CryptoPrice, error) {
	syms := marketgate.NormalizeSymbols([]string{symbol})
	if len(syms) == 0 {
		return marketgate.CryptoPrice{}, errors.New("empty crypto symbol")
	}
	prices, _, err := m.cryptoPrices(ctx, syms)
	if err != nil {
		return marketgate.CryptoPrice{}, err
	}
	p, ok := prices[syms[0]]
	if !ok {
		return marketgate.CryptoPrice{}, fmt.Errorf("no data available for symbol: %s", syms[0])
	}
	return p, nil
}

// FearGreed returns the current Fear & Greed reading.
func (m *Markets) FearGreed(ctx context.Context) (marketgate.FearGreed, error) {
	if m.sentiment == nil {
		return marketgate.FearGreed{}, fmt.Errorf("fear & greed: %w", marketgate.ErrNotConfigured)
	}
	fg, _, err := auxFetch(ctx, m, "feargreed", m.cfg.SentimentTTL, m.sentiment.FearGreed)
	return fg, err
}

func (m *Markets) forexRate(ctx context.Context, sym string) (marketgate.ForexRate, bool, error) {
	if m.forex == nil {
		return marketgate.ForexRate{}, false, fmt.Errorf("forex: %w", marketgate.ErrNotConfigured)
	}
	if marketgate.Classify(sym) == marketgate.DollarIndex {
		return auxFetch(ctx, m, "forex:DXY", m.cfg.ForexTTL, m.forex.DollarIndex)
	}
	base, quote := marketgate.ForexPair(sym)
	return auxFetch(ctx, m, "forex:"+base+quote, m.cfg.ForexTTL, func(ctx context.Context) (marketgate.ForexRate, error) {
		return m.forex.Rate(ctx, base, quote)
	})
}

// cryptoPrices quotes coin symbols in USD, keyed by symbol.
func (m *Markets) cryptoPrices(ctx context.Context, symbols []string) (map[string]marketgate.CryptoPrice, bool, error) {
	if m.crypto == nil {
		return nil, false, fmt.Errorf("crypto: %w", marketgate.ErrNotConfigured)
	}
	var ids []string
	for _, sym := range symbols {
		if id, ok := marketgate.CryptoID(sym); ok {
			ids = append(ids, id)
		}
	}
	byID, hit, err := auxFetch(ctx, m, marketgate.SymbolsKey("crypto", ids, "usd"), m.cfg.CryptoTTL,
		func(ctx context.Context) (map[string]marketgate.CryptoPrice, error) {
			return m.crypto.Prices(ctx, ids, "usd")
		})
	if err != nil {
		return nil, false, err
	}
	res := make(map[string]marketgate.CryptoPrice)
	for _, sym := range symbols {
		id, _ := marketgate.CryptoID(sym)
		if p, ok := byID[id]; ok {
			p.Symbol = sym
			res[sym] = p
		}
	}
	return res, hit, nil
}

// auxFetch serves key from the cache, or fetches it through the auxiliary
// scheduler and caches it for ttl. It reports whether the cache answered.
func auxFetch[T any](ctx context.Context, m *Markets, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, bool, error) {
	if v, ok := cache.GetAs[T](m.cache, key); ok {
		return v, true, nil
	}
	var v T
	var err error
	if m.aux != nil {
		v, err = scheduler.Do(ctx, m.aux, scheduler.PriorityHigh, fetch)
	} else {
		v, err = fetch(ctx)
	}
	if err != nil {
		m.log.Warnf("cannot fetch %s: %v", key, err)
		return v, false, err
	}
	if ttl > 0 {
		m.cache.Set(key, v, ttl)
	}
	return v, false, nil
}
