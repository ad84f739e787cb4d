// Package alpaca fetches stock market data from the Alpaca data API v2.
//
// The Client implements gateway.Upstream: it performs exactly one HTTP call
// per method call (pagination aside) and leaves retries and throttling to the
// caller.
package alpaca

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/etnz/marketgate"
)

const (
	DefaultBaseURL = "https://data.alpaca.markets/v2"
	DefaultFeed    = "iex"
)

// Config holds the Alpaca credentials and endpoint.
type Config struct {
	KeyID     string        `yaml:"key_id"`
	SecretKey string        `yaml:"secret_key"`
	BaseURL   string        `yaml:"base_url"`
	Feed      string        `yaml:"feed"`
	Timeout   time.Duration `yaml:"timeout"`
	// MaxPages bounds how many pages of bars are followed.
	MaxPages int `yaml:"max_pages"`
}

// Configured reports whether the credentials are set.
func (c Config) Configured() bool { return c.KeyID != "" && c.SecretKey != "" }

// Client is an Alpaca market data client.
type Client struct {
	cfg    Config
	client *http.Client
}

// New returns a Client, filling the defaults of cfg.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Feed == "" {
		cfg.Feed = DefaultFeed
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 10
	}
	return &Client{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

// header returns the authentication headers.
func (c *Client) header() (http.Header, error) {
	if !c.cfg.Configured() {
		return nil, fmt.Errorf("alpaca: missing APCA key id or secret: %w", marketgate.ErrNotConfigured)
	}
	h := make(http.Header)
	h.Set("APCA-API-KEY-ID", c.cfg.KeyID)
	h.Set("APCA-API-SECRET-KEY", c.cfg.SecretKey)
	h.Set("Accept", "application/json")
	return h, nil
}

// get queries path with params and decodes the answer into data.
func (c *Client) get(ctx context.Context, path string, params url.Values, data any) error {
	h, err := c.header()
	if err != nil {
		return err
	}
	addr := c.cfg.BaseURL + path + "?" + params.Encode()
	return marketgate.GetJSON(ctx, c.client, addr, h, data)
}

// Snapshots returns the snapshot of each symbol. Unknown symbols are absent.
func (c *Client) Snapshots(ctx context.Context, symbols []string) (map[string]marketgate.Snapshot, error) {
	// GET /v2/stocks/snapshots?symbols=AAPL,MSFT&feed=iex
	// {
	//   "AAPL": {
	//     "latestTrade": {"t": "2025-03-11T19:59:59Z", "p": 220.84, "s": 100, ...},
	//     "latestQuote": {"t": "...", "ap": 220.9, "as": 2, "bp": 220.8, "bs": 3, ...},
	//     "minuteBar":   {"t": "...", "o": 220.7, "h": 220.9, "l": 220.6, "c": 220.84, "v": 3187, "n": 41, "vw": 220.78},
	//     "dailyBar":    {...},
	//     "prevDailyBar": {...}
	//   },
	//   "XYZZ": null
	// }
	params := url.Values{}
	params.Set("symbols", strings.Join(symbols, ","))
	params.Set("feed", c.cfg.Feed)

	content := make(map[string]*marketgate.Snapshot)
	if err := c.get(ctx, "/stocks/snapshots", params, &content); err != nil {
		return nil, err
	}
	result := make(map[string]marketgate.Snapshot, len(content))
	for sym, s := range content {
		if s != nil {
			result[strings.ToUpper(sym)] = *s
		}
	}
	return result, nil
}

// Bars returns the bars of each symbol over q, following the pagination.
func (c *Client) Bars(ctx context.Context, symbols []string, q marketgate.BarsQuery) (map[string][]marketgate.Bar, error) {
	// GET /v2/stocks/bars?symbols=AAPL&timeframe=1Day&start=...&end=...
	// {
	//   "bars": {"AAPL": [{"t": "2025-03-10T04:00:00Z", "o": 235.5, "h": 236.2, "l": 224.2, "c": 227.5, "v": 72071197, "n": 1, "vw": 228.9}]},
	//   "next_page_token": null
	// }
	params := url.Values{}
	params.Set("symbols", strings.Join(symbols, ","))
	timeframe := q.Timeframe
	if timeframe == "" {
		timeframe = "1Day"
	}
	params.Set("timeframe", timeframe)
	if !q.Start.IsZero() {
		params.Set("start", q.Start.UTC().Format(time.RFC3339))
	}
	if !q.End.IsZero() {
		params.Set("end", q.End.UTC().Format(time.RFC3339))
	}
	params.Set("limit", "10000")
	params.Set("feed", c.cfg.Feed)

	type page struct {
		Bars          map[string][]marketgate.Bar `json:"bars"`
		NextPageToken *string                     `json:"next_page_token"`
	}

	result := make(map[string][]marketgate.Bar)
	for i := 0; i < c.cfg.MaxPages; i++ {
		var content page
		if err := c.get(ctx, "/stocks/bars", params, &content); err != nil {
			return nil, err
		}
		for sym, bars := range content.Bars {
			sym = strings.ToUpper(sym)
			result[sym] = append(result[sym], bars...)
		}
		if content.NextPageToken == nil || *content.NextPageToken == "" {
			return result, nil
		}
		params.Set("page_token", *content.NextPageToken)
	}
	return nil, fmt.Errorf("alpaca: bars span more than %d pages, narrow the query", c.cfg.MaxPages)
}

// LatestQuotes returns the latest quote of each symbol.
func (c *Client) LatestQuotes(ctx context.Context, symbols []string) (map[string]marketgate.Quote, error) {
	// GET /v2/stocks/quotes/latest?symbols=AAPL
	// {"quotes": {"AAPL": {"t": "...", "ap": 220.9, "as": 2, "bp": 220.8, "bs": 3, "c": ["R"], "z": "C"}}}
	params := url.Values{}
	params.Set("symbols", strings.Join(symbols, ","))
	params.Set("feed", c.cfg.Feed)

	var content struct {
		Quotes map[string]marketgate.Quote `json:"quotes"`
	}
	if err := c.get(ctx, "/stocks/quotes/latest", params, &content); err != nil {
		return nil, err
	}
	result := make(map[string]marketgate.Quote, len(content.Quotes))
	for sym, q := range content.Quotes {
		result[strings.ToUpper(sym)] = q
	}
	return result, nil
}
