// Package frankfurter quotes currency pairs from the Frankfurter API, backed
// by the European Central Bank reference rates.
package frankfurter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/etnz/marketgate"
	"github.com/shopspring/decimal"
)

const DefaultBaseURL = "https://api.frankfurter.dev/v1"

// DollarBasket are the currencies the dollar index is measured against.
var DollarBasket = []string{"EUR", "GBP", "JPY", "CAD", "AUD"}

// Config of a Client.
type Config struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	// CacheDir stores the historical answers, defaults to a temp directory.
	CacheDir string `yaml:"cache_dir"`
}

// Client is a Frankfurter API client.
type Client struct {
	base    string
	latest  *http.Client
	history *http.Client
	now     func() time.Time
}

// New returns a Client, filling the defaults of cfg.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = filepath.Join(os.TempDir(), "mgate")
	}
	c := &Client{
		base:   strings.TrimRight(cfg.BaseURL, "/"),
		latest: &http.Client{Timeout: cfg.Timeout},
		now:    time.Now,
	}
	// previous day rates do not change: query them at most once a day.
	c.history = newDailyCachingClient(cfg.CacheDir, cfg.Timeout, func() time.Time { return c.now() })
	return c
}

type ratesPayload struct {
	Base  string                     `json:"base"`
	Date  string                     `json:"date"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// fetchRates returns the rates of base against symbols on day, "latest" for
// the most recent publication.
func (c *Client) fetchRates(ctx context.Context, day, base string, symbols []string) (ratesPayload, error) {
	// https://api.frankfurter.dev/v1/latest?base=USD&symbols=EUR,GBP
	// {"amount": 1.0, "base": "USD", "date": "2025-03-11", "rates": {"EUR": 0.9158, "GBP": 0.7746}}
	params := url.Values{}
	params.Set("base", base)
	params.Set("symbols", strings.Join(symbols, ","))
	addr := fmt.Sprintf("%s/%s?%s", c.base, day, params.Encode())

	client := c.latest
	if day != "latest" {
		client = c.history
	}
	var content ratesPayload
	if err := marketgate.GetJSON(ctx, client, addr, nil, &content); err != nil {
		return content, err
	}
	for _, s := range symbols {
		if _, ok := content.Rates[s]; !ok {
			return content, fmt.Errorf("frankfurter: no %s/%s rate on %s", base, s, day)
		}
	}
	return content, nil
}

// yesterday is the day before now, as Frankfurter expects it.
func (c *Client) yesterday() string {
	return c.now().UTC().AddDate(0, 0, -1).Format(time.DateOnly)
}

// Rate quotes base in quote currency, with its change since the previous day.
func (c *Client) Rate(ctx context.Context, base, quote string) (marketgate.ForexRate, error) {
	base, quote = strings.ToUpper(base), strings.ToUpper(quote)
	if base == quote {
		one := decimal.NewFromInt(1)
		return marketgate.NewForexRate(base, quote, one, one, c.now().UTC().Format(time.DateOnly), c.now()), nil
	}
	latest, err := c.fetchRates(ctx, "latest", base, []string{quote})
	if err != nil {
		return marketgate.ForexRate{}, err
	}
	prev, err := c.fetchRates(ctx, c.yesterday(), base, []string{quote})
	if err != nil {
		return marketgate.ForexRate{}, err
	}
	return marketgate.NewForexRate(base, quote, latest.Rates[quote], prev.Rates[quote], latest.Date, c.now()), nil
}

// DollarIndex approximates the strength of the dollar as 100 divided by the
// mean of the USD rates against DollarBasket.
func (c *Client) DollarIndex(ctx context.Context) (marketgate.ForexRate, error) {
	latest, err := c.fetchRates(ctx, "latest", "USD", DollarBasket)
	if err != nil {
		return marketgate.ForexRate{}, err
	}
	prev, err := c.fetchRates(ctx, c.yesterday(), "USD", DollarBasket)
	if err != nil {
		return marketgate.ForexRate{}, err
	}
	return marketgate.NewForexRate("USD", "DXY", basketIndex(latest.Rates), basketIndex(prev.Rates), latest.Date, c.now()), nil
}

// basketIndex returns 100 / mean(rates of DollarBasket).
func basketIndex(rates map[string]decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, cur := range DollarBasket {
		sum = sum.Add(rates[cur])
	}
	mean := sum.Div(decimal.NewFromInt(int64(len(DollarBasket))))
	if !mean.IsPositive() {
		return decimal.Zero
	}
	return decimal.NewFromInt(100).Div(mean)
}
