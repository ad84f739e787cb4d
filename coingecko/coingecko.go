// Package coingecko quotes crypto currencies from the CoinGecko simple price
// API.
package coingecko

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/marketgate"
	"github.com/shopspring/decimal"
)

const DefaultBaseURL = "https://api.coingecko.com/api/v3"

// Config of a Client.
type Config struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"` // optional demo key
	Timeout time.Duration `yaml:"timeout"`
}

// Client is a CoinGecko API client.
type Client struct {
	cfg    Config
	client *http.Client
	now    func() time.Time
}

// New returns a Client, filling the defaults of cfg.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}, now: time.Now}
}

/*
GET /simple/price?ids=bitcoin,ethereum&vs_currencies=usd&include_24hr_change=true

	{
	    "bitcoin": {
	        "usd": 82845,
	        "usd_24h_change": -1.4023
	    },
	    "ethereum": {
	        "usd": 1921.54,
	        "usd_24h_change": 0.8312
	    }
	}
*/

// Prices returns the price of every coin id in currency. Unknown ids are
// absent from the result.
func (c *Client) Prices(ctx context.Context, ids []string, currency string) (map[string]marketgate.CryptoPrice, error) {
	currency = strings.ToLower(currency)
	params := url.Values{}
	params.Set("ids", strings.Join(ids, ","))
	params.Set("vs_currencies", currency)
	params.Set("include_24hr_change", "true")
	addr := c.cfg.BaseURL + "/simple/price?" + params.Encode()

	var header http.Header
	if c.cfg.APIKey != "" {
		header = http.Header{"X-Cg-Demo-Api-Key": []string{c.cfg.APIKey}}
	}
	var jobj any
	if err := marketgate.GetJSON(ctx, c.client, addr, header, &jobj); err != nil {
		return nil, err
	}

	now := c.now()
	result := make(map[string]marketgate.CryptoPrice)
	for _, id := range ids {
		price, err := number(jobj, fmt.Sprintf("$[%q].%s", id, currency))
		if err != nil {
			// unknown coins are simply missing from the answer.
			continue
		}
		change, err := number(jobj, fmt.Sprintf("$[%q].%s_24h_change", id, currency))
		if err != nil {
			change = 0
		}
		result[id] = marketgate.NewCryptoPrice(id, currency, decimal.NewFromFloat(price), decimal.NewFromFloat(change), now)
	}
	return result, nil
}

// number extracts the float at path.
func number(jobj any, path string) (float64, error) {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return 0, fmt.Errorf("error parsing %q: %w", path, err)
	}
	// jsonpath may return a list of 1 answer or a single answer: keep the first one if any
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}
	val, ok := jval.(float64)
	if !ok {
		return 0, fmt.Errorf("error parsing %q: not a number %v", path, jval)
	}
	return val, nil
}
