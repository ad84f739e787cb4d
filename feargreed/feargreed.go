// Package feargreed reads the crypto Fear & Greed index published by
// alternative.me.
package feargreed

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/etnz/marketgate"
	"github.com/tidwall/gjson"
)

const DefaultBaseURL = "https://api.alternative.me"

// Config of a Client.
type Config struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Client is an alternative.me Fear & Greed client.
type Client struct {
	base   string
	client *http.Client
}

// New returns a Client, filling the defaults of cfg.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{base: strings.TrimRight(cfg.BaseURL, "/"), client: &http.Client{Timeout: cfg.Timeout}}
}

// FearGreed returns the latest reading with the one of the previous day, a week
// ago and a month ago, when published.
func (c *Client) FearGreed(ctx context.Context) (marketgate.FearGreed, error) {
	// GET /fng/?limit=30, most recent first
	// {
	//   "name": "Fear and Greed Index",
	//   "data": [
	//     {"value": "24", "value_classification": "Extreme Fear", "timestamp": "1741651200", "time_until_update": "5402"},
	//     {"value": "34", "value_classification": "Fear", "timestamp": "1741564800"},
	//     ...
	//   ]
	// }
	body, err := marketgate.Get(ctx, c.client, c.base+"/fng/?limit=30", nil)
	if err != nil {
		return marketgate.FearGreed{}, err
	}
	return parse(body)
}

func parse(body []byte) (marketgate.FearGreed, error) {
	data := gjson.GetBytes(body, "data")
	if !data.IsArray() || len(data.Array()) == 0 {
		return marketgate.FearGreed{}, errors.New("feargreed: invalid response, no data")
	}
	latest := data.Get("0")
	score := int(latest.Get("value").Int())
	fg := marketgate.FearGreed{
		Score:         score,
		Rating:        marketgate.FearGreedRating(score),
		Timestamp:     time.Unix(latest.Get("timestamp").Int(), 0).UTC(),
		PreviousClose: valueAt(data, 1),
		OneWeekAgo:    valueAt(data, 7),
		OneMonthAgo:   valueAt(data, 29),
	}
	return fg, nil
}

// valueAt returns the score i days back, nil when not published.
func valueAt(data gjson.Result, i int) *int {
	v := data.Get(strconv.Itoa(i) + ".value")
	if !v.Exists() {
		return nil
	}
	n := int(v.Int())
	return &n
}
