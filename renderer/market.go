package renderer

import (
	"github.com/etnz/marketgate"
	"github.com/etnz/marketgate/gateway"
)

// RenderSnapshots renders a snapshot result: a price table, the extended
// hours moves when they were requested, then the symbols that failed.
func RenderSnapshots(res *marketgate.SnapshotResult) string {
	partials := map[string]string{
		"snapshots_prices":   "snapshots_prices.md",
		"snapshots_extended": "snapshots_extended.md",
		"snapshots_problems": "snapshots_problems.md",
	}
	return renderTemplate("snapshots", "snapshots.md", partials, newSnapshotsView(res))
}

// RenderQuotes renders the latest quotes, sorted by symbol.
func RenderQuotes(quotes map[string]marketgate.Quote) string {
	return renderTemplate("quotes", "quotes.md", nil, quotes)
}

// RenderBars renders one table of bars per symbol.
func RenderBars(bars map[string][]marketgate.Bar) string {
	return renderTemplate("bars", "bars.md", nil, newBarsView(bars))
}

// RenderStats renders the schedulers and cache diagnostics.
func RenderStats(st gateway.MarketsStats) string {
	return renderTemplate("stats", "stats.md", nil, newStatsView(st))
}

// RenderForex renders a currency pair rate.
func RenderForex(r marketgate.ForexRate) string {
	return renderTemplate("forex", "forex.md", nil, r)
}

// RenderCrypto renders a coin price.
func RenderCrypto(p marketgate.CryptoPrice) string {
	return renderTemplate("crypto", "crypto.md", nil, p)
}

// RenderFearGreed renders the Fear & Greed index.
func RenderFearGreed(fg marketgate.FearGreed) string {
	return renderTemplate("feargreed", "feargreed.md", nil, fg)
}
