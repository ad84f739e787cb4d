package renderer

import (
	"strings"
	"testing"
	"time"

	"github.com/etnz/marketgate"
	"github.com/etnz/marketgate/cache"
	"github.com/etnz/marketgate/gateway"
	"github.com/etnz/marketgate/scheduler"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertContains(t *testing.T, doc string, want ...string) {
	t.Helper()
	if strings.HasPrefix(doc, "error ") {
		t.Fatalf("rendering failed: %s", doc)
	}
	for _, w := range want {
		if !strings.Contains(doc, w) {
			t.Errorf("rendered document does not contain %q:\n%s", w, doc)
		}
	}
}

func TestMoney(t *testing.T) {
	tests := []struct {
		value string
		money string
		sign  string
		pct   string
	}{
		{"1234.5", "$1,234.50", "+$1,234.50", "+1234.50%"},
		{"0", "$0.00", "-", "0.00%"},
		{"-2.345", "", "-$2.35", "-2.35%"},
		{"0.004", "$0.00", "+$0.00", "+0.00%"},
	}
	for _, tt := range tests {
		if got := Money(d(tt.value)); tt.money != "" && got != tt.money {
			t.Errorf("Money(%s) = %q, want %q", tt.value, got, tt.money)
		}
		if got := SignedMoney(d(tt.value)); got != tt.sign {
			t.Errorf("SignedMoney(%s) = %q, want %q", tt.value, got, tt.sign)
		}
		if got := Percent(d(tt.value)); got != tt.pct {
			t.Errorf("Percent(%s) = %q, want %q", tt.value, got, tt.pct)
		}
	}
}

func TestMoneyIn(t *testing.T) {
	if got, want := MoneyIn(d("3.14159"), "XYZ"), "3.14 XYZ"; got != want {
		t.Errorf("MoneyIn(3.14159, XYZ) = %q, want %q", got, want)
	}
}

func TestDate(t *testing.T) {
	if got := Date(time.Time{}); got != "-" {
		t.Errorf("Date(zero) = %q, want %q", got, "-")
	}
	if got, want := Date(time.Date(2025, 1, 2, 23, 0, 0, 0, time.UTC)), "2025-01-02"; got != want {
		t.Errorf("Date() = %q, want %q", got, want)
	}
}

func TestRenderSnapshots(t *testing.T) {
	res := marketgate.NewSnapshotResult()
	res.Snapshots["AAPL"] = marketgate.Snapshot{
		LatestTrade:  &marketgate.Trade{Price: d("110")},
		DailyBar:     &marketgate.Bar{Open: d("105"), Volume: 1200},
		PrevDailyBar: &marketgate.Bar{Close: d("100")},
	}
	res.Errors = []string{"Failed to fetch data for BAD: boom"}
	res.Warnings = []string{"no data available for symbol: GONE"}
	res.RequestedSymbols = 3
	res.ReturnedSymbols = 1

	doc := RenderSnapshots(res)
	assertContains(t, doc,
		"# Market Snapshots",
		"1 of 3 symbols",
		"| AAPL | $110.00 | $100.00 | +$10.00 | +10.00% | 1200 |",
		"## Errors",
		"* Failed to fetch data for BAD: boom",
		"## Warnings",
		"* no data available for symbol: GONE",
	)
	if strings.Contains(doc, "Extended Hours") {
		t.Errorf("extended section rendered without extended data:\n%s", doc)
	}
	if strings.Contains(doc, "from cache") {
		t.Errorf("fresh result rendered as cached:\n%s", doc)
	}
}

func TestRenderSnapshots_Extended(t *testing.T) {
	res := marketgate.NewSnapshotResult()
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC) // 08:00 in New York
	res.Snapshots["MSFT"] = marketgate.Annotate(marketgate.Snapshot{
		LatestTrade:  &marketgate.Trade{Price: d("99")},
		DailyBar:     &marketgate.Bar{Open: d("110")},
		PrevDailyBar: &marketgate.Bar{Close: d("100")},
	}, marketgate.NewYork(), now)
	res.RequestedSymbols, res.ReturnedSymbols, res.Cached = 1, 1, true

	doc := RenderSnapshots(res)
	assertContains(t, doc,
		"(from cache)",
		"## Extended Hours",
		"| MSFT | pre-market | +10.00% | -10.00% | -1.00% |",
	)
	if strings.Contains(doc, "## Errors") || strings.Contains(doc, "## Warnings") {
		t.Errorf("problem sections rendered without problems:\n%s", doc)
	}
}

func TestRenderQuotes(t *testing.T) {
	ts := time.Date(2025, 3, 14, 14, 30, 5, 0, time.UTC)
	doc := RenderQuotes(map[string]marketgate.Quote{
		"MSFT": {BidPrice: d("400"), BidSize: d("3"), AskPrice: d("400.5"), AskSize: d("2"), Timestamp: ts},
		"AAPL": {BidPrice: d("200"), BidSize: d("1"), AskPrice: d("200.1"), AskSize: d("4"), Timestamp: ts},
	})
	assertContains(t, doc, "| AAPL | $200.00 | 1 | $200.10 | 4 | 14:30:05 |", "| MSFT | $400.00 | 3 | $400.50 | 2 | 14:30:05 |")
	if strings.Index(doc, "AAPL") > strings.Index(doc, "MSFT") {
		t.Errorf("quotes are not sorted by symbol:\n%s", doc)
	}
}

func TestRenderBars(t *testing.T) {
	doc := RenderBars(map[string][]marketgate.Bar{
		"IBM": {{Open: d("1"), High: d("2"), Low: d("0.5"), Close: d("1.5"), Volume: 10, Timestamp: time.Date(2025, 3, 13, 4, 0, 0, 0, time.UTC)}},
		"AMD": {},
	})
	assertContains(t, doc, "## AMD", "## IBM", "| 2025-03-13 | $1.00 | $2.00 | $0.50 | $1.50 | 10 |")
	if strings.Index(doc, "## AMD") > strings.Index(doc, "## IBM") {
		t.Errorf("bars are not sorted by symbol:\n%s", doc)
	}

	assertContains(t, RenderBars(nil), "No bars.")
}

func TestRenderStats(t *testing.T) {
	aux := scheduler.Stats{Name: "aux", QueueLength: 1, RequestCount: 2, MaxRequests: 30}
	doc := RenderStats(gateway.MarketsStats{
		Stats: gateway.Stats{
			RateLimiter: scheduler.Stats{Name: "alpaca", QueueLength: 4, RequestCount: 17, MaxRequests: 180},
			Cache:       cache.Stats{Total: 5, Valid: 3, Expired: 2},
		},
		Aux: &aux,
	})
	assertContains(t, doc,
		"| alpaca | 4 | 17 | 180 |",
		"| aux | 1 | 2 | 30 |",
		"* Entries: 5",
		"* Valid: 3",
		"* Expired: 2",
	)
}

func TestRenderForex(t *testing.T) {
	now := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	doc := RenderForex(marketgate.NewForexRate("EUR", "USD", d("1.1"), d("1.0"), "2025-03-14", now))
	assertContains(t, doc, "# EUR/USD", "* Rate: 1.1000", "* Previous: 1.0000", "* Change: 0.1000 (+10.00%)", "* Date: 2025-03-14")

	doc = RenderForex(marketgate.NewForexRate("USD", "DXY", d("104.5"), d("104.5"), "2025-03-14", now))
	assertContains(t, doc, "# US Dollar Index", "(0.00%)")
}

func TestRenderCrypto(t *testing.T) {
	p := marketgate.NewCryptoPrice("bitcoin", "usd", d("66000"), d("10"), time.Now())
	p.Symbol = "BTC"
	doc := RenderCrypto(p)
	assertContains(t, doc, "# BTC", "* Price: $66,000.00", "* 24h Change: +$6,000.00 (+10.00%)", "* Previous: $60,000.00")
}

func TestRenderFearGreed(t *testing.T) {
	week := 40
	doc := RenderFearGreed(marketgate.FearGreed{Score: 80, Rating: "Extreme Greed", OneWeekAgo: &week})
	assertContains(t, doc, "**80**: Extreme Greed", "| - | 40 | - |")
}
