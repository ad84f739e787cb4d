package renderer

import (
	"cmp"
	"slices"

	"github.com/etnz/marketgate"
	"github.com/etnz/marketgate/cache"
	"github.com/etnz/marketgate/gateway"
	"github.com/etnz/marketgate/scheduler"
	"github.com/shopspring/decimal"
)

type snapshotRow struct {
	Symbol        string
	Price         decimal.Decimal
	PreviousClose decimal.Decimal
	Change        decimal.Decimal
	ChangePercent decimal.Decimal
	Volume        int64
}

type extendedRow struct {
	Symbol     string
	Session    marketgate.Session
	Gap        marketgate.Change
	Intraday   marketgate.Change
	TotalDaily marketgate.Change
}

type snapshotsView struct {
	Requested int
	Returned  int
	Cached    bool
	Rows      []snapshotRow
	Extended  []extendedRow
	Errors    []string
	Warnings  []string
}

func newSnapshotsView(res *marketgate.SnapshotResult) snapshotsView {
	v := snapshotsView{
		Requested: res.RequestedSymbols,
		Returned:  res.ReturnedSymbols,
		Cached:    res.Cached,
		Errors:    res.Errors,
		Warnings:  res.Warnings,
	}
	for _, sym := range res.Symbols() {
		snap := res.Snapshots[sym]
		c := marketgate.NewChange(sym, snap.PreviousClose(), snap.CurrentPrice())
		v.Rows = append(v.Rows, snapshotRow{
			Symbol:        sym,
			Price:         c.To,
			PreviousClose: c.From,
			Change:        c.Change,
			ChangePercent: c.ChangePercent,
			Volume:        snap.Today().Volume,
		})
		if ext := snap.Extended; ext != nil {
			v.Extended = append(v.Extended, extendedRow{
				Symbol:     sym,
				Session:    ext.Session,
				Gap:        ext.Gap,
				Intraday:   ext.Intraday,
				TotalDaily: ext.TotalDaily,
			})
		}
	}
	return v
}

type statsView struct {
	Schedulers []scheduler.Stats
	Cache      cache.Stats
}

func newStatsView(st gateway.MarketsStats) statsView {
	v := statsView{Schedulers: []scheduler.Stats{st.RateLimiter}}
	if st.Aux != nil {
		v.Schedulers = append(v.Schedulers, *st.Aux)
	}
	v.Cache = st.Cache
	return v
}

type barsView struct {
	Symbol string
	Bars   []marketgate.Bar
}

func newBarsView(bars map[string][]marketgate.Bar) []barsView {
	var v []barsView
	for sym, b := range bars {
		v = append(v, barsView{Symbol: sym, Bars: b})
	}
	slices.SortFunc(v, func(a, b barsView) int { return cmp.Compare(a.Symbol, b.Symbol) })
	return v
}
