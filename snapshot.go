package marketgate

import (
	"maps"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Trade is the latest trade print for a symbol.
type Trade struct {
	Price     decimal.Decimal `json:"p"`
	Size      decimal.Decimal `json:"s"`
	Timestamp time.Time       `json:"t"`
}

// Quote is the latest national best bid and offer for a symbol.
type Quote struct {
	AskPrice  decimal.Decimal `json:"ap"`
	AskSize   decimal.Decimal `json:"as"`
	BidPrice  decimal.Decimal `json:"bp"`
	BidSize   decimal.Decimal `json:"bs"`
	Timestamp time.Time       `json:"t"`
}

// Bar is an OHLCV aggregate.
type Bar struct {
	Open       decimal.Decimal `json:"o"`
	High       decimal.Decimal `json:"h"`
	Low        decimal.Decimal `json:"l"`
	Close      decimal.Decimal `json:"c"`
	Volume     int64           `json:"v"`
	TradeCount int64           `json:"n,omitempty"`
	VWAP       decimal.Decimal `json:"vw"`
	Timestamp  time.Time       `json:"t"`
}

// Snapshot is the provider's latest price, quote and bar bundle for one symbol.
//
// Every section is optional: providers omit what they do not know.
type Snapshot struct {
	LatestTrade  *Trade `json:"latestTrade,omitempty"`
	LatestQuote  *Quote `json:"latestQuote,omitempty"`
	MinuteBar    *Bar   `json:"minuteBar,omitempty"`
	DailyBar     *Bar   `json:"dailyBar,omitempty"`
	PrevDailyBar *Bar   `json:"prevDailyBar,omitempty"`

	// Extended is only set when extended-hours fields were requested.
	Extended *ExtendedHours `json:"extended,omitempty"`
}

// CurrentPrice returns the latest trade price, falling back to the ask price.
func (s Snapshot) CurrentPrice() decimal.Decimal {
	if s.LatestTrade != nil && !s.LatestTrade.Price.IsZero() {
		return s.LatestTrade.Price
	}
	if s.LatestQuote != nil {
		return s.LatestQuote.AskPrice
	}
	return decimal.Zero
}

// PreviousClose returns the close of the previous daily bar, or zero.
func (s Snapshot) PreviousClose() decimal.Decimal {
	if s.PrevDailyBar == nil {
		return decimal.Zero
	}
	return s.PrevDailyBar.Close
}

// Today returns the current daily bar, or an empty one.
func (s Snapshot) Today() Bar {
	if s.DailyBar == nil {
		return Bar{}
	}
	return *s.DailyBar
}

// Clone returns a copy of s with its own sections.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		LatestTrade:  clonePtr(s.LatestTrade),
		LatestQuote:  clonePtr(s.LatestQuote),
		MinuteBar:    clonePtr(s.MinuteBar),
		DailyBar:     clonePtr(s.DailyBar),
		PrevDailyBar: clonePtr(s.PrevDailyBar),
		Extended:     clonePtr(s.Extended),
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// SnapshotResult is the merged answer to a multi-symbol snapshot request.
//
// Every requested symbol is either present in Snapshots or accounted for by
// exactly one entry in Errors or Warnings.
type SnapshotResult struct {
	Snapshots        map[string]Snapshot `json:"snapshots"`
	Errors           []string            `json:"errors"`
	Warnings         []string            `json:"warnings"`
	RequestedSymbols int                 `json:"requestedSymbols"`
	ReturnedSymbols  int                 `json:"returnedSymbols"`
	Cached           bool                `json:"cached"`
}

// NewSnapshotResult returns an empty result.
func NewSnapshotResult() *SnapshotResult {
	return &SnapshotResult{
		Snapshots: make(map[string]Snapshot),
		Errors:    []string{},
		Warnings:  []string{},
	}
}

// Merge adds all of o into r. Snapshots in o win over those already in r.
func (r *SnapshotResult) Merge(o *SnapshotResult) {
	maps.Copy(r.Snapshots, o.Snapshots)
	r.Errors = append(r.Errors, o.Errors...)
	r.Warnings = append(r.Warnings, o.Warnings...)
	r.RequestedSymbols += o.RequestedSymbols
	r.ReturnedSymbols = len(r.Snapshots)
}

// Clone returns a copy of r that shares nothing mutable with it.
func (r *SnapshotResult) Clone() *SnapshotResult {
	c := *r
	c.Snapshots = make(map[string]Snapshot, len(r.Snapshots))
	for sym, s := range r.Snapshots {
		c.Snapshots[sym] = s.Clone()
	}
	c.Errors = append([]string{}, r.Errors...)
	c.Warnings = append([]string{}, r.Warnings...)
	return &c
}

// Symbols returns the sorted list of symbols with a snapshot.
func (r *SnapshotResult) Symbols() []string {
	return slices.Sorted(maps.Keys(r.Snapshots))
}
