package marketgate

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Change is a price move between two reference prices.
type Change struct {
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"changePercent"`
	From          decimal.Decimal `json:"from"`
	To            decimal.Decimal `json:"to"`
	Description   string          `json:"description"`
}

// NewChange computes the move from `from` to `to`.
// The percentage is zero when `from` is not positive.
func NewChange(label string, from, to decimal.Decimal) Change {
	diff := to.Sub(from)
	pct := decimal.Zero
	if from.IsPositive() {
		pct = diff.Div(from).Mul(hundred)
	}
	return Change{
		Change:        diff,
		ChangePercent: pct,
		From:          from,
		To:            to,
		Description:   fmt.Sprintf("%s: %s → %s", label, from.StringFixed(2), to.StringFixed(2)),
	}
}

// ExtendedHours holds the fields derived from a snapshot for extended-hours
// trading: overnight gap, intraday and total daily moves, plus the session the
// exchange was in when the snapshot was annotated.
type ExtendedHours struct {
	CurrentPrice  decimal.Decimal `json:"currentPrice"`
	PreviousClose decimal.Decimal `json:"previousClose"`
	TodayOpen     decimal.Decimal `json:"todayOpen"`
	TodayHigh     decimal.Decimal `json:"todayHigh"`
	TodayLow      decimal.Decimal `json:"todayLow"`
	TodayVolume   int64           `json:"todayVolume"`

	Gap        Change `json:"preMarketData"`  // previous close → today's open
	Intraday   Change `json:"intradayData"`   // today's open → latest trade
	TotalDaily Change `json:"totalDailyData"` // previous close → latest trade

	Session      Session   `json:"session"`
	IsPreMarket  bool      `json:"isPreMarket"`
	IsAfterHours bool      `json:"isAfterHours"`
	IsMarketOpen bool      `json:"isMarketOpen"`
	UpdatedAt    time.Time `json:"lastUpdateTime"`
}

// Annotate returns s with its Extended fields computed at time now.
func Annotate(s Snapshot, cal Calendar, now time.Time) Snapshot {
	current := s.CurrentPrice()
	prev := s.PreviousClose()
	today := s.Today()
	session := cal.Session(now)

	s.Extended = &ExtendedHours{
		CurrentPrice:  current,
		PreviousClose: prev,
		TodayOpen:     today.Open,
		TodayHigh:     today.High,
		TodayLow:      today.Low,
		TodayVolume:   today.Volume,
		Gap:           NewChange("Overnight Gap", prev, today.Open),
		Intraday:      NewChange("Market Session", today.Open, current),
		TotalDaily:    NewChange("Total Daily", prev, current),
		Session:       session,
		IsPreMarket:   session == PreMarket,
		IsAfterHours:  session == AfterHours,
		IsMarketOpen:  session == Regular,
		UpdatedAt:     now.UTC(),
	}
	return s
}
