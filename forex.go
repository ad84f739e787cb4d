package marketgate

import (
	"time"

	"github.com/shopspring/decimal"
)

// ForexRate is the latest rate of a currency pair and its move since the
// previous business day.
type ForexRate struct {
	Base          string          `json:"base"`
	Quote         string          `json:"quote"`
	Rate          decimal.Decimal `json:"rate"`
	PreviousRate  decimal.Decimal `json:"previousRate"`
	Change        decimal.Decimal `json:"dailyChange"`
	ChangePercent decimal.Decimal `json:"dailyChangePercent"`
	Date          string          `json:"date"`
	Timestamp     time.Time       `json:"timestamp"`
}

// NewForexRate computes the daily change between previous and rate.
func NewForexRate(base, quote string, rate, previous decimal.Decimal, date string, now time.Time) ForexRate {
	c := NewChange(base+quote, previous, rate)
	return ForexRate{
		Base:          base,
		Quote:         quote,
		Rate:          rate,
		PreviousRate:  previous,
		Change:        c.Change,
		ChangePercent: c.ChangePercent,
		Date:          date,
		Timestamp:     now.UTC(),
	}
}

// Snapshot presents the rate in the shape of an equity snapshot, so that
// forex and stocks can be listed together.
func (r ForexRate) Snapshot() Snapshot {
	return Snapshot{
		LatestTrade:  &Trade{Price: r.Rate, Timestamp: r.Timestamp},
		PrevDailyBar: &Bar{Close: r.PreviousRate},
		DailyBar: &Bar{
			Open: r.PreviousRate,
			High: decimal.Max(r.Rate, r.PreviousRate),
			Low:  decimal.Min(r.Rate, r.PreviousRate),
		},
	}
}
