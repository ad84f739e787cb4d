package marketgate

import (
	"time"

	"github.com/shopspring/decimal"
)

// CryptoPrice is the latest price of a coin and its 24h move.
type CryptoPrice struct {
	Symbol        string          `json:"symbol"`
	ID            string          `json:"id"`
	Currency      string          `json:"currency"`
	Price         decimal.Decimal `json:"price"`
	PreviousPrice decimal.Decimal `json:"previousPrice"`
	Change        decimal.Decimal `json:"dailyChange"`
	ChangePercent decimal.Decimal `json:"dailyChangePercent"`
	Timestamp     time.Time       `json:"timestamp"`
}

// NewCryptoPrice derives the previous price from the price and its 24h
// percentage change.
func NewCryptoPrice(id, currency string, price, changePercent decimal.Decimal, now time.Time) CryptoPrice {
	prev := price
	if factor := decimal.NewFromInt(1).Add(changePercent.Div(hundred)); factor.IsPositive() {
		prev = price.Div(factor)
	}
	return CryptoPrice{
		ID:            id,
		Currency:      currency,
		Price:         price,
		PreviousPrice: prev,
		Change:        price.Sub(prev),
		ChangePercent: changePercent,
		Timestamp:     now.UTC(),
	}
}

// Snapshot presents the price in the shape of an equity snapshot.
func (p CryptoPrice) Snapshot() Snapshot {
	return Snapshot{
		LatestTrade:  &Trade{Price: p.Price, Timestamp: p.Timestamp},
		PrevDailyBar: &Bar{Close: p.PreviousPrice},
		DailyBar: &Bar{
			Open: p.PreviousPrice,
			High: decimal.Max(p.Price, p.PreviousPrice),
			Low:  decimal.Min(p.Price, p.PreviousPrice),
		},
	}
}
