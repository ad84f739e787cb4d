package renderer

import (
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Currency of the stock and crypto prices.
const Currency = "USD"

// MoneyIn formats value in currency, like "$1,234.56" for USD.
func MoneyIn(value decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return value.StringFixed(2) + " " + currency
	}
	dec := value.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(dec.IntPart())
}

// Money formats a USD value.
func Money(value decimal.Decimal) string { return MoneyIn(value, Currency) }

// SignedMoney formats a USD move with an explicit sign, "-" when zero.
func SignedMoney(value decimal.Decimal) string {
	if value.IsZero() {
		return "-"
	}
	if value.IsPositive() {
		return "+" + Money(value)
	}
	return "-" + Money(value.Neg())
}

// Percent formats a percentage with an explicit sign.
func Percent(value decimal.Decimal) string {
	s := value.StringFixed(2) + "%"
	if value.IsPositive() {
		return "+" + s
	}
	return s
}

// Rate formats an exchange rate.
func Rate(value decimal.Decimal) string { return value.StringFixed(4) }

// Date formats the day of t, "-" when unknown.
func Date(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.DateOnly)
}
