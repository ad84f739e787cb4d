package marketgate

import (
	"slices"
	"strings"
)

// NormalizeSymbols trims and upper-cases symbols, dropping empty and
// duplicated entries. The first occurrence order is kept.
func NormalizeSymbols(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	result := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		result = append(result, s)
	}
	return result
}

// ParseSymbols splits a comma separated list of symbols and normalizes it.
func ParseSymbols(list string) []string {
	return NormalizeSymbols(strings.Split(list, ","))
}

// SymbolsKey returns a cache key for a request over a set of symbols.
//
// The symbols are sorted so that the key does not depend on their order,
// params are appended verbatim.
func SymbolsKey(kind string, symbols []string, params ...string) string {
	sorted := slices.Clone(symbols)
	slices.Sort(sorted)
	parts := append([]string{kind, strings.Join(sorted, ",")}, params...)
	return strings.Join(parts, ":")
}

// SnapshotsKey is the cache key of a snapshot request.
func SnapshotsKey(symbols []string, extended bool) string {
	if extended {
		return SymbolsKey("snapshots", symbols, "extended")
	}
	return SymbolsKey("snapshots", symbols)
}

// BarsKey is the cache key of a bars request.
func BarsKey(symbols []string, timeframe, start, end string) string {
	return SymbolsKey("bars", symbols, timeframe, start, end)
}

// AssetClass tells which provider serves a symbol.
type AssetClass int

const (
	Stock AssetClass = iota
	Forex
	Crypto
	DollarIndex
)

func (a AssetClass) String() string {
	switch a {
	case Forex:
		return "forex"
	case Crypto:
		return "crypto"
	case DollarIndex:
		return "dollar-index"
	}
	return "stock"
}

// currencies recognized in forex pairs.
var currencies = []string{"USD", "EUR", "GBP", "JPY", "CAD", "AUD", "CHF", "SEK", "NOK", "DKK", "ILS", "NZD"}

func isCurrency(code string) bool { return slices.Contains(currencies, code) }

// Classify returns the asset class of a normalized symbol.
//
//   - "USD" alone is the dollar index;
//   - anything mentioning BTC or ETH is crypto;
//   - "EURUSD=X" and six letter pairs of known currencies are forex;
//   - everything else is a stock.
func Classify(symbol string) AssetClass {
	switch {
	case symbol == "USD":
		return DollarIndex
	case strings.Contains(symbol, "BTC") || strings.Contains(symbol, "ETH"):
		return Crypto
	case strings.HasSuffix(symbol, "=X"):
		return Forex
	case len(symbol) == 6 && isCurrency(symbol[:3]) && isCurrency(symbol[3:]):
		return Forex
	}
	return Stock
}

// ForexPair returns the base and quote currencies of a forex symbol.
// Symbols that are not a recognizable pair are quoted against USD.
func ForexPair(symbol string) (base, quote string) {
	pair := strings.TrimSuffix(symbol, "=X")
	if len(pair) == 6 {
		return pair[:3], pair[3:]
	}
	return "USD", strings.ReplaceAll(pair, "USD", "")
}

// CryptoID returns the coin identifier (as used by price aggregators) of a
// crypto symbol.
func CryptoID(symbol string) (id string, ok bool) {
	switch {
	case strings.Contains(symbol, "BTC"):
		return "bitcoin", true
	case strings.Contains(symbol, "ETH"):
		return "ethereum", true
	}
	return "", false
}
