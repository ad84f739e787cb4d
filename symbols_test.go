package marketgate

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalizeSymbols(t *testing.T) {
	tests := []struct {
		input []string
		want  []string
	}{
		{nil, []string{}},
		{[]string{" aapl ", "MSFT", "aapl", "", "  "}, []string{"AAPL", "MSFT"}},
		{[]string{"brk.b", "BRK.B"}, []string{"BRK.B"}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, NormalizeSymbols(tt.input)); diff != "" {
			t.Errorf("NormalizeSymbols(%q) mismatch (-want +got):\n%s", tt.input, diff)
		}
	}
}

func TestParseSymbols(t *testing.T) {
	got := ParseSymbols("aapl, msft,,googl")
	if diff := cmp.Diff([]string{"AAPL", "MSFT", "GOOGL"}, got); diff != "" {
		t.Errorf("ParseSymbols() mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshotsKey_OrderIndependent(t *testing.T) {
	a := SnapshotsKey([]string{"AAPL", "MSFT"}, false)
	b := SnapshotsKey([]string{"MSFT", "AAPL"}, false)
	if a != b {
		t.Errorf("SnapshotsKey() = %q and %q, want equal keys", a, b)
	}
	if a != "snapshots:AAPL,MSFT" {
		t.Errorf("SnapshotsKey() = %q, want snapshots:AAPL,MSFT", a)
	}
	if e := SnapshotsKey([]string{"MSFT", "AAPL"}, true); e == a {
		t.Errorf("SnapshotsKey(extended) = %q, want a distinct key", e)
	}
}

func TestBarsKey(t *testing.T) {
	a := BarsKey([]string{"MSFT", "AAPL"}, "1Day", "2025-01-01", "2025-02-01")
	if want := "bars:AAPL,MSFT:1Day:2025-01-01:2025-02-01"; a != want {
		t.Errorf("BarsKey() = %q, want %q", a, want)
	}
}

func TestSymbolsKey_DoesNotMutate(t *testing.T) {
	syms := []string{"MSFT", "AAPL"}
	SymbolsKey("x", syms)
	if syms[0] != "MSFT" {
		t.Errorf("SymbolsKey() sorted its input: %v", syms)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		symbol string
		want   AssetClass
	}{
		{"AAPL", Stock},
		{"USD", DollarIndex},
		{"BTCUSD", Crypto},
		{"ETH", Crypto},
		{"EURUSD=X", Forex},
		{"EURUSD", Forex},
		{"USDILS", Forex},
		{"ABCDEF", Stock},
		{"USDXYZ", Stock},
		{"EUR", Stock},
	}
	for _, tt := range tests {
		if got := Classify(tt.symbol); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.symbol, got, tt.want)
		}
	}
}

func TestForexPair(t *testing.T) {
	tests := []struct {
		symbol      string
		base, quote string
	}{
		{"EURUSD", "EUR", "USD"},
		{"GBPJPY=X", "GBP", "JPY"},
		{"ILS=X", "USD", "ILS"},
	}
	for _, tt := range tests {
		base, quote := ForexPair(tt.symbol)
		if base != tt.base || quote != tt.quote {
			t.Errorf("ForexPair(%q) = %q, %q, want %q, %q", tt.symbol, base, quote, tt.base, tt.quote)
		}
	}
}

func TestCryptoID(t *testing.T) {
	tests := []struct {
		symbol string
		want   string
		ok     bool
	}{
		{"BTCUSD", "bitcoin", true},
		{"ETH", "ethereum", true},
		{"AAPL", "", false},
	}
	for _, tt := range tests {
		got, ok := CryptoID(tt.symbol)
		if got != tt.want || ok != tt.ok {
			t.Errorf("CryptoID(%q) = %q, %v, want %q, %v", tt.symbol, got, ok, tt.want, tt.ok)
		}
	}
}
