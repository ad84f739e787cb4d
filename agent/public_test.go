package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/etnz/marketgate"
	"github.com/shopspring/decimal"
	"google.golang.org/genai"
)

type fakeMarkets struct {
	symbols  []string
	extended bool
	query    marketgate.BarsQuery
}

func (f *fakeMarkets) Snapshots(ctx context.Context, symbols []string, extended bool) (*marketgate.SnapshotResult, error) {
	f.symbols, f.extended = symbols, extended
	res := marketgate.NewSnapshotResult()
	for _, s := range symbols {
		res.Snapshots[s] = marketgate.Snapshot{LatestTrade: &marketgate.Trade{Price: decimal.NewFromInt(42)}}
	}
	res.RequestedSymbols, res.ReturnedSymbols = len(symbols), len(symbols)
	return res, nil
}

func (f *fakeMarkets) Bars(ctx context.Context, symbols []string, q marketgate.BarsQuery) (map[string][]marketgate.Bar, error) {
	f.symbols, f.query = symbols, q
	return map[string][]marketgate.Bar{}, nil
}

func (f *fakeMarkets) Forex(ctx context.Context, pair string) (marketgate.ForexRate, error) {
	return marketgate.ForexRate{}, errors.New("forex is down")
}

func (f *fakeMarkets) Crypto(ctx context.Context, symbol string) (marketgate.CryptoPrice, error) {
	return marketgate.CryptoPrice{Symbol: symbol, Price: decimal.NewFromInt(1)}, nil
}

func (f *fakeMarkets) FearGreed(ctx context.Context) (marketgate.FearGreed, error) {
	return marketgate.FearGreed{Score: 20, Rating: marketgate.FearGreedRating(20)}, nil
}

func call(lib Library, name string, args map[string]any) *genai.FunctionResponse {
	return lib(context.Background(), &genai.FunctionCall{ID: "1", Name: name, Args: args})
}

func TestTools(t *testing.T) {
	m := &fakeMarkets{}
	tools := Tools(m)
	lib := NewLibrary(tools)

	if got, want := len(Declarations(tools)), 5; got != want {
		t.Fatalf("len(Declarations()) = %d, want %d", got, want)
	}

	resp := call(lib, "Snapshots", map[string]any{"symbols": "aapl, msft", "extended": true})
	out, _ := resp.Response["output"].(string)
	if !strings.Contains(out, "| AAPL | $42.00 |") {
		t.Errorf("Snapshots output = %q, want the AAPL row", out)
	}
	if resp.ID != "1" || resp.Name != "Snapshots" {
		t.Errorf("Snapshots response = %s/%s, want 1/Snapshots", resp.ID, resp.Name)
	}
	if len(m.symbols) != 2 || !m.extended {
		t.Errorf("Snapshots called with %v extended=%v, want [AAPL MSFT] extended=true", m.symbols, m.extended)
	}

	call(lib, "Bars", map[string]any{"symbols": "IBM", "days": float64(30)})
	if got := m.query.End.Sub(m.query.Start).Hours() / 24; got != 30 {
		t.Errorf("Bars called over %v days, want 30", got)
	}

	resp = call(lib, "Forex", map[string]any{"pair": "EURUSD"})
	if got := resp.Response["error"]; got != "forex is down" {
		t.Errorf("Forex error = %v, want %q", got, "forex is down")
	}

	resp = call(lib, "FearGreed", nil)
	if out, _ := resp.Response["output"].(string); !strings.Contains(out, "Extreme Fear") {
		t.Errorf("FearGreed output = %q, want the rating", out)
	}

	resp = call(lib, "Crypto", map[string]any{"symbol": 12})
	if _, ok := resp.Response["error"]; !ok {
		t.Errorf("Crypto with a number did not fail: %v", resp.Response)
	}

	resp = call(lib, "Unknown", nil)
	if got := resp.Response["error"]; got != "unknown function Unknown" {
		t.Errorf("Unknown error = %v, want %q", got, "unknown function Unknown")
	}
}

func TestIntArg(t *testing.T) {
	tests := []struct {
		args    map[string]any
		want    int
		wantErr bool
	}{
		{map[string]any{}, 7, false},
		{map[string]any{"days": float64(3)}, 3, false},
		{map[string]any{"days": 4}, 4, false},
		{map[string]any{"days": float64(2.5)}, 0, true},
		{map[string]any{"days": float64(-1)}, 0, true},
		{map[string]any{"days": "3"}, 0, true},
	}
	for _, tt := range tests {
		got, err := intArg(tt.args, "days", 7)
		if (err != nil) != tt.wantErr {
			t.Errorf("intArg(%v) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("intArg(%v) = %d, want %d", tt.args, got, tt.want)
		}
	}
}

func TestExpertDeclaration(t *testing.T) {
	e := NewAnalyst(&fakeMarkets{})
	d := e.Declaration()
	if d.Name != "Analyst" || len(d.Parameters.Required) != 1 || d.Parameters.Required[0] != "question" {
		t.Errorf("Declaration() = %+v, want the Analyst asking a question", d)
	}
	if e.Library == nil {
		t.Error("Analyst has no library")
	}
}
