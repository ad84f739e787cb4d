package gateway

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/etnz/marketgate"
	"github.com/etnz/marketgate/scheduler"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

type fakeForex struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeForex) Rate(ctx context.Context, base, quote string) (marketgate.ForexRate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return marketgate.ForexRate{}, f.err
	}
	return marketgate.NewForexRate(base, quote, decimal.RequireFromString("1.10"), decimal.RequireFromString("1.00"), "2025-03-11", time.Now()), nil
}

func (f *fakeForex) DollarIndex(ctx context.Context) (marketgate.ForexRate, error) {
	return marketgate.NewForexRate("USD", "DXY", decimal.RequireFromString("104"), decimal.RequireFromString("103"), "2025-03-11", time.Now()), nil
}

type fakeCrypto struct {
	mu  sync.Mutex
	ids [][]string
}

func (f *fakeCrypto) Prices(ctx context.Context, ids []string, currency string) (map[string]marketgate.CryptoPrice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, ids)
	res := make(map[string]marketgate.CryptoPrice)
	for _, id := range ids {
		res[id] = marketgate.NewCryptoPrice(id, currency, decimal.NewFromInt(50000), decimal.NewFromInt(25), time.Now())
	}
	return res, nil
}

type fakeSentiment struct{ calls int }

func (f *fakeSentiment) FearGreed(ctx context.Context) (marketgate.FearGreed, error) {
	f.calls++
	return marketgate.FearGreed{Score: 62, Rating: marketgate.FearGreedRating(62)}, nil
}

func newMarkets(t *testing.T, opts ...MarketsOption) (*Markets, *fakeUpstream) {
	t.Helper()
	up := newFakeUpstream()
	g := newGateway(t, up, testConfig())
	aux, err := scheduler.New(scheduler.Config{Name: "aux", Timeout: time.Second})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { aux.Close() })
	return NewMarkets(g, aux, DefaultAuxConfig(), opts...), up
}

func TestMarkets_Snapshots(t *testing.T) {
	fx, coins := &fakeForex{}, &fakeCrypto{}
	m, up := newMarkets(t, WithForex(fx), WithCrypto(coins))

	res, err := m.Snapshots(context.Background(), []string{"AAPL", "eurusd=x", "BTCUSD", "ETH", "USD", "GBPJPY"}, false)
	if err != nil {
		t.Fatalf("Snapshots() error = %v", err)
	}
	want := []string{"AAPL", "BTCUSD", "ETH", "EURUSD=X", "GBPJPY", "USD"}
	if diff := cmp.Diff(want, res.Symbols()); diff != "" {
		t.Errorf("Snapshots() symbols mismatch (-want +got):\n%s", diff)
	}
	if res.RequestedSymbols != 6 || res.ReturnedSymbols != 6 {
		t.Errorf("Snapshots() requested = %d, returned = %d, want 6, 6", res.RequestedSymbols, res.ReturnedSymbols)
	}
	if diff := cmp.Diff([][]string{{"AAPL"}}, up.calls); diff != "" {
		t.Errorf("stock upstream calls mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][]string{{"bitcoin", "ethereum"}}, coins.ids); diff != "" {
		t.Errorf("crypto calls mismatch (-want +got):\n%s", diff)
	}
	if got := res.Snapshots["EURUSD=X"].CurrentPrice(); !got.Equal(decimal.RequireFromString("1.10")) {
		t.Errorf("EURUSD=X price = %v, want 1.10", got)
	}
	if got := res.Snapshots["BTCUSD"].PreviousClose(); !got.Equal(decimal.NewFromInt(40000)) {
		t.Errorf("BTCUSD previous close = %v, want 40000", got)
	}

	again, err := m.Snapshots(context.Background(), []string{"GBPJPY", "AAPL", "BTCUSD", "ETH", "USD", "EURUSD=X"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if !again.Cached {
		t.Error("second Snapshots() Cached = false, want true")
	}
	if fx.calls != 2 {
		t.Errorf("forex Rate called %d times, want 2", fx.calls)
	}
}

func TestMarkets_SourceFailures(t *testing.T) {
	fx := &fakeForex{err: errors.New("frankfurter down")}
	m, _ := newMarkets(t, WithForex(fx))

	res, err := m.Snapshots(context.Background(), []string{"AAPL", "EURUSD", "BTCUSD"}, true)
	if err != nil {
		t.Fatalf("Snapshots() error = %v", err)
	}
	if diff := cmp.Diff([]string{"AAPL"}, res.Symbols()); diff != "" {
		t.Errorf("Snapshots() symbols mismatch (-want +got):\n%s", diff)
	}
	if len(res.Errors) != 2 {
		t.Fatalf("Snapshots() errors = %q, want 2", res.Errors)
	}
	if !strings.Contains(res.Errors[0], "EURUSD") || !strings.Contains(res.Errors[1], "BTCUSD") {
		t.Errorf("Snapshots() errors = %q, want EURUSD then BTCUSD", res.Errors)
	}
	if res.Snapshots["AAPL"].Extended == nil {
		t.Error("AAPL not annotated with extended hours")
	}
	if res.Cached {
		t.Error("Snapshots() Cached = true, want false")
	}
}

func TestMarkets_Forex(t *testing.T) {
	m, _ := newMarkets(t, WithForex(&fakeForex{}))
	ctx := context.Background()

	r, err := m.Forex(ctx, "eurusd")
	if err != nil {
		t.Fatalf("Forex() error = %v", err)
	}
	if r.Base != "EUR" || r.Quote != "USD" || !r.ChangePercent.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Forex() = %+v, want EUR/USD up 10%%", r)
	}
	if dxy, err := m.Forex(ctx, "USD"); err != nil || dxy.Quote != "DXY" {
		t.Errorf("Forex(USD) = %+v, %v, want dollar index", dxy, err)
	}
	if _, err := m.Forex(ctx, "AAPL"); err == nil {
		t.Error("Forex(AAPL) error = nil, want error")
	}
}

func TestMarkets_Crypto(t *testing.T) {
	m, _ := newMarkets(t, WithCrypto(&fakeCrypto{}))
	p, err := m.Crypto(context.Background(), "btc")
	if err != nil {
		t.Fatalf("Crypto() error = %v", err)
	}
	if p.Symbol != "BTC" || p.ID != "bitcoin" {
		t.Errorf("Crypto() = %+v, want BTC/bitcoin", p)
	}
}

func TestMarkets_FearGreed(t *testing.T) {
	fg := &fakeSentiment{}
	m, _ := newMarkets(t, WithSentiment(fg))
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		got, err := m.FearGreed(ctx)
		if err != nil {
			t.Fatalf("FearGreed() error = %v", err)
		}
		if got.Rating != "Greed" {
			t.Errorf("FearGreed().Rating = %q, want Greed", got.Rating)
		}
	}
	if fg.calls != 1 {
		t.Errorf("sentiment source called %d times, want 1", fg.calls)
	}
}

func TestMarkets_NotConfigured(t *testing.T) {
	m, _ := newMarkets(t)
	if _, err := m.FearGreed(context.Background()); !errors.Is(err, marketgate.ErrNotConfigured) {
		t.Errorf("FearGreed() error = %v, want %v", err, marketgate.ErrNotConfigured)
	}
	res, err := m.Snapshots(context.Background(), []string{"EURUSD"}, false)
	if err != nil {
		t.Fatalf("Snapshots() error = %v", err)
	}
	if len(res.Errors) != 1 {
		t.Errorf("Snapshots() errors = %q, want one", res.Errors)
	}
}

func TestMarkets_Stats(t *testing.T) {
	m, _ := newMarkets(t)
	st := m.Stats()
	if st.Aux == nil || st.Aux.Name != "aux" {
		t.Errorf("Stats().Aux = %+v, want aux scheduler stats", st.Aux)
	}
}
