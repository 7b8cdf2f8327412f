package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"screener_go/internal/domain"
	"screener_go/internal/infra/binance"

	"github.com/shopspring/decimal"
)

type fakeSnapshotSource struct {
	tickers  []binance.Ticker24h
	err      error
	failures int // first N calls fail before tickers are served
	calls    int
}

func (f *fakeSnapshotSource) Ticker24h(ctx context.Context) ([]binance.Ticker24h, error) {
	f.calls++
	if f.failures > 0 {
		f.failures--
		return nil, domain.NewFetchStatusError("ticker24h", 503)
	}
	return f.tickers, f.err
}

func btcTicker() binance.Ticker24h {
	return binance.Ticker24h{
		Symbol:             "BTCUSDT",
		LastPrice:          "50000",
		OpenPrice:          "49000",
		HighPrice:          "52000",
		LowPrice:           "48000",
		PriceChange:        "1000",
		PriceChangePercent: "2.04",
		QuoteVolume:        "61725000",
		Count:              98765,
	}
}

func TestSnapshotLoader_Load(t *testing.T) {
	source := &fakeSnapshotSource{tickers: []binance.Ticker24h{btcTicker()}}
	loader := NewSnapshotLoader(source, "USDT", nil)

	entries, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	e := entries[0]
	if e.Token != "BTC" || e.QuoteAsset != "USDT" {
		t.Errorf("instrument = %+v", e.Instrument)
	}

	// Synthetic seed band: price*0.95, price*1.05, price
	want := []int64{47500, 52500, 50000}
	if len(e.Stats.History) != 3 {
		t.Fatalf("expected 3 seeded history points, got %d", len(e.Stats.History))
	}
	for i, w := range want {
		if !e.Stats.History[i].Equal(decimal.NewFromInt(w)) {
			t.Errorf("history[%d] = %v, want %d", i, e.Stats.History[i], w)
		}
	}

	if e.Ratio != domain.RatioUnavailable {
		t.Errorf("fresh entry ratio = %q, want N/A", e.Ratio)
	}
}

func TestSnapshotLoader_Filtering(t *testing.T) {
	source := &fakeSnapshotSource{tickers: []binance.Ticker24h{
		btcTicker(),
		{Symbol: "ETHBTC", LastPrice: "0.06", OpenPrice: "0.06", HighPrice: "0.06", LowPrice: "0.06",
			PriceChange: "0", PriceChangePercent: "0", QuoteVolume: "1"},
		{Symbol: "DGBUSDT", LastPrice: "0.01", OpenPrice: "0.01", HighPrice: "0.01", LowPrice: "0.01",
			PriceChange: "0", PriceChangePercent: "0", QuoteVolume: "1"},
	}}

	loader := NewSnapshotLoader(source, "USDT", []string{"DGBUSDT"})
	entries, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(entries) != 1 || entries[0].Symbol != "BTCUSDT" {
		t.Errorf("filtering failed: %+v", entries)
	}
}

func TestSnapshotLoader_MalformedEntrySkipped(t *testing.T) {
	bad := btcTicker()
	bad.Symbol = "ETHUSDT"
	bad.LastPrice = "not-a-number"

	source := &fakeSnapshotSource{tickers: []binance.Ticker24h{btcTicker(), bad}}
	loader := NewSnapshotLoader(source, "USDT", nil)

	entries, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Symbol != "BTCUSDT" {
		t.Errorf("malformed entry not skipped: %+v", entries)
	}
}

func TestSnapshotLoader_LoadWithRetry(t *testing.T) {
	t.Run("recovers from transient failures", func(t *testing.T) {
		source := &fakeSnapshotSource{tickers: []binance.Ticker24h{btcTicker()}, failures: 2}
		loader := NewSnapshotLoader(source, "USDT", nil)

		entries, err := loader.LoadWithRetry(context.Background(), time.Millisecond)
		if err != nil {
			t.Fatalf("LoadWithRetry failed: %v", err)
		}
		if len(entries) != 1 || entries[0].Symbol != "BTCUSDT" {
			t.Errorf("unexpected entries: %+v", entries)
		}
		if source.calls != 3 {
			t.Errorf("expected 3 attempts, got %d", source.calls)
		}
	})

	t.Run("stops on cancellation", func(t *testing.T) {
		source := &fakeSnapshotSource{failures: 1 << 30}
		loader := NewSnapshotLoader(source, "USDT", nil)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := loader.LoadWithRetry(ctx, time.Millisecond); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestSnapshotLoader_Failures(t *testing.T) {
	t.Run("fetch error propagates", func(t *testing.T) {
		source := &fakeSnapshotSource{err: domain.NewFetchError("ticker24h", errors.New("boom"))}
		loader := NewSnapshotLoader(source, "USDT", nil)

		if _, err := loader.Load(context.Background()); err == nil {
			t.Error("expected fetch error")
		}
	})

	t.Run("empty result is an error", func(t *testing.T) {
		loader := NewSnapshotLoader(&fakeSnapshotSource{}, "USDT", nil)

		_, err := loader.Load(context.Background())
		if !errors.Is(err, domain.ErrEmptySnapshot) {
			t.Errorf("expected ErrEmptySnapshot, got %v", err)
		}
	})
}
