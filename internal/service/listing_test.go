package service

import (
	"context"
	"testing"
	"time"

	"screener_go/internal/domain"
	"screener_go/internal/infra/binance"
)

func perp(symbol string, onboard int64) binance.ExchangeSymbol {
	return binance.ExchangeSymbol{Symbol: symbol, ContractType: "PERPETUAL", OnboardDate: onboard}
}

func TestLatestListed(t *testing.T) {
	t.Run("picks newest onboard date", func(t *testing.T) {
		symbols := []binance.ExchangeSymbol{
			perp("BTCUSDT", 1569398400000),
			perp("NEWUSDT", 1755000000000),
			perp("ETHUSDT", 1574841600000),
		}
		if got := LatestListed(symbols, "USDT"); got != "NEWUSDT" {
			t.Errorf("LatestListed = %q, want NEWUSDT", got)
		}
	})

	t.Run("ignores non-perpetual contracts", func(t *testing.T) {
		symbols := []binance.ExchangeSymbol{
			perp("BTCUSDT", 1),
			{Symbol: "BTCUSDT_250926", ContractType: "CURRENT_QUARTER", OnboardDate: 9999999999999},
		}
		if got := LatestListed(symbols, "USDT"); got != "BTCUSDT" {
			t.Errorf("LatestListed = %q, want BTCUSDT", got)
		}
	})

	t.Run("ignores other quote assets", func(t *testing.T) {
		symbols := []binance.ExchangeSymbol{
			perp("BTCUSDT", 1),
			perp("ETHBTC", 9999999999999),
		}
		if got := LatestListed(symbols, "USDT"); got != "BTCUSDT" {
			t.Errorf("LatestListed = %q, want BTCUSDT", got)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if got := LatestListed(nil, "USDT"); got != "" {
			t.Errorf("LatestListed = %q, want empty", got)
		}
	})
}

type fakeListingSource struct {
	symbols []binance.ExchangeSymbol
	err     error
}

func (f *fakeListingSource) ExchangeInfo(ctx context.Context) ([]binance.ExchangeSymbol, error) {
	return f.symbols, f.err
}

func TestListingTracker_Refresh(t *testing.T) {
	store := newSeededStore(makeEntry("BTCUSDT", "BTC", 50000))
	source := &fakeListingSource{symbols: []binance.ExchangeSymbol{
		perp("BTCUSDT", 1),
		perp("NEWUSDT", 2),
	}}

	tracker := NewListingTracker(source, store, "USDT", time.Hour)
	if err := tracker.refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	if got := store.LastListed(); got != "NEWUSDT" {
		t.Errorf("LastListed = %q, want NEWUSDT", got)
	}
}

func TestListingTracker_RefreshErrorKeepsPrevious(t *testing.T) {
	store := newSeededStore(makeEntry("BTCUSDT", "BTC", 50000))
	store.SetLastListed("OLDUSDT")

	source := &fakeListingSource{err: domain.NewFetchStatusError("exchangeInfo", 503)}
	tracker := NewListingTracker(source, store, "USDT", time.Hour)

	if err := tracker.refresh(context.Background()); err == nil {
		t.Fatal("expected error to propagate")
	}
	if got := store.LastListed(); got != "OLDUSDT" {
		t.Errorf("LastListed = %q, want previous value kept", got)
	}
}
