package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"screener_go/internal/infra/binance"
)

// ListingSource is the slice of the exchange client the tracker needs.
type ListingSource interface {
	ExchangeInfo(ctx context.Context) ([]binance.ExchangeSymbol, error)
}

// ListingTracker polls the exchange's symbol metadata and records the
// most recently onboarded perpetual contract. Cadence is hourly; new
// listings are rare.
type ListingTracker struct {
	source     ListingSource
	store      *MarketStore
	quoteAsset string
	interval   time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewListingTracker creates a tracker.
func NewListingTracker(source ListingSource, store *MarketStore, quoteAsset string, interval time.Duration) *ListingTracker {
	return &ListingTracker{
		source:     source,
		store:      store,
		quoteAsset: quoteAsset,
		interval:   interval,
	}
}

// Start refreshes immediately, then on the configured interval.
func (t *ListingTracker) Start(ctx context.Context) error {
	ctx, t.cancel = context.WithCancel(ctx)

	if err := t.refresh(ctx); err != nil {
		slog.Warn("Initial listing refresh failed", slog.Any("error", err))
		// Continue anyway - will retry on next tick
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				slog.Info("Listing tracker stopped")
				return
			case <-ticker.C:
				if err := t.refresh(ctx); err != nil {
					slog.Warn("Listing refresh failed", slog.Any("error", err))
				}
			}
		}
	}()

	return nil
}

// Stop cancels the polling loop.
func (t *ListingTracker) Stop() {
	if t.cancel != nil {
		t.cancel()
		t.wg.Wait()
	}
}

func (t *ListingTracker) refresh(ctx context.Context) error {
	symbols, err := t.source.ExchangeInfo(ctx)
	if err != nil {
		return err
	}

	if latest := LatestListed(symbols, t.quoteAsset); latest != "" {
		t.store.SetLastListed(latest)
		slog.Debug("Last listed symbol updated", slog.String("symbol", latest))
	}
	return nil
}

// LatestListed picks the perpetual contract with the newest onboard
// date among symbols quoted in quoteAsset. Returns "" when none match.
func LatestListed(symbols []binance.ExchangeSymbol, quoteAsset string) string {
	var latest string
	var latestDate int64

	for _, s := range symbols {
		if s.ContractType != "PERPETUAL" || !strings.HasSuffix(s.Symbol, quoteAsset) {
			continue
		}
		if s.OnboardDate > latestDate {
			latestDate = s.OnboardDate
			latest = s.Symbol
		}
	}
	return latest
}
