package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"screener_go/internal/domain"
	"screener_go/internal/infra/binance"

	"github.com/shopspring/decimal"
)

// SnapshotSource is the slice of the exchange client the loader needs.
type SnapshotSource interface {
	Ticker24h(ctx context.Context) ([]binance.Ticker24h, error)
}

// SnapshotLoader performs the one-shot bulk fetch that seeds the
// registry and the initial per-instrument stats.
type SnapshotLoader struct {
	source     SnapshotSource
	quoteAsset string
	excluded   map[string]bool
}

// NewSnapshotLoader creates a loader. excluded is the static list of
// symbols to drop even when they match the quote asset.
func NewSnapshotLoader(source SnapshotSource, quoteAsset string, excluded []string) *SnapshotLoader {
	ex := make(map[string]bool, len(excluded))
	for _, s := range excluded {
		ex[s] = true
	}
	return &SnapshotLoader{
		source:     source,
		quoteAsset: quoteAsset,
		excluded:   ex,
	}
}

// Load fetches the full ticker list and maps it into market entries.
// On any fetch or parse failure the caller keeps its previous state and
// marks status degraded; a failed load is never fatal.
func (l *SnapshotLoader) Load(ctx context.Context) ([]*domain.MarketEntry, error) {
	tickers, err := l.source.Ticker24h(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]*domain.MarketEntry, 0, len(tickers))
	for _, t := range tickers {
		if !strings.HasSuffix(t.Symbol, l.quoteAsset) || l.excluded[t.Symbol] {
			continue
		}

		entry, err := l.mapTicker(t)
		if err != nil {
			slog.Warn("Skipping malformed snapshot entry",
				slog.String("symbol", t.Symbol), slog.Any("error", err))
			continue
		}
		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		return nil, domain.NewFetchError("snapshot", domain.ErrEmptySnapshot)
	}
	return entries, nil
}

// LoadWithRetry retries Load on a fixed delay until it succeeds or ctx
// is cancelled. The registry is snapshot-authoritative: ticks for
// unregistered symbols are dropped, so the process serves nothing until
// one load has gone through.
func (l *SnapshotLoader) LoadWithRetry(ctx context.Context, delay time.Duration) ([]*domain.MarketEntry, error) {
	for {
		entries, err := l.Load(ctx)
		if err == nil {
			return entries, nil
		}
		slog.Warn("Snapshot load failed, retrying",
			slog.Duration("delay", delay), slog.Any("error", err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
}

func (l *SnapshotLoader) mapTicker(t binance.Ticker24h) (*domain.MarketEntry, error) {
	last, err := decimal.NewFromString(t.LastPrice)
	if err != nil {
		return nil, err
	}
	open, err := decimal.NewFromString(t.OpenPrice)
	if err != nil {
		return nil, err
	}
	high, err := decimal.NewFromString(t.HighPrice)
	if err != nil {
		return nil, err
	}
	low, err := decimal.NewFromString(t.LowPrice)
	if err != nil {
		return nil, err
	}
	change, err := decimal.NewFromString(t.PriceChange)
	if err != nil {
		return nil, err
	}
	percent, err := decimal.NewFromString(t.PriceChangePercent)
	if err != nil {
		return nil, err
	}
	quoteVolume, err := decimal.NewFromString(t.QuoteVolume)
	if err != nil {
		return nil, err
	}

	return &domain.MarketEntry{
		Instrument: domain.Instrument{
			Symbol:     t.Symbol,
			Token:      strings.TrimSuffix(t.Symbol, l.quoteAsset),
			QuoteAsset: l.quoteAsset,
		},
		Stats: domain.InstrumentStats{
			LastPrice:          last,
			OpenPrice:          open,
			HighPrice:          high,
			LowPrice:           low,
			PriceChange:        change,
			PriceChangePercent: percent,
			QuoteVolume:        quoteVolume,
			TradeCount:         t.Count,
			History:            domain.SeedHistory(last),
			Volatility:         domain.ComputeVolatility(high, low, open),
		},
		Ratio: domain.RatioUnavailable,
	}, nil
}
