package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"screener_go/internal/domain"
	"screener_go/internal/infra"
	"screener_go/internal/infra/binance"

	"github.com/shopspring/decimal"
)

// RatioSource is the slice of the exchange client the refresher needs.
type RatioSource interface {
	LongShortRatio(ctx context.Context, symbol, period string) ([]binance.RatioPoint, error)
}

// RefresherConfig bundles the refresher's cadence knobs.
type RefresherConfig struct {
	Period       string        // ratio bucket period, e.g. "5m"
	SeriesIndex  int           // which bucket of the returned series to take
	TTL          time.Duration // cached entries younger than this are served as-is
	Interval     time.Duration // full refresh cycle cadence
	RequestDelay time.Duration // fixed pause between consecutive fetches
}

// RatioRefresher periodically fetches each instrument's long/short
// ratio on its own rate-limited cadence, independent of the stream.
// Requests are serialized with a fixed inter-request delay: the
// upstream endpoint is rate-sensitive and a burst for hundreds of
// symbols would get the IP banned.
type RatioRefresher struct {
	source RatioSource
	cache  domain.RatioCache
	store  *MarketStore
	cfg    RefresherConfig

	entries map[string]domain.RatioEntry

	// Injected for tests
	now   func() time.Time
	sleep func(time.Duration)

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRatioRefresher creates a refresher. cache may be nil when no
// persistence is configured.
func NewRatioRefresher(source RatioSource, cache domain.RatioCache, store *MarketStore, cfg RefresherConfig) *RatioRefresher {
	return &RatioRefresher{
		source:  source,
		cache:   cache,
		store:   store,
		cfg:     cfg,
		entries: make(map[string]domain.RatioEntry),
		now:     time.Now,
		sleep:   time.Sleep,
	}
}

// Restore loads the persisted cache. Fresh entries are merged into the
// read model immediately; stale ones are dropped so the first cycle
// refetches them.
func (r *RatioRefresher) Restore(ctx context.Context) error {
	if r.cache == nil {
		return nil
	}

	persisted, err := r.cache.Load(ctx)
	if err != nil {
		return err
	}

	now := r.now()
	restored := make(map[string]string)
	for symbol, entry := range persisted {
		if entry.IsStale(r.cfg.TTL, now) {
			continue
		}
		r.entries[symbol] = entry
		restored[symbol] = entry.Value
	}
	r.store.SetRatios(restored)

	slog.Info("Ratio cache restored",
		slog.Int("persisted", len(persisted)),
		slog.Int("fresh", len(restored)))
	return nil
}

// Start restores the cache, runs one immediate refresh cycle, then
// refreshes on the configured interval until Stop or ctx cancellation.
func (r *RatioRefresher) Start(ctx context.Context) error {
	ctx, r.cancel = context.WithCancel(ctx)

	if err := r.Restore(ctx); err != nil {
		slog.Warn("Ratio cache restore failed", slog.Any("error", err))
		// Continue anyway - the cycle below repopulates the cache
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("Ratio refresher panic recovered", slog.Any("panic", rec))
			}
		}()

		r.RefreshAll(ctx)

		ticker := time.NewTicker(r.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				slog.Info("Ratio refresher stopped")
				return
			case <-ticker.C:
				r.RefreshAll(ctx)
			}
		}
	}()

	return nil
}

// Stop cancels the refresh loop and waits for it to finish.
func (r *RatioRefresher) Stop() {
	if r.cancel != nil {
		r.cancel()
		r.wg.Wait()
	}
}

// RefreshAll runs one refresh cycle over the registry. Symbols with a
// fresh cached entry are skipped; the rest are fetched one at a time
// with the fixed politeness delay. A failing symbol gets "N/A" cached
// and never blocks the rest of the batch.
func (r *RatioRefresher) RefreshAll(ctx context.Context) {
	for _, symbol := range r.store.Symbols() {
		if ctx.Err() != nil {
			return
		}

		if entry, ok := r.entries[symbol]; ok && !entry.IsStale(r.cfg.TTL, r.now()) {
			continue
		}

		r.refreshOne(ctx, symbol)
		r.sleep(r.cfg.RequestDelay)
	}
}

func (r *RatioRefresher) refreshOne(ctx context.Context, symbol string) {
	infra.GlobalMetrics.RecordRatioFetch()

	value := domain.RatioUnavailable
	points, err := r.source.LongShortRatio(ctx, symbol, r.cfg.Period)
	switch {
	case err != nil:
		infra.GlobalMetrics.RecordRatioFailure()
		slog.Warn("Ratio fetch failed", slog.String("symbol", symbol), slog.Any("error", err))
	case len(points) <= r.cfg.SeriesIndex:
		slog.Debug("Ratio series too short",
			slog.String("symbol", symbol),
			slog.Int("len", len(points)),
			slog.Any("error", domain.ErrSeriesTooShort))
	default:
		value = formatRatio(points[r.cfg.SeriesIndex].LongShortRatio)
	}

	entry := domain.RatioEntry{Value: value, FetchedAt: r.now()}
	r.entries[symbol] = entry
	r.store.SetRatio(symbol, value)

	if r.cache != nil {
		if err := r.cache.Put(ctx, symbol, entry); err != nil {
			slog.Warn("Ratio cache write failed", slog.String("symbol", symbol), slog.Any("error", err))
		}
	}
}

// formatRatio normalizes a raw ratio string to 4 decimal places.
// Unparsable values become "N/A" rather than leaking upstream garbage.
func formatRatio(raw string) string {
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return domain.RatioUnavailable
	}
	return v.StringFixed(4)
}
