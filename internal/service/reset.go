package service

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// ResetScheduler clamps positive daily change percentages to zero once
// a day at a fixed UTC hour, then every 24 hours after that.
type ResetScheduler struct {
	store   *MarketStore
	hourUTC int

	// Injected for tests
	now func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewResetScheduler creates a scheduler firing at hourUTC each day.
func NewResetScheduler(store *MarketStore, hourUTC int) *ResetScheduler {
	return &ResetScheduler{
		store:   store,
		hourUTC: hourUTC,
		now:     time.Now,
	}
}

// Start arms the daily timer.
func (r *ResetScheduler) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		timer := time.NewTimer(time.Until(NextResetTime(r.now(), r.hourUTC)))
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
				r.store.ResetPositivePercents()
				slog.Info("Positive percentages reset", slog.Int("hour_utc", r.hourUTC))
				timer.Reset(time.Until(NextResetTime(r.now(), r.hourUTC)))
			}
		}
	}()
}

// Stop cancels the pending timer.
func (r *ResetScheduler) Stop() {
	if r.cancel != nil {
		r.cancel()
		r.wg.Wait()
	}
}

// NextResetTime returns the next occurrence of hourUTC strictly after now.
func NextResetTime(now time.Time, hourUTC int) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), hourUTC, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}
