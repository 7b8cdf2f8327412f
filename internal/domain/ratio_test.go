package domain

import (
	"testing"
	"time"
)

func TestRatioEntry_IsStale(t *testing.T) {
	ttl := 5 * time.Minute
	now := time.Now()

	t.Run("just past TTL", func(t *testing.T) {
		e := RatioEntry{Value: "1.2345", FetchedAt: now.Add(-ttl - time.Millisecond)}
		if !e.IsStale(ttl, now) {
			t.Error("entry older than TTL should be stale")
		}
	})

	t.Run("fresh", func(t *testing.T) {
		e := RatioEntry{Value: "1.2345", FetchedAt: now.Add(-time.Millisecond)}
		if e.IsStale(ttl, now) {
			t.Error("fresh entry should not be stale")
		}
	})
}

func TestRatioEntry_IsAvailable(t *testing.T) {
	if (RatioEntry{Value: RatioUnavailable}).IsAvailable() {
		t.Error("N/A should not be available")
	}
	if (RatioEntry{}).IsAvailable() {
		t.Error("empty value should not be available")
	}
	if !(RatioEntry{Value: "0.9876"}).IsAvailable() {
		t.Error("real value should be available")
	}
}
