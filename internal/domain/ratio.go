package domain

import "time"

// RatioUnavailable marks a failed or missing long/short ratio fetch.
// It is cached like a real value so a permanently failing symbol is
// retried only after the TTL, never hot-looped.
const RatioUnavailable = "N/A"

// RatioEntry is one cached long/short ratio value. Value is either a
// ratio formatted to 4 decimal places or RatioUnavailable.
type RatioEntry struct {
	Value     string    `json:"value"`
	FetchedAt time.Time `json:"fetched_at"`
}

// IsStale reports whether the entry is older than ttl at the given time.
// Stale entries are eligible for refresh; they are never an error.
func (e RatioEntry) IsStale(ttl time.Duration, now time.Time) bool {
	return now.Sub(e.FetchedAt) >= ttl
}

// IsAvailable reports whether the entry holds a real ratio value.
func (e RatioEntry) IsAvailable() bool {
	return e.Value != "" && e.Value != RatioUnavailable
}
