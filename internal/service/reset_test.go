package service

import (
	"testing"
	"time"
)

func TestNextResetTime(t *testing.T) {
	tests := []struct {
		name    string
		now     time.Time
		hourUTC int
		want    time.Time
	}{
		{
			name:    "before the hour, same day",
			now:     time.Date(2026, 8, 28, 2, 30, 0, 0, time.UTC),
			hourUTC: 3,
			want:    time.Date(2026, 8, 28, 3, 0, 0, 0, time.UTC),
		},
		{
			name:    "after the hour, next day",
			now:     time.Date(2026, 8, 28, 5, 0, 0, 0, time.UTC),
			hourUTC: 3,
			want:    time.Date(2026, 8, 29, 3, 0, 0, 0, time.UTC),
		},
		{
			name:    "exactly on the hour rolls forward",
			now:     time.Date(2026, 8, 28, 3, 0, 0, 0, time.UTC),
			hourUTC: 3,
			want:    time.Date(2026, 8, 29, 3, 0, 0, 0, time.UTC),
		},
		{
			name:    "non-UTC input normalized",
			now:     time.Date(2026, 8, 28, 1, 0, 0, 0, time.FixedZone("UTC+4", 4*3600)),
			hourUTC: 3,
			want:    time.Date(2026, 8, 28, 3, 0, 0, 0, time.UTC),
		},
		{
			name:    "midnight hour",
			now:     time.Date(2026, 8, 28, 23, 59, 0, 0, time.UTC),
			hourUTC: 0,
			want:    time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextResetTime(tt.now, tt.hourUTC)
			if !got.Equal(tt.want) {
				t.Errorf("NextResetTime(%v, %d) = %v, want %v", tt.now, tt.hourUTC, got, tt.want)
			}
		})
	}
}
