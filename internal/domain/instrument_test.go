package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestComputeVolatility(t *testing.T) {
	t.Run("Normal Calculation", func(t *testing.T) {
		// (52000-48000)/49000*100 ≈ 8.16
		v := ComputeVolatility(
			decimal.NewFromInt(52000),
			decimal.NewFromInt(48000),
			decimal.NewFromInt(49000),
		)

		expected := decimal.NewFromFloat(8.16)
		if v.Sub(expected).Abs().GreaterThan(decimal.NewFromFloat(0.01)) {
			t.Errorf("Expected volatility ~8.16, got %v", v)
		}
	})

	t.Run("Safety: Zero Open", func(t *testing.T) {
		v := ComputeVolatility(decimal.NewFromInt(10), decimal.NewFromInt(5), decimal.Zero)
		if !v.IsZero() {
			t.Errorf("Expected zero volatility for zero open, got %v", v)
		}
	})
}

func TestSeedHistory(t *testing.T) {
	h := SeedHistory(decimal.NewFromInt(50000))

	if len(h) != 3 {
		t.Fatalf("Expected 3 seeded points, got %d", len(h))
	}

	expected := []int64{47500, 52500, 50000}
	for i, want := range expected {
		if !h[i].Equal(decimal.NewFromInt(want)) {
			t.Errorf("history[%d] = %v, want %d", i, h[i], want)
		}
	}
}

func TestAppendHistory_Capacity(t *testing.T) {
	capacity := 5
	var h []decimal.Decimal

	for i := 1; i <= 20; i++ {
		h = AppendHistory(h, decimal.NewFromInt(int64(i)), capacity)
		if len(h) > capacity {
			t.Fatalf("history grew past capacity: %d > %d", len(h), capacity)
		}
	}

	// Oldest entries drop first: expect 16..20
	for i, want := range []int64{16, 17, 18, 19, 20} {
		if !h[i].Equal(decimal.NewFromInt(want)) {
			t.Errorf("history[%d] = %v, want %d", i, h[i], want)
		}
	}
}

func TestMarketEntry_ChangeDirection(t *testing.T) {
	cases := []struct {
		name   string
		change decimal.Decimal
		want   string
	}{
		{"gain", decimal.NewFromInt(10), "positive"},
		{"loss", decimal.NewFromInt(-10), "negative"},
		{"flat", decimal.Zero, "neutral"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := MarketEntry{Stats: InstrumentStats{PriceChange: tc.change}}
			if got := e.ChangeDirection(); got != tc.want {
				t.Errorf("ChangeDirection() = %q, want %q", got, tc.want)
			}
		})
	}
}
