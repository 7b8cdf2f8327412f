package domain

import "github.com/shopspring/decimal"

// Instrument identifies a tradable pair. Identity is the full symbol
// (e.g. "BTCUSDT"); Token is the base asset used for display and search.
// Instruments are created from the snapshot and never from stream data.
type Instrument struct {
	Symbol     string `json:"symbol"`
	Token      string `json:"token"`
	QuoteAsset string `json:"asset"`
}

// InstrumentStats is the mutable per-instrument record. It is replaced
// wholesale by the snapshot loader and merged field-by-field by the
// streaming reconciler. History is a bounded FIFO of recent last prices.
type InstrumentStats struct {
	LastPrice          decimal.Decimal   `json:"close"`
	OpenPrice          decimal.Decimal   `json:"open"`
	HighPrice          decimal.Decimal   `json:"high"`
	LowPrice           decimal.Decimal   `json:"low"`
	PriceChange        decimal.Decimal   `json:"change"`
	PriceChangePercent decimal.Decimal   `json:"percent"`
	QuoteVolume        decimal.Decimal   `json:"assetVolume"`
	TradeCount         int64             `json:"trades"`
	History            []decimal.Decimal `json:"history"`
	Volatility         decimal.Decimal   `json:"volatility"`
}

// TickerUpdate is one incremental update for a single instrument,
// already decoded from the stream's short field names at the boundary.
type TickerUpdate struct {
	Symbol             string
	LastPrice          decimal.Decimal
	OpenPrice          decimal.Decimal
	HighPrice          decimal.Decimal
	LowPrice           decimal.Decimal
	PriceChange        decimal.Decimal
	PriceChangePercent decimal.Decimal
	QuoteVolume        decimal.Decimal
	TradeCount         int64
}

// MarketEntry joins the static instrument, its live stats and the
// derived long/short ratio into one record for the read model.
type MarketEntry struct {
	Instrument
	Stats      InstrumentStats `json:"stats"`
	Ratio      string          `json:"longShortRatio"`
	IsFavorite bool            `json:"is_favorite"`
}

// IsGain reports whether the 24h change is positive.
func (e *MarketEntry) IsGain() bool {
	return e.Stats.PriceChange.IsPositive()
}

// IsLoss reports whether the 24h change is negative.
func (e *MarketEntry) IsLoss() bool {
	return e.Stats.PriceChange.IsNegative()
}

// ChangeDirection returns "positive", "negative", or "neutral"
func (e *MarketEntry) ChangeDirection() string {
	if e.IsGain() {
		return "positive"
	}
	if e.IsLoss() {
		return "negative"
	}
	return "neutral"
}

// ComputeVolatility returns (high-low)/open * 100, or zero when open is
// zero to avoid a division crash on freshly listed pairs.
func ComputeVolatility(high, low, open decimal.Decimal) decimal.Decimal {
	if open.IsZero() {
		return decimal.Zero
	}
	return high.Sub(low).Div(open).Mul(decimal.NewFromInt(100))
}

// AppendHistory appends price to history, dropping the oldest entries
// so the result never exceeds capacity.
func AppendHistory(history []decimal.Decimal, price decimal.Decimal, capacity int) []decimal.Decimal {
	if capacity <= 0 {
		return history
	}
	history = append(history, price)
	if len(history) > capacity {
		history = history[len(history)-capacity:]
	}
	return history
}

// SeedHistory builds the synthetic 3-point band used before any real
// ticks arrive: price*0.95, price*1.05, price.
func SeedHistory(price decimal.Decimal) []decimal.Decimal {
	return []decimal.Decimal{
		price.Mul(decimal.NewFromFloat(0.95)),
		price.Mul(decimal.NewFromFloat(1.05)),
		price,
	}
}
