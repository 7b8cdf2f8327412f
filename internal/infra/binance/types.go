package binance

import "encoding/json"

// Ticker24h is one entry of GET /fapi/v1/ticker/24hr.
// Numeric fields arrive as strings and are parsed at the boundary.
type Ticker24h struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	OpenPrice          string `json:"openPrice"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
	PriceChange        string `json:"priceChange"`
	PriceChangePercent string `json:"priceChangePercent"`
	Volume             string `json:"volume"`
	QuoteVolume        string `json:"quoteVolume"`
	Count              int64  `json:"count"`
}

// ExchangeSymbol is one entry of GET /fapi/v1/exchangeInfo.
type ExchangeSymbol struct {
	Symbol       string `json:"symbol"`
	BaseAsset    string `json:"baseAsset"`
	QuoteAsset   string `json:"quoteAsset"`
	ContractType string `json:"contractType"`
	OnboardDate  int64  `json:"onboardDate"` // epoch millis
}

// exchangeInfoResponse wraps the symbol list.
type exchangeInfoResponse struct {
	Symbols []ExchangeSymbol `json:"symbols"`
}

// RatioPoint is one 5-minute bucket of the global long/short account
// ratio series, time-ordered oldest first.
type RatioPoint struct {
	Symbol         string `json:"symbol"`
	LongShortRatio string `json:"longShortRatio"`
	LongAccount    string `json:"longAccount"`
	ShortAccount   string `json:"shortAccount"`
	Timestamp      int64  `json:"timestamp"`
}

// streamEnvelope is the combined-stream wrapper {stream, data}.
// The raw aggregate stream delivers a bare array instead.
type streamEnvelope struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

// streamTicker carries the stream's short field names for one symbol.
type streamTicker struct {
	Symbol             string `json:"s"`
	LastPrice          string `json:"c"`
	OpenPrice          string `json:"o"`
	HighPrice          string `json:"h"`
	LowPrice           string `json:"l"`
	PriceChange        string `json:"p"`
	PriceChangePercent string `json:"P"`
	QuoteVolume        string `json:"q"`
	TradeCount         int64  `json:"n"`
}
