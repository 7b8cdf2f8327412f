package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"screener_go/internal/domain"
	"screener_go/internal/infra"
)

// Client handles the exchange's public futures REST API. All endpoints
// are read-only and unauthenticated; the provider rate-limits by IP,
// so callers pace their own requests.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new REST client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Ticker24h fetches the full 24h ticker list for all instruments.
func (c *Client) Ticker24h(ctx context.Context) ([]Ticker24h, error) {
	var tickers []Ticker24h
	if err := c.getJSON(ctx, "ticker24h", "/fapi/v1/ticker/24hr", nil, &tickers); err != nil {
		return nil, err
	}
	return tickers, nil
}

// ExchangeInfo fetches the static symbol metadata list.
func (c *Client) ExchangeInfo(ctx context.Context) ([]ExchangeSymbol, error) {
	var resp exchangeInfoResponse
	if err := c.getJSON(ctx, "exchangeInfo", "/fapi/v1/exchangeInfo", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Symbols, nil
}

// LongShortRatio fetches the global long/short account ratio series
// for one symbol, time-ordered oldest first.
func (c *Client) LongShortRatio(ctx context.Context, symbol, period string) ([]RatioPoint, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("period", period)

	var points []RatioPoint
	if err := c.getJSON(ctx, "ratio", "/futures/data/globalLongShortAccountRatio", params, &points); err != nil {
		return nil, err
	}
	return points, nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, params url.Values, out interface{}) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return domain.NewFetchError(op, err)
	}

	// Add browser-like User-Agent to avoid bot detection
	req.Header.Set("User-Agent", infra.DefaultUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.NewFetchError(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.NewFetchStatusError(op, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.NewFetchError(op, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return domain.NewFetchError(op, fmt.Errorf("decode failed: %w", err))
	}

	return nil
}
