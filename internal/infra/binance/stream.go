package binance

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"screener_go/internal/domain"
	"screener_go/internal/infra"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

// StreamWorker handles the aggregate ticker WebSocket connection. Each
// message carries updates for many symbols; decoded batches are handed
// to onTicks in delivery order. On close or error the worker waits a
// fixed delay and reconnects; the delay is deliberately constant.
type StreamWorker struct {
	url            string
	reconnectDelay time.Duration
	readTimeout    time.Duration
	onTicks        func([]domain.TickerUpdate)
	onStateChange  func(connected bool)

	conn      *websocket.Conn
	mu        sync.RWMutex
	connected bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewStreamWorker creates a stream worker. onStateChange may be nil.
func NewStreamWorker(url string, reconnectDelay, readTimeout time.Duration, onTicks func([]domain.TickerUpdate), onStateChange func(bool)) *StreamWorker {
	return &StreamWorker{
		url:            url,
		reconnectDelay: reconnectDelay,
		readTimeout:    readTimeout,
		onTicks:        onTicks,
		onStateChange:  onStateChange,
	}
}

// Connect starts the WebSocket connection loop
func (w *StreamWorker) Connect(ctx context.Context) error {
	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.connectionLoop(ctx)
	return nil
}

func (w *StreamWorker) connectionLoop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := w.connect(ctx); err != nil {
			slog.Warn("Stream connection failed", slog.Any("error", err))
			infra.GlobalMetrics.RecordReconnect()
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.reconnectDelay):
				continue
			}
		}

		w.readLoop(ctx)

		// Connection dropped; wait the fixed delay before redialing.
		infra.GlobalMetrics.RecordReconnect()
		select {
		case <-ctx.Done():
			return
		case <-time.After(w.reconnectDelay):
		}
	}
}

func (w *StreamWorker) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	header := make(http.Header)
	header.Set("User-Agent", infra.DefaultUserAgent)

	conn, _, err := dialer.DialContext(ctx, w.url, header)
	if err != nil {
		return &domain.StreamError{Op: "dial", Err: err}
	}

	w.mu.Lock()
	w.conn = conn
	w.connected = true
	w.mu.Unlock()

	w.notifyState(true)
	infra.GlobalMetrics.SetStreamConnected(true)

	slog.Info("Stream connected", slog.String("url", w.url))
	return nil
}

func (w *StreamWorker) readLoop(ctx context.Context) {
	defer func() {
		w.closeConnection()
		w.notifyState(false)
		infra.GlobalMetrics.SetStreamConnected(false)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		w.mu.RLock()
		conn := w.conn
		w.mu.RUnlock()
		if conn == nil {
			return
		}

		conn.SetReadDeadline(time.Now().Add(w.readTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			slog.Warn("Stream read error", slog.Any("error", &domain.StreamError{Op: "read", Err: err}))
			return
		}
		w.handleMessage(msg)
	}
}

func (w *StreamWorker) handleMessage(msg []byte) {
	updates := decodeTicks(msg)
	if len(updates) == 0 {
		return
	}
	if w.onTicks != nil {
		w.onTicks(updates)
	}
}

// decodeTicks accepts either the combined-stream envelope
// {stream, data: [...]} or the bare tick array, and drops entries whose
// numeric fields fail to parse rather than propagating bad data.
func decodeTicks(msg []byte) []domain.TickerUpdate {
	payload := msg

	var env streamEnvelope
	if err := json.Unmarshal(msg, &env); err == nil && len(env.Data) > 0 {
		payload = env.Data
	}

	var ticks []streamTicker
	if err := json.Unmarshal(payload, &ticks); err != nil {
		return nil
	}

	updates := make([]domain.TickerUpdate, 0, len(ticks))
	for _, t := range ticks {
		if t.Symbol == "" {
			continue
		}
		u, err := toUpdate(t)
		if err != nil {
			continue
		}
		updates = append(updates, u)
	}
	return updates
}

func toUpdate(t streamTicker) (domain.TickerUpdate, error) {
	var u domain.TickerUpdate
	var err error

	if u.LastPrice, err = decimal.NewFromString(t.LastPrice); err != nil {
		return u, err
	}
	if u.OpenPrice, err = decimal.NewFromString(t.OpenPrice); err != nil {
		return u, err
	}
	if u.HighPrice, err = decimal.NewFromString(t.HighPrice); err != nil {
		return u, err
	}
	if u.LowPrice, err = decimal.NewFromString(t.LowPrice); err != nil {
		return u, err
	}
	if u.PriceChange, err = decimal.NewFromString(t.PriceChange); err != nil {
		return u, err
	}
	if u.PriceChangePercent, err = decimal.NewFromString(t.PriceChangePercent); err != nil {
		return u, err
	}
	if u.QuoteVolume, err = decimal.NewFromString(t.QuoteVolume); err != nil {
		return u, err
	}

	u.Symbol = t.Symbol
	u.TradeCount = t.TradeCount
	return u, nil
}

// IsConnected reports whether the socket is currently open.
func (w *StreamWorker) IsConnected() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.connected
}

func (w *StreamWorker) notifyState(connected bool) {
	if w.onStateChange != nil {
		w.onStateChange(connected)
	}
}

func (w *StreamWorker) closeConnection() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn != nil {
		w.conn.Close()
		w.conn = nil
	}
	w.connected = false
}

// Disconnect cancels the reconnect loop and closes the socket.
func (w *StreamWorker) Disconnect() {
	if w.cancel != nil {
		w.cancel()
	}
	w.closeConnection()
	w.wg.Wait()
}
