package domain

import (
	"context"
)

// StreamWorker defines the interface for the exchange WebSocket connector
type StreamWorker interface {
	Connect(ctx context.Context) error
	Disconnect()
	IsConnected() bool
}

// RatioCache persists long/short ratio entries across restarts. A Put
// for one symbol must never drop other symbols' cached entries.
type RatioCache interface {
	Put(ctx context.Context, symbol string, entry RatioEntry) error
	Load(ctx context.Context) (map[string]RatioEntry, error)
}

// FavoriteStore persists the user's favorite symbols.
type FavoriteStore interface {
	ToggleFavorite(symbol string) (bool, error)
	FavoriteSymbols() ([]string, error)
}
