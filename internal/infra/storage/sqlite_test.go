package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"screener_go/internal/domain"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	store, err := NewStorageAt(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	return store
}

func TestStorage_CoinRoundTrip(t *testing.T) {
	store := newTestStorage(t)

	coin := &domain.CoinInfo{Symbol: "BTCUSDT", Token: "BTC", IsActive: true}
	if err := store.UpsertCoin(coin); err != nil {
		t.Fatalf("UpsertCoin failed: %v", err)
	}

	got, err := store.GetCoin("BTCUSDT")
	if err != nil {
		t.Fatalf("GetCoin failed: %v", err)
	}
	if got == nil || got.Token != "BTC" {
		t.Errorf("unexpected coin: %+v", got)
	}

	missing, err := store.GetCoin("NOPEUSDT")
	if err != nil {
		t.Fatalf("GetCoin for missing symbol errored: %v", err)
	}
	if missing != nil {
		t.Error("missing coin should return nil, nil")
	}
}

func TestStorage_ToggleFavorite(t *testing.T) {
	store := newTestStorage(t)

	t.Run("creates row when absent", func(t *testing.T) {
		fav, err := store.ToggleFavorite("ETHUSDT")
		if err != nil {
			t.Fatalf("ToggleFavorite failed: %v", err)
		}
		if !fav {
			t.Error("first toggle should mark favorite")
		}
	})

	t.Run("toggles back", func(t *testing.T) {
		fav, err := store.ToggleFavorite("ETHUSDT")
		if err != nil {
			t.Fatalf("ToggleFavorite failed: %v", err)
		}
		if fav {
			t.Error("second toggle should unmark favorite")
		}
	})

	t.Run("favorite symbols listing", func(t *testing.T) {
		store.ToggleFavorite("BTCUSDT")
		store.ToggleFavorite("SOLUSDT")

		symbols, err := store.FavoriteSymbols()
		if err != nil {
			t.Fatalf("FavoriteSymbols failed: %v", err)
		}
		if len(symbols) != 2 {
			t.Errorf("expected 2 favorites, got %v", symbols)
		}
	})
}

func TestStorage_RatioCache(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	fetchedAt := time.Now().Truncate(time.Second)

	if err := store.Put(ctx, "BTCUSDT", domain.RatioEntry{Value: "1.2345", FetchedAt: fetchedAt}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Put(ctx, "ETHUSDT", domain.RatioEntry{Value: domain.RatioUnavailable, FetchedAt: fetchedAt}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// Updating one symbol must not lose the other.
	if err := store.Put(ctx, "BTCUSDT", domain.RatioEntry{Value: "1.5000", FetchedAt: fetchedAt.Add(time.Minute)}); err != nil {
		t.Fatalf("Put update failed: %v", err)
	}

	entries, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries["BTCUSDT"].Value != "1.5000" {
		t.Errorf("BTCUSDT value = %q, want 1.5000", entries["BTCUSDT"].Value)
	}
	if entries["ETHUSDT"].Value != domain.RatioUnavailable {
		t.Errorf("ETHUSDT value = %q, want N/A", entries["ETHUSDT"].Value)
	}
}

func TestStorage_ConfigMap(t *testing.T) {
	store := newTestStorage(t)

	if err := store.SaveConfig("sort_key", "assetVolume"); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	if err := store.SaveConfig("sort_key", "percent"); err != nil {
		t.Fatalf("SaveConfig update failed: %v", err)
	}

	m, err := store.LoadConfigMap()
	if err != nil {
		t.Fatalf("LoadConfigMap failed: %v", err)
	}
	if m["sort_key"] != "percent" {
		t.Errorf("sort_key = %q, want percent", m["sort_key"])
	}
}
