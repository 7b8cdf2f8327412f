package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"screener_go/internal/domain"
	"screener_go/internal/infra"
	"screener_go/internal/infra/cache"
	"screener_go/internal/infra/storage"
	"screener_go/internal/service"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config     *infra.Config
	Storage    *storage.Storage
	Cache      domain.RatioCache
	Downloader *infra.IconDownloader

	redis *cache.RedisCache
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization (config, logger, DB, cache)
func (b *Bootstrap) Initialize(configPath string) error {
	slog.Info("🚀 Bootstrapping Futures Screener...")

	// 1. Load Config
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	// 3. Initialize Storage (DB)
	store, err := storage.NewStorage()
	if err != nil {
		return err
	}
	b.Storage = store
	slog.Info("✅ Database initialized")

	// 4. Select ratio cache backend
	switch cfg.Cache.Backend {
	case "redis":
		ttl := time.Duration(cfg.Refresh.TTLSec) * time.Second
		rc, err := cache.NewRedisCache(cfg.Cache.Redis.Addr, cfg.Cache.Redis.Password, cfg.Cache.Redis.DB, ttl)
		if err != nil {
			// Ratio persistence is an optimization; fall back to sqlite
			slog.Warn("Redis unavailable, falling back to sqlite cache", slog.Any("error", err))
			b.Cache = store
		} else {
			b.redis = rc
			b.Cache = rc
			slog.Info("✅ Redis ratio cache connected", slog.String("addr", cfg.Cache.Redis.Addr))
		}
	default:
		b.Cache = store
	}

	// 5. Initialize Icon Downloader
	if cfg.API.IconBaseURL != "" {
		downloader, err := infra.NewIconDownloader(cfg.API.IconBaseURL)
		if err != nil {
			return err
		}
		b.Downloader = downloader
		slog.Info("✅ Icon downloader ready")
	}

	return nil
}

// RestoreFavorites loads the persisted favorite set into the read model.
func (b *Bootstrap) RestoreFavorites(store *service.MarketStore) {
	favorites, err := b.Storage.FavoriteSymbols()
	if err != nil {
		slog.Warn("Failed to restore favorites", slog.Any("error", err))
		return
	}
	store.SetFavorites(favorites)
	slog.Info("Favorites restored", slog.Int("count", len(favorites)))
}

// SyncAssets persists instrument metadata and fetches missing icons in
// the background, bounded to a few concurrent downloads.
func (b *Bootstrap) SyncAssets(ctx context.Context, store *service.MarketStore) {
	slog.Info("🔄 Starting asset synchronization...")

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, 5) // Limit concurrent downloads

	for _, symbol := range store.Symbols() {
		entry, ok := store.Get(symbol)
		if !ok {
			continue
		}

		wg.Add(1)
		go func(sym, token string) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				return
			case semaphore <- struct{}{}: // Acquire
			}
			defer func() { <-semaphore }() // Release

			coin := &domain.CoinInfo{
				Symbol:    sym,
				Token:     token,
				IsActive:  true,
				UpdatedAt: time.Now(),
			}

			// Preserve user state and icon path on re-sync
			if existing, _ := b.Storage.GetCoin(sym); existing != nil {
				coin.IsFavorite = existing.IsFavorite
				coin.IconPath = existing.IconPath
				coin.LastSyncedAt = existing.LastSyncedAt
			}

			if err := b.Storage.UpsertCoin(coin); err != nil {
				slog.Error("Failed to upsert coin", slog.String("symbol", sym), slog.Any("error", err))
			}

			if b.Downloader == nil || coin.IconPath != "" {
				return
			}
			path, err := b.Downloader.DownloadIcon(token)
			if err != nil {
				slog.Warn("Failed to download icon", slog.String("symbol", sym), slog.Any("error", err))
			} else if path != "" {
				coin.IconPath = path
				coin.LastSyncedAt = time.Now()
				if err := b.Storage.UpsertCoin(coin); err != nil {
					slog.Error("Failed to save icon path", slog.String("symbol", sym), slog.Any("error", err))
				}
			}
		}(symbol, entry.Token)
	}

	wg.Wait()
	slog.Info("✨ Asset synchronization completed")
}

// Close releases external resources.
func (b *Bootstrap) Close() {
	if b.redis != nil {
		if err := b.redis.Close(); err != nil {
			slog.Warn("Redis close failed", slog.Any("error", err))
		}
	}
}
