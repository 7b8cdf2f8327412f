package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"screener_go/internal/app"
	"screener_go/internal/domain"
	"screener_go/internal/infra/binance"
	"screener_go/internal/server"
	"screener_go/internal/service"

	_ "net/http/pprof" // For pprof profiling
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	flag.Parse()

	// 1. Pprof Server (for performance profiling)
	go func() {
		// Localhost only for security
		slog.Info("🕵️ Pprof server started on localhost:6060")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			slog.Error("Pprof server failed", slog.Any("error", err))
		}
	}()

	// 2. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(*configPath); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer bootstrap.Close()

	cfg := bootstrap.Config

	// 3. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Read Model + Initial Snapshot
	store := service.NewMarketStore(cfg.UI.HistorySize)
	client := binance.NewClient(cfg.API.RestURL)
	loader := service.NewSnapshotLoader(client, cfg.API.QuoteAsset, cfg.API.ExcludedSymbols)

	entries, err := loader.Load(ctx)
	if err != nil {
		// The registry stays empty until a snapshot lands, so keep
		// retrying in the background while the process starts degraded
		slog.Error("Initial snapshot failed, starting degraded", slog.Any("error", err))
		store.SetDegraded(true)
		go func() {
			retryDelay := time.Duration(cfg.Stream.ReconnectDelaySec) * time.Second
			retried, err := loader.LoadWithRetry(ctx, retryDelay)
			if err != nil {
				return // Shutting down
			}
			store.ApplySnapshot(retried)
			slog.Info("✅ Snapshot loaded after retry", slog.Int("instruments", store.Len()))
		}()
	} else {
		store.ApplySnapshot(entries)
		slog.Info("✅ Snapshot loaded", slog.Int("instruments", store.Len()))
	}

	bootstrap.RestoreFavorites(store)

	// 5. Background Asset Sync (icons + instrument metadata)
	go bootstrap.SyncAssets(ctx, store)

	// 6. Ticker Stream Worker
	streamWorker := binance.NewStreamWorker(
		cfg.API.WSURL,
		time.Duration(cfg.Stream.ReconnectDelaySec)*time.Second,
		time.Duration(cfg.Stream.ReadTimeoutSec)*time.Second,
		store.ApplyTicks,
		func(connected bool) { store.SetDegraded(!connected) },
	)
	if err := streamWorker.Connect(ctx); err != nil {
		slog.Error("Failed to start stream worker", slog.Any("error", err))
	}
	defer streamWorker.Disconnect()
	slog.InfoContext(ctx, "✅ Ticker stream started", slog.String("url", cfg.API.WSURL))

	// 7. Long/Short Ratio Refresher
	refresher := service.NewRatioRefresher(client, bootstrap.Cache, store, service.RefresherConfig{
		Period:       cfg.API.RatioPeriod,
		SeriesIndex:  cfg.Refresh.RatioIndex,
		TTL:          time.Duration(cfg.Refresh.TTLSec) * time.Second,
		Interval:     time.Duration(cfg.Refresh.IntervalSec) * time.Second,
		RequestDelay: time.Duration(cfg.Refresh.RequestDelayMS) * time.Millisecond,
	})
	if err := refresher.Start(ctx); err != nil {
		slog.Error("Failed to start ratio refresher", slog.Any("error", err))
	}
	defer refresher.Stop()
	slog.InfoContext(ctx, "✅ Ratio refresher started")

	// 8. Listing Tracker
	listingTracker := service.NewListingTracker(client, store, cfg.API.QuoteAsset,
		time.Duration(cfg.Refresh.ListingIntervalSec)*time.Second)
	if err := listingTracker.Start(ctx); err != nil {
		slog.Error("Failed to start listing tracker", slog.Any("error", err))
	}
	defer listingTracker.Stop()

	// 9. Daily Percent Reset (optional)
	if cfg.UI.ResetEnabled {
		resetScheduler := service.NewResetScheduler(store, cfg.UI.ResetHourUTC)
		resetScheduler.Start(ctx)
		defer resetScheduler.Stop()
		slog.InfoContext(ctx, "✅ Daily reset scheduled", slog.Int("hour_utc", cfg.UI.ResetHourUTC))
	}

	// 10. HTTP API
	var favorites domain.FavoriteStore = bootstrap.Storage
	httpServer := server.NewServer(store, favorites, streamWorker, cfg.UI.DefaultLimit, cfg.Logging.Level)

	slog.InfoContext(ctx, "✨ Futures Screener fully operational. Press Ctrl+C to exit.")

	if err := httpServer.Start(ctx, cfg.UI.ListenAddr); err != nil {
		slog.Error("HTTP server failed", slog.Any("error", err))
	}

	slog.Info("👋 Shutting down gracefully...")
}
