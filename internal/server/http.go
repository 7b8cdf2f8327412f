package server

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"screener_go/internal/domain"
	"screener_go/internal/infra"
	"screener_go/internal/service"

	"github.com/gin-gonic/gin"
)

const httpShutdownTimeout = 10 * time.Second

// Server exposes the market read model over HTTP.
type Server struct {
	store     *service.MarketStore
	favorites domain.FavoriteStore
	stream    domain.StreamWorker

	defaultLimit int

	engine *gin.Engine
	srv    *http.Server
}

// NewServer builds the router. favorites and stream may be nil; the
// corresponding endpoints degrade gracefully.
func NewServer(store *service.MarketStore, favorites domain.FavoriteStore, stream domain.StreamWorker, defaultLimit int, logLevel string) *Server {
	if !strings.EqualFold(logLevel, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		store:        store,
		favorites:    favorites,
		stream:       stream,
		defaultLimit: defaultLimit,
		engine:       gin.New(),
	}

	s.engine.Use(gin.Recovery())
	s.engine.Use(corsMiddleware())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.engine.Group("/api")
	api.GET("/instruments", s.listInstruments)
	api.GET("/instruments/:symbol", s.getInstrument)
	api.POST("/instruments/:symbol/favorite", s.toggleFavorite)
	api.GET("/status", s.getStatus)
}

// Start serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context, addr string) error {
	s.srv = &http.Server{Addr: addr, Handler: s.engine}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", slog.String("addr", addr))
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
		defer cancel()
		slog.Info("HTTP server shutting down")
		return s.srv.Shutdown(shutdownCtx)
	}
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) listInstruments(c *gin.Context) {
	opts := service.QueryOptions{
		Search:  c.Query("search"),
		SortKey: c.Query("sort"),
		Order:   service.OrderAsc,
		Limit:   s.defaultLimit,
	}

	if strings.EqualFold(c.Query("order"), "desc") {
		opts.Order = service.OrderDesc
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		opts.Limit = n
	}
	if raw := c.Query("favorites"); raw == "true" || raw == "1" {
		opts.FavoritesOnly = true
	}

	entries := s.store.Query(opts)
	c.JSON(http.StatusOK, gin.H{
		"instruments": entries,
		"total":       s.store.Len(),
	})
}

func (s *Server) getInstrument(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))
	entry, ok := s.store.Get(symbol)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown symbol"})
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (s *Server) toggleFavorite(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))
	if _, ok := s.store.Get(symbol); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown symbol"})
		return
	}

	if s.favorites != nil {
		if _, err := s.favorites.ToggleFavorite(symbol); err != nil {
			slog.Error("Favorite persistence failed", slog.String("symbol", symbol), slog.Any("error", err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist favorite"})
			return
		}
	}

	favorite := s.store.ToggleFavorite(symbol)
	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "favorite": favorite})
}

func (s *Server) getStatus(c *gin.Context) {
	connected := false
	if s.stream != nil {
		connected = s.stream.IsConnected()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"connected":   connected,
		"degraded":    s.store.IsDegraded(),
		"instruments": s.store.Len(),
		"last_listed": s.store.LastListed(),
		"metrics":     infra.GlobalMetrics.Snapshot(),
	})
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Origin")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
