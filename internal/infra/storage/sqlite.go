package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"screener_go/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage persists instrument metadata, the long/short ratio cache and
// user key-value configuration in SQLite.
type Storage struct {
	db *gorm.DB
}

// NewStorage creates a new SQLite storage instance at the default path
func NewStorage() (*Storage, error) {
	dbPath, err := getDBPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve DB path: %w", err)
	}
	return NewStorageAt(dbPath)
}

// NewStorageAt creates a storage instance backed by the given file
func NewStorageAt(dbPath string) (*Storage, error) {
	// Ensure directory exists
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto Migration
	if err := db.AutoMigrate(&domain.CoinInfo{}, &domain.RatioRecord{}, &domain.AppConfig{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

// getDBPath resolves the database file path based on OS
func getDBPath() (string, error) {
	var configDir string
	var err error

	if runtime.GOOS == "windows" {
		configDir = os.Getenv("LOCALAPPDATA")
		if configDir == "" {
			configDir, err = os.UserConfigDir()
		}
	} else {
		configDir, err = os.UserConfigDir()
	}

	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "FuturesScreener", "data", "screener.db"), nil
}

// ======================================================================================
// Coin Operations
// ======================================================================================

// UpsertCoin creates or updates coin metadata
func (s *Storage) UpsertCoin(coin *domain.CoinInfo) error {
	return s.db.Save(coin).Error
}

// GetCoin retrieves coin metadata by symbol
func (s *Storage) GetCoin(symbol string) (*domain.CoinInfo, error) {
	var coin domain.CoinInfo
	err := s.db.First(&coin, "symbol = ?", symbol).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // Not found is not an error
	}
	return &coin, err
}

// GetAllCoins retrieves all coins
func (s *Storage) GetAllCoins() ([]domain.CoinInfo, error) {
	var coins []domain.CoinInfo
	err := s.db.Find(&coins).Error
	return coins, err
}

// ToggleFavorite toggles the favorite status of a symbol, creating the
// metadata row when it has not been synced yet.
func (s *Storage) ToggleFavorite(symbol string) (bool, error) {
	var coin domain.CoinInfo
	err := s.db.First(&coin, "symbol = ?", symbol).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		coin = domain.CoinInfo{Symbol: symbol, IsActive: true}
	} else if err != nil {
		return false, err
	}

	coin.IsFavorite = !coin.IsFavorite
	err = s.db.Save(&coin).Error
	return coin.IsFavorite, err
}

// FavoriteSymbols returns all symbols marked as favorite
func (s *Storage) FavoriteSymbols() ([]string, error) {
	var symbols []string
	err := s.db.Model(&domain.CoinInfo{}).Where("is_favorite = ?", true).Pluck("symbol", &symbols).Error
	return symbols, err
}

// ======================================================================================
// Ratio Cache Operations
// ======================================================================================

// Put writes one symbol's ratio entry. Rows are keyed per symbol, so
// updating one entry never drops another symbol's cached value.
func (s *Storage) Put(ctx context.Context, symbol string, entry domain.RatioEntry) error {
	record := domain.RatioRecord{
		Symbol:    symbol,
		Value:     entry.Value,
		FetchedAt: entry.FetchedAt,
	}
	return s.db.WithContext(ctx).Save(&record).Error
}

// Load restores the whole ratio cache
func (s *Storage) Load(ctx context.Context) (map[string]domain.RatioEntry, error) {
	var records []domain.RatioRecord
	if err := s.db.WithContext(ctx).Find(&records).Error; err != nil {
		return nil, err
	}

	result := make(map[string]domain.RatioEntry, len(records))
	for _, r := range records {
		result[r.Symbol] = r.Entry()
	}
	return result, nil
}

// ======================================================================================
// Config Operations
// ======================================================================================

// SaveConfig saves a user configuration
func (s *Storage) SaveConfig(key, value string) error {
	config := domain.AppConfig{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}
	return s.db.Save(&config).Error
}

// LoadConfigMap loads all user configurations as a map
func (s *Storage) LoadConfigMap() (map[string]string, error) {
	var configs []domain.AppConfig
	if err := s.db.Find(&configs).Error; err != nil {
		return nil, err
	}

	result := make(map[string]string)
	for _, cfg := range configs {
		result[cfg.Key] = cfg.Value
	}
	return result, nil
}
