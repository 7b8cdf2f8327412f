package domain

import (
	"time"
)

// CoinInfo represents persisted metadata for an instrument
type CoinInfo struct {
	Symbol       string    `gorm:"primaryKey" json:"symbol"`
	Token        string    `json:"token"`
	IconPath     string    `json:"icon_path"`
	IsActive     bool      `json:"is_active" gorm:"index"`   // Active trading status
	IsFavorite   bool      `json:"is_favorite" gorm:"index"` // User favorite status
	LastSyncedAt time.Time `json:"last_synced_at"`           // Last icon sync time
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RatioRecord is the persisted form of RatioEntry, keyed per symbol so
// updating one symbol never clobbers another's cached value.
type RatioRecord struct {
	Symbol    string    `gorm:"primaryKey" json:"symbol"`
	Value     string    `json:"value"`
	FetchedAt time.Time `json:"fetched_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Entry converts the persisted row back to a cache entry.
func (r *RatioRecord) Entry() RatioEntry {
	return RatioEntry{Value: r.Value, FetchedAt: r.FetchedAt}
}

// AppConfig represents user-specific configuration (Key-Value)
type AppConfig struct {
	Key       string    `gorm:"primaryKey" json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
