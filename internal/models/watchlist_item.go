package models

import "time"

type WatchlistItem struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint64    `gorm:"uniqueIndex:idx_watchlist_user_app;not null" json:"user_id"`
	AppID     int64     `gorm:"uniqueIndex:idx_watchlist_user_app;not null" json:"app_id"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null" json:"created_at"`
}

func (WatchlistItem) TableName() string {
	return "watchlist_items"
}
