package models

import (
	"time"

	"gorm.io/datatypes"
)

// Game holds the storefront metadata for one tracked app. One mutable row
// per app id, upserted by the price collector on every scrape.
type Game struct {
	AppID               int64          `gorm:"primaryKey" json:"app_id"`
	Name                string         `gorm:"type:text;not null" json:"name"`
	ShortDescription    string         `gorm:"type:text" json:"short_description"`
	HeaderImageURL      string         `gorm:"type:text" json:"header_image_url"`
	ReleaseDate         *time.Time     `gorm:"type:timestamptz" json:"release_date"`
	MetacriticScore     *int           `json:"metacritic_score"`
	RecommendationCount int            `gorm:"not null;default:0" json:"recommendation_count"`
	PlatformWindows     bool           `gorm:"not null;default:false" json:"platform_windows"`
	PlatformMac         bool           `gorm:"not null;default:false" json:"platform_mac"`
	PlatformLinux       bool           `gorm:"not null;default:false" json:"platform_linux"`
	Genres              datatypes.JSON `gorm:"type:jsonb" json:"genres"`
	Publishers          datatypes.JSON `gorm:"type:jsonb" json:"publishers"`
	Developers          datatypes.JSON `gorm:"type:jsonb" json:"developers"`
	LastUpdated         time.Time      `gorm:"type:timestamptz;not null" json:"last_updated"`
}

func (Game) TableName() string {
	return "games"
}
