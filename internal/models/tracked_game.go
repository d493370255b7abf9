package models

import "time"

const (
	TrackedStatusActive   = "active"
	TrackedStatusInactive = "inactive"
)

// TrackedGame is the collector's work list: apps discovered on the
// top-sellers pages that the price collector should poll.
type TrackedGame struct {
	AppID         int64      `gorm:"primaryKey" json:"app_id"`
	Source        string     `gorm:"type:text;not null" json:"source"`
	IsFreeToPlay  bool       `gorm:"not null;default:false" json:"is_free_to_play"`
	Status        string     `gorm:"type:text;not null;default:active" json:"status"`
	AddedAt       time.Time  `gorm:"type:timestamptz;not null" json:"added_at"`
	LastSeenInTop *time.Time `gorm:"type:timestamptz" json:"last_seen_in_top"`
}

func (TrackedGame) TableName() string {
	return "games_to_track"
}
