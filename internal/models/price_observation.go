package models

import "time"

// PriceObservation is one point-in-time price snapshot for a game.
// Rows are append-only; prices are in minor currency units (cents).
// The auto-increment ID doubles as the deterministic tie-break when two
// observations share the same ObservedAt.
type PriceObservation struct {
	ID              uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	AppID           int64     `gorm:"index;not null" json:"app_id"`
	Currency        string    `gorm:"type:text" json:"currency"`
	InitialPrice    int64     `gorm:"not null;default:0" json:"initial_price"`
	FinalPrice      int64     `gorm:"not null;default:0" json:"final_price"`
	DiscountPercent int       `gorm:"not null;default:0" json:"discount_percent"`
	ObservedAt      time.Time `gorm:"type:timestamptz;index;not null" json:"observed_at"`
}

func (PriceObservation) TableName() string {
	return "price_history"
}
