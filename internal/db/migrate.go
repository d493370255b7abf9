package db

import (
	"steamtracker/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Game{},
		&models.PriceObservation{},
		&models.TrackedGame{},
		&models.SyncState{},
		&models.User{},
		&models.AuthToken{},
		&models.WatchlistItem{},
	)
}
