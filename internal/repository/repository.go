package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"steamtracker/internal/models"
)

// GamePriceRow is one game joined with its most recent price observation
// and its trailing-window historical low. Price fields are nil when the
// game has never been observed.
type GamePriceRow struct {
	models.Game
	LatestInitialPrice    *int64
	LatestFinalPrice      *int64
	LatestDiscountPercent *int
	LatestObservedAt      *time.Time
	LowFinalPrice         *int64
}

// ListGamesParams filters and pages the game catalog. Zero values mean
// "no constraint"; PriceMaxCents uses 0 as unset because a free game is
// matched by discount filters, not price ceilings.
type ListGamesParams struct {
	Search        *string
	DiscountMin   int
	PriceMinCents int64
	PriceMaxCents int64
	AppID         *int64
	Limit         int
	Offset        int
}

type ListObservationsParams struct {
	AppID  int64
	Since  *time.Time
	Limit  int
	Offset int
}

type Store interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	// Catalog reads. ListGamesPage pairs the page scan with its total
	// count in one transaction.
	ListGamesPage(ctx context.Context, params ListGamesParams) ([]GamePriceRow, int64, error)
	ListDealRows(ctx context.Context, params ListGamesParams) ([]GamePriceRow, error)
	GetGameRow(ctx context.Context, appID int64) (*GamePriceRow, error)
	GetGame(ctx context.Context, appID int64) (*models.Game, error)

	// Price history.
	PriceSeries(ctx context.Context, params ListObservationsParams) ([]models.PriceObservation, error)
	RecentObservations(ctx context.Context, appID int64, limit int) ([]models.PriceObservation, error)
	InsertObservation(ctx context.Context, item *models.PriceObservation) error
	LatestObservation(ctx context.Context, appID int64) (*models.PriceObservation, error)

	// Collector writes.
	UpsertGame(ctx context.Context, item *models.Game) error
	UpsertTrackedGames(ctx context.Context, items []models.TrackedGame) error
	ListTrackedGames(ctx context.Context, status string) ([]models.TrackedGame, error)
	SetTrackedGameStatus(ctx context.Context, appID int64, status string) error
	MarkSeenInTop(ctx context.Context, appIDs []int64, seenAt time.Time) error

	// Sync state cursors.
	GetSyncState(ctx context.Context, scope string) (*models.SyncState, error)
	SaveSyncState(ctx context.Context, state *models.SyncState) error
	ListSyncStates(ctx context.Context) ([]models.SyncState, error)

	// Accounts & sessions.
	CreateUser(ctx context.Context, item *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id uint64) (*models.User, error)
	InsertAuthToken(ctx context.Context, item *models.AuthToken) error
	GetAuthToken(ctx context.Context, token string) (*models.AuthToken, error)
	DeleteAuthToken(ctx context.Context, token string) error
	DeleteExpiredAuthTokens(ctx context.Context, before time.Time) (int64, error)

	// Watchlists.
	AddWatchlistItem(ctx context.Context, item *models.WatchlistItem) error
	RemoveWatchlistItem(ctx context.Context, userID uint64, appID int64) (int64, error)
	ListWatchlistAppIDs(ctx context.Context, userID uint64) ([]int64, error)
	ListWatchlistRows(ctx context.Context, userID uint64) ([]GamePriceRow, error)
}
