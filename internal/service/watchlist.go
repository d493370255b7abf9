package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"steamtracker/internal/models"
	"steamtracker/internal/pricing"
	"steamtracker/internal/repository"
)

var ErrUnknownGame = errors.New("game is not tracked")

// WatchlistService manages per-user game lists and renders them with
// the same price assembly the catalog uses.
type WatchlistService struct {
	Store  repository.Store
	Logger *zap.Logger
}

func (s *WatchlistService) Add(ctx context.Context, userID uint64, appID int64) error {
	game, err := s.Store.GetGame(ctx, appID)
	if err != nil {
		return err
	}
	if game == nil {
		return ErrUnknownGame
	}
	return s.Store.AddWatchlistItem(ctx, &models.WatchlistItem{
		UserID:    userID,
		AppID:     appID,
		CreatedAt: time.Now().UTC(),
	})
}

func (s *WatchlistService) Remove(ctx context.Context, userID uint64, appID int64) (bool, error) {
	removed, err := s.Store.RemoveWatchlistItem(ctx, userID, appID)
	if err != nil {
		return false, err
	}
	return removed > 0, nil
}

// List renders the user's watchlist. A read failure degrades to an
// empty list with a warning instead of a 500: the watchlist page is a
// convenience surface and should never hard-fail the UI.
func (s *WatchlistService) List(ctx context.Context, userID uint64) []pricing.DisplayRecord {
	rows, err := s.Store.ListWatchlistRows(ctx, userID)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("watchlist read failed",
				zap.Uint64("user_id", userID),
				zap.Error(err),
			)
		}
		return []pricing.DisplayRecord{}
	}
	return assembleRows(rows)
}

// AppIDs returns the raw app id membership, used for watch badges.
func (s *WatchlistService) AppIDs(ctx context.Context, userID uint64) ([]int64, error) {
	return s.Store.ListWatchlistAppIDs(ctx, userID)
}
