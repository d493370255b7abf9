package service

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"

	"steamtracker/internal/models"
	"steamtracker/internal/repository"
)

// fakeStore is an in-memory repository.Store for service tests.
type fakeStore struct {
	games        map[int64]*models.Game
	rows         []repository.GamePriceRow
	rowsErr      error
	pageCalls    int
	dealRows     []repository.GamePriceRow
	total        int64
	recent       []models.PriceObservation
	recentErr    error
	series       []models.PriceObservation
	tracked      []models.TrackedGame
	observations []models.PriceObservation
	syncStates   map[string]*models.SyncState
	users        map[string]*models.User
	nextUserID   uint64
	tokens       map[string]*models.AuthToken
	watchlist    map[uint64][]models.WatchlistItem
	watchRows    []repository.GamePriceRow
	watchErr     error
	statuses     map[int64]string
	seenInTop    []int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		games:      map[int64]*models.Game{},
		syncStates: map[string]*models.SyncState{},
		users:      map[string]*models.User{},
		tokens:     map[string]*models.AuthToken{},
		watchlist:  map[uint64][]models.WatchlistItem{},
		statuses:   map[int64]string{},
	}
}

func (f *fakeStore) InTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func (f *fakeStore) ListGamesPage(_ context.Context, params repository.ListGamesParams) ([]repository.GamePriceRow, int64, error) {
	f.pageCalls++
	if f.rowsErr != nil {
		return nil, 0, f.rowsErr
	}
	total := int64(len(f.rows))
	if f.total > 0 {
		total = f.total
	}
	return pageRows(f.rows, params), total, nil
}

func (f *fakeStore) ListDealRows(_ context.Context, params repository.ListGamesParams) ([]repository.GamePriceRow, error) {
	return pageRows(f.dealRows, params), nil
}

func (f *fakeStore) GetGameRow(_ context.Context, appID int64) (*repository.GamePriceRow, error) {
	for i := range f.rows {
		if f.rows[i].AppID == appID {
			return &f.rows[i], nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetGame(_ context.Context, appID int64) (*models.Game, error) {
	return f.games[appID], nil
}

func (f *fakeStore) PriceSeries(_ context.Context, params repository.ListObservationsParams) ([]models.PriceObservation, error) {
	out := make([]models.PriceObservation, 0, len(f.series))
	for _, obs := range f.series {
		if obs.AppID != params.AppID {
			continue
		}
		if params.Since != nil && obs.ObservedAt.Before(*params.Since) {
			continue
		}
		out = append(out, obs)
	}
	return out, nil
}

func (f *fakeStore) RecentObservations(_ context.Context, _ int64, limit int) ([]models.PriceObservation, error) {
	if f.recentErr != nil {
		return nil, f.recentErr
	}
	out := make([]models.PriceObservation, len(f.recent))
	copy(out, f.recent)
	// Newest first, like the real query.
	sort.Slice(out, func(i, j int) bool { return out[i].ObservedAt.After(out[j].ObservedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) InsertObservation(_ context.Context, item *models.PriceObservation) error {
	f.observations = append(f.observations, *item)
	return nil
}

func (f *fakeStore) LatestObservation(_ context.Context, appID int64) (*models.PriceObservation, error) {
	var latest *models.PriceObservation
	for i := range f.observations {
		obs := &f.observations[i]
		if obs.AppID != appID {
			continue
		}
		if latest == nil || obs.ObservedAt.After(latest.ObservedAt) {
			latest = obs
		}
	}
	return latest, nil
}

func (f *fakeStore) UpsertGame(_ context.Context, item *models.Game) error {
	f.games[item.AppID] = item
	return nil
}

func (f *fakeStore) UpsertTrackedGames(_ context.Context, items []models.TrackedGame) error {
	f.tracked = append(f.tracked, items...)
	return nil
}

func (f *fakeStore) ListTrackedGames(_ context.Context, status string) ([]models.TrackedGame, error) {
	out := make([]models.TrackedGame, 0, len(f.tracked))
	for _, t := range f.tracked {
		if status != "" && t.Status != status {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AppID < out[j].AppID })
	return out, nil
}

func (f *fakeStore) SetTrackedGameStatus(_ context.Context, appID int64, status string) error {
	f.statuses[appID] = status
	return nil
}

func (f *fakeStore) MarkSeenInTop(_ context.Context, appIDs []int64, _ time.Time) error {
	f.seenInTop = append(f.seenInTop, appIDs...)
	return nil
}

func (f *fakeStore) GetSyncState(_ context.Context, scope string) (*models.SyncState, error) {
	return f.syncStates[scope], nil
}

func (f *fakeStore) SaveSyncState(_ context.Context, state *models.SyncState) error {
	f.syncStates[state.Scope] = state
	return nil
}

func (f *fakeStore) ListSyncStates(_ context.Context) ([]models.SyncState, error) {
	out := make([]models.SyncState, 0, len(f.syncStates))
	for _, s := range f.syncStates {
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeStore) CreateUser(_ context.Context, item *models.User) error {
	f.nextUserID++
	item.ID = f.nextUserID
	f.users[item.Username] = item
	return nil
}

func (f *fakeStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	return f.users[username], nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id uint64) (*models.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) InsertAuthToken(_ context.Context, item *models.AuthToken) error {
	f.tokens[item.Token] = item
	return nil
}

func (f *fakeStore) GetAuthToken(_ context.Context, token string) (*models.AuthToken, error) {
	return f.tokens[token], nil
}

func (f *fakeStore) DeleteAuthToken(_ context.Context, token string) error {
	delete(f.tokens, token)
	return nil
}

func (f *fakeStore) DeleteExpiredAuthTokens(_ context.Context, before time.Time) (int64, error) {
	var removed int64
	for token, record := range f.tokens {
		if record.ExpiresAt.Before(before) {
			delete(f.tokens, token)
			removed++
		}
	}
	return removed, nil
}

func (f *fakeStore) AddWatchlistItem(_ context.Context, item *models.WatchlistItem) error {
	for _, existing := range f.watchlist[item.UserID] {
		if existing.AppID == item.AppID {
			return nil
		}
	}
	f.watchlist[item.UserID] = append(f.watchlist[item.UserID], *item)
	return nil
}

func (f *fakeStore) RemoveWatchlistItem(_ context.Context, userID uint64, appID int64) (int64, error) {
	items := f.watchlist[userID]
	for i, item := range items {
		if item.AppID == appID {
			f.watchlist[userID] = append(items[:i], items[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeStore) ListWatchlistAppIDs(_ context.Context, userID uint64) ([]int64, error) {
	out := make([]int64, 0, len(f.watchlist[userID]))
	for _, item := range f.watchlist[userID] {
		out = append(out, item.AppID)
	}
	return out, nil
}

func (f *fakeStore) ListWatchlistRows(_ context.Context, _ uint64) ([]repository.GamePriceRow, error) {
	if f.watchErr != nil {
		return nil, f.watchErr
	}
	return f.watchRows, nil
}

func pageRows(rows []repository.GamePriceRow, params repository.ListGamesParams) []repository.GamePriceRow {
	if params.Offset >= len(rows) {
		return nil
	}
	end := len(rows)
	if params.Limit > 0 && params.Offset+params.Limit < end {
		end = params.Offset + params.Limit
	}
	return rows[params.Offset:end]
}
