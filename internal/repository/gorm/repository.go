package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"steamtracker/internal/models"
	"steamtracker/internal/repository"
)

// defaultLowWindowDays is the trailing window the historical low is
// computed over when the configuration does not set one. Observations
// older than the window never influence grades.
const defaultLowWindowDays = 90

// latestJoin attaches each game's most recent observation. The id tie-break
// keeps results deterministic when two rows share an observed_at.
const latestJoin = `LEFT JOIN (
	SELECT DISTINCT ON (app_id)
		app_id, initial_price, final_price, discount_percent, observed_at
	FROM price_history
	ORDER BY app_id, observed_at DESC, id DESC
) AS latest ON latest.app_id = games.app_id`

const lowJoin = `LEFT JOIN (
	SELECT app_id, MIN(final_price) AS low_final_price
	FROM price_history
	WHERE observed_at >= ?
	GROUP BY app_id
) AS low ON low.app_id = games.app_id`

const rowSelect = `games.*,
	latest.initial_price AS latest_initial_price,
	latest.final_price AS latest_final_price,
	latest.discount_percent AS latest_discount_percent,
	latest.observed_at AS latest_observed_at,
	low.low_final_price AS low_final_price`

type Store struct {
	db            *gorm.DB
	lowWindowDays int
}

func New(db *gorm.DB, lowWindowDays int) *Store {
	if lowWindowDays <= 0 {
		lowWindowDays = defaultLowWindowDays
	}
	return &Store{db: db, lowWindowDays: lowWindowDays}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

func (s *Store) lowWindowStart() time.Time {
	return time.Now().UTC().AddDate(0, 0, -s.lowWindowDays)
}

func (s *Store) gameRowsQuery(ctx context.Context, db *gorm.DB) *gorm.DB {
	return db.WithContext(ctx).
		Table("games").
		Select(rowSelect).
		Joins(latestJoin).
		Joins(lowJoin, s.lowWindowStart())
}

// applyGameFilters narrows a catalog query. A positive PriceMinCents
// excludes unpriced games on purpose: asking for "at least X" implies a
// price exists. PriceMaxCents lets unpriced games through, a ceiling only
// rejects known-expensive entries.
func applyGameFilters(query *gorm.DB, params repository.ListGamesParams) *gorm.DB {
	if params.AppID != nil && *params.AppID > 0 {
		query = query.Where("games.app_id = ?", *params.AppID)
	}
	if params.Search != nil && strings.TrimSpace(*params.Search) != "" {
		pattern := "%" + strings.ToLower(strings.TrimSpace(*params.Search)) + "%"
		query = query.Where(`(LOWER(games.name) LIKE ? OR EXISTS (
			SELECT 1 FROM jsonb_array_elements_text(games.genres) AS genre(val)
			WHERE LOWER(genre.val) LIKE ?))`, pattern, pattern)
	}
	if params.DiscountMin > 0 {
		query = query.Where("COALESCE(latest.discount_percent, 0) >= ?", params.DiscountMin)
	}
	if params.PriceMinCents > 0 {
		query = query.Where("COALESCE(latest.final_price, 0) >= ?", params.PriceMinCents)
	}
	if params.PriceMaxCents > 0 {
		query = query.Where("(latest.final_price IS NULL OR latest.final_price <= ?)", params.PriceMaxCents)
	}
	return query
}

// ListGamesPage returns one catalog page plus the total match count. Both
// queries run in one transaction so the page math cannot drift when a
// collector commits between the count and the page scan.
func (s *Store) ListGamesPage(ctx context.Context, params repository.ListGamesParams) ([]repository.GamePriceRow, int64, error) {
	if s == nil || s.db == nil {
		return nil, 0, nil
	}
	var (
		rows  []repository.GamePriceRow
		total int64
	)
	err := s.InTx(ctx, func(tx *gorm.DB) error {
		countQuery := applyGameFilters(tx.Table("games").Joins(latestJoin), params)
		if err := countQuery.Count(&total).Error; err != nil {
			return err
		}
		// Ascending app id: deterministic and index-friendly, not relevance.
		query := applyGameFilters(s.gameRowsQuery(ctx, tx), params).
			Order("games.app_id asc")
		limit := normalizeLimit(params.Limit, 24)
		offset := normalizeOffset(params.Offset)
		return query.Limit(limit).Offset(offset).Scan(&rows).Error
	})
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (s *Store) ListDealRows(ctx context.Context, params repository.ListGamesParams) ([]repository.GamePriceRow, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := applyGameFilters(s.gameRowsQuery(ctx, s.db), params).
		Where("COALESCE(latest.discount_percent, 0) > 0").
		Order("latest.discount_percent desc, games.app_id asc")
	limit := normalizeLimit(params.Limit, 24)
	offset := normalizeOffset(params.Offset)
	var rows []repository.GamePriceRow
	if err := query.Limit(limit).Offset(offset).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) GetGameRow(ctx context.Context, appID int64) (*repository.GamePriceRow, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if appID <= 0 {
		return nil, nil
	}
	var rows []repository.GamePriceRow
	err := s.gameRowsQuery(ctx, s.db).
		Where("games.app_id = ?", appID).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (s *Store) GetGame(ctx context.Context, appID int64) (*models.Game, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if appID <= 0 {
		return nil, nil
	}
	var item models.Game
	err := s.db.WithContext(ctx).Model(&models.Game{}).Where("app_id = ?", appID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// --- Price history -----------------------------------------------------------

func (s *Store) PriceSeries(ctx context.Context, params repository.ListObservationsParams) ([]models.PriceObservation, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if params.AppID <= 0 {
		return nil, nil
	}
	query := s.db.WithContext(ctx).
		Model(&models.PriceObservation{}).
		Where("app_id = ?", params.AppID)
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("observed_at >= ?", params.Since.UTC())
	}
	limit := normalizeLimit(params.Limit, 500)
	offset := normalizeOffset(params.Offset)
	var items []models.PriceObservation
	if err := query.Order("observed_at asc, id asc").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// RecentObservations returns the newest observations first. Forecasting
// reverses them back to chronological order.
func (s *Store) RecentObservations(ctx context.Context, appID int64, limit int) ([]models.PriceObservation, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if appID <= 0 {
		return nil, nil
	}
	limit = normalizeLimit(limit, 7)
	var items []models.PriceObservation
	if err := s.db.WithContext(ctx).
		Model(&models.PriceObservation{}).
		Where("app_id = ?", appID).
		Order("observed_at desc, id desc").
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) InsertObservation(ctx context.Context, item *models.PriceObservation) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if item.ObservedAt.IsZero() {
		item.ObservedAt = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) LatestObservation(ctx context.Context, appID int64) (*models.PriceObservation, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if appID <= 0 {
		return nil, nil
	}
	var item models.PriceObservation
	err := s.db.WithContext(ctx).
		Model(&models.PriceObservation{}).
		Where("app_id = ?", appID).
		Order("observed_at desc, id desc").
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// --- Collector writes --------------------------------------------------------

func (s *Store) UpsertGame(ctx context.Context, item *models.Game) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if item.AppID <= 0 {
		return nil
	}
	if item.LastUpdated.IsZero() {
		item.LastUpdated = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "app_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name",
			"short_description",
			"header_image_url",
			"release_date",
			"metacritic_score",
			"recommendation_count",
			"platform_windows",
			"platform_mac",
			"platform_linux",
			"genres",
			"publishers",
			"developers",
			"last_updated",
		}),
	}).Create(item).Error
}

func (s *Store) UpsertTrackedGames(ctx context.Context, items []models.TrackedGame) error {
	if s == nil || s.db == nil || len(items) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "app_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"source",
			"is_free_to_play",
			"status",
			"last_seen_in_top",
		}),
	}).CreateInBatches(items, 200).Error
}

func (s *Store) ListTrackedGames(ctx context.Context, status string) ([]models.TrackedGame, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.TrackedGame{})
	if strings.TrimSpace(status) != "" {
		query = query.Where("status = ?", strings.TrimSpace(status))
	}
	var items []models.TrackedGame
	if err := query.Order("app_id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) SetTrackedGameStatus(ctx context.Context, appID int64, status string) error {
	if s == nil || s.db == nil {
		return nil
	}
	if appID <= 0 || strings.TrimSpace(status) == "" {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.TrackedGame{}).
		Where("app_id = ?", appID).
		Update("status", strings.TrimSpace(status)).Error
}

func (s *Store) MarkSeenInTop(ctx context.Context, appIDs []int64, seenAt time.Time) error {
	if s == nil || s.db == nil {
		return nil
	}
	if len(appIDs) == 0 {
		return nil
	}
	if seenAt.IsZero() {
		seenAt = time.Now().UTC()
	}
	return s.db.WithContext(ctx).
		Model(&models.TrackedGame{}).
		Where("app_id IN ?", appIDs).
		Update("last_seen_in_top", seenAt).Error
}

// --- Sync state --------------------------------------------------------------

func (s *Store) GetSyncState(ctx context.Context, scope string) (*models.SyncState, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	scope = strings.TrimSpace(scope)
	if scope == "" {
		return nil, nil
	}
	var item models.SyncState
	err := s.db.WithContext(ctx).Model(&models.SyncState{}).Where("scope = ?", scope).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) SaveSyncState(ctx context.Context, state *models.SyncState) error {
	if s == nil || s.db == nil || state == nil {
		return nil
	}
	if strings.TrimSpace(state.Scope) == "" {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "scope"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"cursor",
			"last_success_at",
			"last_attempt_at",
			"last_error",
			"stats_json",
		}),
	}).Create(state).Error
}

func (s *Store) ListSyncStates(ctx context.Context) ([]models.SyncState, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.SyncState
	if err := s.db.WithContext(ctx).Model(&models.SyncState{}).Order("scope asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- Accounts & sessions -----------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, item *models.User) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, nil
	}
	var item models.User
	err := s.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) GetUserByID(ctx context.Context, id uint64) (*models.User, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if id == 0 {
		return nil, nil
	}
	var item models.User
	err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) InsertAuthToken(ctx context.Context, item *models.AuthToken) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetAuthToken(ctx context.Context, token string) (*models.AuthToken, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}
	var item models.AuthToken
	err := s.db.WithContext(ctx).Model(&models.AuthToken{}).Where("token = ?", token).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) DeleteAuthToken(ctx context.Context, token string) error {
	if s == nil || s.db == nil {
		return nil
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	return s.db.WithContext(ctx).Where("token = ?", token).Delete(&models.AuthToken{}).Error
}

func (s *Store) DeleteExpiredAuthTokens(ctx context.Context, before time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	if before.IsZero() {
		before = time.Now().UTC()
	}
	res := s.db.WithContext(ctx).
		Where("expires_at < ?", before).
		Delete(&models.AuthToken{})
	return res.RowsAffected, res.Error
}

// --- Watchlists --------------------------------------------------------------

func (s *Store) AddWatchlistItem(ctx context.Context, item *models.WatchlistItem) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if item.UserID == 0 || item.AppID <= 0 {
		return nil
	}
	// Re-adding an existing entry is a no-op, enforced by
	// idx_watchlist_user_app.
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "app_id"}},
		DoNothing: true,
	}).Create(item).Error
}

func (s *Store) RemoveWatchlistItem(ctx context.Context, userID uint64, appID int64) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	if userID == 0 || appID <= 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND app_id = ?", userID, appID).
		Delete(&models.WatchlistItem{})
	return res.RowsAffected, res.Error
}

func (s *Store) ListWatchlistAppIDs(ctx context.Context, userID uint64) ([]int64, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if userID == 0 {
		return nil, nil
	}
	var ids []int64
	err := s.db.WithContext(ctx).
		Model(&models.WatchlistItem{}).
		Where("user_id = ?", userID).
		Order("created_at asc").
		Pluck("app_id", &ids).Error
	return ids, err
}

func (s *Store) ListWatchlistRows(ctx context.Context, userID uint64) ([]repository.GamePriceRow, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if userID == 0 {
		return nil, nil
	}
	var rows []repository.GamePriceRow
	err := s.gameRowsQuery(ctx, s.db).
		Joins("JOIN watchlist_items AS w ON w.app_id = games.app_id").
		Where("w.user_id = ?", userID).
		Order("w.created_at asc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// --- Helpers -----------------------------------------------------------------

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
