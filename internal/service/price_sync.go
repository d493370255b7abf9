package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"steamtracker/internal/client/steam"
	"steamtracker/internal/models"
	"steamtracker/internal/repository"
)

const priceSyncScope = "price_sync"

// PriceSyncService walks the tracked roster and records one price
// observation per priced game. Runs are batched and resumable: the sync
// cursor stores the last processed app id, so an interrupted run picks
// up where it stopped instead of hammering the same front of the list.
type PriceSyncService struct {
	Store   repository.Store
	Steam   *steam.Client
	Logger  *zap.Logger
	Metrics *CollectorMetrics

	BatchSize     int
	SleepPerGame  time.Duration
	Resume        bool
	MaxConsecFail int
}

type PriceSyncResult struct {
	Scanned    int   `json:"scanned"`
	Updated    int   `json:"updated"`
	Priced     int   `json:"priced"`
	Skipped    int   `json:"skipped"`
	Failed     int   `json:"failed"`
	NextCursor int64 `json:"next_cursor"`
	Done       bool  `json:"done"`
}

func (s *PriceSyncService) Run(ctx context.Context) (PriceSyncResult, error) {
	if s.Steam == nil {
		return PriceSyncResult{}, fmt.Errorf("steam client is nil")
	}
	start := time.Now()
	defer func() {
		s.Metrics.ObserveRun(priceSyncScope, time.Since(start))
	}()

	tracked, err := s.Store.ListTrackedGames(ctx, models.TrackedStatusActive)
	if err != nil {
		s.writeSyncError(ctx, priceSyncScope, err)
		return PriceSyncResult{}, err
	}
	s.Metrics.SetTracked(len(tracked))

	cursor := int64(0)
	if s.Resume {
		state, err := s.Store.GetSyncState(ctx, priceSyncScope)
		if err != nil {
			return PriceSyncResult{}, err
		}
		if state != nil && state.Cursor != nil {
			if parsed, err := strconv.ParseInt(*state.Cursor, 10, 64); err == nil {
				cursor = parsed
			}
		}
	}

	batchSize := s.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}
	maxConsecFail := s.MaxConsecFail
	if maxConsecFail <= 0 {
		maxConsecFail = 10
	}

	result := PriceSyncResult{}
	consecFail := 0
	lastProcessed := cursor
	remaining := 0
	for _, game := range tracked {
		if game.AppID <= cursor {
			continue
		}
		if result.Scanned >= batchSize {
			remaining++
			continue
		}
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		result.Scanned++
		lastProcessed = game.AppID

		if game.IsFreeToPlay {
			result.Skipped++
			continue
		}

		if err := s.syncOne(ctx, game.AppID, &result); err != nil {
			result.Failed++
			consecFail++
			s.Metrics.IncError(priceSyncScope)
			if s.Logger != nil {
				s.Logger.Warn("price sync failed for game",
					zap.Int64("app_id", game.AppID),
					zap.Error(err),
				)
			}
			if consecFail >= maxConsecFail {
				err = fmt.Errorf("%d consecutive failures, aborting run: %w", consecFail, err)
				s.writeSyncError(ctx, priceSyncScope, err)
				return result, err
			}
			continue
		}
		consecFail = 0

		if s.SleepPerGame > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(s.SleepPerGame):
			}
		}
	}

	result.Done = remaining == 0
	result.NextCursor = lastProcessed
	if result.Done {
		// Wrap around so the next run starts from the top of the roster.
		result.NextCursor = 0
	}

	now := time.Now().UTC()
	state := &models.SyncState{
		Scope:         priceSyncScope,
		Cursor:        strPtr(strconv.FormatInt(result.NextCursor, 10)),
		LastAttemptAt: &now,
		LastSuccessAt: &now,
		StatsJSON: statsJSON(map[string]int{
			"scanned": result.Scanned,
			"updated": result.Updated,
			"priced":  result.Priced,
			"skipped": result.Skipped,
			"failed":  result.Failed,
		}),
	}
	if err := s.Store.SaveSyncState(ctx, state); err != nil {
		return result, err
	}

	if s.Logger != nil {
		s.Logger.Info("price sync run finished",
			zap.Int("scanned", result.Scanned),
			zap.Int("priced", result.Priced),
			zap.Int("failed", result.Failed),
			zap.Bool("done", result.Done),
		)
	}
	return result, nil
}

func (s *PriceSyncService) syncOne(ctx context.Context, appID int64, result *PriceSyncResult) error {
	details, err := s.Steam.AppDetails(ctx, appID)
	if err != nil {
		return err
	}
	if details == nil {
		// Delisted or region-locked: stop polling it.
		result.Skipped++
		return s.Store.SetTrackedGameStatus(ctx, appID, models.TrackedStatusInactive)
	}

	if err := s.Store.UpsertGame(ctx, gameFromDetails(details)); err != nil {
		return err
	}
	result.Updated++
	s.Metrics.IncGames()

	if details.PriceOverview == nil {
		return nil
	}
	obs := &models.PriceObservation{
		AppID:           details.AppID,
		Currency:        details.PriceOverview.Currency,
		InitialPrice:    details.PriceOverview.Initial,
		FinalPrice:      details.PriceOverview.Final,
		DiscountPercent: details.PriceOverview.DiscountPercent,
		ObservedAt:      time.Now().UTC(),
	}
	if err := s.Store.InsertObservation(ctx, obs); err != nil {
		return err
	}
	result.Priced++
	s.Metrics.IncObservations()
	return nil
}

func (s *PriceSyncService) writeSyncError(ctx context.Context, scope string, err error) {
	if s.Logger != nil {
		s.Logger.Warn("sync failed", zap.String("scope", scope), zap.Error(err))
	}
	now := time.Now().UTC()
	_ = s.Store.SaveSyncState(ctx, &models.SyncState{
		Scope:         scope,
		LastAttemptAt: &now,
		LastError:     strPtr(err.Error()),
	})
}

func gameFromDetails(details *steam.AppDetails) *models.Game {
	return &models.Game{
		AppID:               details.AppID,
		Name:                details.Name,
		ShortDescription:    details.ShortDescription,
		HeaderImageURL:      details.HeaderImage,
		ReleaseDate:         details.ReleaseDate,
		MetacriticScore:     details.MetacriticScore,
		RecommendationCount: details.Recommendations,
		PlatformWindows:     details.Platforms.Windows,
		PlatformMac:         details.Platforms.Mac,
		PlatformLinux:       details.Platforms.Linux,
		Genres:              mustJSON(details.Genres),
		Publishers:          mustJSON(details.Publishers),
		Developers:          mustJSON(details.Developers),
		LastUpdated:         time.Now().UTC(),
	}
}

func statsJSON(stats map[string]int) datatypes.JSON {
	if len(stats) == 0 {
		return datatypes.JSON([]byte("null"))
	}
	payload, err := json.Marshal(stats)
	if err != nil {
		return datatypes.JSON([]byte("null"))
	}
	return datatypes.JSON(payload)
}

func mustJSON(v any) datatypes.JSON {
	payload, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON([]byte("[]"))
	}
	return datatypes.JSON(payload)
}

func strPtr(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
