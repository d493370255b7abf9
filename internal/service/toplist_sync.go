package service

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"steamtracker/internal/client/steam"
	"steamtracker/internal/models"
	"steamtracker/internal/repository"
	"steamtracker/internal/scraper"
)

const toplistScope = "toplist"

// ToplistSyncService refreshes the tracked roster from the storefront's
// top-sellers listing. Newly discovered apps get one appdetails lookup
// to learn whether they are free to play; that answer is cached in an
// LRU so repeat discoveries of the same free app cost nothing.
type ToplistSyncService struct {
	Store   repository.Store
	Scraper *scraper.TopSellers
	Steam   *steam.Client
	Logger  *zap.Logger
	Metrics *CollectorMetrics

	freeCache *lru.Cache[int64, bool]
}

func NewToplistSyncService(store repository.Store, sc *scraper.TopSellers, client *steam.Client, cacheSize int, logger *zap.Logger, metrics *CollectorMetrics) (*ToplistSyncService, error) {
	if cacheSize < 1 {
		cacheSize = 1024
	}
	cache, err := lru.New[int64, bool](cacheSize)
	if err != nil {
		return nil, err
	}
	return &ToplistSyncService{
		Store:     store,
		Scraper:   sc,
		Steam:     client,
		Logger:    logger,
		Metrics:   metrics,
		freeCache: cache,
	}, nil
}

type ToplistSyncResult struct {
	Seen    int `json:"seen"`
	Added   int `json:"added"`
	Free    int `json:"free"`
	Skipped int `json:"skipped"`
}

func (s *ToplistSyncService) Run(ctx context.Context) (ToplistSyncResult, error) {
	if s.Scraper == nil {
		return ToplistSyncResult{}, fmt.Errorf("scraper is nil")
	}
	start := time.Now()
	defer func() {
		s.Metrics.ObserveRun(toplistScope, time.Since(start))
	}()

	ids, err := s.Scraper.Fetch(ctx)
	if err != nil {
		s.writeError(ctx, err)
		return ToplistSyncResult{}, err
	}

	tracked, err := s.Store.ListTrackedGames(ctx, "")
	if err != nil {
		return ToplistSyncResult{}, err
	}
	known := make(map[int64]struct{}, len(tracked))
	for _, t := range tracked {
		known[t.AppID] = struct{}{}
	}

	now := time.Now().UTC()
	result := ToplistSyncResult{Seen: len(ids)}
	newItems := make([]models.TrackedGame, 0)
	for _, appID := range ids {
		if _, ok := known[appID]; ok {
			continue
		}
		isFree, err := s.isFreeToPlay(ctx, appID)
		if err != nil {
			result.Skipped++
			if s.Logger != nil {
				s.Logger.Warn("could not classify new top seller",
					zap.Int64("app_id", appID),
					zap.Error(err),
				)
			}
			continue
		}
		if isFree {
			result.Free++
		}
		seenAt := now
		newItems = append(newItems, models.TrackedGame{
			AppID:         appID,
			Source:        "topsellers",
			IsFreeToPlay:  isFree,
			Status:        models.TrackedStatusActive,
			AddedAt:       now,
			LastSeenInTop: &seenAt,
		})
	}

	if err := s.Store.UpsertTrackedGames(ctx, newItems); err != nil {
		s.writeError(ctx, err)
		return result, err
	}
	result.Added = len(newItems)

	if err := s.Store.MarkSeenInTop(ctx, ids, now); err != nil {
		s.writeError(ctx, err)
		return result, err
	}

	state := &models.SyncState{
		Scope:         toplistScope,
		LastAttemptAt: &now,
		LastSuccessAt: &now,
		StatsJSON: statsJSON(map[string]int{
			"seen":    result.Seen,
			"added":   result.Added,
			"free":    result.Free,
			"skipped": result.Skipped,
		}),
	}
	if err := s.Store.SaveSyncState(ctx, state); err != nil {
		return result, err
	}

	if s.Logger != nil {
		s.Logger.Info("toplist sync run finished",
			zap.Int("seen", result.Seen),
			zap.Int("added", result.Added),
			zap.Int("free", result.Free),
		)
	}
	return result, nil
}

// isFreeToPlay answers from the LRU when possible. Unknown apps cost one
// appdetails call; a delisted app (nil details) is treated as free so it
// never enters the priced roster.
func (s *ToplistSyncService) isFreeToPlay(ctx context.Context, appID int64) (bool, error) {
	if isFree, ok := s.freeCache.Get(appID); ok {
		return isFree, nil
	}
	if s.Steam == nil {
		return false, fmt.Errorf("steam client is nil")
	}
	details, err := s.Steam.AppDetails(ctx, appID)
	if err != nil {
		return false, err
	}
	isFree := details == nil || details.IsFree
	s.freeCache.Add(appID, isFree)

	if details != nil {
		// The lookup already paid for the metadata; keep it.
		if err := s.Store.UpsertGame(ctx, gameFromDetails(details)); err != nil {
			return isFree, err
		}
		s.Metrics.IncGames()
	}
	return isFree, nil
}

func (s *ToplistSyncService) writeError(ctx context.Context, err error) {
	s.Metrics.IncError(toplistScope)
	if s.Logger != nil {
		s.Logger.Warn("toplist sync failed", zap.Error(err))
	}
	now := time.Now().UTC()
	_ = s.Store.SaveSyncState(ctx, &models.SyncState{
		Scope:         toplistScope,
		LastAttemptAt: &now,
		LastError:     strPtr(err.Error()),
	})
}
