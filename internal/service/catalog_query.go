package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"steamtracker/internal/pricing"
	"steamtracker/internal/repository"
)

// CatalogQueryService answers the read side: listings, deals, game
// detail and price history. All monetary filters arrive in minor
// currency units; handlers own the major-unit conversion.
type CatalogQueryService struct {
	Store        repository.Store
	Logger       *zap.Logger
	PageSize     int
	MaxPageSize  int
	ForecastSpan int
}

type CatalogQuery struct {
	Search        *string
	DiscountMin   int
	PriceMinCents int64
	PriceMaxCents int64
	Page          int
	PageSize      int
}

type CatalogPage struct {
	Items []pricing.DisplayRecord
	Page  Page
}

type HistoryPoint struct {
	Date            string  `json:"date"`
	Price           float64 `json:"price"`
	OriginalPrice   float64 `json:"original_price"`
	DiscountPercent int     `json:"discount_percent"`
}

func (s *CatalogQueryService) normalize(q CatalogQuery) (CatalogQuery, repository.ListGamesParams) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = s.PageSize
	}
	if q.PageSize < 1 {
		q.PageSize = 24
	}
	if s.MaxPageSize > 0 && q.PageSize > s.MaxPageSize {
		q.PageSize = s.MaxPageSize
	}
	return q, repository.ListGamesParams{
		Search:        q.Search,
		DiscountMin:   q.DiscountMin,
		PriceMinCents: q.PriceMinCents,
		PriceMaxCents: q.PriceMaxCents,
		Limit:         q.PageSize,
		Offset:        (q.Page - 1) * q.PageSize,
	}
}

// GetCatalogPage returns one page of the catalog. Trends are not
// computed for listings; that would need a series fetch per row, and the
// listing already communicates direction through discounts.
func (s *CatalogQueryService) GetCatalogPage(ctx context.Context, q CatalogQuery) (CatalogPage, error) {
	q, params := s.normalize(q)
	rows, total, err := s.Store.ListGamesPage(ctx, params)
	if err != nil {
		return CatalogPage{}, err
	}
	return CatalogPage{
		Items: assembleRows(rows),
		Page:  buildPage(q.Page, q.PageSize, total),
	}, nil
}

// GetDeals returns every currently discounted game, deepest cut first.
// The deals surface is deliberately unpaginated; the repository's row cap
// bounds the worst case.
func (s *CatalogQueryService) GetDeals(ctx context.Context) ([]pricing.DisplayRecord, error) {
	rows, err := s.Store.ListDealRows(ctx, repository.ListGamesParams{Limit: 500})
	if err != nil {
		return nil, err
	}
	return assembleRows(rows), nil
}

// GetGameDetail returns one fully assembled record, including the trend
// forecast, or nil when the game is unknown.
func (s *CatalogQueryService) GetGameDetail(ctx context.Context, appID int64) (*pricing.DisplayRecord, error) {
	row, err := s.Store.GetGameRow(ctx, appID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}

	trend := pricing.TrendStable
	span := s.ForecastSpan
	if span < 2 {
		span = 7
	}
	recent, err := s.Store.RecentObservations(ctx, appID, span)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("forecast series unavailable", zap.Int64("app_id", appID), zap.Error(err))
		}
	} else {
		points := make([]pricing.PricePoint, 0, len(recent))
		for i := len(recent) - 1; i >= 0; i-- {
			points = append(points, pricing.PricePoint{
				At:    recent[i].ObservedAt,
				Price: pricing.Cents(recent[i].FinalPrice),
			})
		}
		trend = pricing.Forecast(points)
	}

	record := assembleRow(*row, trend)
	return &record, nil
}

// GetPriceHistory returns the chronological price series for one game.
// A zero since means full history.
func (s *CatalogQueryService) GetPriceHistory(ctx context.Context, appID int64, since *time.Time, limit int) ([]HistoryPoint, error) {
	items, err := s.Store.PriceSeries(ctx, repository.ListObservationsParams{
		AppID: appID,
		Since: since,
		Limit: limit,
	})
	if err != nil {
		return nil, err
	}
	out := make([]HistoryPoint, 0, len(items))
	for _, obs := range items {
		out = append(out, HistoryPoint{
			Date:            obs.ObservedAt.UTC().Format(time.RFC3339),
			Price:           pricing.Cents(obs.FinalPrice).InexactFloat64(),
			OriginalPrice:   pricing.Cents(obs.InitialPrice).InexactFloat64(),
			DiscountPercent: obs.DiscountPercent,
		})
	}
	return out, nil
}

func assembleRows(rows []repository.GamePriceRow) []pricing.DisplayRecord {
	out := make([]pricing.DisplayRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, assembleRow(row, pricing.TrendStable))
	}
	return out
}

func assembleRow(row repository.GamePriceRow, trend pricing.Trend) pricing.DisplayRecord {
	var latest *pricing.Observation
	if row.LatestFinalPrice != nil {
		obs := pricing.Observation{FinalPrice: *row.LatestFinalPrice}
		if row.LatestInitialPrice != nil {
			obs.InitialPrice = *row.LatestInitialPrice
		}
		if row.LatestDiscountPercent != nil {
			obs.DiscountPercent = *row.LatestDiscountPercent
		}
		latest = &obs
	}
	return pricing.Assemble(row.Game, latest, row.LowFinalPrice, trend)
}
