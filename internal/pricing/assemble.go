package pricing

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"steamtracker/internal/models"
)

// Observation is the price snapshot the assembler works from, in minor
// currency units.
type Observation struct {
	InitialPrice    int64
	FinalPrice      int64
	DiscountPercent int
}

// Platforms mirrors the three storefront platform flags.
type Platforms struct {
	Windows bool `json:"windows"`
	Mac     bool `json:"mac"`
	Linux   bool `json:"linux"`
}

// DisplayRecord is the outward-facing, fully defaulted shape of one game.
// It is derived at query time and never persisted.
type DisplayRecord struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	HeaderImage         string    `json:"header_image"`
	ReleaseDate         *string   `json:"release_date"`
	Developers          []string  `json:"developers"`
	Publishers          []string  `json:"publishers"`
	Genres              []string  `json:"genres"`
	Platforms           Platforms `json:"platforms"`
	CurrentPrice        float64   `json:"current_price"`
	OriginalPrice       float64   `json:"original_price"`
	DiscountPercent     int       `json:"discount_percent"`
	HistoricalLow       float64   `json:"historical_low"`
	PriceGrade          string    `json:"price_grade"`
	Forecast            Trend     `json:"forecast"`
	ShortDescription    string    `json:"short_description"`
	MetacriticScore     *int      `json:"metacritic_score"`
	RecommendationCount int       `json:"recommendation_count"`
}

// Cents converts minor currency units to a major-unit decimal.
func Cents(v int64) decimal.Decimal {
	return decimal.New(v, -2)
}

// Assemble combines a game row, its latest observation and its trailing
// historical low into a DisplayRecord. Every optional input has a
// documented fallback: no observation means all monetary fields are zero,
// a missing low falls back to the current price, and an unset trend reads
// as stable. Callers never have to null-check the result.
func Assemble(game models.Game, latest *Observation, lowCents *int64, trend Trend) DisplayRecord {
	var current, original decimal.Decimal
	discount := 0
	if latest != nil {
		current = Cents(latest.FinalPrice)
		original = Cents(latest.InitialPrice)
		discount = latest.DiscountPercent
	}

	low := current
	if lowCents != nil {
		low = Cents(*lowCents)
	}

	if trend == "" {
		trend = TrendStable
	}

	name := game.Name
	if name == "" {
		name = "Unknown"
	}

	var releaseDate *string
	if game.ReleaseDate != nil {
		formatted := game.ReleaseDate.Format(time.RFC3339)
		releaseDate = &formatted
	}

	return DisplayRecord{
		ID:          strconv.FormatInt(game.AppID, 10),
		Name:        name,
		HeaderImage: game.HeaderImageURL,
		ReleaseDate: releaseDate,
		Developers:  nameList(game.Developers),
		Publishers:  nameList(game.Publishers),
		Genres:      nameList(game.Genres),
		Platforms: Platforms{
			Windows: game.PlatformWindows,
			Mac:     game.PlatformMac,
			Linux:   game.PlatformLinux,
		},
		CurrentPrice:        current.InexactFloat64(),
		OriginalPrice:       original.InexactFloat64(),
		DiscountPercent:     discount,
		HistoricalLow:       low.InexactFloat64(),
		PriceGrade:          Grade(current, low),
		Forecast:            trend,
		ShortDescription:    game.ShortDescription,
		MetacriticScore:     game.MetacriticScore,
		RecommendationCount: game.RecommendationCount,
	}
}

// nameList normalizes a stored JSON list into plain names. Entries may be
// strings or objects carrying a "description" field (the storefront ships
// genres both ways); anything else is dropped rather than surfaced as an
// error, because upstream data quality must not break listings.
func nameList(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var entries []any
	if err := json.Unmarshal(raw, &entries); err != nil {
		return []string{}
	}
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		switch v := entry.(type) {
		case string:
			out = append(out, v)
		case map[string]any:
			if desc, ok := v["description"].(string); ok && desc != "" {
				out = append(out, desc)
			}
		}
	}
	return out
}
