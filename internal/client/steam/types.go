package steam

import (
	"encoding/json"
	"strings"
	"time"
)

// PriceOverview carries storefront prices in minor currency units.
type PriceOverview struct {
	Currency        string `json:"currency"`
	Initial         int64  `json:"initial"`
	Final           int64  `json:"final"`
	DiscountPercent int    `json:"discount_percent"`
}

type PlatformFlags struct {
	Windows bool `json:"windows"`
	Mac     bool `json:"mac"`
	Linux   bool `json:"linux"`
}

// AppDetails is the normalized result of one appdetails lookup. Genre,
// publisher and developer lists are flattened to plain names and the
// release date is parsed, so callers never see the storefront's raw
// envelope shapes.
type AppDetails struct {
	AppID            int64
	Type             string
	Name             string
	IsFree           bool
	ShortDescription string
	HeaderImage      string
	Developers       []string
	Publishers       []string
	Genres           []string
	Platforms        PlatformFlags
	MetacriticScore  *int
	Recommendations  int
	ReleaseDate      *time.Time
	ComingSoon       bool
	PriceOverview    *PriceOverview
}

// appDetailsEnvelope is the outer appdetails response: one entry keyed by
// the requested app id, with data present only when success is true.
type appDetailsEnvelope map[string]struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

type appDetailsData struct {
	Type             string         `json:"type"`
	Name             string         `json:"name"`
	SteamAppID       int64          `json:"steam_appid"`
	IsFree           bool           `json:"is_free"`
	ShortDescription string         `json:"short_description"`
	HeaderImage      string         `json:"header_image"`
	Developers       []string       `json:"developers"`
	Publishers       []string       `json:"publishers"`
	Genres           []genreEntry   `json:"genres"`
	Platforms        PlatformFlags  `json:"platforms"`
	Metacritic       *metacritic    `json:"metacritic"`
	Recommendations  *recommends    `json:"recommendations"`
	ReleaseDate      *releaseDate   `json:"release_date"`
	PriceOverview    *PriceOverview `json:"price_overview"`
}

type metacritic struct {
	Score int `json:"score"`
}

type recommends struct {
	Total int `json:"total"`
}

type releaseDate struct {
	ComingSoon bool   `json:"coming_soon"`
	Date       string `json:"date"`
}

// genreEntry accepts both shapes the storefront ships: a bare string or
// an object with a description.
type genreEntry struct {
	Description string
}

func (g *genreEntry) UnmarshalJSON(raw []byte) error {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		g.Description = s
		return nil
	}
	var obj struct {
		Description string `json:"description"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return err
	}
	g.Description = obj.Description
	return nil
}

// releaseDateLayouts covers the date strings seen on the storefront,
// which vary by region and by how precise the publisher was.
var releaseDateLayouts = []string{
	"2 Jan, 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2006",
	"January 2006",
	"2006",
}

func parseReleaseDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range releaseDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func (d appDetailsData) normalize(appID int64) *AppDetails {
	genres := make([]string, 0, len(d.Genres))
	for _, g := range d.Genres {
		if strings.TrimSpace(g.Description) != "" {
			genres = append(genres, g.Description)
		}
	}

	out := &AppDetails{
		AppID:            appID,
		Type:             d.Type,
		Name:             d.Name,
		IsFree:           d.IsFree,
		ShortDescription: d.ShortDescription,
		HeaderImage:      d.HeaderImage,
		Developers:       d.Developers,
		Publishers:       d.Publishers,
		Genres:           genres,
		Platforms:        d.Platforms,
		PriceOverview:    d.PriceOverview,
	}
	if d.SteamAppID > 0 {
		out.AppID = d.SteamAppID
	}
	if d.Metacritic != nil {
		score := d.Metacritic.Score
		out.MetacriticScore = &score
	}
	if d.Recommendations != nil {
		out.Recommendations = d.Recommendations.Total
	}
	if d.ReleaseDate != nil {
		out.ComingSoon = d.ReleaseDate.ComingSoon
		out.ReleaseDate = parseReleaseDate(d.ReleaseDate.Date)
	}
	return out
}
