package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"steamtracker/internal/config"
)

// TopSellers crawls the storefront search listing and extracts app ids in
// page order. The listing is server-rendered, so a plain HTML crawl is
// enough; no JS evaluation needed.
type TopSellers struct {
	searchURL string
	pages     int
	collector *colly.Collector
	logger    *zap.Logger
}

func NewTopSellers(cfg config.SteamConfig, pages int, logger *zap.Logger) (*TopSellers, error) {
	parsed, err := url.Parse(cfg.SearchURL)
	if err != nil {
		return nil, fmt.Errorf("parse search url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("search url must include a host")
	}
	if pages < 1 {
		pages = 1
	}

	// Revisits must stay allowed: the same listing URLs are fetched on
	// every scheduled run.
	collector := colly.NewCollector(
		colly.AllowedDomains(parsed.Host),
		colly.AllowURLRevisit(),
	)
	collector.SetRequestTimeout(cfg.Timeout)

	return &TopSellers{
		searchURL: cfg.SearchURL,
		pages:     pages,
		collector: collector,
		logger:    logger,
	}, nil
}

// Fetch visits the configured number of listing pages and returns the
// app ids in storefront rank order, first occurrence wins. Bundles and
// rows without a data-ds-appid attribute are skipped. A page that fails
// entirely is logged and skipped; partial results are still useful to
// the tracker.
func (t *TopSellers) Fetch(ctx context.Context) ([]int64, error) {
	var (
		mu   sync.Mutex
		ids  []int64
		seen = map[int64]struct{}{}
	)

	// Each run gets its own clone: callbacks registered here must not
	// accumulate on the shared collector across runs.
	collector := t.collector.Clone()
	collector.OnHTML("a.search_result_row", func(e *colly.HTMLElement) {
		raw := strings.TrimSpace(e.Attr("data-ds-appid"))
		if raw == "" {
			return
		}
		// Multi-app packages carry a comma-joined id list; the first id
		// is the headline app.
		if i := strings.IndexByte(raw, ','); i >= 0 {
			raw = raw[:i]
		}
		appID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || appID <= 0 {
			return
		}
		mu.Lock()
		if _, ok := seen[appID]; !ok {
			seen[appID] = struct{}{}
			ids = append(ids, appID)
		}
		mu.Unlock()
	})

	visited := 0
	for page := 1; page <= t.pages; page++ {
		if ctx.Err() != nil {
			return ids, ctx.Err()
		}
		target := fmt.Sprintf("%s?filter=topsellers&page=%d", t.searchURL, page)
		if err := collector.Visit(target); err != nil {
			if t.logger != nil {
				t.logger.Warn("top sellers page failed",
					zap.Int("page", page),
					zap.Error(err),
				)
			}
			continue
		}
		visited++
	}
	collector.Wait()

	if visited == 0 {
		return nil, fmt.Errorf("all %d top seller pages failed", t.pages)
	}
	if t.logger != nil {
		t.logger.Info("top sellers fetched",
			zap.Int("pages", visited),
			zap.Int("apps", len(ids)),
		)
	}
	return ids, nil
}

// WithTransport swaps the underlying HTTP transport, used by tests.
func (t *TopSellers) WithTransport(rt http.RoundTripper) {
	t.collector.WithTransport(rt)
}
