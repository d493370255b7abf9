package service

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"go.uber.org/zap"

	"steamtracker/internal/config"
	"steamtracker/internal/models"
	"steamtracker/internal/scraper"
)

func mockTopSellers(t *testing.T, transport *httpmock.MockTransport) *scraper.TopSellers {
	t.Helper()
	ts, err := scraper.NewTopSellers(config.SteamConfig{
		SearchURL: "http://store.test/search/",
		Timeout:   5 * time.Second,
	}, 1, zap.NewNop())
	if err != nil {
		t.Fatalf("NewTopSellers: %v", err)
	}
	ts.WithTransport(transport)
	return ts
}

func searchBody(appIDs ...int64) string {
	body := `<html><body><div id="search_resultsRows">`
	for _, appID := range appIDs {
		body += fmt.Sprintf(`<a class="search_result_row" data-ds-appid="%d" href="#"></a>`, appID)
	}
	return body + `</div></body></html>`
}

func freeDetails(appID int64) string {
	return fmt.Sprintf(`{"%d": {"success": true, "data": {
		"type": "game", "name": "Free App %d", "steam_appid": %d, "is_free": true
	}}}`, appID, appID, appID)
}

func paidDetails(appID int64) string {
	return fmt.Sprintf(`{"%d": {"success": true, "data": {
		"type": "game", "name": "Paid App %d", "steam_appid": %d, "is_free": false
	}}}`, appID, appID, appID)
}

func TestToplistSyncRun(t *testing.T) {
	store := newFakeStore()
	store.tracked = []models.TrackedGame{
		{AppID: 10, Status: models.TrackedStatusActive},
	}

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "http://store.test/search/",
		httpmock.NewStringResponder(200, searchBody(10, 20, 30)))
	registerDetails(transport, map[int64]string{
		20: paidDetails(20),
		30: freeDetails(30),
	})

	svc, err := NewToplistSyncService(store, mockTopSellers(t, transport), mockSteam(transport), 16, zap.NewNop(), NewCollectorMetrics())
	if err != nil {
		t.Fatalf("NewToplistSyncService: %v", err)
	}

	result, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Seen != 3 || result.Added != 2 || result.Free != 1 {
		t.Fatalf("result = %+v", result)
	}

	// Both new apps join the roster; the free one is flagged so the
	// price sync never polls it.
	added := map[int64]models.TrackedGame{}
	for _, tg := range store.tracked[1:] {
		added[tg.AppID] = tg
	}
	if tg, ok := added[20]; !ok || tg.IsFreeToPlay || tg.Source != "topsellers" {
		t.Fatalf("paid app tracking = %+v", added[20])
	}
	if tg, ok := added[30]; !ok || !tg.IsFreeToPlay {
		t.Fatalf("free app tracking = %+v", added[30])
	}

	// The classification lookup doubles as a metadata refresh.
	if store.games[20] == nil || store.games[30] == nil {
		t.Fatal("metadata from classification lookups not kept")
	}

	if len(store.seenInTop) != 3 {
		t.Fatalf("seenInTop = %v, want all three ids", store.seenInTop)
	}
	if store.syncStates[toplistScope] == nil {
		t.Fatal("toplist sync state not saved")
	}
}

func TestToplistFreeCacheSkipsSecondLookup(t *testing.T) {
	store := newFakeStore()
	transport := httpmock.NewMockTransport()
	calls := 0
	transport.RegisterResponder("GET", "http://store.test/api/appdetails",
		func(_ *http.Request) (*http.Response, error) {
			calls++
			return httpmock.NewStringResponse(200, freeDetails(50)), nil
		})

	svc, err := NewToplistSyncService(store, nil, mockSteam(transport), 16, zap.NewNop(), NewCollectorMetrics())
	if err != nil {
		t.Fatalf("NewToplistSyncService: %v", err)
	}

	for i := 0; i < 3; i++ {
		isFree, err := svc.isFreeToPlay(context.Background(), 50)
		if err != nil {
			t.Fatalf("isFreeToPlay: %v", err)
		}
		if !isFree {
			t.Fatal("isFreeToPlay = false, want true")
		}
	}
	if calls != 1 {
		t.Fatalf("appdetails calls = %d, want 1 (cache must absorb repeats)", calls)
	}
}
