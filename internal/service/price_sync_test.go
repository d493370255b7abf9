package service

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"go.uber.org/zap"

	"steamtracker/internal/client/steam"
	"steamtracker/internal/config"
	"steamtracker/internal/models"
)

func mockSteam(transport *httpmock.MockTransport) *steam.Client {
	c := steam.New(config.SteamConfig{
		StoreBaseURL: "http://store.test/api",
		CountryCode:  "us",
		Timeout:      5 * time.Second,
		RetryBackoff: time.Millisecond,
	}, zap.NewNop())
	c.WithTransport(transport)
	return c
}

func pricedDetails(appID int64, finalCents int64) string {
	return fmt.Sprintf(`{"%d": {"success": true, "data": {
		"type": "game", "name": "App %d", "steam_appid": %d,
		"price_overview": {"currency": "USD", "initial": 2000, "final": %d, "discount_percent": 0}
	}}}`, appID, appID, appID, finalCents)
}

func registerDetails(transport *httpmock.MockTransport, bodies map[int64]string) {
	transport.RegisterResponder("GET", "http://store.test/api/appdetails",
		func(req *http.Request) (*http.Response, error) {
			appID, _ := strconv.ParseInt(req.URL.Query().Get("appids"), 10, 64)
			body, ok := bodies[appID]
			if !ok {
				return httpmock.NewStringResponse(500, ""), nil
			}
			return httpmock.NewStringResponse(200, body), nil
		})
}

func syncService(store *fakeStore, client *steam.Client) *PriceSyncService {
	return &PriceSyncService{
		Store:         store,
		Steam:         client,
		Logger:        zap.NewNop(),
		Metrics:       NewCollectorMetrics(),
		BatchSize:     50,
		Resume:        true,
		MaxConsecFail: 3,
	}
}

func TestPriceSyncRun(t *testing.T) {
	store := newFakeStore()
	store.tracked = []models.TrackedGame{
		{AppID: 10, Status: models.TrackedStatusActive},
		{AppID: 20, Status: models.TrackedStatusActive, IsFreeToPlay: true},
		{AppID: 30, Status: models.TrackedStatusActive},
		{AppID: 40, Status: models.TrackedStatusInactive},
	}
	transport := httpmock.NewMockTransport()
	registerDetails(transport, map[int64]string{
		10: pricedDetails(10, 999),
		30: `{"30": {"success": false}}`,
	})

	result, err := syncService(store, mockSteam(transport)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// 40 is inactive and never scanned; 20 is free and skipped without a
	// fetch; 30 is delisted and deactivated.
	if result.Scanned != 3 || result.Priced != 1 || result.Updated != 1 {
		t.Fatalf("result = %+v", result)
	}
	if len(store.observations) != 1 || store.observations[0].AppID != 10 || store.observations[0].FinalPrice != 999 {
		t.Fatalf("observations = %+v", store.observations)
	}
	if store.games[10] == nil || store.games[10].Name != "App 10" {
		t.Fatalf("game metadata not upserted: %+v", store.games[10])
	}
	if store.statuses[30] != models.TrackedStatusInactive {
		t.Fatalf("delisted game status = %q, want inactive", store.statuses[30])
	}

	state := store.syncStates[priceSyncScope]
	if state == nil || state.Cursor == nil {
		t.Fatal("sync state not saved")
	}
	// The whole roster fit in one batch, so the cursor wraps to the top.
	if *state.Cursor != "0" {
		t.Fatalf("cursor = %q, want 0", *state.Cursor)
	}
	if !result.Done {
		t.Fatal("result.Done = false, want true")
	}
}

func TestPriceSyncRun_ResumesFromCursor(t *testing.T) {
	store := newFakeStore()
	store.tracked = []models.TrackedGame{
		{AppID: 10, Status: models.TrackedStatusActive},
		{AppID: 20, Status: models.TrackedStatusActive},
		{AppID: 30, Status: models.TrackedStatusActive},
	}
	cursor := "10"
	store.syncStates[priceSyncScope] = &models.SyncState{Scope: priceSyncScope, Cursor: &cursor}

	transport := httpmock.NewMockTransport()
	registerDetails(transport, map[int64]string{
		20: pricedDetails(20, 500),
		30: pricedDetails(30, 700),
	})

	result, err := syncService(store, mockSteam(transport)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Scanned != 2 {
		t.Fatalf("scanned = %d, want 2 (cursor should skip app 10)", result.Scanned)
	}
	for _, obs := range store.observations {
		if obs.AppID == 10 {
			t.Fatal("app 10 observed despite cursor")
		}
	}
}

func TestPriceSyncRun_BatchLimitLeavesCursorMidList(t *testing.T) {
	store := newFakeStore()
	for appID := int64(1); appID <= 5; appID++ {
		store.tracked = append(store.tracked, models.TrackedGame{
			AppID:  appID,
			Status: models.TrackedStatusActive,
		})
	}
	bodies := map[int64]string{}
	for appID := int64(1); appID <= 5; appID++ {
		bodies[appID] = pricedDetails(appID, 100*appID)
	}
	transport := httpmock.NewMockTransport()
	registerDetails(transport, bodies)

	svc := syncService(store, mockSteam(transport))
	svc.BatchSize = 3

	result, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Scanned != 3 || result.Done {
		t.Fatalf("result = %+v, want 3 scanned and not done", result)
	}
	state := store.syncStates[priceSyncScope]
	if state == nil || state.Cursor == nil || *state.Cursor != "3" {
		t.Fatalf("cursor = %v, want 3", state)
	}
}

func TestPriceSyncRun_AbortsAfterConsecutiveFailures(t *testing.T) {
	store := newFakeStore()
	for appID := int64(1); appID <= 6; appID++ {
		store.tracked = append(store.tracked, models.TrackedGame{
			AppID:  appID,
			Status: models.TrackedStatusActive,
		})
	}
	// Every fetch 500s; the client retries are disabled so each game
	// fails once.
	transport := httpmock.NewMockTransport()
	registerDetails(transport, map[int64]string{})

	result, err := syncService(store, mockSteam(transport)).Run(context.Background())
	if err == nil {
		t.Fatal("expected abort error")
	}
	if result.Failed != 3 {
		t.Fatalf("failed = %d, want 3 (MaxConsecFail)", result.Failed)
	}
	state := store.syncStates[priceSyncScope]
	if state == nil || state.LastError == nil {
		t.Fatal("abort must record a sync error")
	}
}
