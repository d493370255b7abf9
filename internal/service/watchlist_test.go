package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"steamtracker/internal/models"
	"steamtracker/internal/repository"
)

func TestWatchlistAddRemove(t *testing.T) {
	store := newFakeStore()
	store.games[10] = &models.Game{AppID: 10, Name: "Alpha"}
	svc := &WatchlistService{Store: store, Logger: zap.NewNop()}
	ctx := context.Background()

	if err := svc.Add(ctx, 1, 10); err != nil {
		t.Fatalf("Add: %v", err)
	}
	// Re-add is a no-op, not an error.
	if err := svc.Add(ctx, 1, 10); err != nil {
		t.Fatalf("Add again: %v", err)
	}
	ids, err := svc.AppIDs(ctx, 1)
	if err != nil {
		t.Fatalf("AppIDs: %v", err)
	}
	if len(ids) != 1 || ids[0] != 10 {
		t.Fatalf("ids = %v, want [10]", ids)
	}

	removed, err := svc.Remove(ctx, 1, 10)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if !removed {
		t.Fatal("Remove reported nothing removed")
	}
	removed, err = svc.Remove(ctx, 1, 10)
	if err != nil {
		t.Fatalf("Remove again: %v", err)
	}
	if removed {
		t.Fatal("second Remove should report nothing removed")
	}
}

func TestWatchlistAdd_UnknownGame(t *testing.T) {
	svc := &WatchlistService{Store: newFakeStore(), Logger: zap.NewNop()}
	if err := svc.Add(context.Background(), 1, 404); !errors.Is(err, ErrUnknownGame) {
		t.Fatalf("Add unknown = %v, want ErrUnknownGame", err)
	}
}

func TestWatchlistList_DegradesToEmptyOnError(t *testing.T) {
	store := newFakeStore()
	store.watchErr = errors.New("db down")
	svc := &WatchlistService{Store: store, Logger: zap.NewNop()}

	items := svc.List(context.Background(), 1)
	if items == nil {
		t.Fatal("List must return an empty slice, not nil")
	}
	if len(items) != 0 {
		t.Fatalf("items = %d, want 0", len(items))
	}
}

func TestWatchlistList_AssemblesRows(t *testing.T) {
	store := newFakeStore()
	store.watchRows = []repository.GamePriceRow{{
		Game:                  models.Game{AppID: 10, Name: "Alpha"},
		LatestInitialPrice:    i64(1000),
		LatestFinalPrice:      i64(500),
		LatestDiscountPercent: iPtr(50),
		LowFinalPrice:         i64(500),
	}}
	svc := &WatchlistService{Store: store, Logger: zap.NewNop()}

	items := svc.List(context.Background(), 1)
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	if items[0].CurrentPrice != 5.00 || items[0].PriceGrade != "A+" {
		t.Fatalf("record = %+v", items[0])
	}
}
