package service

import "testing"

func TestBuildPage(t *testing.T) {
	tests := []struct {
		name       string
		page       int
		pageSize   int
		total      int64
		totalPages int
		hasNext    bool
		hasPrev    bool
	}{
		{"empty result still has one page", 1, 24, 0, 1, false, false},
		{"exact fit", 1, 24, 24, 1, false, false},
		{"one over rolls a page", 1, 24, 25, 2, true, false},
		{"middle page", 2, 10, 35, 4, true, true},
		{"last page", 4, 10, 35, 4, false, true},
		{"page clamp", 0, 0, 5, 5, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildPage(tt.page, tt.pageSize, tt.total)
			if got.TotalPages != tt.totalPages {
				t.Fatalf("TotalPages = %d, want %d", got.TotalPages, tt.totalPages)
			}
			if got.HasNext != tt.hasNext || got.HasPrev != tt.hasPrev {
				t.Fatalf("HasNext/HasPrev = %v/%v, want %v/%v", got.HasNext, got.HasPrev, tt.hasNext, tt.hasPrev)
			}
			if got.Total != tt.total {
				t.Fatalf("Total = %d, want %d", got.Total, tt.total)
			}
		})
	}
}
