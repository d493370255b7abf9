package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestGrade_ZeroCurrentIsTopGrade(t *testing.T) {
	for _, low := range []string{"0", "4.99", "120"} {
		if got := Grade(decimal.Zero, d(low)); got != "A+" {
			t.Fatalf("Grade(0, %s) = %q, want A+", low, got)
		}
	}
}

func TestGrade_AtOrBelowLow(t *testing.T) {
	if got := Grade(d("9.99"), d("9.99")); got != "A+" {
		t.Fatalf("Grade(low, low) = %q, want A+", got)
	}
	if got := Grade(d("8.00"), d("9.99")); got != "A+" {
		t.Fatalf("Grade(below low) = %q, want A+", got)
	}
}

func TestGrade_RatioBands(t *testing.T) {
	tests := []struct {
		current string
		low     string
		want    string
	}{
		{"11.00", "10.00", "A"},  // ratio exactly 1.10, boundary inclusive
		{"11.01", "10.00", "B+"}, // just past the A band
		{"12.00", "10.00", "B+"},
		{"12.50", "10.00", "B"},
		{"13.00", "10.00", "B"},
		{"14.00", "10.00", "C+"},
		{"15.00", "10.00", "C+"},
		{"17.00", "10.00", "C"},
		{"18.00", "10.00", "C"},
		{"20.00", "10.00", "D"},
		{"20.01", "10.00", "F"},
		{"55.00", "10.00", "F"},
	}
	for _, tt := range tests {
		if got := Grade(d(tt.current), d(tt.low)); got != tt.want {
			t.Fatalf("Grade(%s, %s) = %q, want %q", tt.current, tt.low, got, tt.want)
		}
	}
}

func TestGrade_ZeroLowWithPricedGame(t *testing.T) {
	// low <= 0 pins the ratio to 1, which lands in the A band.
	if got := Grade(d("10.00"), decimal.Zero); got != "A" {
		t.Fatalf("Grade(10, 0) = %q, want A", got)
	}
}

func TestGrade_MonotonicInRatio(t *testing.T) {
	order := map[string]int{"A+": 0, "A": 1, "B+": 2, "B": 3, "C+": 4, "C": 5, "D": 6, "F": 7}
	low := d("10.00")
	prev := 0
	for cents := int64(1001); cents <= 2500; cents += 7 {
		got := Grade(Cents(cents), low)
		rank, ok := order[got]
		if !ok {
			t.Fatalf("unknown grade %q", got)
		}
		if rank < prev {
			t.Fatalf("grade improved as price rose: %q at %d cents", got, cents)
		}
		prev = rank
	}
}
