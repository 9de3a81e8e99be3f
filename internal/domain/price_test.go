package domain

import "testing"

func TestPriceKey_Scaling(t *testing.T) {
	tests := []struct {
		price float64
		want  int64
	}{
		{50000.0, 500000000},
		{1.25, 12500},
		{0.5, 5000},
		{0, 0},
	}
	for _, tt := range tests {
		if got := PriceKey(tt.price); got != tt.want {
			t.Errorf("PriceKey(%v) = %d, want %d", tt.price, got, tt.want)
		}
	}
}

func TestPriceKey_CoalescesBeyondTickScale(t *testing.T) {
	// Sub-tick precision is truncated: prices that differ only beyond
	// the tick scale share a book key. Documented boundary condition.
	if PriceKey(1.23456) != PriceKey(1.23459) {
		t.Error("expected sub-tick prices to share a key")
	}
}

func TestPriceKey_PreservesOrderAtTickScale(t *testing.T) {
	if PriceKey(1.2345) >= PriceKey(1.2346) {
		t.Error("expected tick-scale prices to preserve order")
	}
}
