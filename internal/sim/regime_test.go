package sim

import (
	"math"
	"testing"
)

func TestThreeWayScore(t *testing.T) {
	tests := []struct {
		a, b uint64
		want int
	}{
		{0, 0, 0},
		{1, 1, 0},
		{2, 2, 0},
		{1, 0, 1},
		{2, 1, 1},
		{0, 2, 1}, // cyclic wrap
		{0, 1, -1},
		{1, 2, -1},
		{2, 0, -1},
	}
	for _, tt := range tests {
		if got := threeWayScore(tt.a, tt.b); got != tt.want {
			t.Errorf("threeWayScore(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestUpdateRegime_Classification(t *testing.T) {
	flat := make([]float64, regimeWindow)
	for i := range flat {
		flat[i] = 100.0
	}

	choppy := make([]float64, regimeWindow)
	for i := range choppy {
		// Alternating ±4% swings: high average volatility, no net trend.
		if i%2 == 0 {
			choppy[i] = 100.0
		} else {
			choppy[i] = 104.0
		}
	}

	trending := make([]float64, regimeWindow)
	for i := range trending {
		// Steady 2.5% steps: moderate volatility with a strong trend.
		trending[i] = 100.0 * math.Pow(1.025, float64(i))
	}

	tests := []struct {
		name    string
		history []float64
		want    Regime
	}{
		{"flat prices", flat, RegimeLowVolatility},
		{"choppy prices", choppy, RegimeHighVolatility},
		{"steady climb", trending, RegimeTrending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDriver(testOptions(PolicyRegime, 1))
			d.history = tt.history
			d.updateRegime()
			if d.Regime() != tt.want {
				t.Errorf("want %s, got %s", tt.want, d.Regime())
			}
		})
	}
}

func TestUpdateRegime_NeedsFullWindow(t *testing.T) {
	d := NewDriver(testOptions(PolicyRegime, 1))
	d.history = []float64{100, 101, 99}

	d.updateRegime()
	if d.Regime() != RegimeTrending {
		t.Errorf("short history should keep the prior regime, got %s", d.Regime())
	}
}
