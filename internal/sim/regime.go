package sim

import "math"

// Regime classifies recent price dynamics. The regime modulates the
// simulated drift and the market makers' quoted spread.
type Regime string

const (
	RegimeTrending       Regime = "trending"
	RegimeMeanReverting  Regime = "mean_reverting"
	RegimeHighVolatility Regime = "high_volatility"
	RegimeLowVolatility  Regime = "low_volatility"
	RegimeCrisis         Regime = "crisis"
)

// Microstructure bundles the liquidity-provisioning parameters: quoted
// spread, depth at the touch, geometric depth falloff per level, and
// the price/quantity grid.
type Microstructure struct {
	BaseSpreadBps float64
	DepthAtTouch  float64
	DepthFalloff  float64
	TickSize      float64
	LotSize       float64
}

// DefaultMicrostructure returns the standard parameter set.
func DefaultMicrostructure() Microstructure {
	return Microstructure{
		BaseSpreadBps: 5.0,
		DepthAtTouch:  10.0,
		DepthFalloff:  0.8,
		TickSize:      0.01,
		LotSize:       0.01,
	}
}

const regimeWindow = 20

// updateRegime reclassifies the market regime from the trailing window
// of realized prices and advances the volatility-cluster EMA. Needs at
// least regimeWindow observations; earlier ticks keep the prior regime.
func (d *Driver) updateRegime() {
	if len(d.history) < regimeWindow {
		return
	}
	recent := d.history[len(d.history)-regimeWindow:]

	var sum float64
	for i := 1; i < len(recent); i++ {
		sum += math.Abs(recent[i]/recent[i-1] - 1.0)
	}
	avgVol := sum / float64(len(recent)-1)

	trendStrength := (recent[len(recent)-1] - recent[0]) / recent[0]

	switch {
	case avgVol > 0.03:
		d.regime = RegimeHighVolatility
	case avgVol > 0.02:
		if math.Abs(trendStrength) > 0.02 {
			d.regime = RegimeTrending
		} else {
			d.regime = RegimeMeanReverting
		}
	default:
		d.regime = RegimeLowVolatility
	}

	d.volCluster = 0.9*d.volCluster + 0.1*avgVol*50.0
}

// threeWayScore resolves one symmetric three-outcome game between two
// draws in [0, 3): 0 on a tie, +1 when a beats b cyclically, -1
// otherwise.
func threeWayScore(a, b uint64) int {
	if a == b {
		return 0
	}
	if (a+3-b)%3 == 1 {
		return 1
	}
	return -1
}

// movePrice advances the regime-switching price process by one tick and
// returns the new price. Four independent three-outcome draws combine
// pairwise into a net score in [-2, 2]; the regime selects a drift
// multiplier; EMAs track volatility clustering and momentum; and the
// total move is clamped to ±10% of the prior price so bars stay
// well-formed under extreme draw combinations.
func (d *Driver) movePrice() float64 {
	current := d.price

	a1 := d.src.Draw(3)
	b1 := d.src.Draw(3)
	a2 := d.src.Draw(3)
	b2 := d.src.Draw(3)
	netScore := threeWayScore(a1, b1) + threeWayScore(a2, b2)

	var regimeMultiplier float64
	switch d.regime {
	case RegimeTrending:
		d.trend = 0.95*d.trend + 0.05*float64(netScore)
		regimeMultiplier = 1.0 + d.trend*0.5
	case RegimeMeanReverting:
		// Invert the score by the deviation from the trailing mean.
		if len(d.history) > regimeWindow {
			var sum float64
			for _, p := range d.history[len(d.history)-regimeWindow:] {
				sum += p
			}
			mean := sum / regimeWindow
			deviation := (current - mean) / mean
			netScore = int(float64(netScore) - deviation*10.0)
		}
		regimeMultiplier = 0.7
	case RegimeHighVolatility:
		regimeMultiplier = 2.5
	case RegimeLowVolatility:
		regimeMultiplier = 0.3
	case RegimeCrisis:
		regimeMultiplier = 5.0
	}

	d.momentum = 0.9*d.momentum + 0.1*float64(netScore)
	momentumDrift := d.momentum * 0.0001

	const baseVol = 0.0003
	priceChange := float64(netScore)*baseVol*current*regimeMultiplier*d.volCluster +
		momentumDrift*current
	noise := ((float64(d.src.Draw(100)) - 50.0) / 500.0) * current * 0.0001

	newPrice := current + priceChange + noise
	newPrice = math.Max(newPrice, current*0.9)
	newPrice = math.Min(newPrice, current*1.1)

	d.history = append(d.history, newPrice)
	if len(d.history) > 200 {
		d.history = d.history[1:]
	}
	d.price = newPrice
	d.updateRegime()

	return newPrice
}
