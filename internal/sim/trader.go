package sim

import "github.com/synthmarket/marketsim/internal/domain"

// Archetype identifies a trader behavior pattern. The set is closed:
// every trader in the population carries exactly one of these.
type Archetype string

const (
	Retail        Archetype = "retail"         // small, infrequent, noise-driven
	Institutional Archetype = "institutional"  // large, patient, informed contrarian
	HFT           Archetype = "hft"            // very frequent, small, inventory mean-reverting
	MarketMaker   Archetype = "market_maker"   // continuous two-sided quoting
	Whale         Archetype = "whale"          // rare but very large, contrarian
	Momentum      Archetype = "momentum"       // follows recent price direction
	Arbitrageur   Archetype = "arbitrageur"    // quick in/out on mispricings
)

// Params are the behavioral constants of an archetype, scaled by the
// trader's capital at construction and fixed thereafter.
type Params struct {
	ActivityLevel float64 // probability of acting in a given tick
	AvgTradeSize  float64 // dollars
	SizeVariance  float64
	WinRate       float64 // how often the trader is "right"
	Patience      float64 // willingness to wait for fills
	Aggression    float64 // willingness to cross the spread
	RiskTolerance float64
}

// paramsFor returns the archetype's parameter table entry, with the
// dollar trade size scaled by capital.
func paramsFor(a Archetype, capital float64) Params {
	switch a {
	case Retail:
		return Params{0.05, capital * 0.02, 0.5, 0.45, 0.3, 0.7, 0.5}
	case Institutional:
		return Params{0.2, capital * 0.1, 0.3, 0.55, 0.8, 0.3, 0.3}
	case HFT:
		return Params{0.95, capital * 0.01, 0.2, 0.52, 0.1, 0.5, 0.2}
	case MarketMaker:
		return Params{0.99, capital * 0.05, 0.3, 0.51, 0.9, 0.1, 0.4}
	case Whale:
		return Params{0.01, capital * 0.3, 0.6, 0.60, 0.9, 0.2, 0.6}
	case Momentum:
		return Params{0.4, capital * 0.05, 0.4, 0.48, 0.5, 0.6, 0.7}
	case Arbitrageur:
		return Params{0.8, capital * 0.03, 0.2, 0.53, 0.2, 0.8, 0.3}
	}
	return Params{}
}

// Trader is a pure-function decision bundle parameterized by its
// archetype. It carries no per-tick memory beyond its running position,
// realized pnl, and trade count, and is owned exclusively by its
// Population: the state mutates only through the trader's own fills.
type Trader struct {
	ID        string
	Archetype Archetype
	Capital   float64
	Params

	Position   float64 // signed, + long
	PnL        float64 // realized cash flow
	TradeCount int
}

// NewTrader creates a trader with archetype parameters scaled by capital.
func NewTrader(id string, a Archetype, capital float64) *Trader {
	return &Trader{
		ID:        id,
		Archetype: a,
		Capital:   capital,
		Params:    paramsFor(a, capital),
	}
}

// IsActive gates the trader's participation this tick given a uniform
// draw u.
func (t *Trader) IsActive(u float64) bool {
	return u < t.ActivityLevel
}

// DetermineSide picks buy or sell from the archetype's branch table,
// given the current price, the most recent relative price change, and a
// uniform draw.
func (t *Trader) DetermineSide(price, priceChange, u float64) domain.Side {
	switch t.Archetype {
	case Retail:
		// Noise, slightly biased toward the recent move.
		if u < 0.5+priceChange*5.0 {
			return domain.SideBuy
		}
		return domain.SideSell

	case Institutional:
		// Contrarian when "right": fade moves beyond ±1%.
		if u < t.WinRate {
			if priceChange > 0.01 {
				return domain.SideSell
			}
			if priceChange < -0.01 {
				return domain.SideBuy
			}
			if u < 0.5 {
				return domain.SideBuy
			}
			return domain.SideSell
		}
		if u < 0.5 {
			return domain.SideBuy
		}
		return domain.SideSell

	case HFT, Arbitrageur:
		// Mean-revert own inventory first.
		if t.Position > 0 {
			return domain.SideSell
		}
		if t.Position < 0 {
			return domain.SideBuy
		}
		if u < 0.5 {
			return domain.SideBuy
		}
		return domain.SideSell

	case Whale:
		// Sell into strength, buy the dip, at ±2% thresholds.
		if priceChange > 0.02 {
			return domain.SideSell
		}
		if priceChange < -0.02 {
			return domain.SideBuy
		}
		if u < 0.5 {
			return domain.SideBuy
		}
		return domain.SideSell

	case Momentum:
		if priceChange > 0.005 {
			return domain.SideBuy
		}
		if priceChange < -0.005 {
			return domain.SideSell
		}
		if u < 0.5 {
			return domain.SideBuy
		}
		return domain.SideSell
	}

	// MarketMaker: its liquidity role is handled by the driver's
	// quoting ladder; directional flow is a coin flip.
	if u < 0.5 {
		return domain.SideBuy
	}
	return domain.SideSell
}

// TradeSize converts the archetype's dollar trade size into units at
// the given price, perturbed by the size variance. The size is halved
// when the trader's absolute position exceeds half the capital-implied
// maximum.
func (t *Trader) TradeSize(u, price float64) float64 {
	varianceFactor := 1.0 + (u-0.5)*t.SizeVariance
	size := t.AvgTradeSize * varianceFactor / price

	positionPct := abs(t.Position) / (t.Capital / price)
	if positionPct > 0.5 {
		return size * 0.5
	}
	return size
}

// IsAggressive reports whether the order should price through the
// spread rather than inside it.
func (t *Trader) IsAggressive(u float64) bool {
	return u < t.Aggression
}

// ApplyFill updates position, realized pnl, and trade count from one of
// the trader's own fills.
func (t *Trader) ApplyFill(side domain.Side, quantity, price float64) {
	t.TradeCount++
	if side == domain.SideBuy {
		t.Position += quantity
		t.PnL -= quantity * price
	} else {
		t.Position -= quantity
		t.PnL += quantity * price
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
