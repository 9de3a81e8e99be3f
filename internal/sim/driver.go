// Package sim contains the agent-based simulation: the heterogeneous
// trader population, the stochastic price processes, market-maker
// liquidity provisioning, and the per-tick driver that feeds the order
// book and folds trades into OHLCV bars.
package sim

import (
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/synthmarket/marketsim/internal/domain"
	"github.com/synthmarket/marketsim/internal/engine"
	"github.com/synthmarket/marketsim/internal/rng"
)

// Policy selects the price process and agent-sampling scheme.
type Policy string

const (
	// PolicyRegime drives the price with a regime-switching process and
	// samples the full population every tick.
	PolicyRegime Policy = "regime"
	// PolicyFairValue drives an independent fair value on a random walk
	// and samples a small subset of the population every tick.
	PolicyFairValue Policy = "fairvalue"
)

// Options configures a Driver. Zero-valued fields take defaults.
type Options struct {
	Symbol       string
	InitialPrice float64
	Seed         uint64
	Policy       Policy
	SelfMatch    engine.SelfMatchPolicy
	TicksPerBar  int // 0 → policy default (regime: 1, fairvalue: 3)
	Micro        Microstructure
	Logger       *slog.Logger
}

// Driver orchestrates one simulation session: each tick it advances the
// price process, posts market-maker liquidity, samples agent orders
// into the book, and collects the resulting trades. The driver owns its
// draw-source state; draws are consumed in a fixed order, so a session
// is a pure function of (seed, initial price, tick count, population).
//
// The driver is single-threaded with no internal locking: it borrows
// the book and population for the duration of a tick and nothing else
// mutates them. Hosts that run sessions concurrently wrap each driver
// in its own independently locked unit.
type Driver struct {
	symbol      string
	policy      Policy
	micro       Microstructure
	ticksPerBar int
	logger      *slog.Logger

	book *engine.OrderBook
	pop  *Population
	src  *rng.Chained

	orderID uint64
	now     uint64

	price     float64 // last realized price (process price / last trade)
	basePrice float64 // bar fallback price, nudged periodically (regime policy)
	fairValue float64 // fair-value walk (fairvalue policy)

	history    []float64
	regime     Regime
	trend      float64
	volCluster float64
	momentum   float64
}

// NewDriver builds a driver with a fresh population and an empty book.
func NewDriver(opts Options) *Driver {
	micro := opts.Micro
	if micro == (Microstructure{}) {
		micro = DefaultMicrostructure()
	}
	ticksPerBar := opts.TicksPerBar
	if ticksPerBar <= 0 {
		if opts.Policy == PolicyFairValue {
			ticksPerBar = 3
		} else {
			ticksPerBar = 1
		}
	}
	selfMatch := opts.SelfMatch
	if selfMatch == "" {
		selfMatch = engine.SelfMatchAllow
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Driver{
		symbol:      opts.Symbol,
		policy:      opts.Policy,
		micro:       micro,
		ticksPerBar: ticksPerBar,
		logger:      logger,
		book:        engine.NewOrderBookWithPolicy(opts.Symbol, selfMatch),
		pop:         NewPopulation(),
		src:         rng.NewChained(opts.Seed),
		price:       opts.InitialPrice,
		basePrice:   opts.InitialPrice,
		fairValue:   opts.InitialPrice,
		regime:      RegimeTrending,
		volCluster:  1.0,
	}
}

// Book returns the driver's order book for read-only queries.
func (d *Driver) Book() *engine.OrderBook {
	return d.book
}

// Population returns the trader roster.
func (d *Driver) Population() *Population {
	return d.pop
}

// Policy returns the driver's configured policy.
func (d *Driver) Policy() Policy {
	return d.policy
}

// CurrentTick returns the logical tick counter.
func (d *Driver) CurrentTick() uint64 {
	return d.now
}

// Regime returns the current market regime classification.
func (d *Driver) Regime() Regime {
	return d.regime
}

// MidPrice returns the book's mid price, falling back to the last
// realized price when the book cannot provide one.
func (d *Driver) MidPrice() float64 {
	if mid, ok := d.book.MidPrice(); ok {
		return mid
	}
	return d.price
}

// SpreadBps returns the quoted spread in basis points of the mid, or
// zero when either side of the book is empty.
func (d *Driver) SpreadBps() float64 {
	spread, ok := d.book.Spread()
	if !ok {
		return 0
	}
	return spread / d.MidPrice() * 10000.0
}

// nextOrderID allocates the next order id and advances the draw
// source's operation counter. The counter feeds every subsequent draw,
// so id allocation order is part of the reproducibility contract.
func (d *Driver) nextOrderID() uint64 {
	d.orderID++
	d.src.SetOp(d.orderID)
	return d.orderID
}

// Step runs one simulation tick and returns the trades produced by
// agent orders during the tick. Ladder fills still land in the book's
// ledger but are not part of the tick's agent flow.
func (d *Driver) Step() []*domain.Trade {
	d.now++
	d.src.SetTick(d.now)

	switch d.policy {
	case PolicyFairValue:
		d.updateFairValue()
		d.replenishDepth(d.micro.BaseSpreadBps)
		return d.sampleSubset()
	default:
		target := d.movePrice()
		d.postLadder(target)
		return d.sampleFullPopulation()
	}
}

// Run simulates a full session of numBars bars, each folding
// ticksPerBar ticks of trades, and returns the bar sequence. Windows
// with no trades produce a zero-volume bar at the last known price.
func (d *Driver) Run(numBars int) []*domain.MarketBar {
	bars := make([]*domain.MarketBar, 0, numBars)

	if d.policy == PolicyFairValue {
		d.seedDepth(10, d.micro.BaseSpreadBps, 3.0)
	}

	d.logger.Info("session start",
		slog.String("symbol", d.symbol),
		slog.String("policy", string(d.policy)),
		slog.Int("traders", len(d.pop.Traders)),
		slog.Int("bars", numBars),
		slog.Float64("initial_price", d.price),
	)

	for barIdx := 0; barIdx < numBars; barIdx++ {
		barStart := d.now
		var window []*domain.Trade
		for i := 0; i < d.ticksPerBar; i++ {
			window = append(window, d.Step()...)
		}

		if bar, ok := domain.BarFromTrades(barStart, d.symbol, window); ok {
			bars = append(bars, bar)
			if d.policy == PolicyRegime {
				d.basePrice = bar.Close
			}
		} else {
			fallback := d.basePrice
			if d.policy == PolicyFairValue {
				fallback = d.MidPrice()
			}
			bars = append(bars, domain.ZeroVolumeBar(barStart, d.symbol, fallback))
		}

		// Periodic drift nudge on the base price.
		if d.policy == PolicyRegime && barIdx%10 == 0 {
			direction := -1.0
			if d.src.Draw(2) == 0 {
				direction = 1.0
			}
			d.basePrice *= 1.0 + direction*0.005
		}

		if (barIdx+1)%100 == 0 {
			d.logger.Info("session progress",
				slog.Int("bar", barIdx+1),
				slog.Int("bars", numBars),
				slog.Float64("price", d.MidPrice()),
				slog.Float64("spread_bps", d.SpreadBps()),
			)
		}
	}

	return bars
}

// postLadder posts the market-maker quoting ladder around the reference
// price: ten levels per side, size decaying geometrically, spread
// widened under high-volatility and crisis regimes and tightened under
// low volatility.
func (d *Driver) postLadder(center float64) {
	multiplier := 1.0
	switch d.regime {
	case RegimeHighVolatility, RegimeCrisis:
		multiplier = 2.0
	case RegimeLowVolatility:
		multiplier = 0.5
	}
	spreadBps := d.micro.BaseSpreadBps * multiplier

	halfSpread := center * (spreadBps / 10000.0) / 2.0
	tick := d.micro.TickSize
	depth := d.micro.DepthAtTouch

	const numLevels = 10
	for i := 0; i < numLevels; i++ {
		ticksAway := float64(i + 1)
		buyPrice := center - halfSpread - ticksAway*tick*5.0
		sellPrice := center + halfSpread + ticksAway*tick*5.0

		// Snap to the tick grid, away from the mid.
		buyPrice = math.Floor(buyPrice/tick) * tick
		sellPrice = math.Ceil(sellPrice/tick) * tick

		depthNoise := 1.0 + (float64(d.src.Draw(40))-20.0)/100.0
		quantity := depth * depthNoise

		buy := domain.NewOrder(d.nextOrderID(), d.now,
			fmt.Sprintf("mm_%d", d.src.Draw(100)), d.symbol, domain.SideBuy, buyPrice, quantity)
		sell := domain.NewOrder(d.nextOrderID(), d.now,
			fmt.Sprintf("mm_%d", d.src.Draw(100)), d.symbol, domain.SideSell, sellPrice, quantity)

		d.book.AddOrder(buy)
		d.book.AddOrder(sell)

		depth *= d.micro.DepthFalloff
	}
}

// sampleFullPopulation runs every trader's decision functions against
// the current price and submits the resulting orders. The three draws
// per trader are consumed unconditionally so the draw sequence does not
// depend on which traders happen to be active.
func (d *Driver) sampleFullPopulation() []*domain.Trade {
	var all []*domain.Trade

	priceChange := 0.0
	if n := len(d.history); n >= 2 {
		priceChange = (d.history[n-1] - d.history[n-2]) / d.history[n-2]
	}

	for _, t := range d.pop.Traders {
		u1 := d.src.Float64()
		u2 := d.src.Float64()
		u3 := d.src.Float64()

		if !t.IsActive(u1) {
			continue
		}

		side := t.DetermineSide(d.price, priceChange, u2)
		quantity := t.TradeSize(u3, d.price)
		if quantity < 0.0001 {
			continue
		}

		var orderPrice float64
		if t.IsAggressive(u1) {
			// Price through the spread.
			if side == domain.SideBuy {
				orderPrice = d.price * 1.001
			} else {
				orderPrice = d.price * 0.999
			}
		} else {
			// Rest inside the spread.
			halfSpread := d.price * (d.micro.BaseSpreadBps / 20000.0)
			if side == domain.SideBuy {
				orderPrice = d.price - halfSpread - u2*halfSpread*0.5
			} else {
				orderPrice = d.price + halfSpread + u2*halfSpread*0.5
			}
		}

		order := domain.NewOrder(d.nextOrderID(), d.now, t.ID, d.symbol, side, orderPrice, quantity)
		fills := d.book.AddOrder(order)
		d.applyOwnFills(t, fills)
		all = append(all, fills...)
	}

	return all
}

// applyOwnFills updates the submitting trader's position and pnl from
// the fills its own incoming order produced. Resting counterparties are
// not back-patched.
func (d *Driver) applyOwnFills(t *Trader, fills []*domain.Trade) {
	for _, f := range fills {
		if f.Buyer == t.ID {
			t.ApplyFill(domain.SideBuy, f.Quantity, f.Price)
		} else if f.Seller == t.ID {
			t.ApplyFill(domain.SideSell, f.Quantity, f.Price)
		}
	}
}

// updateFairValue advances the fair value on a multiplicative random
// walk with fixed per-step volatility.
func (d *Driver) updateFairValue() {
	const volatility = 0.001
	drift := (d.src.Float64() - 0.5) * volatility
	d.fairValue *= 1.0 + drift
}

// seedDepth builds the initial book depth around the fair value: levels
// spread progressively wider with geometrically decaying size.
func (d *Driver) seedDepth(levels int, spreadBps, quantityPerLevel float64) {
	spread := d.fairValue * spreadBps / 10000.0
	mid := d.fairValue

	for i := 0; i < levels; i++ {
		offset := spread * (1.0 + float64(i)*0.5)
		quantity := quantityPerLevel * math.Pow(0.8, float64(i))

		bid := domain.NewOrder(d.nextOrderID(), d.now, "MarketMaker",
			d.symbol, domain.SideBuy, mid-offset, quantity)
		d.book.AddOrder(bid)

		ask := domain.NewOrder(d.nextOrderID(), d.now, "MarketMaker",
			d.symbol, domain.SideSell, mid+offset, quantity)
		d.book.AddOrder(ask)
	}
}

// replenishDepth tops up market-maker liquidity when the spread has
// widened past twice the base or the touch has gone thin, and rebuilds
// the book from scratch if a side has emptied entirely.
func (d *Driver) replenishDepth(spreadBps float64) {
	mid := d.MidPrice()
	spread := mid * spreadBps / 10000.0

	bidPrice, bidQty, bidOK := d.book.BestBid()
	askPrice, askQty, askOK := d.book.BestAsk()

	if bidOK && askOK {
		currentSpreadBps := (askPrice - bidPrice) / mid * 10000.0
		if currentSpreadBps > spreadBps*2.0 || bidQty < 0.5 || askQty < 0.5 {
			bid := domain.NewOrder(d.nextOrderID(), d.now, "MarketMaker",
				d.symbol, domain.SideBuy, mid-spread, 1.0+d.src.Float64()*2.0)
			d.book.AddOrder(bid)

			ask := domain.NewOrder(d.nextOrderID(), d.now, "MarketMaker",
				d.symbol, domain.SideSell, mid+spread, 1.0+d.src.Float64()*2.0)
			d.book.AddOrder(ask)
		}
	} else {
		d.seedDepth(5, spreadBps, 2.0)
	}
}

// sampleSubset samples roughly 2% of the population, generates an order
// per sampled trader from its archetype's fair-value-deviation rules,
// and submits it to the book.
func (d *Driver) sampleSubset() []*domain.Trade {
	var all []*domain.Trade

	numActive := int(float64(len(d.pop.Traders)) * 0.02)
	if numActive < 1 {
		numActive = 1
	}

	for i := 0; i < numActive; i++ {
		idx := int(d.src.Float64() * float64(len(d.pop.Traders)))
		if idx >= len(d.pop.Traders) {
			idx = len(d.pop.Traders) - 1
		}
		t := d.pop.Traders[idx]

		order, ok := d.orderForArchetype(t)
		if !ok {
			continue
		}

		fills := d.book.AddOrder(order)
		if len(fills) > 0 {
			d.price = fills[len(fills)-1].Price
		}
		d.applyOwnFills(t, fills)
		all = append(all, fills...)
	}

	return all
}

// orderForArchetype generates one order from the archetype's
// fair-value-deviation rules. Market makers are quoted by the
// replenishment ladder instead, and arbitrageurs stand down when the
// mid is within 10 bps of fair value.
func (d *Driver) orderForArchetype(t *Trader) (*domain.Order, bool) {
	mid := d.MidPrice()

	var side domain.Side
	var price, quantity float64

	switch t.Archetype {
	case Retail:
		// Small orders on a wide band around the mid.
		if d.src.Float64() > 0.5 {
			side = domain.SideBuy
		} else {
			side = domain.SideSell
		}
		offset := (d.src.Float64() - 0.5) * 0.01
		price = mid * (1.0 + offset)
		quantity = 0.1 + d.src.Float64()*0.3

	case Institutional:
		// Large passive orders near the mid, leaning toward fair value.
		if d.fairValue > mid {
			side = domain.SideBuy
		} else {
			side = domain.SideSell
		}
		offset := (d.src.Float64() - 0.5) * 0.002
		price = mid * (1.0 + offset)
		quantity = 2.0 + d.src.Float64()*5.0

	case HFT:
		// Tiny offsets, small size.
		if d.src.Float64() > 0.5 {
			side = domain.SideBuy
		} else {
			side = domain.SideSell
		}
		offset := (d.src.Float64() - 0.5) * 0.0005
		price = mid * (1.0 + offset)
		quantity = 0.05 + d.src.Float64()*0.1

	case MarketMaker:
		return nil, false

	case Whale:
		if d.fairValue > mid {
			side = domain.SideBuy
		} else {
			side = domain.SideSell
		}
		offset := (d.src.Float64() - 0.5) * 0.005
		price = mid * (1.0 + offset)
		quantity = 10.0 + d.src.Float64()*20.0

	case Momentum:
		recentTrend := d.price - d.fairValue
		if recentTrend > 0 {
			side = domain.SideBuy
			price = mid * 1.003
		} else {
			side = domain.SideSell
			price = mid * 0.997
		}
		quantity = 0.5 + d.src.Float64()*1.5

	case Arbitrageur:
		deviation := (mid - d.fairValue) / d.fairValue
		if math.Abs(deviation) < 0.001 {
			return nil, false
		}
		if deviation > 0 {
			side = domain.SideSell
			price = d.fairValue * 0.9995
		} else {
			side = domain.SideBuy
			price = d.fairValue * 1.0005
		}
		quantity = 1.0 + d.src.Float64()*3.0
	}

	return domain.NewOrder(d.nextOrderID(), d.now, t.ID, d.symbol, side, price, quantity), true
}
