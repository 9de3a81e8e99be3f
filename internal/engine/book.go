package engine

import (
	"math"

	"github.com/google/btree"

	"github.com/synthmarket/marketsim/internal/domain"
)

// SelfMatchPolicy controls what happens when an incoming order would
// trade against a resting order from the same trader.
type SelfMatchPolicy string

const (
	// SelfMatchAllow lets an order trade against the same trader's
	// resting orders.
	SelfMatchAllow SelfMatchPolicy = "allow"
	// SelfMatchReject cancels the resting self-owned order without a
	// trade and continues matching. Cancelling (rather than skipping or
	// stopping) is the only variant that preserves both FIFO for third
	// parties and the no-crossed-book invariant.
	SelfMatchReject SelfMatchPolicy = "reject"
)

// PriceLevel is a FIFO queue of resting orders at one price, with the
// aggregate remaining quantity. TotalQuantity always equals the sum of
// Remaining() over the contained orders; fully filled orders are purged
// immediately after each match.
type PriceLevel struct {
	Key           int64
	Price         float64
	TotalQuantity float64
	orders        []*domain.Order
}

func (l *PriceLevel) add(o *domain.Order) {
	l.TotalQuantity += o.Remaining()
	l.orders = append(l.orders, o)
}

// purgeFilled drops fully filled orders and recomputes the aggregate.
func (l *PriceLevel) purgeFilled() {
	kept := l.orders[:0]
	var total float64
	for _, o := range l.orders {
		if !o.IsFilled() {
			kept = append(kept, o)
			total += o.Remaining()
		}
	}
	l.orders = kept
	l.TotalQuantity = total
}

// Orders returns the resting orders in queue priority order.
func (l *PriceLevel) Orders() []*domain.Order {
	out := make([]*domain.Order, len(l.orders))
	copy(out, l.orders)
	return out
}

// bidLevelLess orders the bid side by descending key so Min() returns
// the best (highest-price) bid level.
func bidLevelLess(a, b *PriceLevel) bool {
	return a.Key > b.Key
}

// askLevelLess orders the ask side by ascending key so Min() returns
// the best (lowest-price) ask level.
func askLevelLess(a, b *PriceLevel) bool {
	return a.Key < b.Key
}

// DepthLevel is one (price, aggregate quantity) pair in a depth snapshot.
type DepthLevel struct {
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
}

// OrderBook holds the bid and ask sides for a single symbol as ordered
// collections of price levels keyed by fixed-point price, plus the
// append-only trade ledger. The book exclusively owns its levels and
// the resting orders they contain: an order is moved into the book and
// never aliased elsewhere.
type OrderBook struct {
	symbol    string
	bids      *btree.BTreeG[*PriceLevel]
	asks      *btree.BTreeG[*PriceLevel]
	lastPrice float64
	hasTraded bool
	trades    []*domain.Trade
	selfMatch SelfMatchPolicy
}

// NewOrderBook creates a book with the default allow self-match policy.
func NewOrderBook(symbol string) *OrderBook {
	return NewOrderBookWithPolicy(symbol, SelfMatchAllow)
}

// NewOrderBookWithPolicy creates a book with an explicit self-match policy.
func NewOrderBookWithPolicy(symbol string, policy SelfMatchPolicy) *OrderBook {
	const degree = 32
	return &OrderBook{
		symbol:    symbol,
		bids:      btree.NewG(degree, bidLevelLess),
		asks:      btree.NewG(degree, askLevelLess),
		selfMatch: policy,
	}
}

// Symbol returns the book's symbol.
func (b *OrderBook) Symbol() string {
	return b.symbol
}

// AddOrder runs the incoming order through the matching algorithm and
// returns the trades it produced, in execution order. Matching is
// strict price-time priority: the best opposite level's head order
// fills first, trades execute at the resting order's price, and any
// unfilled remainder rests on the order's own side at its limit price.
// All possible matches are resolved before the remainder rests, so the
// book is never crossed.
//
// AddOrder is a total function over well-formed input: the caller must
// reject non-positive price or quantity before submission.
func (b *OrderBook) AddOrder(o *domain.Order) []*domain.Trade {
	var fills []*domain.Trade

	limitKey := domain.PriceKey(o.Price)
	opposite := b.asks
	own := b.bids
	if o.Side == domain.SideSell {
		opposite = b.bids
		own = b.asks
	}

	for o.Remaining() > 0 {
		level, ok := opposite.Min()
		if !ok {
			break
		}

		// Marketable check on fixed-point keys: a buy walks asks priced
		// at or below its limit, a sell walks bids at or above.
		if o.Side == domain.SideBuy {
			if level.Key > limitKey {
				break
			}
		} else {
			if level.Key < limitKey {
				break
			}
		}

		if len(level.orders) == 0 {
			opposite.Delete(level)
			continue
		}

		head := level.orders[0]

		if b.selfMatch == SelfMatchReject && head.Trader == o.Trader {
			// Cancel the resting self-owned order and keep matching.
			level.TotalQuantity -= head.Remaining()
			level.orders = level.orders[1:]
			if len(level.orders) == 0 {
				opposite.Delete(level)
			}
			continue
		}

		qty := math.Min(o.Remaining(), head.Remaining())

		var trade *domain.Trade
		if o.Side == domain.SideBuy {
			trade = domain.NewTrade(uint64(len(b.trades)), o.Timestamp, b.symbol,
				level.Price, qty, o.Trader, head.Trader, o.ID, head.ID)
		} else {
			trade = domain.NewTrade(uint64(len(b.trades)), o.Timestamp, b.symbol,
				level.Price, qty, head.Trader, o.Trader, head.ID, o.ID)
		}

		o.Filled += qty
		head.Filled += qty

		b.lastPrice = level.Price
		b.hasTraded = true
		b.trades = append(b.trades, trade)
		fills = append(fills, trade)

		level.purgeFilled()
		if len(level.orders) == 0 {
			opposite.Delete(level)
		}
	}

	if o.Remaining() > 0 {
		b.rest(own, limitKey, o)
	}

	return fills
}

// rest moves the order's remainder onto its own side, creating the
// price level if none exists at its key.
func (b *OrderBook) rest(side *btree.BTreeG[*PriceLevel], key int64, o *domain.Order) {
	level, ok := side.Get(&PriceLevel{Key: key})
	if !ok {
		level = &PriceLevel{Key: key, Price: o.Price}
		side.ReplaceOrInsert(level)
	}
	level.add(o)
}

// BestBid returns the best bid level's price and aggregate quantity.
func (b *OrderBook) BestBid() (price, quantity float64, ok bool) {
	level, ok := b.bids.Min()
	if !ok {
		return 0, 0, false
	}
	return level.Price, level.TotalQuantity, true
}

// BestAsk returns the best ask level's price and aggregate quantity.
func (b *OrderBook) BestAsk() (price, quantity float64, ok bool) {
	level, ok := b.asks.Min()
	if !ok {
		return 0, 0, false
	}
	return level.Price, level.TotalQuantity, true
}

// MidPrice returns the average of the best bid and ask prices, falling
// back to the last traded price when either side is empty. Returns
// false only when the book is one-sided and nothing has traded yet.
func (b *OrderBook) MidPrice() (float64, bool) {
	bidLevel, bidOK := b.bids.Min()
	askLevel, askOK := b.asks.Min()
	if bidOK && askOK {
		return (bidLevel.Price + askLevel.Price) / 2, true
	}
	if b.hasTraded {
		return b.lastPrice, true
	}
	return 0, false
}

// Spread returns best ask minus best bid, or false when either side is
// empty.
func (b *OrderBook) Spread() (float64, bool) {
	bidLevel, bidOK := b.bids.Min()
	askLevel, askOK := b.asks.Min()
	if !bidOK || !askOK {
		return 0, false
	}
	return askLevel.Price - bidLevel.Price, true
}

// LastPrice returns the most recent execution price.
func (b *OrderBook) LastPrice() (float64, bool) {
	return b.lastPrice, b.hasTraded
}

// BidDepth returns up to n bid levels, best price first.
func (b *OrderBook) BidDepth(n int) []DepthLevel {
	return depth(b.bids, n)
}

// AskDepth returns up to n ask levels, best price first.
func (b *OrderBook) AskDepth(n int) []DepthLevel {
	return depth(b.asks, n)
}

// depth walks the side in priority order and collects at most n levels.
func depth(side *btree.BTreeG[*PriceLevel], n int) []DepthLevel {
	if n <= 0 {
		return nil
	}
	levels := make([]DepthLevel, 0, n)
	side.Ascend(func(l *PriceLevel) bool {
		levels = append(levels, DepthLevel{Price: l.Price, Quantity: l.TotalQuantity})
		return len(levels) < n
	})
	return levels
}

// BidLevelCount returns the number of bid price levels.
func (b *OrderBook) BidLevelCount() int {
	return b.bids.Len()
}

// AskLevelCount returns the number of ask price levels.
func (b *OrderBook) AskLevelCount() int {
	return b.asks.Len()
}

// Trades returns a copy of the trade ledger in execution order.
func (b *OrderBook) Trades() []*domain.Trade {
	out := make([]*domain.Trade, len(b.trades))
	copy(out, b.trades)
	return out
}

// TradeCount returns the number of trades in the ledger.
func (b *OrderBook) TradeCount() int {
	return len(b.trades)
}
