package domain

import "fmt"

// Side indicates whether an order buys or sells.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Order is a limit order submitted to the book. The identity fields
// (everything except Filled) are immutable after construction and are
// covered by the integrity hash; only Filled advances as the order
// matches.
type Order struct {
	ID        uint64  `json:"id"`
	Timestamp uint64  `json:"timestamp"` // logical tick time assigned by the driver
	Trader    string  `json:"trader"`
	Symbol    string  `json:"symbol"`
	Side      Side    `json:"side"`
	Price     float64 `json:"price"`
	Quantity  float64 `json:"quantity"`
	Filled    float64 `json:"filled"`
	Hash      string  `json:"hash"`
}

// NewOrder creates an order with Filled zero and the integrity hash
// computed from the immutable fields. The caller is responsible for
// rejecting non-positive price or quantity before construction; the
// matching engine does not validate them.
func NewOrder(id, timestamp uint64, trader, symbol string, side Side, price, quantity float64) *Order {
	o := &Order{
		ID:        id,
		Timestamp: timestamp,
		Trader:    trader,
		Symbol:    symbol,
		Side:      side,
		Price:     price,
		Quantity:  quantity,
	}
	o.Hash = o.CalculateHash()
	return o
}

// CalculateHash recomputes the integrity hash over the immutable
// fields. For a well-formed order it always equals the stored Hash.
func (o *Order) CalculateHash() string {
	return checksum(fmt.Sprintf("%d%d%s%s%s%v%v",
		o.ID, o.Timestamp, o.Trader, o.Symbol, o.Side, o.Price, o.Quantity))
}

// Remaining returns the unfilled quantity.
func (o *Order) Remaining() float64 {
	return o.Quantity - o.Filled
}

// IsFilled reports whether the order has no remaining quantity.
func (o *Order) IsFilled() bool {
	return o.Filled >= o.Quantity
}
