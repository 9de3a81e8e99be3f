package domain

import "fmt"

// Trade is a matched execution between a buy and a sell order. Trades
// are immutable once created and are appended to the book's ledger,
// never mutated or removed.
type Trade struct {
	ID          uint64  `json:"id"`
	Timestamp   uint64  `json:"timestamp"`
	Symbol      string  `json:"symbol"`
	Price       float64 `json:"price"`
	Quantity    float64 `json:"quantity"`
	Buyer       string  `json:"buyer"`
	Seller      string  `json:"seller"`
	BuyOrderID  uint64  `json:"buy_order_id"`
	SellOrderID uint64  `json:"sell_order_id"`
	Hash        string  `json:"hash"`
}

// NewTrade creates a trade with the integrity hash computed from its
// fields.
func NewTrade(id, timestamp uint64, symbol string, price, quantity float64, buyer, seller string, buyOrderID, sellOrderID uint64) *Trade {
	t := &Trade{
		ID:          id,
		Timestamp:   timestamp,
		Symbol:      symbol,
		Price:       price,
		Quantity:    quantity,
		Buyer:       buyer,
		Seller:      seller,
		BuyOrderID:  buyOrderID,
		SellOrderID: sellOrderID,
	}
	t.Hash = t.CalculateHash()
	return t
}

// CalculateHash recomputes the integrity hash from the trade's fields.
func (t *Trade) CalculateHash() string {
	return checksum(fmt.Sprintf("%d%d%s%v%v%s%s%d%d",
		t.ID, t.Timestamp, t.Symbol, t.Price, t.Quantity,
		t.Buyer, t.Seller, t.BuyOrderID, t.SellOrderID))
}
