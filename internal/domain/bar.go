package domain

import "fmt"

// MarketBar is an OHLCV summary of the trades executed in one time
// window. Bars are immutable once created.
type MarketBar struct {
	Timestamp uint64  `json:"timestamp"`
	Symbol    string  `json:"symbol"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
	Hash      string  `json:"hash"`
}

// NewBar creates a bar with the integrity hash computed from its fields.
func NewBar(timestamp uint64, symbol string, open, high, low, close, volume float64) *MarketBar {
	b := &MarketBar{
		Timestamp: timestamp,
		Symbol:    symbol,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     close,
		Volume:    volume,
	}
	b.Hash = b.CalculateHash()
	return b
}

// CalculateHash recomputes the integrity hash from the bar's fields.
func (b *MarketBar) CalculateHash() string {
	return checksum(fmt.Sprintf("%d%s%v%v%v%v%v",
		b.Timestamp, b.Symbol, b.Open, b.High, b.Low, b.Close, b.Volume))
}

// BarFromTrades folds a window of trades into a single bar: open is the
// first trade's price, close the last, high/low the extrema, volume the
// sum of quantities. Returns false when the window is empty; the caller
// synthesizes a zero-volume bar at the last known price instead.
func BarFromTrades(timestamp uint64, symbol string, trades []*Trade) (*MarketBar, bool) {
	if len(trades) == 0 {
		return nil, false
	}

	open := trades[0].Price
	close := trades[len(trades)-1].Price
	high := open
	low := open
	var volume float64
	for _, t := range trades {
		if t.Price > high {
			high = t.Price
		}
		if t.Price < low {
			low = t.Price
		}
		volume += t.Quantity
	}

	return NewBar(timestamp, symbol, open, high, low, close, volume), true
}

// ZeroVolumeBar synthesizes a flat bar at the last known price for a
// window in which no trades occurred.
func ZeroVolumeBar(timestamp uint64, symbol string, price float64) *MarketBar {
	return NewBar(timestamp, symbol, price, price, price, price, 0)
}
