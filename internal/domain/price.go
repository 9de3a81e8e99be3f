package domain

// PriceScale is the fixed-point tick scale for book keys: prices are
// keyed as price × 10,000 so the ordered book collections never compare
// floats. Inputs with more precision than the tick scale coalesce into
// the same key; callers must quote at the same scale as their orders.
const PriceScale = 10000

// PriceKey converts a price to its fixed-point book key. Truncation
// matches the quantization the book applies everywhere.
func PriceKey(price float64) int64 {
	return int64(price * PriceScale)
}
