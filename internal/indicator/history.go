package indicator

import "time"

// PriceHistory is a bounded FIFO of close prices for one symbol. When the
// buffer exceeds its capacity the oldest entries are evicted. Appends are
// deduplicated on timestamp so that hook-driven and call-driven updates for
// the same step never record the price twice.
type PriceHistory struct {
	prices   []float64
	capacity int
	lastTime time.Time
	hasLast  bool
}

// NewPriceHistory creates a buffer holding at most capacity prices.
func NewPriceHistory(capacity int) *PriceHistory {
	if capacity < 1 {
		capacity = 1
	}

	return &PriceHistory{
		prices:   make([]float64, 0, capacity),
		capacity: capacity,
	}
}

// Append records a price observed at the given time. A repeated timestamp is
// ignored; truncation to capacity is the only other mutation.
func (h *PriceHistory) Append(t time.Time, price float64) {
	if h.hasLast && t.Equal(h.lastTime) {
		return
	}

	h.prices = append(h.prices, price)
	if len(h.prices) > h.capacity {
		h.prices = h.prices[len(h.prices)-h.capacity:]
	}

	h.lastTime = t
	h.hasLast = true
}

// Len returns the number of buffered prices.
func (h *PriceHistory) Len() int {
	return len(h.prices)
}

// Prices returns a copy of the buffered prices, oldest first.
func (h *PriceHistory) Prices() []float64 {
	out := make([]float64, len(h.prices))
	copy(out, h.prices)

	return out
}
