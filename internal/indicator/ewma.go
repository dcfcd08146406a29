package indicator

// EWMA is a streaming exponential moving average with smoothing
// 2/(span+1), seeded with the first observation. A zero or negative span
// disables smoothing and the value tracks the raw price.
type EWMA struct {
	span    int
	value   float64
	started bool
}

// NewEWMA creates a streaming EWMA with the given span.
func NewEWMA(span int) *EWMA {
	return &EWMA{span: span}
}

// Update feeds a price and returns the new average.
func (e *EWMA) Update(price float64) float64 {
	if e.span <= 0 || !e.started {
		e.value = price
		e.started = true

		return e.value
	}

	alpha := 2.0 / (float64(e.span) + 1.0)
	e.value = (price-e.value)*alpha + e.value

	return e.value
}

// Value returns the current average, or 0 before any update.
func (e *EWMA) Value() float64 {
	return e.value
}
