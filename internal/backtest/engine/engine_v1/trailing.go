package engine

import "github.com/rxtech-lab/argo-gridsim/internal/kernel"

// TrailingTracker records the price extremes observed since a position
// opened, in the shape the order-generation kernel expects: the minimum since
// open, the maximum since that minimum, the maximum since open, and the
// minimum since that maximum. It resets whenever the tracked position opens
// or fully closes.
type TrailingTracker struct {
	active bool
	state  kernel.TrailingState
}

// NewTrailingTracker creates an inactive tracker.
func NewTrailingTracker() *TrailingTracker {
	return &TrailingTracker{}
}

// OnOpen starts tracking from the entry price.
func (t *TrailingTracker) OnOpen(entryPrice float64) {
	t.active = true
	t.state = kernel.TrailingState{
		MinSinceOpen: entryPrice,
		MaxSinceMin:  entryPrice,
		MaxSinceOpen: entryPrice,
		MinSinceMax:  entryPrice,
	}
}

// OnClose stops tracking and clears the extremes.
func (t *TrailingTracker) OnClose() {
	t.active = false
	t.state = kernel.TrailingState{}
}

// Active reports whether a position is currently being tracked.
func (t *TrailingTracker) Active() bool {
	return t.active
}

// Update feeds the step price while a position is open.
func (t *TrailingTracker) Update(price float64) {
	if !t.active {
		return
	}

	if price < t.state.MinSinceOpen {
		t.state.MinSinceOpen = price
		t.state.MaxSinceMin = price
	} else if price > t.state.MaxSinceMin {
		t.state.MaxSinceMin = price
	}

	if price > t.state.MaxSinceOpen {
		t.state.MaxSinceOpen = price
		t.state.MinSinceMax = price
	} else if price < t.state.MinSinceMax {
		t.state.MinSinceMax = price
	}
}

// State returns the current extremes; zero values when inactive.
func (t *TrailingTracker) State() kernel.TrailingState {
	return t.state
}
