// Package kernel defines the contract for the external numeric component
// that turns wallet-exposure and grid parameters into an order ladder. The
// core only assembles inputs, validates outputs and fails soft; the ladder
// math itself is pluggable so tests can run against a deterministic stub
// instead of an accelerated native implementation.
package kernel

import "github.com/rxtech-lab/argo-gridsim/internal/types"

// RawOrder is one (quantity, price, order_type) triple returned by a kernel.
// Quantity is signed: positive buys, negative sells.
type RawOrder struct {
	Qty       float64
	Price     float64
	OrderType types.OrderType
}

// ExchangeRules are the venue rounding constraints forwarded on every call.
type ExchangeRules struct {
	QtyStep   float64
	PriceStep float64
	MinQty    float64
	MinCost   float64
	CMult     float64
}

// TrailingState carries the price extremes observed since the position
// opened, in the order the kernel contract expects them.
type TrailingState struct {
	MinSinceOpen float64
	MaxSinceMin  float64
	MaxSinceOpen float64
	MinSinceMax  float64
}

// EntryInputs is the full input tuple for entry-ladder generation. Field
// order mirrors the kernel's positional contract.
type EntryInputs struct {
	Rules ExchangeRules

	GridDoubleDownFactor     float64
	GridSpacingWeight        float64
	GridSpacingPct           float64
	InitialEMADist           float64
	InitialQtyPct            float64
	TrailingDoubleDownFactor float64
	TrailingGridRatio        float64
	TrailingRetracementPct   float64
	TrailingThresholdPct     float64
	WalletExposureLimit      float64

	Balance       float64
	PositionSize  float64
	PositionPrice float64
	Trailing      TrailingState
	EMAMin        float64
	CurrentPrice  float64

	Side types.Side
}

// CloseInputs is the full input tuple for close-ladder generation.
type CloseInputs struct {
	Rules ExchangeRules

	GridMarkupEnd          float64
	GridMarkupStart        float64
	GridQtyPct             float64
	TrailingGridRatio      float64
	TrailingQtyPct         float64
	TrailingRetracementPct float64
	TrailingThresholdPct   float64

	PositionSize  float64
	PositionPrice float64
	Trailing      TrailingState
	EMAMin        float64
	CurrentPrice  float64

	Side types.Side
}

// Kernel computes entry and close ladders. Implementations must behave as
// pure synchronous functions of their inputs: no suspension, no shared state.
type Kernel interface {
	// CalcEntries returns the entry ladder for the given inputs, ordered
	// nearest level first. An empty slice means no entries.
	CalcEntries(in EntryInputs) ([]RawOrder, error)
	// CalcCloses returns the close ladder for the given inputs, ordered
	// nearest level first. An empty slice means no closes.
	CalcCloses(in CloseInputs) ([]RawOrder, error)
}
