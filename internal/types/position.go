package types

import (
	"time"

	"github.com/moznion/go-optional"
)

// Position represents current holdings on one side of a symbol. Positions are
// owned exclusively by the simulation engine; strategies only read snapshots.
type Position struct {
	Symbol     string `yaml:"symbol" json:"symbol" csv:"symbol"`
	Side       Side   `yaml:"side" json:"side" csv:"side"`
	// Quantity is the position magnitude, never negative. Direction is
	// carried by Side.
	Quantity   float64 `yaml:"quantity" json:"quantity" csv:"quantity"`
	EntryPrice float64 `yaml:"entry_price" json:"entry_price" csv:"entry_price"`
	// GridIndex is set when the position was opened by a grid level fill.
	GridIndex     optional.Option[int] `yaml:"grid_index,omitempty" json:"grid_index,omitempty" csv:"grid_index"`
	OpenTimestamp time.Time            `yaml:"open_timestamp" json:"open_timestamp" csv:"open_timestamp"`
	StrategyTag   string               `yaml:"strategy" json:"strategy" csv:"strategy"`
}

// SignedQuantity returns the position size with direction applied: positive
// for long, negative for short.
func (p *Position) SignedQuantity() float64 {
	if p.Side == SideShort {
		return -p.Quantity
	}

	return p.Quantity
}

// MarkToMarket returns the cash that closing the position at the given price
// would credit the balance with, without realizing the gain or loss as a
// trade. For a short this is negative: the cost of buying back.
func (p *Position) MarkToMarket(price float64) float64 {
	if p.Side == SideShort {
		return -p.Quantity * price
	}

	return p.Quantity * price
}

// UnrealizedProfit is the gain or loss at the given price relative to entry,
// sign-adjusted for shorts.
func (p *Position) UnrealizedProfit(price float64) float64 {
	if p.Side == SideShort {
		return p.Quantity * (p.EntryPrice - price)
	}

	return p.Quantity * (price - p.EntryPrice)
}
