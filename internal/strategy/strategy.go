// Package strategy defines the pluggable trading strategy contract, the
// registry that manages strategy lifecycles, and the two built-in
// implementations: the grid + trailing strategy (kernel-backed) and the
// moving average crossover strategy.
package strategy

import (
	"time"

	"github.com/rxtech-lab/argo-gridsim/internal/kernel"
	"github.com/rxtech-lab/argo-gridsim/internal/logger"
	"github.com/rxtech-lab/argo-gridsim/internal/types"
)

// Context is the market and position snapshot handed to a strategy on every
// evaluation. It is a pure input: strategies read it but never mutate engine
// state through it.
type Context struct {
	// Timestamp of the current step. Strategies use it to deduplicate
	// history updates between hooks and evaluation calls.
	Timestamp    time.Time
	CurrentPrice float64
	Balance      float64
	// PositionSize is signed: positive long, negative short.
	PositionSize  float64
	PositionPrice float64
	// Trailing carries the price extremes since the position opened.
	Trailing kernel.TrailingState
	// EMAMin is the smoothed price reference for EMA-banded initial entries.
	EMAMin float64
}

// Strategy is the capability contract every variant must satisfy. CalcEntries
// and CalcCloses must behave as pure functions of the context plus the
// strategy's own indicator state; internal errors must not propagate as
// aborts - implementations log and return an empty order sequence instead.
type Strategy interface {
	// Name returns the strategy's registry name.
	Name() string
	// CalcEntries returns zero or more entry orders for the given side.
	CalcEntries(side types.Side, symbol string, ctx Context) ([]types.Order, error)
	// CalcCloses returns zero or more closing/reducing orders for the given side.
	CalcCloses(side types.Side, symbol string, ctx Context) ([]types.Order, error)
	// ValidateOrder reports whether the order is structurally well-formed.
	ValidateOrder(order types.Order) bool

	// Optional side-effect-only hooks, invoked each step in the order:
	// market data update, position update, order filled (fills from the
	// previous step), then CalcEntries and CalcCloses.
	OnMarketDataUpdate(symbol string, candle types.Candle)
	OnPositionUpdate(symbol string, side types.Side, position types.Position)
	OnOrderFilled(symbol string, order types.Order)
}

// BaseStrategy provides the shared plumbing for concrete strategies: a name,
// a logger, default order validation and no-op hooks. Embed it and override
// what the variant needs.
type BaseStrategy struct {
	name string
	log  *logger.Logger
}

// NewBaseStrategy creates the embedded base for a named strategy.
func NewBaseStrategy(name string, log *logger.Logger) BaseStrategy {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return BaseStrategy{
		name: name,
		log:  log.Named(name),
	}
}

// Name implements Strategy.
func (b *BaseStrategy) Name() string {
	return b.name
}

// Log returns the strategy's named logger.
func (b *BaseStrategy) Log() *logger.Logger {
	return b.log
}

// ValidateOrder implements Strategy with the structural check shared by all
// variants: quantity, price and order type present and well-formed.
func (b *BaseStrategy) ValidateOrder(order types.Order) bool {
	return order.Validate() == nil
}

// OnMarketDataUpdate implements Strategy as a no-op.
func (b *BaseStrategy) OnMarketDataUpdate(symbol string, candle types.Candle) {}

// OnPositionUpdate implements Strategy as a no-op.
func (b *BaseStrategy) OnPositionUpdate(symbol string, side types.Side, position types.Position) {}

// OnOrderFilled implements Strategy as a no-op.
func (b *BaseStrategy) OnOrderFilled(symbol string, order types.Order) {}
