package strategy

import (
	"math"

	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-gridsim/internal/config"
	"github.com/rxtech-lab/argo-gridsim/internal/indicator"
	"github.com/rxtech-lab/argo-gridsim/internal/logger"
	"github.com/rxtech-lab/argo-gridsim/internal/types"
	"github.com/rxtech-lab/argo-gridsim/pkg/errors"
)

// StrategyNameMACrossover is the registry name of the moving average
// crossover strategy.
const StrategyNameMACrossover = "ma_crossover"

// minPositionQty is the smallest open quantity considered a real position.
const minPositionQty = 1e-8

// MovingAverageCrossover enters on golden/death crosses of a fast and slow
// simple moving average and closes on the opposite cross, stop-loss or
// take-profit. All state is the per-symbol bounded price history.
type MovingAverageCrossover struct {
	BaseStrategy
	params  config.StrategyParams
	history map[string]*indicator.PriceHistory
}

var _ Strategy = (*MovingAverageCrossover)(nil)

// StrategyStatus is the diagnostic snapshot reported by GetStrategyStatus.
type StrategyStatus struct {
	Status     string              `yaml:"status" json:"status"`
	FastMA     float64             `yaml:"fast_ma" json:"fast_ma"`
	SlowMA     float64             `yaml:"slow_ma" json:"slow_ma"`
	Signal     indicator.Crossover `yaml:"signal" json:"signal"`
	PriceCount int                 `yaml:"price_count" json:"price_count"`
}

const (
	StatusInsufficientData = "insufficient_data"
	StatusActive           = "active"
)

// NewMovingAverageCrossover builds the strategy from the run configuration.
// The fast period must be strictly smaller than the slow period.
func NewMovingAverageCrossover(cfg config.Config, log *logger.Logger) (*MovingAverageCrossover, error) {
	params := cfg.Strategy.Params
	if params.FastPeriod <= 0 || params.SlowPeriod <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration,
			"periods must be positive, got fast=%d slow=%d", params.FastPeriod, params.SlowPeriod)
	}

	if params.FastPeriod >= params.SlowPeriod {
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration,
			"fast period %d must be smaller than slow period %d", params.FastPeriod, params.SlowPeriod)
	}

	if params.PositionSize <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration,
			"position size must be positive, got %f", params.PositionSize)
	}

	s := &MovingAverageCrossover{
		BaseStrategy: NewBaseStrategy(StrategyNameMACrossover, log),
		params:       params,
		history:      make(map[string]*indicator.PriceHistory),
	}

	s.Log().Info("moving average crossover strategy initialized",
		zap.Int("fast", params.FastPeriod),
		zap.Int("slow", params.SlowPeriod),
		zap.Float64("size", params.PositionSize),
	)

	return s, nil
}

// symbolHistory returns the bounded buffer for a symbol, creating it with a
// capacity of twice the slow period on first use.
func (s *MovingAverageCrossover) symbolHistory(symbol string) *indicator.PriceHistory {
	h, ok := s.history[symbol]
	if !ok {
		h = indicator.NewPriceHistory(2 * s.params.SlowPeriod)
		s.history[symbol] = h
	}

	return h
}

// OnMarketDataUpdate implements Strategy: it feeds the close price into the
// symbol's history. The buffer deduplicates on timestamp, so feeding the same
// step through both the hook and an evaluation call is safe.
func (s *MovingAverageCrossover) OnMarketDataUpdate(symbol string, candle types.Candle) {
	s.symbolHistory(symbol).Append(candle.Time, candle.Close)
}

// CalcEntries implements Strategy. The latest price is appended to history
// first; with fewer than slow-period observations no orders are produced.
func (s *MovingAverageCrossover) CalcEntries(side types.Side, symbol string, ctx Context) ([]types.Order, error) {
	if ctx.CurrentPrice <= 0 || ctx.Balance <= 0 {
		return nil, nil
	}

	h := s.symbolHistory(symbol)
	h.Append(ctx.Timestamp, ctx.CurrentPrice)

	prices := h.Prices()
	if len(prices) < s.params.SlowPeriod {
		return nil, nil
	}

	signal := indicator.DetectCrossover(prices, s.params.FastPeriod, s.params.SlowPeriod)
	qty := ctx.Balance * s.params.PositionSize / ctx.CurrentPrice

	switch {
	case signal == indicator.CrossoverGolden && side == types.SideLong:
		s.Log().Info("entry signal",
			zap.String("symbol", symbol),
			zap.String("signal", types.SignalGoldenCross),
			zap.Float64("price", ctx.CurrentPrice),
		)

		return []types.Order{{
			Quantity:    qty,
			Price:       ctx.CurrentPrice,
			OrderType:   types.OrderTypeMarketBuy,
			StrategyTag: StrategyNameMACrossover,
			Signal:      optional.Some(types.SignalGoldenCross),
			Timestamp:   ctx.Timestamp,
		}}, nil

	case signal == indicator.CrossoverDeath && side == types.SideShort:
		s.Log().Info("entry signal",
			zap.String("symbol", symbol),
			zap.String("signal", types.SignalDeathCross),
			zap.Float64("price", ctx.CurrentPrice),
		)

		return []types.Order{{
			Quantity:    -qty,
			Price:       ctx.CurrentPrice,
			OrderType:   types.OrderTypeMarketSell,
			StrategyTag: StrategyNameMACrossover,
			Signal:      optional.Some(types.SignalDeathCross),
			Timestamp:   ctx.Timestamp,
		}}, nil
	}

	return nil, nil
}

// CalcCloses implements Strategy. A close requires a non-trivial open
// quantity and a positive price. Signal-based closes take precedence over
// stop-loss, which takes precedence over take-profit.
func (s *MovingAverageCrossover) CalcCloses(side types.Side, symbol string, ctx Context) ([]types.Order, error) {
	if math.Abs(ctx.PositionSize) < minPositionQty || ctx.CurrentPrice <= 0 {
		return nil, nil
	}

	h := s.symbolHistory(symbol)
	h.Append(ctx.Timestamp, ctx.CurrentPrice)

	prices := h.Prices()
	if len(prices) < s.params.SlowPeriod {
		return nil, nil
	}

	signal := indicator.DetectCrossover(prices, s.params.FastPeriod, s.params.SlowPeriod)

	if ctx.PositionSize > 0 {
		return s.closeLong(symbol, ctx, signal), nil
	}

	return s.closeShort(symbol, ctx, signal), nil
}

func (s *MovingAverageCrossover) closeLong(symbol string, ctx Context, signal indicator.Crossover) []types.Order {
	stopLossPrice := ctx.PositionPrice * (1 - s.params.StopLossPct)
	takeProfitPrice := ctx.PositionPrice * (1 + s.params.TakeProfitPct)

	var label string

	switch {
	case signal == indicator.CrossoverDeath:
		label = types.SignalDeathCrossClose
	case s.params.StopLossPct > 0 && ctx.CurrentPrice <= stopLossPrice:
		label = types.SignalStopLoss
	case s.params.TakeProfitPct > 0 && ctx.CurrentPrice >= takeProfitPrice:
		label = types.SignalTakeProfit
	default:
		return nil
	}

	s.Log().Info("close signal",
		zap.String("symbol", symbol),
		zap.String("signal", label),
		zap.Float64("price", ctx.CurrentPrice),
	)

	return []types.Order{{
		Quantity:    -ctx.PositionSize,
		Price:       ctx.CurrentPrice,
		OrderType:   types.OrderTypeMarketSell,
		StrategyTag: StrategyNameMACrossover,
		Signal:      optional.Some(label),
		Timestamp:   ctx.Timestamp,
	}}
}

func (s *MovingAverageCrossover) closeShort(symbol string, ctx Context, signal indicator.Crossover) []types.Order {
	stopLossPrice := ctx.PositionPrice * (1 + s.params.StopLossPct)
	takeProfitPrice := ctx.PositionPrice * (1 - s.params.TakeProfitPct)

	var label string

	switch {
	case signal == indicator.CrossoverGolden:
		label = types.SignalGoldenCrossClose
	case s.params.StopLossPct > 0 && ctx.CurrentPrice >= stopLossPrice:
		label = types.SignalStopLoss
	case s.params.TakeProfitPct > 0 && ctx.CurrentPrice <= takeProfitPrice:
		label = types.SignalTakeProfit
	default:
		return nil
	}

	s.Log().Info("close signal",
		zap.String("symbol", symbol),
		zap.String("signal", label),
		zap.Float64("price", ctx.CurrentPrice),
	)

	return []types.Order{{
		Quantity:    math.Abs(ctx.PositionSize),
		Price:       ctx.CurrentPrice,
		OrderType:   types.OrderTypeMarketBuy,
		StrategyTag: StrategyNameMACrossover,
		Signal:      optional.Some(label),
		Timestamp:   ctx.Timestamp,
	}}
}

// GetStrategyStatus reports the indicator state for a symbol. It is
// diagnostic only: repeated calls with no new price input return identical
// results and never mutate history.
func (s *MovingAverageCrossover) GetStrategyStatus(symbol string) StrategyStatus {
	h, ok := s.history[symbol]
	if !ok || h.Len() < s.params.SlowPeriod {
		count := 0
		if ok {
			count = h.Len()
		}

		return StrategyStatus{
			Status:     StatusInsufficientData,
			Signal:     indicator.CrossoverNone,
			PriceCount: count,
		}
	}

	prices := h.Prices()

	return StrategyStatus{
		Status:     StatusActive,
		FastMA:     indicator.SMA(prices, s.params.FastPeriod),
		SlowMA:     indicator.SMA(prices, s.params.SlowPeriod),
		Signal:     indicator.DetectCrossover(prices, s.params.FastPeriod, s.params.SlowPeriod),
		PriceCount: len(prices),
	}
}
