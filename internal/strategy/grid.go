package strategy

import (
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-gridsim/internal/config"
	"github.com/rxtech-lab/argo-gridsim/internal/kernel"
	"github.com/rxtech-lab/argo-gridsim/internal/logger"
	"github.com/rxtech-lab/argo-gridsim/internal/types"
	"github.com/rxtech-lab/argo-gridsim/pkg/errors"
)

// StrategyNameDefault is the registry name of the grid + trailing strategy.
const StrategyNameDefault = "default"

// GridStrategy delegates ladder math to an order-generation kernel. Its own
// responsibility is assembling the kernel input tuple from configuration and
// context, validating and tagging every returned order, and failing soft when
// the kernel errors or returns malformed data: a problematic step yields an
// empty order list and a logged diagnostic, never an aborted run.
type GridStrategy struct {
	BaseStrategy
	cfg  config.Config
	kern kernel.Kernel
}

var _ Strategy = (*GridStrategy)(nil)

// NewGridStrategy builds the grid strategy backed by the reference kernel.
func NewGridStrategy(cfg config.Config, log *logger.Logger) (*GridStrategy, error) {
	return NewGridStrategyWithKernel(cfg, log, kernel.NewNativeKernel())
}

// NewGridStrategyWithKernel builds the grid strategy with an injected kernel,
// used by tests to substitute a deterministic stub.
func NewGridStrategyWithKernel(cfg config.Config, log *logger.Logger, kern kernel.Kernel) (*GridStrategy, error) {
	if kern == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "kernel must not be nil")
	}

	s := &GridStrategy{
		BaseStrategy: NewBaseStrategy(StrategyNameDefault, log),
		cfg:          cfg,
		kern:         kern,
	}

	s.Log().Info("grid + trailing strategy initialized")

	return s, nil
}

// UsesGridLadder marks the strategy as grid-style: the simulation engine
// builds its reference level ladder from the run configuration instead of
// applying per-step evaluation orders.
func (s *GridStrategy) UsesGridLadder() bool {
	return true
}

// sideParams returns the grid parameters for one side of the book.
func (s *GridStrategy) sideParams(side types.Side) config.GridParams {
	if side == types.SideShort {
		return s.cfg.Bot.Short
	}

	return s.cfg.Bot.Long
}

func (s *GridStrategy) rules() kernel.ExchangeRules {
	return kernel.ExchangeRules{
		QtyStep:   s.cfg.Exchange.QtyStep,
		PriceStep: s.cfg.Exchange.PriceStep,
		MinQty:    s.cfg.Exchange.MinQty,
		MinCost:   s.cfg.Exchange.MinCost,
		CMult:     s.cfg.Exchange.CMult,
	}
}

// CalcEntries implements Strategy by forwarding the assembled input tuple to
// the kernel's entry calculation.
func (s *GridStrategy) CalcEntries(side types.Side, symbol string, ctx Context) ([]types.Order, error) {
	params := s.sideParams(side)

	inputs := kernel.EntryInputs{
		Rules:                    s.rules(),
		GridDoubleDownFactor:     params.EntryGridDoubleDownFactor,
		GridSpacingWeight:        params.EntryGridSpacingWeight,
		GridSpacingPct:           params.EntryGridSpacingPct,
		InitialEMADist:           params.EntryInitialEMADist,
		InitialQtyPct:            params.EntryInitialQtyPct,
		TrailingDoubleDownFactor: params.EntryTrailingDoubleDownFactor,
		TrailingGridRatio:        params.EntryTrailingGridRatio,
		TrailingRetracementPct:   params.EntryTrailingRetracementPct,
		TrailingThresholdPct:     params.EntryTrailingThresholdPct,
		WalletExposureLimit:      params.WalletExposureLimit,
		Balance:                  ctx.Balance,
		PositionSize:             ctx.PositionSize,
		PositionPrice:            ctx.PositionPrice,
		Trailing:                 ctx.Trailing,
		EMAMin:                   ctx.EMAMin,
		CurrentPrice:             ctx.CurrentPrice,
		Side:                     side,
	}

	raw, err := s.callEntries(inputs)
	if err != nil {
		s.Log().Error("error calculating entries",
			zap.String("side", string(side)),
			zap.String("symbol", symbol),
			zap.Error(err),
		)

		return nil, nil
	}

	orders := s.formatOrders(raw, ctx)
	s.Log().Debug("calc_entries",
		zap.String("side", string(side)),
		zap.String("symbol", symbol),
		zap.Int("count", len(orders)),
	)

	return orders, nil
}

// CalcCloses implements Strategy by forwarding the assembled input tuple to
// the kernel's close calculation.
func (s *GridStrategy) CalcCloses(side types.Side, symbol string, ctx Context) ([]types.Order, error) {
	params := s.sideParams(side)

	inputs := kernel.CloseInputs{
		Rules:                  s.rules(),
		GridMarkupEnd:          params.CloseGridMarkupEnd,
		GridMarkupStart:        params.CloseGridMarkupStart,
		GridQtyPct:             params.CloseGridQtyPct,
		TrailingGridRatio:      params.CloseTrailingGridRatio,
		TrailingQtyPct:         params.CloseTrailingQtyPct,
		TrailingRetracementPct: params.CloseTrailingRetracementPct,
		TrailingThresholdPct:   params.CloseTrailingThresholdPct,
		PositionSize:           ctx.PositionSize,
		PositionPrice:          ctx.PositionPrice,
		Trailing:               ctx.Trailing,
		EMAMin:                 ctx.EMAMin,
		CurrentPrice:           ctx.CurrentPrice,
		Side:                   side,
	}

	raw, err := s.callCloses(inputs)
	if err != nil {
		s.Log().Error("error calculating closes",
			zap.String("side", string(side)),
			zap.String("symbol", symbol),
			zap.Error(err),
		)

		return nil, nil
	}

	orders := s.formatOrders(raw, ctx)
	s.Log().Debug("calc_closes",
		zap.String("side", string(side)),
		zap.String("symbol", symbol),
		zap.Int("count", len(orders)),
	)

	return orders, nil
}

// callEntries invokes the kernel, converting a panic into an error so a
// faulty kernel can never halt a run.
func (s *GridStrategy) callEntries(in kernel.EntryInputs) (raw []kernel.RawOrder, err error) {
	defer func() {
		if r := recover(); r != nil {
			raw = nil
			err = errors.Newf(errors.ErrCodeKernelFailure, "kernel panic: %v", r)
		}
	}()

	raw, err = s.kern.CalcEntries(in)
	if err != nil {
		err = errors.Wrap(errors.ErrCodeKernelFailure, "kernel entry calculation failed", err)
	}

	return raw, err
}

func (s *GridStrategy) callCloses(in kernel.CloseInputs) (raw []kernel.RawOrder, err error) {
	defer func() {
		if r := recover(); r != nil {
			raw = nil
			err = errors.Newf(errors.ErrCodeKernelFailure, "kernel panic: %v", r)
		}
	}()

	raw, err = s.kern.CalcCloses(in)
	if err != nil {
		err = errors.Wrap(errors.ErrCodeKernelFailure, "kernel close calculation failed", err)
	}

	return raw, err
}

// formatOrders validates and tags the kernel's raw order triples. Malformed
// triples are dropped rather than failing the step, preserving the reference
// fail-soft behavior.
func (s *GridStrategy) formatOrders(raw []kernel.RawOrder, ctx Context) []types.Order {
	orders := make([]types.Order, 0, len(raw))

	for _, r := range raw {
		order := types.Order{
			Quantity:    r.Qty,
			Price:       r.Price,
			OrderType:   r.OrderType,
			StrategyTag: StrategyNameDefault,
			Timestamp:   ctx.Timestamp,
		}

		if !s.ValidateOrder(order) {
			s.Log().Debug("dropping malformed kernel order",
				zap.Float64("qty", r.Qty),
				zap.Float64("price", r.Price),
				zap.String("order_type", string(r.OrderType)),
			)

			continue
		}

		orders = append(orders, order)
	}

	return orders
}
