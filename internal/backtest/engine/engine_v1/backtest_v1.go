// Package engine implements the v1 simulation engine: a strictly sequential
// backtest loop over an ordered candle series, with an engine-owned grid
// ladder for grid-style runs and per-step strategy evaluation for
// indicator-style runs.
package engine

import (
	"math"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	backtestengine "github.com/rxtech-lab/argo-gridsim/internal/backtest/engine"
	"github.com/rxtech-lab/argo-gridsim/internal/config"
	"github.com/rxtech-lab/argo-gridsim/internal/indicator"
	"github.com/rxtech-lab/argo-gridsim/internal/logger"
	"github.com/rxtech-lab/argo-gridsim/internal/strategy"
	"github.com/rxtech-lab/argo-gridsim/internal/types"
	"github.com/rxtech-lab/argo-gridsim/pkg/errors"
)

// Status is the run state machine: Initialized -> Running -> Completed, or
// Running -> Failed on unrecoverable configuration errors only. Errors inside
// a step never abort the run.
type Status string

const (
	StatusInitialized Status = "initialized"
	StatusRunning     Status = "running"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
)

// GridTag marks ledger entries produced by the engine-owned ladder rather
// than a strategy evaluation.
const GridTag = "grid"

// gridLadderStrategy is implemented by strategies whose fills come from the
// engine-owned configuration ladder instead of per-step evaluation orders.
type gridLadderStrategy interface {
	UsesGridLadder() bool
}

var _ backtestengine.Engine = (*BacktestEngineV1)(nil)

// BacktestEngineV1 implements engine.Engine. One engine instance runs one
// backtest at a time; independent runs need independent engine instances.
type BacktestEngineV1 struct {
	cfg           config.Config
	log           *logger.Logger
	strat         strategy.Strategy
	state         *SimulationState
	status        Status
	resultsFolder string
	showProgress  bool
	initialized   bool

	levels   map[types.Side][]GridLevel
	trailing map[types.Side]*TrailingTracker
	ema      map[types.Side]*indicator.EWMA

	// pendingFills are orders filled in the previous step, reported to the
	// strategy via OnOrderFilled at the start of the next step.
	pendingFills []types.Order
}

// NewBacktestEngineV1 creates an engine that still needs Initialize before Run.
func NewBacktestEngineV1(log *logger.Logger) *BacktestEngineV1 {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &BacktestEngineV1{
		log:    log.Named("engine"),
		state:  NewSimulationState(log.Named("engine")),
		status: StatusInitialized,
	}
}

// Initialize implements engine.Engine.
func (e *BacktestEngineV1) Initialize(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestConfigError, "engine configuration rejected", err)
	}

	e.cfg = cfg
	e.initialized = true
	e.status = StatusInitialized
	e.log.Info("engine initialized",
		zap.String("symbol", cfg.Backtest.Symbol),
		zap.Float64("starting_balance", cfg.Backtest.StartingBalance),
	)

	return nil
}

// LoadStrategy implements engine.Engine.
func (e *BacktestEngineV1) LoadStrategy(s strategy.Strategy) error {
	if s == nil {
		return errors.New(errors.ErrCodeInvalidParameter, "strategy must not be nil")
	}

	e.strat = s
	e.log.Info("strategy loaded", zap.String("strategy", s.Name()))

	return nil
}

// SetResultsFolder implements engine.Engine.
func (e *BacktestEngineV1) SetResultsFolder(folder string) error {
	e.resultsFolder = folder

	return nil
}

// SetProgressBar toggles the terminal progress bar during Run.
func (e *BacktestEngineV1) SetProgressBar(show bool) {
	e.showProgress = show
}

// Status returns the current run state.
func (e *BacktestEngineV1) Status() Status {
	return e.status
}

// usesLadder reports whether fills come from the engine-owned configuration
// ladder. That is the case with no strategy loaded, or with a grid-style
// strategy whose delegated ladder math the engine does not depend on.
func (e *BacktestEngineV1) usesLadder() bool {
	if e.strat == nil {
		return true
	}

	if gs, ok := e.strat.(gridLadderStrategy); ok {
		return gs.UsesGridLadder()
	}

	return false
}

// ladderSideEnabled reports whether one side of the configuration ladder is
// simulated. A zero wallet exposure limit means no exposure is allowed on
// that side.
func ladderSideEnabled(params config.GridParams) bool {
	return params.NPositions > 0 && params.EntryGridSpacingPct > 0 && params.WalletExposureLimit > 0
}

// Run implements engine.Engine. The series must be ordered by non-decreasing
// time; candles with non-positive close prices are skipped with a warning.
func (e *BacktestEngineV1) Run(series []types.Candle) (*types.Summary, error) {
	if !e.initialized {
		return nil, errors.New(errors.ErrCodeBacktestNotReady, "engine not initialized")
	}

	if e.cfg.Backtest.StartingBalance <= 0 {
		e.status = StatusFailed

		return nil, errors.Newf(errors.ErrCodeBacktestConfigError,
			"starting balance must be positive, got %f", e.cfg.Backtest.StartingBalance)
	}

	for i := 1; i < len(series); i++ {
		if series[i].Time.Before(series[i-1].Time) {
			e.status = StatusFailed

			return nil, errors.Newf(errors.ErrCodeBacktestConfigError,
				"series out of order at index %d (%s after %s)",
				i, series[i-1].Time, series[i].Time)
		}
	}

	e.reset()
	e.status = StatusRunning
	e.log.Info("run started",
		zap.Int("steps", len(series)),
		zap.Bool("grid_ladder", e.usesLadder()),
	)

	var bar *progressbar.ProgressBar
	if e.showProgress {
		bar = progressbar.Default(int64(len(series)), "backtesting")
	}

	lastPrice := 0.0

	for _, candle := range series {
		if bar != nil {
			_ = bar.Add(1)
		}

		if candle.Close <= 0 {
			e.log.Warn("skipping candle with non-positive close",
				zap.Time("timestamp", candle.Time),
				zap.Float64("close", candle.Close),
			)

			continue
		}

		if lastPrice == 0 && e.usesLadder() {
			e.buildLadder(candle.Close)
		}

		lastPrice = candle.Close
		e.step(candle)
	}

	summary := e.summarize(lastPrice)
	e.status = StatusCompleted
	e.log.Info("run completed",
		zap.Float64("final_balance", summary.FinalBalance),
		zap.Int("trades", summary.TotalTrades),
		zap.Bool("insolvent", summary.Insolvent),
	)

	if e.resultsFolder != "" {
		if err := e.writeResults(summary); err != nil {
			return summary, errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to persist results", err)
		}
	}

	return summary, nil
}

func (e *BacktestEngineV1) reset() {
	e.state.Reset(e.cfg.Backtest.StartingBalance)
	e.levels = make(map[types.Side][]GridLevel)
	e.trailing = map[types.Side]*TrailingTracker{
		types.SideLong:  NewTrailingTracker(),
		types.SideShort: NewTrailingTracker(),
	}
	e.ema = map[types.Side]*indicator.EWMA{
		types.SideLong:  indicator.NewEWMA(e.cfg.Bot.Long.EMASpan),
		types.SideShort: indicator.NewEWMA(e.cfg.Bot.Short.EMASpan),
	}
	e.pendingFills = nil
}

// buildLadder computes the reference levels once, from the first valid price.
func (e *BacktestEngineV1) buildLadder(firstPrice float64) {
	for _, side := range []types.Side{types.SideLong, types.SideShort} {
		params := e.sideParams(side)
		if !ladderSideEnabled(params) {
			continue
		}

		levels := BuildGridLevels(firstPrice, params, side)
		e.levels[side] = levels
		e.log.Info("grid ladder built",
			zap.String("side", string(side)),
			zap.Int("levels", len(levels)),
			zap.Float64("reference_price", firstPrice),
		)
	}
}

func (e *BacktestEngineV1) sideParams(side types.Side) config.GridParams {
	if side == types.SideShort {
		return e.cfg.Bot.Short
	}

	return e.cfg.Bot.Long
}

// step advances the simulation by one candle: hooks first, then fills, then
// per-side tracker maintenance.
func (e *BacktestEngineV1) step(candle types.Candle) {
	symbol := e.cfg.Backtest.Symbol
	price := candle.Close

	for _, side := range []types.Side{types.SideLong, types.SideShort} {
		e.ema[side].Update(price)
		e.trailing[side].Update(price)
	}

	e.notifyStrategy(symbol, candle)

	if e.usesLadder() {
		e.fillLadderEntries(candle)
		e.fillLadderCloses(candle)
	} else {
		e.applyStrategyOrders(symbol, candle)
	}

	e.syncTrailing(price)
}

// notifyStrategy runs the per-step hooks in order: market data update,
// position updates, then fills from the previous step.
func (e *BacktestEngineV1) notifyStrategy(symbol string, candle types.Candle) {
	if e.strat == nil {
		e.pendingFills = nil

		return
	}

	e.strat.OnMarketDataUpdate(symbol, candle)

	for _, side := range []types.Side{types.SideLong, types.SideShort} {
		if pos, ok := e.aggregatePosition(side); ok {
			e.strat.OnPositionUpdate(symbol, side, pos)
		}
	}

	for _, fill := range e.pendingFills {
		e.strat.OnOrderFilled(symbol, fill)
	}

	e.pendingFills = nil
}

// aggregatePosition collapses all open positions on one side into a single
// snapshot with a quantity-weighted entry price.
func (e *BacktestEngineV1) aggregatePosition(side types.Side) (types.Position, bool) {
	var qty, cost float64

	var earliest types.Position

	for _, p := range e.state.OpenPositions() {
		if p.Side != side {
			continue
		}

		if qty == 0 {
			earliest = p
		}

		qty += p.Quantity
		cost += p.Quantity * p.EntryPrice
	}

	if qty == 0 {
		return types.Position{}, false
	}

	earliest.Quantity = qty
	earliest.EntryPrice = cost / qty
	earliest.GridIndex = optional.None[int]()

	return earliest, true
}

// fillLadderEntries fills every unoccupied level the price has crossed, in
// ascending index order. Quantity is sized from the balance at fill time.
func (e *BacktestEngineV1) fillLadderEntries(candle types.Candle) {
	for _, side := range []types.Side{types.SideLong, types.SideShort} {
		params := e.sideParams(side)

		for _, level := range e.levels[side] {
			if !level.Crossed(candle.Close, side) || e.state.IsLevelOccupied(level.Index) {
				continue
			}

			qty := e.state.Balance() * params.EntryInitialQtyPct / candle.Close
			if qty <= 0 {
				continue
			}

			orderType := types.OrderTypeLimitBuy
			if side == types.SideShort {
				qty = -qty
				orderType = types.OrderTypeLimitSell
			}

			orderID := uuid.NewString()
			trade := e.state.OpenPosition(side, optional.Some(level.Index), qty, candle.Close,
				candle.Time, GridTag, optional.None[string](), orderID)
			e.recordFill(types.Order{
				OrderID:     orderID,
				Quantity:    qty,
				Price:       level.Price,
				OrderType:   orderType,
				StrategyTag: GridTag,
				Timestamp:   candle.Time,
			})
			e.log.Debug("grid level filled",
				zap.String("side", string(side)),
				zap.Int("level", level.Index),
				zap.Float64("price", trade.Price),
				zap.Float64("balance", trade.BalanceAfter),
			)
		}
	}
}

// fillLadderCloses closes every position whose markup target the price has
// crossed, earliest-opened first.
func (e *BacktestEngineV1) fillLadderCloses(candle types.Candle) {
	for _, pos := range e.state.positionsInCloseOrder() {
		params := e.sideParams(pos.Side)

		var crossed bool

		if pos.Side == types.SideShort {
			crossed = candle.Close <= pos.EntryPrice*(1-params.CloseGridMarkupStart)
		} else {
			crossed = candle.Close >= pos.EntryPrice*(1+params.CloseGridMarkupStart)
		}

		if !crossed {
			continue
		}

		orderType := types.OrderTypeLimitSell

		qty := pos.Quantity
		if pos.Side == types.SideShort {
			orderType = types.OrderTypeLimitBuy
		} else {
			qty = -qty
		}

		orderID := uuid.NewString()
		trade := e.state.ClosePosition(pos, pos.Quantity, candle.Close,
			candle.Time, GridTag, optional.None[string](), orderID)
		e.recordFill(types.Order{
			OrderID:     orderID,
			Quantity:    qty,
			Price:       candle.Close,
			OrderType:   orderType,
			StrategyTag: GridTag,
			Timestamp:   candle.Time,
		})
		e.log.Debug("grid position closed",
			zap.String("side", string(pos.Side)),
			zap.Float64("price", candle.Close),
			zap.Float64("profit", trade.Profit.TakeOr(0)),
		)
	}
}

// applyStrategyOrders evaluates the strategy for both sides and applies the
// accepted orders. Evaluation errors are logged with the step's timestamp and
// never abort the run.
func (e *BacktestEngineV1) applyStrategyOrders(symbol string, candle types.Candle) {
	for _, side := range []types.Side{types.SideLong, types.SideShort} {
		ctx := e.buildContext(side, candle)

		entries, err := e.strat.CalcEntries(side, symbol, ctx)
		if err != nil {
			e.log.Error("entry evaluation failed",
				zap.String("side", string(side)),
				zap.String("symbol", symbol),
				zap.Time("timestamp", candle.Time),
				zap.Error(err),
			)
		}

		for _, order := range entries {
			e.applyEntry(order, candle)
		}

		// Re-read the position so closes see same-step entries.
		ctx = e.buildContext(side, candle)

		closes, err := e.strat.CalcCloses(side, symbol, ctx)
		if err != nil {
			e.log.Error("close evaluation failed",
				zap.String("side", string(side)),
				zap.String("symbol", symbol),
				zap.Time("timestamp", candle.Time),
				zap.Error(err),
			)
		}

		for _, order := range closes {
			e.applyClose(side, order, candle)
		}
	}
}

// buildContext assembles the evaluation snapshot for one side.
func (e *BacktestEngineV1) buildContext(side types.Side, candle types.Candle) strategy.Context {
	size, entryPrice := e.state.SidePosition(side)

	return strategy.Context{
		Timestamp:     candle.Time,
		CurrentPrice:  candle.Close,
		Balance:       e.state.Balance(),
		PositionSize:  size,
		PositionPrice: entryPrice,
		Trailing:      e.trailing[side].State(),
		EMAMin:        e.ema[side].Value(),
	}
}

// fillPrice resolves whether and at what price an order executes at the
// current step. Market orders fill at the step price; limit orders fill at
// their limit price only once the step price has crossed it.
func fillPrice(order types.Order, price float64) (float64, bool) {
	switch order.OrderType {
	case types.OrderTypeMarketBuy, types.OrderTypeMarketSell:
		return price, true
	case types.OrderTypeLimitBuy:
		if price <= order.Price {
			return order.Price, true
		}
	case types.OrderTypeLimitSell:
		if price >= order.Price {
			return order.Price, true
		}
	}

	return 0, false
}

func (e *BacktestEngineV1) applyEntry(order types.Order, candle types.Candle) {
	if !e.strat.ValidateOrder(order) {
		e.log.Warn("rejecting malformed entry order",
			zap.Time("timestamp", candle.Time),
			zap.Float64("quantity", order.Quantity),
			zap.Float64("price", order.Price),
		)

		return
	}

	price, ok := fillPrice(order, candle.Close)
	if !ok {
		return
	}

	side := types.SideLong
	if order.Quantity < 0 {
		side = types.SideShort
	}

	order.OrderID = uuid.NewString()
	e.state.OpenPosition(side, optional.None[int](), order.Quantity, price,
		candle.Time, order.StrategyTag, order.Signal, order.OrderID)
	e.recordFill(order)
}

// applyClose reduces open positions on the given side by the order's
// quantity, earliest-opened first.
func (e *BacktestEngineV1) applyClose(side types.Side, order types.Order, candle types.Candle) {
	if !e.strat.ValidateOrder(order) {
		e.log.Warn("rejecting malformed close order",
			zap.Time("timestamp", candle.Time),
			zap.Float64("quantity", order.Quantity),
			zap.Float64("price", order.Price),
		)

		return
	}

	price, ok := fillPrice(order, candle.Close)
	if !ok {
		return
	}

	remaining := math.Abs(order.Quantity)
	if remaining < 1e-12 {
		return
	}

	order.OrderID = uuid.NewString()

	for _, pos := range e.state.positionsInCloseOrder() {
		if pos.Side != side || remaining < 1e-12 {
			continue
		}

		qty := math.Min(remaining, pos.Quantity)
		e.state.ClosePosition(pos, qty, price, candle.Time, order.StrategyTag, order.Signal, order.OrderID)
		remaining -= qty
	}

	e.recordFill(order)
}

func (e *BacktestEngineV1) recordFill(order types.Order) {
	e.pendingFills = append(e.pendingFills, order)
}

// syncTrailing keeps the per-side trackers aligned with open exposure: a
// tracker starts when its side gains exposure and clears when the side goes
// flat.
func (e *BacktestEngineV1) syncTrailing(price float64) {
	for _, side := range []types.Side{types.SideLong, types.SideShort} {
		exposed := false

		for _, p := range e.state.OpenPositions() {
			if p.Side == side {
				exposed = true

				break
			}
		}

		tracker := e.trailing[side]

		switch {
		case exposed && !tracker.Active():
			tracker.OnOpen(price)
		case !exposed && tracker.Active():
			tracker.OnClose()
		}
	}
}

// summarize builds the run summary with open positions marked to market at
// the final price.
func (e *BacktestEngineV1) summarize(lastPrice float64) *types.Summary {
	trades := e.state.Trades()
	summary := &types.Summary{
		InitialBalance:     e.cfg.Backtest.StartingBalance,
		TotalTrades:        len(trades),
		RemainingPositions: len(e.state.OpenPositions()),
		Insolvent:          e.state.Insolvent(),
		Trades:             trades,
	}

	for _, t := range trades {
		if t.Type == types.TradeTypeBuy {
			summary.BuyTrades++
		} else {
			summary.SellTrades++
		}

		summary.TotalProfit += t.Profit.TakeOr(0)
	}

	summary.UnrealizedValue = e.state.MarkToMarket(lastPrice)
	summary.FinalBalance = e.state.Balance() + summary.UnrealizedValue
	summary.TotalReturnPct = (summary.FinalBalance - summary.InitialBalance) / summary.InitialBalance * 100

	return summary
}
