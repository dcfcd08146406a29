package engine

import (
	"math"
	"time"

	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-gridsim/internal/logger"
	"github.com/rxtech-lab/argo-gridsim/internal/types"
)

// SimulationState is the balance, position book and trade ledger for one run.
// It is owned exclusively by the engine for the duration of the run and reset
// at run start. Positions are kept in open order so close processing is
// deterministic: earliest-opened first, ties broken by grid index ascending.
type SimulationState struct {
	balance   float64
	insolvent bool
	positions []*types.Position
	trades    []types.Trade
	logger    *logger.Logger
}

// NewSimulationState creates an empty state.
func NewSimulationState(log *logger.Logger) *SimulationState {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &SimulationState{
		logger: log,
	}
}

// Reset destroys all run state and seeds the balance.
func (s *SimulationState) Reset(balance float64) {
	s.balance = balance
	s.insolvent = false
	s.positions = nil
	s.trades = nil
}

// Balance returns the current cash balance.
func (s *SimulationState) Balance() float64 {
	return s.balance
}

// Insolvent reports whether any fill drove the balance negative.
func (s *SimulationState) Insolvent() bool {
	return s.insolvent
}

// Trades returns the trade ledger in append order.
func (s *SimulationState) Trades() []types.Trade {
	return s.trades
}

// OpenPositions returns snapshots of the open positions in open order.
func (s *SimulationState) OpenPositions() []types.Position {
	out := make([]types.Position, len(s.positions))
	for i, p := range s.positions {
		out[i] = *p
	}

	return out
}

// IsLevelOccupied reports whether an open position carries the given grid index.
func (s *SimulationState) IsLevelOccupied(index int) bool {
	for _, p := range s.positions {
		if p.GridIndex.IsSome() && p.GridIndex.Unwrap() == index {
			return true
		}
	}

	return false
}

// SidePosition aggregates the open exposure on one side, excluding
// grid-indexed positions. It returns the signed size and the average entry
// price.
func (s *SimulationState) SidePosition(side types.Side) (size float64, entryPrice float64) {
	var qty, cost float64

	for _, p := range s.positions {
		if p.Side != side || p.GridIndex.IsSome() {
			continue
		}

		qty += p.Quantity
		cost += p.Quantity * p.EntryPrice
	}

	if qty == 0 {
		return 0, 0
	}

	size = qty
	if side == types.SideShort {
		size = -qty
	}

	return size, cost / qty
}

// debitOrCredit applies the cash delta of a fill and records insolvency when
// the balance goes negative. The balance is never clamped; a negative value
// stays observable.
func (s *SimulationState) debitOrCredit(delta float64, ts time.Time) {
	s.balance += delta
	if s.balance < 0 && !s.insolvent {
		s.insolvent = true
		s.logger.Warn("balance went negative",
			zap.Float64("balance", s.balance),
			zap.Time("timestamp", ts),
		)
	}
}

// OpenPosition opens or extends a position for an entry fill of the given
// signed quantity and appends the entry trade. The balance moves by
// -quantity*price: a buy debits cash, a sell (negative quantity) credits it.
func (s *SimulationState) OpenPosition(side types.Side, gridIndex optional.Option[int], quantity, price float64, ts time.Time, tag string, signal optional.Option[string], orderID string) types.Trade {
	s.debitOrCredit(-quantity*price, ts)

	magnitude := math.Abs(quantity)

	var target *types.Position

	if gridIndex.IsNone() {
		// Side positions aggregate; grid positions stay one per level.
		for _, p := range s.positions {
			if p.Side == side && p.GridIndex.IsNone() {
				target = p

				break
			}
		}
	}

	if target != nil {
		newQty := target.Quantity + magnitude
		target.EntryPrice = (target.EntryPrice*target.Quantity + price*magnitude) / newQty
		target.Quantity = newQty
	} else {
		s.positions = append(s.positions, &types.Position{
			Side:          side,
			Quantity:      magnitude,
			EntryPrice:    price,
			GridIndex:     gridIndex,
			OpenTimestamp: ts,
			StrategyTag:   tag,
		})
	}

	tradeType := types.TradeTypeBuy
	if quantity < 0 {
		tradeType = types.TradeTypeSell
	}

	trade := types.Trade{
		Type:         tradeType,
		Price:        price,
		Quantity:     magnitude,
		Timestamp:    ts,
		BalanceAfter: s.balance,
		GridIndex:    gridIndex,
		OrderID:      orderID,
		StrategyTag:  tag,
		Signal:       signal,
	}
	s.trades = append(s.trades, trade)

	return trade
}

// ClosePosition closes up to quantity of the given position at price,
// realizes the profit, appends the close trade and removes the position when
// fully closed. The quantity is a magnitude.
func (s *SimulationState) ClosePosition(pos *types.Position, quantity, price float64, ts time.Time, tag string, signal optional.Option[string], orderID string) types.Trade {
	if quantity > pos.Quantity {
		quantity = pos.Quantity
	}

	var profit, cashDelta float64

	if pos.Side == types.SideShort {
		profit = quantity * (pos.EntryPrice - price)
		cashDelta = -quantity * price
	} else {
		profit = quantity * (price - pos.EntryPrice)
		cashDelta = quantity * price
	}

	s.debitOrCredit(cashDelta, ts)

	tradeType := types.TradeTypeSell
	if pos.Side == types.SideShort {
		tradeType = types.TradeTypeBuy
	}

	trade := types.Trade{
		Type:         tradeType,
		Price:        price,
		Quantity:     quantity,
		Timestamp:    ts,
		BalanceAfter: s.balance,
		Profit:       optional.Some(profit),
		GridIndex:    pos.GridIndex,
		OrderID:      orderID,
		StrategyTag:  tag,
		Signal:       signal,
	}
	s.trades = append(s.trades, trade)

	pos.Quantity -= quantity
	if pos.Quantity < 1e-12 {
		s.removePosition(pos)
	}

	return trade
}

func (s *SimulationState) removePosition(pos *types.Position) {
	for i, p := range s.positions {
		if p == pos {
			s.positions = append(s.positions[:i], s.positions[i+1:]...)

			return
		}
	}
}

// positionsInCloseOrder returns the open positions earliest-opened first,
// with ties broken by ascending grid index. Since positions are appended in
// open order and same-step grid fills are processed by ascending index, the
// stored order already satisfies this; the accessor documents the guarantee.
func (s *SimulationState) positionsInCloseOrder() []*types.Position {
	out := make([]*types.Position, len(s.positions))
	copy(out, s.positions)

	return out
}

// MarkToMarket returns the cash value of closing all open positions at the
// given price, without realizing any trade.
func (s *SimulationState) MarkToMarket(price float64) float64 {
	total := 0.0
	for _, p := range s.positions {
		total += p.MarkToMarket(price)
	}

	return total
}
