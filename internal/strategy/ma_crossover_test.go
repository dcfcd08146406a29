package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-gridsim/internal/config"
	"github.com/rxtech-lab/argo-gridsim/internal/indicator"
	"github.com/rxtech-lab/argo-gridsim/internal/types"
	"github.com/rxtech-lab/argo-gridsim/pkg/errors"
)

const testSymbol = "BTCUSDT"

type MACrossoverTestSuite struct {
	suite.Suite
	strategy *MovingAverageCrossover
	base     time.Time
}

func TestMACrossoverSuite(t *testing.T) {
	suite.Run(t, new(MACrossoverTestSuite))
}

func (s *MACrossoverTestSuite) SetupTest() {
	cfg := config.DefaultConfig()
	cfg.Strategy.Params = config.StrategyParams{
		FastPeriod:    2,
		SlowPeriod:    3,
		PositionSize:  0.1,
		StopLossPct:   0.02,
		TakeProfitPct: 0.04,
	}

	strat, err := NewMovingAverageCrossover(cfg, nil)
	s.Require().NoError(err)

	s.strategy = strat
	s.base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
}

// feed pushes prices through the market data hook at one-minute steps.
func (s *MACrossoverTestSuite) feed(prices ...float64) {
	for i, p := range prices {
		s.strategy.OnMarketDataUpdate(testSymbol, types.Candle{
			Time:   s.base.Add(time.Duration(i) * time.Minute),
			Symbol: testSymbol,
			Close:  p,
		})
	}
}

// ctxAt builds an evaluation context one step after the fed history.
func (s *MACrossoverTestSuite) ctxAt(price float64, fed int) Context {
	return Context{
		Timestamp:    s.base.Add(time.Duration(fed) * time.Minute),
		CurrentPrice: price,
		Balance:      10000,
	}
}

func (s *MACrossoverTestSuite) TestConstructorRejectsBadPeriods() {
	tests := []struct {
		name string
		fast int
		slow int
	}{
		{name: "fast equals slow", fast: 3, slow: 3},
		{name: "fast above slow", fast: 5, slow: 3},
		{name: "non-positive fast", fast: 0, slow: 3},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			cfg := config.DefaultConfig()
			cfg.Strategy.Params.FastPeriod = tc.fast
			cfg.Strategy.Params.SlowPeriod = tc.slow

			_, err := NewMovingAverageCrossover(cfg, nil)
			s.Require().Error(err)
			s.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
		})
	}
}

func (s *MACrossoverTestSuite) TestNoEntriesWithInsufficientHistory() {
	s.feed(100)

	orders, err := s.strategy.CalcEntries(types.SideLong, testSymbol, s.ctxAt(101, 1))
	s.Require().NoError(err)
	s.Empty(orders)
}

func (s *MACrossoverTestSuite) TestGoldenCrossLongEntry() {
	s.feed(100, 100, 100)

	ctx := s.ctxAt(101, 3)
	orders, err := s.strategy.CalcEntries(types.SideLong, testSymbol, ctx)
	s.Require().NoError(err)
	s.Require().Len(orders, 1)

	order := orders[0]
	s.Equal(types.OrderTypeMarketBuy, order.OrderType)
	s.InDelta(10000*0.1/101, order.Quantity, 1e-9)
	s.Equal(types.SignalGoldenCross, order.Signal.Unwrap())
	s.Equal(StrategyNameMACrossover, order.StrategyTag)
}

func (s *MACrossoverTestSuite) TestDeathCrossShortEntry() {
	s.feed(100, 100, 100)

	orders, err := s.strategy.CalcEntries(types.SideShort, testSymbol, s.ctxAt(99, 3))
	s.Require().NoError(err)
	s.Require().Len(orders, 1)

	s.Equal(types.OrderTypeMarketSell, orders[0].OrderType)
	s.Negative(orders[0].Quantity)
	s.Equal(types.SignalDeathCross, orders[0].Signal.Unwrap())
}

func (s *MACrossoverTestSuite) TestGoldenCrossIgnoredOnShortSide() {
	s.feed(100, 100, 100)

	orders, err := s.strategy.CalcEntries(types.SideShort, testSymbol, s.ctxAt(101, 3))
	s.Require().NoError(err)
	s.Empty(orders)
}

func (s *MACrossoverTestSuite) TestTakeProfitClosesFullLongPosition() {
	s.feed(100, 100, 100)

	ctx := s.ctxAt(104.5, 3)
	ctx.PositionSize = 2.5
	ctx.PositionPrice = 100

	orders, err := s.strategy.CalcCloses(types.SideLong, testSymbol, ctx)
	s.Require().NoError(err)
	s.Require().Len(orders, 1)

	order := orders[0]
	s.Equal(types.OrderTypeMarketSell, order.OrderType)
	s.InDelta(-2.5, order.Quantity, 1e-9)
	s.Equal(types.SignalTakeProfit, order.Signal.Unwrap())
}

func (s *MACrossoverTestSuite) TestStopLossClosesLongPosition() {
	// Flat history high above the entry keeps the averages from crossing
	// while the price sits under the stop.
	s.feed(100, 100, 100, 100, 100)

	ctx := s.ctxAt(97.9, 5)
	ctx.PositionSize = 1
	ctx.PositionPrice = 100

	// 97.9 under 100 triggers a death cross as well; signal wins.
	orders, err := s.strategy.CalcCloses(types.SideLong, testSymbol, ctx)
	s.Require().NoError(err)
	s.Require().Len(orders, 1)
	s.Equal(types.SignalDeathCrossClose, orders[0].Signal.Unwrap())
}

func (s *MACrossoverTestSuite) TestStopLossWithoutCrossSignal() {
	// Descending history keeps fast under slow on both observations, so no
	// fresh death cross fires and the stop-loss label applies.
	s.feed(100, 99.8, 99.6, 99.4)

	ctx := s.ctxAt(97.9, 4)
	ctx.PositionSize = 1
	ctx.PositionPrice = 100

	orders, err := s.strategy.CalcCloses(types.SideLong, testSymbol, ctx)
	s.Require().NoError(err)
	s.Require().Len(orders, 1)
	s.Equal(types.SignalStopLoss, orders[0].Signal.Unwrap())
}

func (s *MACrossoverTestSuite) TestShortTakeProfit() {
	s.feed(100, 100, 100)

	ctx := s.ctxAt(96, 3)
	ctx.PositionSize = -1.5
	ctx.PositionPrice = 100

	orders, err := s.strategy.CalcCloses(types.SideShort, testSymbol, ctx)
	s.Require().NoError(err)
	s.Require().Len(orders, 1)

	order := orders[0]
	s.Equal(types.OrderTypeMarketBuy, order.OrderType)
	s.InDelta(1.5, order.Quantity, 1e-9)
	s.Equal(types.SignalTakeProfit, order.Signal.Unwrap())
}

func (s *MACrossoverTestSuite) TestNoCloseWithoutPosition() {
	s.feed(100, 100, 100)

	orders, err := s.strategy.CalcCloses(types.SideLong, testSymbol, s.ctxAt(104.5, 3))
	s.Require().NoError(err)
	s.Empty(orders)
}

func (s *MACrossoverTestSuite) TestHistoryDeduplicatesHookAndEvaluation() {
	ts := s.base
	s.strategy.OnMarketDataUpdate(testSymbol, types.Candle{Time: ts, Close: 100})

	ctx := Context{Timestamp: ts, CurrentPrice: 100, Balance: 10000}
	_, err := s.strategy.CalcEntries(types.SideLong, testSymbol, ctx)
	s.Require().NoError(err)

	s.Equal(1, s.strategy.GetStrategyStatus(testSymbol).PriceCount)
}

func (s *MACrossoverTestSuite) TestStrategyStatus() {
	status := s.strategy.GetStrategyStatus(testSymbol)
	s.Equal(StatusInsufficientData, status.Status)
	s.Equal(0, status.PriceCount)

	s.feed(100, 100, 101)

	status = s.strategy.GetStrategyStatus(testSymbol)
	s.Equal(StatusActive, status.Status)
	s.Equal(3, status.PriceCount)
	s.InDelta(100.5, status.FastMA, 1e-9)
	s.InDelta(100.333333333, status.SlowMA, 1e-6)
	s.Equal(indicator.CrossoverNone, status.Signal)

	// Diagnostic only: repeated calls must not mutate history.
	s.Equal(status, s.strategy.GetStrategyStatus(testSymbol))
}
