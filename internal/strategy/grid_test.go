package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-gridsim/internal/config"
	"github.com/rxtech-lab/argo-gridsim/internal/kernel"
	"github.com/rxtech-lab/argo-gridsim/internal/types"
	"github.com/rxtech-lab/argo-gridsim/pkg/errors"
)

// stubKernel records the inputs it receives and plays back canned results.
type stubKernel struct {
	entries    []kernel.RawOrder
	closes     []kernel.RawOrder
	err        error
	panicValue any

	lastEntryInputs kernel.EntryInputs
	lastCloseInputs kernel.CloseInputs
}

func (k *stubKernel) CalcEntries(in kernel.EntryInputs) ([]kernel.RawOrder, error) {
	k.lastEntryInputs = in

	if k.panicValue != nil {
		panic(k.panicValue)
	}

	return k.entries, k.err
}

func (k *stubKernel) CalcCloses(in kernel.CloseInputs) ([]kernel.RawOrder, error) {
	k.lastCloseInputs = in

	if k.panicValue != nil {
		panic(k.panicValue)
	}

	return k.closes, k.err
}

type GridStrategyTestSuite struct {
	suite.Suite
	kernel   *stubKernel
	strategy *GridStrategy
	ctx      Context
}

func TestGridStrategySuite(t *testing.T) {
	suite.Run(t, new(GridStrategyTestSuite))
}

func (s *GridStrategyTestSuite) SetupTest() {
	cfg := config.DefaultConfig()
	cfg.Bot.Long.WalletExposureLimit = 1
	cfg.Exchange = config.ExchangeRules{
		QtyStep:   0.001,
		PriceStep: 0.1,
		MinQty:    0.001,
		MinCost:   10,
		CMult:     1,
	}

	s.kernel = &stubKernel{}

	strat, err := NewGridStrategyWithKernel(cfg, nil, s.kernel)
	s.Require().NoError(err)

	s.strategy = strat
	s.ctx = Context{
		Timestamp:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		CurrentPrice:  50000,
		Balance:       10000,
		PositionSize:  0.2,
		PositionPrice: 49000,
		EMAMin:        49800,
	}
}

func (s *GridStrategyTestSuite) TestNilKernelRejected() {
	_, err := NewGridStrategyWithKernel(config.DefaultConfig(), nil, nil)
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (s *GridStrategyTestSuite) TestEntryInputsAssembledFromConfigAndContext() {
	_, err := s.strategy.CalcEntries(types.SideLong, testSymbol, s.ctx)
	s.Require().NoError(err)

	in := s.kernel.lastEntryInputs
	s.Equal(0.001, in.Rules.QtyStep)
	s.Equal(0.1, in.Rules.PriceStep)
	s.Equal(10.0, in.Rules.MinCost)
	s.Equal(0.01, in.GridSpacingPct)
	s.Equal(1.0, in.WalletExposureLimit)
	s.Equal(10000.0, in.Balance)
	s.Equal(0.2, in.PositionSize)
	s.Equal(49000.0, in.PositionPrice)
	s.Equal(49800.0, in.EMAMin)
	s.Equal(50000.0, in.CurrentPrice)
	s.Equal(types.SideLong, in.Side)
}

func (s *GridStrategyTestSuite) TestCloseInputsAssembledFromConfigAndContext() {
	_, err := s.strategy.CalcCloses(types.SideLong, testSymbol, s.ctx)
	s.Require().NoError(err)

	in := s.kernel.lastCloseInputs
	s.Equal(0.005, in.GridMarkupStart)
	s.Equal(0.005, in.GridMarkupEnd)
	s.Equal(1.0, in.GridQtyPct)
	s.Equal(0.2, in.PositionSize)
	s.Equal(types.SideLong, in.Side)
}

func (s *GridStrategyTestSuite) TestOrdersValidatedAndTagged() {
	s.kernel.entries = []kernel.RawOrder{
		{Qty: 0.1, Price: 49500, OrderType: types.OrderTypeLimitBuy},
		{Qty: 0.2, Price: 49005, OrderType: types.OrderTypeLimitBuy},
	}

	orders, err := s.strategy.CalcEntries(types.SideLong, testSymbol, s.ctx)
	s.Require().NoError(err)
	s.Require().Len(orders, 2)

	for _, order := range orders {
		s.Equal(StrategyNameDefault, order.StrategyTag)
		s.Equal(s.ctx.Timestamp, order.Timestamp)
		s.NoError(order.Validate())
	}

	s.Equal(49500.0, orders[0].Price)
	s.Equal(49005.0, orders[1].Price)
}

func (s *GridStrategyTestSuite) TestMalformedOrdersDropped() {
	s.kernel.entries = []kernel.RawOrder{
		{Qty: 0.1, Price: 49500, OrderType: types.OrderTypeLimitBuy},
		{Qty: 0, Price: 49000, OrderType: types.OrderTypeLimitBuy},
		{Qty: 0.1, Price: -1, OrderType: types.OrderTypeLimitBuy},
		{Qty: 0.1, Price: 48500, OrderType: "stop_limit"},
	}

	orders, err := s.strategy.CalcEntries(types.SideLong, testSymbol, s.ctx)
	s.Require().NoError(err)
	s.Require().Len(orders, 1)
	s.Equal(49500.0, orders[0].Price)
}

func (s *GridStrategyTestSuite) TestKernelErrorFailsSoft() {
	s.kernel.err = errors.New(errors.ErrCodeKernelFailure, "boom")

	orders, err := s.strategy.CalcEntries(types.SideLong, testSymbol, s.ctx)
	s.NoError(err)
	s.Empty(orders)

	orders, err = s.strategy.CalcCloses(types.SideLong, testSymbol, s.ctx)
	s.NoError(err)
	s.Empty(orders)
}

func (s *GridStrategyTestSuite) TestKernelPanicFailsSoft() {
	s.kernel.panicValue = "index out of range"

	orders, err := s.strategy.CalcEntries(types.SideLong, testSymbol, s.ctx)
	s.NoError(err)
	s.Empty(orders)
}

func (s *GridStrategyTestSuite) TestShortSideUsesShortParams() {
	cfg := config.DefaultConfig()
	cfg.Bot.Short.EntryGridSpacingPct = 0.02
	cfg.Bot.Short.WalletExposureLimit = 0.5

	strat, err := NewGridStrategyWithKernel(cfg, nil, s.kernel)
	s.Require().NoError(err)

	_, err = strat.CalcEntries(types.SideShort, testSymbol, s.ctx)
	s.Require().NoError(err)

	s.Equal(0.02, s.kernel.lastEntryInputs.GridSpacingPct)
	s.Equal(0.5, s.kernel.lastEntryInputs.WalletExposureLimit)
}

func (s *GridStrategyTestSuite) TestUsesGridLadder() {
	s.True(s.strategy.UsesGridLadder())
}
