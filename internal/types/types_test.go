package types

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-gridsim/pkg/errors"
)

type TypesTestSuite struct {
	suite.Suite
}

func TestTypesSuite(t *testing.T) {
	suite.Run(t, new(TypesTestSuite))
}

func (s *TypesTestSuite) validOrder() Order {
	return Order{
		Quantity:    0.5,
		Price:       100,
		OrderType:   OrderTypeMarketBuy,
		StrategyTag: "test",
		Timestamp:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *TypesTestSuite) TestOrderValidation() {
	order := s.validOrder()
	s.NoError(order.Validate())

	tests := []struct {
		name   string
		mutate func(*Order)
	}{
		{name: "zero quantity", mutate: func(o *Order) { o.Quantity = 0 }},
		{name: "non-positive price", mutate: func(o *Order) { o.Price = 0 }},
		{name: "missing order type", mutate: func(o *Order) { o.OrderType = "" }},
		{name: "unknown order type", mutate: func(o *Order) { o.OrderType = "stop_limit" }},
		{name: "missing strategy tag", mutate: func(o *Order) { o.StrategyTag = "" }},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			bad := s.validOrder()
			tc.mutate(&bad)

			err := bad.Validate()
			s.Require().Error(err)
			s.True(errors.HasCode(err, errors.ErrCodeInvalidOrder))
		})
	}
}

func (s *TypesTestSuite) TestNegativeQuantityIsValid() {
	order := s.validOrder()
	order.Quantity = -0.5
	order.OrderType = OrderTypeMarketSell

	s.NoError(order.Validate())
}

func (s *TypesTestSuite) TestOrderTypePredicates() {
	s.True(OrderTypeMarketBuy.IsBuy())
	s.True(OrderTypeLimitBuy.IsBuy())
	s.False(OrderTypeMarketSell.IsBuy())
	s.True(OrderTypeMarketSell.IsMarket())
	s.False(OrderTypeLimitSell.IsMarket())
}

func (s *TypesTestSuite) TestSideOpposite() {
	s.Equal(SideShort, SideLong.Opposite())
	s.Equal(SideLong, SideShort.Opposite())
}

func (s *TypesTestSuite) TestPositionMarkToMarket() {
	long := Position{Side: SideLong, Quantity: 2, EntryPrice: 100}
	s.InDelta(220, long.MarkToMarket(110), 1e-9)
	s.InDelta(20, long.UnrealizedProfit(110), 1e-9)

	short := Position{Side: SideShort, Quantity: 2, EntryPrice: 100}
	s.InDelta(-220, short.MarkToMarket(110), 1e-9)
	s.InDelta(-20, short.UnrealizedProfit(110), 1e-9)
}

func (s *TypesTestSuite) TestSignedQuantity() {
	long := Position{Side: SideLong, Quantity: 2}
	short := Position{Side: SideShort, Quantity: 2}

	s.InDelta(2, long.SignedQuantity(), 1e-9)
	s.InDelta(-2, short.SignedQuantity(), 1e-9)
}

func (s *TypesTestSuite) TestSummaryAsMap() {
	summary := Summary{
		InitialBalance: 1000,
		FinalBalance:   1100,
		TotalTrades:    1,
		Trades: []Trade{{
			Type:      TradeTypeBuy,
			Price:     100,
			Quantity:  1,
			Profit:    optional.None[float64](),
			GridIndex: optional.Some(2),
		}},
	}

	m, err := summary.AsMap()
	s.Require().NoError(err)
	s.Equal(float64(1100), m["final_balance"])

	trades, ok := m["trades"].([]any)
	s.Require().True(ok)
	s.Len(trades, 1)
}
