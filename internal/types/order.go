package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"

	"github.com/rxtech-lab/argo-gridsim/pkg/errors"
)

// OrderType identifies how an order is executed.
type OrderType string

const (
	OrderTypeMarketBuy  OrderType = "market_buy"
	OrderTypeMarketSell OrderType = "market_sell"
	OrderTypeLimitBuy   OrderType = "limit_buy"
	OrderTypeLimitSell  OrderType = "limit_sell"
)

// IsBuy reports whether the order type increases long exposure.
func (t OrderType) IsBuy() bool {
	return t == OrderTypeMarketBuy || t == OrderTypeLimitBuy
}

// IsMarket reports whether the order executes at the current price.
func (t OrderType) IsMarket() bool {
	return t == OrderTypeMarketBuy || t == OrderTypeMarketSell
}

// Signal labels attached by strategies to the orders they emit.
const (
	SignalGoldenCross      string = "golden_cross"
	SignalDeathCross       string = "death_cross"
	SignalGoldenCrossClose string = "golden_cross_close"
	SignalDeathCrossClose  string = "death_cross_close"
	SignalStopLoss         string = "stop_loss"
	SignalTakeProfit       string = "take_profit"
)

// Order is a single entry or close instruction produced by a strategy.
// The sign of Quantity encodes direction: positive increases long exposure,
// negative increases short exposure or reduces a long.
type Order struct {
	// OrderID is assigned by the simulation engine when the order is accepted.
	OrderID     string                  `yaml:"order_id" json:"order_id" csv:"order_id"`
	Quantity    float64                 `yaml:"quantity" json:"quantity" csv:"quantity" validate:"required"`
	Price       float64                 `yaml:"price" json:"price" csv:"price" validate:"required,gt=0"`
	OrderType   OrderType               `yaml:"order_type" json:"order_type" csv:"order_type" validate:"required,oneof=market_buy market_sell limit_buy limit_sell"`
	StrategyTag string                  `yaml:"strategy" json:"strategy" csv:"strategy" validate:"required"`
	Signal      optional.Option[string] `yaml:"signal,omitempty" json:"signal,omitempty" csv:"signal"`
	Timestamp   time.Time               `yaml:"timestamp" json:"timestamp" csv:"timestamp"`
}

var orderValidator = validator.New()

// Validate checks that quantity, price and order type are present and
// well-formed. A zero quantity or non-positive price is rejected.
func (o *Order) Validate() error {
	if err := orderValidator.Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrder, "invalid order", err)
	}

	return nil
}
