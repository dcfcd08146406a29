package types

import (
	"time"

	"github.com/moznion/go-optional"
)

// TradeType is the direction of a fill.
type TradeType string

const (
	TradeTypeBuy  TradeType = "buy"
	TradeTypeSell TradeType = "sell"
)

// Trade is an immutable ledger record appended once per fill. Close fills
// carry a realized Profit; entry fills do not.
type Trade struct {
	Type      TradeType `yaml:"type" json:"type" csv:"type"`
	Price     float64   `yaml:"price" json:"price" csv:"price"`
	Quantity  float64   `yaml:"qty" json:"qty" csv:"qty"`
	Timestamp time.Time `yaml:"timestamp" json:"timestamp" csv:"timestamp"`
	// BalanceAfter is the account balance immediately after this fill.
	BalanceAfter float64                  `yaml:"balance" json:"balance" csv:"balance"`
	Profit       optional.Option[float64] `yaml:"profit,omitempty" json:"profit,omitempty" csv:"profit"`
	// GridIndex is set for fills triggered by a grid level.
	GridIndex   optional.Option[int] `yaml:"grid_index,omitempty" json:"grid_index,omitempty" csv:"grid_index"`
	OrderID     string               `yaml:"order_id" json:"order_id" csv:"order_id"`
	StrategyTag string               `yaml:"strategy" json:"strategy" csv:"strategy"`
	Signal      optional.Option[string] `yaml:"signal,omitempty" json:"signal,omitempty" csv:"signal"`
}
