// Package config defines the nested run configuration consumed by strategies
// and the simulation engine. Unknown keys are ignored on decode; missing keys
// fall back to the documented defaults.
package config

import (
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/rxtech-lab/argo-gridsim/pkg/errors"
)

// StrategyParams configures indicator-driven strategies such as the moving
// average crossover.
type StrategyParams struct {
	// FastPeriod must be strictly smaller than SlowPeriod.
	FastPeriod int `yaml:"fast_period" json:"fast_period" validate:"gt=0" jsonschema:"title=Fast Period,minimum=1"`
	SlowPeriod int `yaml:"slow_period" json:"slow_period" validate:"gt=0,gtfield=FastPeriod" jsonschema:"title=Slow Period,minimum=2"`
	// PositionSize is the fraction of balance committed per entry.
	PositionSize  float64 `yaml:"position_size" json:"position_size" validate:"gt=0,lte=1" jsonschema:"title=Position Size"`
	StopLossPct   float64 `yaml:"stop_loss_pct" json:"stop_loss_pct" validate:"gte=0" jsonschema:"title=Stop Loss Pct"`
	TakeProfitPct float64 `yaml:"take_profit_pct" json:"take_profit_pct" validate:"gte=0" jsonschema:"title=Take Profit Pct"`
}

// StrategyConfig names the strategy to load and its parameters.
type StrategyConfig struct {
	Name   string         `yaml:"name" json:"name" jsonschema:"title=Strategy Name"`
	Params StrategyParams `yaml:"params" json:"params"`
}

// GridParams configures one side of the grid + trailing strategy. Field names
// mirror the wire contract of the external order-generation kernel.
type GridParams struct {
	EntryGridSpacingPct          float64 `yaml:"entry_grid_spacing_pct" json:"entry_grid_spacing_pct" validate:"gte=0" jsonschema:"title=Entry Grid Spacing Pct"`
	EntryGridSpacingWeight       float64 `yaml:"entry_grid_spacing_weight" json:"entry_grid_spacing_weight" validate:"gte=0"`
	EntryGridDoubleDownFactor    float64 `yaml:"entry_grid_double_down_factor" json:"entry_grid_double_down_factor" validate:"gte=0"`
	EntryInitialQtyPct           float64 `yaml:"entry_initial_qty_pct" json:"entry_initial_qty_pct" validate:"gte=0,lte=1"`
	EntryInitialEMADist          float64 `yaml:"entry_initial_ema_dist" json:"entry_initial_ema_dist"`
	EntryTrailingGridRatio       float64 `yaml:"entry_trailing_grid_ratio" json:"entry_trailing_grid_ratio" validate:"gte=-1,lte=1"`
	EntryTrailingThresholdPct    float64 `yaml:"entry_trailing_threshold_pct" json:"entry_trailing_threshold_pct" validate:"gte=0"`
	EntryTrailingRetracementPct  float64 `yaml:"entry_trailing_retracement_pct" json:"entry_trailing_retracement_pct" validate:"gte=0"`
	EntryTrailingDoubleDownFactor float64 `yaml:"entry_trailing_double_down_factor" json:"entry_trailing_double_down_factor" validate:"gte=0"`
	WalletExposureLimit          float64 `yaml:"wallet_exposure_limit" json:"wallet_exposure_limit" validate:"gte=0"`
	CloseGridMarkupStart         float64 `yaml:"close_grid_markup_start" json:"close_grid_markup_start" validate:"gte=0"`
	CloseGridMarkupEnd           float64 `yaml:"close_grid_markup_end" json:"close_grid_markup_end" validate:"gte=0"`
	CloseGridQtyPct              float64 `yaml:"close_grid_qty_pct" json:"close_grid_qty_pct" validate:"gte=0,lte=1"`
	CloseTrailingGridRatio       float64 `yaml:"close_trailing_grid_ratio" json:"close_trailing_grid_ratio" validate:"gte=-1,lte=1"`
	CloseTrailingQtyPct          float64 `yaml:"close_trailing_qty_pct" json:"close_trailing_qty_pct" validate:"gte=0,lte=1"`
	CloseTrailingThresholdPct    float64 `yaml:"close_trailing_threshold_pct" json:"close_trailing_threshold_pct" validate:"gte=0"`
	CloseTrailingRetracementPct  float64 `yaml:"close_trailing_retracement_pct" json:"close_trailing_retracement_pct" validate:"gte=0"`
	NPositions                   int     `yaml:"n_positions" json:"n_positions" validate:"gte=0"`
	EMASpan                      int     `yaml:"ema_span" json:"ema_span" validate:"gte=0"`
}

// BotConfig holds the per-side grid parameters.
type BotConfig struct {
	Long  GridParams `yaml:"long" json:"long"`
	Short GridParams `yaml:"short" json:"short"`
}

// ExchangeRules carries the venue rounding rules forwarded to the kernel.
// Zero step values disable rounding.
type ExchangeRules struct {
	QtyStep   float64 `yaml:"qty_step" json:"qty_step" validate:"gte=0"`
	PriceStep float64 `yaml:"price_step" json:"price_step" validate:"gte=0"`
	MinQty    float64 `yaml:"min_qty" json:"min_qty" validate:"gte=0"`
	MinCost   float64 `yaml:"min_cost" json:"min_cost" validate:"gte=0"`
	// CMult is the contract multiplier, 1 for spot.
	CMult float64 `yaml:"c_mult" json:"c_mult" validate:"gte=0"`
}

// BacktestConfig configures a simulation run.
type BacktestConfig struct {
	StartingBalance float64 `yaml:"starting_balance" json:"starting_balance" jsonschema:"title=Starting Balance,minimum=0"`
	Symbol          string  `yaml:"symbol" json:"symbol" jsonschema:"title=Symbol"`
}

// Config is the top-level nested configuration.
type Config struct {
	Strategy StrategyConfig `yaml:"strategy" json:"strategy"`
	Bot      BotConfig      `yaml:"bot" json:"bot"`
	Exchange ExchangeRules  `yaml:"exchange" json:"exchange"`
	Backtest BacktestConfig `yaml:"backtest" json:"backtest"`
}

// DefaultStrategyParams returns the documented fallbacks for indicator
// strategies.
func DefaultStrategyParams() StrategyParams {
	return StrategyParams{
		FastPeriod:    10,
		SlowPeriod:    20,
		PositionSize:  0.1,
		StopLossPct:   0.02,
		TakeProfitPct: 0.04,
	}
}

// DefaultGridParams returns the documented fallbacks for one grid side.
func DefaultGridParams() GridParams {
	return GridParams{
		EntryGridSpacingPct:       0.01,
		EntryGridSpacingWeight:    0,
		EntryGridDoubleDownFactor: 1,
		EntryInitialQtyPct:        0.1,
		CloseGridMarkupStart:      0.005,
		CloseGridMarkupEnd:        0.005,
		CloseGridQtyPct:           1,
		NPositions:                5,
	}
}

// DefaultConfig returns a fully-populated configuration with defaults.
func DefaultConfig() Config {
	return Config{
		Strategy: StrategyConfig{
			Name:   "ma_crossover",
			Params: DefaultStrategyParams(),
		},
		Bot: BotConfig{
			Long:  DefaultGridParams(),
			Short: DefaultGridParams(),
		},
		Exchange: ExchangeRules{
			CMult: 1,
		},
		Backtest: BacktestConfig{
			StartingBalance: 10000,
			Symbol:          "BTCUSDT",
		},
	}
}

// Parse decodes a YAML document over the defaults. Keys absent from the
// document keep their default values; unknown keys are ignored.
func Parse(raw []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config", err)
	}

	return cfg, nil
}

var configValidator = validator.New()

// Validate checks structural constraints on the configuration.
func (c *Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid configuration", err)
	}

	return nil
}
