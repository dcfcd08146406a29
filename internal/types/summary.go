package types

import "encoding/json"

// Summary aggregates one backtest run: balances, trade counts, realized
// profit and the full trade log. FinalBalance is marked to market at the last
// price; UnrealizedValue reports the open-position component separately.
type Summary struct {
	InitialBalance float64 `yaml:"initial_balance" json:"initial_balance"`
	FinalBalance   float64 `yaml:"final_balance" json:"final_balance"`
	TotalReturnPct float64 `yaml:"total_return_pct" json:"total_return_pct"`
	TotalTrades    int     `yaml:"total_trades" json:"total_trades"`
	BuyTrades      int     `yaml:"buy_trades" json:"buy_trades"`
	SellTrades     int     `yaml:"sell_trades" json:"sell_trades"`
	// TotalProfit is the sum of realized profit over close trades.
	TotalProfit float64 `yaml:"total_profit" json:"total_profit"`
	// UnrealizedValue is the mark-to-market cash value of positions still
	// open at the end of the run.
	UnrealizedValue    float64 `yaml:"unrealized_value" json:"unrealized_value"`
	RemainingPositions int     `yaml:"remaining_positions" json:"remaining_positions"`
	// Insolvent is set when any fill drove the balance negative. The run is
	// not aborted; the condition is surfaced here for the caller to observe.
	Insolvent bool    `yaml:"insolvent" json:"insolvent"`
	Trades    []Trade `yaml:"trades" json:"trades"`
}

// AsMap converts the summary to a plain nested mapping (string/number/bool/
// array/object only) for interchange with external reporting tools.
func (s *Summary) AsMap() (map[string]any, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}

	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}

	return out, nil
}
