package types

import "time"

// Side identifies which side of the book a position or order ladder works.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideLong {
		return SideShort
	}

	return SideLong
}

// Candle is a single OHLCV observation. The engine consumes candles in
// strictly non-decreasing time order; only Close and Time drive the core
// strategies here.
type Candle struct {
	Time   time.Time `yaml:"time" json:"time" csv:"time"`
	Symbol string    `yaml:"symbol" json:"symbol" csv:"symbol"`
	Open   float64   `yaml:"open" json:"open" csv:"open"`
	High   float64   `yaml:"high" json:"high" csv:"high"`
	Low    float64   `yaml:"low" json:"low" csv:"low"`
	Close  float64   `yaml:"close" json:"close" csv:"close"`
	Volume float64   `yaml:"volume" json:"volume" csv:"volume"`
}
