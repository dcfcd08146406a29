package indicator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type IndicatorTestSuite struct {
	suite.Suite
}

func TestIndicatorSuite(t *testing.T) {
	suite.Run(t, new(IndicatorTestSuite))
}

func (s *IndicatorTestSuite) TestPriceHistoryTruncatesToCapacity() {
	h := NewPriceHistory(3)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		h.Append(base.Add(time.Duration(i)*time.Minute), float64(i))
	}

	s.Equal(3, h.Len())
	s.Equal([]float64{2, 3, 4}, h.Prices())
}

func (s *IndicatorTestSuite) TestPriceHistoryDeduplicatesTimestamp() {
	h := NewPriceHistory(10)
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	h.Append(ts, 100)
	h.Append(ts, 101)
	h.Append(ts.Add(time.Minute), 102)

	s.Equal([]float64{100, 102}, h.Prices())
}

func (s *IndicatorTestSuite) TestPriceHistoryPricesReturnsCopy() {
	h := NewPriceHistory(5)
	h.Append(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 100)

	prices := h.Prices()
	prices[0] = 0

	s.Equal([]float64{100}, h.Prices())
}

func (s *IndicatorTestSuite) TestSMA() {
	tests := []struct {
		name     string
		prices   []float64
		period   int
		expected float64
	}{
		{
			name:     "full window",
			prices:   []float64{1, 2, 3, 4},
			period:   4,
			expected: 2.5,
		},
		{
			name:     "uses newest prices only",
			prices:   []float64{10, 20, 30, 40},
			period:   2,
			expected: 35,
		},
		{
			name:     "insufficient data",
			prices:   []float64{1, 2},
			period:   3,
			expected: 0,
		},
		{
			name:     "non-positive period",
			prices:   []float64{1, 2, 3},
			period:   0,
			expected: 0,
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			s.InDelta(tc.expected, SMA(tc.prices, tc.period), 1e-9)
		})
	}
}

func (s *IndicatorTestSuite) TestDetectCrossoverGolden() {
	// Nine flat observations then one tick up: the fast average rises above
	// the slow one while the previous-step averages were equal.
	prices := []float64{100, 100, 100, 100, 100, 100, 100, 100, 100, 101}

	s.Equal(CrossoverGolden, DetectCrossover(prices, 2, 9))
}

func (s *IndicatorTestSuite) TestDetectCrossoverDeath() {
	prices := []float64{100, 100, 100, 100, 100, 100, 100, 100, 100, 99}

	s.Equal(CrossoverDeath, DetectCrossover(prices, 2, 9))
}

func (s *IndicatorTestSuite) TestDetectCrossoverInsufficientData() {
	prices := []float64{100, 100, 100, 100, 100, 100, 100, 100, 101}

	s.Equal(CrossoverNone, DetectCrossover(prices, 2, 9))
}

func (s *IndicatorTestSuite) TestDetectCrossoverIsOrderSensitive() {
	up := []float64{100, 100, 100, 100, 100, 100, 100, 100, 100, 101}

	// Same multiset of prices with the tick moved off the end: no signal.
	reordered := []float64{100, 100, 100, 100, 100, 101, 100, 100, 100, 100}

	s.Equal(CrossoverGolden, DetectCrossover(up, 2, 9))
	s.NotEqual(CrossoverGolden, DetectCrossover(reordered, 2, 9))
}

func (s *IndicatorTestSuite) TestEWMA() {
	e := NewEWMA(3)

	s.InDelta(100, e.Update(100), 1e-9)

	// alpha = 2/(3+1) = 0.5
	s.InDelta(105, e.Update(110), 1e-9)
	s.InDelta(105, e.Value(), 1e-9)
}

func (s *IndicatorTestSuite) TestEWMAZeroSpanTracksRawPrice() {
	e := NewEWMA(0)
	e.Update(100)

	s.InDelta(110, e.Update(110), 1e-9)
}
