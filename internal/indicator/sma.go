// Package indicator provides the small self-contained indicator kit used by
// the built-in strategies: a bounded price history, simple moving averages
// with crossover detection, and a streaming exponential moving average.
package indicator

// Crossover is the outcome of comparing fast/slow moving averages across two
// consecutive observations.
type Crossover string

const (
	CrossoverGolden Crossover = "golden"
	CrossoverDeath  Crossover = "death"
	CrossoverNone   Crossover = "none"
)

// SMA computes the simple moving average over the last period prices.
// It returns 0 when fewer than period observations exist.
func SMA(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period {
		return 0
	}

	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}

	return sum / float64(period)
}

// DetectCrossover compares the current fast/slow averages against the
// averages over the same windows shifted one observation back (excluding the
// newest price). It requires at least slowPeriod+1 observations; with fewer
// it reports CrossoverNone. The signal is order-sensitive: the same multiset
// of prices in a different sequence can yield a different result.
func DetectCrossover(prices []float64, fastPeriod, slowPeriod int) Crossover {
	if len(prices) < slowPeriod+1 {
		return CrossoverNone
	}

	currentFast := SMA(prices, fastPeriod)
	currentSlow := SMA(prices, slowPeriod)

	prev := prices[:len(prices)-1]
	prevFast := SMA(prev, fastPeriod)
	prevSlow := SMA(prev, slowPeriod)

	switch {
	case prevFast <= prevSlow && currentFast > currentSlow:
		return CrossoverGolden
	case prevFast >= prevSlow && currentFast < currentSlow:
		return CrossoverDeath
	default:
		return CrossoverNone
	}
}
