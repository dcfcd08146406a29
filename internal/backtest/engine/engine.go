// Package engine defines the simulation engine interface implemented by
// engine versions.
package engine

import (
	"github.com/rxtech-lab/argo-gridsim/internal/config"
	"github.com/rxtech-lab/argo-gridsim/internal/strategy"
	"github.com/rxtech-lab/argo-gridsim/internal/types"
)

// Engine drives one backtest: it iterates an ordered price series, asks the
// loaded strategy for orders each step, applies fills against the simulated
// balance and position book, and produces a trade ledger with summary
// statistics.
type Engine interface {
	// Initialize prepares the engine with a run configuration.
	Initialize(cfg config.Config) error
	// LoadStrategy attaches the strategy evaluated on every step. A run
	// without a strategy simulates the configured grid ladder only.
	LoadStrategy(s strategy.Strategy) error
	// SetResultsFolder sets the directory results are written to after a
	// run. Leaving it empty disables persistence.
	SetResultsFolder(folder string) error
	// Run executes the backtest over the given candle series and returns
	// the summary. The series must be ordered by non-decreasing time.
	Run(series []types.Candle) (*types.Summary, error)
}
