package config

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-gridsim/pkg/errors"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (s *ConfigTestSuite) TestDefaultsValidate() {
	cfg := DefaultConfig()
	s.Require().NoError(cfg.Validate())
	s.Equal("ma_crossover", cfg.Strategy.Name)
	s.Equal(10, cfg.Strategy.Params.FastPeriod)
	s.Equal(20, cfg.Strategy.Params.SlowPeriod)
	s.InDelta(10000, cfg.Backtest.StartingBalance, 1e-9)
}

func (s *ConfigTestSuite) TestParseOverridesDefaults() {
	raw := []byte(`
strategy:
  name: default
  params:
    fast_period: 5
bot:
  long:
    entry_grid_spacing_pct: 0.02
    n_positions: 3
backtest:
  starting_balance: 2500
  symbol: ETHUSDT
`)

	cfg, err := Parse(raw)
	s.Require().NoError(err)

	s.Equal("default", cfg.Strategy.Name)
	s.Equal(5, cfg.Strategy.Params.FastPeriod)
	// Keys absent from the document keep their defaults.
	s.Equal(20, cfg.Strategy.Params.SlowPeriod)
	s.InDelta(0.02, cfg.Bot.Long.EntryGridSpacingPct, 1e-9)
	s.Equal(3, cfg.Bot.Long.NPositions)
	s.InDelta(0.01, cfg.Bot.Short.EntryGridSpacingPct, 1e-9)
	s.InDelta(2500, cfg.Backtest.StartingBalance, 1e-9)
	s.Equal("ETHUSDT", cfg.Backtest.Symbol)
}

func (s *ConfigTestSuite) TestParseIgnoresUnknownKeys() {
	raw := []byte(`
strategy:
  name: ma_crossover
legacy_api_keys:
  binance: abc
`)

	cfg, err := Parse(raw)
	s.Require().NoError(err)
	s.Equal("ma_crossover", cfg.Strategy.Name)
}

func (s *ConfigTestSuite) TestParseRejectsMalformedYAML() {
	_, err := Parse([]byte("strategy: [unclosed"))
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (s *ConfigTestSuite) TestValidateRejectsInvertedPeriods() {
	cfg := DefaultConfig()
	cfg.Strategy.Params.FastPeriod = 30

	err := cfg.Validate()
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (s *ConfigTestSuite) TestValidateRejectsNegativeSpacing() {
	cfg := DefaultConfig()
	cfg.Bot.Long.EntryGridSpacingPct = -0.01

	s.Require().Error(cfg.Validate())
}

func (s *ConfigTestSuite) TestSchemaGeneration() {
	cfg := DefaultConfig()

	schema, err := cfg.GenerateSchemaJSON()
	s.Require().NoError(err)
	s.Contains(schema, "starting_balance")
	s.Contains(schema, "entry_grid_spacing_pct")
}
