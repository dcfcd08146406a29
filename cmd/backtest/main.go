package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap/zapcore"

	engine "github.com/rxtech-lab/argo-gridsim/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-gridsim/internal/config"
	"github.com/rxtech-lab/argo-gridsim/internal/datasource"
	"github.com/rxtech-lab/argo-gridsim/internal/logger"
	"github.com/rxtech-lab/argo-gridsim/internal/strategy"
)

// strategyNone disables strategy evaluation so the run simulates the
// configured grid ladder only.
const strategyNone = "none"

// backtestAction loads the configuration and candle series, wires the
// requested strategy through the registry, and runs one backtest.
func backtestAction(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	dataPath := cmd.String("data")
	outputPath := cmd.String("output")
	strategyName := cmd.String("strategy")
	debug := cmd.Bool("debug")

	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	l, err := logger.NewLoggerWithLevel(level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	cfg := config.DefaultConfig()

	if configPath != "" {
		raw, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		cfg, err = config.Parse(raw)
		if err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	series, err := datasource.LoadCSV(dataPath, cfg.Backtest.Symbol)
	if err != nil {
		return fmt.Errorf("failed to load candles: %w", err)
	}

	backtester := engine.NewBacktestEngineV1(l)
	if err := backtester.Initialize(cfg); err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}

	backtester.SetProgressBar(true)

	if outputPath != "" {
		if err := backtester.SetResultsFolder(outputPath); err != nil {
			return err
		}
	}

	if strategyName == "" {
		strategyName = cfg.Strategy.Name
	}

	if strategyName != strategyNone {
		registry := strategy.NewRegistry(l)
		registry.RegisterBuiltins()

		instance, err := registry.Load(strategyName, cfg)
		if err != nil {
			return fmt.Errorf("failed to load strategy %q: %w", strategyName, err)
		}

		if err := backtester.LoadStrategy(instance); err != nil {
			return err
		}
	}

	summary, err := backtester.Run(series)
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	fmt.Printf("Initial balance:     %.2f\n", summary.InitialBalance)
	fmt.Printf("Final balance:       %.2f\n", summary.FinalBalance)
	fmt.Printf("Total return:        %.2f%%\n", summary.TotalReturnPct)
	fmt.Printf("Trades:              %d (%d buy / %d sell)\n",
		summary.TotalTrades, summary.BuyTrades, summary.SellTrades)
	fmt.Printf("Realized profit:     %.2f\n", summary.TotalProfit)
	fmt.Printf("Open positions:      %d (unrealized %.2f)\n",
		summary.RemainingPositions, summary.UnrealizedValue)

	if summary.Insolvent {
		fmt.Println("WARNING: balance went negative during the run")
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "backtest",
		Usage: "Run a grid or indicator strategy backtest over a candle CSV",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Path to the OHLCV candle CSV file",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "Path to the YAML run configuration. Defaults apply when omitted.",
				Required: false,
			},
			&cli.StringFlag{
				Name:     "output",
				Aliases:  []string{"o"},
				Usage:    "Results folder. Persistence is disabled when omitted.",
				Required: false,
			},
			&cli.StringFlag{
				Name:     "strategy",
				Aliases:  []string{"s"},
				Usage:    fmt.Sprintf("Strategy name (%q, %q or %q for ladder-only)", strategy.StrategyNameDefault, strategy.StrategyNameMACrossover, strategyNone),
				Required: false,
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Action: backtestAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
