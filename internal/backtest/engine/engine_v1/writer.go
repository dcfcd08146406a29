package engine

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"
	yamlv2 "gopkg.in/yaml.v2"

	"github.com/rxtech-lab/argo-gridsim/internal/logger"
	"github.com/rxtech-lab/argo-gridsim/internal/types"
)

// ResultWriter persists one run's outputs into a folder: the full summary as
// JSON, the headline statistics as YAML, and the trade ledger as Parquet via
// an in-memory duckdb instance.
type ResultWriter struct {
	folder string
	log    *logger.Logger
}

// NewResultWriter creates a writer targeting the given folder. The folder is
// created on Write if it does not exist.
func NewResultWriter(folder string, log *logger.Logger) *ResultWriter {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &ResultWriter{
		folder: folder,
		log:    log.Named("writer"),
	}
}

// Write persists the summary, stats and trades. Files are overwritten.
func (w *ResultWriter) Write(summary *types.Summary) error {
	if err := os.MkdirAll(w.folder, 0o755); err != nil {
		return fmt.Errorf("failed to create results folder: %w", err)
	}

	if err := w.writeSummaryJSON(summary); err != nil {
		return err
	}

	if err := w.writeStatsYAML(summary); err != nil {
		return err
	}

	if err := w.writeTradesParquet(summary.Trades); err != nil {
		return err
	}

	w.log.Info("results written", zap.String("folder", w.folder))

	return nil
}

func (w *ResultWriter) writeSummaryJSON(summary *types.Summary) error {
	raw, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	path := filepath.Join(w.folder, "summary.json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

// writeStatsYAML writes the headline numbers without the trade ledger.
func (w *ResultWriter) writeStatsYAML(summary *types.Summary) error {
	stats := *summary
	stats.Trades = nil

	raw, err := yamlv2.Marshal(&stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	path := filepath.Join(w.folder, "stats.yaml")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

// writeTradesParquet loads the ledger into an in-memory duckdb table and
// copies it out in Parquet format.
func (w *ResultWriter) writeTradesParquet(trades []types.Trade) error {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return fmt.Errorf("failed to open duckdb: %w", err)
	}
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE trades (
		trade_type VARCHAR,
		price DOUBLE,
		quantity DOUBLE,
		timestamp TIMESTAMP,
		balance_after DOUBLE,
		profit DOUBLE,
		grid_index INTEGER,
		order_id VARCHAR,
		strategy VARCHAR,
		signal VARCHAR
	)`)
	if err != nil {
		return fmt.Errorf("failed to create trades table: %w", err)
	}

	stmt, err := db.Prepare(`INSERT INTO trades VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range trades {
		var profit, gridIndex, signal any

		if t.Profit.IsSome() {
			profit = t.Profit.Unwrap()
		}

		if t.GridIndex.IsSome() {
			gridIndex = t.GridIndex.Unwrap()
		}

		if t.Signal.IsSome() {
			signal = t.Signal.Unwrap()
		}

		_, err = stmt.Exec(string(t.Type), t.Price, t.Quantity, t.Timestamp,
			t.BalanceAfter, profit, gridIndex, t.OrderID, t.StrategyTag, signal)
		if err != nil {
			return fmt.Errorf("failed to insert trade: %w", err)
		}
	}

	path := filepath.Join(w.folder, "trades.parquet")

	_, err = db.Exec(fmt.Sprintf(`COPY trades TO '%s' (FORMAT PARQUET)`, path))
	if err != nil {
		return fmt.Errorf("failed to export trades: %w", err)
	}

	return nil
}

func (e *BacktestEngineV1) writeResults(summary *types.Summary) error {
	return NewResultWriter(e.resultsFolder, e.log).Write(summary)
}
