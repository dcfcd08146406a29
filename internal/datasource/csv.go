// Package datasource loads candle series for backtest runs.
package datasource

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/rxtech-lab/argo-gridsim/internal/types"
	"github.com/rxtech-lab/argo-gridsim/pkg/errors"
)

// LoadCSV reads an OHLCV CSV file into a candle series ordered by time,
// using duckdb's CSV reader for type inference. Expected columns: time,
// open, high, low, close, volume. Extra columns are ignored.
func LoadCSV(path string, symbol string) ([]types.Candle, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataNotFound, "failed to open duckdb", err)
	}
	defer db.Close()

	quoted := strings.ReplaceAll(path, "'", "''")
	rows, err := db.Query(fmt.Sprintf(
		`SELECT time, open, high, low, close, volume FROM read_csv_auto('%s') ORDER BY time`,
		quoted,
	))
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataNotFound, err, "failed to read %s", path)
	}
	defer rows.Close()

	var series []types.Candle

	for rows.Next() {
		var (
			t                                time.Time
			open, high, low, closePrice, vol float64
		)

		if err := rows.Scan(&t, &open, &high, &low, &closePrice, &vol); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeDataNotFound, err, "malformed row in %s", path)
		}

		series = append(series, types.Candle{
			Time:   t,
			Symbol: symbol,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closePrice,
			Volume: vol,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataNotFound, err, "failed to read %s", path)
	}

	if len(series) == 0 {
		return nil, errors.Newf(errors.ErrCodeEmptySeries, "no candles in %s", path)
	}

	return series, nil
}
