// Package writer persists backtest results. Trades and equity curves are staged in an
// in-memory DuckDB database and exported to Parquet; performance reports go to YAML.
package writer

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-options/internal/logger"
	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/rxtech-lab/argo-options/pkg/errors"
	"go.uber.org/zap"
)

const (
	TradesFile = "trades.parquet"
	EquityFile = "equity.parquet"
	MarksFile  = "marks.parquet"
	ReportFile = "report.yaml"
)

// Output is what gets written for one strategy or for the combined portfolio.
type Output struct {
	Trades []types.Trade
	Equity []types.EquityPoint
	// Marks is skipped when empty
	Marks  []types.EquityPoint
	Report types.PerformanceReport
}

// ResultWriter is not safe for concurrent use. The engine writes after every strategy
// worker has finished.
type ResultWriter struct {
	db  *sql.DB
	log *logger.Logger
	sq  squirrel.StatementBuilderType
}

// NewResultWriter opens the staging database.
func NewResultWriter(log *logger.Logger) (*ResultWriter, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeWriteFailed, "failed to open staging database", err)
	}

	w := &ResultWriter{
		db:  db,
		log: log,
		sq:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}

	if err := w.initialize(); err != nil {
		db.Close()

		return nil, err
	}

	return w, nil
}

func (w *ResultWriter) initialize() error {
	_, err := w.db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			position_id TEXT,
			strategy_id TEXT,
			symbol TEXT,
			underlying TEXT,
			expiry TIMESTAMP,
			strike DOUBLE,
			option_type TEXT,
			entry_time TIMESTAMP,
			exit_time TIMESTAMP,
			entry_price DOUBLE,
			exit_price DOUBLE,
			quantity DOUBLE,
			investment DOUBLE,
			underlying_at_entry DOUBLE,
			underlying_at_exit DOUBLE,
			fees DOUBLE,
			pnl DOUBLE,
			pnl_percent DOUBLE,
			capital_after DOUBLE,
			exit_reason TEXT
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to create trades table", err)
	}

	for _, table := range []string{"equity", "marks"} {
		_, err = w.db.Exec(fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (time TIMESTAMP, capital DOUBLE)`, table))
		if err != nil {
			return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to create %s table", table)
		}
	}

	return nil
}

// Write exports output into folder, creating it when needed.
func (w *ResultWriter) Write(folder string, output Output) error {
	if err := os.MkdirAll(folder, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to create result folder", err)
	}

	defer func() {
		if err := w.cleanup(); err != nil {
			w.log.Warn("Failed to clear staging tables", zap.Error(err))
		}
	}()

	if err := w.stage(output); err != nil {
		return err
	}

	files := map[string]string{
		"trades": filepath.Join(folder, TradesFile),
		"equity": filepath.Join(folder, EquityFile),
	}
	if len(output.Marks) > 0 {
		files["marks"] = filepath.Join(folder, MarksFile)
	}

	for table, path := range files {
		// squirrel has no COPY statement
		query := fmt.Sprintf(`COPY %s TO '%s' (FORMAT PARQUET)`, table, strings.ReplaceAll(path, "'", "''"))
		if _, err := w.db.Exec(query); err != nil {
			return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to export %s to parquet", table)
		}
	}

	if err := types.WriteReports(filepath.Join(folder, ReportFile), []types.PerformanceReport{output.Report}); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to write report", err)
	}

	w.log.Debug("Results written",
		zap.String("folder", folder),
		zap.Int("trades", len(output.Trades)),
		zap.Int("equity_points", len(output.Equity)),
	)

	return nil
}

// Close releases the staging database.
func (w *ResultWriter) Close() error {
	return w.db.Close()
}

func (w *ResultWriter) stage(output Output) error {
	tx, err := w.db.Begin()
	if err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to begin transaction", err)
	}

	for _, trade := range output.Trades {
		_, err := w.sq.
			Insert("trades").
			Columns(
				"position_id", "strategy_id", "symbol", "underlying", "expiry", "strike", "option_type",
				"entry_time", "exit_time", "entry_price", "exit_price", "quantity", "investment",
				"underlying_at_entry", "underlying_at_exit", "fees", "pnl", "pnl_percent", "capital_after",
				"exit_reason",
			).
			Values(
				trade.PositionID, trade.StrategyID, trade.Contract.Symbol(), trade.Contract.Underlying,
				trade.Contract.Expiry, trade.Contract.Strike, string(trade.Contract.OptionType),
				trade.EntryTime, trade.ExitTime, trade.EntryPrice, trade.ExitPrice, trade.Quantity, trade.Investment,
				trade.UnderlyingAtEntry, trade.UnderlyingAtExit, trade.Fees, trade.PnL, trade.PnLPercent,
				trade.CapitalAfter, string(trade.ExitReason),
			).
			RunWith(tx).
			Exec()
		if err != nil {
			tx.Rollback()

			return errors.Wrap(errors.ErrCodeWriteFailed, "failed to insert trade", err)
		}
	}

	if err := w.insertPoints(tx, "equity", output.Equity); err != nil {
		tx.Rollback()

		return err
	}

	if err := w.insertPoints(tx, "marks", output.Marks); err != nil {
		tx.Rollback()

		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to commit results", err)
	}

	return nil
}

func (w *ResultWriter) insertPoints(tx *sql.Tx, table string, points []types.EquityPoint) error {
	for _, point := range points {
		_, err := w.sq.
			Insert(table).
			Columns("time", "capital").
			Values(point.Time, point.Capital).
			RunWith(tx).
			Exec()
		if err != nil {
			return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to insert %s point", table)
		}
	}

	return nil
}

func (w *ResultWriter) cleanup() error {
	_, err := w.db.Exec(`
		DELETE FROM trades;
		DELETE FROM equity;
		DELETE FROM marks;
	`)

	return err
}
