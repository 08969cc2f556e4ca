package datasource

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-options/internal/logger"
	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/rxtech-lab/argo-options/pkg/errors"
	"go.uber.org/zap"
)

const barView = "market_data"

// barColumns records which physical columns of the bar file hold each field.
type barColumns struct {
	time        string
	timeIsZoned bool
	price       string
	// symbol is empty when the file holds a single instrument
	symbol string
}

type DuckDBDataSource struct {
	db       *sql.DB
	logger   *logger.Logger
	sq       squirrel.StatementBuilderType
	location *time.Location
	columns  optional.Option[barColumns]
}

var _ DataSource = (*DuckDBDataSource)(nil)

// NewDataSource opens a DuckDB database at path (":memory:" for an in-memory one).
// Naive timestamps in the attached files are read as wall-clock times in loc.
func NewDataSource(path string, loc *time.Location, logger *logger.Logger) (*DuckDBDataSource, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	return &DuckDBDataSource{
		db:       db,
		logger:   logger,
		sq:       squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		location: loc,
		columns:  optional.None[barColumns](),
	}, nil
}

// Initialize implements DataSource.
func (d *DuckDBDataSource) Initialize(path string) error {
	d.logger.Debug("Initializing DuckDB data source", zap.String("path", path))

	if err := d.createView(barView, path); err != nil {
		return err
	}

	columns, err := d.describe(barView)
	if err != nil {
		return err
	}

	timeColumn, ok := pickColumn(columns, "time", "datetime", "timestamp")
	if !ok {
		return errors.Newf(errors.ErrCodeDataSourceUnavailable, "%s has no time column", path)
	}

	priceColumn, ok := pickColumn(columns, "price", "underlying", "close")
	if !ok {
		return errors.Newf(errors.ErrCodeDataSourceUnavailable, "%s has no price column (price, underlying or close)", path)
	}

	symbolColumn, _ := pickColumn(columns, "symbol")

	d.columns = optional.Some(barColumns{
		time:        timeColumn,
		timeIsZoned: isZonedTimestamp(columns[timeColumn]),
		price:       priceColumn,
		symbol:      symbolColumn,
	})

	d.logger.Debug("Bar columns resolved",
		zap.String("time", timeColumn),
		zap.String("price", priceColumn),
		zap.String("symbol", symbolColumn),
	)

	return nil
}

// ReadAll implements DataSource.
func (d *DuckDBDataSource) ReadAll(symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.Bar, error) bool) {
	return func(yield func(types.Bar, error) bool) {
		if d.columns.IsNone() {
			yield(types.Bar{}, errors.New(errors.ErrCodeDataSourceUnavailable, "data source is not initialized"))

			return
		}

		columns := d.columns.Unwrap()

		selected := []string{quoteIdent(columns.time), quoteIdent(columns.price)}
		if columns.symbol != "" {
			selected = append(selected, quoteIdent(columns.symbol))
		}

		query, args, err := d.filter(d.sq.Select(selected...), columns, symbol, start, end).
			OrderBy(quoteIdent(columns.time) + " ASC").
			ToSql()
		if err != nil {
			yield(types.Bar{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build bar query", err))

			return
		}

		rows, err := d.db.Query(query, args...)
		if err != nil {
			yield(types.Bar{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query bars", err))

			return
		}
		defer rows.Close()

		for rows.Next() {
			var (
				timestamp time.Time
				price     float64
				rowSymbol sql.NullString
			)

			dest := []any{&timestamp, &price}
			if columns.symbol != "" {
				dest = append(dest, &rowSymbol)
			}

			if err := rows.Scan(dest...); err != nil {
				yield(types.Bar{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan bar", err))

				return
			}

			bar := types.Bar{
				Time:   d.toLocal(timestamp, columns.timeIsZoned),
				Symbol: symbol,
				Price:  price,
			}
			if rowSymbol.Valid {
				bar.Symbol = rowSymbol.String
			}

			if !yield(bar, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(types.Bar{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate bars", err))
		}
	}
}

// Count implements DataSource.
func (d *DuckDBDataSource) Count(symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	if d.columns.IsNone() {
		return 0, errors.New(errors.ErrCodeDataSourceUnavailable, "data source is not initialized")
	}

	query, args, err := d.filter(d.sq.Select("COUNT(*)"), d.columns.Unwrap(), symbol, start, end).ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build count query", err)
	}

	var count int
	if err := d.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count bars", err)
	}

	return count, nil
}

// Close implements DataSource.
func (d *DuckDBDataSource) Close() error {
	return d.db.Close()
}

func (d *DuckDBDataSource) filter(builder squirrel.SelectBuilder, columns barColumns, symbol string, start, end optional.Option[time.Time]) squirrel.SelectBuilder {
	builder = builder.From(barView).Where(squirrel.NotEq{quoteIdent(columns.price): nil})

	if symbol != "" && columns.symbol != "" {
		builder = builder.Where(squirrel.Eq{quoteIdent(columns.symbol): symbol})
	}

	epoch := fmt.Sprintf("epoch_ms(%s)", quoteIdent(columns.time))

	if start.IsSome() {
		builder = builder.Where(squirrel.GtOrEq{epoch: d.boundMillis(start.Unwrap(), columns.timeIsZoned)})
	}

	if end.IsSome() {
		builder = builder.Where(squirrel.LtOrEq{epoch: d.boundMillis(end.Unwrap(), columns.timeIsZoned)})
	}

	return builder
}

// createView exposes a parquet or csv file as a view. squirrel has no DDL support,
// so the statement is built by hand.
func (d *DuckDBDataSource) createView(name, path string) error {
	reader, err := fileReader(path)
	if err != nil {
		return err
	}

	if _, err := d.db.Exec(fmt.Sprintf(`DROP VIEW IF EXISTS %s`, name)); err != nil {
		return errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to drop view %s", name)
	}

	if _, err := d.db.Exec(fmt.Sprintf(`CREATE VIEW %s AS SELECT * FROM %s`, name, reader)); err != nil {
		return errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to read %s", path)
	}

	return nil
}

// describe returns column name to DuckDB type for a view.
func (d *DuckDBDataSource) describe(view string) (map[string]string, error) {
	query, args, err := d.sq.
		Select("column_name", "data_type").
		From("information_schema.columns").
		Where(squirrel.Eq{"table_name": view}).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build describe query", err)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to describe %s", view)
	}
	defer rows.Close()

	columns := make(map[string]string)

	for rows.Next() {
		var name, columnType string
		if err := rows.Scan(&name, &columnType); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan column", err)
		}

		columns[name] = columnType
	}

	return columns, rows.Err()
}

func (d *DuckDBDataSource) toLocal(t time.Time, zoned bool) time.Time {
	if zoned {
		return t.In(d.location)
	}

	return wallClock(t, d.location)
}

func (d *DuckDBDataSource) boundMillis(t time.Time, zoned bool) int64 {
	if zoned {
		return t.UnixMilli()
	}

	return naiveMillis(t, d.location)
}
