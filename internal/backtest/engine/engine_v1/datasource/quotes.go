package datasource

import (
	"database/sql"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/rxtech-lab/argo-options/internal/option"
	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/rxtech-lab/argo-options/pkg/errors"
	"go.uber.org/zap"
)

const quoteView = "option_quotes"

// LoadQuotes reads recorded option closes for underlying into a quote book. The file
// needs time, symbol, expiry, strike, option_type (CE/PE) and close columns; the
// symbol column holds the underlying.
func (d *DuckDBDataSource) LoadQuotes(path string, underlying string) (*option.QuoteBook, error) {
	d.logger.Debug("Loading option quotes", zap.String("path", path), zap.String("underlying", underlying))

	if err := d.createView(quoteView, path); err != nil {
		return nil, err
	}

	columns, err := d.describe(quoteView)
	if err != nil {
		return nil, err
	}

	required := []string{"time", "symbol", "expiry", "strike", "option_type", "close"}
	resolved := make(map[string]string, len(required))

	for _, name := range required {
		column, ok := pickColumn(columns, name)
		if !ok {
			return nil, errors.Newf(errors.ErrCodeDataSourceUnavailable, "%s has no %s column", path, name)
		}

		resolved[name] = column
	}

	selected := make([]string, 0, len(required))
	for _, name := range required {
		selected = append(selected, quoteIdent(resolved[name]))
	}

	query, args, err := d.sq.
		Select(selected...).
		From(quoteView).
		Where(squirrel.Eq{quoteIdent(resolved["symbol"]): underlying}).
		Where(squirrel.NotEq{quoteIdent(resolved["close"]): nil}).
		OrderBy(quoteIdent(resolved["time"]) + " ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build quote query", err)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query quotes", err)
	}
	defer rows.Close()

	zoned := isZonedTimestamp(columns[resolved["time"]])
	book := option.NewQuoteBook()

	for rows.Next() {
		var (
			timestamp  time.Time
			symbol     string
			expiry     time.Time
			strike     float64
			optionType string
			closePrice sql.NullFloat64
		)

		if err := rows.Scan(&timestamp, &symbol, &expiry, &strike, &optionType, &closePrice); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan quote", err)
		}

		book.Add(option.Quote{
			Contract: types.Contract{
				Underlying: symbol,
				Strike:     strike,
				Expiry:     time.Date(expiry.Year(), expiry.Month(), expiry.Day(), 0, 0, 0, 0, d.location),
				OptionType: types.OptionType(strings.ToUpper(optionType)),
			},
			Time:  d.toLocal(timestamp, zoned),
			Close: closePrice.Float64,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate quotes", err)
	}

	d.logger.Info("Option quotes loaded", zap.Int("quotes", book.Len()))

	return book, nil
}
