package datasource

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/rxtech-lab/argo-options/pkg/errors"
)

// LoadTradingDays materializes the bars of symbol and splits them into trading days
// in loc.
func LoadTradingDays(ds DataSource, symbol string, start, end optional.Option[time.Time], loc *time.Location) ([]types.TradingDay, error) {
	var bars []types.Bar

	for bar, err := range ds.ReadAll(symbol, start, end) {
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read bars", err)
		}

		bars = append(bars, bar)
	}

	if len(bars) == 0 {
		return nil, errors.Newf(errors.ErrCodeDataNotFound, "no bars found for symbol %q", symbol)
	}

	return types.GroupByDay(bars, loc)
}

// fileReader returns the DuckDB table function that reads path.
func fileReader(path string) (string, error) {
	escaped := strings.ReplaceAll(path, "'", "''")

	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return fmt.Sprintf("read_parquet('%s')", escaped), nil
	case ".csv":
		return fmt.Sprintf("read_csv_auto('%s', header = true)", escaped), nil
	}

	return "", errors.Newf(errors.ErrCodeDataSourceUnavailable, "unsupported file type %q, expected .parquet or .csv", filepath.Ext(path))
}

// pickColumn returns the first candidate present in columns, compared case-insensitively.
func pickColumn(columns map[string]string, candidates ...string) (string, bool) {
	for _, candidate := range candidates {
		for name := range columns {
			if strings.EqualFold(name, candidate) {
				return name, true
			}
		}
	}

	return "", false
}

// quoteIdent quotes a column name for DuckDB.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// isZonedTimestamp reports whether a DuckDB column type carries a UTC offset.
func isZonedTimestamp(columnType string) bool {
	return slices.Contains([]string{"TIMESTAMP WITH TIME ZONE", "TIMESTAMPTZ"}, strings.ToUpper(columnType))
}

// wallClock reinterprets a naive timestamp (returned by the driver as UTC) as a wall
// clock reading in loc.
func wallClock(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

// naiveMillis is the inverse of wallClock, expressed as epoch milliseconds.
func naiveMillis(t time.Time, loc *time.Location) int64 {
	local := t.In(loc)

	return time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), local.Minute(), local.Second(), local.Nanosecond(), time.UTC).UnixMilli()
}
