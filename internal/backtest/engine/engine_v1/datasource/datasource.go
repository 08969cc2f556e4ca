package datasource

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-options/internal/types"
)

// DataSource supplies underlying bars in timestamp order.
type DataSource interface {
	// Initialize attaches the bar file. Parquet and CSV files are supported and the
	// path may be a glob pattern (e.g. "data/NIFTY_*.parquet").
	Initialize(path string) error
	// ReadAll yields the bars of symbol between start and end (inclusive) in time order.
	// An empty symbol yields every bar.
	ReadAll(symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.Bar, error) bool)
	// Count returns the number of bars ReadAll would yield
	Count(symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// Close closes the data source and releases any resources
	Close() error
}
