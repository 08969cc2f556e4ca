package datasource

import (
	"slices"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-options/internal/types"
)

// InMemoryDataSource serves bars held in memory. It is used by tests and by callers
// that already have the series loaded.
type InMemoryDataSource struct {
	bars []types.Bar
}

var _ DataSource = (*InMemoryDataSource)(nil)

// NewInMemoryDataSource creates a data source over a copy of bars, sorted by time.
func NewInMemoryDataSource(bars []types.Bar) *InMemoryDataSource {
	sorted := slices.Clone(bars)
	slices.SortStableFunc(sorted, func(a, b types.Bar) int { return a.Time.Compare(b.Time) })

	return &InMemoryDataSource{bars: sorted}
}

// Initialize implements DataSource. The bars are attached at construction.
func (m *InMemoryDataSource) Initialize(_ string) error {
	return nil
}

// ReadAll implements DataSource.
func (m *InMemoryDataSource) ReadAll(symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.Bar, error) bool) {
	return func(yield func(types.Bar, error) bool) {
		for _, bar := range m.bars {
			if !matches(bar, symbol, start, end) {
				continue
			}

			if !yield(bar, nil) {
				return
			}
		}
	}
}

// Count implements DataSource.
func (m *InMemoryDataSource) Count(symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	count := 0

	for _, bar := range m.bars {
		if matches(bar, symbol, start, end) {
			count++
		}
	}

	return count, nil
}

// Close implements DataSource.
func (m *InMemoryDataSource) Close() error {
	return nil
}

func matches(bar types.Bar, symbol string, start, end optional.Option[time.Time]) bool {
	if symbol != "" && bar.Symbol != symbol {
		return false
	}

	if start.IsSome() && bar.Time.Before(start.Unwrap()) {
		return false
	}

	if end.IsSome() && bar.Time.After(end.Unwrap()) {
		return false
	}

	return true
}
