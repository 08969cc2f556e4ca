package option

import (
	"slices"
	"time"

	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/rxtech-lab/argo-options/pkg/errors"
)

// Quote is one recorded option close.
type Quote struct {
	Contract types.Contract
	Time     time.Time
	Close    float64
}

type quotePoint struct {
	time  time.Time
	close float64
}

// QuoteBook prices contracts from recorded closes. A lookup returns the last close at
// or before the requested time. The book is filled before a run and read-only after.
type QuoteBook struct {
	quotes    map[string][]quotePoint
	contracts map[string]types.Contract
}

var _ Pricer = (*QuoteBook)(nil)

// NewQuoteBook creates a book holding the given quotes.
func NewQuoteBook(quotes ...Quote) *QuoteBook {
	book := &QuoteBook{
		quotes:    make(map[string][]quotePoint),
		contracts: make(map[string]types.Contract),
	}
	for _, q := range quotes {
		book.Add(q)
	}

	return book
}

// Add inserts a quote keeping each contract's series in time order. A quote at an
// existing timestamp replaces the previous close.
func (b *QuoteBook) Add(q Quote) {
	key := q.Contract.Symbol()
	series := b.quotes[key]
	b.contracts[key] = q.Contract

	i, found := slices.BinarySearchFunc(series, q.Time, func(p quotePoint, t time.Time) int {
		return p.time.Compare(t)
	})
	if found {
		series[i].close = q.Close

		return
	}

	b.quotes[key] = slices.Insert(series, i, quotePoint{time: q.Time, close: q.Close})
}

// Len returns the number of stored quotes.
func (b *QuoteBook) Len() int {
	total := 0
	for _, series := range b.quotes {
		total += len(series)
	}

	return total
}

// Expiries returns the distinct expiry dates of the quoted contracts in ascending order.
func (b *QuoteBook) Expiries() []time.Time {
	expiries := make([]time.Time, 0, len(b.contracts))
	for _, contract := range b.contracts {
		expiries = append(expiries, contract.Expiry)
	}

	slices.SortFunc(expiries, func(a, c time.Time) int { return a.Compare(c) })

	return slices.CompactFunc(expiries, func(a, c time.Time) bool { return a.Equal(c) })
}

// Price implements Pricer. The underlying price is ignored.
func (b *QuoteBook) Price(contract types.Contract, _ float64, at time.Time) (float64, error) {
	series := b.quotes[contract.Symbol()]

	i, found := slices.BinarySearchFunc(series, at, func(p quotePoint, t time.Time) int {
		return p.time.Compare(t)
	})
	if !found {
		i--
	}

	if i < 0 {
		return 0, errors.Wrapf(errors.ErrCodePriceUnavailable, errors.ErrPriceUnavailable,
			"no quote for %s at or before %s", contract.Symbol(), at.Format(time.RFC3339))
	}

	return series[i].close, nil
}
