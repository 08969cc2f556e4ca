package option

import (
	"slices"
	"time"

	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/rxtech-lab/argo-options/pkg/errors"
)

// ExpiryCalendar is the sorted set of listed expiry dates for one underlying.
type ExpiryCalendar struct {
	location *time.Location
	expiries []time.Time
}

// NewExpiryCalendar normalizes the given dates to midnight in loc, dropping duplicates.
// Only the calendar date of each input is used.
func NewExpiryCalendar(expiries []time.Time, loc *time.Location) *ExpiryCalendar {
	dates := make([]time.Time, 0, len(expiries))
	for _, expiry := range expiries {
		dates = append(dates, time.Date(expiry.Year(), expiry.Month(), expiry.Day(), 0, 0, 0, 0, loc))
	}

	slices.SortFunc(dates, func(a, b time.Time) int { return a.Compare(b) })
	dates = slices.CompactFunc(dates, func(a, b time.Time) bool { return a.Equal(b) })

	return &ExpiryCalendar{location: loc, expiries: dates}
}

// Expiries returns a copy of the calendar dates in ascending order.
func (c *ExpiryCalendar) Expiries() []time.Time {
	return slices.Clone(c.expiries)
}

// Len returns the number of listed expiries.
func (c *ExpiryCalendar) Len() int {
	return len(c.expiries)
}

// Nearest returns the expiry with the smallest non-negative number of calendar days
// from the date of at. An expiry on the same date is valid (zero days to expiry).
func (c *ExpiryCalendar) Nearest(at time.Time) (time.Time, error) {
	local := at.In(c.location)

	for _, expiry := range c.expiries {
		if types.CalendarDaysBetween(local, expiry) >= 0 {
			return expiry, nil
		}
	}

	return time.Time{}, errors.Wrapf(errors.ErrCodeNoValidExpiry, errors.ErrNoValidExpiry,
		"no expiry on or after %s among %d listed", local.Format(time.DateOnly), len(c.expiries))
}
