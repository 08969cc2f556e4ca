package types

import (
	"fmt"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-options/pkg/errors"
)

// Bar is one underlying price observation.
type Bar struct {
	Time   time.Time `yaml:"time" json:"time" csv:"time"`
	Symbol string    `yaml:"symbol" json:"symbol" csv:"symbol"`
	Price  float64   `yaml:"price" json:"price" csv:"price"`
}

// TradingDay holds the bars of one exchange session in timestamp order.
type TradingDay struct {
	// Date is midnight of the session date in the exchange timezone.
	Date time.Time
	Bars []Bar
}

// Last returns the final bar of the day, if any.
func (d TradingDay) Last() optional.Option[Bar] {
	if len(d.Bars) == 0 {
		return optional.None[Bar]()
	}

	return optional.Some(d.Bars[len(d.Bars)-1])
}

// At returns the given clock time on this trading day.
func (d TradingDay) At(hour, minute int) time.Time {
	return time.Date(d.Date.Year(), d.Date.Month(), d.Date.Day(), hour, minute, 0, 0, d.Date.Location())
}

// DateOf truncates a timestamp to midnight in loc.
func DateOf(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)

	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// GroupByDay splits an ordered bar series into trading days. Bars must be strictly
// increasing in time; a repeated or earlier timestamp is rejected.
func GroupByDay(bars []Bar, loc *time.Location) ([]TradingDay, error) {
	var days []TradingDay

	for i, bar := range bars {
		if i > 0 && !bar.Time.After(bars[i-1].Time) {
			return nil, errors.Newf(errors.ErrCodeBarOutOfOrder,
				"bar %d at %s is not after %s", i, bar.Time.Format(time.RFC3339), bars[i-1].Time.Format(time.RFC3339))
		}

		date := DateOf(bar.Time, loc)
		if len(days) == 0 || !days[len(days)-1].Date.Equal(date) {
			days = append(days, TradingDay{Date: date, Bars: nil})
		}

		last := &days[len(days)-1]
		bar.Time = bar.Time.In(loc)
		last.Bars = append(last.Bars, bar)
	}

	return days, nil
}

// String implements fmt.Stringer.
func (d TradingDay) String() string {
	return fmt.Sprintf("%s (%d bars)", d.Date.Format("2006-01-02"), len(d.Bars))
}
