package types

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OptionType follows the exchange's CE/PE naming.
type OptionType string

const (
	OptionTypeCall OptionType = "CE"
	OptionTypePut  OptionType = "PE"
)

// OptionTypeFor maps a signal direction onto an option type.
func OptionTypeFor(direction Direction) (OptionType, bool) {
	switch direction {
	case DirectionCall:
		return OptionTypeCall, true
	case DirectionPut:
		return OptionTypePut, true
	case DirectionNone:
		return "", false
	}

	return "", false
}

// Contract identifies a single listed option. It is immutable once resolved.
type Contract struct {
	Underlying string     `yaml:"underlying" json:"underlying"`
	Strike     float64    `yaml:"strike" json:"strike"`
	Expiry     time.Time  `yaml:"expiry" json:"expiry"`
	OptionType OptionType `yaml:"option_type" json:"option_type"`
}

// Symbol renders the contract as UNDERLYING-YYYYMMDD-STRIKE-TYPE.
func (c Contract) Symbol() string {
	return fmt.Sprintf("%s-%s-%s-%s",
		c.Underlying, c.Expiry.Format("20060102"), decimal.NewFromFloat(c.Strike).String(), c.OptionType)
}

// DaysToExpiry is the number of calendar days between the date of t and the expiry date.
func (c Contract) DaysToExpiry(t time.Time) int {
	return CalendarDaysBetween(t, c.Expiry)
}

// CalendarDaysBetween counts whole calendar days from the date of a to the date of b,
// using a's location for both.
func CalendarDaysBetween(a, b time.Time) int {
	loc := a.Location()
	from := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bl := b.In(loc)
	to := time.Date(bl.Year(), bl.Month(), bl.Day(), 0, 0, 0, 0, time.UTC)

	return int(to.Sub(from).Hours() / 24)
}
