// Package option turns an entry signal into a concrete listed contract and prices it.
package option

import (
	"time"

	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/rxtech-lab/argo-options/pkg/errors"
	"github.com/shopspring/decimal"
)

// Resolver picks the at-the-money contract for a signal.
type Resolver struct {
	underlying string
	increment  decimal.Decimal
	calendar   *ExpiryCalendar
}

// NewResolver creates a resolver for one underlying.
func NewResolver(underlying string, strikeIncrement float64, calendar *ExpiryCalendar) (*Resolver, error) {
	if strikeIncrement <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidStrike, "strike increment must be positive, got %v", strikeIncrement)
	}

	if calendar == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "expiry calendar is required")
	}

	return &Resolver{
		underlying: underlying,
		increment:  decimal.NewFromFloat(strikeIncrement),
		calendar:   calendar,
	}, nil
}

// Resolve maps an actionable signal onto a contract: ATM strike, nearest expiry on or
// after the signal date, and the option side implied by the signal direction.
func (r *Resolver) Resolve(signal types.Signal, underlyingPrice float64, at time.Time) (types.Contract, error) {
	optionType, ok := types.OptionTypeFor(signal.Direction)
	if !ok {
		return types.Contract{}, errors.Newf(errors.ErrCodeInvalidParameter, "signal direction %q has no option side", signal.Direction)
	}

	if underlyingPrice <= 0 {
		return types.Contract{}, errors.Newf(errors.ErrCodeInvalidPrice, "underlying price must be positive, got %v", underlyingPrice)
	}

	expiry, err := r.calendar.Nearest(at)
	if err != nil {
		return types.Contract{}, err
	}

	return types.Contract{
		Underlying: r.underlying,
		Strike:     roundStrike(decimal.NewFromFloat(underlyingPrice), r.increment),
		Expiry:     expiry,
		OptionType: optionType,
	}, nil
}

// RoundStrike rounds price to the nearest multiple of increment. Exact halves go to
// the even multiple: 10225 with increment 50 is 204.5 increments and rounds to 10200.
func RoundStrike(price, increment float64) (float64, error) {
	if increment <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidStrike, "strike increment must be positive, got %v", increment)
	}

	if price <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidPrice, "underlying price must be positive, got %v", price)
	}

	return roundStrike(decimal.NewFromFloat(price), decimal.NewFromFloat(increment)), nil
}

func roundStrike(price, increment decimal.Decimal) float64 {
	return price.Div(increment).RoundBank(0).Mul(increment).InexactFloat64()
}
