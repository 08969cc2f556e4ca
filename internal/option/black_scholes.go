package option

import (
	"math"
	"time"

	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/rxtech-lab/argo-options/pkg/errors"
)

const minutesPerYear = 365 * 24 * 60

// BlackScholesPricer prices European options with a fixed annualized volatility.
// Time to expiry runs to the session close on the expiry date and never drops below
// one minute, so a contract expiring today still carries some time value.
type BlackScholesPricer struct {
	volatility   float64
	riskFreeRate float64
	sessionClose types.ClockTime
}

var _ Pricer = (*BlackScholesPricer)(nil)

// NewBlackScholesPricer creates a pricer. sessionClose is the exchange close used as
// the expiry instant.
func NewBlackScholesPricer(volatility, riskFreeRate float64, sessionClose types.ClockTime) (*BlackScholesPricer, error) {
	if volatility <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "volatility must be positive, got %v", volatility)
	}

	return &BlackScholesPricer{
		volatility:   volatility,
		riskFreeRate: riskFreeRate,
		sessionClose: sessionClose,
	}, nil
}

// Price implements Pricer.
func (p *BlackScholesPricer) Price(contract types.Contract, underlying float64, at time.Time) (float64, error) {
	if underlying <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidPrice, "underlying price must be positive, got %v", underlying)
	}

	if contract.Strike <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidStrike, "strike must be positive, got %v", contract.Strike)
	}

	expiresAt := p.sessionClose.On(contract.Expiry)
	if at.After(expiresAt) {
		return 0, errors.Wrapf(errors.ErrCodePriceUnavailable, errors.ErrPriceUnavailable,
			"%s expired at %s", contract.Symbol(), expiresAt.Format(time.RFC3339))
	}

	years := math.Max(expiresAt.Sub(at).Minutes(), 1) / minutesPerYear

	var premium float64

	switch contract.OptionType {
	case types.OptionTypeCall:
		premium = p.call(underlying, contract.Strike, years)
	case types.OptionTypePut:
		premium = p.put(underlying, contract.Strike, years)
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidParameter, "unknown option type %q", contract.OptionType)
	}

	return math.Max(premium, MinPremium), nil
}

func (p *BlackScholesPricer) d1d2(spot, strike, years float64) (float64, float64) {
	volSqrtT := p.volatility * math.Sqrt(years)
	d1 := (math.Log(spot/strike) + (p.riskFreeRate+p.volatility*p.volatility/2)*years) / volSqrtT

	return d1, d1 - volSqrtT
}

func (p *BlackScholesPricer) call(spot, strike, years float64) float64 {
	d1, d2 := p.d1d2(spot, strike, years)

	return spot*normCDF(d1) - strike*math.Exp(-p.riskFreeRate*years)*normCDF(d2)
}

func (p *BlackScholesPricer) put(spot, strike, years float64) float64 {
	d1, d2 := p.d1d2(spot, strike, years)

	return strike*math.Exp(-p.riskFreeRate*years)*normCDF(-d2) - spot*normCDF(-d1)
}

func normCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}
