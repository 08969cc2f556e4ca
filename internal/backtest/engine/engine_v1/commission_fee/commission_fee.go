package commission_fee

import (
	"github.com/rxtech-lab/argo-options/pkg/errors"
)

type CommissionFee interface {
	// Calculate returns the fee charged for one order of the given option quantity
	Calculate(quantity float64) float64
}

type Broker string

const (
	BrokerZero    Broker = "zero_commission"
	BrokerFlatFee Broker = "flat_fee"
)

var AllBrokers = []any{
	BrokerZero,
	BrokerFlatFee,
}

// GetCommissionFeeHandler returns the fee model for a broker. flatFee is only read by
// the flat fee broker.
func GetCommissionFeeHandler(broker Broker, flatFee float64) (CommissionFee, error) {
	switch broker {
	case BrokerZero, "":
		return NewZeroCommissionFee(), nil
	case BrokerFlatFee:
		return NewFlatCommissionFee(flatFee)
	}

	return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "unknown broker %q", string(broker))
}
