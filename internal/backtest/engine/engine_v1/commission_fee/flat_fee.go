package commission_fee

import (
	"github.com/rxtech-lab/argo-options/pkg/errors"
)

// FlatCommissionFee charges the same amount for every order regardless of size,
// like most discount option brokers.
type FlatCommissionFee struct {
	fee float64
}

// NewFlatCommissionFee creates a flat fee model. The fee must not be negative.
func NewFlatCommissionFee(fee float64) (CommissionFee, error) {
	if fee < 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "flat fee must not be negative, got %v", fee)
	}

	return &FlatCommissionFee{fee: fee}, nil
}

// Calculate returns the flat fee for any non-empty order.
func (c *FlatCommissionFee) Calculate(quantity float64) float64 {
	if quantity == 0 {
		return 0
	}

	return c.fee
}
