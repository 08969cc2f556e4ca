package option

import (
	"time"

	"github.com/rxtech-lab/argo-options/internal/types"
)

// MinPremium is the exchange tick size; no fill is priced below it.
const MinPremium = 0.05

// Pricer turns a contract and the current underlying price into a fill premium.
// Implementations must be safe for concurrent use; every strategy worker shares one.
type Pricer interface {
	// Price returns the premium for one unit of the contract at the given time.
	// Returns ErrPriceUnavailable when no price can be produced.
	Price(contract types.Contract, underlying float64, at time.Time) (float64, error)
}
