// Package indicator holds the streaming price trackers the signal engine reads from.
// Trackers are fed one price per bar and are not safe for concurrent use; each strategy
// owns its own instances.
package indicator

import (
	"github.com/moznion/go-optional"
)

// Tracker consumes one price per bar and reports a value once warmed up.
type Tracker interface {
	// Name identifies the tracker in logs and warm-up errors
	Name() string
	// Update feeds a new price and returns the current value, None while warming up
	Update(price float64) optional.Option[float64]
	// Value returns the current value or an InsufficientWarmupError
	Value() (float64, error)
	// Ready reports whether the tracker has seen enough prices to produce a value
	Ready() bool
	// Reset drops every buffered price
	Reset()
}
