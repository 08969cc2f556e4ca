package indicator

import (
	"fmt"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-options/pkg/errors"
	"github.com/shopspring/decimal"
)

// Momentum compares the mean of the most recent short prices against the mean of the
// short prices before them:
//
//	momentum = (recent - previous) / previous
//
// It needs 2*short prices before it reports a value.
type Momentum struct {
	short  int
	recent *MovingAverage
	// previous holds the prices that fell out of recent
	previous *MovingAverage
	seen     int
}

var _ Tracker = (*Momentum)(nil)

// NewMomentum creates a momentum tracker with the given short window.
func NewMomentum(short int) (*Momentum, error) {
	if short <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidWindow, "momentum window must be positive, got %d", short)
	}

	recent, err := NewMovingAverage(short, short)
	if err != nil {
		return nil, err
	}

	previous, err := NewMovingAverage(short, short)
	if err != nil {
		return nil, err
	}

	return &Momentum{
		short:    short,
		recent:   recent,
		previous: previous,
		seen:     0,
	}, nil
}

// Name returns the name of the tracker.
func (m *Momentum) Name() string {
	return fmt.Sprintf("momentum(%d)", m.short)
}

// Update pushes a price and returns the relative change between the two windows.
func (m *Momentum) Update(price float64) optional.Option[float64] {
	if m.recent.Len() == m.short {
		// the oldest recent price moves into the previous window
		m.previous.Update(m.recent.Oldest().Unwrap())
	}

	m.recent.Update(price)
	m.seen++

	value, err := m.Value()
	if err != nil {
		return optional.None[float64]()
	}

	return optional.Some(value)
}

// Value returns the current momentum. A zero previous mean yields an error since the
// relative change is undefined.
func (m *Momentum) Value() (float64, error) {
	if !m.Ready() {
		return 0, errors.NewInsufficientWarmupError(m.Name(), 2*m.short, m.seen)
	}

	previous := decimal.NewFromFloat(m.previous.mean())
	if previous.IsZero() {
		return 0, errors.New(errors.ErrCodeInvalidPrice, "momentum is undefined for a zero previous mean")
	}

	recent := decimal.NewFromFloat(m.recent.mean())

	return recent.Sub(previous).Div(previous).InexactFloat64(), nil
}

// Ready reports whether both windows are full.
func (m *Momentum) Ready() bool {
	return m.previous.Ready() && m.recent.Ready()
}

// Reset clears both windows.
func (m *Momentum) Reset() {
	m.recent.Reset()
	m.previous.Reset()
	m.seen = 0
}
