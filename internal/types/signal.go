package types

import (
	"time"

	"github.com/moznion/go-optional"
)

// Direction is the side of an entry signal.
type Direction string

const (
	// DirectionNone means the strategy does not want to enter.
	DirectionNone Direction = "none"
	// DirectionCall asks for a call option (price expected to rise).
	DirectionCall Direction = "call"
	// DirectionPut asks for a put option (price expected to fall).
	DirectionPut Direction = "put"
)

// Signal is produced by a strategy for a single bar and consumed right away by the
// option resolver. It is never persisted.
type Signal struct {
	// Time is the bar timestamp the signal was evaluated on
	Time time.Time
	// Direction is the requested option side
	Direction Direction
	// StrategyID is the id of the strategy that produced the signal
	StrategyID string
	// Price is the underlying price the signal was evaluated against
	Price float64
	// MovingAverage is the tracked mean at evaluation time
	MovingAverage float64
	// Momentum is set only for momentum-confirmed strategies
	Momentum optional.Option[float64]
	// Reason is a short human readable explanation
	Reason string
}

// NoSignal returns an empty signal for the given bar.
func NoSignal(strategyID string, bar Bar, reason string) Signal {
	return Signal{
		Time:          bar.Time,
		Direction:     DirectionNone,
		StrategyID:    strategyID,
		Price:         bar.Price,
		MovingAverage: 0,
		Momentum:      optional.None[float64](),
		Reason:        reason,
	}
}

// IsActionable reports whether the signal asks for an entry.
func (s Signal) IsActionable() bool {
	return s.Direction == DirectionCall || s.Direction == DirectionPut
}
