// Package strategy turns a bar and its tracker readings into an entry signal.
//
// Every variant compares the bar price against the moving average scaled by a
// relative threshold:
//
//	reversion:            Put when price >= ma*(1+t), Call when price <= ma*(1-t)
//	directional:          Call when price >= ma*(1+t), Put when price <= ma*(1-t)
//	confirmed_reversion:  reversion, plus momentum above +m for Put and below -m for Call
//
// No variant emits a signal before the entry floor or while a tracker is warming up.
package strategy

import (
	"fmt"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/rxtech-lab/argo-options/pkg/errors"
)

// Config is the immutable configuration of a single strategy.
type Config struct {
	ID        string
	Variant   Variant
	Threshold float64
	// MomentumThreshold is only read by the confirmed reversion variant
	MomentumThreshold float64
	EntryFloor        types.ClockTime
}

// Strategy evaluates one variant's entry rule.
type Strategy struct {
	config Config
}

// New validates the config and returns a strategy.
func New(config Config) (*Strategy, error) {
	if config.ID == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "strategy id is required")
	}

	if err := config.Variant.Validate(); err != nil {
		return nil, err
	}

	if config.Threshold <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidThreshold, "strategy %s: threshold must be positive, got %v", config.ID, config.Threshold)
	}

	if config.MomentumThreshold < 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidThreshold, "strategy %s: momentum threshold must not be negative, got %v", config.ID, config.MomentumThreshold)
	}

	return &Strategy{config: config}, nil
}

// ID returns the strategy identifier.
func (s *Strategy) ID() string {
	return s.config.ID
}

// Variant returns the strategy's entry rule.
func (s *Strategy) Variant() Variant {
	return s.config.Variant
}

// Config returns a copy of the strategy configuration.
func (s *Strategy) Config() Config {
	return s.config
}

// Evaluate decides whether the bar is an entry. Warm-up and the entry floor yield a
// signal with DirectionNone, never an error.
func (s *Strategy) Evaluate(bar types.Bar, ma optional.Option[float64], momentum optional.Option[float64]) types.Signal {
	if bar.Time.Before(s.config.EntryFloor.On(bar.Time)) {
		return types.NoSignal(s.config.ID, bar, "before entry floor")
	}

	if ma.IsNone() {
		return types.NoSignal(s.config.ID, bar, "moving average warming up")
	}

	mean := ma.Unwrap()
	if mean <= 0 {
		return types.NoSignal(s.config.ID, bar, "moving average is not positive")
	}

	upper := mean * (1 + s.config.Threshold)
	lower := mean * (1 - s.config.Threshold)
	above := bar.Price >= upper
	below := bar.Price <= lower

	signal := types.NoSignal(s.config.ID, bar, "within band")
	signal.MovingAverage = mean

	switch s.config.Variant {
	case VariantReversion:
		signal.Direction, signal.Reason = fade(above, below)
	case VariantDirectional:
		switch {
		case above:
			signal.Direction = types.DirectionCall
			signal.Reason = fmt.Sprintf("price %.2f at or above %.2f", bar.Price, upper)
		case below:
			signal.Direction = types.DirectionPut
			signal.Reason = fmt.Sprintf("price %.2f at or below %.2f", bar.Price, lower)
		}
	case VariantConfirmedReversion:
		if momentum.IsNone() {
			signal.Reason = "momentum warming up"

			return signal
		}

		m := momentum.Unwrap()
		signal.Momentum = momentum

		rising := m > s.config.MomentumThreshold
		falling := m < -s.config.MomentumThreshold
		signal.Direction, signal.Reason = fade(above && rising, below && falling)
	}

	return signal
}

// fade maps a stretched price to the opposite option side.
func fade(overbought, oversold bool) (types.Direction, string) {
	switch {
	case overbought:
		return types.DirectionPut, "overbought"
	case oversold:
		return types.DirectionCall, "oversold"
	}

	return types.DirectionNone, "within band"
}
