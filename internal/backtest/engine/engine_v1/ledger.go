package engine

import (
	"slices"
	"time"

	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/rxtech-lab/argo-options/pkg/errors"
	"github.com/shopspring/decimal"
)

// Ledger is the append-only record of one strategy's closed trades and capital.
// Trades are never modified once recorded. The realized equity curve holds one point
// at the run start and one per closed trade, so it is piecewise constant between
// closes. Per-bar mark-to-market samples go to a separate series.
type Ledger struct {
	strategyID     string
	initialCapital decimal.Decimal
	capital        decimal.Decimal
	trades         []types.Trade
	equity         []types.EquityPoint
	marks          []types.EquityPoint
}

// NewLedger creates a ledger holding initialCapital at start.
func NewLedger(strategyID string, initialCapital float64, start time.Time) *Ledger {
	capital := decimal.NewFromFloat(initialCapital)

	return &Ledger{
		strategyID:     strategyID,
		initialCapital: capital,
		capital:        capital,
		trades:         nil,
		equity:         []types.EquityPoint{{Time: start, Capital: initialCapital}},
		marks:          nil,
	}
}

// StrategyID returns the owning strategy.
func (l *Ledger) StrategyID() string {
	return l.strategyID
}

// InitialCapital returns the capital the ledger started with.
func (l *Ledger) InitialCapital() float64 {
	return l.initialCapital.InexactFloat64()
}

// Capital returns the current realized capital.
func (l *Ledger) Capital() float64 {
	return l.capital.InexactFloat64()
}

// RecordTrade appends a closed trade, applies its P&L and samples the equity curve at
// the exit time. The stored trade carries the resulting CapitalAfter.
func (l *Ledger) RecordTrade(trade types.Trade) (types.Trade, error) {
	if trade.ExitTime.Before(trade.EntryTime) {
		return types.Trade{}, errors.Newf(errors.ErrCodeInvalidParameter,
			"trade %s exits at %s before its entry at %s", trade.PositionID, trade.ExitTime, trade.EntryTime)
	}

	if err := l.checkOrder(l.equity, trade.ExitTime); err != nil {
		return types.Trade{}, err
	}

	l.capital = l.capital.Add(decimal.NewFromFloat(trade.PnL))
	trade.CapitalAfter = l.capital.InexactFloat64()

	l.trades = append(l.trades, trade)
	l.equity = append(l.equity, types.EquityPoint{Time: trade.ExitTime, Capital: trade.CapitalAfter})

	return trade, nil
}

// SampleEquity appends a point to the realized curve without a trade.
func (l *Ledger) SampleEquity(t time.Time, capital float64) error {
	if err := l.checkOrder(l.equity, t); err != nil {
		return err
	}

	l.equity = append(l.equity, types.EquityPoint{Time: t, Capital: capital})

	return nil
}

// MarkToMarket appends a mark-to-market sample.
func (l *Ledger) MarkToMarket(t time.Time, value float64) error {
	if err := l.checkOrder(l.marks, t); err != nil {
		return err
	}

	l.marks = append(l.marks, types.EquityPoint{Time: t, Capital: value})

	return nil
}

// Trades returns a copy of the recorded trades in close order.
func (l *Ledger) Trades() []types.Trade {
	return slices.Clone(l.trades)
}

// Equity returns a copy of the sampled realized curve.
func (l *Ledger) Equity() []types.EquityPoint {
	return slices.Clone(l.equity)
}

// Marks returns a copy of the mark-to-market series.
func (l *Ledger) Marks() []types.EquityPoint {
	return slices.Clone(l.marks)
}

// RealizedCurve rebuilds the realized curve from the start point and the trade list.
// Calling it any number of times yields the same series.
func (l *Ledger) RealizedCurve() []types.EquityPoint {
	curve := make([]types.EquityPoint, 0, len(l.trades)+1)
	curve = append(curve, l.equity[0])

	capital := l.initialCapital
	for _, trade := range l.trades {
		capital = capital.Add(decimal.NewFromFloat(trade.PnL))
		curve = append(curve, types.EquityPoint{Time: trade.ExitTime, Capital: capital.InexactFloat64()})
	}

	return curve
}

func (l *Ledger) checkOrder(series []types.EquityPoint, t time.Time) error {
	if len(series) == 0 {
		return nil
	}

	last := series[len(series)-1].Time
	if t.Before(last) {
		return errors.Newf(errors.ErrCodeEquityOutOfOrder,
			"%s: sample at %s is before the last sample at %s", l.strategyID, t.Format(time.RFC3339), last.Format(time.RFC3339))
	}

	return nil
}
