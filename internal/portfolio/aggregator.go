// Package portfolio merges the ledgers of independently simulated strategies into one
// combined trade stream and equity curve.
package portfolio

import (
	"cmp"
	"slices"
	"time"

	"github.com/rxtech-lab/argo-options/internal/stats"
	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/shopspring/decimal"
)

// Ledger is the finished output of one strategy.
type Ledger struct {
	StrategyID     string
	InitialCapital float64
	Start          time.Time
	Trades         []types.Trade
}

// Portfolio is the combined view of every strategy. Strategies never share capital or
// position limits; the combined curve is the pointwise sum of their realized deltas.
type Portfolio struct {
	InitialCapital float64
	Trades         []types.Trade
	Equity         []types.EquityPoint
}

// Merge combines ledgers. Trades are ordered by exit time, then entry time, then
// strategy id. The equity curve starts at the earliest ledger start with the sum of
// initial capitals and has one point per distinct exit timestamp.
func Merge(ledgers ...Ledger) Portfolio {
	var (
		initial = decimal.Zero
		start   time.Time
		trades  []types.Trade
	)

	for i, ledger := range ledgers {
		initial = initial.Add(decimal.NewFromFloat(ledger.InitialCapital))
		if i == 0 || ledger.Start.Before(start) {
			start = ledger.Start
		}

		trades = append(trades, ledger.Trades...)
	}

	slices.SortStableFunc(trades, compareTrades)

	equity := make([]types.EquityPoint, 0, len(trades)+1)
	equity = append(equity, types.EquityPoint{Time: start, Capital: initial.InexactFloat64()})

	capital := initial
	for i := 0; i < len(trades); {
		at := trades[i].ExitTime

		for ; i < len(trades) && trades[i].ExitTime.Equal(at); i++ {
			capital = capital.Add(decimal.NewFromFloat(trades[i].PnL))
		}

		equity = append(equity, types.EquityPoint{Time: at, Capital: capital.InexactFloat64()})
	}

	return Portfolio{
		InitialCapital: initial.InexactFloat64(),
		Trades:         trades,
		Equity:         equity,
	}
}

// Report analyzes the combined curve. The report carries no strategy id.
func (p Portfolio) Report(runID string, periodsPerYear float64) types.PerformanceReport {
	return stats.Analyze(stats.Input{
		ID:             runID,
		StrategyID:     "",
		InitialCapital: p.InitialCapital,
		Trades:         p.Trades,
		Equity:         p.Equity,
		PeriodsPerYear: periodsPerYear,
	})
}

func compareTrades(a, b types.Trade) int {
	if c := a.ExitTime.Compare(b.ExitTime); c != 0 {
		return c
	}

	if c := a.EntryTime.Compare(b.EntryTime); c != 0 {
		return c
	}

	return cmp.Compare(a.StrategyID, b.StrategyID)
}
