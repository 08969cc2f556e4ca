// Package stats derives performance reports from a closed trade list and an equity
// curve. Every function here is pure: the same ledger always yields the same report.
package stats

import (
	"math"
	"time"

	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/shopspring/decimal"
)

const (
	// DefaultPeriodsPerYear annualizes the Sharpe ratio of daily-ish samples.
	DefaultPeriodsPerYear = 252
	daysPerYear           = 365.0
)

// Input is everything the analyzer reads.
type Input struct {
	ID             string
	StrategyID     string
	InitialCapital float64
	Trades         []types.Trade
	// Equity is the realized curve, oldest first. The first point carries the initial capital.
	Equity         []types.EquityPoint
	PeriodsPerYear float64
}

// Analyze computes the performance report of one ledger.
func Analyze(input Input) types.PerformanceReport {
	periods := input.PeriodsPerYear
	if periods <= 0 {
		periods = DefaultPeriodsPerYear
	}

	final := input.InitialCapital
	if len(input.Equity) > 0 {
		final = input.Equity[len(input.Equity)-1].Capital
	}

	report := types.PerformanceReport{
		ID:             input.ID,
		StrategyID:     input.StrategyID,
		InitialCapital: input.InitialCapital,
		FinalCapital:   final,
		CAGR:           CAGR(input.Equity, input.InitialCapital),
		Sharpe:         Sharpe(Returns(input.Equity), periods),
		MaxDrawdown:    MaxDrawdown(input.Equity),
		ProfitFactor:   ProfitFactor(input.Trades),
		WinRate:        WinRate(input.Trades),
		TotalTrades:    len(input.Trades),
	}

	if len(input.Equity) > 0 {
		report.StartTime = input.Equity[0].Time
		report.EndTime = input.Equity[len(input.Equity)-1].Time
	}

	if input.InitialCapital > 0 {
		report.TotalReturn = final/input.InitialCapital - 1
	}

	report.Calmar = Calmar(report.CAGR, report.MaxDrawdown, len(input.Trades))

	fillTradeCounts(&report, input.Trades)

	return report
}

// CAGR is (final/initial)^(365/days) - 1 over the span of the curve. It is undefined
// for spans shorter than one day or a non-positive initial capital.
func CAGR(equity []types.EquityPoint, initialCapital float64) types.Metric {
	if len(equity) < 2 || initialCapital <= 0 {
		return types.MetricUndefined()
	}

	days := TotalDays(equity)
	if days < 1 {
		return types.MetricUndefined()
	}

	final := equity[len(equity)-1].Capital
	if final < 0 {
		return types.MetricUndefined()
	}

	return types.MetricValue(math.Pow(final/initialCapital, daysPerYear/days) - 1)
}

// Returns are the simple returns between consecutive equity points. Points following a
// non-positive capital are skipped.
func Returns(equity []types.EquityPoint) []float64 {
	if len(equity) < 2 {
		return nil
	}

	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Capital
		if prev <= 0 {
			continue
		}

		returns = append(returns, equity[i].Capital/prev-1)
	}

	return returns
}

// Sharpe is the mean over the sample standard deviation of returns, annualized by
// sqrt(periodsPerYear). It is undefined with fewer than two returns or zero variance.
func Sharpe(returns []float64, periodsPerYear float64) types.Metric {
	if len(returns) < 2 {
		return types.MetricUndefined()
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}

	mean := sum / float64(len(returns))

	var squares float64
	for _, r := range returns {
		squares += (r - mean) * (r - mean)
	}

	std := math.Sqrt(squares / float64(len(returns)-1))
	if std == 0 {
		return types.MetricUndefined()
	}

	return types.MetricValue(mean / std * math.Sqrt(periodsPerYear))
}

// MaxDrawdown is the deepest (equity - running peak) / running peak along the curve.
// It is zero or negative.
func MaxDrawdown(equity []types.EquityPoint) float64 {
	var (
		peak     float64
		drawdown float64
	)

	for i, point := range equity {
		if i == 0 || point.Capital > peak {
			peak = point.Capital
		}

		if peak <= 0 {
			continue
		}

		if dd := (point.Capital - peak) / peak; dd < drawdown {
			drawdown = dd
		}
	}

	return drawdown
}

// Calmar is CAGR / |max drawdown|. It is infinite whenever at least one trade closed
// without a drawdown, even when the span is too short for a CAGR.
func Calmar(cagr types.Metric, maxDrawdown float64, trades int) types.Metric {
	if trades == 0 {
		return types.MetricUndefined()
	}

	if maxDrawdown == 0 {
		return types.MetricInfinite()
	}

	if !cagr.IsDefined() {
		return types.MetricUndefined()
	}

	return types.MetricValue(cagr.Value / math.Abs(maxDrawdown))
}

// ProfitFactor is gross profit / |gross loss|.
func ProfitFactor(trades []types.Trade) types.Metric {
	if len(trades) == 0 {
		return types.MetricUndefined()
	}

	profit, loss := grossProfitLoss(trades)

	switch {
	case loss.IsZero() && profit.IsZero():
		return types.MetricUndefined()
	case loss.IsZero():
		return types.MetricInfinite()
	}

	return types.MetricValue(profit.Div(loss.Abs()).InexactFloat64())
}

// WinRate is the share of trades with a positive P&L.
func WinRate(trades []types.Trade) types.Metric {
	if len(trades) == 0 {
		return types.MetricUndefined()
	}

	wins := 0
	for _, trade := range trades {
		if trade.IsWin() {
			wins++
		}
	}

	return types.MetricValue(float64(wins) / float64(len(trades)))
}

// TotalDays returns the span of the curve in days.
func TotalDays(equity []types.EquityPoint) float64 {
	if len(equity) < 2 {
		return 0
	}

	return equity[len(equity)-1].Time.Sub(equity[0].Time).Round(time.Second).Hours() / 24
}

func grossProfitLoss(trades []types.Trade) (decimal.Decimal, decimal.Decimal) {
	profit := decimal.Zero
	loss := decimal.Zero

	for _, trade := range trades {
		pnl := decimal.NewFromFloat(trade.PnL)

		switch {
		case trade.IsWin():
			profit = profit.Add(pnl)
		case trade.IsLoss():
			loss = loss.Add(pnl)
		}
	}

	return profit, loss
}

func fillTradeCounts(report *types.PerformanceReport, trades []types.Trade) {
	profit, loss := grossProfitLoss(trades)
	fees := decimal.Zero

	var winStreak, lossStreak int

	for _, trade := range trades {
		fees = fees.Add(decimal.NewFromFloat(trade.Fees))

		switch {
		case trade.IsWin():
			report.WinningTrades++
			winStreak++
			lossStreak = 0
		case trade.IsLoss():
			report.LosingTrades++
			lossStreak++
			winStreak = 0
		default:
			winStreak = 0
			lossStreak = 0
		}

		report.MaxConsecutiveWins = max(report.MaxConsecutiveWins, winStreak)
		report.MaxConsecutiveLosses = max(report.MaxConsecutiveLosses, lossStreak)
	}

	report.TotalFees = fees.InexactFloat64()
	report.AverageProfit = types.MetricUndefined()
	report.AverageLoss = types.MetricUndefined()

	if report.WinningTrades > 0 {
		report.AverageProfit = types.MetricValue(profit.Div(decimal.NewFromInt(int64(report.WinningTrades))).InexactFloat64())
	}

	if report.LosingTrades > 0 {
		report.AverageLoss = types.MetricValue(loss.Div(decimal.NewFromInt(int64(report.LosingTrades))).InexactFloat64())
	}
}
