package engine

import (
	"context"
	"time"

	"github.com/rxtech-lab/argo-options/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-options/internal/option"
	"github.com/rxtech-lab/argo-options/internal/types"
)

// Lifecycle callback types for backtest phases
// All callbacks with error return can abort execution if they return an error.
// Strategies run concurrently, so every callback except OnBacktestStart and
// OnBacktestEnd may be invoked from several goroutines at once.

// OnBacktestStartCallback is called once the trading days are loaded, before any strategy runs.
type OnBacktestStartCallback func(runID string, totalStrategies int, totalDays int) error

// OnBacktestEndCallback is called when the entire backtest completes (always called via defer).
type OnBacktestEndCallback func(err error)

// OnStrategyStartCallback is called when a strategy worker begins.
type OnStrategyStartCallback func(strategyIndex int, strategyID string, totalStrategies int) error

// OnStrategyEndCallback is called when a strategy worker has walked every trading day.
type OnStrategyEndCallback func(strategyIndex int, strategyID string)

// OnDayEndCallback is called after a strategy finishes a trading day. trades is the
// number of positions the strategy closed that day.
type OnDayEndCallback func(strategyID string, day time.Time, trades int) error

// OnProcessDataCallback is called for each bar processed. current counts bars across
// all strategies and total is bars times strategies.
type OnProcessDataCallback func(current int, total int) error

// LifecycleCallbacks holds all lifecycle callback functions for the backtest engine.
// All fields are pointers - nil means no callback will be invoked.
type LifecycleCallbacks struct {
	OnBacktestStart *OnBacktestStartCallback
	OnBacktestEnd   *OnBacktestEndCallback
	OnStrategyStart *OnStrategyStartCallback
	OnStrategyEnd   *OnStrategyEndCallback
	OnDayEnd        *OnDayEndCallback
	OnProcessData   *OnProcessDataCallback
}

// StrategyResult is the ledger and report of one strategy, or of the combined
// portfolio when StrategyID is PortfolioID.
type StrategyResult struct {
	StrategyID string
	Trades     []types.Trade
	// Equity is the realized curve, sampled at the run start and at every close
	Equity []types.EquityPoint
	// MarkToMarket is only filled when per-bar marking is enabled
	MarkToMarket []types.EquityPoint
	Report       types.PerformanceReport
}

// PortfolioID identifies the combined portfolio in results and written files.
const PortfolioID = "portfolio"

// Result is everything a backtest run produced.
type Result struct {
	RunID      string
	Strategies []StrategyResult
	Portfolio  StrategyResult
}

// Engine runs a configured set of strategies over a bar feed.
type Engine interface {
	// Initialize the engine with the given YAML configuration.
	Initialize(config string) error
	// SetDataSource sets the bar feed for the engine.
	SetDataSource(dataSource datasource.DataSource) error
	// SetPricer overrides the pricer built from the configuration, e.g. with a quote
	// book loaded from recorded option prices.
	SetPricer(pricer option.Pricer) error
	// SetResultsFolder sets the output directory. When empty nothing is written.
	SetResultsFolder(folder string) error
	// Run runs every strategy and aggregates the results.
	// The context can be used to cancel the backtest between trading days.
	// Use LifecycleCallbacks to receive notifications at different phases of the backtest.
	Run(ctx context.Context, callbacks LifecycleCallbacks) (*Result, error)
	// GetConfigSchema returns the JSON schema of the engine configuration
	GetConfigSchema() (string, error)
}
