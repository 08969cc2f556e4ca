package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-options/internal/backtest/engine"
	"github.com/rxtech-lab/argo-options/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-options/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-options/internal/logger"
	"github.com/rxtech-lab/argo-options/internal/option"
	"github.com/rxtech-lab/argo-options/internal/portfolio"
	"github.com/rxtech-lab/argo-options/internal/stats"
	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/rxtech-lab/argo-options/internal/writer"
	"github.com/rxtech-lab/argo-options/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type BacktestEngineV1 struct {
	config        BacktestConfig
	initialized   bool
	resultsFolder string
	log           *logger.Logger
	datasource    datasource.DataSource
	pricer        option.Pricer
}

func NewBacktestEngineV1() engine.Engine {
	return NewBacktestEngineV1WithLogger(nil)
}

// NewBacktestEngineV1WithLogger creates an engine that logs to log. A nil logger is
// replaced by a production logger on Initialize.
func NewBacktestEngineV1WithLogger(log *logger.Logger) engine.Engine {
	return &BacktestEngineV1{
		config:        EmptyConfig(),
		initialized:   false,
		resultsFolder: "",
		log:           log,
		datasource:    nil,
		pricer:        nil,
	}
}

// Initialize implements engine.Engine.
func (b *BacktestEngineV1) Initialize(config string) error {
	parsed, err := ParseConfig(config)
	if err != nil {
		return err
	}

	if b.log == nil {
		b.log, err = logger.NewLogger()
		if err != nil {
			return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to create logger", err)
		}
	}

	b.config = parsed
	b.initialized = true

	b.log.Debug("Backtest engine initialized",
		zap.String("symbol", parsed.Symbol),
		zap.Int("strategies", len(parsed.Strategies)),
	)

	return nil
}

// SetDataSource implements engine.Engine.
func (b *BacktestEngineV1) SetDataSource(datasource datasource.DataSource) error {
	b.datasource = datasource

	return nil
}

// SetPricer implements engine.Engine.
func (b *BacktestEngineV1) SetPricer(pricer option.Pricer) error {
	b.pricer = pricer

	return nil
}

// SetResultsFolder implements engine.Engine.
func (b *BacktestEngineV1) SetResultsFolder(folder string) error {
	b.resultsFolder = folder

	return nil
}

// Run implements engine.Engine.
func (b *BacktestEngineV1) Run(ctx context.Context, callbacks engine.LifecycleCallbacks) (result *engine.Result, err error) {
	defer func() {
		if callbacks.OnBacktestEnd != nil {
			(*callbacks.OnBacktestEnd)(err)
		}
	}()

	if err := b.preRunCheck(); err != nil {
		return nil, err
	}

	loc, err := b.config.Location()
	if err != nil {
		return nil, err
	}

	days, err := datasource.LoadTradingDays(b.datasource, b.config.Symbol, b.config.StartTime, b.config.EndTime, loc)
	if err != nil {
		return nil, err
	}

	pricer, err := b.buildPricer()
	if err != nil {
		return nil, err
	}

	resolver, err := b.buildResolver(pricer, loc)
	if err != nil {
		return nil, err
	}

	commissionFee, err := commission_fee.GetCommissionFeeHandler(b.config.Broker, b.config.FlatFee)
	if err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	totalStrategies := len(b.config.Strategies)

	b.log.Info("Backtest started",
		zap.String("run_id", runID),
		zap.Int("strategies", totalStrategies),
		zap.Int("days", len(days)),
		zap.Time("first_day", days[0].Date),
		zap.Time("last_day", days[len(days)-1].Date),
	)

	if callbacks.OnBacktestStart != nil {
		if err := (*callbacks.OnBacktestStart)(runID, totalStrategies, len(days)); err != nil {
			return nil, err
		}
	}

	start := days[0].Bars[0].Time
	runners := make([]*strategyRunner, 0, totalStrategies)

	for i, config := range b.config.Strategies {
		log := b.log.ForStrategy(config.ID)
		ledger := NewLedger(config.ID, b.config.InitialCapital, start)
		manager := NewPositionManager(config.ID, PositionManagerConfig{
			EntryFloor:       b.config.EntryFloor,
			Cutoff:           b.config.Cutoff,
			MaxEntriesPerDay: b.config.MaxEntriesPerDay,
			Allocation:       b.config.Allocation,
			MarkToMarket:     b.config.MarkToMarket,
			StopLoss:         b.config.StopLoss,
			TakeProfit:       b.config.TakeProfit,
		}, resolver, pricer, commissionFee, ledger, log)

		runner, err := newStrategyRunner(i, config, b.config.EvaluationStride, b.config.EntryFloor, manager, ledger, log)
		if err != nil {
			return nil, err
		}

		runners = append(runners, runner)
	}

	if err := b.runStrategies(ctx, runners, days, callbacks); err != nil {
		return nil, err
	}

	result = b.collect(runID, runners)

	if b.resultsFolder != "" {
		if err := b.writeResults(result); err != nil {
			return nil, err
		}
	}

	b.log.Info("Backtest finished",
		zap.String("run_id", runID),
		zap.Int("trades", len(result.Portfolio.Trades)),
		zap.Float64("final_capital", result.Portfolio.Report.FinalCapital),
	)

	return result, nil
}

// runStrategies runs one worker per strategy. The first failure cancels the others.
func (b *BacktestEngineV1) runStrategies(ctx context.Context, runners []*strategyRunner, days []types.TradingDay, callbacks engine.LifecycleCallbacks) error {
	totalBars := 0
	for _, day := range days {
		totalBars += len(day.Bars)
	}

	total := totalBars * len(runners)

	var processed atomic.Int64

	group, groupCtx := errgroup.WithContext(ctx)

	for _, runner := range runners {
		group.Go(func() error {
			if callbacks.OnStrategyStart != nil {
				if err := (*callbacks.OnStrategyStart)(runner.index, runner.id(), len(runners)); err != nil {
					return err
				}
			}

			hooks := runHooks{onBar: nil, onDayEnd: nil}

			if callbacks.OnProcessData != nil {
				hooks.onBar = func() error {
					return (*callbacks.OnProcessData)(int(processed.Add(1)), total)
				}
			}

			if callbacks.OnDayEnd != nil {
				hooks.onDayEnd = func(day types.TradingDay, trades int) error {
					return (*callbacks.OnDayEnd)(runner.id(), day.Date, trades)
				}
			}

			if err := runner.run(groupCtx, days, hooks); err != nil {
				return err
			}

			if callbacks.OnStrategyEnd != nil {
				(*callbacks.OnStrategyEnd)(runner.index, runner.id())
			}

			return nil
		})
	}

	return group.Wait()
}

func (b *BacktestEngineV1) collect(runID string, runners []*strategyRunner) *engine.Result {
	result := &engine.Result{
		RunID:      runID,
		Strategies: make([]engine.StrategyResult, 0, len(runners)),
		Portfolio:  engine.StrategyResult{},
	}

	ledgers := make([]portfolio.Ledger, 0, len(runners))

	for _, runner := range runners {
		ledger := runner.ledger
		trades := ledger.Trades()
		equity := ledger.Equity()

		result.Strategies = append(result.Strategies, engine.StrategyResult{
			StrategyID:   runner.id(),
			Trades:       trades,
			Equity:       equity,
			MarkToMarket: ledger.Marks(),
			Report: stats.Analyze(stats.Input{
				ID:             runID,
				StrategyID:     runner.id(),
				InitialCapital: ledger.InitialCapital(),
				Trades:         trades,
				Equity:         equity,
				PeriodsPerYear: b.config.PeriodsPerYear,
			}),
		})

		ledgers = append(ledgers, portfolio.Ledger{
			StrategyID:     runner.id(),
			InitialCapital: ledger.InitialCapital(),
			Start:          equity[0].Time,
			Trades:         trades,
		})
	}

	combined := portfolio.Merge(ledgers...)
	result.Portfolio = engine.StrategyResult{
		StrategyID:   engine.PortfolioID,
		Trades:       combined.Trades,
		Equity:       combined.Equity,
		MarkToMarket: nil,
		Report:       combined.Report(runID, b.config.PeriodsPerYear),
	}

	return result
}

func (b *BacktestEngineV1) writeResults(result *engine.Result) error {
	w, err := writer.NewResultWriter(b.log)
	if err != nil {
		return err
	}
	defer w.Close()

	outputs := append(slices.Clone(result.Strategies), result.Portfolio)
	reports := make([]types.PerformanceReport, 0, len(outputs))

	for _, output := range outputs {
		folder := filepath.Join(b.resultsFolder, output.StrategyID)
		if err := w.Write(folder, writer.Output{
			Trades: output.Trades,
			Equity: output.Equity,
			Marks:  output.MarkToMarket,
			Report: output.Report,
		}); err != nil {
			return fmt.Errorf("failed to write results of %s: %w", output.StrategyID, err)
		}

		reports = append(reports, output.Report)
	}

	if err := types.WriteReports(filepath.Join(b.resultsFolder, writer.ReportFile), reports); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to write summary report", err)
	}

	b.log.Info("Results written", zap.String("folder", b.resultsFolder))

	return nil
}

// buildPricer returns the pricer set with SetPricer, or one built from the config.
func (b *BacktestEngineV1) buildPricer() (option.Pricer, error) {
	if b.pricer != nil {
		return b.pricer, nil
	}

	switch b.config.Pricer.Type {
	case PricerTypeBlackScholes:
		return option.NewBlackScholesPricer(b.config.Pricer.Volatility, b.config.Pricer.RiskFreeRate, b.config.Pricer.SessionClose)
	case PricerTypeQuoteBook:
		return nil, errors.New(errors.ErrCodeBacktestInitFailed, "quote_book pricer needs a quote book set with SetPricer")
	}

	return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "unknown pricer type %q", b.config.Pricer.Type)
}

// buildResolver uses the configured expiries, falling back to the expiries of a quote book.
func (b *BacktestEngineV1) buildResolver(pricer option.Pricer, loc *time.Location) (*option.Resolver, error) {
	expiries := b.config.Expiries
	if len(expiries) == 0 {
		if book, ok := pricer.(*option.QuoteBook); ok {
			expiries = book.Expiries()
		}
	}

	if len(expiries) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "no expiries configured")
	}

	return option.NewResolver(b.config.Symbol, b.config.StrikeIncrement, option.NewExpiryCalendar(expiries, loc))
}

// GetConfigSchema implements engine.Engine.
func (b *BacktestEngineV1) GetConfigSchema() (string, error) {
	schema, err := b.config.GenerateSchemaJSON()
	if err != nil {
		return "", fmt.Errorf("failed to generate schema: %w", err)
	}

	return schema, nil
}

func (b *BacktestEngineV1) preRunCheck() error {
	if !b.initialized {
		return errors.New(errors.ErrCodeBacktestInitFailed, "engine is not initialized")
	}

	if len(b.config.Strategies) == 0 {
		b.log.Error("No strategies configured")

		return errors.New(errors.ErrCodeBacktestNoStrategies, "no strategies configured")
	}

	if b.datasource == nil {
		b.log.Error("No datasource set")

		return errors.New(errors.ErrCodeBacktestNoDatasource, "no datasource set")
	}

	return nil
}
