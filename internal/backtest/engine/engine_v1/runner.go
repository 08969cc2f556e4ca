package engine

import (
	"context"
	"fmt"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-options/internal/indicator"
	"github.com/rxtech-lab/argo-options/internal/logger"
	"github.com/rxtech-lab/argo-options/internal/strategy"
	"github.com/rxtech-lab/argo-options/internal/types"
	"go.uber.org/zap"
)

// strategyRunner walks every trading day for a single strategy. It owns its trackers,
// position manager and ledger; nothing in it is shared with other runners.
type strategyRunner struct {
	index    int
	strategy *strategy.Strategy
	ma       *indicator.MovingAverage
	momentum optional.Option[indicator.Tracker]
	manager  *PositionManager
	ledger   *Ledger
	stride   int
	log      *logger.Logger
}

// runHooks are the engine callbacks a runner reports to. Any of them may be nil.
type runHooks struct {
	onBar    func() error
	onDayEnd func(day types.TradingDay, trades int) error
}

func newStrategyRunner(
	index int,
	config StrategyConfig,
	stride int,
	entryFloor types.ClockTime,
	manager *PositionManager,
	ledger *Ledger,
	log *logger.Logger,
) (*strategyRunner, error) {
	s, err := strategy.New(strategy.Config{
		ID:                config.ID,
		Variant:           config.Variant,
		Threshold:         config.Threshold,
		MomentumThreshold: config.MomentumThreshold,
		EntryFloor:        entryFloor,
	})
	if err != nil {
		return nil, err
	}

	ma, err := indicator.NewMovingAverage(config.Window, config.EffectiveMinFill())
	if err != nil {
		return nil, fmt.Errorf("strategy %s: %w", config.ID, err)
	}

	momentum := optional.None[indicator.Tracker]()

	if config.Variant.NeedsMomentum() {
		m, err := indicator.NewMomentum(config.MomentumWindow)
		if err != nil {
			return nil, fmt.Errorf("strategy %s: %w", config.ID, err)
		}

		momentum = optional.Some[indicator.Tracker](m)
	}

	return &strategyRunner{
		index:    index,
		strategy: s,
		ma:       ma,
		momentum: momentum,
		manager:  manager,
		ledger:   ledger,
		stride:   max(stride, 1),
		log:      log,
	}, nil
}

func (r *strategyRunner) id() string {
	return r.strategy.ID()
}

// run simulates days in order. The context is checked before each day.
func (r *strategyRunner) run(ctx context.Context, days []types.TradingDay, hooks runHooks) error {
	for _, day := range days {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := r.runDay(day, hooks); err != nil {
			return fmt.Errorf("strategy %s on %s: %w", r.id(), day.Date.Format("2006-01-02"), err)
		}

		if hooks.onDayEnd != nil {
			if err := hooks.onDayEnd(day, r.manager.ClosedToday()); err != nil {
				return err
			}
		}
	}

	r.log.Info("Strategy finished",
		zap.String("strategy", r.id()),
		zap.Int("trades", len(r.ledger.Trades())),
		zap.Float64("capital", r.ledger.Capital()),
	)

	return nil
}

func (r *strategyRunner) runDay(day types.TradingDay, hooks runHooks) error {
	r.ma.Reset()

	if r.momentum.IsSome() {
		r.momentum.Unwrap().Reset()
	}

	if err := r.manager.StartDay(); err != nil {
		return err
	}

	for i, bar := range day.Bars {
		ma := r.ma.Update(bar.Price)

		momentum := optional.None[float64]()
		if r.momentum.IsSome() {
			momentum = r.momentum.Unwrap().Update(bar.Price)
		}

		signal := types.NoSignal(r.id(), bar, "not an evaluation bar")
		if i%r.stride == 0 {
			signal = r.strategy.Evaluate(bar, ma, momentum)
		}

		if err := r.manager.OnBar(bar, signal); err != nil {
			return err
		}

		if hooks.onBar != nil {
			if err := hooks.onBar(); err != nil {
				return err
			}
		}
	}

	return r.manager.EndDay()
}
