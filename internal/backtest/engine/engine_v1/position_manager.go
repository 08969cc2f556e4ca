package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-options/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-options/internal/logger"
	"github.com/rxtech-lab/argo-options/internal/option"
	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/rxtech-lab/argo-options/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PositionState is the per-strategy, per-day state of the position manager.
type PositionState string

const (
	// StateIdle accepts entries.
	StateIdle PositionState = "idle"
	// StateInPosition holds one open position; further signals are dropped.
	StateInPosition PositionState = "in_position"
	// StateExhausted has used every entry of the day.
	StateExhausted PositionState = "exhausted"
	// StateClosed is past the cutoff or the end of the day.
	StateClosed PositionState = "closed"
)

// PositionEvent drives the state machine.
type PositionEvent string

const (
	EventNewDay   PositionEvent = "new_day"
	EventEnter    PositionEvent = "enter"
	EventExit     PositionEvent = "exit"
	EventCutoff   PositionEvent = "cutoff"
	EventEndOfDay PositionEvent = "end_of_day"
)

// transition returns the next state. entriesLeft is only read when leaving a position.
// An open position must be exited before the cutoff or end-of-day events.
func transition(state PositionState, event PositionEvent, entriesLeft bool) (PositionState, error) {
	switch {
	case event == EventNewDay && state != StateInPosition:
		return StateIdle, nil
	case event == EventEnter && state == StateIdle:
		return StateInPosition, nil
	case event == EventExit && state == StateInPosition:
		if entriesLeft {
			return StateIdle, nil
		}

		return StateExhausted, nil
	case (event == EventCutoff || event == EventEndOfDay) && state != StateInPosition:
		return StateClosed, nil
	}

	return state, errors.Newf(errors.ErrCodeInvalidTransition, "invalid transition %s --%s-->", state, event)
}

// PositionManagerConfig holds the trading-day rules of one strategy.
type PositionManagerConfig struct {
	EntryFloor       types.ClockTime
	Cutoff           types.ClockTime
	MaxEntriesPerDay int
	Allocation       float64
	MarkToMarket     bool
	// StopLoss and TakeProfit are premium moves relative to the entry premium
	// (0.5 = 50%). Zero disables the exit.
	StopLoss   float64
	TakeProfit float64
}

// PositionManager enforces the entry floor, the daily entry cap, one open position at
// a time and the forced close at the cutoff. It is owned by a single strategy worker.
type PositionManager struct {
	strategyID    string
	config        PositionManagerConfig
	resolver      *option.Resolver
	pricer        option.Pricer
	commissionFee commission_fee.CommissionFee
	ledger        *Ledger
	log           *logger.Logger

	state        PositionState
	entriesToday int
	closedToday  int
	position     optional.Option[types.Position]
	lastBar      optional.Option[types.Bar]
}

// NewPositionManager creates a manager in the Closed state; StartDay opens the first day.
func NewPositionManager(
	strategyID string,
	config PositionManagerConfig,
	resolver *option.Resolver,
	pricer option.Pricer,
	commissionFee commission_fee.CommissionFee,
	ledger *Ledger,
	log *logger.Logger,
) *PositionManager {
	return &PositionManager{
		strategyID:    strategyID,
		config:        config,
		resolver:      resolver,
		pricer:        pricer,
		commissionFee: commissionFee,
		ledger:        ledger,
		log:           log,
		state:         StateClosed,
		entriesToday:  0,
		closedToday:   0,
		position:      optional.None[types.Position](),
		lastBar:       optional.None[types.Bar](),
	}
}

// State returns the current state.
func (m *PositionManager) State() PositionState {
	return m.state
}

// EntriesToday returns the number of positions opened on the current day.
func (m *PositionManager) EntriesToday() int {
	return m.entriesToday
}

// ClosedToday returns the number of positions closed on the current day.
func (m *PositionManager) ClosedToday() int {
	return m.closedToday
}

// OpenPosition returns the open position, if any.
func (m *PositionManager) OpenPosition() optional.Option[types.Position] {
	return m.position
}

// StartDay resets the daily counters.
func (m *PositionManager) StartDay() error {
	if err := m.apply(EventNewDay); err != nil {
		return err
	}

	m.entriesToday = 0
	m.closedToday = 0
	m.lastBar = optional.None[types.Bar]()

	return nil
}

// OnBar processes one bar and the signal evaluated on it. The first bar at or after
// the cutoff forces any open position closed at the cutoff time, priced against the
// last bar observed at or before the cutoff.
func (m *PositionManager) OnBar(bar types.Bar, signal types.Signal) error {
	if m.state == StateClosed {
		return nil
	}

	cutoffAt := m.config.Cutoff.On(bar.Time)
	if !bar.Time.Before(cutoffAt) {
		reference := bar
		if bar.Time.After(cutoffAt) && m.lastBar.IsSome() {
			reference = m.lastBar.Unwrap()
		}

		if m.state == StateInPosition {
			if err := m.exit(cutoffAt, reference.Price, types.ExitReasonCutoff); err != nil {
				return err
			}
		}

		return m.apply(EventCutoff)
	}

	m.lastBar = optional.Some(bar)

	if m.state == StateInPosition {
		if err := m.checkExit(bar); err != nil {
			return err
		}
	}

	if signal.IsActionable() {
		if err := m.tryEnter(bar, signal); err != nil {
			return err
		}
	}

	if m.config.MarkToMarket {
		return m.mark(bar)
	}

	return nil
}

// EndDay closes a position still open because the feed ended before the cutoff, at
// the last bar's time and price.
func (m *PositionManager) EndDay() error {
	if m.state == StateInPosition {
		last := m.lastBar.Unwrap()
		if err := m.exit(last.Time, last.Price, types.ExitReasonEndOfDay); err != nil {
			return err
		}
	}

	return m.apply(EventEndOfDay)
}

func (m *PositionManager) tryEnter(bar types.Bar, signal types.Signal) error {
	switch m.state {
	case StateInPosition:
		m.log.Debug("Signal dropped, position already open",
			zap.String("strategy", m.strategyID),
			zap.Time("time", bar.Time),
			zap.String("direction", string(signal.Direction)),
		)

		return nil
	case StateExhausted, StateClosed:
		return nil
	case StateIdle:
	}

	if bar.Time.Before(m.config.EntryFloor.On(bar.Time)) || m.entriesToday >= m.config.MaxEntriesPerDay {
		return nil
	}

	contract, err := m.resolver.Resolve(signal, bar.Price, bar.Time)
	if err != nil {
		m.log.Warn("Entry aborted, contract not resolved",
			zap.String("strategy", m.strategyID),
			zap.Time("time", bar.Time),
			zap.Error(err),
		)

		return nil
	}

	premium, err := m.pricer.Price(contract, bar.Price, bar.Time)
	if err != nil {
		m.log.Warn("Entry aborted, contract not priced",
			zap.String("strategy", m.strategyID),
			zap.String("contract", contract.Symbol()),
			zap.Error(err),
		)

		return nil
	}

	capital := decimal.NewFromFloat(m.ledger.Capital())
	if !capital.IsPositive() || premium <= 0 {
		m.log.Warn("Entry aborted, nothing to invest",
			zap.String("strategy", m.strategyID),
			zap.Float64("capital", capital.InexactFloat64()),
			zap.Float64("premium", premium),
		)

		return nil
	}

	investment := capital.Mul(decimal.NewFromFloat(m.config.Allocation))
	quantity := investment.Div(decimal.NewFromFloat(premium))

	if err := m.apply(EventEnter); err != nil {
		return err
	}

	position := types.Position{
		ID:                uuid.New().String(),
		StrategyID:        m.strategyID,
		Contract:          contract,
		EntryTime:         bar.Time,
		EntryPrice:        premium,
		Quantity:          quantity.InexactFloat64(),
		Investment:        investment.InexactFloat64(),
		EntryFee:          m.commissionFee.Calculate(quantity.InexactFloat64()),
		Status:            types.PositionStatusOpen,
		UnderlyingAtEntry: bar.Price,
	}

	m.position = optional.Some(position)
	m.entriesToday++

	m.log.Debug("Position opened",
		zap.String("strategy", m.strategyID),
		zap.String("contract", contract.Symbol()),
		zap.Time("time", bar.Time),
		zap.Float64("premium", premium),
		zap.Float64("quantity", position.Quantity),
		zap.String("reason", signal.Reason),
	)

	return nil
}

// checkExit closes the open position on a stop loss or take profit. Bars without a
// price keep the position open.
func (m *PositionManager) checkExit(bar types.Bar) error {
	if m.config.StopLoss <= 0 && m.config.TakeProfit <= 0 {
		return nil
	}

	position := m.position.Unwrap()

	premium, err := m.pricer.Price(position.Contract, bar.Price, bar.Time)
	if err != nil {
		if errors.Is(err, errors.ErrPriceUnavailable) {
			return nil
		}

		return fmt.Errorf("failed to price %s: %w", position.Contract.Symbol(), err)
	}

	change := (premium - position.EntryPrice) / position.EntryPrice

	switch {
	case m.config.StopLoss > 0 && change <= -m.config.StopLoss:
		return m.exit(bar.Time, bar.Price, types.ExitReasonStopLoss)
	case m.config.TakeProfit > 0 && change >= m.config.TakeProfit:
		return m.exit(bar.Time, bar.Price, types.ExitReasonTakeProfit)
	}

	return nil
}

func (m *PositionManager) exit(at time.Time, underlying float64, reason types.ExitReason) error {
	position := m.position.Unwrap()

	premium, err := m.pricer.Price(position.Contract, underlying, at)
	if err != nil {
		return fmt.Errorf("failed to price exit of %s: %w", position.Contract.Symbol(), err)
	}

	entry := decimal.NewFromFloat(position.EntryPrice)
	exit := decimal.NewFromFloat(premium)
	quantity := decimal.NewFromFloat(position.Quantity)
	exitFee := m.commissionFee.Calculate(position.Quantity)
	fees := decimal.NewFromFloat(position.EntryFee).Add(decimal.NewFromFloat(exitFee))
	pnl := quantity.Mul(exit.Sub(entry)).Sub(fees)

	trade, err := m.ledger.RecordTrade(types.Trade{
		PositionID:        position.ID,
		StrategyID:        m.strategyID,
		Contract:          position.Contract,
		EntryTime:         position.EntryTime,
		ExitTime:          at,
		EntryPrice:        position.EntryPrice,
		ExitPrice:         premium,
		Quantity:          position.Quantity,
		Investment:        position.Investment,
		UnderlyingAtEntry: position.UnderlyingAtEntry,
		UnderlyingAtExit:  underlying,
		Fees:              fees.InexactFloat64(),
		PnL:               pnl.InexactFloat64(),
		PnLPercent:        exit.Sub(entry).Div(entry).Mul(decimal.NewFromInt(100)).InexactFloat64(),
		CapitalAfter:      0,
		ExitReason:        reason,
	})
	if err != nil {
		return err
	}

	m.position = optional.None[types.Position]()
	m.closedToday++

	if err := m.apply(EventExit); err != nil {
		return err
	}

	m.log.Debug("Position closed",
		zap.String("strategy", m.strategyID),
		zap.String("contract", trade.Contract.Symbol()),
		zap.Time("time", at),
		zap.String("reason", string(reason)),
		zap.Float64("pnl", trade.PnL),
		zap.Float64("capital", trade.CapitalAfter),
	)

	return nil
}

func (m *PositionManager) mark(bar types.Bar) error {
	value := decimal.NewFromFloat(m.ledger.Capital())

	if m.position.IsSome() {
		position := m.position.Unwrap()

		premium, err := m.pricer.Price(position.Contract, bar.Price, bar.Time)
		if err != nil {
			if !errors.Is(err, errors.ErrPriceUnavailable) {
				return fmt.Errorf("failed to mark %s: %w", position.Contract.Symbol(), err)
			}

			premium = position.EntryPrice
		}

		unrealized := decimal.NewFromFloat(position.Quantity).Mul(decimal.NewFromFloat(premium).Sub(decimal.NewFromFloat(position.EntryPrice)))
		value = value.Add(unrealized)
	}

	return m.ledger.MarkToMarket(bar.Time, value.InexactFloat64())
}

func (m *PositionManager) apply(event PositionEvent) error {
	next, err := transition(m.state, event, m.entriesToday < m.config.MaxEntriesPerDay)
	if err != nil {
		return fmt.Errorf("%s: %w", m.strategyID, err)
	}

	m.state = next

	return nil
}
