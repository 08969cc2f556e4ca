package types

import (
	"time"
)

type PositionStatus string

const (
	PositionStatusOpen   PositionStatus = "OPEN"
	PositionStatusClosed PositionStatus = "CLOSED"
)

type ExitReason string

const (
	// ExitReasonCutoff is the forced close at the daily cutoff time.
	ExitReasonCutoff ExitReason = "cutoff"
	// ExitReasonEndOfDay is used when the feed ended before the cutoff was reached.
	ExitReasonEndOfDay ExitReason = "end_of_day"
	// ExitReasonStopLoss is used when the premium fell by the configured stop loss.
	ExitReasonStopLoss ExitReason = "stop_loss"
	// ExitReasonTakeProfit is used when the premium rose by the configured take profit.
	ExitReasonTakeProfit ExitReason = "take_profit"
)

// Position is a single open option holding owned by a strategy.
type Position struct {
	ID         string         `yaml:"id" json:"id"`
	StrategyID string         `yaml:"strategy_id" json:"strategy_id"`
	Contract   Contract       `yaml:"contract" json:"contract"`
	EntryTime  time.Time      `yaml:"entry_time" json:"entry_time"`
	EntryPrice float64        `yaml:"entry_price" json:"entry_price"`
	Quantity   float64        `yaml:"quantity" json:"quantity"`
	Investment float64        `yaml:"investment" json:"investment"`
	EntryFee   float64        `yaml:"entry_fee" json:"entry_fee"`
	Status     PositionStatus `yaml:"status" json:"status"`
	// UnderlyingAtEntry is the bar price the contract was resolved against
	UnderlyingAtEntry float64 `yaml:"underlying_at_entry" json:"underlying_at_entry"`
}

// Trade is the immutable record of a closed position.
type Trade struct {
	PositionID        string    `yaml:"position_id" json:"position_id" csv:"position_id"`
	StrategyID        string    `yaml:"strategy_id" json:"strategy_id" csv:"strategy_id"`
	Contract          Contract  `yaml:"contract" json:"contract" csv:"contract"`
	EntryTime         time.Time `yaml:"entry_time" json:"entry_time" csv:"entry_time"`
	ExitTime          time.Time `yaml:"exit_time" json:"exit_time" csv:"exit_time"`
	EntryPrice        float64   `yaml:"entry_price" json:"entry_price" csv:"entry_price"`
	ExitPrice         float64   `yaml:"exit_price" json:"exit_price" csv:"exit_price"`
	Quantity          float64   `yaml:"quantity" json:"quantity" csv:"quantity"`
	Investment        float64   `yaml:"investment" json:"investment" csv:"investment"`
	UnderlyingAtEntry float64   `yaml:"underlying_at_entry" json:"underlying_at_entry" csv:"underlying_at_entry"`
	UnderlyingAtExit  float64   `yaml:"underlying_at_exit" json:"underlying_at_exit" csv:"underlying_at_exit"`
	Fees              float64   `yaml:"fees" json:"fees" csv:"fees"`
	// PnL is quantity * (exit - entry) minus entry and exit fees
	PnL float64 `yaml:"pnl" json:"pnl" csv:"pnl"`
	// PnLPercent is the premium change relative to the entry premium, in percent
	PnLPercent   float64    `yaml:"pnl_percent" json:"pnl_percent" csv:"pnl_percent"`
	CapitalAfter float64    `yaml:"capital_after" json:"capital_after" csv:"capital_after"`
	ExitReason   ExitReason `yaml:"exit_reason" json:"exit_reason" csv:"exit_reason"`
}

// HoldingTime is the time between entry and exit.
func (t Trade) HoldingTime() time.Duration {
	return t.ExitTime.Sub(t.EntryTime)
}

// IsWin reports whether the trade realized a positive P&L.
func (t Trade) IsWin() bool {
	return t.PnL > 0
}

// IsLoss reports whether the trade realized a negative P&L. Flat trades are neither.
func (t Trade) IsLoss() bool {
	return t.PnL < 0
}

// EquityPoint is one sample of a capital curve.
type EquityPoint struct {
	Time    time.Time `yaml:"time" json:"time" csv:"time"`
	Capital float64   `yaml:"capital" json:"capital" csv:"capital"`
}
