package types

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/moznion/go-optional"
	"gopkg.in/yaml.v3"
)

type MetricKind string

const (
	MetricKindValue     MetricKind = "value"
	MetricKindUndefined MetricKind = "undefined"
	MetricKindInfinite  MetricKind = "infinite"
)

// Metric is a ratio that may be undefined (not enough data, zero variance) or
// positively infinite (nothing to divide by). Degenerate results are never folded
// into zero.
type Metric struct {
	Kind  MetricKind
	Value float64
}

// MetricValue returns a defined metric.
func MetricValue(v float64) Metric {
	if math.IsNaN(v) {
		return MetricUndefined()
	}

	if math.IsInf(v, 1) {
		return MetricInfinite()
	}

	return Metric{Kind: MetricKindValue, Value: v}
}

// MetricUndefined returns a metric that has no meaningful value.
func MetricUndefined() Metric {
	return Metric{Kind: MetricKindUndefined, Value: 0}
}

// MetricInfinite returns a positively infinite metric.
func MetricInfinite() Metric {
	return Metric{Kind: MetricKindInfinite, Value: 0}
}

func (m Metric) IsDefined() bool {
	return m.Kind == MetricKindValue
}

func (m Metric) IsUndefined() bool {
	return m.Kind == MetricKindUndefined || m.Kind == ""
}

func (m Metric) IsInfinite() bool {
	return m.Kind == MetricKindInfinite
}

// Float64 returns the numeric value, +Inf for infinite metrics and None when undefined.
func (m Metric) Float64() optional.Option[float64] {
	switch m.Kind {
	case MetricKindValue:
		return optional.Some(m.Value)
	case MetricKindInfinite:
		return optional.Some(math.Inf(1))
	case MetricKindUndefined:
		return optional.None[float64]()
	}

	return optional.None[float64]()
}

// String implements fmt.Stringer.
func (m Metric) String() string {
	switch m.Kind {
	case MetricKindValue:
		return strconv.FormatFloat(m.Value, 'f', 4, 64)
	case MetricKindInfinite:
		return "+inf"
	case MetricKindUndefined:
		return "n/a"
	}

	return "n/a"
}

// MarshalYAML renders undefined as null and infinite as .inf.
func (m Metric) MarshalYAML() (any, error) {
	v := m.Float64()
	if v.IsNone() {
		return nil, nil
	}

	return v.Unwrap(), nil
}

// MarshalJSON renders undefined as null and infinite as the string "+Inf".
func (m Metric) MarshalJSON() ([]byte, error) {
	switch m.Kind {
	case MetricKindValue:
		return json.Marshal(m.Value)
	case MetricKindInfinite:
		return json.Marshal("+Inf")
	case MetricKindUndefined:
		return []byte("null"), nil
	}

	return []byte("null"), nil
}

// PerformanceReport is a snapshot derived from a finished ledger. It is recomputed
// from scratch on demand.
type PerformanceReport struct {
	// ID is the backtest run the report belongs to
	ID string `yaml:"id" json:"id"`
	// StrategyID is empty for the combined portfolio
	StrategyID     string    `yaml:"strategy_id" json:"strategy_id"`
	StartTime      time.Time `yaml:"start_time" json:"start_time"`
	EndTime        time.Time `yaml:"end_time" json:"end_time"`
	InitialCapital float64   `yaml:"initial_capital" json:"initial_capital"`
	FinalCapital   float64   `yaml:"final_capital" json:"final_capital"`
	// TotalReturn is final/initial - 1
	TotalReturn float64 `yaml:"total_return" json:"total_return"`
	CAGR        Metric  `yaml:"cagr" json:"cagr"`
	Sharpe      Metric  `yaml:"sharpe" json:"sharpe"`
	// MaxDrawdown is the deepest peak-to-trough decline as a negative fraction of the peak
	MaxDrawdown  float64 `yaml:"max_drawdown" json:"max_drawdown"`
	Calmar       Metric  `yaml:"calmar" json:"calmar"`
	ProfitFactor Metric  `yaml:"profit_factor" json:"profit_factor"`
	WinRate      Metric  `yaml:"win_rate" json:"win_rate"`

	TotalTrades          int     `yaml:"total_trades" json:"total_trades"`
	WinningTrades        int     `yaml:"winning_trades" json:"winning_trades"`
	LosingTrades         int     `yaml:"losing_trades" json:"losing_trades"`
	AverageProfit        Metric  `yaml:"average_profit" json:"average_profit"`
	AverageLoss          Metric  `yaml:"average_loss" json:"average_loss"`
	MaxConsecutiveWins   int     `yaml:"max_consecutive_wins" json:"max_consecutive_wins"`
	MaxConsecutiveLosses int     `yaml:"max_consecutive_losses" json:"max_consecutive_losses"`
	TotalFees            float64 `yaml:"total_fees" json:"total_fees"`
}

func WriteReports(path string, reports []PerformanceReport) error {
	data, err := yaml.Marshal(reports)
	if err != nil {
		return fmt.Errorf("failed to marshal performance reports to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write performance reports to file: %w", err)
	}

	return nil
}
