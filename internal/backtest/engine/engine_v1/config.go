package engine

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-options/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-options/internal/strategy"
	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/rxtech-lab/argo-options/internal/version"
	"github.com/rxtech-lab/argo-options/pkg/errors"
	"gopkg.in/yaml.v3"
)

type PricerType string

const (
	PricerTypeBlackScholes PricerType = "black_scholes"
	PricerTypeQuoteBook    PricerType = "quote_book"
)

const (
	DefaultTimezone       = "Asia/Kolkata"
	DefaultMomentumWindow = 5
)

// PricerConfig selects the fill-price convention.
type PricerConfig struct {
	Type         PricerType      `yaml:"type" json:"type" jsonschema:"title=Type,enum=black_scholes,enum=quote_book" validate:"required,oneof=black_scholes quote_book"`
	Volatility   float64         `yaml:"volatility" json:"volatility" jsonschema:"title=Volatility,description=Annualized volatility for black_scholes" validate:"gte=0"`
	RiskFreeRate float64         `yaml:"risk_free_rate" json:"risk_free_rate" jsonschema:"title=Risk Free Rate,description=Annualized risk free rate for black_scholes"`
	SessionClose types.ClockTime `yaml:"session_close" json:"session_close" jsonschema:"title=Session Close,description=Expiry instant on the expiry date"`
	// QuotesPath is read by the CLI to build a quote book; the engine only receives the result
	QuotesPath string `yaml:"quotes_path" json:"quotes_path,omitempty" jsonschema:"title=Quotes Path,description=Parquet or CSV file of recorded option closes for quote_book"`
}

// StrategyConfig configures one independent strategy.
type StrategyConfig struct {
	ID        string           `yaml:"id" json:"id" jsonschema:"title=ID,description=Unique strategy identifier" validate:"required"`
	Variant   strategy.Variant `yaml:"variant" json:"variant" jsonschema:"title=Variant" validate:"required"`
	Window    int              `yaml:"window" json:"window" jsonschema:"title=Window,description=Moving average window in bars,minimum=1" validate:"gt=0"`
	Threshold float64          `yaml:"threshold" json:"threshold" jsonschema:"title=Threshold,description=Relative deviation from the moving average (0.005 = 0.5%)" validate:"gt=0"`
	// MinFill defaults to Window
	MinFill           optional.Option[int] `yaml:"-" json:"min_fill,omitempty" jsonschema:"title=Min Fill,description=Bars needed before the moving average reports"`
	MomentumWindow    int                  `yaml:"momentum_window" json:"momentum_window" jsonschema:"title=Momentum Window,description=Short window of the momentum tracker" validate:"gte=0"`
	MomentumThreshold float64              `yaml:"momentum_threshold" json:"momentum_threshold" jsonschema:"title=Momentum Threshold" validate:"gte=0"`
}

// UnmarshalYAML fills MomentumWindow with its default and reads the optional min fill.
func (s *StrategyConfig) UnmarshalYAML(node *yaml.Node) error {
	type plain StrategyConfig

	raw := struct {
		plain `yaml:",inline"`

		MinFill *int `yaml:"min_fill"`
	}{plain: plain(*s)}

	if raw.MomentumWindow == 0 {
		raw.MomentumWindow = DefaultMomentumWindow
	}

	if err := node.Decode(&raw); err != nil {
		return err
	}

	*s = StrategyConfig(raw.plain)
	if raw.MinFill != nil {
		s.MinFill = optional.Some(*raw.MinFill)
	}

	return nil
}

// EffectiveMinFill returns the configured min fill or the full window.
func (s StrategyConfig) EffectiveMinFill() int {
	return s.MinFill.TakeOr(s.Window)
}

type BacktestConfig struct {
	// EngineVersion is the engine version the config was written for
	EngineVersion string `yaml:"engine_version" json:"engine_version,omitempty" jsonschema:"title=Engine Version,description=Semantic version the config targets; empty skips the compatibility check"`

	InitialCapital float64                    `yaml:"initial_capital" json:"initial_capital" jsonschema:"title=Initial Capital,description=Starting capital of every strategy,minimum=0" validate:"gt=0"`
	Symbol         string                     `yaml:"symbol" json:"symbol" jsonschema:"title=Symbol,description=Underlying instrument" validate:"required"`
	Timezone       string                     `yaml:"timezone" json:"timezone" jsonschema:"title=Timezone,description=IANA name of the exchange timezone" validate:"required"`
	StartTime      optional.Option[time.Time] `yaml:"-" json:"start_time,omitempty" jsonschema:"title=Start Time,description=Optional start of the backtest period"`
	EndTime        optional.Option[time.Time] `yaml:"-" json:"end_time,omitempty" jsonschema:"title=End Time,description=Optional end of the backtest period"`

	StrikeIncrement  float64         `yaml:"strike_increment" json:"strike_increment" jsonschema:"title=Strike Increment,minimum=0" validate:"gt=0"`
	EntryFloor       types.ClockTime `yaml:"entry_floor" json:"entry_floor" jsonschema:"title=Entry Floor,description=No entries before this time"`
	Cutoff           types.ClockTime `yaml:"cutoff" json:"cutoff" jsonschema:"title=Cutoff,description=Open positions are closed at this time"`
	MaxEntriesPerDay int             `yaml:"max_entries_per_day" json:"max_entries_per_day" jsonschema:"title=Max Entries Per Day,minimum=1" validate:"gt=0"`
	Allocation       float64         `yaml:"allocation" json:"allocation" jsonschema:"title=Allocation,description=Fraction of capital invested per entry,minimum=0,maximum=1" validate:"gt=0,lte=1"`
	EvaluationStride int             `yaml:"evaluation_stride" json:"evaluation_stride" jsonschema:"title=Evaluation Stride,description=Evaluate signals on every k-th bar,minimum=1" validate:"gte=1"`
	MarkToMarket     bool            `yaml:"mark_to_market" json:"mark_to_market" jsonschema:"title=Mark To Market,description=Record a per-bar mark-to-market equity series"`
	PeriodsPerYear   float64         `yaml:"periods_per_year" json:"periods_per_year" jsonschema:"title=Periods Per Year,description=Annualization factor for Sharpe" validate:"gt=0"`
	StopLoss         float64         `yaml:"stop_loss" json:"stop_loss" jsonschema:"title=Stop Loss,description=Exit when the premium falls by this fraction of the entry premium (0 disables),minimum=0,maximum=1" validate:"gte=0,lt=1"`
	TakeProfit       float64         `yaml:"take_profit" json:"take_profit" jsonschema:"title=Take Profit,description=Exit when the premium rises by this fraction of the entry premium (0 disables),minimum=0" validate:"gte=0"`

	Broker     commission_fee.Broker `yaml:"broker" json:"broker" jsonschema:"title=Broker,description=The broker to use for commission calculations"`
	FlatFee    float64               `yaml:"flat_fee" json:"flat_fee" jsonschema:"title=Flat Fee,description=Fee per order for the flat_fee broker" validate:"gte=0"`
	Pricer     PricerConfig          `yaml:"pricer" json:"pricer" jsonschema:"title=Pricer"`
	Expiries   []time.Time           `yaml:"expiries" json:"expiries" jsonschema:"title=Expiries,description=Listed expiry dates; derived from the quote book when empty"`
	Strategies []StrategyConfig      `yaml:"strategies" json:"strategies" jsonschema:"title=Strategies" validate:"required,min=1,dive"`
}

// UnmarshalYAML reads the optional time range on top of the current values, so
// decoding into EmptyConfig() keeps every default the YAML does not override.
func (c *BacktestConfig) UnmarshalYAML(node *yaml.Node) error {
	type plain BacktestConfig

	raw := struct {
		plain `yaml:",inline"`

		StartTime *time.Time `yaml:"start_time"`
		EndTime   *time.Time `yaml:"end_time"`
	}{plain: plain(*c)}

	if err := node.Decode(&raw); err != nil {
		return err
	}

	*c = BacktestConfig(raw.plain)
	if raw.StartTime != nil {
		c.StartTime = optional.Some(*raw.StartTime)
	}

	if raw.EndTime != nil {
		c.EndTime = optional.Some(*raw.EndTime)
	}

	return nil
}

// ParseConfig decodes YAML on top of EmptyConfig() and validates the result.
func ParseConfig(content string) (BacktestConfig, error) {
	config := EmptyConfig()
	if err := yaml.Unmarshal([]byte(content), &config); err != nil {
		return BacktestConfig{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse backtest config", err)
	}

	if err := config.Validate(); err != nil {
		return BacktestConfig{}, err
	}

	return config, nil
}

// Validate checks field rules with validator tags, then the rules that span fields.
func (c *BacktestConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid backtest config", err)
	}

	if err := version.CheckConfigCompatibility(version.GetVersion(), c.EngineVersion); err != nil {
		return err
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	if !c.EntryFloor.Before(c.Cutoff) {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "cutoff %s must be after entry floor %s", c.Cutoff, c.EntryFloor)
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && c.EndTime.Unwrap().Before(c.StartTime.Unwrap()) {
		return errors.New(errors.ErrCodeInvalidConfiguration, "end time must not be before start time")
	}

	if _, err := commission_fee.GetCommissionFeeHandler(c.Broker, c.FlatFee); err != nil {
		return err
	}

	if c.Pricer.Type == PricerTypeBlackScholes && c.Pricer.Volatility <= 0 {
		return errors.New(errors.ErrCodeInvalidConfiguration, "black_scholes pricer needs a positive volatility")
	}

	if c.Pricer.Type == PricerTypeBlackScholes && c.Pricer.SessionClose.Before(c.Cutoff) {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "cutoff %s must not be after session close %s", c.Cutoff, c.Pricer.SessionClose)
	}

	seen := make(map[string]bool, len(c.Strategies))

	for _, s := range c.Strategies {
		if seen[s.ID] {
			return errors.Newf(errors.ErrCodeInvalidConfiguration, "duplicate strategy id %q", s.ID)
		}

		seen[s.ID] = true

		if err := s.Variant.Validate(); err != nil {
			return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "strategy %s", s.ID)
		}

		if minFill := s.EffectiveMinFill(); minFill <= 0 || minFill > s.Window {
			return errors.Newf(errors.ErrCodeInvalidConfiguration, "strategy %s: min fill %d must be in [1, %d]", s.ID, minFill, s.Window)
		}

		if s.Variant.NeedsMomentum() && s.MomentumWindow <= 0 {
			return errors.Newf(errors.ErrCodeInvalidConfiguration, "strategy %s: momentum window must be positive", s.ID)
		}
	}

	return nil
}

// Location loads the exchange timezone.
func (c *BacktestConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "unknown timezone %q", c.Timezone)
	}

	return loc, nil
}

// GenerateSchema generates a JSON schema for the BacktestConfig
func (c *BacktestConfig) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			switch t.String() {
			case "optional.Option[time.Time]":
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			case "optional.Option[int]":
				return &jsonschema.Schema{
					Type: "integer",
				}
			}

			if strings.Contains(t.String(), "commission_fee.Broker") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: commission_fee.AllBrokers,
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)

	schema.Title = "backtest-config"
	schema.Description = "Configuration schema for the options backtest engine"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the BacktestConfig
func (c *BacktestConfig) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

// EmptyConfig returns a BacktestConfig with default values and no strategies.
func EmptyConfig() BacktestConfig {
	return BacktestConfig{
		EngineVersion:    "",
		InitialCapital:   0,
		Symbol:           "",
		Timezone:         DefaultTimezone,
		StartTime:        optional.None[time.Time](),
		EndTime:          optional.None[time.Time](),
		StrikeIncrement:  50,
		EntryFloor:       types.MustParseClockTime("09:30"),
		Cutoff:           types.MustParseClockTime("15:00"),
		MaxEntriesPerDay: 3,
		Allocation:       0.1,
		EvaluationStride: 1,
		MarkToMarket:     false,
		PeriodsPerYear:   252,
		StopLoss:         0,
		TakeProfit:       0,
		Broker:           commission_fee.BrokerZero,
		FlatFee:          0,
		Pricer: PricerConfig{
			Type:         PricerTypeBlackScholes,
			Volatility:   0.15,
			RiskFreeRate: 0.065,
			SessionClose: types.MustParseClockTime("15:30"),
			QuotesPath:   "",
		},
		Expiries:   nil,
		Strategies: nil,
	}
}

// TestConfig returns a valid config over the given expiries and strategies.
func TestConfig(expiries []time.Time, strategies ...StrategyConfig) BacktestConfig {
	config := EmptyConfig()
	config.InitialCapital = 1000000
	config.Symbol = "NIFTY"
	config.Expiries = expiries
	config.Strategies = strategies

	return config
}
