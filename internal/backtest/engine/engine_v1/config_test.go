package engine

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-options/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-options/internal/strategy"
	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/rxtech-lab/argo-options/internal/version"
	"github.com/rxtech-lab/argo-options/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

const fullConfig = `
initial_capital: 1000000
symbol: NIFTY
timezone: Asia/Kolkata
start_time: 2024-01-22T00:00:00Z
end_time: 2024-01-31T00:00:00Z
strike_increment: 50
entry_floor: "09:30"
cutoff: "15:00"
max_entries_per_day: 3
allocation: 0.1
evaluation_stride: 1
mark_to_market: false
periods_per_year: 252
broker: flat_fee
flat_fee: 20
pricer: { type: black_scholes, volatility: 0.15, risk_free_rate: 0.065 }
expiries: [2024-01-25, 2024-02-01]
strategies:
  - { id: mean_reversion, variant: reversion, window: 30, threshold: 0.005 }
  - { id: directional, variant: directional, window: 20, threshold: 0.005, min_fill: 10 }
  - { id: semi_directional, variant: confirmed_reversion, window: 30, threshold: 0.003,
      momentum_window: 4, momentum_threshold: 0.003 }
`

func (suite *ConfigTestSuite) TestEmptyConfig() {
	config := EmptyConfig()

	suite.Equal(0.0, config.InitialCapital)
	suite.Equal(DefaultTimezone, config.Timezone)
	suite.Equal(commission_fee.BrokerZero, config.Broker)
	suite.True(config.StartTime.IsNone())
	suite.True(config.EndTime.IsNone())
	suite.Equal("09:30", config.EntryFloor.String())
	suite.Equal("15:00", config.Cutoff.String())
	suite.Equal(3, config.MaxEntriesPerDay)
	suite.Equal(PricerTypeBlackScholes, config.Pricer.Type)
	suite.Equal("15:30", config.Pricer.SessionClose.String())
}

func (suite *ConfigTestSuite) TestParseFullConfig() {
	config, err := ParseConfig(fullConfig)
	suite.Require().NoError(err)

	suite.Equal(1000000.0, config.InitialCapital)
	suite.Equal("NIFTY", config.Symbol)
	suite.True(time.Date(2024, 1, 22, 0, 0, 0, 0, time.UTC).Equal(config.StartTime.Unwrap()))
	suite.True(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC).Equal(config.EndTime.Unwrap()))
	suite.Equal(commission_fee.BrokerFlatFee, config.Broker)
	suite.Equal(20.0, config.FlatFee)
	suite.Len(config.Expiries, 2)
	suite.Equal(25, config.Expiries[0].Day())
	suite.Equal("15:30", config.Pricer.SessionClose.String())

	suite.Require().Len(config.Strategies, 3)

	reversion := config.Strategies[0]
	suite.Equal(strategy.VariantReversion, reversion.Variant)
	suite.True(reversion.MinFill.IsNone())
	suite.Equal(30, reversion.EffectiveMinFill())
	suite.Equal(DefaultMomentumWindow, reversion.MomentumWindow)

	directional := config.Strategies[1]
	suite.Equal(10, directional.EffectiveMinFill())

	confirmed := config.Strategies[2]
	suite.Equal(strategy.VariantConfirmedReversion, confirmed.Variant)
	suite.Equal(4, confirmed.MomentumWindow)
	suite.Equal(0.003, confirmed.MomentumThreshold)

	loc, err := config.Location()
	suite.Require().NoError(err)
	suite.Equal("Asia/Kolkata", loc.String())
}

func (suite *ConfigTestSuite) TestParseKeepsDefaults() {
	config, err := ParseConfig(`
initial_capital: 500000
symbol: BANKNIFTY
expiries: [2024-01-25]
strategies:
  - { id: a, variant: directional, window: 5, threshold: 0.01 }
`)
	suite.Require().NoError(err)

	suite.Equal(50.0, config.StrikeIncrement)
	suite.Equal(0.1, config.Allocation)
	suite.Equal(1, config.EvaluationStride)
	suite.Equal(252.0, config.PeriodsPerYear)
	suite.Equal(0.15, config.Pricer.Volatility)
	suite.True(config.StartTime.IsNone())
}

func (suite *ConfigTestSuite) TestValidate() {
	valid := func() BacktestConfig {
		return TestConfig([]time.Time{time.Date(2024, 1, 25, 0, 0, 0, 0, time.UTC)}, StrategyConfig{
			ID:        "a",
			Variant:   strategy.VariantReversion,
			Window:    30,
			Threshold: 0.005,
		})
	}

	tests := []struct {
		name   string
		mutate func(c *BacktestConfig)
	}{
		{name: "no strategies", mutate: func(c *BacktestConfig) { c.Strategies = nil }},
		{name: "zero window", mutate: func(c *BacktestConfig) { c.Strategies[0].Window = 0 }},
		{name: "negative threshold", mutate: func(c *BacktestConfig) { c.Strategies[0].Threshold = -0.1 }},
		{name: "min fill above window", mutate: func(c *BacktestConfig) { c.Strategies[0].MinFill = someInt(31) }},
		{name: "zero min fill", mutate: func(c *BacktestConfig) { c.Strategies[0].MinFill = someInt(0) }},
		{name: "cutoff before floor", mutate: func(c *BacktestConfig) { c.Cutoff = types.MustParseClockTime("09:00") }},
		{name: "cutoff equal to floor", mutate: func(c *BacktestConfig) { c.Cutoff = c.EntryFloor }},
		{name: "zero max entries", mutate: func(c *BacktestConfig) { c.MaxEntriesPerDay = 0 }},
		{name: "zero increment", mutate: func(c *BacktestConfig) { c.StrikeIncrement = 0 }},
		{name: "allocation above one", mutate: func(c *BacktestConfig) { c.Allocation = 1.5 }},
		{name: "zero allocation", mutate: func(c *BacktestConfig) { c.Allocation = 0 }},
		{name: "unknown timezone", mutate: func(c *BacktestConfig) { c.Timezone = "Mars/Olympus" }},
		{name: "unknown broker", mutate: func(c *BacktestConfig) { c.Broker = "nope" }},
		{name: "unknown variant", mutate: func(c *BacktestConfig) { c.Strategies[0].Variant = "martingale" }},
		{name: "zero volatility", mutate: func(c *BacktestConfig) { c.Pricer.Volatility = 0 }},
		{name: "cutoff after session close", mutate: func(c *BacktestConfig) { c.Cutoff = types.MustParseClockTime("15:45") }},
		{name: "end before start", mutate: func(c *BacktestConfig) {
			c.StartTime = someTime(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
			c.EndTime = someTime(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
		}},
		{name: "duplicate ids", mutate: func(c *BacktestConfig) {
			c.Strategies = append(c.Strategies, c.Strategies[0])
		}},
		{name: "confirmed without momentum window", mutate: func(c *BacktestConfig) {
			c.Strategies[0].Variant = strategy.VariantConfirmedReversion
			c.Strategies[0].MomentumWindow = 0
		}},
	}

	suite.Run("valid", func() {
		config := valid()
		suite.NoError(config.Validate())
	})

	suite.Run("cutoff at session close", func() {
		config := valid()
		config.Cutoff = config.Pricer.SessionClose
		suite.NoError(config.Validate())
	})

	suite.Run("quote book ignores session close", func() {
		config := valid()
		config.Pricer.Type = PricerTypeQuoteBook
		config.Cutoff = types.MustParseClockTime("15:45")
		suite.NoError(config.Validate())
	})

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			config := valid()
			tc.mutate(&config)

			err := config.Validate()
			suite.Error(err)
			suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration), "got %v", err)
		})
	}
}

func (suite *ConfigTestSuite) TestParseRejectsBadYAML() {
	_, err := ParseConfig("strategies: [")
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))

	_, err = ParseConfig(`
initial_capital: 1000
symbol: NIFTY
cutoff: "25:00"
strategies:
  - { id: a, variant: directional, window: 5, threshold: 0.01 }
`)
	suite.Error(err)
}

func (suite *ConfigTestSuite) TestEngineVersion() {
	config, err := ParseConfig("engine_version: " + version.GetVersion() + fullConfig)
	suite.Require().NoError(err)
	suite.Equal(version.GetVersion(), config.EngineVersion)

	_, err = ParseConfig("engine_version: v99.0.0" + fullConfig)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestGenerateSchemaJSON() {
	config := EmptyConfig()
	schemaJSON, err := config.GenerateSchemaJSON()
	suite.Require().NoError(err)

	var schema map[string]any
	suite.Require().NoError(json.Unmarshal([]byte(schemaJSON), &schema))

	suite.Equal("backtest-config", schema["title"])

	properties, ok := schema["properties"].(map[string]any)
	suite.Require().True(ok)

	for _, key := range []string{"initial_capital", "symbol", "entry_floor", "cutoff", "broker", "pricer", "strategies", "start_time"} {
		suite.Contains(properties, key)
	}

	broker, ok := properties["broker"].(map[string]any)
	suite.Require().True(ok)
	suite.ElementsMatch([]any{"zero_commission", "flat_fee"}, broker["enum"])
}

func someInt(v int) optional.Option[int] {
	return optional.Some(v)
}

func someTime(t time.Time) optional.Option[time.Time] {
	return optional.Some(t)
}
