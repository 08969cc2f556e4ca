package portfolio

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/stretchr/testify/suite"
)

type AggregatorTestSuite struct {
	suite.Suite
	day time.Time
}

func TestAggregatorSuite(t *testing.T) {
	suite.Run(t, new(AggregatorTestSuite))
}

func (suite *AggregatorTestSuite) SetupTest() {
	suite.day = time.Date(2024, 1, 22, 9, 15, 0, 0, time.UTC)
}

func (suite *AggregatorTestSuite) trade(strategyID string, entryMinute, exitMinute int, pnl float64) types.Trade {
	return types.Trade{
		PositionID: strategyID,
		StrategyID: strategyID,
		EntryTime:  suite.day.Add(time.Duration(entryMinute) * time.Minute),
		ExitTime:   suite.day.Add(time.Duration(exitMinute) * time.Minute),
		PnL:        pnl,
	}
}

func (suite *AggregatorTestSuite) TestMergeOrdersTrades() {
	portfolio := Merge(
		Ledger{
			StrategyID:     "b",
			InitialCapital: 1000,
			Start:          suite.day,
			Trades: []types.Trade{
				suite.trade("b", 10, 60, 10),
				suite.trade("b", 100, 345, -5),
			},
		},
		Ledger{
			StrategyID:     "a",
			InitialCapital: 2000,
			Start:          suite.day,
			Trades: []types.Trade{
				suite.trade("a", 20, 60, 20),
				suite.trade("a", 100, 345, 7),
				suite.trade("a", 5, 30, -1),
			},
		},
	)

	var order []string
	for _, trade := range portfolio.Trades {
		order = append(order, trade.StrategyID)
	}

	suite.Equal([]string{"a", "b", "a", "a", "b"}, order)
	suite.Equal(30*time.Minute, portfolio.Trades[0].ExitTime.Sub(suite.day))
	suite.Equal(10*time.Minute, portfolio.Trades[1].EntryTime.Sub(suite.day))
	suite.Equal(3000.0, portfolio.InitialCapital)
}

func (suite *AggregatorTestSuite) TestMergeEquityOnePointPerExit() {
	portfolio := Merge(
		Ledger{StrategyID: "a", InitialCapital: 1000, Start: suite.day, Trades: []types.Trade{
			suite.trade("a", 10, 60, 10),
			suite.trade("a", 100, 345, 5),
		}},
		Ledger{StrategyID: "b", InitialCapital: 500, Start: suite.day, Trades: []types.Trade{
			suite.trade("b", 20, 60, -4),
		}},
	)

	suite.Equal([]types.EquityPoint{
		{Time: suite.day, Capital: 1500},
		{Time: suite.day.Add(60 * time.Minute), Capital: 1506},
		{Time: suite.day.Add(345 * time.Minute), Capital: 1511},
	}, portfolio.Equity)
}

func (suite *AggregatorTestSuite) TestMergeSingleLedgerMatchesLedger() {
	trades := []types.Trade{suite.trade("a", 10, 60, 10), suite.trade("a", 70, 120, -3)}
	portfolio := Merge(Ledger{StrategyID: "a", InitialCapital: 100, Start: suite.day, Trades: trades})

	suite.Equal(trades, portfolio.Trades)
	suite.Equal(107.0, portfolio.Equity[len(portfolio.Equity)-1].Capital)
	suite.Len(portfolio.Equity, 3)
}

func (suite *AggregatorTestSuite) TestMergeEarliestStart() {
	later := suite.day.AddDate(0, 0, 1)
	portfolio := Merge(
		Ledger{StrategyID: "a", InitialCapital: 1, Start: later},
		Ledger{StrategyID: "b", InitialCapital: 2, Start: suite.day},
	)

	suite.Equal([]types.EquityPoint{{Time: suite.day, Capital: 3}}, portfolio.Equity)
	suite.Empty(portfolio.Trades)
}

func (suite *AggregatorTestSuite) TestReport() {
	portfolio := Merge(
		Ledger{StrategyID: "a", InitialCapital: 1000, Start: suite.day, Trades: []types.Trade{
			suite.trade("a", 10, 60, 100),
		}},
		Ledger{StrategyID: "b", InitialCapital: 1000, Start: suite.day, Trades: []types.Trade{
			suite.trade("b", 10, 90, -50),
			suite.trade("b", 100, 200, 200),
		}},
	)

	report := portfolio.Report("run", 252)
	suite.Equal("run", report.ID)
	suite.Empty(report.StrategyID)
	suite.Equal(3, report.TotalTrades)
	suite.Equal(types.MetricValue(6), report.ProfitFactor)
	suite.Equal(2250.0, report.FinalCapital)
	suite.Equal(2000.0, report.InitialCapital)
}
