package engine

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/rxtech-lab/argo-options/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type LedgerTestSuite struct {
	suite.Suite
	start  time.Time
	ledger *Ledger
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerTestSuite))
}

func (suite *LedgerTestSuite) SetupTest() {
	suite.start = time.Date(2024, 1, 22, 9, 15, 0, 0, time.UTC)
	suite.ledger = NewLedger("s", 1000, suite.start)
}

func (suite *LedgerTestSuite) trade(entryMinute, exitMinute int, pnl float64) types.Trade {
	return types.Trade{
		PositionID: "p",
		StrategyID: "s",
		EntryTime:  suite.start.Add(time.Duration(entryMinute) * time.Minute),
		ExitTime:   suite.start.Add(time.Duration(exitMinute) * time.Minute),
		PnL:        pnl,
	}
}

func (suite *LedgerTestSuite) TestInitialState() {
	suite.Equal("s", suite.ledger.StrategyID())
	suite.Equal(1000.0, suite.ledger.InitialCapital())
	suite.Equal(1000.0, suite.ledger.Capital())
	suite.Empty(suite.ledger.Trades())
	suite.Equal([]types.EquityPoint{{Time: suite.start, Capital: 1000}}, suite.ledger.Equity())
}

func (suite *LedgerTestSuite) TestRecordTrade() {
	recorded, err := suite.ledger.RecordTrade(suite.trade(15, 345, 120.5))
	suite.Require().NoError(err)
	suite.Equal(1120.5, recorded.CapitalAfter)

	recorded, err = suite.ledger.RecordTrade(suite.trade(375+15, 375+345, -20.5))
	suite.Require().NoError(err)
	suite.Equal(1100.0, recorded.CapitalAfter)

	suite.Equal(1100.0, suite.ledger.Capital())
	suite.Len(suite.ledger.Trades(), 2)

	equity := suite.ledger.Equity()
	suite.Len(equity, 3)
	suite.Equal(1120.5, equity[1].Capital)
	suite.Equal(suite.start.Add(345*time.Minute), equity[1].Time)
}

func (suite *LedgerTestSuite) TestRealizedCurveIsIdempotent() {
	for i := range 4 {
		_, err := suite.ledger.RecordTrade(suite.trade(i*10, i*10+5, float64(i)-1.5))
		suite.Require().NoError(err)
	}

	first := suite.ledger.RealizedCurve()
	second := suite.ledger.RealizedCurve()

	suite.Equal(first, second)
	suite.Equal(suite.ledger.Equity(), first)
}

func (suite *LedgerTestSuite) TestRejectsOutOfOrder() {
	_, err := suite.ledger.RecordTrade(suite.trade(100, 200, 1))
	suite.Require().NoError(err)

	_, err = suite.ledger.RecordTrade(suite.trade(50, 150, 1))
	suite.True(errors.HasCode(err, errors.ErrCodeEquityOutOfOrder))

	err = suite.ledger.SampleEquity(suite.start.Add(time.Minute), 1000)
	suite.True(errors.HasCode(err, errors.ErrCodeEquityOutOfOrder))

	suite.Len(suite.ledger.Trades(), 1)
	suite.Equal(1001.0, suite.ledger.Capital())
}

func (suite *LedgerTestSuite) TestRejectsExitBeforeEntry() {
	_, err := suite.ledger.RecordTrade(suite.trade(100, 50, 1))
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
	suite.Empty(suite.ledger.Trades())
}

func (suite *LedgerTestSuite) TestSameTimestampIsAllowed() {
	_, err := suite.ledger.RecordTrade(suite.trade(10, 60, 5))
	suite.Require().NoError(err)

	_, err = suite.ledger.RecordTrade(suite.trade(20, 60, 5))
	suite.NoError(err)
}

func (suite *LedgerTestSuite) TestMarksAreSeparate() {
	suite.Require().NoError(suite.ledger.MarkToMarket(suite.start.Add(time.Minute), 1010))
	suite.Require().NoError(suite.ledger.MarkToMarket(suite.start.Add(2*time.Minute), 990))

	suite.Len(suite.ledger.Marks(), 2)
	suite.Len(suite.ledger.Equity(), 1)

	err := suite.ledger.MarkToMarket(suite.start, 1000)
	suite.True(errors.HasCode(err, errors.ErrCodeEquityOutOfOrder))
}
