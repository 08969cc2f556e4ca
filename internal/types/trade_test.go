package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type TradeTestSuite struct {
	suite.Suite
}

func TestTradeSuite(t *testing.T) {
	suite.Run(t, new(TradeTestSuite))
}

func (suite *TradeTestSuite) TestContractSymbol() {
	contract := Contract{
		Underlying: "NIFTY",
		Strike:     21500,
		Expiry:     time.Date(2024, 1, 25, 0, 0, 0, 0, time.UTC),
		OptionType: OptionTypeCall,
	}
	suite.Equal("NIFTY-20240125-21500-CE", contract.Symbol())

	contract.Strike = 102.5
	contract.OptionType = OptionTypePut
	suite.Equal("NIFTY-20240125-102.5-PE", contract.Symbol())
}

func (suite *TradeTestSuite) TestDaysToExpiry() {
	ist := time.FixedZone("IST", 5*3600+1800)
	contract := Contract{Expiry: time.Date(2024, 1, 25, 0, 0, 0, 0, ist)}

	tests := []struct {
		name     string
		at       time.Time
		expected int
	}{
		{"same day morning", time.Date(2024, 1, 25, 9, 15, 0, 0, ist), 0},
		{"same day after close", time.Date(2024, 1, 25, 23, 59, 0, 0, ist), 0},
		{"day before", time.Date(2024, 1, 24, 15, 0, 0, 0, ist), 1},
		{"one week", time.Date(2024, 1, 18, 10, 0, 0, 0, ist), 7},
		{"after expiry", time.Date(2024, 1, 26, 10, 0, 0, 0, ist), -1},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.Equal(tc.expected, contract.DaysToExpiry(tc.at))
		})
	}
}

func (suite *TradeTestSuite) TestTradeHelpers() {
	entry := time.Date(2024, 1, 2, 9, 45, 0, 0, time.UTC)
	trade := Trade{EntryTime: entry, ExitTime: entry.Add(5 * time.Hour), PnL: 12.5}

	suite.Equal(5*time.Hour, trade.HoldingTime())
	suite.True(trade.IsWin())
	suite.False(trade.IsLoss())

	trade.PnL = -1
	suite.True(trade.IsLoss())

	trade.PnL = 0
	suite.False(trade.IsWin())
	suite.False(trade.IsLoss())
}
