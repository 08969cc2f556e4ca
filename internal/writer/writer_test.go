package writer

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-options/internal/logger"
	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type WriterTestSuite struct {
	suite.Suite
	writer *ResultWriter
	db     *sql.DB
	dir    string
}

func TestWriterSuite(t *testing.T) {
	suite.Run(t, new(WriterTestSuite))
}

func (suite *WriterTestSuite) SetupTest() {
	w, err := NewResultWriter(logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.writer = w

	db, err := sql.Open("duckdb", ":memory:")
	suite.Require().NoError(err)
	suite.db = db

	suite.dir = suite.T().TempDir()
}

func (suite *WriterTestSuite) TearDownTest() {
	suite.NoError(suite.writer.Close())
	suite.NoError(suite.db.Close())
}

func (suite *WriterTestSuite) output(trades int) Output {
	start := time.Date(2024, 1, 22, 9, 15, 0, 0, time.UTC)
	out := Output{
		Equity: []types.EquityPoint{{Time: start, Capital: 1000}},
		Report: types.PerformanceReport{ID: "run", StrategyID: "s", TotalTrades: trades},
	}

	capital := 1000.0
	for i := range trades {
		exit := start.Add(time.Duration(i+1) * time.Hour)
		capital += 10
		out.Trades = append(out.Trades, types.Trade{
			PositionID: fmt.Sprintf("p%d", i),
			StrategyID: "s",
			Contract: types.Contract{
				Underlying: "NIFTY",
				Strike:     21500,
				Expiry:     time.Date(2024, 1, 25, 0, 0, 0, 0, time.UTC),
				OptionType: types.OptionTypeCall,
			},
			EntryTime:    exit.Add(-30 * time.Minute),
			ExitTime:     exit,
			EntryPrice:   100,
			ExitPrice:    110,
			Quantity:     1,
			PnL:          10,
			CapitalAfter: capital,
			ExitReason:   types.ExitReasonCutoff,
		})
		out.Equity = append(out.Equity, types.EquityPoint{Time: exit, Capital: capital})
	}

	return out
}

func (suite *WriterTestSuite) count(path string) int {
	var n int
	err := suite.db.QueryRow(fmt.Sprintf(`SELECT COUNT(*) FROM read_parquet('%s')`, path)).Scan(&n)
	suite.Require().NoError(err)

	return n
}

func (suite *WriterTestSuite) TestWrite() {
	folder := filepath.Join(suite.dir, "s")
	suite.Require().NoError(suite.writer.Write(folder, suite.output(2)))

	suite.Equal(2, suite.count(filepath.Join(folder, TradesFile)))
	suite.Equal(3, suite.count(filepath.Join(folder, EquityFile)))
	suite.NoFileExists(filepath.Join(folder, MarksFile))

	var symbol string
	err := suite.db.QueryRow(fmt.Sprintf(`SELECT symbol FROM read_parquet('%s') LIMIT 1`, filepath.Join(folder, TradesFile))).Scan(&symbol)
	suite.Require().NoError(err)
	suite.Equal("NIFTY-20240125-21500-CE", symbol)

	data, err := os.ReadFile(filepath.Join(folder, ReportFile))
	suite.Require().NoError(err)

	var reports []map[string]any
	suite.Require().NoError(yaml.Unmarshal(data, &reports))
	suite.Len(reports, 1)
	suite.Equal("run", reports[0]["id"])
	suite.Equal(2, reports[0]["total_trades"])
}

func (suite *WriterTestSuite) TestWriteMarks() {
	folder := filepath.Join(suite.dir, "marks")
	out := suite.output(0)
	out.Marks = []types.EquityPoint{
		{Time: out.Equity[0].Time, Capital: 1000},
		{Time: out.Equity[0].Time.Add(time.Minute), Capital: 1001},
	}

	suite.Require().NoError(suite.writer.Write(folder, out))
	suite.Equal(0, suite.count(filepath.Join(folder, TradesFile)))
	suite.Equal(2, suite.count(filepath.Join(folder, MarksFile)))
}

func (suite *WriterTestSuite) TestStagingIsClearedBetweenWrites() {
	first := filepath.Join(suite.dir, "first")
	second := filepath.Join(suite.dir, "second")

	suite.Require().NoError(suite.writer.Write(first, suite.output(3)))
	suite.Require().NoError(suite.writer.Write(second, suite.output(1)))

	suite.Equal(3, suite.count(filepath.Join(first, TradesFile)))
	suite.Equal(1, suite.count(filepath.Join(second, TradesFile)))
	suite.Equal(2, suite.count(filepath.Join(second, EquityFile)))
}
