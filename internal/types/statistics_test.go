package types

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type StatisticsTestSuite struct {
	suite.Suite
	tempDir string
}

func TestStatisticsSuite(t *testing.T) {
	suite.Run(t, new(StatisticsTestSuite))
}

func (suite *StatisticsTestSuite) SetupTest() {
	suite.tempDir = suite.T().TempDir()
}

func (suite *StatisticsTestSuite) TestMetricConstructors() {
	suite.True(MetricValue(1.5).IsDefined())
	suite.Equal(1.5, MetricValue(1.5).Float64().Unwrap())

	suite.True(MetricValue(math.NaN()).IsUndefined())
	suite.True(MetricValue(math.Inf(1)).IsInfinite())

	suite.True(MetricUndefined().Float64().IsNone())
	suite.True(math.IsInf(MetricInfinite().Float64().Unwrap(), 1))

	// the zero value is undefined, never a silent zero
	suite.True(Metric{}.IsUndefined())
	suite.False(Metric{}.IsDefined())
}

func (suite *StatisticsTestSuite) TestMetricString() {
	suite.Equal("6.0000", MetricValue(6).String())
	suite.Equal("+inf", MetricInfinite().String())
	suite.Equal("n/a", MetricUndefined().String())
}

func (suite *StatisticsTestSuite) TestMetricJSON() {
	data, err := json.Marshal(map[string]Metric{
		"calmar": MetricInfinite(),
		"sharpe": MetricUndefined(),
		"pf":     MetricValue(6),
	})
	suite.Require().NoError(err)
	suite.JSONEq(`{"calmar":"+Inf","sharpe":null,"pf":6}`, string(data))
}

func (suite *StatisticsTestSuite) TestWriteReports() {
	reports := []PerformanceReport{
		{
			ID:             "run-1",
			StrategyID:     "directional",
			StartTime:      time.Date(2024, 1, 2, 9, 15, 0, 0, time.UTC),
			EndTime:        time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC),
			InitialCapital: 1000000,
			FinalCapital:   1010000,
			TotalReturn:    0.01,
			CAGR:           MetricUndefined(),
			Sharpe:         MetricUndefined(),
			MaxDrawdown:    0,
			Calmar:         MetricInfinite(),
			ProfitFactor:   MetricInfinite(),
			WinRate:        MetricValue(1),
			TotalTrades:    1,
			WinningTrades:  1,
		},
	}

	path := filepath.Join(suite.tempDir, "report.yaml")
	suite.Require().NoError(WriteReports(path, reports))

	data, err := os.ReadFile(path)
	suite.Require().NoError(err)

	var decoded []map[string]any
	suite.Require().NoError(yaml.Unmarshal(data, &decoded))
	suite.Require().Len(decoded, 1)

	suite.Equal("directional", decoded[0]["strategy_id"])
	suite.Nil(decoded[0]["cagr"])
	suite.Nil(decoded[0]["sharpe"])
	suite.True(math.IsInf(decoded[0]["calmar"].(float64), 1))
	suite.EqualValues(1, decoded[0]["win_rate"])
	suite.Equal(1, decoded[0]["total_trades"])
}

func (suite *StatisticsTestSuite) TestWriteReportsInvalidPath() {
	err := WriteReports(filepath.Join(suite.tempDir, "missing", "dir", "report.yaml"), nil)
	suite.Error(err)
}
