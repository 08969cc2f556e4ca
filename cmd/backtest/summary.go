package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/rxtech-lab/argo-options/internal/backtest/engine"
	"github.com/rxtech-lab/argo-options/internal/types"
)

// Style definitions.
var (
	// TitleStyle for headers.
	TitleStyle = lipgloss.NewStyle().Bold(true)

	// HelpStyle for help text.
	HelpStyle = lipgloss.NewStyle().Faint(true)

	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	gainStyle   = cellStyle.Foreground(lipgloss.Color("42"))
	lossStyle   = cellStyle.Foreground(lipgloss.Color("196"))
)

var summaryHeaders = []string{
	"Strategy", "Trades", "Win Rate", "Final Capital", "Return", "CAGR", "Sharpe", "Max DD", "Calmar", "Profit Factor",
}

// returnColumn is styled by sign.
const returnColumn = 4

// RenderSummary renders one row per strategy plus the combined portfolio.
func RenderSummary(result *engine.Result) string {
	rows := make([][]string, 0, len(result.Strategies)+1)
	for _, s := range result.Strategies {
		rows = append(rows, summaryRow(s.StrategyID, s.Report))
	}

	rows = append(rows, summaryRow(engine.PortfolioID, result.Portfolio.Report))

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers(summaryHeaders...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}

			if col == returnColumn && row >= 0 && row < len(rows) {
				return styleBySign(rows[row][col])
			}

			return cellStyle
		})

	var b strings.Builder

	b.WriteString(TitleStyle.Render("Backtest " + result.RunID))
	b.WriteString("\n")
	b.WriteString(t.String())

	return b.String()
}

func summaryRow(id string, report types.PerformanceReport) []string {
	return []string{
		id,
		fmt.Sprintf("%d", report.TotalTrades),
		FormatPercent(report.WinRate),
		fmt.Sprintf("%.2f", report.FinalCapital),
		fmt.Sprintf("%.2f%%", report.TotalReturn*100),
		FormatPercent(report.CAGR),
		report.Sharpe.String(),
		fmt.Sprintf("%.2f%%", report.MaxDrawdown*100),
		report.Calmar.String(),
		report.ProfitFactor.String(),
	}
}

// FormatPercent renders a fractional metric as a percentage, keeping n/a and +inf.
func FormatPercent(m types.Metric) string {
	if !m.IsDefined() {
		return m.String()
	}

	return fmt.Sprintf("%.2f%%", m.Value*100)
}

func styleBySign(cell string) lipgloss.Style {
	switch {
	case strings.HasPrefix(cell, "-"):
		return lossStyle
	case cell == "0.00%":
		return cellStyle
	}

	return gainStyle
}
