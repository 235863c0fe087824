package reporting

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/quantex/zerodte-backtest/internal/backtest"
)

const (
	tradesSheet  = "Trades"
	summarySheet = "Summary"
)

// WriteTradesXLSX writes the trade log and a summary sheet to an Excel
// workbook.
func (r *DefaultFileReporter) WriteTradesXLSX(results *backtest.Results, path string) error {
	fx := excelize.NewFile()
	defer fx.Close()

	if err := fx.SetSheetName("Sheet1", tradesSheet); err != nil {
		return err
	}

	headerStyle, err := fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}

	for col, name := range tradeHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := fx.SetCellValue(tradesSheet, cell, name); err != nil {
			return err
		}
	}
	endHeader, _ := excelize.CoordinatesToCellName(len(tradeHeader), 1)
	if err := fx.SetCellStyle(tradesSheet, "A1", endHeader, headerStyle); err != nil {
		return err
	}

	for i, t := range results.Trades {
		record := tradeRecord(t)
		for col, v := range record {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := fx.SetCellValue(tradesSheet, cell, v); err != nil {
				return err
			}
		}
	}

	if err := writeSummarySheet(fx, results); err != nil {
		return err
	}

	return fx.SaveAs(path)
}

func writeSummarySheet(fx *excelize.File, results *backtest.Results) error {
	if _, err := fx.NewSheet(summarySheet); err != nil {
		return err
	}

	s := results.Summary
	rows := [][]interface{}{
		{"Symbol", results.Symbol},
		{"Initial Capital", results.InitialCapital},
		{"Final Equity", results.FinalEquity},
		{"Total Return %", s.TotalReturnPct},
		{"Total Trades", s.TotalTrades},
		{"Win Rate %", s.WinRate * 100},
		{"Avg Win $", s.AvgWin},
		{"Avg Loss $", s.AvgLoss},
		{"Profit Factor", s.ProfitFactor},
		{"Avg R-Multiple", s.AvgRMultiple},
		{"Max Drawdown $", s.MaxDrawdown},
		{"Total Commission $", s.TotalCommission},
	}

	for i, row := range rows {
		for col, v := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+1)
			if err != nil {
				return err
			}
			if err := fx.SetCellValue(summarySheet, cell, v); err != nil {
				return err
			}
		}
	}

	row := len(rows) + 2
	if err := fx.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), "By Time Bucket"); err != nil {
		return err
	}
	row++
	for _, b := range s.ByTimeBucket {
		if err := fx.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), b.Name); err != nil {
			return err
		}
		if err := fx.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), b.Trades); err != nil {
			return err
		}
		if err := fx.SetCellValue(summarySheet, fmt.Sprintf("C%d", row), b.WinRate*100); err != nil {
			return err
		}
		if err := fx.SetCellValue(summarySheet, fmt.Sprintf("D%d", row), b.PnL); err != nil {
			return err
		}
		row++
	}

	return nil
}
