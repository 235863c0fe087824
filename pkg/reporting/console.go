package reporting

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/quantex/zerodte-backtest/internal/backtest"
)

// DefaultConsoleReporter implements console output functionality.
type DefaultConsoleReporter struct{}

// NewDefaultConsoleReporter creates a new console reporter.
func NewDefaultConsoleReporter() *DefaultConsoleReporter {
	return &DefaultConsoleReporter{}
}

// OutputResults prints a run summary plus per-window and per-day tables.
func (r *DefaultConsoleReporter) OutputResults(res *backtest.Results) {
	s := res.Summary

	mode := "0DTE options"
	if !res.OptionsMode {
		mode = "shares"
	}

	fmt.Println("\n" + strings.Repeat("=", 50))
	fmt.Printf("📊 BACKTEST RESULTS: %s (%s)\n", res.Symbol, mode)
	fmt.Println(strings.Repeat("=", 50))

	fmt.Printf("💰 Initial Capital:    $%.2f\n", res.InitialCapital)
	fmt.Printf("💰 Final Equity:       $%.2f\n", res.FinalEquity)
	fmt.Printf("📈 Total Return:       %.2f%%\n", s.TotalReturnPct)
	fmt.Printf("📉 Max Drawdown:       $%.2f (%.2f%%)\n", s.MaxDrawdown, s.MaxDrawdownPct*100)
	fmt.Printf("💹 Profit Factor:      %.2f\n", s.ProfitFactor)
	fmt.Printf("🔄 Total Trades:       %d\n", s.TotalTrades)
	fmt.Printf("✅ Winning Trades:     %d (%.1f%%)\n", s.WinningTrades, s.WinRate*100)
	fmt.Printf("❌ Losing Trades:      %d\n", s.LosingTrades)
	fmt.Printf("🎯 Avg R-Multiple:     %.2f\n", s.AvgRMultiple)
	fmt.Printf("💸 Total Commission:   $%.2f\n", s.TotalCommission)

	if len(s.ByExitReason) > 0 {
		fmt.Printf("🚪 Exits:              TP %d / SL %d / EOD %d\n",
			s.ByExitReason[backtest.ExitTakeProfit],
			s.ByExitReason[backtest.ExitStopLoss],
			s.ByExitReason[backtest.ExitEndOfDay])
	}

	if len(s.ByTimeBucket) > 0 {
		fmt.Println("\n⏰ Performance by time of day:")
		tw := table.NewWriter()
		tw.SetOutputMirror(os.Stdout)
		tw.AppendHeader(table.Row{"Window", "Trades", "Wins", "Win Rate", "PnL"})
		for _, b := range s.ByTimeBucket {
			tw.AppendRow(table.Row{
				b.Name, b.Trades, b.Wins,
				fmt.Sprintf("%.1f%%", b.WinRate*100),
				fmt.Sprintf("$%.2f", b.PnL),
			})
		}
		tw.SetColumnConfigs([]table.ColumnConfig{
			{Number: 5, Align: text.AlignRight},
		})
		tw.SetStyle(table.StyleLight)
		tw.Render()
	}

	if res.Diagnostics.BlockedCooldown+res.Diagnostics.BlockedSpread+res.Diagnostics.BlockedLowConf > 0 {
		d := res.Diagnostics
		fmt.Printf("\n🔍 Entries blocked: cooldown %d, spread %d, confidence %d, no-vol %d\n",
			d.BlockedCooldown, d.BlockedSpread, d.BlockedLowConf, d.BlockedNoVol)
	}
	if res.Diagnostics.DaysSkipped > 0 {
		fmt.Printf("⚠️  Trading days without data: %d\n", res.Diagnostics.DaysSkipped)
	}
}

// OutputSweep prints the parameter grid ranked by total PnL.
func (r *DefaultConsoleReporter) OutputSweep(results []backtest.SweepResult) {
	fmt.Println("\n" + strings.Repeat("=", 50))
	fmt.Println("🧪 PARAMETER SWEEP RESULTS")
	fmt.Println(strings.Repeat("=", 50))

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"#", "TP %", "SL %", "Trades", "Win Rate", "PnL", "Max DD", "Runtime"})
	for i, sr := range results {
		s := sr.Results.Summary
		tw.AppendRow(table.Row{
			i + 1,
			fmt.Sprintf("%.1f", sr.Job.TakeProfitPct*100),
			fmt.Sprintf("%.1f", sr.Job.StopLossPct*100),
			s.TotalTrades,
			fmt.Sprintf("%.1f%%", s.WinRate*100),
			fmt.Sprintf("$%.2f", s.TotalPnL),
			fmt.Sprintf("$%.2f", s.MaxDrawdown),
			sr.Duration.Round(time.Millisecond),
		})
	}
	tw.SetStyle(table.StyleLight)
	tw.Render()
}
