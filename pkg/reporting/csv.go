package reporting

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/quantex/zerodte-backtest/internal/backtest"
)

// DefaultFileReporter implements CSV and Excel trade logs.
type DefaultFileReporter struct{}

// NewDefaultFileReporter creates a new file reporter.
func NewDefaultFileReporter() *DefaultFileReporter {
	return &DefaultFileReporter{}
}

var tradeHeader = []string{
	"Entry_Time",
	"Exit_Time",
	"Direction",
	"Confidence",
	"Permission",
	"Entry_Price",
	"Exit_Price",
	"Underlying_Entry",
	"Underlying_Exit",
	"Strike",
	"Contracts",
	"Shares",
	"Entry_IV_%",
	"Entry_Delta",
	"Exit_Reason",
	"Hold_Bars",
	"Time_Bucket",
	"PnL_$",
	"Commission_$",
	"R_Multiple",
	"Win_Loss",
	"Reason",
}

// WriteTradesCSV writes the trade log. An .xlsx path delegates to the
// Excel writer.
func (r *DefaultFileReporter) WriteTradesCSV(results *backtest.Results, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return r.WriteTradesXLSX(results, path)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(tradeHeader); err != nil {
		return err
	}

	for _, t := range results.Trades {
		if err := w.Write(tradeRecord(t)); err != nil {
			return err
		}
	}

	return w.Error()
}

func tradeRecord(t backtest.Trade) []string {
	winLoss := "LOSS"
	if t.PnL > 0 {
		winLoss = "WIN"
	}

	return []string{
		t.EntryTime.Format(time.RFC3339),
		t.ExitTime.Format(time.RFC3339),
		t.Direction.String(),
		t.Confidence.String(),
		t.Permission.String(),
		fmt.Sprintf("%.4f", t.EntryPrice),
		fmt.Sprintf("%.4f", t.ExitPrice),
		fmt.Sprintf("%.2f", t.UnderlyingEntry),
		fmt.Sprintf("%.2f", t.UnderlyingExit),
		fmt.Sprintf("%.2f", t.Strike),
		strconv.Itoa(t.Contracts),
		strconv.Itoa(t.Shares),
		fmt.Sprintf("%.2f", t.EntryIV),
		fmt.Sprintf("%.4f", t.EntryGreeks.Delta),
		string(t.ExitReason),
		strconv.Itoa(t.HoldBars),
		t.TimeBucket,
		fmt.Sprintf("%.2f", t.PnL),
		fmt.Sprintf("%.2f", t.Commission),
		fmt.Sprintf("%.3f", t.RMultiple),
		winLoss,
		t.Reason,
	}
}
