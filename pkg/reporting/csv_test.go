package reporting

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantex/zerodte-backtest/internal/backtest"
	"github.com/quantex/zerodte-backtest/internal/regime"
	"github.com/quantex/zerodte-backtest/internal/signal"
)

func sampleResults() *backtest.Results {
	entry := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	return &backtest.Results{
		Symbol:         "SPY",
		OptionsMode:    true,
		InitialCapital: 10000,
		FinalEquity:    10123.70,
		Trades: []backtest.Trade{
			{
				Position: backtest.Position{
					Direction:       signal.DirectionCall,
					Confidence:      signal.ConfidenceHigh,
					Permission:      regime.PermissionFavorable,
					Reason:          "Bullish trend; Price above VWAP",
					EntryTime:       entry,
					EntryPrice:      2.45,
					UnderlyingEntry: 450.40,
					Strike:          450,
					Contracts:       1,
					EntryIV:         20,
				},
				ExitTime:       entry.Add(25 * time.Minute),
				ExitPrice:      3.70,
				UnderlyingExit: 452.10,
				ExitReason:     backtest.ExitTakeProfit,
				PnL:            123.70,
				Commission:     0.65,
				RMultiple:      0.5,
				HoldBars:       5,
				TimeBucket:     "Morning Drive",
			},
		},
	}
}

func TestWriteTradesCSV(t *testing.T) {
	res := sampleResults()
	res.Summary = backtest.Summarize(res)

	path := filepath.Join(t.TempDir(), "out", "trades.csv")
	r := NewDefaultFileReporter()
	require.NoError(t, r.WriteTradesCSV(res, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, tradeHeader, rows[0])

	row := rows[1]
	assert.Equal(t, "CALL", row[2])
	assert.Equal(t, "HIGH", row[3])
	assert.Equal(t, "FAVORABLE", row[4])
	assert.Equal(t, "TP", row[14])
	assert.Equal(t, "WIN", row[20])
}

func TestWriteTradesCSVDelegatesToExcel(t *testing.T) {
	res := sampleResults()
	res.Summary = backtest.Summarize(res)

	path := filepath.Join(t.TempDir(), "trades.xlsx")
	r := NewDefaultFileReporter()
	require.NoError(t, r.WriteTradesCSV(res, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
