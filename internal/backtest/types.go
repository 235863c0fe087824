package backtest

import (
	"time"

	"github.com/quantex/zerodte-backtest/internal/options"
	"github.com/quantex/zerodte-backtest/internal/regime"
	"github.com/quantex/zerodte-backtest/internal/signal"
)

// ExitReason labels how a position was closed.
type ExitReason string

const (
	ExitTakeProfit ExitReason = "TP"
	ExitStopLoss   ExitReason = "SL"
	ExitEndOfDay   ExitReason = "EOD"
)

// Position is an open trade. EntryPrice is the option premium in options
// mode and the share price otherwise; UnderlyingEntry always carries the
// underlying.
type Position struct {
	Direction  signal.Direction
	Confidence signal.Confidence
	Permission regime.Permission
	Reason     string

	EntryTime       time.Time
	EntryPrice      float64
	UnderlyingEntry float64

	// Options-mode fields, zero in shares mode.
	Strike      float64
	Contracts   int
	EntryIV     float64
	EntryGreeks options.Greeks

	// Shares-mode field, zero in options mode.
	Shares int

	TakeProfitAt float64
	StopLossAt   float64
}

// Trade is a closed position plus its outcome.
type Trade struct {
	Position

	ExitTime       time.Time
	ExitPrice      float64
	UnderlyingExit float64
	ExitReason     ExitReason

	PnL        float64
	Commission float64
	RMultiple  float64
	HoldBars   int
	TimeBucket string
}

// EquityPoint samples the equity curve. Equity changes only when a trade
// closes, so one point is appended per close.
type EquityPoint struct {
	Time   time.Time
	Equity float64
}

// DayOutcome summarizes one processed session.
type DayOutcome struct {
	Date      time.Time
	Regime    regime.Regime
	VIX       *float64
	Trades    int
	PnL       float64
	Truncated bool
}

// Diagnostics counts the decision points of a run, for debugging why a
// period produced few or no trades.
type Diagnostics struct {
	BarsProcessed   int
	SignalsChecked  int
	DirectionalBars int
	BlockedCooldown int
	BlockedSpread   int
	BlockedLowConf  int
	BlockedNoVol    int
	EntriesOpened   int
	TruncatedDays   int
	DaysSkipped     int
}

// Results is the full output of a run.
type Results struct {
	Symbol         string
	OptionsMode    bool
	InitialCapital float64
	FinalEquity    float64

	Trades      []Trade
	Days        []DayOutcome
	EquityCurve []EquityPoint
	Diagnostics Diagnostics
	Summary     Summary
}

// TimeBucketStat aggregates trade outcomes for one window of the day.
type TimeBucketStat struct {
	Name    string
	Trades  int
	Wins    int
	PnL     float64
	WinRate float64
}

// Summary holds the aggregate statistics of a run.
type Summary struct {
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64

	TotalPnL        float64
	TotalReturnPct  float64
	AvgWin          float64
	AvgLoss         float64
	ProfitFactor    float64
	AvgRMultiple    float64
	MaxDrawdown     float64
	MaxDrawdownPct  float64
	TotalCommission float64

	ByTimeBucket []TimeBucketStat
	ByExitReason map[ExitReason]int
}
