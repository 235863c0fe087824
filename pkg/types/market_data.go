package types

import "time"

// Bar is a single intraday OHLCV sample. Timestamps are normalized to the
// exchange-local timezone by the data providers.
type Bar struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// DailyBar is a daily-granularity OHLCV sample used for regime context.
type DailyBar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// TypicalPrice returns (high + low + close) / 3, the price used for VWAP.
func (b Bar) TypicalPrice() float64 {
	return (b.High + b.Low + b.Close) / 3
}

// DaySnapshot carries the session-level prices the regime classifier needs.
type DaySnapshot struct {
	YesterdayClose float64
	TodayOpen      float64
	TodayHigh      float64
	TodayLow       float64
	TodayClose     float64
}
