package data

import (
	"time"

	"github.com/quantex/zerodte-backtest/pkg/types"
)

// IntradayProvider loads the 5-minute bar history for a symbol.
type IntradayProvider interface {
	// LoadBars loads intraday bars from the specified source.
	LoadBars(source string) ([]types.Bar, error)

	// GetName returns the name of the data provider.
	GetName() string
}

// DailyProvider loads the daily bar history used for regime context.
type DailyProvider interface {
	LoadDaily(source string) ([]types.DailyBar, error)
	GetName() string
}

// VolatilityProvider resolves the volatility-index close for a trading
// day. The second return is false when no level is known for that day;
// callers treat the level as unknown rather than failing.
type VolatilityProvider interface {
	Level(day time.Time) (float64, bool)
}

// CSVColumnMapping defines the column positions for different CSV layouts.
type CSVColumnMapping struct {
	TimestampCol int
	OpenCol      int
	HighCol      int
	LowCol       int
	CloseCol     int
	VolumeCol    int
	MinColumns   int
	DateFormat   string
}

// DefaultBarFormat matches the standard export layout:
// timestamp,open,high,low,close,volume with RFC 3339 timestamps.
var DefaultBarFormat = CSVColumnMapping{
	TimestampCol: 0,
	OpenCol:      1,
	HighCol:      2,
	LowCol:       3,
	CloseCol:     4,
	VolumeCol:    5,
	MinColumns:   6,
	DateFormat:   time.RFC3339,
}

// DefaultDailyFormat is the same layout with date-only timestamps.
var DefaultDailyFormat = CSVColumnMapping{
	TimestampCol: 0,
	OpenCol:      1,
	HighCol:      2,
	LowCol:       3,
	CloseCol:     4,
	VolumeCol:    5,
	MinColumns:   6,
	DateFormat:   "2006-01-02",
}
