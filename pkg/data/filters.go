package data

import (
	"fmt"
	"sort"
	"time"

	"github.com/quantex/zerodte-backtest/pkg/types"
)

// SplitByDay groups intraday bars into per-session slices, ordered by
// date. Bars within a day keep their chronological order.
func SplitByDay(bars []types.Bar) [][]types.Bar {
	byDay := make(map[string][]types.Bar)
	for _, b := range bars {
		key := b.Timestamp.Format("2006-01-02")
		byDay[key] = append(byDay[key], b)
	}

	keys := make([]string, 0, len(byDay))
	for k := range byDay {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	days := make([][]types.Bar, 0, len(keys))
	for _, k := range keys {
		days = append(days, byDay[k])
	}
	return days
}

// FilterByDateRange keeps bars with start <= timestamp < end.
func FilterByDateRange(bars []types.Bar, start, end time.Time) []types.Bar {
	var out []types.Bar
	for _, b := range bars {
		if !b.Timestamp.Before(start) && b.Timestamp.Before(end) {
			out = append(out, b)
		}
	}
	return out
}

// SessionSlice keeps bars whose clock time falls inside
// [startMinutes, endMinutes], both as minutes since midnight.
func SessionSlice(bars []types.Bar, startMinutes, endMinutes int) []types.Bar {
	var out []types.Bar
	for _, b := range bars {
		m := b.Timestamp.Hour()*60 + b.Timestamp.Minute()
		if m >= startMinutes && m <= endMinutes {
			out = append(out, b)
		}
	}
	return out
}

// ValidateTimeSequence ensures bars are strictly chronological.
func ValidateTimeSequence(bars []types.Bar) error {
	for i := 1; i < len(bars); i++ {
		if !bars[i].Timestamp.After(bars[i-1].Timestamp) {
			return fmt.Errorf("bars out of order at index %d: %s then %s",
				i, bars[i-1].Timestamp.Format(time.RFC3339), bars[i].Timestamp.Format(time.RFC3339))
		}
	}
	return nil
}

// DailyBefore returns the daily bars strictly before the given day,
// preserving order. The regime classifier must never see same-day data.
func DailyBefore(daily []types.DailyBar, day time.Time) []types.DailyBar {
	cutoff := day.Format("2006-01-02")
	var out []types.DailyBar
	for _, d := range daily {
		if d.Date.Format("2006-01-02") < cutoff {
			out = append(out, d)
		}
	}
	return out
}
