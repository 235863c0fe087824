package data

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantex/zerodte-backtest/pkg/types"
)

func writeTempCSV(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadBarsSkipsMalformedRows(t *testing.T) {
	body := `timestamp,open,high,low,close,volume
2025-06-02T09:45:00Z,450.0,450.5,449.8,450.2,10000
not-a-time,450.0,450.5,449.8,450.2,10000
2025-06-02T09:50:00Z,450.2,bad,449.9,450.1,12000
2025-06-02T09:55:00Z,450.1,450.3,449.7,-1,9000
2025-06-02T10:00:00Z,450.1,450.6,450.0,450.4,11000
`
	p := NewCSVBarProvider(zerolog.Nop())
	bars, err := p.LoadBars(writeTempCSV(t, body))
	require.NoError(t, err)

	require.Len(t, bars, 2)
	assert.Equal(t, 450.2, bars[0].Close)
	assert.Equal(t, 450.4, bars[1].Close)
}

func TestLoadBarsSortsByTimestamp(t *testing.T) {
	body := `timestamp,open,high,low,close,volume
2025-06-02T10:00:00Z,450.1,450.6,450.0,450.4,11000
2025-06-02T09:45:00Z,450.0,450.5,449.8,450.2,10000
`
	p := NewCSVBarProvider(zerolog.Nop())
	bars, err := p.LoadBars(writeTempCSV(t, body))
	require.NoError(t, err)

	require.Len(t, bars, 2)
	assert.True(t, bars[0].Timestamp.Before(bars[1].Timestamp))
	assert.NoError(t, ValidateTimeSequence(bars))
}

func TestLoadDaily(t *testing.T) {
	body := `date,open,high,low,close,volume
2025-05-30,448.0,451.0,447.5,450.0,80000000
2025-06-02,450.5,452.0,449.0,451.2,75000000
`
	p := NewCSVBarProvider(zerolog.Nop())
	daily, err := p.LoadDaily(writeTempCSV(t, body))
	require.NoError(t, err)

	require.Len(t, daily, 2)
	assert.Equal(t, 450.0, daily[0].Close)
	assert.Equal(t, time.June, daily[1].Date.Month())
}

func TestVolatilityProvider(t *testing.T) {
	body := `date,close
2025-06-02,18.4
2025-06-03,bad
2025-06-04,14.2
`
	p, err := NewCSVVolatilityProvider(zerolog.Nop(), writeTempCSV(t, body))
	require.NoError(t, err)

	v, ok := p.Level(time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))
	assert.True(t, ok)
	assert.Equal(t, 18.4, v)

	// The bad June 3 row is skipped; its date carries June 2 forward.
	v, ok = p.Level(time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC))
	assert.True(t, ok)
	assert.Equal(t, 18.4, v)

	v, ok = p.Level(time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC))
	assert.True(t, ok)
	assert.Equal(t, 14.2, v)

	// Nothing to carry forward before the first reading.
	_, ok = p.Level(time.Date(2025, 5, 30, 0, 0, 0, 0, time.UTC))
	assert.False(t, ok)
}

func TestSplitByDayAndSessionSlice(t *testing.T) {
	mk := func(day, h, m int) time.Time { return time.Date(2025, 6, day, h, m, 0, 0, time.UTC) }

	var all []types.Bar
	for _, ts := range []time.Time{mk(2, 9, 45), mk(2, 14, 0), mk(3, 10, 0)} {
		all = append(all, types.Bar{Timestamp: ts, Open: 1, High: 1, Low: 1, Close: 1, Volume: 1})
	}

	days := SplitByDay(all)
	require.Len(t, days, 2)
	assert.Len(t, days[0], 2)
	assert.Len(t, days[1], 1)

	sliced := SessionSlice(days[0], 9*60+45, 13*60)
	require.Len(t, sliced, 1)
	assert.Equal(t, mk(2, 9, 45), sliced[0].Timestamp)
}

func TestCalendar(t *testing.T) {
	c := NewCalendar()

	assert.True(t, c.IsTradingDay(time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)))   // Monday
	assert.False(t, c.IsTradingDay(time.Date(2025, 6, 7, 0, 0, 0, 0, time.UTC)))  // Saturday

	half := time.Date(2025, 7, 3, 0, 0, 0, 0, time.UTC)
	assert.True(t, c.IsEarlyClose(half))
	assert.Equal(t, 13*60, c.CloseMinutes(half))

	full := time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC)
	assert.False(t, c.IsEarlyClose(full))
	h, m := c.CloseClock(full)
	assert.Equal(t, 16, h)
	assert.Equal(t, 0, m)

	adhoc := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	c.AddEarlyClose(adhoc)
	assert.True(t, c.IsEarlyClose(adhoc))
}
