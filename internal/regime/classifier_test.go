package regime

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/quantex/zerodte-backtest/pkg/types"
)

func testConfig() Config {
	return Config{
		Symbol:             "SPY",
		MAShortPeriod:      20,
		MALongPeriod:       50,
		GapSmallThreshold:  0.002,
		RangeLowThreshold:  0.005,
		RangeHighThreshold: 0.015,
		VIXHardDeck:        15,
	}
}

func dailyHistory(closes ...float64) []types.DailyBar {
	day := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]types.DailyBar, len(closes))
	for i, c := range closes {
		bars[i] = types.DailyBar{Date: day.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c}
	}
	return bars
}

func TestMovingAverages_DegradeOnShortHistory(t *testing.T) {
	c := NewClassifier(testConfig())

	// Fewer bars than either period: both MAs fall back to the mean of
	// all available closes.
	short, long := c.MovingAverages(dailyHistory(100, 102, 104))
	assert.InDelta(t, 102.0, short, 1e-12)
	assert.InDelta(t, 102.0, long, 1e-12)

	short, long = c.MovingAverages(nil)
	assert.Equal(t, 0.0, short)
	assert.Equal(t, 0.0, long)
}

func TestClassify_TrendRules(t *testing.T) {
	c := NewClassifier(testConfig())
	today := types.DaySnapshot{YesterdayClose: 100, TodayOpen: 100, TodayHigh: 101, TodayLow: 99, TodayClose: 100}

	rising := dailyHistory(100, 101, 102, 103, 110)
	r := c.Classify(rising, today, nil)
	assert.Equal(t, TrendBullish, r.Trend)

	falling := dailyHistory(110, 108, 106, 104, 90)
	r = c.Classify(falling, today, nil)
	assert.Equal(t, TrendBearish, r.Trend)
}

func TestClassify_GapAndRange(t *testing.T) {
	c := NewClassifier(testConfig())
	today := types.DaySnapshot{
		YesterdayClose: 400,
		TodayOpen:      404, // +1% gap
		TodayHigh:      412,
		TodayLow:       400, // ~2.97% range of open
		TodayClose:     410,
	}
	r := c.Classify(dailyHistory(398, 399, 400), today, nil)

	assert.InDelta(t, 1.0, r.GapPct, 1e-9)
	assert.InDelta(t, 12.0/404*100, r.RangePct, 1e-9)
	assert.Equal(t, RangeHigh, r.RangeClass)
	assert.Equal(t, PermissionFavorable, r.Permission)
	assert.Equal(t, 1.0, r.PermissionScore)
}

func TestPermission_HardDeckDominates(t *testing.T) {
	// Property: VIX at/below the hard deck forces AVOID for any
	// combination of trend, gap and range.
	c := NewClassifier(testConfig())
	rng := rand.New(rand.NewSource(7))

	lowVIX := 14.9
	for i := 0; i < 500; i++ {
		trend := Trend(rng.Intn(4))
		gapPct := rng.Float64()*6 - 3   // -3%..+3%
		rangePct := rng.Float64() * 5   // 0..5%
		p, reason, _ := c.Permission0DTE(trend, gapPct, rangePct, &lowVIX)
		assert.Equal(t, PermissionAvoid, p)
		assert.Contains(t, reason, "VIX too low")
	}

	// Boundary: exactly 15 is still under the deck.
	edge := 15.0
	p, _, _ := c.Permission0DTE(TrendBullish, 2.0, 4.0, &edge)
	assert.Equal(t, PermissionAvoid, p)

	// Just above the deck a volatile day is favorable again.
	above := 15.1
	p, _, _ = c.Permission0DTE(TrendBullish, 2.0, 4.0, &above)
	assert.Equal(t, PermissionFavorable, p)
}

func TestPermission_UnknownVIXSkipsHardDeck(t *testing.T) {
	c := NewClassifier(testConfig())

	// No VIX reading: hard deck is skipped and the other rules apply.
	p, reason, _ := c.Permission0DTE(TrendMixed, 0.05, 0.2, nil)
	assert.Equal(t, PermissionAvoid, p)
	assert.Contains(t, reason, "chop")

	p, _, score := c.Permission0DTE(TrendMixed, 0.5, 1.0, nil)
	assert.Equal(t, PermissionCaution, p)
	assert.InDelta(t, 1.0/1.5, score, 1e-9)
}
