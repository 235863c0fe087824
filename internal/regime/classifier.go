package regime

import (
	"fmt"
	"math"

	"github.com/quantex/zerodte-backtest/pkg/types"
)

// Config holds the classifier thresholds. Percentage thresholds are
// fractions (0.005 = 0.5%).
type Config struct {
	Symbol             string
	MAShortPeriod      int
	MALongPeriod       int
	GapSmallThreshold  float64
	RangeLowThreshold  float64
	RangeHighThreshold float64
	VIXHardDeck        float64
}

// Classifier performs the daily trend/gap/range analysis and derives the
// 0DTE permission state.
type Classifier struct {
	cfg Config
}

// NewClassifier creates a classifier with the given thresholds.
func NewClassifier(cfg Config) *Classifier {
	if cfg.Symbol == "" {
		cfg.Symbol = "SPY"
	}
	return &Classifier{cfg: cfg}
}

// MovingAverages computes the short/long close MAs, degrading to the
// average of all available data when the history is shorter than the
// period. Short histories never error.
func (c *Classifier) MovingAverages(daily []types.DailyBar) (maShort, maLong float64) {
	return tailMean(daily, c.cfg.MAShortPeriod), tailMean(daily, c.cfg.MALongPeriod)
}

func tailMean(daily []types.DailyBar, period int) float64 {
	if len(daily) == 0 {
		return 0
	}
	start := 0
	if len(daily) > period {
		start = len(daily) - period
	}
	sum := 0.0
	for _, d := range daily[start:] {
		sum += d.Close
	}
	return sum / float64(len(daily)-start)
}

// classifyTrend follows the MA rules, falling back to the short MA alone
// when the long MA is unavailable.
func (c *Classifier) classifyTrend(latestClose, maShort, maLong float64) (Trend, string) {
	if maLong == 0 {
		switch {
		case latestClose > maShort:
			return TrendBullish, fmt.Sprintf("%s above %dD (limited data)", c.cfg.Symbol, c.cfg.MAShortPeriod)
		case latestClose < maShort:
			return TrendBearish, fmt.Sprintf("%s below %dD (limited data)", c.cfg.Symbol, c.cfg.MAShortPeriod)
		default:
			return TrendNeutral, fmt.Sprintf("%s at %dD (limited data)", c.cfg.Symbol, c.cfg.MAShortPeriod)
		}
	}

	switch {
	case latestClose > maShort && latestClose > maLong:
		return TrendBullish, fmt.Sprintf("%s above %dD & %dD", c.cfg.Symbol, c.cfg.MAShortPeriod, c.cfg.MALongPeriod)
	case latestClose < maShort:
		return TrendBearish, fmt.Sprintf("%s below %dD", c.cfg.Symbol, c.cfg.MAShortPeriod)
	default:
		return TrendMixed, fmt.Sprintf("%s between %dD & %dD", c.cfg.Symbol, c.cfg.MAShortPeriod, c.cfg.MALongPeriod)
	}
}

// ClassifyRange buckets the range percentage.
func (c *Classifier) ClassifyRange(rangePct float64) RangeClass {
	switch {
	case rangePct < c.cfg.RangeLowThreshold*100:
		return RangeLow
	case rangePct > c.cfg.RangeHighThreshold*100:
		return RangeHigh
	default:
		return RangeNormal
	}
}

// Permission0DTE evaluates the permission state machine in priority
// order. The VIX hard deck dominates every other heuristic: 0DTE premium
// decays too fast to trade a dead market regardless of setup. vix is nil
// when no volatility-index reading is available, which skips the hard
// deck for that day.
func (c *Classifier) Permission0DTE(trend Trend, gapPct, rangePct float64, vix *float64) (Permission, string, float64) {
	gapAbs := math.Abs(gapPct)

	if vix != nil && *vix <= c.cfg.VIXHardDeck {
		return PermissionAvoid, "VIX too low - avoid 0DTE options (insufficient volatility)", 0
	}

	if gapAbs < c.cfg.GapSmallThreshold*100 && rangePct < c.cfg.RangeLowThreshold*100 {
		return PermissionAvoid, "Likely chop - avoid aggressive 0DTE directions", 0
	}

	if rangePct > c.cfg.RangeHighThreshold*100 {
		return PermissionFavorable, "Volatile day - directional 0DTE OK", 1.0
	}

	return PermissionCaution, "Mixed conditions - use caution", rangePct / (c.cfg.RangeHighThreshold * 100)
}

// Classify runs the full regime analysis for one session. daily must be
// ascending and deduplicated by date; vix is the same-day (or most recent
// available) volatility-index level, nil when unknown.
func (c *Classifier) Classify(daily []types.DailyBar, today types.DaySnapshot, vix *float64) Regime {
	maShort, maLong := c.MovingAverages(daily)

	latestClose := today.TodayClose
	if len(daily) > 0 {
		latestClose = daily[len(daily)-1].Close
	}

	trend, desc := c.classifyTrend(latestClose, maShort, maLong)

	gap := today.TodayOpen - today.YesterdayClose
	gapPct := 0.0
	if today.YesterdayClose > 0 {
		gapPct = gap / today.YesterdayClose * 100
	}

	rng := today.TodayHigh - today.TodayLow
	rangePct := 0.0
	if today.TodayOpen > 0 {
		rangePct = rng / today.TodayOpen * 100
	}

	permission, reason, score := c.Permission0DTE(trend, gapPct, rangePct, vix)

	return Regime{
		Trend:            trend,
		TrendDescription: desc,
		MAShort:          maShort,
		MALong:           maLong,
		LatestClose:      latestClose,
		Gap:              gap,
		GapPct:           gapPct,
		Range:            rng,
		RangePct:         rangePct,
		RangeClass:       c.ClassifyRange(rangePct),
		Permission:       permission,
		PermissionReason: reason,
		PermissionScore:  score,
	}
}
