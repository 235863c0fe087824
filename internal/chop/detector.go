package chop

import (
	"fmt"
	"math"

	talib "github.com/markcheno/go-talib"

	"github.com/quantex/zerodte-backtest/internal/indicators"
)

// Config holds the chop-detection thresholds. Fractional thresholds are
// fractions of price (0.002 = 0.2%).
type Config struct {
	LookbackBars       int // bars in the trailing window, 12 = 1 hour at 5m
	VWAPCrossThreshold int
	EMAFlatThreshold   float64
	ATRPeriod          int
	ATRThreshold       float64
	VWAPRangeThreshold float64
}

// Result is the bounded chop score plus the reasons that contributed.
type Result struct {
	IsChop  bool
	Score   int
	Reasons []string
}

// Detector scores how range-bound the market currently is by summing four
// independent signals: VWAP cross count, EMA flatness, low ATR and price
// pinned to VWAP. Score >= 2 means chop.
type Detector struct {
	cfg Config
}

// NewDetector creates a detector with the given thresholds.
func NewDetector(cfg Config) *Detector {
	if cfg.LookbackBars <= 0 {
		cfg.LookbackBars = 12
	}
	if cfg.ATRPeriod <= 0 {
		cfg.ATRPeriod = 14
	}
	return &Detector{cfg: cfg}
}

// Detect scores the trailing window of the session. Fewer than the
// lookback's worth of bars reports score 0 / not-chop: insufficient data
// is not an error.
func (d *Detector) Detect(series *indicators.Series) Result {
	if series == nil || len(series.Bars) < d.cfg.LookbackBars {
		return Result{}
	}

	var res Result

	if crosses := d.countVWAPCrosses(series); crosses >= d.cfg.VWAPCrossThreshold {
		res.Score++
		res.Reasons = append(res.Reasons, fmt.Sprintf("VWAP crossed %d times in last hour", crosses))
	}

	if d.emasFlat(series) {
		res.Score++
		res.Reasons = append(res.Reasons, "EMAs are flat (no trend)")
	}

	if atrPct, ok := d.atrPct(series); ok && atrPct < d.cfg.ATRThreshold {
		res.Score++
		res.Reasons = append(res.Reasons, fmt.Sprintf("Low ATR (%.2f%% < %.2f%%)", atrPct*100, d.cfg.ATRThreshold*100))
	}

	if d.priceTightToVWAP(series) {
		res.Score++
		res.Reasons = append(res.Reasons, "Price range tight around VWAP")
	}

	res.IsChop = res.Score >= 2
	return res
}

// countVWAPCrosses counts sign flips of (close - vwap) over the trailing
// window. The first bar establishes the side and does not count.
func (d *Detector) countVWAPCrosses(series *indicators.Series) int {
	n := len(series.Bars)
	start := n - d.cfg.LookbackBars
	if start < 0 {
		start = 0
	}

	crosses := 0
	prevAbove := series.Bars[start].Close > series.VWAP[start]
	for i := start + 1; i < n; i++ {
		above := series.Bars[i].Close > series.VWAP[i]
		if above != prevAbove {
			crosses++
		}
		prevAbove = above
	}
	return crosses
}

// emasFlat reports whether both EMA slopes over the trailing window are
// below the flatness threshold.
func (d *Detector) emasFlat(series *indicators.Series) bool {
	n := len(series.EMAFast)
	if n < d.cfg.LookbackBars || len(series.EMASlow) < d.cfg.LookbackBars {
		return false
	}
	start := n - d.cfg.LookbackBars

	fastSlope := relSlope(series.EMAFast[start], series.EMAFast[n-1])
	slowSlope := relSlope(series.EMASlow[start], series.EMASlow[n-1])

	return fastSlope < d.cfg.EMAFlatThreshold && slowSlope < d.cfg.EMAFlatThreshold
}

func relSlope(first, last float64) float64 {
	if first == 0 {
		return 0
	}
	return math.Abs((last - first) / first)
}

// atrPct computes ATR as a fraction of the current price. Requires at
// least period+1 bars of warm-up; before that the check is skipped.
func (d *Detector) atrPct(series *indicators.Series) (float64, bool) {
	n := len(series.Bars)
	if n < d.cfg.ATRPeriod+1 {
		return 0, false
	}

	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i, b := range series.Bars {
		highs[i] = b.High
		lows[i] = b.Low
		closes[i] = b.Close
	}

	atr := talib.Atr(highs, lows, closes, d.cfg.ATRPeriod)
	current := closes[n-1]
	if current <= 0 {
		return 0, false
	}
	return atr[n-1] / current, true
}

// priceTightToVWAP reports whether the latest close sits inside the tight
// band around VWAP.
func (d *Detector) priceTightToVWAP(series *indicators.Series) bool {
	n := len(series.Bars)
	vwap := series.VWAP[n-1]
	if vwap == 0 {
		return false
	}
	return math.Abs(series.Bars[n-1].Close-vwap)/vwap < d.cfg.VWAPRangeThreshold
}
