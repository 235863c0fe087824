package indicators

import (
	"errors"
	"math"

	"github.com/quantex/zerodte-backtest/pkg/types"
)

// MicroTrend classifies the short-horizon intraday direction.
type MicroTrend int

const (
	MicroNeutral MicroTrend = iota
	MicroUp
	MicroDown
)

func (m MicroTrend) String() string {
	switch m {
	case MicroUp:
		return "Up"
	case MicroDown:
		return "Down"
	default:
		return "Neutral"
	}
}

// Snapshot is the per-bar intraday state: latest point values of every
// indicator the signal generator consumes. Returns are in percent.
type Snapshot struct {
	Price        float64
	VWAP         float64
	EMAFast      float64
	EMASlow      float64
	Return1      float64
	Return5      float64
	VWAPDistance float64
	RealizedVol  float64
	MicroTrend   MicroTrend
}

// Series exposes the full per-bar history the chop detector needs.
type Series struct {
	Bars    []types.Bar
	VWAP    []float64
	EMAFast []float64
	EMASlow []float64
}

// ErrNoBars is returned when analysis is requested on an empty session.
// An empty bar sequence is a caller bug, not a recoverable condition.
var ErrNoBars = errors.New("indicators: no bars in session")

const barsPerDay = 78 // 5-minute bars in a 6.5-hour session

// SessionAnalyzer computes VWAP, EMAs, returns, realized volatility and
// micro trend incrementally over one trading session. VWAP always starts
// cold; the EMAs may be seeded from the prior session's final values via
// SeedEMAs before the first Update.
type SessionAnalyzer struct {
	volLookback int

	vwap    *VWAP
	emaFast *EMA
	emaSlow *EMA

	series Series
	closes []float64
}

// NewSessionAnalyzer creates an analyzer for a fresh session.
func NewSessionAnalyzer(emaFastPeriod, emaSlowPeriod, volLookback int) *SessionAnalyzer {
	return &SessionAnalyzer{
		volLookback: volLookback,
		vwap:        NewVWAP(),
		emaFast:     NewEMA(emaFastPeriod),
		emaSlow:     NewEMA(emaSlowPeriod),
	}
}

// SeedEMAs installs the prior session's final EMA values so the 9:30 open
// reflects yesterday's slope instead of restarting cold. Must be called
// before the first Update.
func (a *SessionAnalyzer) SeedEMAs(fast, slow float64) {
	a.emaFast = NewSeededEMA(a.emaFast.Period(), fast)
	a.emaSlow = NewSeededEMA(a.emaSlow.Period(), slow)
}

// Update folds the next bar in and returns the resulting snapshot.
func (a *SessionAnalyzer) Update(bar types.Bar) Snapshot {
	vwap := a.vwap.Update(bar)
	fast := a.emaFast.Update(bar.Close)
	slow := a.emaSlow.Update(bar.Close)

	a.series.Bars = append(a.series.Bars, bar)
	a.series.VWAP = append(a.series.VWAP, vwap)
	a.series.EMAFast = append(a.series.EMAFast, fast)
	a.series.EMASlow = append(a.series.EMASlow, slow)
	a.closes = append(a.closes, bar.Close)

	return a.snapshot()
}

// Snapshot returns the latest-bar state, or ErrNoBars before any Update.
func (a *SessionAnalyzer) Snapshot() (Snapshot, error) {
	if len(a.closes) == 0 {
		return Snapshot{}, ErrNoBars
	}
	return a.snapshot(), nil
}

// Series returns the accumulated per-bar history.
func (a *SessionAnalyzer) Series() *Series {
	return &a.series
}

// FinalEMAs returns the current fast/slow EMA values, used to seed the
// next session.
func (a *SessionAnalyzer) FinalEMAs() (fast, slow float64) {
	return a.emaFast.Value(), a.emaSlow.Value()
}

func (a *SessionAnalyzer) snapshot() Snapshot {
	price := a.closes[len(a.closes)-1]
	vwap := a.vwap.Value()

	vwapDist := 0.0
	if vwap > 0 {
		vwapDist = (price - vwap) / vwap * 100
	}

	micro := MicroNeutral
	fast, slow := a.emaFast.Value(), a.emaSlow.Value()
	switch {
	case fast > slow && price > vwap:
		micro = MicroUp
	case fast < slow && price < vwap:
		micro = MicroDown
	}

	return Snapshot{
		Price:        price,
		VWAP:         vwap,
		EMAFast:      fast,
		EMASlow:      slow,
		Return1:      a.trailingReturn(1),
		Return5:      a.trailingReturn(5),
		VWAPDistance: vwapDist,
		RealizedVol:  a.realizedVol(),
		MicroTrend:   micro,
	}
}

// trailingReturn is the percent change over the last n bars; zero when the
// session is too young.
func (a *SessionAnalyzer) trailingReturn(n int) float64 {
	if len(a.closes) <= n {
		return 0
	}
	prev := a.closes[len(a.closes)-1-n]
	if prev == 0 {
		return 0
	}
	return (a.closes[len(a.closes)-1] - prev) / prev * 100
}

// realizedVol annualizes the sample standard deviation of 1-bar percent
// returns over the lookback window.
func (a *SessionAnalyzer) realizedVol() float64 {
	n := len(a.closes)
	if n < 3 {
		return 0
	}

	start := 1
	if n-a.volLookback > start {
		start = n - a.volLookback
	}

	var rets []float64
	for i := start; i < n; i++ {
		if a.closes[i-1] == 0 {
			continue
		}
		rets = append(rets, (a.closes[i]-a.closes[i-1])/a.closes[i-1]*100)
	}
	if len(rets) < 2 {
		return 0
	}

	mean := 0.0
	for _, r := range rets {
		mean += r
	}
	mean /= float64(len(rets))

	variance := 0.0
	for _, r := range rets {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(rets) - 1)

	return math.Sqrt(variance) * math.Sqrt(barsPerDay*252)
}

// Analyze runs a whole session in one shot. Convenience wrapper for
// callers that already hold the full bar slice; seeds may be nil.
func Analyze(bars []types.Bar, emaFastPeriod, emaSlowPeriod, volLookback int, seedFast, seedSlow *float64) (Snapshot, *Series, error) {
	if len(bars) == 0 {
		return Snapshot{}, nil, ErrNoBars
	}

	a := NewSessionAnalyzer(emaFastPeriod, emaSlowPeriod, volLookback)
	if seedFast != nil && seedSlow != nil {
		a.SeedEMAs(*seedFast, *seedSlow)
	}

	var snap Snapshot
	for _, bar := range bars {
		snap = a.Update(bar)
	}
	return snap, a.Series(), nil
}
