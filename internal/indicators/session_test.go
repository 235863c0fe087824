package indicators

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantex/zerodte-backtest/pkg/types"
)

func makeBars(closes []float64, volume float64) []types.Bar {
	start := time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)
	bars := make([]types.Bar, len(closes))
	for i, c := range closes {
		bars[i] = types.Bar{
			Timestamp: start.Add(time.Duration(i) * 5 * time.Minute),
			Open:      c,
			High:      c + 0.5,
			Low:       c - 0.5,
			Close:     c,
			Volume:    volume,
		}
	}
	return bars
}

func TestAnalyze_EmptyIsContractViolation(t *testing.T) {
	_, _, err := Analyze(nil, 9, 21, 20, nil, nil)
	assert.ErrorIs(t, err, ErrNoBars)
}

func TestVWAP_ResetPerSession(t *testing.T) {
	// VWAP over session N must not depend on session N-1: running two
	// sessions through separate analyzers equals running each alone.
	first := makeBars([]float64{100, 101, 102}, 1000)
	second := makeBars([]float64{200, 201, 202}, 500)

	_, _, err := Analyze(first, 9, 21, 20, nil, nil)
	require.NoError(t, err)

	standalone, _, err := Analyze(second, 9, 21, 20, nil, nil)
	require.NoError(t, err)

	// Fresh analyzer for the second session, as the engine does per day.
	a := NewSessionAnalyzer(9, 21, 20)
	var snap Snapshot
	for _, b := range second {
		snap = a.Update(b)
	}
	assert.Equal(t, standalone.VWAP, snap.VWAP)

	// And the value matches the direct cumulative computation.
	var pv, vol float64
	for _, b := range second {
		pv += b.TypicalPrice() * b.Volume
		vol += b.Volume
	}
	assert.InDelta(t, pv/vol, snap.VWAP, 1e-12)
}

func TestEMA_SeedContinuity(t *testing.T) {
	const period = 9
	alpha := 2.0 / float64(period+1)
	seed := 415.20
	price0 := 417.0

	seeded := NewSeededEMA(period, seed)
	got := seeded.Update(price0)
	assert.InDelta(t, alpha*price0+(1-alpha)*seed, got, 1e-12)

	// The unseeded default initializes to the first price itself.
	cold := NewEMA(period)
	assert.Equal(t, price0, cold.Update(price0))
}

func TestSessionAnalyzer_SeededFirstBar(t *testing.T) {
	bars := makeBars([]float64{417.0, 417.5}, 1000)

	a := NewSessionAnalyzer(9, 21, 20)
	a.SeedEMAs(415.20, 414.80)
	snap := a.Update(bars[0])

	alphaFast := 2.0 / 10.0
	alphaSlow := 2.0 / 22.0
	assert.InDelta(t, alphaFast*417.0+(1-alphaFast)*415.20, snap.EMAFast, 1e-12)
	assert.InDelta(t, alphaSlow*417.0+(1-alphaSlow)*414.80, snap.EMASlow, 1e-12)
}

func TestReturnsAndMicroTrend(t *testing.T) {
	closes := []float64{100, 100.2, 100.5, 100.9, 101.4, 102.0, 102.5}
	snap, _, err := Analyze(makeBars(closes, 1000), 9, 21, 20, nil, nil)
	require.NoError(t, err)
	assert.InDelta(t, (102.5-102.0)/102.0*100, snap.Return1, 1e-12)
	assert.InDelta(t, (102.5-100.2)/100.2*100, snap.Return5, 1e-12)

	// Steadily rising closes: fast EMA above slow, price above VWAP.
	assert.Equal(t, MicroUp, snap.MicroTrend)

	falling := []float64{102.5, 102.0, 101.4, 100.9, 100.5, 100.2, 100.0}
	snap, _, err = Analyze(makeBars(falling, 1000), 9, 21, 20, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, MicroDown, snap.MicroTrend)
}

func TestRealizedVol_FlatSeriesIsZero(t *testing.T) {
	flat := makeBars([]float64{100, 100, 100, 100, 100, 100}, 1000)
	snap, _, err := Analyze(flat, 9, 21, 20, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, snap.RealizedVol)
	assert.Equal(t, MicroNeutral, snap.MicroTrend)
}

func TestRealizedVol_TooFewBarsIsZero(t *testing.T) {
	snap, _, err := Analyze(makeBars([]float64{100, 101}, 1000), 9, 21, 20, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, snap.RealizedVol)
}
