package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/quantex/zerodte-backtest/internal/chop"
	"github.com/quantex/zerodte-backtest/internal/indicators"
	"github.com/quantex/zerodte-backtest/internal/regime"
	"github.com/quantex/zerodte-backtest/pkg/types"
)

func testGenerator() *RuleGenerator {
	return NewRuleGenerator(
		Config{OptionsMinReturn5: 1.0, OptionsMinIV: 12, LowIVThreshold: 15, HighIVThreshold: 20},
		chop.NewDetector(chop.Config{
			LookbackBars:       12,
			VWAPCrossThreshold: 3,
			EMAFlatThreshold:   0.001,
			ATRPeriod:          14,
			ATRThreshold:       0.002,
			VWAPRangeThreshold: 0.002,
		}),
		NewTimeFilter(TimeFilterConfig{
			SessionStart:     9*60 + 45,
			LunchStart:       11*60 + 45,
			LunchEnd:         13*60 + 30,
			AfternoonStart:   13*60 + 45,
			AfternoonEnd:     14*60 + 15,
			PowerHourStart:   14*60 + 15,
			BlockEntriesFrom: 14*60 + 30,
			EarlyOpenMinutes: 10,
		}),
	)
}

func bullishContext() Context {
	return Context{
		Regime: regime.Regime{Trend: regime.TrendBullish, Permission: regime.PermissionCaution},
		Intraday: indicators.Snapshot{
			Price:      452,
			VWAP:       450,
			EMAFast:    451,
			EMASlow:    449,
			Return5:    1.5,
			MicroTrend: indicators.MicroUp,
		},
	}
}

func TestGenerate_FourOfFourIsHighCall(t *testing.T) {
	sig := testGenerator().Generate(bullishContext())
	assert.Equal(t, DirectionCall, sig.Direction)
	assert.Equal(t, ConfidenceHigh, sig.Confidence)
	assert.Contains(t, sig.Reason, "Bullish trend")
	assert.Contains(t, sig.Reason, "Positive 5-bar return")
}

func TestGenerate_ThreeOfFourIsMedium(t *testing.T) {
	ctx := bullishContext()
	ctx.Intraday.Return5 = -0.1 // kills one CALL condition, adds one PUT
	sig := testGenerator().Generate(ctx)
	assert.Equal(t, DirectionCall, sig.Direction)
	assert.Equal(t, ConfidenceMedium, sig.Confidence)
}

func TestGenerate_MixedIsNone(t *testing.T) {
	ctx := Context{
		Regime:   regime.Regime{Trend: regime.TrendMixed},
		Intraday: indicators.Snapshot{Price: 450, VWAP: 450, MicroTrend: indicators.MicroNeutral},
	}
	sig := testGenerator().Generate(ctx)
	assert.Equal(t, DirectionNone, sig.Direction)
	assert.Equal(t, ConfidenceLow, sig.Confidence)
	assert.Contains(t, sig.Reason, "Mixed signals")
}

func TestGenerate_CallWinsTies(t *testing.T) {
	// Two conditions on each side: CALL is evaluated first.
	ctx := Context{
		Regime: regime.Regime{Trend: regime.TrendBearish},
		Intraday: indicators.Snapshot{
			Price:      451,
			VWAP:       450, // price above VWAP: CALL
			Return5:    0.5, // positive: CALL
			MicroTrend: indicators.MicroDown, // PUT; bearish trend: PUT
		},
	}
	sig := testGenerator().Generate(ctx)
	assert.Equal(t, DirectionCall, sig.Direction)
	assert.Equal(t, ConfidenceLow, sig.Confidence)
}

func TestGenerate_ChopSuppressesDirection(t *testing.T) {
	// Flat 20-bar series: strong chop must null the directional signal.
	ctx := bullishContext()
	start := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	a := indicators.NewSessionAnalyzer(9, 21, 20)
	for i := 0; i < 20; i++ {
		a.Update(types.Bar{
			Timestamp: start.Add(time.Duration(i) * 5 * time.Minute),
			Open:      450, High: 450, Low: 450, Close: 450,
			Volume: 1000,
		})
	}
	ctx.Series = a.Series()

	sig := testGenerator().Generate(ctx)
	assert.Equal(t, DirectionNone, sig.Direction)
	assert.Contains(t, sig.Reason, "Chop detected")
}

func TestGenerate_TimeFilterBlocksLateEntries(t *testing.T) {
	ctx := bullishContext()
	late := time.Date(2025, 6, 2, 14, 45, 0, 0, time.UTC)
	ctx.Time = &late

	sig := testGenerator().Generate(ctx)
	assert.Equal(t, DirectionNone, sig.Direction)
	assert.Contains(t, sig.Reason, "late-day")
}

func TestGenerate_LunchDampensConfidence(t *testing.T) {
	ctx := bullishContext()
	lunch := time.Date(2025, 6, 2, 12, 15, 0, 0, time.UTC)
	ctx.Time = &lunch

	sig := testGenerator().Generate(ctx)
	assert.Equal(t, DirectionCall, sig.Direction)
	assert.Equal(t, ConfidenceLow, sig.Confidence) // HIGH x0.6 truncates to LOW
	assert.Contains(t, sig.Reason, "Lunch")
}

func TestGenerate_AvoidPermissionDropsConfidenceKeepsDirection(t *testing.T) {
	ctx := bullishContext()
	ctx.Regime.Permission = regime.PermissionAvoid

	sig := testGenerator().Generate(ctx)
	assert.Equal(t, DirectionCall, sig.Direction)
	assert.Equal(t, ConfidenceLow, sig.Confidence)
	assert.Contains(t, sig.Reason, "0DTE AVOID")
}

func TestGenerate_FavorableUpgradesMedium(t *testing.T) {
	ctx := bullishContext()
	ctx.Intraday.Return5 = -0.1 // down to 3/4: MEDIUM
	ctx.Regime.Permission = regime.PermissionFavorable

	sig := testGenerator().Generate(ctx)
	assert.Equal(t, ConfidenceHigh, sig.Confidence)
	assert.Contains(t, sig.Reason, "0DTE FAVORABLE")
}

func TestGenerate_ClosedPhaseForcesNone(t *testing.T) {
	ctx := bullishContext()
	phase := MarketPhase{Label: "Pre-Market", IsOpen: false}
	ctx.Phase = &phase

	sig := testGenerator().Generate(ctx)
	assert.Equal(t, DirectionNone, sig.Direction)
	assert.Contains(t, sig.Reason, "signals paused")
}

func TestGenerate_OptionsGate(t *testing.T) {
	vix := 20.0

	// HIGH confidence with a big move passes.
	ctx := bullishContext()
	ctx.OptionsMode = true
	ctx.IV = &IVContext{VIXLevel: &vix}
	sig := testGenerator().Generate(ctx)
	assert.Equal(t, DirectionCall, sig.Direction)
	assert.Equal(t, ConfidenceHigh, sig.Confidence)

	// MEDIUM confidence is rejected.
	ctx = bullishContext()
	ctx.OptionsMode = true
	ctx.Intraday.Return5 = -0.1
	sig = testGenerator().Generate(ctx)
	assert.Equal(t, DirectionNone, sig.Direction)
	assert.Contains(t, sig.Reason, "requires HIGH confidence")

	// Sub-1% 5-bar move is rejected.
	ctx = bullishContext()
	ctx.OptionsMode = true
	ctx.Intraday.Return5 = 0.4
	sig = testGenerator().Generate(ctx)
	assert.Equal(t, DirectionNone, sig.Direction)
	assert.Contains(t, sig.Reason, "1%+ move")

	// IV under the floor is rejected.
	lowIV := 10.0
	ctx = bullishContext()
	ctx.OptionsMode = true
	ctx.IV = &IVContext{VIXLevel: &lowIV}
	sig = testGenerator().Generate(ctx)
	assert.Equal(t, DirectionNone, sig.Direction)
	assert.Contains(t, sig.Reason, "IV too low")
}

func TestGenerate_MalformedContextDegradesSafely(t *testing.T) {
	// Zero-valued regime and intraday state must not panic and must fall
	// through to the safe default.
	sig := testGenerator().Generate(Context{})
	assert.Equal(t, DirectionNone, sig.Direction)
	assert.Equal(t, ConfidenceLow, sig.Confidence)
}

func TestPhaseAt(t *testing.T) {
	mk := func(h, m int) time.Time { return time.Date(2025, 6, 2, h, m, 0, 0, time.UTC) } // a Monday

	assert.Equal(t, "Pre-Market", PhaseAt(mk(9, 0)).Label)
	assert.Equal(t, "Open Drive", PhaseAt(mk(10, 0)).Label)
	assert.Equal(t, "Midday", PhaseAt(mk(12, 0)).Label)
	assert.Equal(t, "Afternoon Drift", PhaseAt(mk(14, 0)).Label)
	assert.Equal(t, "Power Hour", PhaseAt(mk(15, 0)).Label)
	assert.Equal(t, "After Hours", PhaseAt(mk(15, 45)).Label)
	assert.False(t, PhaseAt(time.Date(2025, 6, 7, 12, 0, 0, 0, time.UTC)).IsOpen) // Saturday
}
