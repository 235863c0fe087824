package indicators

import "github.com/quantex/zerodte-backtest/pkg/types"

// VWAP accumulates the volume-weighted average of the typical price from
// session open. It must be reset at every session boundary; the session
// analyzer owns one per session, which is what keeps session N's VWAP
// independent of session N-1.
type VWAP struct {
	cumPV  float64
	cumVol float64
}

// NewVWAP creates an empty accumulator.
func NewVWAP() *VWAP {
	return &VWAP{}
}

// Update folds the bar in and returns the running VWAP.
func (v *VWAP) Update(bar types.Bar) float64 {
	v.cumPV += bar.TypicalPrice() * bar.Volume
	v.cumVol += bar.Volume
	return v.Value()
}

// Value returns the current VWAP, or 0 before any volume has traded.
func (v *VWAP) Value() float64 {
	if v.cumVol == 0 {
		return 0
	}
	return v.cumPV / v.cumVol
}

// ResetState clears the accumulator for a new session.
func (v *VWAP) ResetState() {
	v.cumPV = 0
	v.cumVol = 0
}
