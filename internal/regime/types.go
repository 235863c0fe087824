package regime

// Trend is the daily-scale directional classification.
type Trend int

const (
	TrendMixed Trend = iota
	TrendBullish
	TrendBearish
	TrendNeutral
)

func (t Trend) String() string {
	switch t {
	case TrendBullish:
		return "Bullish"
	case TrendBearish:
		return "Bearish"
	case TrendNeutral:
		return "Neutral"
	default:
		return "Mixed"
	}
}

// RangeClass buckets today's high-low range.
type RangeClass int

const (
	RangeNormal RangeClass = iota
	RangeLow
	RangeHigh
)

func (r RangeClass) String() string {
	switch r {
	case RangeLow:
		return "Low"
	case RangeHigh:
		return "High"
	default:
		return "Normal"
	}
}

// Permission is the volatility-gated 0DTE permission state.
type Permission int

const (
	PermissionCaution Permission = iota
	PermissionAvoid
	PermissionFavorable
)

func (p Permission) String() string {
	switch p {
	case PermissionAvoid:
		return "AVOID"
	case PermissionFavorable:
		return "FAVORABLE"
	default:
		return "CAUTION"
	}
}

// Regime is the per-session daily classification consumed by the signal
// generator and recorded on every trade.
type Regime struct {
	Trend            Trend
	TrendDescription string
	MAShort          float64
	MALong           float64
	LatestClose      float64

	Gap      float64
	GapPct   float64
	Range    float64
	RangePct float64

	RangeClass       RangeClass
	Permission       Permission
	PermissionReason string
	PermissionScore  float64
}
