package signal

import (
	"fmt"
	"math"
	"strings"

	"github.com/quantex/zerodte-backtest/internal/chop"
	"github.com/quantex/zerodte-backtest/internal/indicators"
	"github.com/quantex/zerodte-backtest/internal/regime"
)

// Config holds the generator thresholds beyond the component configs.
type Config struct {
	OptionsMinReturn5 float64 // percent, options-mode minimum 5-bar move
	OptionsMinIV      float64 // percent, options-mode IV floor
	LowIVThreshold    float64 // percent, below which MEDIUM dampens
	HighIVThreshold   float64 // percent, above which MEDIUM upgrades
}

// RuleGenerator is the production signal source: four-condition scoring
// per side, then chop, time-of-day, environment and options-mode filters
// applied in that order. Every filter appends to the reason trail.
type RuleGenerator struct {
	cfg        Config
	chop       *chop.Detector
	timeFilter *TimeFilter
}

// NewRuleGenerator wires the generator with its chop detector and time
// filter collaborators.
func NewRuleGenerator(cfg Config, chopDetector *chop.Detector, timeFilter *TimeFilter) *RuleGenerator {
	return &RuleGenerator{cfg: cfg, chop: chopDetector, timeFilter: timeFilter}
}

// Generate produces the signal for one bar. It never fails: missing
// optional context simply skips the corresponding filter, and inputs that
// make no sense fall through to the NONE/LOW default.
func (g *RuleGenerator) Generate(ctx Context) Signal {
	sig := g.score(ctx.Regime, ctx.Intraday)

	if g.chop != nil && ctx.Series != nil {
		sig = applyChopFilter(sig, g.chop.Detect(ctx.Series))
	}

	if g.timeFilter != nil && ctx.Time != nil {
		sig = g.timeFilter.Apply(sig, *ctx.Time)
	}

	sig = g.applyEnvironmentFilters(sig, ctx.Regime, ctx.IV, ctx.Phase)

	if ctx.OptionsMode {
		sig = g.applyOptionsGate(sig, ctx.Intraday, ctx.IV)
	}

	return sig
}

// score evaluates the four CALL conditions and the four mirrored PUT
// conditions. CALL is checked first in every branch, so CALL wins ties.
func (g *RuleGenerator) score(r regime.Regime, in indicators.Snapshot) Signal {
	var callReasons, putReasons []string

	if r.Trend == regime.TrendBullish {
		callReasons = append(callReasons, "Bullish trend")
	}
	if in.MicroTrend == indicators.MicroUp {
		callReasons = append(callReasons, "Micro trend up")
	}
	if in.Price > in.VWAP {
		callReasons = append(callReasons, "Price above VWAP")
	}
	if in.Return5 > 0 {
		callReasons = append(callReasons, "Positive 5-bar return")
	}

	if r.Trend == regime.TrendBearish {
		putReasons = append(putReasons, "Bearish trend")
	}
	if in.MicroTrend == indicators.MicroDown {
		putReasons = append(putReasons, "Micro trend down")
	}
	if in.Price < in.VWAP {
		putReasons = append(putReasons, "Price below VWAP")
	}
	if in.Return5 < 0 {
		putReasons = append(putReasons, "Negative 5-bar return")
	}

	callScore, putScore := len(callReasons), len(putReasons)

	switch {
	case callScore >= 3:
		conf := ConfidenceMedium
		if callScore == 4 {
			conf = ConfidenceHigh
		}
		return Signal{Direction: DirectionCall, Confidence: conf, Reason: strings.Join(callReasons, "; ")}
	case putScore >= 3:
		conf := ConfidenceMedium
		if putScore == 4 {
			conf = ConfidenceHigh
		}
		return Signal{Direction: DirectionPut, Confidence: conf, Reason: strings.Join(putReasons, "; ")}
	case callScore >= 2:
		return Signal{Direction: DirectionCall, Confidence: ConfidenceLow, Reason: strings.Join(callReasons, "; ")}
	case putScore >= 2:
		return Signal{Direction: DirectionPut, Confidence: ConfidenceLow, Reason: strings.Join(putReasons, "; ")}
	default:
		return Signal{Direction: DirectionNone, Confidence: ConfidenceLow, Reason: "Mixed signals - no clear bias"}
	}
}

// applyChopFilter downgrades directional signals in ranging conditions:
// score >= 3 nulls the direction, score 2 drops confidence to LOW.
func applyChopFilter(sig Signal, res chop.Result) Signal {
	if !res.IsChop || sig.Direction == DirectionNone {
		return sig
	}

	detail := fmt.Sprintf("Chop detected (%s)", strings.Join(res.Reasons, ", "))

	if res.Score >= 3 {
		sig.appendReason(detail)
		sig.Direction = DirectionNone
		sig.Confidence = ConfidenceLow
		return sig
	}

	sig.appendReason(detail)
	sig.Confidence = ConfidenceLow
	return sig
}

// applyEnvironmentFilters adjusts for permission state, market phase and
// the volatility environment.
func (g *RuleGenerator) applyEnvironmentFilters(sig Signal, r regime.Regime, iv *IVContext, phase *MarketPhase) Signal {
	if r.Permission == regime.PermissionAvoid && sig.Direction != DirectionNone {
		sig.appendReason("0DTE AVOID (choppy)")
		sig.Confidence = ConfidenceLow
		return sig
	}
	if r.Permission == regime.PermissionFavorable && sig.Confidence == ConfidenceMedium {
		sig.Confidence = ConfidenceHigh
		sig.appendReason("0DTE FAVORABLE (volatile)")
	}

	if phase != nil && !phase.IsOpen && sig.Direction != DirectionNone {
		sig.appendReason(fmt.Sprintf("Session %s - signals paused", phase.Label))
		sig.Direction = DirectionNone
		sig.Confidence = ConfidenceLow
		return sig
	}

	if iv != nil && iv.ATMIV != nil && iv.VIXLevel != nil {
		switch {
		case *iv.ATMIV < g.cfg.LowIVThreshold && *iv.VIXLevel < g.cfg.LowIVThreshold && sig.Confidence == ConfidenceMedium:
			sig.Confidence = ConfidenceLow
			sig.appendReason("Low IV (calm)")
		case *iv.ATMIV > g.cfg.HighIVThreshold || *iv.VIXLevel > g.cfg.HighIVThreshold:
			if sig.Confidence == ConfidenceMedium {
				sig.Confidence = ConfidenceHigh
			}
			sig.appendReason("High IV (elevated volatility)")
		}
	}

	return sig
}

// applyOptionsGate enforces the stricter options-mode bar: HIGH
// confidence, a real 5-bar move, and an IV floor. Any violation collapses
// the signal with a specific reason.
func (g *RuleGenerator) applyOptionsGate(sig Signal, in indicators.Snapshot, iv *IVContext) Signal {
	if sig.Confidence != ConfidenceHigh {
		sig.appendReason(fmt.Sprintf("Options mode: requires HIGH confidence (current: %s)", sig.Confidence))
		sig.Direction = DirectionNone
		sig.Confidence = ConfidenceLow
		return sig
	}

	if math.Abs(in.Return5) < g.cfg.OptionsMinReturn5 {
		sig.appendReason(fmt.Sprintf("Options mode: requires %.0f%%+ move (current: %.2f%%)", g.cfg.OptionsMinReturn5, in.Return5))
		sig.Direction = DirectionNone
		sig.Confidence = ConfidenceLow
		return sig
	}

	if iv != nil {
		level := iv.ATMIV
		if level == nil {
			level = iv.VIXLevel
		}
		if level != nil && *level < g.cfg.OptionsMinIV {
			sig.appendReason(fmt.Sprintf("Options mode: IV too low (%.1f%% < %.0f%%)", *level, g.cfg.OptionsMinIV))
			sig.Direction = DirectionNone
			sig.Confidence = ConfidenceLow
			return sig
		}
	}

	return sig
}
