package signal

import (
	"time"

	"github.com/quantex/zerodte-backtest/internal/indicators"
	"github.com/quantex/zerodte-backtest/internal/regime"
)

// Direction is the directional bias of a signal.
type Direction int

const (
	DirectionNone Direction = iota
	DirectionCall
	DirectionPut
)

func (d Direction) String() string {
	switch d {
	case DirectionCall:
		return "CALL"
	case DirectionPut:
		return "PUT"
	default:
		return "NONE"
	}
}

// Confidence is the three-level signal conviction. The numeric values are
// used by the time filter's dampening/boost arithmetic.
type Confidence int

const (
	ConfidenceLow    Confidence = 1
	ConfidenceMedium Confidence = 2
	ConfidenceHigh   Confidence = 3
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceHigh:
		return "HIGH"
	case ConfidenceMedium:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

// Signal is the per-bar trading decision. Reason is an append-only audit
// trail of every rule that fired or suppressed.
type Signal struct {
	Direction  Direction
	Confidence Confidence
	Reason     string
}

func (s *Signal) appendReason(r string) {
	if s.Reason == "" {
		s.Reason = r
		return
	}
	s.Reason += "; " + r
}

// IVContext carries the optional volatility environment: ATM implied vol
// and the volatility-index level, both in percent, nil when unavailable.
type IVContext struct {
	ATMIV    *float64
	VIXLevel *float64
}

// MarketPhase labels the part of the trading day a timestamp falls in.
type MarketPhase struct {
	Label  string
	IsOpen bool
}

// PhaseAt classifies a timestamp into the session phases used by the
// environment filter and the time-bucket report.
func PhaseAt(t time.Time) MarketPhase {
	if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return MarketPhase{Label: "Weekend", IsOpen: false}
	}

	minutes := t.Hour()*60 + t.Minute()
	switch {
	case minutes < 9*60+30:
		return MarketPhase{Label: "Pre-Market", IsOpen: false}
	case minutes < 11*60:
		return MarketPhase{Label: "Open Drive", IsOpen: true}
	case minutes < 13*60+30:
		return MarketPhase{Label: "Midday", IsOpen: true}
	case minutes < 14*60+30:
		return MarketPhase{Label: "Afternoon Drift", IsOpen: true}
	case minutes < 15*60+30:
		return MarketPhase{Label: "Power Hour", IsOpen: true}
	default:
		return MarketPhase{Label: "After Hours", IsOpen: false}
	}
}

// Context bundles everything a generator may consult for one bar. Only
// Regime and Intraday are required; the rest degrade gracefully when nil.
type Context struct {
	Regime   regime.Regime
	Intraday indicators.Snapshot

	Time        *time.Time
	Series      *indicators.Series
	IV          *IVContext
	Phase       *MarketPhase
	OptionsMode bool
}

// Generator is the strategy seam the backtest engine accepts, so tests
// can substitute scripted signal sources without touching shared state.
type Generator interface {
	Generate(ctx Context) Signal
}
