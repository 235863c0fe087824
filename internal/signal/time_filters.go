package signal

import (
	"fmt"
	"time"
)

// TimeFilterConfig holds the intraday windows, all as minutes since
// midnight except EarlyOpenMinutes.
type TimeFilterConfig struct {
	SessionStart     int // e.g. 9*60+45
	LunchStart       int
	LunchEnd         int
	AfternoonStart   int
	AfternoonEnd     int
	PowerHourStart   int
	BlockEntriesFrom int
	EarlyOpenMinutes int // dampen window after session start
}

// TimeFilter dampens or blocks signals by time of day: lunch chop and the
// first minutes after open reduce conviction, the late-day window blocks
// new entries outright, power hour boosts.
type TimeFilter struct {
	cfg TimeFilterConfig
}

// NewTimeFilter creates a filter for the configured windows.
func NewTimeFilter(cfg TimeFilterConfig) *TimeFilter {
	return &TimeFilter{cfg: cfg}
}

type timeAdjustment struct {
	allow      bool
	multiplier float64
	reason     string
}

func (f *TimeFilter) adjustmentAt(t time.Time) timeAdjustment {
	minutes := t.Hour()*60 + t.Minute()

	if minutes >= f.cfg.LunchStart && minutes < f.cfg.LunchEnd {
		return timeAdjustment{allow: true, multiplier: 0.6, reason: "Lunch chop window - reduced confidence"}
	}

	sinceOpen := minutes - f.cfg.SessionStart
	if sinceOpen >= 0 && sinceOpen <= f.cfg.EarlyOpenMinutes {
		return timeAdjustment{allow: true, multiplier: 0.5,
			reason: fmt.Sprintf("First %d min after open - reduced confidence", f.cfg.EarlyOpenMinutes)}
	}

	if minutes >= f.cfg.AfternoonStart && minutes < f.cfg.AfternoonEnd {
		return timeAdjustment{allow: true, multiplier: 0.8, reason: "Afternoon transition - reduced confidence"}
	}

	if minutes >= f.cfg.BlockEntriesFrom {
		return timeAdjustment{allow: false, reason: "Too close to market close - avoid late-day entries"}
	}

	if minutes >= f.cfg.PowerHourStart {
		return timeAdjustment{allow: true, multiplier: 1.2, reason: "Power hour - increased confidence"}
	}

	return timeAdjustment{allow: true, multiplier: 1.0, reason: ""}
}

// Apply transforms the signal for the given wall-clock time, appending
// the window's reason to the audit trail.
func (f *TimeFilter) Apply(sig Signal, t time.Time) Signal {
	adj := f.adjustmentAt(t)

	if !adj.allow {
		sig.appendReason(adj.reason)
		sig.Direction = DirectionNone
		sig.Confidence = ConfidenceLow
		return sig
	}

	original := sig.Confidence
	adjusted := int(float64(original) * adj.multiplier)
	if adjusted < int(ConfidenceLow) {
		adjusted = int(ConfidenceLow)
	}
	if adjusted > int(ConfidenceHigh) {
		adjusted = int(ConfidenceHigh)
	}
	sig.Confidence = Confidence(adjusted)

	// A heavy dampener on an already-LOW signal kills it entirely.
	if adj.multiplier < 0.6 && original == ConfidenceLow {
		sig.appendReason(adj.reason)
		sig.Direction = DirectionNone
		sig.Confidence = ConfidenceLow
		return sig
	}

	if adj.reason != "" {
		sig.appendReason(adj.reason)
	}
	return sig
}
