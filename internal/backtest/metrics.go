package backtest

import (
	"math"
	"time"
)

// timeBuckets partition the session for the by-window breakdown. A trade
// lands in the bucket of its entry time.
var timeBuckets = []struct {
	Name  string
	Start int // minutes since midnight, inclusive
	End   int // exclusive
}{
	{"Early Open", 9*60 + 45, 9*60 + 55},
	{"Morning Drive", 9*60 + 55, 10*60 + 30},
	{"Mid-Morning Trend", 10*60 + 30, 11*60 + 45},
	{"Lunch Chop", 11*60 + 45, 13*60 + 30},
	{"Afternoon Wake-up", 13*60 + 30, 14*60 + 15},
	{"Breakout Window", 14*60 + 15, 14*60 + 30},
	{"Late Day", 14*60 + 30, 24 * 60},
}

// TimeBucketFor names the session window a timestamp falls in.
func TimeBucketFor(t time.Time) string {
	m := t.Hour()*60 + t.Minute()
	for _, b := range timeBuckets {
		if m >= b.Start && m < b.End {
			return b.Name
		}
	}
	return "Pre-Session"
}

// rMultiple is pnl over risked capital, zero when the ratio would be
// meaningless.
func rMultiple(pnl, risk float64) float64 {
	if risk <= 0 {
		return 0
	}
	r := pnl / risk
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

// Summarize computes the aggregate statistics for a finished run.
func Summarize(res *Results) Summary {
	s := Summary{
		ByExitReason: make(map[ExitReason]int),
	}

	var grossWin, grossLoss, sumR float64
	for _, t := range res.Trades {
		s.TotalTrades++
		s.TotalPnL += t.PnL
		s.TotalCommission += t.Commission
		sumR += t.RMultiple
		s.ByExitReason[t.ExitReason]++

		if t.PnL > 0 {
			s.WinningTrades++
			grossWin += t.PnL
		} else {
			s.LosingTrades++
			grossLoss += -t.PnL
		}
	}

	if s.TotalTrades > 0 {
		s.WinRate = float64(s.WinningTrades) / float64(s.TotalTrades)
		s.AvgRMultiple = sumR / float64(s.TotalTrades)
	}
	if s.WinningTrades > 0 {
		s.AvgWin = grossWin / float64(s.WinningTrades)
	}
	if s.LosingTrades > 0 {
		s.AvgLoss = -grossLoss / float64(s.LosingTrades)
	}
	if grossLoss > 0 {
		s.ProfitFactor = grossWin / grossLoss
	}

	if res.InitialCapital > 0 {
		s.TotalReturnPct = (res.FinalEquity - res.InitialCapital) / res.InitialCapital * 100
	}

	s.MaxDrawdown, s.MaxDrawdownPct = maxDrawdown(res.InitialCapital, res.EquityCurve)
	s.ByTimeBucket = bucketStats(res.Trades)

	return s
}

// maxDrawdown walks the equity curve and returns the largest
// peak-to-trough drop in dollars and as a fraction of the peak.
func maxDrawdown(initial float64, curve []EquityPoint) (float64, float64) {
	peak := initial
	var mdd, mddPct float64
	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
			continue
		}
		dd := peak - p.Equity
		if dd > mdd {
			mdd = dd
			if peak > 0 {
				mddPct = dd / peak
			}
		}
	}
	return mdd, mddPct
}

func bucketStats(trades []Trade) []TimeBucketStat {
	index := make(map[string]*TimeBucketStat, len(timeBuckets))
	ordered := make([]*TimeBucketStat, 0, len(timeBuckets))
	for _, b := range timeBuckets {
		st := &TimeBucketStat{Name: b.Name}
		index[b.Name] = st
		ordered = append(ordered, st)
	}

	for _, t := range trades {
		st, ok := index[t.TimeBucket]
		if !ok {
			continue
		}
		st.Trades++
		st.PnL += t.PnL
		if t.PnL > 0 {
			st.Wins++
		}
	}

	out := make([]TimeBucketStat, 0, len(ordered))
	for _, st := range ordered {
		if st.Trades == 0 {
			continue
		}
		st.WinRate = float64(st.Wins) / float64(st.Trades)
		out = append(out, *st)
	}
	return out
}
