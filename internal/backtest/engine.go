package backtest

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/quantex/zerodte-backtest/internal/indicators"
	"github.com/quantex/zerodte-backtest/internal/options"
	"github.com/quantex/zerodte-backtest/internal/regime"
	"github.com/quantex/zerodte-backtest/internal/signal"
	"github.com/quantex/zerodte-backtest/pkg/config"
	"github.com/quantex/zerodte-backtest/pkg/data"
	"github.com/quantex/zerodte-backtest/pkg/types"
)

// Engine replays intraday history day by day, generating signals and
// simulating entries and exits with the execution-cost model. A run
// never fails: days with unusable data are skipped and logged.
type Engine struct {
	cfg        *config.Config
	log        zerolog.Logger
	generator  signal.Generator
	classifier *regime.Classifier
	calendar   *data.Calendar
	vol        data.VolatilityProvider

	// OnDayProcessed, when set, is called after each session with
	// (done, total) for progress reporting.
	OnDayProcessed func(done, total int)
}

// NewEngine wires an engine from its collaborators. A nil vol provider
// means the volatility index is unknown every day.
func NewEngine(cfg *config.Config, log zerolog.Logger, gen signal.Generator, cal *data.Calendar, vol data.VolatilityProvider) *Engine {
	if cal == nil {
		cal = data.NewCalendar()
	}
	return &Engine{
		cfg:       cfg,
		log:       log,
		generator: gen,
		classifier: regime.NewClassifier(regime.Config{
			Symbol:             cfg.Symbol,
			MAShortPeriod:      cfg.Regime.MAShortPeriod,
			MALongPeriod:       cfg.Regime.MALongPeriod,
			GapSmallThreshold:  cfg.Regime.GapSmallThreshold,
			RangeLowThreshold:  cfg.Regime.RangeLowThreshold,
			RangeHighThreshold: cfg.Regime.RangeHighThreshold,
			VIXHardDeck:        cfg.Regime.VIXHardDeck,
		}),
		calendar: cal,
		vol:      vol,
	}
}

// dayState is the per-session mutable state of the replay.
type dayState struct {
	pos           *Position
	holdBars      int
	lastProcessed types.Bar
	processedAny  bool

	cooldownUntil time.Time
	cooldownDir   signal.Direction

	trades int
	pnl    float64
}

// Run replays the sessions found in the intraday history. Daily bars
// provide the regime context and must predate the sessions they inform.
func (e *Engine) Run(daily []types.DailyBar, intraday []types.Bar) *Results {
	res := &Results{
		Symbol:         e.cfg.Symbol,
		OptionsMode:    e.cfg.OptionsEnabled(),
		InitialCapital: e.cfg.InitialCapital,
		FinalEquity:    e.cfg.InitialCapital,
	}

	days := data.SplitByDay(intraday)
	equity := e.cfg.InitialCapital

	sessionStart := config.MustClock(e.cfg.Session.Start)
	sessionEnd := config.MustClock(e.cfg.Session.End)
	blockFrom := config.MustClock(e.cfg.Session.BlockEntriesFrom)

	e.countMissingDays(res, days)

	var seedFast, seedSlow *float64

	for di, dayBars := range days {
		date := dayBars[0].Timestamp

		if !e.calendar.IsTradingDay(date) {
			res.Diagnostics.DaysSkipped++
			e.log.Warn().Str("date", date.Format("2006-01-02")).Msg("bars on a non-trading day, skipping")
			continue
		}

		closeMin := e.calendar.CloseMinutes(date)
		closeH, closeMm := e.calendar.CloseClock(date)

		// Forced exits fire at the session end, which shifts with the
		// close on early-close days.
		endMin := closeMin - (16*60 - sessionEnd)

		var vix *float64
		if e.vol != nil {
			if v, ok := e.vol.Level(date); ok {
				vix = &v
			}
		}

		hist := data.DailyBefore(daily, date)
		rg := e.classifier.Classify(hist, daySnapshot(hist, dayBars), vix)

		analyzer := indicators.NewSessionAnalyzer(
			e.cfg.Indicators.EMAFastPeriod,
			e.cfg.Indicators.EMASlowPeriod,
			e.cfg.Indicators.VolLookback,
		)
		if seedFast != nil && seedSlow != nil {
			analyzer.SeedEMAs(*seedFast, *seedSlow)
		}

		st := &dayState{}

		for _, bar := range dayBars {
			m := bar.Timestamp.Hour()*60 + bar.Timestamp.Minute()
			if m >= closeMin {
				continue
			}

			res.Diagnostics.BarsProcessed++
			snap := analyzer.Update(bar)
			st.lastProcessed = bar
			st.processedAny = true

			if st.pos != nil {
				st.holdBars++
				if e.tryExit(res, st, bar, equity, closeH, closeMm, endMin) {
					equity = res.EquityCurve[len(res.EquityCurve)-1].Equity
					continue
				}
			}

			if st.pos != nil || m < sessionStart || m >= blockFrom {
				continue
			}

			e.tryEnter(res, st, rg, snap, analyzer, bar, vix, closeH, closeMm)
		}

		// Positions never survive the session: force-close at the last
		// processed bar.
		truncated := false
		if st.pos != nil && st.processedAny {
			if st.lastProcessed.Timestamp.Hour()*60+st.lastProcessed.Timestamp.Minute() < closeMin-10 {
				truncated = true
				res.Diagnostics.TruncatedDays++
				e.log.Warn().Str("date", date.Format("2006-01-02")).
					Time("last_bar", st.lastProcessed.Timestamp).
					Msg("data ends before the close, EOD exit at last bar")
			}
			exitPrice := e.exitValue(st.pos, st.lastProcessed, closeH, closeMm)
			e.closeTrade(res, st, st.lastProcessed.Timestamp, exitPrice, st.lastProcessed.Close, ExitEndOfDay, equity)
			equity = res.EquityCurve[len(res.EquityCurve)-1].Equity
		}

		if st.processedAny {
			f, s := analyzer.FinalEMAs()
			seedFast, seedSlow = &f, &s
		}

		res.Days = append(res.Days, DayOutcome{
			Date:      date,
			Regime:    rg,
			VIX:       vix,
			Trades:    st.trades,
			PnL:       st.pnl,
			Truncated: truncated,
		})

		if e.OnDayProcessed != nil {
			e.OnDayProcessed(di+1, len(days))
		}
	}

	res.FinalEquity = equity
	res.Summary = Summarize(res)

	e.log.Info().
		Int("days", len(res.Days)).
		Int("trades", res.Summary.TotalTrades).
		Float64("final_equity", res.FinalEquity).
		Msg("backtest complete")

	return res
}

// tryEnter evaluates the signal pipeline for one bar and opens a
// position when everything clears. Every rejection bumps a diagnostic.
func (e *Engine) tryEnter(res *Results, st *dayState, rg regime.Regime, snap indicators.Snapshot,
	analyzer *indicators.SessionAnalyzer, bar types.Bar, vix *float64, closeH, closeM int) {

	res.Diagnostics.SignalsChecked++

	ts := bar.Timestamp
	phase := signal.PhaseAt(ts)
	ivCtx := signal.IVContext{VIXLevel: vix}
	sig := e.generator.Generate(signal.Context{
		Regime:      rg,
		Intraday:    snap,
		Time:        &ts,
		Series:      analyzer.Series(),
		IV:          &ivCtx,
		Phase:       &phase,
		OptionsMode: e.cfg.OptionsEnabled(),
	})

	if sig.Direction == signal.DirectionNone {
		return
	}
	res.Diagnostics.DirectionalBars++

	if sig.Confidence < signal.ConfidenceMedium {
		res.Diagnostics.BlockedLowConf++
		return
	}

	if sig.Direction == st.cooldownDir && ts.Before(st.cooldownUntil) {
		res.Diagnostics.BlockedCooldown++
		e.log.Debug().Time("bar", ts).Str("direction", sig.Direction.String()).
			Msg("entry blocked by stop-loss cooldown")
		return
	}

	if e.cfg.OptionsEnabled() {
		e.enterOption(res, st, sig, rg.Permission, bar, snap, vix, closeH, closeM)
	} else {
		e.enterShares(res, st, sig, rg.Permission, bar)
	}
}

func (e *Engine) enterOption(res *Results, st *dayState, sig signal.Signal, perm regime.Permission,
	bar types.Bar, snap indicators.Snapshot, vix *float64, closeH, closeM int) {

	price := bar.Close
	optType := optionTypeFor(sig.Direction)

	// Sigma comes from the volatility index, with realized vol as the
	// fallback when the index is unknown for the day.
	var sigma float64
	switch {
	case vix != nil && *vix > 0:
		sigma = *vix / 100
	case snap.RealizedVol > 0:
		sigma = snap.RealizedVol / 100
	default:
		res.Diagnostics.BlockedNoVol++
		return
	}

	strike := options.ATMStrike(price, optType, e.cfg.Options.StrikeSpacing)
	t := options.TimeToExpiryUntil(bar.Timestamp.Hour(), bar.Timestamp.Minute(), closeH, closeM)
	mid := options.Price(price, strike, t, e.cfg.Options.RiskFreeRate, sigma, optType)

	bid, ask := SynthSpread(mid)
	if SpreadPct(bid, ask) > e.cfg.Options.MaxSpreadPct {
		res.Diagnostics.BlockedSpread++
		e.log.Debug().Time("bar", bar.Timestamp).Float64("mid", mid).
			Msg("entry blocked by spread filter")
		return
	}

	fill := EntryFill(ask, e.cfg.Options.SlippagePct)
	if fill <= 0 {
		res.Diagnostics.BlockedSpread++
		return
	}

	st.pos = &Position{
		Direction:       sig.Direction,
		Confidence:      sig.Confidence,
		Permission:      perm,
		Reason:          sig.Reason,
		EntryTime:       bar.Timestamp,
		EntryPrice:      fill,
		UnderlyingEntry: price,
		Strike:          strike,
		Contracts:       e.cfg.Options.Contracts,
		EntryIV:         sigma * 100,
		EntryGreeks:     options.AllGreeks(price, strike, t, e.cfg.Options.RiskFreeRate, sigma, optType),
		TakeProfitAt:    fill * (1 + e.cfg.Options.TakeProfitPct),
		StopLossAt:      fill * (1 - e.cfg.Options.StopLossPct),
	}
	st.holdBars = 0
	res.Diagnostics.EntriesOpened++

	e.log.Debug().Time("bar", bar.Timestamp).Str("direction", sig.Direction.String()).
		Float64("strike", strike).Float64("premium", fill).Msg("opened option position")
}

func (e *Engine) enterShares(res *Results, st *dayState, sig signal.Signal, perm regime.Permission, bar types.Bar) {
	price := bar.Close
	tp, sl := e.cfg.Shares.TakeProfitPct, e.cfg.Shares.StopLossPct

	pos := &Position{
		Direction:       sig.Direction,
		Confidence:      sig.Confidence,
		Permission:      perm,
		Reason:          sig.Reason,
		EntryTime:       bar.Timestamp,
		EntryPrice:      price,
		UnderlyingEntry: price,
		Shares:          e.cfg.Shares.PositionSize,
	}
	if sig.Direction == signal.DirectionCall {
		pos.TakeProfitAt = price * (1 + tp)
		pos.StopLossAt = price * (1 - sl)
	} else {
		pos.TakeProfitAt = price * (1 - tp)
		pos.StopLossAt = price * (1 + sl)
	}

	st.pos = pos
	st.holdBars = 0
	res.Diagnostics.EntriesOpened++

	e.log.Debug().Time("bar", bar.Timestamp).Str("direction", sig.Direction.String()).
		Float64("price", price).Msg("opened share position")
}

// tryExit checks take-profit, then stop-loss, then the session-end clock
// on the bar close. Returns true when the position closed.
func (e *Engine) tryExit(res *Results, st *dayState, bar types.Bar, equity float64, closeH, closeM, endMin int) bool {
	pos := st.pos
	value := e.exitValue(pos, bar, closeH, closeM)
	barMin := bar.Timestamp.Hour()*60 + bar.Timestamp.Minute()

	var reason ExitReason
	if e.cfg.OptionsEnabled() {
		switch {
		case value >= pos.TakeProfitAt:
			reason = ExitTakeProfit
		case value <= pos.StopLossAt:
			reason = ExitStopLoss
		case barMin >= endMin:
			reason = ExitEndOfDay
		default:
			return false
		}
	} else {
		favorable := pos.Direction == signal.DirectionCall && value >= pos.TakeProfitAt ||
			pos.Direction == signal.DirectionPut && value <= pos.TakeProfitAt
		adverse := pos.Direction == signal.DirectionCall && value <= pos.StopLossAt ||
			pos.Direction == signal.DirectionPut && value >= pos.StopLossAt
		switch {
		case favorable:
			reason = ExitTakeProfit
		case adverse:
			reason = ExitStopLoss
		case barMin >= endMin:
			reason = ExitEndOfDay
		default:
			return false
		}
	}

	e.closeTrade(res, st, bar.Timestamp, value, bar.Close, reason, equity)
	return true
}

// exitValue is the position's current exit price: the slippage-adjusted
// model mid for options, the bar close for shares.
func (e *Engine) exitValue(pos *Position, bar types.Bar, closeH, closeM int) float64 {
	if !e.cfg.OptionsEnabled() {
		return bar.Close
	}
	t := options.TimeToExpiryUntil(bar.Timestamp.Hour(), bar.Timestamp.Minute(), closeH, closeM)
	mid := options.Price(bar.Close, pos.Strike, t, e.cfg.Options.RiskFreeRate, pos.EntryIV/100,
		optionTypeFor(pos.Direction))
	return ExitFill(mid, e.cfg.Options.SlippagePct)
}

func (e *Engine) closeTrade(res *Results, st *dayState, ts time.Time, exitPrice, underlying float64,
	reason ExitReason, equity float64) {

	pos := st.pos
	st.pos = nil

	// Commission is per contract per trade; shares mode trades free.
	var pnl, commission, risk float64
	if e.cfg.OptionsEnabled() {
		commission = e.cfg.Commission * float64(pos.Contracts)
		pnl = options.ContractPnL(pos.EntryPrice, exitPrice, pos.Contracts) - commission
		risk = pos.EntryPrice * 100 * float64(pos.Contracts)
	} else {
		diff := exitPrice - pos.EntryPrice
		if pos.Direction == signal.DirectionPut {
			diff = -diff
		}
		pnl = diff * float64(pos.Shares)
		risk = pos.EntryPrice * e.cfg.Shares.StopLossPct * float64(pos.Shares)
	}

	trade := Trade{
		Position:       *pos,
		ExitTime:       ts,
		ExitPrice:      exitPrice,
		UnderlyingExit: underlying,
		ExitReason:     reason,
		PnL:            pnl,
		Commission:     commission,
		RMultiple:      rMultiple(pnl, risk),
		HoldBars:       st.holdBars,
		TimeBucket:     TimeBucketFor(pos.EntryTime),
	}

	res.Trades = append(res.Trades, trade)
	res.EquityCurve = append(res.EquityCurve, EquityPoint{Time: ts, Equity: equity + pnl})
	st.trades++
	st.pnl += pnl

	if reason == ExitStopLoss {
		st.cooldownUntil = ts.Add(time.Duration(e.cfg.CooldownMinutes) * time.Minute)
		st.cooldownDir = pos.Direction
	}

	e.log.Debug().Time("bar", ts).Str("reason", string(reason)).
		Float64("pnl", pnl).Msg("closed position")
}

// countMissingDays counts trading days inside the data range that have no
// intraday bars at all. Missing days are skipped, never fatal.
func (e *Engine) countMissingDays(res *Results, days [][]types.Bar) {
	if len(days) < 2 {
		return
	}

	present := make(map[string]bool, len(days))
	for _, dayBars := range days {
		present[dayBars[0].Timestamp.Format("2006-01-02")] = true
	}

	first := days[0][0].Timestamp.Truncate(24 * time.Hour)
	last := days[len(days)-1][0].Timestamp.Truncate(24 * time.Hour)
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		if !e.calendar.IsTradingDay(d) {
			continue
		}
		if key := d.Format("2006-01-02"); !present[key] {
			res.Diagnostics.DaysSkipped++
			e.log.Warn().Str("date", key).Msg("no intraday data for trading day, skipping")
		}
	}
}

func optionTypeFor(d signal.Direction) options.OptionType {
	if d == signal.DirectionPut {
		return options.Put
	}
	return options.Call
}

// daySnapshot builds the regime inputs from the prior daily history and
// the session's own bars.
func daySnapshot(hist []types.DailyBar, bars []types.Bar) types.DaySnapshot {
	snap := types.DaySnapshot{
		TodayOpen:  bars[0].Open,
		TodayHigh:  bars[0].High,
		TodayLow:   bars[0].Low,
		TodayClose: bars[len(bars)-1].Close,
	}
	for _, b := range bars[1:] {
		if b.High > snap.TodayHigh {
			snap.TodayHigh = b.High
		}
		if b.Low < snap.TodayLow {
			snap.TodayLow = b.Low
		}
	}
	if len(hist) > 0 {
		snap.YesterdayClose = hist[len(hist)-1].Close
	}
	return snap
}
