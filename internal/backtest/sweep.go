package backtest

import (
	"context"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantex/zerodte-backtest/internal/chop"
	"github.com/quantex/zerodte-backtest/internal/signal"
	"github.com/quantex/zerodte-backtest/pkg/config"
	"github.com/quantex/zerodte-backtest/pkg/data"
	"github.com/quantex/zerodte-backtest/pkg/types"
)

// SweepJob is one TP/SL combination to evaluate.
type SweepJob struct {
	ID            string
	TakeProfitPct float64
	StopLossPct   float64
}

// SweepResult pairs a job with its run outcome.
type SweepResult struct {
	Job      SweepJob
	Results  *Results
	Duration time.Duration
}

// Sweeper runs the same dataset through a grid of exit parameters on a
// worker pool, one engine per job so runs share nothing.
type Sweeper struct {
	base    *config.Config
	log     zerolog.Logger
	cal     *data.Calendar
	vol     data.VolatilityProvider
	workers int
}

// NewSweeper creates a sweeper. workers <= 0 uses one per CPU.
func NewSweeper(base *config.Config, log zerolog.Logger, cal *data.Calendar, vol data.VolatilityProvider, workers int) *Sweeper {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Sweeper{base: base, log: log, cal: cal, vol: vol, workers: workers}
}

// Run evaluates every job against the shared dataset. Results come back
// sorted by total PnL, best first. Cancelling the context stops the
// remaining jobs; completed results are still returned.
func (s *Sweeper) Run(ctx context.Context, jobs []SweepJob, daily []types.DailyBar, intraday []types.Bar) []SweepResult {
	jobCh := make(chan SweepJob)
	resCh := make(chan SweepResult, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				select {
				case <-ctx.Done():
					return
				default:
				}
				resCh <- s.runJob(job, daily, intraday)
			}
		}()
	}

	go func() {
		defer close(jobCh)
		for _, job := range jobs {
			select {
			case <-ctx.Done():
				return
			case jobCh <- job:
			}
		}
	}()

	wg.Wait()
	close(resCh)

	results := make([]SweepResult, 0, len(jobs))
	for r := range resCh {
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Results.Summary.TotalPnL > results[j].Results.Summary.TotalPnL
	})
	return results
}

func (s *Sweeper) runJob(job SweepJob, daily []types.DailyBar, intraday []types.Bar) SweepResult {
	start := time.Now()

	cfg := *s.base
	if cfg.OptionsEnabled() {
		cfg.Options.TakeProfitPct = job.TakeProfitPct
		cfg.Options.StopLossPct = job.StopLossPct
	} else {
		cfg.Shares.TakeProfitPct = job.TakeProfitPct
		cfg.Shares.StopLossPct = job.StopLossPct
	}

	engine := NewEngine(&cfg, s.log.With().Str("job", job.ID).Logger(), NewGenerator(&cfg), s.cal, s.vol)
	res := engine.Run(daily, intraday)

	return SweepResult{Job: job, Results: res, Duration: time.Since(start)}
}

// NewGenerator builds the production rule generator from a config.
func NewGenerator(cfg *config.Config) *signal.RuleGenerator {
	return signal.NewRuleGenerator(
		signal.Config{
			OptionsMinReturn5: cfg.Options.MinReturn5,
			OptionsMinIV:      cfg.Options.MinIV,
			LowIVThreshold:    cfg.Signal.LowIVThreshold,
			HighIVThreshold:   cfg.Signal.HighIVThreshold,
		},
		chop.NewDetector(chop.Config{
			LookbackBars:       cfg.Chop.LookbackBars,
			VWAPCrossThreshold: cfg.Chop.VWAPCrossThreshold,
			EMAFlatThreshold:   cfg.Chop.EMAFlatThreshold,
			ATRPeriod:          cfg.Chop.ATRPeriod,
			ATRThreshold:       cfg.Chop.ATRThreshold,
			VWAPRangeThreshold: cfg.Chop.VWAPRangeThreshold,
		}),
		signal.NewTimeFilter(signal.TimeFilterConfig{
			SessionStart:     config.MustClock(cfg.Session.Start),
			LunchStart:       config.MustClock(cfg.Session.LunchStart),
			LunchEnd:         config.MustClock(cfg.Session.LunchEnd),
			AfternoonStart:   config.MustClock(cfg.Session.AfternoonStart),
			AfternoonEnd:     config.MustClock(cfg.Session.AfternoonEnd),
			PowerHourStart:   config.MustClock(cfg.Session.PowerHourStart),
			BlockEntriesFrom: config.MustClock(cfg.Session.BlockEntriesFrom),
			EarlyOpenMinutes: cfg.Session.EarlyOpenMinutes,
		}),
	)
}

// GridJobs builds the cross product of TP and SL values.
func GridJobs(tps, sls []float64) []SweepJob {
	jobs := make([]SweepJob, 0, len(tps)*len(sls))
	for _, tp := range tps {
		for _, sl := range sls {
			jobs = append(jobs, SweepJob{
				ID:            jobID(tp, sl),
				TakeProfitPct: tp,
				StopLossPct:   sl,
			})
		}
	}
	return jobs
}

func jobID(tp, sl float64) string {
	return "tp" + trimFloat(tp) + "-sl" + trimFloat(sl)
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
