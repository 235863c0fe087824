package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/quantex/zerodte-backtest/internal/backtest"
	"github.com/quantex/zerodte-backtest/internal/logger"
	"github.com/quantex/zerodte-backtest/pkg/config"
	"github.com/quantex/zerodte-backtest/pkg/data"
	"github.com/quantex/zerodte-backtest/pkg/reporting"
)

const (
	appName    = "0DTE Grid Backtest"
	appVersion = "1.2.0"
)

func main() {
	configFile := flag.String("config", "", "YAML config file (optional)")
	envFile := flag.String("env", ".env", "Environment file to load")
	intradayFile := flag.String("intraday", "", "Intraday 5-minute bars CSV (required)")
	dailyFile := flag.String("daily", "", "Daily bars CSV (required)")
	vixFile := flag.String("vix", "", "Volatility index CSV (optional)")
	sharesMode := flag.Bool("shares", false, "Trade shares instead of 0DTE options")
	tpList := flag.String("tp", "0.15,0.20,0.25,0.30", "Comma-separated take-profit fractions")
	slList := flag.String("sl", "0.30,0.40,0.50", "Comma-separated stop-loss fractions")
	workers := flag.Int("workers", 0, "Worker count (0 = one per CPU)")
	logLevel := flag.String("log-level", "warn", "Log level during the sweep")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s v%s\n", appName, appVersion)
		return
	}

	_ = godotenv.Load(*envFile)

	log, closer, err := logger.New(logger.Config{Level: *logLevel, Format: "console", Output: "stderr"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	if closer != nil {
		defer closer.Close()
	}

	var cfg *config.Config
	if *configFile != "" {
		cfg, err = config.Load(*configFile)
	} else {
		cfg, err = config.Default()
	}
	if err != nil {
		log.Fatal().Err(err).Msg("configuration error")
	}
	cfg.ApplyEnvOverrides()
	if *sharesMode {
		cfg.SharesMode = true
	}

	if *intradayFile == "" || *dailyFile == "" {
		log.Fatal().Msg("-intraday and -daily are required")
	}

	tps, err := parseFloats(*tpList)
	if err != nil {
		log.Fatal().Err(err).Msg("parse -tp")
	}
	sls, err := parseFloats(*slList)
	if err != nil {
		log.Fatal().Err(err).Msg("parse -sl")
	}

	provider := data.NewCSVBarProvider(log)
	intraday, err := provider.LoadBars(*intradayFile)
	if err != nil {
		log.Fatal().Err(err).Msg("load intraday bars")
	}
	daily, err := provider.LoadDaily(*dailyFile)
	if err != nil {
		log.Fatal().Err(err).Msg("load daily bars")
	}

	var vol data.VolatilityProvider
	if *vixFile != "" {
		vp, err := data.NewCSVVolatilityProvider(log, *vixFile)
		if err != nil {
			log.Fatal().Err(err).Msg("load volatility index")
		}
		vol = vp
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jobs := backtest.GridJobs(tps, sls)
	log.Info().Int("jobs", len(jobs)).Int("workers", *workers).Msg("starting parameter sweep")

	sweeper := backtest.NewSweeper(cfg, log, data.NewCalendar(), vol, *workers)
	results := sweeper.Run(ctx, jobs, daily, intraday)

	reporting.NewDefaultConsoleReporter().OutputSweep(results)
}

func parseFloats(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q: %w", p, err)
		}
		if v <= 0 {
			return nil, fmt.Errorf("value %q must be positive", p)
		}
		out = append(out, v)
	}
	return out, nil
}
