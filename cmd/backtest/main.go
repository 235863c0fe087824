package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/quantex/zerodte-backtest/internal/backtest"
	"github.com/quantex/zerodte-backtest/internal/logger"
	"github.com/quantex/zerodte-backtest/pkg/config"
	"github.com/quantex/zerodte-backtest/pkg/data"
	"github.com/quantex/zerodte-backtest/pkg/reporting"
)

const (
	appName    = "0DTE Signal Backtest"
	appVersion = "1.2.0"
)

func main() {
	flags := NewFlags()
	flag.Parse()

	if *flags.ShowVersion {
		fmt.Printf("%s v%s\n", appName, appVersion)
		return
	}

	// .env is optional; flags and real env vars win over it.
	_ = godotenv.Load(*flags.EnvFile)

	log, closer, err := logger.New(logger.Config{
		Level:  *flags.LogLevel,
		Format: *flags.LogFormat,
		Output: "stderr",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	if closer != nil {
		defer closer.Close()
	}

	cfg, err := loadConfiguration(flags)
	if err != nil {
		log.Fatal().Err(err).Msg("configuration error")
	}

	if *flags.IntradayFile == "" || *flags.DailyFile == "" {
		log.Fatal().Msg("-intraday and -daily are required")
	}

	provider := data.NewCSVBarProvider(log)

	intraday, err := provider.LoadBars(*flags.IntradayFile)
	if err != nil {
		log.Fatal().Err(err).Msg("load intraday bars")
	}
	if len(intraday) == 0 {
		log.Fatal().Str("file", *flags.IntradayFile).Msg("no usable intraday bars")
	}

	daily, err := provider.LoadDaily(*flags.DailyFile)
	if err != nil {
		log.Fatal().Err(err).Msg("load daily bars")
	}

	var vol data.VolatilityProvider
	if *flags.VIXFile != "" {
		vp, err := data.NewCSVVolatilityProvider(log, *flags.VIXFile)
		if err != nil {
			log.Fatal().Err(err).Msg("load volatility index")
		}
		vol = vp
	}

	log.Info().Str("symbol", cfg.Symbol).
		Int("intraday_bars", len(intraday)).
		Int("daily_bars", len(daily)).
		Bool("options_mode", cfg.OptionsEnabled()).
		Msg("starting backtest")

	engine := backtest.NewEngine(cfg, log, backtest.NewGenerator(cfg), data.NewCalendar(), vol)
	engine.OnDayProcessed = func(done, total int) {
		log.Info().Int("done", done).Int("total", total).Msg("session processed")
	}

	results := engine.Run(daily, intraday)

	reporting.NewDefaultConsoleReporter().OutputResults(results)

	if *flags.OutputFile != "" {
		if err := reporting.NewDefaultFileReporter().WriteTradesCSV(results, *flags.OutputFile); err != nil {
			log.Error().Err(err).Str("path", *flags.OutputFile).Msg("write trade log")
		} else {
			log.Info().Str("path", *flags.OutputFile).Msg("trade log written")
		}
	}
}

// loadConfiguration builds the effective config: file (or defaults),
// then env overrides, then flag overrides.
func loadConfiguration(flags *Flags) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if *flags.ConfigFile != "" {
		cfg, err = config.Load(*flags.ConfigFile)
	} else {
		cfg, err = config.Default()
	}
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnvOverrides()

	if *flags.Symbol != "" {
		cfg.Symbol = strings.ToUpper(*flags.Symbol)
	}
	if *flags.SharesMode {
		cfg.SharesMode = true
	}
	if *flags.Capital > 0 {
		cfg.InitialCapital = *flags.Capital
	}
	if *flags.Commission >= 0 {
		cfg.Commission = *flags.Commission
	}
	if *flags.VIXFile != "" {
		cfg.VIXFile = *flags.VIXFile
	}

	return cfg, cfg.Validate()
}
