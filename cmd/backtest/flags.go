package main

import "flag"

// Flags holds all command line flags for the backtest command.
type Flags struct {
	ConfigFile *string
	EnvFile    *string

	Symbol       *string
	IntradayFile *string
	DailyFile    *string
	VIXFile      *string

	SharesMode *bool
	Capital    *float64
	Commission *float64

	OutputFile *string
	LogLevel   *string
	LogFormat  *string

	ShowVersion *bool
}

// NewFlags registers the command line flags.
func NewFlags() *Flags {
	return &Flags{
		ConfigFile: flag.String("config", "", "YAML config file (optional, defaults apply)"),
		EnvFile:    flag.String("env", ".env", "Environment file to load"),

		Symbol:       flag.String("symbol", "", "Symbol to backtest (overrides config)"),
		IntradayFile: flag.String("intraday", "", "Intraday 5-minute bars CSV (required)"),
		DailyFile:    flag.String("daily", "", "Daily bars CSV for regime context (required)"),
		VIXFile:      flag.String("vix", "", "Volatility index CSV (optional)"),

		SharesMode: flag.Bool("shares", false, "Trade shares instead of 0DTE options"),
		Capital:    flag.Float64("capital", 0, "Initial capital (overrides config)"),
		Commission: flag.Float64("commission", -1, "Commission per contract per side (overrides config)"),

		OutputFile: flag.String("output", "", "Trade log path (.csv or .xlsx)"),
		LogLevel:   flag.String("log-level", "info", "Log level (debug, info, warn, error)"),
		LogFormat:  flag.String("log-format", "console", "Log format (console or json)"),

		ShowVersion: flag.Bool("version", false, "Show version and exit"),
	}
}
