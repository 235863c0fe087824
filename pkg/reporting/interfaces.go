package reporting

import "github.com/quantex/zerodte-backtest/internal/backtest"

// ConsoleReporter defines interface for console output.
type ConsoleReporter interface {
	OutputResults(results *backtest.Results)
	OutputSweep(results []backtest.SweepResult)
}

// FileReporter defines interface for file output.
type FileReporter interface {
	WriteTradesCSV(results *backtest.Results, path string) error
	WriteTradesXLSX(results *backtest.Results, path string) error
}
