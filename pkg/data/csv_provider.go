package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantex/zerodte-backtest/pkg/types"
)

// CSVBarProvider implements IntradayProvider and DailyProvider for CSV
// files. Malformed rows are logged and skipped so one bad export line
// does not sink a whole run.
type CSVBarProvider struct {
	barFormat   CSVColumnMapping
	dailyFormat CSVColumnMapping
	log         zerolog.Logger
}

// NewCSVBarProvider creates a provider with the default column layouts.
func NewCSVBarProvider(log zerolog.Logger) *CSVBarProvider {
	return &CSVBarProvider{
		barFormat:   DefaultBarFormat,
		dailyFormat: DefaultDailyFormat,
		log:         log,
	}
}

// NewCSVBarProviderWithFormat creates a provider with custom layouts.
func NewCSVBarProviderWithFormat(log zerolog.Logger, bar, daily CSVColumnMapping) *CSVBarProvider {
	return &CSVBarProvider{barFormat: bar, dailyFormat: daily, log: log}
}

// GetName returns the name of the data provider.
func (p *CSVBarProvider) GetName() string {
	return "CSV Provider"
}

// LoadBars loads intraday bars from a CSV file.
func (p *CSVBarProvider) LoadBars(source string) ([]types.Bar, error) {
	rows, err := p.readRows(source, p.barFormat)
	if err != nil {
		return nil, err
	}

	bars := make([]types.Bar, 0, len(rows))
	for _, r := range rows {
		bars = append(bars, types.Bar(r))
	}
	return bars, nil
}

// LoadDaily loads daily bars from a CSV file.
func (p *CSVBarProvider) LoadDaily(source string) ([]types.DailyBar, error) {
	rows, err := p.readRows(source, p.dailyFormat)
	if err != nil {
		return nil, err
	}

	daily := make([]types.DailyBar, 0, len(rows))
	for _, r := range rows {
		daily = append(daily, types.DailyBar{
			Date:   r.Timestamp,
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		})
	}
	return daily, nil
}

type csvRow struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

func (p *CSVBarProvider) readRows(filename string, format CSVColumnMapping) ([]csvRow, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	// Skip header
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("read header of %s: %w", filename, err)
	}

	var rows []csvRow
	lineNum := 1
	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("read %s at line %d: %w", filename, lineNum, err)
		}
		lineNum++

		if len(record) < format.MinColumns {
			p.log.Warn().Int("line", lineNum).Int("columns", len(record)).
				Msg("insufficient columns, skipping row")
			continue
		}

		ts, err := time.Parse(format.DateFormat, record[format.TimestampCol])
		if err != nil {
			p.log.Warn().Int("line", lineNum).Str("value", record[format.TimestampCol]).
				Msg("invalid timestamp, skipping row")
			continue
		}

		row := csvRow{Timestamp: ts}
		fields := []struct {
			name string
			col  int
			dst  *float64
		}{
			{"open", format.OpenCol, &row.Open},
			{"high", format.HighCol, &row.High},
			{"low", format.LowCol, &row.Low},
			{"close", format.CloseCol, &row.Close},
			{"volume", format.VolumeCol, &row.Volume},
		}

		ok := true
		for _, f := range fields {
			v, err := strconv.ParseFloat(record[f.col], 64)
			if err != nil {
				p.log.Warn().Int("line", lineNum).Str("field", f.name).
					Str("value", record[f.col]).Msg("invalid number, skipping row")
				ok = false
				break
			}
			*f.dst = v
		}
		if !ok {
			continue
		}

		if row.Open <= 0 || row.High <= 0 || row.Low <= 0 || row.Close <= 0 {
			p.log.Warn().Int("line", lineNum).Msg("non-positive price, skipping row")
			continue
		}
		if row.High < row.Open || row.High < row.Close || row.High < row.Low ||
			row.Low > row.Open || row.Low > row.Close {
			p.log.Warn().Int("line", lineNum).Msg("inconsistent OHLC range, skipping row")
			continue
		}

		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Timestamp.Before(rows[j].Timestamp) })
	return rows, nil
}

// CSVVolatilityProvider implements VolatilityProvider from a two-column
// date,close CSV. Gaps in the history carry the most recent earlier
// level forward; dates before the first reading report false.
type CSVVolatilityProvider struct {
	levels map[string]float64
	dates  []string // sorted ISO dates, for carry-forward lookups
}

// NewCSVVolatilityProvider loads the index history once up front.
func NewCSVVolatilityProvider(log zerolog.Logger, filename string) (*CSVVolatilityProvider, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("read header of %s: %w", filename, err)
	}

	levels := make(map[string]float64)
	lineNum := 1
	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("read %s at line %d: %w", filename, lineNum, err)
		}
		lineNum++

		if len(record) < 2 {
			log.Warn().Int("line", lineNum).Msg("insufficient columns, skipping row")
			continue
		}
		if _, err := time.Parse("2006-01-02", record[0]); err != nil {
			log.Warn().Int("line", lineNum).Str("value", record[0]).
				Msg("invalid date, skipping row")
			continue
		}
		level, err := strconv.ParseFloat(record[1], 64)
		if err != nil || level <= 0 {
			log.Warn().Int("line", lineNum).Str("value", record[1]).
				Msg("invalid level, skipping row")
			continue
		}
		levels[record[0]] = level
	}

	dates := make([]string, 0, len(levels))
	for d := range levels {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	return &CSVVolatilityProvider{levels: levels, dates: dates}, nil
}

// Level returns the close for the given day, carrying the last known
// level forward across gaps. False only before the first reading.
func (p *CSVVolatilityProvider) Level(day time.Time) (float64, bool) {
	key := day.Format("2006-01-02")
	if v, ok := p.levels[key]; ok {
		return v, true
	}

	i := sort.SearchStrings(p.dates, key)
	if i == 0 {
		return 0, false
	}
	return p.levels[p.dates[i-1]], true
}

// StaticVolatilityProvider pins every day to one level. Useful for runs
// without an index file and for tests.
type StaticVolatilityProvider struct {
	Value float64
}

func (p StaticVolatilityProvider) Level(time.Time) (float64, bool) {
	if p.Value <= 0 {
		return 0, false
	}
	return p.Value, true
}
