package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Strategy and session constants shared by the CLI defaults and tests.
const (
	DefaultSymbol = "SPY"

	DefaultMAShortPeriod = 20
	DefaultMALongPeriod  = 50

	DefaultGapSmallThreshold  = 0.002
	DefaultRangeLowThreshold  = 0.005
	DefaultRangeHighThreshold = 0.015
	DefaultVIXHardDeck        = 15.0

	DefaultEMAFastPeriod = 9
	DefaultEMASlowPeriod = 21
	DefaultVolLookback   = 20

	DefaultSessionStart     = "09:45"
	DefaultSessionEnd       = "15:30"
	DefaultBlockEntriesFrom = "14:30"
	DefaultPowerHourStart   = "14:15"

	DefaultTakeProfitPct = 0.007
	DefaultStopLossPct   = 0.003
	DefaultPositionSize  = 100

	DefaultOptionsTakeProfitPct = 0.20
	DefaultOptionsStopLossPct   = 0.50
	DefaultContracts            = 1
	DefaultRiskFreeRate         = 0.045
	DefaultMaxSpreadPct         = 0.15
	DefaultSlippagePct          = 0.005
	DefaultStrikeSpacing        = 1.0

	DefaultCooldownMinutes = 30
)

// RegimeConfig holds the daily-context thresholds. Gap and range
// thresholds are fractions of price.
type RegimeConfig struct {
	MAShortPeriod      int     `yaml:"ma_short_period" default:"20" validate:"min=1"`
	MALongPeriod       int     `yaml:"ma_long_period" default:"50" validate:"min=1"`
	GapSmallThreshold  float64 `yaml:"gap_small_threshold" default:"0.002" validate:"gt=0"`
	RangeLowThreshold  float64 `yaml:"range_low_threshold" default:"0.005" validate:"gt=0"`
	RangeHighThreshold float64 `yaml:"range_high_threshold" default:"0.015" validate:"gt=0"`
	VIXHardDeck        float64 `yaml:"vix_hard_deck" default:"15.0" validate:"gte=0"`
}

// IndicatorConfig holds the intraday indicator parameters.
type IndicatorConfig struct {
	EMAFastPeriod int `yaml:"ema_fast_period" default:"9" validate:"min=1"`
	EMASlowPeriod int `yaml:"ema_slow_period" default:"21" validate:"min=1"`
	VolLookback   int `yaml:"vol_lookback" default:"20" validate:"min=2"`
}

// ChopConfig holds the range-detection thresholds.
type ChopConfig struct {
	LookbackBars       int     `yaml:"lookback_bars" default:"12" validate:"min=2"`
	VWAPCrossThreshold int     `yaml:"vwap_cross_threshold" default:"3" validate:"min=1"`
	EMAFlatThreshold   float64 `yaml:"ema_flat_threshold" default:"0.001" validate:"gt=0"`
	ATRPeriod          int     `yaml:"atr_period" default:"14" validate:"min=2"`
	ATRThreshold       float64 `yaml:"atr_threshold" default:"0.002" validate:"gt=0"`
	VWAPRangeThreshold float64 `yaml:"vwap_range_threshold" default:"0.002" validate:"gt=0"`
}

// SessionConfig holds the tradable-window clock times as "HH:MM" strings.
type SessionConfig struct {
	Start            string `yaml:"start" default:"09:45" validate:"required"`
	End              string `yaml:"end" default:"15:30" validate:"required"`
	BlockEntriesFrom string `yaml:"block_entries_from" default:"14:30" validate:"required"`
	PowerHourStart   string `yaml:"power_hour_start" default:"14:15" validate:"required"`
	LunchStart       string `yaml:"lunch_start" default:"11:45" validate:"required"`
	LunchEnd         string `yaml:"lunch_end" default:"13:30" validate:"required"`
	AfternoonStart   string `yaml:"afternoon_start" default:"13:45" validate:"required"`
	AfternoonEnd     string `yaml:"afternoon_end" default:"14:15" validate:"required"`
	EarlyOpenMinutes int    `yaml:"early_open_minutes" default:"10" validate:"min=0"`
}

// SharesConfig holds the shares-mode exit and sizing parameters,
// expressed as fractions of the underlying price.
type SharesConfig struct {
	TakeProfitPct float64 `yaml:"take_profit_pct" default:"0.007" validate:"gt=0"`
	StopLossPct   float64 `yaml:"stop_loss_pct" default:"0.003" validate:"gt=0"`
	PositionSize  int     `yaml:"position_size" default:"100" validate:"min=1"`
}

// OptionsConfig holds the options-mode parameters. TP/SL are fractions
// of the entry premium.
type OptionsConfig struct {
	TakeProfitPct float64 `yaml:"take_profit_pct" default:"0.20" validate:"gt=0"`
	StopLossPct   float64 `yaml:"stop_loss_pct" default:"0.50" validate:"gt=0,lte=1"`
	Contracts     int     `yaml:"contracts" default:"1" validate:"min=1"`
	RiskFreeRate  float64 `yaml:"risk_free_rate" default:"0.045" validate:"gte=0"`
	MaxSpreadPct  float64 `yaml:"max_spread_pct" default:"0.15" validate:"gt=0"`
	SlippagePct   float64 `yaml:"slippage_pct" default:"0.005" validate:"gte=0"`
	StrikeSpacing float64 `yaml:"strike_spacing" default:"1.0" validate:"gt=0"`
	MinReturn5    float64 `yaml:"min_return5" default:"1.0" validate:"gte=0"`
	MinIV         float64 `yaml:"min_iv" default:"12.0" validate:"gte=0"`
}

// SignalConfig holds the generator's volatility-environment thresholds.
type SignalConfig struct {
	LowIVThreshold  float64 `yaml:"low_iv_threshold" default:"15.0" validate:"gte=0"`
	HighIVThreshold float64 `yaml:"high_iv_threshold" default:"20.0" validate:"gte=0"`
}

// Config is the full backtest configuration tree.
type Config struct {
	Symbol string `yaml:"symbol" default:"SPY" validate:"required"`

	// SharesMode switches the engine from the default 0DTE options
	// simulation to plain share trading. Inverted so the zero value
	// keeps options mode on.
	SharesMode bool `yaml:"shares_mode"`

	InitialCapital  float64 `yaml:"initial_capital" default:"10000" validate:"gt=0"`
	Commission      float64 `yaml:"commission" default:"0.65" validate:"gte=0"`
	CooldownMinutes int     `yaml:"cooldown_minutes" default:"30" validate:"gte=0"`

	DataDir  string `yaml:"data_dir" default:"data"`
	VIXFile  string `yaml:"vix_file"`
	Timezone string `yaml:"timezone" default:"America/New_York"`

	Regime     RegimeConfig    `yaml:"regime"`
	Indicators IndicatorConfig `yaml:"indicators"`
	Chop       ChopConfig      `yaml:"chop"`
	Session    SessionConfig   `yaml:"session"`
	Shares     SharesConfig    `yaml:"shares"`
	Options    OptionsConfig   `yaml:"options"`
	Signal     SignalConfig    `yaml:"signal"`
}

// OptionsEnabled reports whether the run simulates 0DTE contracts.
func (c *Config) OptionsEnabled() bool {
	return !c.SharesMode
}

var validate = validator.New()

// Default returns a configuration populated from the struct defaults.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return &c, nil
}

// Load reads a YAML configuration file, fills unset fields with defaults
// and validates the result.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// Validate checks tag rules plus the cross-field constraints the tags
// cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	if c.Regime.MAShortPeriod >= c.Regime.MALongPeriod {
		return fmt.Errorf("regime: ma_short_period (%d) must be below ma_long_period (%d)",
			c.Regime.MAShortPeriod, c.Regime.MALongPeriod)
	}
	if c.Indicators.EMAFastPeriod >= c.Indicators.EMASlowPeriod {
		return fmt.Errorf("indicators: ema_fast_period (%d) must be below ema_slow_period (%d)",
			c.Indicators.EMAFastPeriod, c.Indicators.EMASlowPeriod)
	}
	if c.Signal.LowIVThreshold >= c.Signal.HighIVThreshold {
		return fmt.Errorf("signal: low_iv_threshold (%.1f) must be below high_iv_threshold (%.1f)",
			c.Signal.LowIVThreshold, c.Signal.HighIVThreshold)
	}

	for name, s := range map[string]string{
		"session.start":              c.Session.Start,
		"session.end":                c.Session.End,
		"session.block_entries_from": c.Session.BlockEntriesFrom,
		"session.power_hour_start":   c.Session.PowerHourStart,
		"session.lunch_start":        c.Session.LunchStart,
		"session.lunch_end":          c.Session.LunchEnd,
		"session.afternoon_start":    c.Session.AfternoonStart,
		"session.afternoon_end":      c.Session.AfternoonEnd,
	} {
		if _, err := ParseClock(s); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	start, _ := ParseClock(c.Session.Start)
	end, _ := ParseClock(c.Session.End)
	if start >= end {
		return fmt.Errorf("session: start %q must be before end %q", c.Session.Start, c.Session.End)
	}

	return nil
}

// ApplyEnvOverrides lets a few environment variables override the file,
// matching the usual deployment pattern of keeping paths out of configs.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("BACKTEST_SYMBOL"); v != "" {
		c.Symbol = strings.ToUpper(v)
	}
	if v := os.Getenv("BACKTEST_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("BACKTEST_VIX_FILE"); v != "" {
		c.VIXFile = v
	}
	if v := os.Getenv("BACKTEST_CAPITAL"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			c.InitialCapital = f
		}
	}
}

// ParseClock converts an "HH:MM" string to minutes since midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// MustClock is ParseClock for callers that validated the config already.
func MustClock(s string) int {
	m, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return m
}
