package data

import "time"

// Calendar answers session-schedule questions for a US equity exchange:
// which days trade and when the session closes. Half days close at 13:00
// instead of the regular 16:00.
type Calendar struct {
	earlyCloses map[string]struct{}
}

// Known NYSE half days. The surrounding full holidays need no entries
// because those dates simply have no bars.
var defaultEarlyCloses = []string{
	"2024-07-03",
	"2024-11-29",
	"2024-12-24",
	"2025-07-03",
	"2025-11-28",
	"2025-12-24",
	"2026-11-27",
	"2026-12-24",
}

// NewCalendar builds the default US equity calendar.
func NewCalendar() *Calendar {
	c := &Calendar{earlyCloses: make(map[string]struct{}, len(defaultEarlyCloses))}
	for _, d := range defaultEarlyCloses {
		c.earlyCloses[d] = struct{}{}
	}
	return c
}

// AddEarlyClose registers an extra half day, e.g. an ad hoc closure.
func (c *Calendar) AddEarlyClose(day time.Time) {
	c.earlyCloses[day.Format("2006-01-02")] = struct{}{}
}

// IsTradingDay reports whether the date falls on a weekday. Holidays are
// not modeled; a holiday shows up as a weekday without bars and the
// engine skips it naturally.
func (c *Calendar) IsTradingDay(day time.Time) bool {
	wd := day.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// IsEarlyClose reports whether the session ends at the half-day close.
func (c *Calendar) IsEarlyClose(day time.Time) bool {
	_, ok := c.earlyCloses[day.Format("2006-01-02")]
	return ok
}

// CloseMinutes returns the session close for the date as minutes since
// midnight: 13:00 on half days, 16:00 otherwise.
func (c *Calendar) CloseMinutes(day time.Time) int {
	if c.IsEarlyClose(day) {
		return 13 * 60
	}
	return 16 * 60
}

// CloseClock returns the session close as (hour, minute) for the
// expiry-clock calculation.
func (c *Calendar) CloseClock(day time.Time) (int, int) {
	m := c.CloseMinutes(day)
	return m / 60, m % 60
}
