package schedule

import (
	"fmt"
	"time"
)

// Kind identifies which scheduling configuration is active.
type Kind int

const (
	// ManualOverride means both sunrise and sunset were set explicitly in the
	// config, even if they were set to zero. Explicit times win over any
	// computed ephemeris.
	ManualOverride Kind = iota
	// StableDate freezes the ephemeris to one calendar date, so the cage gets
	// the same photoperiod every day.
	StableDate
	// DayOffset shifts today's date by a fixed number of days before looking
	// up sunrise/sunset.
	DayOffset
)

// Mode is the scheduling configuration resolved once at config-load time.
// Exactly one variant applies; the payload fields are only meaningful for
// their own Kind.
type Mode struct {
	Kind Kind

	// ManualOverride payload: explicit on/off times of day.
	Sunrise ClockTime
	Sunset  ClockTime

	// StableDate payload.
	Date time.Time

	// DayOffset payload.
	Offset int
}

// Manual builds a manual-override mode from explicit on/off times.
func Manual(sunrise, sunset ClockTime) Mode {
	return Mode{Kind: ManualOverride, Sunrise: sunrise, Sunset: sunset}
}

// Stable builds a stable-date mode.
func Stable(date time.Time) Mode {
	return Mode{Kind: StableDate, Date: date}
}

// Offset builds a day-offset mode.
func Offset(days int) Mode {
	return Mode{Kind: DayOffset, Offset: days}
}

// FileSuffix is the tag embedded in every batch dump filename. The spelling
// (including the capital D) is kept compatible with the historical cage logs
// so downstream analysis scripts keep working.
func (m Mode) FileSuffix() string {
	switch m.Kind {
	case StableDate:
		return "stable_date_" + m.Date.Format("2006-01-02")
	case DayOffset:
		return fmt.Sprintf("Days_offset_%d", m.Offset)
	default:
		return "manually_set"
	}
}

// EphemerisDate returns the calendar date whose sunrise/sunset should drive
// the lights for the given wall-clock time. Not meaningful for ManualOverride.
func (m Mode) EphemerisDate(now time.Time) time.Time {
	switch m.Kind {
	case StableDate:
		return m.Date
	case DayOffset:
		return now.AddDate(0, 0, m.Offset)
	default:
		return now
	}
}

// ClockTime is a time of day with no date attached.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime accepts "HH:MM", "HH:MM:SS" or a bare hour number. A bare
// "0" is valid and means midnight; presence is decided by the config layer,
// not by the value.
func ParseClockTime(s string) (ClockTime, error) {
	var h, m, sec int
	if n, err := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec); err == nil && n == 3 {
		return clockTime(h, m)
	}
	if n, err := fmt.Sscanf(s, "%d:%d", &h, &m); err == nil && n == 2 {
		return clockTime(h, m)
	}
	if n, err := fmt.Sscanf(s, "%d", &h); err == nil && n == 1 {
		return clockTime(h, 0)
	}
	return ClockTime{}, fmt.Errorf("invalid clock time %q", s)
}

func clockTime(h, m int) (ClockTime, error) {
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return ClockTime{}, fmt.Errorf("clock time %02d:%02d out of range", h, m)
	}
	return ClockTime{Hour: h, Minute: m}, nil
}

// On returns the clock time anchored to the date of t, in t's location.
func (c ClockTime) On(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), c.Hour, c.Minute, 0, 0, t.Location())
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}
