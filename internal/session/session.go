// Package session models the regular trading session used to extrapolate
// intraday volume and to label the market state.
package session

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/shopspring/decimal"

	"stockMonitor/internal/domain"
)

// Defaults for the Taiwan Stock Exchange regular session (09:00 - 13:30).
const (
	DefaultOpen     = "09:00"
	DefaultMinutes  = 270
	DefaultTimezone = "Asia/Taipei"
)

// Config holds the session parameters.
type Config struct {
	Location *time.Location
	Open     string // "HH:MM" local wall-clock time
	Minutes  int    // regular session length
	Calendar *cal.BusinessCalendar
}

// Session answers clock questions about one trading session per day.
type Session struct {
	loc        *time.Location
	openHour   int
	openMinute int
	minutes    int
	calendar   *cal.BusinessCalendar
}

// New validates cfg and builds a Session.
func New(cfg Config) (*Session, error) {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Open == "" {
		cfg.Open = DefaultOpen
	}
	if cfg.Minutes <= 0 {
		return nil, fmt.Errorf("session length must be positive, got %d", cfg.Minutes)
	}
	h, m, err := ParseClock(cfg.Open)
	if err != nil {
		return nil, err
	}
	if cfg.Calendar == nil {
		cfg.Calendar = NewTaiwanCalendar()
	}
	return &Session{
		loc:        cfg.Location,
		openHour:   h,
		openMinute: m,
		minutes:    cfg.Minutes,
		calendar:   cfg.Calendar,
	}, nil
}

// ParseClock parses an "HH:MM" wall-clock string.
func ParseClock(s string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid clock value %q, want HH:MM", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}

// Minutes returns the regular session length.
func (s *Session) Minutes() int { return s.minutes }

// Location returns the exchange time zone.
func (s *Session) Location() *time.Location { return s.loc }

// OpenAt returns the session-open instant on now's local date.
func (s *Session) OpenAt(now time.Time) time.Time {
	local := now.In(s.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), s.openHour, s.openMinute, 0, 0, s.loc)
}

// CloseAt returns the regular close on now's local date.
func (s *Session) CloseAt(now time.Time) time.Time {
	return s.OpenAt(now).Add(time.Duration(s.minutes) * time.Minute)
}

// ElapsedMinutes returns the minutes since session open, clamped to [1, Minutes].
func (s *Session) ElapsedMinutes(now time.Time) decimal.Decimal {
	elapsed := decimal.NewFromFloat(now.Sub(s.OpenAt(now)).Minutes())
	return ClampMinutes(elapsed, s.minutes)
}

// ClampMinutes clamps elapsed to [1, sessionMinutes].
func ClampMinutes(elapsed decimal.Decimal, sessionMinutes int) decimal.Decimal {
	lower := decimal.NewFromInt(1)
	upper := decimal.NewFromInt(int64(sessionMinutes))
	return decimal.Min(upper, decimal.Max(lower, elapsed))
}

// EstimateFullDay extrapolates lots traded so far across the whole session,
// assuming uniform intensity. Multiplication happens first so a full session
// returns lots unchanged.
func EstimateFullDay(lots, elapsed decimal.Decimal, sessionMinutes int) decimal.Decimal {
	return lots.Mul(decimal.NewFromInt(int64(sessionMinutes))).Div(elapsed)
}

// IsTradingDay reports whether now's local date is a business day.
func (s *Session) IsTradingDay(now time.Time) bool {
	return s.calendar.IsWorkday(now.In(s.loc))
}

// State returns the session state at now.
func (s *Session) State(now time.Time) domain.SessionState {
	if !s.IsTradingDay(now) {
		return domain.SessionHoliday
	}
	switch {
	case now.Before(s.OpenAt(now)):
		return domain.SessionPreOpen
	case now.Before(s.CloseAt(now)):
		return domain.SessionOpen
	default:
		return domain.SessionClosed
	}
}
