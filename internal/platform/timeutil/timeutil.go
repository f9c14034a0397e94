// Package timeutil normalizes the heterogeneous date and time strings the
// sports-data provider emits: dates are nominal UTC calendar days, kickoff
// times are UTC wall-clock with no zone marker, and either may be missing.
package timeutil

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Status classifies a match relative to now.
type Status string

const (
	StatusPast   Status = "past"
	StatusSoon   Status = "soon"
	StatusFuture Status = "future"
)

const liveWindow = 2 * time.Hour

// FormatDate renders the instant's local calendar fields as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	year, month, day := t.Date()
	return fmt.Sprintf("%04d-%02d-%02d", year, int(month), day)
}

// TodayValue is FormatDate(now).
func TodayValue(now time.Time) string {
	return FormatDate(now)
}

// AddDays parses date as local midnight, shifts it by delta calendar days,
// and reformats. Unparseable input is returned unchanged.
func AddDays(date string, delta int) string {
	parsed, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(date), time.Local)
	if err != nil {
		return date
	}
	return FormatDate(parsed.AddDate(0, 0, delta))
}

// StartOfWeek returns Monday 00:00 local time of the week containing t.
func StartOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	shifted := t.AddDate(0, 0, -offset)
	year, month, day := shifted.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, shifted.Location())
}

// FormatDisplayDate renders a date-only string or a full timestamp as a
// long-form local date. Unparseable input echoes back as-is.
func FormatDisplayDate(value string) string {
	parsed := ParseFlexible(value)
	switch parsed.Kind {
	case KindFullTimestamp:
		return parsed.Time.Local().Format("Monday, January 2, 2006")
	case KindDateOnly:
		return parsed.Time.Format("Monday, January 2, 2006")
	default:
		return value
	}
}

// FormatEventTime converts a UTC date+clock pair to the local-zone HH:MM.
// A missing or TBD clock renders as the TBD sentinel; a clock that fails to
// compose falls back to its first five characters.
func FormatEventTime(date, clock string) string {
	clock = strings.TrimSpace(clock)
	if clock == "" || strings.Contains(clock, TBD) {
		return TBD
	}

	if start, ok := ComposeUTC(date, clock); ok {
		return start.Local().Format("15:04")
	}
	if len(clock) > 5 {
		return clock[:5]
	}
	return clock
}

// IsMatchLive reports whether now falls inside [kickoff, kickoff+2h). A
// match with an unparseable or missing clock is never live.
func IsMatchLive(date, clock string, now time.Time) bool {
	start, ok := ComposeUTC(date, clock)
	if !ok {
		return false
	}
	return !now.Before(start) && now.Before(start.Add(liveWindow))
}

// MatchStatus buckets a match as past, soon (kickoff within 30 minutes), or
// future. Missing, TBD, or unparseable clocks are always future: a match
// with no confirmed kickoff must stay schedulable.
func MatchStatus(date, clock string, now time.Time) Status {
	clock = strings.TrimSpace(clock)
	if clock == "" || strings.Contains(clock, TBD) {
		return StatusFuture
	}

	start, ok := ComposeUTC(date, clock)
	if !ok {
		return StatusFuture
	}

	minutesUntil := int(math.Floor(start.Sub(now).Minutes()))
	switch {
	case minutesUntil < 0:
		return StatusPast
	case minutesUntil <= 30:
		return StatusSoon
	default:
		return StatusFuture
	}
}

// LocalDateKey derives the local calendar day an event belongs to. The
// fallback chain (full timestamp, date+clock as UTC, raw date prefix,
// createdAt) is shared by stats and insights so both always agree on which
// bucket an event falls into.
func LocalDateKey(date, clock string, createdAt time.Time) string {
	date = strings.TrimSpace(date)

	if strings.ContainsAny(date, "T ") {
		if parsed := ParseFlexible(date); parsed.Kind == KindFullTimestamp {
			return FormatDate(parsed.Time.Local())
		}
	}

	if start, ok := ComposeUTC(date, clock); ok {
		return FormatDate(start.Local())
	}

	if len(date) >= 10 {
		return date[:10]
	}

	if !createdAt.IsZero() {
		return FormatDate(createdAt.Local())
	}

	return ""
}
