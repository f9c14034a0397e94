package timeutil

import (
	"strings"
	"time"
)

// TBD is the upstream placeholder for a kickoff time that is not yet
// finalized.
const TBD = "TBD"

type ParsedKind int

const (
	KindUnparseable ParsedKind = iota
	KindFullTimestamp
	KindDateOnly
	KindTimeOnlyUTC
)

// Parsed is the result of running a value through the parser chain.
type Parsed struct {
	Kind ParsedKind
	Time time.Time
}

var fullTimestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

var clockLayouts = []string{
	"15:04:05",
	"15:04",
}

// ParseFlexible classifies value as a full timestamp, a date-only string, or
// a UTC wall-clock time, trying each parser in that fixed order. Date-only
// values resolve to local midnight; clock-only values resolve to that time of
// day on the zero date in UTC.
func ParseFlexible(value string) Parsed {
	value = strings.TrimSpace(value)
	if value == "" {
		return Parsed{Kind: KindUnparseable}
	}

	if strings.ContainsAny(value, "T ") || strings.Contains(value, "Z") {
		for _, layout := range fullTimestampLayouts {
			if t, err := time.Parse(layout, value); err == nil {
				return Parsed{Kind: KindFullTimestamp, Time: t}
			}
		}
	}

	if t, err := time.ParseInLocation("2006-01-02", value, time.Local); err == nil {
		return Parsed{Kind: KindDateOnly, Time: t}
	}

	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return Parsed{Kind: KindTimeOnlyUTC, Time: t}
		}
	}

	return Parsed{Kind: KindUnparseable}
}

// ComposeUTC joins a YYYY-MM-DD date and a wall-clock time, both UTC, into a
// single instant. Upstream time fields carry no timezone marker, so the
// literal Z suffix is appended here and nowhere else.
func ComposeUTC(date, clock string) (time.Time, bool) {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if date == "" || clock == "" || strings.Contains(clock, TBD) {
		return time.Time{}, false
	}

	if len(clock) == 5 {
		clock += ":00"
	}

	t, err := time.Parse(time.RFC3339, date+"T"+clock+"Z")
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
