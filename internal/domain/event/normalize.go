package event

import (
	"strconv"
	"strings"
)

// Raw is an upstream fixture record as the provider serves it. Every field
// may be null, empty, or garbage; Normalize decides what survives.
type Raw struct {
	ID         *string `json:"idEvent"`
	LeagueID   *string `json:"idLeague"`
	LeagueName *string `json:"strLeague"`
	Badge      *string `json:"strLeagueBadge"`
	Date       *string `json:"dateEvent"`
	Time       *string `json:"strTime"`
	HomeTeam   *string `json:"strHomeTeam"`
	AwayTeam   *string `json:"strAwayTeam"`
	HomeScore  *string `json:"intHomeScore"`
	AwayScore  *string `json:"intAwayScore"`
}

// Normalize maps a raw provider record into a canonical Event. Records with
// no stable id or no date cannot be keyed or grouped and are dropped (ok is
// false); every other defect is absorbed with a safe default.
func Normalize(raw Raw, league LeagueConfig) (Event, bool) {
	id := deref(raw.ID)
	date := deref(raw.Date)
	if id == "" || date == "" {
		return Event{}, false
	}

	return Event{
		ID:          id,
		LeagueID:    fallback(deref(raw.LeagueID), league.ID),
		LeagueName:  fallback(deref(raw.LeagueName), league.Name),
		LeagueBadge: fallback(deref(raw.Badge), league.Badge),
		Date:        date,
		Time:        deref(raw.Time),
		HomeTeam:    fallback(deref(raw.HomeTeam), TBD),
		AwayTeam:    fallback(deref(raw.AwayTeam), TBD),
		HomeScore:   parseScore(raw.HomeScore),
		AwayScore:   parseScore(raw.AwayScore),
	}, true
}

// NormalizeBatch normalizes one league/day page of raw records, dropping the
// unkeyable ones.
func NormalizeBatch(raws []Raw, league LeagueConfig) []Event {
	out := make([]Event, 0, len(raws))
	for _, raw := range raws {
		if ev, ok := Normalize(raw, league); ok {
			out = append(out, ev)
		}
	}
	return out
}

// parseScore keeps upstream null as nil and treats a non-numeric score the
// same way rather than propagating a parse failure.
func parseScore(value *string) *int {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	score, err := strconv.Atoi(trimmed)
	if err != nil {
		return nil
	}
	return &score
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}

func fallback(value, alt string) string {
	if value == "" {
		return alt
	}
	return value
}
