package usecase

import (
	"sort"
	"time"

	"github.com/footylog/matchlog/internal/domain/event"
	"github.com/footylog/matchlog/internal/domain/watched"
	"github.com/footylog/matchlog/internal/platform/timeutil"
)

// The insights engine is pure: every function here is deterministic given
// the watched-event snapshot and now, with no I/O.

// orderedCounter is a frequency table that remembers insertion order, so
// "top" resolves ties to the first-seen key no matter what the runtime's
// map iteration order is.
type orderedCounter struct {
	keys   []string
	counts map[string]int
}

func newOrderedCounter() *orderedCounter {
	return &orderedCounter{counts: make(map[string]int)}
}

func (c *orderedCounter) add(key string) {
	if key == "" {
		return
	}
	if _, seen := c.counts[key]; !seen {
		c.keys = append(c.keys, key)
	}
	c.counts[key]++
}

func (c *orderedCounter) top() string {
	best := ""
	bestCount := 0
	for _, key := range c.keys {
		if c.counts[key] > bestCount {
			best = key
			bestCount = c.counts[key]
		}
	}
	if best == "" {
		return watched.Placeholder
	}
	return best
}

// ComputeStats counts watched events whose effective local date falls in
// the current Monday-anchored week and the current month.
func ComputeStats(events []watched.WatchedEvent, now time.Time) watched.Stats {
	weekStart := timeutil.FormatDate(timeutil.StartOfWeek(now))
	monthStart := monthStartKey(now)

	stats := watched.Stats{TotalCount: len(events)}
	for _, ev := range events {
		key := timeutil.LocalDateKey(ev.Date, ev.Time, ev.CreatedAt)
		if key == "" {
			continue
		}
		if key >= weekStart {
			stats.WeekCount++
		}
		if key >= monthStart {
			stats.MonthCount++
		}
	}
	return stats
}

// ComputeInsights builds the favorite-team/league/weekday summary. Team
// counts include both home and away appearances. Empty input yields the
// placeholder dash for every text field.
func ComputeInsights(events []watched.WatchedEvent, now time.Time) watched.Insights {
	teams := newOrderedCounter()
	leagues := newOrderedCounter()
	weekdays := newOrderedCounter()

	for _, ev := range events {
		teams.add(ev.HomeTeam)
		teams.add(ev.AwayTeam)
		leagues.add(ev.LeagueName)

		key := timeutil.LocalDateKey(ev.Date, ev.Time, ev.CreatedAt)
		if day, err := time.ParseInLocation("2006-01-02", key, time.Local); err == nil {
			weekdays.add(day.Weekday().String())
		}
	}

	return watched.Insights{
		TopTeam:    teams.top(),
		TopLeague:  leagues.top(),
		TopWeekday: weekdays.top(),
		Stats:      ComputeStats(events, now),
	}
}

// GroupWatchedEvents partitions by date with days ordered most recent
// first and each day's items ordered by kickoff. The zero-padded HH:MM[:SS]
// strings are fixed width, so lexicographic time order is kickoff order.
func GroupWatchedEvents(events []watched.WatchedEvent) []watched.DayGroup {
	byDay := make(map[string][]watched.WatchedEvent, len(events))
	for _, ev := range events {
		key := ev.Date
		if key == "" {
			key = timeutil.LocalDateKey("", "", ev.CreatedAt)
		}
		if key == "" {
			continue
		}
		byDay[key] = append(byDay[key], ev)
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(days)))

	out := make([]watched.DayGroup, 0, len(days))
	for _, day := range days {
		items := byDay[day]
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Time < items[j].Time
		})
		out = append(out, watched.DayGroup{Date: day, Events: items})
	}
	return out
}

// UpdateStatsForToggle adjusts server-aggregated stats by one toggle
// without the full watched set on hand. It must agree with what a full
// recompute would say at the moment of the toggle, so the window checks
// reuse the same date-key derivation as ComputeStats.
func UpdateStatsForToggle(stats watched.Stats, ev event.Event, wasWatched bool, now time.Time) watched.Stats {
	delta := 1
	if wasWatched {
		delta = -1
	}

	key := timeutil.LocalDateKey(ev.Date, ev.Time, now)
	stats.TotalCount = clampNonNegative(stats.TotalCount + delta)
	if key >= timeutil.FormatDate(timeutil.StartOfWeek(now)) {
		stats.WeekCount = clampNonNegative(stats.WeekCount + delta)
	}
	if key >= monthStartKey(now) {
		stats.MonthCount = clampNonNegative(stats.MonthCount + delta)
	}
	return stats
}

func monthStartKey(now time.Time) string {
	year, month, _ := now.Date()
	return timeutil.FormatDate(time.Date(year, month, 1, 0, 0, 0, 0, now.Location()))
}

func clampNonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
