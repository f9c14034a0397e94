package usecase

import (
	"os"
	"testing"
	"time"

	"github.com/footylog/matchlog/internal/domain/event"
	"github.com/footylog/matchlog/internal/domain/watched"
)

func TestMain(m *testing.M) {
	time.Local = time.UTC
	os.Exit(m.Run())
}

// Saturday. The Monday-anchored week starts 2026-03-02, the month 2026-03-01.
var insightsNow = time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)

func watchedOn(id, date, clock string) watched.WatchedEvent {
	return watched.WatchedEvent{
		Event: event.Event{
			ID:         id,
			Date:       date,
			Time:       clock,
			HomeTeam:   "Home " + id,
			AwayTeam:   "Away " + id,
			LeagueName: "League " + id,
		},
		CreatedAt: insightsNow,
	}
}

func TestComputeStats(t *testing.T) {
	events := []watched.WatchedEvent{
		watchedOn("1", "2026-03-04", "15:00"), // this week and month
		watchedOn("2", "2026-03-01", "15:00"), // this month, before the week
		watchedOn("3", "2026-02-27", "15:00"), // neither window
	}

	got := ComputeStats(events, insightsNow)
	if got.TotalCount != 3 {
		t.Fatalf("TotalCount = %d, want 3", got.TotalCount)
	}
	if got.WeekCount != 1 {
		t.Fatalf("WeekCount = %d, want 1", got.WeekCount)
	}
	if got.MonthCount != 2 {
		t.Fatalf("MonthCount = %d, want 2", got.MonthCount)
	}
}

func TestComputeStatsUnkeyableEvent(t *testing.T) {
	ev := watched.WatchedEvent{Event: event.Event{ID: "x"}}

	got := ComputeStats([]watched.WatchedEvent{ev}, insightsNow)
	if got.TotalCount != 1 {
		t.Fatalf("TotalCount = %d, want 1", got.TotalCount)
	}
	if got.WeekCount != 0 || got.MonthCount != 0 {
		t.Fatalf("window counts = %d/%d, want 0/0", got.WeekCount, got.MonthCount)
	}
}

func TestComputeStatsEmpty(t *testing.T) {
	got := ComputeStats(nil, insightsNow)
	if got != (watched.Stats{}) {
		t.Fatalf("got %+v, want zero stats", got)
	}
}

func TestComputeInsightsEmpty(t *testing.T) {
	got := ComputeInsights(nil, insightsNow)
	if got.TopTeam != watched.Placeholder {
		t.Fatalf("TopTeam = %q, want placeholder", got.TopTeam)
	}
	if got.TopLeague != watched.Placeholder {
		t.Fatalf("TopLeague = %q, want placeholder", got.TopLeague)
	}
	if got.TopWeekday != watched.Placeholder {
		t.Fatalf("TopWeekday = %q, want placeholder", got.TopWeekday)
	}
}

func TestComputeInsightsTopTeam(t *testing.T) {
	mk := func(id, home, away string) watched.WatchedEvent {
		return watched.WatchedEvent{
			Event: event.Event{
				ID: id, Date: "2026-03-04", Time: "15:00",
				HomeTeam: home, AwayTeam: away, LeagueName: "Premier League",
			},
			CreatedAt: insightsNow,
		}
	}

	events := []watched.WatchedEvent{
		mk("1", "Arsenal", "Chelsea"),
		mk("2", "Liverpool", "Arsenal"),
	}

	got := ComputeInsights(events, insightsNow)
	if got.TopTeam != "Arsenal" {
		t.Fatalf("TopTeam = %q, want Arsenal (home and away both count)", got.TopTeam)
	}
	if got.TopLeague != "Premier League" {
		t.Fatalf("TopLeague = %q", got.TopLeague)
	}
	if got.TopWeekday != "Wednesday" {
		t.Fatalf("TopWeekday = %q, want Wednesday", got.TopWeekday)
	}
}

func TestComputeInsightsTieBreakFirstSeen(t *testing.T) {
	mk := func(id, home, away string) watched.WatchedEvent {
		return watched.WatchedEvent{
			Event:     event.Event{ID: id, Date: "2026-03-04", HomeTeam: home, AwayTeam: away},
			CreatedAt: insightsNow,
		}
	}

	// Every team appears exactly once; the first seen must win.
	events := []watched.WatchedEvent{
		mk("1", "Zebra FC", "Aardvark United"),
		mk("2", "Badger Town", "Cobra City"),
	}

	for i := 0; i < 20; i++ {
		got := ComputeInsights(events, insightsNow)
		if got.TopTeam != "Zebra FC" {
			t.Fatalf("TopTeam = %q, want first-seen Zebra FC", got.TopTeam)
		}
	}
}

func TestGroupWatchedEvents(t *testing.T) {
	events := []watched.WatchedEvent{
		watchedOn("late", "2026-03-04", "20:00"),
		watchedOn("old", "2026-03-01", "15:00"),
		watchedOn("early", "2026-03-04", "12:30"),
	}

	groups := GroupWatchedEvents(events)
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if groups[0].Date != "2026-03-04" || groups[1].Date != "2026-03-01" {
		t.Fatalf("days not reverse-sorted: %q, %q", groups[0].Date, groups[1].Date)
	}
	if groups[0].Events[0].ID != "early" || groups[0].Events[1].ID != "late" {
		t.Fatalf("day items not in kickoff order: %+v", groups[0].Events)
	}
}

func TestGroupWatchedEventsFallsBackToCreatedAt(t *testing.T) {
	ev := watched.WatchedEvent{
		Event:     event.Event{ID: "no-date"},
		CreatedAt: time.Date(2026, 2, 20, 9, 0, 0, 0, time.UTC),
	}

	groups := GroupWatchedEvents([]watched.WatchedEvent{ev})
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	if groups[0].Date != "2026-02-20" {
		t.Fatalf("group date = %q, want created-at date", groups[0].Date)
	}
}

func TestUpdateStatsForToggle(t *testing.T) {
	ev := event.Event{ID: "1", Date: "2026-03-04", Time: "15:00"}

	t.Run("add inside both windows", func(t *testing.T) {
		got := UpdateStatsForToggle(watched.Stats{WeekCount: 1, MonthCount: 2, TotalCount: 5}, ev, false, insightsNow)
		want := watched.Stats{WeekCount: 2, MonthCount: 3, TotalCount: 6}
		if got != want {
			t.Fatalf("got %+v, want %+v", got, want)
		}
	})

	t.Run("remove inside both windows", func(t *testing.T) {
		got := UpdateStatsForToggle(watched.Stats{WeekCount: 1, MonthCount: 2, TotalCount: 5}, ev, true, insightsNow)
		want := watched.Stats{WeekCount: 0, MonthCount: 1, TotalCount: 4}
		if got != want {
			t.Fatalf("got %+v, want %+v", got, want)
		}
	})

	t.Run("add outside the week", func(t *testing.T) {
		old := event.Event{ID: "2", Date: "2026-03-01", Time: "15:00"}
		got := UpdateStatsForToggle(watched.Stats{}, old, false, insightsNow)
		want := watched.Stats{WeekCount: 0, MonthCount: 1, TotalCount: 1}
		if got != want {
			t.Fatalf("got %+v, want %+v", got, want)
		}
	})

	t.Run("never goes negative", func(t *testing.T) {
		got := UpdateStatsForToggle(watched.Stats{}, ev, true, insightsNow)
		if got != (watched.Stats{}) {
			t.Fatalf("got %+v, want zero stats", got)
		}
	})
}
