package watched

import (
	"time"

	"github.com/footylog/matchlog/internal/domain/event"
)

// WatchedEvent is a durable user record of a fixture marked as viewed. It
// outlives the originating fixture's place in the current schedule.
type WatchedEvent struct {
	event.Event
	CreatedAt time.Time `json:"createdAt"`
}

// Stats are derived counts over a watched-event collection relative to now.
type Stats struct {
	WeekCount  int `json:"weekCount"`
	MonthCount int `json:"monthCount"`
	TotalCount int `json:"totalCount"`
}

// Placeholder is what Insights text fields show when there is no data yet.
const Placeholder = "—"

// Insights extend Stats with the user's most-watched team, league, and
// weekday.
type Insights struct {
	TopTeam    string `json:"topTeam"`
	TopLeague  string `json:"topLeague"`
	TopWeekday string `json:"topWeekday"`
	Stats
}

// DayGroup is one calendar day's watched events, ordered by kickoff.
type DayGroup struct {
	Date   string         `json:"date"`
	Events []WatchedEvent `json:"events"`
}
