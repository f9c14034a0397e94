package usecase

import (
	"context"

	"github.com/footylog/matchlog/internal/domain/event"
	"github.com/footylog/matchlog/internal/domain/notified"
	"github.com/footylog/matchlog/internal/domain/watched"
)

// DayEnvelope is the backend's single-round-trip answer for one queried
// date: the grouped schedule plus the caller's flag sets and aggregate
// stats, so the client never pays N+1 requests.
type DayEnvelope struct {
	Leagues     []event.LeagueGroup `json:"leagues"`
	WatchedIDs  []string            `json:"watchedIds"`
	NotifiedIDs []string            `json:"notifiedIds"`
	Stats       watched.Stats       `json:"stats"`
}

// SyncBackend is the authenticated sync API. Implementations must surface
// HTTP 401 as ErrUnauthorized and other transport failures as ErrNetwork.
type SyncBackend interface {
	EventsByDate(ctx context.Context, date string) (DayEnvelope, error)
	ListWatched(ctx context.Context) ([]watched.WatchedEvent, error)
	AddWatched(ctx context.Context, ev event.Event) error
	RemoveWatched(ctx context.Context, eventID string) error
	AddNotified(ctx context.Context, ev event.Event, notificationID string) error
	RemoveNotified(ctx context.Context, eventID string) error
	GetNotified(ctx context.Context, eventID string) (notified.Registration, bool, error)
}

// ScheduleProvider fetches one league's raw fixtures for one calendar day
// straight from the sports-data provider (the local-only variant).
type ScheduleProvider interface {
	EventsByDay(ctx context.Context, date string, league event.LeagueConfig) ([]event.Raw, error)
}
