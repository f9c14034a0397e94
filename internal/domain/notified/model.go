package notified

import (
	"context"
	"time"

	"github.com/footylog/matchlog/internal/domain/event"
)

// Registration records a scheduled pre-match reminder together with the
// provider-assigned notification handle. The handle is what lets a later
// unnotify cancel the concrete device notification instead of orphaning it.
type Registration struct {
	Event          event.Event `json:"event"`
	NotificationID string      `json:"notificationId"`
	CreatedAt      time.Time   `json:"createdAt"`
}

// Repository persists notification registrations keyed by event id.
type Repository interface {
	List(ctx context.Context) ([]Registration, error)
	Get(ctx context.Context, eventID string) (Registration, bool, error)
	Add(ctx context.Context, reg Registration) error
	Remove(ctx context.Context, eventID string) error
	Clear(ctx context.Context) error
}

// Payload is what the device shows when a reminder fires.
type Payload struct {
	EventID string
	Title   string
	Body    string
}

// Scheduler is the opaque device notification capability. RequestPermission
// provisions whatever the platform needs first (Android requires a channel
// before permission checks mean anything) and then asks the user on demand.
type Scheduler interface {
	RequestPermission(ctx context.Context) (bool, error)
	ScheduleAt(ctx context.Context, at time.Time, payload Payload) (string, error)
	Cancel(ctx context.Context, notificationID string) error
}
