package watched

import "context"

// Repository persists the watched-event set. Mutations happen only through
// the toggle flow; nothing edits a stored record in place.
type Repository interface {
	List(ctx context.Context) ([]WatchedEvent, error)
	Add(ctx context.Context, item WatchedEvent) error
	Remove(ctx context.Context, eventID string) error
	Clear(ctx context.Context) error
}
