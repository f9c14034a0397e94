package sqlite

import (
	"context"
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"

	"github.com/footylog/matchlog/internal/domain/event"
	"github.com/footylog/matchlog/internal/domain/watched"
	"github.com/footylog/matchlog/internal/platform/querybuilder"
)

const watchedTable = "watched_events"

type watchedRow struct {
	EventID   string `db:"event_id"`
	Payload   string `db:"payload"`
	CreatedAt string `db:"created_at"`
}

// WatchedRepository stores the event snapshot as a JSON payload next to the
// key columns, so a record survives unchanged even after the fixture drops
// out of the provider's schedule.
type WatchedRepository struct {
	db *sqlx.DB
}

func NewWatchedRepository(db *sqlx.DB) *WatchedRepository {
	return &WatchedRepository{db: db}
}

func (r *WatchedRepository) List(ctx context.Context) ([]watched.WatchedEvent, error) {
	query, args, err := querybuilder.Select("event_id", "payload", "created_at").
		From(watchedTable).
		OrderBy("created_at DESC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build watched list query: %w", err)
	}

	var rows []watchedRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list watched events: %w", err)
	}

	out := make([]watched.WatchedEvent, 0, len(rows))
	for _, row := range rows {
		item, err := decodeWatchedRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func (r *WatchedRepository) Add(ctx context.Context, item watched.WatchedEvent) error {
	payload, err := sonic.Marshal(item.Event)
	if err != nil {
		return fmt.Errorf("encode watched event %s: %w", item.ID, err)
	}

	query, args, err := querybuilder.Upsert(watchedTable).
		Set("event_id", item.ID).
		Set("payload", string(payload)).
		Set("created_at", item.CreatedAt.UTC().Format(time.RFC3339Nano)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build watched upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("store watched event %s: %w", item.ID, err)
	}
	return nil
}

func (r *WatchedRepository) Remove(ctx context.Context, eventID string) error {
	query, args, err := querybuilder.Delete(watchedTable).
		Where(querybuilder.Eq("event_id", eventID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build watched delete: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("remove watched event %s: %w", eventID, err)
	}
	return nil
}

func (r *WatchedRepository) Clear(ctx context.Context) error {
	query, _, err := querybuilder.Delete(watchedTable).ToSQL()
	if err != nil {
		return fmt.Errorf("build watched clear: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("clear watched events: %w", err)
	}
	return nil
}

func decodeWatchedRow(row watchedRow) (watched.WatchedEvent, error) {
	var ev event.Event
	if err := sonic.Unmarshal([]byte(row.Payload), &ev); err != nil {
		return watched.WatchedEvent{}, fmt.Errorf("decode watched event %s: %w", row.EventID, err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, row.CreatedAt)
	if err != nil {
		return watched.WatchedEvent{}, fmt.Errorf("decode watched timestamp for %s: %w", row.EventID, err)
	}

	return watched.WatchedEvent{Event: ev, CreatedAt: createdAt}, nil
}
