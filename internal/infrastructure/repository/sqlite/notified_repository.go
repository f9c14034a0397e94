package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"

	"github.com/footylog/matchlog/internal/domain/event"
	"github.com/footylog/matchlog/internal/domain/notified"
	"github.com/footylog/matchlog/internal/platform/querybuilder"
)

const notifiedTable = "notified_events"

type notifiedRow struct {
	EventID        string `db:"event_id"`
	NotificationID string `db:"notification_id"`
	Payload        string `db:"payload"`
	CreatedAt      string `db:"created_at"`
}

// NotifiedRepository keeps the provider-assigned notification handle next
// to the event snapshot so a later cancel can target the exact device
// notification.
type NotifiedRepository struct {
	db *sqlx.DB
}

func NewNotifiedRepository(db *sqlx.DB) *NotifiedRepository {
	return &NotifiedRepository{db: db}
}

func (r *NotifiedRepository) List(ctx context.Context) ([]notified.Registration, error) {
	query, args, err := querybuilder.Select("event_id", "notification_id", "payload", "created_at").
		From(notifiedTable).
		OrderBy("created_at DESC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build notified list query: %w", err)
	}

	var rows []notifiedRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list notified events: %w", err)
	}

	out := make([]notified.Registration, 0, len(rows))
	for _, row := range rows {
		reg, err := decodeNotifiedRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, reg)
	}
	return out, nil
}

func (r *NotifiedRepository) Get(ctx context.Context, eventID string) (notified.Registration, bool, error) {
	query, args, err := querybuilder.Select("event_id", "notification_id", "payload", "created_at").
		From(notifiedTable).
		Where(querybuilder.Eq("event_id", eventID)).
		ToSQL()
	if err != nil {
		return notified.Registration{}, false, fmt.Errorf("build notified get query: %w", err)
	}

	var row notifiedRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notified.Registration{}, false, nil
		}
		return notified.Registration{}, false, fmt.Errorf("get notified event %s: %w", eventID, err)
	}

	reg, err := decodeNotifiedRow(row)
	if err != nil {
		return notified.Registration{}, false, err
	}
	return reg, true, nil
}

func (r *NotifiedRepository) Add(ctx context.Context, reg notified.Registration) error {
	payload, err := sonic.Marshal(reg.Event)
	if err != nil {
		return fmt.Errorf("encode notified event %s: %w", reg.Event.ID, err)
	}

	query, args, err := querybuilder.Upsert(notifiedTable).
		Set("event_id", reg.Event.ID).
		Set("notification_id", reg.NotificationID).
		Set("payload", string(payload)).
		Set("created_at", reg.CreatedAt.UTC().Format(time.RFC3339Nano)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build notified upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("store notified event %s: %w", reg.Event.ID, err)
	}
	return nil
}

func (r *NotifiedRepository) Remove(ctx context.Context, eventID string) error {
	query, args, err := querybuilder.Delete(notifiedTable).
		Where(querybuilder.Eq("event_id", eventID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build notified delete: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("remove notified event %s: %w", eventID, err)
	}
	return nil
}

func (r *NotifiedRepository) Clear(ctx context.Context) error {
	query, _, err := querybuilder.Delete(notifiedTable).ToSQL()
	if err != nil {
		return fmt.Errorf("build notified clear: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("clear notified events: %w", err)
	}
	return nil
}

func decodeNotifiedRow(row notifiedRow) (notified.Registration, error) {
	var ev event.Event
	if err := sonic.Unmarshal([]byte(row.Payload), &ev); err != nil {
		return notified.Registration{}, fmt.Errorf("decode notified event %s: %w", row.EventID, err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, row.CreatedAt)
	if err != nil {
		return notified.Registration{}, fmt.Errorf("decode notified timestamp for %s: %w", row.EventID, err)
	}

	return notified.Registration{
		Event:          ev,
		NotificationID: row.NotificationID,
		CreatedAt:      createdAt,
	}, nil
}
