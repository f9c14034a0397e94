package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sonic "github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"

	"github.com/footylog/matchlog/internal/domain/prefs"
	"github.com/footylog/matchlog/internal/platform/querybuilder"
)

const kvTable = "kv_store"

const (
	keyPreferences  = "preferences"
	keySessionToken = "session_token"
)

// KVRepository backs the blob-shaped settings: display preferences and the
// backend session token live as single rows in one key/value table.
type KVRepository struct {
	db *sqlx.DB
}

func NewKVRepository(db *sqlx.DB) *KVRepository {
	return &KVRepository{db: db}
}

func (r *KVRepository) Get(ctx context.Context) (prefs.Preferences, error) {
	raw, found, err := r.load(ctx, keyPreferences)
	if err != nil {
		return prefs.Preferences{}, err
	}
	if !found {
		return prefs.Preferences{}, nil
	}

	var p prefs.Preferences
	if err := sonic.Unmarshal([]byte(raw), &p); err != nil {
		return prefs.Preferences{}, fmt.Errorf("decode preferences: %w", err)
	}
	return p, nil
}

func (r *KVRepository) Save(ctx context.Context, p prefs.Preferences) error {
	payload, err := sonic.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	return r.store(ctx, keyPreferences, string(payload))
}

func (r *KVRepository) Token(ctx context.Context) (string, error) {
	token, _, err := r.load(ctx, keySessionToken)
	return token, err
}

func (r *KVRepository) SaveToken(ctx context.Context, token string) error {
	return r.store(ctx, keySessionToken, token)
}

func (r *KVRepository) ClearToken(ctx context.Context) error {
	query, args, err := querybuilder.Delete(kvTable).
		Where(querybuilder.Eq("key", keySessionToken)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build token delete: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear session token: %w", err)
	}
	return nil
}

func (r *KVRepository) load(ctx context.Context, key string) (string, bool, error) {
	query, args, err := querybuilder.Select("value").
		From(kvTable).
		Where(querybuilder.Eq("key", key)).
		ToSQL()
	if err != nil {
		return "", false, fmt.Errorf("build kv get query: %w", err)
	}

	var value string
	if err := r.db.GetContext(ctx, &value, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("load kv entry %s: %w", key, err)
	}
	return value, true, nil
}

func (r *KVRepository) store(ctx context.Context, key, value string) error {
	query, args, err := querybuilder.Upsert(kvTable).
		Set("key", key).
		Set("value", value).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build kv upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("store kv entry %s: %w", key, err)
	}
	return nil
}
