package querybuilder

import (
	"reflect"
	"testing"
)

func TestSelect(t *testing.T) {
	t.Run("plain", func(t *testing.T) {
		query, args, err := Select("event_id", "payload").From("watched_events").ToSQL()
		if err != nil {
			t.Fatalf("ToSQL: %v", err)
		}
		if query != "SELECT event_id, payload FROM watched_events" {
			t.Fatalf("query = %q", query)
		}
		if len(args) != 0 {
			t.Fatalf("args = %v", args)
		}
	})

	t.Run("where and order", func(t *testing.T) {
		query, args, err := Select("value").
			From("kv_store").
			Where(Eq("key", "preferences")).
			OrderBy("key DESC").
			ToSQL()
		if err != nil {
			t.Fatalf("ToSQL: %v", err)
		}
		if query != "SELECT value FROM kv_store WHERE key = ? ORDER BY key DESC" {
			t.Fatalf("query = %q", query)
		}
		if !reflect.DeepEqual(args, []any{"preferences"}) {
			t.Fatalf("args = %v", args)
		}
	})

	t.Run("multiple conditions joined with AND", func(t *testing.T) {
		query, args, err := Select("event_id").
			From("watched_events").
			Where(Eq("event_id", "1"), Eq("payload", "{}")).
			ToSQL()
		if err != nil {
			t.Fatalf("ToSQL: %v", err)
		}
		if query != "SELECT event_id FROM watched_events WHERE event_id = ? AND payload = ?" {
			t.Fatalf("query = %q", query)
		}
		if len(args) != 2 {
			t.Fatalf("args = %v", args)
		}
	})

	t.Run("missing table", func(t *testing.T) {
		if _, _, err := Select("value").ToSQL(); err == nil {
			t.Fatal("expected error without a table")
		}
	})

	t.Run("missing columns", func(t *testing.T) {
		if _, _, err := Select().From("kv_store").ToSQL(); err == nil {
			t.Fatal("expected error without columns")
		}
	})
}

func TestUpsert(t *testing.T) {
	query, args, err := Upsert("kv_store").
		Set("key", "session_token").
		Set("value", "tok-1").
		ToSQL()
	if err != nil {
		t.Fatalf("ToSQL: %v", err)
	}
	if query != "INSERT OR REPLACE INTO kv_store (key, value) VALUES (?, ?)" {
		t.Fatalf("query = %q", query)
	}
	if !reflect.DeepEqual(args, []any{"session_token", "tok-1"}) {
		t.Fatalf("args = %v", args)
	}

	if _, _, err := Upsert("kv_store").ToSQL(); err == nil {
		t.Fatal("expected error without columns")
	}
}

func TestDelete(t *testing.T) {
	t.Run("with condition", func(t *testing.T) {
		query, args, err := Delete("watched_events").Where(Eq("event_id", "1")).ToSQL()
		if err != nil {
			t.Fatalf("ToSQL: %v", err)
		}
		if query != "DELETE FROM watched_events WHERE event_id = ?" {
			t.Fatalf("query = %q", query)
		}
		if !reflect.DeepEqual(args, []any{"1"}) {
			t.Fatalf("args = %v", args)
		}
	})

	t.Run("full table", func(t *testing.T) {
		query, args, err := Delete("watched_events").ToSQL()
		if err != nil {
			t.Fatalf("ToSQL: %v", err)
		}
		if query != "DELETE FROM watched_events" {
			t.Fatalf("query = %q", query)
		}
		if len(args) != 0 {
			t.Fatalf("args = %v", args)
		}
	})
}
