// Package sqlite persists watched events, notification registrations, and
// user preferences in a single local database file.
package sqlite

import (
	"github.com/jmoiron/sqlx"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	_ "modernc.org/sqlite"
)

// Open connects to the local store with tracing instrumentation and the
// pragmas a single-writer app wants. The file is created on first use.
func Open(path string) (*sqlx.DB, error) {
	dsn := "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := otelsqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// modernc sqlite serializes writes itself; extra connections just
	// contend on the file lock.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
