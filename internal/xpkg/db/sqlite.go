package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// SQLite is the embedded ledger used for local development and tests.
type SQLite struct {
	db *sqlx.DB
}

// OpenSQLite opens path (":memory:" for a throwaway database) with foreign keys enforced.
// The pool is pinned to a single connection: sqlite serialises writers anyway and an
// in-memory database exists only per connection.
func OpenSQLite(path string) (*SQLite, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_loc=UTC&_txlock=immediate", path)
	if path == ":memory:" {
		dsn = "file::memory:?_foreign_keys=on&_loc=UTC"
	}

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping sqlite")
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) DB() *sqlx.DB {
	return s.db
}

func (s *SQLite) IsAlive(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
