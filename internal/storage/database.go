package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// DB is a key/value store backed by a SQLite database.
type DB struct {
	conn *sql.DB
}

// OpenSQLite opens the database at dsn and ensures the schema exists.
func OpenSQLite(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	// A single connection keeps ":memory:" databases coherent and
	// serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to apply schema")
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Load returns the blob stored under key, or nil if there is none.
func (db *DB) Load(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := db.conn.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to load key %s", key)
	}
	return value, nil
}

// Save upserts blob under key.
func (db *DB) Save(ctx context.Context, key string, blob []byte) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, blob, time.Now().UTC())
	if err != nil {
		return errors.Wrapf(err, "failed to save key %s", key)
	}
	return nil
}
