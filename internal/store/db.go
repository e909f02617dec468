// Package store is the SQLite access layer for the message archive. It reads
// two databases: the archive database (chats and messages, written by the
// bridge and provisioned here) and the whatsmeow identity database (device
// and contact tables, opened strictly read-only).
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the archive database connection (chats and messages tables).
type DB struct {
	*sql.DB
}

// Open creates a new SQLite connection to the archive database with WAL mode
// and recommended pragmas. Timestamps are read and written in UTC so the
// driver's string encoding collates chronologically.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_loc=UTC")
	if err != nil {
		return nil, fmt.Errorf("open archive db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping archive db: %w", err)
	}
	return &DB{db}, nil
}

// IdentityDB wraps the whatsmeow session database connection. The bridge
// owns this file; it is never written from here.
type IdentityDB struct {
	*sql.DB
}

// OpenIdentity opens the whatsmeow database read-only.
func OpenIdentity(path string) (*IdentityDB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", path))
	if err != nil {
		return nil, fmt.Errorf("open identity db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping identity db: %w", err)
	}
	return &IdentityDB{db}, nil
}
