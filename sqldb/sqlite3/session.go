// Package sqlite3 stores sessions in the SQLite database of the application.
package sqlite3

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
)

func NewSessionStore(db *sql.DB, cleanupInterval time.Duration) (scs.Store, error) {

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			expiry REAL NOT NULL
		)`); err != nil {
		return nil, fmt.Errorf("creating sessions table: %w", err)
	}

	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry)`); err != nil {
		return nil, fmt.Errorf("creating sessions index: %w", err)
	}

	return sqlite3store.NewWithCleanupInterval(db, cleanupInterval), nil
}
