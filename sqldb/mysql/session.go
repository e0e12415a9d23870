// Package mysql stores sessions in the MySQL database of the application.
package mysql

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/alexedwards/scs/mysqlstore"
	"github.com/alexedwards/scs/v2"
)

// NewSessionStore requires the DSN parameter parseTime=true.
func NewSessionStore(db *sql.DB, cleanupInterval time.Duration) (scs.Store, error) {

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			token CHAR(43) PRIMARY KEY,
			data BLOB NOT NULL,
			expiry TIMESTAMP(6) NOT NULL,
			INDEX sessions_expiry_idx (expiry)
		)`); err != nil {
		return nil, fmt.Errorf("creating sessions table: %w", err)
	}

	return mysqlstore.NewWithCleanupInterval(db, cleanupInterval), nil
}
