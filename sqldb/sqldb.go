// Package sqldb implements the core stores with database/sql. The SQL works with SQLite 3 and MySQL.
package sqldb

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/balccon/balcconator/core"
	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
)

type Dialect string

const (
	MySQL   Dialect = "mysql"
	SQLite3 Dialect = "sqlite3"
)

// serial returns the column definition of an auto-incrementing primary key.
func (d Dialect) serial() string {
	if d == MySQL {
		return "INTEGER PRIMARY KEY AUTO_INCREMENT"
	}
	return "INTEGER PRIMARY KEY"
}

func mustExec(db *sql.DB, query string) {
	if _, err := db.Exec(query); err != nil {
		panic(fmt.Sprintf("executing %q: %v", query, err))
	}
}

func mustPrepare(db *sql.DB, query string) *sql.Stmt {
	stmt, err := db.Prepare(query)
	if err != nil {
		panic(fmt.Sprintf("preparing %q: %v", query, err))
	}
	return stmt
}

// classify maps driver errors to core errors. The original error stays in the chain.
func classify(err error) error {

	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %w", core.ErrNotFound, err)
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%w: %w", core.ErrDuplicate, err)
		case sqlite3.ErrConstraintForeignKey:
			return fmt.Errorf("%w: %w", core.ErrInUse, err)
		}
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case 1062: // ER_DUP_ENTRY
			return fmt.Errorf("%w: %w", core.ErrDuplicate, err)
		case 1451, 1452: // ER_ROW_IS_REFERENCED_2, ER_NO_REFERENCED_ROW_2
			return fmt.Errorf("%w: %w", core.ErrInUse, err)
		}
	}

	return err
}

// requireAffected returns core.ErrNotFound if the statement has not affected any row.
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// rollback is called on error paths, its own error is less interesting than err.
func rollback(tx *sql.Tx, err error) error {
	_ = tx.Rollback()
	return classify(err)
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func fromUnix(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}

func toUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(i int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(i), Valid: i != 0}
}
