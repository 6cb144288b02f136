package database

import (
	"strings"
)

// SQLiteDialect implements Dialect for the modernc.org/sqlite driver.
type SQLiteDialect struct{}

func (d *SQLiteDialect) DriverName() string {
	return "sqlite"
}

func (d *SQLiteDialect) Placeholder(position int) string {
	return "?"
}

func (d *SQLiteDialect) SupportsLastInsertID() bool {
	return true
}

func (d *SQLiteDialect) ReturningClause(column string) string {
	return ""
}

func (d *SQLiteDialect) SerialPrimaryKey() string {
	return "INTEGER PRIMARY KEY AUTOINCREMENT"
}

// InitStatements returns the PRAGMAs every mazewave SQLite file runs with.
func (d *SQLiteDialect) InitStatements() []string {
	return []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
}

func (d *SQLiteDialect) IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "PRIMARY KEY constraint failed")
}

// SyncSequenceStatement returns "": AUTOINCREMENT updates sqlite_sequence on
// explicit inserts.
func (d *SQLiteDialect) SyncSequenceStatement(table string) string {
	return ""
}
