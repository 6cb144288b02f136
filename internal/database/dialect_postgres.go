package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// PostgresDialect implements Dialect for the lib/pq driver.
type PostgresDialect struct{}

func (d *PostgresDialect) DriverName() string {
	return "postgres"
}

func (d *PostgresDialect) Placeholder(position int) string {
	return fmt.Sprintf("$%d", position)
}

func (d *PostgresDialect) SupportsLastInsertID() bool {
	return false
}

func (d *PostgresDialect) ReturningClause(column string) string {
	return fmt.Sprintf(" RETURNING %s", column)
}

func (d *PostgresDialect) SerialPrimaryKey() string {
	return "BIGSERIAL PRIMARY KEY"
}

// InitStatements silences the NOTICE that CREATE ... IF NOT EXISTS emits
// for existing tables.
func (d *PostgresDialect) InitStatements() []string {
	return []string{
		"SET client_min_messages TO WARNING",
	}
}

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation
const uniqueViolation = "23505"

func (d *PostgresDialect) IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolation
	}
	return strings.Contains(err.Error(), "duplicate key")
}

func (d *PostgresDialect) SyncSequenceStatement(table string) string {
	return fmt.Sprintf("SELECT setval('%s_id_seq', COALESCE((SELECT MAX(id) FROM %s), 0) + 1, false)", table, table)
}
