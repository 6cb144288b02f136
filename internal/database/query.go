package database

import (
	"strings"
)

// QueryBuilder converts SQL queries with ? placeholders to dialect-specific format.
type QueryBuilder struct {
	dialect Dialect
}

// NewQueryBuilder creates a new QueryBuilder for the given dialect.
func NewQueryBuilder(dialect Dialect) *QueryBuilder {
	return &QueryBuilder{dialect: dialect}
}

// Build rewrites each ? outside a quoted string literal with the dialect's
// placeholder for its position.
//
// Example:
//
//	input:    "SELECT grid FROM mazes WHERE fingerprint = ? AND width = ?"
//	SQLite:   "SELECT grid FROM mazes WHERE fingerprint = ? AND width = ?"
//	Postgres: "SELECT grid FROM mazes WHERE fingerprint = $1 AND width = $2"
func (qb *QueryBuilder) Build(query string) string {
	if _, ok := qb.dialect.(*SQLiteDialect); ok {
		return query
	}

	var result strings.Builder
	result.Grow(len(query) + 8)
	position := 1
	inString := false

	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inString = !inString
			result.WriteByte(c)
		case c == '?' && !inString:
			result.WriteString(qb.dialect.Placeholder(position))
			position++
		default:
			result.WriteByte(c)
		}
	}

	return result.String()
}

// BuildWithReturning appends a RETURNING clause if the dialect has no
// LastInsertId support.
func (qb *QueryBuilder) BuildWithReturning(query string, column string) string {
	converted := qb.Build(query)
	if !qb.dialect.SupportsLastInsertID() {
		converted += qb.dialect.ReturningClause(column)
	}
	return converted
}
