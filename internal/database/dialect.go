package database

// Dialect abstracts the SQL differences between SQLite and PostgreSQL.
type Dialect interface {
	// DriverName returns the driver name for sql.Open().
	DriverName() string

	// Placeholder returns the parameter placeholder for the given position (1-indexed).
	// SQLite: "?" (ignores position), PostgreSQL: "$1", "$2", etc.
	Placeholder(position int) string

	// SupportsLastInsertID returns true if the database supports LastInsertId().
	SupportsLastInsertID() bool

	// ReturningClause returns the RETURNING clause for INSERT statements.
	ReturningClause(column string) string

	// SerialPrimaryKey returns the column definition of an auto-incrementing id.
	SerialPrimaryKey() string

	// InitStatements run once per connection pool before migrations.
	InitStatements() []string

	// IsDuplicateKeyError returns true if the error is a unique constraint violation.
	IsDuplicateKeyError(err error) bool

	// SyncSequenceStatement returns the statement that moves the id sequence
	// of table past rows inserted with explicit ids, or "" when the database
	// tracks that itself.
	SyncSequenceStatement(table string) string
}

// DialectType identifies the database dialect.
type DialectType string

const (
	DialectSQLite   DialectType = "sqlite"
	DialectPostgres DialectType = "postgres"
)

// NewDialect creates a new Dialect for the given type.
func NewDialect(dialectType DialectType) Dialect {
	switch dialectType {
	case DialectPostgres:
		return &PostgresDialect{}
	default:
		return &SQLiteDialect{}
	}
}
