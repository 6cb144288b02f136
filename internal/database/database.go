// Package database stores generation runs in SQLite or PostgreSQL.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Database wraps the SQL connection pool and provides persistence operations.
type Database struct {
	db      *sql.DB
	dialect Dialect
	qb      *QueryBuilder
}

// Open opens or creates the SQLite database at the given path.
func Open(path string) (*Database, error) {
	return OpenWithConfig(DefaultConfig(path))
}

// OpenWithConfig opens the database selected by cfg.Driver and runs the
// schema migrations.
func OpenWithConfig(cfg Config) (*Database, error) {
	var (
		dialect Dialect
		dsn     string
	)

	switch DialectType(cfg.Driver) {
	case DialectSQLite, "":
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("sqlite path is required")
		}
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dialect = NewDialect(DialectSQLite)
		dsn = cfg.SQLitePath
	case DialectPostgres:
		dialect = NewDialect(DialectPostgres)
		dsn = cfg.Postgres.DSN()
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, ok := dialect.(*SQLiteDialect); ok {
		// PRAGMAs are per connection
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.Postgres.ConnMaxLifetime)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	for _, stmt := range dialect.InitStatements() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize database (%s): %w", stmt, err)
		}
	}

	d := &Database{db: db, dialect: dialect, qb: NewQueryBuilder(dialect)}

	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return d, nil
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// Dialect returns the SQL dialect in use.
func (d *Database) Dialect() Dialect {
	return d.dialect
}

// migrate creates the database schema if it doesn't exist.
func (d *Database) migrate() error {
	migrations := []string{
		// Distinct collapsed grids, keyed by their fingerprint
		`CREATE TABLE IF NOT EXISTS mazes (
			fingerprint TEXT PRIMARY KEY,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			grid TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		// One row per generate request, successful or not
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS runs (
			id %s,
			seed BIGINT NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			attempts INTEGER NOT NULL,
			ok INTEGER NOT NULL DEFAULT 0,
			fingerprint TEXT REFERENCES mazes(fingerprint),
			error TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL DEFAULT 'cli',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`, d.dialect.SerialPrimaryKey()),

		`CREATE INDEX IF NOT EXISTS idx_runs_fingerprint ON runs(fingerprint)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}

	return nil
}

// DB returns the underlying sql.DB for advanced operations.
func (d *Database) DB() *sql.DB {
	return d.db
}
