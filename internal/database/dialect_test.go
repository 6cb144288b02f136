package database

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/lib/pq"
)

// =============================================================================
// Dialect Tests
// =============================================================================

func TestNewDialect(t *testing.T) {
	if _, ok := NewDialect(DialectSQLite).(*SQLiteDialect); !ok {
		t.Error("NewDialect(sqlite) should return *SQLiteDialect")
	}
	if _, ok := NewDialect(DialectPostgres).(*PostgresDialect); !ok {
		t.Error("NewDialect(postgres) should return *PostgresDialect")
	}
	if _, ok := NewDialect("unknown").(*SQLiteDialect); !ok {
		t.Error("unknown dialect should default to *SQLiteDialect")
	}
}

func TestSQLiteDialect(t *testing.T) {
	d := &SQLiteDialect{}

	if got := d.DriverName(); got != "sqlite" {
		t.Errorf("DriverName() = %q, want %q", got, "sqlite")
	}
	for _, pos := range []int{1, 2, 10} {
		if got := d.Placeholder(pos); got != "?" {
			t.Errorf("Placeholder(%d) = %q, want ?", pos, got)
		}
	}
	if !d.SupportsLastInsertID() {
		t.Error("SupportsLastInsertID() = false, want true")
	}
	if got := d.ReturningClause("id"); got != "" {
		t.Errorf("ReturningClause() = %q, want empty string", got)
	}
	if got := d.SerialPrimaryKey(); !strings.Contains(got, "AUTOINCREMENT") {
		t.Errorf("SerialPrimaryKey() = %q", got)
	}
	if got := len(d.InitStatements()); got != 3 {
		t.Errorf("InitStatements() returned %d statements, want 3", got)
	}
	if got := d.SyncSequenceStatement("runs"); got != "" {
		t.Errorf("SyncSequenceStatement() = %q, want empty string", got)
	}
}

func TestSQLiteDialect_IsDuplicateKeyError(t *testing.T) {
	d := &SQLiteDialect{}
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("some random error"), false},
		{errors.New("UNIQUE constraint failed: mazes.fingerprint"), true},
		{errors.New("constraint failed: PRIMARY KEY constraint failed"), true},
		{errors.New("FOREIGN KEY constraint failed"), false},
	}
	for _, tt := range tests {
		if got := d.IsDuplicateKeyError(tt.err); got != tt.want {
			t.Errorf("IsDuplicateKeyError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestPostgresDialect(t *testing.T) {
	d := &PostgresDialect{}

	if got := d.DriverName(); got != "postgres" {
		t.Errorf("DriverName() = %q, want %q", got, "postgres")
	}
	for _, pos := range []int{1, 2, 10} {
		if got, want := d.Placeholder(pos), fmt.Sprintf("$%d", pos); got != want {
			t.Errorf("Placeholder(%d) = %q, want %q", pos, got, want)
		}
	}
	if d.SupportsLastInsertID() {
		t.Error("SupportsLastInsertID() = true, want false")
	}
	if got := d.ReturningClause("id"); got != " RETURNING id" {
		t.Errorf("ReturningClause() = %q, want %q", got, " RETURNING id")
	}
	if got := d.SerialPrimaryKey(); got != "BIGSERIAL PRIMARY KEY" {
		t.Errorf("SerialPrimaryKey() = %q", got)
	}
	want := "SELECT setval('runs_id_seq', COALESCE((SELECT MAX(id) FROM runs), 0) + 1, false)"
	if got := d.SyncSequenceStatement("runs"); got != want {
		t.Errorf("SyncSequenceStatement() = %q, want %q", got, want)
	}
}

func TestPostgresDialect_IsDuplicateKeyError(t *testing.T) {
	d := &PostgresDialect{}
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"random", errors.New("connection refused"), false},
		{"pq unique", &pq.Error{Code: "23505"}, true},
		{"wrapped pq unique", fmt.Errorf("failed to save maze: %w", &pq.Error{Code: "23505"}), true},
		{"pq foreign key", &pq.Error{Code: "23503"}, false},
		{"message only", errors.New(`duplicate key value violates unique constraint "mazes_pkey"`), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.IsDuplicateKeyError(tt.err); got != tt.want {
				t.Errorf("IsDuplicateKeyError() = %v, want %v", got, tt.want)
			}
		})
	}
}

// =============================================================================
// QueryBuilder Tests
// =============================================================================

func TestQueryBuilder_Build(t *testing.T) {
	tests := []struct {
		input    string
		sqlite   string
		postgres string
	}{
		{"SELECT * FROM runs", "SELECT * FROM runs", "SELECT * FROM runs"},
		{"SELECT * FROM runs WHERE id = ?", "SELECT * FROM runs WHERE id = ?", "SELECT * FROM runs WHERE id = $1"},
		{
			"INSERT INTO mazes (fingerprint, grid) VALUES (?, ?)",
			"INSERT INTO mazes (fingerprint, grid) VALUES (?, ?)",
			"INSERT INTO mazes (fingerprint, grid) VALUES ($1, $2)",
		},
		{
			"SELECT * FROM runs WHERE error = 'why?' AND id = ?",
			"SELECT * FROM runs WHERE error = 'why?' AND id = ?",
			"SELECT * FROM runs WHERE error = 'why?' AND id = $1",
		},
		{"", "", ""},
	}

	sqlite := NewQueryBuilder(&SQLiteDialect{})
	postgres := NewQueryBuilder(&PostgresDialect{})
	for _, tt := range tests {
		if got := sqlite.Build(tt.input); got != tt.sqlite {
			t.Errorf("sqlite Build(%q) = %q, want %q", tt.input, got, tt.sqlite)
		}
		if got := postgres.Build(tt.input); got != tt.postgres {
			t.Errorf("postgres Build(%q) = %q, want %q", tt.input, got, tt.postgres)
		}
	}
}

func TestQueryBuilder_BuildWithReturning(t *testing.T) {
	query := "INSERT INTO runs (seed, width) VALUES (?, ?)"

	if got := NewQueryBuilder(&SQLiteDialect{}).BuildWithReturning(query, "id"); got != query {
		t.Errorf("sqlite BuildWithReturning() = %q, want %q", got, query)
	}

	want := "INSERT INTO runs (seed, width) VALUES ($1, $2) RETURNING id"
	if got := NewQueryBuilder(&PostgresDialect{}).BuildWithReturning(query, "id"); got != want {
		t.Errorf("postgres BuildWithReturning() = %q, want %q", got, want)
	}
}

// =============================================================================
// Config Tests
// =============================================================================

func TestDefaultConfig(t *testing.T) {
	path := "/path/to/test.db"
	cfg := DefaultConfig(path)

	if cfg.Driver != "sqlite" {
		t.Errorf("Driver = %q, want %q", cfg.Driver, "sqlite")
	}
	if cfg.SQLitePath != path {
		t.Errorf("SQLitePath = %q, want %q", cfg.SQLitePath, path)
	}
	if cfg.Postgres.Port != 5432 {
		t.Errorf("Postgres.Port = %d, want 5432", cfg.Postgres.Port)
	}
}

func TestDefaultPostgresConfig(t *testing.T) {
	cfg := DefaultPostgresConfig()

	if cfg.Host != "localhost" {
		t.Errorf("Host = %q, want %q", cfg.Host, "localhost")
	}
	if cfg.SSLMode != "disable" {
		t.Errorf("SSLMode = %q, want %q", cfg.SSLMode, "disable")
	}
	if cfg.ConnMaxLifetime != 5*time.Minute {
		t.Errorf("ConnMaxLifetime = %v, want %v", cfg.ConnMaxLifetime, 5*time.Minute)
	}
}

func TestPostgresConfig_DSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  PostgresConfig
		want string
	}{
		{
			"full",
			PostgresConfig{Host: "db.example.com", Port: 5433, User: "maze", Password: "secret", Database: "mazewave", SSLMode: "require"},
			"host=db.example.com port=5433 user=maze password=secret dbname=mazewave sslmode=require",
		},
		{
			"quoted password",
			PostgresConfig{Host: "localhost", Password: "it's a secret"},
			`host=localhost password='it\'s a secret'`,
		},
		{"empty", PostgresConfig{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.DSN(); got != tt.want {
				t.Errorf("DSN() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDialect_InterfaceCompliance(t *testing.T) {
	var _ Dialect = (*SQLiteDialect)(nil)
	var _ Dialect = (*PostgresDialect)(nil)
}
