package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrRunNotFound is returned when a run lookup fails.
var ErrRunNotFound = errors.New("run not found")

// DefaultListLimit is used by ListRuns when no positive limit is given.
const DefaultListLimit = 20

// Run is one stored generation request.
type Run struct {
	ID          int64
	Seed        int64
	Width       int
	Height      int
	Attempts    int
	OK          bool
	Fingerprint string // empty for failed runs
	Grid        string // rendered maze, empty for failed runs
	Error       string
	Source      string // "cli" or "ws"
	CreatedAt   time.Time
}

// SaveRun stores a run and sets its ID. Successful runs also store their
// grid in the mazes table, once per distinct fingerprint.
func (d *Database) SaveRun(run *Run) error {
	if run.Width <= 0 || run.Height <= 0 {
		return fmt.Errorf("invalid run dimensions %dx%d", run.Width, run.Height)
	}
	if run.Source == "" {
		run.Source = "cli"
	}

	var fingerprint sql.NullString
	if run.OK {
		if run.Grid == "" {
			return errors.New("successful run has no grid")
		}
		run.Fingerprint = Fingerprint(run.Grid)
		fingerprint = sql.NullString{String: run.Fingerprint, Valid: true}

		if err := d.saveMaze(run); err != nil {
			return err
		}
	}

	query := d.qb.BuildWithReturning(
		"INSERT INTO runs (seed, width, height, attempts, ok, fingerprint, error, source) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		"id",
	)
	args := []any{run.Seed, run.Width, run.Height, run.Attempts, boolToInt(run.OK), fingerprint, run.Error, run.Source}

	if d.dialect.SupportsLastInsertID() {
		result, err := d.db.Exec(query, args...)
		if err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get run ID: %w", err)
		}
		run.ID = id
	} else if err := d.db.QueryRow(query, args...).Scan(&run.ID); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	return nil
}

func (d *Database) saveMaze(run *Run) error {
	_, err := d.db.Exec(
		d.qb.Build("INSERT INTO mazes (fingerprint, width, height, grid) VALUES (?, ?, ?, ?)"),
		run.Fingerprint, run.Width, run.Height, run.Grid,
	)
	if err != nil && !d.dialect.IsDuplicateKeyError(err) {
		return fmt.Errorf("failed to save maze: %w", err)
	}
	return nil
}

const selectRuns = `SELECT r.id, r.seed, r.width, r.height, r.attempts, r.ok, r.fingerprint,
	r.error, r.source, r.created_at, m.grid
	FROM runs r LEFT JOIN mazes m ON m.fingerprint = r.fingerprint`

// GetRun retrieves a run by ID.
func (d *Database) GetRun(id int64) (*Run, error) {
	row := d.db.QueryRow(d.qb.Build(selectRuns+" WHERE r.id = ?"), id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first.
func (d *Database) ListRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return d.queryRuns(selectRuns+" ORDER BY r.id DESC LIMIT ?", limit)
}

// FindRunsByFingerprint returns every run that produced the given grid,
// oldest first.
func (d *Database) FindRunsByFingerprint(fingerprint string) ([]*Run, error) {
	return d.queryRuns(selectRuns+" WHERE r.fingerprint = ? ORDER BY r.id", fingerprint)
}

// CountMazes returns the number of distinct grids stored.
func (d *Database) CountMazes() (int, error) {
	var count int
	if err := d.db.QueryRow("SELECT COUNT(*) FROM mazes").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count mazes: %w", err)
	}
	return count, nil
}

func (d *Database) queryRuns(query string, args ...any) ([]*Run, error) {
	rows, err := d.db.Query(d.qb.Build(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run         Run
		ok          int
		fingerprint sql.NullString
		grid        sql.NullString
		createdAt   sql.NullTime
	)
	err := row.Scan(
		&run.ID, &run.Seed, &run.Width, &run.Height, &run.Attempts, &ok, &fingerprint,
		&run.Error, &run.Source, &createdAt, &grid,
	)
	if err != nil {
		return nil, err
	}
	run.OK = ok != 0
	run.Fingerprint = fingerprint.String
	run.Grid = grid.String
	if createdAt.Valid {
		run.CreatedAt = createdAt.Time
	}
	return &run, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
