package database

import (
	"database/sql"
	"errors"
	"fmt"
)

// CopyStats counts the rows CopyRuns wrote (or would write on a dry run).
type CopyStats struct {
	Mazes int64
	Runs  int64
}

// CopyRuns copies every stored maze and run from src into dst, keeping run
// IDs. Rows already present in dst are skipped, so an interrupted copy can
// be repeated. With dryRun set, rows are counted but nothing is written.
func CopyRuns(src, dst *Database, dryRun bool) (CopyStats, error) {
	var stats CopyStats

	mazes, err := copyMazes(src, dst, dryRun)
	stats.Mazes = mazes
	if err != nil {
		return stats, fmt.Errorf("failed to copy mazes: %w", err)
	}

	runs, err := copyRunRows(src, dst, dryRun)
	stats.Runs = runs
	if err != nil {
		return stats, fmt.Errorf("failed to copy runs: %w", err)
	}

	if !dryRun {
		if stmt := dst.dialect.SyncSequenceStatement("runs"); stmt != "" {
			if _, err := dst.db.Exec(stmt); err != nil {
				return stats, fmt.Errorf("failed to reset runs sequence: %w", err)
			}
		}
	}
	return stats, nil
}

func copyMazes(src, dst *Database, dryRun bool) (int64, error) {
	rows, err := src.db.Query(`SELECT fingerprint, width, height, grid, created_at FROM mazes ORDER BY created_at, fingerprint`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	exists := dst.qb.Build(`SELECT 1 FROM mazes WHERE fingerprint = ?`)
	insert := dst.qb.Build(`INSERT INTO mazes (fingerprint, width, height, grid, created_at) VALUES (?, ?, ?, ?, ?)`)

	var count int64
	for rows.Next() {
		var (
			fingerprint, grid string
			width, height     int
			createdAt         sql.NullTime
		)
		if err := rows.Scan(&fingerprint, &width, &height, &grid, &createdAt); err != nil {
			return count, err
		}

		present, err := rowExists(dst, exists, fingerprint)
		if err != nil {
			return count, err
		}
		if present {
			continue
		}
		if dryRun {
			count++
			continue
		}

		if _, err := dst.db.Exec(insert, fingerprint, width, height, grid, createdAt); err != nil {
			if dst.dialect.IsDuplicateKeyError(err) {
				continue
			}
			return count, err
		}
		count++
	}
	return count, rows.Err()
}

func copyRunRows(src, dst *Database, dryRun bool) (int64, error) {
	rows, err := src.db.Query(`SELECT id, seed, width, height, attempts, ok, fingerprint, error, source, created_at
		FROM runs ORDER BY id`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	exists := dst.qb.Build(`SELECT 1 FROM runs WHERE id = ?`)
	insert := dst.qb.Build(`INSERT INTO runs (id, seed, width, height, attempts, ok, fingerprint, error, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	var count int64
	for rows.Next() {
		var (
			id, seed                int64
			width, height, attempts int
			ok                      int
			fingerprint             sql.NullString
			errText, source         string
			createdAt               sql.NullTime
		)
		if err := rows.Scan(&id, &seed, &width, &height, &attempts, &ok, &fingerprint, &errText, &source, &createdAt); err != nil {
			return count, err
		}

		present, err := rowExists(dst, exists, id)
		if err != nil {
			return count, err
		}
		if present {
			continue
		}
		if dryRun {
			count++
			continue
		}

		_, err = dst.db.Exec(insert, id, seed, width, height, attempts, ok, fingerprint, errText, source, createdAt)
		if err != nil {
			if dst.dialect.IsDuplicateKeyError(err) {
				continue
			}
			return count, err
		}
		count++
	}
	return count, rows.Err()
}

func rowExists(d *Database, query string, key any) (bool, error) {
	var one int
	err := d.db.QueryRow(query, key).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
