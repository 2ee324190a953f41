/*
DESCRIPTION
  store.go provides Store, a SQLite database of the identity stamped regions
  produced by each run of the pipeline.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package store persists tracked regions to SQLite.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/ausocean/utils/logging"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ausocean/skywatch/frame"
)

// ErrNoRun is returned when recording to a store opened with Load.
var ErrNoRun = errors.New("store has no current run")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	started TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS regions (
	run_id TEXT NOT NULL,
	frame INTEGER NOT NULL,
	track_id INTEGER NOT NULL,
	x1 INTEGER NOT NULL,
	y1 INTEGER NOT NULL,
	x2 INTEGER NOT NULL,
	y2 INTEGER NOT NULL,
	FOREIGN KEY(run_id) REFERENCES runs(run_id)
);
CREATE INDEX IF NOT EXISTS regions_run_frame ON regions (run_id, frame);
`

// Pragmas are passed in the DSN so every pooled connection applies them.
const (
	connPragmas  = "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	writePragmas = "&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	readOnly     = "&mode=ro"
)

// dsn returns the sqlite URI for the database at path.
func dsn(path string, write bool) string {
	if write {
		return "file:" + path + "?" + connPragmas + writePragmas
	}
	return "file:" + path + "?" + connPragmas + readOnly
}

// Store records regions under a run id generated when it is opened.
type Store struct {
	db    *sql.DB
	runID string
	log   logging.Logger
}

// Open opens or creates the database at path and starts a new run.
func Open(path string, log logging.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dsn(path, true))
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}
	_, err = db.Exec(schema)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create schema: %w", err)
	}
	s := &Store{db: db, runID: uuid.New().String(), log: log}
	_, err = s.db.Exec("INSERT INTO runs (run_id) VALUES (?)", s.runID)
	if err != nil {
		s.db.Close()
		return nil, fmt.Errorf("could not record run: %w", err)
	}
	log.Info("opened region store", "path", path, "run", s.runID)
	return s, nil
}

// Load opens the existing database at path read-only, without starting a
// run. The file is never modified.
func Load(path string, log logging.Logger) (*Store, error) {
	_, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("could not find database: %w", err)
	}
	db, err := sql.Open("sqlite", dsn(path, false))
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}
	err = db.Ping()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not open database: %w", err)
	}
	return &Store{db: db, log: log}, nil
}

// RunID returns the id of the current run, empty for a loaded store.
func (s *Store) RunID() string { return s.runID }

// Record inserts the regions of one frame in a single transaction.
func (s *Store) Record(regions []frame.Region) error {
	if s.runID == "" {
		return ErrNoRun
	}
	if len(regions) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	stmt, err := tx.Prepare("INSERT INTO regions (run_id, frame, track_id, x1, y1, x2, y2) VALUES (?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("could not prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range regions {
		_, err = stmt.Exec(s.runID, int64(r.Frame), int64(r.ID), r.Rect.Min.X, r.Rect.Min.Y, r.Rect.Max.X, r.Rect.Max.Y)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("could not insert region %v: %w", r, err)
		}
	}
	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("could not commit regions: %w", err)
	}
	s.log.Debug("recorded regions", "frame", regions[0].Frame, "count", len(regions))
	return nil
}

// Regions returns the regions of a run ordered by frame then identity.
func (s *Store) Regions(runID string) ([]frame.Region, error) {
	rows, err := s.db.Query("SELECT frame, track_id, x1, y1, x2, y2 FROM regions WHERE run_id = ? ORDER BY frame, track_id", runID)
	if err != nil {
		return nil, fmt.Errorf("could not query regions: %w", err)
	}
	defer rows.Close()

	var regions []frame.Region
	for rows.Next() {
		var (
			idx, id        int64
			x1, y1, x2, y2 int
		)
		if err := rows.Scan(&idx, &id, &x1, &y1, &x2, &y2); err != nil {
			return nil, err
		}
		regions = append(regions, frame.Region{Rect: image.Rect(x1, y1, x2, y2), ID: uint64(id), Frame: uint64(idx)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return regions, nil
}

// Runs returns the ids of all runs in the order they were started.
func (s *Store) Runs() ([]string, error) {
	rows, err := s.db.Query("SELECT run_id FROM runs ORDER BY started, rowid")
	if err != nil {
		return nil, fmt.Errorf("could not query runs: %w", err)
	}
	defer rows.Close()

	var runs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		runs = append(runs, id)
	}
	return runs, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }
