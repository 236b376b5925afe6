// Package journal persists runs and their events to SQLite
package journal

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/lixenwraith/chaoswave/event"
)

// RunRecord is one row of the runs table; EndedAt is zero for unfinished runs
type RunRecord struct {
	ID        string `db:"id" json:"id"`
	Seed      int64  `db:"seed" json:"seed"`
	StartedAt int64  `db:"started_at" json:"started_at"` // Unix ms, game time
	EndedAt   int64  `db:"ended_at" json:"ended_at"`
	Waves     int    `db:"waves" json:"waves"`
	Victory   bool   `db:"victory" json:"victory"`
}

// EventRecord is one row of the events table; Payload is the JSON field map
type EventRecord struct {
	ID      int64  `db:"id" json:"id"`
	RunID   string `db:"run_id" json:"run_id"`
	Type    string `db:"type" json:"type"`
	At      int64  `db:"at" json:"at"`
	Payload string `db:"payload" json:"payload"`
}

// RecordOf flattens e for storage
func RecordOf(runID string, e event.Event) (EventRecord, error) {
	payload, err := json.Marshal(e.Fields())
	if err != nil {
		return EventRecord{}, fmt.Errorf("encode %s payload: %w", e.Type, err)
	}
	return EventRecord{RunID: runID, Type: string(e.Type), At: e.Time.UnixMilli(), Payload: string(payload)}, nil
}

// Store wraps the SQLite connection
type Store struct {
	conn *sqlx.DB
}

// Open opens or creates the database at path
func Open(path string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	conn.SetMaxOpenConns(1)

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		started_at INTEGER NOT NULL,
		ended_at INTEGER NOT NULL DEFAULT 0,
		waves INTEGER NOT NULL DEFAULT 0,
		victory INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		type TEXT NOT NULL,
		at INTEGER NOT NULL,
		payload TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_run ON events(run_id, id);
	CREATE INDEX IF NOT EXISTS idx_events_type ON events(type);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// BeginRun inserts a run row; a repeated id is ignored
func (s *Store) BeginRun(r RunRecord) error {
	_, err := s.conn.Exec(`INSERT OR IGNORE INTO runs (id, seed, started_at) VALUES (?, ?, ?)`,
		r.ID, r.Seed, r.StartedAt)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", r.ID, err)
	}
	return nil
}

// FinishRun records the final wave of a run
func (s *Store) FinishRun(id string, at time.Time, waves int, victory bool) error {
	_, err := s.conn.Exec(`UPDATE runs SET ended_at = ?, waves = ?, victory = ? WHERE id = ?`,
		at.UnixMilli(), waves, victory, id)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", id, err)
	}
	return nil
}

// SaveEvents appends records in one transaction
func (s *Store) SaveEvents(records []EventRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT INTO events (run_id, type, at, payload) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(r.RunID, r.Type, r.At, r.Payload); err != nil {
			return fmt.Errorf("insert %s event: %w", r.Type, err)
		}
	}
	return tx.Commit()
}

// Runs lists the most recent runs first
func (s *Store) Runs(limit int) ([]RunRecord, error) {
	var runs []RunRecord
	err := s.conn.Select(&runs, `SELECT id, seed, started_at, ended_at, waves, victory
		FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	return runs, err
}

// Run loads one run, ok=false when unknown
func (s *Store) Run(id string) (RunRecord, bool, error) {
	var r RunRecord
	err := s.conn.Get(&r, `SELECT id, seed, started_at, ended_at, waves, victory FROM runs WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, false, nil
	}
	if err != nil {
		return RunRecord{}, false, err
	}
	return r, true, nil
}

// Events lists a run's events in insertion order, optionally filtered by type
func (s *Store) Events(runID string, typ event.Type, limit int) ([]EventRecord, error) {
	var records []EventRecord
	var err error
	if typ == "" {
		err = s.conn.Select(&records, `SELECT id, run_id, type, at, payload FROM events
			WHERE run_id = ? ORDER BY id LIMIT ?`, runID, limit)
	} else {
		err = s.conn.Select(&records, `SELECT id, run_id, type, at, payload FROM events
			WHERE run_id = ? AND type = ? ORDER BY id LIMIT ?`, runID, string(typ), limit)
	}
	return records, err
}

// CountEvents returns the number of stored events of a run
func (s *Store) CountEvents(runID string) (int, error) {
	var n int
	err := s.conn.Get(&n, `SELECT COUNT(*) FROM events WHERE run_id = ?`, runID)
	return n, err
}
