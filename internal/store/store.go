// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists pipeline runs in SQLite: every stage's output
// snapshot is kept per run, so any intermediate state can be inspected
// or exported later. See docs/ARCHITECTURE § Run Store.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mxwei/hlameta/pkg/types"
)

const dbFile = "hlameta.db"

// Store manages the run history SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the run database at dataDir/hlameta.db,
// creating the schema if needed.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS stages (
			run_id TEXT NOT NULL REFERENCES runs(id),
			stage TEXT NOT NULL,
			seq INTEGER NOT NULL,
			record_count INTEGER NOT NULL,
			written_at TEXT NOT NULL,
			PRIMARY KEY (run_id, stage)
		)`,
		`CREATE TABLE IF NOT EXISTS records (
			run_id TEXT NOT NULL,
			stage TEXT NOT NULL,
			dataset_id TEXT NOT NULL,
			data TEXT NOT NULL,
			PRIMARY KEY (run_id, stage, dataset_id),
			FOREIGN KEY (run_id, stage) REFERENCES stages(run_id, stage)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_dataset ON records(dataset_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// BeginRun registers a new pipeline run and returns its identifier.
func (s *Store) BeginRun(ctx context.Context) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at) VALUES (?, ?)`,
		id, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("registering run: %w", err)
	}
	return id, nil
}

// SaveStage stores one stage's output snapshot under a run. Saving the
// same stage again replaces the previous snapshot, which is what a
// rerun of an idempotent stage should do.
func (s *Store) SaveStage(ctx context.Context, runID, stage string, seq int, snap types.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM records WHERE run_id = ? AND stage = ?`, runID, stage,
	); err != nil {
		return fmt.Errorf("clearing previous stage records: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO stages (run_id, stage, seq, record_count, written_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(run_id, stage) DO UPDATE SET
			seq=excluded.seq, record_count=excluded.record_count, written_at=excluded.written_at`,
		runID, stage, seq, len(snap.Records), time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("upserting stage row: %w", err)
	}

	for _, rec := range snap.Records {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encoding record %s: %w", rec.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO records (run_id, stage, dataset_id, data) VALUES (?, ?, ?, ?)`,
			runID, stage, rec.ID, string(data),
		); err != nil {
			return fmt.Errorf("inserting record %s: %w", rec.ID, err)
		}
	}

	return tx.Commit()
}

// LoadStage returns the snapshot a stage produced during a run,
// ordered by dataset identifier.
func (s *Store) LoadStage(ctx context.Context, runID, stage string) (types.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM records WHERE run_id = ? AND stage = ? ORDER BY dataset_id`,
		runID, stage,
	)
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("querying stage records: %w", err)
	}
	defer rows.Close()

	var snap types.Snapshot
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return types.Snapshot{}, fmt.Errorf("scanning record: %w", err)
		}
		var rec types.DatasetRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return types.Snapshot{}, fmt.Errorf("decoding record: %w", err)
		}
		snap.Records = append(snap.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return types.Snapshot{}, fmt.Errorf("iterating stage records: %w", err)
	}
	if len(snap.Records) == 0 {
		return types.Snapshot{}, fmt.Errorf("run %s has no snapshot for stage %q", runID, stage)
	}
	return snap, nil
}

// RunInfo describes one stored run.
type RunInfo struct {
	ID        string
	StartedAt string
	Stages    int
}

// ListRuns returns all stored runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.started_at, COUNT(st.stage)
		 FROM runs r LEFT JOIN stages st ON st.run_id = r.id
		 GROUP BY r.id ORDER BY r.started_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var info RunInfo
		if err := rows.Scan(&info.ID, &info.StartedAt, &info.Stages); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, info)
	}
	return runs, rows.Err()
}

// StageInfo describes one stored stage snapshot.
type StageInfo struct {
	Stage       string
	Seq         int
	RecordCount int
	WrittenAt   string
}

// StageHistory returns a run's stored stages in pipeline order.
func (s *Store) StageHistory(ctx context.Context, runID string) ([]StageInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT stage, seq, record_count, written_at FROM stages
		 WHERE run_id = ? ORDER BY seq`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying stages for run %s: %w", runID, err)
	}
	defer rows.Close()

	var stages []StageInfo
	for rows.Next() {
		var info StageInfo
		if err := rows.Scan(&info.Stage, &info.Seq, &info.RecordCount, &info.WrittenAt); err != nil {
			return nil, fmt.Errorf("scanning stage: %w", err)
		}
		stages = append(stages, info)
	}
	return stages, rows.Err()
}

// LatestRun returns the identifier of the most recent run.
func (s *Store) LatestRun(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM runs ORDER BY started_at DESC LIMIT 1`,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("no stored runs")
	}
	if err != nil {
		return "", fmt.Errorf("querying latest run: %w", err)
	}
	return id, nil
}
