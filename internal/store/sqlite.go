package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS board_runs (
	id                TEXT PRIMARY KEY,
	season            INTEGER NOT NULL,
	players           INTEGER NOT NULL,
	validation_status TEXT NOT NULL,
	validation        TEXT NOT NULL,
	board             TEXT NOT NULL,
	created_at        DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_board_runs_season ON board_runs(season);
CREATE INDEX IF NOT EXISTS idx_board_runs_created_at ON board_runs(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap Snapshot) (*Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	validationJSON, err := json.Marshal(snap.Validation)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal validation")
	}
	boardJSON, err := json.Marshal(snap.Entries)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal board")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO board_runs (id, season, players, validation_status, validation, board, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, snap.Season, len(snap.Entries), snap.Validation.Status,
		string(validationJSON), string(boardJSON), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &Run{
		ID:               id,
		Season:           snap.Season,
		Players:          len(snap.Entries),
		ValidationStatus: snap.Validation.Status,
		CreatedAt:        now,
	}, nil
}

func (s *SQLiteStore) GetSnapshot(ctx context.Context, runID string) (*Run, *Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, season, players, validation_status, validation, board, created_at
		 FROM board_runs WHERE id = ?`,
		runID,
	)
	run, snap, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, nil, eris.Errorf("run not found: %s", runID)
	}
	return run, snap, err
}

func (s *SQLiteStore) LatestSnapshot(ctx context.Context) (*Run, *Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, season, players, validation_status, validation, board, created_at
		 FROM board_runs ORDER BY created_at DESC, id DESC LIMIT 1`,
	)
	run, snap, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, nil, nil
	}
	return run, snap, err
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, season, players, validation_status, created_at
		 FROM board_runs ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Season, &r.Players, &r.ValidationStatus, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

type scannable interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scannable) (*Run, *Snapshot, error) {
	var r Run
	var snap Snapshot
	var validationJSON, boardJSON string

	err := row.Scan(&r.ID, &r.Season, &r.Players, &r.ValidationStatus,
		&validationJSON, &boardJSON, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil, err
	}
	if err != nil {
		return nil, nil, eris.Wrap(err, "sqlite: scan snapshot")
	}

	snap.Season = r.Season
	if err := json.Unmarshal([]byte(validationJSON), &snap.Validation); err != nil {
		return nil, nil, eris.Wrap(err, "sqlite: unmarshal validation")
	}
	if err := json.Unmarshal([]byte(boardJSON), &snap.Entries); err != nil {
		return nil, nil, eris.Wrap(err, "sqlite: unmarshal board")
	}
	return &r, &snap, nil
}
