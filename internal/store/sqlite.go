package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/leadenrich/internal/model"
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
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL DEFAULT 'queued',
	niche      TEXT NOT NULL,
	strategy   TEXT NOT NULL,
	threshold  INTEGER NOT NULL,
	header     TEXT NOT NULL,
	error      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS results (
	run_id    TEXT NOT NULL REFERENCES runs(id),
	row_index INTEGER NOT NULL,
	lead      TEXT NOT NULL,
	record    TEXT NOT NULL,
	PRIMARY KEY (run_id, row_index)
);

CREATE TABLE IF NOT EXISTS overrides (
	run_id    TEXT NOT NULL REFERENCES runs(id),
	row_index INTEGER NOT NULL,
	decision  TEXT NOT NULL,
	PRIMARY KEY (run_id, row_index)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_results_run_id ON results(run_id);
CREATE INDEX IF NOT EXISTS idx_overrides_run_id ON overrides(run_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, niche, strategy string, threshold int, header []string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal header")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, status, niche, strategy, threshold, header, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, string(model.RunStatusQueued), niche, strategy, threshold, string(headerJSON), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Status:    model.RunStatusQueued,
		Niche:     niche,
		Strategy:  strategy,
		Threshold: threshold,
		Header:    header,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(status), errMsg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run status %s", runID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: run %s not found", runID)
	}
	return nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, status, niche, strategy, threshold, header, error, created_at, updated_at FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status, niche, strategy, threshold, header, error, created_at, updated_at FROM runs ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs")
}

// rowScanner abstracts *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*model.Run, error) {
	var run model.Run
	var headerJSON string
	err := row.Scan(&run.ID, &run.Status, &run.Niche, &run.Strategy, &run.Threshold, &headerJSON, &run.Error, &run.CreatedAt, &run.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Wrap(err, "sqlite: run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}
	if err := json.Unmarshal([]byte(headerJSON), &run.Header); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal header")
	}
	return &run, nil
}

func (s *SQLiteStore) SaveResults(ctx context.Context, runID string, leads []model.Lead, records []model.Record) error {
	if len(leads) != len(records) {
		return eris.Errorf("sqlite: %d leads but %d records", len(leads), len(records))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	for i := range leads {
		leadJSON, err := json.Marshal(leads[i])
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal lead")
		}
		recordJSON, err := json.Marshal(records[i])
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal record")
		}
		_, err = tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO results (run_id, row_index, lead, record) VALUES (?, ?, ?, ?)`,
			runID, leads[i].RowIndex, string(leadJSON), string(recordJSON),
		)
		if err != nil {
			return eris.Wrap(err, "sqlite: insert result")
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit results")
}

func (s *SQLiteStore) GetResults(ctx context.Context, runID string) ([]model.Lead, []model.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT lead, record FROM results WHERE run_id = ? ORDER BY row_index ASC`,
		runID,
	)
	if err != nil {
		return nil, nil, eris.Wrap(err, "sqlite: get results")
	}
	defer rows.Close()

	var leads []model.Lead
	var records []model.Record
	for rows.Next() {
		var leadJSON, recordJSON string
		if err := rows.Scan(&leadJSON, &recordJSON); err != nil {
			return nil, nil, eris.Wrap(err, "sqlite: scan result")
		}
		var lead model.Lead
		if err := json.Unmarshal([]byte(leadJSON), &lead); err != nil {
			return nil, nil, eris.Wrap(err, "sqlite: unmarshal lead")
		}
		var record model.Record
		if err := json.Unmarshal([]byte(recordJSON), &record); err != nil {
			return nil, nil, eris.Wrap(err, "sqlite: unmarshal record")
		}
		leads = append(leads, lead)
		records = append(records, record)
	}
	return leads, records, eris.Wrap(rows.Err(), "sqlite: get results")
}

func (s *SQLiteStore) SetOverride(ctx context.Context, runID string, rowIndex int, decision model.Override) error {
	if decision == model.OverrideSkip {
		return s.ClearOverride(ctx, runID, rowIndex)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO overrides (run_id, row_index, decision) VALUES (?, ?, ?)`,
		runID, rowIndex, string(decision),
	)
	return eris.Wrap(err, "sqlite: set override")
}

func (s *SQLiteStore) ClearOverride(ctx context.Context, runID string, rowIndex int) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM overrides WHERE run_id = ? AND row_index = ?`,
		runID, rowIndex,
	)
	return eris.Wrap(err, "sqlite: clear override")
}

func (s *SQLiteStore) GetOverrides(ctx context.Context, runID string) (map[int]model.Override, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT row_index, decision FROM overrides WHERE run_id = ?`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get overrides")
	}
	defer rows.Close()

	out := make(map[int]model.Override)
	for rows.Next() {
		var idx int
		var decision string
		if err := rows.Scan(&idx, &decision); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan override")
		}
		out[idx] = model.Override(decision)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: get overrides")
}
