package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadenrich/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL DEFAULT 'queued',
	niche      TEXT NOT NULL,
	strategy   TEXT NOT NULL,
	threshold  INTEGER NOT NULL,
	header     JSONB NOT NULL,
	error      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS results (
	run_id    TEXT NOT NULL REFERENCES runs(id),
	row_index INTEGER NOT NULL,
	lead      JSONB NOT NULL,
	record    JSONB NOT NULL,
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

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, niche, strategy string, threshold int, header []string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal header")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO runs (id, status, niche, strategy, threshold, header, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, string(model.RunStatusQueued), niche, strategy, threshold, headerJSON, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
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

func (s *PostgresStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus, errMsg string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, error = $2, updated_at = $3 WHERE id = $4`,
		string(status), errMsg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run status %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: run %s not found", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	var run model.Run
	var headerJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, status, niche, strategy, threshold, header, error, created_at, updated_at FROM runs WHERE id = $1`,
		runID,
	).Scan(&run.ID, &run.Status, &run.Niche, &run.Strategy, &run.Threshold, &headerJSON, &run.Error, &run.CreatedAt, &run.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get run")
	}
	if err := json.Unmarshal(headerJSON, &run.Header); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal header")
	}
	return &run, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, status, niche, strategy, threshold, header, error, created_at, updated_at FROM runs ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var run model.Run
		var headerJSON []byte
		if err := rows.Scan(&run.ID, &run.Status, &run.Niche, &run.Strategy, &run.Threshold, &headerJSON, &run.Error, &run.CreatedAt, &run.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		if err := json.Unmarshal(headerJSON, &run.Header); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal header")
		}
		runs = append(runs, run)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs")
}

func (s *PostgresStore) SaveResults(ctx context.Context, runID string, leads []model.Lead, records []model.Record) error {
	if len(leads) != len(records) {
		return eris.Errorf("postgres: %d leads but %d records", len(leads), len(records))
	}

	for i := range leads {
		leadJSON, err := json.Marshal(leads[i])
		if err != nil {
			return eris.Wrap(err, "postgres: marshal lead")
		}
		recordJSON, err := json.Marshal(records[i])
		if err != nil {
			return eris.Wrap(err, "postgres: marshal record")
		}
		_, err = s.pool.Exec(ctx,
			`INSERT INTO results (run_id, row_index, lead, record) VALUES ($1, $2, $3, $4)
			 ON CONFLICT (run_id, row_index) DO UPDATE SET lead = EXCLUDED.lead, record = EXCLUDED.record`,
			runID, leads[i].RowIndex, leadJSON, recordJSON,
		)
		if err != nil {
			return eris.Wrap(err, "postgres: insert result")
		}
	}
	return nil
}

func (s *PostgresStore) GetResults(ctx context.Context, runID string) ([]model.Lead, []model.Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT lead, record FROM results WHERE run_id = $1 ORDER BY row_index ASC`,
		runID,
	)
	if err != nil {
		return nil, nil, eris.Wrap(err, "postgres: get results")
	}
	defer rows.Close()

	var leads []model.Lead
	var records []model.Record
	for rows.Next() {
		var leadJSON, recordJSON []byte
		if err := rows.Scan(&leadJSON, &recordJSON); err != nil {
			return nil, nil, eris.Wrap(err, "postgres: scan result")
		}
		var lead model.Lead
		if err := json.Unmarshal(leadJSON, &lead); err != nil {
			return nil, nil, eris.Wrap(err, "postgres: unmarshal lead")
		}
		var record model.Record
		if err := json.Unmarshal(recordJSON, &record); err != nil {
			return nil, nil, eris.Wrap(err, "postgres: unmarshal record")
		}
		leads = append(leads, lead)
		records = append(records, record)
	}
	return leads, records, eris.Wrap(rows.Err(), "postgres: get results")
}

func (s *PostgresStore) SetOverride(ctx context.Context, runID string, rowIndex int, decision model.Override) error {
	if decision == model.OverrideSkip {
		return s.ClearOverride(ctx, runID, rowIndex)
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO overrides (run_id, row_index, decision) VALUES ($1, $2, $3)
		 ON CONFLICT (run_id, row_index) DO UPDATE SET decision = EXCLUDED.decision`,
		runID, rowIndex, string(decision),
	)
	return eris.Wrap(err, "postgres: set override")
}

func (s *PostgresStore) ClearOverride(ctx context.Context, runID string, rowIndex int) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM overrides WHERE run_id = $1 AND row_index = $2`,
		runID, rowIndex,
	)
	return eris.Wrap(err, "postgres: clear override")
}

func (s *PostgresStore) GetOverrides(ctx context.Context, runID string) (map[int]model.Override, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT row_index, decision FROM overrides WHERE run_id = $1`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get overrides")
	}
	defer rows.Close()

	out := make(map[int]model.Override)
	for rows.Next() {
		var idx int
		var decision string
		if err := rows.Scan(&idx, &decision); err != nil {
			return nil, eris.Wrap(err, "postgres: scan override")
		}
		out[idx] = model.Override(decision)
	}
	return out, eris.Wrap(rows.Err(), "postgres: get overrides")
}
