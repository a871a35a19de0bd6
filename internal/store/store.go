// Package store persists enrichment runs, their per-row records, and the
// per-run override side-table.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadenrich/internal/config"
	"github.com/sells-group/leadenrich/internal/model"
)

// Store defines the persistence interface for enrichment runs. Records and
// overrides are keyed by (run, row index); overrides live in their own table
// so re-deriving the qualified set never touches the records.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, niche, strategy string, threshold int, header []string) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus, errMsg string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, limit int) ([]model.Run, error)

	// Results
	SaveResults(ctx context.Context, runID string, leads []model.Lead, records []model.Record) error
	GetResults(ctx context.Context, runID string) ([]model.Lead, []model.Record, error)

	// Overrides
	SetOverride(ctx context.Context, runID string, rowIndex int, decision model.Override) error
	ClearOverride(ctx context.Context, runID string, rowIndex int) error
	GetOverrides(ctx context.Context, runID string) (map[int]model.Override, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open creates a Store for the configured driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite":
		return NewSQLite(cfg.DatabaseURL)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
