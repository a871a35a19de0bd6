package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadenrich/internal/config"
	"github.com/sells-group/leadenrich/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func createTestRun(t *testing.T, s *SQLiteStore) *model.Run {
	t.Helper()
	run, err := s.CreateRun(context.Background(), "carpet cleaners", "llm", 60, []string{"Name", "Website"})
	require.NoError(t, err)
	return run
}

func TestSQLite_RunLifecycle(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	run := createTestRun(t, s)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusQueued, run.Status)

	require.NoError(t, s.UpdateRunStatus(ctx, run.ID, model.RunStatusRunning, ""))
	require.NoError(t, s.UpdateRunStatus(ctx, run.ID, model.RunStatusComplete, ""))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	assert.Equal(t, "carpet cleaners", got.Niche)
	assert.Equal(t, "llm", got.Strategy)
	assert.Equal(t, 60, got.Threshold)
	assert.Equal(t, []string{"Name", "Website"}, got.Header)
}

func TestSQLite_RunNotFound(t *testing.T) {
	s := newTestSQLite(t)

	_, err := s.GetRun(context.Background(), "missing")
	require.Error(t, err)

	err = s.UpdateRunStatus(context.Background(), "missing", model.RunStatusFailed, "boom")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLite_ListRuns(t *testing.T) {
	s := newTestSQLite(t)

	createTestRun(t, s)
	createTestRun(t, s)

	runs, err := s.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestSQLite_ResultsRoundTrip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	run := createTestRun(t, s)

	leads := []model.Lead{
		{RowIndex: 0, Name: "Acme", RawURL: "acme.com", Cells: []string{"Acme", "acme.com"}},
		{RowIndex: 1, Name: "Bravo", RawURL: "", Cells: []string{"Bravo", ""}},
	}
	records := []model.Record{
		{RowIndex: 0, FitsNiche: model.Bool(true), Score: model.Int(85), Status: model.StatusSuccess},
		{RowIndex: 1, SkipReason: "No URL provided", Status: model.StatusNoURL},
	}
	require.NoError(t, s.SaveResults(ctx, run.ID, leads, records))

	gotLeads, gotRecords, err := s.GetResults(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, leads, gotLeads)
	assert.Equal(t, records, gotRecords)
}

func TestSQLite_SaveResults_Mismatch(t *testing.T) {
	s := newTestSQLite(t)
	run := createTestRun(t, s)

	err := s.SaveResults(context.Background(), run.ID, []model.Lead{{RowIndex: 0}}, nil)
	require.Error(t, err)
}

func TestSQLite_Overrides(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	run := createTestRun(t, s)

	ov, err := s.GetOverrides(ctx, run.ID)
	require.NoError(t, err)
	assert.Empty(t, ov)

	require.NoError(t, s.SetOverride(ctx, run.ID, 3, model.OverrideInclude))
	require.NoError(t, s.SetOverride(ctx, run.ID, 3, model.OverrideInclude)) // idempotent

	ov, err = s.GetOverrides(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, map[int]model.Override{3: model.OverrideInclude}, ov)

	// Setting skip is the same as clearing.
	require.NoError(t, s.SetOverride(ctx, run.ID, 3, model.OverrideSkip))
	ov, err = s.GetOverrides(ctx, run.ID)
	require.NoError(t, err)
	assert.Empty(t, ov)
}

func TestSQLite_OverridesScopedToRun(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	first := createTestRun(t, s)
	second := createTestRun(t, s)

	require.NoError(t, s.SetOverride(ctx, first.ID, 0, model.OverrideInclude))

	// A new run starts with an empty override map.
	ov, err := s.GetOverrides(ctx, second.ID)
	require.NoError(t, err)
	assert.Empty(t, ov)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Driver: "mysql"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}

func TestOpen_SQLite(t *testing.T) {
	cfg := config.StoreConfig{
		Driver:      "sqlite",
		DatabaseURL: filepath.Join(t.TempDir(), "open.db"),
	}
	s, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}
