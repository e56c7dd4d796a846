package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qualityreport/internal/extract"
	"qualityreport/internal/report"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "qualityreport-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func snapshotFor(ref time.Time, criticalPRBs int) *report.Snapshot {
	s := &report.Snapshot{Team: "SDB", Week: report.WeekFor(ref)}
	for i := 0; i < criticalPRBs; i++ {
		p := extract.NewProblemReport("PRB000000" + string(rune('1'+i)))
		p.Priority = "P1-High"
		s.ProblemReports = append(s.ProblemReports, p)
	}
	s.ProductionBugs = []extract.ProductionBug{extract.NewProductionBug("W-12345678")}
	s.CIIssues = []extract.WorkItem{{ID: "W-11111111", Source: extract.SourceCI, Priority: "P2"}}
	s.Backlogs = map[string][]extract.BacklogItem{
		"ci_backlog": {{ID: "W-22222222", Source: extract.SourceCI, Priority: "P1"}},
	}
	s.Finalize(ref)
	return s
}

func TestOpenCreatesRunColumns(t *testing.T) {
	store := newTestStore(t)

	rows, err := store.db.Query(`SELECT name FROM pragma_table_info('runs')`)
	require.NoError(t, err)
	defer rows.Close()
	var cols []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		cols = append(cols, name)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"id", "team", "period_start", "period_end", "report_path", "email_path", "snapshot", "generated_at", "created_at"}, cols)
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	assert.NoError(t, second.Close())
}

func TestSaveRunAndPreviousRun(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	older := snapshotFor(time.Date(2025, 9, 10, 9, 0, 0, 0, time.UTC), 1)
	newer := snapshotFor(time.Date(2025, 9, 17, 9, 0, 0, 0, time.UTC), 3)

	require.NoError(t, store.SaveRun(ctx, older, report.Files{Markdown: "/r/SDB_20250910.md"}))
	require.NoError(t, store.SaveRun(ctx, newer, report.Files{Markdown: "/r/SDB_20250917.md", EmailDraft: "/r/SDB_20250917.eml"}))
	assert.NotEmpty(t, older.RunID, "a run id is assigned on save")
	assert.NotEqual(t, older.RunID, newer.RunID)

	prev, err := store.PreviousRun(ctx, "SDB", newer.Week.StartISO())
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, older.RunID, prev.RunID)
	assert.Equal(t, 1, prev.Metadata.Sources.CriticalPRBs)
	assert.Equal(t, older.Week.StartISO(), prev.Week.StartISO())

	none, err := store.PreviousRun(ctx, "SDB", older.Week.StartISO())
	require.NoError(t, err)
	assert.Nil(t, none)

	other, err := store.PreviousRun(ctx, "Other Team", "2030-01-01")
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestRunsAndRecordCounts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	snap := snapshotFor(time.Date(2025, 9, 17, 9, 0, 0, 0, time.UTC), 2)
	require.NoError(t, store.SaveRun(ctx, snap, report.Files{Markdown: "a.md", EmailDraft: "a.eml"}))

	runs, err := store.Runs(ctx, "SDB", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, snap.RunID, runs[0].ID)
	assert.Equal(t, "2025-09-08", runs[0].PeriodStart)
	assert.Equal(t, "2025-09-14", runs[0].PeriodEnd)
	assert.Equal(t, "a.eml", runs[0].EmailPath)

	counts, err := store.RecordCounts(ctx, snap.RunID)
	require.NoError(t, err)
	assert.Equal(t, map[extract.Kind]int{
		extract.KindProblemReport: 2,
		extract.KindProductionBug: 1,
		extract.KindWorkItem:      1,
		extract.KindBacklogItem:   1,
	}, counts)
}

func TestFirstSeen(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRun(ctx, snapshotFor(time.Date(2025, 9, 10, 0, 0, 0, 0, time.UTC), 1), report.Files{}))
	require.NoError(t, store.SaveRun(ctx, snapshotFor(time.Date(2025, 9, 17, 0, 0, 0, 0, time.UTC), 2), report.Files{}))

	first, err := store.FirstSeen(ctx, extract.KindProblemReport, "PRB0000002")
	require.NoError(t, err)
	assert.Equal(t, "2025-09-08", first)

	first, err = store.FirstSeen(ctx, extract.KindProblemReport, "PRB0000001")
	require.NoError(t, err)
	assert.Equal(t, "2025-09-01", first)

	missing, err := store.FirstSeen(ctx, extract.KindProductionBug, "W-99999999")
	require.NoError(t, err)
	assert.Empty(t, missing)
}
