// Package sqlite archives report runs so later runs can compare against them.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"qualityreport/internal/extract"
	"qualityreport/internal/report"
)

type Store struct {
	db *sql.DB
}

// Open creates the archive schema at path if it does not exist yet.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id            TEXT PRIMARY KEY,
		team          TEXT NOT NULL,
		period_start  TEXT NOT NULL,
		period_end    TEXT NOT NULL,
		report_path   TEXT DEFAULT '',
		email_path    TEXT DEFAULT '',
		snapshot      TEXT NOT NULL,
		generated_at  DATETIME NOT NULL,
		created_at    DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_runs_team_period ON runs(team, period_start);

	CREATE TABLE IF NOT EXISTS records (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id     TEXT NOT NULL,
		kind       TEXT NOT NULL,
		record_id  TEXT NOT NULL,
		priority   TEXT DEFAULT '',
		team       TEXT DEFAULT '',
		status     TEXT DEFAULT '',
		payload    TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_records_run ON records(run_id);
	CREATE INDEX IF NOT EXISTS idx_records_kind_id ON records(kind, record_id);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Run is an archived run without its snapshot body.
type Run struct {
	ID          string
	Team        string
	PeriodStart string
	PeriodEnd   string
	ReportPath  string
	EmailPath   string
	GeneratedAt time.Time
}

// SaveRun stores the snapshot and one row per record. A snapshot without a
// run ID is given a new one.
func (s *Store) SaveRun(ctx context.Context, snap *report.Snapshot, files report.Files) error {
	if snap.RunID == "" {
		snap.RunID = uuid.NewString()
	}
	blob, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, team, period_start, period_end, report_path, email_path, snapshot, generated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.RunID, snap.Team, snap.Week.StartISO(), snap.Week.EndISO(),
		files.Markdown, files.EmailDraft, string(blob), snap.Metadata.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (run_id, kind, record_id, priority, team, status, payload)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range snapshotRows(snap) {
		payload, err := json.Marshal(r.record)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", r.record.RecordKind(), r.record.RecordID(), err)
		}
		_, err = stmt.ExecContext(ctx, snap.RunID, string(r.record.RecordKind()), r.record.RecordID(),
			r.priority, r.team, r.status, string(payload))
		if err != nil {
			return fmt.Errorf("insert record %s: %w", r.record.RecordID(), err)
		}
	}
	return tx.Commit()
}

type recordRow struct {
	record                 extract.Record
	priority, team, status string
}

func snapshotRows(snap *report.Snapshot) []recordRow {
	var rows []recordRow
	for _, r := range snap.ProblemReports {
		rows = append(rows, recordRow{r, r.Priority, r.Team, r.Status})
	}
	for _, r := range snap.ProductionBugs {
		rows = append(rows, recordRow{r, r.Severity, r.Component, r.Status})
	}
	for _, list := range [][]extract.WorkItem{snap.CIIssues, snap.LeftShiftIssues, snap.ABSIssues} {
		for _, r := range list {
			rows = append(rows, recordRow{r, r.Priority, r.Team, r.Status})
		}
	}
	for _, r := range snap.SecurityIssues {
		rows = append(rows, recordRow{r, "", r.Team, r.Status})
	}
	for _, r := range snap.ScanFindings {
		rows = append(rows, recordRow{r, r.Tier, r.Component, r.Status})
	}
	for _, list := range snap.Backlogs {
		for _, r := range list {
			rows = append(rows, recordRow{r, r.Priority, r.Team, r.Status})
		}
	}
	return rows
}

// PreviousRun returns the latest snapshot for team whose period started
// before periodStart, or nil when there is none.
func (s *Store) PreviousRun(ctx context.Context, team, periodStart string) (*report.Snapshot, error) {
	var blob string
	err := s.db.QueryRowContext(ctx,
		`SELECT snapshot FROM runs WHERE team = ? AND period_start < ?
		 ORDER BY period_start DESC, generated_at DESC LIMIT 1`,
		team, periodStart,
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap report.Snapshot
	if err := json.Unmarshal([]byte(blob), &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// Runs lists the most recent runs for team, newest first.
func (s *Store) Runs(ctx context.Context, team string, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, team, period_start, period_end, report_path, email_path, generated_at
		 FROM runs WHERE team = ? ORDER BY period_start DESC, generated_at DESC LIMIT ?`,
		team, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Team, &r.PeriodStart, &r.PeriodEnd, &r.ReportPath, &r.EmailPath, &r.GeneratedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RecordCounts returns the number of archived records per kind for a run.
func (s *Store) RecordCounts(ctx context.Context, runID string) (map[extract.Kind]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, COUNT(*) FROM records WHERE run_id = ? GROUP BY kind`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[extract.Kind]int{}
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		counts[extract.Kind(kind)] = n
	}
	return counts, rows.Err()
}

// FirstSeen returns the period start of the earliest run that archived the
// record, or "" if it was never seen.
func (s *Store) FirstSeen(ctx context.Context, kind extract.Kind, recordID string) (string, error) {
	var start sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT MIN(r.period_start) FROM records rec JOIN runs r ON r.id = rec.run_id
		 WHERE rec.kind = ? AND rec.record_id = ?`,
		string(kind), recordID,
	).Scan(&start)
	if err != nil {
		return "", err
	}
	return start.String, nil
}
