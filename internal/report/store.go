package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/sqlite"
	"github.com/stephenafamo/bob/dialect/sqlite/im"
	"github.com/stephenafamo/bob/dialect/sqlite/sm"
	"github.com/stephenafamo/bob/dialect/sqlite/um"
	"github.com/stephenafamo/scan"
	_ "modernc.org/sqlite"

	"github.com/artefactual-labs/petstore/internal/database/migrations"
	"github.com/artefactual-labs/petstore/internal/harness"
)

// ErrNoRuns is returned by LatestRun when nothing has been recorded yet.
var ErrNoRuns = errors.New("no runs recorded")

// Store persists harness runs and their steps in SQLite.
type Store struct {
	sqlDB *sql.DB
	db    bob.DB
}

type Run struct {
	ID         string
	Backend    string
	StartedAt  time.Time
	FinishedAt time.Time
	Tests      int64
	Failures   int64
}

func (r Run) Finished() bool {
	return !r.FinishedAt.IsZero()
}

type Step struct {
	RunID    string
	Test     string
	Name     string
	Failed   bool
	Skipped  bool
	Error    string
	Duration time.Duration
	Started  time.Time
}

func (s Step) Status() string {
	switch {
	case s.Failed:
		return "FAIL"
	case s.Skipped:
		return "SKIP"
	default:
		return "PASS"
	}
}

type runRow struct {
	ID         string `db:"id"`
	Backend    string `db:"backend"`
	StartedAt  string `db:"started_at"`
	FinishedAt string `db:"finished_at"`
	Tests      int64  `db:"tests"`
	Failures   int64  `db:"failures"`
}

type stepRow struct {
	RunID      string `db:"run_id"`
	Test       string `db:"test"`
	Name       string `db:"name"`
	Failed     bool   `db:"failed"`
	Skipped    bool   `db:"skipped"`
	Error      string `db:"error"`
	DurationMS int64  `db:"duration_ms"`
	StartedAt  string `db:"started_at"`
}

// Open opens (creating if needed) the SQLite database at path and applies the
// embedded schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path not configured")
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure sqlite directory %q: %w", dir, err)
		}
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// SQLite allows a single writer.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("ping db: %w", err), sqlDB.Close())
	}

	file, err := migrations.FS.ReadFile("schema.sql")
	if err != nil {
		return nil, errors.Join(fmt.Errorf("read schema.sql: %w", err), sqlDB.Close())
	}

	db := bob.NewDB(sqlDB)
	if _, err := db.ExecContext(ctx, string(file)); err != nil {
		return nil, errors.Join(fmt.Errorf("exec schema.sql: %w", err), sqlDB.Close())
	}

	return &Store{sqlDB: sqlDB, db: db}, nil
}

func (s *Store) Close() error {
	return s.sqlDB.Close()
}

// StartRun inserts a new run against the named backend and returns its id.
func (s *Store) StartRun(ctx context.Context, backend string) (string, error) {
	id := uuid.New().String()
	q := sqlite.Insert(
		im.Into("runs", "id", "backend", "started_at"),
		im.Values(sqlite.Arg(id, backend, formatTime(time.Now()))),
	)
	if _, err := bob.Exec(ctx, s.db, q); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

func (s *Store) RecordStep(ctx context.Context, runID string, step harness.StepResult) error {
	q := sqlite.Insert(
		im.Into("steps", "run_id", "test", "name", "failed", "skipped", "error", "duration_ms", "started_at"),
		im.Values(sqlite.Arg(
			runID,
			step.TestID.String(),
			step.Name,
			step.Failed,
			step.Skipped,
			step.Error,
			step.Duration.Milliseconds(),
			formatTime(step.Started),
		)),
	)
	if _, err := bob.Exec(ctx, s.db, q); err != nil {
		return fmt.Errorf("insert step: %w", err)
	}
	return nil
}

// FinishRun stores the totals of results and marks the run finished.
func (s *Store) FinishRun(ctx context.Context, runID string, results harness.Results) error {
	q := sqlite.Update(
		um.Table("runs"),
		um.SetCol("finished_at").ToArg(formatTime(time.Now())),
		um.SetCol("tests").ToArg(len(results.Tests)),
		um.SetCol("failures").ToArg(len(results.Failures)),
		um.Where(sqlite.Quote("id").EQ(sqlite.Arg(runID))),
		um.Returning("id"),
	)
	_, err := bob.One(ctx, s.db, q, scan.SingleColumnMapper[string])
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("run %s not found", runID)
	}
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}

// Steps returns the steps of a run in the order they were recorded.
func (s *Store) Steps(ctx context.Context, runID string) ([]Step, error) {
	q := sqlite.Select(
		sm.Columns("run_id", "test", "name", "failed", "skipped", "error", "duration_ms", "started_at"),
		sm.From("steps"),
		sm.Where(sqlite.Quote("run_id").EQ(sqlite.Arg(runID))),
		sm.OrderBy("id"),
	)
	rows, err := bob.All(ctx, s.db, q, scan.StructMapper[stepRow]())
	if err != nil {
		return nil, fmt.Errorf("select steps: %w", err)
	}

	steps := make([]Step, len(rows))
	for i, row := range rows {
		steps[i] = Step{
			RunID:    row.RunID,
			Test:     row.Test,
			Name:     row.Name,
			Failed:   row.Failed,
			Skipped:  row.Skipped,
			Error:    row.Error,
			Duration: time.Duration(row.DurationMS) * time.Millisecond,
			Started:  parseTime(row.StartedAt),
		}
	}
	return steps, nil
}

// LatestRun returns the most recently started run.
func (s *Store) LatestRun(ctx context.Context) (*Run, error) {
	q := sqlite.Select(
		sm.Columns("id", "backend", "started_at", "finished_at", "tests", "failures"),
		sm.From("runs"),
		sm.OrderBy("started_at").Desc(),
		sm.OrderBy("rowid").Desc(),
		sm.Limit(1),
	)
	row, err := bob.One(ctx, s.db, q, scan.StructMapper[runRow]())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, fmt.Errorf("select run: %w", err)
	}

	return &Run{
		ID:         row.ID,
		Backend:    row.Backend,
		StartedAt:  parseTime(row.StartedAt),
		FinishedAt: parseTime(row.FinishedAt),
		Tests:      row.Tests,
		Failures:   row.Failures,
	}, nil
}

// Fixed width so timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
