// Package db records optimisation runs in SQLite so lap times can be compared
// across methods, vehicles and builds.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/racing-line/internal/monitoring"
	"github.com/banshee-data/racing-line/internal/report"
)

// ErrNoRuns is returned when no recorded run matches a query.
var ErrNoRuns = errors.New("db: no matching runs")

type DB struct {
	*sql.DB
}

// OpenDB opens the database without touching the schema.
func OpenDB(path string) (*DB, error) {
	// The pragma applies to every pooled connection.
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return &DB{db}, nil
}

// NewDB opens the database and applies any pending migrations.
func NewDB(path string) (*DB, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	migrations, err := getMigrationsFS()
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := db.MigrateUp(migrations); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Run is one recorded optimisation run.
type Run struct {
	ID        string
	Track     string
	Vehicle   string
	Method    string
	LapTime   float64
	RunTime   float64
	Epsilon   *float64
	Converged bool
	Status    string
	Samples   int
	Length    float64
	Version   string
	GitSHA    string
	CreatedAt time.Time
}

func toUnix(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func fromUnix(f float64) time.Time {
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(math.Round(frac*1e9))).UTC()
}

// RecordRun stores doc and returns its id. Documents without an id get a
// new UUID, which is also written back to doc.
func (db *DB) RecordRun(ctx context.Context, doc *report.Document) (string, error) {
	if doc == nil || doc.Report == nil {
		return "", fmt.Errorf("db: nil report")
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	created := doc.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	var length float64
	if n := len(doc.S); n > 0 {
		length = doc.S[n-1]
	}
	var eps sql.NullFloat64
	if doc.Epsilon != nil {
		eps = sql.NullFloat64{Float64: *doc.Epsilon, Valid: true}
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO runs (
			run_id, track, vehicle, method, lap_time, run_time, eps,
			converged, status, samples, length, version, git_sha, created_unix
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Track, doc.Vehicle, doc.Method, doc.LapTime, doc.RunTime, eps,
		doc.Converged, doc.Status, len(doc.Report.Velocity), length,
		doc.Version, doc.GitSHA, toUnix(created),
	)
	if err != nil {
		return "", fmt.Errorf("failed to record run: %w", err)
	}
	monitoring.Logf("Recorded run %s (%s/%s, lap %.3fs)", doc.ID, doc.Track, doc.Method, doc.LapTime)
	return doc.ID, nil
}

const runColumns = `run_id, track, vehicle, method, lap_time, run_time, eps,
	converged, status, samples, length, version, git_sha, created_unix`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (Run, error) {
	var (
		r       Run
		eps     sql.NullFloat64
		created float64
	)
	err := row.Scan(&r.ID, &r.Track, &r.Vehicle, &r.Method, &r.LapTime, &r.RunTime, &eps,
		&r.Converged, &r.Status, &r.Samples, &r.Length, &r.Version, &r.GitSHA, &created)
	if err != nil {
		return Run{}, err
	}
	if eps.Valid {
		v := eps.Float64
		r.Epsilon = &v
	}
	r.CreatedAt = fromUnix(created)
	return r, nil
}

// RunFilter narrows ListRuns. Empty fields match everything; a zero Limit
// returns every run.
type RunFilter struct {
	Track   string
	Vehicle string
	Method  string
	Limit   int
}

// ListRuns returns matching runs, newest first.
func (db *DB) ListRuns(ctx context.Context, f RunFilter) ([]Run, error) {
	var (
		where []string
		args  []interface{}
	)
	for _, c := range []struct{ col, val string }{
		{"track", f.Track}, {"vehicle", f.Vehicle}, {"method", f.Method},
	} {
		if c.val != "" {
			where = append(where, c.col+" = ?")
			args = append(args, c.val)
		}
	}

	q := "SELECT " + runColumns + " FROM runs"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_unix DESC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun returns the run with the given id.
func (db *DB) GetRun(ctx context.Context, id string) (*Run, error) {
	row := db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE run_id = ?", id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return &r, nil
}

// BestRun returns the fastest recorded lap for a track and vehicle.
func (db *DB) BestRun(ctx context.Context, track, vehicle string) (*Run, error) {
	row := db.QueryRowContext(ctx, `
		SELECT `+runColumns+` FROM runs
		WHERE track = ? AND vehicle = ?
		ORDER BY lap_time ASC, created_unix ASC
		LIMIT 1`, track, vehicle)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get best run: %w", err)
	}
	return &r, nil
}

// DeleteRun removes a run. Deleting an unknown id returns ErrNoRuns.
func (db *DB) DeleteRun(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx, "DELETE FROM runs WHERE run_id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete run %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoRuns
	}
	return nil
}
