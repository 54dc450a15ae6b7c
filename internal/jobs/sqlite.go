// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/oa-harvest/pkg/types"
)

// SQLiteStore persists jobs in a SQLite database so status survives a
// restart. The result is stored as a JSON column.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating job store directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening job store: %w", err)
	}
	// One writer at a time; readers share the same connection.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			description TEXT,
			email TEXT,
			requested INTEGER,
			log TEXT,
			error TEXT,
			result TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Create(ctx context.Context, job types.Job) error {
	result, err := encodeResult(job.Result)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, status, description, email, requested, log, error, result, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, string(job.Status), job.Description, job.Email, job.Requested,
		job.Log, job.Error, result, formatTime(job.CreatedAt), formatTime(job.UpdatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrExists
		}
		return fmt.Errorf("inserting job %s: %w", job.ID, err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (types.Job, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, status, description, email, requested, log, error, result, created_at, updated_at
		 FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Job{}, ErrNotFound
	}
	return job, err
}

func (s *SQLiteStore) Update(ctx context.Context, job types.Job) error {
	result, err := encodeResult(job.Result)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, description = ?, email = ?, requested = ?, log = ?, error = ?,
		 result = ?, updated_at = ? WHERE id = ?`,
		string(job.Status), job.Description, job.Email, job.Requested, job.Log, job.Error,
		result, formatTime(job.UpdatedAt), job.ID,
	)
	if err != nil {
		return fmt.Errorf("updating job %s: %w", job.ID, err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting job %s: %w", id, err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) List(ctx context.Context) ([]types.Job, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status, description, email, requested, log, error, result, created_at, updated_at
		 FROM jobs`)
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	defer rows.Close()

	var out []types.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	sortNewestFirst(out)
	return out, nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(sc scanner) (types.Job, error) {
	var (
		job                      types.Job
		status                   string
		description, email       sql.NullString
		logText, errText, result sql.NullString
		requested                sql.NullInt64
		created, updated         string
	)
	err := sc.Scan(&job.ID, &status, &description, &email, &requested, &logText, &errText, &result, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Job{}, err
		}
		return types.Job{}, fmt.Errorf("scanning job: %w", err)
	}
	job.Status = types.JobStatus(status)
	job.Description = description.String
	job.Email = email.String
	job.Requested = int(requested.Int64)
	job.Log = logText.String
	job.Error = errText.String
	job.CreatedAt = parseTime(created)
	job.UpdatedAt = parseTime(updated)

	if result.Valid && result.String != "" {
		var r types.JobResult
		if err := json.Unmarshal([]byte(result.String), &r); err != nil {
			return types.Job{}, fmt.Errorf("decoding result of job %s: %w", job.ID, err)
		}
		job.Result = &r
	}
	return job, nil
}

func encodeResult(r *types.JobResult) (sql.NullString, error) {
	if r == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(r)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encoding job result: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
