package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/valpere/tarjim/internal"
	"github.com/valpere/tarjim/internal/jobs"
)

var _ jobs.Store = (*Store)(nil)

func (s *Store) Create(ctx context.Context, job *jobs.Job) error {
	result, err := encodeResult(job.Result)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, status, input_path, input_name, direction, result, error, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, string(job.Status), job.InputPath, job.InputName, string(job.Direction), result, job.Error,
		job.CreatedAt.UnixNano(), job.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("insert job %s: %w", job.ID, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*jobs.Job, error) {
	var (
		job                  jobs.Job
		status, direction    string
		result, errMsg       sql.NullString
		createdAt, updatedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, status, input_path, input_name, direction, result, error, created_at, updated_at FROM jobs WHERE id = ?`,
		id).Scan(&job.ID, &status, &job.InputPath, &job.InputName, &direction, &result, &errMsg, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("job %s: %w", id, internal.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	job.Status = jobs.Status(status)
	job.Direction = internal.Direction(direction)
	job.Error = errMsg.String
	job.CreatedAt = time.Unix(0, createdAt).UTC()
	job.UpdatedAt = time.Unix(0, updatedAt).UTC()
	if result.Valid && result.String != "" {
		job.Result = &jobs.Result{}
		if err := json.Unmarshal([]byte(result.String), job.Result); err != nil {
			return nil, fmt.Errorf("decode result of job %s: %w", id, err)
		}
	}
	return &job, nil
}

// Update rewrites the whole row in one statement.
func (s *Store) Update(ctx context.Context, job *jobs.Job) error {
	result, err := encodeResult(job.Result)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, input_path = ?, input_name = ?, direction = ?, result = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(job.Status), job.InputPath, job.InputName, string(job.Direction), result, job.Error, job.UpdatedAt.UnixNano(), job.ID)
	if err != nil {
		return fmt.Errorf("update job %s: %w", job.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("job %s: %w", job.ID, internal.ErrNotFound)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	return err
}

// CountJobs returns how many jobs are in each status.
func (s *Store) CountJobs(ctx context.Context) (map[jobs.Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[jobs.Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[jobs.Status(status)] = n
	}
	return counts, rows.Err()
}

func encodeResult(r *jobs.Result) (sql.NullString, error) {
	if r == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(r)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode job result: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
