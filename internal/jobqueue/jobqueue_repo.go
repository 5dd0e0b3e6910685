package jobqueue

import (
	"context"
	"database/sql"
	"time"
)

//go:generate mockgen -source=jobqueue_repo.go -destination=mock/jobqueue_repo_mock.go -package=mock

type Repository interface {
	// Schedule inserts the job unless an outstanding job with the same
	// singleton key exists. Returns deduped=true on the silent drop.
	Schedule(ctx context.Context, job Job) (deduped bool, err error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]Job, error)
	Reschedule(ctx context.Context, id int64, retryCount int, runAt time.Time, lastError string) error
	// Archive moves the job row into deferred_job_archive with the given
	// outcome. The move runs in one transaction.
	Archive(ctx context.Context, id int64, outcome string, lastError string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Schedule(ctx context.Context, job Job) (bool, error) {
	if job.MaxRetries <= 0 {
		job.MaxRetries = DefaultMaxRetries
	}

	query := `
        INSERT INTO deferred_jobs (
            singleton_key, tenant_id, purpose, payload, run_at, max_retries
        ) VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (singleton_key) DO NOTHING
    `

	res, err := r.db.ExecContext(
		ctx, query,
		job.SingletonKey, job.TenantID, job.Purpose, job.Payload, job.RunAt.UTC(), job.MaxRetries,
	)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected == 0, nil
}

func (r *repository) ListDue(ctx context.Context, now time.Time, limit int) ([]Job, error) {
	query := `
SELECT
	id,
	singleton_key,
	tenant_id,
	purpose,
	payload,
	run_at,
	retry_count,
	max_retries,
	COALESCE(last_error, ''),
	created_at
FROM deferred_jobs
WHERE run_at <= $1
ORDER BY run_at ASC
LIMIT $2
`

	rows, err := r.db.QueryContext(ctx, query, now.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := make([]Job, 0, limit)
	for rows.Next() {
		var j Job
		if err := rows.Scan(
			&j.ID,
			&j.SingletonKey,
			&j.TenantID,
			&j.Purpose,
			&j.Payload,
			&j.RunAt,
			&j.RetryCount,
			&j.MaxRetries,
			&j.LastError,
			&j.CreatedAt,
		); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return jobs, nil
}

func (r *repository) Reschedule(ctx context.Context, id int64, retryCount int, runAt time.Time, lastError string) error {
	query := `
UPDATE deferred_jobs
SET
	retry_count = $2,
	run_at = $3,
	last_error = LEFT($4, 500)
WHERE id = $1
`
	_, err := r.db.ExecContext(ctx, query, id, retryCount, runAt.UTC(), lastError)
	return err
}

func (r *repository) Archive(ctx context.Context, id int64, outcome string, lastError string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insert := `
INSERT INTO deferred_job_archive (
	job_id, singleton_key, tenant_id, purpose, payload,
	run_at, retry_count, max_retries, last_error, outcome, archived_at
)
SELECT
	id, singleton_key, tenant_id, purpose, payload,
	run_at, retry_count, max_retries, LEFT($3, 500), $2, NOW()
FROM deferred_jobs
WHERE id = $1
`
	if _, err := tx.ExecContext(ctx, insert, id, outcome, lastError); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM deferred_jobs WHERE id = $1`, id); err != nil {
		return err
	}

	return tx.Commit()
}
