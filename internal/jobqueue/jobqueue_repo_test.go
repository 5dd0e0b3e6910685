package jobqueue_test

import (
	"context"
	"testing"
	"time"

	"go-workforce/internal/jobqueue"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestRepositorySchedule(t *testing.T) {
	t.Run("inserts outstanding job", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`INSERT INTO deferred_jobs`).
			WithArgs("c-1:log-1:early_check_in_review", "c-1", jobqueue.PurposeEarlyCheckInReview, []byte(`{}`), sqlmock.AnyArg(), 3).
			WillReturnResult(sqlmock.NewResult(1, 1))

		repo := jobqueue.NewRepository(db)
		deduped, err := repo.Schedule(context.Background(), jobqueue.Job{
			SingletonKey: "c-1:log-1:early_check_in_review",
			TenantID:     "c-1",
			Purpose:      jobqueue.PurposeEarlyCheckInReview,
			Payload:      []byte(`{}`),
			RunAt:        time.Now(),
		})

		assert.NoError(t, err)
		assert.False(t, deduped)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate singleton key is silently deduped", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`INSERT INTO deferred_jobs`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		repo := jobqueue.NewRepository(db)
		deduped, err := repo.Schedule(context.Background(), jobqueue.Job{
			SingletonKey: "c-1:log-1:early_check_in_review",
			TenantID:     "c-1",
			Purpose:      jobqueue.PurposeEarlyCheckInReview,
			Payload:      []byte(`{}`),
			RunAt:        time.Now(),
			MaxRetries:   3,
		})

		assert.NoError(t, err)
		assert.True(t, deduped)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepositoryArchiveMovesRowTransactionally(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO deferred_job_archive`).
		WithArgs(int64(9), jobqueue.OutcomeFailed, "boom").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM deferred_jobs`).
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := jobqueue.NewRepository(db)
	err = repo.Archive(context.Background(), 9, jobqueue.OutcomeFailed, "boom")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryListDue(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "singleton_key", "tenant_id", "purpose", "payload",
		"run_at", "retry_count", "max_retries", "last_error", "created_at",
	}).AddRow(int64(4), "c-1:log-2:early_check_in_review", "c-1", jobqueue.PurposeEarlyCheckInReview,
		[]byte(`{"shift_id":"s-1"}`), now.Add(-time.Minute), 1, 3, "timeout", now.Add(-2*time.Minute))

	mock.ExpectQuery(`SELECT (.+) FROM deferred_jobs`).
		WillReturnRows(rows)

	repo := jobqueue.NewRepository(db)
	jobs, err := repo.ListDue(context.Background(), now, 20)

	assert.NoError(t, err)
	assert.Len(t, jobs, 1)
	assert.Equal(t, int64(4), jobs[0].ID)
	assert.Equal(t, 1, jobs[0].RetryCount)
	assert.Equal(t, "timeout", jobs[0].LastError)
	assert.NoError(t, mock.ExpectationsWereMet())
}
