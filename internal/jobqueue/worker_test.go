package jobqueue_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go-workforce/internal/jobqueue"

	"github.com/stretchr/testify/assert"
)

type fakeJobRepo struct {
	mu sync.Mutex

	due []jobqueue.Job

	scheduled   []jobqueue.Job
	rescheduled []struct {
		ID         int64
		RetryCount int
		RunAt      time.Time
		LastError  string
	}
	archived []struct {
		ID      int64
		Outcome string
		LastErr string
	}
	listCalls int
	listHook  func()
}

func (f *fakeJobRepo) Schedule(ctx context.Context, job jobqueue.Job) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.scheduled {
		if existing.SingletonKey == job.SingletonKey {
			return true, nil
		}
	}
	f.scheduled = append(f.scheduled, job)
	return false, nil
}

func (f *fakeJobRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]jobqueue.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listHook != nil {
		f.listHook()
	}
	due := f.due
	f.due = nil
	return due, nil
}

func (f *fakeJobRepo) Reschedule(ctx context.Context, id int64, retryCount int, runAt time.Time, lastError string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rescheduled = append(f.rescheduled, struct {
		ID         int64
		RetryCount int
		RunAt      time.Time
		LastError  string
	}{id, retryCount, runAt, lastError})
	return nil
}

func (f *fakeJobRepo) Archive(ctx context.Context, id int64, outcome string, lastError string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.archived = append(f.archived, struct {
		ID      int64
		Outcome string
		LastErr string
	}{id, outcome, lastError})
	return nil
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestWorkerProcessesDueJobs(t *testing.T) {
	t.Run("successful job is archived completed", func(t *testing.T) {
		repo := &fakeJobRepo{due: []jobqueue.Job{{ID: 1, Purpose: jobqueue.PurposeEarlyCheckInReview, MaxRetries: 3}}}

		var handled []int64
		var mu sync.Mutex

		w := jobqueue.NewWorker(repo, 10*time.Millisecond)
		w.Register(jobqueue.PurposeEarlyCheckInReview, func(ctx context.Context, job jobqueue.Job) error {
			mu.Lock()
			handled = append(handled, job.ID)
			mu.Unlock()
			return nil
		})

		w.Start(context.Background())
		defer func() { _ = w.Stop(context.Background()) }()

		waitFor(t, time.Second, func() bool {
			repo.mu.Lock()
			defer repo.mu.Unlock()
			return len(repo.archived) == 1
		})

		mu.Lock()
		assert.Equal(t, []int64{1}, handled)
		mu.Unlock()
		assert.Equal(t, jobqueue.OutcomeCompleted, repo.archived[0].Outcome)
	})

	t.Run("failing job is rescheduled with backoff", func(t *testing.T) {
		repo := &fakeJobRepo{due: []jobqueue.Job{{ID: 2, Purpose: jobqueue.PurposeEarlyCheckInReview, RetryCount: 0, MaxRetries: 3}}}

		w := jobqueue.NewWorker(repo, 10*time.Millisecond)
		w.Register(jobqueue.PurposeEarlyCheckInReview, func(ctx context.Context, job jobqueue.Job) error {
			return errors.New("tenant unreachable")
		})

		before := time.Now().UTC()
		w.Start(context.Background())
		defer func() { _ = w.Stop(context.Background()) }()

		waitFor(t, time.Second, func() bool {
			repo.mu.Lock()
			defer repo.mu.Unlock()
			return len(repo.rescheduled) == 1
		})

		r := repo.rescheduled[0]
		assert.Equal(t, int64(2), r.ID)
		assert.Equal(t, 1, r.RetryCount)
		assert.Equal(t, "tenant unreachable", r.LastError)
		// First retry backs off 30s.
		assert.WithinDuration(t, before.Add(30*time.Second), r.RunAt, 5*time.Second)
		assert.Empty(t, repo.archived)
	})

	t.Run("exhausted job is archived failed, never lost", func(t *testing.T) {
		repo := &fakeJobRepo{due: []jobqueue.Job{{ID: 3, Purpose: jobqueue.PurposeEarlyCheckInReview, RetryCount: 3, MaxRetries: 3}}}

		w := jobqueue.NewWorker(repo, 10*time.Millisecond)
		w.Register(jobqueue.PurposeEarlyCheckInReview, func(ctx context.Context, job jobqueue.Job) error {
			return errors.New("still failing")
		})

		w.Start(context.Background())
		defer func() { _ = w.Stop(context.Background()) }()

		waitFor(t, time.Second, func() bool {
			repo.mu.Lock()
			defer repo.mu.Unlock()
			return len(repo.archived) == 1
		})

		assert.Equal(t, jobqueue.OutcomeFailed, repo.archived[0].Outcome)
		assert.Equal(t, "still failing", repo.archived[0].LastErr)
		assert.Empty(t, repo.rescheduled)
	})

	t.Run("job without handler is archived failed", func(t *testing.T) {
		repo := &fakeJobRepo{due: []jobqueue.Job{{ID: 4, Purpose: "unknown_purpose", MaxRetries: 3}}}

		w := jobqueue.NewWorker(repo, 10*time.Millisecond)
		w.Start(context.Background())
		defer func() { _ = w.Stop(context.Background()) }()

		waitFor(t, time.Second, func() bool {
			repo.mu.Lock()
			defer repo.mu.Unlock()
			return len(repo.archived) == 1
		})

		assert.Equal(t, jobqueue.OutcomeFailed, repo.archived[0].Outcome)
	})
}

func TestWorkerStartIsIdempotent(t *testing.T) {
	repo := &fakeJobRepo{}

	w := jobqueue.NewWorker(repo, 10*time.Millisecond)
	w.Start(context.Background())
	w.Start(context.Background())

	waitFor(t, time.Second, func() bool {
		repo.mu.Lock()
		defer repo.mu.Unlock()
		return repo.listCalls >= 2
	})

	assert.NoError(t, w.Stop(context.Background()))

	repo.mu.Lock()
	after := repo.listCalls
	repo.mu.Unlock()
	time.Sleep(50 * time.Millisecond)

	repo.mu.Lock()
	assert.Equal(t, after, repo.listCalls, "no polling after stop")
	repo.mu.Unlock()
}

func TestSchedulerDedupes(t *testing.T) {
	repo := &fakeJobRepo{}
	s := jobqueue.NewScheduler(repo, 3)

	runAt := time.Now().Add(time.Minute)
	req := jobqueue.ScheduleRequest{
		TenantID: "c-1",
		Purpose:  jobqueue.PurposeEarlyCheckInReview,
		Ref:      "log-7",
		Payload:  map[string]string{"shift_id": "s-1"},
		RunAt:    runAt,
	}

	assert.NoError(t, s.Schedule(context.Background(), req))
	// Second schedule for the same log and purpose is a silent no-op.
	assert.NoError(t, s.Schedule(context.Background(), req))

	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.Len(t, repo.scheduled, 1)
	assert.Equal(t, "c-1:log-7:early_check_in_review", repo.scheduled[0].SingletonKey)
	assert.Equal(t, 3, repo.scheduled[0].MaxRetries)
	assert.JSONEq(t, `{"shift_id":"s-1"}`, string(repo.scheduled[0].Payload))
}
