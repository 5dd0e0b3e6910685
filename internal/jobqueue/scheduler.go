package jobqueue

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

type ScheduleRequest struct {
	TenantID string
	Purpose  string
	// Ref identifies the record the job is about, usually a shift log id.
	// It forms the singleton key together with TenantID and Purpose.
	Ref        string
	Payload    any
	RunAt      time.Time
	MaxRetries int
}

//go:generate mockgen -source=scheduler.go -destination=mock/scheduler_mock.go -package=mock
type Scheduler interface {
	Schedule(ctx context.Context, req ScheduleRequest) error
}

type scheduler struct {
	repo       Repository
	maxRetries int
	logger     *zap.Logger
}

func NewScheduler(repo Repository, maxRetries int, logger ...*zap.Logger) Scheduler {
	l := zap.L().Named("jobqueue.scheduler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("jobqueue.scheduler")
	}
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &scheduler{repo: repo, maxRetries: maxRetries, logger: l}
}

func (s *scheduler) Schedule(ctx context.Context, req ScheduleRequest) error {
	payload, err := json.Marshal(req.Payload)
	if err != nil {
		return err
	}

	maxRetries := req.MaxRetries
	if maxRetries <= 0 {
		maxRetries = s.maxRetries
	}

	job := Job{
		SingletonKey: SingletonKey(req.TenantID, req.Ref, req.Purpose),
		TenantID:     req.TenantID,
		Purpose:      req.Purpose,
		Payload:      payload,
		RunAt:        req.RunAt,
		MaxRetries:   maxRetries,
	}

	deduped, err := s.repo.Schedule(ctx, job)
	if err != nil {
		s.logger.Error("schedule deferred job failed",
			zap.String("singleton_key", job.SingletonKey),
			zap.Error(err),
		)
		return err
	}

	if deduped {
		// An outstanding job already covers this record and purpose.
		s.logger.Info("deferred job deduped",
			zap.String("singleton_key", job.SingletonKey),
		)
		return nil
	}

	s.logger.Info("deferred job scheduled",
		zap.String("singleton_key", job.SingletonKey),
		zap.Time("run_at", req.RunAt),
	)
	return nil
}
