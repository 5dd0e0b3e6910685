package authorization

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	authorizationerrors "go-workforce/internal/authorization/errors"
	"go-workforce/internal/events"
	"go-workforce/internal/jobqueue"
	"go-workforce/internal/messaging/kafka"
	"go-workforce/internal/notification"
	"go-workforce/internal/realtime"
	"go-workforce/internal/shared/contextutil"
	"go-workforce/internal/shift"
	"go-workforce/internal/tenant"
	tenanterrors "go-workforce/internal/tenant/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type RepoFunc func(h *tenant.Handle) Repository

type ShiftRepoFunc func(h *tenant.Handle) shift.Repository

type ShiftLogRepoFunc func(h *tenant.Handle) shift.LogRepository

type OutboxFunc func(h *tenant.Handle) kafka.OutboxRepository

// EarlyCheckInJobPayload is what a deferred review job carries. The tenant
// id travels on the job row itself.
type EarlyCheckInJobPayload struct {
	ShiftID    string `json:"shift_id"`
	ShiftLogID string `json:"shift_log_id"`
}

//go:generate mockgen -source=authorization_service.go -destination=mock/authorization_service_mock.go -package=mock
type Service interface {
	// ApplyCheckIn classifies a persisted check-in log against its shift:
	// late punches create a pending tardiness record synchronously, early
	// punches schedule a deferred review, on-time punches do nothing.
	ApplyCheckIn(ctx context.Context, h *tenant.Handle, sh *shift.Shift, lg *shift.ShiftLog) error
	// ApplyCheckOut classifies a persisted check-out log and, when the
	// source system reported cumulative worked minutes, checks for
	// overtime against the allocated minutes.
	ApplyCheckOut(ctx context.Context, h *tenant.Handle, sh *shift.Shift, lg *shift.ShiftLog, workedMinutes *int) error
	// ReviewEarlyCheckIn is the deferred-job handler. It is safe to run
	// more than once for the same job.
	ReviewEarlyCheckIn(ctx context.Context, job jobqueue.Job) error

	GetByID(ctx context.Context, h *tenant.Handle, id string) (AuthorizationResponse, error)
	ListPendingForBranch(ctx context.Context, h *tenant.Handle, branchID string) ([]AuthorizationResponse, error)
	ListByShift(ctx context.Context, h *tenant.Handle, shiftID string) ([]AuthorizationResponse, error)
	SubmitEmployeeReason(ctx context.Context, h *tenant.Handle, id, reason string) (AuthorizationResponse, error)
	Approve(ctx context.Context, h *tenant.Handle, id, resolverID string, overtimeSubtype *string) (AuthorizationResponse, error)
	Reject(ctx context.Context, h *tenant.Handle, id, resolverID, reason string) (AuthorizationResponse, error)
}

type service struct {
	registry     tenant.Registry
	scheduler    jobqueue.Scheduler
	notifier     notification.Service
	rt           realtime.Publisher
	repoFor      RepoFunc
	shiftRepoFor ShiftRepoFunc
	logRepoFor   ShiftLogRepoFunc
	outboxFor    OutboxFunc
	logger       *zap.Logger
}

func NewService(
	registry tenant.Registry,
	scheduler jobqueue.Scheduler,
	notifier notification.Service,
	rt realtime.Publisher,
	logger ...*zap.Logger,
) Service {
	return NewServiceWithRepos(
		registry, scheduler, notifier, rt,
		func(h *tenant.Handle) Repository { return NewRepository(h.DB) },
		func(h *tenant.Handle) shift.Repository { return shift.NewRepository(h.DB) },
		func(h *tenant.Handle) shift.LogRepository { return shift.NewLogRepository(h.DB) },
		func(h *tenant.Handle) kafka.OutboxRepository { return kafka.NewOutboxRepository(h.DB) },
		logger...,
	)
}

func NewServiceWithRepos(
	registry tenant.Registry,
	scheduler jobqueue.Scheduler,
	notifier notification.Service,
	rt realtime.Publisher,
	repoFor RepoFunc,
	shiftRepoFor ShiftRepoFunc,
	logRepoFor ShiftLogRepoFunc,
	outboxFor OutboxFunc,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("authorization.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("authorization.service")
	}
	return &service{
		registry:     registry,
		scheduler:    scheduler,
		notifier:     notifier,
		rt:           rt,
		repoFor:      repoFor,
		shiftRepoFor: shiftRepoFor,
		logRepoFor:   logRepoFor,
		outboxFor:    outboxFor,
		logger:       l,
	}
}

func (s *service) ApplyCheckIn(ctx context.Context, h *tenant.Handle, sh *shift.Shift, lg *shift.ShiftLog) error {
	out := ClassifyCheckIn(sh.StartsAt, lg.OccurredAt)

	if out.DeferUntil != nil {
		err := s.scheduler.Schedule(ctx, jobqueue.ScheduleRequest{
			TenantID: h.CompanyID,
			Purpose:  jobqueue.PurposeEarlyCheckInReview,
			Ref:      lg.ID.String(),
			Payload:  EarlyCheckInJobPayload{ShiftID: sh.ID.String(), ShiftLogID: lg.ID.String()},
			RunAt:    *out.DeferUntil,
		})
		if err != nil {
			s.logger.Error("early check-in review schedule failed",
				zap.String("company_id", h.CompanyID),
				zap.String("shift_log_id", lg.ID.String()),
				zap.Error(err),
			)
			return err
		}
		s.logger.Info("early check-in review scheduled",
			zap.String("company_id", h.CompanyID),
			zap.String("shift_id", sh.ID.String()),
			zap.String("shift_log_id", lg.ID.String()),
			zap.Time("run_at", *out.DeferUntil),
		)
		return nil
	}

	if out.Verdict == nil {
		return nil
	}
	_, err := s.create(ctx, h, sh, lg, *out.Verdict)
	return err
}

func (s *service) ApplyCheckOut(ctx context.Context, h *tenant.Handle, sh *shift.Shift, lg *shift.ShiftLog, workedMinutes *int) error {
	if v := ClassifyCheckOut(sh.EndsAt, lg.OccurredAt); v != nil {
		if _, err := s.create(ctx, h, sh, lg, *v); err != nil {
			return err
		}
	}

	if workedMinutes != nil {
		allocated := int(sh.AllocatedHours * 60)
		if v := ClassifyOvertime(allocated, *workedMinutes); v != nil {
			if _, err := s.create(ctx, h, sh, lg, *v); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *service) ReviewEarlyCheckIn(ctx context.Context, job jobqueue.Job) error {
	var payload EarlyCheckInJobPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		s.logger.Warn("early check-in review skipped, undecodable payload",
			zap.Int64("job_id", job.ID),
			zap.Error(err),
		)
		return nil
	}

	h, err := s.registry.Resolve(ctx, job.TenantID)
	if err != nil {
		if errors.Is(err, tenanterrors.ErrUnknownTenant) || errors.Is(err, tenanterrors.ErrTenantInactive) {
			s.logger.Warn("early check-in review skipped, tenant gone",
				zap.Int64("job_id", job.ID),
				zap.String("company_id", job.TenantID),
			)
			return nil
		}
		return err
	}

	lg, err := s.logRepoFor(h).FindByID(ctx, payload.ShiftLogID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("early check-in review skipped, log deleted",
				zap.String("company_id", h.CompanyID),
				zap.String("shift_log_id", payload.ShiftLogID),
			)
			return nil
		}
		return err
	}

	sh, err := s.shiftRepoFor(h).FindByID(ctx, payload.ShiftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("early check-in review skipped, shift deleted",
				zap.String("company_id", h.CompanyID),
				zap.String("shift_id", payload.ShiftID),
			)
			return nil
		}
		return err
	}

	if _, err := s.repoFor(h).FindByShiftLogAndType(ctx, payload.ShiftLogID, TypeEarlyCheckIn); err == nil {
		s.logger.Info("early check-in review skipped, already recorded",
			zap.String("company_id", h.CompanyID),
			zap.String("shift_log_id", payload.ShiftLogID),
		)
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if !sh.StartsAt.After(lg.OccurredAt) {
		s.logger.Info("early check-in review skipped, shift start moved",
			zap.String("company_id", h.CompanyID),
			zap.String("shift_id", sh.ID.String()),
			zap.Time("starts_at", sh.StartsAt),
			zap.Time("checked_in_at", lg.OccurredAt),
		)
		return nil
	}

	_, err = s.create(ctx, h, sh, lg, ClassifyEarlyCheckIn(sh.StartsAt, lg.OccurredAt))
	return err
}

// create is the single write path for authorization records. The existing
// row check plus the (shift_log_id, type) unique index make it converge
// under duplicate delivery: only the first insert increments the pending
// counter.
func (s *service) create(ctx context.Context, h *tenant.Handle, sh *shift.Shift, lg *shift.ShiftLog, v Verdict) (*ShiftAuthorization, error) {
	repo := s.repoFor(h)

	existing, err := repo.FindByShiftLogAndType(ctx, lg.ID.String(), v.Type)
	if err == nil {
		s.logger.Info("authorization already recorded",
			zap.String("company_id", h.CompanyID),
			zap.String("shift_log_id", lg.ID.String()),
			zap.String("type", v.Type),
		)
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	a := &ShiftAuthorization{
		ID:                  uuid.New(),
		ShiftID:             sh.ID,
		ShiftLogID:          lg.ID,
		BranchID:            sh.BranchID,
		EmployeeID:          sh.EmployeeID,
		Type:                v.Type,
		Minutes:             v.Minutes,
		Status:              v.Status,
		NeedsEmployeeReason: v.NeedsEmployeeReason,
	}

	err = h.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.WithTx(tx).Create(ctx, a); err != nil {
			return err
		}
		if a.Status == StatusPending {
			if err := s.shiftRepoFor(h).WithTx(tx).IncrementPendingApprovals(ctx, sh.ID.String(), 1); err != nil {
				return err
			}
		}
		return s.outboxFor(h).WithTx(tx).Create(ctx, s.lifecycleEvent(ctx, h, a, events.AuthorizationCreated))
	})
	if err != nil {
		if IsUniqueViolation(err) {
			s.logger.Info("authorization create raced a duplicate delivery",
				zap.String("company_id", h.CompanyID),
				zap.String("shift_log_id", lg.ID.String()),
				zap.String("type", v.Type),
			)
			return repo.FindByShiftLogAndType(ctx, lg.ID.String(), v.Type)
		}
		s.logger.Error("authorization create failed",
			zap.String("company_id", h.CompanyID),
			zap.String("shift_id", sh.ID.String()),
			zap.String("type", v.Type),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("authorization created",
		zap.String("company_id", h.CompanyID),
		zap.String("authorization_id", a.ID.String()),
		zap.String("shift_id", sh.ID.String()),
		zap.String("type", a.Type),
		zap.String("status", a.Status),
		zap.Int("minutes", a.Minutes),
	)

	if a.Status == StatusPending {
		s.fanOut(ctx, h, a, events.AuthorizationCreated, notification.Input{
			Title:    "Approval required",
			Message:  "You " + describe(a) + ".",
			Severity: notification.SeverityWarning,
			Link:     "/authorizations/" + a.ID.String(),
		})
	}
	return a, nil
}

func (s *service) GetByID(ctx context.Context, h *tenant.Handle, id string) (AuthorizationResponse, error) {
	a, err := s.repoFor(h).FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AuthorizationResponse{}, authorizationerrors.ErrAuthorizationNotFound
		}
		return AuthorizationResponse{}, err
	}
	return mapToResponse(*a), nil
}

func (s *service) ListPendingForBranch(ctx context.Context, h *tenant.Handle, branchID string) ([]AuthorizationResponse, error) {
	if _, err := uuid.Parse(branchID); err != nil {
		return nil, authorizationerrors.ErrInvalidBranchID
	}
	rows, err := s.repoFor(h).ListPendingByBranch(ctx, branchID)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(rows), nil
}

func (s *service) ListByShift(ctx context.Context, h *tenant.Handle, shiftID string) ([]AuthorizationResponse, error) {
	rows, err := s.repoFor(h).ListByShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(rows), nil
}

func (s *service) SubmitEmployeeReason(ctx context.Context, h *tenant.Handle, id, reason string) (AuthorizationResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return AuthorizationResponse{}, authorizationerrors.ErrInvalidAuthorizationID
	}
	if reason == "" {
		return AuthorizationResponse{}, authorizationerrors.ErrRejectionReasonRequired
	}

	var out ShiftAuthorization
	err := h.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		qtx := s.repoFor(h).WithTx(tx)
		a, err := qtx.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return authorizationerrors.ErrAuthorizationNotFound
			}
			return err
		}
		if a.Status != StatusPending {
			return authorizationerrors.ErrAuthorizationNotPending
		}
		if !a.NeedsEmployeeReason {
			return authorizationerrors.ErrReasonNotExpected
		}
		a.EmployeeReason = &reason
		if err := qtx.Update(ctx, a); err != nil {
			return err
		}
		out = *a
		return nil
	})
	if err != nil {
		return AuthorizationResponse{}, err
	}

	s.logger.Info("authorization employee reason recorded",
		zap.String("company_id", h.CompanyID),
		zap.String("authorization_id", id),
	)
	return mapToResponse(out), nil
}

func (s *service) Approve(ctx context.Context, h *tenant.Handle, id, resolverID string, overtimeSubtype *string) (AuthorizationResponse, error) {
	return s.resolve(ctx, h, id, resolverID, StatusApproved, overtimeSubtype, nil)
}

func (s *service) Reject(ctx context.Context, h *tenant.Handle, id, resolverID, reason string) (AuthorizationResponse, error) {
	return s.resolve(ctx, h, id, resolverID, StatusRejected, nil, &reason)
}

func (s *service) resolve(ctx context.Context, h *tenant.Handle, id, resolverID, targetStatus string, overtimeSubtype, rejectionReason *string) (AuthorizationResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return AuthorizationResponse{}, authorizationerrors.ErrInvalidAuthorizationID
	}
	resolverUUID, err := uuid.Parse(resolverID)
	if err != nil {
		return AuthorizationResponse{}, authorizationerrors.ErrInvalidResolverID
	}
	if targetStatus == StatusRejected && (rejectionReason == nil || *rejectionReason == "") {
		return AuthorizationResponse{}, authorizationerrors.ErrRejectionReasonRequired
	}

	var out ShiftAuthorization
	err = h.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		qtx := s.repoFor(h).WithTx(tx)
		a, err := qtx.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return authorizationerrors.ErrAuthorizationNotFound
			}
			return err
		}
		if a.Status != StatusPending {
			return authorizationerrors.ErrAuthorizationNotPending
		}
		if a.NeedsEmployeeReason && (a.EmployeeReason == nil || *a.EmployeeReason == "") {
			return authorizationerrors.ErrEmployeeReasonRequired
		}

		now := time.Now().UTC()
		a.Status = targetStatus
		a.ResolvedBy = &resolverUUID
		a.ResolvedAt = &now
		switch targetStatus {
		case StatusApproved:
			if a.Type == TypeOvertime {
				if overtimeSubtype == nil || *overtimeSubtype == "" {
					return authorizationerrors.ErrOvertimeSubtypeRequired
				}
				if !IsValidOvertimeSubtype(*overtimeSubtype) {
					return authorizationerrors.ErrInvalidOvertimeSubtype
				}
				a.OvertimeSubtype = overtimeSubtype
			}
			a.RejectionReason = nil
		case StatusRejected:
			a.RejectionReason = rejectionReason
		}

		if err := qtx.Update(ctx, a); err != nil {
			return err
		}
		if err := s.shiftRepoFor(h).WithTx(tx).IncrementPendingApprovals(ctx, a.ShiftID.String(), -1); err != nil {
			return err
		}

		details, _ := json.Marshal(map[string]any{
			"authorization_id": a.ID.String(),
			"type":             a.Type,
			"outcome":          a.Status,
			"resolved_by":      resolverID,
		})
		entry := &shift.ShiftLog{
			ID:         uuid.New(),
			ShiftID:    &a.ShiftID,
			BranchID:   a.BranchID,
			EmployeeID: a.EmployeeID,
			Type:       shift.LogAuthorizationResolved,
			OccurredAt: now,
			Details:    details,
		}
		if err := s.logRepoFor(h).WithTx(tx).Create(ctx, entry); err != nil {
			return err
		}

		if err := s.outboxFor(h).WithTx(tx).Create(ctx, s.lifecycleEvent(ctx, h, a, events.AuthorizationResolved)); err != nil {
			return err
		}
		out = *a
		return nil
	})
	if err != nil {
		s.logger.Warn("authorization resolve failed",
			zap.String("company_id", h.CompanyID),
			zap.String("authorization_id", id),
			zap.String("target_status", targetStatus),
			zap.Error(err),
		)
		return AuthorizationResponse{}, err
	}

	s.logger.Info("authorization resolved",
		zap.String("company_id", h.CompanyID),
		zap.String("authorization_id", id),
		zap.String("type", out.Type),
		zap.String("status", out.Status),
		zap.String("resolved_by", resolverID),
	)

	severity := notification.SeverityInfo
	if out.Status == StatusRejected {
		severity = notification.SeverityWarning
	}
	s.fanOut(ctx, h, &out, events.AuthorizationResolved, notification.Input{
		Title:    "Authorization " + out.Status,
		Message:  "Your " + out.Type + " record was " + out.Status + ".",
		Severity: severity,
		Link:     "/authorizations/" + out.ID.String(),
	})
	return mapToResponse(out), nil
}

// fanOut notifies the employee and pushes to the branch room. Best effort:
// failures are logged and never surfaced to the caller.
func (s *service) fanOut(ctx context.Context, h *tenant.Handle, a *ShiftAuthorization, event string, in notification.Input) {
	if a.EmployeeID != nil {
		s.notifier.Notify(ctx, h, a.EmployeeID.String(), in)
	}
	err := s.rt.Publish(ctx, h.CompanyID, realtime.BranchRoom(a.BranchID.String()), event, map[string]any{
		"authorization_id": a.ID.String(),
		"shift_id":         a.ShiftID.String(),
		"type":             a.Type,
		"status":           a.Status,
		"minutes":          a.Minutes,
	})
	if err != nil {
		s.logger.Warn("authorization branch room push failed",
			zap.String("company_id", h.CompanyID),
			zap.String("authorization_id", a.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *service) lifecycleEvent(ctx context.Context, h *tenant.Handle, a *ShiftAuthorization, eventType string) kafka.OutboxEvent {
	payload, _ := json.Marshal(events.AuthorizationLifecycleEvent{
		EventType:         eventType,
		AuthorizationID:   a.ID.String(),
		ShiftID:           a.ShiftID.String(),
		CompanyID:         h.CompanyID,
		AuthorizationType: a.Type,
		Status:            a.Status,
		Minutes:           a.Minutes,
		OccurredAt:        time.Now().UTC(),
	})
	return kafka.OutboxEvent{
		ID:            uuid.New().String(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: "shift_authorization",
		AggregateID:   a.ID.String(),
		EventType:     eventType,
		Topic:         events.AuthorizationLifecycleTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}
}

func describe(a *ShiftAuthorization) string {
	switch a.Type {
	case TypeEarlyCheckIn:
		return fmt.Sprintf("checked in %d minutes before shift start", a.Minutes)
	case TypeTardiness:
		return fmt.Sprintf("checked in %d minutes after shift start", a.Minutes)
	case TypeEarlyCheckOut:
		return fmt.Sprintf("checked out %d minutes before shift end", a.Minutes)
	case TypeLateCheckOut:
		return fmt.Sprintf("checked out %d minutes after shift end", a.Minutes)
	default:
		return fmt.Sprintf("worked %d minutes over the allocated time", a.Minutes)
	}
}

func mapToResponse(a ShiftAuthorization) AuthorizationResponse {
	resp := AuthorizationResponse{
		ID:                  a.ID.String(),
		ShiftID:             a.ShiftID.String(),
		ShiftLogID:          a.ShiftLogID.String(),
		BranchID:            a.BranchID.String(),
		Type:                a.Type,
		Minutes:             a.Minutes,
		Status:              a.Status,
		NeedsEmployeeReason: a.NeedsEmployeeReason,
		EmployeeReason:      a.EmployeeReason,
		OvertimeSubtype:     a.OvertimeSubtype,
		RejectionReason:     a.RejectionReason,
		CreatedAt:           a.CreatedAt.Format(time.RFC3339),
	}
	if a.EmployeeID != nil {
		v := a.EmployeeID.String()
		resp.EmployeeID = &v
	}
	if a.ResolvedBy != nil {
		v := a.ResolvedBy.String()
		resp.ResolvedBy = &v
	}
	if a.ResolvedAt != nil {
		v := a.ResolvedAt.Format(time.RFC3339)
		resp.ResolvedAt = &v
	}
	return resp
}

func mapToListResponse(rows []ShiftAuthorization) []AuthorizationResponse {
	resp := make([]AuthorizationResponse, len(rows))
	for i, a := range rows {
		resp[i] = mapToResponse(a)
	}
	return resp
}
