package notification

import (
	"context"

	"go-workforce/internal/realtime"
	"go-workforce/internal/tenant"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Input struct {
	Title    string `json:"title"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
	Link     string `json:"link,omitempty"`
}

// RepoFunc builds the notification repository for a tenant handle.
type RepoFunc func(h *tenant.Handle) Repository

// Service persists an in-app notification and pushes it to the target's
// live session. Delivery is best effort by contract: Notify never returns
// an error, the business operation that triggered it must not fail because
// a notification could not be written or pushed.
//
//go:generate mockgen -source=notification_service.go -destination=mock/notification_service_mock.go -package=mock
type Service interface {
	Notify(ctx context.Context, h *tenant.Handle, employeeID string, in Input)
}

type service struct {
	repoFor RepoFunc
	rt      realtime.Publisher
	logger  *zap.Logger
}

func NewService(rt realtime.Publisher, logger ...*zap.Logger) Service {
	return NewServiceWithRepos(func(h *tenant.Handle) Repository {
		return NewRepository(h.DB)
	}, rt, logger...)
}

func NewServiceWithRepos(repoFor RepoFunc, rt realtime.Publisher, logger ...*zap.Logger) Service {
	l := zap.L().Named("notification.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("notification.service")
	}
	return &service{repoFor: repoFor, rt: rt, logger: l}
}

func (s *service) Notify(ctx context.Context, h *tenant.Handle, employeeID string, in Input) {
	empUUID, err := uuid.Parse(employeeID)
	if err != nil {
		s.logger.Warn("notify skipped, bad employee id",
			zap.String("company_id", h.CompanyID),
			zap.String("employee_id", employeeID),
		)
		return
	}

	if in.Severity == "" {
		in.Severity = SeverityInfo
	}

	n := &Notification{
		ID:         uuid.New(),
		EmployeeID: empUUID,
		Title:      in.Title,
		Message:    in.Message,
		Severity:   in.Severity,
		Link:       in.Link,
	}

	if err := s.repoFor(h).Create(ctx, n); err != nil {
		s.logger.Warn("notification persist failed",
			zap.String("company_id", h.CompanyID),
			zap.String("employee_id", employeeID),
			zap.String("title", in.Title),
			zap.Error(err),
		)
		return
	}

	if s.rt != nil {
		_ = s.rt.Publish(ctx, h.CompanyID, realtime.UserRoom(employeeID), "notification", map[string]any{
			"id":       n.ID.String(),
			"title":    n.Title,
			"message":  n.Message,
			"severity": n.Severity,
			"link":     n.Link,
		})
	}
}
