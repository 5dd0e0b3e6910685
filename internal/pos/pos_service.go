package pos

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go-workforce/internal/realtime"
	"go-workforce/internal/tenant"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type SessionInput struct {
	SessionID  string
	State      string
	BranchID   uuid.UUID
	OccurredAt time.Time
	CashierKey *string
}

type OrderInput struct {
	OrderID    string
	SessionID  string
	BranchID   uuid.UUID
	Amount     float64
	Currency   string
	OccurredAt time.Time
}

type RepoFunc func(h *tenant.Handle) Repository

//go:generate mockgen -source=pos_service.go -destination=mock/pos_service_mock.go -package=mock
type Service interface {
	// RecordSession persists a session open/close event. The returned bool
	// is false when the event was already recorded.
	RecordSession(ctx context.Context, h *tenant.Handle, in SessionInput) (bool, error)
	RecordOrder(ctx context.Context, h *tenant.Handle, in OrderInput) (bool, error)
	ListByBranch(ctx context.Context, h *tenant.Handle, branchID string, limit int) ([]EventResponse, error)
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
	l := zap.L().Named("pos.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("pos.service")
	}
	return &service{repoFor: repoFor, rt: rt, logger: l}
}

func (s *service) RecordSession(ctx context.Context, h *tenant.Handle, in SessionInput) (bool, error) {
	eventType := EventSessionOpened
	if in.State == "closed" {
		eventType = EventSessionClosed
	}

	details, _ := json.Marshal(map[string]any{
		"session_id":  in.SessionID,
		"state":       in.State,
		"cashier_key": in.CashierKey,
	})
	ev := &Event{
		ID:          uuid.New(),
		BranchID:    in.BranchID,
		Type:        eventType,
		ExternalRef: "pos-session:" + in.SessionID + ":" + in.State,
		SessionRef:  in.SessionID,
		OccurredAt:  in.OccurredAt,
		Details:     details,
	}
	return s.record(ctx, h, ev)
}

func (s *service) RecordOrder(ctx context.Context, h *tenant.Handle, in OrderInput) (bool, error) {
	details, _ := json.Marshal(map[string]any{
		"order_id":   in.OrderID,
		"session_id": in.SessionID,
	})
	ev := &Event{
		ID:          uuid.New(),
		BranchID:    in.BranchID,
		Type:        EventOrderPlaced,
		ExternalRef: "pos-order:" + in.OrderID,
		SessionRef:  in.SessionID,
		Amount:      &in.Amount,
		OccurredAt:  in.OccurredAt,
		Details:     details,
	}
	if in.Currency != "" {
		ev.Currency = &in.Currency
	}
	return s.record(ctx, h, ev)
}

func (s *service) record(ctx context.Context, h *tenant.Handle, ev *Event) (bool, error) {
	repo := s.repoFor(h)

	if _, err := repo.FindByExternalRef(ctx, ev.ExternalRef); err == nil {
		s.logger.Info("pos event already recorded",
			zap.String("company_id", h.CompanyID),
			zap.String("external_ref", ev.ExternalRef),
		)
		return false, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	if err := repo.Create(ctx, ev); err != nil {
		s.logger.Error("pos event persist failed",
			zap.String("company_id", h.CompanyID),
			zap.String("external_ref", ev.ExternalRef),
			zap.Error(err),
		)
		return false, err
	}

	s.logger.Info("pos event recorded",
		zap.String("company_id", h.CompanyID),
		zap.String("branch_id", ev.BranchID.String()),
		zap.String("type", ev.Type),
		zap.String("external_ref", ev.ExternalRef),
	)

	err := s.rt.Publish(ctx, h.CompanyID, realtime.BranchRoom(ev.BranchID.String()), ev.Type, map[string]any{
		"event_id":    ev.ID.String(),
		"session_ref": ev.SessionRef,
		"occurred_at": ev.OccurredAt,
	})
	if err != nil {
		s.logger.Warn("pos branch room push failed",
			zap.String("company_id", h.CompanyID),
			zap.String("branch_id", ev.BranchID.String()),
			zap.Error(err),
		)
	}
	return true, nil
}

func (s *service) ListByBranch(ctx context.Context, h *tenant.Handle, branchID string, limit int) ([]EventResponse, error) {
	rows, err := s.repoFor(h).ListByBranch(ctx, branchID, limit)
	if err != nil {
		return nil, err
	}
	resp := make([]EventResponse, len(rows))
	for i, ev := range rows {
		resp[i] = mapToResponse(ev)
	}
	return resp, nil
}

func mapToResponse(ev Event) EventResponse {
	return EventResponse{
		ID:         ev.ID.String(),
		BranchID:   ev.BranchID.String(),
		Type:       ev.Type,
		SessionRef: ev.SessionRef,
		Amount:     ev.Amount,
		Currency:   ev.Currency,
		OccurredAt: ev.OccurredAt.Format(time.RFC3339),
	}
}
